// Package assets manages the file collection attached to a bot: concurrent
// uploads, deletes and the reserved welcome-image slot, mirrored into a
// local collection that stays consistent however the operations interleave.
package assets

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"

	"telematic/internal/storage"
)

// Asset is one file in a bot's document collection.
type Asset struct {
	Key      string `json:"key"`
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
	URL      string `json:"url,omitempty"`
	BotID    string `json:"bot_id"`
}

// Welcome is the result of replacing the welcome-image slot.
type Welcome struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

// Service manages the asset collection of a single, already-created bot.
// Construct one only with a known bot ID; there is deliberately no way to
// point it at a bot that does not exist yet.
type Service struct {
	botID string
	store storage.ObjectStore
	col   *Collection
}

// NewService returns a Service scoped to botID.
func NewService(botID string, store storage.ObjectStore) *Service {
	return &Service{
		botID: botID,
		store: store,
		col:   NewCollection(),
	}
}

// BotID returns the owning bot identifier.
func (s *Service) BotID() string {
	return s.botID
}

// Refresh reseeds the local collection from the authoritative listing and
// returns the result. Call it whenever the scope is (re)established.
func (s *Service) Refresh(ctx context.Context) ([]Asset, error) {
	objects, err := s.store.List(ctx, storage.DocsPrefix(s.botID))
	if err != nil {
		return nil, fmt.Errorf("failed to list assets: %w", err)
	}

	listed := make([]Asset, 0, len(objects))
	for _, obj := range objects {
		a := Asset{
			Key:      obj.Key,
			Filename: storage.FilenameFromKey(obj.Key),
			Size:     obj.Size,
			BotID:    s.botID,
		}
		if url, err := s.store.URL(ctx, obj.Key); err == nil {
			a.URL = url
		}
		listed = append(listed, a)
	}

	s.col.Seed(listed)
	return listed, nil
}

// Upload stores one file and appends it to the local collection. Files with
// identical names stay distinct: entries are keyed by storage key, never by
// filename. A failed upload leaves the collection untouched.
func (s *Service) Upload(ctx context.Context, filename string, r io.Reader, size int64, contentType string) (Asset, error) {
	key := storage.NewDocKey(s.botID, filename)

	if err := s.store.Put(ctx, key, r, size, contentType); err != nil {
		return Asset{}, err
	}

	a := Asset{
		Key:      key,
		Filename: filename,
		Size:     size,
		BotID:    s.botID,
	}
	if url, err := s.store.URL(ctx, key); err == nil {
		a.URL = url
	}

	s.col.Add(a)
	return a, nil
}

// UploadResult reports the outcome of one file in a multi-file upload.
type UploadResult struct {
	Filename string `json:"filename"`
	Asset    *Asset `json:"asset,omitempty"`
	Err      error  `json:"-"`
}

// File is one pending upload handed to UploadAll.
type File struct {
	Name        string
	Reader      io.Reader
	Size        int64
	ContentType string
}

// UploadAll dispatches every file as an independent upload, the way a
// drag-and-drop of N files does. The operations resolve out of order and
// each mutates the collection on its own; failures are reported per file
// and never abort the others.
func (s *Service) UploadAll(ctx context.Context, files []File) []UploadResult {
	results := make([]UploadResult, len(files))

	var wg sync.WaitGroup
	for i, f := range files {
		wg.Add(1)
		go func(i int, f File) {
			defer wg.Done()
			a, err := s.Upload(ctx, f.Name, f.Reader, f.Size, f.ContentType)
			if err != nil {
				results[i] = UploadResult{Filename: f.Name, Err: err}
				return
			}
			results[i] = UploadResult{Filename: f.Name, Asset: &a}
		}(i, f)
	}
	wg.Wait()

	return results
}

// Remove deletes an asset by storage key. A key that is already gone on the
// server counts as success: the goal state is reached either way.
func (s *Service) Remove(ctx context.Context, key string) error {
	if err := s.store.Delete(ctx, key); err != nil && !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("failed to delete asset %s: %w", key, err)
	}
	s.col.Remove(key)
	return nil
}

// ReplaceWelcome overwrites the reserved welcome-image slot. The slot is not
// part of the document collection; success unconditionally supersedes any
// previous image. oldKey, when set and different, is removed best-effort.
func (s *Service) ReplaceWelcome(ctx context.Context, oldKey, filename string, r io.Reader, size int64, contentType string) (Welcome, error) {
	if !storage.AllowedWelcomeType(contentType) {
		return Welcome{}, storage.ErrUnsupportedType
	}

	key := storage.WelcomeKey(s.botID, filename)
	if err := s.store.Put(ctx, key, r, size, contentType); err != nil {
		return Welcome{}, err
	}

	if oldKey != "" && oldKey != key {
		if err := s.store.Delete(ctx, oldKey); err != nil && !errors.Is(err, storage.ErrNotFound) {
			log.Printf("Failed to remove previous welcome image %s: %v", oldKey, err)
		}
	}

	url, err := s.store.URL(ctx, key)
	if err != nil {
		return Welcome{}, fmt.Errorf("failed to build welcome image URL: %w", err)
	}

	return Welcome{Key: key, URL: url}, nil
}

// Snapshot returns the current local collection in arrival order.
func (s *Service) Snapshot() []Asset {
	return s.col.Snapshot()
}

// RemoveAll deletes every stored object belonging to the bot, collection
// and welcome slot alike. Used when the bot itself is deleted.
func (s *Service) RemoveAll(ctx context.Context) error {
	objects, err := s.store.List(ctx, s.botID+"/")
	if err != nil {
		return fmt.Errorf("failed to list bot objects: %w", err)
	}

	for _, obj := range objects {
		if err := s.store.Delete(ctx, obj.Key); err != nil && !errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("failed to delete %s: %w", obj.Key, err)
		}
	}

	s.col.Seed(nil)
	return nil
}
