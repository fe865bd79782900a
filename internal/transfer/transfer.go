// Package transfer implements bulk import and export of bot definitions,
// as plain JSON (configuration only) or as a zip archive carrying the
// stored assets alongside.
package transfer

import (
	"archive/zip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"mime"
	"path"
	"strings"

	"telematic/internal/database"
	"telematic/internal/slug"
	"telematic/internal/storage"
)

// Report is the per-item outcome of a batch import.
type Report struct {
	Imported []string `json:"imported"`
	Errors   []string `json:"errors"`
}

// Service performs transfers against the bot store and object storage.
type Service struct {
	create func(*database.Bot) error
	list   func() ([]database.Bot, error)
	store  storage.ObjectStore
}

// NewService wires a transfer service.
func NewService(create func(*database.Bot) error, list func() ([]database.Bot, error), store storage.ObjectStore) *Service {
	return &Service{create: create, list: list, store: store}
}

// ImportBatch merges a batch of definitions into the collection. Items are
// attempted independently: one failure never aborts the rest. Every
// imported bot is forced to disabled no matter what the payload says, so
// nothing starts running without an explicit manual action.
func (s *Service) ImportBatch(items []database.Bot) Report {
	report := Report{Imported: []string{}, Errors: []string{}}

	for i := range items {
		item := items[i]
		if err := validateItem(&item); err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("bot %q: %v", item.ID, err))
			continue
		}

		item.Enabled = false
		if err := s.create(&item); err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("bot %q: %v", item.ID, err))
			continue
		}
		report.Imported = append(report.Imported, item.ID)
	}

	return report
}

func validateItem(b *database.Bot) error {
	switch {
	case b.ID == "":
		return fmt.Errorf("missing id")
	case !slug.Valid(b.ID):
		return fmt.Errorf("invalid id")
	case strings.TrimSpace(b.Name) == "":
		return fmt.Errorf("missing name")
	case strings.TrimSpace(b.Token) == "":
		return fmt.Errorf("missing token")
	case b.ChannelID == 0:
		return fmt.Errorf("missing channel_id")
	}
	return nil
}

// ImportJSON decodes a JSON array of definitions and imports it.
func (s *Service) ImportJSON(r io.Reader) (Report, error) {
	var items []database.Bot
	if err := json.NewDecoder(r).Decode(&items); err != nil {
		return Report{}, fmt.Errorf("failed to decode import payload: %w", err)
	}
	return s.ImportBatch(items), nil
}

// ExportJSON writes every definition as a JSON array. Configuration only;
// assets are not included.
func (s *Service) ExportJSON(w io.Writer) error {
	bots, err := s.list()
	if err != nil {
		return fmt.Errorf("failed to list bots: %w", err)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(bots); err != nil {
		return fmt.Errorf("failed to encode export: %w", err)
	}
	return nil
}

const (
	archiveConfigName  = "bots.json"
	archiveAssetPrefix = "assets/"
)

// ExportZip writes a zip archive with bots.json plus every stored object
// of every bot under assets/.
func (s *Service) ExportZip(ctx context.Context, w io.Writer) error {
	bots, err := s.list()
	if err != nil {
		return fmt.Errorf("failed to list bots: %w", err)
	}

	zw := zip.NewWriter(w)

	cfg, err := zw.Create(archiveConfigName)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", archiveConfigName, err)
	}
	if err := json.NewEncoder(cfg).Encode(bots); err != nil {
		return fmt.Errorf("failed to encode %s: %w", archiveConfigName, err)
	}

	for _, bot := range bots {
		objects, err := s.store.List(ctx, bot.ID+"/")
		if err != nil {
			return fmt.Errorf("failed to list assets of %s: %w", bot.ID, err)
		}
		for _, obj := range objects {
			if err := s.archiveObject(ctx, zw, obj.Key); err != nil {
				return err
			}
		}
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to finish archive: %w", err)
	}
	return nil
}

func (s *Service) archiveObject(ctx context.Context, zw *zip.Writer, key string) error {
	rc, _, err := s.store.Get(ctx, key)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", key, err)
	}
	defer rc.Close()

	f, err := zw.Create(archiveAssetPrefix + key)
	if err != nil {
		return fmt.Errorf("failed to add %s to archive: %w", key, err)
	}
	if _, err := io.Copy(f, rc); err != nil {
		return fmt.Errorf("failed to copy %s into archive: %w", key, err)
	}
	return nil
}

// ImportZip imports an archive produced by ExportZip. Definitions funnel
// through the same per-item contract as the JSON form; assets are restored
// only for bots that imported successfully.
func (s *Service) ImportZip(ctx context.Context, r io.ReaderAt, size int64) (Report, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return Report{}, fmt.Errorf("failed to open archive: %w", err)
	}

	cfg, err := zr.Open(archiveConfigName)
	if err != nil {
		return Report{}, fmt.Errorf("archive has no %s: %w", archiveConfigName, err)
	}
	report, err := s.ImportJSON(cfg)
	cfg.Close()
	if err != nil {
		return Report{}, err
	}

	imported := make(map[string]bool, len(report.Imported))
	for _, id := range report.Imported {
		imported[id] = true
	}

	for _, f := range zr.File {
		key, ok := strings.CutPrefix(f.Name, archiveAssetPrefix)
		if !ok {
			continue
		}
		if !safeObjectKey(key) {
			report.Errors = append(report.Errors, fmt.Sprintf("asset %q: unsafe archive path", f.Name))
			continue
		}
		botID, _, found := strings.Cut(key, "/")
		if !found || !imported[botID] {
			continue
		}
		if err := s.restoreObject(ctx, f, key); err != nil {
			log.Printf("Failed to restore asset %s: %v", key, err)
			report.Errors = append(report.Errors, fmt.Sprintf("asset %q: %v", key, err))
		}
	}

	return report, nil
}

// safeObjectKey rejects archive member names that could resolve outside
// their bot's prefix once used as storage keys.
func safeObjectKey(key string) bool {
	if key == "" || strings.HasPrefix(key, "/") {
		return false
	}
	for _, seg := range strings.Split(key, "/") {
		if seg == "" || seg == "." || seg == ".." {
			return false
		}
	}
	return true
}

func (s *Service) restoreObject(ctx context.Context, f *zip.File, key string) error {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	contentType := mime.TypeByExtension(path.Ext(key))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return s.store.Put(ctx, key, rc, int64(f.UncompressedSize64), contentType)
}
