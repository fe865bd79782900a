package transfer

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"telematic/internal/database"
	"telematic/internal/storage"
)

// memStore collects created bots in memory.
type memStore struct {
	bots []database.Bot
}

func (m *memStore) create(b *database.Bot) error {
	for _, existing := range m.bots {
		if existing.ID == b.ID {
			return database.ErrConflict
		}
	}
	m.bots = append(m.bots, *b)
	return nil
}

func (m *memStore) list() ([]database.Bot, error) {
	return m.bots, nil
}

func newTestService() (*Service, *memStore, *storage.MemoryStore) {
	ms := &memStore{}
	objects := storage.NewMemory()
	return NewService(ms.create, ms.list, objects), ms, objects
}

func TestImportBatchPartialFailure(t *testing.T) {
	svc, ms, _ := newTestService()

	items := []database.Bot{
		{ID: "first", Name: "First", Token: "t1", ChannelID: -1, Enabled: true},
		{ID: "", Name: "Broken", Token: "t2", ChannelID: -2},
		{ID: "third", Name: "Third", Token: "t3", ChannelID: -3, Enabled: true},
	}

	report := svc.ImportBatch(items)

	if len(report.Imported) != 2 || report.Imported[0] != "first" || report.Imported[1] != "third" {
		t.Errorf("expected [first third] imported, got %v", report.Imported)
	}
	if len(report.Errors) != 1 {
		t.Errorf("expected exactly one error, got %v", report.Errors)
	}

	// Safety default: imported bots are disabled no matter the payload.
	for _, b := range ms.bots {
		if b.Enabled {
			t.Errorf("bot %s imported enabled", b.ID)
		}
	}
}

func TestImportBatchRejectsInvalidID(t *testing.T) {
	svc, _, _ := newTestService()

	report := svc.ImportBatch([]database.Bot{
		{ID: "Bad_ID!", Name: "X", Token: "t", ChannelID: -1},
	})
	if len(report.Imported) != 0 || len(report.Errors) != 1 {
		t.Errorf("expected validation failure, got %+v", report)
	}
}

func TestImportBatchConflict(t *testing.T) {
	svc, ms, _ := newTestService()
	ms.bots = []database.Bot{{ID: "taken", Name: "Old", Token: "t", ChannelID: -1}}

	report := svc.ImportBatch([]database.Bot{
		{ID: "taken", Name: "New", Token: "t", ChannelID: -1},
	})
	if len(report.Errors) != 1 {
		t.Errorf("expected conflict error, got %+v", report)
	}
}

func TestExportImportJSONRoundTrip(t *testing.T) {
	svc, ms, _ := newTestService()
	ms.bots = []database.Bot{
		{ID: "a", Name: "A", Token: "ta", ChannelID: -1, Enabled: true},
		{ID: "b", Name: "B", Token: "tb", ChannelID: -2},
	}

	var buf bytes.Buffer
	if err := svc.ExportJSON(&buf); err != nil {
		t.Fatalf("ExportJSON failed: %v", err)
	}

	svc2, ms2, _ := newTestService()
	report, err := svc2.ImportJSON(&buf)
	if err != nil {
		t.Fatalf("ImportJSON failed: %v", err)
	}
	if len(report.Imported) != 2 || len(report.Errors) != 0 {
		t.Fatalf("unexpected report: %+v", report)
	}
	if len(ms2.bots) != 2 {
		t.Fatalf("expected 2 bots created, got %d", len(ms2.bots))
	}
	if ms2.bots[0].Enabled {
		t.Error("imported bot must be disabled even when exported enabled")
	}
}

func TestImportJSONMalformed(t *testing.T) {
	svc, _, _ := newTestService()
	if _, err := svc.ImportJSON(strings.NewReader("{not json")); err == nil {
		t.Error("expected decode error")
	}
}

func TestExportImportZipCarriesAssets(t *testing.T) {
	ctx := context.Background()
	svc, ms, objects := newTestService()
	ms.bots = []database.Bot{{ID: "my-bot", Name: "Bot", Token: "t", ChannelID: -1}}

	docKey := storage.NewDocKey("my-bot", "guide.pdf")
	if err := objects.Put(ctx, docKey, strings.NewReader("doc"), 3, "application/pdf"); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := objects.Put(ctx, "my-bot/welcome.jpg", strings.NewReader("img"), 3, "image/jpeg"); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	var buf bytes.Buffer
	if err := svc.ExportZip(ctx, &buf); err != nil {
		t.Fatalf("ExportZip failed: %v", err)
	}

	svc2, ms2, objects2 := newTestService()
	report, err := svc2.ImportZip(ctx, bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatalf("ImportZip failed: %v", err)
	}
	if len(report.Imported) != 1 || len(report.Errors) != 0 {
		t.Fatalf("unexpected report: %+v", report)
	}
	if len(ms2.bots) != 1 || ms2.bots[0].ID != "my-bot" {
		t.Fatalf("expected my-bot imported, got %+v", ms2.bots)
	}

	restored, err := objects2.List(ctx, "my-bot/")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(restored) != 2 {
		t.Errorf("expected 2 restored objects, got %d", len(restored))
	}
}

func TestImportZipSkipsAssetsOfFailedItems(t *testing.T) {
	ctx := context.Background()
	svc, ms, objects := newTestService()
	// The target already has this bot, so the definition import conflicts.
	ms.bots = []database.Bot{{ID: "my-bot", Name: "Old", Token: "t", ChannelID: -1}}

	source, sourceMs, sourceObjects := newTestService()
	sourceMs.bots = []database.Bot{{ID: "my-bot", Name: "New", Token: "t", ChannelID: -1}}
	if err := sourceObjects.Put(ctx, "my-bot/docs/k_file.pdf", strings.NewReader("x"), 1, "application/pdf"); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	var buf bytes.Buffer
	if err := source.ExportZip(ctx, &buf); err != nil {
		t.Fatalf("ExportZip failed: %v", err)
	}

	report, err := svc.ImportZip(ctx, bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatalf("ImportZip failed: %v", err)
	}
	if len(report.Imported) != 0 || len(report.Errors) != 1 {
		t.Fatalf("expected conflict, got %+v", report)
	}

	restored, err := objects.List(ctx, "my-bot/")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(restored) != 0 {
		t.Errorf("assets of a failed item must not be restored, got %d objects", len(restored))
	}
}

func TestImportZipRejectsTraversalPaths(t *testing.T) {
	ctx := context.Background()
	svc, _, objects := newTestService()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	cfg, err := zw.Create("bots.json")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	items := []database.Bot{{ID: "my-bot", Name: "Bot", Token: "t", ChannelID: -1}}
	if err := json.NewEncoder(cfg).Encode(items); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	for name, body := range map[string]string{
		"assets/my-bot/docs/ok.txt":  "fine",
		"assets/my-bot/../other/x":   "escapes the bot prefix",
		"assets//absolute-ish/y":     "empty segment",
		"assets/my-bot/./sneaky.txt": "dot segment",
	} {
		f, err := zw.Create(name)
		if err != nil {
			t.Fatalf("Create %s failed: %v", name, err)
		}
		if _, err := f.Write([]byte(body)); err != nil {
			t.Fatalf("Write %s failed: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	report, err := svc.ImportZip(ctx, bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatalf("ImportZip failed: %v", err)
	}
	if len(report.Imported) != 1 {
		t.Fatalf("expected my-bot imported, got %+v", report)
	}
	if len(report.Errors) != 3 {
		t.Errorf("expected every crafted path rejected, got %v", report.Errors)
	}

	restored, err := objects.List(ctx, "")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(restored) != 1 || restored[0].Key != "my-bot/docs/ok.txt" {
		t.Errorf("only the clean asset may be restored, got %+v", restored)
	}
}

func TestReportSerializesEmptySlices(t *testing.T) {
	svc, _, _ := newTestService()
	report := svc.ImportBatch(nil)

	data, err := json.Marshal(report)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if string(data) != `{"imported":[],"errors":[]}` {
		t.Errorf("unexpected serialization: %s", data)
	}
}
