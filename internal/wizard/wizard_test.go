package wizard

import (
	"context"
	"errors"
	"sync"
	"testing"

	"telematic/internal/database"
	"telematic/internal/storage"
)

// fakeCreator records create calls and fails on demand.
type fakeCreator struct {
	mu      sync.Mutex
	calls   []*database.Bot
	err     error
	started chan struct{}
	release chan struct{}
}

func (f *fakeCreator) CreateBot(ctx context.Context, b *database.Bot) error {
	if f.started != nil {
		close(f.started)
		<-f.release
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *b
	f.calls = append(f.calls, &copied)
	return f.err
}

func (f *fakeCreator) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func newTestDraft(creator Creator) *Draft {
	return NewDraft(creator, storage.NewMemory(), nil)
}

func fillStep1(d *Draft) {
	d.SetName("Мой бот")
	d.SetToken("123:abc")
	d.SetChannelID(-100123)
}

func TestNameDrivesIdentifier(t *testing.T) {
	d := newTestDraft(&fakeCreator{})

	d.SetName("Мой бот")
	if got := d.Step1Data().Identifier; got != "moi-bot" {
		t.Errorf("expected moi-bot, got %q", got)
	}

	d.SetName("Новое имя")
	if got := d.Step1Data().Identifier; got != "novoe-imya" {
		t.Errorf("expected novoe-imya, got %q", got)
	}
}

func TestManualEditStopsDerivation(t *testing.T) {
	d := newTestDraft(&fakeCreator{})

	d.SetName("Мой бот")
	d.SetIdentifier("custom-1")
	d.SetName("Другое имя")

	if got := d.Step1Data().Identifier; got != "custom-1" {
		t.Errorf("expected custom-1 after manual edit, got %q", got)
	}

	// Clearing and retyping the name still never re-derives.
	d.SetName("")
	d.SetName("Мой бот")
	if got := d.Step1Data().Identifier; got != "custom-1" {
		t.Errorf("expected custom-1 to survive name changes, got %q", got)
	}
}

func TestManualEditSanitized(t *testing.T) {
	d := newTestDraft(&fakeCreator{})

	d.SetIdentifier("My Bot!!")
	if got := d.Step1Data().Identifier; got != "mybot" {
		t.Errorf("expected mybot, got %q", got)
	}
}

func TestStep1GateRequiresAllFields(t *testing.T) {
	// Setting the name auto-derives the identifier, so the gate opens
	// exactly when name, token and channel are all present.
	for mask := 0; mask < 1<<4; mask++ {
		d := newTestDraft(&fakeCreator{})
		if mask&1 != 0 {
			d.SetName("bot")
		}
		if mask&2 != 0 {
			d.SetIdentifier("bot")
		}
		if mask&4 != 0 {
			d.SetToken("t")
		}
		if mask&8 != 0 {
			d.SetChannelID(-1)
		}

		err := d.Next()
		complete := mask&1 != 0 && mask&4 != 0 && mask&8 != 0
		if complete && err != nil {
			t.Errorf("mask %b: expected gate to open, got %v", mask, err)
		}
		if !complete {
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Errorf("mask %b: expected ValidationError, got %v", mask, err)
			}
		}
	}
}

func TestStep1GateBlocksUnderivableIdentifier(t *testing.T) {
	d := newTestDraft(&fakeCreator{})
	// Nothing survives derivation, so the identifier stays empty.
	d.SetName("!!! ???")
	d.SetToken("t")
	d.SetChannelID(-1)

	var verr *ValidationError
	if err := d.Next(); !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}

	// A manual identifier unblocks the gate.
	d.SetIdentifier("manual-id")
	if err := d.Next(); err != nil {
		t.Errorf("expected gate to open with manual identifier, got %v", err)
	}
}

func TestBackKeepsData(t *testing.T) {
	d := newTestDraft(&fakeCreator{})
	fillStep1(d)
	if err := d.Next(); err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	d.SetStep2(Step2Data{WelcomeMsg: "привет"})

	if err := d.Back(); err != nil {
		t.Fatalf("Back failed: %v", err)
	}
	if d.Step() != Step1 {
		t.Errorf("expected step 1, got %d", d.Step())
	}
	if d.Step2Data().WelcomeMsg != "привет" {
		t.Error("backward transition discarded step 2 data")
	}
	if d.Step1Data().Token != "123:abc" {
		t.Error("backward transition discarded step 1 data")
	}
}

func TestSubmitCreatesDisabled(t *testing.T) {
	creator := &fakeCreator{}
	d := newTestDraft(creator)
	fillStep1(d)
	if err := d.Next(); err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	d.SetStep2(Step2Data{WelcomeMsg: "hi", ButtonText: "go"})

	bot, err := d.Submit(context.Background())
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if bot.Enabled {
		t.Error("new bot must be created disabled")
	}
	if bot.ID != "moi-bot" {
		t.Errorf("expected moi-bot, got %s", bot.ID)
	}
	if d.Step() != Step3 {
		t.Errorf("expected step 3 after create, got %d", d.Step())
	}
	if creator.callCount() != 1 {
		t.Errorf("expected exactly one create call, got %d", creator.callCount())
	}
}

func TestSubmitFailureStaysOnStep2(t *testing.T) {
	creator := &fakeCreator{err: database.ErrConflict}
	d := newTestDraft(creator)
	fillStep1(d)
	if err := d.Next(); err != nil {
		t.Fatalf("Next failed: %v", err)
	}

	_, err := d.Submit(context.Background())
	if !errors.Is(err, database.ErrConflict) {
		t.Fatalf("expected conflict error passed through, got %v", err)
	}
	if d.Step() != Step2 {
		t.Errorf("expected to remain on step 2, got %d", d.Step())
	}
	if d.Step1Data().Name != "Мой бот" {
		t.Error("failed submit discarded draft data")
	}

	// A corrected resubmit issues a fresh create.
	creator.err = nil
	d.SetIdentifier("moi-bot-2")
	if _, err := d.Submit(context.Background()); err != nil {
		t.Fatalf("resubmit failed: %v", err)
	}
	if creator.callCount() != 2 {
		t.Errorf("expected 2 create calls, got %d", creator.callCount())
	}
}

func TestSubmitWhileInFlight(t *testing.T) {
	creator := &fakeCreator{
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	d := newTestDraft(creator)
	fillStep1(d)
	if err := d.Next(); err != nil {
		t.Fatalf("Next failed: %v", err)
	}

	done := make(chan error, 1)
	go func() {
		_, err := d.Submit(context.Background())
		done <- err
	}()

	<-creator.started
	if _, err := d.Submit(context.Background()); !errors.Is(err, ErrCreateInFlight) {
		t.Errorf("expected ErrCreateInFlight, got %v", err)
	}
	close(creator.release)

	if err := <-done; err != nil {
		t.Fatalf("first submit failed: %v", err)
	}
}

func TestNoWayBackFromStep3(t *testing.T) {
	d := newTestDraft(&fakeCreator{})
	fillStep1(d)
	if err := d.Next(); err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	if _, err := d.Submit(context.Background()); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	if err := d.Back(); !errors.Is(err, ErrTerminal) {
		t.Errorf("expected ErrTerminal, got %v", err)
	}
	if _, err := d.Submit(context.Background()); !errors.Is(err, ErrTerminal) {
		t.Errorf("expected ErrTerminal on resubmit, got %v", err)
	}
}

func TestFieldsFrozenAfterCreate(t *testing.T) {
	d := newTestDraft(&fakeCreator{})
	fillStep1(d)
	if err := d.Next(); err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	if err := d.SetStep2(Step2Data{WelcomeMsg: "hi"}); err != nil {
		t.Fatalf("SetStep2 failed: %v", err)
	}
	if _, err := d.Submit(context.Background()); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	if err := d.SetName("Другое имя"); !errors.Is(err, ErrTerminal) {
		t.Errorf("SetName: expected ErrTerminal, got %v", err)
	}
	if err := d.SetIdentifier("new-id"); !errors.Is(err, ErrTerminal) {
		t.Errorf("SetIdentifier: expected ErrTerminal, got %v", err)
	}
	if err := d.SetToken("999:zzz"); !errors.Is(err, ErrTerminal) {
		t.Errorf("SetToken: expected ErrTerminal, got %v", err)
	}
	if err := d.SetChannelID(-9); !errors.Is(err, ErrTerminal) {
		t.Errorf("SetChannelID: expected ErrTerminal, got %v", err)
	}
	if err := d.SetStep2(Step2Data{WelcomeMsg: "changed"}); !errors.Is(err, ErrTerminal) {
		t.Errorf("SetStep2: expected ErrTerminal, got %v", err)
	}

	// The draft still reports exactly what was created.
	s1 := d.Step1Data()
	if s1.Name != "Мой бот" || s1.Identifier != "moi-bot" || s1.Token != "123:abc" || s1.ChannelID != -100123 {
		t.Errorf("terminal draft mutated: %+v", s1)
	}
	if d.Step2Data().WelcomeMsg != "hi" {
		t.Error("terminal step 2 data mutated")
	}
}

func TestAssetsOnlyInTerminalState(t *testing.T) {
	d := newTestDraft(&fakeCreator{})
	fillStep1(d)

	if _, err := d.Assets(); !errors.Is(err, ErrNotCompleted) {
		t.Errorf("expected ErrNotCompleted on step 1, got %v", err)
	}

	if err := d.Next(); err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	if _, err := d.Assets(); !errors.Is(err, ErrNotCompleted) {
		t.Errorf("expected ErrNotCompleted on step 2, got %v", err)
	}

	if _, err := d.Submit(context.Background()); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	scope, err := d.Assets()
	if err != nil {
		t.Fatalf("Assets failed on step 3: %v", err)
	}
	if scope.BotID() != "moi-bot" {
		t.Errorf("asset scope bound to %s, want moi-bot", scope.BotID())
	}
}

func TestSubmitInvalidatesListing(t *testing.T) {
	invalidated := ""
	d := NewDraft(&fakeCreator{}, storage.NewMemory(), func(id string) { invalidated = id })
	fillStep1(d)
	if err := d.Next(); err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	if _, err := d.Submit(context.Background()); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if invalidated != "moi-bot" {
		t.Errorf("expected invalidation callback with moi-bot, got %q", invalidated)
	}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry(&fakeCreator{}, storage.NewMemory(), nil)

	id, d := r.Start()
	if d == nil || id == "" {
		t.Fatal("Start returned empty draft")
	}

	got, err := r.Get(id)
	if err != nil || got != d {
		t.Fatalf("Get returned %v, %v", got, err)
	}

	r.Discard(id)
	if _, err := r.Get(id); !errors.Is(err, ErrDraftNotFound) {
		t.Errorf("expected ErrDraftNotFound after discard, got %v", err)
	}
}
