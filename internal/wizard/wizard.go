// Package wizard drives the three-step bot creation flow. Step 1 collects
// the core fields and derives the identifier, step 2 collects the message
// texts and issues the single create call, step 3 is terminal and is the
// only state from which asset operations are reachable.
package wizard

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"telematic/internal/assets"
	"telematic/internal/database"
	"telematic/internal/slug"
	"telematic/internal/storage"
)

// Step identifies the active wizard step.
type Step int

const (
	Step1 Step = 1
	Step2 Step = 2
	Step3 Step = 3
)

var (
	// ErrCreateInFlight is returned when a submit arrives while a previous
	// create call has not resolved yet.
	ErrCreateInFlight = errors.New("create already in progress")
	// ErrTerminal is returned for transitions out of step 3 and for field
	// edits once the flow completed. The created bot is not retractable or
	// editable through the wizard.
	ErrTerminal = errors.New("wizard already completed")
	// ErrNotCompleted is returned when asset operations are requested
	// before the bot exists.
	ErrNotCompleted = errors.New("bot not created yet")
)

// ValidationError reports the required fields still missing at a gate.
type ValidationError struct {
	Missing []string
}

func (e *ValidationError) Error() string {
	return "missing required fields: " + strings.Join(e.Missing, ", ")
}

// Step1Data holds the fields collected on the first step.
type Step1Data struct {
	Name       string `json:"name"`
	Identifier string `json:"id"`
	Token      string `json:"token"`
	ChannelID  int64  `json:"channel_id"`
}

// Step2Data holds the message texts collected on the second step.
type Step2Data struct {
	InviteLink string `json:"invite_link"`
	WelcomeMsg string `json:"welcome_msg"`
	ButtonText string `json:"button_text"`
	NotSubMsg  string `json:"not_sub_msg"`
	SuccessMsg string `json:"success_msg"`
}

// Creator issues the parent create call. Satisfied by the database layer.
type Creator interface {
	CreateBot(ctx context.Context, b *database.Bot) error
}

// Draft is one in-progress wizard flow. It lives in memory only and is
// discarded when the flow completes or is abandoned.
type Draft struct {
	mu sync.Mutex

	step      Step
	step1     Step1Data
	step2     Step2Data
	idTouched bool
	creating  bool

	creator Creator
	store   storage.ObjectStore

	created *database.Bot
	scope   *assets.Service

	// onCreated invalidates cached listings once the bot exists.
	onCreated func(id string)
}

// NewDraft starts a fresh flow on step 1.
func NewDraft(creator Creator, store storage.ObjectStore, onCreated func(id string)) *Draft {
	return &Draft{
		step:      Step1,
		creator:   creator,
		store:     store,
		onCreated: onCreated,
	}
}

// Step returns the active step.
func (d *Draft) Step() Step {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.step
}

// SetName updates the display name. The identifier follows automatically
// until the user edits it by hand; after that the name never touches it
// again, even if cleared and retyped.
func (d *Draft) SetName(name string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.step == Step3 {
		return ErrTerminal
	}
	d.step1.Name = name
	if !d.idTouched {
		d.step1.Identifier = slug.Derive(name)
	}
	return nil
}

// SetIdentifier records a manual identifier edit. Manual input is assumed
// already Latin: it is sanitized but never transliterated.
func (d *Draft) SetIdentifier(id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.step == Step3 {
		return ErrTerminal
	}
	d.idTouched = true
	d.step1.Identifier = slug.SanitizeManual(id)
	return nil
}

// SetToken updates the bot token.
func (d *Draft) SetToken(token string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.step == Step3 {
		return ErrTerminal
	}
	d.step1.Token = token
	return nil
}

// SetChannelID updates the channel reference.
func (d *Draft) SetChannelID(id int64) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.step == Step3 {
		return ErrTerminal
	}
	d.step1.ChannelID = id
	return nil
}

// SetStep2 replaces the second step's data wholesale.
func (d *Draft) SetStep2(data Step2Data) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.step == Step3 {
		return ErrTerminal
	}
	d.step2 = data
	return nil
}

// Step1Data returns a copy of the first step's fields.
func (d *Draft) Step1Data() Step1Data {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.step1
}

// Step2Data returns a copy of the second step's fields.
func (d *Draft) Step2Data() Step2Data {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.step2
}

// Next advances from step 1 to step 2. The gate requires name, identifier,
// token and channel reference; anything missing blocks the transition.
func (d *Draft) Next() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	switch d.step {
	case Step1:
		if missing := d.missingStep1Fields(); len(missing) > 0 {
			return &ValidationError{Missing: missing}
		}
		d.step = Step2
		return nil
	case Step2:
		return errors.New("step 3 is reached by submitting, not by advancing")
	default:
		return ErrTerminal
	}
}

// Back returns from step 2 to step 1 without discarding anything. There is
// no way back out of step 3.
func (d *Draft) Back() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	switch d.step {
	case Step2:
		d.step = Step1
		return nil
	case Step3:
		return ErrTerminal
	default:
		return errors.New("already on the first step")
	}
}

func (d *Draft) missingStep1Fields() []string {
	var missing []string
	if strings.TrimSpace(d.step1.Name) == "" {
		missing = append(missing, "name")
	}
	if d.step1.Identifier == "" {
		missing = append(missing, "id")
	}
	if strings.TrimSpace(d.step1.Token) == "" {
		missing = append(missing, "token")
	}
	if d.step1.ChannelID == 0 {
		missing = append(missing, "channel_id")
	}
	return missing
}

// Submit issues the one and only create call for this flow. The new bot is
// always created disabled; enabling it is an explicit action afterwards.
// On failure the draft stays on step 2 with all fields intact and the error
// is returned verbatim; a second Submit then attempts a fresh create. While
// one create is in flight further submits are rejected.
func (d *Draft) Submit(ctx context.Context) (*database.Bot, error) {
	d.mu.Lock()
	if d.step == Step3 {
		d.mu.Unlock()
		return nil, ErrTerminal
	}
	if d.step != Step2 {
		d.mu.Unlock()
		return nil, fmt.Errorf("cannot submit from step %d", d.step)
	}
	if d.creating {
		d.mu.Unlock()
		return nil, ErrCreateInFlight
	}
	if missing := d.missingStep1Fields(); len(missing) > 0 {
		d.mu.Unlock()
		return nil, &ValidationError{Missing: missing}
	}

	d.creating = true
	bot := &database.Bot{
		ID:         d.step1.Identifier,
		Name:       d.step1.Name,
		Token:      d.step1.Token,
		ChannelID:  d.step1.ChannelID,
		InviteLink: d.step2.InviteLink,
		WelcomeMsg: d.step2.WelcomeMsg,
		ButtonText: d.step2.ButtonText,
		NotSubMsg:  d.step2.NotSubMsg,
		SuccessMsg: d.step2.SuccessMsg,
		Enabled:    false,
	}
	d.mu.Unlock()

	err := d.creator.CreateBot(ctx, bot)

	d.mu.Lock()
	defer d.mu.Unlock()
	d.creating = false

	if err != nil {
		// Stay on step 2; the user corrects input and resubmits.
		return nil, err
	}

	d.step = Step3
	d.created = bot
	d.scope = assets.NewService(bot.ID, d.store)

	if d.onCreated != nil {
		d.onCreated(bot.ID)
	}

	return bot, nil
}

// Created returns the bot once the flow reached step 3.
func (d *Draft) Created() (*database.Bot, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.step != Step3 {
		return nil, ErrNotCompleted
	}
	return d.created, nil
}

// Assets returns the asset scope. It exists only in the terminal state, so
// an asset operation can never precede the create by construction.
func (d *Draft) Assets() (*assets.Service, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.step != Step3 {
		return nil, ErrNotCompleted
	}
	return d.scope, nil
}
