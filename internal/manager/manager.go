// Package manager supervises the running bot processes. Each enabled bot
// runs as a goroutine owned by the manager; the manager tracks its runtime
// state and exposes start/stop/restart lifecycle actions.
package manager

import (
	"context"
	"errors"
	"log"
	"sync"

	"telematic/internal/database"
)

// State is the runtime state of one bot.
type State string

const (
	StateStopped  State = "stopped"
	StateStarting State = "starting"
	StateRunning  State = "running"
	StateError    State = "error"
)

// Status pairs a state with the error message that put it there, if any.
type Status struct {
	State   State  `json:"state"`
	Message string `json:"message,omitempty"`
}

var (
	ErrNotFound       = errors.New("bot is not supervised")
	ErrAlreadyRunning = errors.New("bot is already running")
	ErrAlreadyStopped = errors.New("bot is already stopped")
)

// Runner executes one bot until the context is cancelled. It must call
// ready exactly once when the bot is fully up. A returned error marks the
// bot as failed; a nil return after cancellation marks it stopped.
type Runner interface {
	Run(ctx context.Context, bot database.Bot, ready func()) error
}

type proc struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Manager owns the set of running bots.
type Manager struct {
	mu     sync.Mutex
	runner Runner
	procs  map[string]*proc
	states map[string]Status

	// onChange fires after every state transition, for immediate
	// dashboard refresh.
	onChange func()
}

// New creates a manager that executes bots through the given runner.
func New(runner Runner) *Manager {
	return &Manager{
		runner: runner,
		procs:  make(map[string]*proc),
		states: make(map[string]Status),
	}
}

// OnChange registers the state-transition hook. Safe to call while bots
// are already running; transitions before registration are simply not
// reported.
func (m *Manager) OnChange(fn func()) {
	m.mu.Lock()
	m.onChange = fn
	m.mu.Unlock()
}

// notify runs outside m.mu so the hook may call back into the manager.
func (m *Manager) notify() {
	m.mu.Lock()
	fn := m.onChange
	m.mu.Unlock()

	if fn != nil {
		fn()
	}
}

// Start launches one bot. It returns ErrAlreadyRunning when the bot is
// already starting or running.
func (m *Manager) Start(ctx context.Context, bot database.Bot) error {
	m.mu.Lock()
	if _, running := m.procs[bot.ID]; running {
		m.mu.Unlock()
		return ErrAlreadyRunning
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	p := &proc{cancel: cancel, done: make(chan struct{})}
	m.procs[bot.ID] = p
	m.states[bot.ID] = Status{State: StateStarting}
	m.mu.Unlock()
	m.notify()

	go m.run(runCtx, bot, p)
	return nil
}

func (m *Manager) run(ctx context.Context, bot database.Bot, p *proc) {
	defer close(p.done)

	err := m.runner.Run(ctx, bot, func() {
		m.setState(bot.ID, Status{State: StateRunning})
		log.Printf("Bot %s is running", bot.ID)
	})

	m.mu.Lock()
	delete(m.procs, bot.ID)
	if err != nil {
		m.states[bot.ID] = Status{State: StateError, Message: err.Error()}
	} else {
		m.states[bot.ID] = Status{State: StateStopped}
	}
	m.mu.Unlock()
	m.notify()

	if err != nil {
		log.Printf("Bot %s failed: %v", bot.ID, err)
	} else {
		log.Printf("Bot %s stopped", bot.ID)
	}
}

func (m *Manager) setState(id string, s Status) {
	m.mu.Lock()
	m.states[id] = s
	m.mu.Unlock()
	m.notify()
}

// Stop shuts one bot down and waits for its goroutine to exit. Stopping a
// bot that is not running returns ErrAlreadyStopped.
func (m *Manager) Stop(id string) error {
	m.mu.Lock()
	p, running := m.procs[id]
	m.mu.Unlock()

	if !running {
		return ErrAlreadyStopped
	}

	p.cancel()
	<-p.done
	return nil
}

// Restart stops the bot if it runs, then starts it fresh.
func (m *Manager) Restart(ctx context.Context, bot database.Bot) error {
	if err := m.Stop(bot.ID); err != nil && !errors.Is(err, ErrAlreadyStopped) {
		return err
	}
	return m.Start(ctx, bot)
}

// Status reports the runtime state of one bot. Bots never started are
// stopped.
func (m *Manager) Status(id string) Status {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.states[id]
	if !ok {
		return Status{State: StateStopped}
	}
	return s
}

// Snapshot returns the current state of every bot the manager has seen.
func (m *Manager) Snapshot() map[string]Status {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make(map[string]Status, len(m.states))
	for id, s := range m.states {
		out[id] = s
	}
	return out
}

// Forget drops all recorded state for a deleted bot, stopping it first if
// needed.
func (m *Manager) Forget(id string) {
	if err := m.Stop(id); err != nil && !errors.Is(err, ErrAlreadyStopped) {
		log.Printf("Failed to stop bot %s before removal: %v", id, err)
	}

	m.mu.Lock()
	delete(m.states, id)
	m.mu.Unlock()
	m.notify()
}

// StartAll launches every enabled bot. Failures are logged and do not
// prevent the others from starting.
func (m *Manager) StartAll(ctx context.Context, bots []database.Bot) {
	for _, bot := range bots {
		if !bot.Enabled {
			continue
		}
		if err := m.Start(ctx, bot); err != nil {
			log.Printf("Failed to start bot %s: %v", bot.ID, err)
		}
	}
}

// StopAll shuts every running bot down, used during graceful shutdown.
func (m *Manager) StopAll() {
	m.mu.Lock()
	ids := make([]string, 0, len(m.procs))
	for id := range m.procs {
		ids = append(ids, id)
	}
	m.mu.Unlock()

	for _, id := range ids {
		if err := m.Stop(id); err != nil && !errors.Is(err, ErrAlreadyStopped) {
			log.Printf("Failed to stop bot %s: %v", id, err)
		}
	}
}
