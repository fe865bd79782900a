// Package server exposes the admin console HTTP API: authentication, bot
// CRUD and lifecycle, the creation wizard, asset management, the dashboard
// status feed and bulk transfer.
package server

import (
	"context"
	"crypto/rand"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/sessions"

	"telematic/internal/config"
	"telematic/internal/database"
	"telematic/internal/manager"
	"telematic/internal/status"
	"telematic/internal/storage"
	"telematic/internal/transfer"
	"telematic/internal/wizard"
)

// Server is the admin console HTTP server.
type Server struct {
	config       *config.Config
	sessionStore *sessions.CookieStore
	store        storage.ObjectStore
	mgr          *manager.Manager
	agg          *status.Aggregator
	transfer     *transfer.Service
	drafts       *wizard.Registry
	sse          *SSEManager

	httpServer *http.Server
}

// dbCreator adapts the database layer to the wizard's create contract.
type dbCreator struct{}

func (dbCreator) CreateBot(ctx context.Context, b *database.Bot) error {
	return database.CreateBot(b)
}

// New creates a server instance wired to the given runtime manager and
// object store.
func New(cfg *config.Config, mgr *manager.Manager, store storage.ObjectStore) (*Server, error) {
	secret := []byte(cfg.SessionSecret)
	if len(secret) == 0 {
		// No configured secret: sessions do not survive a restart.
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return nil, fmt.Errorf("failed to generate session key: %w", err)
		}
		log.Printf("No session_secret configured, using a random key")
	}

	s := &Server{
		config:       cfg,
		sessionStore: sessions.NewCookieStore(secret),
		store:        store,
		mgr:          mgr,
		sse:          NewSSEManager(),
	}

	s.sessionStore.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}

	s.agg = status.NewAggregator(database.ListBots, mgr, cfg.StatusPollInterval)
	s.agg.OnUpdate(func(ov status.Overview) {
		s.sse.SendToAll("status", ov)
	})
	mgr.OnChange(s.agg.Invalidate)

	s.transfer = transfer.NewService(database.CreateBot, database.ListBots, store)
	s.drafts = wizard.NewRegistry(dbCreator{}, store, func(id string) {
		s.agg.Refresh()
	})

	if err := s.ensureAdminCredentials(); err != nil {
		return nil, err
	}

	return s, nil
}

func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()

	// Public routes.
	mux.HandleFunc("POST /api/login", s.handleLogin)
	mux.HandleFunc("POST /api/logout", s.handleLogout)

	// Bot CRUD and lifecycle.
	mux.HandleFunc("GET /api/bots", s.authRequired(s.handleListBots))
	mux.HandleFunc("POST /api/bots", s.authRequired(s.handleCreateBot))
	mux.HandleFunc("GET /api/bots/{id}", s.authRequired(s.handleGetBot))
	mux.HandleFunc("PUT /api/bots/{id}", s.authRequired(s.handleUpdateBot))
	mux.HandleFunc("DELETE /api/bots/{id}", s.authRequired(s.handleDeleteBot))
	mux.HandleFunc("POST /api/bots/{id}/start", s.authRequired(s.handleBotAction))
	mux.HandleFunc("POST /api/bots/{id}/stop", s.authRequired(s.handleBotAction))
	mux.HandleFunc("POST /api/bots/{id}/restart", s.authRequired(s.handleBotAction))

	// Creation wizard.
	mux.HandleFunc("POST /api/wizard", s.authRequired(s.handleWizardStart))
	mux.HandleFunc("GET /api/wizard/{draft}", s.authRequired(s.handleWizardState))
	mux.HandleFunc("PUT /api/wizard/{draft}/step1", s.authRequired(s.handleWizardStep1))
	mux.HandleFunc("PUT /api/wizard/{draft}/step2", s.authRequired(s.handleWizardStep2))
	mux.HandleFunc("POST /api/wizard/{draft}/next", s.authRequired(s.handleWizardNext))
	mux.HandleFunc("POST /api/wizard/{draft}/back", s.authRequired(s.handleWizardBack))
	mux.HandleFunc("POST /api/wizard/{draft}/submit", s.authRequired(s.handleWizardSubmit))
	mux.HandleFunc("POST /api/wizard/{draft}/documents", s.authRequired(s.handleWizardUpload))
	mux.HandleFunc("DELETE /api/wizard/{draft}", s.authRequired(s.handleWizardDiscard))

	// Assets of existing bots.
	mux.HandleFunc("GET /api/bots/{id}/documents", s.authRequired(s.handleListDocuments))
	mux.HandleFunc("POST /api/bots/{id}/documents", s.authRequired(s.handleUploadDocuments))
	mux.HandleFunc("DELETE /api/bots/{id}/documents/{key...}", s.authRequired(s.handleDeleteDocument))
	mux.HandleFunc("POST /api/bots/{id}/welcome-image", s.authRequired(s.handleWelcomeImage))

	// Dashboard.
	mux.HandleFunc("GET /api/status", s.authRequired(s.handleStatus))
	mux.HandleFunc("GET /api/system-vitals", s.authRequired(s.handleSystemVitals))
	mux.HandleFunc("GET /api/events", s.authRequired(s.handleEvents))
	mux.HandleFunc("GET /api/presets", s.authRequired(s.handlePresets))

	// Bulk transfer.
	mux.HandleFunc("GET /api/export", s.authRequired(s.handleExport))
	mux.HandleFunc("POST /api/import", s.authRequired(s.handleImport))

	return mux
}

// Start runs the HTTP server and the status poll schedule until the
// context is cancelled.
func (s *Server) Start(ctx context.Context) error {
	if err := s.agg.StartPolling(s.config.StatusPollInterval); err != nil {
		return err
	}

	s.httpServer = &http.Server{
		Addr:    s.config.ListenAddr,
		Handler: s.routes(),
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Starting server on %s", s.config.ListenAddr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return s.Shutdown()
	}
}

// Shutdown drains connections and stops the poll schedule.
func (s *Server) Shutdown() error {
	s.agg.StopPolling()

	if s.httpServer == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.httpServer.Shutdown(ctx)
}
