package httpserver

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/mikey/spam-sweeper/internal/adapters/xlsx"
	"github.com/mikey/spam-sweeper/internal/config"
	"github.com/mikey/spam-sweeper/internal/core"
	"github.com/mikey/spam-sweeper/internal/ports"
	"github.com/mikey/spam-sweeper/internal/utils"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
)

// Server is the HTTP front-end of the application
type Server struct {
	app           *fiber.App
	sessions      *session.Store
	service       *core.SweepService
	cache         core.ResultCache
	codec         *xlsx.Codec
	textProcessor *utils.TextProcessor
	oauthConf     *oauth2.Config
	logger        *zap.Logger
	listenAddress string
	maxResults    int64
}

// NewServer creates the HTTP server and registers all routes
func NewServer(
	cfg *config.Config,
	logger *zap.Logger,
	service *core.SweepService,
	cache core.ResultCache,
	codec *xlsx.Codec,
	textProcessor *utils.TextProcessor,
) (*Server, error) {
	serverCfg, err := cfg.GetServer()
	if err != nil {
		return nil, fmt.Errorf("invalid server configuration: %w", err)
	}
	googleCfg := cfg.GetGoogle()
	if googleCfg.ClientID == "" || googleCfg.ClientSecret == "" {
		return nil, fmt.Errorf("google.client_id and google.client_secret must be set")
	}

	app := fiber.New(fiber.Config{
		AppName:               "spam-sweeper",
		DisableStartupMessage: true,
	})
	app.Use(recover.New())

	// The browser session outlives a single request but not the result
	// cache: its expiry is deliberately shorter than the cache TTL.
	sessions := session.New(session.Config{
		Expiration:     serverCfg.SessionTTL,
		KeyLookup:      "cookie:spam_sweeper_session",
		CookieHTTPOnly: true,
	})

	s := &Server{
		app:           app,
		sessions:      sessions,
		service:       service,
		cache:         cache,
		codec:         codec,
		textProcessor: textProcessor,
		logger:        logger,
		listenAddress: serverCfg.ListenAddress,
		maxResults:    cfg.GetGmail().MaxResults,
		oauthConf: &oauth2.Config{
			ClientID:     googleCfg.ClientID,
			ClientSecret: googleCfg.ClientSecret,
			RedirectURL:  googleCfg.RedirectURL,
			Scopes: []string{
				gmail.GmailReadonlyScope,
				gmail.GmailModifyScope,
			},
			Endpoint: google.Endpoint,
		},
	}

	s.registerRoutes()
	return s, nil
}

func (s *Server) registerRoutes() {
	s.app.Get("/", s.Home)
	s.app.Post("/authorize", s.Authorize)
	s.app.Get("/callback", s.Callback)
	s.app.Post("/fetch-emails", s.FetchEmails)
	s.app.Get("/download-results", s.DownloadResults)
	s.app.Post("/upload-corrections", s.UploadCorrections)
	s.app.Post("/move-to-trash", s.MoveToTrash)
	s.app.Get("/spam-summary", s.SpamSummary)
	s.app.Get("/cache-stats", s.CacheStats)
	s.app.Get("/debug-session", s.DebugSession)
	s.app.Post("/logout", s.Logout)
}

// Start starts serving requests in the background
func (s *Server) Start() error {
	s.logger.Info("Starting HTTP server", zap.String("address", s.listenAddress))
	go func() {
		if err := s.app.Listen(s.listenAddress); err != nil {
			s.logger.Error("HTTP server stopped", zap.Error(err))
		}
	}()
	return nil
}

// Stop shuts the server down, draining in-flight requests
func (s *Server) Stop() error {
	s.logger.Info("Stopping HTTP server")
	return s.app.ShutdownWithTimeout(5 * time.Second)
}

// Ensure Server implements ports.Server
var _ ports.Server = (*Server)(nil)
