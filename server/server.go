// Package server wires the assistant to its providers and serves the HTTP API.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	"github.com/hrygo/rift/internal/profile"
	"github.com/hrygo/rift/plugin/ai"
	"github.com/hrygo/rift/plugin/ai/extract"
	"github.com/hrygo/rift/plugin/ai/router"
	"github.com/hrygo/rift/plugin/ai/session"
	"github.com/hrygo/rift/plugin/ai/workflow"
	"github.com/hrygo/rift/plugin/capability"
	"github.com/hrygo/rift/plugin/google"
	"github.com/hrygo/rift/plugin/oauth"
	"github.com/hrygo/rift/plugin/spotify"
	"github.com/hrygo/rift/server/assistant"
	"github.com/hrygo/rift/server/internal/observability"
	v1 "github.com/hrygo/rift/server/router/api/v1"
	"github.com/hrygo/rift/store"
)

const shutdownTimeout = 5 * time.Second

type Server struct {
	Profile   *profile.Profile
	Store     *store.Store
	Assistant *assistant.Service
	OAuth     *oauth.Registry
	Metrics   *observability.Metrics

	sessions session.SessionService
	cleanup  *session.SessionCleanupJob

	echoServer *echo.Echo
	api        *v1.APIV1Service
}

// NewServer builds the assistant over the configured providers. Missing LLM
// keys are not an error: every stage then runs on its rule-based fallback.
func NewServer(ctx context.Context, profile *profile.Profile, store *store.Store) (*Server, error) {
	s := &Server{
		Profile:  profile,
		Store:    store,
		Metrics:  observability.NewMetrics(),
		sessions: session.NewMemoryStore(),
	}

	llm, err := newLLM(ctx, profile)
	if err != nil {
		return nil, err
	}

	var managers []*oauth.Manager

	googleHTTP := notConfigured(capability.ProviderGoogle)
	if profile.IsGoogleConfigured() {
		m := oauth.NewManager(capability.ProviderGoogle,
			google.NewOAuthConfig(profile.GoogleClientID, profile.GoogleClientSecret, profile.OAuthRedirectURL), store)
		managers = append(managers, m)
		googleHTTP = m.Client(context.Background())
	} else {
		slog.Warn("google oauth client is not configured; calendar, mail, drive, docs and meet are disabled")
	}
	gsvc, err := google.NewService(ctx, googleHTTP, profile.Location())
	if err != nil {
		return nil, fmt.Errorf("failed to create google service: %w", err)
	}
	clients := gsvc.Clients()

	if profile.IsSpotifyConfigured() {
		m := oauth.NewManager(capability.ProviderSpotify,
			spotify.NewOAuthConfig(profile.SpotifyClientID, profile.SpotifyClientSecret, profile.OAuthRedirectURL), store)
		managers = append(managers, m)
		clients.Music = spotify.NewClient(m.Client(context.Background()))
	} else {
		slog.Warn("spotify oauth client is not configured; music is disabled")
		clients.Music = spotify.NewClient(notConfigured(capability.ProviderSpotify))
	}

	s.OAuth = oauth.NewRegistry(profile.StateSecret, managers...)

	x := extract.NewExtractor(llm, profile.Location())
	s.Assistant = assistant.NewService(assistant.Config{
		Classifier: router.NewService(router.Config{LLMClient: llm}),
		Extractor:  x,
		Workflows:  workflow.NewService(x),
		Sessions:   s.sessions,
		Clients:    clients,
		History:    store,
		Auth:       s.OAuth,
		Metrics:    s.Metrics,
	})
	s.cleanup = session.NewSessionCleanupJob(s.sessions, session.DefaultCleanupConfig())

	slog.Info("assistant ready",
		"llm", llm != nil,
		"llm_provider", profile.LLMProvider,
		"google", profile.IsGoogleConfigured(),
		"spotify", profile.IsSpotifyConfigured())
	return s, nil
}

// newLLM returns nil, without error, when no provider key is configured.
func newLLM(ctx context.Context, profile *profile.Profile) (ai.LLMService, error) {
	cfg := ai.NewConfigFromProfile(profile)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid LLM configuration: %w", err)
	}
	llm, err := ai.NewLLMService(ctx, &cfg.LLM)
	if errors.Is(err, ai.ErrLLMUnavailable) {
		slog.Info("no LLM key configured, using rule-based fallbacks", "provider", cfg.LLM.Provider)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if cfg.LLM.RequestsPerSecond > 0 {
		llm = ai.NewRateLimitedService(llm, rate.Limit(cfg.LLM.RequestsPerSecond), cfg.LLM.Burst)
	}
	return llm, nil
}

// StartBackground starts the session cleanup job. The CLI commands that do
// not serve HTTP still need it for long REPL sessions.
func (s *Server) StartBackground(ctx context.Context) error {
	return s.cleanup.Start(ctx)
}

// Start serves the HTTP API until ctx is done or the listener fails.
func (s *Server) Start(ctx context.Context) error {
	if err := s.StartBackground(ctx); err != nil {
		return err
	}

	s.echoServer = echo.New()
	s.echoServer.HideBanner = true
	s.echoServer.HidePort = true
	s.echoServer.Debug = s.Profile.IsDev()
	s.echoServer.Use(echomiddleware.Recover())
	s.api = v1.NewAPIV1Service(s.Profile, s.Assistant, s.OAuth, s.Metrics)
	s.api.Register(s.echoServer)
	s.echoServer.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "Service ready.")
	})

	addr := net.JoinHostPort(s.Profile.Addr, fmt.Sprint(s.Profile.Port))
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	s.echoServer.Listener = listener
	slog.Info("rift api listening", "addr", addr, "mode", s.Profile.Mode)

	errCh := make(chan error, 1)
	go func() {
		if err := s.echoServer.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		s.Shutdown(shutdownCtx)
		return nil
	case err, ok := <-errCh:
		if ok && err != nil {
			s.Shutdown(context.Background())
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	}
}

// Shutdown stops the HTTP server, background jobs and the store.
func (s *Server) Shutdown(ctx context.Context) {
	if s.echoServer != nil {
		if err := s.echoServer.Shutdown(ctx); err != nil {
			slog.Error("failed to shutdown http server", "error", err)
		}
	}
	if s.api != nil {
		s.api.Close()
	}
	s.cleanup.Stop()
	if err := s.Store.Close(); err != nil {
		slog.Error("failed to close store", "error", err)
	}
	slog.Info("rift stopped")
}

// notConfigured is an HTTP client whose every request fails with a hint on
// how to enable the provider.
func notConfigured(p capability.Provider) *http.Client {
	return &http.Client{Transport: notConfiguredTransport{provider: p}}
}

type notConfiguredTransport struct {
	provider capability.Provider
}

func (t notConfiguredTransport) RoundTrip(*http.Request) (*http.Response, error) {
	name := strings.ToUpper(string(t.provider))
	return nil, fmt.Errorf("%s is not configured; set RIFT_%s_CLIENT_ID and RIFT_%s_CLIENT_SECRET", t.provider, name, name)
}
