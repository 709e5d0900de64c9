package v1

import (
	"context"
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/hrygo/rift/internal/profile"
	"github.com/hrygo/rift/plugin/capability"
	"github.com/hrygo/rift/server/assistant"
	"github.com/hrygo/rift/server/internal/observability"
	"github.com/hrygo/rift/server/middleware"
)

// OAuthFlow starts and completes provider sign-in. *oauth.Registry satisfies it.
type OAuthFlow interface {
	AuthURL(p capability.Provider) (string, error)
	Callback(ctx context.Context, state, code string) (capability.Provider, error)
}

type APIV1Service struct {
	Profile   *profile.Profile
	Assistant assistant.AssistantService
	// OAuth is nil when no provider client is configured.
	OAuth   OAuthFlow
	Metrics *observability.Metrics

	markdown goldmark.Markdown
	limiter  *middleware.RateLimiter
}

func NewAPIV1Service(profile *profile.Profile, svc assistant.AssistantService, flow OAuthFlow, metrics *observability.Metrics) *APIV1Service {
	return &APIV1Service{
		Profile:   profile,
		Assistant: svc,
		OAuth:     flow,
		Metrics:   metrics,
		markdown: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithRendererOptions(html.WithHardWraps()),
		),
		limiter: middleware.NewRateLimiter(),
	}
}

// Register mounts the API and OAuth routes on echoServer.
func (s *APIV1Service) Register(echoServer *echo.Echo) {
	rateLimit := middleware.RateLimit(s.limiter)

	api := echoServer.Group("/api/v1", rateLimit)
	api.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOriginFunc: localOrigin,
		AllowMethods:    []string{http.MethodGet, http.MethodPost, http.MethodOptions},
	}))
	api.POST("/prompt", s.RoutePrompt)
	api.POST("/draft/send", s.SendDraft)
	api.POST("/reset", s.Reset)
	api.GET("/history", s.ListHistory)
	api.GET("/system/metrics", s.GetMetricsOverview)

	auth := echoServer.Group("/auth", rateLimit)
	auth.GET("/callback", s.AuthCallback)
	auth.GET("/:provider", s.AuthStart)
}

// localOrigin admits browser pages served from this machine only.
func localOrigin(origin string) (bool, error) {
	u, err := url.Parse(origin)
	if err != nil {
		return false, nil
	}
	switch u.Hostname() {
	case "localhost", "127.0.0.1", "::1":
		return true, nil
	}
	return false, nil
}

// Close stops the rate limiter janitor.
func (s *APIV1Service) Close() {
	s.limiter.Stop()
}
