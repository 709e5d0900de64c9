package v1

import (
	"errors"
	"fmt"
	"html"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/hrygo/rift/plugin/capability"
	"github.com/hrygo/rift/plugin/oauth"
	apierrors "github.com/hrygo/rift/server/internal/errors"
)

const callbackPage = `<!doctype html>
<html><head><title>Rift</title></head>
<body style="font-family: sans-serif; text-align: center; margin-top: 4em">
<h2>%s</h2>
<p>%s</p>
</body></html>`

// AuthStart redirects to the consent page of a provider.
// GET /auth/:provider
func (s *APIV1Service) AuthStart(c echo.Context) error {
	if s.OAuth == nil {
		return respondError(c, apierrors.ServiceUnavailable("no oauth provider is configured"))
	}
	p := capability.Provider(c.Param("provider"))
	url, err := s.OAuth.AuthURL(p)
	if err != nil {
		if errors.Is(err, oauth.ErrUnknownProvider) {
			return respondError(c, apierrors.NotFound(fmt.Sprintf("provider %q is not configured", p)))
		}
		return respondError(c, err)
	}
	return c.Redirect(http.StatusFound, url)
}

// AuthCallback completes the sign-in started by AuthStart.
// GET /auth/callback?state=...&code=...
func (s *APIV1Service) AuthCallback(c echo.Context) error {
	if s.OAuth == nil {
		return respondError(c, apierrors.ServiceUnavailable("no oauth provider is configured"))
	}
	if reason := c.QueryParam("error"); reason != "" {
		slog.Warn("oauth consent denied", "reason", reason)
		return c.HTML(http.StatusBadRequest, fmt.Sprintf(callbackPage, "Sign-in was cancelled", html.EscapeString(reason)))
	}

	p, err := s.OAuth.Callback(c.Request().Context(), c.QueryParam("state"), c.QueryParam("code"))
	switch {
	case errors.Is(err, oauth.ErrInvalidState):
		return respondError(c, apierrors.InvalidArgument("invalid or expired sign-in state"))
	case errors.Is(err, oauth.ErrUnknownProvider):
		return respondError(c, apierrors.NotFound(err.Error()))
	case err != nil:
		slog.Error("oauth callback failed", "provider", p, "error", err)
		return c.HTML(http.StatusUnauthorized, fmt.Sprintf(callbackPage, "Sign-in failed", html.EscapeString(err.Error())))
	}

	slog.Info("oauth sign-in completed", "provider", p)
	return c.HTML(http.StatusOK, fmt.Sprintf(callbackPage,
		"Signed in to "+html.EscapeString(string(p)),
		"You can close this window and return to Rift."))
}
