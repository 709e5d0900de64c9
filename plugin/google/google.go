// Package google implements the calendar, mail, drive, docs, meet and
// contacts capabilities on top of the Google REST APIs.
package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	googleoauth "golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/docs/v1"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/people/v1"

	"github.com/hrygo/rift/plugin/capability"
)

// Scopes are requested on the consent page.
var Scopes = []string{
	calendar.CalendarScope,
	gmail.GmailModifyScope,
	drive.DriveScope,
	docs.DocumentsScope,
	people.ContactsReadonlyScope,
	people.ContactsOtherReadonlyScope,
	"https://www.googleapis.com/auth/userinfo.email",
}

// NewOAuthConfig returns the Google OAuth2 client configuration.
func NewOAuthConfig(clientID, clientSecret, redirectURL string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		Scopes:       Scopes,
		Endpoint:     googleoauth.Endpoint,
	}
}

// Service holds one API client per Google product.
type Service struct {
	calendar *calendar.Service
	gmail    *gmail.Service
	drive    *drive.Service
	docs     *docs.Service
	people   *people.Service
	loc      *time.Location
}

// NewService creates the API clients over httpClient, which must attach the
// user's token. opts are appended to every client (tests pass an endpoint).
func NewService(ctx context.Context, httpClient *http.Client, loc *time.Location, opts ...option.ClientOption) (*Service, error) {
	if loc == nil {
		loc = time.Local
	}
	opts = append([]option.ClientOption{option.WithHTTPClient(httpClient)}, opts...)

	cal, err := calendar.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar client: %w", err)
	}
	gm, err := gmail.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create gmail client: %w", err)
	}
	dr, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create drive client: %w", err)
	}
	dc, err := docs.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create docs client: %w", err)
	}
	pp, err := people.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create people client: %w", err)
	}

	return &Service{calendar: cal, gmail: gm, drive: dr, docs: dc, people: pp, loc: loc}, nil
}

// Clients fills the Google capabilities of a capability bundle. Music is
// left for the Spotify plugin.
func (s *Service) Clients() *capability.Clients {
	cal := &Calendar{svc: s.calendar, loc: s.loc}
	dr := &Drive{svc: s.drive}
	return &capability.Clients{
		Calendar: cal,
		Mail:     &Mail{svc: s.gmail},
		Drive:    dr,
		Docs:     &Docs{svc: s.docs, drive: dr},
		Meet:     &Meet{cal: cal},
		Contacts: NewContacts(s.people),
	}
}

// wrapErr maps a Google API error to the capability error model. A 401 means
// the token was revoked; 404 wraps capability.ErrNotFound.
func wrapErr(service, op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, capability.ErrAuthRequired) {
		return err
	}
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		switch gerr.Code {
		case http.StatusUnauthorized:
			return capability.AuthRequired(capability.ProviderGoogle, err)
		case http.StatusNotFound:
			return &capability.ProviderError{Service: service, Op: op, Status: gerr.Code, Err: fmt.Errorf("%w: %s", capability.ErrNotFound, gerr.Message)}
		}
		return &capability.ProviderError{Service: service, Op: op, Status: gerr.Code, Err: err}
	}
	return &capability.ProviderError{Service: service, Op: op, Err: err}
}

// observe starts timing an API call. The returned func logs the outcome.
func observe(service, op string) func(err *error) {
	start := time.Now()
	return func(err *error) {
		if *err != nil {
			slog.Warn("google api call failed", "service", service, "op", op, "error", *err, "latency_ms", time.Since(start).Milliseconds())
			return
		}
		slog.Debug("google api call", "service", service, "op", op, "latency_ms", time.Since(start).Milliseconds())
	}
}
