package profile

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Profile is the configuration to start the assistant.
type Profile struct {
	// Mode can be "prod" or "dev"
	Mode string
	// Addr is the binding address for the HTTP API
	Addr string
	// Port is the binding port for the HTTP API
	Port int
	// Data is the data directory
	Data string
	// DSN points to where rift stores history and tokens
	DSN string
	// Driver is the database driver (sqlite or postgres)
	Driver string
	// Version is the current version of rift
	Version string
	// Timezone is the IANA zone used as "now" for date extraction. Empty means local.
	Timezone string

	// LLM configuration
	LLMProvider   string // RIFT_LLM_PROVIDER (default: gemini)
	LLMModel      string // RIFT_LLM_MODEL (default: gemini-2.0-flash)
	GeminiAPIKey  string // RIFT_GEMINI_API_KEY (fallback: GEMINI_API_KEY)
	OpenAIAPIKey  string // RIFT_OPENAI_API_KEY
	OpenAIBaseURL string // RIFT_OPENAI_BASE_URL (default: https://api.openai.com/v1)

	// Provider OAuth clients
	GoogleClientID      string // RIFT_GOOGLE_CLIENT_ID
	GoogleClientSecret  string // RIFT_GOOGLE_CLIENT_SECRET
	SpotifyClientID     string // RIFT_SPOTIFY_CLIENT_ID
	SpotifyClientSecret string // RIFT_SPOTIFY_CLIENT_SECRET
	OAuthRedirectURL    string // RIFT_OAUTH_REDIRECT_URL
	// StateSecret signs OAuth state tokens. Generated per process when empty.
	StateSecret string // RIFT_STATE_SECRET
}

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// IsLLMEnabled returns true if the selected provider has a key.
func (p *Profile) IsLLMEnabled() bool {
	switch p.LLMProvider {
	case "gemini":
		return p.GeminiAPIKey != ""
	case "openai":
		return p.OpenAIAPIKey != ""
	default:
		return false
	}
}

// IsGoogleConfigured reports whether a Google OAuth client is present.
func (p *Profile) IsGoogleConfigured() bool {
	return p.GoogleClientID != "" && p.GoogleClientSecret != ""
}

// IsSpotifyConfigured reports whether a Spotify OAuth client is present.
func (p *Profile) IsSpotifyConfigured() bool {
	return p.SpotifyClientID != "" && p.SpotifyClientSecret != ""
}

// Location resolves Timezone, falling back to time.Local.
func (p *Profile) Location() *time.Location {
	if p.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(p.Timezone)
	if err != nil {
		slog.Warn("invalid timezone, using local", "timezone", p.Timezone, "error", err)
		return time.Local
	}
	return loc
}

// FromEnv fills empty fields from RIFT_* environment variables.
// Values already set (e.g. from flags) win.
func (p *Profile) FromEnv() {
	getEnvWithDefault := func(key, defaultValue string) string {
		if val := os.Getenv(key); val != "" {
			return val
		}
		return defaultValue
	}
	setIfEmpty := func(field *string, value string) {
		if *field == "" {
			*field = value
		}
	}

	setIfEmpty(&p.LLMProvider, getEnvWithDefault("RIFT_LLM_PROVIDER", "gemini"))
	setIfEmpty(&p.LLMModel, os.Getenv("RIFT_LLM_MODEL"))
	setIfEmpty(&p.GeminiAPIKey, getEnvWithDefault("RIFT_GEMINI_API_KEY", os.Getenv("GEMINI_API_KEY")))
	setIfEmpty(&p.OpenAIAPIKey, os.Getenv("RIFT_OPENAI_API_KEY"))
	setIfEmpty(&p.OpenAIBaseURL, getEnvWithDefault("RIFT_OPENAI_BASE_URL", "https://api.openai.com/v1"))
	setIfEmpty(&p.GoogleClientID, os.Getenv("RIFT_GOOGLE_CLIENT_ID"))
	setIfEmpty(&p.GoogleClientSecret, os.Getenv("RIFT_GOOGLE_CLIENT_SECRET"))
	setIfEmpty(&p.SpotifyClientID, os.Getenv("RIFT_SPOTIFY_CLIENT_ID"))
	setIfEmpty(&p.SpotifyClientSecret, os.Getenv("RIFT_SPOTIFY_CLIENT_SECRET"))
	setIfEmpty(&p.OAuthRedirectURL, os.Getenv("RIFT_OAUTH_REDIRECT_URL"))
	setIfEmpty(&p.StateSecret, os.Getenv("RIFT_STATE_SECRET"))
	setIfEmpty(&p.Timezone, os.Getenv("RIFT_TIMEZONE"))

	if p.LLMModel == "" {
		switch p.LLMProvider {
		case "openai":
			p.LLMModel = "gpt-4o-mini"
		default:
			p.LLMModel = "gemini-2.0-flash"
		}
	}
}

func checkDataDir(dataDir string) (string, error) {
	if strings.HasPrefix(dataDir, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", errors.Wrap(err, "unable to resolve home directory")
		}
		dataDir = filepath.Join(home, strings.TrimPrefix(dataDir, "~"))
	}
	if !filepath.IsAbs(dataDir) {
		absDir, err := filepath.Abs(dataDir)
		if err != nil {
			return "", err
		}
		dataDir = absDir
	}

	dataDir = strings.TrimRight(dataDir, "\\/")
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return "", errors.Wrapf(err, "unable to create data folder %s", dataDir)
	}
	if _, err := os.Stat(dataDir); err != nil {
		return "", errors.Wrapf(err, "unable to access data folder %s", dataDir)
	}
	return dataDir, nil
}

func (p *Profile) Validate() error {
	if p.Mode != "dev" && p.Mode != "prod" {
		p.Mode = "dev"
	}
	if p.Data == "" {
		p.Data = "~/.rift"
	}
	if p.Driver == "" {
		p.Driver = "sqlite"
	}
	if p.Driver != "sqlite" && p.Driver != "postgres" {
		return errors.Errorf("unsupported driver %q", p.Driver)
	}
	if p.LLMProvider != "gemini" && p.LLMProvider != "openai" {
		return errors.Errorf("unsupported LLM provider %q", p.LLMProvider)
	}

	dataDir, err := checkDataDir(p.Data)
	if err != nil {
		slog.Error("failed to check data dir", slog.String("data", p.Data), slog.String("error", err.Error()))
		return err
	}
	p.Data = dataDir

	if p.Driver == "sqlite" && p.DSN == "" {
		p.DSN = filepath.Join(dataDir, fmt.Sprintf("rift_%s.db", p.Mode))
	}
	if p.Driver == "postgres" && p.DSN == "" {
		return errors.New("dsn is required for postgres")
	}
	if p.OAuthRedirectURL == "" {
		p.OAuthRedirectURL = fmt.Sprintf("http://%s:%d/auth/callback", p.Addr, p.Port)
	}

	return nil
}
