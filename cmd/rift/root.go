package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/hrygo/rift/internal/profile"
	"github.com/hrygo/rift/server"
	"github.com/hrygo/rift/store"
	"github.com/hrygo/rift/store/db"
)

const envPrefix = "rift"

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "rift",
		Short:        "Command bar assistant for calendar, mail, drive, docs, meet and spotify",
		SilenceUsage: true,
	}

	cobra.OnInitialize(initConfig)

	flags := cmd.PersistentFlags()
	flags.String("config", "", "Config file path (optional).")
	flags.String("mode", "dev", `Mode of server, can be "prod" or "dev".`)
	flags.String("addr", "127.0.0.1", "Address of the HTTP API.")
	flags.Int("port", 8787, "Port of the HTTP API.")
	flags.String("data", "~/.rift", "Data directory.")
	flags.String("driver", "sqlite", "Database driver: sqlite or postgres.")
	flags.String("dsn", "", "Database source name (defaults to <data>/rift_<mode>.db for sqlite).")
	flags.String("timezone", "", "IANA time zone used for dates in prompts (defaults to local).")

	flags.String("llm-provider", "gemini", "LLM provider: gemini or openai.")
	flags.String("llm-model", "", "LLM model name.")
	flags.String("gemini-api-key", "", "Gemini API key.")
	flags.String("openai-api-key", "", "OpenAI-compatible API key.")
	flags.String("openai-base-url", "", "OpenAI-compatible base URL.")

	flags.String("google-client-id", "", "Google OAuth client id.")
	flags.String("google-client-secret", "", "Google OAuth client secret.")
	flags.String("spotify-client-id", "", "Spotify OAuth client id.")
	flags.String("spotify-client-secret", "", "Spotify OAuth client secret.")
	flags.String("oauth-redirect-url", "", "OAuth redirect URL (defaults to http://<addr>:<port>/auth/callback).")
	flags.String("state-secret", "", "Key signing OAuth state tokens (random per start when empty).")

	flags.String("log-level", "", "Logging level: debug|info|warn|error (info for serve, warn otherwise).")
	flags.String("log-format", "text", "Logging format on stderr: text|json.")
	flags.String("log-file", "", "Write JSON logs to this rotating file instead of stderr.")

	_ = viper.BindPFlags(flags)

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newAskCmd())
	cmd.AddCommand(newReplCmd())
	cmd.AddCommand(newAuthCmd())
	cmd.AddCommand(newHistoryCmd())
	cmd.AddCommand(newVersionCmd())
	return cmd
}

func initConfig() {
	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv()

	cfgFile := strings.TrimSpace(viper.GetString("config"))
	if cfgFile == "" {
		return
	}
	viper.SetConfigFile(cfgFile)
	if err := viper.ReadInConfig(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Failed to read config: %v\n", err)
	}
}

func profileFromViper() (*profile.Profile, error) {
	p := &profile.Profile{
		Mode:                viper.GetString("mode"),
		Addr:                viper.GetString("addr"),
		Port:                viper.GetInt("port"),
		Data:                viper.GetString("data"),
		Driver:              viper.GetString("driver"),
		DSN:                 viper.GetString("dsn"),
		Timezone:            viper.GetString("timezone"),
		LLMProvider:         viper.GetString("llm-provider"),
		LLMModel:            viper.GetString("llm-model"),
		GeminiAPIKey:        viper.GetString("gemini-api-key"),
		OpenAIAPIKey:        viper.GetString("openai-api-key"),
		OpenAIBaseURL:       viper.GetString("openai-base-url"),
		GoogleClientID:      viper.GetString("google-client-id"),
		GoogleClientSecret:  viper.GetString("google-client-secret"),
		SpotifyClientID:     viper.GetString("spotify-client-id"),
		SpotifyClientSecret: viper.GetString("spotify-client-secret"),
		OAuthRedirectURL:    viper.GetString("oauth-redirect-url"),
		StateSecret:         viper.GetString("state-secret"),
	}
	p.FromEnv()
	if err := p.Validate(); err != nil {
		return nil, err
	}
	p.Version = versionString(p.Mode)
	return p, nil
}

// setupLogger installs the default slog logger. defaultLevel applies when
// --log-level is not set.
func setupLogger(defaultLevel string) error {
	level, err := parseLevel(viper.GetString("log-level"), defaultLevel)
	if err != nil {
		return err
	}
	opts := &slog.HandlerOptions{Level: level}

	var h slog.Handler
	if file := strings.TrimSpace(viper.GetString("log-file")); file != "" {
		h = slog.NewJSONHandler(&lumberjack.Logger{
			Filename:   file,
			MaxSize:    10, // megabytes
			MaxBackups: 3,
			MaxAge:     28, // days
			Compress:   true,
		}, opts)
	} else {
		h, err = stderrHandler(os.Stderr, viper.GetString("log-format"), opts)
		if err != nil {
			return err
		}
	}
	slog.SetDefault(slog.New(h))
	return nil
}

func stderrHandler(w io.Writer, format string, opts *slog.HandlerOptions) (slog.Handler, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "text":
		return slog.NewTextHandler(w, opts), nil
	case "json":
		return slog.NewJSONHandler(w, opts), nil
	}
	return nil, fmt.Errorf("unknown log format: %s", format)
}

func parseLevel(s, fallback string) (slog.Level, error) {
	if strings.TrimSpace(s) == "" {
		s = fallback
	}
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level: %s", s)
}

// openStore opens and migrates the store for p.
func openStore(ctx context.Context, p *profile.Profile) (*store.Store, error) {
	driver, err := db.NewDBDriver(p)
	if err != nil {
		return nil, fmt.Errorf("failed to create db driver: %w", err)
	}
	s := store.New(driver, p)
	if err := s.Migrate(ctx); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}
	return s, nil
}

// newServer builds the full assistant from flags and environment.
func newServer(ctx context.Context, logLevel string) (*server.Server, error) {
	if err := setupLogger(logLevel); err != nil {
		return nil, err
	}
	p, err := profileFromViper()
	if err != nil {
		return nil, err
	}
	st, err := openStore(ctx, p)
	if err != nil {
		return nil, err
	}
	s, err := server.NewServer(ctx, p, st)
	if err != nil {
		_ = st.Close()
		return nil, err
	}
	return s, nil
}
