package config

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	EnvPrefix = "IMPOSTOR"

	StoreRedis  = "redis"
	StoreSQLite = "sqlite"

	WordProviderOpenAI = "openai"
	WordProviderOllama = "ollama"
	WordProviderStatic = "static"
)

// Config holds every setting of the server process
type Config struct {
	Bind    string
	Port    int
	BaseURL string

	Store         string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	SQLitePath    string

	MinPlayers    int
	MaxPlayers    int
	MaxRounds     int
	Retention     time.Duration
	SweepInterval time.Duration

	WordProvider      string
	WordFallback      bool
	Model             string
	OpenAIKey         string
	OpenAIBaseURL     string
	OllamaHost        string
	GenerationTimeout time.Duration

	Seed int64

	LogLevel  string
	LogFormat string
}

// Validate rejects settings the server cannot run with
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.Port)
	}
	if _, err := url.ParseRequestURI(c.BaseURL); err != nil {
		return fmt.Errorf("invalid base url %q: %w", c.BaseURL, err)
	}

	switch c.Store {
	case StoreRedis:
		if c.RedisAddr == "" {
			return errors.New("--redis-addr is required with the redis store")
		}
	case StoreSQLite:
		if c.SQLitePath == "" {
			return errors.New("--sqlite-path is required with the sqlite store")
		}
	default:
		return fmt.Errorf("unknown store %q (want %s or %s)", c.Store, StoreRedis, StoreSQLite)
	}

	if c.MinPlayers < 3 {
		return fmt.Errorf("min players must be at least 3: %d", c.MinPlayers)
	}
	if c.MaxPlayers < c.MinPlayers {
		return fmt.Errorf("max players %d is below min players %d", c.MaxPlayers, c.MinPlayers)
	}
	if c.MaxRounds < 1 {
		return fmt.Errorf("max rounds must be at least 1: %d", c.MaxRounds)
	}
	if c.Retention <= 0 {
		return fmt.Errorf("retention must be positive: %s", c.Retention)
	}
	if c.SweepInterval <= 0 {
		return fmt.Errorf("sweep interval must be positive: %s", c.SweepInterval)
	}
	if c.GenerationTimeout <= 0 {
		return fmt.Errorf("generation timeout must be positive: %s", c.GenerationTimeout)
	}

	switch c.WordProvider {
	case WordProviderOpenAI:
		if c.OpenAIKey == "" {
			return errors.New("--openai-key is required with the openai word provider")
		}
	case WordProviderOllama:
		if c.OllamaHost == "" {
			return errors.New("--ollama-host is required with the ollama word provider")
		}
	case WordProviderStatic:
	default:
		return fmt.Errorf("unknown word provider %q (want %s, %s or %s)", c.WordProvider, WordProviderOpenAI, WordProviderOllama, WordProviderStatic)
	}

	return nil
}

// Addr is the listen address
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Bind, c.Port)
}

// NewCommand builds the root command. Flags can also be set through
// IMPOSTOR_-prefixed environment variables, e.g. IMPOSTOR_REDIS_ADDR.
func NewCommand(cfg *Config, run func(ctx context.Context, cfg *Config) error) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:   "impostor",
		Short: "Serves the impostor word game over HTTP.",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.Validate(); err != nil {
				return err
			}
			return run(cmd.Context(), cfg)
		},
	}

	fs := cmd.Flags()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVarP(&cfg.Bind, "bind", "b", "0.0.0.0", "address to bind to (env: IMPOSTOR_BIND)")
	fs.IntVarP(&cfg.Port, "port", "p", 8080, "port to listen on (env: IMPOSTOR_PORT)")
	fs.StringVar(&cfg.BaseURL, "base-url", "http://localhost:8080", "public url encoded in join QR codes (env: IMPOSTOR_BASE_URL)")

	fs.StringVar(&cfg.Store, "store", StoreRedis, "persistence backend, redis or sqlite (env: IMPOSTOR_STORE)")
	fs.StringVar(&cfg.RedisAddr, "redis-addr", "localhost:6379", "redis address (env: IMPOSTOR_REDIS_ADDR)")
	fs.StringVar(&cfg.RedisPassword, "redis-password", "", "redis password (env: IMPOSTOR_REDIS_PASSWORD)")
	fs.IntVar(&cfg.RedisDB, "redis-db", 0, "redis database number (env: IMPOSTOR_REDIS_DB)")
	fs.StringVar(&cfg.SQLitePath, "sqlite-path", "impostor.db", "sqlite database file (env: IMPOSTOR_SQLITE_PATH)")

	fs.IntVar(&cfg.MinPlayers, "min-players", 3, "players needed to start a game (env: IMPOSTOR_MIN_PLAYERS)")
	fs.IntVar(&cfg.MaxPlayers, "max-players", 10, "lobby capacity (env: IMPOSTOR_MAX_PLAYERS)")
	fs.IntVar(&cfg.MaxRounds, "max-rounds", 3, "clue rounds before voting (env: IMPOSTOR_MAX_ROUNDS)")
	fs.DurationVar(&cfg.Retention, "retention", 24*time.Hour, "age after which games are deleted (env: IMPOSTOR_RETENTION)")
	fs.DurationVar(&cfg.SweepInterval, "sweep-interval", 5*time.Minute, "how often expired games are deleted (env: IMPOSTOR_SWEEP_INTERVAL)")

	fs.StringVar(&cfg.WordProvider, "word-provider", WordProviderOpenAI, "word pair source, openai, ollama or static (env: IMPOSTOR_WORD_PROVIDER)")
	fs.BoolVar(&cfg.WordFallback, "word-fallback", false, "use the built-in word pairs when the provider fails (env: IMPOSTOR_WORD_FALLBACK)")
	fs.StringVar(&cfg.Model, "model", "llama-3.1-8b-instant", "model name passed to the provider (env: IMPOSTOR_MODEL)")
	fs.StringVar(&cfg.OpenAIKey, "openai-key", "", "api key for the openai-compatible endpoint (env: IMPOSTOR_OPENAI_KEY)")
	fs.StringVar(&cfg.OpenAIBaseURL, "openai-base-url", "https://api.groq.com/openai", "openai-compatible endpoint (env: IMPOSTOR_OPENAI_BASE_URL)")
	fs.StringVar(&cfg.OllamaHost, "ollama-host", "http://localhost:11434", "ollama endpoint (env: IMPOSTOR_OLLAMA_HOST)")
	fs.DurationVar(&cfg.GenerationTimeout, "generation-timeout", 20*time.Second, "time allowed for word generation when starting a game (env: IMPOSTOR_GENERATION_TIMEOUT)")

	fs.Int64Var(&cfg.Seed, "seed", 0, "random seed, 0 for time based (env: IMPOSTOR_SEED)")

	fs.StringVar(&cfg.LogLevel, "log-level", "info", "debug, info, warn or error (env: IMPOSTOR_LOG_LEVEL)")
	fs.StringVar(&cfg.LogFormat, "log-format", "console", "console or json (env: IMPOSTOR_LOG_FORMAT)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}
