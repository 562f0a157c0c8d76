// ABOUTME: Runtime configuration for the reco CLI and console server.
// ABOUTME: Layers .env files, RECO_* environment variables and cobra flags through viper.

package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/2389/reco/internal/logger"
)

// EnvPrefix namespaces every environment variable read by reco
const EnvPrefix = "RECO"

const (
	KeyAPIURL       = "api_url"
	KeyPort         = "port"
	KeyDB           = "db"
	KeyNoLog        = "no_log"
	KeyDiscardStale = "discard_stale"
	KeyUnifyErrors  = "unify_errors"
	KeyOpenAIKey    = "openai_api_key"
	KeyOpenAIModel  = "openai_model"
	KeyOpenAIURL    = "openai_base_url"
	KeyLogLevel     = "log_level"
	KeyLogDev       = "log_dev"
)

const (
	DefaultAPIURL = "http://localhost:8080"
	DefaultPort   = "9000"
	dbFileName    = "reco.db"
)

// Config is the resolved configuration for one command run
type Config struct {
	APIURL       string
	Port         string
	DBPath       string // empty when request logging is off
	DiscardStale bool
	UnifyErrors  bool
	OpenAIKey    string
	OpenAIModel  string
	OpenAIURL    string
	Log          logger.Config
}

// LoadDotEnv loads the first .env file found near the working directory,
// then ~/.env. Existing environment variables win.
func LoadDotEnv() {
	for _, p := range []string{".env", "../.env", "../../.env"} {
		if err := godotenv.Load(p); err == nil {
			break
		}
	}
	if home, err := os.UserHomeDir(); err == nil {
		godotenv.Load(filepath.Join(home, ".env"))
	}
}

// New returns a viper instance with defaults and environment bindings
func New() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault(KeyAPIURL, DefaultAPIURL)
	v.SetDefault(KeyPort, DefaultPort)
	v.SetDefault(KeyLogLevel, "info")

	v.BindEnv(KeyOpenAIKey, "RECO_OPENAI_API_KEY", "OPENAI_API_KEY")
	v.BindEnv(KeyOpenAIModel, "RECO_OPENAI_MODEL", "OPENAI_MODEL")
	v.BindEnv(KeyOpenAIURL, "RECO_OPENAI_BASE_URL", "OPENAI_BASE_URL")
	return v
}

// BindFlags lets cmd's flags override environment and defaults. Flag names
// use dashes; keys use underscores.
func BindFlags(v *viper.Viper, cmd *cobra.Command) error {
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return err
	}
	for _, key := range []string{KeyAPIURL, KeyNoLog, KeyDiscardStale, KeyUnifyErrors, KeyLogLevel, KeyLogDev} {
		if f := cmd.Flags().Lookup(strings.ReplaceAll(key, "_", "-")); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return err
			}
		}
	}
	return nil
}

// Load resolves and validates the configuration held by v
func Load(v *viper.Viper) (Config, error) {
	cfg := Config{
		APIURL:       strings.TrimSpace(v.GetString(KeyAPIURL)),
		Port:         strings.TrimSpace(v.GetString(KeyPort)),
		DiscardStale: v.GetBool(KeyDiscardStale),
		UnifyErrors:  v.GetBool(KeyUnifyErrors),
		OpenAIKey:    v.GetString(KeyOpenAIKey),
		OpenAIModel:  v.GetString(KeyOpenAIModel),
		OpenAIURL:    v.GetString(KeyOpenAIURL),
		Log: logger.Config{
			Level:       v.GetString(KeyLogLevel),
			Development: v.GetBool(KeyLogDev),
		},
	}

	u, err := url.Parse(cfg.APIURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return Config{}, fmt.Errorf("api url %q must be an absolute http(s) URL", cfg.APIURL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return Config{}, fmt.Errorf("api url %q must use http or https", cfg.APIURL)
	}
	if cfg.Port == "" {
		return Config{}, fmt.Errorf("port cannot be empty")
	}

	if !v.GetBool(KeyNoLog) {
		dbPath := v.GetString(KeyDB)
		if strings.TrimSpace(dbPath) == "" {
			dbPath = DefaultDBPath()
		}
		cfg.DBPath, err = ValidateDBPath(dbPath)
		if err != nil {
			return Config{}, err
		}
	}

	return cfg, nil
}

// ValidateDBPath validates and cleans a database path.
// Handles Unix/Linux, macOS, and Windows paths (including UNC and drive letters).
func ValidateDBPath(path string) (string, error) {
	cleanPath := strings.TrimSpace(path)
	if cleanPath == "" {
		return "", fmt.Errorf("database path cannot be empty, '.', or '/'")
	}
	cleanPath = filepath.Clean(cleanPath)

	if cleanPath == "." || cleanPath == "/" {
		return "", fmt.Errorf("database path cannot be empty, '.', or '/'")
	}

	// Windows: reject bare drive letters (e.g., "C:", "D:")
	if runtime.GOOS == "windows" && len(cleanPath) == 2 && cleanPath[1] == ':' {
		return "", fmt.Errorf("database path cannot be a bare drive letter")
	}

	if strings.Contains(cleanPath, "..") {
		return "", fmt.Errorf("database path cannot contain '..'")
	}

	lowerPath := strings.ToLower(cleanPath)
	for _, pattern := range []string{".git", ".svn", "node_modules", ".env", "credentials", "secret"} {
		if strings.Contains(lowerPath, pattern) {
			return "", fmt.Errorf("database path cannot contain '%s' directory", pattern)
		}
	}

	return cleanPath, nil
}

// DefaultDBPath returns the request log path following the XDG Base Directory layout.
// Priority: ./reco.db if present > XDG_DATA_HOME/reco/reco.db > ~/.local/share/reco/reco.db
func DefaultDBPath() string {
	log := logger.Default().Named("config")

	cwdPath := "./" + dbFileName
	if _, err := os.Stat(cwdPath); err == nil {
		return cwdPath
	}

	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil || homeDir == "" || homeDir == "/" {
			log.Warnw("could not determine home directory, using working directory", "home", homeDir, "error", err)
			return cwdPath
		}
		if runtime.GOOS == "windows" {
			dataHome = os.Getenv("LOCALAPPDATA")
			if dataHome == "" {
				dataHome = filepath.Join(homeDir, "AppData", "Local")
			}
		} else {
			dataHome = filepath.Join(homeDir, ".local", "share")
		}
	}

	dir := filepath.Join(dataHome, "reco")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		log.Warnw("could not create data directory, using working directory", "dir", dir, "error", err)
		return cwdPath
	}

	testFile := filepath.Join(dir, ".write-test")
	f, err := os.Create(testFile)
	if err != nil {
		log.Warnw("cannot write to data directory, using working directory", "dir", dir, "error", err)
		return cwdPath
	}
	f.Close()
	os.Remove(testFile)

	return filepath.Join(dir, dbFileName)
}
