package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
)

type SystemConfig struct {
	DataDirectory string `toml:"data_directory"`
}

type QueryConfig struct {
	Backend        string `toml:"backend"`
	URL            string `toml:"url"`
	Model          string `toml:"model,omitempty"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

type StorageConfig struct {
	Backend string `toml:"backend"`
}

type CredentialsConfig struct {
	Security   string `toml:"security"`
	SSHKeyPath string `toml:"ssh_key_path,omitempty"`
}

type UIConfig struct {
	Typewriter bool `toml:"typewriter"`
}

type UserConfig struct {
	Query       QueryConfig       `toml:"query"`
	Storage     StorageConfig     `toml:"storage"`
	Credentials CredentialsConfig `toml:"credentials"`
	UI          UIConfig          `toml:"ui"`
}

type Config struct {
	DataDirectory  string
	QueryBackend   string
	QueryURL       string
	QueryModel     string
	QueryTimeout   int
	StorageBackend string
	Security       SecurityMethod
	SSHKeyPath     string
	Typewriter     bool
}

var Debug = false
var DebugLog *log.Logger

func (c *Config) DataDir() string {
	return ExpandPath(c.DataDirectory)
}

func (c *Config) applyUserConfig(userCfg *UserConfig) {
	c.QueryBackend = userCfg.Query.Backend
	c.QueryURL = userCfg.Query.URL
	c.QueryModel = userCfg.Query.Model
	c.QueryTimeout = userCfg.Query.TimeoutSeconds
	c.StorageBackend = userCfg.Storage.Backend
	c.Security = SecurityMethod(userCfg.Credentials.Security)
	c.SSHKeyPath = userCfg.Credentials.SSHKeyPath
	c.Typewriter = userCfg.UI.Typewriter
}

func (c *Config) applyEnvOverrides() {
	if dataDir := os.Getenv("WHEELY_DATA_DIR"); dataDir != "" {
		c.DataDirectory = dataDir
	}
	if url := os.Getenv("WHEELY_QUERY_URL"); url != "" {
		c.QueryURL = url
	}
	if backend := os.Getenv("WHEELY_QUERY_BACKEND"); backend != "" {
		c.QueryBackend = backend
	}
	if store := os.Getenv("WHEELY_STORAGE"); store != "" {
		c.StorageBackend = store
	}
	if timeout := os.Getenv("WHEELY_QUERY_TIMEOUT"); timeout != "" {
		if secs, err := strconv.Atoi(timeout); err == nil && secs >= 0 {
			c.QueryTimeout = secs
		}
	}
}

func (c *Config) applyDefaults() {
	defaults := DefaultUserConfig()
	if c.QueryBackend == "" {
		c.QueryBackend = defaults.Query.Backend
	}
	if c.QueryURL == "" && c.QueryBackend == defaults.Query.Backend {
		c.QueryURL = DefaultQueryURL
	}
	if c.StorageBackend == "" {
		c.StorageBackend = defaults.Storage.Backend
	}
	if c.Security == "" {
		c.Security = SecurityPlainText
	}
}

func CheckDebug() bool {
	debug := os.Getenv("WHEELY_DEBUG")
	return debug == "true" || debug == "1"
}

func InitDebugLog(dataDir string) {
	if !CheckDebug() {
		return
	}

	Debug = true
	logPath := filepath.Join(dataDir, "debug.log")

	// 0600: the log may contain query text
	f, err := os.OpenFile(logPath, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0600)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Could not open debug log at %s: %v\n", logPath, err)
		return
	}

	DebugLog = log.New(f, "", log.Ldate|log.Ltime|log.Lmicroseconds|log.Lshortfile)
	DebugLog.Printf("=== Debug logging started (WHEELY_DEBUG=%s) ===", os.Getenv("WHEELY_DEBUG"))
	DebugLog.Printf("Log path: %s", logPath)
}

// Load resolves the effective configuration: system settings pick the data
// directory, the user config in that directory fills the rest, and WHEELY_*
// environment variables win over both.
func Load() (*Config, error) {
	cfg := &Config{
		DataDirectory: GetDefaultDataDir(),
	}

	if dataDir := os.Getenv("WHEELY_DATA_DIR"); dataDir != "" {
		cfg.DataDirectory = dataDir
	} else {
		systemCfg, err := LoadSystemConfig()
		if err != nil {
			return nil, fmt.Errorf("failed to load system config: %w", err)
		}
		cfg.DataDirectory = systemCfg.DataDirectory
	}

	dataDir := cfg.DataDir()
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	if err := EnsureDataDirPermissions(dataDir); err != nil {
		return nil, fmt.Errorf("failed to set data directory permissions: %w", err)
	}

	userCfg, err := LoadUserConfig(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load user config: %w", err)
	}
	cfg.applyUserConfig(userCfg)
	cfg.applyEnvOverrides()
	cfg.applyDefaults()

	return cfg, nil
}
