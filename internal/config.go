package internal

import (
	"fmt"
	"os"

	yamlv3 "gopkg.in/yaml.v3"
)

// DefaultLogFile is where connection activity is appended unless the
// config or the -log flag says otherwise.
const DefaultLogFile = "chatrelay.log"

// Config carries optional startup defaults. All session state stays
// in-process; the config only pre-seeds values the operator would
// otherwise type.
type Config struct {
	// Addr replaces the built-in default address for host/join.
	Addr string `yaml:"addr"`
	// Name pre-sets the display name so joining skips the prompt.
	Name string `yaml:"name"`
	// LogFile is the activity log path. Empty means the default;
	// "none" disables the log.
	LogFile string `yaml:"logfile"`
}

// LoadConfig reads a YAML config file. An empty path returns the zero
// Config without touching the filesystem.
func LoadConfig(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yamlv3.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// SessionAddr returns the address host/join use when the operator
// gives none.
func (c Config) SessionAddr() string {
	if c.Addr != "" {
		return c.Addr
	}
	return DefaultAddr
}

// LogPath resolves the activity log destination. Empty result means
// logging is off.
func (c Config) LogPath() string {
	switch c.LogFile {
	case "":
		return DefaultLogFile
	case "none":
		return ""
	default:
		return c.LogFile
	}
}
