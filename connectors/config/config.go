package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	dconfig "emissions-stats/domain/config"

	"github.com/labstack/gommon/bytes"
	"gopkg.in/yaml.v3"
)

// DefaultPath is used when CONFIG_PATH is not set.
const DefaultPath = "./config.yml"

// Load parses the YAML configuration file at path on top of the defaults.
// Column aliases from the file replace the defaults per column.
func Load(path string) (*dconfig.Config, error) {
	c := dconfig.Default()
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var fileCfg dconfig.Config
	if err := yaml.Unmarshal(b, &fileCfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	merge(c, &fileCfg)
	if err := Validate(c); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	slog.Info(fmt.Sprintf("Loaded config: %s", path))
	return c, nil
}

// LoadFromEnv loads CONFIG_PATH (or ./config.yml). A missing file yields the defaults.
func LoadFromEnv() (*dconfig.Config, error) {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = DefaultPath
	}
	c, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		slog.Debug("config.default", "path", path)
		return dconfig.Default(), nil
	}
	return c, err
}

func merge(dst, src *dconfig.Config) {
	if src.Server.Addr != "" {
		dst.Server.Addr = src.Server.Addr
	}
	if src.Server.UIDir != "" {
		dst.Server.UIDir = src.Server.UIDir
	}
	if src.Server.MaxUpload != "" {
		dst.Server.MaxUpload = src.Server.MaxUpload
	}
	if src.Storage.Path != "" {
		dst.Storage.Path = src.Storage.Path
	}
	if src.Log.Level != "" {
		dst.Log.Level = src.Log.Level
	}
	for col, aliases := range src.Columns {
		if len(aliases) > 0 {
			dst.Columns[col] = aliases
		}
	}
}

// Validate rejects values that would only fail once the server starts.
func Validate(c *dconfig.Config) error {
	if c.Server.MaxUpload == "" {
		return nil
	}
	if _, err := bytes.Parse(c.Server.MaxUpload); err != nil {
		return fmt.Errorf("server.max_upload %q: %w", c.Server.MaxUpload, err)
	}
	return nil
}

// LogLevel maps the configured level name to a slog level, defaulting to info.
func LogLevel(c *dconfig.Config) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return slog.LevelInfo
	}
	return l
}
