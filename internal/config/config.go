package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/ThatOtherAndrew/ESMSBusTimetable/internal/classify"
	"github.com/ThatOtherAndrew/ESMSBusTimetable/internal/convert"
)

type Config struct {
	DataDir  string `toml:"data_dir"`
	DBPath   string `toml:"db_path"`
	Listen   string `toml:"listen"`
	Timezone string `toml:"timezone"`
	LogLevel string `toml:"log_level"`

	// AttachmentPrefix selects the schedule PDF among an email's attachments.
	AttachmentPrefix string `toml:"attachment_prefix"`
	// Converter is the PDF to CSV command line; "{input}" is replaced by the
	// PDF path and the CSV is read from stdout.
	Converter []string `toml:"converter"`

	LocationColors       []classify.LocationColor `toml:"location_colors"`
	DefaultLocationColor string                   `toml:"default_location_color"`

	// Path is the file the config was read from, empty when defaults only.
	Path string `toml:"-"`
}

// DefaultPath is ~/.config/timetable/config.toml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "timetable", "config.toml"), nil
}

func Defaults(home string) *Config {
	palette := classify.DefaultPalette()
	dataDir := filepath.Join(home, ".local", "share", "timetable")
	return &Config{
		DataDir:              dataDir,
		DBPath:               filepath.Join(dataDir, "timetable.db"),
		Listen:               ":8080",
		Timezone:             "Local",
		LogLevel:             "info",
		AttachmentPrefix:     "Transport Schedule",
		Converter:            []string{"tabula", "--pages", "all", "--format", "CSV", "{input}"},
		LocationColors:       palette.Entries,
		DefaultLocationColor: palette.Default,
	}
}

// Load reads the TOML file at path over the defaults, then applies
// TIMETABLE_* environment overrides. An empty path means
// $TIMETABLE_CONFIG or DefaultPath; a missing default file is not an error.
func Load(path string) (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	cfg := Defaults(home)

	explicit := path != ""
	if !explicit {
		if env := os.Getenv("TIMETABLE_CONFIG"); env != "" {
			path, explicit = env, true
		} else {
			path = filepath.Join(home, ".config", "timetable", "config.toml")
		}
	}
	path = expandHome(path, home)

	dbSet := false
	if _, err := os.Stat(path); err == nil {
		md, err := toml.DecodeFile(path, cfg)
		if err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("parse config %s: unknown keys %v", path, undecoded)
		}
		dbSet = md.IsDefined("db_path")
		cfg.Path = path
	} else if explicit {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}

	if v := os.Getenv("TIMETABLE_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("TIMETABLE_DB_PATH"); v != "" {
		cfg.DBPath = v
		dbSet = true
	}
	if v := os.Getenv("TIMETABLE_LISTEN"); v != "" {
		cfg.Listen = v
	}
	if v := os.Getenv("TIMETABLE_TIMEZONE"); v != "" {
		cfg.Timezone = v
	}
	if v := os.Getenv("TIMETABLE_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}

	cfg.DataDir = expandHome(cfg.DataDir, home)
	if !dbSet {
		cfg.DBPath = filepath.Join(cfg.DataDir, "timetable.db")
	}
	cfg.DBPath = expandHome(cfg.DBPath, home)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.DataDir == "" {
		return errors.New("data_dir is required")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if len(c.Converter) > 0 && !containsInput(c.Converter) {
		return errors.New("converter must reference {input}")
	}
	return nil
}

// Location resolves Timezone; "Local" and "" mean the host zone.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" || strings.EqualFold(c.Timezone, "local") {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

func (c *Config) Palette() classify.Palette {
	return classify.Palette{Entries: c.LocationColors, Default: c.DefaultLocationColor}
}

func containsInput(argv []string) bool {
	for _, a := range argv {
		if strings.Contains(a, convert.Placeholder) {
			return true
		}
	}
	return false
}

func expandHome(path, home string) string {
	if len(path) > 1 && path[0] == '~' && path[1] == '/' {
		return filepath.Join(home, path[2:])
	}
	return path
}
