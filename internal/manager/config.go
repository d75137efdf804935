package manager

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/hoppxi/brightsync/internal/brightness"
	"github.com/hoppxi/brightsync/internal/watchers"
	"github.com/hoppxi/brightsync/pkg/displayinfo"
)

const (
	SourceCommand   = "command"
	SourceBacklight = "backlight"
)

type CommandSettings struct {
	Get     string        `mapstructure:"get"`
	Set     string        `mapstructure:"set"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type BacklightSettings struct {
	Root   string `mapstructure:"root"`
	Device string `mapstructure:"device"`
}

type SurfaceSettings struct {
	Eww       bool          `mapstructure:"eww"`
	EwwPrefix string        `mapstructure:"eww_prefix"`
	EwwOSD    time.Duration `mapstructure:"eww_osd"`
	DBus      bool          `mapstructure:"dbus"`
}

type LogSettings struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type MetricsSettings struct {
	Listen string `mapstructure:"listen"`
}

// Settings is the typed view of brightsync.yaml.
type Settings struct {
	Interval     time.Duration     `mapstructure:"interval"`
	Source       string            `mapstructure:"source"`
	Command      CommandSettings   `mapstructure:"command"`
	Backlight    BacklightSettings `mapstructure:"backlight"`
	Surfaces     SurfaceSettings   `mapstructure:"surfaces"`
	WatchUevents bool              `mapstructure:"watch_uevents"`
	Log          LogSettings       `mapstructure:"log"`
	Metrics      MetricsSettings   `mapstructure:"metrics"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("interval", brightness.DefaultInterval)
	v.SetDefault("source", SourceCommand)
	v.SetDefault("command.get", "asdbctl get")
	v.SetDefault("command.set", "asdbctl set")
	v.SetDefault("command.timeout", brightness.DefaultSetTimeout)
	v.SetDefault("backlight.root", displayinfo.DefaultRoot)
	v.SetDefault("backlight.device", "")
	v.SetDefault("surfaces.eww", true)
	v.SetDefault("surfaces.eww_prefix", watchers.DefaultEwwPrefix)
	v.SetDefault("surfaces.eww_osd", 5*time.Second)
	v.SetDefault("surfaces.dbus", true)
	v.SetDefault("watch_uevents", false)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("metrics.listen", "")
}

// Validate rejects settings the daemon cannot run with.
func (s Settings) Validate() error {
	if s.Interval <= 0 {
		return fmt.Errorf("interval must be positive, got %s", s.Interval)
	}
	switch s.Source {
	case SourceCommand:
		if len(strings.Fields(s.Command.Get)) == 0 || len(strings.Fields(s.Command.Set)) == 0 {
			return errors.New("command.get and command.set are required for the command source")
		}
	case SourceBacklight:
	default:
		return fmt.Errorf("unknown source %q (want %s or %s)", s.Source, SourceCommand, SourceBacklight)
	}
	return nil
}

type ConfigManager struct {
	Path string

	once  sync.Once
	v     *viper.Viper
	found bool
	err   error
}

var Config = &ConfigManager{}

// DefaultConfigPath is $XDG_CONFIG_HOME/brightsync/brightsync.yaml.
func DefaultConfigPath() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "brightsync.yaml"
	}
	return filepath.Join(configDir, "brightsync", "brightsync.yaml")
}

func (c *ConfigManager) path() string {
	if c.Path != "" {
		return c.Path
	}
	return DefaultConfigPath()
}

// Load reads the config file once. A missing file is not an error; defaults
// and BRIGHTSYNC_* environment variables still apply.
func (c *ConfigManager) Load() (*viper.Viper, error) {
	c.once.Do(func() {
		v := viper.New()
		setDefaults(v)

		confPath := c.path()
		v.SetConfigFile(confPath)
		v.SetConfigType("yaml")
		v.SetEnvPrefix("BRIGHTSYNC")
		v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
		v.AutomaticEnv()

		if _, err := os.Stat(confPath); err == nil {
			if err := v.ReadInConfig(); err != nil {
				c.err = fmt.Errorf("failed to read config: %w", err)
				return
			}
			c.found = true
		}

		c.v = v
	})

	return c.v, c.err
}

func (c *ConfigManager) Settings() (Settings, error) {
	v, err := c.Load()
	if err != nil {
		return Settings{}, err
	}
	return decode(v)
}

func decode(v *viper.Viper) (Settings, error) {
	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return Settings{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := s.Validate(); err != nil {
		return Settings{}, fmt.Errorf("invalid config %s: %w", v.ConfigFileUsed(), err)
	}
	return s, nil
}

// Watch calls onChange with the new settings whenever the config file is
// rewritten. Invalid edits are logged and skipped.
func (c *ConfigManager) Watch(onChange func(Settings)) {
	if c.v == nil || !c.found {
		return
	}

	c.v.OnConfigChange(func(e fsnotify.Event) {
		s, err := decode(c.v)
		if err != nil {
			slog.Warn("ignoring config change", "file", e.Name, "error", err)
			return
		}
		slog.Info("config reloaded", "file", e.Name)
		onChange(s)
	})
	c.v.WatchConfig()
}
