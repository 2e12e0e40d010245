package manager

import (
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/viper"
)

// EnvPrefix scopes the environment toggles, so the log level is read from
// SGSTATUS_LOG.
const EnvPrefix = "sgstatus"

type ConfigManager struct {
	once sync.Once
	v    *viper.Viper
}

var Config = &ConfigManager{}

// Load binds the environment once. There is no config file.
func (c *ConfigManager) Load() *viper.Viper {
	c.once.Do(func() {
		c.v = newViper()
	})
	return c.v
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.SetDefault("log", "info")
	return v
}

// LogLevel maps the log toggle to a level, defaulting to info.
func LogLevel(v *viper.Viper) slog.Level {
	switch strings.ToLower(strings.TrimSpace(v.GetString("log"))) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// SetupLogging installs a text handler on w as the default logger.
func SetupLogging(w io.Writer, v *viper.Viper) *slog.Logger {
	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: LogLevel(v)}))
	slog.SetDefault(logger)
	return logger
}
