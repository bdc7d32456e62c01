// Package config loads FoxFocus settings from the TOML config file and
// FOXFOCUS_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Smailkiller/FOXFOCUS/internal/daemon"
	"github.com/Smailkiller/FOXFOCUS/internal/db"
	"github.com/Smailkiller/FOXFOCUS/internal/dictation/cloud"
	"github.com/Smailkiller/FOXFOCUS/internal/dictation/local"
	"github.com/Smailkiller/FOXFOCUS/internal/netwatch"
	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"
)

const (
	configName = "config"
	configType = "toml"
	envPrefix  = "FOXFOCUS"
	appDir     = "foxfocus"
	fileMode   = 0o600
	dirMode    = 0o700
)

// Config is the resolved application configuration.
type Config struct {
	Cloud   CloudConfig
	Local   LocalConfig
	Audio   AudioConfig
	Network NetworkConfig
	History HistoryConfig
	Notify  NotifyConfig
	Log     LogConfig
}

// CloudConfig configures the Azure OpenAI transcription backend.
type CloudConfig struct {
	Endpoint    string
	APIKey      string
	Deployment  string
	Language    string
	Instruction string
	Timeout     time.Duration
}

// Enabled reports whether enough is configured to call the service.
func (c CloudConfig) Enabled() bool {
	return c.Endpoint != "" && c.APIKey != "" && c.Deployment != ""
}

type LocalConfig struct {
	Socket      string
	Locale      string
	StopTimeout time.Duration
}

type AudioConfig struct {
	SampleRate int
	Channels   int
}

type NetworkConfig struct {
	ProbeAddr    string
	ProbeTimeout time.Duration
	Interval     time.Duration
}

type HistoryConfig struct {
	Archive     bool
	ArchivePath string
}

type NotifyConfig struct {
	Desktop bool
}

type LogConfig struct {
	Level string
	File  string
}

// Dir returns the FoxFocus configuration directory.
func Dir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, appDir)
}

// Path returns the default config file path.
func Path() string {
	return filepath.Join(Dir(), configName+"."+configType)
}

// Defaults returns every key with its default value, grouped by section.
// Durations are kept as strings so the tree can be written back as TOML.
func Defaults() map[string]map[string]any {
	return map[string]map[string]any{
		"cloud": {
			"endpoint":    "",
			"api_key":     "",
			"deployment":  "",
			"language":    cloud.Language,
			"instruction": cloud.Instruction,
			"timeout":     "60s",
		},
		"local": {
			"socket":       daemon.SocketPath(),
			"locale":       local.DefaultLocale,
			"stop_timeout": "5s",
		},
		"audio": {
			"sample_rate": 16000,
			"channels":    1,
		},
		"network": {
			"probe_addr":    netwatch.DefaultAddr,
			"probe_timeout": "2s",
			"interval":      "10s",
		},
		"history": {
			"archive":      false,
			"archive_path": db.DefaultDBPath(),
		},
		"notify": {
			"desktop": false,
		},
		"log": {
			"level": "info",
			"file":  filepath.Join(Dir(), "foxfocus.log"),
		},
	}
}

// Load reads configuration into v. An empty path means the default location;
// a missing file is not an error.
func Load(v *viper.Viper, path string) (Config, error) {
	if v == nil {
		v = viper.New()
	}

	for section, keys := range Defaults() {
		for key, value := range keys {
			v.SetDefault(section+"."+key, value)
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(configName)
		v.SetConfigType(configType)
		v.AddConfigPath(Dir())
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	cfg := Config{
		Cloud: CloudConfig{
			Endpoint:    v.GetString("cloud.endpoint"),
			APIKey:      v.GetString("cloud.api_key"),
			Deployment:  v.GetString("cloud.deployment"),
			Language:    v.GetString("cloud.language"),
			Instruction: v.GetString("cloud.instruction"),
			Timeout:     v.GetDuration("cloud.timeout"),
		},
		Local: LocalConfig{
			Socket:      v.GetString("local.socket"),
			Locale:      v.GetString("local.locale"),
			StopTimeout: v.GetDuration("local.stop_timeout"),
		},
		Audio: AudioConfig{
			SampleRate: v.GetInt("audio.sample_rate"),
			Channels:   v.GetInt("audio.channels"),
		},
		Network: NetworkConfig{
			ProbeAddr:    v.GetString("network.probe_addr"),
			ProbeTimeout: v.GetDuration("network.probe_timeout"),
			Interval:     v.GetDuration("network.interval"),
		},
		History: HistoryConfig{
			Archive:     v.GetBool("history.archive"),
			ArchivePath: v.GetString("history.archive_path"),
		},
		Notify: NotifyConfig{
			Desktop: v.GetBool("notify.desktop"),
		},
		Log: LogConfig{
			Level: v.GetString("log.level"),
			File:  v.GetString("log.file"),
		},
	}

	if cfg.Audio.SampleRate <= 0 {
		return Config{}, fmt.Errorf("audio.sample_rate must be positive, got %d", cfg.Audio.SampleRate)
	}
	if cfg.Audio.Channels <= 0 {
		return Config{}, fmt.Errorf("audio.channels must be positive, got %d", cfg.Audio.Channels)
	}
	if cfg.Network.Interval <= 0 {
		return Config{}, fmt.Errorf("network.interval must be positive, got %s", cfg.Network.Interval)
	}
	return cfg, nil
}

// WriteDefault writes the default configuration to path. An existing file is
// left alone unless overwrite is set.
func WriteDefault(path string, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config file %s already exists", path)
		}
	}

	encoded, err := toml.Marshal(Defaults())
	if err != nil {
		return fmt.Errorf("encode default config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, dirMode); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".config-*.toml.tmp")
	if err != nil {
		return fmt.Errorf("create temp config: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(encoded); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp config: %w", err)
	}
	if err := tmp.Chmod(fileMode); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod temp config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp config: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("replace config: %w", err)
	}
	return nil
}
