// Package config provides centralized management for application settings, defaults, and the Viper-based configuration engine.
package config

import (
	"strings"
	"time"

	"github.com/emeltv/emel/avplay"
	"github.com/emeltv/emel/constant"
	"github.com/emeltv/emel/filesystem"
	"github.com/emeltv/emel/key"
	"github.com/emeltv/emel/where"
	"github.com/spf13/viper"
)

// EnvKeyReplacer normalizes configuration keys into environment variable naming conventions.
var EnvKeyReplacer = strings.NewReplacer(".", "_")

// Setup initializes the global configuration state, including defaults, environment bindings, and file resolution.
func Setup() error {
	viper.SetConfigName(constant.Emel)
	viper.SetConfigType("toml")
	viper.SetFs(filesystem.API())
	viper.AddConfigPath(where.Config())

	viper.SetEnvPrefix(constant.Emel)
	viper.SetEnvKeyReplacer(EnvKeyReplacer)
	for _, env := range EnvExposed {
		viper.MustBindEnv(env)
	}

	viper.SetTypeByDefaultValue(true)
	for name, field := range Default {
		viper.SetDefault(name, field.Value)
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return err
	}

	return nil
}

// StreamURL returns the configured HLS manifest address.
func StreamURL() string {
	return viper.GetString(key.StreamURL)
}

// DisplayRect returns the full-surface rectangle the player renders into.
func DisplayRect() avplay.Rect {
	return avplay.Rect{
		Width:  viper.GetInt(key.DisplayWidth),
		Height: viper.GetInt(key.DisplayHeight),
	}
}

// StartDelay returns how long Initialize waits before the first playback attempt.
func StartDelay() time.Duration {
	return time.Duration(viper.GetInt(key.PlayerStartDelayMs)) * time.Millisecond
}

// PrepareTimeout bounds the asynchronous prepare step.
func PrepareTimeout() time.Duration {
	return time.Duration(viper.GetInt(key.PlayerPrepareTimeoutMs)) * time.Millisecond
}
