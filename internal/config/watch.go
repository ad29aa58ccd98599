package config

import (
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Watch reloads the configuration whenever the config file viper read from
// changes, and calls onChange with each reloaded Config that passes
// validation. Invalid edits are reported through onError (if non-nil) and
// the previous configuration stays in effect.
//
// Watch must be called after viper.ReadInConfig succeeded.
func Watch(onChange func(*Config), onError func(error)) {
	viper.OnConfigChange(func(fsnotify.Event) {
		cfg, err := Load()
		if err != nil {
			if onError != nil {
				onError(err)
			}
			return
		}
		onChange(cfg)
	})
	viper.WatchConfig()
}
