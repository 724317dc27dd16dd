package config

import (
	"context"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// Watch observes the config file and invokes onChange with the reloaded
// configuration whenever it is written. It returns once ctx is cancelled.
func Watch(ctx context.Context, logger zerolog.Logger, onChange func(*Config)) error {
	configDir, err := GetConfigDir()
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(configDir); err != nil {
		return err
	}

	configPath := filepath.Join(configDir, "config.yaml")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Name != configPath || !event.Op.Has(fsnotify.Write) {
				continue
			}
			cfg, err := Load()
			if err != nil {
				logger.Warn().Err(err).Msg("Config reload failed, keeping previous")
				continue
			}
			logger.Info().Str("theme", cfg.Theme).Msg("Config reloaded")
			onChange(cfg)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn().Err(err).Msg("Config watcher error")
		}
	}
}
