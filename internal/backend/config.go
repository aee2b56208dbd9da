package backend

import (
	"fmt"

	"tally/internal/config"
	"tally/internal/core"
)

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}

	backendType := Type(appConfig.DataBackend)
	if !backendType.IsValid() {
		return Config{}, fmt.Errorf("%w: unknown backend type %q", core.ErrInvalidConfiguration, appConfig.DataBackend)
	}

	return Config{
		Type:        backendType,
		SQLitePath:  appConfig.SQLitePath,
		PostgresURL: appConfig.PostgresURL,
	}, nil
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("%w: unknown backend type %q", core.ErrInvalidConfiguration, c.Type)
	}

	switch c.Type {
	case SQLiteBackend:
		if c.SQLitePath == "" {
			return fmt.Errorf("%w: SQLite database path is required for sqlite backend", core.ErrInvalidConfiguration)
		}
	case PostgresBackend:
		if c.PostgresURL == "" {
			return fmt.Errorf("%w: Postgres URL is required for postgres backend", core.ErrInvalidConfiguration)
		}
	case MemoryBackend:
		// Nothing beyond the type itself.
	}

	return nil
}
