package backend

import (
	"errors"
	"fmt"

	"spendcast/internal/config"
)

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, errors.New("app config is nil")
	}

	t := Type(appConfig.DataBackend)
	if !t.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s", appConfig.DataBackend)
	}

	return Config{
		Type:                    t,
		SQLiteDBPath:            appConfig.SQLiteDBPath,
		GoogleSpreadsheetID:     appConfig.GoogleSpreadsheetID,
		GoogleObservationsSheet: appConfig.GoogleObservationsSheet,
		GooglePredictionsSheet:  appConfig.GooglePredictionsSheet,
		DataDirectory:           appConfig.DataDirectory,
	}, nil
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	switch c.Type {
	case SQLite:
		if c.SQLiteDBPath == "" {
			return errors.New("SQLite database path is required for sqlite backend")
		}
	case Sheets:
		if c.GoogleSpreadsheetID == "" {
			return errors.New("Google Spreadsheet ID is required for sheets backend")
		}
	case Memory:
		// an empty DataDirectory means no seed data
	default:
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}
	return nil
}

// Types returns all valid backend types
func Types() []Type {
	return []Type{SQLite, Sheets, Memory}
}
