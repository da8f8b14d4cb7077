package backend

import (
	"errors"
	"fmt"

	"moneymanager/internal/config"
)

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, errors.New("app config is nil")
	}

	backendType := BackendType(appConfig.DataBackend)
	if !backendType.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s", appConfig.DataBackend)
	}

	return Config{
		Type: backendType,

		APIBaseURL: appConfig.APIBaseURL,
		APIToken:   appConfig.APIToken,
		APITimeout: appConfig.APITimeout,

		GoogleSpreadsheetID: appConfig.GoogleSpreadsheetID,
		GoogleIncomeSheet:   appConfig.GoogleIncomeSheet,
		GoogleExpenseSheet:  appConfig.GoogleExpenseSheet,

		SeedFile: appConfig.SeedFile,
	}, nil
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}

	switch c.Type {
	case RESTBackend:
		if c.APIBaseURL == "" {
			return errors.New("API base URL is required for rest backend")
		}
	case SheetsBackend:
		if c.GoogleSpreadsheetID == "" {
			return errors.New("Google Spreadsheet ID is required for sheets backend")
		}
	}

	return nil
}

// GetBackendTypes returns all valid backend types
func GetBackendTypes() []BackendType {
	return []BackendType{RESTBackend, SheetsBackend, MemoryBackend}
}
