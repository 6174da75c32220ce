package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const (
	xdgAppName = "ticksync"
	configFile = "config.json"
)

// Settings is the persisted configuration surface. Tokens live here too; the
// auth package rewrites them in place when a refresh occurs.
type Settings struct {
	// OAuth tokens
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken,omitempty"`
	TokenExpiry  int64  `json:"tokenExpiry,omitempty"`

	// Sync settings
	TargetPagePath   string   `json:"targetPagePath"`
	SelectedProjects []string `json:"selectedProjects"`
	SyncInterval     int      `json:"syncInterval"` // minutes
	AutoSync         bool     `json:"autoSync"`

	// Completed tasks settings
	IncludeCompleted   bool `json:"includeCompleted"`
	CompletedDaysLimit int  `json:"completedDaysLimit"`

	// OAuth client config
	ClientID     string `json:"clientId"`
	ClientSecret string `json:"clientSecret"`
	// Manually pasted authorization code
	AuthCode string `json:"authCode,omitempty"`

	// Host-side paths
	VaultDir string `json:"vaultDir"`
	LogFile  string `json:"logFile,omitempty"`
}

// Defaults returns the settings used before the user configures anything.
func Defaults() *Settings {
	return &Settings{
		TargetPagePath:     "TickTick Tasks",
		SelectedProjects:   []string{},
		SyncInterval:       5,
		AutoSync:           true,
		IncludeCompleted:   false,
		CompletedDaysLimit: 7,
		VaultDir:           ".",
	}
}

func GetConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", xdgAppName, configFile), nil
}

// Load reads the settings file, returning defaults when none exists yet.
func Load() (*Settings, error) {
	path, err := GetConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFrom(path)
}

// LoadFrom reads settings from an explicit path. Missing fields keep their
// default values.
func LoadFrom(path string) (*Settings, error) {
	cfg := Defaults()

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}
	defer f.Close()

	if err := json.NewDecoder(f).Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if cfg.TargetPagePath == "" {
		cfg.TargetPagePath = "TickTick Tasks"
	}
	if cfg.SyncInterval <= 0 {
		cfg.SyncInterval = 5
	}
	return cfg, nil
}

// Save writes the settings to the default location.
func Save(cfg *Settings) error {
	path, err := GetConfigPath()
	if err != nil {
		return err
	}
	return SaveTo(path, cfg)
}

// SaveTo writes the settings to an explicit path, creating the directory as
// needed. Token material goes in here, hence the tight permissions.
func SaveTo(path string, cfg *Settings) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to open config file for writing: %w", err)
	}
	defer f.Close()

	encoder := json.NewEncoder(f)
	encoder.SetIndent("", "  ")
	return encoder.Encode(cfg)
}
