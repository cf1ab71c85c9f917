package cliconfig

import (
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
)

// FileConfig mirrors Config but uses strings for durations to make TOML friendly.
type FileConfig struct {
	Template       string `toml:"message"`
	PrimaryScript  string `toml:"primary_script"`
	FallbackScript string `toml:"fallback_script"`
	Delay          string `toml:"delay"`
	DryRun         *bool  `toml:"dry_run"`
	Limit          int    `toml:"limit"`
	LogPath        string `toml:"log_file"`
	TrackLink      *bool  `toml:"track_link"`
	LinkParam      string `toml:"link_param"`
	Verify         *bool  `toml:"verify"`
	VerifyWait     string `toml:"verify_wait"`
	VerifyTimeout  string `toml:"verify_timeout"`
	LedgerPath     string `toml:"ledger_path"`
	WatchLedger    *bool  `toml:"watch_ledger"`
}

// LoadFileConfig reads and parses a TOML config file from the given path.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := toml.Unmarshal(b, &fc); err != nil {
		return fc, err
	}
	return fc, nil
}

// DefaultConfigPath returns the default configuration file path,
// ~/.bluefall/config.toml, if the user home directory is accessible.
func DefaultConfigPath() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".bluefall", "config.toml")
	}
	return ""
}

// ApplyFileConfig applies configuration from a file to the Config struct.
// It respects flags that have been explicitly set (changed map).
func ApplyFileConfig(cfg *Config, fc FileConfig, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("message", fc.Template, &cfg.Template)
	s.setString("applescript", fc.PrimaryScript, &cfg.PrimaryScript)
	s.setString("sms-applescript", fc.FallbackScript, &cfg.FallbackScript)
	s.setString("log-file", fc.LogPath, &cfg.LogPath)
	s.setString("link-field-name", fc.LinkParam, &cfg.LinkParam)
	s.setString("db", fc.LedgerPath, &cfg.LedgerPath)

	if err := s.setDuration("delay", fc.Delay, &cfg.Delay); err != nil {
		return err
	}
	if err := s.setDuration("verify-wait", fc.VerifyWait, &cfg.VerifyWait); err != nil {
		return err
	}
	if err := s.setDuration("verify-timeout", fc.VerifyTimeout, &cfg.VerifyTimeout); err != nil {
		return err
	}

	s.setInt("limit", fc.Limit, &cfg.Limit)

	s.setBool("dry-run", fc.DryRun, &cfg.DryRun)
	s.setBool("track-link", fc.TrackLink, &cfg.TrackLink)
	s.setBool("verify-imessage", fc.Verify, &cfg.Verify)
	s.setBool("watch-ledger", fc.WatchLedger, &cfg.WatchLedger)

	return nil
}

// FileExists checks if a file exists at the given path.
func FileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
