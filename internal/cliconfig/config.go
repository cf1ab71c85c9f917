package cliconfig

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// DefaultLinkParam is the query parameter written into tracked links.
const DefaultLinkParam = "cid"

// Config holds CLI configuration for bluefall.
type Config struct {
	Template string

	PrimaryScript  string
	FallbackScript string

	Delay  time.Duration
	DryRun bool
	Limit  int

	LogPath string

	TrackLink bool
	LinkParam string

	Verify        bool
	VerifyWait    time.Duration
	VerifyTimeout time.Duration
	LedgerPath    string
	WatchLedger   bool
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		PrimaryScript:  "send_imessage.applescript",
		FallbackScript: "send_sms_only.applescript",
		Delay:          2500 * time.Millisecond,
		LogPath:        "send_log.csv",
		LinkParam:      DefaultLinkParam,
		VerifyWait:     2 * time.Second,
		VerifyTimeout:  8 * time.Second,
	}
}

// DefaultLedgerPath returns the host messaging store location,
// ~/Library/Messages/chat.db, or "" when the home directory is unknown.
func DefaultLedgerPath() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, "Library", "Messages", "chat.db")
	}
	return ""
}

// Validate checks the configuration for errors and sets derived defaults.
func (c *Config) Validate() error {
	if c.Template == "" {
		return fmt.Errorf("message template is required")
	}
	if c.Delay < 0 {
		return fmt.Errorf("delay must not be negative")
	}
	if c.Limit < 0 {
		return fmt.Errorf("limit must not be negative")
	}
	if c.LogPath == "" {
		c.LogPath = "send_log.csv"
	}
	if c.LinkParam == "" {
		c.LinkParam = DefaultLinkParam
	}
	if c.Verify {
		if c.VerifyWait < 0 {
			return fmt.Errorf("verify wait must not be negative")
		}
		if c.VerifyTimeout <= 0 {
			return fmt.Errorf("verify timeout must be positive")
		}
	}
	if c.LedgerPath == "" {
		c.LedgerPath = DefaultLedgerPath()
	}
	return nil
}

// configSetter helps apply configuration values while respecting flag precedence.
// It only applies values if the corresponding flag hasn't been explicitly set.
type configSetter struct {
	changed map[string]bool
}

func newConfigSetter(changed map[string]bool) *configSetter {
	return &configSetter{changed: changed}
}

// setString sets a string value if not empty and flag not changed.
func (s *configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

// setInt sets an int value if positive and flag not changed.
func (s *configSetter) setInt(flag string, value int, dst *int) {
	if value <= 0 || s.changed[flag] {
		return
	}
	*dst = value
}

// setDuration parses and sets a duration from string if valid and flag not changed.
func (s *configSetter) setDuration(flag, value string, dst *time.Duration) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = d
	return nil
}

// setBool sets a bool value from a pointer if not nil and flag not changed.
func (s *configSetter) setBool(flag string, value *bool, dst *bool) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

// setIntFromString parses a string to int and sets the destination if valid.
// Used for environment variables that come as strings.
func (s *configSetter) setIntFromString(flag, value string, dst *int) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	if i <= 0 {
		return nil
	}
	*dst = i
	return nil
}

// setBoolFromString parses a string to bool and sets the destination.
// Accepts "true", "1" as true, anything else as false.
func (s *configSetter) setBoolFromString(flag, value string, dst *bool) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value == "true" || value == "1"
}
