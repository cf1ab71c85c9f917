package cliconfig

import "os"

// ApplyEnvConfig applies configuration from environment variables (BLUEFALL_*).
// It respects flags that have been explicitly set (changed map).
// Returns error if any environment variable has an invalid format.
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("message", os.Getenv("BLUEFALL_MESSAGE"), &cfg.Template)
	s.setString("applescript", os.Getenv("BLUEFALL_APPLESCRIPT"), &cfg.PrimaryScript)
	s.setString("sms-applescript", os.Getenv("BLUEFALL_SMS_APPLESCRIPT"), &cfg.FallbackScript)
	s.setString("log-file", os.Getenv("BLUEFALL_LOG_FILE"), &cfg.LogPath)
	s.setString("link-field-name", os.Getenv("BLUEFALL_LINK_FIELD_NAME"), &cfg.LinkParam)
	s.setString("db", os.Getenv("BLUEFALL_DB"), &cfg.LedgerPath)

	if err := s.setDuration("delay", os.Getenv("BLUEFALL_DELAY"), &cfg.Delay); err != nil {
		return err
	}
	if err := s.setDuration("verify-wait", os.Getenv("BLUEFALL_VERIFY_WAIT"), &cfg.VerifyWait); err != nil {
		return err
	}
	if err := s.setDuration("verify-timeout", os.Getenv("BLUEFALL_VERIFY_TIMEOUT"), &cfg.VerifyTimeout); err != nil {
		return err
	}

	if err := s.setIntFromString("limit", os.Getenv("BLUEFALL_LIMIT"), &cfg.Limit); err != nil {
		return err
	}

	s.setBoolFromString("dry-run", os.Getenv("BLUEFALL_DRY_RUN"), &cfg.DryRun)
	s.setBoolFromString("track-link", os.Getenv("BLUEFALL_TRACK_LINK"), &cfg.TrackLink)
	s.setBoolFromString("verify-imessage", os.Getenv("BLUEFALL_VERIFY"), &cfg.Verify)
	s.setBoolFromString("watch-ledger", os.Getenv("BLUEFALL_WATCH_LEDGER"), &cfg.WatchLedger)

	return nil
}
