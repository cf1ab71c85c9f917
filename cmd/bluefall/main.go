package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	"github.com/bluefall/bluefall/internal/cliconfig"
	"github.com/bluefall/bluefall/internal/dispatch"
	"github.com/bluefall/bluefall/internal/ledger"
	"github.com/bluefall/bluefall/internal/run"
	"github.com/bluefall/bluefall/internal/verify"
)

const helpDescription = `
Send personalized iMessages to a CSV roster with delivery verification and
timed SMS fallback.

Flow per row:
  - Normalize the phone number and render the message ({first_name} supported).
  - Send via the primary AppleScript. A rejected send falls back to SMS
    immediately.
  - With --verify-imessage, poll a snapshot of the Messages database until the
    send is marked delivered; an unconfirmed send falls back to SMS at the
    deadline.

Requires macOS Messages signed in, and Full Disk Access (or --db pointing at a
readable copy of chat.db) when verification is enabled.
`

var exampleUsage = strings.TrimSpace(`
  bluefall contacts.csv --message "Hi {first_name}, see https://example.com/book" \
    --track-link --verify-imessage --limit 5
  bluefall contacts.csv --message "Hi {first_name}" --dry-run
`)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

func main() {
	cfg := cliconfig.DefaultConfig()
	var cfgPath string

	log := cliconfig.Logger()

	root := &cobra.Command{
		Use:     "bluefall <roster.csv>",
		Short:   "Bulk iMessage sender with delivery verification and SMS fallback",
		Long:    strings.TrimSpace(helpDescription),
		Example: exampleUsage,
		Args:    cobra.ExactArgs(1),
		Version: fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		RunE: func(cmd *cobra.Command, args []string) error {
			rosterPath := args[0]

			// Load config file first (default ~/.bluefall/config.toml), then
			// env, then flag overrides.
			cfgFile := cfgPath
			if cfgFile == "" {
				cfgFile = cliconfig.DefaultConfigPath()
			}

			changed := map[string]bool{}
			cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

			if cfgFile != "" && cliconfig.FileExists(cfgFile) {
				fc, err := cliconfig.LoadFileConfig(cfgFile)
				if err != nil {
					return fmt.Errorf("load config: %w", err)
				}
				if err := cliconfig.ApplyFileConfig(&cfg, fc, changed); err != nil {
					return err
				}
			}

			if err := cliconfig.ApplyEnvConfig(&cfg, changed); err != nil {
				return err
			}

			if err := cfg.Validate(); err != nil {
				return err
			}

			// Startup checks: fail before touching any recipient.
			if !cfg.DryRun {
				if !cliconfig.FileExists(cfg.PrimaryScript) {
					return fmt.Errorf("primary AppleScript not found at %s", cfg.PrimaryScript)
				}
				if !cliconfig.FileExists(cfg.FallbackScript) {
					return fmt.Errorf("SMS AppleScript not found at %s", cfg.FallbackScript)
				}
			}
			if cfg.Verify && !cliconfig.FileExists(cfg.LedgerPath) {
				return fmt.Errorf("Messages DB not found at %s; grant Full Disk Access or pass --db", cfg.LedgerPath)
			}

			roster, err := run.LoadRoster(rosterPath)
			if err != nil {
				return err
			}
			log.Info().Int("rows", len(roster)).Str("roster", rosterPath).Msg("roster loaded")

			var dispatcher dispatch.Dispatcher
			if cfg.DryRun {
				dispatcher = dispatch.DryRun{}
			} else {
				dispatcher = &dispatch.Osascript{
					PrimaryScript:  cfg.PrimaryScript,
					FallbackScript: cfg.FallbackScript,
				}
			}

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			go func() {
				<-sigCh
				log.Info().Msg("received signal, stopping after current recipient")
				cancel()
			}()

			o := run.NewOrchestrator(dispatcher, &run.CSVLog{Path: cfg.LogPath}, log)
			o.Template = cfg.Template
			o.TrackLink = cfg.TrackLink
			o.LinkParam = cfg.LinkParam
			o.Delay = cfg.Delay
			o.Limit = cfg.Limit
			o.DryRun = cfg.DryRun
			o.VerifyWait = cfg.VerifyWait
			o.VerifyDeadline = cfg.VerifyTimeout
			o.RunID = run.NewRunID()

			if cfg.Verify {
				poller := verify.NewPoller(ledger.NewReader(cfg.LedgerPath, log), log)
				if cfg.WatchLedger {
					w := ledger.NewWatcher(cfg.LedgerPath, 0, log)
					w.Start(ctx)
					defer w.Stop()
					poller.Nudges = w.Nudges()
				}
				o.Verifier = poller
			}

			counters := o.Run(ctx, roster)

			log.Info().
				Int("processed", counters.Processed).
				Int("sent", counters.Sent).
				Int("failed", counters.Failed).
				Int("sms_sent", counters.SMSSent).
				Int("sms_failed", counters.SMSFailed).
				Str("run_id", o.RunID).
				Msg("run complete")
			fmt.Printf("Done. Processed: %d/%d. Blue-sent: %d, Blue-failed: %d, SMS-sent: %d, SMS-failed: %d\n",
				counters.Processed, len(roster), counters.Sent, counters.Failed, counters.SMSSent, counters.SMSFailed)
			fmt.Printf("Log at: %s\n", cfg.LogPath)
			return nil
		},
	}

	// Flags
	root.Flags().StringVar(&cfgPath, "config", "", "path to config file (default: ~/.bluefall/config.toml)")
	root.Flags().StringVar(&cfg.Template, "message", cfg.Template, "message template (supports {first_name})")
	root.Flags().StringVar(&cfg.PrimaryScript, "applescript", cfg.PrimaryScript, "AppleScript for the iMessage-first send")
	root.Flags().StringVar(&cfg.FallbackScript, "sms-applescript", cfg.FallbackScript, "AppleScript for the SMS fallback send")

	root.Flags().DurationVar(&cfg.Delay, "delay", cfg.Delay, "delay between recipients")
	root.Flags().BoolVar(&cfg.DryRun, "dry-run", cfg.DryRun, "no sends; just print and log")
	root.Flags().IntVar(&cfg.Limit, "limit", cfg.Limit, "only process the first N rows")
	root.Flags().StringVar(&cfg.LogPath, "log-file", cfg.LogPath, "output run log CSV")

	root.Flags().BoolVar(&cfg.TrackLink, "track-link", cfg.TrackLink, "set ?cid=<digits> on the first link of each message")
	root.Flags().StringVar(&cfg.LinkParam, "link-field-name", cfg.LinkParam, "query param name for link tracking")

	root.Flags().BoolVar(&cfg.Verify, "verify-imessage", cfg.Verify, "after the iMessage send, poll the Messages DB; fall back to SMS if undelivered at the deadline")
	root.Flags().DurationVar(&cfg.VerifyWait, "verify-wait", cfg.VerifyWait, "wait before the first delivery check")
	root.Flags().DurationVar(&cfg.VerifyTimeout, "verify-timeout", cfg.VerifyTimeout, "max wait before falling back to SMS")
	root.Flags().StringVar(&cfg.LedgerPath, "db", cfg.LedgerPath, "path to chat.db (default: ~/Library/Messages/chat.db)")
	root.Flags().BoolVar(&cfg.WatchLedger, "watch-ledger", cfg.WatchLedger, "wake delivery checks early when the Messages DB changes")

	if err := root.Execute(); err != nil {
		log.Error().Err(err).Msg("bluefall")
		os.Exit(1)
	}
}
