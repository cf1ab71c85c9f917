// Package run drives the per-recipient send, verify, fallback state machine
// and owns the run log and counters for one run.
//
// Processing is strictly sequential: delivery verification is defined in
// terms of "the most recent outbound message to this identity", which is only
// well-defined while no other send to the same identity is in flight.
package run

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/bluefall/bluefall/internal/dispatch"
	"github.com/bluefall/bluefall/internal/identity"
)

// DefaultLinkParam is the tracking query parameter written into the first
// link of a rendered message when link tracking is enabled.
const DefaultLinkParam = "cid"

// Verifier blocks until delivery of the latest outbound message to the
// identity is confirmed or the deadline passes.
type Verifier interface {
	Wait(canonical string, initialWait, deadline time.Duration) bool
}

// Counters aggregates per-run outcomes. Failed counts recipients skipped at
// normalization; a primary-dispatch failure surfaces as an sms_* outcome
// instead, matching the record vocabulary.
type Counters struct {
	Processed int
	Sent      int
	Failed    int
	SMSSent   int
	SMSFailed int
}

// Orchestrator sequences primary dispatch, verification, and fallback
// dispatch for every roster row, in input order.
type Orchestrator struct {
	Dispatcher dispatch.Dispatcher
	// Verifier is nil when post-send verification is disabled.
	Verifier Verifier
	Recorder Recorder
	Log      zerolog.Logger

	Template       string
	TrackLink      bool
	LinkParam      string
	Delay          time.Duration
	Limit          int
	DryRun         bool
	VerifyWait     time.Duration
	VerifyDeadline time.Duration
	RunID          string

	sleep func(time.Duration)
}

// NewOrchestrator wires an orchestrator with defaults; callers set the
// remaining knobs directly before Run.
func NewOrchestrator(d dispatch.Dispatcher, rec Recorder, log zerolog.Logger) *Orchestrator {
	return &Orchestrator{
		Dispatcher: d,
		Recorder:   rec,
		Log:        log,
		LinkParam:  DefaultLinkParam,
		sleep:      time.Sleep,
	}
}

// Run processes the roster and returns the aggregate counters. Per-recipient
// failures never stop the run; only the row limit and roster exhaustion do.
func (o *Orchestrator) Run(ctx context.Context, roster []Recipient) Counters {
	var c Counters

	for _, rcp := range roster {
		if ctx.Err() != nil {
			break
		}
		if o.Limit > 0 && c.Processed >= o.Limit {
			break
		}
		c.Processed++

		canonical, ok := identity.Normalize(rcp.RawPhone)
		if !ok {
			c.Failed++
			info := fmt.Sprintf("Unusable phone: %q", rcp.RawPhone)
			o.Log.Warn().Str("raw", rcp.RawPhone).Msg("skipping recipient with unusable phone")
			o.record("", rcp.FirstName, StatusFailed, info, "")
			continue
		}

		msg := o.render(rcp.FirstName, canonical)

		out := o.Dispatcher.Send(ctx, dispatch.Primary, canonical, msg)
		if !out.Success {
			o.Log.Warn().Str("identity", canonical).Str("info", out.Info).Msg("primary dispatch failed")
			o.record(canonical, rcp.FirstName, StatusFailed, "imessage:"+out.Info, msg)
			o.fallback(ctx, &c, rcp, canonical, msg)
			o.pause()
			continue
		}

		c.Sent++
		o.Log.Info().Str("identity", canonical).Str("info", out.Info).Msg("primary sent")
		o.record(canonical, rcp.FirstName, StatusSent, out.Info, msg)

		// Dry-run dispatch writes nothing to the ledger, so a verification
		// poll would always time out; skip it.
		if o.Verifier != nil && !o.DryRun {
			if o.Verifier.Wait(canonical, o.VerifyWait, o.VerifyDeadline) {
				o.Log.Info().Str("identity", canonical).Msg("delivery confirmed")
			} else {
				o.Log.Info().Str("identity", canonical).Msg("unconfirmed by deadline, sending fallback")
				o.fallback(ctx, &c, rcp, canonical, msg)
			}
		}

		o.pause()
	}
	return c
}

func (o *Orchestrator) fallback(ctx context.Context, c *Counters, rcp Recipient, canonical, msg string) {
	out := o.Dispatcher.Send(ctx, dispatch.Fallback, canonical, msg)
	if out.Success {
		c.SMSSent++
		o.Log.Info().Str("identity", canonical).Str("info", out.Info).Msg("fallback sent")
		o.record(canonical, rcp.FirstName, StatusSMSSent, out.Info, msg)
		return
	}
	c.SMSFailed++
	o.Log.Warn().Str("identity", canonical).Str("info", out.Info).Msg("fallback failed")
	o.record(canonical, rcp.FirstName, StatusSMSFailed, out.Info, msg)
}

// render substitutes the display name and personalizes the first link.
// Pure per recipient: same inputs yield byte-identical output.
func (o *Orchestrator) render(firstName, canonical string) string {
	msg := strings.ReplaceAll(o.Template, "{first_name}", firstName)
	if o.TrackLink {
		param := o.LinkParam
		if param == "" {
			param = DefaultLinkParam
		}
		msg = identity.PersonalizeLink(msg, canonical, param)
	}
	return msg
}

func (o *Orchestrator) record(phone, firstName string, status Status, info, msg string) {
	rec := Record{
		Timestamp: time.Now(),
		Phone:     phone,
		FirstName: firstName,
		Status:    status,
		Info:      info,
		RunID:     o.RunID,
		Message:   msg,
	}
	if err := o.Recorder.Append(rec); err != nil {
		o.Log.Warn().Err(err).Msg("run log append failed")
	}
}

func (o *Orchestrator) pause() {
	if o.Delay > 0 {
		o.sleep(o.Delay)
	}
}
