// Package verify polls the delivery ledger for one recipient at a time until
// delivery is confirmed or a deadline passes.
package verify

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/bluefall/bluefall/internal/ledger"
)

// DefaultInterval is the fixed wait between ledger checks.
const DefaultInterval = time.Second

// Checker is one ledger inspection. Errors are treated as undelivered; they
// keep the poll loop alive rather than abort it.
type Checker interface {
	Check(canonical string) (ledger.CheckResult, error)
}

// Poller drives the check loop for a single identity. It is strictly
// sequential: one identity in flight, one check at a time.
type Poller struct {
	Checker  Checker
	Interval time.Duration
	// Nudges optionally wakes the poller before Interval elapses, e.g. when
	// the backing store file changed. Nil means fixed-interval only.
	Nudges <-chan struct{}
	Log    zerolog.Logger

	now   func() time.Time
	sleep func(time.Duration)
}

// NewPoller returns a Poller with the default interval.
func NewPoller(c Checker, log zerolog.Logger) *Poller {
	return &Poller{
		Checker:  c,
		Interval: DefaultInterval,
		Log:      log,
		now:      time.Now,
		sleep:    time.Sleep,
	}
}

// Wait sleeps initialWait once, then checks the ledger until delivery is
// confirmed or the elapsed time since poll start reaches deadline.
// Returns true only on a positive delivery confirmation.
//
// The deadline clock starts before the initial wait, so a deadline shorter
// than the wait still yields exactly one check.
func (p *Poller) Wait(canonical string, initialWait, deadline time.Duration) bool {
	start := p.now()
	if initialWait > 0 {
		p.sleep(initialWait)
	}
	for {
		res, err := p.Checker.Check(canonical)
		if err != nil {
			p.Log.Debug().Err(err).Str("identity", canonical).Msg("ledger check failed, treating as undelivered")
		}
		if res.Delivered() {
			return true
		}
		if p.now().Sub(start) >= deadline {
			return false
		}
		p.rest()
	}
}

func (p *Poller) rest() {
	if p.Nudges == nil {
		p.sleep(p.Interval)
		return
	}
	t := time.NewTimer(p.Interval)
	defer t.Stop()
	select {
	case <-t.C:
	case <-p.Nudges:
	}
}
