package session

import (
	"fmt"
	"os"
	"time"
)

// Tracker records generation-call latency and user feedback into a
// session's metrics. Every record persists immediately; a failed save
// is logged and swallowed, leaving the in-memory session as the source
// of truth for the rest of the process lifetime.
type Tracker struct {
	store *Store
	key   string
}

// NewTracker creates a Tracker persisting through store under key.
func NewTracker(store *Store, key string) *Tracker {
	return &Tracker{store: store, key: key}
}

// RecordCall adds one call of the given duration to the metrics,
// updating the running average latency incrementally.
func (t *Tracker) RecordCall(sess *Session, name string, d time.Duration) {
	secs := d.Seconds()
	m := &sess.Metrics
	m.Calls++
	m.AvgLatency = (m.AvgLatency*float64(m.Calls-1) + secs) / float64(m.Calls)

	fmt.Fprintf(os.Stderr, "trace: %s finished in %.2fs\n", name, secs)
	t.persist(sess)
}

// RecordFeedback bumps the positive or negative feedback tally.
func (t *Tracker) RecordFeedback(sess *Session, positive bool) {
	if positive {
		sess.Metrics.PositiveFeedback++
	} else {
		sess.Metrics.NegativeFeedback++
	}
	t.persist(sess)
}

func (t *Tracker) persist(sess *Session) {
	if err := t.store.Save(t.key, sess); err != nil {
		fmt.Fprintf(os.Stderr, "session: %v\n", err)
	}
}
