package testutil

import (
	"io"
	"testing"

	"github.com/chaisql/exi"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

// RequireEvents fails the test if got differs from want.
func RequireEvents(t testing.TB, want, got []exi.Event) {
	t.Helper()

	if diff := cmp.Diff(want, got); diff != "" {
		require.Failf(t, "events mismatch", "(-want +got):\n%s", diff)
	}
}

// WriteEvents writes every event with w and closes it.
func WriteEvents(t testing.TB, w *exi.Writer, events []exi.Event) {
	t.Helper()

	for _, ev := range events {
		NoErrorf(t, w.Add(ev), "cannot add %s", ev)
	}
	require.NoError(t, w.Close())
}

// ReadEvents reads events from r until io.EOF.
func ReadEvents(t testing.TB, r *exi.Reader) []exi.Event {
	t.Helper()

	var events []exi.Event
	for {
		ev, err := r.Next()
		if err == io.EOF {
			return events
		}
		NoErrorf(t, err, "cannot read event %d", len(events))
		events = append(events, ev)
	}
}
