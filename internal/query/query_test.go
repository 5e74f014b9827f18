package query

import (
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/funvibe/funxy/internal/db"
)

// lineCountQuery counts newlines in a file, depending only on its text.
func newLineCountQuery(e *Engine, calls *int64) *Query[db.FileId, int] {
	return NewQuery(e, "lineCount", func(ctx *Context, file db.FileId) int {
		atomic.AddInt64(calls, 1)
		text, _, _ := ctx.ReadInput(file)
		return strings.Count(text, "\n")
	})
}

func TestEarlyExitOnUnrelatedWrite(t *testing.T) {
	d := db.New()
	root := d.NewSourceRoot()
	f := d.AllocFile(root, "lib.rs")
	other := d.AllocFile(root, "other.rs")
	d.SetFileText(f, "a\nb\nc", db.Low)
	d.SetFileText(other, "unrelated", db.Low)

	e := NewEngine()
	var calls int64
	q := newLineCountQuery(e, &calls)

	snap1 := d.Snapshot()
	ctx1 := e.NewContext(snap1)
	got := q.Get(ctx1, f)
	require.Equal(t, 2, got)
	require.EqualValues(t, 1, calls)
	snap1.Close()

	// Writing an unrelated file bumps the revision but must not force a
	// recompute of lineCount(f).
	d.SetFileText(other, "still unrelated but different", db.Low)

	snap2 := d.Snapshot()
	ctx2 := e.NewContext(snap2)
	got = q.Get(ctx2, f)
	require.Equal(t, 2, got)
	require.EqualValues(t, 1, calls, "unrelated write must not force recomputation")
	snap2.Close()

	status := e.entryStatus("lineCount", keyString(f))
	require.True(t, status.Cached)
	require.Equal(t, snap2.Revision(), status.Verified)
}

func TestRecomputesOnDependencyChange(t *testing.T) {
	d := db.New()
	root := d.NewSourceRoot()
	f := d.AllocFile(root, "lib.rs")
	d.SetFileText(f, "a\nb", db.Low)

	e := NewEngine()
	var calls int64
	q := newLineCountQuery(e, &calls)

	snap1 := d.Snapshot()
	ctx1 := e.NewContext(snap1)
	require.Equal(t, 1, q.Get(ctx1, f))
	snap1.Close()

	d.SetFileText(f, "a\nb\nc\nd", db.Low)

	snap2 := d.Snapshot()
	ctx2 := e.NewContext(snap2)
	require.Equal(t, 3, q.Get(ctx2, f))
	require.EqualValues(t, 2, calls)
	snap2.Close()
}

func TestWhitespaceEditPreservesComputedRevisionOnEquality(t *testing.T) {
	// Mirrors spec.md §8 scenario 1: an edit that doesn't change the
	// derived value should leave `computed` alone while still bumping
	// `verified`, because the recompute's result equals the old one.
	d := db.New()
	root := d.NewSourceRoot()
	f := d.AllocFile(root, "lib.rs")
	d.SetFileText(f, "fn foo() -> i32 { 1 + 1 }", db.Low)

	e := NewEngine()
	trimLen := NewQuery(e, "trimmedLen", func(ctx *Context, file db.FileId) int {
		text, _, _ := ctx.ReadInput(file)
		return len(strings.TrimSpace(text))
	})

	snap1 := d.Snapshot()
	ctx1 := e.NewContext(snap1)
	v1 := trimLen.Get(ctx1, f)
	status1 := e.entryStatus("trimmedLen", keyString(f))
	snap1.Close()

	// Whitespace-only edit changes the raw text (forcing recompute) but the
	// trimmed length is identical.
	d.SetFileText(f, "fn foo() -> i32 {\n    1 + 1\n}", db.Low)

	snap2 := d.Snapshot()
	ctx2 := e.NewContext(snap2)
	v2 := trimLen.Get(ctx2, f)
	status2 := e.entryStatus("trimmedLen", keyString(f))
	snap2.Close()

	require.Equal(t, v1, v2)
	require.Equal(t, status1.Computed, status2.Computed, "unchanged value keeps its computed revision")
	require.Greater(t, status2.Verified, status1.Verified)
}

func TestCycleDetectionWithRecovery(t *testing.T) {
	d := db.New()
	e := NewEngine()

	var self *Query[int, int]
	self = NewQuery(e, "selfRef", func(ctx *Context, key int) int {
		return self.Get(ctx, key) + 1
	})
	self.OnCycle = func(key int) int { return -1 }

	snap := d.Snapshot()
	defer snap.Close()
	ctx := e.NewContext(snap)

	// The reentrant inner call detects the cycle immediately and returns
	// the recovery value (-1); the outer frame's "+1" then publishes 0.
	got := self.Get(ctx, 1)
	require.Equal(t, 0, got)
}

func TestCycleWithoutRecoverySurfacesErrCycle(t *testing.T) {
	d := db.New()
	e := NewEngine()

	var self *Query[int, int]
	self = NewQuery(e, "selfRefNoRecovery", func(ctx *Context, key int) int {
		return self.Get(ctx, key) + 1
	})

	snap := d.Snapshot()
	defer snap.Close()
	ctx := e.NewContext(snap)

	err := RunCatchingCancellation(func() {
		self.Get(ctx, 1)
	})
	require.ErrorIs(t, err, ErrCycle)
}

func TestCancellationUnwindsWithoutPublishing(t *testing.T) {
	d := db.New()
	root := d.NewSourceRoot()
	f := d.AllocFile(root, "lib.rs")
	d.SetFileText(f, "x", db.Low)

	e := NewEngine()
	started := make(chan struct{})
	q := NewQuery(e, "slow", func(ctx *Context, file db.FileId) int {
		close(started)
		deadline := time.Now().Add(2 * time.Second)
		for time.Now().Before(deadline) {
			ctx.CheckCancelled()
			time.Sleep(time.Millisecond)
		}
		return 42
	})

	snap := d.Snapshot()
	ctx := e.NewContext(snap)

	writeDone := make(chan struct{})
	go func() {
		<-started
		d.SetFileText(f, "y", db.Low) // signals snap to cancel, then blocks until it's closed
		close(writeDone)
	}()

	err := RunCatchingCancellation(func() {
		q.Get(ctx, f)
	})
	require.ErrorIs(t, err, ErrCancelled)

	status := e.entryStatus("slow", keyString(f))
	require.False(t, status.Cached, "cancelled computation must not publish a partial entry")

	snap.Close()
	<-writeDone
}
