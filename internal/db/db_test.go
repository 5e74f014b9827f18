package db

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSetFileTextBumpsRevision(t *testing.T) {
	d := New()
	root := d.NewSourceRoot()
	f := d.AllocFile(root, "lib.rs")

	require.Equal(t, Revision(0), d.Revision())
	r1 := d.SetFileText(f, "fn main() {}", Low)
	require.Equal(t, Revision(1), r1)
	require.Equal(t, Revision(1), d.Revision())

	r2 := d.SetFileText(f, "fn main() { }", Low)
	require.Equal(t, Revision(2), r2)

	changedAt, dur, ok := d.ChangedAt(f)
	require.True(t, ok)
	require.Equal(t, Revision(2), changedAt)
	require.Equal(t, Low, dur)
}

func TestSnapshotReadsPinnedRevision(t *testing.T) {
	d := New()
	root := d.NewSourceRoot()
	f := d.AllocFile(root, "lib.rs")
	d.SetFileText(f, "v1", Low)

	snap := d.Snapshot()
	text, _, ok := snap.FileText(f)
	require.True(t, ok)
	require.Equal(t, "v1", text)
	require.Equal(t, Revision(1), snap.Revision())
	require.False(t, snap.Cancelled())
	snap.Close()
}

func TestWriteBlocksUntilSnapshotsClose(t *testing.T) {
	d := New()
	root := d.NewSourceRoot()
	f := d.AllocFile(root, "lib.rs")
	d.SetFileText(f, "v1", Low)

	snap := d.Snapshot()
	require.False(t, snap.Cancelled())

	var wg sync.WaitGroup
	wg.Add(1)
	writeDone := make(chan struct{})
	go func() {
		defer wg.Done()
		d.SetFileText(f, "v2", Low)
		close(writeDone)
	}()

	// Give the writer a chance to observe the live snapshot and block.
	time.Sleep(20 * time.Millisecond)
	select {
	case <-writeDone:
		t.Fatal("write completed before snapshot was closed")
	default:
	}
	require.True(t, snap.Cancelled(), "write must signal cancellation to live snapshots")

	snap.Close()
	wg.Wait()
	select {
	case <-writeDone:
	default:
		t.Fatal("write did not complete after snapshot closed")
	}
}

func TestSourceRootResolve(t *testing.T) {
	d := New()
	root := d.NewSourceRoot()
	libRs := d.AllocFile(root, "lib.rs")
	barRs := d.AllocFile(root, "bar.rs")
	barFooRs := d.AllocFile(root, "bar/foo.rs")

	got, ok := root.Resolve(libRs, "bar.rs")
	require.True(t, ok)
	require.Equal(t, barRs, got)

	got, ok = root.Resolve(barRs, "bar/foo.rs")
	require.True(t, ok)
	require.Equal(t, barFooRs, got)

	gotDir, ok := root.ResolveFromDir("bar", "foo.rs")
	require.True(t, ok)
	require.Equal(t, barFooRs, gotDir)
}

func TestSyntheticWriteDurabilityThreshold(t *testing.T) {
	d := New()
	before := d.Revision()
	d.SyntheticWrite(Low)
	th, found := d.DurabilitySinceThreshold(before)
	require.True(t, found)
	require.Equal(t, Low, th)

	// A High-durability entry last verified before the synthetic write is
	// NOT forced stale by a Low threshold; an entry of any durability <=
	// threshold is. The query engine applies this as: stale iff
	// entry.Durability <= threshold.
	require.False(t, High <= th)
	require.True(t, Low <= th)
}
