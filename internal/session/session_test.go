package session_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/san-kum/mlviz/internal/mltree"
	"github.com/san-kum/mlviz/internal/session"
	"github.com/san-kum/mlviz/internal/treebuilder"
)

var _ treebuilder.Persister = (*session.Persister)(nil)

func quiet() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func openStore(t *testing.T, dsn string) *session.Store {
	t.Helper()
	st, err := session.Open(dsn, quiet())
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	require.NoError(t, st.Init())
	return st
}

func demoTree() *mltree.Node {
	left := mltree.NewLeaf([]int{3, 0}, 0)
	right := mltree.NewLeaf([]int{1, 2}, 0.4444444444444444)
	root := mltree.NewSplit(0, 2.5, 0.5, left, right)
	root.FeatureName = "petal length"
	return root
}

func requireSameTree(t *testing.T, want, got *mltree.Node) {
	t.Helper()
	wantJSON, err := json.Marshal(want)
	require.NoError(t, err)
	gotJSON, err := json.Marshal(got)
	require.NoError(t, err)
	require.JSONEq(t, string(wantJSON), string(gotJSON))
}

func TestSaveLoadRoundTrip(t *testing.T) {
	st := openStore(t, ":memory:")
	ctx := context.Background()

	want := demoTree()
	require.NoError(t, st.SavePageState(ctx, "iris-tree", 2, want))

	got, ok, err := st.LoadPageState(ctx, "iris-tree", 2)
	require.NoError(t, err)
	require.True(t, ok)
	requireSameTree(t, want, got)
	require.Equal(t, 2, got.Left.ClassCounts[1])
	require.Equal(t, "petal length", got.FeatureName)
}

func TestLoadMissingSlot(t *testing.T) {
	st := openStore(t, ":memory:")

	tree, ok, err := st.LoadPageState(context.Background(), "iris-tree", 0)
	require.NoError(t, err)
	require.False(t, ok)
	require.Nil(t, tree)
}

func TestUpsertReplaces(t *testing.T) {
	st := openStore(t, ":memory:")
	ctx := context.Background()

	require.NoError(t, st.SavePageState(ctx, "iris-tree", 2, demoTree()))
	flat := mltree.NewLeaf([]int{4, 2}, 0.4444444444444444)
	require.NoError(t, st.SavePageState(ctx, "iris-tree", 2, flat))

	got, ok, err := st.LoadPageState(ctx, "iris-tree", 2)
	require.NoError(t, err)
	require.True(t, ok)
	requireSameTree(t, flat, got)
}

func TestSlotsIndependent(t *testing.T) {
	st := openStore(t, ":memory:")
	ctx := context.Background()

	split := demoTree()
	flat := mltree.NewLeaf([]int{4, 2}, 0.4444444444444444)
	require.NoError(t, st.SavePageState(ctx, "iris-tree", 2, split))
	require.NoError(t, st.SavePageState(ctx, "iris-tree", 3, flat))
	require.NoError(t, st.SavePageState(ctx, "knn-intro", 2, flat))

	got, ok, err := st.LoadPageState(ctx, "iris-tree", 2)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, mltree.KindSplit, got.Kind)

	got, ok, err = st.LoadPageState(ctx, "iris-tree", 3)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, mltree.KindLeaf, got.Kind)
}

func TestNewestSessionWins(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "sessions.db")
	ctx := context.Background()

	first := openStore(t, dsn)
	require.NoError(t, first.SavePageState(ctx, "iris-tree", 2, demoTree()))

	// Second run against the same database writes under a new session
	// id; the reader must see its newer state.
	second := openStore(t, dsn)
	require.NotEqual(t, first.SessionID(), second.SessionID())
	time.Sleep(5 * time.Millisecond)
	flat := mltree.NewLeaf([]int{4, 2}, 0.4444444444444444)
	require.NoError(t, second.SavePageState(ctx, "iris-tree", 2, flat))

	got, ok, err := first.LoadPageState(ctx, "iris-tree", 2)
	require.NoError(t, err)
	require.True(t, ok)
	requireSameTree(t, flat, got)
}

func TestPersister(t *testing.T) {
	st := openStore(t, ":memory:")
	ctx := context.Background()
	p := st.Persister("iris-tree", 2)

	// Empty snapshots are not worth a row.
	require.NoError(t, p.Save(ctx, treebuilder.Snapshot{}))
	_, ok, err := p.Load(ctx)
	require.NoError(t, err)
	require.False(t, ok)

	want := demoTree()
	require.NoError(t, p.Save(ctx, treebuilder.Snapshot{Tree: want}))

	snap, ok, err := p.Load(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	requireSameTree(t, want, snap.Tree)
	require.Nil(t, snap.Selection)

	// A different slot stays empty.
	_, ok, err = st.Persister("iris-tree", 3).Load(ctx)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestPersisterRestoresEngine(t *testing.T) {
	st := openStore(t, ":memory:")
	ctx := context.Background()

	require.NoError(t, st.SavePageState(ctx, "iris-tree", 2, demoTree()))

	snap, ok, err := st.Persister("iris-tree", 2).Load(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, mltree.CheckPartition(snap.Tree))
	require.Equal(t, 6, snap.Tree.Samples)
}
