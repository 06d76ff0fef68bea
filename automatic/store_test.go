package automatic

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/domino14/blobwar/strategy"
)

func TestStoreRecordsRun(t *testing.T) {
	ctx := context.Background()
	store, err := OpenStore(filepath.Join(t.TempDir(), "games.db"))
	require.NoError(t, err)
	defer store.Close()

	tm := &Tournament{
		Entrants: [2]Entrant{
			{Kind: strategy.AlphaBetaKind, Depth: 1},
			{Kind: strategy.GreedyKind},
		},
		Games:         4,
		Threads:       2,
		RandomOpening: 1,
		Store:         store,
		RunID:         "first",
	}
	rep, err := tm.Run(ctx)
	require.NoError(t, err)

	tallies, err := store.Tallies(ctx, "first")
	require.NoError(t, err)
	total := 0
	for _, tl := range tallies {
		total += tl.Games
	}
	require.Equal(t, rep.Games, total)

	tm.RunID = "second"
	tm.Games = 2
	_, err = tm.Run(ctx)
	require.NoError(t, err)

	runs, err := store.Runs(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"first", "second"}, runs)

	none, err := store.Tallies(ctx, "missing")
	require.NoError(t, err)
	require.Empty(t, none)
}

func TestReportHistogram(t *testing.T) {
	tm := &Tournament{
		Entrants: [2]Entrant{
			{Kind: strategy.GreedyKind},
			{Kind: strategy.GreedyKind},
		},
		Games:         4,
		Threads:       1,
		RandomOpening: 3,
	}
	rep, err := tm.Run(context.Background())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, rep.Histogram(&buf, 0, 5))
	require.True(t, strings.HasPrefix(buf.String(), "greedy piece differential:"))

	empty := &Report{}
	require.Error(t, empty.Histogram(&buf, 1, 5))
}
