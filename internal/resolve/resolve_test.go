package resolve

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vbstat/volleycrawl/internal/record"
	"github.com/vbstat/volleycrawl/internal/store/memory"
)

func intPtr(n int) *int { return &n }

func TestResolveByNativeID(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	st := memory.New()
	r := New(st, nil)

	first, created, err := r.Resolve(ctx, record.Player{
		Source:    record.SourceBCL,
		NativeIDs: []int64{7561},
		Name:      record.NameParts{Last: "Смирнов", First: "Андрей"},
		BirthDate: "20.06.2004",
	})
	require.NoError(t, err)
	require.True(t, created)

	// Same native id again, now with more bio.
	again, created, err := r.Resolve(ctx, record.Player{
		Source:    record.SourceBCL,
		NativeIDs: []int64{7561},
		Name:      record.NameParts{Last: "Смирнов", First: "Андрей"},
		Height:    intPtr(192),
	})
	require.NoError(t, err)
	require.False(t, created)
	require.Equal(t, first.ID, again.ID)
	require.NotNil(t, again.Height)
	require.Equal(t, 192, *again.Height)
	// Existing bio is kept.
	require.Equal(t, "20.06.2004", again.BirthDate)
}

func TestResolveByNameAndBirthDate(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	st := memory.New()
	r := New(st, nil)

	first, _, err := r.Resolve(ctx, record.Player{
		Source:    record.SourceBCL,
		NativeIDs: []int64{7561},
		Name:      record.NameParts{Last: "Смирнов", First: "Андрей"},
		BirthDate: "20.06.2004",
	})
	require.NoError(t, err)

	// New native id, same person: attaches instead of creating.
	same, created, err := r.Resolve(ctx, record.Player{
		Source:    record.SourceBCL,
		NativeIDs: []int64{8900},
		Name:      record.NameParts{Last: "СМИРНОВ", First: "Андрей"},
		BirthDate: "20.06.2004",
	})
	require.NoError(t, err)
	require.False(t, created)
	require.Equal(t, first.ID, same.ID)
	require.ElementsMatch(t, []int64{7561, 8900}, same.NativeIDs)

	// Both native ids now resolve to the one record.
	byOld, ok, err := st.FindPlayerByNativeID(ctx, record.SourceBCL, 7561)
	require.NoError(t, err)
	require.True(t, ok)
	byNew, ok, err := st.FindPlayerByNativeID(ctx, record.SourceBCL, 8900)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, byOld.ID, byNew.ID)
}

func TestResolveWithoutBirthDateNeverMatchesByName(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	st := memory.New()
	r := New(st, nil)

	first, _, err := r.Resolve(ctx, record.Player{
		Source:    record.SourceBCL,
		NativeIDs: []int64{1},
		Name:      record.NameParts{Last: "Иванов", First: "Иван"},
		BirthDate: "01.01.1990",
	})
	require.NoError(t, err)

	second, created, err := r.Resolve(ctx, record.Player{
		Source:    record.SourceBCL,
		NativeIDs: []int64{2},
		Name:      record.NameParts{Last: "Иванов", First: "Иван"},
	})
	require.NoError(t, err)
	require.True(t, created)
	require.NotEqual(t, first.ID, second.ID)
}

func TestMergeRepointsAndIsIdempotent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	st := memory.New()
	r := New(st, nil)

	winner, err := st.InsertPlayer(ctx, record.Player{
		Source:    record.SourceBCL,
		NativeIDs: []int64{100},
		Name:      record.NameParts{Last: "Орлов", First: "Виктор"},
		BirthDate: "05.05.1995",
	})
	require.NoError(t, err)
	loser, err := st.InsertPlayer(ctx, record.Player{
		Source:    record.SourceBCL,
		NativeIDs: []int64{200},
		Name:      record.NameParts{Last: "Орлов", First: "Виктор"},
		BirthDate: "05.05.1995",
		Height:    intPtr(190),
	})
	require.NoError(t, err)

	match, err := st.UpsertMatch(ctx, record.Match{Source: record.SourceBCL, NativeID: 5001})
	require.NoError(t, err)
	require.NoError(t, st.ReplacePlayerStats(ctx, match.ID, []record.PlayerMatchStat{
		{MatchID: match.ID, PlayerID: loser.ID, Points: intPtr(10)},
	}))
	require.NoError(t, st.ReplaceBestPlayers(ctx, match.ID, []record.BestPlayer{
		{MatchID: match.ID, PlayerID: loser.ID},
	}))

	require.NoError(t, r.Merge(ctx, winner.ID, loser.ID))

	// Stats and best-player rows follow the winner.
	stats, err := st.ListPlayerStats(ctx, match.ID)
	require.NoError(t, err)
	require.Len(t, stats, 1)
	require.Equal(t, winner.ID, stats[0].PlayerID)
	bps, err := st.ListBestPlayers(ctx, match.ID)
	require.NoError(t, err)
	require.Equal(t, winner.ID, bps[0].PlayerID)

	// Loser kept as alias, native id repointed, bio folded.
	got, ok, err := st.GetPlayer(ctx, loser.ID)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, winner.ID, got.AliasOf)

	merged, ok, err := st.FindPlayerByNativeID(ctx, record.SourceBCL, 200)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, winner.ID, merged.ID)
	require.ElementsMatch(t, []int64{100, 200}, merged.NativeIDs)
	require.NotNil(t, merged.Height)
	require.Equal(t, 190, *merged.Height)

	// Running the same merge again changes nothing.
	require.NoError(t, r.Merge(ctx, winner.ID, loser.ID))
	stats, err = st.ListPlayerStats(ctx, match.ID)
	require.NoError(t, err)
	require.Len(t, stats, 1)
	again, _, err := st.GetPlayer(ctx, winner.ID)
	require.NoError(t, err)
	require.ElementsMatch(t, []int64{100, 200}, again.NativeIDs)
}

func TestMergeAllPicksWinnerByStatCount(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	st := memory.New()
	r := New(st, nil)

	a, err := st.InsertPlayer(ctx, record.Player{
		Source: record.SourceBCL, NativeIDs: []int64{1},
		Name: record.NameParts{Last: "Новиков", First: "Илья"}, BirthDate: "02.02.1992",
	})
	require.NoError(t, err)
	b, err := st.InsertPlayer(ctx, record.Player{
		Source: record.SourceBCL, NativeIDs: []int64{2},
		Name: record.NameParts{Last: "Новиков", First: "Илья"}, BirthDate: "02.02.1992",
	})
	require.NoError(t, err)

	m1, err := st.UpsertMatch(ctx, record.Match{Source: record.SourceBCL, NativeID: 1})
	require.NoError(t, err)
	m2, err := st.UpsertMatch(ctx, record.Match{Source: record.SourceBCL, NativeID: 2})
	require.NoError(t, err)
	require.NoError(t, st.ReplacePlayerStats(ctx, m1.ID, []record.PlayerMatchStat{
		{MatchID: m1.ID, PlayerID: b.ID},
	}))
	require.NoError(t, st.ReplacePlayerStats(ctx, m2.ID, []record.PlayerMatchStat{
		{MatchID: m2.ID, PlayerID: b.ID},
	}))

	report, err := r.MergeAll(ctx, record.SourceBCL, false)
	require.NoError(t, err)
	require.Equal(t, 1, report.Groups)
	require.Equal(t, 1, report.Merged)
	require.Empty(t, report.Ambiguous)

	// b had the stats, so a becomes the alias.
	gotA, _, err := st.GetPlayer(ctx, a.ID)
	require.NoError(t, err)
	require.Equal(t, b.ID, gotA.AliasOf)
	gotB, _, err := st.GetPlayer(ctx, b.ID)
	require.NoError(t, err)
	require.True(t, gotB.Canonical())
}

func TestMergeAllLeavesAmbiguousGroups(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	st := memory.New()
	r := New(st, nil)

	_, err := st.InsertPlayer(ctx, record.Player{
		Source: record.SourceBCL, NativeIDs: []int64{1},
		Name: record.NameParts{Last: "Козлов", First: "Пётр"}, BirthDate: "03.03.1993",
	})
	require.NoError(t, err)
	_, err = st.InsertPlayer(ctx, record.Player{
		Source: record.SourceBCL, NativeIDs: []int64{2},
		Name: record.NameParts{Last: "Козлов", First: "Пётр"}, // no birth date
	})
	require.NoError(t, err)

	report, err := r.MergeAll(ctx, record.SourceBCL, false)
	require.NoError(t, err)
	require.Equal(t, 0, report.Merged)
	require.Len(t, report.Ambiguous, 1)
	require.Equal(t, "козлов пётр", report.Ambiguous[0].NameKey)

	// Both records still canonical.
	players, err := st.ListPlayers(ctx, record.SourceBCL)
	require.NoError(t, err)
	for _, p := range players {
		require.True(t, p.Canonical())
	}
}

func TestMergeAllReportsConflictingBirthDates(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	st := memory.New()
	r := New(st, nil)

	_, err := st.InsertPlayer(ctx, record.Player{
		Source: record.SourceBCL, NativeIDs: []int64{1},
		Name: record.NameParts{Last: "Козлов", First: "Пётр"}, BirthDate: "03.03.1993",
	})
	require.NoError(t, err)
	_, err = st.InsertPlayer(ctx, record.Player{
		Source: record.SourceBCL, NativeIDs: []int64{2},
		Name: record.NameParts{Last: "Козлов", First: "Пётр"}, BirthDate: "04.04.1994",
	})
	require.NoError(t, err)

	report, err := r.MergeAll(ctx, record.SourceBCL, false)
	require.NoError(t, err)
	require.Equal(t, 0, report.Merged)
	require.Len(t, report.Ambiguous, 1)
	require.Equal(t, "козлов пётр", report.Ambiguous[0].NameKey)
	require.ElementsMatch(t, []string{"03.03.1993", "04.04.1994"}, report.Ambiguous[0].BirthDates)

	players, err := st.ListPlayers(ctx, record.SourceBCL)
	require.NoError(t, err)
	for _, p := range players {
		require.True(t, p.Canonical())
	}
}

func TestMergeAllMergesWithinDateDespiteConflict(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	st := memory.New()
	r := New(st, nil)

	a, err := st.InsertPlayer(ctx, record.Player{
		Source: record.SourceBCL, NativeIDs: []int64{1},
		Name: record.NameParts{Last: "Соколов", First: "Денис"}, BirthDate: "05.05.1995",
	})
	require.NoError(t, err)
	b, err := st.InsertPlayer(ctx, record.Player{
		Source: record.SourceBCL, NativeIDs: []int64{2},
		Name: record.NameParts{Last: "Соколов", First: "Денис"}, BirthDate: "05.05.1995",
	})
	require.NoError(t, err)
	c, err := st.InsertPlayer(ctx, record.Player{
		Source: record.SourceBCL, NativeIDs: []int64{3},
		Name: record.NameParts{Last: "Соколов", First: "Денис"}, BirthDate: "06.06.1996",
	})
	require.NoError(t, err)

	report, err := r.MergeAll(ctx, record.SourceBCL, false)
	require.NoError(t, err)

	// The same-date pair merges, the group still lands in the report.
	require.Equal(t, 1, report.Groups)
	require.Equal(t, 1, report.Merged)
	require.Len(t, report.Ambiguous, 1)

	gotA, _, err := st.GetPlayer(ctx, a.ID)
	require.NoError(t, err)
	gotB, _, err := st.GetPlayer(ctx, b.ID)
	require.NoError(t, err)
	require.True(t, gotA.Canonical() != gotB.Canonical())
	gotC, _, err := st.GetPlayer(ctx, c.ID)
	require.NoError(t, err)
	require.True(t, gotC.Canonical())
}

func TestMergeRefusesConflictingBirthDates(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	st := memory.New()
	r := New(st, nil)

	winner, err := st.InsertPlayer(ctx, record.Player{
		Source: record.SourceBCL, NativeIDs: []int64{1},
		Name: record.NameParts{Last: "Фёдоров", First: "Олег"}, BirthDate: "07.07.1997",
	})
	require.NoError(t, err)
	loser, err := st.InsertPlayer(ctx, record.Player{
		Source: record.SourceBCL, NativeIDs: []int64{2},
		Name: record.NameParts{Last: "Фёдоров", First: "Олег"}, BirthDate: "08.08.1998",
	})
	require.NoError(t, err)

	err = r.Merge(ctx, winner.ID, loser.ID)
	require.ErrorIs(t, err, ErrAmbiguousMerge)

	// Nothing was touched.
	got, _, err := st.GetPlayer(ctx, loser.ID)
	require.NoError(t, err)
	require.True(t, got.Canonical())
}

func TestMergeAllDryRun(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	st := memory.New()
	r := New(st, nil)

	_, err := st.InsertPlayer(ctx, record.Player{
		Source: record.SourceBCL, NativeIDs: []int64{1},
		Name: record.NameParts{Last: "Егоров", First: "Степан"}, BirthDate: "04.04.1994",
	})
	require.NoError(t, err)
	_, err = st.InsertPlayer(ctx, record.Player{
		Source: record.SourceBCL, NativeIDs: []int64{2},
		Name: record.NameParts{Last: "Егоров", First: "Степан"}, BirthDate: "04.04.1994",
	})
	require.NoError(t, err)

	report, err := r.MergeAll(ctx, record.SourceBCL, true)
	require.NoError(t, err)
	require.Equal(t, 1, report.Merged)

	players, err := st.ListPlayers(ctx, record.SourceBCL)
	require.NoError(t, err)
	for _, p := range players {
		require.True(t, p.Canonical())
	}
}
