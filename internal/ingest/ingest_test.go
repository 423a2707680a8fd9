package ingest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vbstat/volleycrawl/internal/record"
	"github.com/vbstat/volleycrawl/internal/resolve"
	"github.com/vbstat/volleycrawl/internal/source/bcl"
	"github.com/vbstat/volleycrawl/internal/source/volleymsk"
	"github.com/vbstat/volleycrawl/internal/store/memory"
)

func intPtr(n int) *int { return &n }

func newVolleyMSK(st *memory.Store) *VolleyMSK {
	return NewVolleyMSK(st, resolve.New(st, nil), nil)
}

func newBCL(st *memory.Store) *BCL {
	return NewBCL(st, resolve.New(st, nil), nil)
}

func TestVolleyMSKSaveMatch(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	st := memory.New()
	ing := newVolleyMSK(st)

	kickoff := time.Date(2026, 1, 26, 20, 0, 0, 0, time.Local)
	page := &volleymsk.MatchPage{
		NativeID:  64120,
		Home:      volleymsk.TeamRef{NativeID: 11, Name: "INEX"},
		Away:      volleymsk.TeamRef{NativeID: 22, Name: "КПРФ Москва"},
		HomeScore: intPtr(1),
		AwayScore: intPtr(3),
		SetScores: "19:25, 19:25, 25:19, 21:25",
		Kickoff:   &kickoff,
		Status:    record.StatusPlayed,
		HomeRoster: []volleymsk.RosterPlayer{
			{NativeID: 778979, Name: record.NameParts{Last: "Сидоров", First: "Алексей"}},
		},
		AwayRoster: []volleymsk.RosterPlayer{
			{NativeID: 2337, Name: record.NameParts{Last: "Кузнецов", First: "Дмитрий"}},
		},
		BestPlayers: []volleymsk.BestPlayer{
			{TeamName: "INEX", Name: record.NameParts{Last: "Сидоров", First: "Алексей"}},
			{TeamName: "КПРФ Москва", Name: record.NameParts{Last: "Неизвестный", First: "Игрок"}},
		},
	}

	saved, err := ing.SaveMatch(ctx, page)
	require.NoError(t, err)
	require.NotZero(t, saved.ID)
	require.NotZero(t, saved.HomeTeamID)
	require.NotZero(t, saved.AwayTeamID)

	// Roster players resolved to canonical records.
	p, ok, err := st.FindPlayerByNativeID(ctx, record.SourceVolleyMSK, 778979)
	require.NoError(t, err)
	require.True(t, ok)

	// Best player resolved against the roster; the unmatched one keeps the
	// free-text name with a zero PlayerID.
	bps, err := st.ListBestPlayers(ctx, saved.ID)
	require.NoError(t, err)
	require.Len(t, bps, 2)
	require.Equal(t, p.ID, bps[0].PlayerID)
	require.Zero(t, bps[1].PlayerID)
	require.Equal(t, "Неизвестный Игрок", bps[1].PlayerName)
}

func TestVolleyMSKSaveMatchRecrawlKeepsFields(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	st := memory.New()
	ing := newVolleyMSK(st)

	kickoff := time.Date(2026, 1, 26, 20, 0, 0, 0, time.Local)
	full := &volleymsk.MatchPage{
		NativeID:       100,
		Home:           volleymsk.TeamRef{NativeID: 1, Name: "А"},
		Away:           volleymsk.TeamRef{NativeID: 2, Name: "Б"},
		Kickoff:        &kickoff,
		TournamentPath: "Чемпионат > Лига А",
		Status:         record.StatusScheduled,
	}
	first, err := ing.SaveMatch(ctx, full)
	require.NoError(t, err)

	// Later the match is played; the re-crawled page shows the score but
	// (say) no longer the breadcrumb.
	replay := &volleymsk.MatchPage{
		NativeID:  100,
		Home:      volleymsk.TeamRef{NativeID: 1, Name: "А"},
		Away:      volleymsk.TeamRef{NativeID: 2, Name: "Б"},
		HomeScore: intPtr(3),
		AwayScore: intPtr(0),
		Status:    record.StatusPlayed,
	}
	second, err := ing.SaveMatch(ctx, replay)
	require.NoError(t, err)

	require.Equal(t, first.ID, second.ID)
	require.NotNil(t, second.HomeScore)
	require.Equal(t, 3, *second.HomeScore)
	require.Equal(t, "Чемпионат > Лига А", second.TournamentPath)
	require.NotNil(t, second.KickoffAt)
}

func TestVolleyMSKSaveMatchKeepsScorePairTogether(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	st := memory.New()
	ing := newVolleyMSK(st)

	full := &volleymsk.MatchPage{
		NativeID:  100,
		Home:      volleymsk.TeamRef{NativeID: 1, Name: "А"},
		Away:      volleymsk.TeamRef{NativeID: 2, Name: "Б"},
		HomeScore: intPtr(3),
		AwayScore: intPtr(1),
		Status:    record.StatusPlayed,
	}
	_, err := ing.SaveMatch(ctx, full)
	require.NoError(t, err)

	// A re-parse that recovered only half the score must not leave an
	// asymmetric pair behind.
	half := &volleymsk.MatchPage{
		NativeID:  100,
		Home:      volleymsk.TeamRef{NativeID: 1, Name: "А"},
		Away:      volleymsk.TeamRef{NativeID: 2, Name: "Б"},
		HomeScore: intPtr(2),
		Status:    record.StatusPlayed,
	}
	second, err := ing.SaveMatch(ctx, half)
	require.NoError(t, err)

	require.NotNil(t, second.HomeScore)
	require.Equal(t, 3, *second.HomeScore)
	require.NotNil(t, second.AwayScore)
	require.Equal(t, 1, *second.AwayScore)
}

func TestVolleyMSKSaveRoster(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	st := memory.New()
	ing := newVolleyMSK(st)

	page := &volleymsk.RosterPage{
		NativeID: 2337,
		Team:     volleymsk.TeamRef{NativeID: 11, Name: "INEX"},
		Players: []volleymsk.RosterPlayer{
			{NativeID: 778979, Name: record.NameParts{Last: "Сидоров", First: "Алексей"},
				Height: intPtr(195), BirthYear: intPtr(1992), Position: "Доигровщик"},
		},
	}
	require.NoError(t, ing.SaveRoster(ctx, page))

	p, ok, err := st.FindPlayerByNativeID(ctx, record.SourceVolleyMSK, 778979)
	require.NoError(t, err)
	require.True(t, ok)
	require.NotNil(t, p.Height)
	require.Equal(t, 195, *p.Height)
	require.Equal(t, "Доигровщик", p.Position)
}

func TestBCLScheduleStubNeverDowngradesParsedMatch(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	st := memory.New()
	ing := newBCL(st)

	season, err := ing.SaveSeason(ctx, &bcl.SeasonPage{Number: 30, Label: "Осень 2025"})
	require.NoError(t, err)

	// Full match already parsed.
	_, err = ing.SaveMatch(ctx, &bcl.MatchPage{
		NativeID:     5001,
		SeasonNumber: 30,
		Home:         bcl.TeamRef{NativeID: 101, Name: "Альфа"},
		Away:         bcl.TeamRef{NativeID: 102, Name: "Бета"},
		HomeScore:    intPtr(3),
		AwayScore:    intPtr(1),
		SetScores:    "25:20, 25:17, 19:25, 25:21",
		Status:       record.StatusPlayed,
	}, season.ID)
	require.NoError(t, err)

	// The schedule stub for the same match must not wipe the score.
	needsDetail, err := ing.SaveScheduleStub(ctx, bcl.ScheduleRow{
		NativeID: 5001,
		Home:     bcl.TeamRef{NativeID: 101, Name: "Альфа"},
		Away:     bcl.TeamRef{NativeID: 102, Name: "Бета"},
		Status:   record.StatusScheduled,
	}, season.ID)
	require.NoError(t, err)
	require.False(t, needsDetail)

	m, ok, err := st.FindMatchByNativeID(ctx, record.SourceBCL, 5001)
	require.NoError(t, err)
	require.True(t, ok)
	require.NotNil(t, m.HomeScore)
	require.Equal(t, 3, *m.HomeScore)
	require.Equal(t, "25:20, 25:17, 19:25, 25:21", m.SetScores)
}

func TestBCLSaveMatchStatsAndBestPlayers(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	st := memory.New()
	ing := newBCL(st)

	season, err := ing.SaveSeason(ctx, &bcl.SeasonPage{Number: 30, Label: "Осень 2025"})
	require.NoError(t, err)

	saved, err := ing.SaveMatch(ctx, &bcl.MatchPage{
		NativeID:     5001,
		SeasonNumber: 30,
		Home:         bcl.TeamRef{NativeID: 101, Name: "Альфа"},
		Away:         bcl.TeamRef{NativeID: 102, Name: "Бета"},
		HomeScore:    intPtr(3),
		AwayScore:    intPtr(1),
		Status:       record.StatusPlayed,
		HomeStats: []bcl.StatRow{
			{PlayerNativeID: 7561, PlayerName: "Смирнов Андрей",
				JerseyNumber: intPtr(5), Points: intPtr(15), Blocks: intPtr(2)},
		},
		AwayStats: []bcl.StatRow{
			{PlayerNativeID: 7600, PlayerName: "Орлов Виктор", Points: intPtr(12)},
		},
		BestPlayers: []bcl.BestPlayer{
			{PlayerNativeID: 7561, PlayerName: "Смирнов Андрей"},
			{PlayerNativeID: 7600, PlayerName: "Орлов Виктор"},
		},
		Referees: []bcl.RefereeRef{
			{NativeID: 301, Name: record.NameParts{Last: "Волков", First: "Сергей"}},
		},
	}, season.ID)
	require.NoError(t, err)

	require.NotZero(t, saved.RefereeID)
	require.Equal(t, "Волков Сергей", saved.RefereeName)

	stats, err := st.ListPlayerStats(ctx, saved.ID)
	require.NoError(t, err)
	require.Len(t, stats, 2)
	require.Equal(t, saved.HomeTeamID, stats[0].TeamID)
	require.Equal(t, saved.AwayTeamID, stats[1].TeamID)
	require.NotNil(t, stats[0].Points)
	require.Equal(t, 15, *stats[0].Points)
	require.Nil(t, stats[0].Serves) // absent stays absent

	bps, err := st.ListBestPlayers(ctx, saved.ID)
	require.NoError(t, err)
	require.Len(t, bps, 2)
	require.NotZero(t, bps[0].PlayerID)

	ids, err := st.SeasonPlayerNativeIDs(ctx, season.ID)
	require.NoError(t, err)
	require.ElementsMatch(t, []int64{7561, 7600}, ids)
}

func TestBCLSavePlayerAttachesNativeID(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	st := memory.New()
	ing := newBCL(st)

	first, err := ing.SavePlayer(ctx, &bcl.PlayerPage{
		NativeID:  7561,
		Name:      record.NameParts{Last: "Смирнов", First: "Андрей"},
		BirthDate: "20.06.2004",
	})
	require.NoError(t, err)

	// Same person under a new native id after a team change.
	second, err := ing.SavePlayer(ctx, &bcl.PlayerPage{
		NativeID:  8900,
		Name:      record.NameParts{Last: "Смирнов", First: "Андрей"},
		BirthDate: "20.06.2004",
		Height:    intPtr(192),
	})
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)
	require.ElementsMatch(t, []int64{7561, 8900}, second.NativeIDs)
}

func TestBCLSaveTeamsAndReferees(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	st := memory.New()
	ing := newBCL(st)

	require.NoError(t, ing.SaveTeams(ctx, []bcl.TeamListing{
		{NativeID: 101, Name: "Альфа"},
		{NativeID: 102, Name: "Бета", Women: true},
	}))
	team, ok, err := st.FindTeamByNativeID(ctx, record.SourceBCL, 102)
	require.NoError(t, err)
	require.True(t, ok)
	require.NotNil(t, team.Women)
	require.True(t, *team.Women)

	require.NoError(t, ing.SaveReferees(ctx, []bcl.RefereeRef{
		{NativeID: 301, Name: record.NameParts{Last: "Волков", First: "Сергей"}},
	}))
	stats, err := st.Stats(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, stats.Referees)
}
