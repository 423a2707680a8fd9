package ingest

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/vbstat/volleycrawl/internal/record"
	"github.com/vbstat/volleycrawl/internal/resolve"
	"github.com/vbstat/volleycrawl/internal/source/bcl"
	"github.com/vbstat/volleycrawl/internal/store"
)

// BCL saves decoded businesschampions.ru pages.
type BCL struct {
	store    store.Gateway
	resolver *resolve.Resolver
	log      *zap.Logger
}

// NewBCL builds the bcl saver.
func NewBCL(gw store.Gateway, r *resolve.Resolver, log *zap.Logger) *BCL {
	if log == nil {
		log = zap.NewNop()
	}
	return &BCL{store: gw, resolver: r, log: log}
}

// SaveSeason upserts a season keyed by its ordinal, refreshing the label.
func (b *BCL) SaveSeason(ctx context.Context, page *bcl.SeasonPage) (record.Season, error) {
	s, err := b.store.UpsertSeason(ctx, record.Season{Number: page.Number, Label: page.Label})
	if err != nil {
		return record.Season{}, fmt.Errorf("save season %d: %w", page.Number, err)
	}
	return s, nil
}

// SaveScheduleStub persists one schedule row. A match already stored with a
// score is left alone; a stub never downgrades a parsed match. The return
// reports whether the match still needs a detail crawl.
func (b *BCL) SaveScheduleStub(ctx context.Context, row bcl.ScheduleRow, seasonID int64) (bool, error) {
	home, err := b.store.UpsertTeam(ctx, record.Team{
		Source: record.SourceBCL, NativeID: row.Home.NativeID, Name: row.Home.Name,
	})
	if err != nil {
		return false, fmt.Errorf("schedule stub %d: home team: %w", row.NativeID, err)
	}
	away, err := b.store.UpsertTeam(ctx, record.Team{
		Source: record.SourceBCL, NativeID: row.Away.NativeID, Name: row.Away.Name,
	})
	if err != nil {
		return false, fmt.Errorf("schedule stub %d: away team: %w", row.NativeID, err)
	}

	existing, ok, err := b.store.FindMatchByNativeID(ctx, record.SourceBCL, row.NativeID)
	if err != nil {
		return false, fmt.Errorf("schedule stub %d: lookup: %w", row.NativeID, err)
	}
	if ok && existing.HomeScore != nil {
		return false, nil // fully parsed already
	}

	m := record.Match{
		Source:   record.SourceBCL,
		NativeID: row.NativeID,

		KickoffAt:  row.Kickoff,
		Venue:      row.Venue,
		HomeTeamID: home.ID,
		AwayTeamID: away.ID,

		HomeScore: row.HomeScore,
		AwayScore: row.AwayScore,
		Status:    row.Status,

		DivisionName:   row.DivisionName,
		RoundName:      row.RoundName,
		TournamentType: row.TournamentType,
		SeasonID:       seasonID,

		ParsedAt: time.Now(),
	}
	if ok {
		m = keepParsedFields(existing, m)
	}
	if _, err := b.store.UpsertMatch(ctx, m); err != nil {
		return false, fmt.Errorf("schedule stub %d: %w", row.NativeID, err)
	}
	return true, nil
}

// SaveMatch persists a decoded match detail page, folding in stub fields the
// detail page does not repeat (venue, tournament type).
func (b *BCL) SaveMatch(ctx context.Context, page *bcl.MatchPage, seasonID int64) (record.Match, error) {
	m := record.Match{
		Source:   record.SourceBCL,
		NativeID: page.NativeID,

		KickoffAt: page.Kickoff,

		HomeScore:       page.HomeScore,
		AwayScore:       page.AwayScore,
		SetScores:       page.SetScores,
		HomeTotalPoints: page.HomeTotalPoints,
		AwayTotalPoints: page.AwayTotalPoints,
		Status:          page.Status,

		DivisionName: page.DivisionName,
		RoundName:    page.RoundName,
		SeasonID:     seasonID,

		ParsedAt: time.Now(),
	}

	if page.Home.NativeID != 0 {
		home, err := b.store.UpsertTeam(ctx, record.Team{
			Source: record.SourceBCL, NativeID: page.Home.NativeID, Name: page.Home.Name,
		})
		if err != nil {
			return record.Match{}, fmt.Errorf("save match %d: home team: %w", page.NativeID, err)
		}
		m.HomeTeamID = home.ID
	}
	if page.Away.NativeID != 0 {
		away, err := b.store.UpsertTeam(ctx, record.Team{
			Source: record.SourceBCL, NativeID: page.Away.NativeID, Name: page.Away.Name,
		})
		if err != nil {
			return record.Match{}, fmt.Errorf("save match %d: away team: %w", page.NativeID, err)
		}
		m.AwayTeamID = away.ID
	}

	for i, ref := range page.Referees {
		saved, err := b.store.UpsertReferee(ctx, record.Referee{
			Source: record.SourceBCL, NativeID: ref.NativeID, Name: ref.Name, PhotoURL: ref.PhotoURL,
		})
		if err != nil {
			return record.Match{}, fmt.Errorf("save match %d: referee: %w", page.NativeID, err)
		}
		if i == 0 {
			m.RefereeID = saved.ID
			m.RefereeName = saved.Name.Full()
		}
	}

	if existing, ok, err := b.store.FindMatchByNativeID(ctx, record.SourceBCL, page.NativeID); err != nil {
		return record.Match{}, fmt.Errorf("save match %d: lookup: %w", page.NativeID, err)
	} else if ok {
		m = keepParsedFields(existing, m)
	}

	saved, err := b.store.UpsertMatch(ctx, m)
	if err != nil {
		return record.Match{}, fmt.Errorf("save match %d: %w", page.NativeID, err)
	}

	if err := b.saveStats(ctx, saved, page); err != nil {
		return record.Match{}, err
	}
	if err := b.saveBestPlayers(ctx, saved, page); err != nil {
		return record.Match{}, err
	}
	return saved, nil
}

func (b *BCL) saveStats(ctx context.Context, m record.Match, page *bcl.MatchPage) error {
	var rows []record.PlayerMatchStat
	for _, side := range []struct {
		stats  []bcl.StatRow
		teamID int64
	}{
		{page.HomeStats, m.HomeTeamID},
		{page.AwayStats, m.AwayTeamID},
	} {
		for _, sr := range side.stats {
			if sr.PlayerNativeID == 0 {
				continue
			}
			p, _, err := b.resolver.Resolve(ctx, record.Player{
				Source:    record.SourceBCL,
				NativeIDs: []int64{sr.PlayerNativeID},
				Name:      record.SplitName(sr.PlayerName),
			})
			if err != nil {
				return fmt.Errorf("save match %d: stat player %d: %w", m.NativeID, sr.PlayerNativeID, err)
			}
			rows = append(rows, record.PlayerMatchStat{
				MatchID:      m.ID,
				PlayerID:     p.ID,
				TeamID:       side.teamID,
				JerseyNumber: sr.JerseyNumber,
				Points:       sr.Points,
				Attacks:      sr.Attacks,
				Serves:       sr.Serves,
				Blocks:       sr.Blocks,
			})
		}
	}
	if len(rows) == 0 {
		return nil
	}
	if err := b.store.ReplacePlayerStats(ctx, m.ID, rows); err != nil {
		return fmt.Errorf("save match %d: stats: %w", m.NativeID, err)
	}
	return nil
}

func (b *BCL) saveBestPlayers(ctx context.Context, m record.Match, page *bcl.MatchPage) error {
	if len(page.BestPlayers) == 0 {
		return nil
	}
	bps := make([]record.BestPlayer, 0, len(page.BestPlayers))
	for i, bp := range page.BestPlayers {
		row := record.BestPlayer{MatchID: m.ID, PlayerName: bp.PlayerName}
		// The site lists the home side first.
		if i == 0 {
			row.TeamID = m.HomeTeamID
		} else {
			row.TeamID = m.AwayTeamID
		}
		if bp.PlayerNativeID != 0 {
			p, _, err := b.resolver.Resolve(ctx, record.Player{
				Source:    record.SourceBCL,
				NativeIDs: []int64{bp.PlayerNativeID},
				Name:      record.SplitName(bp.PlayerName),
			})
			if err != nil {
				return fmt.Errorf("save match %d: best player: %w", m.NativeID, err)
			}
			row.PlayerID = p.ID
		}
		bps = append(bps, row)
	}
	if err := b.store.ReplaceBestPlayers(ctx, m.ID, bps); err != nil {
		return fmt.Errorf("save match %d: best players: %w", m.NativeID, err)
	}
	return nil
}

// SavePlayer persists a player detail page. The bio carries the birth date,
// so this is the call that can attach a new native id to an existing
// canonical player.
func (b *BCL) SavePlayer(ctx context.Context, page *bcl.PlayerPage) (record.Player, error) {
	p, _, err := b.resolver.Resolve(ctx, record.Player{
		Source:    record.SourceBCL,
		NativeIDs: []int64{page.NativeID},
		Name:      page.Name,
		BirthDate: page.BirthDate,
		Height:    page.Height,
		Weight:    page.Weight,
		Position:  page.Position,
		PhotoURL:  page.PhotoURL,
	})
	if err != nil {
		return record.Player{}, fmt.Errorf("save player %d: %w", page.NativeID, err)
	}
	return p, nil
}

// SaveTeams persists a teams listing.
func (b *BCL) SaveTeams(ctx context.Context, teams []bcl.TeamListing) error {
	for _, t := range teams {
		women := t.Women
		if _, err := b.store.UpsertTeam(ctx, record.Team{
			Source:   record.SourceBCL,
			NativeID: t.NativeID,
			Name:     t.Name,
			Women:    &women,
		}); err != nil {
			return fmt.Errorf("save team %d: %w", t.NativeID, err)
		}
	}
	return nil
}

// SaveReferees persists a referees listing.
func (b *BCL) SaveReferees(ctx context.Context, refs []bcl.RefereeRef) error {
	for _, ref := range refs {
		if _, err := b.store.UpsertReferee(ctx, record.Referee{
			Source: record.SourceBCL, NativeID: ref.NativeID, Name: ref.Name, PhotoURL: ref.PhotoURL,
		}); err != nil {
			return fmt.Errorf("save referee %d: %w", ref.NativeID, err)
		}
	}
	return nil
}
