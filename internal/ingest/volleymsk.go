// Package ingest persists decoded pages. It owns the reconciliation rules
// (which fields a re-crawl may overwrite, how page candidates reach the
// resolver) so the store backends stay plain upserts.
package ingest

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/vbstat/volleycrawl/internal/record"
	"github.com/vbstat/volleycrawl/internal/resolve"
	"github.com/vbstat/volleycrawl/internal/source/volleymsk"
	"github.com/vbstat/volleycrawl/internal/store"
)

// VolleyMSK saves decoded volleymsk.ru pages.
type VolleyMSK struct {
	store    store.Gateway
	resolver *resolve.Resolver
	log      *zap.Logger
}

// NewVolleyMSK builds the volleymsk saver.
func NewVolleyMSK(gw store.Gateway, r *resolve.Resolver, log *zap.Logger) *VolleyMSK {
	if log == nil {
		log = zap.NewNop()
	}
	return &VolleyMSK{store: gw, resolver: r, log: log}
}

// SaveMatch persists a decoded match page: teams, the match row, roster
// players and best-player designations. On re-crawl only score, status and
// rating fields are overwritten; previously parsed fields the page no longer
// shows are kept.
func (v *VolleyMSK) SaveMatch(ctx context.Context, page *volleymsk.MatchPage) (record.Match, error) {
	home, err := v.store.UpsertTeam(ctx, record.Team{
		Source: record.SourceVolleyMSK, NativeID: page.Home.NativeID, Name: page.Home.Name,
	})
	if err != nil {
		return record.Match{}, fmt.Errorf("save match %d: home team: %w", page.NativeID, err)
	}
	away, err := v.store.UpsertTeam(ctx, record.Team{
		Source: record.SourceVolleyMSK, NativeID: page.Away.NativeID, Name: page.Away.Name,
	})
	if err != nil {
		return record.Match{}, fmt.Errorf("save match %d: away team: %w", page.NativeID, err)
	}

	m := record.Match{
		Source:   record.SourceVolleyMSK,
		NativeID: page.NativeID,

		KickoffAt:  page.Kickoff,
		HomeTeamID: home.ID,
		AwayTeamID: away.ID,

		HomeScore: page.HomeScore,
		AwayScore: page.AwayScore,
		SetScores: page.SetScores,
		Status:    page.Status,

		TournamentPath: page.TournamentPath,

		RefereeName:           page.RefereeName.Full(),
		RefereeRatingHome:     page.RefereeRatingHome,
		RefereeRatingAway:     page.RefereeRatingAway,
		RefereeRatingHomeText: page.RefereeRatingHomeText,
		RefereeRatingAwayText: page.RefereeRatingAwayText,

		ParsedAt: time.Now(),
	}

	if existing, ok, err := v.store.FindMatchByNativeID(ctx, record.SourceVolleyMSK, page.NativeID); err != nil {
		return record.Match{}, fmt.Errorf("save match %d: lookup: %w", page.NativeID, err)
	} else if ok {
		m = keepParsedFields(existing, m)
	}

	saved, err := v.store.UpsertMatch(ctx, m)
	if err != nil {
		return record.Match{}, fmt.Errorf("save match %d: %w", page.NativeID, err)
	}

	homePlayers, err := v.savePlayers(ctx, page.HomeRoster)
	if err != nil {
		return record.Match{}, fmt.Errorf("save match %d: home roster: %w", page.NativeID, err)
	}
	awayPlayers, err := v.savePlayers(ctx, page.AwayRoster)
	if err != nil {
		return record.Match{}, fmt.Errorf("save match %d: away roster: %w", page.NativeID, err)
	}

	if len(page.BestPlayers) > 0 {
		bps := make([]record.BestPlayer, 0, len(page.BestPlayers))
		for _, bp := range page.BestPlayers {
			row := record.BestPlayer{MatchID: saved.ID, PlayerName: bp.Name.Full()}
			var sidePlayers []record.Player
			switch bp.TeamName {
			case page.Home.Name:
				row.TeamID = home.ID
				sidePlayers = homePlayers
			case page.Away.Name:
				row.TeamID = away.ID
				sidePlayers = awayPlayers
			}
			// The site prints a bare name: resolve it against the side's
			// roster, keep the text when nobody matches.
			for _, p := range sidePlayers {
				if p.Name.Key() == bp.Name.Key() {
					row.PlayerID = p.ID
					break
				}
			}
			bps = append(bps, row)
		}
		if err := v.store.ReplaceBestPlayers(ctx, saved.ID, bps); err != nil {
			return record.Match{}, fmt.Errorf("save match %d: best players: %w", page.NativeID, err)
		}
	}
	return saved, nil
}

func (v *VolleyMSK) savePlayers(ctx context.Context, roster []volleymsk.RosterPlayer) ([]record.Player, error) {
	out := make([]record.Player, 0, len(roster))
	for _, rp := range roster {
		p, _, err := v.resolver.Resolve(ctx, record.Player{
			Source:    record.SourceVolleyMSK,
			NativeIDs: []int64{rp.NativeID},
			Name:      rp.Name,
			PhotoURL:  rp.PhotoURL,
			Height:    rp.Height,
			BirthYear: rp.BirthYear,
			Position:  rp.Position,
		})
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// SaveRoster persists a members.php page: the team, its players and one
// roster membership row per player.
func (v *VolleyMSK) SaveRoster(ctx context.Context, page *volleymsk.RosterPage) error {
	var teamID int64
	if page.Team.NativeID != 0 {
		team, err := v.store.UpsertTeam(ctx, record.Team{
			Source: record.SourceVolleyMSK, NativeID: page.Team.NativeID, Name: page.Team.Name,
		})
		if err != nil {
			return fmt.Errorf("save roster %d: team: %w", page.NativeID, err)
		}
		teamID = team.ID
	}

	players, err := v.savePlayers(ctx, page.Players)
	if err != nil {
		return fmt.Errorf("save roster %d: %w", page.NativeID, err)
	}
	for _, p := range players {
		if err := v.store.UpsertRosterEntry(ctx, record.RosterEntry{
			RosterNativeID: page.NativeID,
			TeamID:         teamID,
			PlayerID:       p.ID,
		}); err != nil {
			return fmt.Errorf("save roster %d: entry: %w", page.NativeID, err)
		}
	}
	return nil
}

// keepParsedFields folds a fresh parse over a stored match. The fresh parse
// wins for result fields; a field the page no longer carries keeps its
// stored value.
func keepParsedFields(existing, fresh record.Match) record.Match {
	if fresh.KickoffAt == nil {
		fresh.KickoffAt = existing.KickoffAt
	}
	if fresh.Venue == "" {
		fresh.Venue = existing.Venue
	}
	if fresh.TournamentPath == "" {
		fresh.TournamentPath = existing.TournamentPath
	}
	if fresh.DivisionName == "" {
		fresh.DivisionName = existing.DivisionName
	}
	if fresh.RoundName == "" {
		fresh.RoundName = existing.RoundName
	}
	if fresh.TournamentType == "" {
		fresh.TournamentType = existing.TournamentType
	}
	if fresh.SeasonID == 0 {
		fresh.SeasonID = existing.SeasonID
	}
	if fresh.RefereeID == 0 {
		fresh.RefereeID = existing.RefereeID
	}
	if fresh.RefereeName == "" {
		fresh.RefereeName = existing.RefereeName
	}
	if fresh.HomeTeamID == 0 {
		fresh.HomeTeamID = existing.HomeTeamID
	}
	if fresh.AwayTeamID == 0 {
		fresh.AwayTeamID = existing.AwayTeamID
	}
	// Scores travel as a pair: a re-parse that recovered only one side must
	// not persist the asymmetric half.
	if fresh.HomeScore == nil || fresh.AwayScore == nil {
		fresh.HomeScore = existing.HomeScore
		fresh.AwayScore = existing.AwayScore
	}
	if fresh.SetScores == "" {
		fresh.SetScores = existing.SetScores
	}
	if fresh.Status == record.StatusUnknown && existing.Status != "" {
		fresh.Status = existing.Status
	}
	return fresh
}
