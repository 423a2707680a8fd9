// Package store defines the gateway through which the crawl pipeline
// persists and queries records. Backends implement plain upserts and lookups;
// reconciliation policy (field folding, identity resolution) lives with the
// callers. A single entity upsert is atomic in every backend.
package store

import (
	"context"

	"github.com/vbstat/volleycrawl/internal/record"
)

// Stats summarizes record counts for the reporting layer.
type Stats struct {
	Matches  int `json:"matches"`
	Teams    int `json:"teams"`
	Players  int `json:"players"`
	Referees int `json:"referees"`
	Seasons  int `json:"seasons"`
}

// Gateway is the upsert/query surface shared by every backend. Entities are
// never deleted through it; merges repoint foreign keys and leave the
// orphaned record in place for auditability.
type Gateway interface {
	// Teams.
	UpsertTeam(ctx context.Context, t record.Team) (record.Team, error)
	FindTeamByNativeID(ctx context.Context, src record.Source, nativeID int64) (record.Team, bool, error)

	// Players. InsertPlayer assigns the canonical ID; UpdatePlayer rewrites
	// an existing record in place (including its native-id alias list).
	InsertPlayer(ctx context.Context, p record.Player) (record.Player, error)
	UpdatePlayer(ctx context.Context, p record.Player) error
	GetPlayer(ctx context.Context, id int64) (record.Player, bool, error)
	FindPlayerByNativeID(ctx context.Context, src record.Source, nativeID int64) (record.Player, bool, error)
	FindPlayersByKey(ctx context.Context, src record.Source, nameKey, birthDate string) ([]record.Player, error)
	ListPlayers(ctx context.Context, src record.Source) ([]record.Player, error)
	CountPlayerStats(ctx context.Context, playerID int64) (int, error)
	// RepointPlayerRefs moves best-player and stat references from one player
	// to another. A stat row whose match already carries a row for the target
	// player is dropped rather than duplicated.
	RepointPlayerRefs(ctx context.Context, fromID, toID int64) error
	MarkPlayerAlias(ctx context.Context, loserID, winnerID int64) error

	// Referees.
	UpsertReferee(ctx context.Context, r record.Referee) (record.Referee, error)

	// Matches.
	UpsertMatch(ctx context.Context, m record.Match) (record.Match, error)
	FindMatchByNativeID(ctx context.Context, src record.Source, nativeID int64) (record.Match, bool, error)
	MaxMatchNativeID(ctx context.Context, src record.Source) (int64, error)
	KnownMatchNativeIDs(ctx context.Context, src record.Source, seasonID int64) (map[int64]bool, error)

	// Per-match detail rows.
	ReplaceBestPlayers(ctx context.Context, matchID int64, bps []record.BestPlayer) error
	ListBestPlayers(ctx context.Context, matchID int64) ([]record.BestPlayer, error)
	ReplacePlayerStats(ctx context.Context, matchID int64, stats []record.PlayerMatchStat) error
	ListPlayerStats(ctx context.Context, matchID int64) ([]record.PlayerMatchStat, error)
	UpsertRosterEntry(ctx context.Context, e record.RosterEntry) error

	// Seasons (bcl only).
	UpsertSeason(ctx context.Context, s record.Season) (record.Season, error)
	LatestSeason(ctx context.Context) (record.Season, bool, error)
	SeasonPlayerNativeIDs(ctx context.Context, seasonID int64) ([]int64, error)

	Stats(ctx context.Context) (Stats, error)
}
