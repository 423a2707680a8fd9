// Package record defines the source-scoped entities maintained by the crawl
// pipeline. Every entity is keyed by a (source, native id) pair; canonical
// store IDs are assigned by the store gateway on first upsert.
package record

import (
	"fmt"
	"strings"
	"time"
)

// Source identifies one of the external websites records are ingested from.
type Source string

// Supported sources.
const (
	SourceVolleyMSK Source = "volleymsk"
	SourceBCL       Source = "bcl"
)

// Sources lists every supported source in a stable order.
func Sources() []Source {
	return []Source{SourceVolleyMSK, SourceBCL}
}

// ParseSource validates a source name supplied by a caller.
func ParseSource(s string) (Source, error) {
	switch Source(strings.ToLower(strings.TrimSpace(s))) {
	case SourceVolleyMSK:
		return SourceVolleyMSK, nil
	case SourceBCL:
		return SourceBCL, nil
	default:
		return "", fmt.Errorf("unknown source %q", s)
	}
}

// MatchStatus tags the lifecycle of a match as reported by a source.
type MatchStatus string

// Match status values.
const (
	StatusScheduled MatchStatus = "scheduled"
	StatusPlayed    MatchStatus = "played"
	StatusUnknown   MatchStatus = "unknown"
)

// NameParts holds a person's name split by the fixed
// "Фамилия Имя [Отчество]" convention both sources use.
type NameParts struct {
	Last       string `json:"last_name"`
	First      string `json:"first_name"`
	Patronymic string `json:"patronymic,omitempty"`
}

// SplitName splits a full name into its parts. Missing parts stay empty.
func SplitName(full string) NameParts {
	parts := strings.Fields(full)
	var n NameParts
	if len(parts) >= 1 {
		n.Last = parts[0]
	}
	if len(parts) >= 2 {
		n.First = parts[1]
	}
	if len(parts) >= 3 {
		n.Patronymic = parts[2]
	}
	return n
}

// Full reassembles the name parts into a display string.
func (n NameParts) Full() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{n.Last, n.First, n.Patronymic} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

// Key returns the normalized matching key used for player deduplication:
// lowercased, whitespace-collapsed full name.
func (n NameParts) Key() string {
	return NormalizeName(n.Full())
}

// NormalizeName lowercases a name and collapses interior whitespace.
func NormalizeName(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// Team is a source team. Name is the team's current name only; renames are
// not tracked.
type Team struct {
	ID       int64  `json:"id"`
	Source   Source `json:"source"`
	NativeID int64  `json:"native_id"`
	Name     string `json:"name"`
	LogoURL  string `json:"logo_url,omitempty"`
	Women    *bool  `json:"women,omitempty"`
}

// Player is a canonical person record. A player legitimately owns several
// native ids on the bcl source (one per team affiliation change); NativeIDs
// lists every id known to refer to this person. AliasOf is non-zero on a
// record that has been merged into another canonical player.
type Player struct {
	ID        int64     `json:"id"`
	Source    Source    `json:"source"`
	NativeIDs []int64   `json:"native_ids"`
	Name      NameParts `json:"name"`
	BirthDate string    `json:"birth_date,omitempty"` // dd.mm.yyyy, "" unknown
	BirthYear *int      `json:"birth_year,omitempty"`
	Height    *int      `json:"height,omitempty"`
	Weight    *int      `json:"weight,omitempty"`
	Position  string    `json:"position,omitempty"`
	PhotoURL  string    `json:"photo_url,omitempty"`
	AliasOf   int64     `json:"alias_of,omitempty"`
}

// Canonical reports whether this record has not been merged away.
func (p Player) Canonical() bool { return p.AliasOf == 0 }

// Referee is a match official.
type Referee struct {
	ID       int64     `json:"id"`
	Source   Source    `json:"source"`
	NativeID int64     `json:"native_id"`
	Name     NameParts `json:"name"`
	PhotoURL string    `json:"photo_url,omitempty"`
}

// Match is a single fixture. Score, rating and stat fields are the only
// fields eligible for overwrite on re-crawl; NativeID is immutable.
type Match struct {
	ID       int64  `json:"id"`
	Source   Source `json:"source"`
	NativeID int64  `json:"native_id"`

	KickoffAt *time.Time `json:"kickoff_at,omitempty"`
	Venue     string     `json:"venue,omitempty"`

	HomeTeamID int64 `json:"home_team_id,omitempty"`
	AwayTeamID int64 `json:"away_team_id,omitempty"`

	HomeScore       *int   `json:"home_score,omitempty"`
	AwayScore       *int   `json:"away_score,omitempty"`
	SetScores       string `json:"set_scores,omitempty"` // "25:20, 19:25, 15:13"
	HomeTotalPoints *int   `json:"home_total_points,omitempty"`
	AwayTotalPoints *int   `json:"away_total_points,omitempty"`

	Status MatchStatus `json:"status"`

	TournamentPath string `json:"tournament_path,omitempty"`
	DivisionName   string `json:"division_name,omitempty"`
	RoundName      string `json:"round_name,omitempty"`
	TournamentType string `json:"tournament_type,omitempty"` // "championship" or "cup"
	SeasonID       int64  `json:"season_id,omitempty"`

	// RefereeID references a referee entity on sources that hyperlink
	// officials; volleymsk prints a bare name, kept in RefereeName.
	RefereeID             int64  `json:"referee_id,omitempty"`
	RefereeName           string `json:"referee_name,omitempty"`
	RefereeRatingHome     *int   `json:"referee_rating_home,omitempty"`
	RefereeRatingAway     *int   `json:"referee_rating_away,omitempty"`
	RefereeRatingHomeText string `json:"referee_rating_home_text,omitempty"`
	RefereeRatingAwayText string `json:"referee_rating_away_text,omitempty"`

	ParsedAt time.Time `json:"parsed_at"`
}

// BestPlayer is a per-match, per-side "player of the match" designation.
// PlayerID is zero when the source named a player that could not be resolved;
// PlayerName then retains the free-text name. Display code must prefer the
// resolved player and fall back to the text.
type BestPlayer struct {
	MatchID    int64  `json:"match_id"`
	TeamID     int64  `json:"team_id"`
	PlayerID   int64  `json:"player_id,omitempty"`
	PlayerName string `json:"player_name,omitempty"`
}

// PlayerMatchStat carries the bcl per-player match counters. Absent counters
// are nil, never zero.
type PlayerMatchStat struct {
	MatchID      int64 `json:"match_id"`
	PlayerID     int64 `json:"player_id"`
	TeamID       int64 `json:"team_id"`
	JerseyNumber *int  `json:"jersey_number,omitempty"`
	Points       *int  `json:"points,omitempty"`
	Attacks      *int  `json:"attacks,omitempty"`
	Serves       *int  `json:"serves,omitempty"`
	Blocks       *int  `json:"blocks,omitempty"`
}

// Season is a bcl season. Label is the ground truth for season identity; the
// page title on that source is unreliable and must never feed it.
type Season struct {
	ID     int64  `json:"id"`
	Number int    `json:"number"`
	Label  string `json:"label"`
}

// RosterEntry records a player's membership on a team roster for a
// tournament (volleymsk members.php pages).
type RosterEntry struct {
	RosterNativeID int64 `json:"roster_native_id"`
	TeamID         int64 `json:"team_id"`
	PlayerID       int64 `json:"player_id"`
	JerseyNumber   *int  `json:"jersey_number,omitempty"`
}
