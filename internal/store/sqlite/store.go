// Package sqlite provides a single-file store gateway backed by
// modernc.org/sqlite, suitable for a standalone deployment without a
// database server.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/vbstat/volleycrawl/internal/record"
	"github.com/vbstat/volleycrawl/internal/store"
)

//go:embed schema.sql
var schema string

// Store implements store.Gateway on a sqlite database.
type Store struct {
	db *sql.DB
}

// Open opens (and creates, if needed) the database at path and applies the
// schema. Use ":memory:" for an ephemeral store.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite open %s: %w", path, err)
	}
	// The driver serializes writers anyway; a single connection avoids
	// table-lock retries and keeps :memory: databases coherent.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("sqlite pragma: %w", err)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the database handle.
func (s *Store) Close() error { return s.db.Close() }

// Times are stored as RFC3339 text so they survive the round trip without
// driver-specific conversion.
const timeLayout = time.RFC3339Nano

func encodeTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.Format(timeLayout), Valid: true}
}

func decodeTime(ns sql.NullString) *time.Time {
	if !ns.Valid || ns.String == "" {
		return nil
	}
	t, err := time.Parse(timeLayout, ns.String)
	if err != nil {
		return nil
	}
	return &t
}

func nullInt(p *int) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*p), Valid: true}
}

func intPtr(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int64)
	return &v
}

func nullBool(p *bool) sql.NullBool {
	if p == nil {
		return sql.NullBool{}
	}
	return sql.NullBool{Bool: *p, Valid: true}
}

func boolPtr(n sql.NullBool) *bool {
	if !n.Valid {
		return nil
	}
	v := n.Bool
	return &v
}

func encodeIDs(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, ",")
}

func decodeIDs(s string) []int64 {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]int64, 0, len(parts))
	for _, p := range parts {
		if id, err := strconv.ParseInt(p, 10, 64); err == nil {
			out = append(out, id)
		}
	}
	return out
}

// UpsertTeam inserts or rewrites a team keyed by (source, native id).
func (s *Store) UpsertTeam(ctx context.Context, t record.Team) (record.Team, error) {
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO teams (source, native_id, name, logo_url, women)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (source, native_id) DO UPDATE SET
			name = excluded.name,
			logo_url = excluded.logo_url,
			women = COALESCE(excluded.women, teams.women)
		RETURNING id`,
		t.Source, t.NativeID, t.Name, t.LogoURL, nullBool(t.Women),
	).Scan(&t.ID)
	if err != nil {
		return record.Team{}, fmt.Errorf("upsert team: %w", err)
	}
	return t, nil
}

// FindTeamByNativeID looks a team up by its source identifier.
func (s *Store) FindTeamByNativeID(ctx context.Context, src record.Source, nativeID int64) (record.Team, bool, error) {
	var t record.Team
	var women sql.NullBool
	err := s.db.QueryRowContext(ctx, `
		SELECT id, source, native_id, name, logo_url, women
		FROM teams WHERE source = ? AND native_id = ?`,
		src, nativeID,
	).Scan(&t.ID, &t.Source, &t.NativeID, &t.Name, &t.LogoURL, &women)
	if errors.Is(err, sql.ErrNoRows) {
		return record.Team{}, false, nil
	}
	if err != nil {
		return record.Team{}, false, fmt.Errorf("find team: %w", err)
	}
	t.Women = boolPtr(women)
	return t, true, nil
}

// InsertPlayer stores a new canonical player and indexes its native ids.
func (s *Store) InsertPlayer(ctx context.Context, p record.Player) (record.Player, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return record.Player{}, err
	}
	defer tx.Rollback()

	err = tx.QueryRowContext(ctx, `
		INSERT INTO players
			(source, native_ids, last_name, first_name, patronymic, name_key,
			 birth_date, birth_year, height, weight, position, photo_url, alias_of)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`,
		p.Source, encodeIDs(p.NativeIDs),
		p.Name.Last, p.Name.First, p.Name.Patronymic, p.Name.Key(),
		p.BirthDate, nullInt(p.BirthYear), nullInt(p.Height), nullInt(p.Weight),
		p.Position, p.PhotoURL, p.AliasOf,
	).Scan(&p.ID)
	if err != nil {
		return record.Player{}, fmt.Errorf("insert player: %w", err)
	}
	if err := indexNativeIDs(ctx, tx, p); err != nil {
		return record.Player{}, err
	}
	if err := tx.Commit(); err != nil {
		return record.Player{}, err
	}
	return p, nil
}

// UpdatePlayer rewrites an existing player record and refreshes the
// native-id index.
func (s *Store) UpdatePlayer(ctx context.Context, p record.Player) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE players SET
			native_ids = ?, last_name = ?, first_name = ?, patronymic = ?,
			name_key = ?, birth_date = ?, birth_year = ?, height = ?,
			weight = ?, position = ?, photo_url = ?, alias_of = ?
		WHERE id = ?`,
		encodeIDs(p.NativeIDs), p.Name.Last, p.Name.First, p.Name.Patronymic,
		p.Name.Key(), p.BirthDate, nullInt(p.BirthYear), nullInt(p.Height),
		nullInt(p.Weight), p.Position, p.PhotoURL, p.AliasOf, p.ID,
	)
	if err != nil {
		return fmt.Errorf("update player: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("player %d not found", p.ID)
	}
	if err := indexNativeIDs(ctx, tx, p); err != nil {
		return err
	}
	return tx.Commit()
}

func indexNativeIDs(ctx context.Context, tx *sql.Tx, p record.Player) error {
	for _, nid := range p.NativeIDs {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO player_native_ids (source, native_id, player_id)
			VALUES (?, ?, ?)
			ON CONFLICT (source, native_id) DO UPDATE SET player_id = excluded.player_id`,
			p.Source, nid, p.ID,
		)
		if err != nil {
			return fmt.Errorf("index native id %d: %w", nid, err)
		}
	}
	return nil
}

const playerColumns = `id, source, native_ids, last_name, first_name,
	patronymic, birth_date, birth_year, height, weight, position, photo_url,
	alias_of`

func scanPlayer(row interface{ Scan(...any) error }) (record.Player, error) {
	var p record.Player
	var nativeIDs string
	var birthYear, height, weight sql.NullInt64
	err := row.Scan(&p.ID, &p.Source, &nativeIDs,
		&p.Name.Last, &p.Name.First, &p.Name.Patronymic,
		&p.BirthDate, &birthYear, &height, &weight,
		&p.Position, &p.PhotoURL, &p.AliasOf)
	if err != nil {
		return record.Player{}, err
	}
	p.NativeIDs = decodeIDs(nativeIDs)
	p.BirthYear = intPtr(birthYear)
	p.Height = intPtr(height)
	p.Weight = intPtr(weight)
	return p, nil
}

// GetPlayer returns a player by its canonical store id.
func (s *Store) GetPlayer(ctx context.Context, id int64) (record.Player, bool, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+playerColumns+` FROM players WHERE id = ?`, id)
	p, err := scanPlayer(row)
	if errors.Is(err, sql.ErrNoRows) {
		return record.Player{}, false, nil
	}
	if err != nil {
		return record.Player{}, false, fmt.Errorf("get player: %w", err)
	}
	return p, true, nil
}

// FindPlayerByNativeID resolves a native id to its canonical player.
func (s *Store) FindPlayerByNativeID(ctx context.Context, src record.Source, nativeID int64) (record.Player, bool, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+playerColumns+` FROM players
		WHERE id = (SELECT player_id FROM player_native_ids WHERE source = ? AND native_id = ?)`,
		src, nativeID)
	p, err := scanPlayer(row)
	if errors.Is(err, sql.ErrNoRows) {
		return record.Player{}, false, nil
	}
	if err != nil {
		return record.Player{}, false, fmt.Errorf("find player by native id: %w", err)
	}
	return p, true, nil
}

// FindPlayersByKey returns canonical players matching the normalized name key
// and exact birth date.
func (s *Store) FindPlayersByKey(ctx context.Context, src record.Source, nameKey, birthDate string) ([]record.Player, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+playerColumns+` FROM players
		WHERE source = ? AND name_key = ? AND birth_date = ? AND alias_of = 0
		ORDER BY id`,
		src, nameKey, birthDate)
	if err != nil {
		return nil, fmt.Errorf("find players by key: %w", err)
	}
	defer rows.Close()
	return collectPlayers(rows)
}

// ListPlayers returns every player for a source, aliases included.
func (s *Store) ListPlayers(ctx context.Context, src record.Source) ([]record.Player, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+playerColumns+` FROM players WHERE source = ? ORDER BY id`, src)
	if err != nil {
		return nil, fmt.Errorf("list players: %w", err)
	}
	defer rows.Close()
	return collectPlayers(rows)
}

func collectPlayers(rows *sql.Rows) ([]record.Player, error) {
	var out []record.Player
	for rows.Next() {
		p, err := scanPlayer(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// CountPlayerStats counts stat rows referencing a player.
func (s *Store) CountPlayerStats(ctx context.Context, playerID int64) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM player_stats WHERE player_id = ?`, playerID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count player stats: %w", err)
	}
	return n, nil
}

// RepointPlayerRefs moves best-player, stat and roster rows from one player
// to another, dropping rows that would collide with one the target already
// owns.
func (s *Store) RepointPlayerRefs(ctx context.Context, fromID, toID int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	steps := []string{
		`UPDATE best_players SET player_id = ? WHERE player_id = ?`,
		`DELETE FROM player_stats WHERE player_id = ?2 AND match_id IN
			(SELECT match_id FROM player_stats WHERE player_id = ?1)`,
		`UPDATE player_stats SET player_id = ? WHERE player_id = ?`,
		`DELETE FROM roster_entries WHERE player_id = ?2 AND roster_native_id IN
			(SELECT roster_native_id FROM roster_entries WHERE player_id = ?1)`,
		`UPDATE roster_entries SET player_id = ? WHERE player_id = ?`,
	}
	for _, q := range steps {
		if _, err := tx.ExecContext(ctx, q, toID, fromID); err != nil {
			return fmt.Errorf("repoint player refs: %w", err)
		}
	}
	return tx.Commit()
}

// MarkPlayerAlias records that loser has been merged into winner. The loser
// row is kept, its native ids now resolve to the winner.
func (s *Store) MarkPlayerAlias(ctx context.Context, loserID, winnerID int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE players SET alias_of = ? WHERE id = ?`, winnerID, loserID)
	if err != nil {
		return fmt.Errorf("mark alias: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("player %d not found", loserID)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE player_native_ids SET player_id = ? WHERE player_id = ?`,
		winnerID, loserID); err != nil {
		return fmt.Errorf("mark alias: %w", err)
	}
	return tx.Commit()
}

// UpsertReferee inserts or rewrites a referee keyed by (source, native id).
func (s *Store) UpsertReferee(ctx context.Context, r record.Referee) (record.Referee, error) {
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO referees (source, native_id, last_name, first_name, patronymic, photo_url)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (source, native_id) DO UPDATE SET
			last_name = excluded.last_name,
			first_name = excluded.first_name,
			patronymic = excluded.patronymic,
			photo_url = excluded.photo_url
		RETURNING id`,
		r.Source, r.NativeID, r.Name.Last, r.Name.First, r.Name.Patronymic, r.PhotoURL,
	).Scan(&r.ID)
	if err != nil {
		return record.Referee{}, fmt.Errorf("upsert referee: %w", err)
	}
	return r, nil
}

// UpsertMatch inserts or rewrites a match keyed by (source, native id).
func (s *Store) UpsertMatch(ctx context.Context, m record.Match) (record.Match, error) {
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO matches
			(source, native_id, kickoff_at, venue, home_team_id, away_team_id,
			 home_score, away_score, set_scores, home_total_points, away_total_points,
			 status, tournament_path, division_name, round_name, tournament_type,
			 season_id, referee_id, referee_name, referee_rating_home,
			 referee_rating_away, referee_rating_home_text, referee_rating_away_text,
			 parsed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (source, native_id) DO UPDATE SET
			kickoff_at = excluded.kickoff_at,
			venue = excluded.venue,
			home_team_id = excluded.home_team_id,
			away_team_id = excluded.away_team_id,
			home_score = excluded.home_score,
			away_score = excluded.away_score,
			set_scores = excluded.set_scores,
			home_total_points = excluded.home_total_points,
			away_total_points = excluded.away_total_points,
			status = excluded.status,
			tournament_path = excluded.tournament_path,
			division_name = excluded.division_name,
			round_name = excluded.round_name,
			tournament_type = excluded.tournament_type,
			season_id = excluded.season_id,
			referee_id = excluded.referee_id,
			referee_name = excluded.referee_name,
			referee_rating_home = excluded.referee_rating_home,
			referee_rating_away = excluded.referee_rating_away,
			referee_rating_home_text = excluded.referee_rating_home_text,
			referee_rating_away_text = excluded.referee_rating_away_text,
			parsed_at = excluded.parsed_at
		RETURNING id`,
		m.Source, m.NativeID, encodeTime(m.KickoffAt), m.Venue,
		m.HomeTeamID, m.AwayTeamID,
		nullInt(m.HomeScore), nullInt(m.AwayScore), m.SetScores,
		nullInt(m.HomeTotalPoints), nullInt(m.AwayTotalPoints),
		string(m.Status), m.TournamentPath, m.DivisionName, m.RoundName,
		m.TournamentType, m.SeasonID, m.RefereeID, m.RefereeName,
		nullInt(m.RefereeRatingHome), nullInt(m.RefereeRatingAway),
		m.RefereeRatingHomeText, m.RefereeRatingAwayText,
		m.ParsedAt.Format(timeLayout),
	).Scan(&m.ID)
	if err != nil {
		return record.Match{}, fmt.Errorf("upsert match: %w", err)
	}
	return m, nil
}

// FindMatchByNativeID looks a match up by its source identifier.
func (s *Store) FindMatchByNativeID(ctx context.Context, src record.Source, nativeID int64) (record.Match, bool, error) {
	var m record.Match
	var kickoff sql.NullString
	var homeScore, awayScore, homeTotal, awayTotal, ratingHome, ratingAway sql.NullInt64
	var parsedAt string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, source, native_id, kickoff_at, venue, home_team_id,
			away_team_id, home_score, away_score, set_scores,
			home_total_points, away_total_points, status, tournament_path,
			division_name, round_name, tournament_type, season_id, referee_id,
			referee_name, referee_rating_home, referee_rating_away,
			referee_rating_home_text, referee_rating_away_text, parsed_at
		FROM matches WHERE source = ? AND native_id = ?`,
		src, nativeID,
	).Scan(&m.ID, &m.Source, &m.NativeID, &kickoff, &m.Venue, &m.HomeTeamID,
		&m.AwayTeamID, &homeScore, &awayScore, &m.SetScores,
		&homeTotal, &awayTotal, &m.Status, &m.TournamentPath,
		&m.DivisionName, &m.RoundName, &m.TournamentType, &m.SeasonID,
		&m.RefereeID, &m.RefereeName, &ratingHome, &ratingAway,
		&m.RefereeRatingHomeText, &m.RefereeRatingAwayText, &parsedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return record.Match{}, false, nil
	}
	if err != nil {
		return record.Match{}, false, fmt.Errorf("find match: %w", err)
	}
	m.KickoffAt = decodeTime(kickoff)
	m.HomeScore = intPtr(homeScore)
	m.AwayScore = intPtr(awayScore)
	m.HomeTotalPoints = intPtr(homeTotal)
	m.AwayTotalPoints = intPtr(awayTotal)
	m.RefereeRatingHome = intPtr(ratingHome)
	m.RefereeRatingAway = intPtr(ratingAway)
	if t, err := time.Parse(timeLayout, parsedAt); err == nil {
		m.ParsedAt = t
	}
	return m, true, nil
}

// MaxMatchNativeID returns the highest native match id seen for a source,
// zero when none exist.
func (s *Store) MaxMatchNativeID(ctx context.Context, src record.Source) (int64, error) {
	var max int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(native_id), 0) FROM matches WHERE source = ?`, src).Scan(&max)
	if err != nil {
		return 0, fmt.Errorf("max match native id: %w", err)
	}
	return max, nil
}

// KnownMatchNativeIDs returns the set of native match ids already stored for
// a source, optionally restricted to one season.
func (s *Store) KnownMatchNativeIDs(ctx context.Context, src record.Source, seasonID int64) (map[int64]bool, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT native_id FROM matches
		WHERE source = ? AND (?2 = 0 OR season_id = ?2)`,
		src, seasonID)
	if err != nil {
		return nil, fmt.Errorf("known match ids: %w", err)
	}
	defer rows.Close()

	out := make(map[int64]bool)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out[id] = true
	}
	return out, rows.Err()
}

// ReplaceBestPlayers rewrites the best-player rows for a match.
func (s *Store) ReplaceBestPlayers(ctx context.Context, matchID int64, bps []record.BestPlayer) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM best_players WHERE match_id = ?`, matchID); err != nil {
		return fmt.Errorf("replace best players: %w", err)
	}
	for _, bp := range bps {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO best_players (match_id, team_id, player_id, player_name)
			VALUES (?, ?, ?, ?)`,
			matchID, bp.TeamID, bp.PlayerID, bp.PlayerName); err != nil {
			return fmt.Errorf("replace best players: %w", err)
		}
	}
	return tx.Commit()
}

// ListBestPlayers returns the best-player rows for a match.
func (s *Store) ListBestPlayers(ctx context.Context, matchID int64) ([]record.BestPlayer, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT match_id, team_id, player_id, player_name
		FROM best_players WHERE match_id = ?`, matchID)
	if err != nil {
		return nil, fmt.Errorf("list best players: %w", err)
	}
	defer rows.Close()

	var out []record.BestPlayer
	for rows.Next() {
		var bp record.BestPlayer
		if err := rows.Scan(&bp.MatchID, &bp.TeamID, &bp.PlayerID, &bp.PlayerName); err != nil {
			return nil, err
		}
		out = append(out, bp)
	}
	return out, rows.Err()
}

// ReplacePlayerStats rewrites the stat rows for a match.
func (s *Store) ReplacePlayerStats(ctx context.Context, matchID int64, stats []record.PlayerMatchStat) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM player_stats WHERE match_id = ?`, matchID); err != nil {
		return fmt.Errorf("replace player stats: %w", err)
	}
	for _, st := range stats {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO player_stats
				(match_id, player_id, team_id, jersey_number, points, attacks, serves, blocks)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			matchID, st.PlayerID, st.TeamID, nullInt(st.JerseyNumber),
			nullInt(st.Points), nullInt(st.Attacks), nullInt(st.Serves),
			nullInt(st.Blocks)); err != nil {
			return fmt.Errorf("replace player stats: %w", err)
		}
	}
	return tx.Commit()
}

// ListPlayerStats returns the stat rows for a match.
func (s *Store) ListPlayerStats(ctx context.Context, matchID int64) ([]record.PlayerMatchStat, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT match_id, player_id, team_id, jersey_number, points, attacks, serves, blocks
		FROM player_stats WHERE match_id = ?`, matchID)
	if err != nil {
		return nil, fmt.Errorf("list player stats: %w", err)
	}
	defer rows.Close()

	var out []record.PlayerMatchStat
	for rows.Next() {
		var st record.PlayerMatchStat
		var jersey, points, attacks, serves, blocks sql.NullInt64
		if err := rows.Scan(&st.MatchID, &st.PlayerID, &st.TeamID,
			&jersey, &points, &attacks, &serves, &blocks); err != nil {
			return nil, err
		}
		st.JerseyNumber = intPtr(jersey)
		st.Points = intPtr(points)
		st.Attacks = intPtr(attacks)
		st.Serves = intPtr(serves)
		st.Blocks = intPtr(blocks)
		out = append(out, st)
	}
	return out, rows.Err()
}

// UpsertRosterEntry inserts or rewrites a roster membership row keyed by
// (roster native id, player).
func (s *Store) UpsertRosterEntry(ctx context.Context, e record.RosterEntry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO roster_entries (roster_native_id, team_id, player_id, jersey_number)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (roster_native_id, player_id) DO UPDATE SET
			team_id = excluded.team_id,
			jersey_number = excluded.jersey_number`,
		e.RosterNativeID, e.TeamID, e.PlayerID, nullInt(e.JerseyNumber))
	if err != nil {
		return fmt.Errorf("upsert roster entry: %w", err)
	}
	return nil
}

// UpsertSeason inserts or rewrites a season keyed by its ordinal number.
func (s *Store) UpsertSeason(ctx context.Context, season record.Season) (record.Season, error) {
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO seasons (number, label) VALUES (?, ?)
		ON CONFLICT (number) DO UPDATE SET label = excluded.label
		RETURNING id`,
		season.Number, season.Label,
	).Scan(&season.ID)
	if err != nil {
		return record.Season{}, fmt.Errorf("upsert season: %w", err)
	}
	return season, nil
}

// LatestSeason returns the season with the highest ordinal number.
func (s *Store) LatestSeason(ctx context.Context) (record.Season, bool, error) {
	var season record.Season
	err := s.db.QueryRowContext(ctx,
		`SELECT id, number, label FROM seasons ORDER BY number DESC LIMIT 1`,
	).Scan(&season.ID, &season.Number, &season.Label)
	if errors.Is(err, sql.ErrNoRows) {
		return record.Season{}, false, nil
	}
	if err != nil {
		return record.Season{}, false, fmt.Errorf("latest season: %w", err)
	}
	return season, true, nil
}

// SeasonPlayerNativeIDs returns the native ids of every player with a stat
// row in a season's matches.
func (s *Store) SeasonPlayerNativeIDs(ctx context.Context, seasonID int64) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT pni.native_id
		FROM player_stats ps
		JOIN matches m ON m.id = ps.match_id
		JOIN player_native_ids pni ON pni.player_id = ps.player_id
		WHERE m.season_id = ?
		ORDER BY pni.native_id`, seasonID)
	if err != nil {
		return nil, fmt.Errorf("season player ids: %w", err)
	}
	defer rows.Close()

	var out []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// Stats reports record counts.
func (s *Store) Stats(ctx context.Context) (store.Stats, error) {
	var st store.Stats
	err := s.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM matches),
			(SELECT COUNT(*) FROM teams),
			(SELECT COUNT(*) FROM players),
			(SELECT COUNT(*) FROM referees),
			(SELECT COUNT(*) FROM seasons)`,
	).Scan(&st.Matches, &st.Teams, &st.Players, &st.Referees, &st.Seasons)
	if err != nil {
		return store.Stats{}, fmt.Errorf("stats: %w", err)
	}
	return st, nil
}

var _ store.Gateway = (*Store)(nil)
