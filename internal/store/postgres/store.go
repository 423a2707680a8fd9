// Package postgres provides the store gateway backed by a PostgreSQL pool,
// for deployments where the records outlive a single host.
package postgres

import (
	"context"
	_ "embed"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vbstat/volleycrawl/internal/record"
	"github.com/vbstat/volleycrawl/internal/store"
)

//go:embed schema.sql
var schema string

// DB is the pool surface the store needs; pgxpool.Pool satisfies it, as do
// test doubles.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Store implements store.Gateway on PostgreSQL.
type Store struct {
	db DB
}

// New wraps an existing pool.
func New(db DB) *Store { return &Store{db: db} }

// Connect opens a pool for the DSN and applies the schema.
func Connect(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres ping: %w", err)
	}
	s := &Store{db: pool}
	if err := s.Migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// Migrate applies the embedded schema. Every statement is idempotent.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("postgres schema: %w", err)
	}
	return nil
}

// Close releases the pool when the store owns one.
func (s *Store) Close() {
	if pool, ok := s.db.(*pgxpool.Pool); ok {
		pool.Close()
	}
}

// UpsertTeam inserts or rewrites a team keyed by (source, native id).
func (s *Store) UpsertTeam(ctx context.Context, t record.Team) (record.Team, error) {
	err := s.db.QueryRow(ctx, `
		INSERT INTO teams (source, native_id, name, logo_url, women)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (source, native_id) DO UPDATE SET
			name = EXCLUDED.name,
			logo_url = EXCLUDED.logo_url,
			women = COALESCE(EXCLUDED.women, teams.women)
		RETURNING id`,
		string(t.Source), t.NativeID, t.Name, t.LogoURL, t.Women,
	).Scan(&t.ID)
	if err != nil {
		return record.Team{}, fmt.Errorf("upsert team: %w", err)
	}
	return t, nil
}

// FindTeamByNativeID looks a team up by its source identifier.
func (s *Store) FindTeamByNativeID(ctx context.Context, src record.Source, nativeID int64) (record.Team, bool, error) {
	var t record.Team
	var source string
	err := s.db.QueryRow(ctx, `
		SELECT id, source, native_id, name, logo_url, women
		FROM teams WHERE source = $1 AND native_id = $2`,
		string(src), nativeID,
	).Scan(&t.ID, &source, &t.NativeID, &t.Name, &t.LogoURL, &t.Women)
	if errors.Is(err, pgx.ErrNoRows) {
		return record.Team{}, false, nil
	}
	if err != nil {
		return record.Team{}, false, fmt.Errorf("find team: %w", err)
	}
	t.Source = record.Source(source)
	return t, true, nil
}

// InsertPlayer stores a new canonical player and indexes its native ids.
func (s *Store) InsertPlayer(ctx context.Context, p record.Player) (record.Player, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return record.Player{}, err
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx, `
		INSERT INTO players
			(source, native_ids, last_name, first_name, patronymic, name_key,
			 birth_date, birth_year, height, weight, position, photo_url, alias_of)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id`,
		string(p.Source), p.NativeIDs,
		p.Name.Last, p.Name.First, p.Name.Patronymic, p.Name.Key(),
		p.BirthDate, p.BirthYear, p.Height, p.Weight,
		p.Position, p.PhotoURL, p.AliasOf,
	).Scan(&p.ID)
	if err != nil {
		return record.Player{}, fmt.Errorf("insert player: %w", err)
	}
	if err := indexNativeIDs(ctx, tx, p); err != nil {
		return record.Player{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return record.Player{}, err
	}
	return p, nil
}

// UpdatePlayer rewrites an existing player record and refreshes the
// native-id index.
func (s *Store) UpdatePlayer(ctx context.Context, p record.Player) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		UPDATE players SET
			native_ids = $1, last_name = $2, first_name = $3, patronymic = $4,
			name_key = $5, birth_date = $6, birth_year = $7, height = $8,
			weight = $9, position = $10, photo_url = $11, alias_of = $12
		WHERE id = $13`,
		p.NativeIDs, p.Name.Last, p.Name.First, p.Name.Patronymic,
		p.Name.Key(), p.BirthDate, p.BirthYear, p.Height,
		p.Weight, p.Position, p.PhotoURL, p.AliasOf, p.ID,
	)
	if err != nil {
		return fmt.Errorf("update player: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("player %d not found", p.ID)
	}
	if err := indexNativeIDs(ctx, tx, p); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func indexNativeIDs(ctx context.Context, tx pgx.Tx, p record.Player) error {
	for _, nid := range p.NativeIDs {
		_, err := tx.Exec(ctx, `
			INSERT INTO player_native_ids (source, native_id, player_id)
			VALUES ($1, $2, $3)
			ON CONFLICT (source, native_id) DO UPDATE SET player_id = EXCLUDED.player_id`,
			string(p.Source), nid, p.ID,
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

func scanPlayer(row pgx.Row) (record.Player, error) {
	var p record.Player
	var source string
	err := row.Scan(&p.ID, &source, &p.NativeIDs,
		&p.Name.Last, &p.Name.First, &p.Name.Patronymic,
		&p.BirthDate, &p.BirthYear, &p.Height, &p.Weight,
		&p.Position, &p.PhotoURL, &p.AliasOf)
	if err != nil {
		return record.Player{}, err
	}
	p.Source = record.Source(source)
	return p, nil
}

// GetPlayer returns a player by its canonical store id.
func (s *Store) GetPlayer(ctx context.Context, id int64) (record.Player, bool, error) {
	p, err := scanPlayer(s.db.QueryRow(ctx,
		`SELECT `+playerColumns+` FROM players WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return record.Player{}, false, nil
	}
	if err != nil {
		return record.Player{}, false, fmt.Errorf("get player: %w", err)
	}
	return p, true, nil
}

// FindPlayerByNativeID resolves a native id to its canonical player.
func (s *Store) FindPlayerByNativeID(ctx context.Context, src record.Source, nativeID int64) (record.Player, bool, error) {
	p, err := scanPlayer(s.db.QueryRow(ctx, `
		SELECT `+playerColumns+` FROM players
		WHERE id = (SELECT player_id FROM player_native_ids WHERE source = $1 AND native_id = $2)`,
		string(src), nativeID))
	if errors.Is(err, pgx.ErrNoRows) {
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
	rows, err := s.db.Query(ctx, `
		SELECT `+playerColumns+` FROM players
		WHERE source = $1 AND name_key = $2 AND birth_date = $3 AND alias_of = 0
		ORDER BY id`,
		string(src), nameKey, birthDate)
	if err != nil {
		return nil, fmt.Errorf("find players by key: %w", err)
	}
	defer rows.Close()
	return collectPlayers(rows)
}

// ListPlayers returns every player for a source, aliases included.
func (s *Store) ListPlayers(ctx context.Context, src record.Source) ([]record.Player, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+playerColumns+` FROM players WHERE source = $1 ORDER BY id`,
		string(src))
	if err != nil {
		return nil, fmt.Errorf("list players: %w", err)
	}
	defer rows.Close()
	return collectPlayers(rows)
}

func collectPlayers(rows pgx.Rows) ([]record.Player, error) {
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
	err := s.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM player_stats WHERE player_id = $1`, playerID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count player stats: %w", err)
	}
	return n, nil
}

// RepointPlayerRefs moves best-player, stat and roster rows from one player
// to another, dropping rows that would collide with one the target already
// owns.
func (s *Store) RepointPlayerRefs(ctx context.Context, fromID, toID int64) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	steps := []string{
		`UPDATE best_players SET player_id = $1 WHERE player_id = $2`,
		`DELETE FROM player_stats WHERE player_id = $2 AND match_id IN
			(SELECT match_id FROM player_stats WHERE player_id = $1)`,
		`UPDATE player_stats SET player_id = $1 WHERE player_id = $2`,
		`DELETE FROM roster_entries WHERE player_id = $2 AND roster_native_id IN
			(SELECT roster_native_id FROM roster_entries WHERE player_id = $1)`,
		`UPDATE roster_entries SET player_id = $1 WHERE player_id = $2`,
	}
	for _, q := range steps {
		if _, err := tx.Exec(ctx, q, toID, fromID); err != nil {
			return fmt.Errorf("repoint player refs: %w", err)
		}
	}
	return tx.Commit(ctx)
}

// MarkPlayerAlias records that loser has been merged into winner. The loser
// row is kept, its native ids now resolve to the winner.
func (s *Store) MarkPlayerAlias(ctx context.Context, loserID, winnerID int64) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`UPDATE players SET alias_of = $1 WHERE id = $2`, winnerID, loserID)
	if err != nil {
		return fmt.Errorf("mark alias: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("player %d not found", loserID)
	}
	if _, err := tx.Exec(ctx,
		`UPDATE player_native_ids SET player_id = $1 WHERE player_id = $2`,
		winnerID, loserID); err != nil {
		return fmt.Errorf("mark alias: %w", err)
	}
	return tx.Commit(ctx)
}

// UpsertReferee inserts or rewrites a referee keyed by (source, native id).
func (s *Store) UpsertReferee(ctx context.Context, r record.Referee) (record.Referee, error) {
	err := s.db.QueryRow(ctx, `
		INSERT INTO referees (source, native_id, last_name, first_name, patronymic, photo_url)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (source, native_id) DO UPDATE SET
			last_name = EXCLUDED.last_name,
			first_name = EXCLUDED.first_name,
			patronymic = EXCLUDED.patronymic,
			photo_url = EXCLUDED.photo_url
		RETURNING id`,
		string(r.Source), r.NativeID, r.Name.Last, r.Name.First, r.Name.Patronymic, r.PhotoURL,
	).Scan(&r.ID)
	if err != nil {
		return record.Referee{}, fmt.Errorf("upsert referee: %w", err)
	}
	return r, nil
}

// UpsertMatch inserts or rewrites a match keyed by (source, native id).
func (s *Store) UpsertMatch(ctx context.Context, m record.Match) (record.Match, error) {
	err := s.db.QueryRow(ctx, `
		INSERT INTO matches
			(source, native_id, kickoff_at, venue, home_team_id, away_team_id,
			 home_score, away_score, set_scores, home_total_points, away_total_points,
			 status, tournament_path, division_name, round_name, tournament_type,
			 season_id, referee_id, referee_name, referee_rating_home,
			 referee_rating_away, referee_rating_home_text, referee_rating_away_text,
			 parsed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
			$15, $16, $17, $18, $19, $20, $21, $22, $23, $24)
		ON CONFLICT (source, native_id) DO UPDATE SET
			kickoff_at = EXCLUDED.kickoff_at,
			venue = EXCLUDED.venue,
			home_team_id = EXCLUDED.home_team_id,
			away_team_id = EXCLUDED.away_team_id,
			home_score = EXCLUDED.home_score,
			away_score = EXCLUDED.away_score,
			set_scores = EXCLUDED.set_scores,
			home_total_points = EXCLUDED.home_total_points,
			away_total_points = EXCLUDED.away_total_points,
			status = EXCLUDED.status,
			tournament_path = EXCLUDED.tournament_path,
			division_name = EXCLUDED.division_name,
			round_name = EXCLUDED.round_name,
			tournament_type = EXCLUDED.tournament_type,
			season_id = EXCLUDED.season_id,
			referee_id = EXCLUDED.referee_id,
			referee_name = EXCLUDED.referee_name,
			referee_rating_home = EXCLUDED.referee_rating_home,
			referee_rating_away = EXCLUDED.referee_rating_away,
			referee_rating_home_text = EXCLUDED.referee_rating_home_text,
			referee_rating_away_text = EXCLUDED.referee_rating_away_text,
			parsed_at = EXCLUDED.parsed_at
		RETURNING id`,
		string(m.Source), m.NativeID, m.KickoffAt, m.Venue,
		m.HomeTeamID, m.AwayTeamID,
		m.HomeScore, m.AwayScore, m.SetScores,
		m.HomeTotalPoints, m.AwayTotalPoints,
		string(m.Status), m.TournamentPath, m.DivisionName, m.RoundName,
		m.TournamentType, m.SeasonID, m.RefereeID, m.RefereeName,
		m.RefereeRatingHome, m.RefereeRatingAway,
		m.RefereeRatingHomeText, m.RefereeRatingAwayText,
		m.ParsedAt,
	).Scan(&m.ID)
	if err != nil {
		return record.Match{}, fmt.Errorf("upsert match: %w", err)
	}
	return m, nil
}

// FindMatchByNativeID looks a match up by its source identifier.
func (s *Store) FindMatchByNativeID(ctx context.Context, src record.Source, nativeID int64) (record.Match, bool, error) {
	var m record.Match
	var source, status string
	err := s.db.QueryRow(ctx, `
		SELECT id, source, native_id, kickoff_at, venue, home_team_id,
			away_team_id, home_score, away_score, set_scores,
			home_total_points, away_total_points, status, tournament_path,
			division_name, round_name, tournament_type, season_id, referee_id,
			referee_name, referee_rating_home, referee_rating_away,
			referee_rating_home_text, referee_rating_away_text, parsed_at
		FROM matches WHERE source = $1 AND native_id = $2`,
		string(src), nativeID,
	).Scan(&m.ID, &source, &m.NativeID, &m.KickoffAt, &m.Venue, &m.HomeTeamID,
		&m.AwayTeamID, &m.HomeScore, &m.AwayScore, &m.SetScores,
		&m.HomeTotalPoints, &m.AwayTotalPoints, &status, &m.TournamentPath,
		&m.DivisionName, &m.RoundName, &m.TournamentType, &m.SeasonID,
		&m.RefereeID, &m.RefereeName, &m.RefereeRatingHome, &m.RefereeRatingAway,
		&m.RefereeRatingHomeText, &m.RefereeRatingAwayText, &m.ParsedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return record.Match{}, false, nil
	}
	if err != nil {
		return record.Match{}, false, fmt.Errorf("find match: %w", err)
	}
	m.Source = record.Source(source)
	m.Status = record.MatchStatus(status)
	return m, true, nil
}

// MaxMatchNativeID returns the highest native match id seen for a source,
// zero when none exist.
func (s *Store) MaxMatchNativeID(ctx context.Context, src record.Source) (int64, error) {
	var max int64
	err := s.db.QueryRow(ctx,
		`SELECT COALESCE(MAX(native_id), 0) FROM matches WHERE source = $1`,
		string(src)).Scan(&max)
	if err != nil {
		return 0, fmt.Errorf("max match native id: %w", err)
	}
	return max, nil
}

// KnownMatchNativeIDs returns the set of native match ids already stored for
// a source, optionally restricted to one season.
func (s *Store) KnownMatchNativeIDs(ctx context.Context, src record.Source, seasonID int64) (map[int64]bool, error) {
	rows, err := s.db.Query(ctx, `
		SELECT native_id FROM matches
		WHERE source = $1 AND ($2 = 0 OR season_id = $2)`,
		string(src), seasonID)
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
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`DELETE FROM best_players WHERE match_id = $1`, matchID); err != nil {
		return fmt.Errorf("replace best players: %w", err)
	}
	for _, bp := range bps {
		if _, err := tx.Exec(ctx, `
			INSERT INTO best_players (match_id, team_id, player_id, player_name)
			VALUES ($1, $2, $3, $4)`,
			matchID, bp.TeamID, bp.PlayerID, bp.PlayerName); err != nil {
			return fmt.Errorf("replace best players: %w", err)
		}
	}
	return tx.Commit(ctx)
}

// ListBestPlayers returns the best-player rows for a match.
func (s *Store) ListBestPlayers(ctx context.Context, matchID int64) ([]record.BestPlayer, error) {
	rows, err := s.db.Query(ctx, `
		SELECT match_id, team_id, player_id, player_name
		FROM best_players WHERE match_id = $1`, matchID)
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
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`DELETE FROM player_stats WHERE match_id = $1`, matchID); err != nil {
		return fmt.Errorf("replace player stats: %w", err)
	}
	for _, st := range stats {
		if _, err := tx.Exec(ctx, `
			INSERT INTO player_stats
				(match_id, player_id, team_id, jersey_number, points, attacks, serves, blocks)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			matchID, st.PlayerID, st.TeamID, st.JerseyNumber,
			st.Points, st.Attacks, st.Serves, st.Blocks); err != nil {
			return fmt.Errorf("replace player stats: %w", err)
		}
	}
	return tx.Commit(ctx)
}

// ListPlayerStats returns the stat rows for a match.
func (s *Store) ListPlayerStats(ctx context.Context, matchID int64) ([]record.PlayerMatchStat, error) {
	rows, err := s.db.Query(ctx, `
		SELECT match_id, player_id, team_id, jersey_number, points, attacks, serves, blocks
		FROM player_stats WHERE match_id = $1`, matchID)
	if err != nil {
		return nil, fmt.Errorf("list player stats: %w", err)
	}
	defer rows.Close()

	var out []record.PlayerMatchStat
	for rows.Next() {
		var st record.PlayerMatchStat
		if err := rows.Scan(&st.MatchID, &st.PlayerID, &st.TeamID,
			&st.JerseyNumber, &st.Points, &st.Attacks, &st.Serves, &st.Blocks); err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

// UpsertRosterEntry inserts or rewrites a roster membership row keyed by
// (roster native id, player).
func (s *Store) UpsertRosterEntry(ctx context.Context, e record.RosterEntry) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO roster_entries (roster_native_id, team_id, player_id, jersey_number)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (roster_native_id, player_id) DO UPDATE SET
			team_id = EXCLUDED.team_id,
			jersey_number = EXCLUDED.jersey_number`,
		e.RosterNativeID, e.TeamID, e.PlayerID, e.JerseyNumber)
	if err != nil {
		return fmt.Errorf("upsert roster entry: %w", err)
	}
	return nil
}

// UpsertSeason inserts or rewrites a season keyed by its ordinal number.
func (s *Store) UpsertSeason(ctx context.Context, season record.Season) (record.Season, error) {
	err := s.db.QueryRow(ctx, `
		INSERT INTO seasons (number, label) VALUES ($1, $2)
		ON CONFLICT (number) DO UPDATE SET label = EXCLUDED.label
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
	err := s.db.QueryRow(ctx,
		`SELECT id, number, label FROM seasons ORDER BY number DESC LIMIT 1`,
	).Scan(&season.ID, &season.Number, &season.Label)
	if errors.Is(err, pgx.ErrNoRows) {
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
	rows, err := s.db.Query(ctx, `
		SELECT DISTINCT pni.native_id
		FROM player_stats ps
		JOIN matches m ON m.id = ps.match_id
		JOIN player_native_ids pni ON pni.player_id = ps.player_id
		WHERE m.season_id = $1
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
	err := s.db.QueryRow(ctx, `
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
