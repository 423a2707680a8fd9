// Package memory provides an in-memory store gateway for development and
// tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/vbstat/volleycrawl/internal/record"
	"github.com/vbstat/volleycrawl/internal/store"
)

type nativeKey struct {
	src record.Source
	id  int64
}

// Store implements store.Gateway with mutex-guarded maps.
type Store struct {
	mu sync.RWMutex

	nextID int64

	teams       map[int64]record.Team
	teamIndex   map[nativeKey]int64
	players     map[int64]record.Player
	playerIndex map[nativeKey]int64 // native id -> canonical player id
	referees    map[int64]record.Referee
	refIndex    map[nativeKey]int64
	matches     map[int64]record.Match
	matchIndex  map[nativeKey]int64
	seasons     map[int64]record.Season

	bestPlayers map[int64][]record.BestPlayer      // match id -> rows
	stats       map[int64][]record.PlayerMatchStat // match id -> rows
	rosters     map[int64]record.RosterEntry       // roster native id << 20 | player id
}

// New constructs an empty Store.
func New() *Store {
	return &Store{
		teams:       make(map[int64]record.Team),
		teamIndex:   make(map[nativeKey]int64),
		players:     make(map[int64]record.Player),
		playerIndex: make(map[nativeKey]int64),
		referees:    make(map[int64]record.Referee),
		refIndex:    make(map[nativeKey]int64),
		matches:     make(map[int64]record.Match),
		matchIndex:  make(map[nativeKey]int64),
		seasons:     make(map[int64]record.Season),
		bestPlayers: make(map[int64][]record.BestPlayer),
		stats:       make(map[int64][]record.PlayerMatchStat),
		rosters:     make(map[int64]record.RosterEntry),
	}
}

func (s *Store) allocID() int64 {
	s.nextID++
	return s.nextID
}

// UpsertTeam inserts or rewrites a team keyed by (source, native id).
func (s *Store) UpsertTeam(_ context.Context, t record.Team) (record.Team, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := nativeKey{t.Source, t.NativeID}
	if id, ok := s.teamIndex[key]; ok {
		t.ID = id
	} else {
		t.ID = s.allocID()
		s.teamIndex[key] = t.ID
	}
	s.teams[t.ID] = t
	return t, nil
}

// FindTeamByNativeID looks a team up by its source identifier.
func (s *Store) FindTeamByNativeID(_ context.Context, src record.Source, nativeID int64) (record.Team, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if id, ok := s.teamIndex[nativeKey{src, nativeID}]; ok {
		return s.teams[id], true, nil
	}
	return record.Team{}, false, nil
}

// InsertPlayer stores a new canonical player and indexes its native ids.
func (s *Store) InsertPlayer(_ context.Context, p record.Player) (record.Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.ID = s.allocID()
	s.players[p.ID] = p
	for _, nid := range p.NativeIDs {
		s.playerIndex[nativeKey{p.Source, nid}] = p.ID
	}
	return p, nil
}

// UpdatePlayer rewrites an existing player record and refreshes the
// native-id index.
func (s *Store) UpdatePlayer(_ context.Context, p record.Player) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.players[p.ID]; !ok {
		return fmt.Errorf("player %d not found", p.ID)
	}
	s.players[p.ID] = p
	for _, nid := range p.NativeIDs {
		s.playerIndex[nativeKey{p.Source, nid}] = p.ID
	}
	return nil
}

// GetPlayer returns a player by its canonical store id.
func (s *Store) GetPlayer(_ context.Context, id int64) (record.Player, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.players[id]
	return p, ok, nil
}

// FindPlayerByNativeID resolves a native id to its canonical player.
func (s *Store) FindPlayerByNativeID(_ context.Context, src record.Source, nativeID int64) (record.Player, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if id, ok := s.playerIndex[nativeKey{src, nativeID}]; ok {
		return s.players[id], true, nil
	}
	return record.Player{}, false, nil
}

// FindPlayersByKey returns canonical players matching the normalized name key
// and exact birth date.
func (s *Store) FindPlayersByKey(_ context.Context, src record.Source, nameKey, birthDate string) ([]record.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []record.Player
	for _, p := range s.players {
		if p.Source != src || !p.Canonical() {
			continue
		}
		if p.Name.Key() == nameKey && p.BirthDate == birthDate {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// ListPlayers returns every player for a source, aliases included.
func (s *Store) ListPlayers(_ context.Context, src record.Source) ([]record.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []record.Player
	for _, p := range s.players {
		if p.Source == src {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// CountPlayerStats counts stat rows referencing a player.
func (s *Store) CountPlayerStats(_ context.Context, playerID int64) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, rows := range s.stats {
		for _, st := range rows {
			if st.PlayerID == playerID {
				n++
			}
		}
	}
	return n, nil
}

// RepointPlayerRefs moves best-player and stat rows from one player to
// another, dropping stat rows that would duplicate an existing
// (match, player) pair.
func (s *Store) RepointPlayerRefs(_ context.Context, fromID, toID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for matchID, rows := range s.bestPlayers {
		for i := range rows {
			if rows[i].PlayerID == fromID {
				rows[i].PlayerID = toID
			}
		}
		s.bestPlayers[matchID] = rows
	}
	for matchID, rows := range s.stats {
		hasTarget := hasStatFor(rows, toID)
		kept := make([]record.PlayerMatchStat, 0, len(rows))
		for _, st := range rows {
			if st.PlayerID == fromID {
				if hasTarget {
					continue
				}
				st.PlayerID = toID
			}
			kept = append(kept, st)
		}
		s.stats[matchID] = kept
	}
	for key, e := range s.rosters {
		if e.PlayerID == fromID {
			e.PlayerID = toID
			s.rosters[key] = e
		}
	}
	return nil
}

func hasStatFor(rows []record.PlayerMatchStat, playerID int64) bool {
	for _, st := range rows {
		if st.PlayerID == playerID {
			return true
		}
	}
	return false
}

// MarkPlayerAlias records that loser has been merged into winner. The loser
// record is kept, its native ids now resolve to the winner.
func (s *Store) MarkPlayerAlias(_ context.Context, loserID, winnerID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	loser, ok := s.players[loserID]
	if !ok {
		return fmt.Errorf("player %d not found", loserID)
	}
	loser.AliasOf = winnerID
	s.players[loserID] = loser
	for _, nid := range loser.NativeIDs {
		s.playerIndex[nativeKey{loser.Source, nid}] = winnerID
	}
	return nil
}

// UpsertReferee inserts or rewrites a referee keyed by (source, native id).
func (s *Store) UpsertReferee(_ context.Context, r record.Referee) (record.Referee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := nativeKey{r.Source, r.NativeID}
	if id, ok := s.refIndex[key]; ok {
		r.ID = id
	} else {
		r.ID = s.allocID()
		s.refIndex[key] = r.ID
	}
	s.referees[r.ID] = r
	return r, nil
}

// UpsertMatch inserts or rewrites a match keyed by (source, native id).
func (s *Store) UpsertMatch(_ context.Context, m record.Match) (record.Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := nativeKey{m.Source, m.NativeID}
	if id, ok := s.matchIndex[key]; ok {
		m.ID = id
	} else {
		m.ID = s.allocID()
		s.matchIndex[key] = m.ID
	}
	s.matches[m.ID] = m
	return m, nil
}

// FindMatchByNativeID looks a match up by its source identifier.
func (s *Store) FindMatchByNativeID(_ context.Context, src record.Source, nativeID int64) (record.Match, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if id, ok := s.matchIndex[nativeKey{src, nativeID}]; ok {
		return s.matches[id], true, nil
	}
	return record.Match{}, false, nil
}

// MaxMatchNativeID returns the highest native match id seen for a source,
// zero when none exist.
func (s *Store) MaxMatchNativeID(_ context.Context, src record.Source) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var max int64
	for key := range s.matchIndex {
		if key.src == src && key.id > max {
			max = key.id
		}
	}
	return max, nil
}

// KnownMatchNativeIDs returns the set of native match ids already stored for
// a source, optionally restricted to one season.
func (s *Store) KnownMatchNativeIDs(_ context.Context, src record.Source, seasonID int64) (map[int64]bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[int64]bool)
	for _, m := range s.matches {
		if m.Source != src {
			continue
		}
		if seasonID != 0 && m.SeasonID != seasonID {
			continue
		}
		out[m.NativeID] = true
	}
	return out, nil
}

// ReplaceBestPlayers rewrites the best-player rows for a match.
func (s *Store) ReplaceBestPlayers(_ context.Context, matchID int64, bps []record.BestPlayer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bestPlayers[matchID] = append([]record.BestPlayer(nil), bps...)
	return nil
}

// ListBestPlayers returns the best-player rows for a match.
func (s *Store) ListBestPlayers(_ context.Context, matchID int64) ([]record.BestPlayer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]record.BestPlayer(nil), s.bestPlayers[matchID]...), nil
}

// ReplacePlayerStats rewrites the stat rows for a match.
func (s *Store) ReplacePlayerStats(_ context.Context, matchID int64, stats []record.PlayerMatchStat) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats[matchID] = append([]record.PlayerMatchStat(nil), stats...)
	return nil
}

// ListPlayerStats returns the stat rows for a match.
func (s *Store) ListPlayerStats(_ context.Context, matchID int64) ([]record.PlayerMatchStat, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]record.PlayerMatchStat(nil), s.stats[matchID]...), nil
}

// UpsertRosterEntry inserts or rewrites a roster membership row keyed by
// (roster native id, player).
func (s *Store) UpsertRosterEntry(_ context.Context, e record.RosterEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rosters[e.RosterNativeID<<20|e.PlayerID] = e
	return nil
}

// UpsertSeason inserts or rewrites a season keyed by its ordinal number.
func (s *Store) UpsertSeason(_ context.Context, season record.Season) (record.Season, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, existing := range s.seasons {
		if existing.Number == season.Number {
			season.ID = id
			s.seasons[id] = season
			return season, nil
		}
	}
	season.ID = s.allocID()
	s.seasons[season.ID] = season
	return season, nil
}

// LatestSeason returns the season with the highest ordinal number.
func (s *Store) LatestSeason(_ context.Context) (record.Season, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var latest record.Season
	found := false
	for _, season := range s.seasons {
		if !found || season.Number > latest.Number {
			latest = season
			found = true
		}
	}
	return latest, found, nil
}

// SeasonPlayerNativeIDs returns the native ids of every player with a stat
// row in a season's matches.
func (s *Store) SeasonPlayerNativeIDs(_ context.Context, seasonID int64) ([]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := make(map[int64]bool)
	var out []int64
	for matchID, rows := range s.stats {
		m, ok := s.matches[matchID]
		if !ok || m.SeasonID != seasonID {
			continue
		}
		for _, st := range rows {
			p, ok := s.players[st.PlayerID]
			if !ok {
				continue
			}
			for _, nid := range p.NativeIDs {
				if !seen[nid] {
					seen[nid] = true
					out = append(out, nid)
				}
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

// Stats reports record counts.
func (s *Store) Stats(_ context.Context) (store.Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return store.Stats{
		Matches:  len(s.matches),
		Teams:    len(s.teams),
		Players:  len(s.players),
		Referees: len(s.referees),
		Seasons:  len(s.seasons),
	}, nil
}

var _ store.Gateway = (*Store)(nil)
