// Package resolve maintains canonical player identity across native ids.
// A player legitimately collects several native ids on the bcl source (one
// per team affiliation change); this package decides when two records are the
// same person and folds them together. Records are never deleted: a merged
// loser stays in place, marked as an alias of the winner.
package resolve

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/vbstat/volleycrawl/internal/record"
	"github.com/vbstat/volleycrawl/internal/store"
)

// ErrAmbiguousMerge marks a duplicate group that cannot be merged safely:
// the names collide but birth dates are missing or conflict.
var ErrAmbiguousMerge = errors.New("ambiguous duplicate group")

// Finding describes one group the batch pass refused to merge.
type Finding struct {
	NameKey    string   `json:"name_key"`
	PlayerIDs  []int64  `json:"player_ids"`
	BirthDates []string `json:"birth_dates"`
}

// Report summarizes a MergeAll pass.
type Report struct {
	Groups    int       `json:"groups"`
	Merged    int       `json:"merged"`
	Ambiguous []Finding `json:"ambiguous,omitempty"`
}

// Resolver resolves page-level player candidates to canonical records.
type Resolver struct {
	store store.Gateway
	log   *zap.Logger
}

// New builds a Resolver over the given gateway.
func New(gw store.Gateway, log *zap.Logger) *Resolver {
	if log == nil {
		log = zap.NewNop()
	}
	return &Resolver{store: gw, log: log}
}

// Resolve finds or creates the canonical player for a candidate observed on
// a page. Matching order: exact native id first, then normalized full name
// plus birth date. A candidate without a birth date matches on native id
// only; a bare name is never enough to unify two records. The second return
// reports whether a new record was created.
func (r *Resolver) Resolve(ctx context.Context, cand record.Player) (record.Player, bool, error) {
	if len(cand.NativeIDs) == 0 {
		return record.Player{}, false, fmt.Errorf("resolve: candidate has no native id")
	}

	for _, nid := range cand.NativeIDs {
		existing, ok, err := r.store.FindPlayerByNativeID(ctx, cand.Source, nid)
		if err != nil {
			return record.Player{}, false, fmt.Errorf("resolve: find by native id: %w", err)
		}
		if ok {
			merged, changed := foldCandidate(existing, cand)
			if changed {
				if err := r.store.UpdatePlayer(ctx, merged); err != nil {
					return record.Player{}, false, fmt.Errorf("resolve: update player: %w", err)
				}
			}
			return merged, false, nil
		}
	}

	if cand.BirthDate != "" {
		key := cand.Name.Key()
		matches, err := r.store.FindPlayersByKey(ctx, cand.Source, key, cand.BirthDate)
		if err != nil {
			return record.Player{}, false, fmt.Errorf("resolve: find by key: %w", err)
		}
		switch len(matches) {
		case 0:
			// Fall through to insert.
		case 1:
			merged, _ := foldCandidate(matches[0], cand)
			if err := r.store.UpdatePlayer(ctx, merged); err != nil {
				return record.Player{}, false, fmt.Errorf("resolve: attach native id: %w", err)
			}
			return merged, false, nil
		default:
			// The key itself is already duplicated in the store. Attaching the
			// candidate to either record would guess; create a fresh one and
			// leave the group for the batch merge to report.
			r.log.Warn("ambiguous player key, creating new record",
				zap.String("source", string(cand.Source)),
				zap.String("name", key),
				zap.String("birth_date", cand.BirthDate),
				zap.Int("matches", len(matches)))
		}
	}

	created, err := r.store.InsertPlayer(ctx, cand)
	if err != nil {
		return record.Player{}, false, fmt.Errorf("resolve: insert player: %w", err)
	}
	return created, true, nil
}

// Merge folds the loser players into the winner: foreign keys repointed,
// missing bio filled, native ids moved, losers marked as aliases. Calling it
// again with the same arguments is a no-op. A loser whose birth date
// contradicts the winner's is refused with ErrAmbiguousMerge.
func (r *Resolver) Merge(ctx context.Context, winnerID int64, loserIDs ...int64) error {
	winner, ok, err := r.store.GetPlayer(ctx, winnerID)
	if err != nil {
		return fmt.Errorf("merge: load winner %d: %w", winnerID, err)
	}
	if !ok {
		return fmt.Errorf("merge: winner %d not found", winnerID)
	}
	if !winner.Canonical() {
		return fmt.Errorf("merge: winner %d is itself an alias of %d", winnerID, winner.AliasOf)
	}

	changed := false
	for _, loserID := range loserIDs {
		if loserID == winnerID {
			continue
		}
		loser, ok, err := r.store.GetPlayer(ctx, loserID)
		if err != nil {
			return fmt.Errorf("merge: load loser %d: %w", loserID, err)
		}
		if !ok {
			return fmt.Errorf("merge: loser %d not found", loserID)
		}
		if !loser.Canonical() {
			continue // already merged
		}
		if loser.BirthDate != "" && winner.BirthDate != "" && loser.BirthDate != winner.BirthDate {
			return fmt.Errorf("merge: %d (%s) and %d (%s) disagree on birth date: %w",
				winnerID, winner.BirthDate, loserID, loser.BirthDate, ErrAmbiguousMerge)
		}

		if err := r.store.RepointPlayerRefs(ctx, loserID, winnerID); err != nil {
			return fmt.Errorf("merge: repoint refs %d -> %d: %w", loserID, winnerID, err)
		}

		winner = foldBio(winner, loser)
		winner.NativeIDs = unionIDs(winner.NativeIDs, loser.NativeIDs)
		changed = true

		if err := r.store.MarkPlayerAlias(ctx, loserID, winnerID); err != nil {
			return fmt.Errorf("merge: mark alias %d -> %d: %w", loserID, winnerID, err)
		}
		r.log.Info("merged duplicate player",
			zap.Int64("winner", winnerID),
			zap.Int64("loser", loserID),
			zap.String("name", winner.Name.Full()))
	}

	if changed {
		if err := r.store.UpdatePlayer(ctx, winner); err != nil {
			return fmt.Errorf("merge: update winner %d: %w", winnerID, err)
		}
	}
	return nil
}

// MergeAll scans a source for duplicate players and merges each safe group.
// A group is safe when every member shares the same non-empty birth date;
// the member with the most stat rows wins (lowest id on ties). Name groups
// with a missing or conflicting birth date are reported, never merged across
// dates. With dryRun set, nothing is written.
func (r *Resolver) MergeAll(ctx context.Context, src record.Source, dryRun bool) (Report, error) {
	players, err := r.store.ListPlayers(ctx, src)
	if err != nil {
		return Report{}, fmt.Errorf("merge all: list players: %w", err)
	}

	byName := make(map[string][]record.Player)
	for _, p := range players {
		if !p.Canonical() {
			continue
		}
		key := p.Name.Key()
		if key == "" {
			continue
		}
		byName[key] = append(byName[key], p)
	}

	var report Report
	names := make([]string, 0, len(byName))
	for name := range byName {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		group := byName[name]
		if len(group) < 2 {
			continue
		}

		byDate := make(map[string][]record.Player)
		for _, p := range group {
			byDate[p.BirthDate] = append(byDate[p.BirthDate], p)
		}

		// A missing birth date poisons the whole name group: any member
		// could be the dateless one.
		if len(byDate[""]) > 0 {
			report.Ambiguous = append(report.Ambiguous, newFinding(name, group))
			continue
		}

		// Members that disagree on birth date are probably different people,
		// but the collision still needs eyes on it. Report the group; merging
		// proceeds within each date.
		if len(byDate) > 1 {
			report.Ambiguous = append(report.Ambiguous, newFinding(name, group))
		}

		for _, dupes := range byDate {
			if len(dupes) < 2 {
				continue
			}
			report.Groups++

			winner, err := r.pickWinner(ctx, dupes)
			if err != nil {
				return report, err
			}
			var losers []int64
			for _, p := range dupes {
				if p.ID != winner.ID {
					losers = append(losers, p.ID)
				}
			}
			if dryRun {
				r.log.Info("would merge duplicate group",
					zap.String("name", name),
					zap.Int64("winner", winner.ID),
					zap.Int64s("losers", losers))
				report.Merged += len(losers)
				continue
			}
			if err := r.Merge(ctx, winner.ID, losers...); err != nil {
				return report, err
			}
			report.Merged += len(losers)
		}
	}
	return report, nil
}

// pickWinner chooses the group member with the most stat rows; ties go to
// the oldest record.
func (r *Resolver) pickWinner(ctx context.Context, group []record.Player) (record.Player, error) {
	winner := group[0]
	best := -1
	for _, p := range group {
		n, err := r.store.CountPlayerStats(ctx, p.ID)
		if err != nil {
			return record.Player{}, fmt.Errorf("merge all: count stats for %d: %w", p.ID, err)
		}
		if n > best || (n == best && p.ID < winner.ID) {
			winner, best = p, n
		}
	}
	return winner, nil
}

func newFinding(nameKey string, group []record.Player) Finding {
	f := Finding{NameKey: nameKey}
	for _, p := range group {
		f.PlayerIDs = append(f.PlayerIDs, p.ID)
		f.BirthDates = append(f.BirthDates, p.BirthDate)
	}
	return f
}

// foldCandidate merges a page candidate into an existing record: fill what
// is missing, collect new native ids, keep existing values otherwise.
func foldCandidate(existing, cand record.Player) (record.Player, bool) {
	before := existing
	existing = foldBio(existing, cand)
	existing.NativeIDs = unionIDs(existing.NativeIDs, cand.NativeIDs)
	changed := len(existing.NativeIDs) != len(before.NativeIDs) || !bioEqual(before, existing)
	return existing, changed
}

func foldBio(dst, src record.Player) record.Player {
	if dst.BirthDate == "" {
		dst.BirthDate = src.BirthDate
	}
	if dst.BirthYear == nil {
		dst.BirthYear = src.BirthYear
	}
	if dst.Height == nil {
		dst.Height = src.Height
	}
	if dst.Weight == nil {
		dst.Weight = src.Weight
	}
	if dst.Position == "" {
		dst.Position = src.Position
	}
	if dst.PhotoURL == "" {
		dst.PhotoURL = src.PhotoURL
	}
	if dst.Name.Patronymic == "" {
		dst.Name.Patronymic = src.Name.Patronymic
	}
	return dst
}

func bioEqual(a, b record.Player) bool {
	return a.BirthDate == b.BirthDate &&
		intPtrEqual(a.BirthYear, b.BirthYear) &&
		intPtrEqual(a.Height, b.Height) &&
		intPtrEqual(a.Weight, b.Weight) &&
		a.Position == b.Position &&
		a.PhotoURL == b.PhotoURL &&
		a.Name == b.Name
}

func intPtrEqual(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func unionIDs(a, b []int64) []int64 {
	seen := make(map[int64]bool, len(a))
	out := append([]int64(nil), a...)
	for _, id := range a {
		seen[id] = true
	}
	for _, id := range b {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
