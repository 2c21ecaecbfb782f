package composer

import (
	"strings"

	"github.com/abagames/algo-chip-sub000/internal/motif"
	"github.com/abagames/algo-chip-sub000/internal/rng"
)

// Functional placement tags assigned to measures within a phrase.
const (
	tagStart    = "start"
	tagMiddle   = "middle"
	tagEnd      = "end"
	tagLoopSafe = "loop_safe"
	tagCadence  = "cadence"
)

// Minimum share of a pool a tag filter must retain before the filter is
// trusted; below it the unfiltered pool is used instead.
const filterRetention = 0.4

// Target probability that a soft-bias pass surfaces a tag-matching
// candidate.
const softBiasTarget = 0.6

// hookMotifs records the motif ids a section template committed on its
// first occurrence. Reprises reuse them verbatim.
type hookMotifs struct {
	RhythmID       string `json:"rhythmId"`
	MelodyID       string `json:"melodyId"`
	MelodyRhythmID string `json:"melodyRhythmId"`
}

// selectionContext consolidates every mutable selection cache into one
// value threaded through the section/phrase/measure traversal. Each
// request builds its own context; nothing here outlives a generation.
type selectionContext struct {
	repeatBias float64

	hooks         map[string]hookMotifs // template id → committed hook
	memo          map[string]string     // per-section (context key) → motif id
	used          map[string]map[string]bool
	last          map[string]string // category → last picked id
	bassBySection map[string]string // section id → bass pattern id

	usage map[string][]string // category → ids in selection order
}

func newSelectionContext(repeatBias float64) *selectionContext {
	return &selectionContext{
		repeatBias:    repeatBias,
		hooks:         map[string]hookMotifs{},
		memo:          map[string]string{},
		used:          map[string]map[string]bool{},
		last:          map[string]string{},
		bassBySection: map[string]string{},
		usage:         map[string][]string{},
	}
}

func (sc *selectionContext) memoKey(sectionID, category, funcTag string, required []string) string {
	return sectionID + "|" + category + "|" + funcTag + "|" + strings.Join(required, ",")
}

func (sc *selectionContext) markUsed(category, id string) {
	m := sc.used[category]
	if m == nil {
		m = map[string]bool{}
		sc.used[category] = m
	}
	m[id] = true
	sc.last[category] = id
	sc.usage[category] = append(sc.usage[category], id)
}

// filterWithFallback keeps candidates carrying every required tag. An
// empty result, or one that retains under 40% of a pool of four or more,
// reverts to the unfiltered pool.
func filterWithFallback[T any](pool []T, tags func(T) []string, required []string) []T {
	if len(required) == 0 || len(pool) == 0 {
		return pool
	}
	var filtered []T
	for _, c := range pool {
		if motif.HasAllTags(tags(c), required) {
			filtered = append(filtered, c)
		}
	}
	if len(filtered) == 0 {
		return pool
	}
	if len(pool) >= 4 && float64(len(filtered)) < filterRetention*float64(len(pool)) {
		return pool
	}
	return filtered
}

// softBias reorders candidates so tag-matching ones surface with the
// target probability without excluding the rest. Matching and
// non-matching halves are shuffled independently, then interleaved.
func softBias[T any](stream *rng.Stream, pool []T, tags func(T) []string, prefer string, target float64) []T {
	if prefer == "" || len(pool) < 2 {
		return pool
	}
	var match, rest []T
	for _, c := range pool {
		if motif.HasTag(tags(c), prefer) {
			match = append(match, c)
		} else {
			rest = append(rest, c)
		}
	}
	if len(match) == 0 || len(rest) == 0 {
		return pool
	}
	stream.Shuffle(len(match), func(i, j int) { match[i], match[j] = match[j], match[i] })
	stream.Shuffle(len(rest), func(i, j int) { rest[i], rest[j] = rest[j], rest[i] })

	out := make([]T, 0, len(pool))
	mi, ri := 0, 0
	for len(out) < len(pool) {
		takeMatch := mi < len(match) && (ri >= len(rest) || stream.Chance(target))
		if takeMatch {
			out = append(out, match[mi])
			mi++
		} else {
			out = append(out, rest[ri])
			ri++
		}
	}
	return out
}

// avoidLastPick selects randomly, retrying up to three times when the pick
// equals the previous one and accepting a repeat if unavoidable. A pool of
// size one can legitimately repeat; that is accepted, not a defect.
func avoidLastPick[T any](stream *rng.Stream, pool []T, id func(T) string, last string) T {
	pick := pool[stream.IntN(len(pool))]
	for retry := 0; retry < 3 && id(pick) == last; retry++ {
		pick = pool[stream.IntN(len(pool))]
	}
	return pick
}

// preferUnused drops already-used candidates unless doing so would empty
// the pool.
func preferUnused[T any](pool []T, id func(T) string, used map[string]bool) []T {
	if len(used) == 0 {
		return pool
	}
	var fresh []T
	for _, c := range pool {
		if !used[id(c)] {
			fresh = append(fresh, c)
		}
	}
	if len(fresh) == 0 {
		return pool
	}
	return fresh
}

// requireTag keeps only candidates carrying a hard-required tag. Unlike
// filterWithFallback this never reverts: the caller treats an empty result
// as a library configuration defect.
func requireTag[T any](pool []T, tags func(T) []string, tag string) []T {
	var out []T
	for _, c := range pool {
		if motif.HasTag(tags(c), tag) {
			out = append(out, c)
		}
	}
	return out
}

// functionalTag labels a measure's position within its phrase.
func functionalTag(measureInPhrase, phraseLen int) string {
	switch {
	case measureInPhrase == 0:
		return tagStart
	case measureInPhrase == phraseLen-1:
		return tagEnd
	default:
		return tagMiddle
	}
}
