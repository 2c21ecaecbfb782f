package composer

import (
	"sort"

	apperrors "github.com/abagames/algo-chip-sub000/internal/errors"
	"github.com/abagames/algo-chip-sub000/internal/motif"
	"github.com/abagames/algo-chip-sub000/internal/rng"
	"github.com/abagames/algo-chip-sub000/internal/theory"
)

// Per-instrument realization defaults for the noise channel.
var drumDurations = map[theory.DrumInstrument]float64{
	theory.DrumKick:  0.25,
	theory.DrumSnare: 0.25,
	theory.DrumHatC:  0.125,
	theory.DrumHatO:  0.5,
	theory.DrumTom:   0.25,
	theory.DrumNoise: 0.5,
}

var drumVelocities = map[theory.DrumInstrument]float64{
	theory.DrumKick:  0.9,
	theory.DrumSnare: 0.85,
	theory.DrumHatC:  0.5,
	theory.DrumHatO:  0.55,
	theory.DrumTom:   0.7,
	theory.DrumNoise: 0.8,
}

// generateDrumTrack walks the sections emitting beat and fill measures,
// applying gradual-build sparsity, arrangement-specific early-sparse
// windows, and layered tag preference per style combination.
func generateDrumTrack(sc *selectionContext, opts Options, plan *Plan, lib *motif.Library) ([]DrumHit, error) {
	if len(lib.Drums) == 0 {
		return nil, apperrors.NewLibraryError("drum", "table is empty", apperrors.ErrNoMotifCandidates)
	}
	stream := rng.Derive(opts.Seed, saltDrums)

	fillCycle := 2
	if plan.Intent.BreakInsertion {
		// Breaks already punctuate the groove; fill less often.
		fillCycle = 4
	}

	var hits []DrumHit
	for si := range plan.Sections {
		section := &plan.Sections[si]
		err := walkMeasures(plan, section, func(mc measureContext) error {
			if drumSilent(stream, plan, mc) {
				return nil
			}

			isFill := mc.localMeasure == section.Measures-1 ||
				mc.globalMeasure == plan.LengthInMeasures-2 ||
				(mc.localMeasure+1)%fillCycle == 0 && mc.localMeasure != 0

			pattern, err := chooseDrumPattern(sc, stream, plan, lib, mc, isFill)
			if err != nil {
				return err
			}
			for _, stroke := range theory.ParseDrumPattern(pattern.Pattern, pattern.Beats) {
				hits = append(hits, DrumHit{
					StartBeat:     mc.startBeat + stroke.Beat,
					DurationBeats: drumDurations[stroke.Instrument],
					Instrument:    stroke.Instrument,
					SectionID:     section.ID,
					Velocity:      drumVelocities[stroke.Instrument],
				})
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return hits, nil
}

// drumSilent applies the gradual-build sparsity curve and the
// arrangement-specific early-sparse windows.
func drumSilent(stream *rng.Stream, plan *Plan, mc measureContext) bool {
	switch plan.Arrangement.Name {
	case ArrangementPadded:
		if mc.globalMeasure < 2 {
			return true
		}
	case ArrangementMelodyPlus:
		if mc.globalMeasure < 1 {
			return true
		}
	}

	if !plan.Intent.GradualBuild {
		return false
	}
	progress := float64(mc.globalMeasure) / float64(plan.LengthInMeasures)

	// Thresholds widen on longer compositions so the quiet opening
	// scales with the total length.
	early := 0.25
	mid := 0.55
	if plan.LengthInMeasures >= 48 {
		early = 0.3
		mid = 0.6
	}
	switch {
	case progress < early:
		return stream.Chance(0.65)
	case progress < mid:
		return stream.Chance(0.3)
	default:
		return false
	}
}

// chooseDrumPattern selects a beat or fill motif. Beat patterns are
// memoized per section so a section keeps its groove; fills re-roll.
func chooseDrumPattern(sc *selectionContext, stream *rng.Stream, plan *Plan, lib *motif.Library, mc measureContext, isFill bool) (motif.Drum, error) {
	kind := "beat"
	if isFill {
		kind = "fill"
	}

	if !isFill {
		key := sc.memoKey(mc.section.ID, "drum", kind, nil)
		if id, ok := sc.memo[key]; ok {
			for _, d := range lib.Drums {
				if d.ID == id {
					return d, nil
				}
			}
		}
	}

	pool := requireTag(lib.Drums, drumTags, kind)
	if len(pool) == 0 {
		if isFill {
			// Fills degrade to the beat pool rather than fail.
			pool = requireTag(lib.Drums, drumTags, "beat")
		}
		if len(pool) == 0 {
			return motif.Drum{}, apperrors.NewLibraryError("drum",
				"no motif tagged \""+kind+"\"", apperrors.ErrNoMotifCandidates)
		}
	}

	// Layered style preference/avoidance.
	if plan.Intent.PercussiveLayering {
		if trimmed := dropTagged(pool, drumTags, "sparse"); len(trimmed) > 0 {
			pool = trimmed
		}
		pool = softBias(stream, pool, drumTags, "dense", softBiasTarget)
	} else if plan.Intent.PadCentric {
		pool = softBias(stream, pool, drumTags, "sparse", softBiasTarget)
	}
	if plan.Intent.LoopCentric {
		pool = softBias(stream, pool, drumTags, "steady", 0.5)
	}

	pick := avoidLastPick(stream, pool, drumID, sc.last["drum"])
	if !isFill {
		sc.memo[sc.memoKey(mc.section.ID, "drum", kind, nil)] = pick.ID
	}
	sc.markUsed("drum", pick.ID)
	return pick, nil
}

// dropTagged removes candidates carrying an avoided tag.
func dropTagged(pool []motif.Drum, tags func(motif.Drum) []string, avoid string) []motif.Drum {
	var out []motif.Drum
	for _, d := range pool {
		if !motif.HasTag(tags(d), avoid) {
			out = append(out, d)
		}
	}
	return out
}

// transitionOffsets are the discrete forward shifts tried when a fill
// stroke collides with an existing hit.
var transitionOffsets = [4]float64{0, 0.125, 0.25, 0.5}

// mergeTransitions appends section-ending fills to the drum hits, shifting
// colliding strokes forward to protect noise-channel monophony. Strokes
// that collide at every offset are dropped.
func mergeTransitions(sc *selectionContext, opts Options, plan *Plan, lib *motif.Library, hits []DrumHit) ([]DrumHit, error) {
	if len(lib.Transitions) == 0 {
		return nil, apperrors.NewLibraryError("transition", "table is empty", apperrors.ErrNoMotifCandidates)
	}
	stream := rng.Derive(opts.Seed, saltTransitions)

	for si := range plan.Sections {
		section := &plan.Sections[si]
		final := si == len(plan.Sections)-1

		pool := requireTag(lib.Transitions, transitionTags, "transition")
		pool = requireTag(pool, transitionTags, "section_end")
		if len(pool) == 0 {
			return nil, apperrors.NewLibraryError("transition",
				"no motif tagged transition+section_end", apperrors.ErrNoMotifCandidates)
		}
		if final {
			pool = filterWithFallback(pool, transitionTags, []string{"loop_out"})
		}

		pick := avoidLastPick(stream, pool, transitionID, sc.last["transition"])
		sc.memo["transition|"+section.ID] = pick.ID
		sc.markUsed("transition", pick.ID)

		sectionEnd := float64(section.StartMeasure+section.Measures) * BeatsPerMeasure
		base := sectionEnd - pick.Beats
		for _, stroke := range theory.ParseDrumPattern(pick.Pattern, pick.Beats) {
			hit := DrumHit{
				DurationBeats: drumDurations[stroke.Instrument],
				Instrument:    stroke.Instrument,
				SectionID:     section.ID,
				Velocity:      drumVelocities[stroke.Instrument] * 0.9,
			}
			placed := false
			for _, offset := range transitionOffsets {
				start := base + stroke.Beat + offset
				if start >= sectionEnd {
					break
				}
				if !collidesWithHit(hits, start, hit.DurationBeats, stroke.Instrument) {
					hit.StartBeat = start
					placed = true
					break
				}
			}
			if placed {
				hits = append(hits, hit)
			}
		}
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].StartBeat < hits[j].StartBeat
	})
	return hits, nil
}

// collidesWithHit reports whether a new stroke overlaps an existing hit in
// a way the noise channel cannot express. Hi-hat pairs may stack.
func collidesWithHit(hits []DrumHit, start, duration float64, instrument theory.DrumInstrument) bool {
	end := start + duration
	for _, h := range hits {
		if start < h.StartBeat+h.DurationBeats && h.StartBeat < end {
			if instrument.IsHat() && h.Instrument.IsHat() {
				continue
			}
			return true
		}
	}
	return false
}

func drumTags(d motif.Drum) []string             { return d.Tags }
func drumID(d motif.Drum) string                 { return d.ID }
func transitionTags(t motif.Transition) []string { return t.Tags }
func transitionID(t motif.Transition) string     { return t.ID }
