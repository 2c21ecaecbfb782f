package composer

import (
	apperrors "github.com/abagames/algo-chip-sub000/internal/errors"
	"github.com/abagames/algo-chip-sub000/internal/motif"
	"github.com/abagames/algo-chip-sub000/internal/rng"
	"github.com/abagames/algo-chip-sub000/internal/theory"
)

// bassStepBeats is the step grid of bass patterns: eight eighths a measure.
const bassStepBeats = 0.5

// generateBassTrack produces the bass (or bassAlt) abstract notes. Each
// section caches one pattern; its final measure prefers a distinct
// section_end pattern.
func generateBassTrack(sc *selectionContext, stream *rng.Stream, plan *Plan, lib *motif.Library, voice Voice, shaper noteShaper) ([]AbstractNote, error) {
	if len(lib.Basses) == 0 {
		return nil, apperrors.NewLibraryError("bass", "table is empty", apperrors.ErrNoMotifCandidates)
	}

	register := 48 + voice.OctaveOffset*12
	var notes []AbstractNote

	for si := range plan.Sections {
		section := &plan.Sections[si]
		pattern := chooseBassPattern(sc, stream, lib, section, plan.Intent)
		endPattern := chooseBassEnd(sc, stream, lib, section, pattern)

		err := walkMeasures(plan, section, func(mc measureContext) error {
			pat := pattern
			if mc.localMeasure == section.Measures-1 {
				pat = endPattern
			}

			chord := plan.ChordAt(mc.startBeat)
			nextBeat := mc.startBeat + BeatsPerMeasure
			if nextBeat >= plan.TotalBeats() {
				// Approach the loop head so the seam resolves.
				nextBeat = 0
			}
			next := plan.ChordAt(nextBeat)

			for step, token := range pat.Steps {
				if token == motif.BassRest {
					continue
				}
				accent := step == 0 || step == 4
				if voice.Priority < 1 && !accent && stream.Chance((1-voice.Priority)*0.5) {
					continue
				}
				notes = append(notes, AbstractNote{
					Role:          voice.Role,
					StartBeat:     mc.startBeat + float64(step)*bassStepBeats,
					DurationBeats: bassStepBeats,
					Accent:        accent,
					Velocity:      shaper.velocity(section.Texture, accent, mc.globalMeasure),
					SectionID:     section.ID,
					Midi:          bassStepMidi(token, chord, next, register),
				})
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return notes, nil
}

// chooseBassPattern resolves the per-section cached pattern. Harmonic
// static forces drone/static-tagged patterns when any exist.
func chooseBassPattern(sc *selectionContext, stream *rng.Stream, lib *motif.Library, section *SectionDef, intent StyleIntent) motif.Bass {
	if id, ok := sc.bassBySection[section.ID]; ok {
		for _, b := range lib.Basses {
			if b.ID == id {
				return b
			}
		}
	}

	pool := lib.Basses
	if intent.HarmonicStatic {
		forced := requireTag(pool, bassTags, "drone")
		forced = append(forced, requireTag(pool, bassTags, "static")...)
		forced = dedupeBasses(forced)
		if len(forced) > 0 {
			pool = forced
		}
	} else if intent.PercussiveLayering {
		pool = softBias(stream, pool, bassTags, "driving", softBiasTarget)
	}

	pool = preferUnused(pool, bassID, sc.used["bass"])
	pick := avoidLastPick(stream, pool, bassID, sc.last["bass"])

	sc.bassBySection[section.ID] = pick.ID
	sc.markUsed("bass", pick.ID)
	return pick
}

// chooseBassEnd prefers a distinct section_end pattern for the section's
// final measure, keeping the body pattern when none exists.
func chooseBassEnd(sc *selectionContext, stream *rng.Stream, lib *motif.Library, section *SectionDef, body motif.Bass) motif.Bass {
	ends := requireTag(lib.Basses, bassTags, "section_end")
	if len(ends) == 0 {
		return body
	}
	pick := avoidLastPick(stream, ends, bassID, body.ID)
	sc.memo["bassEnd|"+section.ID] = pick.ID
	return pick
}

// bassStepMidi maps a pattern token to a MIDI note via chord-root
// arithmetic. The approach step lands one chromatic step away from the
// next chord's root, leaning from the current root's side.
func bassStepMidi(token motif.BassStep, chord, next theory.Chord, register int) int {
	root := chord.RootMidi(register)
	switch token {
	case motif.BassRoot:
		return root
	case motif.BassFifth:
		return theory.ClampMidi(root + 7)
	case motif.BassLowFifth:
		return theory.ClampMidi(root - 5)
	case motif.BassOctave:
		return theory.ClampMidi(root + 12)
	case motif.BassOctaveHigh:
		return theory.ClampMidi(root + 24)
	case motif.BassApproach:
		target := next.RootMidi(register)
		switch {
		case target > root:
			return theory.ClampMidi(target - 1)
		case target < root:
			return theory.ClampMidi(target + 1)
		default:
			return root
		}
	}
	return root
}

func bassTags(b motif.Bass) []string { return b.Tags }
func bassID(b motif.Bass) string     { return b.ID }

func dedupeBasses(pool []motif.Bass) []motif.Bass {
	seen := map[string]bool{}
	var out []motif.Bass
	for _, b := range pool {
		if !seen[b.ID] {
			seen[b.ID] = true
			out = append(out, b)
		}
	}
	return out
}
