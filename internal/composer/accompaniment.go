package composer

import (
	apperrors "github.com/abagames/algo-chip-sub000/internal/errors"
	"github.com/abagames/algo-chip-sub000/internal/motif"
	"github.com/abagames/algo-chip-sub000/internal/rng"
	"github.com/abagames/algo-chip-sub000/internal/theory"
)

// generateAccompanimentTrack produces the accompaniment (or pad) abstract
// notes: rhythm-driven chord-tone placement with downbeat accents, hook
// pickup echoes, priority-gated density thinning, and optional collapse to
// a sustained whole-measure pad note.
func generateAccompanimentTrack(sc *selectionContext, stream *rng.Stream, plan *Plan, lib *motif.Library, voice Voice, shaper noteShaper) ([]AbstractNote, error) {
	if len(lib.Rhythms) == 0 {
		return nil, apperrors.NewLibraryError("rhythm", "table is empty", apperrors.ErrNoMotifCandidates)
	}

	var notes []AbstractNote
	for si := range plan.Sections {
		section := &plan.Sections[si]
		err := walkMeasures(plan, section, func(mc measureContext) error {
			chord := plan.ChordAt(mc.startBeat)
			register := shaper.register(section, mc.globalMeasure, mc.phraseTail, mc.hookReprise)
			register += voice.OctaveOffset*12 - 12 // accompaniment sits below the melody

			// Pad collapse: one sustained whole-measure chord root.
			if padCollapse(stream, voice, plan.Intent, section.Texture) {
				notes = append(notes, AbstractNote{
					Role:          voice.Role,
					StartBeat:     mc.startBeat,
					DurationBeats: BeatsPerMeasure,
					Velocity:      shaper.velocity(section.Texture, false, mc.globalMeasure) * 0.8,
					SectionID:     section.ID,
					Midi:          chord.RootMidi(register),
				})
				return nil
			}

			rhythm, err := chooseAccompanimentRhythm(sc, stream, lib, mc)
			if err != nil {
				return err
			}

			for oi, onset := range rhythm.Onsets {
				accent := onset.Accent || onset.Beat == 0
				if voice.Priority < 1 && !accent && stream.Chance((1-voice.Priority)*0.7) {
					continue
				}
				notes = append(notes, AbstractNote{
					Role:          voice.Role,
					StartBeat:     mc.startBeat + onset.Beat,
					DurationBeats: onset.Duration,
					Accent:        accent,
					Velocity:      shaper.velocity(section.Texture, accent, mc.globalMeasure),
					SectionID:     section.ID,
					Midi:          accompanimentTone(chord, section.Texture, register, oi),
				})
			}

			// Hook pickup echo: a quiet tail note quoting the hook
			// melody's opening degree just before the next measure.
			if mc.hookReprise && stream.Chance(0.3) {
				if hook, ok := sc.hooks[section.TemplateID]; ok && hook.MelodyID != "" {
					if mel, found := lib.MelodyByID(hook.MelodyID); found && len(mel.Degrees) > 0 {
						notes = append(notes, AbstractNote{
							Role:          voice.Role,
							StartBeat:     mc.startBeat + BeatsPerMeasure - 0.5,
							DurationBeats: 0.5,
							Degree:        mel.Degrees[0],
							Velocity:      shaper.velocity(section.Texture, false, mc.globalMeasure) * 0.6,
							SectionID:     section.ID,
							Midi:          chord.Tone(register+12, mel.Degrees[0]%4),
						})
					}
				}
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return notes, nil
}

// padCollapse decides whether a measure collapses to one sustained note.
func padCollapse(stream *rng.Stream, voice Voice, intent StyleIntent, texture Texture) bool {
	if voice.Role == RolePad {
		return stream.Chance(0.75)
	}
	if intent.PadCentric && texture == TextureSteady {
		return stream.Chance(0.4)
	}
	return false
}

// accompanimentTone places a chord tone for the i-th onset: steady
// alternates root and fifth, broken and arpeggio cycle
// root-third-fifth-seventh.
func accompanimentTone(chord theory.Chord, texture Texture, register, onsetIndex int) int {
	if texture == TextureSteady {
		// Root/fifth alternation; fifth is interval index 2 in triads.
		if onsetIndex%2 == 0 {
			return chord.Tone(register, 0)
		}
		return chord.Tone(register, 2)
	}
	return chord.Tone(register, onsetIndex)
}

// chooseAccompanimentRhythm resolves the measure's rhythm motif, honoring
// the hook cache, per-section memoization, and repeat-bias variation.
func chooseAccompanimentRhythm(sc *selectionContext, stream *rng.Stream, lib *motif.Library, mc measureContext) (motif.Rhythm, error) {
	templateID := mc.section.TemplateID

	// Hook reprise replays the committed rhythm with variation disabled.
	if mc.hookReprise {
		if hook, ok := sc.hooks[templateID]; ok && hook.RhythmID != "" {
			if r, found := lib.RhythmByID(hook.RhythmID); found {
				return r, nil
			}
		}
	}

	key := sc.memoKey(mc.section.ID, "rhythm", mc.funcTag, mc.required)
	if id, ok := sc.memo[key]; ok {
		if base, found := lib.RhythmByID(id); found {
			// Repeat-bias variation: low bias swaps in an explicit
			// variation link instead of the memoized base.
			if stream.Chance(1 - sc.repeatBias) {
				if vars := lib.Variations(baseVariationID(base)); len(vars) > 0 {
					pick := vars[stream.IntN(len(vars))]
					sc.markUsed("rhythm", pick.ID)
					return pick, nil
				}
			}
			return base, nil
		}
	}

	pool := lib.Rhythms
	for _, tag := range mc.required {
		pool = requireTag(pool, rhythmTags, tag)
		if len(pool) == 0 {
			return motif.Rhythm{}, apperrors.NewLibraryError("rhythm",
				"no motif tagged \""+tag+"\"", apperrors.ErrNoMotifCandidates)
		}
	}
	pool = filterWithFallback(pool, rhythmTags, []string{mc.funcTag})
	pool = filterWithFallback(pool, rhythmTags, []string{string(mc.section.Texture)})
	pool = preferUnused(pool, rhythmID, sc.used["rhythm"])
	pick := avoidLastPick(stream, pool, rhythmID, sc.last["rhythm"])

	sc.memo[key] = pick.ID
	sc.markUsed("rhythm", pick.ID)

	// First measure of a first occurrence commits the accompaniment
	// side of the hook.
	if mc.section.Occurrence == 0 && mc.localMeasure == 0 {
		hook := sc.hooks[templateID]
		hook.RhythmID = pick.ID
		sc.hooks[templateID] = hook
	}
	return pick, nil
}

// baseVariationID resolves the variation-link root of a rhythm motif.
func baseVariationID(r motif.Rhythm) string {
	if r.VariationOf != "" {
		return r.VariationOf
	}
	return r.ID
}
