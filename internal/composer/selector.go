package composer

import (
	"fmt"

	apperrors "github.com/abagames/algo-chip-sub000/internal/errors"
	"github.com/abagames/algo-chip-sub000/internal/motif"
	"github.com/abagames/algo-chip-sub000/internal/rng"
	"github.com/abagames/algo-chip-sub000/internal/theory"
)

// phraseMeasures is the nominal phrase length; trailing phrases shrink to
// whatever the section has left.
const phraseMeasures = 4

// VoiceTrack is the abstract note output of one voice.
type VoiceTrack struct {
	Voice Voice
	Notes []AbstractNote
}

// SectionMotifPlan records which motifs a section ended up with, for
// diagnostics.
type SectionMotifPlan struct {
	SectionID    string     `json:"sectionId"`
	TemplateID   string     `json:"templateId"`
	Texture      Texture    `json:"texture"`
	Hook         hookMotifs `json:"hook"`
	HookReprise  bool       `json:"hookReprise"`
	BassID       string     `json:"bassId,omitempty"`
	TransitionID string     `json:"transitionId,omitempty"`
}

// selectionResult is the full motif-selection phase output.
type selectionResult struct {
	Tracks       []VoiceTrack
	Drums        []DrumHit
	Usage        map[string][]string
	SectionPlans []SectionMotifPlan
}

// selectMotifs walks section → phrase → measure for every voice in the
// arrangement, then generates the drum track and merges transition fills.
func selectMotifs(opts Options, plan *Plan, lib *motif.Library) (*selectionResult, error) {
	sc := newSelectionContext(opts.repeatBias())
	shaper := noteShaper{
		baseRegister:  plan.BaseRegister,
		intent:        plan.Intent,
		totalMeasures: plan.LengthInMeasures,
	}

	result := &selectionResult{}
	for _, voice := range plan.Arrangement.Voices {
		stream := rng.Derive(opts.Seed, saltVoiceBase+voice.SeedOffset)
		var notes []AbstractNote
		var err error
		switch voice.Role {
		case RoleMelody, RoleMelodyAlt:
			notes, err = generateMelodyTrack(sc, stream, plan, lib, voice, shaper)
		case RoleBass, RoleBassAlt:
			notes, err = generateBassTrack(sc, stream, plan, lib, voice, shaper)
		case RoleAccompaniment, RolePad:
			notes, err = generateAccompanimentTrack(sc, stream, plan, lib, voice, shaper)
		default:
			err = fmt.Errorf("unknown voice role %q", voice.Role)
		}
		if err != nil {
			return nil, err
		}
		result.Tracks = append(result.Tracks, VoiceTrack{Voice: voice, Notes: notes})
	}

	drums, err := generateDrumTrack(sc, opts, plan, lib)
	if err != nil {
		return nil, err
	}
	drums, err = mergeTransitions(sc, opts, plan, lib, drums)
	if err != nil {
		return nil, err
	}
	result.Drums = drums

	result.Usage = sc.usage
	result.SectionPlans = buildSectionPlans(sc, plan)
	return result, nil
}

func buildSectionPlans(sc *selectionContext, plan *Plan) []SectionMotifPlan {
	plans := make([]SectionMotifPlan, 0, len(plan.Sections))
	for _, s := range plan.Sections {
		plans = append(plans, SectionMotifPlan{
			SectionID:    s.ID,
			TemplateID:   s.TemplateID,
			Texture:      s.Texture,
			Hook:         sc.hooks[s.TemplateID],
			HookReprise:  s.Occurrence > 0,
			BassID:       sc.bassBySection[s.ID],
			TransitionID: sc.memo["transition|"+s.ID],
		})
	}
	return plans
}

// measureContext bundles the per-measure placement facts the generators
// share.
type measureContext struct {
	section       *SectionDef
	globalMeasure int
	localMeasure  int
	phraseLen     int
	funcTag       string
	required      []string
	hookReprise   bool
	phraseTail    bool
	startBeat     float64
}

// walkMeasures yields a measureContext for every measure of a section.
// The final global measure requires a loop_safe motif; the penultimate one
// requires a cadence unless it falls inside a hook reprise.
func walkMeasures(plan *Plan, section *SectionDef, visit func(mc measureContext) error) error {
	for local := 0; local < section.Measures; local++ {
		phraseStart := (local / phraseMeasures) * phraseMeasures
		phraseLen := section.Measures - phraseStart
		if phraseLen > phraseMeasures {
			phraseLen = phraseMeasures
		}
		inPhrase := local - phraseStart

		global := section.StartMeasure + local
		hookReprise := section.Occurrence > 0 && local < phraseMeasures

		mc := measureContext{
			section:       section,
			globalMeasure: global,
			localMeasure:  local,
			phraseLen:     phraseLen,
			funcTag:       functionalTag(inPhrase, phraseLen),
			hookReprise:   hookReprise,
			phraseTail:    inPhrase == phraseLen-1,
			startBeat:     float64(global) * BeatsPerMeasure,
		}
		switch {
		case global == plan.LengthInMeasures-1:
			mc.required = []string{tagLoopSafe}
		case global == plan.LengthInMeasures-2 && !hookReprise:
			mc.required = []string{tagCadence}
		}
		if err := visit(mc); err != nil {
			return err
		}
	}
	return nil
}

// generateMelodyTrack produces the melody (or melodyAlt) abstract notes.
func generateMelodyTrack(sc *selectionContext, stream *rng.Stream, plan *Plan, lib *motif.Library, voice Voice, shaper noteShaper) ([]AbstractNote, error) {
	var notes []AbstractNote
	mood := planMoodTag(plan)

	for si := range plan.Sections {
		section := &plan.Sections[si]
		err := walkMeasures(plan, section, func(mc measureContext) error {
			rhythm, melody, err := chooseMelodicMotifs(sc, stream, lib, mc, mood)
			if err != nil {
				return err
			}

			register := shaper.register(section, mc.globalMeasure, mc.phraseTail, mc.hookReprise)
			register += voice.OctaveOffset * 12

			for oi, onset := range rhythm.Onsets {
				if voice.Priority < 1 && !onset.Accent {
					if stream.Chance((1 - voice.Priority) * 0.6) {
						continue
					}
				}
				degree := melody.Degrees[oi%len(melody.Degrees)]
				note := AbstractNote{
					Role:          voice.Role,
					StartBeat:     mc.startBeat + onset.Beat,
					DurationBeats: onset.Duration,
					Degree:        degree,
					Accent:        onset.Accent,
					Velocity:      shaper.velocity(section.Texture, onset.Accent, mc.globalMeasure),
					SectionID:     section.ID,
				}
				note.Midi = theory.DegreeToMidi(plan.Tonic, plan.ScaleDegrees, degree, register)
				notes = append(notes, note)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return notes, nil
}

// planMoodTag maps the plan's key back to the mood vocabulary used as a
// soft-bias tag on melodies and progressions.
func planMoodTag(plan *Plan) string {
	for _, mood := range Moods() {
		if moodProfiles[mood].defaultKey == plan.Key {
			return mood
		}
	}
	return ""
}

// chooseMelodicMotifs resolves the melody-rhythm and melody for one
// measure, honoring hook caching, per-section memoization, and the
// functional tag requirements.
func chooseMelodicMotifs(sc *selectionContext, stream *rng.Stream, lib *motif.Library, mc measureContext, mood string) (motif.Rhythm, motif.Melody, error) {
	templateID := mc.section.TemplateID

	// Verbatim reprise: a template's later occurrences replay the hook.
	if mc.hookReprise {
		if hook, ok := sc.hooks[templateID]; ok && hook.MelodyRhythmID != "" {
			rhythm, rok := lib.MelodyRhythmByID(hook.MelodyRhythmID)
			melody, mok := lib.MelodyByID(hook.MelodyID)
			if rok && mok {
				return rhythm, melody, nil
			}
		}
	}

	rhythm, err := chooseMelodyRhythm(sc, stream, lib, mc)
	if err != nil {
		return motif.Rhythm{}, motif.Melody{}, err
	}
	melody, err := chooseMelody(sc, stream, lib, mc, mood)
	if err != nil {
		return motif.Rhythm{}, motif.Melody{}, err
	}

	// First measure of a template's first occurrence commits the hook.
	if mc.section.Occurrence == 0 && mc.localMeasure == 0 {
		hook := sc.hooks[templateID]
		hook.MelodyRhythmID = rhythm.ID
		hook.MelodyID = melody.ID
		sc.hooks[templateID] = hook
	}
	return rhythm, melody, nil
}

func chooseMelodyRhythm(sc *selectionContext, stream *rng.Stream, lib *motif.Library, mc measureContext) (motif.Rhythm, error) {
	// Exact length constraint: a melody rhythm must span one measure.
	pool := make([]motif.Rhythm, 0, len(lib.MelodyRhythms))
	for _, r := range lib.MelodyRhythms {
		if r.Beats == BeatsPerMeasure {
			pool = append(pool, r)
		}
	}
	if len(pool) == 0 {
		return motif.Rhythm{}, apperrors.NewLibraryError("melodyRhythm",
			fmt.Sprintf("no motif of length %.0f beats", BeatsPerMeasure), apperrors.ErrNoMotifCandidates)
	}

	key := sc.memoKey(mc.section.ID, "melodyRhythm", mc.funcTag, mc.required)
	if id, ok := sc.memo[key]; ok {
		if r, found := lib.MelodyRhythmByID(id); found {
			return r, nil
		}
	}

	for _, tag := range mc.required {
		pool = requireTag(pool, rhythmTags, tag)
		if len(pool) == 0 {
			return motif.Rhythm{}, apperrors.NewLibraryError("melodyRhythm",
				fmt.Sprintf("no motif tagged %q", tag), apperrors.ErrNoMotifCandidates)
		}
	}
	pool = filterWithFallback(pool, rhythmTags, []string{mc.funcTag})
	pool = preferUnused(pool, rhythmID, sc.used["melodyRhythm"])
	pick := avoidLastPick(stream, pool, rhythmID, sc.last["melodyRhythm"])

	sc.memo[key] = pick.ID
	sc.markUsed("melodyRhythm", pick.ID)
	return pick, nil
}

func chooseMelody(sc *selectionContext, stream *rng.Stream, lib *motif.Library, mc measureContext, mood string) (motif.Melody, error) {
	if len(lib.Melodies) == 0 {
		return motif.Melody{}, apperrors.NewLibraryError("melody", "table is empty", apperrors.ErrNoMotifCandidates)
	}

	key := sc.memoKey(mc.section.ID, "melody", mc.funcTag, nil)
	if id, ok := sc.memo[key]; ok {
		if m, found := lib.MelodyByID(id); found {
			return m, nil
		}
	}

	pool := filterWithFallback(lib.Melodies, melodyTags, []string{mc.funcTag})
	pool = softBias(stream, pool, melodyTags, mood, softBiasTarget)
	pool = preferUnused(pool, melodyID, sc.used["melody"])
	pick := avoidLastPick(stream, pool, melodyID, sc.last["melody"])

	sc.memo[key] = pick.ID
	sc.markUsed("melody", pick.ID)
	return pick, nil
}

func rhythmTags(r motif.Rhythm) []string { return r.Tags }
func rhythmID(r motif.Rhythm) string     { return r.ID }
func melodyTags(m motif.Melody) []string { return m.Tags }
func melodyID(m motif.Melody) string     { return m.ID }
