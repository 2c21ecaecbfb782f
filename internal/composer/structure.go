package composer

import (
	"fmt"

	apperrors "github.com/abagames/algo-chip-sub000/internal/errors"
	"github.com/abagames/algo-chip-sub000/internal/motif"
	"github.com/abagames/algo-chip-sub000/internal/rng"
	"github.com/abagames/algo-chip-sub000/internal/theory"
)

// BeatsPerMeasure is fixed: the composer writes 4/4 only.
const BeatsPerMeasure = 4.0

// Texture is the accompaniment rhythmic treatment of a section.
type Texture string

const (
	TextureSteady   Texture = "steady"
	TextureBroken   Texture = "broken"
	TextureArpeggio Texture = "arpeggio"
)

var allTextures = []Texture{TextureSteady, TextureBroken, TextureArpeggio}

// SectionDef is one planned section of the composition.
type SectionDef struct {
	ID           string   `json:"id"`
	TemplateID   string   `json:"templateId"`
	StartMeasure int      `json:"startMeasure"`
	Measures     int      `json:"measures"`
	Chords       []string `json:"chordProgression"`
	Occurrence   int      `json:"occurrenceIndex"`
	Texture      Texture  `json:"texture"`
}

// TechniqueStrategy holds the post-processing application probabilities.
type TechniqueStrategy struct {
	DutySweep   float64 `json:"dutySweep"`
	GainProfile float64 `json:"gainProfile"`
	StyleLayer  float64 `json:"styleLayer"`
}

// Plan is the frozen output of structure planning; every later phase reads
// it and none mutates it.
type Plan struct {
	BPM              float64           `json:"bpm"`
	Key              string            `json:"key"`
	Tonic            int               `json:"-"`
	ScaleDegrees     [7]int            `json:"scaleDegrees"`
	Sections         []SectionDef      `json:"sections"`
	Technique        TechniqueStrategy `json:"techniqueStrategy"`
	Intent           StyleIntent       `json:"styleIntent"`
	Arrangement      Arrangement       `json:"voiceArrangement"`
	LengthInMeasures int               `json:"lengthInMeasures"`
	BaseRegister     int               `json:"-"`
}

// TotalBeats returns the composition length in beats.
func (p *Plan) TotalBeats() float64 {
	return float64(p.LengthInMeasures) * BeatsPerMeasure
}

// SectionAt finds the section containing a beat position. A miss from
// floating-point boundary arithmetic falls back to the nearest edge
// section rather than failing.
func (p *Plan) SectionAt(beat float64) *SectionDef {
	measure := int(beat / BeatsPerMeasure)
	for i := range p.Sections {
		s := &p.Sections[i]
		if measure >= s.StartMeasure && measure < s.StartMeasure+s.Measures {
			return s
		}
	}
	if beat < 0 {
		return &p.Sections[0]
	}
	return &p.Sections[len(p.Sections)-1]
}

// ChordAt returns the chord sounding at a beat position, cycling the
// section's progression measure by measure. Unresolvable positions fall
// back to the first section's first chord.
func (p *Plan) ChordAt(beat float64) theory.Chord {
	s := p.SectionAt(beat)
	measure := int(beat/BeatsPerMeasure) - s.StartMeasure
	if measure < 0 || len(s.Chords) == 0 {
		s = &p.Sections[0]
		measure = 0
	}
	symbol := s.Chords[measure%len(s.Chords)]
	chord, ok := theory.ParseChord(symbol)
	if !ok {
		chord, _ = theory.ParseChord(p.Sections[0].Chords[0])
	}
	return chord
}

// layoutEntry places a template with a concrete measure count.
type layoutEntry struct {
	template string
	measures int
}

// Length-optimized skeletons for the common loop lengths.
var lengthLayouts = map[int][]layoutEntry{
	16: {{"intro", 2}, {"A", 4}, {"B", 4}, {"A", 4}, {"outro", 2}},
	32: {{"intro", 4}, {"A", 8}, {"B", 8}, {"A", 8}, {"outro", 4}},
	64: {{"intro", 4}, {"A", 8}, {"B", 8}, {"A", 8}, {"C", 8}, {"A", 8}, {"B", 8}, {"A", 8}, {"outro", 4}},
}

// Pooled blocks cycled for lengths without a dedicated skeleton.
var pooledLayout = []layoutEntry{{"A", 4}, {"B", 4}, {"A", 4}, {"C", 2}}

// Per-template texture sequences, indexed by occurrence.
var templateTextures = map[string][]Texture{
	"intro": {TextureSteady, TextureBroken},
	"A":     {TextureSteady, TextureBroken, TextureArpeggio},
	"B":     {TextureBroken, TextureArpeggio, TextureSteady},
	"C":     {TextureArpeggio, TextureSteady},
	"outro": {TextureSteady},
}

// PlanStructure runs the structure planning phase: bpm, key, section
// skeleton, textures, chord progressions, style intent, and the voice
// arrangement, all derived deterministically from the options.
func PlanStructure(opts Options, lib *motif.Library) (*Plan, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	bpm := planBPM(opts)

	key := moodProfiles[opts.Mood].defaultKey
	tonic, degrees, err := theory.ParseKey(key)
	if err != nil {
		return nil, fmt.Errorf("resolve key for mood %q: %w", opts.Mood, err)
	}

	layout, err := resolveLayout(opts.LengthInMeasures)
	if err != nil {
		return nil, err
	}

	sections, err := buildSections(opts, layout)
	if err != nil {
		return nil, err
	}

	chordsByTemplate, err := assignProgressions(opts, lib, sections)
	if err != nil {
		return nil, err
	}
	for i := range sections {
		sections[i].Chords = chordsByTemplate[sections[i].TemplateID]
	}

	intent := resolveIntent(opts, bpm, sections)
	if intent.HarmonicStatic {
		for i := range sections {
			sections[i].Chords = staticProgression(sections[i].Chords)
		}
	}

	plan := &Plan{
		BPM:              bpm,
		Key:              key,
		Tonic:            tonic,
		ScaleDegrees:     degrees,
		Sections:         sections,
		Technique:        planTechnique(opts, intent),
		Intent:           intent,
		Arrangement:      pickArrangement(opts.Seed, opts.StylePreset, intent),
		LengthInMeasures: opts.LengthInMeasures,
		BaseRegister:     planRegister(opts, intent),
	}

	// Length invariant, checked before any downstream phase runs.
	sum := 0
	for _, s := range plan.Sections {
		sum += s.Measures
	}
	if sum != opts.LengthInMeasures {
		return nil, fmt.Errorf("%w: sections sum to %d, want %d",
			apperrors.ErrSectionSumMismatch, sum, opts.LengthInMeasures)
	}
	return plan, nil
}

// planBPM applies seeded jitter of at most 15 BPM around the tempo base.
func planBPM(opts Options) float64 {
	base := tempoBPM[opts.Tempo]
	jitter := rng.Derive(opts.Seed, saltBPMJitter).IntN(31) - 15
	return base + float64(jitter)
}

// resolveLayout returns the section skeleton: a length-optimized layout
// when one exists, else the pooled blocks repeated until they sum exactly
// to the target.
func resolveLayout(length int) ([]layoutEntry, error) {
	if layout, ok := lengthLayouts[length]; ok {
		return layout, nil
	}
	var layout []layoutEntry
	remaining := length
	idx := 0
	for remaining > 0 {
		placed := false
		for try := 0; try < len(pooledLayout); try++ {
			entry := pooledLayout[(idx+try)%len(pooledLayout)]
			if entry.measures <= remaining {
				layout = append(layout, entry)
				remaining -= entry.measures
				idx = (idx + try + 1) % len(pooledLayout)
				placed = true
				break
			}
		}
		if !placed {
			return nil, fmt.Errorf("%w: no pooled template fits remaining %d of %d measures",
				apperrors.ErrSectionSumMismatch, remaining, length)
		}
	}
	return layout, nil
}

// buildSections lays the skeleton out into concrete sections with
// occurrence indices and textures.
func buildSections(opts Options, layout []layoutEntry) ([]SectionDef, error) {
	stream := rng.Derive(opts.Seed, saltTexture)
	occurrences := map[string]int{}
	sections := make([]SectionDef, 0, len(layout))

	start := 0
	for i, entry := range layout {
		seq, ok := templateTextures[entry.template]
		if !ok {
			return nil, fmt.Errorf("%w: %q", apperrors.ErrUnknownTemplate, entry.template)
		}
		occ := occurrences[entry.template]
		occurrences[entry.template]++

		sections = append(sections, SectionDef{
			ID:           fmt.Sprintf("s%d_%s", i, entry.template),
			TemplateID:   entry.template,
			StartMeasure: start,
			Measures:     entry.measures,
			Occurrence:   occ,
			Texture:      pickTexture(stream, seq, occ),
		})
		start += entry.measures
	}
	return sections, nil
}

// pickTexture applies the per-occurrence texture sequence with arpeggio
// retention and an independent flat 10% mutation for diversity.
func pickTexture(stream *rng.Stream, seq []Texture, occurrence int) Texture {
	texture := seq[occurrence%len(seq)]

	if texture == TextureArpeggio {
		keep := 0.4
		if occurrence == 0 {
			keep = 0.7
		}
		if !stream.Chance(keep) {
			texture = nextNonArpeggio(seq, occurrence)
		}
	}

	if stream.Chance(0.1) {
		// Swap to a different texture entirely.
		var others []Texture
		for _, t := range allTextures {
			if t != texture {
				others = append(others, t)
			}
		}
		texture = others[stream.IntN(len(others))]
	}
	return texture
}

// nextNonArpeggio walks the sequence forward from the occurrence slot
// looking for a non-arpeggio substitute.
func nextNonArpeggio(seq []Texture, occurrence int) Texture {
	for i := 1; i <= len(seq); i++ {
		t := seq[(occurrence+i)%len(seq)]
		if t != TextureArpeggio {
			return t
		}
	}
	return TextureSteady
}

// assignProgressions picks one chord progression per template id so every
// reprise of a template shares its harmony. Candidates are filtered by
// mood tag, reverting to the whole pool when the filter empties it.
func assignProgressions(opts Options, lib *motif.Library, sections []SectionDef) (map[string][]string, error) {
	if len(lib.Progressions) == 0 {
		return nil, apperrors.NewLibraryError("progression", "table is empty", apperrors.ErrEmptyChordPool)
	}

	pool := make([]motif.Progression, 0, len(lib.Progressions))
	for _, p := range lib.Progressions {
		if motif.HasTag(p.Tags, opts.Mood) {
			pool = append(pool, p)
		}
	}
	if len(pool) == 0 {
		pool = append(pool, lib.Progressions...)
	}

	stream := rng.Derive(opts.Seed, saltChords)
	shuffled := make([]motif.Progression, len(pool))
	copy(shuffled, pool)
	stream.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	assigned := map[string][]string{}
	next := 0
	for _, s := range sections {
		if _, ok := assigned[s.TemplateID]; ok {
			continue
		}
		p := shuffled[next%len(shuffled)]
		next++
		chords := make([]string, len(p.Chords))
		copy(chords, p.Chords)
		assigned[s.TemplateID] = chords
	}
	return assigned, nil
}

// staticProgression flattens a progression into a drone-like form: the
// base chord repeated, keeping only the final slot as motion.
func staticProgression(chords []string) []string {
	if len(chords) == 0 {
		return chords
	}
	out := make([]string, len(chords))
	for i := range out {
		out[i] = chords[0]
	}
	if len(chords) > 1 {
		out[len(out)-1] = chords[1]
	}
	// Guarantee the base chord still dominates short progressions.
	if len(out) < 4 {
		out = append([]string{chords[0], chords[0], chords[0]}, out[len(out)-1])
	}
	return out
}

// resolveIntent infers the style intent from structural heuristics, then
// applies the preset bundle and explicit per-field overrides. Harmonic
// static is deliberately immune to preset bundles: it only turns on when
// inferred from chord variety or explicitly requested.
func resolveIntent(opts Options, bpm float64, sections []SectionDef) StyleIntent {
	counts := map[string]int{}
	totalMeasures := 0
	for _, s := range sections {
		counts[s.TemplateID]++
		totalMeasures += s.Measures
	}
	maxCount := 0
	for _, c := range counts {
		if c > maxCount {
			maxCount = c
		}
	}
	avgMeasures := float64(totalMeasures) / float64(len(sections))

	distinct := map[string]bool{}
	for _, s := range sections {
		for _, c := range s.Chords {
			distinct[c] = true
		}
	}

	inferred := StyleIntent{
		LoopCentric:        maxCount >= 3 || avgMeasures <= 3,
		PercussiveLayering: bpm >= 132,
		GradualBuild:       opts.LengthInMeasures >= 32,
		BreakInsertion:     opts.LengthInMeasures >= 16 && opts.Tempo != TempoSlow,
		HarmonicStatic:     len(distinct) <= 2,
	}

	intent := inferred
	if opts.StylePreset != "" {
		p := stylePresets[opts.StylePreset].intent
		intent.LoopCentric = intent.LoopCentric || p.LoopCentric
		intent.PercussiveLayering = intent.PercussiveLayering || p.PercussiveLayering
		intent.GradualBuild = intent.GradualBuild || p.GradualBuild
		intent.BreakInsertion = intent.BreakInsertion || p.BreakInsertion
		intent.PadCentric = intent.PadCentric || p.PadCentric
		intent.FilterMotion = intent.FilterMotion || p.FilterMotion
		intent.Sidechain = intent.Sidechain || p.Sidechain
		intent.Progressive = intent.Progressive || p.Progressive
		// HarmonicStatic from a preset bundle is ignored on purpose.
	}

	if o := opts.StyleOverrides; o != nil {
		apply := func(dst *bool, src *bool) {
			if src != nil {
				*dst = *src
			}
		}
		apply(&intent.LoopCentric, o.LoopCentric)
		apply(&intent.PercussiveLayering, o.PercussiveLayering)
		apply(&intent.GradualBuild, o.GradualBuild)
		apply(&intent.BreakInsertion, o.BreakInsertion)
		apply(&intent.HarmonicStatic, o.HarmonicStatic)
		apply(&intent.PadCentric, o.PadCentric)
		apply(&intent.FilterMotion, o.FilterMotion)
		apply(&intent.Sidechain, o.Sidechain)
		apply(&intent.Progressive, o.Progressive)
	}
	return intent
}

// planTechnique derives the post-processing probabilities.
func planTechnique(opts Options, intent StyleIntent) TechniqueStrategy {
	stream := rng.Derive(opts.Seed, saltTechnique)
	t := TechniqueStrategy{
		DutySweep:   0.45 + stream.Range(0, 0.15),
		GainProfile: 0.35 + stream.Range(0, 0.15),
		StyleLayer:  0.6 + stream.Range(0, 0.2),
	}
	if intent.FilterMotion {
		t.DutySweep += 0.25
	}
	if intent.Sidechain {
		t.GainProfile += 0.25
	}
	if t.DutySweep > 1 {
		t.DutySweep = 1
	}
	if t.GainProfile > 1 {
		t.GainProfile = 1
	}
	return t
}

// planRegister computes the composition-wide melody register center from
// mood, tempo, preset, and intent offsets plus a small seeded jitter,
// clamped to a practical band for the square channels.
func planRegister(opts Options, intent StyleIntent) int {
	register := 72
	register += moodProfiles[opts.Mood].registerOffset
	if opts.Tempo == TempoFast {
		register++
	} else if opts.Tempo == TempoSlow {
		register--
	}
	if opts.StylePreset != "" {
		register += stylePresets[opts.StylePreset].registerOffset
	}
	if intent.PadCentric {
		register -= 2
	}
	if intent.PercussiveLayering {
		register++
	}
	register += rng.Derive(opts.Seed, saltRegister).IntN(5) - 2

	if register < 62 {
		register = 62
	}
	if register > 81 {
		register = 81
	}
	return register
}
