// Package composer implements the five-phase composition pipeline:
// structure planning, motif selection, event realization, technique
// post-processing, and timeline finalization. A single seed threads
// deterministically through all five phases, so identical options always
// produce byte-identical output.
package composer

import (
	"fmt"

	apperrors "github.com/abagames/algo-chip-sub000/internal/errors"
)

// Mood names accepted in CompositionOptions.
const (
	MoodCalm        = "calm"
	MoodUpbeat      = "upbeat"
	MoodTense       = "tense"
	MoodMelancholic = "melancholic"
	MoodHeroic      = "heroic"
	MoodMysterious  = "mysterious"
)

// Tempo settings accepted in CompositionOptions.
const (
	TempoSlow   = "slow"
	TempoMedium = "medium"
	TempoFast   = "fast"
)

// moodProfile drives key choice and register placement per mood.
type moodProfile struct {
	defaultKey     string
	registerOffset int // semitones applied to the melody register center
}

var moodProfiles = map[string]moodProfile{
	MoodCalm:        {defaultKey: "F major", registerOffset: -2},
	MoodUpbeat:      {defaultKey: "C major", registerOffset: 2},
	MoodTense:       {defaultKey: "D minor", registerOffset: 0},
	MoodMelancholic: {defaultKey: "A minor", registerOffset: -3},
	MoodHeroic:      {defaultKey: "G major", registerOffset: 1},
	MoodMysterious:  {defaultKey: "E minor", registerOffset: -1},
}

// Moods returns the supported mood names in a stable order.
func Moods() []string {
	return []string{MoodCalm, MoodUpbeat, MoodTense, MoodMelancholic, MoodHeroic, MoodMysterious}
}

var tempoBPM = map[string]float64{
	TempoSlow:   76,
	TempoMedium: 112,
	TempoFast:   148,
}

// Tempos returns the supported tempo settings in a stable order.
func Tempos() []string {
	return []string{TempoSlow, TempoMedium, TempoFast}
}

// StyleIntent is the set of nine independent flags biasing generation
// choices. Flags bias, never gate: a false flag only removes a tendency.
type StyleIntent struct {
	LoopCentric        bool `json:"loopCentric"`
	PercussiveLayering bool `json:"percussiveLayering"`
	GradualBuild       bool `json:"gradualBuild"`
	BreakInsertion     bool `json:"breakInsertion"`
	HarmonicStatic     bool `json:"harmonicStatic"`
	PadCentric         bool `json:"padCentric"`
	FilterMotion       bool `json:"filterMotion"`
	Sidechain          bool `json:"sidechain"`
	Progressive        bool `json:"progressive"`
}

// StyleOverrides carries explicit per-flag user overrides. Nil fields
// leave the inferred or preset value in place.
type StyleOverrides struct {
	LoopCentric        *bool `json:"loopCentric,omitempty"`
	PercussiveLayering *bool `json:"percussiveLayering,omitempty"`
	GradualBuild       *bool `json:"gradualBuild,omitempty"`
	BreakInsertion     *bool `json:"breakInsertion,omitempty"`
	HarmonicStatic     *bool `json:"harmonicStatic,omitempty"`
	PadCentric         *bool `json:"padCentric,omitempty"`
	FilterMotion       *bool `json:"filterMotion,omitempty"`
	Sidechain          *bool `json:"sidechain,omitempty"`
	Progressive        *bool `json:"progressive,omitempty"`
}

// stylePreset bundles flag defaults and an arrangement preference under a
// named style. Preset flags are generic defaults: they never force
// harmonic-static on their own.
type stylePreset struct {
	intent          StyleIntent
	arrangementBias string
	registerOffset  int
}

var stylePresets = map[string]stylePreset{
	"chiptune": {
		intent:          StyleIntent{LoopCentric: true, PercussiveLayering: true},
		arrangementBias: ArrangementStandard,
		registerOffset:  2,
	},
	"ambient": {
		intent:          StyleIntent{PadCentric: true, FilterMotion: true, HarmonicStatic: true},
		arrangementBias: ArrangementPadded,
		registerOffset:  -2,
	},
	"action": {
		intent:          StyleIntent{PercussiveLayering: true, Sidechain: true, BreakInsertion: true},
		arrangementBias: ArrangementBassDuet,
		registerOffset:  1,
	},
	"puzzle": {
		intent:          StyleIntent{LoopCentric: true, GradualBuild: true, Progressive: true},
		arrangementBias: ArrangementMelodyPlus,
		registerOffset:  0,
	},
}

// StylePresets returns the preset names in a stable order.
func StylePresets() []string {
	return []string{"chiptune", "ambient", "action", "puzzle"}
}

// Options is the immutable input to one composition request.
type Options struct {
	Mood             string          `json:"mood"`
	Tempo            string          `json:"tempo"`
	LengthInMeasures int             `json:"lengthInMeasures"`
	Seed             uint32          `json:"seed"`
	StylePreset      string          `json:"stylePreset,omitempty"`
	StyleOverrides   *StyleOverrides `json:"styleOverrides,omitempty"`
	// SectionRepeatBias controls motif variation on repeated contexts:
	// 0 always varies, 1 always repeats. Nil uses the default 0.5.
	SectionRepeatBias *float64 `json:"sectionRepeatBias,omitempty"`
}

// Validate checks option ranges before planning starts.
func (o Options) Validate() error {
	if _, ok := moodProfiles[o.Mood]; !ok {
		return fmt.Errorf("%w: mood %q", apperrors.ErrUnknownMood, o.Mood)
	}
	if _, ok := tempoBPM[o.Tempo]; !ok {
		return fmt.Errorf("%w: tempo %q", apperrors.ErrUnknownTempo, o.Tempo)
	}
	if o.LengthInMeasures <= 0 {
		return fmt.Errorf("%w: lengthInMeasures must be positive, got %d", apperrors.ErrInvalidOptions, o.LengthInMeasures)
	}
	if o.StylePreset != "" {
		if _, ok := stylePresets[o.StylePreset]; !ok {
			return fmt.Errorf("%w: unknown stylePreset %q", apperrors.ErrInvalidOptions, o.StylePreset)
		}
	}
	if o.SectionRepeatBias != nil && (*o.SectionRepeatBias < 0 || *o.SectionRepeatBias > 1) {
		return fmt.Errorf("%w: sectionRepeatBias must be within [0,1]", apperrors.ErrInvalidOptions)
	}
	return nil
}

// repeatBias resolves the effective section repeat bias.
func (o Options) repeatBias() float64 {
	if o.SectionRepeatBias != nil {
		return *o.SectionRepeatBias
	}
	return 0.5
}
