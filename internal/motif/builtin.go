package motif

// Builtin returns the curated built-in library. The tables carry the full
// tag vocabulary the selector filters on: functional placement tags
// (start/middle/end), loop_safe and cadence for the composition tail,
// section_end and loop_out for transitions, and mood/energy tags for soft
// bias. Callers must treat the result as read-only.
func Builtin() *Library {
	return &Library{
		Rhythms:       builtinRhythms,
		Melodies:      builtinMelodies,
		MelodyRhythms: builtinMelodyRhythms,
		Drums:         builtinDrums,
		Basses:        builtinBasses,
		Transitions:   builtinTransitions,
		Progressions:  builtinProgressions,
	}
}

// Accompaniment rhythms. All one measure (4 beats); variations reference
// their base motif for sectionRepeatBias-driven substitution.
var builtinRhythms = []Rhythm{
	{ID: "rh_quarters", Tags: []string{"start", "middle", "end", "steady", "loop_safe"}, Beats: 4, Onsets: []Onset{
		{Beat: 0, Duration: 1, Accent: true}, {Beat: 1, Duration: 1}, {Beat: 2, Duration: 1}, {Beat: 3, Duration: 1},
	}},
	{ID: "rh_quarters_var", Tags: []string{"middle", "steady"}, Beats: 4, VariationOf: "rh_quarters", Onsets: []Onset{
		{Beat: 0, Duration: 1, Accent: true}, {Beat: 1, Duration: 0.5}, {Beat: 1.5, Duration: 0.5}, {Beat: 2, Duration: 1}, {Beat: 3, Duration: 1},
	}},
	{ID: "rh_offbeat", Tags: []string{"middle", "syncopated", "driving"}, Beats: 4, Onsets: []Onset{
		{Beat: 0.5, Duration: 0.5}, {Beat: 1.5, Duration: 0.5}, {Beat: 2.5, Duration: 0.5}, {Beat: 3.5, Duration: 0.5},
	}},
	{ID: "rh_offbeat_var", Tags: []string{"middle", "syncopated"}, Beats: 4, VariationOf: "rh_offbeat", Onsets: []Onset{
		{Beat: 0.5, Duration: 0.5}, {Beat: 1.5, Duration: 0.5}, {Beat: 2.5, Duration: 0.25}, {Beat: 3, Duration: 0.5}, {Beat: 3.5, Duration: 0.5},
	}},
	{ID: "rh_eighths", Tags: []string{"start", "middle", "dense", "driving", "loop_safe"}, Beats: 4, Onsets: []Onset{
		{Beat: 0, Duration: 0.5, Accent: true}, {Beat: 0.5, Duration: 0.5}, {Beat: 1, Duration: 0.5}, {Beat: 1.5, Duration: 0.5},
		{Beat: 2, Duration: 0.5, Accent: true}, {Beat: 2.5, Duration: 0.5}, {Beat: 3, Duration: 0.5}, {Beat: 3.5, Duration: 0.5},
	}},
	{ID: "rh_halfsync", Tags: []string{"start", "middle", "end", "sparse", "flowing", "cadence"}, Beats: 4, Onsets: []Onset{
		{Beat: 0, Duration: 1.5, Accent: true}, {Beat: 1.5, Duration: 1.5}, {Beat: 3, Duration: 1},
	}},
	{ID: "rh_tresillo", Tags: []string{"middle", "syncopated", "driving"}, Beats: 4, Onsets: []Onset{
		{Beat: 0, Duration: 1.5, Accent: true}, {Beat: 1.5, Duration: 1.5}, {Beat: 3, Duration: 0.5}, {Beat: 3.5, Duration: 0.5},
	}},
	{ID: "rh_whole", Tags: []string{"start", "end", "sparse", "flowing", "loop_safe", "cadence"}, Beats: 4, Onsets: []Onset{
		{Beat: 0, Duration: 4, Accent: true},
	}},
	{ID: "rh_pushpull", Tags: []string{"middle", "end", "syncopated", "cadence"}, Beats: 4, Onsets: []Onset{
		{Beat: 0, Duration: 0.75, Accent: true}, {Beat: 0.75, Duration: 0.75}, {Beat: 1.5, Duration: 0.5}, {Beat: 2, Duration: 2},
	}},
}

// Melodies are scale-degree contours; the selector maps them onto melody
// rhythm onsets, cycling when the rhythm has more attacks than degrees.
var builtinMelodies = []Melody{
	{ID: "mel_rise", Tags: []string{"upbeat", "heroic", "start"}, Degrees: []int{0, 1, 2, 4, 2, 4, 5, 7}},
	{ID: "mel_fall", Tags: []string{"calm", "melancholic", "end"}, Degrees: []int{7, 5, 4, 2, 1, 0, -1, 0}},
	{ID: "mel_arch", Tags: []string{"upbeat", "heroic", "middle"}, Degrees: []int{0, 2, 4, 7, 4, 2, 0, -3}},
	{ID: "mel_wave", Tags: []string{"calm", "flowing", "middle"}, Degrees: []int{0, 2, 1, 3, 2, 4, 3, 1}},
	{ID: "mel_hook", Tags: []string{"upbeat", "tense", "start", "middle"}, Degrees: []int{4, 4, 2, 0, 4, 5, 4, 2}},
	{ID: "mel_drift", Tags: []string{"mysterious", "calm", "middle"}, Degrees: []int{0, -1, 0, 2, 0, -3, -1, 0}},
	{ID: "mel_leap", Tags: []string{"tense", "heroic", "middle"}, Degrees: []int{0, 4, 7, 4, 6, 4, 2, 0}},
	{ID: "mel_close", Tags: []string{"calm", "melancholic", "end", "cadence"}, Degrees: []int{2, 1, 0, -1, 0, 0, 1, 0}},
	{ID: "mel_circle", Tags: []string{"mysterious", "tense", "middle"}, Degrees: []int{0, 3, 2, 5, 4, 7, 6, 4}},
	{ID: "mel_anthem", Tags: []string{"heroic", "upbeat", "start", "end"}, Degrees: []int{0, 0, 4, 4, 5, 5, 4, 2}},
}

// Melody rhythms. Every motif is exactly one measure; the selector treats
// the 4-beat length as a hard constraint.
var builtinMelodyRhythms = []Rhythm{
	{ID: "mr_song", Tags: []string{"start", "middle", "loop_safe"}, Beats: 4, Onsets: []Onset{
		{Beat: 0, Duration: 1, Accent: true}, {Beat: 1, Duration: 0.5}, {Beat: 1.5, Duration: 0.5}, {Beat: 2, Duration: 1, Accent: true}, {Beat: 3, Duration: 1},
	}},
	{ID: "mr_run", Tags: []string{"middle", "dense", "driving"}, Beats: 4, Onsets: []Onset{
		{Beat: 0, Duration: 0.5, Accent: true}, {Beat: 0.5, Duration: 0.5}, {Beat: 1, Duration: 0.5}, {Beat: 1.5, Duration: 0.5},
		{Beat: 2, Duration: 0.5, Accent: true}, {Beat: 2.5, Duration: 0.5}, {Beat: 3, Duration: 1},
	}},
	{ID: "mr_breath", Tags: []string{"start", "middle", "end", "sparse", "loop_safe", "cadence"}, Beats: 4, Onsets: []Onset{
		{Beat: 0, Duration: 1.5, Accent: true}, {Beat: 2, Duration: 1.5},
	}},
	{ID: "mr_sync", Tags: []string{"middle", "syncopated"}, Beats: 4, Onsets: []Onset{
		{Beat: 0, Duration: 0.75, Accent: true}, {Beat: 1.5, Duration: 0.5}, {Beat: 2.5, Duration: 0.5}, {Beat: 3, Duration: 1},
	}},
	{ID: "mr_call", Tags: []string{"start", "middle"}, Beats: 4, Onsets: []Onset{
		{Beat: 0, Duration: 0.5, Accent: true}, {Beat: 0.5, Duration: 0.5}, {Beat: 1, Duration: 1}, {Beat: 2.5, Duration: 0.5}, {Beat: 3, Duration: 1},
	}},
	{ID: "mr_answer", Tags: []string{"middle", "end", "cadence"}, Beats: 4, Onsets: []Onset{
		{Beat: 0, Duration: 1, Accent: true}, {Beat: 1.5, Duration: 0.5}, {Beat: 2, Duration: 2},
	}},
	{ID: "mr_land", Tags: []string{"end", "sparse", "loop_safe", "cadence"}, Beats: 4, Onsets: []Onset{
		{Beat: 0, Duration: 2, Accent: true}, {Beat: 2, Duration: 2},
	}},
	{ID: "mr_skip", Tags: []string{"middle", "syncopated", "driving"}, Beats: 4, Onsets: []Onset{
		{Beat: 0, Duration: 0.5, Accent: true}, {Beat: 1, Duration: 0.5}, {Beat: 1.5, Duration: 0.5}, {Beat: 2.5, Duration: 0.5}, {Beat: 3.5, Duration: 0.5},
	}},
}

// Drum motifs over the noise channel. Patterns are 16th-note grids
// (16 slots over 4 beats).
var builtinDrums = []Drum{
	{ID: "dr_basic", Tags: []string{"beat", "steady"}, Beats: 4, Pattern: "K.H.S.H.K.H.S.H."},
	{ID: "dr_four", Tags: []string{"beat", "driving", "dense"}, Beats: 4, Pattern: "K.H.KHH.K.H.KHH."},
	{ID: "dr_sparse", Tags: []string{"beat", "sparse"}, Beats: 4, Pattern: "K.......S......."},
	{ID: "dr_halftime", Tags: []string{"beat", "sparse", "steady"}, Beats: 4, Pattern: "K.......S...H..."},
	{ID: "dr_break", Tags: []string{"beat", "syncopated", "dense"}, Beats: 4, Pattern: "K.HK.S.HK.KS..H."},
	{ID: "dr_open", Tags: []string{"beat", "driving"}, Beats: 4, Pattern: "K.HOS.H.K.HOS.H."},
	{ID: "dr_fill_roll", Tags: []string{"fill", "dense"}, Beats: 4, Pattern: "K.H.S.H.SSSSTTTT"},
	{ID: "dr_fill_snap", Tags: []string{"fill"}, Beats: 4, Pattern: "K.H.S..S..S.S.S."},
	{ID: "dr_fill_tom", Tags: []string{"fill", "sparse"}, Beats: 4, Pattern: "K...T..T..T.T..."},
	{ID: "dr_tick", Tags: []string{"beat", "sparse", "minimal"}, Beats: 4, Pattern: "H...H...H...H..."},
}

// Bass patterns: eight eighth-note steps over one measure.
var builtinBasses = []Bass{
	{ID: "bs_pulse", Tags: []string{"pulse", "steady"}, Steps: [8]BassStep{
		BassRoot, BassRoot, BassRoot, BassRoot, BassRoot, BassRoot, BassRoot, BassRoot,
	}},
	{ID: "bs_octave", Tags: []string{"pulse", "driving"}, Steps: [8]BassStep{
		BassRoot, BassOctave, BassRoot, BassOctave, BassRoot, BassOctave, BassRoot, BassOctave,
	}},
	{ID: "bs_rock", Tags: []string{"steady", "driving"}, Steps: [8]BassStep{
		BassRoot, BassRoot, BassFifth, BassRoot, BassRoot, BassRoot, BassLowFifth, BassApproach,
	}},
	{ID: "bs_walk", Tags: []string{"walking", "flowing"}, Steps: [8]BassStep{
		BassRoot, BassRest, BassFifth, BassRest, BassOctave, BassRest, BassFifth, BassApproach,
	}},
	{ID: "bs_sync", Tags: []string{"syncopated", "driving"}, Steps: [8]BassStep{
		BassRoot, BassRest, BassRest, BassRoot, BassRest, BassFifth, BassRoot, BassRest,
	}},
	{ID: "bs_drone", Tags: []string{"drone", "static", "sparse"}, Steps: [8]BassStep{
		BassRoot, BassRest, BassRest, BassRest, BassRoot, BassRest, BassRest, BassRest,
	}},
	{ID: "bs_static_fifth", Tags: []string{"static", "sparse"}, Steps: [8]BassStep{
		BassRoot, BassRest, BassRest, BassRest, BassLowFifth, BassRest, BassRest, BassRest,
	}},
	{ID: "bs_cadence", Tags: []string{"section_end"}, Steps: [8]BassStep{
		BassRoot, BassRest, BassFifth, BassRest, BassOctave, BassFifth, BassApproach, BassApproach,
	}},
	{ID: "bs_lift", Tags: []string{"section_end", "driving"}, Steps: [8]BassStep{
		BassRoot, BassRoot, BassOctave, BassRoot, BassOctaveHigh, BassOctave, BassFifth, BassApproach,
	}},
}

// Transition fills merged into the drum track at section boundaries.
var builtinTransitions = []Transition{
	{ID: "tr_roll", Tags: []string{"transition", "section_end"}, Beats: 2, Pattern: "S.S.SSSS"},
	{ID: "tr_ramp", Tags: []string{"transition", "section_end", "dense"}, Beats: 2, Pattern: "T.TTS.SS"},
	{ID: "tr_drop", Tags: []string{"transition", "section_end", "sparse"}, Beats: 1, Pattern: "K..S"},
	{ID: "tr_loop", Tags: []string{"transition", "section_end", "loop_out"}, Beats: 2, Pattern: "S..S..H."},
	{ID: "tr_loop_soft", Tags: []string{"transition", "section_end", "loop_out", "sparse"}, Beats: 1, Pattern: "H..H"},
}

// Chord progressions, one chord per measure, tagged by mood.
var builtinProgressions = []Progression{
	{ID: "pg_pop", Tags: []string{"upbeat", "heroic"}, Chords: []string{"C", "G", "Am", "F"}},
	{ID: "pg_bright", Tags: []string{"upbeat"}, Chords: []string{"C", "F", "G", "F"}},
	{ID: "pg_axis", Tags: []string{"upbeat", "calm"}, Chords: []string{"F", "C", "G", "Am"}},
	{ID: "pg_soft", Tags: []string{"calm"}, Chords: []string{"Fmaj7", "Am7", "Dm7", "G"}},
	{ID: "pg_still", Tags: []string{"calm", "mysterious", "static"}, Chords: []string{"Am", "Am", "Fmaj7", "Am"}},
	{ID: "pg_minor_fall", Tags: []string{"melancholic"}, Chords: []string{"Am", "F", "C", "G"}},
	{ID: "pg_lament", Tags: []string{"melancholic", "tense"}, Chords: []string{"Am", "G", "F", "E"}},
	{ID: "pg_drive", Tags: []string{"tense", "heroic"}, Chords: []string{"Dm", "Bb", "F", "C"}},
	{ID: "pg_shadow", Tags: []string{"tense", "mysterious"}, Chords: []string{"Dm", "Am", "Bb", "A"}},
	{ID: "pg_quest", Tags: []string{"heroic"}, Chords: []string{"G", "D", "Em", "C"}},
	{ID: "pg_veil", Tags: []string{"mysterious"}, Chords: []string{"Em", "C", "Am", "B"}},
	{ID: "pg_haze", Tags: []string{"mysterious", "calm", "static"}, Chords: []string{"Em", "Em", "Cmaj7", "Em"}},
}
