// Package motif defines the read-only, tag-indexed motif library the
// composer selects from: rhythm, melody, melody-rhythm, drum, bass,
// transition, and chord-progression tables. The library is loaded once and
// shared across concurrent generations without locking.
package motif

// Onset is one attack within a rhythm motif, in beats from the motif start.
type Onset struct {
	Beat     float64 `json:"beat"`
	Duration float64 `json:"duration"`
	Accent   bool    `json:"accent,omitempty"`
}

// Rhythm is a tagged rhythm motif. The same shape serves both
// accompaniment rhythms and melody rhythms; they live in separate tables
// because their tag vocabularies differ.
type Rhythm struct {
	ID          string   `json:"id"`
	Tags        []string `json:"tags"`
	Beats       float64  `json:"beats"`
	Onsets      []Onset  `json:"onsets"`
	VariationOf string   `json:"variationOf,omitempty"`
}

// Melody is a scale-degree contour applied over a melody rhythm's onsets.
// Degrees are zero-based (0 = tonic); values outside 0-6 shift octaves.
type Melody struct {
	ID      string   `json:"id"`
	Tags    []string `json:"tags"`
	Degrees []int    `json:"degrees"`
}

// Drum is a percussion motif over the noise channel. Pattern slots divide
// Beats evenly using the K/S/H/O/T/N vocabulary with '.' as rest.
type Drum struct {
	ID      string   `json:"id"`
	Tags    []string `json:"tags"`
	Beats   float64  `json:"beats"`
	Pattern string   `json:"pattern"`
}

// BassStep is one slot of an eight-step bass pattern.
type BassStep string

const (
	BassRoot       BassStep = "root"
	BassFifth      BassStep = "fifth"
	BassLowFifth   BassStep = "lowFifth"
	BassOctave     BassStep = "octave"
	BassOctaveHigh BassStep = "octaveHigh"
	BassApproach   BassStep = "approach"
	BassRest       BassStep = "rest"
)

// Bass is an eight-step (eighth-note) bass pattern for one measure.
type Bass struct {
	ID    string      `json:"id"`
	Tags  []string    `json:"tags"`
	Steps [8]BassStep `json:"steps"`
}

// Transition is a drum fill played at a section boundary.
type Transition struct {
	ID      string   `json:"id"`
	Tags    []string `json:"tags"`
	Beats   float64  `json:"beats"`
	Pattern string   `json:"pattern"`
}

// Progression is a tagged chord progression, one chord per measure.
type Progression struct {
	ID     string   `json:"id"`
	Tags   []string `json:"tags"`
	Chords []string `json:"chords"`
}

// Library is the full motif library. It is treated as read-only after
// construction.
type Library struct {
	Rhythms       []Rhythm      `json:"rhythms"`
	Melodies      []Melody      `json:"melodies"`
	MelodyRhythms []Rhythm      `json:"melodyRhythms"`
	Drums         []Drum        `json:"drums"`
	Basses        []Bass        `json:"basses"`
	Transitions   []Transition  `json:"transitions"`
	Progressions  []Progression `json:"progressions"`
}

// HasTag reports whether a tag list contains the given tag.
func HasTag(tags []string, tag string) bool {
	for _, t := range tags {
		if t == tag {
			return true
		}
	}
	return false
}

// HasAllTags reports whether every required tag is present.
func HasAllTags(tags []string, required []string) bool {
	for _, r := range required {
		if !HasTag(tags, r) {
			return false
		}
	}
	return true
}

// RhythmByID finds an accompaniment rhythm by id.
func (l *Library) RhythmByID(id string) (Rhythm, bool) {
	for _, r := range l.Rhythms {
		if r.ID == id {
			return r, true
		}
	}
	return Rhythm{}, false
}

// MelodyRhythmByID finds a melody rhythm by id.
func (l *Library) MelodyRhythmByID(id string) (Rhythm, bool) {
	for _, r := range l.MelodyRhythms {
		if r.ID == id {
			return r, true
		}
	}
	return Rhythm{}, false
}

// MelodyByID finds a melody by id.
func (l *Library) MelodyByID(id string) (Melody, bool) {
	for _, m := range l.Melodies {
		if m.ID == id {
			return m, true
		}
	}
	return Melody{}, false
}

// Variations returns the rhythm motifs that declare the given id as their
// base, in library order.
func (l *Library) Variations(baseID string) []Rhythm {
	var out []Rhythm
	for _, r := range l.Rhythms {
		if r.VariationOf == baseID {
			out = append(out, r)
		}
	}
	return out
}
