package motif

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/abagames/algo-chip-sub000/internal/theory"
)

// LoadFile reads and validates a motif library from a JSON file. The file
// uses the same shape as the Library struct's JSON tags.
func LoadFile(path string) (*Library, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read motif library: %w", err)
	}
	var lib Library
	if err := json.Unmarshal(data, &lib); err != nil {
		return nil, fmt.Errorf("parse motif library: %w", err)
	}
	if err := lib.Validate(); err != nil {
		return nil, err
	}
	return &lib, nil
}

var validBassSteps = map[BassStep]bool{
	BassRoot: true, BassFifth: true, BassLowFifth: true, BassOctave: true,
	BassOctaveHigh: true, BassApproach: true, BassRest: true,
}

// Validate checks structural library invariants: unique ids, pattern
// lengths, the drum vocabulary, chord-name syntax, and variation links.
// Generation assumes a validated library; selector-level constraints (a
// motif of a required length existing) surface later as fatal errors.
func (l *Library) Validate() error {
	ids := map[string]bool{}
	unique := func(kind, id string) error {
		if id == "" {
			return fmt.Errorf("%s motif with empty id", kind)
		}
		key := kind + "/" + id
		if ids[key] {
			return fmt.Errorf("duplicate %s id %q", kind, id)
		}
		ids[key] = true
		return nil
	}

	checkRhythm := func(kind string, r Rhythm) error {
		if err := unique(kind, r.ID); err != nil {
			return err
		}
		if r.Beats <= 0 {
			return fmt.Errorf("%s %q: beats must be positive", kind, r.ID)
		}
		if len(r.Onsets) == 0 {
			return fmt.Errorf("%s %q: no onsets", kind, r.ID)
		}
		for _, o := range r.Onsets {
			if o.Beat < 0 || o.Beat >= r.Beats {
				return fmt.Errorf("%s %q: onset at %.2f outside 0-%.2f", kind, r.ID, o.Beat, r.Beats)
			}
			if o.Duration <= 0 {
				return fmt.Errorf("%s %q: onset at %.2f has non-positive duration", kind, r.ID, o.Beat)
			}
		}
		return nil
	}

	for _, r := range l.Rhythms {
		if err := checkRhythm("rhythm", r); err != nil {
			return err
		}
		if r.VariationOf != "" {
			if _, ok := l.RhythmByID(r.VariationOf); !ok {
				return fmt.Errorf("rhythm %q: variationOf %q not found", r.ID, r.VariationOf)
			}
		}
	}
	for _, r := range l.MelodyRhythms {
		if err := checkRhythm("melodyRhythm", r); err != nil {
			return err
		}
	}
	for _, m := range l.Melodies {
		if err := unique("melody", m.ID); err != nil {
			return err
		}
		if len(m.Degrees) == 0 {
			return fmt.Errorf("melody %q: no degrees", m.ID)
		}
	}
	for _, d := range l.Drums {
		if err := unique("drum", d.ID); err != nil {
			return err
		}
		if d.Beats <= 0 {
			return fmt.Errorf("drum %q: beats must be positive", d.ID)
		}
		if !theory.ValidDrumPattern(d.Pattern) {
			return fmt.Errorf("drum %q: invalid pattern %q", d.ID, d.Pattern)
		}
	}
	for _, b := range l.Basses {
		if err := unique("bass", b.ID); err != nil {
			return err
		}
		for i, s := range b.Steps {
			if !validBassSteps[s] {
				return fmt.Errorf("bass %q: invalid step %q at slot %d", b.ID, s, i)
			}
		}
	}
	for _, t := range l.Transitions {
		if err := unique("transition", t.ID); err != nil {
			return err
		}
		if t.Beats <= 0 {
			return fmt.Errorf("transition %q: beats must be positive", t.ID)
		}
		if !theory.ValidDrumPattern(t.Pattern) {
			return fmt.Errorf("transition %q: invalid pattern %q", t.ID, t.Pattern)
		}
	}
	for _, p := range l.Progressions {
		if err := unique("progression", p.ID); err != nil {
			return err
		}
		if len(p.Chords) == 0 {
			return fmt.Errorf("progression %q: no chords", p.ID)
		}
		for _, c := range p.Chords {
			if _, ok := theory.ParseChord(c); !ok {
				return fmt.Errorf("progression %q: invalid chord symbol %q", p.ID, c)
			}
		}
	}
	return nil
}
