// Package theory holds the music-theory conversions shared by the
// composition pipeline: note names, MIDI numbers, frequencies, chord
// symbols, scales, and drum pattern strings.
package theory

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// MIDI range accepted by the synthesizer channels.
const (
	MidiMin = 0
	MidiMax = 127
)

var noteNames = []string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

var pitchClasses = map[string]int{
	"C": 0, "C#": 1, "Db": 1, "D": 2, "D#": 3, "Eb": 3,
	"E": 4, "F": 5, "F#": 6, "Gb": 6, "G": 7, "G#": 8,
	"Ab": 8, "A": 9, "A#": 10, "Bb": 10, "B": 11,
}

// ClampMidi forces a note number into the valid MIDI range.
func ClampMidi(n int) int {
	if n < MidiMin {
		return MidiMin
	}
	if n > MidiMax {
		return MidiMax
	}
	return n
}

// NoteToMidi converts a note name like "C4" or "F#3" to a MIDI number.
func NoteToMidi(name string) (int, error) {
	i := len(name)
	for i > 0 && (name[i-1] == '-' || (name[i-1] >= '0' && name[i-1] <= '9')) {
		i--
	}
	if i == 0 || i == len(name) {
		return 0, fmt.Errorf("invalid note name %q", name)
	}
	pc, ok := pitchClasses[name[:i]]
	if !ok {
		return 0, fmt.Errorf("invalid pitch class in %q", name)
	}
	octave, err := strconv.Atoi(name[i:])
	if err != nil {
		return 0, fmt.Errorf("invalid octave in %q", name)
	}
	return (octave+1)*12 + pc, nil
}

// MidiToNoteName converts a MIDI number to a note name like "A4".
func MidiToNoteName(midi int) string {
	midi = ClampMidi(midi)
	return fmt.Sprintf("%s%d", noteNames[midi%12], midi/12-1)
}

// MidiToFreq converts a MIDI number to frequency in Hz (A4 = 440).
func MidiToFreq(midi int) float64 {
	return 440.0 * math.Pow(2, float64(midi-69)/12.0)
}

// Scale interval tables in semitones from the tonic.
var (
	MajorScale        = [7]int{0, 2, 4, 5, 7, 9, 11}
	NaturalMinorScale = [7]int{0, 2, 3, 5, 7, 8, 10}
)

// ParseKey splits a key name like "C major" or "A minor" into its tonic
// pitch class and scale degree offsets.
func ParseKey(key string) (tonic int, degrees [7]int, err error) {
	fields := strings.Fields(key)
	if len(fields) != 2 {
		return 0, degrees, fmt.Errorf("invalid key %q", key)
	}
	tonic, ok := pitchClasses[fields[0]]
	if !ok {
		return 0, degrees, fmt.Errorf("invalid tonic in key %q", key)
	}
	switch strings.ToLower(fields[1]) {
	case "major":
		return tonic, MajorScale, nil
	case "minor":
		return tonic, NaturalMinorScale, nil
	}
	return 0, degrees, fmt.Errorf("invalid mode in key %q", key)
}

// DegreeToMidi maps a scale degree onto a MIDI note around a register
// center. Degrees beyond the octave wrap with an octave shift; negative
// degrees reach below the tonic.
func DegreeToMidi(tonic int, degrees [7]int, degree, register int) int {
	octShift := 0
	for degree < 0 {
		degree += 7
		octShift -= 12
	}
	octShift += (degree / 7) * 12
	semis := degrees[degree%7]

	// Anchor the tonic to the octave nearest the register center.
	base := register - ((register - tonic) % 12)
	if base > register {
		base -= 12
	}
	return ClampMidi(base + semis + octShift)
}

// chordQualities maps a quality suffix to intervals above the root.
var chordQualities = map[string][]int{
	"":     {0, 4, 7},
	"m":    {0, 3, 7},
	"7":    {0, 4, 7, 10},
	"m7":   {0, 3, 7, 10},
	"maj7": {0, 4, 7, 11},
	"M7":   {0, 4, 7, 11},
	"dim":  {0, 3, 6},
	"aug":  {0, 4, 8},
	"sus2": {0, 2, 7},
	"sus4": {0, 5, 7},
	"add9": {0, 4, 7, 14},
	"6":    {0, 4, 7, 9},
	"m6":   {0, 3, 7, 9},
	"5":    {0, 7},
}

// Chord is a parsed chord symbol.
type Chord struct {
	Symbol    string
	Root      int // pitch class 0-11
	Intervals []int
}

// ParseChord parses a chord symbol like "Am7" or "F#dim". The boolean is
// false for unparseable symbols; callers fall back rather than fail, since
// bad symbols stem from boundary arithmetic, not corrupt data.
func ParseChord(symbol string) (Chord, bool) {
	if symbol == "" {
		return Chord{}, false
	}
	rootLen := 1
	if len(symbol) > 1 && (symbol[1] == '#' || symbol[1] == 'b') {
		rootLen = 2
	}
	root, ok := pitchClasses[symbol[:rootLen]]
	if !ok {
		return Chord{}, false
	}
	intervals, ok := chordQualities[symbol[rootLen:]]
	if !ok {
		return Chord{}, false
	}
	return Chord{Symbol: symbol, Root: root, Intervals: intervals}, true
}

// RootMidi returns the chord root placed near a register center.
func (c Chord) RootMidi(register int) int {
	base := register - ((register - c.Root) % 12)
	if base > register {
		base -= 12
	}
	return ClampMidi(base)
}

// Tones returns the chord tones as MIDI notes around a register center.
func (c Chord) Tones(register int) []int {
	root := c.RootMidi(register)
	tones := make([]int, len(c.Intervals))
	for i, iv := range c.Intervals {
		tones[i] = ClampMidi(root + iv)
	}
	return tones
}

// Tone returns the i-th chord tone, cycling with an octave lift per pass
// so arpeggios keep climbing instead of wrapping flat. Negative indices
// descend symmetrically.
func (c Chord) Tone(register, i int) int {
	n := len(c.Intervals)
	if n == 0 {
		return c.RootMidi(register)
	}
	lift := (i / n) * 12
	idx := i % n
	if idx < 0 {
		idx += n
		lift -= 12
	}
	return ClampMidi(c.RootMidi(register) + c.Intervals[idx] + lift)
}

// NearestTone snaps a MIDI note to the closest chord tone.
func (c Chord) NearestTone(midi int) int {
	tones := c.Tones(midi)
	best := midi
	bestDist := 128
	for _, t := range tones {
		for _, cand := range []int{t - 12, t, t + 12} {
			d := cand - midi
			if d < 0 {
				d = -d
			}
			if d < bestDist {
				bestDist = d
				best = cand
			}
		}
	}
	return ClampMidi(best)
}

// DrumInstrument identifies a noise-channel percussion sound.
type DrumInstrument byte

const (
	DrumKick    DrumInstrument = 'K'
	DrumSnare   DrumInstrument = 'S'
	DrumHatC    DrumInstrument = 'H'
	DrumHatO    DrumInstrument = 'O'
	DrumTom     DrumInstrument = 'T'
	DrumNoise   DrumInstrument = 'N'
	drumRest                   = '.'
)

// IsHat reports whether the instrument belongs to the hi-hat family, the
// only family allowed to stack on the noise channel.
func (d DrumInstrument) IsHat() bool {
	return d == DrumHatC || d == DrumHatO
}

func (d DrumInstrument) String() string {
	switch d {
	case DrumKick:
		return "kick"
	case DrumSnare:
		return "snare"
	case DrumHatC:
		return "hatClosed"
	case DrumHatO:
		return "hatOpen"
	case DrumTom:
		return "tom"
	case DrumNoise:
		return "noise"
	}
	return "unknown"
}

// DrumStroke is one onset parsed from a drum pattern string.
type DrumStroke struct {
	Beat       float64
	Instrument DrumInstrument
}

// ValidDrumPattern reports whether a pattern string uses only the drum
// vocabulary (K S H O T N and '.').
func ValidDrumPattern(pattern string) bool {
	for i := 0; i < len(pattern); i++ {
		switch DrumInstrument(pattern[i]) {
		case DrumKick, DrumSnare, DrumHatC, DrumHatO, DrumTom, DrumNoise, drumRest:
		default:
			return false
		}
	}
	return len(pattern) > 0
}

// ParseDrumPattern expands a pattern string into strokes. The string's
// slots divide beats evenly, so a 16-char pattern over 4 beats is 16ths.
func ParseDrumPattern(pattern string, beats float64) []DrumStroke {
	if len(pattern) == 0 || beats <= 0 {
		return nil
	}
	step := beats / float64(len(pattern))
	var strokes []DrumStroke
	for i := 0; i < len(pattern); i++ {
		c := DrumInstrument(pattern[i])
		if c == drumRest {
			continue
		}
		strokes = append(strokes, DrumStroke{
			Beat:       float64(i) * step,
			Instrument: c,
		})
	}
	return strokes
}
