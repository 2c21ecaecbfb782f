package theory

import (
	"math"
	"testing"
)

func TestNoteToMidi(t *testing.T) {
	cases := []struct {
		name string
		want int
	}{
		{"C4", 60},
		{"A4", 69},
		{"F#3", 54},
		{"Bb2", 46},
		{"C-1", 0},
	}
	for _, c := range cases {
		got, err := NoteToMidi(c.name)
		if err != nil {
			t.Errorf("NoteToMidi(%q) error: %v", c.name, err)
			continue
		}
		if got != c.want {
			t.Errorf("NoteToMidi(%q) = %d, want %d", c.name, got, c.want)
		}
	}

	t.Run("Invalid", func(t *testing.T) {
		for _, bad := range []string{"", "4", "C", "X4"} {
			if _, err := NoteToMidi(bad); err == nil {
				t.Errorf("NoteToMidi(%q) should fail", bad)
			}
		}
	})
}

func TestMidiToNoteName(t *testing.T) {
	if got := MidiToNoteName(69); got != "A4" {
		t.Errorf("MidiToNoteName(69) = %q, want A4", got)
	}
	if got := MidiToNoteName(60); got != "C4" {
		t.Errorf("MidiToNoteName(60) = %q, want C4", got)
	}
}

func TestMidiToFreq(t *testing.T) {
	if f := MidiToFreq(69); math.Abs(f-440) > 1e-9 {
		t.Errorf("A4 should be 440Hz, got %v", f)
	}
	if f := MidiToFreq(57); math.Abs(f-220) > 1e-9 {
		t.Errorf("A3 should be 220Hz, got %v", f)
	}
}

func TestParseKey(t *testing.T) {
	t.Run("Major", func(t *testing.T) {
		tonic, degrees, err := ParseKey("C major")
		if err != nil {
			t.Fatal(err)
		}
		if tonic != 0 {
			t.Errorf("C tonic = %d, want 0", tonic)
		}
		if degrees != MajorScale {
			t.Errorf("degrees = %v, want major scale", degrees)
		}
	})

	t.Run("Minor", func(t *testing.T) {
		tonic, degrees, err := ParseKey("A minor")
		if err != nil {
			t.Fatal(err)
		}
		if tonic != 9 {
			t.Errorf("A tonic = %d, want 9", tonic)
		}
		if degrees != NaturalMinorScale {
			t.Errorf("degrees = %v, want natural minor scale", degrees)
		}
	})

	t.Run("Invalid", func(t *testing.T) {
		for _, bad := range []string{"", "C", "C dorian", "H major"} {
			if _, _, err := ParseKey(bad); err == nil {
				t.Errorf("ParseKey(%q) should fail", bad)
			}
		}
	})
}

func TestDegreeToMidi(t *testing.T) {
	tonic, degrees, _ := ParseKey("C major")

	t.Run("TonicNearRegister", func(t *testing.T) {
		got := DegreeToMidi(tonic, degrees, 0, 72)
		if got != 72 {
			t.Errorf("degree 0 at register 72 in C = %d, want 72", got)
		}
	})

	t.Run("OctaveWrap", func(t *testing.T) {
		base := DegreeToMidi(tonic, degrees, 0, 72)
		up := DegreeToMidi(tonic, degrees, 7, 72)
		if up != base+12 {
			t.Errorf("degree 7 should sit an octave above degree 0: %d vs %d", up, base)
		}
	})

	t.Run("NegativeDegree", func(t *testing.T) {
		base := DegreeToMidi(tonic, degrees, 0, 72)
		down := DegreeToMidi(tonic, degrees, -1, 72)
		if down >= base {
			t.Errorf("degree -1 (%d) should be below degree 0 (%d)", down, base)
		}
	})

	t.Run("AlwaysValidMidi", func(t *testing.T) {
		for degree := -10; degree <= 20; degree++ {
			for _, register := range []int{0, 40, 72, 127} {
				got := DegreeToMidi(tonic, degrees, degree, register)
				if got < MidiMin || got > MidiMax {
					t.Fatalf("degree %d register %d out of range: %d", degree, register, got)
				}
			}
		}
	})
}

func TestParseChord(t *testing.T) {
	cases := []struct {
		symbol    string
		root      int
		intervals int
	}{
		{"C", 0, 3},
		{"Am", 9, 3},
		{"G7", 7, 4},
		{"Dm7", 2, 4},
		{"Fmaj7", 5, 4},
		{"F#dim", 6, 3},
		{"Bb5", 10, 2},
		{"Csus4", 0, 3},
	}
	for _, c := range cases {
		chord, ok := ParseChord(c.symbol)
		if !ok {
			t.Errorf("ParseChord(%q) failed", c.symbol)
			continue
		}
		if chord.Root != c.root {
			t.Errorf("ParseChord(%q).Root = %d, want %d", c.symbol, chord.Root, c.root)
		}
		if len(chord.Intervals) != c.intervals {
			t.Errorf("ParseChord(%q) has %d intervals, want %d", c.symbol, len(chord.Intervals), c.intervals)
		}
	}

	t.Run("Invalid", func(t *testing.T) {
		for _, bad := range []string{"", "Hm", "Cxyz"} {
			if _, ok := ParseChord(bad); ok {
				t.Errorf("ParseChord(%q) should fail", bad)
			}
		}
	})
}

func TestChordTones(t *testing.T) {
	chord, _ := ParseChord("C")

	t.Run("RootMidiNearRegister", func(t *testing.T) {
		root := chord.RootMidi(60)
		if root != 60 {
			t.Errorf("C root near 60 = %d, want 60", root)
		}
	})

	t.Run("ToneCyclesWithOctaveLift", func(t *testing.T) {
		if chord.Tone(60, 0) != 60 {
			t.Errorf("tone 0 = %d, want 60", chord.Tone(60, 0))
		}
		if chord.Tone(60, 3) != 72 {
			t.Errorf("tone 3 should wrap to the octave root: %d", chord.Tone(60, 3))
		}
	})

	t.Run("NearestTone", func(t *testing.T) {
		// 61 sits between C (60) and E (64); C wins.
		if got := chord.NearestTone(61); got != 60 {
			t.Errorf("NearestTone(61) = %d, want 60", got)
		}
	})
}

func TestParseDrumPattern(t *testing.T) {
	t.Run("SixteenSlots", func(t *testing.T) {
		strokes := ParseDrumPattern("K...S...K...S...", 4)
		if len(strokes) != 4 {
			t.Fatalf("expected 4 strokes, got %d", len(strokes))
		}
		if strokes[0].Instrument != DrumKick || strokes[0].Beat != 0 {
			t.Errorf("first stroke = %+v", strokes[0])
		}
		if strokes[1].Instrument != DrumSnare || strokes[1].Beat != 1 {
			t.Errorf("second stroke = %+v", strokes[1])
		}
	})

	t.Run("EmptyPattern", func(t *testing.T) {
		if strokes := ParseDrumPattern("....", 4); len(strokes) != 0 {
			t.Errorf("rest-only pattern should yield no strokes, got %d", len(strokes))
		}
	})

	t.Run("ValidVocabulary", func(t *testing.T) {
		if !ValidDrumPattern("KSHOTN.") {
			t.Error("full vocabulary should validate")
		}
		if ValidDrumPattern("KXZ") {
			t.Error("unknown instrument letters should fail")
		}
	})
}

func TestDrumInstrument(t *testing.T) {
	if !DrumHatC.IsHat() || !DrumHatO.IsHat() {
		t.Error("both hat variants should report IsHat")
	}
	if DrumKick.IsHat() || DrumSnare.IsHat() {
		t.Error("kick and snare are not hats")
	}
}
