package composer

import (
	"testing"

	"github.com/abagames/algo-chip-sub000/internal/rng"
	"github.com/abagames/algo-chip-sub000/internal/theory"
)

func testRealizer(totalBeats float64) *realizer {
	return &realizer{totalBeats: totalBeats}
}

func TestRealizeDrumsMonophony(t *testing.T) {
	t.Run("ShortensPriorHit", func(t *testing.T) {
		r := testRealizer(16)
		events := r.realizeDrums([]DrumHit{
			{StartBeat: 0, DurationBeats: 0.5, Instrument: theory.DrumKick, Velocity: 0.9},
			{StartBeat: 0.25, DurationBeats: 0.25, Instrument: theory.DrumSnare, Velocity: 0.85},
		})
		if len(events) != 4 {
			t.Fatalf("expected 4 events, got %d", len(events))
		}
		// The kick's off moves up to the snare's onset.
		if events[1].Command != CmdNoteOff || events[1].Beat != 0.25 {
			t.Errorf("prior hit should be shortened to 0.25, got %v at %v", events[1].Command, events[1].Beat)
		}
	})

	t.Run("CancelsTooClosePair", func(t *testing.T) {
		r := testRealizer(16)
		events := r.realizeDrums([]DrumHit{
			{StartBeat: 0, DurationBeats: 0.5, Instrument: theory.DrumKick, Velocity: 0.9},
			{StartBeat: 0.05, DurationBeats: 0.25, Instrument: theory.DrumTom, Velocity: 0.7},
		})
		if len(events) != 2 {
			t.Fatalf("canceled pair should leave 2 events, got %d", len(events))
		}
		if events[0].Note.Midi != drumMidi[theory.DrumTom] {
			t.Error("surviving hit should be the new one")
		}
	})

	t.Run("HatsStack", func(t *testing.T) {
		r := testRealizer(16)
		events := r.realizeDrums([]DrumHit{
			{StartBeat: 0, DurationBeats: 0.5, Instrument: theory.DrumHatO, Velocity: 0.55},
			{StartBeat: 0.25, DurationBeats: 0.125, Instrument: theory.DrumHatC, Velocity: 0.5},
		})
		if len(events) != 4 {
			t.Fatalf("stacked hats should keep both pairs, got %d events", len(events))
		}
		// The open hat's off stays where it was scheduled.
		if events[1].Beat != 0.5 {
			t.Errorf("open hat off moved to %v", events[1].Beat)
		}
	})

	t.Run("ShortensStillSoundingHitUnderStack", func(t *testing.T) {
		// The closed hat stacks on the open one, but the open hat keeps
		// sounding underneath; the snare must still shorten it.
		r := testRealizer(16)
		events := r.realizeDrums([]DrumHit{
			{StartBeat: 0, DurationBeats: 1, Instrument: theory.DrumHatO, Velocity: 0.55},
			{StartBeat: 0.25, DurationBeats: 0.125, Instrument: theory.DrumHatC, Velocity: 0.5},
			{StartBeat: 0.5, DurationBeats: 0.25, Instrument: theory.DrumSnare, Velocity: 0.85},
		})
		if len(events) != 6 {
			t.Fatalf("expected 6 events, got %d", len(events))
		}
		if events[1].Command != CmdNoteOff || events[1].Beat != 0.5 {
			t.Errorf("open hat should be cut at the snare's onset, got %v at %v", events[1].Command, events[1].Beat)
		}
	})

	t.Run("ClampsToCompositionEnd", func(t *testing.T) {
		r := testRealizer(16)
		events := r.realizeDrums([]DrumHit{
			{StartBeat: 15.8, DurationBeats: 0.5, Instrument: theory.DrumKick, Velocity: 0.9},
			{StartBeat: 16.5, DurationBeats: 0.25, Instrument: theory.DrumSnare, Velocity: 0.85},
		})
		if len(events) != 2 {
			t.Fatalf("past-end hit should be dropped, got %d events", len(events))
		}
		if events[1].Beat != 16 {
			t.Errorf("noteOff should clamp to 16, got %v", events[1].Beat)
		}
	})
}

func TestAccompanimentEchoAndDetune(t *testing.T) {
	r := &realizer{
		plan: &Plan{
			BPM:    120,
			Intent: StyleIntent{LoopCentric: true, PadCentric: true},
		},
		stream:     rng.New(7),
		totalBeats: 400,
		sections:   map[string]*SectionDef{},
	}

	// Source notes on even beats with a one-beat gap each, so every echo
	// lands on an odd beat.
	var track VoiceTrack
	for i := 0; i < 200; i++ {
		track.Notes = append(track.Notes, AbstractNote{
			StartBeat:     float64(i * 2),
			DurationBeats: 1,
			Midi:          60,
			Velocity:      0.8,
		})
	}

	out := r.accompanimentNotes(track)
	if len(out) <= len(track.Notes) {
		t.Fatalf("loop-centric style should add echoes, got %d notes from %d", len(out), len(track.Notes))
	}

	echoes := 0
	detuned := 0
	for _, n := range out {
		if n.DetuneCents > 0 {
			detuned++
		}
		if int(n.StartBeat)%2 == 0 {
			continue
		}
		echoes++
		if n.Velocity != 0.4 {
			t.Errorf("echo at %v has velocity %v, want half the source's 0.8", n.StartBeat, n.Velocity)
		}
		if n.DurationBeats > 0.5 {
			t.Errorf("echo at %v lasts %v, want at most 0.5", n.StartBeat, n.DurationBeats)
		}
	}
	if echoes == 0 {
		t.Error("no echoes placed in the gaps")
	}
	if detuned == 0 {
		t.Error("pad-centric style should detune some notes")
	}
}

func TestEmitChannel(t *testing.T) {
	t.Run("ClipsOverlap", func(t *testing.T) {
		r := testRealizer(16)
		events := r.emitChannel(ChannelSquare1, []realNote{
			{AbstractNote: AbstractNote{StartBeat: 0, DurationBeats: 2, Midi: 60, Velocity: 0.8}},
			{AbstractNote: AbstractNote{StartBeat: 1, DurationBeats: 1, Midi: 64, Velocity: 0.8}},
		})
		if len(events) != 4 {
			t.Fatalf("expected 4 events, got %d", len(events))
		}
		if events[1].Command != CmdNoteOff || events[1].Beat != 1 {
			t.Errorf("first note should clip at the second's onset, off at %v", events[1].Beat)
		}
	})

	t.Run("DropsEqualStarts", func(t *testing.T) {
		r := testRealizer(16)
		events := r.emitChannel(ChannelSquare2, []realNote{
			{AbstractNote: AbstractNote{StartBeat: 2, DurationBeats: 1, Midi: 60, Velocity: 0.8}},
			{AbstractNote: AbstractNote{StartBeat: 2, DurationBeats: 0.5, Midi: 64, Velocity: 0.8}},
		})
		if len(events) != 2 {
			t.Fatalf("equal starts should collapse to one note, got %d events", len(events))
		}
		if events[0].Note.Midi != 64 {
			t.Error("the later entry should win an equal-start collision")
		}
	})

	t.Run("DropsPastEndNotes", func(t *testing.T) {
		r := testRealizer(8)
		events := r.emitChannel(ChannelTriangle, []realNote{
			{AbstractNote: AbstractNote{StartBeat: 9, DurationBeats: 1, Midi: 48, Velocity: 0.7}},
		})
		if len(events) != 0 {
			t.Errorf("notes past the end should be dropped, got %d events", len(events))
		}
	})
}

func TestScaleVelocity(t *testing.T) {
	r := testRealizer(16)

	t.Run("BassQuieterThanMelody", func(t *testing.T) {
		melody := r.scaleVelocity(
			realNote{AbstractNote: AbstractNote{Midi: 72, Velocity: 0.8}},
			Voice{Role: RoleMelody, Channel: ChannelSquare1})
		bass := r.scaleVelocity(
			realNote{AbstractNote: AbstractNote{Midi: 36, Velocity: 0.8}},
			Voice{Role: RoleBass, Channel: ChannelTriangle})
		if bass >= melody {
			t.Errorf("bass %v should sit below melody %v", bass, melody)
		}
	})

	t.Run("ClampedBelowAccentHeadroom", func(t *testing.T) {
		v := r.scaleVelocity(
			realNote{AbstractNote: AbstractNote{Midi: 72, Velocity: 5}},
			Voice{Role: RoleMelody, Channel: ChannelSquare1})
		if v > velocityMax-accentHeadroom {
			t.Errorf("velocity %v above the headroom cap", v)
		}
	})

	t.Run("FloorHolds", func(t *testing.T) {
		v := r.scaleVelocity(
			realNote{AbstractNote: AbstractNote{Midi: 30, Velocity: 0.01}},
			Voice{Role: RoleBass, Channel: ChannelTriangle})
		if v < velocityMin {
			t.Errorf("velocity %v under the floor", v)
		}
	})
}

func TestReconcileConsonance(t *testing.T) {
	r := testRealizer(16)
	r.melody = []AbstractNote{{StartBeat: 0, DurationBeats: 4, Midi: 72}}

	t.Run("NoMelody_KeepsPitch", func(t *testing.T) {
		empty := testRealizer(16)
		got := empty.reconcileConsonance(AbstractNote{StartBeat: 0, Midi: 65})
		if got != 65 {
			t.Errorf("without a melody the pitch must not move, got %d", got)
		}
	})

	t.Run("DistantNote_PulledTowardMelody", func(t *testing.T) {
		// 48 against 72: the proximity term makes the +12 candidate win
		// (1.2 + 0.6 beats 2.4 in place and 4.2 further down).
		got := r.reconcileConsonance(AbstractNote{StartBeat: 0, Midi: 48})
		if got != 60 {
			t.Errorf("distant octave should shift up to 60, got %d", got)
		}
	})

	t.Run("NearbyPitch_Stays", func(t *testing.T) {
		// 67 against 72 already sits close; the spread term makes any
		// octave shift strictly worse.
		got := r.reconcileConsonance(AbstractNote{StartBeat: 0, Midi: 67})
		if got != 67 {
			t.Errorf("nearby note should stay at 67, got %d", got)
		}
	})

	t.Run("OffsetMelodyNote_Ignored", func(t *testing.T) {
		got := r.reconcileConsonance(AbstractNote{StartBeat: 5, Midi: 48})
		if got != 48 {
			t.Errorf("no melody sounds at beat 5, pitch must stay at 48, got %d", got)
		}
	})
}
