package composer

import "testing"

func TestSortTimedEvents(t *testing.T) {
	events := []TimedEvent{
		noteOnEvent(4, ChannelSquare1, NoteData{Midi: 60}),
		noteOffEvent(4, ChannelSquare1, 0),
		setParamEvent(4, ChannelSquare1, ParamGain, 0.8),
		noteOnEvent(0, ChannelTriangle, NoteData{Midi: 40}),
	}
	sortTimedEvents(events)

	if events[0].Beat != 0 {
		t.Fatal("earlier beat should sort first")
	}

	// At the shared timestamp: setParam, then noteOff, then noteOn, so a
	// parameter applies to the note starting at the same instant and
	// zero-gap retriggers keep alternating.
	if events[1].Command != CmdSetParam {
		t.Errorf("events[1] = %s, want setParam", events[1].Command)
	}
	if events[2].Command != CmdNoteOff {
		t.Errorf("events[2] = %s, want noteOff", events[2].Command)
	}
	if events[3].Command != CmdNoteOn {
		t.Errorf("events[3] = %s, want noteOn", events[3].Command)
	}
}

func TestSortStability(t *testing.T) {
	events := []TimedEvent{
		noteOnEvent(2, ChannelSquare1, NoteData{Midi: 60}),
		noteOnEvent(2, ChannelSquare2, NoteData{Midi: 64}),
	}
	sortTimedEvents(events)
	if events[0].Channel != ChannelSquare1 {
		t.Error("equal-rank events must keep their insertion order")
	}
}

func TestParamChannelPairing(t *testing.T) {
	cases := []struct {
		channel Channel
		param   ParamName
		ok      bool
	}{
		{ChannelSquare1, ParamDuty, true},
		{ChannelSquare2, ParamDuty, true},
		{ChannelTriangle, ParamDuty, false},
		{ChannelNoise, ParamDuty, false},
		{ChannelNoise, ParamNoiseMode, true},
		{ChannelSquare1, ParamNoiseMode, false},
		{ChannelTriangle, ParamGain, true},
		{ChannelNoise, ParamGain, true},
	}
	for _, c := range cases {
		_, err := newParamData(c.channel, c.param, 0.5)
		if (err == nil) != c.ok {
			t.Errorf("newParamData(%s, %s): err=%v, want ok=%v", c.channel, c.param, err, c.ok)
		}
	}

	t.Run("UnknownParam", func(t *testing.T) {
		if _, err := newParamData(ChannelSquare1, "cutoff", 0.5); err == nil {
			t.Error("unknown parameter should fail")
		}
	})
}

func TestNoteOnClampsMidi(t *testing.T) {
	ev := noteOnEvent(0, ChannelSquare1, NoteData{Midi: 300})
	if ev.Note.Midi != 127 {
		t.Errorf("midi should clamp to 127, got %d", ev.Note.Midi)
	}
}
