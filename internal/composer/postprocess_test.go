package composer

import (
	"testing"

	"github.com/abagames/algo-chip-sub000/internal/rng"
)

func TestDutySweeps(t *testing.T) {
	plan := &Plan{BPM: 120, Technique: TechniqueStrategy{DutySweep: 1}}

	t.Run("InterpolatesAcrossNote", func(t *testing.T) {
		events := []TimedEvent{
			noteOnEvent(0, ChannelSquare1, NoteData{Midi: 72, Velocity: 0.8}),
			noteOffEvent(2, ChannelSquare1, 0),
		}
		out := dutySweeps(rng.New(1), plan, events)

		if len(out) != dutySweepSteps+1 {
			t.Fatalf("expected %d duty events, got %d", dutySweepSteps+1, len(out))
		}

		// Steps climb evenly from above the lead duty up to the peak.
		prevBeat := -1.0
		prevValue := dutyLead
		for i := 0; i < dutySweepSteps; i++ {
			step := out[i]
			if step.Beat <= prevBeat {
				t.Errorf("step %d at beat %v not after %v", i, step.Beat, prevBeat)
			}
			if step.Param.Value <= prevValue {
				t.Errorf("step %d value %v not above %v", i, step.Param.Value, prevValue)
			}
			prevBeat = step.Beat
			prevValue = step.Param.Value
		}
		if prevValue != dutySweepPeak {
			t.Errorf("final step value %v, want peak %v", prevValue, dutySweepPeak)
		}
		if prevBeat >= 2 {
			t.Errorf("last interpolation step at %v must precede the note end", prevBeat)
		}

		restore := out[len(out)-1]
		if restore.Beat != 2 || restore.Param.Value != dutyLead {
			t.Errorf("restore = %v at %v, want %v at note end", restore.Param.Value, restore.Beat, dutyLead)
		}
	})

	t.Run("ShortNote_NoSweep", func(t *testing.T) {
		events := []TimedEvent{
			noteOnEvent(0, ChannelSquare2, NoteData{Midi: 60, Velocity: 0.8}),
			noteOffEvent(0.5, ChannelSquare2, 0),
		}
		if out := dutySweeps(rng.New(1), plan, events); len(out) != 0 {
			t.Errorf("notes under the minimum duration must not sweep, got %d events", len(out))
		}
	})

	t.Run("NonSquare_Ignored", func(t *testing.T) {
		events := []TimedEvent{
			noteOnEvent(0, ChannelTriangle, NoteData{Midi: 40, Velocity: 0.7}),
			noteOffEvent(4, ChannelTriangle, 0),
		}
		if out := dutySweeps(rng.New(1), plan, events); len(out) != 0 {
			t.Errorf("triangle notes must not sweep duty, got %d events", len(out))
		}
	})
}

func TestBuildStaircase(t *testing.T) {
	plan := &Plan{
		BPM:              120,
		LengthInMeasures: 32,
		Intent:           StyleIntent{GradualBuild: true},
	}
	events := buildStaircase(plan)

	byChannel := map[Channel][]float64{}
	for _, ev := range events {
		if ev.Command != CmdSetParam || ev.Param.Param != ParamGain {
			t.Fatalf("staircase emitted a non-gain event: %v", ev.Command)
		}
		byChannel[ev.Channel] = append(byChannel[ev.Channel], ev.Param.Value)
	}

	for _, ch := range Channels() {
		values := byChannel[ch]
		if len(values) == 0 {
			t.Errorf("channel %s missing staircase steps", ch)
			continue
		}
		for i := 1; i < len(values); i++ {
			if values[i] <= values[i-1] {
				t.Errorf("channel %s: step %d gain %v not above %v", ch, i, values[i], values[i-1])
			}
		}
		if last := values[len(values)-1]; last > gainLift {
			t.Errorf("channel %s: final gain %v above the lift ceiling", ch, last)
		}
	}
}
