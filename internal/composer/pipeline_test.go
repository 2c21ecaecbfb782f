package composer

import (
	"encoding/json"
	"errors"
	"math"
	"strings"
	"testing"

	apperrors "github.com/abagames/algo-chip-sub000/internal/errors"
	"github.com/abagames/algo-chip-sub000/internal/motif"
)

func testComposer() *Composer {
	return New(motif.Builtin())
}

func compose(t *testing.T, opts Options) *Result {
	t.Helper()
	result, err := testComposer().Compose(opts)
	if err != nil {
		t.Fatalf("Compose failed: %v", err)
	}
	return result
}

func TestComposeBasic(t *testing.T) {
	result := compose(t, Options{
		Mood:             MoodUpbeat,
		Tempo:            TempoMedium,
		LengthInMeasures: 16,
		Seed:             42,
	})

	t.Run("TotalBeats", func(t *testing.T) {
		if result.Meta.LoopInfo.TotalBeats != 64 {
			t.Errorf("16 measures should span 64 beats, got %v", result.Meta.LoopInfo.TotalBeats)
		}
	})

	t.Run("Square1HasNotes", func(t *testing.T) {
		count := 0
		for _, ev := range result.Events {
			if ev.Channel == ChannelSquare1 && ev.Command == CmdNoteOn {
				count++
			}
		}
		if count == 0 {
			t.Error("square1 should carry at least one noteOn")
		}
	})

	t.Run("EventsTimeOrdered", func(t *testing.T) {
		for i := 1; i < len(result.Events); i++ {
			if result.Events[i].Time < result.Events[i-1].Time {
				t.Fatalf("events out of order at %d: %v after %v",
					i, result.Events[i].Time, result.Events[i-1].Time)
			}
		}
	})

	t.Run("EventsWithinLoop", func(t *testing.T) {
		limit := result.Meta.LoopInfo.TotalDuration + 1e-9
		for _, ev := range result.Events {
			if ev.Time > limit {
				t.Fatalf("event at %v past loop end %v", ev.Time, limit)
			}
		}
	})

	t.Run("MidiAndVelocityRanges", func(t *testing.T) {
		for _, ev := range result.Events {
			if ev.Command != CmdNoteOn {
				continue
			}
			note, ok := ev.Data.(*NoteData)
			if !ok {
				t.Fatal("noteOn carries non-note data")
			}
			if note.Midi < 0 || note.Midi > 127 {
				t.Fatalf("midi out of range: %d", note.Midi)
			}
			if note.Velocity <= 0 || note.Velocity > 1 {
				t.Fatalf("velocity out of range: %v", note.Velocity)
			}
		}
	})

	t.Run("InitialPresets", func(t *testing.T) {
		gainAtZero := map[Channel]bool{}
		dutyAtZero := map[Channel]bool{}
		for _, ev := range result.Events {
			if ev.Time != 0 || ev.Command != CmdSetParam {
				continue
			}
			param := ev.Data.(*ParamData)
			switch param.Param {
			case ParamGain:
				gainAtZero[ev.Channel] = true
			case ParamDuty:
				dutyAtZero[ev.Channel] = true
			}
		}
		for _, ch := range Channels() {
			if !gainAtZero[ch] {
				t.Errorf("channel %s missing initial gain", ch)
			}
		}
		if !dutyAtZero[ChannelSquare1] || !dutyAtZero[ChannelSquare2] {
			t.Error("square channels missing initial duty")
		}
	})
}

func TestComposeDeterminism(t *testing.T) {
	opts := Options{
		Mood:             MoodCalm,
		Tempo:            TempoSlow,
		LengthInMeasures: 32,
		Seed:             777,
		StylePreset:      "chiptune",
	}

	a := compose(t, opts)
	b := compose(t, opts)

	aj, _ := json.Marshal(a)
	bj, _ := json.Marshal(b)
	if string(aj) != string(bj) {
		t.Error("identical options must produce byte-identical results")
	}
}

func TestComposeSeedSensitivity(t *testing.T) {
	base := Options{
		Mood:             MoodTense,
		Tempo:            TempoMedium,
		LengthInMeasures: 16,
	}

	a := compose(t, Options{Mood: base.Mood, Tempo: base.Tempo, LengthInMeasures: base.LengthInMeasures, Seed: 12345})
	b := compose(t, Options{Mood: base.Mood, Tempo: base.Tempo, LengthInMeasures: base.LengthInMeasures, Seed: 12346})

	if a.Meta.LoopInfo.TotalBeats != b.Meta.LoopInfo.TotalBeats {
		t.Errorf("length must not depend on seed: %v vs %v",
			a.Meta.LoopInfo.TotalBeats, b.Meta.LoopInfo.TotalBeats)
	}

	aj, _ := json.Marshal(a.Events)
	bj, _ := json.Marshal(b.Events)
	if string(aj) == string(bj) {
		t.Error("adjacent seeds should produce different event lists")
	}
}

func TestComposeChannelMonophony(t *testing.T) {
	for _, seed := range []uint32{1, 42, 9999} {
		result := compose(t, Options{
			Mood:             MoodHeroic,
			Tempo:            TempoFast,
			LengthInMeasures: 16,
			Seed:             seed,
		})

		peaks := result.Diagnostics.ActiveNotePeaks
		for _, ch := range []Channel{ChannelSquare1, ChannelSquare2, ChannelTriangle} {
			if peaks[ch] > 1 {
				t.Errorf("seed %d: channel %s peaked at %d concurrent notes", seed, ch, peaks[ch])
			}
		}
		// Noise allows hi-hat stacking but never more than a pair.
		if peaks[ChannelNoise] > 2 {
			t.Errorf("seed %d: noise peaked at %d concurrent notes", seed, peaks[ChannelNoise])
		}
	}
}

func TestComposeBreakDips(t *testing.T) {
	on := true
	result := compose(t, Options{
		Mood:             MoodUpbeat,
		Tempo:            TempoMedium,
		LengthInMeasures: 16,
		Seed:             42,
		StyleOverrides:   &StyleOverrides{BreakInsertion: &on},
	})

	secondsPerBeat := 60 / result.Meta.BPM
	foundDip := false
	foundRestore := false
	for _, ev := range result.Events {
		if ev.Command != CmdSetParam {
			continue
		}
		param := ev.Data.(*ParamData)
		if param.Param != ParamGain {
			continue
		}
		beat := ev.Time / secondsPerBeat
		if math.Abs(beat-32) < 1e-6 && param.Value == gainDip {
			foundDip = true
		}
		if math.Abs(beat-33) < 1e-6 && param.Value == gainBase {
			foundRestore = true
		}
	}
	if !foundDip {
		t.Error("break insertion should dip gain at the 8-measure boundary")
	}
	if !foundRestore {
		t.Error("break dip should restore gain one beat later")
	}
}

func TestComposeHookRecurrence(t *testing.T) {
	result := compose(t, Options{
		Mood:             MoodMysterious,
		Tempo:            TempoMedium,
		LengthInMeasures: 16,
		Seed:             7,
	})

	byTemplate := map[string][]SectionMotifPlan{}
	for _, sp := range result.Diagnostics.SectionPlans {
		byTemplate[sp.TemplateID] = append(byTemplate[sp.TemplateID], sp)
	}

	repeated := false
	for template, plans := range byTemplate {
		if len(plans) < 2 {
			continue
		}
		repeated = true
		first := plans[0].Hook
		if first.MelodyID == "" || first.MelodyRhythmID == "" {
			t.Errorf("template %s: hook not committed", template)
		}
		for _, p := range plans[1:] {
			if p.Hook != first {
				t.Errorf("template %s: hook changed across occurrences: %+v vs %+v",
					template, p.Hook, first)
			}
			if !p.HookReprise {
				t.Errorf("template %s: later occurrence should mark a reprise", template)
			}
		}
	}
	if !repeated {
		t.Fatal("16-measure layout should repeat at least one template")
	}
}

func TestComposeHookRepriseReplaysOpening(t *testing.T) {
	opts := Options{
		Mood:             MoodUpbeat,
		Tempo:            TempoMedium,
		LengthInMeasures: 16,
		Seed:             42,
	}
	plan, err := PlanStructure(opts, motif.Builtin())
	if err != nil {
		t.Fatal(err)
	}
	sel, err := selectMotifs(opts, plan, motif.Builtin())
	if err != nil {
		t.Fatal(err)
	}

	// Find two occurrences of the same template.
	var first, second *SectionDef
	for i := range plan.Sections {
		s := &plan.Sections[i]
		if s.Occurrence == 1 {
			second = s
			for j := range plan.Sections {
				if plan.Sections[j].TemplateID == s.TemplateID && plan.Sections[j].Occurrence == 0 {
					first = &plan.Sections[j]
				}
			}
			break
		}
	}
	if first == nil || second == nil {
		t.Fatal("expected a repeated template in the 16-measure layout")
	}

	openingDegrees := func(s *SectionDef) []int {
		var out []int
		for _, track := range sel.Tracks {
			if track.Voice.Role != RoleMelody {
				continue
			}
			start := float64(s.StartMeasure) * BeatsPerMeasure
			for _, n := range track.Notes {
				if n.StartBeat >= start && n.StartBeat < start+BeatsPerMeasure {
					out = append(out, n.Degree)
				}
			}
		}
		return out
	}

	a := openingDegrees(first)
	b := openingDegrees(second)
	if len(a) == 0 {
		t.Fatal("first occurrence has no melody notes in its opening measure")
	}
	if len(a) != len(b) {
		t.Fatalf("reprise opening differs in length: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("reprise degree %d differs: %d vs %d", i, a[i], b[i])
		}
	}
}

func TestComposeOptionErrors(t *testing.T) {
	cases := []struct {
		name string
		opts Options
		want error
	}{
		{"UnknownMood", Options{Mood: "giddy", Tempo: TempoMedium, LengthInMeasures: 16}, apperrors.ErrUnknownMood},
		{"UnknownTempo", Options{Mood: MoodCalm, Tempo: "ludicrous", LengthInMeasures: 16}, apperrors.ErrUnknownTempo},
		{"ZeroLength", Options{Mood: MoodCalm, Tempo: TempoSlow, LengthInMeasures: 0}, apperrors.ErrInvalidOptions},
		{"BadPreset", Options{Mood: MoodCalm, Tempo: TempoSlow, LengthInMeasures: 16, StylePreset: "vapor"}, apperrors.ErrInvalidOptions},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := testComposer().Compose(c.opts)
			if !errors.Is(err, c.want) {
				t.Errorf("got %v, want %v", err, c.want)
			}
		})
	}
}

func TestComposeLengths(t *testing.T) {
	for _, length := range []int{16, 32, 64, 8, 24} {
		result := compose(t, Options{
			Mood:             MoodMelancholic,
			Tempo:            TempoMedium,
			LengthInMeasures: length,
			Seed:             3,
		})
		want := float64(length) * BeatsPerMeasure
		if result.Meta.LoopInfo.TotalBeats != want {
			t.Errorf("length %d: totalBeats %v, want %v", length, result.Meta.LoopInfo.TotalBeats, want)
		}
	}
}

func TestComposeDiagnostics(t *testing.T) {
	result := compose(t, Options{
		Mood:             MoodCalm,
		Tempo:            TempoSlow,
		LengthInMeasures: 16,
		Seed:             11,
	})

	t.Run("VoiceAllocation", func(t *testing.T) {
		if len(result.Diagnostics.VoiceAllocation) != 3 {
			t.Errorf("expected 3 allocated channels, got %d", len(result.Diagnostics.VoiceAllocation))
		}
	})

	t.Run("MotifUsage", func(t *testing.T) {
		if len(result.Diagnostics.MotifUsage) == 0 {
			t.Error("motif usage should record at least one table")
		}
	})

	t.Run("SectionPlanKey", func(t *testing.T) {
		encoded, err := json.Marshal(result.Diagnostics)
		if err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(string(encoded), `"sectionMotifPlan"`) {
			t.Error("diagnostics should expose section plans under sectionMotifPlan")
		}
	})

	t.Run("LoopWindow", func(t *testing.T) {
		lw := result.Diagnostics.LoopWindow
		if lw.HeadSeconds != loopMarginSeconds {
			t.Errorf("head = %v, want %v", lw.HeadSeconds, loopMarginSeconds)
		}
		if lw.TailSeconds != result.Meta.LoopInfo.TotalDuration-loopMarginSeconds {
			t.Errorf("tail = %v", lw.TailSeconds)
		}
	})
}
