package composer

import (
	"math"

	"github.com/abagames/algo-chip-sub000/internal/rng"
)

// Channel automation baselines.
const (
	dutyLead    = 0.5
	dutyBacking = 0.25
	gainBase    = 0.8
	gainDip     = 0.45
	gainLift    = 0.95
)

// dutySweepMinBeats gates sweeps to notes long enough to hear them move.
const dutySweepMinBeats = 1.0

// Duty sweeps climb from the lead duty to the peak in evenly spaced steps
// across the note.
const (
	dutySweepPeak  = 0.75
	dutySweepSteps = 4
)

// breakMeasureCycle is the spacing of break-insertion gain dips.
const breakMeasureCycle = 8

// postprocess layers parameter automation over the realized note events:
// initial channel presets, duty sweeps on sustained lead notes,
// measure-boundary gain profiles, style-intent bundles, break dips, and
// the gradual-build gain staircase. Events come back fully sorted.
func postprocess(opts Options, plan *Plan, events []TimedEvent) []TimedEvent {
	stream := rng.Derive(opts.Seed, saltPostprocess)
	out := append([]TimedEvent(nil), events...)

	out = append(out, initialPresets(plan)...)
	out = append(out, dutySweeps(stream, plan, events)...)
	out = append(out, gainProfiles(stream, plan)...)
	out = append(out, styleBundles(stream, plan)...)
	if plan.Intent.BreakInsertion {
		out = append(out, breakDips(plan)...)
	}
	if plan.Intent.GradualBuild {
		out = append(out, buildStaircase(plan)...)
	}

	sortTimedEvents(out)
	return out
}

// initialPresets seeds every channel's parameters at beat zero so playback
// never depends on synthesizer defaults.
func initialPresets(plan *Plan) []TimedEvent {
	leadChannel := ChannelSquare1
	for _, v := range plan.Arrangement.Voices {
		if v.Role == RoleMelody {
			leadChannel = v.Channel
			break
		}
	}

	var events []TimedEvent
	for _, ch := range Channels() {
		switch ch {
		case ChannelSquare1, ChannelSquare2:
			duty := dutyBacking
			if ch == leadChannel {
				duty = dutyLead
			}
			events = append(events, setParamEvent(0, ch, ParamDuty, duty))
		case ChannelNoise:
			events = append(events, setParamEvent(0, ch, ParamNoiseMode, 0))
		}
		events = append(events, setParamEvent(0, ch, ParamGain, gainBase))
	}
	return events
}

// dutySweeps attaches duty movement to sustained square-channel notes:
// evenly spaced interpolation steps from the lead duty up to the sweep
// peak across the note, and a restore at note end.
func dutySweeps(stream *rng.Stream, plan *Plan, events []TimedEvent) []TimedEvent {
	var out []TimedEvent
	pendingOn := map[Channel]float64{}

	for _, ev := range events {
		if ev.Channel != ChannelSquare1 && ev.Channel != ChannelSquare2 {
			continue
		}
		switch ev.Command {
		case CmdNoteOn:
			pendingOn[ev.Channel] = ev.Beat
		case CmdNoteOff:
			start, ok := pendingOn[ev.Channel]
			if !ok {
				continue
			}
			delete(pendingOn, ev.Channel)
			if ev.Beat-start < dutySweepMinBeats {
				continue
			}
			if !stream.Chance(plan.Technique.DutySweep) {
				continue
			}
			span := ev.Beat - start
			for i := 0; i < dutySweepSteps; i++ {
				beat := start + span*float64(i)/dutySweepSteps
				value := dutyLead + (dutySweepPeak-dutyLead)*float64(i+1)/dutySweepSteps
				out = append(out, setParamEvent(beat, ev.Channel, ParamDuty, value))
			}
			out = append(out, setParamEvent(ev.Beat, ev.Channel, ParamDuty, dutyLead))
		}
	}
	return out
}

// gainProfiles places small gain contours at measure boundaries so phrase
// starts breathe instead of holding one level.
func gainProfiles(stream *rng.Stream, plan *Plan) []TimedEvent {
	var events []TimedEvent
	for m := 1; m < plan.LengthInMeasures; m++ {
		if !stream.Chance(plan.Technique.GainProfile) {
			continue
		}
		beat := float64(m) * BeatsPerMeasure
		ch := ChannelSquare2
		if m%2 == 0 {
			ch = ChannelTriangle
		}
		events = append(events,
			setParamEvent(beat, ch, ParamGain, gainBase-0.1),
			setParamEvent(beat+1, ch, ParamGain, gainBase),
		)
	}
	return events
}

// styleBundles applies the intent-specific automation layers.
func styleBundles(stream *rng.Stream, plan *Plan) []TimedEvent {
	var events []TimedEvent
	total := plan.TotalBeats()

	if plan.Intent.FilterMotion {
		// Slow duty swell across each section on the backing square.
		for _, s := range plan.Sections {
			if !stream.Chance(plan.Technique.StyleLayer) {
				continue
			}
			start := float64(s.StartMeasure) * BeatsPerMeasure
			mid := start + float64(s.Measures)*BeatsPerMeasure/2
			events = append(events,
				setParamEvent(start, ChannelSquare2, ParamDuty, dutyBacking),
				setParamEvent(mid, ChannelSquare2, ParamDuty, dutyLead),
			)
		}
	}

	if plan.Intent.Sidechain {
		// Downbeat gain duck on the sustaining channels, pumping against
		// the kick.
		for m := 0; m < plan.LengthInMeasures; m++ {
			if !stream.Chance(plan.Technique.StyleLayer) {
				continue
			}
			beat := float64(m) * BeatsPerMeasure
			for _, ch := range []Channel{ChannelSquare2, ChannelTriangle} {
				events = append(events,
					setParamEvent(beat, ch, ParamGain, gainDip),
					setParamEvent(beat+0.5, ch, ParamGain, gainBase),
				)
			}
		}
	}

	if plan.Intent.PadCentric {
		// Lift the backing channel so collapsed pads carry the bed.
		events = append(events, setParamEvent(0, ChannelSquare2, ParamGain, gainLift))
	}

	if plan.Intent.Progressive {
		// One long ramp per half: quiet restart at the midpoint, then a
		// climb back past baseline toward the end.
		half := total / 2
		events = append(events,
			setParamEvent(half, ChannelSquare1, ParamGain, gainBase-0.2),
			setParamEvent(half+BeatsPerMeasure*2, ChannelSquare1, ParamGain, gainBase),
			setParamEvent(total-BeatsPerMeasure*2, ChannelSquare1, ParamGain, gainLift),
		)
	}

	return events
}

// breakDips cuts the sustaining channels at every eighth-measure boundary
// and restores them one beat later.
func breakDips(plan *Plan) []TimedEvent {
	var events []TimedEvent
	for m := breakMeasureCycle; m < plan.LengthInMeasures; m += breakMeasureCycle {
		beat := float64(m) * BeatsPerMeasure
		for _, ch := range []Channel{ChannelSquare2, ChannelTriangle} {
			events = append(events,
				setParamEvent(beat, ch, ParamGain, gainDip),
				setParamEvent(beat+1, ch, ParamGain, gainBase),
			)
		}
	}
	return events
}

// buildStaircase raises the overall gain in steps across the composition,
// sampled roughly every eighth of the length. Loop-centric intent softens
// the curve so the seam between end and start stays subtle.
func buildStaircase(plan *Plan) []TimedEvent {
	steps := 8
	exponent := 1.6
	if plan.Intent.LoopCentric {
		exponent = 1.2
	}

	var events []TimedEvent
	for i := 1; i < steps; i++ {
		progress := float64(i) / float64(steps)
		measure := int(progress * float64(plan.LengthInMeasures))
		if measure <= 0 || measure >= plan.LengthInMeasures {
			continue
		}
		beat := float64(measure) * BeatsPerMeasure
		gain := 0.55 + (gainLift-0.55)*math.Pow(progress, exponent)
		for _, ch := range Channels() {
			events = append(events, setParamEvent(beat, ch, ParamGain, gain))
		}
	}
	return events
}
