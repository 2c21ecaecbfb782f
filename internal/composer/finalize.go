package composer

// loopMarginSeconds pads the reported loop window on both sides so a
// player can crossfade across the seam.
const loopMarginSeconds = 0.1

// LoopInfo describes the seamless-loop region in both beats and seconds.
type LoopInfo struct {
	LoopStartBeat float64 `json:"loopStartBeat"`
	LoopEndBeat   float64 `json:"loopEndBeat"`
	LoopStartTime float64 `json:"loopStartTime"`
	LoopEndTime   float64 `json:"loopEndTime"`
	TotalBeats    float64 `json:"totalBeats"`
	TotalDuration float64 `json:"totalDuration"`
}

// LoopWindow is the crossfade-padded loop region in seconds.
type LoopWindow struct {
	HeadSeconds float64 `json:"headSeconds"`
	TailSeconds float64 `json:"tailSeconds"`
}

// finalize converts beat-positioned events to absolute seconds, re-sorts,
// and derives the loop info. Events are assumed already clamped to the
// composition length.
func finalize(plan *Plan, events []TimedEvent) ([]Event, LoopInfo) {
	sortTimedEvents(events)
	secondsPerBeat := 60 / plan.BPM

	out := make([]Event, 0, len(events))
	for _, ev := range events {
		e := Event{
			Time:    ev.Beat * secondsPerBeat,
			Channel: ev.Channel,
			Command: ev.Command,
		}
		switch ev.Command {
		case CmdSetParam:
			e.Data = ev.Param
		default:
			e.Data = ev.Note
		}
		out = append(out, e)
	}

	totalBeats := plan.TotalBeats()
	info := LoopInfo{
		LoopStartBeat: 0,
		LoopEndBeat:   totalBeats,
		LoopStartTime: 0,
		LoopEndTime:   totalBeats * secondsPerBeat,
		TotalBeats:    totalBeats,
		TotalDuration: totalBeats * secondsPerBeat,
	}
	return out, info
}

// loopWindow pads the loop region with the crossfade margin, clamped so a
// very short composition never reports an inverted window.
func loopWindow(info LoopInfo) LoopWindow {
	head := loopMarginSeconds
	tail := info.TotalDuration - loopMarginSeconds
	if tail < head {
		head = 0
		tail = info.TotalDuration
	}
	return LoopWindow{HeadSeconds: head, TailSeconds: tail}
}

// activeNotePeaks scans the finalized beat events and reports the peak
// concurrent note count per channel. Pitched channels should never exceed
// one; the noise channel may reach two through hi-hat stacking.
func activeNotePeaks(events []TimedEvent) map[Channel]int {
	active := map[Channel]int{}
	peaks := map[Channel]int{}
	for _, ev := range events {
		switch ev.Command {
		case CmdNoteOn:
			active[ev.Channel]++
			if active[ev.Channel] > peaks[ev.Channel] {
				peaks[ev.Channel] = active[ev.Channel]
			}
		case CmdNoteOff:
			if active[ev.Channel] > 0 {
				active[ev.Channel]--
			}
		}
	}
	return peaks
}
