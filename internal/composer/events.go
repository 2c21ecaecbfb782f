package composer

import (
	"fmt"
	"sort"

	"github.com/abagames/algo-chip-sub000/internal/theory"
)

// Channel identifies one of the four synthesizer channels.
type Channel string

const (
	ChannelSquare1  Channel = "square1"
	ChannelSquare2  Channel = "square2"
	ChannelTriangle Channel = "triangle"
	ChannelNoise    Channel = "noise"
)

// Channels returns all channels in a stable order.
func Channels() []Channel {
	return []Channel{ChannelSquare1, ChannelSquare2, ChannelTriangle, ChannelNoise}
}

// Command is a synthesizer event command.
type Command string

const (
	CmdNoteOn   Command = "noteOn"
	CmdNoteOff  Command = "noteOff"
	CmdSetParam Command = "setParam"
)

// ParamName identifies a channel automation parameter.
type ParamName string

const (
	ParamDuty      ParamName = "duty"      // square channels only
	ParamGain      ParamName = "gain"      // all channels
	ParamNoiseMode ParamName = "noiseMode" // noise channel only
)

// NoteData is the payload of noteOn/noteOff events.
type NoteData struct {
	Midi           int     `json:"midi,omitempty"`
	Velocity       float64 `json:"velocity,omitempty"`
	DetuneCents    float64 `json:"detuneCents,omitempty"`
	SlideFromMidi  int     `json:"slideFromMidi,omitempty"`
	SlideSeconds   float64 `json:"slideSeconds,omitempty"`
	ReleaseSeconds float64 `json:"releaseSeconds,omitempty"`
}

// ParamData is the payload of setParam events.
type ParamData struct {
	Param ParamName `json:"param"`
	Value float64   `json:"value"`
}

// newParamData validates a parameter against its channel kind: duty exists
// only on square channels, noiseMode only on the noise channel.
func newParamData(ch Channel, param ParamName, value float64) (*ParamData, error) {
	switch param {
	case ParamDuty:
		if ch != ChannelSquare1 && ch != ChannelSquare2 {
			return nil, fmt.Errorf("duty parameter invalid on channel %s", ch)
		}
	case ParamNoiseMode:
		if ch != ChannelNoise {
			return nil, fmt.Errorf("noiseMode parameter invalid on channel %s", ch)
		}
	case ParamGain:
	default:
		return nil, fmt.Errorf("unknown parameter %s", param)
	}
	return &ParamData{Param: param, Value: value}, nil
}

// TimedEvent is a channel event positioned in beats. Exactly one of Note
// and Param is set, matching the command.
type TimedEvent struct {
	Beat    float64
	Channel Channel
	Command Command
	Note    *NoteData
	Param   *ParamData
}

func noteOnEvent(beat float64, ch Channel, data NoteData) TimedEvent {
	data.Midi = theory.ClampMidi(data.Midi)
	return TimedEvent{Beat: beat, Channel: ch, Command: CmdNoteOn, Note: &data}
}

func noteOffEvent(beat float64, ch Channel, release float64) TimedEvent {
	var data *NoteData
	if release > 0 {
		data = &NoteData{ReleaseSeconds: release}
	} else {
		data = &NoteData{}
	}
	return TimedEvent{Beat: beat, Channel: ch, Command: CmdNoteOff, Note: data}
}

func setParamEvent(beat float64, ch Channel, param ParamName, value float64) TimedEvent {
	data, err := newParamData(ch, param, value)
	if err != nil {
		// Construction sites are all internal; a bad pairing is a
		// programming error, not input-dependent.
		panic(err)
	}
	return TimedEvent{Beat: beat, Channel: ch, Command: CmdSetParam, Param: data}
}

// commandRank orders events at equal timestamps: parameter sets first so a
// new value applies to the note starting at the same instant, then note
// offs so on/off alternation per channel survives zero-gap retriggers.
func commandRank(c Command) int {
	switch c {
	case CmdSetParam:
		return 0
	case CmdNoteOff:
		return 1
	default:
		return 2
	}
}

// sortTimedEvents stably sorts by beat, with setParam before note events
// and noteOff before noteOn at equal timestamps.
func sortTimedEvents(events []TimedEvent) {
	sort.SliceStable(events, func(i, j int) bool {
		if events[i].Beat != events[j].Beat {
			return events[i].Beat < events[j].Beat
		}
		return commandRank(events[i].Command) < commandRank(events[j].Command)
	})
}

// Event is a finalized event positioned in absolute seconds.
type Event struct {
	Time    float64 `json:"time"`
	Channel Channel `json:"channel"`
	Command Command `json:"command"`
	Data    any     `json:"data"`
}

// AbstractNote is a pre-pitch note emitted by the motif selector. The
// selector converts it in place to a concrete note by filling Midi.
type AbstractNote struct {
	Role          VoiceRole
	StartBeat     float64
	DurationBeats float64
	Degree        int
	Velocity      float64
	Accent        bool
	SectionID     string
	// Concrete fields, filled during pitch resolution.
	Midi        int
	DetuneCents float64
}

// DrumHit is one percussion onset destined for the noise channel.
type DrumHit struct {
	StartBeat     float64
	DurationBeats float64
	Instrument    theory.DrumInstrument
	SectionID     string
	Velocity      float64
}
