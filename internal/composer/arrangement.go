package composer

import (
	"github.com/abagames/algo-chip-sub000/internal/rng"
)

// VoiceRole is an abstract musical role mapped onto a synth channel.
type VoiceRole string

const (
	RoleMelody        VoiceRole = "melody"
	RoleMelodyAlt     VoiceRole = "melodyAlt"
	RoleBass          VoiceRole = "bass"
	RoleBassAlt       VoiceRole = "bassAlt"
	RoleAccompaniment VoiceRole = "accompaniment"
	RolePad           VoiceRole = "pad"
)

// Voice maps a role onto a channel with per-voice tuning.
type Voice struct {
	Role         VoiceRole `json:"role"`
	Channel      Channel   `json:"channel"`
	Priority     float64   `json:"priority"` // 0-1, gates note density
	OctaveOffset int       `json:"octaveOffset"`
	SeedOffset   uint32    `json:"seedOffset"`
}

// Arrangement is a named mapping of roles onto the pitched channels. The
// noise channel always carries drums and is not part of the arrangement.
type Arrangement struct {
	Name   string  `json:"name"`
	Voices []Voice `json:"voices"`
}

// Arrangement preset names. Standard and swapped are the historical
// two-track layouts; the rest generate one track per declared voice.
const (
	ArrangementStandard   = "standard"
	ArrangementSwapped    = "swapped"
	ArrangementMelodyPlus = "melodyPlus"
	ArrangementBassDuet   = "bassDuet"
	ArrangementPadded     = "padded"
)

var arrangementPresets = map[string]Arrangement{
	ArrangementStandard: {
		Name: ArrangementStandard,
		Voices: []Voice{
			{Role: RoleMelody, Channel: ChannelSquare1, Priority: 1, SeedOffset: 11},
			{Role: RoleAccompaniment, Channel: ChannelSquare2, Priority: 0.85, SeedOffset: 23},
			{Role: RoleBass, Channel: ChannelTriangle, Priority: 1, OctaveOffset: -1, SeedOffset: 37},
		},
	},
	ArrangementSwapped: {
		Name: ArrangementSwapped,
		Voices: []Voice{
			{Role: RoleMelody, Channel: ChannelSquare2, Priority: 1, SeedOffset: 11},
			{Role: RoleAccompaniment, Channel: ChannelSquare1, Priority: 0.85, SeedOffset: 23},
			{Role: RoleBass, Channel: ChannelTriangle, Priority: 1, OctaveOffset: -1, SeedOffset: 37},
		},
	},
	ArrangementMelodyPlus: {
		Name: ArrangementMelodyPlus,
		Voices: []Voice{
			{Role: RoleMelody, Channel: ChannelSquare1, Priority: 1, SeedOffset: 11},
			{Role: RoleMelodyAlt, Channel: ChannelSquare2, Priority: 0.7, OctaveOffset: -1, SeedOffset: 53},
			{Role: RoleBass, Channel: ChannelTriangle, Priority: 1, OctaveOffset: -1, SeedOffset: 37},
		},
	},
	ArrangementBassDuet: {
		Name: ArrangementBassDuet,
		Voices: []Voice{
			{Role: RoleMelody, Channel: ChannelSquare1, Priority: 1, SeedOffset: 11},
			{Role: RoleBassAlt, Channel: ChannelSquare2, Priority: 0.8, SeedOffset: 61},
			{Role: RoleBass, Channel: ChannelTriangle, Priority: 1, OctaveOffset: -1, SeedOffset: 37},
		},
	},
	ArrangementPadded: {
		Name: ArrangementPadded,
		Voices: []Voice{
			{Role: RoleMelody, Channel: ChannelSquare1, Priority: 1, SeedOffset: 11},
			{Role: RolePad, Channel: ChannelSquare2, Priority: 0.6, SeedOffset: 71},
			{Role: RoleBass, Channel: ChannelTriangle, Priority: 1, OctaveOffset: -1, SeedOffset: 37},
		},
	},
}

// Arrangements returns the preset names in a stable order.
func Arrangements() []string {
	return []string{ArrangementStandard, ArrangementSwapped, ArrangementMelodyPlus, ArrangementBassDuet, ArrangementPadded}
}

// isLegacyArrangement reports whether the arrangement follows the legacy
// two-track generation path (channel assignment differs, semantics don't).
func isLegacyArrangement(name string) bool {
	return name == ArrangementStandard || name == ArrangementSwapped
}

// pickArrangement selects a voice arrangement from its own salted stream,
// soft-biased by the style preset and the inferred intent.
func pickArrangement(seed uint32, preset string, intent StyleIntent) Arrangement {
	stream := rng.Derive(seed, saltArrangement)

	preferred := ""
	if preset != "" {
		preferred = stylePresets[preset].arrangementBias
	} else if intent.PadCentric {
		preferred = ArrangementPadded
	} else if intent.PercussiveLayering {
		preferred = ArrangementBassDuet
	}

	names := Arrangements()
	if preferred != "" && stream.Chance(0.75) {
		return arrangementPresets[preferred]
	}
	return arrangementPresets[names[stream.IntN(len(names))]]
}
