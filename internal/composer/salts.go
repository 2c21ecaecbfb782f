package composer

// RNG stream salts, one per independent concern. Streams derived from
// (seed, salt) keep unrelated decisions isolated: re-rolling the chord
// shuffle never moves the drum pattern picks.
const (
	saltBPMJitter   uint32 = 0x0101
	saltTexture     uint32 = 0x0102
	saltChords      uint32 = 0x0103
	saltPostprocess uint32 = 0x0104
	saltArrangement uint32 = 0x0105
	saltRegister    uint32 = 0x0106
	saltTechnique   uint32 = 0x0107
	saltRealizer    uint32 = 0x0108
	saltDrums       uint32 = 0x0109
	saltTransitions uint32 = 0x010a
	saltVoiceBase   uint32 = 0x0200 // + per-voice SeedOffset
)
