package composer

import "math"

// noteShaper applies the multi-stage register and velocity shaping shared
// by the melodic voices: texture color, hook state, the monotonic build
// curve, phrase-tail relaxation, and occurrence de-intensification.
type noteShaper struct {
	baseRegister  int
	intent        StyleIntent
	totalMeasures int
}

// Velocity band the shapers stay inside; the realizer clamps again after
// its own scaling.
const (
	velocityMin    = 0.2
	velocityMax    = 1.0
	accentHeadroom = 0.12
)

var textureRegisterOffset = map[Texture]int{
	TextureSteady:   0,
	TextureBroken:   1,
	TextureArpeggio: 2,
}

var textureVelocityBase = map[Texture]float64{
	TextureSteady:   0.72,
	TextureBroken:   0.76,
	TextureArpeggio: 0.8,
}

// register computes the register center for one measure of a voice.
func (ns noteShaper) register(section *SectionDef, globalMeasure int, phraseTail, hookReprise bool) int {
	r := ns.baseRegister
	r += textureRegisterOffset[section.Texture]

	if hookReprise {
		r++
	}

	// Build progress is monotonic: the lift never retreats.
	progress := float64(globalMeasure) / float64(ns.totalMeasures)
	lift := progress * 2
	if ns.intent.GradualBuild {
		lift = progress * 4
	}
	r += int(lift)

	if phraseTail {
		r -= 2
	}
	if section.Occurrence > 0 {
		deintensify := section.Occurrence
		if deintensify > 2 {
			deintensify = 2
		}
		r -= deintensify
	}

	if r < 52 {
		r = 52
	}
	if r > 88 {
		r = 88
	}
	return r
}

// velocity computes a note velocity from texture base, accent, and the
// length-dependent build curve.
func (ns noteShaper) velocity(texture Texture, accent bool, globalMeasure int) float64 {
	v := textureVelocityBase[texture]
	if accent {
		v += accentHeadroom
	}

	// Longer compositions build more slowly.
	progress := float64(globalMeasure) / float64(ns.totalMeasures)
	exponent := 1.0 + float64(ns.totalMeasures)/64.0
	v *= 0.85 + 0.15*math.Pow(progress, exponent)

	if v < velocityMin {
		v = velocityMin
	}
	if v > velocityMax {
		v = velocityMax
	}
	return v
}
