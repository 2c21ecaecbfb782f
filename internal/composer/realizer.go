package composer

import (
	"math"
	"sort"

	"github.com/abagames/algo-chip-sub000/internal/rng"
	"github.com/abagames/algo-chip-sub000/internal/theory"
)

// Portamento eligibility gates.
const (
	portamentoMaxInterval = 5
	portamentoMinGap      = -0.001
	portamentoMaxGap      = 0.5
	portamentoMinDuration = 0.5
)

// Hand-tuned consonance scoring constants. Preserved exactly: retuning
// them changes the musical character of every composition.
const (
	dissonancePenalty = 10.0
	proximityWeight   = 0.1
	spreadWeight      = 0.05
)

// minSafeDrumOffset is the closest two non-stackable noise hits may sit.
const minSafeDrumOffset = 0.1

var drumMidi = map[theory.DrumInstrument]int{
	theory.DrumKick:  36,
	theory.DrumSnare: 40,
	theory.DrumHatC:  42,
	theory.DrumTom:   45,
	theory.DrumHatO:  46,
	theory.DrumNoise: 49,
}

// realNote is a pitched note ready for emission, carrying any portamento
// the realizer attached.
type realNote struct {
	AbstractNote
	slideFrom    int
	slideSeconds float64
}

type realizer struct {
	plan       *Plan
	stream     *rng.Stream
	totalBeats float64
	sections   map[string]*SectionDef
	melody     []AbstractNote // all melody-role notes, for consonance
}

// realizeEvents converts the selection result into channel events.
func realizeEvents(opts Options, plan *Plan, sel *selectionResult) []TimedEvent {
	r := &realizer{
		plan:       plan,
		stream:     rng.Derive(opts.Seed, saltRealizer),
		totalBeats: plan.TotalBeats(),
		sections:   map[string]*SectionDef{},
	}
	for i := range plan.Sections {
		r.sections[plan.Sections[i].ID] = &plan.Sections[i]
	}
	for _, track := range sel.Tracks {
		if track.Voice.Role == RoleMelody || track.Voice.Role == RoleMelodyAlt {
			r.melody = append(r.melody, track.Notes...)
		}
	}

	perChannel := map[Channel][]realNote{}
	for _, track := range sel.Tracks {
		var notes []realNote
		switch track.Voice.Role {
		case RoleMelody, RoleMelodyAlt:
			notes = r.melodyNotes(track)
		case RoleAccompaniment, RolePad:
			notes = r.accompanimentNotes(track)
		default:
			notes = r.bassNotes(track)
		}
		for i := range notes {
			notes[i].Velocity = r.scaleVelocity(notes[i], track.Voice)
		}
		perChannel[track.Voice.Channel] = append(perChannel[track.Voice.Channel], notes...)
	}

	var events []TimedEvent
	for _, ch := range Channels() {
		if ch == ChannelNoise {
			continue
		}
		events = append(events, r.emitChannel(ch, perChannel[ch])...)
	}
	events = append(events, r.realizeDrums(sel.Drums)...)
	sortTimedEvents(events)
	return events
}

// melodyNotes attaches portamento between eligible consecutive notes and
// adds style-gated echo duplicates and detune coloring.
func (r *realizer) melodyNotes(track VoiceTrack) []realNote {
	src := append([]AbstractNote(nil), track.Notes...)
	sort.SliceStable(src, func(i, j int) bool { return src[i].StartBeat < src[j].StartBeat })

	slideProb := 0.15
	if r.plan.Intent.PadCentric {
		slideProb = 0.4
	}
	echoProb := 0.0
	if r.plan.Intent.LoopCentric {
		echoProb = 0.15
	}
	detuneProb := 0.0
	if r.plan.Intent.PadCentric || r.plan.Intent.FilterMotion {
		detuneProb = 0.2
	}

	var out []realNote
	for i, n := range src {
		note := realNote{AbstractNote: n}

		if i > 0 {
			prev := src[i-1]
			interval := n.Midi - prev.Midi
			if interval < 0 {
				interval = -interval
			}
			gap := n.StartBeat - (prev.StartBeat + prev.DurationBeats)
			if interval > 0 && interval <= portamentoMaxInterval &&
				gap >= portamentoMinGap && gap <= portamentoMaxGap &&
				n.DurationBeats >= portamentoMinDuration &&
				r.stream.Chance(slideProb) {
				note.slideFrom = prev.Midi
				note.slideSeconds = r.slideSeconds(interval, n.DurationBeats)
			}
		}

		if detuneProb > 0 && r.stream.Chance(detuneProb) {
			note.DetuneCents = 6
		}
		out = append(out, note)

		// Echo fills the gap after the note with a quieter copy.
		if echoProb > 0 && r.stream.Chance(echoProb) {
			gapEnd := r.totalBeats
			if i+1 < len(src) {
				gapEnd = src[i+1].StartBeat
			}
			start := n.StartBeat + n.DurationBeats
			room := gapEnd - start
			if room >= 0.25 {
				echo := note
				echo.StartBeat = start
				echo.DurationBeats = math.Min(0.5, room)
				echo.Velocity *= 0.5
				echo.slideFrom = 0
				echo.slideSeconds = 0
				out = append(out, echo)
			}
		}
	}
	return out
}

// slideSeconds scales the portamento time with tempo and interval.
func (r *realizer) slideSeconds(interval int, duration float64) float64 {
	base := 0.06 + 0.02*float64(interval)
	max := duration * 0.5 * 60 / r.plan.BPM
	return math.Min(base*120/r.plan.BPM, max)
}

// accompanimentNotes expands each note per its section texture, reconciles
// its pitch against any concurrently sounding melody note, and adds the
// style-gated echo and detune duplicates.
func (r *realizer) accompanimentNotes(track VoiceTrack) []realNote {
	src := append([]AbstractNote(nil), track.Notes...)
	sort.SliceStable(src, func(i, j int) bool { return src[i].StartBeat < src[j].StartBeat })

	echoProb := 0.0
	if r.plan.Intent.LoopCentric {
		echoProb = 0.15
	}
	detuneProb := 0.0
	if r.plan.Intent.PadCentric || r.plan.Intent.FilterMotion {
		detuneProb = 0.2
	}

	var out []realNote
	for i, n := range src {
		texture := TextureSteady
		if s, ok := r.sections[n.SectionID]; ok {
			texture = s.Texture
		}
		expanded := r.expandTexture(n, texture)
		for _, e := range expanded {
			e.Midi = r.reconcileConsonance(e.AbstractNote)
			if detuneProb > 0 && r.stream.Chance(detuneProb) {
				e.DetuneCents = 6
			}
			out = append(out, e)
		}

		// Echo duplicates the expansion tail into the gap before the
		// next note, quieter.
		if echoProb > 0 && len(expanded) > 0 && r.stream.Chance(echoProb) {
			tail := out[len(out)-1]
			gapEnd := r.totalBeats
			if i+1 < len(src) {
				gapEnd = src[i+1].StartBeat
			}
			start := tail.StartBeat + tail.DurationBeats
			room := gapEnd - start
			if room >= 0.25 {
				echo := tail
				echo.StartBeat = start
				echo.DurationBeats = math.Min(0.5, room)
				echo.Velocity *= 0.5
				out = append(out, echo)
			}
		}
	}
	return out
}

// expandTexture applies the per-texture treatment: arpeggio sustains or
// subdivides through chord tones, broken splits into two half-beat stabs,
// steady sustains at least one beat.
func (r *realizer) expandTexture(n AbstractNote, texture Texture) []realNote {
	switch texture {
	case TextureArpeggio:
		if n.DurationBeats < 1 || r.stream.Chance(0.3) {
			return []realNote{{AbstractNote: n}}
		}
		parts := 2
		if n.DurationBeats >= 2 && r.stream.Chance(0.5) {
			parts = 4
		}
		chord := r.plan.ChordAt(n.StartBeat)
		step := n.DurationBeats / float64(parts)
		direction := 1
		if r.stream.Chance(0.25) {
			direction = -1
		}
		out := make([]realNote, 0, parts)
		for i := 0; i < parts; i++ {
			sub := n
			sub.StartBeat = n.StartBeat + float64(i)*step
			sub.DurationBeats = step
			toneIdx := i * direction
			if toneIdx < 0 {
				toneIdx = -toneIdx
				sub.Midi = chord.NearestTone(n.Midi - toneIdx*3)
			} else {
				sub.Midi = chord.Tone(n.Midi, toneIdx)
			}
			sub.Accent = n.Accent && i == 0
			out = append(out, realNote{AbstractNote: sub})
		}
		return out
	case TextureBroken:
		if n.DurationBeats < 1 {
			return []realNote{{AbstractNote: n}}
		}
		chord := r.plan.ChordAt(n.StartBeat)
		first := n
		first.DurationBeats = 0.5
		second := n
		second.StartBeat = n.StartBeat + 0.5
		second.DurationBeats = 0.5
		second.Midi = chord.NearestTone(n.Midi + 7)
		second.Accent = false
		return []realNote{{AbstractNote: first}, {AbstractNote: second}}
	default: // steady
		if n.DurationBeats < 1 {
			n.DurationBeats = 1
		}
		return []realNote{{AbstractNote: n}}
	}
}

// reconcileConsonance scores the note's pitch against the melody note
// sounding at the same time and shifts octaves when that wins. The
// original pitch is kept when no melody is sounding.
func (r *realizer) reconcileConsonance(n AbstractNote) int {
	mel, ok := r.melodyAt(n.StartBeat)
	if !ok {
		return n.Midi
	}
	candidates := [3]int{n.Midi, n.Midi - 12, n.Midi + 12}
	best := n.Midi
	bestScore := math.Inf(1)
	for _, cand := range candidates {
		if cand < theory.MidiMin || cand > theory.MidiMax {
			continue
		}
		score := 0.0
		interval := (cand - mel.Midi) % 12
		if interval < 0 {
			interval += 12
		}
		switch interval {
		case 1, 2, 6, 11:
			score += dissonancePenalty
		}
		score += proximityWeight * math.Abs(float64(cand-mel.Midi))
		score += spreadWeight * math.Abs(float64(cand-n.Midi))
		if score < bestScore {
			bestScore = score
			best = cand
		}
	}
	return best
}

func (r *realizer) melodyAt(beat float64) (AbstractNote, bool) {
	for _, m := range r.melody {
		if m.StartBeat <= beat && beat < m.StartBeat+m.DurationBeats {
			return m, true
		}
	}
	return AbstractNote{}, false
}

// bassNotes passes bass tracks through unchanged; shaping happened during
// selection and velocity scaling follows.
func (r *realizer) bassNotes(track VoiceTrack) []realNote {
	out := make([]realNote, len(track.Notes))
	for i, n := range track.Notes {
		out[i] = realNote{AbstractNote: n}
	}
	return out
}

// scaleVelocity applies the multiplicative scaling hierarchy, then clamps
// into the band below the accent headroom.
func (r *realizer) scaleVelocity(n realNote, voice Voice) float64 {
	v := n.Velocity
	isBassRole := voice.Role == RoleBass || voice.Role == RoleBassAlt

	if isBassRole {
		v *= 0.9
		if n.Midi < 40 {
			v *= 0.85
		}
	}
	if voice.Channel == ChannelTriangle {
		v *= 0.95
		if !isBassRole {
			v *= 0.85
		}
	}
	if isBassRole && (voice.Channel == ChannelSquare1 || voice.Channel == ChannelSquare2) {
		v *= 0.8
	}

	if v < velocityMin {
		v = velocityMin
	}
	if v > velocityMax-accentHeadroom {
		v = velocityMax - accentHeadroom
	}
	return v
}

// emitChannel turns a channel's notes into strictly alternating
// noteOn/noteOff pairs, clipping overlaps and the composition boundary.
func (r *realizer) emitChannel(ch Channel, notes []realNote) []TimedEvent {
	sort.SliceStable(notes, func(i, j int) bool { return notes[i].StartBeat < notes[j].StartBeat })

	var events []TimedEvent
	for i, n := range notes {
		if n.StartBeat >= r.totalBeats {
			continue
		}
		// Equal starts cannot alternate on one channel; keep the later entry.
		if i+1 < len(notes) && notes[i+1].StartBeat == n.StartBeat {
			continue
		}
		end := n.StartBeat + n.DurationBeats
		if i+1 < len(notes) && notes[i+1].StartBeat < end && notes[i+1].StartBeat > n.StartBeat {
			end = notes[i+1].StartBeat
		}
		if end > r.totalBeats {
			end = r.totalBeats
		}
		if end <= n.StartBeat {
			continue
		}
		data := NoteData{
			Midi:         n.Midi,
			Velocity:     n.Velocity,
			DetuneCents:  n.DetuneCents,
			SlideSeconds: n.slideSeconds,
		}
		if n.slideSeconds > 0 {
			data.SlideFromMidi = n.slideFrom
		}
		events = append(events, noteOnEvent(n.StartBeat, ch, data))
		events = append(events, noteOffEvent(end, ch, 0))
	}
	return events
}

// realizeDrums emits the noise channel enforcing monophony: whitelisted
// hi-hat pairs may stack with zero gap; every other still-sounding hit is
// shortened when enough of it sounded, else its on/off pair is canceled.
func (r *realizer) realizeDrums(hits []DrumHit) []TimedEvent {
	sorted := append([]DrumHit(nil), hits...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].StartBeat < sorted[j].StartBeat })

	type activeHit struct {
		onIdx, offIdx int
		on, off       float64
		instr         theory.DrumInstrument
	}

	var events []TimedEvent
	var active []activeHit
	canceled := map[int]bool{}

	for _, h := range sorted {
		if h.StartBeat >= r.totalBeats {
			continue
		}
		end := h.StartBeat + h.DurationBeats
		if end > r.totalBeats {
			end = r.totalBeats
		}

		kept := active[:0]
		for _, a := range active {
			if a.off <= h.StartBeat {
				continue
			}
			switch {
			case h.Instrument.IsHat() && a.instr.IsHat():
				// Whitelisted stack; the sounding hat plays on.
				kept = append(kept, a)
			case h.StartBeat-a.on >= minSafeDrumOffset:
				events[a.offIdx].Beat = h.StartBeat
			default:
				// Too close to express; cancel the sounding pair.
				canceled[a.onIdx] = true
				canceled[a.offIdx] = true
			}
		}
		active = kept

		events = append(events, noteOnEvent(h.StartBeat, ChannelNoise, NoteData{
			Midi:     drumMidi[h.Instrument],
			Velocity: h.Velocity,
		}))
		events = append(events, noteOffEvent(end, ChannelNoise, 0))
		active = append(active, activeHit{
			onIdx: len(events) - 2, offIdx: len(events) - 1,
			on: h.StartBeat, off: end,
			instr: h.Instrument,
		})
	}

	if len(canceled) == 0 {
		return events
	}
	out := events[:0]
	for i, ev := range events {
		if !canceled[i] {
			out = append(out, ev)
		}
	}
	return out
}
