package composer

import (
	"log/slog"

	"github.com/abagames/algo-chip-sub000/internal/motif"
)

// Composer generates complete chiptune background tracks from a motif
// library. It is safe for concurrent use: composition state lives per call.
type Composer struct {
	lib *motif.Library
}

// New returns a Composer over the given motif library. The library is
// expected to be validated already.
func New(lib *motif.Library) *Composer {
	return &Composer{lib: lib}
}

// Meta summarizes the resolved generation parameters of one composition.
type Meta struct {
	BPM              float64     `json:"bpm"`
	Key              string      `json:"key"`
	Seed             uint32      `json:"seed"`
	Mood             string      `json:"mood"`
	Tempo            string      `json:"tempo"`
	LengthInMeasures int         `json:"lengthInMeasures"`
	StyleIntent      StyleIntent `json:"styleIntent"`
	VoiceArrangement string      `json:"voiceArrangement"`
	LoopInfo         LoopInfo    `json:"loopInfo"`
}

// Diagnostics exposes the internal decisions of one composition for
// inspection and testing.
type Diagnostics struct {
	VoiceAllocation map[Channel]VoiceRole `json:"voiceAllocation"`
	LoopWindow      LoopWindow            `json:"loopWindow"`
	MotifUsage      map[string][]string   `json:"motifUsage"`
	SectionPlans    []SectionMotifPlan    `json:"sectionMotifPlan"`
	ActiveNotePeaks map[Channel]int       `json:"activeNotePeaks"`
}

// Result is a finished composition: the time-ordered event list plus the
// metadata and diagnostics describing how it was made.
type Result struct {
	Events      []Event     `json:"events"`
	Meta        Meta        `json:"meta"`
	Diagnostics Diagnostics `json:"diagnostics"`
}

// Compose runs the full pipeline for one options set. The same options
// (seed included) always produce the identical result.
func (c *Composer) Compose(opts Options) (*Result, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	plan, err := PlanStructure(opts, c.lib)
	if err != nil {
		return nil, err
	}
	slog.Debug("structure planned",
		"seed", opts.Seed,
		"bpm", plan.BPM,
		"key", plan.Key,
		"sections", len(plan.Sections),
		"arrangement", plan.Arrangement.Name)

	sel, err := selectMotifs(opts, plan, c.lib)
	if err != nil {
		return nil, err
	}

	events := realizeEvents(opts, plan, sel)
	events = postprocess(opts, plan, events)
	peaks := activeNotePeaks(events)
	finalEvents, loopInfo := finalize(plan, events)

	allocation := map[Channel]VoiceRole{}
	for _, v := range plan.Arrangement.Voices {
		allocation[v.Channel] = v.Role
	}

	slog.Debug("composition finished",
		"seed", opts.Seed,
		"events", len(finalEvents),
		"totalBeats", loopInfo.TotalBeats,
		"duration", loopInfo.TotalDuration)

	return &Result{
		Events: finalEvents,
		Meta: Meta{
			BPM:              plan.BPM,
			Key:              plan.Key,
			Seed:             opts.Seed,
			Mood:             opts.Mood,
			Tempo:            opts.Tempo,
			LengthInMeasures: opts.LengthInMeasures,
			StyleIntent:      plan.Intent,
			VoiceArrangement: plan.Arrangement.Name,
			LoopInfo:         loopInfo,
		},
		Diagnostics: Diagnostics{
			VoiceAllocation: allocation,
			LoopWindow:      loopWindow(loopInfo),
			MotifUsage:      sel.Usage,
			SectionPlans:    sel.SectionPlans,
			ActiveNotePeaks: peaks,
		},
	}, nil
}
