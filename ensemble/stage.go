/*
Package ensemble drives the per-record analysis: normalization, constraint
composition, minimum free energy folding, partition function analysis,
centroid and maximum expected accuracy structures, and output routing.
*/
package ensemble

import "fmt"

// Stage names a point in a record's lifecycle. Stages only ever advance;
// optional analyses are skipped by advancing past them.
type Stage int

const (
	StageInit Stage = iota
	StageNormalized
	StageConstraintsApplied
	StageMFEComputed
	StagePFComputed
	StageCentroidComputed
	StageMEAComputed
	StageOutputWritten
	StageReleased
	StageFatal
)

var stageNames = map[Stage]string{
	StageInit:               "init",
	StageNormalized:         "normalized",
	StageConstraintsApplied: "constraints-applied",
	StageMFEComputed:        "mfe-computed",
	StagePFComputed:         "pf-computed",
	StageCentroidComputed:   "centroid-computed",
	StageMEAComputed:        "mea-computed",
	StageOutputWritten:      "output-written",
	StageReleased:           "released",
	StageFatal:              "fatal",
}

func (s Stage) String() string {
	if name, ok := stageNames[s]; ok {
		return name
	}
	return fmt.Sprintf("stage(%d)", int(s))
}

// advance moves the lifecycle forward. Moving backwards or out of a
// terminal stage is a programming error and panics.
func (s *Stage) advance(next Stage) {
	if *s == StageReleased || *s == StageFatal {
		panic(fmt.Sprintf("record lifecycle: advance out of terminal stage %s", *s))
	}
	if next != StageFatal && next <= *s {
		panic(fmt.Sprintf("record lifecycle: %s does not follow %s", next, *s))
	}
	*s = next
}
