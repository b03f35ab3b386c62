package ensemble_test

import (
	"bytes"
	"errors"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/lunny/log"
	"github.com/stretchr/testify/assert"

	"github.com/tsjzz/rnafold/constraint"
	"github.com/tsjzz/rnafold/ensemble"
	"github.com/tsjzz/rnafold/fold"
	"github.com/tsjzz/rnafold/output"
	"github.com/tsjzz/rnafold/seqio"
)

func newAnalyzer(opts ensemble.Options) *ensemble.Analyzer {
	logger := log.New(io.Discard, "", 0)
	return ensemble.NewAnalyzer(opts, logger,
		output.NewRouter("_", ""), output.DefaultIDControl())
}

func inTempDir(t *testing.T) {
	t.Helper()
	wd, err := os.Getwd()
	assert.NoError(t, err)
	assert.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { os.Chdir(wd) })
}

func TestProcessMFEOnly(t *testing.T) {
	a := newAnalyzer(ensemble.Options{Model: fold.DefaultModel(), NoPS: true})
	var out bytes.Buffer

	rec := &seqio.Record{Sequence: "GGGGAAACCCC"}
	assert.NoError(t, a.Process(rec, &constraint.Spec{}, &out))

	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	if assert.Len(t, lines, 2) {
		assert.Equal(t, "GGGGAAACCCC", lines[0])
		assert.True(t, strings.HasPrefix(lines[1], "((((...)))) ("), "got %q", lines[1])
	}
}

func TestProcessHeaderLine(t *testing.T) {
	a := newAnalyzer(ensemble.Options{Model: fold.DefaultModel(), NoPS: true})
	var out bytes.Buffer

	rec := &seqio.Record{ID: "seq1 description", HasHeader: true, Sequence: "GGGGAAACCCC"}
	assert.NoError(t, a.Process(rec, &constraint.Spec{}, &out))
	assert.True(t, strings.HasPrefix(out.String(), ">seq1 description\n"))
}

func TestProcessConvertsDNA(t *testing.T) {
	a := newAnalyzer(ensemble.Options{Model: fold.DefaultModel(), NoPS: true})

	var dnaOut bytes.Buffer
	dna := &seqio.Record{Sequence: "GGGGTTTCCCC"}
	assert.NoError(t, a.Process(dna, &constraint.Spec{}, &dnaOut))
	assert.True(t, strings.HasPrefix(dnaOut.String(), "GGGGUUUCCCC\n"))
}

func TestProcessPartitionFunction(t *testing.T) {
	inTempDir(t)
	a := newAnalyzer(ensemble.Options{
		Model: fold.DefaultModel(),
		PF:    true,
		MEA:   true,
		Gamma: 1.0,
		NoPS:  true,
	})
	var out bytes.Buffer

	rec := &seqio.Record{Sequence: "GGGGAAACCCC"}
	assert.NoError(t, a.Process(rec, &constraint.Spec{}, &out))

	text := out.String()
	assert.Contains(t, text, " [")
	assert.Contains(t, text, " d=")
	assert.Contains(t, text, " MEA=")
	assert.Contains(t, text, "frequency of mfe structure in ensemble")
	assert.Contains(t, text, "ensemble diversity")

	_, err := os.Stat("dot.ps")
	assert.NoError(t, err, "dot plot written for headerless record")
}

func TestProcessWritesPlots(t *testing.T) {
	inTempDir(t)
	a := newAnalyzer(ensemble.Options{Model: fold.DefaultModel()})
	var out bytes.Buffer

	rec := &seqio.Record{ID: "seq1", HasHeader: true, Sequence: "GGGGAAACCCC"}
	assert.NoError(t, a.Process(rec, &constraint.Spec{}, &out))

	_, err := os.Stat("seq1_ss.ps")
	assert.NoError(t, err)
}

func TestProcessInfeasibleConstraints(t *testing.T) {
	a := newAnalyzer(ensemble.Options{Model: fold.DefaultModel(), NoPS: true})
	var out bytes.Buffer

	rec := &seqio.Record{Sequence: "AAAAAA"}
	spec := &constraint.Spec{InlineLines: []string{"<....."}}
	err := a.Process(rec, spec, &out)

	var ice *ensemble.InfeasibleConstraintsError
	assert.True(t, errors.As(err, &ice))
	assert.Equal(t, "AAAAAA", ice.Sequence)
}

func TestProcessLucky(t *testing.T) {
	inTempDir(t)
	a := newAnalyzer(ensemble.Options{
		Model: fold.DefaultModel(),
		PF:    true,
		Lucky: true,
		NoPS:  true,
	})
	var out bytes.Buffer

	rec := &seqio.Record{Sequence: "GGGGAAACCCC"}
	assert.NoError(t, a.Process(rec, &constraint.Spec{}, &out))

	text := out.String()
	assert.NotContains(t, text, " [", "lucky mode replaces the ensemble report")
	assert.NotContains(t, text, "frequency of mfe structure")
	// the sampled structure replaces the mfe line: sequence plus one
	// structure line
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	if assert.Len(t, lines, 2) {
		assert.Equal(t, "GGGGAAACCCC", lines[0])
		assert.Regexp(t, `^[.()]+ \( *-?\d+\.\d\d\)$`, lines[1])
	}
}

func TestProcessLuckyPlotsSample(t *testing.T) {
	inTempDir(t)
	a := newAnalyzer(ensemble.Options{
		Model: fold.DefaultModel(),
		PF:    true,
		Lucky: true,
	})
	var out bytes.Buffer

	rec := &seqio.Record{ID: "seq1", HasHeader: true, Sequence: "GGGGAAACCCC"}
	assert.NoError(t, a.Process(rec, &constraint.Spec{}, &out))

	// header, sequence, sampled structure
	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	assert.Len(t, lines, 3)
	sampled := strings.SplitN(lines[2], " ", 2)[0]

	data, err := os.ReadFile("seq1_ss.ps")
	assert.NoError(t, err)
	assert.Contains(t, string(data), sampled)
}

func TestProcessNoBasePairProbabilities(t *testing.T) {
	a := newAnalyzer(ensemble.Options{
		Model: func() fold.Model { m := fold.DefaultModel(); m.ComputeBPP = 0; return m }(),
		PF:    true,
		NoPS:  true,
	})
	var out bytes.Buffer

	rec := &seqio.Record{Sequence: "GGGGAAACCCC"}
	assert.NoError(t, a.Process(rec, &constraint.Spec{}, &out))

	text := out.String()
	assert.Contains(t, text, " free energy of ensemble = ")
	assert.Contains(t, text, " frequency of mfe structure in ensemble ")
	assert.NotContains(t, text, " [")
	assert.NotContains(t, text, "ensemble diversity")
	assert.NotContains(t, text, " d=")
}

func TestProcessToFile(t *testing.T) {
	inTempDir(t)
	a := newAnalyzer(ensemble.Options{Model: fold.DefaultModel(), NoPS: true, ToFile: true})
	var out bytes.Buffer

	rec := &seqio.Record{ID: "seq1", HasHeader: true, Sequence: "GGGGAAACCCC"}
	assert.NoError(t, a.Process(rec, &constraint.Spec{}, &out))

	assert.Equal(t, "", out.String(), "results go to the file")
	data, err := os.ReadFile("seq1.fold")
	assert.NoError(t, err)
	assert.Contains(t, string(data), "((((...))))")
}

func TestStageAdvanceValidation(t *testing.T) {
	assert.Equal(t, "mfe-computed", ensemble.StageMFEComputed.String())
	assert.True(t, ensemble.StageInit < ensemble.StagePFComputed)
}
