package ensemble

import (
	"fmt"
	"io"
	"math/rand"
	"os"

	"github.com/lunny/log"
	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/tsjzz/rnafold/annotate"
	"github.com/tsjzz/rnafold/constraint"
	"github.com/tsjzz/rnafold/fold"
	"github.com/tsjzz/rnafold/motif"
	"github.com/tsjzz/rnafold/output"
	"github.com/tsjzz/rnafold/plist"
	"github.com/tsjzz/rnafold/plot"
	"github.com/tsjzz/rnafold/seqio"
)

// Sequences longer than these thresholds get extra diagnostics: the
// Boltzmann scaling factor, and the ensemble free energy on its own line.
const (
	longSequence        = 2000
	ensembleLogSequence = 1600
)

// InfeasibleConstraintsError reports hard constraints that admit no
// structure at all.
type InfeasibleConstraintsError struct {
	Sequence string
}

func (e *InfeasibleConstraintsError) Error() string {
	return fmt.Sprintf("supplied constraints create an empty solution set for sequence:\n%s", e.Sequence)
}

// Options selects the analyses run per record.
type Options struct {
	Model fold.Model

	// PF enables partition function analysis: pairing propensity, base pair
	// probabilities, centroid and ensemble diagnostics.
	PF bool
	// MEA adds the maximum expected accuracy structure, weighted by Gamma.
	MEA   bool
	Gamma float64
	// BppmThreshold drops pair probabilities below it from dot plots.
	BppmThreshold float64
	// Lucky samples one structure from the ensemble instead of reporting
	// propensity, centroid and MEA.
	Lucky bool

	NoPS    bool
	NoConv  bool
	Verbose bool

	// ToFile writes results to per-record files instead of the stream.
	ToFile bool
	// OutputName, when set, fixes one output file for every record.
	OutputName string
}

// Analyzer processes records one at a time, sequentially.
type Analyzer struct {
	Opts   Options
	Logger *log.Logger
	Router *output.Router
	IDs    *output.IDControl
	// Domains is a shared unstructured-domain catalog applied to every
	// record, usually loaded from a YAML file.
	Domains *motif.DomainCatalog
	Rand    *rand.Rand
}

// NewAnalyzer wires an analyzer with its collaborators.
func NewAnalyzer(opts Options, logger *log.Logger, router *output.Router, ids *output.IDControl) *Analyzer {
	return &Analyzer{
		Opts:   opts,
		Logger: logger,
		Router: router,
		IDs:    ids,
		Rand:   rand.New(rand.NewSource(rand.Int63())),
	}
}

// registry builds the per-record motif registry, seeded with the shared
// domain catalog so directive scripts can extend it without leaking into
// the next record.
func (a *Analyzer) registry() *motif.Registry {
	reg := &motif.Registry{}
	if a.Domains != nil {
		reg.Domains = &motif.DomainCatalog{
			Motifs: append([]motif.DomainMotif(nil), a.Domains.Motifs...),
		}
	}
	return reg
}

// Process runs the full analysis for one record and writes its results to w
// (or a per-record file when so configured).
func (a *Analyzer) Process(rec *seqio.Record, spec *constraint.Spec, w io.Writer) error {
	stage := StageInit

	id := a.IDs.Next(rec.ID)
	stem := a.IDs.FileStem(rec.ID, id)

	norm := seqio.Normalize(rec.Sequence, a.Opts.NoConv)
	n := len(norm.Folding)
	stage.advance(StageNormalized)
	if a.Opts.Verbose {
		a.Logger.Infof("record %s (%s), length %d", displayName(id), seqio.Fingerprint(norm.Folding), n)
	}

	c, err := fold.NewCompound(norm.Folding, a.Opts.Model)
	if err != nil {
		stage.advance(StageFatal)
		return err
	}
	reg := a.registry()
	if err := spec.Apply(c, reg, a.Logger); err != nil {
		stage.advance(StageFatal)
		return err
	}
	stage.advance(StageConstraintsApplied)

	mfeStruct, mfeEnergy := c.MFE()
	if mfeStruct == "" && mfeEnergy >= fold.EnergyInfeasible {
		if spec.HardActive() {
			stage.advance(StageFatal)
			return &InfeasibleConstraintsError{Sequence: norm.Original}
		}
		stage.advance(StageFatal)
		return fmt.Errorf("no structure found for sequence %s", norm.Original)
	}
	stage.advance(StageMFEComputed)

	out, closer, err := a.resolveWriter(w, stem)
	if err != nil {
		stage.advance(StageFatal)
		return err
	}
	if closer != nil {
		defer closer.Close()
	}

	a.writeHeader(out, rec, id)
	fmt.Fprintf(out, "%s\n", norm.Original)

	// a stochastic sample replaces the MFE structure in both the report
	// and the drawing
	var occs []motif.Occurrence
	if !a.Opts.Lucky {
		fmt.Fprintf(out, "%s (%6.2f)\n", mfeStruct, mfeEnergy)

		occs = reg.Detect(norm.Folding, mfeStruct)
		var udOccs []motif.DomainOccurrence
		if reg.Domains != nil {
			udOccs = reg.Domains.Detect(norm.Folding, mfeStruct)
		}
		a.logDetections("mfe", occs, udOccs, reg.Domains)

		if err := a.writeStructurePlot(stem, norm.Original, mfeStruct, occs, udOccs, reg); err != nil {
			stage.advance(StageFatal)
			return err
		}

		if !a.Opts.PF {
			stage.advance(StageOutputWritten)
			stage.advance(StageReleased)
			return nil
		}
	}

	// reference energy for Boltzmann rescaling; odd dangle settings are
	// re-evaluated with dangles 2 so the scale stays consistent with the
	// partition function's model
	ref := mfeEnergy
	if a.Opts.Model.Dangles%2 == 1 {
		if e, err := c.EvaluateWithDangles(mfeStruct, 2); err == nil {
			ref = e
		}
	}
	if n > longSequence {
		c.ReleaseMFE()
	}
	c.RescaleBoltzmann(ref)
	if n > longSequence {
		a.Logger.Infof("scaling factor %f", c.PFScale())
	}

	propensity, ensembleEnergy, err := c.PartitionFunction()
	if err != nil {
		stage.advance(StageFatal)
		return err
	}
	if ensembleEnergy >= fold.EnergyInfeasible {
		stage.advance(StageFatal)
		return &InfeasibleConstraintsError{Sequence: norm.Original}
	}
	stage.advance(StagePFComputed)
	if n > ensembleLogSequence {
		a.Logger.Infof("free energy of ensemble = %6.2f kcal/mol", ensembleEnergy)
	}

	if a.Opts.Lucky {
		sampled, err := c.Sample(a.Rand)
		if err != nil {
			stage.advance(StageFatal)
			return err
		}
		energy, err := c.Evaluate(sampled)
		if err != nil {
			stage.advance(StageFatal)
			return err
		}
		fmt.Fprintf(out, "%s (%6.2f)\n", sampled, energy)

		sampleOccs := reg.Detect(norm.Folding, sampled)
		sampleUD := domainOccs(reg, norm.Folding, sampled)
		a.logDetections("sampled", sampleOccs, sampleUD, reg.Domains)
		if err := a.writeStructurePlot(stem, norm.Original, sampled, sampleOccs, sampleUD, reg); err != nil {
			stage.advance(StageFatal)
			return err
		}

		stage.advance(StageOutputWritten)
		stage.advance(StageReleased)
		return nil
	}

	// without pair probabilities only the ensemble energy and the mfe
	// frequency can be reported
	if a.Opts.Model.ComputeBPP == 0 {
		fmt.Fprintf(out, " free energy of ensemble = %6.2f kcal/mol\n", ensembleEnergy)
		freq, err := c.StructureFrequency(mfeStruct)
		if err != nil {
			stage.advance(StageFatal)
			return err
		}
		fmt.Fprintf(out, " frequency of mfe structure in ensemble %g;\n", freq)
		stage.advance(StageOutputWritten)
		stage.advance(StageReleased)
		return nil
	}

	fmt.Fprintf(out, "%s [%6.2f]\n", propensity, ensembleEnergy)

	probs := c.PairProbabilities()
	upper := plist.FromProbabilities(probs, a.Opts.BppmThreshold)
	upper.Merge(occs)
	lower, err := plist.FromStructure(mfeStruct)
	if err != nil {
		stage.advance(StageFatal)
		return err
	}
	if err := a.writeDotPlots(c, norm.Original, stem, upper, lower); err != nil {
		stage.advance(StageFatal)
		return err
	}

	centroid, dist, err := c.Centroid()
	if err != nil {
		stage.advance(StageFatal)
		return err
	}
	centroidEnergy, err := c.Evaluate(centroid)
	if err != nil {
		stage.advance(StageFatal)
		return err
	}
	fmt.Fprintf(out, "%s {%6.2f d=%.2f}\n", centroid, centroidEnergy, dist)
	stage.advance(StageCentroidComputed)
	a.logDetections("centroid", reg.Detect(norm.Folding, centroid), domainOccs(reg, norm.Folding, centroid), reg.Domains)

	if a.Opts.Verbose && centroid != mfeStruct {
		dmp := diffmatchpatch.New()
		diffs := dmp.DiffMain(mfeStruct, centroid, false)
		a.Logger.Infof("mfe vs centroid: %s", dmp.DiffPrettyText(diffs))
	}

	if a.Opts.MEA {
		meaStruct, meaValue := a.mea(norm.Folding, probs)
		meaEnergy, err := c.Evaluate(meaStruct)
		if err != nil {
			stage.advance(StageFatal)
			return err
		}
		fmt.Fprintf(out, "%s {%6.2f MEA=%.2f}\n", meaStruct, meaEnergy, meaValue)
		stage.advance(StageMEAComputed)
		a.logDetections("MEA", reg.Detect(norm.Folding, meaStruct), domainOccs(reg, norm.Folding, meaStruct), reg.Domains)
	}

	freq, err := c.StructureFrequency(mfeStruct)
	if err != nil {
		stage.advance(StageFatal)
		return err
	}
	fmt.Fprintf(out, " frequency of mfe structure in ensemble %g; ensemble diversity %-6.2f\n",
		freq, c.MeanBPDistance())

	stage.advance(StageOutputWritten)
	stage.advance(StageReleased)
	return nil
}

// mea picks the trace variant matching the model: quadruplex-aware models
// need the sequence to filter admissible pairs.
func (a *Analyzer) mea(seq string, probs [][]float64) (string, float64) {
	threshold := 1e-4 / (1 + a.Opts.Gamma)
	pairs := sparsePairs(probs, threshold)
	if a.Opts.Model.GQuad {
		return fold.MEASeq(fold.SeqProbs{Seq: seq, Pairs: pairs}, a.Opts.Gamma)
	}
	return fold.MEA(fold.PlainProbs{N: len(seq), Pairs: pairs}, a.Opts.Gamma)
}

func sparsePairs(probs [][]float64, threshold float64) []fold.PairProb {
	var out []fold.PairProb
	for i := range probs {
		for j := i + 1; j < len(probs); j++ {
			if probs[i][j] > threshold {
				out = append(out, fold.PairProb{I: i, J: j, P: probs[i][j]})
			}
		}
	}
	return out
}

func domainOccs(reg *motif.Registry, seq, structure string) []motif.DomainOccurrence {
	if reg.Domains == nil {
		return nil
	}
	return reg.Domains.Detect(seq, structure)
}

func (a *Analyzer) logDetections(which string, occs []motif.Occurrence, udOccs []motif.DomainOccurrence, cat *motif.DomainCatalog) {
	for _, msg := range annotate.LigandMessages(which, occs) {
		a.Logger.Info(msg)
	}
	for _, msg := range annotate.DomainMessages(which, udOccs, cat) {
		a.Logger.Info(msg)
	}
}

func (a *Analyzer) writeHeader(out io.Writer, rec *seqio.Record, id string) {
	switch {
	case a.IDs.Auto:
		fmt.Fprintf(out, ">%s\n", id)
	case rec.HasHeader && rec.ID != "":
		fmt.Fprintf(out, ">%s\n", rec.ID)
	}
}

// resolveWriter picks the record's output destination: the stream, a fixed
// file, or a per-record file named after the id. Files are opened in append
// mode so several records can share one.
func (a *Analyzer) resolveWriter(w io.Writer, stem string) (io.Writer, io.Closer, error) {
	if !a.Opts.ToFile {
		return w, nil, nil
	}
	path := a.Opts.OutputName
	if path == "" {
		var err error
		path, err = a.Router.ResolveUnique(".fold", "RNAfold_output.fold", stem)
		if err != nil {
			return nil, nil, err
		}
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, err
	}
	return f, f, nil
}

// writeStructurePlot draws the reported structure into <stem>_ss.ps with the
// motif annotations, unless drawings are disabled.
func (a *Analyzer) writeStructurePlot(stem, seq, structure string, occs []motif.Occurrence, udOccs []motif.DomainOccurrence, reg *motif.Registry) error {
	if a.Opts.NoPS {
		return nil
	}
	path, err := a.Router.Resolve("ss.ps", "rna.ps", stem)
	if err != nil {
		return err
	}
	ann := annotate.Join(annotate.Ligand(occs), annotate.Domains(udOccs, reg.Domains))
	if err := plot.WriteStructurePlot(path, seq, structure, ann); err != nil {
		a.Logger.Warnf("writing structure plot %s: %v", path, err)
	}
	return nil
}

func (a *Analyzer) writeDotPlots(c *fold.Compound, seq, stem string, upper, lower *plist.List) error {
	path, err := a.Router.Resolve("dp.ps", "dot.ps", stem)
	if err != nil {
		return err
	}
	if err := plot.WriteDotPlot(path, seq, upper, lower); err != nil {
		a.Logger.Warnf("writing dot plot %s: %v", path, err)
	}
	if a.Opts.Model.ComputeBPP != 2 {
		return nil
	}
	path, err = a.Router.Resolve("dp2.ps", "dot2.ps", stem)
	if err != nil {
		return err
	}
	stacks := plist.FromStackProbs(c.StackProbs(a.Opts.BppmThreshold))
	if err := plot.WriteDotPlot(path, seq, stacks, nil); err != nil {
		a.Logger.Warnf("writing stack plot %s: %v", path, err)
	}
	return nil
}

func displayName(id string) string {
	if id == "" {
		return "(unnamed)"
	}
	return id
}
