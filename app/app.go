/*
Package app holds the command line front end: flag parsing, option
validation and the record processing loop.
*/
package app

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/lunny/log"
	"github.com/mitchellh/go-wordwrap"

	"github.com/tsjzz/rnafold/constraint"
	"github.com/tsjzz/rnafold/ensemble"
	"github.com/tsjzz/rnafold/fold"
	"github.com/tsjzz/rnafold/motif"
	"github.com/tsjzz/rnafold/output"
	"github.com/tsjzz/rnafold/seqio"
)

// exit codes
const (
	ExitOK    = 0
	ExitFatal = 1
	ExitUsage = 2
)

const usageText = `rnafold reads RNA sequences from input files or stdin, predicts their minimum free energy secondary structure and optionally the full pairing ensemble: partition function, base pair probabilities, centroid and maximum expected accuracy structures. Results are written as dot-bracket lines to the output; structure drawings and dot plots are written as PostScript files named after the record.`

type config struct {
	partfunc      bool
	mea           bool
	gamma         float64
	bppmThreshold float64
	computeBPP    int
	lucky         bool

	dangles     int
	temperature float64
	circular    bool
	noLP        bool
	gquad       bool

	noConv  bool
	noPS    bool
	verbose bool

	motifSpec    string
	commandsFile string
	udFile       string

	constraintMode bool
	constraintFile string
	batch          bool
	enforce        bool
	canonical      bool

	shapeFile       string
	shapeMethod     string
	shapeConversion string

	toFile        bool
	outputName    string
	filenameDelim string
	filenameFull  bool

	autoID   bool
	idPrefix string
	idDelim  string
	idDigits int

	inputs []string
}

func parseFlags(args []string, stderr io.Writer) (*config, error) {
	cfg := &config{}
	fs := flag.NewFlagSet("rnafold", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintln(stderr, wordwrap.WrapString(usageText, 78))
		fmt.Fprintln(stderr, "\nusage: rnafold [options] [input files]")
		fs.PrintDefaults()
	}

	fs.BoolVar(&cfg.partfunc, "p", false, "compute the partition function and pair probabilities")
	fs.BoolVar(&cfg.mea, "MEA", false, "compute the maximum expected accuracy structure")
	fs.Float64Var(&cfg.gamma, "gamma", 1.0, "MEA weighting factor")
	fs.Float64Var(&cfg.bppmThreshold, "bppmThreshold", 1e-5, "drop pair probabilities below this value from dot plots")
	fs.IntVar(&cfg.computeBPP, "bppm", 1, "base pair probability output level (0 none, 1 pairs, 2 pairs and stacks)")
	fs.BoolVar(&cfg.lucky, "lucky", false, "sample one structure from the ensemble instead of the full report")

	fs.IntVar(&cfg.dangles, "d", 2, "dangling end model (0-3)")
	fs.Float64Var(&cfg.temperature, "T", 37.0, "folding temperature in Celsius")
	fs.BoolVar(&cfg.circular, "circ", false, "treat sequences as circular")
	fs.BoolVar(&cfg.noLP, "noLP", false, "penalize lonely pairs")
	fs.BoolVar(&cfg.gquad, "g", false, "include G-quadruplex support")

	fs.BoolVar(&cfg.noConv, "noconv", false, "do not convert DNA input to RNA")
	fs.BoolVar(&cfg.noPS, "noPS", false, "skip PostScript structure drawings")
	fs.BoolVar(&cfg.verbose, "v", false, "verbose diagnostics")

	fs.StringVar(&cfg.motifSpec, "motif", "", "ligand motif as SEQUENCE,STRUCTURE,ENERGY")
	fs.StringVar(&cfg.commandsFile, "commands", "", "constraint directive script")
	fs.StringVar(&cfg.udFile, "ud", "", "unstructured domain catalog (YAML)")

	fs.BoolVar(&cfg.constraintMode, "C", false, "read a structure constraint after each sequence")
	fs.StringVar(&cfg.constraintFile, "constraint-file", "", "read the structure constraint from this file")
	fs.BoolVar(&cfg.batch, "batch", false, "apply the constraint file to every record")
	fs.BoolVar(&cfg.enforce, "enforceConstraint", false, "force constrained pairs even when non-canonical")
	fs.BoolVar(&cfg.canonical, "canonicalBPonly", false, "drop non-canonical pairs from constraints")

	fs.StringVar(&cfg.shapeFile, "shape", "", "SHAPE reactivity file")
	fs.StringVar(&cfg.shapeMethod, "shapeMethod", "D", "SHAPE conversion method")
	fs.StringVar(&cfg.shapeConversion, "shapeConversion", "", "SHAPE conversion parameters")

	fs.BoolVar(&cfg.toFile, "tofile", false, "write results to per-record files")
	fs.StringVar(&cfg.outputName, "outfile", "", "write all results to this file")
	fs.StringVar(&cfg.filenameDelim, "filename-delim", "_", "delimiter for generated file names")
	fs.BoolVar(&cfg.filenameFull, "filename-full", false, "derive file names from the full header")

	fs.BoolVar(&cfg.autoID, "auto-id", false, "generate sequence identifiers")
	fs.StringVar(&cfg.idPrefix, "id-prefix", "Sequence", "prefix for generated identifiers")
	fs.StringVar(&cfg.idDelim, "id-delim", "_", "delimiter for generated identifiers")
	fs.IntVar(&cfg.idDigits, "id-digits", 4, "digits of the generated identifier counter")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	cfg.inputs = fs.Args()
	return cfg, nil
}

// validate applies option interactions: some combinations are fatal, some
// merely fall back with a warning.
func (cfg *config) validate(logger *log.Logger) error {
	if cfg.dangles < 0 || cfg.dangles > 3 {
		logger.Warnf("required dangle model %d not implemented, falling back to default dangles 2", cfg.dangles)
		cfg.dangles = 2
	}
	if cfg.circular && cfg.gquad {
		return errors.New("G-quadruplex support is not available for circular sequences")
	}
	if cfg.circular && cfg.noLP {
		logger.Warn("lonely pair penalty may produce spurious results for circular sequences")
	}
	if cfg.bppmThreshold < 0 {
		logger.Warnf("base pair probability threshold %g clamped to 0", cfg.bppmThreshold)
		cfg.bppmThreshold = 0
	}
	if cfg.bppmThreshold > 1 {
		logger.Warnf("base pair probability threshold %g clamped to 1", cfg.bppmThreshold)
		cfg.bppmThreshold = 1
	}
	if cfg.lucky {
		cfg.partfunc = true
	}
	if cfg.outputName != "" {
		cfg.toFile = true
	}
	return nil
}

func (cfg *config) model() fold.Model {
	md := fold.DefaultModel()
	md.Temperature = cfg.temperature
	md.Dangles = cfg.dangles
	md.Circular = cfg.circular
	md.NoLonelyPairs = cfg.noLP
	md.GQuad = cfg.gquad
	md.ComputeBPP = cfg.computeBPP
	return md
}

// Run is the whole program behind main: it returns the process exit code.
func Run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	logger := log.New(stderr, "rnafold ", log.Ldefault())

	cfg, err := parseFlags(args, stderr)
	if err == flag.ErrHelp {
		return ExitOK
	}
	if err != nil {
		return ExitUsage
	}
	if err := cfg.validate(logger); err != nil {
		logger.Error(err)
		return ExitFatal
	}

	var ligands []motif.Ligand
	if cfg.motifSpec != "" {
		l, err := motif.ParseLigand(cfg.motifSpec)
		if err != nil {
			// a bad motif spec disables the motif, it does not stop folding
			logger.Warnf("ignoring ligand motif %q: %v", cfg.motifSpec, err)
		} else {
			ligands = append(ligands, l)
		}
	}

	var commands []constraint.Command
	if cfg.commandsFile != "" {
		commands, err = constraint.ParseCommands(cfg.commandsFile, logger)
		if err != nil {
			logger.Error(err)
			return ExitFatal
		}
	}

	var domains *motif.DomainCatalog
	if cfg.udFile != "" {
		domains, err = motif.LoadDomainCatalog(cfg.udFile)
		if err != nil {
			logger.Error(err)
			return ExitFatal
		}
	}

	var shape *constraint.SHAPEOptions
	if cfg.shapeFile != "" {
		shape = &constraint.SHAPEOptions{
			File:       cfg.shapeFile,
			Method:     cfg.shapeMethod,
			Conversion: cfg.shapeConversion,
		}
	}

	ids := &output.IDControl{
		Prefix:       cfg.idPrefix,
		Delim:        cfg.idDelim,
		Digits:       cfg.idDigits,
		Auto:         cfg.autoID,
		FilenameFull: cfg.filenameFull,
	}
	analyzer := ensemble.NewAnalyzer(ensemble.Options{
		Model:         cfg.model(),
		PF:            cfg.partfunc,
		MEA:           cfg.mea,
		Gamma:         cfg.gamma,
		BppmThreshold: cfg.bppmThreshold,
		Lucky:         cfg.lucky,
		NoPS:          cfg.noPS,
		NoConv:        cfg.noConv,
		Verbose:       cfg.verbose,
		ToFile:        cfg.toFile,
		OutputName:    cfg.outputName,
	}, logger, nil, ids)
	analyzer.Domains = domains

	// SHAPE data and a non-batch constraint file describe exactly one
	// molecule, so processing stops after the first record
	singleShot := cfg.shapeFile != "" || (cfg.constraintFile != "" && !cfg.batch)

	newSpec := func(rec *seqio.Record) *constraint.Spec {
		spec := &constraint.Spec{
			Enforce:   cfg.enforce,
			Canonical: cfg.canonical,
			SHAPE:     shape,
			Ligands:   ligands,
			Commands:  commands,
		}
		if cfg.constraintFile != "" {
			spec.File = cfg.constraintFile
		} else if cfg.constraintMode {
			spec.InlineLines = rec.Rest
			spec.Multiline = rec.HasHeader
		}
		return spec
	}

	process := func(in io.Reader, inputPath string) int {
		analyzer.Router = output.NewRouter(cfg.filenameDelim, inputPath)
		reader := seqio.NewReader(in, cfg.constraintMode)
		for {
			rec, err := reader.Next()
			if err == io.EOF {
				return ExitOK
			}
			if err != nil {
				var pe *seqio.ParseError
				if errors.As(err, &pe) {
					logger.Warn(pe)
					continue
				}
				logger.Error(err)
				return ExitFatal
			}
			if err := analyzer.Process(rec, newSpec(rec), stdout); err != nil {
				logger.Error(err)
				return ExitFatal
			}
			if singleShot {
				return ExitOK
			}
		}
	}

	if len(cfg.inputs) == 0 {
		return process(stdin, "")
	}
	for _, path := range cfg.inputs {
		f, err := os.Open(path)
		if err != nil {
			logger.Errorf("opening input %s: %v", path, err)
			return ExitFatal
		}
		code := process(f, path)
		f.Close()
		if code != ExitOK {
			return code
		}
	}
	return ExitOK
}
