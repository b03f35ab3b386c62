package constraint

import (
	"bufio"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/lunny/log"

	"github.com/tsjzz/rnafold/fold"
)

// SHAPEOptions selects a reactivity file and the method converting the
// reactivities into soft pseudo-energies. Only the Deigan method ("D") is
// supported; other method letters disable SHAPE with a warning.
type SHAPEOptions struct {
	File string
	// Method is the method string, e.g. "Dm1.8b-0.6".
	Method string
	// Conversion is carried for compatibility with other methods and is
	// currently unused by the Deigan conversion.
	Conversion string
}

// deiganParams holds the slope and intercept of the Deigan et al. 2009
// conversion deltaG(i) = m*ln(reactivity+1) + b for paired positions.
type deiganParams struct {
	slope, intercept float64
}

var defaultDeigan = deiganParams{slope: 1.8, intercept: -0.6}

// parseMethod understands strings like "D", "Dm1.8", "Db-0.6" and
// "Dm1.8b-0.6". The leading letter names the method.
func parseMethod(method string) (byte, deiganParams, error) {
	p := defaultDeigan
	if method == "" {
		return 'D', p, nil
	}
	kind := method[0]
	rest := method[1:]
	for rest != "" {
		var key byte
		switch rest[0] {
		case 'm', 'b':
			key = rest[0]
			rest = rest[1:]
		default:
			return kind, p, fmt.Errorf("malformed method string %q", method)
		}
		end := strings.IndexAny(rest, "mb")
		if end < 0 {
			end = len(rest)
		}
		v, err := strconv.ParseFloat(rest[:end], 64)
		if err != nil {
			return kind, p, fmt.Errorf("malformed method string %q: %v", method, err)
		}
		if key == 'm' {
			p.slope = v
		} else {
			p.intercept = v
		}
		rest = rest[end:]
	}
	return kind, p, nil
}

// apply reads the reactivity file and adds one soft pseudo-energy per
// position with a non-negative reactivity.
func (o *SHAPEOptions) apply(cons *fold.Constraints, logger *log.Logger) error {
	kind, params, err := parseMethod(o.Method)
	if err != nil {
		return err
	}
	if kind != 'D' {
		logger.Warnf("SHAPE method %q not supported, ignoring reactivity data", o.Method)
		return nil
	}

	reactivities, err := readReactivities(o.File, cons.Len())
	if err != nil {
		return err
	}
	for i, r := range reactivities {
		if r < 0 {
			continue
		}
		if err := cons.AddSoft(i, params.slope*math.Log(r+1)+params.intercept); err != nil {
			return err
		}
	}
	cons.MarkActive()
	return nil
}

// readReactivities parses a SHAPE file of "position [nucleotide] value"
// lines into a per-position slice, -1 marking positions without data.
func readReactivities(path string, n int) ([]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("reading SHAPE file: %w", err)
	}
	defer f.Close()

	out := make([]float64, n)
	for i := range out {
		out[i] = -1
	}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			return nil, fmt.Errorf("malformed SHAPE line %q", line)
		}
		pos, err := strconv.Atoi(fields[0])
		if err != nil {
			return nil, fmt.Errorf("malformed SHAPE position %q", fields[0])
		}
		// the value is the last field; an optional nucleotide column may
		// sit in between
		val, err := strconv.ParseFloat(fields[len(fields)-1], 64)
		if err != nil {
			return nil, fmt.Errorf("malformed SHAPE reactivity %q", fields[len(fields)-1])
		}
		if pos < 1 || pos > n {
			return nil, fmt.Errorf("SHAPE position %d outside sequence of length %d", pos, n)
		}
		out[pos-1] = val
	}
	return out, scanner.Err()
}
