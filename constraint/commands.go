package constraint

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/lunny/log"

	"github.com/tsjzz/rnafold/fold"
	"github.com/tsjzz/rnafold/motif"
)

// Command is one parsed directive from a command script. Directives apply
// after every other constraint source and may override it.
//
//	F i j k      force pairs (i,j) .. (i+k-1,j-k+1); with j = 0 force
//	             positions i .. i+k-1 to pair with some partner
//	P i j k      prohibit pairs, with j = 0 force positions unpaired
//	E i 0 k e    add soft energy e to positions i .. i+k-1
//	UD seq e     register an unstructured-domain motif
type Command struct {
	kind     byte
	i, j, k  int
	energy   float64
	motifSeq string
	source   string
}

// ParseCommands reads a directive script. Unparsable lines are warned
// about and skipped; only an IO failure is an error.
func ParseCommands(path string, logger *log.Logger) ([]Command, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("reading command file: %w", err)
	}
	defer f.Close()

	var out []Command
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		cmd, err := parseCommand(line)
		if err != nil {
			logger.Warnf("skipping command line %q: %v", line, err)
			continue
		}
		out = append(out, cmd)
	}
	return out, scanner.Err()
}

func parseCommand(line string) (Command, error) {
	fields := strings.Fields(line)
	cmd := Command{source: line}

	switch fields[0] {
	case "F", "P", "E":
		cmd.kind = fields[0][0]
		wantNums := 3
		if cmd.kind == 'E' {
			wantNums = 4
		}
		if len(fields) != wantNums+1 {
			return cmd, fmt.Errorf("expected %d arguments", wantNums)
		}
		nums := make([]int, 3)
		for t := 0; t < 3; t++ {
			v, err := strconv.Atoi(fields[t+1])
			if err != nil {
				return cmd, fmt.Errorf("bad position %q", fields[t+1])
			}
			nums[t] = v
		}
		cmd.i, cmd.j, cmd.k = nums[0], nums[1], nums[2]
		if cmd.i < 1 || cmd.k < 1 {
			return cmd, fmt.Errorf("positions are one-based and spans positive")
		}
		if cmd.kind == 'E' {
			e, err := strconv.ParseFloat(fields[4], 64)
			if err != nil {
				return cmd, fmt.Errorf("bad energy %q", fields[4])
			}
			cmd.energy = e
		}
	case "UD":
		if len(fields) != 3 {
			return cmd, fmt.Errorf("expected motif and energy")
		}
		e, err := strconv.ParseFloat(fields[2], 64)
		if err != nil {
			return cmd, fmt.Errorf("bad energy %q", fields[2])
		}
		cmd.kind = 'U'
		cmd.motifSeq = strings.ToUpper(fields[1])
		cmd.energy = e
	default:
		return cmd, fmt.Errorf("unknown directive %q", fields[0])
	}
	return cmd, nil
}

func (cmd Command) apply(cons *fold.Constraints, reg *motif.Registry, logger *log.Logger) error {
	switch cmd.kind {
	case 'F':
		if cmd.j == 0 {
			for t := 0; t < cmd.k; t++ {
				if err := cons.ForcePaired(cmd.i - 1 + t); err != nil {
					return err
				}
			}
			return nil
		}
		for t := 0; t < cmd.k; t++ {
			if err := cons.ForcePair(cmd.i-1+t, cmd.j-1-t); err != nil {
				return err
			}
		}
	case 'P':
		if cmd.j == 0 {
			for t := 0; t < cmd.k; t++ {
				if err := cons.ForceUnpaired(cmd.i - 1 + t); err != nil {
					return err
				}
			}
			return nil
		}
		for t := 0; t < cmd.k; t++ {
			if err := cons.ProhibitPair(cmd.i-1+t, cmd.j-1-t); err != nil {
				return err
			}
		}
	case 'E':
		if cmd.j != 0 {
			logger.Warnf("soft energy on pair spans not supported, applying per position")
		}
		for t := 0; t < cmd.k; t++ {
			if err := cons.AddSoft(cmd.i-1+t, cmd.energy); err != nil {
				return err
			}
		}
	case 'U':
		reg.AddDomainMotif(cmd.motifSeq, cmd.energy)
	}
	return nil
}
