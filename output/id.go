package output

import (
	"fmt"
	"strings"
)

// IDControl assigns sequence identifiers. When Auto is set, or a record
// carries no header, identifiers are generated from a running counter as
// Prefix, Delim and a zero-padded number.
type IDControl struct {
	Prefix string
	Delim  string
	Digits int
	Auto   bool
	// FilenameFull uses the whole header as the file name stem instead of
	// just the identifier.
	FilenameFull bool

	next int
}

// DefaultIDControl mirrors the conventional auto-id settings.
func DefaultIDControl() *IDControl {
	return &IDControl{Prefix: "Sequence", Delim: "_", Digits: 4}
}

// Next returns the identifier for the coming record. When Auto is set a
// fresh id is generated regardless of the header; otherwise the header's
// first word is the id and a headerless record gets none.
func (c *IDControl) Next(header string) string {
	if c.Auto {
		c.next++
		return fmt.Sprintf("%s%s%0*d", c.Prefix, c.Delim, c.Digits, c.next)
	}
	if strings.TrimSpace(header) == "" {
		return ""
	}
	return strings.Fields(header)[0]
}

// FileStem returns the string file names are derived from: the full header
// when FilenameFull is set, the id otherwise.
func (c *IDControl) FileStem(header, id string) string {
	if c.FilenameFull && strings.TrimSpace(header) != "" {
		return strings.TrimSpace(header)
	}
	return id
}
