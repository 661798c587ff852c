package coordinator

import "github.com/wrendb/wrendb/dberrors"

// Config carries the three SET knobs the SQL surface recognizes. Mutated
// only through the SET statement path -- there is no config file and no
// flags package, matching the single positional directory argument the
// entry point otherwise takes.
type Config struct {
	// EnableOutputFile, when true, appends every SELECT's formatted rows
	// to output.txt in the database directory in addition to returning
	// them to the caller.
	EnableOutputFile bool

	// EnableNestLoop and EnableSortMerge select which join algorithms the
	// optimizer's lowering phase may choose between. SET is free to leave
	// both disabled; that combination only becomes an error when a
	// statement's plan actually needs to lower a Join, at which point
	// optimize.Lower rejects it.
	EnableNestLoop  bool
	EnableSortMerge bool
}

// DefaultConfig returns the knobs' documented defaults: no output file,
// both join algorithms enabled.
func DefaultConfig() Config {
	return Config{EnableNestLoop: true, EnableSortMerge: true}
}

// Set applies a SET statement's name/value pair, rejecting an unknown
// knob name.
func (c *Config) Set(name string, value bool) error {
	switch name {
	case "enable_output_file":
		c.EnableOutputFile = value
	case "enable_nestloop":
		c.EnableNestLoop = value
	case "enable_sortmerge":
		c.EnableSortMerge = value
	default:
		return &dberrors.SyntaxError{Detail: "unknown configuration knob: " + name}
	}
	return nil
}
