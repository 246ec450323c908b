// Package numstruct reads and writes Numbers spreadsheet packages.
package numstruct

import (
	"io"
	"log/slog"

	"github.com/ukaji3/numstruct-go/pkg/numstruct/formula"
)

// Mode represents the extraction mode.
type Mode string

const (
	// ModeLight extracts cell values only.
	ModeLight Mode = "light"
	// ModeStandard extracts cell values, merged ranges and header names.
	ModeStandard Mode = "standard"
	// ModeVerbose extracts all data including formula text.
	ModeVerbose Mode = "verbose"
)

// ParseMode returns the mode named s.
func ParseMode(s string) (Mode, bool) {
	switch m := Mode(s); m {
	case ModeLight, ModeStandard, ModeVerbose:
		return m, true
	}
	return "", false
}

// Options configures how documents are read, exported and saved.
type Options struct {
	// Mode specifies the extraction mode (light, standard, verbose).
	Mode Mode
	// IncludeFormulas specifies whether to render formula text.
	// If nil, defaults to true for verbose mode, false otherwise.
	IncludeFormulas *bool
	// IncludeMerges specifies whether to include merged ranges and
	// header names. If nil, defaults to false for light mode, true
	// otherwise.
	IncludeMerges *bool
	// CompactIdentifiers renumbers identifiers allocated during the
	// session into a dense block when saving.
	CompactIdentifiers bool
	// Logger receives load and save events. If nil, output is discarded.
	Logger *slog.Logger
	// Functions names formula functions by index. If nil,
	// formula.DefaultFunctions is used.
	Functions formula.FunctionNames
}

// DefaultOptions returns default extraction options.
func DefaultOptions() Options {
	return Options{
		Mode: ModeStandard,
	}
}

// ShouldIncludeFormulas returns whether to render formula text.
func (o Options) ShouldIncludeFormulas() bool {
	if o.IncludeFormulas != nil {
		return *o.IncludeFormulas
	}
	return o.Mode == ModeVerbose
}

// ShouldIncludeMerges returns whether to include merged ranges and header
// names.
func (o Options) ShouldIncludeMerges() bool {
	if o.IncludeMerges != nil {
		return *o.IncludeMerges
	}
	return o.Mode != ModeLight
}

func (o Options) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
