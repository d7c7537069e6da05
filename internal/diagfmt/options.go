// Package diagfmt renders diagnostics for terminals and tooling.
package diagfmt

// PathMode specifies how file paths are displayed.
type PathMode uint8

const (
	// PathModeAuto chooses relative or absolute path automatically.
	PathModeAuto PathMode = iota
	PathModeAbsolute
	PathModeRelative
	PathModeBasename
)

func (m PathMode) String() string {
	switch m {
	case PathModeAbsolute:
		return "absolute"
	case PathModeRelative:
		return "relative"
	case PathModeBasename:
		return "basename"
	}
	return "auto"
}

// PrettyOpts configures human-readable output.
type PrettyOpts struct {
	Color     bool
	PathMode  PathMode
	BaseDir   string
	ShowNotes bool
	ShowFixes bool
}

// JSONOpts configures machine-readable output.
type JSONOpts struct {
	PathMode     PathMode
	BaseDir      string
	IncludeNotes bool
	IncludeFixes bool
	// Max truncates the output, not the bag; 0 means everything.
	Max int
}
