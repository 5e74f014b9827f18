package config

// Version is the current engine version.
// Set at build time via -ldflags, or left at this default for dev builds.
var Version = "0.1.0"

const SourceFileExt = ".rsx"

// SourceFileExtensions are all recognized source file extensions.
var SourceFileExtensions = []string{".rsx"}

// TrimSourceExt removes any recognized source extension from a filename.
// Returns the original string if no extension matches.
func TrimSourceExt(name string) string {
	for _, ext := range SourceFileExtensions {
		if len(name) >= len(ext) && name[len(name)-len(ext):] == ext {
			return name[:len(name)-len(ext)]
		}
	}
	return name
}

// HasSourceExt returns true if the path ends with any recognized source extension.
func HasSourceExt(path string) bool {
	for _, ext := range SourceFileExtensions {
		if len(path) >= len(ext) && path[len(path)-len(ext):] == ext {
			return true
		}
	}
	return false
}

// IsTestMode indicates if the program is running in test mode. Normalizes
// otherwise-nondeterministic display strings (inference variable names) so
// golden output is stable.
var IsTestMode = false

// IsLSPMode indicates if the program is running as the language server.
// Set in cmd/lsp/main.go.
var IsLSPMode = false

// Engine tunables. These are the knobs spec.md calls out by name
// (file-cache capacity, solver recursion bound, autoderef bound) collected
// here the way the teacher collects its own builtin-name constants: small
// package-level values rather than a config struct threaded everywhere.
const (
	// DefaultFileCacheCapacity is the default bound for the source-file
	// parse-tree cache (component H).
	DefaultFileCacheCapacity = 64

	// DefaultSolverSizeBound is the recursion-depth bound for the
	// trait/obligation solver (component G); past it the solver answers
	// Ambiguous rather than continuing to search.
	DefaultSolverSizeBound = 300

	// DefaultAutoderefBound is a cap on autoderef chain length (component
	// F). internal/infer performs no autoderef, so nothing reads it.
	DefaultAutoderefBound = 32

	// DefaultMacroExpansionDepth is the expansion depth exported as
	// macroexp.MaxDepth. Neither macroexp.Expand nor the module-graph
	// fixed point (component D) applies it.
	DefaultMacroExpansionDepth = 64
)

// Names of the prelude types and constructors that symbols.InitBuiltins
// registers.
const (
	ListTypeName   = "List"
	MapTypeName    = "Map"
	ResultTypeName = "Result"
	OkCtorName     = "Ok"
	FailCtorName   = "Fail"
	OptionTypeName = "Option"
	SomeCtorName   = "Some"
	NoneCtorName   = "None"
)

// Crate edition, used to select prelude contents during name resolution.
type Edition string

const (
	Edition2015 Edition = "2015"
	Edition2018 Edition = "2018"
	Edition2021 Edition = "2021"
)

var DefaultEdition = Edition2021
