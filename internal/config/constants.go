package config

// ConfigFileNames are the names FindConfig looks for, in order.
var ConfigFileNames = []string{"clausegen.yaml", "clausegen.yml"}

// Output formats
const (
	FormatText    = "text"
	FormatDatalog = "datalog"
)

// Color modes
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

// Defaults
const (
	DefaultFormat   = FormatText
	DefaultColor    = ColorAuto
	DefaultLogLevel = "info"
	DefaultAddr     = "127.0.0.1:7437"
)
