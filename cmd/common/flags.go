package common

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ducminhle1904/transit-ga/pkg/config"
)

// CommonFlags contains the flags shared by the optimization commands
type CommonFlags struct {
	// Environment and configuration
	ConfigFile *string
	EnvFile    *string

	// Inputs
	Network *string
	Zones   *string
	Paths   *string

	// Model parameters
	Population  *int
	Generations *int
	Seed        *int64
	Workers     *int

	// Lambda parameters
	CoverageLambda  *float64
	RidershipLambda *float64
	ZoneLambda      *float64
	ExtremeLambda   *float64

	// Logging and output
	Output        *string
	Verbosity     *int
	FileVerbosity *int
	MetricsAddr   *string
	Database      *string
	XLSX          *bool

	Version *bool

	fs *flag.FlagSet
}

// RegisterCommonFlags registers the shared flags on fs
func RegisterCommonFlags(fs *flag.FlagSet) *CommonFlags {
	return &CommonFlags{
		ConfigFile: fs.String("config", "", "Experiment configuration file (YAML)"),
		EnvFile:    fs.String("env", ".env", "Environment file path"),

		Network: fs.String("network", "", "Initial network JSON document"),
		Zones:   fs.String("zones", "", "Zone CSV file (name,lat,lon,radius,tags); default San Francisco zones"),
		Paths:   fs.String("paths", "", "Zone path CSV file (from,to,weight); default hub-and-spoke paths"),

		Population:  fs.Int("population", 0, "Population size"),
		Generations: fs.Int("generations", 0, "Number of generations"),
		Seed:        fs.Int64("seed", 0, "Random seed"),
		Workers:     fs.Int("workers", 0, "Parallel fitness evaluations"),

		CoverageLambda:  fs.Float64("coverage-lambda", 0, "Weight of the coverage score"),
		RidershipLambda: fs.Float64("ridership-density-lambda", 0, "Weight of the ridership density score"),
		ZoneLambda:      fs.Float64("zone-lambda", 0, "Weight of the zone score"),
		ExtremeLambda:   fs.Float64("extreme-trip-lambda", 0, "Weight of the extreme trip score (usually negative)"),

		Output:        fs.String("output", "", "Output directory"),
		Verbosity:     fs.Int("v", 1, "Console verbosity 0-3 (errors, warnings, info, debug)"),
		FileVerbosity: fs.Int("fv", 3, "Log file verbosity 0-3"),
		MetricsAddr:   fs.String("metrics-addr", "", "Serve /metrics and /health on this address during the run"),
		Database:      fs.String("db", "", "SQLite run history database (empty disables history)"),
		XLSX:          fs.Bool("xlsx", false, "Also write the metrics as an Excel workbook"),

		Version: fs.Bool("version", false, "Show version information"),

		fs: fs,
	}
}

// isSet reports whether the named flag was given on the command line
func (f *CommonFlags) isSet(name string) bool {
	set := false
	f.fs.Visit(func(fl *flag.Flag) {
		if fl.Name == name {
			set = true
		}
	})
	return set
}

// ApplyOverrides copies every explicitly set flag into cfg. Flags left at
// their defaults never override file or environment values.
func (f *CommonFlags) ApplyOverrides(cfg *config.ExperimentConfig) {
	if f.isSet("network") {
		cfg.NetworkFile = *f.Network
	}
	if f.isSet("zones") {
		cfg.ZonesFile = *f.Zones
	}
	if f.isSet("paths") {
		cfg.PathsFile = *f.Paths
	}
	if f.isSet("population") {
		cfg.Population.Size = *f.Population
	}
	if f.isSet("generations") {
		cfg.Population.Generations = *f.Generations
	}
	if f.isSet("seed") {
		cfg.Seed = *f.Seed
	}
	if f.isSet("workers") {
		cfg.Population.Workers = *f.Workers
	}
	if f.isSet("coverage-lambda") {
		cfg.Fitness.Weights.Coverage = *f.CoverageLambda
	}
	if f.isSet("ridership-density-lambda") {
		cfg.Fitness.Weights.RidershipDensity = *f.RidershipLambda
	}
	if f.isSet("zone-lambda") {
		cfg.Fitness.Weights.Zone = *f.ZoneLambda
	}
	if f.isSet("extreme-trip-lambda") {
		cfg.Fitness.Weights.ExtremeTrips = *f.ExtremeLambda
	}
	if f.isSet("output") {
		cfg.OutputDir = *f.Output
	}
	if f.isSet("db") {
		cfg.DatabaseFile = *f.Database
	}
}

// Validate checks the flags that are not part of the experiment configuration
func (f *CommonFlags) Validate() error {
	return NewFlagValidator().
		ValidateInt("v", *f.Verbosity, 0, 3).
		ValidateInt("fv", *f.FileVerbosity, 0, 3).
		ValidateFile("config", *f.ConfigFile, false).
		GetError()
}

// FlagValidator collects flag validation errors
type FlagValidator struct {
	errors []string
}

// NewFlagValidator creates a new flag validator
func NewFlagValidator() *FlagValidator {
	return &FlagValidator{
		errors: make([]string, 0),
	}
}

// ValidateInt validates an int flag value
func (v *FlagValidator) ValidateInt(name string, value int, min, max int) *FlagValidator {
	if value < min || value > max {
		v.errors = append(v.errors, fmt.Sprintf("%s must be between %d and %d, got: %d", name, min, max, value))
	}
	return v
}

// ValidateFile validates that a file exists
func (v *FlagValidator) ValidateFile(name, path string, required bool) *FlagValidator {
	if path == "" {
		if required {
			v.errors = append(v.errors, fmt.Sprintf("%s is required", name))
		}
		return v
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		v.errors = append(v.errors, fmt.Sprintf("%s file does not exist: %s", name, path))
	}
	return v
}

// HasErrors returns true if there are validation errors
func (v *FlagValidator) HasErrors() bool {
	return len(v.errors) > 0
}

// GetError returns a formatted error message with all validation errors
func (v *FlagValidator) GetError() error {
	if len(v.errors) == 0 {
		return nil
	}

	if len(v.errors) == 1 {
		return fmt.Errorf("validation error: %s", v.errors[0])
	}

	return fmt.Errorf("validation errors:\n  - %s", strings.Join(v.errors, "\n  - "))
}

// UsageFormatter prints command usage with examples
type UsageFormatter struct {
	AppName        string
	AppDescription string
	Examples       []UsageExample
}

// UsageExample represents a usage example
type UsageExample struct {
	Command     string
	Description string
}

// NewUsageFormatter creates a new usage formatter
func NewUsageFormatter(appName, description string) *UsageFormatter {
	return &UsageFormatter{
		AppName:        appName,
		AppDescription: description,
	}
}

// AddExample adds a usage example
func (u *UsageFormatter) AddExample(command, description string) *UsageFormatter {
	u.Examples = append(u.Examples, UsageExample{
		Command:     command,
		Description: description,
	})
	return u
}

// Install makes the formatter the usage function of fs
func (u *UsageFormatter) Install(fs *flag.FlagSet) {
	fs.Usage = func() {
		out := fs.Output()
		fmt.Fprintf(out, "%s - %s\n\n", u.AppName, u.AppDescription)
		fmt.Fprintf(out, "USAGE:\n  %s [OPTIONS]\n\n", filepath.Base(os.Args[0]))

		if len(u.Examples) > 0 {
			fmt.Fprintf(out, "EXAMPLES:\n")
			for _, example := range u.Examples {
				fmt.Fprintf(out, "  # %s\n  %s\n\n", example.Description, example.Command)
			}
		}

		fmt.Fprintf(out, "OPTIONS:\n")
		fs.PrintDefaults()
	}
}
