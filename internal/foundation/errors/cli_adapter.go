package errors

import (
	"fmt"
	"log/slog"
	"strings"
)

// CLIErrorAdapter maps classified errors to exit codes and user-facing messages.
type CLIErrorAdapter struct {
	verbose bool
	logger  *slog.Logger
}

// NewCLIErrorAdapter creates a CLI adapter; a nil logger uses slog.Default().
func NewCLIErrorAdapter(verbose bool, logger *slog.Logger) *CLIErrorAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CLIErrorAdapter{verbose: verbose, logger: logger}
}

// ExitCodeFor returns the process exit code for err.
func (a *CLIErrorAdapter) ExitCodeFor(err error) int {
	if err == nil {
		return 0
	}
	c, ok := AsClassified(err)
	if !ok {
		return 1
	}
	switch c.Category() {
	case CategoryValidation:
		return 2
	case CategoryConfig:
		return 7
	case CategoryNetwork, CategoryResolution, CategoryPreview, CategoryEvents:
		return 8
	case CategoryFileSystem, CategoryMarkup:
		return 11
	case CategoryRuntime:
		return 12
	case CategoryInternal:
		return 10
	default:
		return 1
	}
}

// FormatError renders err for the terminal. Context is only shown in verbose mode.
func (a *CLIErrorAdapter) FormatError(err error) string {
	if err == nil {
		return ""
	}
	c, ok := AsClassified(err)
	if !ok {
		return fmt.Sprintf("Error: %v", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Error: %s", c.Message())
	if c.Cause() != nil {
		fmt.Fprintf(&b, ": %v", c.Cause())
	}
	if a.verbose && len(c.Context()) > 0 {
		for k, v := range c.Context() {
			fmt.Fprintf(&b, "\n  %s: %v", k, v)
		}
	}
	if c.Category() == CategoryConfig {
		b.WriteString("\nRun 'cardlink init' to write an example configuration.")
	}
	return b.String()
}

// HandleError logs err and returns the exit code to use.
func (a *CLIErrorAdapter) HandleError(err error) int {
	if err == nil {
		return 0
	}
	a.logger.Error(a.FormatError(err))
	return a.ExitCodeFor(err)
}
