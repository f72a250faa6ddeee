package config

import (
	"fmt"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
)

// ValidationError represents a single validation failure
type ValidationError struct {
	Field   string // The config field path (e.g., "plot_config.sizew")
	Value   any    // The invalid value
	Message string // Human-readable error description
}

// Error implements the error interface for ValidationError
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for ValidationErrors
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e)))
	for i, err := range e {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// hexColorRegex matches #RGB and #RRGGBB, with or without the leading #
var hexColorRegex = regexp.MustCompile(`^#?([0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// NamedColors returns the color names accepted for plot_config.color
func NamedColors() []string {
	return []string{"blue", "green", "red", "orange", "purple", "gray", "black"}
}

// IsHexColor reports whether color is #RGB or #RRGGBB, the # being optional
func IsHexColor(color string) bool {
	return hexColorRegex.MatchString(color)
}

// IsValidColor reports whether color is a hex color or one of NamedColors()
func IsValidColor(color string) bool {
	return IsHexColor(color) || slices.Contains(NamedColors(), strings.ToLower(color))
}

// Validate checks the Config for invalid values and returns all validation
// errors found. Presence of required keys is checked by Load before
// decoding; Validate covers the shape of the values.
func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	errors = append(errors, c.validateEndpoints()...)
	errors = append(errors, c.validatePlot()...)
	errors = append(errors, c.validateOutput()...)

	return errors
}

// validateEndpoints validates the data API and notification settings
func (c *Config) validateEndpoints() []ValidationError {
	var errors []ValidationError

	if c.StudyID <= 0 {
		errors = append(errors, ValidationError{
			Field:   "study_id",
			Value:   c.StudyID,
			Message: "must be positive",
		})
	}

	if c.HTTPTimeout <= 0 {
		errors = append(errors, ValidationError{
			Field:   "http_timeout",
			Value:   c.HTTPTimeout,
			Message: "must be positive; requests are never left unbounded",
		})
	}

	if strings.TrimSpace(c.DataURL) == "" {
		errors = append(errors, ValidationError{
			Field:   "data_url",
			Value:   c.DataURL,
			Message: "cannot be empty",
		})
	}

	if strings.TrimSpace(c.NtfyURL) == "" {
		errors = append(errors, ValidationError{
			Field:   "ntfy_url",
			Value:   c.NtfyURL,
			Message: "cannot be empty",
		})
	}

	return errors
}

// validatePlot validates the PlotConfig
func (c *Config) validatePlot() []ValidationError {
	var errors []ValidationError

	if !IsValidPlotKind(c.Plot.Kind) {
		errors = append(errors, ValidationError{
			Field:   "plot_config.kind",
			Value:   c.Plot.Kind,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidPlotKinds(), ", ")),
		})
	}

	if !IsValidColor(c.Plot.Color) {
		errors = append(errors, ValidationError{
			Field:   "plot_config.color",
			Value:   c.Plot.Color,
			Message: fmt.Sprintf("must be a hex color or one of: %s", strings.Join(NamedColors(), ", ")),
		})
	}

	// 100 inches at 100 DPI is already a 10000px canvas
	const maxInches = 100
	if c.Plot.SizeW <= 0 || c.Plot.SizeW > maxInches {
		errors = append(errors, ValidationError{
			Field:   "plot_config.sizew",
			Value:   c.Plot.SizeW,
			Message: fmt.Sprintf("must be between 0 and %d inches", maxInches),
		})
	}
	if c.Plot.SizeH <= 0 || c.Plot.SizeH > maxInches {
		errors = append(errors, ValidationError{
			Field:   "plot_config.sizeh",
			Value:   c.Plot.SizeH,
			Message: fmt.Sprintf("must be between 0 and %d inches", maxInches),
		})
	}

	return errors
}

// validateOutput validates output destinations and the chart file name
func (c *Config) validateOutput() []ValidationError {
	var errors []ValidationError

	for i, dir := range c.OutputPaths {
		if strings.TrimSpace(dir) == "" {
			errors = append(errors, ValidationError{
				Field:   fmt.Sprintf("output_paths[%d]", i),
				Value:   dir,
				Message: "directory path cannot be empty",
			})
		}
	}

	if c.OutputFile == "" || filepath.Base(c.OutputFile) != c.OutputFile {
		errors = append(errors, ValidationError{
			Field:   "output_file",
			Value:   c.OutputFile,
			Message: "must be a plain file name",
		})
	}

	return errors
}
