// Package errors provides the error taxonomy for the analysis job. It defines
// sentinel errors, one error type per failure class of the pipeline, error
// constructors with context wrapping, and classification helpers.
//
// # Error Types
//
// Configuration errors:
//   - ConfigNotFoundError: a configuration source does not resolve
//   - ConfigParseError: a configuration source is not valid structured data
//   - ConfigMissingKeyError: a required key is absent after merging
//
// Pipeline errors:
//   - DataFetchError: transport failure or non-success response from the data API
//   - DataFormatError: the data API response cannot be decoded
//   - InvalidStateError: an operation was called out of order
//   - RenderError: the chart could not be rendered
//   - OutputPathError: a chart destination cannot be written
//   - NotificationError: the completion notification could not be posted
//
// Every type carries the operation name and the time the failure was
// observed, plus the offending path, URL or key where one exists.
//
// # Usage
//
//	err := errors.NewConfigNotFoundError("configs/job.yml", cause).WithOp("initialize")
//
//	var notFound *errors.ConfigNotFoundError
//	if errors.As(err, &notFound) { ... }
//
//	if errors.Is(err, errors.ErrInvalidState) { ... }
//
// # Error Classification
//
// InvalidStateError is a contract violation and is never retryable. All other
// errors are operational failures a caller may retry at a higher level; the
// job itself never retries.
package errors

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Re-export standard library functions for convenience.
// This allows callers to import only this package for all error handling.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	New    = errors.New
	Join   = errors.Join
)

// TimestampLayout is the layout used for timestamps in error context and
// notification messages.
const TimestampLayout = "2006 01 02, 15:04:05"

// Severity represents the severity level of an error.
type Severity int

const (
	// SeverityDebug is for errors that are useful for debugging but not critical.
	SeverityDebug Severity = iota
	// SeverityInfo is for informational errors that don't indicate a problem.
	SeverityInfo
	// SeverityWarning is for errors that might indicate a problem but aren't critical.
	SeverityWarning
	// SeverityError is for errors that indicate a real problem.
	SeverityError
	// SeverityCritical is for errors that require immediate attention.
	SeverityCritical
)

// String returns the string representation of the severity level.
func (s Severity) String() string {
	switch s {
	case SeverityDebug:
		return "debug"
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// -----------------------------------------------------------------------------
// Sentinel Errors
// -----------------------------------------------------------------------------

var (
	// ErrInvalidState indicates that an operation was called before its
	// precondition stage completed.
	ErrInvalidState = New("invalid job state")
	// ErrMissingKey indicates that a required configuration key is absent.
	ErrMissingKey = New("required key missing")
	// ErrUnexpectedStatus indicates a non-success HTTP response.
	ErrUnexpectedStatus = New("unexpected response status")
	// ErrStudyNotFound indicates that the requested study is absent from a dataset.
	ErrStudyNotFound = New("study not found in dataset")
)

// -----------------------------------------------------------------------------
// Base Error Interface
// -----------------------------------------------------------------------------

// JobError is the base interface for all errors defined by this package.
type JobError interface {
	error

	// Unwrap returns the underlying error, if any.
	Unwrap() error

	// Is reports whether this error matches the target error.
	Is(target error) bool

	// Severity returns the severity level of this error.
	Severity() Severity

	// IsRetryable returns true if the operation may succeed when run again.
	IsRetryable() bool

	// Operation returns the name of the job operation that failed.
	Operation() string

	// Time returns when the failure was observed.
	Time() time.Time
}

// -----------------------------------------------------------------------------
// Base Error Implementation
// -----------------------------------------------------------------------------

// baseError provides common functionality for all error types.
type baseError struct {
	kind      string
	message   string
	cause     error
	severity  Severity
	retryable bool
	op        string
	at        time.Time
}

func newBase(kind, message string, cause error) baseError {
	return baseError{
		kind:      kind,
		message:   message,
		cause:     cause,
		severity:  SeverityError,
		retryable: true,
		at:        time.Now(),
	}
}

// Unwrap returns the underlying error.
func (e *baseError) Unwrap() error {
	return e.cause
}

// Is checks if the cause matches the target.
func (e *baseError) Is(target error) bool {
	if e.cause != nil {
		return errors.Is(e.cause, target)
	}
	return false
}

// Severity returns the error severity.
func (e *baseError) Severity() Severity {
	return e.severity
}

// IsRetryable returns whether the error is retryable.
func (e *baseError) IsRetryable() bool {
	return e.retryable
}

// Operation returns the failing operation name.
func (e *baseError) Operation() string {
	return e.op
}

// Time returns when the error was created.
func (e *baseError) Time() time.Time {
	return e.at
}

// format renders "<kind> [k=v, ...]: message: cause".
func (e *baseError) format(parts ...string) string {
	var ctx []string
	for _, p := range parts {
		if p != "" {
			ctx = append(ctx, p)
		}
	}
	if e.op != "" {
		ctx = append(ctx, "op="+e.op)
	}
	if !e.at.IsZero() {
		ctx = append(ctx, "at="+e.at.Format(TimestampLayout))
	}

	prefix := e.kind
	if len(ctx) > 0 {
		prefix = fmt.Sprintf("%s [%s]", e.kind, strings.Join(ctx, ", "))
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

func kv(key, value string) string {
	if value == "" {
		return ""
	}
	return key + "=" + value
}

// -----------------------------------------------------------------------------
// Configuration Errors
// -----------------------------------------------------------------------------

// ConfigNotFoundError reports a configuration source that does not resolve.
//
// Example:
//
//	err := errors.NewConfigNotFoundError("configs/job.yml", fs.ErrNotExist)
//	fmt.Println(err) // "config not found [path=configs/job.yml, at=...]: configuration source cannot be found: file does not exist"
type ConfigNotFoundError struct {
	baseError
	Path string
}

// NewConfigNotFoundError creates a new ConfigNotFoundError.
func NewConfigNotFoundError(path string, cause error) *ConfigNotFoundError {
	return &ConfigNotFoundError{
		baseError: newBase("config not found", "configuration source cannot be found", cause),
		Path:      path,
	}
}

// WithOp adds the failing operation to the error context.
func (e *ConfigNotFoundError) WithOp(op string) *ConfigNotFoundError {
	e.op = op
	return e
}

// Error returns the formatted error message.
func (e *ConfigNotFoundError) Error() string {
	return e.format(kv("path", e.Path))
}

// Is checks if this error matches the target.
func (e *ConfigNotFoundError) Is(target error) bool {
	if _, ok := target.(*ConfigNotFoundError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// ConfigParseError reports a configuration source whose content is not
// valid structured data, or a value that cannot be decoded into its field.
type ConfigParseError struct {
	baseError
	Path  string
	Field string
}

// NewConfigParseError creates a new ConfigParseError.
func NewConfigParseError(path string, cause error) *ConfigParseError {
	return &ConfigParseError{
		baseError: newBase("config parse error", "configuration source is not valid structured data", cause),
		Path:      path,
	}
}

// WithField names the configuration field that failed to decode.
func (e *ConfigParseError) WithField(field string) *ConfigParseError {
	e.Field = field
	e.message = "configuration value is invalid"
	return e
}

// WithOp adds the failing operation to the error context.
func (e *ConfigParseError) WithOp(op string) *ConfigParseError {
	e.op = op
	return e
}

// Error returns the formatted error message.
func (e *ConfigParseError) Error() string {
	return e.format(kv("path", e.Path), kv("field", e.Field))
}

// Is checks if this error matches the target.
func (e *ConfigParseError) Is(target error) bool {
	if _, ok := target.(*ConfigParseError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// ConfigMissingKeyError reports a required key absent from the merged
// configuration.
type ConfigMissingKeyError struct {
	baseError
	Key string
}

// NewConfigMissingKeyError creates a new ConfigMissingKeyError.
func NewConfigMissingKeyError(key string) *ConfigMissingKeyError {
	return &ConfigMissingKeyError{
		baseError: newBase("config missing key", "required configuration key is missing", nil),
		Key:       key,
	}
}

// WithOp adds the failing operation to the error context.
func (e *ConfigMissingKeyError) WithOp(op string) *ConfigMissingKeyError {
	e.op = op
	return e
}

// Error returns the formatted error message.
func (e *ConfigMissingKeyError) Error() string {
	return e.format(kv("key", e.Key))
}

// Is checks if this error matches the target.
func (e *ConfigMissingKeyError) Is(target error) bool {
	if _, ok := target.(*ConfigMissingKeyError); ok {
		return true
	}
	if target == ErrMissingKey {
		return true
	}
	return e.baseError.Is(target)
}

// -----------------------------------------------------------------------------
// Pipeline Errors
// -----------------------------------------------------------------------------

// DataFetchError reports a transport failure or non-success response from
// the remote data API.
type DataFetchError struct {
	baseError
	URL        string
	StatusCode int
}

// NewDataFetchError creates a new DataFetchError.
func NewDataFetchError(url string, cause error) *DataFetchError {
	return &DataFetchError{
		baseError: newBase("data fetch error", "failed to load data from data API", cause),
		URL:       url,
	}
}

// WithStatus records the HTTP status code of a non-success response.
func (e *DataFetchError) WithStatus(code int) *DataFetchError {
	e.StatusCode = code
	return e
}

// WithOp adds the failing operation to the error context.
func (e *DataFetchError) WithOp(op string) *DataFetchError {
	e.op = op
	return e
}

// Error returns the formatted error message.
func (e *DataFetchError) Error() string {
	status := ""
	if e.StatusCode != 0 {
		status = fmt.Sprintf("status=%d", e.StatusCode)
	}
	return e.format(kv("url", e.URL), status)
}

// Is checks if this error matches the target.
func (e *DataFetchError) Is(target error) bool {
	if _, ok := target.(*DataFetchError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// DataFormatError reports a data API response that cannot be decoded into
// the expected dataset shape.
type DataFormatError struct {
	baseError
	URL string
}

// NewDataFormatError creates a new DataFormatError.
func NewDataFormatError(url string, cause error) *DataFormatError {
	return &DataFormatError{
		baseError: newBase("data format error", "data API response is not parseable", cause),
		URL:       url,
	}
}

// WithOp adds the failing operation to the error context.
func (e *DataFormatError) WithOp(op string) *DataFormatError {
	e.op = op
	return e
}

// Error returns the formatted error message.
func (e *DataFormatError) Error() string {
	return e.format(kv("url", e.URL))
}

// Is checks if this error matches the target.
func (e *DataFormatError) Is(target error) bool {
	if _, ok := target.(*DataFormatError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// InvalidStateError reports an operation called before the stage it depends
// on. It is a contract violation and never retryable.
//
// Example:
//
//	err := errors.NewInvalidStateError("plot", "data_loaded", "computed")
//	fmt.Println(err) // "invalid state [state=data_loaded, required=computed, op=plot, at=...]: operation called out of order"
type InvalidStateError struct {
	baseError
	State    string
	Required string
}

// NewInvalidStateError creates a new InvalidStateError.
func NewInvalidStateError(op, state, required string) *InvalidStateError {
	e := &InvalidStateError{
		baseError: newBase("invalid state", "operation called out of order", nil),
		State:     state,
		Required:  required,
	}
	e.op = op
	e.severity = SeverityCritical
	e.retryable = false
	return e
}

// Error returns the formatted error message.
func (e *InvalidStateError) Error() string {
	return e.format(kv("state", e.State), kv("required", e.Required))
}

// Is checks if this error matches the target.
func (e *InvalidStateError) Is(target error) bool {
	if _, ok := target.(*InvalidStateError); ok {
		return true
	}
	if target == ErrInvalidState {
		return true
	}
	return e.baseError.Is(target)
}

// RenderError reports a chart that could not be rendered.
type RenderError struct {
	baseError
}

// NewRenderError creates a new RenderError.
func NewRenderError(cause error) *RenderError {
	return &RenderError{
		baseError: newBase("render error", "failed to render chart", cause),
	}
}

// WithOp adds the failing operation to the error context.
func (e *RenderError) WithOp(op string) *RenderError {
	e.op = op
	return e
}

// Error returns the formatted error message.
func (e *RenderError) Error() string {
	return e.format()
}

// Is checks if this error matches the target.
func (e *RenderError) Is(target error) bool {
	if _, ok := target.(*RenderError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// OutputPathError reports a chart destination that cannot be written,
// typically because the destination directory does not exist.
type OutputPathError struct {
	baseError
	Path string
}

// NewOutputPathError creates a new OutputPathError.
func NewOutputPathError(path string, cause error) *OutputPathError {
	return &OutputPathError{
		baseError: newBase("output path error", "failed to save chart", cause),
		Path:      path,
	}
}

// WithOp adds the failing operation to the error context.
func (e *OutputPathError) WithOp(op string) *OutputPathError {
	e.op = op
	return e
}

// Error returns the formatted error message.
func (e *OutputPathError) Error() string {
	return e.format(kv("path", e.Path))
}

// Is checks if this error matches the target.
func (e *OutputPathError) Is(target error) bool {
	if _, ok := target.(*OutputPathError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// NotificationError reports a completion notification that could not be
// posted. The analysis itself succeeded, so it is a warning.
type NotificationError struct {
	baseError
	URL        string
	StatusCode int
}

// NewNotificationError creates a new NotificationError.
func NewNotificationError(url string, cause error) *NotificationError {
	e := &NotificationError{
		baseError: newBase("notification error", "failed to send notification", cause),
		URL:       url,
	}
	e.severity = SeverityWarning
	return e
}

// WithStatus records the HTTP status code of a non-success response.
func (e *NotificationError) WithStatus(code int) *NotificationError {
	e.StatusCode = code
	return e
}

// WithOp adds the failing operation to the error context.
func (e *NotificationError) WithOp(op string) *NotificationError {
	e.op = op
	return e
}

// Error returns the formatted error message.
func (e *NotificationError) Error() string {
	status := ""
	if e.StatusCode != 0 {
		status = fmt.Sprintf("status=%d", e.StatusCode)
	}
	return e.format(kv("url", e.URL), status)
}

// Is checks if this error matches the target.
func (e *NotificationError) Is(target error) bool {
	if _, ok := target.(*NotificationError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// -----------------------------------------------------------------------------
// Error Classification Helpers
// -----------------------------------------------------------------------------

// IsRetryable returns true if the error represents an operational failure
// that may succeed when the job is run again. Contract violations
// (InvalidStateError) and unknown errors are not retryable.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var jobErr JobError
	if As(err, &jobErr) {
		return jobErr.IsRetryable()
	}
	return false
}

// GetSeverity returns the severity level of the error.
// Returns SeverityError for errors that don't implement JobError.
func GetSeverity(err error) Severity {
	if err == nil {
		return SeverityDebug
	}

	var jobErr JobError
	if As(err, &jobErr) {
		return jobErr.Severity()
	}
	return SeverityError
}

// IsConfigError returns true if the error is one of the configuration errors.
func IsConfigError(err error) bool {
	if err == nil {
		return false
	}

	var notFound *ConfigNotFoundError
	var parse *ConfigParseError
	var missing *ConfigMissingKeyError

	return As(err, &notFound) || As(err, &parse) || As(err, &missing)
}

// OperationOf returns the operation recorded on the first JobError in the
// chain, or "" if there is none.
func OperationOf(err error) string {
	var jobErr JobError
	if As(err, &jobErr) {
		return jobErr.Operation()
	}
	return ""
}

// opSetter is implemented by every error type in this package.
type opSetter interface {
	setOp(op string)
}

func (e *baseError) setOp(op string) {
	if e.op == "" {
		e.op = op
	}
}

// AttachOp records op on the first JobError in the chain unless it already
// names an operation. It returns err unchanged.
func AttachOp(err error, op string) error {
	var s opSetter
	if As(err, &s) {
		s.setOp(op)
	}
	return err
}

// -----------------------------------------------------------------------------
// Convenience Constructors
// -----------------------------------------------------------------------------

// Wrap wraps an error with additional context message.
// Unlike a bare string, this preserves the JobError in the chain.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}
