// Package job runs the OSDR subcategory analysis: it loads the configured
// study files, aggregates them per subcategory, plots the result and sends a
// completion notification.
//
// A Job moves through three states. LoadData may be called in any state and
// leads to DataLoaded. ComputeAnalysis requires loaded data and leads to
// Computed. Plot and NotifyDone require Computed and leave the state
// unchanged. Calling an operation before its precondition returns
// *errors.InvalidStateError without side effects.
package job

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"

	"github.com/gchanuoft/DSI-BuildSoftSummative/internal/analysis"
	"github.com/gchanuoft/DSI-BuildSoftSummative/internal/config"
	"github.com/gchanuoft/DSI-BuildSoftSummative/internal/errors"
	"github.com/gchanuoft/DSI-BuildSoftSummative/internal/logging"
	"github.com/gchanuoft/DSI-BuildSoftSummative/internal/notify"
	"github.com/gchanuoft/DSI-BuildSoftSummative/internal/osdr"
	"github.com/gchanuoft/DSI-BuildSoftSummative/internal/plot"
)

// Operation names attached to errors and log entries.
const (
	OpInitialize = "initialize"
	OpLoadData   = "load_data"
	OpCompute    = "compute_analysis"
	OpPlot       = "plot"
	OpNotify     = "notify_done"
)

// TimestampLayout formats the start and end times in the completion message.
const TimestampLayout = "2006 01 02, 15:04:05"

// State is the pipeline stage a Job has reached.
type State int

const (
	Uninitialized State = iota
	DataLoaded
	Computed
)

// String returns the state name used in errors and logs.
func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case DataLoaded:
		return "data_loaded"
	case Computed:
		return "computed"
	default:
		return "unknown"
	}
}

// DataSource fetches the raw dataset.
type DataSource interface {
	Fetch(ctx context.Context) (*osdr.Dataset, error)
}

// Notifier delivers the completion message.
type Notifier interface {
	Send(ctx context.Context, message string) error
}

// Renderer draws the aggregated result as an image.
type Renderer interface {
	Render(w io.Writer, result analysis.Result, cfg config.PlotConfig) error
}

// Job is one analysis run. A Job is not safe for concurrent use.
type Job struct {
	cfg   config.Config
	runID string
	state State

	dataset *osdr.Dataset
	files   []osdr.StudyFile
	result  analysis.Result

	startedAt  time.Time
	finishedAt time.Time

	source   DataSource
	notifier Notifier
	renderer Renderer
	configFs afero.Fs
	outputFs afero.Fs
	now      func() time.Time
	logger   *logging.Logger
}

// Option configures a Job.
type Option func(*Job)

// WithDataSource replaces the data API client.
func WithDataSource(src DataSource) Option {
	return func(j *Job) {
		j.source = src
	}
}

// WithNotifier replaces the ntfy client.
func WithNotifier(n Notifier) Option {
	return func(j *Job) {
		j.notifier = n
	}
}

// WithRenderer replaces the chart renderer.
func WithRenderer(r Renderer) Option {
	return func(j *Job) {
		j.renderer = r
	}
}

// WithFs sets the filesystem charts are written to.
func WithFs(fs afero.Fs) Option {
	return func(j *Job) {
		j.outputFs = fs
	}
}

// WithConfigFs sets the filesystem configuration sources are read from.
func WithConfigFs(fs afero.Fs) Option {
	return func(j *Job) {
		j.configFs = fs
	}
}

// WithClock replaces time.Now for the analysis timestamps.
func WithClock(now func() time.Time) Option {
	return func(j *Job) {
		j.now = now
	}
}

// WithLogger uses logger instead of the process-wide logger.
func WithLogger(logger *logging.Logger) Option {
	return func(j *Job) {
		j.logger = logger
	}
}

// New loads and merges the configuration sources in paths, in order, and
// returns a Job in the Uninitialized state. Unless WithLogger is given, the
// process-wide logger is initialized from log_dir and verbose_log.
//
// Configuration failures are returned as *errors.ConfigNotFoundError,
// *errors.ConfigParseError or *errors.ConfigMissingKeyError; no Job is
// returned with them.
func New(paths []string, opts ...Option) (*Job, error) {
	j := &Job{
		configFs: afero.NewOsFs(),
		outputFs: afero.NewOsFs(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(j)
	}

	cfg, err := config.Load(paths, config.WithFs(j.configFs))
	if err != nil {
		return nil, errors.AttachOp(err, OpInitialize)
	}
	j.cfg = *cfg
	j.runID = uuid.NewString()

	if j.logger == nil {
		logger, err := logging.Init(cfg.LogDir, cfg.VerboseLog)
		if err != nil {
			return nil, errors.Wrap(err, "initialize logging")
		}
		j.logger = logger
	}
	j.logger = j.logger.WithRun(j.runID)

	if j.source == nil {
		j.source = osdr.NewClient(cfg.StudyURL(), cfg.APIKey, osdr.WithTimeout(cfg.HTTPTimeout))
	}
	if j.notifier == nil {
		j.notifier = notify.NewNtfyClient(cfg.NtfyURL, cfg.NtfyTopic,
			notify.WithTimeout(cfg.HTTPTimeout),
			notify.WithTitle(cfg.Plot.Title),
		)
	}
	if j.renderer == nil {
		j.renderer = plot.NewRenderer()
	}

	j.logger.WithStage(OpInitialize).Debug("configuration loaded",
		"sources", paths,
		"study_id", cfg.StudyID,
		"output_paths", cfg.OutputPaths,
		"plot_kind", cfg.Plot.Kind,
	)
	return j, nil
}

// LoadData fetches the dataset and selects the configured study. It may be
// called in any state; on success it replaces any previous dataset, discards
// any previous result and moves the Job to DataLoaded. On failure the Job is
// left as it was.
func (j *Job) LoadData(ctx context.Context) error {
	log := j.logger.WithStage(OpLoadData)

	ds, err := j.source.Fetch(ctx)
	if err != nil {
		return j.fail(log, OpLoadData, err)
	}
	files, err := ds.StudyFiles(j.cfg.StudyID)
	if err != nil {
		return j.fail(log, OpLoadData, err)
	}

	j.dataset = ds
	j.files = files
	j.result = nil
	j.state = DataLoaded

	log.Info("data loaded", "study", osdr.StudyKey(j.cfg.StudyID), "files", len(files))
	return nil
}

// ComputeAnalysis aggregates the loaded study files per subcategory, moves
// the Job to Computed and sends the completion notification.
//
// The result is returned even when the notification fails; the notification
// error is returned alongside it and the Job stays Computed.
func (j *Job) ComputeAnalysis(ctx context.Context) (analysis.Result, error) {
	log := j.logger.WithStage(OpCompute)

	if j.dataset == nil {
		return nil, j.fail(log, OpCompute, errors.NewInvalidStateError(OpCompute, j.state.String(), DataLoaded.String()))
	}

	start := j.now()
	result := analysis.Aggregate(j.files, j.cfg.DropFirstCategory)
	end := j.now()

	j.result = result
	j.startedAt = start
	j.finishedAt = end
	j.state = Computed

	log.Info("analysis computed",
		"categories", len(result),
		"files", result.Total(),
		"drop_first_category", j.cfg.DropFirstCategory,
	)
	log.Debug("analysis result", "counts", result.AsMap())

	if err := j.NotifyDone(ctx, CompletionMessage(start, end)); err != nil {
		return slices.Clone(result), err
	}
	return slices.Clone(result), nil
}

// Plot renders the result once and writes it to <dir>/<output_file> for
// each destination directory, in order. Non-empty savePaths replace the
// configured output_paths.
//
// Writing stops at the first destination that fails with
// *errors.OutputPathError; files already written stay. The paths written
// before any failure are returned. The Job stays Computed.
func (j *Job) Plot(savePaths ...string) ([]string, error) {
	log := j.logger.WithStage(OpPlot)

	if j.state != Computed {
		return nil, j.fail(log, OpPlot, errors.NewInvalidStateError(OpPlot, j.state.String(), Computed.String()))
	}

	dirs := j.cfg.OutputPaths
	if len(savePaths) > 0 {
		dirs = savePaths
	}

	var buf bytes.Buffer
	if err := j.renderer.Render(&buf, j.result, j.cfg.Plot); err != nil {
		return nil, j.fail(log, OpPlot, err)
	}

	written := make([]string, 0, len(dirs))
	for _, dir := range dirs {
		path := filepath.Join(dir, j.cfg.OutputFile)
		if err := j.writeChart(dir, path, buf.Bytes()); err != nil {
			return written, j.fail(log, OpPlot, err)
		}
		written = append(written, path)
		log.Info("chart saved", "path", path)
	}
	return written, nil
}

// writeChart writes data to path. The destination directory must already
// exist; it is never created.
func (j *Job) writeChart(dir, path string, data []byte) error {
	info, err := j.outputFs.Stat(dir)
	if err != nil {
		return errors.NewOutputPathError(path, err)
	}
	if !info.IsDir() {
		return errors.NewOutputPathError(path, fmt.Errorf("%s is not a directory", dir))
	}
	if err := afero.WriteFile(j.outputFs, path, data, 0o644); err != nil {
		return errors.NewOutputPathError(path, err)
	}
	return nil
}

// NotifyDone posts message to the configured ntfy topic. It requires the
// Computed state. Delivery failures are returned as
// *errors.NotificationError and are never retried.
func (j *Job) NotifyDone(ctx context.Context, message string) error {
	log := j.logger.WithStage(OpNotify)

	if j.state != Computed {
		return j.fail(log, OpNotify, errors.NewInvalidStateError(OpNotify, j.state.String(), Computed.String()))
	}

	if err := j.notifier.Send(ctx, message); err != nil {
		return j.fail(log, OpNotify, err)
	}
	log.Info("notification sent", "topic", j.cfg.NtfyTopic)
	return nil
}

// fail records op on err, logs it at a level matching its severity and
// returns it.
func (j *Job) fail(log *logging.Logger, op string, err error) error {
	err = errors.AttachOp(err, op)
	severity := errors.GetSeverity(err)
	args := []any{
		"error", err.Error(),
		"severity", severity.String(),
		"retryable", errors.IsRetryable(err),
	}
	if severity <= errors.SeverityWarning {
		log.Warn("operation failed", args...)
	} else {
		log.Error("operation failed", args...)
	}
	return err
}

// CompletionMessage formats the notification sent after ComputeAnalysis.
func CompletionMessage(start, end time.Time) string {
	return fmt.Sprintf("Analysis done start: - %s | end: - %s",
		start.Format(TimestampLayout), end.Format(TimestampLayout))
}

// State returns the stage the Job has reached.
func (j *Job) State() State {
	return j.state
}

// RunID returns the identifier attached to every log entry of this Job.
func (j *Job) RunID() string {
	return j.runID
}

// Config returns a copy of the merged configuration.
func (j *Job) Config() config.Config {
	cfg := j.cfg
	cfg.OutputPaths = slices.Clone(j.cfg.OutputPaths)
	return cfg
}

// Result returns a copy of the last computed result, or nil before
// ComputeAnalysis.
func (j *Job) Result() analysis.Result {
	return slices.Clone(j.result)
}

// Timing returns when the last analysis started and finished. Both are zero
// before ComputeAnalysis.
func (j *Job) Timing() (start, end time.Time) {
	return j.startedAt, j.finishedAt
}
