package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/ppiankov/qualigate/internal/cache"
	"github.com/ppiankov/qualigate/internal/logger"
	"github.com/ppiankov/qualigate/internal/model"
)

// Validator scores a complete analysis record
type Validator interface {
	ValidateCompleteAnalysis(record model.Record) *model.ValidationResult
}

// SourceChecker inspects where a record's research data came from
type SourceChecker interface {
	ValidateDataSources(record model.Record) model.SourceValidation
}

// throughputKey is the limiter key shared by all record jobs
const throughputKey = "records"

// RecordJob validates one record file
type RecordJob struct {
	Path  string
	batch *BatchProcessor
}

// Execute reads, decodes and validates the record
func (j *RecordJob) Execute(ctx context.Context) Result {
	res := &RecordResult{Path: j.Path}

	if err := j.batch.limiter.Wait(ctx, throughputKey); err != nil {
		res.Error = fmt.Errorf("rate limit: %w", err)
		return res
	}

	data, err := os.ReadFile(j.Path)
	if err != nil {
		res.Error = fmt.Errorf("read record: %w", err)
		return res
	}
	record, err := model.ParseRecord(data)
	if err != nil {
		res.Error = err
		return res
	}

	if j.batch.results != nil {
		if cached, ok := j.batch.results.Get(record); ok {
			res.Result = cached
			res.Cached = true
			return res
		}
	}

	res.Result = j.batch.engine.ValidateCompleteAnalysis(record)
	if j.batch.sources != nil {
		sv := j.batch.sources.ValidateDataSources(record)
		res.Result.Sources = &sv
	}

	if j.batch.results != nil {
		if err := j.batch.results.Put(record, res.Result); err != nil {
			j.batch.log.Warn("failed to cache validation result", "path", j.Path, "error", err)
		}
	}
	return res
}

// RecordResult is the outcome of one record job
type RecordResult struct {
	Path   string                  `json:"path"`
	Result *model.ValidationResult `json:"result,omitempty"`
	Cached bool                    `json:"cached,omitempty"`
	Error  error                   `json:"-"`
}

// GetError returns the error from the record result
func (r *RecordResult) GetError() error {
	return r.Error
}

// BatchProcessor validates many record files concurrently
type BatchProcessor struct {
	engine      Validator
	sources     SourceChecker
	results     *cache.Results
	limiter     *Limiter
	concurrency int
	log         *logger.Logger
}

// BatchOption configures a BatchProcessor
type BatchOption func(*BatchProcessor)

// WithSources also runs source validation on every record
func WithSources(s SourceChecker) BatchOption {
	return func(b *BatchProcessor) { b.sources = s }
}

// WithResultCache reuses verdicts for records seen before
func WithResultCache(r *cache.Results) BatchOption {
	return func(b *BatchProcessor) { b.results = r }
}

// WithLimiter throttles record throughput
func WithLimiter(l *Limiter) BatchOption {
	return func(b *BatchProcessor) { b.limiter = l }
}

// WithBatchLogger sets the logger
func WithBatchLogger(log *logger.Logger) BatchOption {
	return func(b *BatchProcessor) { b.log = log }
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(engine Validator, concurrency int, opts ...BatchOption) *BatchProcessor {
	b := &BatchProcessor{
		engine:      engine,
		concurrency: concurrency,
		limiter:     NewLimiter(0, 0),
		log:         logger.Nop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// ProcessFiles validates the given record files; results follow the input order
func (b *BatchProcessor) ProcessFiles(ctx context.Context, paths []string) []*RecordResult {
	if len(paths) == 0 {
		return []*RecordResult{}
	}

	jobs := make([]Job, len(paths))
	for i, path := range paths {
		jobs[i] = &RecordJob{Path: path, batch: b}
	}

	results := Process(ctx, b.concurrency, jobs)

	out := make([]*RecordResult, len(results))
	for i, r := range results {
		if r == nil {
			out[i] = &RecordResult{Path: paths[i], Error: fmt.Errorf("not processed: %w", context.Cause(ctx))}
			continue
		}
		out[i] = r.(*RecordResult)
	}

	failed := 0
	for _, r := range out {
		if r.Error != nil {
			failed++
		}
	}
	b.log.Info("batch validation complete", "records", len(out), "failed", failed)
	return out
}

// ProcessDir validates every *.json record in dir
func (b *BatchProcessor) ProcessDir(ctx context.Context, dir string) ([]*RecordResult, error) {
	paths, err := ListRecordFiles(dir)
	if err != nil {
		return nil, err
	}
	return b.ProcessFiles(ctx, paths), nil
}

// ListRecordFiles returns the *.json files directly under dir, sorted by name
func ListRecordFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dir: %w", err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}

// MarshalJSON renders Error as a message
func (r *RecordResult) MarshalJSON() ([]byte, error) {
	type alias RecordResult
	out := struct {
		*alias
		Error string `json:"error,omitempty"`
	}{alias: (*alias)(r)}
	if r.Error != nil {
		out.Error = r.Error.Error()
	}
	return json.Marshal(out)
}
