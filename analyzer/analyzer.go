// Package analyzer runs the flow aggregation pipeline over one root directory.
//
// An analysis discovers every CSV file under the root, loads and concatenates them,
// counts rows per (source_ip, source_port, dest_ip, dest_port, protocol, label) key,
// ranks the keys by count and writes the top N to <root>/<base>_top.parquet.
//
// Runs are synchronous. Concurrent runs on different roots are independent; concurrent
// runs on the same root race on the same artifact path across processes and must be
// serialized by the caller.
//
// A failed run writes nothing. An artifact left by an earlier successful run stays at the
// derived path, so callers must check the returned Status rather than the file's presence.
package analyzer

import (
	"time"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"

	"github.com/netsampler/flowtop/aggregate"
	"github.com/netsampler/flowtop/artifact"
	"github.com/netsampler/flowtop/flow"
	"github.com/netsampler/flowtop/metrics"
	"github.com/netsampler/flowtop/source"
)

// Analyzer holds the settings shared by analyses. The zero value is usable.
type Analyzer struct {
	Logger    log.FieldLogger
	Allocator memory.Allocator
	ChunkSize int
}

// Report describes a successful analysis.
type Report struct {
	Root     string
	Output   string
	Files    int
	Rows     int64
	Distinct int
	Flows    []flow.Count
	Duration time.Duration
}

// Result is the outcome of one analysis. Report is nil unless Status is StatusOK.
type Result struct {
	Root   string
	Status Status
	Report *Report
	Err    error
}

// Runner runs one analysis and reports its outcome.
type Runner interface {
	Run(root string, topN int) Result
}

// Analyze runs the pipeline with default settings and returns its status.
func Analyze(root string, topN int) Status {
	_, err := (&Analyzer{}).Analyze(root, topN)
	return StatusOf(err)
}

// Analyze runs the pipeline over root and keeps at most topN flows.
// A zero topN writes an artifact with no rows; a negative topN is rejected before any I/O.
func (a *Analyzer) Analyze(root string, topN int) (report *Report, err error) {
	start := time.Now()
	logger := a.logger().WithField("root", root)

	defer func() {
		status := StatusOf(err)
		metrics.AnalyzeRuns.With(prometheus.Labels{"status": status.String()}).Inc()
		if err != nil {
			logger.WithError(err).WithField("status", status.String()).Error("analysis failed")
		}
	}()

	if topN < 0 {
		return nil, aggregate.ErrInvalidTopN
	}

	tm := metrics.TimeMeasureNow()
	tables, err := source.Collect(root, a.sourceOptions()...)
	if err != nil {
		return nil, err
	}
	defer source.Release(tables)
	tm.MeasureStage("collect")

	for _, tbl := range tables {
		logger.WithFields(log.Fields{
			"file": tbl.Path,
			"rows": tbl.NumRows(),
			"cols": tbl.NumCols(),
		}).Debug("loaded source")
	}
	metrics.SourceFiles.Add(float64(len(tables)))

	tm = metrics.TimeMeasureNow()
	res, err := aggregate.Run(tables, topN)
	if err != nil {
		return nil, err
	}
	tm.MeasureStage("aggregate")
	metrics.SourceRows.Add(float64(res.Rows))
	metrics.DistinctFlows.Observe(float64(res.Distinct))

	tm = metrics.TimeMeasureNow()
	output, err := artifact.Write(root, res.Counts)
	if err != nil {
		return nil, err
	}
	tm.MeasureStage("write")
	metrics.ArtifactRows.Add(float64(len(res.Counts)))

	report = &Report{
		Root:     root,
		Output:   output,
		Files:    len(tables),
		Rows:     res.Rows,
		Distinct: res.Distinct,
		Flows:    res.Counts,
		Duration: time.Since(start),
	}
	logger.WithFields(log.Fields{
		"files":    report.Files,
		"rows":     report.Rows,
		"distinct": report.Distinct,
		"written":  len(report.Flows),
		"output":   report.Output,
		"duration": report.Duration,
	}).Info("analysis complete")
	return report, nil
}

// Run analyzes root and folds the outcome into a Result.
func (a *Analyzer) Run(root string, topN int) Result {
	report, err := a.Analyze(root, topN)
	return Result{
		Root:   root,
		Status: StatusOf(err),
		Report: report,
		Err:    err,
	}
}

func (a *Analyzer) logger() log.FieldLogger {
	if a.Logger == nil {
		return log.StandardLogger()
	}
	return a.Logger
}

func (a *Analyzer) sourceOptions() []source.Option {
	var opts []source.Option
	if a.Allocator != nil {
		opts = append(opts, source.WithAllocator(a.Allocator))
	}
	if a.ChunkSize > 0 {
		opts = append(opts, source.WithChunkSize(a.ChunkSize))
	}
	return opts
}
