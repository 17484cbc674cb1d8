// Package driver runs the conversion jobs on a bounded worker pool.
package driver

import (
	"context"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/mahirjain10/imagsharp/internal/queue"
	"github.com/mahirjain10/imagsharp/internal/resolver"
	"github.com/mahirjain10/imagsharp/internal/types"
	log "github.com/sirupsen/logrus"
)

// Publisher reports a settled job to an external listener.
type Publisher interface {
	Publish(ctx context.Context, result types.JobResult) error
}

// Ticker is notified exactly once per settled job.
type Ticker interface {
	Tick()
}

type Options struct {
	DestRoot   string
	Exts       []string
	Conversion types.ConversionOptions
	Workers    int
	Uploader   Uploader
	Publisher  Publisher
	Progress   Ticker
}

// Summary lists every job result in resolution order.
type Summary struct {
	Results   []types.JobResult
	Converted int
	Skipped   int
	Failed    int
}

// Failures returns the failed results.
func (s Summary) Failures() []types.JobResult {
	var out []types.JobResult
	for _, r := range s.Results {
		if r.Outcome == types.Failed {
			out = append(out, r)
		}
	}
	return out
}

// NewJobs pairs every resolved path with the options in effect and the
// destination directory that mirrors its place below the resolution root.
func NewJobs(res resolver.Resolution, destRoot string, conv types.ConversionOptions) []types.ImageJob {
	jobs := make([]types.ImageJob, len(res.Paths))
	for i, p := range res.Paths {
		jobs[i] = types.ImageJob{
			Id:         uuid.NewString(),
			SourcePath: p,
			DestDir:    filepath.Join(destRoot, resolver.RelDir(res.RootDir, filepath.Dir(p))),
			Options:    conv,
		}
	}
	return jobs
}

// Run converts every job and waits for all of them to settle. Cancelling ctx
// stops dispatching; jobs never started are reported as failed.
func Run(ctx context.Context, jobs []types.ImageJob, opts Options) Summary {
	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}
	if workers > len(jobs) {
		workers = len(jobs)
	}

	handler := NewTransformHandler(opts.Exts, opts.Uploader)
	publish := newPublishFunc(opts.Publisher)
	results := make([]types.JobResult, len(jobs))
	settled := make([]bool, len(jobs))

	indexes := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indexes {
				result := handler.TransformImage(ctx, jobs[i])
				publish(ctx, result)
				results[i] = result
				settled[i] = true
				if opts.Progress != nil {
					opts.Progress.Tick()
				}
			}
		}()
	}

dispatch:
	for i := range jobs {
		if ctx.Err() != nil {
			break
		}
		select {
		case <-ctx.Done():
			break dispatch
		case indexes <- i:
		}
	}
	close(indexes)
	wg.Wait()

	summary := Summary{Results: results}
	for i := range results {
		if !settled[i] {
			results[i] = types.JobResult{Job: jobs[i], Outcome: types.Failed, Reason: "cancelled before start"}
			if opts.Progress != nil {
				opts.Progress.Tick()
			}
		}
		switch results[i].Outcome {
		case types.Converted:
			summary.Converted++
		case types.SkippedUnsupported:
			summary.Skipped++
		default:
			summary.Failed++
		}
	}
	return summary
}

// newPublishFunc wraps p so that a fatal broker error turns publishing off
// for the rest of the run instead of failing every job.
func newPublishFunc(p Publisher) func(context.Context, types.JobResult) {
	if p == nil {
		return func(context.Context, types.JobResult) {}
	}
	var disabled atomic.Bool
	return func(ctx context.Context, result types.JobResult) {
		if disabled.Load() {
			return
		}
		if err := p.Publish(ctx, result); err != nil {
			if queue.IsFatalError(err) {
				disabled.Store(true)
				log.Errorf("status publishing disabled: %v", err)
				return
			}
			log.Warnf("failed to publish status for %s: %v", result.Job.SourcePath, err)
		}
	}
}
