// Package batch runs optimization experiments, alone or as a concurrent sweep
// over fitness weight sets.
package batch

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/ducminhle1904/transit-ga/pkg/config"
	"github.com/ducminhle1904/transit-ga/pkg/optimization"
	"github.com/ducminhle1904/transit-ga/pkg/reporting"
)

// ExperimentJob is one configured run of a batch
type ExperimentJob struct {
	ID     string
	Index  int
	Config *config.ExperimentConfig
}

// ExperimentResult is the outcome of a job
type ExperimentResult struct {
	ID        string
	Name      string
	OutputDir string
	RunID     string
	Summary   reporting.RunSummary
	Rounds    []optimization.RoundMetrics
	Duration  time.Duration
	Error     error

	index int
}

// RunFunc executes one experiment
type RunFunc func(ctx context.Context, cfg *config.ExperimentConfig) (ExperimentResult, error)

// WorkerPool runs experiment jobs on a fixed number of goroutines
type WorkerPool struct {
	workerCount int
	run         RunFunc
	jobQueue    chan ExperimentJob
	resultQueue chan ExperimentResult
	wg          sync.WaitGroup
	ctx         context.Context
	cancel      context.CancelFunc
}

// NewWorkerPool creates a pool bound to ctx. A non-positive workerCount uses
// one worker per CPU.
func NewWorkerPool(ctx context.Context, workerCount, jobBufferSize int, run RunFunc) *WorkerPool {
	if workerCount <= 0 {
		workerCount = runtime.NumCPU()
	}

	ctx, cancel := context.WithCancel(ctx)

	return &WorkerPool{
		workerCount: workerCount,
		run:         run,
		jobQueue:    make(chan ExperimentJob, jobBufferSize),
		resultQueue: make(chan ExperimentResult, jobBufferSize),
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Start starts the workers
func (wp *WorkerPool) Start() {
	for i := 0; i < wp.workerCount; i++ {
		wp.wg.Add(1)
		go wp.worker()
	}
}

// Stop closes the job queue, waits for the workers and closes the results
func (wp *WorkerPool) Stop() {
	close(wp.jobQueue)
	wp.wg.Wait()
	close(wp.resultQueue)
	wp.cancel()
}

// SubmitJob queues a job, failing once the pool's context is done
func (wp *WorkerPool) SubmitJob(job ExperimentJob) error {
	select {
	case wp.jobQueue <- job:
		return nil
	case <-wp.ctx.Done():
		return wp.ctx.Err()
	}
}

// Results returns the channel of completed jobs
func (wp *WorkerPool) Results() <-chan ExperimentResult {
	return wp.resultQueue
}

func (wp *WorkerPool) worker() {
	defer wp.wg.Done()

	for {
		select {
		case job, ok := <-wp.jobQueue:
			if !ok {
				return
			}

			result := wp.processJob(job)

			select {
			case wp.resultQueue <- result:
			case <-wp.ctx.Done():
				return
			}

		case <-wp.ctx.Done():
			return
		}
	}
}

func (wp *WorkerPool) processJob(job ExperimentJob) ExperimentResult {
	start := time.Now()

	result, err := wp.run(wp.ctx, job.Config)
	result.ID = job.ID
	result.index = job.Index
	if result.Name == "" {
		result.Name = job.Config.Name
	}
	if err != nil {
		result.Error = err
	}
	result.Duration = time.Since(start)
	return result
}

// Jobs builds one job per weight set from base. Each job is named after its
// weights and writes to its own directory under base.OutputDir.
func Jobs(base *config.ExperimentConfig, batches []optimization.Weights) []ExperimentJob {
	jobs := make([]ExperimentJob, len(batches))
	for i, w := range batches {
		name := reporting.BatchDirName(w, base.Population.Generations, base.Population.Size)
		cfg := base.WithWeights(w, name)
		cfg.OutputDir = reporting.BatchOutputDir(base.OutputDir, w, base.Population.Generations, base.Population.Size)
		jobs[i] = ExperimentJob{
			ID:     fmt.Sprintf("batch-%d", i+1),
			Index:  i,
			Config: cfg,
		}
	}
	return jobs
}

// RunBatch runs jobs on workers goroutines and returns their results in job
// order. Failed jobs carry their error; the batch itself fails only when ctx
// is cancelled before every job was submitted.
func RunBatch(ctx context.Context, jobs []ExperimentJob, workers int, run RunFunc, log optimization.Logger) ([]ExperimentResult, error) {
	if log == nil {
		log = nopLogger{}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for i := range jobs {
		jobs[i].Index = i
	}

	wp := NewWorkerPool(ctx, workers, len(jobs), run)
	wp.Start()
	defer wp.Stop()

	submitted := 0
	for _, job := range jobs {
		if err := wp.SubmitJob(job); err != nil {
			log.Error("Batch cancelled after submitting %d of %d jobs", submitted, len(jobs))
			return nil, err
		}
		submitted++
	}

	progress := NewProgressTracker(submitted)
	results := make([]ExperimentResult, submitted)
	for i := 0; i < submitted; i++ {
		var result ExperimentResult
		select {
		case result = <-wp.Results():
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		results[result.index] = result

		progress.Increment()
		done, total, pct, elapsed := progress.GetProgress()
		if result.Error != nil {
			log.Error("Job %s (%s) failed: %v", result.ID, result.Name, result.Error)
		} else {
			log.Info("Job %s (%s) finished in %s", result.ID, result.Name, result.Duration.Round(time.Millisecond))
		}
		log.Info("Batch progress %d/%d (%.0f%%) after %s, about %s remaining",
			done, total, pct, elapsed.Round(time.Second), progress.EstimateTimeRemaining().Round(time.Second))
	}

	return results, nil
}

// ProgressTracker tracks the progress of a batch
type ProgressTracker struct {
	total     int
	completed int
	startTime time.Time
	mutex     sync.RWMutex
}

// NewProgressTracker creates a new progress tracker
func NewProgressTracker(total int) *ProgressTracker {
	return &ProgressTracker{
		total:     total,
		startTime: time.Now(),
	}
}

// Increment increments the completion count
func (pt *ProgressTracker) Increment() {
	pt.mutex.Lock()
	defer pt.mutex.Unlock()
	pt.completed++
}

// GetProgress returns completed and total jobs, the completion percentage and the elapsed time
func (pt *ProgressTracker) GetProgress() (int, int, float64, time.Duration) {
	pt.mutex.RLock()
	defer pt.mutex.RUnlock()

	elapsed := time.Since(pt.startTime)
	progress := 0.0
	if pt.total > 0 {
		progress = float64(pt.completed) / float64(pt.total) * 100
	}

	return pt.completed, pt.total, progress, elapsed
}

// EstimateTimeRemaining extrapolates the mean job time over the remaining jobs
func (pt *ProgressTracker) EstimateTimeRemaining() time.Duration {
	pt.mutex.RLock()
	defer pt.mutex.RUnlock()

	if pt.completed == 0 {
		return 0
	}

	elapsed := time.Since(pt.startTime)
	avgTimePerItem := elapsed / time.Duration(pt.completed)
	remaining := pt.total - pt.completed

	return avgTimePerItem * time.Duration(remaining)
}
