package realtime

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/synthesiscore/core/internal/adaptive"
	"github.com/synthesiscore/core/internal/atomic"
	"github.com/synthesiscore/core/internal/cost"
	"github.com/synthesiscore/core/internal/depth"
	"github.com/synthesiscore/core/internal/ids"
	"github.com/synthesiscore/core/internal/ingest"
	"github.com/synthesiscore/core/internal/verify"
	"github.com/synthesiscore/core/internal/width"
	"github.com/synthesiscore/core/pkg/models"
)

// Config bundles Trigger's own tunables, distinct from each wrapped
// stage's own Config.
type Config struct {
	// DepthConcurrency bounds how many AtomicTasks are depth-extended
	// concurrently within one request; width extension runs once over
	// the whole batch and needs no such bound.
	DepthConcurrency int `yaml:"depth_concurrency"`
}

// DefaultConfig returns Trigger's named defaults.
func DefaultConfig() Config {
	return Config{DepthConcurrency: 4}
}

// Result is everything Trigger produced and verified from one request.
type Result struct {
	RequestID  string
	SeedTaskID string
	Accepted   []AcceptedTask
	Rejected   int
}

// AcceptedTask pairs one verified task with its recommendation.
type AcceptedTask struct {
	Task    models.Task
	Verdict models.VerificationResult
}

// TaskGeneratedFunc is invoked once per request with every accepted
// task, mirroring the original's task_generated callback.
type TaskGeneratedFunc func(result Result)

// QualityReportFunc is invoked once per request with a summary of its
// verification pass rate, mirroring the original's quality_report
// callback.
type QualityReportFunc func(result Result)

// Trigger is the single long-running consumer loop: pop a request,
// run AtomicTaskGenerator, then
// DepthExtender and WidthExtender in parallel, then VerificationEngine
// in parallel batches, then update AdaptiveController. One request is
// handled at a time; parallelism is within a request.
type Trigger struct {
	ingestor   *ingest.Ingestor
	generator  *atomic.Generator
	depth      *depth.Extender
	width      *width.Extender
	verifier   *verify.Engine
	controller *adaptive.Controller
	ledger     *cost.Ledger

	cfg    Config
	logger *slog.Logger
	queue  *ExtensionQueue

	onTaskGenerated TaskGeneratedFunc
	onQualityReport QualityReportFunc

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// New builds a Trigger wiring together every upstream pipeline stage.
func New(
	ingestor *ingest.Ingestor,
	generator *atomic.Generator,
	depthExtender *depth.Extender,
	widthExtender *width.Extender,
	verifier *verify.Engine,
	controller *adaptive.Controller,
	ledger *cost.Ledger,
	cfg Config,
	logger *slog.Logger,
) *Trigger {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.DepthConcurrency <= 0 {
		cfg.DepthConcurrency = 4
	}
	return &Trigger{
		ingestor:   ingestor,
		generator:  generator,
		depth:      depthExtender,
		width:      widthExtender,
		verifier:   verifier,
		controller: controller,
		ledger:     ledger,
		cfg:        cfg,
		logger:     logger,
		queue:      NewExtensionQueue(),
	}
}

// SetTaskGeneratedCallback registers the per-request accepted-task hook.
func (t *Trigger) SetTaskGeneratedCallback(fn TaskGeneratedFunc) { t.onTaskGenerated = fn }

// SetQualityReportCallback registers the per-request quality-summary hook.
func (t *Trigger) SetQualityReportCallback(fn QualityReportFunc) { t.onQualityReport = fn }

// QueueSizes reports the current depth of both internal queues.
func (t *Trigger) QueueSizes() (priority, normal int) { return t.queue.Sizes() }

// OnTrajectoryCompleted implements the trajectory-completed event
// entrypoint: a trajectory that didn't succeed is dropped, otherwise
// it's classified for priority and enqueued.
func (t *Trigger) OnTrajectoryCompleted(ctx context.Context, traj models.Trajectory) error {
	if !traj.Success {
		t.logger.Debug("skipping failed trajectory", "trajectory_id", traj.ID)
		return nil
	}

	runtime := trajectoryRuntime(traj)
	req := Request{ID: ids.New(ids.Request), Trajectory: traj}

	if isHighPriority(traj, runtime) {
		t.logger.Info("enqueuing high-priority trajectory", "trajectory_id", traj.ID)
		return t.queue.PutHighPriority(ctx, req)
	}
	t.logger.Info("enqueuing normal-priority trajectory", "trajectory_id", traj.ID)
	return t.queue.PutNormal(ctx, req)
}

func trajectoryRuntime(traj models.Trajectory) time.Duration {
	var total time.Duration
	for _, s := range traj.Steps {
		total += s.Duration
	}
	return total
}

// Start launches the single worker loop. Start is idempotent.
func (t *Trigger) Start(ctx context.Context) {
	t.mu.Lock()
	if t.running {
		t.mu.Unlock()
		return
	}
	t.running = true
	ctx, cancel := context.WithCancel(ctx)
	t.cancel = cancel
	t.mu.Unlock()

	t.wg.Add(1)
	go t.workerLoop(ctx)
}

// Stop cancels the worker loop and waits for it to exit.
func (t *Trigger) Stop() {
	t.mu.Lock()
	if !t.running {
		t.mu.Unlock()
		return
	}
	t.running = false
	cancel := t.cancel
	t.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	t.wg.Wait()
}

func (t *Trigger) workerLoop(ctx context.Context) {
	defer t.wg.Done()
	for {
		req, err := t.queue.GetNext(ctx)
		if err != nil {
			return // context cancelled
		}
		t.handleRequest(ctx, req)
	}
}

// handleRequest runs one request through the full pipeline, per
// the worker description.
func (t *Trigger) handleRequest(ctx context.Context, req Request) {
	seedTaskID := ids.New(ids.Seed)
	t.logger.Info("processing extension request", "request_id", req.ID, "seed_task_id", seedTaskID)

	corpora := t.ingestor.IngestTrajectories([]models.Trajectory{req.Trajectory})
	if len(corpora) == 0 {
		t.logger.Warn("trajectory yielded no corpus content", "request_id", req.ID)
		return
	}

	atomicTasks := t.generator.Generate(ctx, corpora, t.ledger, seedTaskID)
	if len(atomicTasks) == 0 {
		t.logger.Warn("no atomic tasks generated", "request_id", req.ID)
		return
	}

	extended, composite := t.extendInParallel(ctx, atomicTasks, seedTaskID)

	allTasks := make([]models.Task, 0, len(atomicTasks)+len(extended)+len(composite))
	for i := range atomicTasks {
		allTasks = append(allTasks, models.Task{Kind: models.TaskAtomic, Atomic: &atomicTasks[i]})
	}
	for i := range extended {
		allTasks = append(allTasks, models.Task{Kind: models.TaskExtended, Extended: extended[i]})
	}
	for i := range composite {
		allTasks = append(allTasks, models.Task{Kind: models.TaskComposite, Composite: &composite[i]})
	}

	results := t.verifier.VerifyBatch(ctx, allTasks, t.ledger, seedTaskID)

	result := Result{RequestID: req.ID, SeedTaskID: seedTaskID}
	for i, verdict := range results {
		passed := verdict.Recommendation != models.RecommendReject
		if t.controller != nil {
			t.controller.RecordResult(passed)
		}
		if passed {
			result.Accepted = append(result.Accepted, AcceptedTask{Task: allTasks[i], Verdict: verdict})
		} else {
			result.Rejected++
		}
	}
	if t.controller != nil {
		t.controller.AdjustThresholds()
	}

	if t.onTaskGenerated != nil && len(result.Accepted) > 0 {
		t.onTaskGenerated(result)
	}
	if t.onQualityReport != nil {
		t.onQualityReport(result)
	}
}

// extendInParallel runs DepthExtender over every atomic task and
// WidthExtender over the whole batch concurrently.
func (t *Trigger) extendInParallel(ctx context.Context, atomicTasks []models.AtomicTask, seedTaskID string) ([]*models.ExtendedTask, []models.CompositeTask) {
	var extended []*models.ExtendedTask
	var composite []models.CompositeTask
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		extended = t.runDepthExtension(ctx, atomicTasks, seedTaskID)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		composite = t.width.Extend(ctx, atomicTasks, t.ledger, seedTaskID)
	}()

	wg.Wait()
	return extended, composite
}

func (t *Trigger) runDepthExtension(ctx context.Context, atomicTasks []models.AtomicTask, seedTaskID string) []*models.ExtendedTask {
	sem := make(chan struct{}, t.cfg.DepthConcurrency)
	var mu sync.Mutex
	var results []*models.ExtendedTask
	var wg sync.WaitGroup

	for _, task := range atomicTasks {
		wg.Add(1)
		sem <- struct{}{}
		go func(task models.AtomicTask) {
			defer wg.Done()
			defer func() { <-sem }()
			if ext := t.depth.Extend(ctx, task, t.ledger, seedTaskID); ext != nil {
				mu.Lock()
				results = append(results, ext)
				mu.Unlock()
			}
		}(task)
	}
	wg.Wait()
	return results
}
