package extractor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Engine drives the sequential extraction loop: resume from the last
// checkpoint, extract one record per task, accumulate a batch, flush results
// before advancing the checkpoint, and recover from render session death
// within a bounded reconnection budget.
//
// One engine owns one render session at a time. Everything mutable (session,
// batch buffer, counters) is confined to the Run goroutine.
type Engine struct {
	cfg       Config
	source    InputSource
	store     ProgressStore
	sink      ResultSink
	sessions  SessionFactory
	extractor *Extractor
	reconnect ReconnectPolicy
	clock     Clock
	limiter   *rate.Limiter
	logger    *zap.Logger
	errorLog  *zap.Logger

	runID           string
	stats           Stats
	processedRun    int
	session         Session
	batch           []FeatureRecord
	start           time.Time
	startIndex      uint64
	priorElapsed    float64
	persistFailures int
}

// NewEngine wires the engine's collaborators. The session factory is
// injected so tests can script session behavior and so recovery can mint
// replacements.
func NewEngine(
	cfg Config,
	source InputSource,
	store ProgressStore,
	sink ResultSink,
	sessions SessionFactory,
	x *Extractor,
	clk Clock,
	logger *zap.Logger,
	errorLog *zap.Logger,
) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if errorLog == nil {
		errorLog = zap.NewNop()
	}
	var limiter *rate.Limiter
	if cfg.TaskDelay > 0 {
		limiter = rate.NewLimiter(rate.Every(cfg.TaskDelay), 1)
	}
	return &Engine{
		cfg:       cfg,
		source:    source,
		store:     store,
		sink:      sink,
		sessions:  sessions,
		extractor: x,
		reconnect: cfg.ReconnectPolicy(),
		clock:     clk,
		limiter:   limiter,
		logger:    logger,
		errorLog:  errorLog,
		runID:     uuid.NewString(),
	}
}

// Stats returns a copy of the cumulative counters.
func (e *Engine) Stats() Stats {
	return e.stats
}

// Run executes the extraction loop until the input is exhausted, the context
// is canceled, or an unrecoverable failure occurs. The returned error is
// non-nil only for the fatal path.
func (e *Engine) Run(ctx context.Context) (TerminationReason, error) {
	tasks, err := e.source.Tasks()
	if err != nil {
		return TerminationFatal, fmt.Errorf("read input: %w", err)
	}
	total := uint64(len(tasks))

	resumeIdx, err := e.resume()
	if err != nil {
		return TerminationFatal, err
	}
	e.startIndex = resumeIdx
	e.start = e.clock.Now()

	e.logger.Info("extraction run starting",
		zap.String("run_id", e.runID),
		zap.Uint64("total_tasks", total),
		zap.Uint64("resume_index", resumeIdx),
		zap.Int("checkpoint_interval", e.cfg.CheckpointInterval))

	if resumeIdx >= total {
		e.logger.Info("nothing left to process")
		e.logSummary(TerminationDone, total)
		return TerminationDone, nil
	}

	session, err := e.sessions(ctx)
	if err != nil {
		return TerminationFatal, fmt.Errorf("create render session: %w", err)
	}
	e.session = session
	defer func() {
		if e.session != nil {
			_ = e.session.Close(context.Background())
		}
	}()

	interval := uint64(e.cfg.CheckpointInterval)
	logEvery := uint64(e.cfg.LogEvery)

	for i := resumeIdx; i < total; i++ {
		// The stop signal is honored between tasks only; an in-flight
		// navigation always finishes, so the current task is never lost.
		if ctx.Err() != nil {
			e.finalize(i)
			e.logSummary(TerminationInterrupted, total)
			return TerminationInterrupted, nil
		}

		task := tasks[i]
		res := e.extractor.Extract(context.WithoutCancel(ctx), task, e.session)
		e.record(task, res)
		e.batch = append(e.batch, res.Record)

		if res.Class == ErrorSessionDead {
			if recErr := e.recoverSession(ctx); recErr != nil {
				e.finalize(i + 1)
				if errors.Is(recErr, context.Canceled) {
					e.logSummary(TerminationInterrupted, total)
					return TerminationInterrupted, nil
				}
				e.logSummary(TerminationFatal, total)
				return TerminationFatal, recErr
			}
		}

		if (i+1)%interval == 0 {
			if flushErr := e.flush(i); flushErr != nil {
				e.logSummary(TerminationFatal, total)
				return TerminationFatal, flushErr
			}
		}
		if (i+1)%logEvery == 0 {
			e.logProgress(i+1, total)
		}
		if e.limiter != nil {
			_ = e.limiter.Wait(ctx)
		}
	}

	e.finalize(total)
	e.logSummary(TerminationDone, total)
	return TerminationDone, nil
}

// resume loads the previous checkpoint, restores the cumulative counters,
// and returns the index to start from.
func (e *Engine) resume() (uint64, error) {
	cp, found, err := e.store.Load()
	if err != nil {
		return 0, fmt.Errorf("load checkpoint: %w", err)
	}
	if !found {
		e.logger.Info("no previous progress found; starting fresh")
		return 0, nil
	}
	e.stats.Merge(cp.Stats())
	e.priorElapsed = cp.ElapsedSeconds
	e.logger.Info("resuming from previous run",
		zap.Uint64("last_processed_index", cp.LastProcessedIndex),
		zap.Int("previously_successful", cp.Successful),
		zap.Int("previously_failed", cp.Failed),
		zap.Int("ssl_valid", cp.SSLValid),
		zap.Int("ssl_invalid", cp.SSLInvalid),
		zap.Time("previous_timestamp", cp.Timestamp),
		zap.Float64("previous_elapsed_seconds", cp.ElapsedSeconds))
	return cp.LastProcessedIndex + 1, nil
}

// record folds one task outcome into the counters, metrics, and error log.
func (e *Engine) record(task URLTask, res Result) {
	e.stats.TotalProcessed++
	e.processedRun++
	TasksProcessed.Inc()

	switch {
	case res.Record.SSLValid == 1:
		e.stats.SSLValid++
		SSLOutcomes.WithLabelValues("valid").Inc()
	case res.Record.SSLInvalid == 1:
		e.stats.SSLInvalid++
		SSLOutcomes.WithLabelValues("invalid").Inc()
	}

	if !res.Failed() {
		e.stats.Successful++
		return
	}
	e.stats.Failed++
	TasksFailed.WithLabelValues(string(res.Class)).Inc()
	if res.Class == ErrorTimeout {
		e.stats.TimeoutErrors++
	} else {
		e.stats.WebDriverErrors++
	}
	e.errorLog.Error("task failed",
		zap.Uint64("index", task.Index),
		zap.String("url", task.URL),
		zap.String("class", string(res.Class)),
		zap.Error(res.Err))
}

// flush persists the batch buffer and then the checkpoint, in that order:
// result rows must exist before the checkpoint claims them, so a crash
// between the two causes bounded re-extraction rather than loss. A failed
// write keeps the batch for retry at the next interval; the failure budget
// turns repeated refusals fatal.
func (e *Engine) flush(lastIndex uint64) error {
	if len(e.batch) > 0 {
		if err := e.sink.AppendBatch(e.batch); err != nil {
			e.persistFailures++
			PersistFailures.Inc()
			e.logger.Error("result flush failed; batch retained",
				zap.Int("batch_size", len(e.batch)),
				zap.Int("consecutive_failures", e.persistFailures),
				zap.Error(err))
			if e.persistFailures >= e.cfg.MaxPersistFailures {
				return fmt.Errorf("persisting results failed %d times: %w", e.persistFailures, err)
			}
			return nil
		}
		e.batch = e.batch[:0]
	}

	if err := e.store.Save(e.checkpoint(lastIndex)); err != nil {
		e.persistFailures++
		PersistFailures.Inc()
		e.logger.Error("checkpoint write failed",
			zap.Uint64("last_processed_index", lastIndex),
			zap.Int("consecutive_failures", e.persistFailures),
			zap.Error(err))
		if e.persistFailures >= e.cfg.MaxPersistFailures {
			return fmt.Errorf("writing checkpoint failed %d times: %w", e.persistFailures, err)
		}
		return nil
	}
	e.persistFailures = 0
	Checkpoints.Inc()
	e.logger.Info("checkpoint saved",
		zap.Uint64("last_processed_index", lastIndex),
		zap.Int("total_processed", e.stats.TotalProcessed))
	return nil
}

// finalize performs the terminal flush for every exit path. nextIndex is the
// index of the first task that was not completed.
func (e *Engine) finalize(nextIndex uint64) {
	if nextIndex == 0 {
		return
	}
	if err := e.flush(nextIndex - 1); err != nil {
		e.logger.Error("final checkpoint failed", zap.Error(err))
	}
}

// recoverSession replaces a dead session within the reconnection budget.
func (e *Engine) recoverSession(ctx context.Context) error {
	e.logger.Warn("render session died; attempting reconnection",
		zap.Int("max_attempts", e.reconnect.MaxAttempts))
	_ = e.session.Close(context.Background())
	e.session = nil

	var lastErr error
	for attempt := 0; attempt < e.reconnect.MaxAttempts; attempt++ {
		if err := sleepCtx(ctx, e.reconnect.Delay(attempt)); err != nil {
			return err
		}
		session, err := e.sessions(ctx)
		if err == nil {
			e.session = session
			SessionReconnects.Inc()
			e.logger.Info("render session re-established", zap.Int("attempt", attempt+1))
			return nil
		}
		lastErr = err
		e.logger.Error("reconnection attempt failed",
			zap.Int("attempt", attempt+1),
			zap.Int("max_attempts", e.reconnect.MaxAttempts),
			zap.Error(err))
	}
	return fmt.Errorf("session reconnection exhausted after %d attempts: %w", e.reconnect.MaxAttempts, lastErr)
}

func (e *Engine) checkpoint(lastIndex uint64) Checkpoint {
	now := e.clock.Now()
	elapsed := e.priorElapsed
	if !e.start.IsZero() {
		elapsed += now.Sub(e.start).Seconds()
	}
	return Checkpoint{
		RunID:              e.runID,
		LastProcessedIndex: lastIndex,
		TotalProcessed:     e.stats.TotalProcessed,
		Successful:         e.stats.Successful,
		Failed:             e.stats.Failed,
		SSLValid:           e.stats.SSLValid,
		SSLInvalid:         e.stats.SSLInvalid,
		TimeoutErrors:      e.stats.TimeoutErrors,
		WebDriverErrors:    e.stats.WebDriverErrors,
		Timestamp:          now,
		ElapsedSeconds:     round2(elapsed),
	}
}

func (e *Engine) logProgress(done, total uint64) {
	elapsed := e.clock.Now().Sub(e.start).Seconds()
	var tasksPerSec, etaSeconds float64
	if elapsed > 0 && e.processedRun > 0 {
		tasksPerSec = float64(e.processedRun) / elapsed
		etaSeconds = float64(total-done) / tasksPerSec
	}
	e.logger.Info("progress",
		zap.Uint64("index", done),
		zap.Uint64("total", total),
		zap.Float64("percent", round2(float64(done)/float64(total)*100)),
		zap.Float64("tasks_per_sec", round2(tasksPerSec)),
		zap.Duration("eta", time.Duration(etaSeconds)*time.Second),
		zap.Int("successful", e.stats.Successful),
		zap.Int("failed", e.stats.Failed))
}

func (e *Engine) logSummary(reason TerminationReason, total uint64) {
	elapsed := e.clock.Now().Sub(e.start).Seconds()
	var tasksPerSec float64
	if elapsed > 0 {
		tasksPerSec = float64(e.processedRun) / elapsed
	}
	e.logger.Info("extraction run finished",
		zap.String("run_id", e.runID),
		zap.String("reason", string(reason)),
		zap.Int("total_processed", e.stats.TotalProcessed),
		zap.Uint64("total_tasks", total),
		zap.Int("successful", e.stats.Successful),
		zap.Int("failed", e.stats.Failed),
		zap.Int("ssl_valid", e.stats.SSLValid),
		zap.Int("ssl_invalid", e.stats.SSLInvalid),
		zap.Int("timeout_errors", e.stats.TimeoutErrors),
		zap.Int("webdriver_errors", e.stats.WebDriverErrors),
		zap.Float64("elapsed_seconds", round2(elapsed)),
		zap.Float64("tasks_per_sec", round2(tasksPerSec)))
}
