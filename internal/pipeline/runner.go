package pipeline

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/pipelab/stallmeter/internal/infrastructure/monitoring"
	"github.com/pipelab/stallmeter/internal/shared/id"
	"github.com/pipelab/stallmeter/stall"
)

// Probe is the label under which the bracketed worker stage reports.
const Probe = "worker"

// Record is one synthetic pipeline element.
type Record struct {
	Seq       int
	CreatedAt time.Time
}

// Settings configures the synthetic workload.
type Settings struct {
	// ProduceRate is the producer pace in elements per second.
	ProduceRate float64
	// WorkDelay is the per-element processing time of the worker stage.
	WorkDelay time.Duration
	// ConsumeDelay is the per-element acceptance time of the consumer.
	ConsumeDelay time.Duration
	// FlushInterval is the stall reporting period.
	FlushInterval time.Duration
	// OnReport, when set, receives each flush window after it is recorded.
	OnReport func(runID id.RunID, probe string, starved, backpressured time.Duration)
	// Metrics, when set, receives flush windows and element counts.
	Metrics *monitoring.Metrics
	// Logger defaults to a no-op.
	Logger *zap.Logger
}

// Runner drives one pipeline run.
type Runner struct {
	id       id.RunID
	settings Settings
}

// NewRunner creates a runner with defaults applied.
func NewRunner(s Settings) *Runner {
	if s.ProduceRate <= 0 {
		s.ProduceRate = 50
	}
	if s.FlushInterval <= 0 {
		s.FlushInterval = time.Second
	}
	if s.Logger == nil {
		s.Logger = zap.NewNop()
	}

	return &Runner{
		id:       id.NewRunID(),
		settings: s,
	}
}

// ID returns the run identifier.
func (r *Runner) ID() id.RunID {
	return r.id
}

// Run executes the pipeline until the context is cancelled. The flush task
// is released on every exit path.
func (r *Runner) Run(ctx context.Context) error {
	logger := r.settings.Logger.With(zap.String("run_id", string(r.id)))

	rep, err := stall.NewInterval(stall.Settings{
		Interval: r.settings.FlushInterval,
		OnReport: func(starved, backpressured time.Duration) {
			r.report(logger, starved, backpressured)
		},
		Logger: logger,
	})
	if err != nil {
		return fmt.Errorf("failed to start stall reporter: %w", err)
	}
	defer rep.Close()

	if m := r.settings.Metrics; m != nil {
		m.SetPipelineRunning(true)
		defer m.SetPipelineRunning(false)
	}

	logger.Info("Pipeline starting",
		zap.Float64("produce_rate", r.settings.ProduceRate),
		zap.Duration("work_delay", r.settings.WorkDelay),
		zap.Duration("consume_delay", r.settings.ConsumeDelay),
		zap.Duration("flush_interval", r.settings.FlushInterval),
	)

	src := r.produce(ctx)
	out := stall.Bracket[Record, Record](rep, r.work)(ctx, src)
	r.consume(ctx, out)

	logger.Info("Pipeline stopped")
	return nil
}

// report forwards one flush window to the metrics collector and callback.
func (r *Runner) report(logger *zap.Logger, starved, backpressured time.Duration) {
	logger.Info("Stall report",
		zap.String("probe", Probe),
		zap.Duration("starved", starved),
		zap.Duration("backpressured", backpressured),
	)

	if m := r.settings.Metrics; m != nil {
		m.RecordFlush(Probe, starved, backpressured)
	}
	if cb := r.settings.OnReport; cb != nil {
		cb(r.id, Probe, starved, backpressured)
	}
}

// produce emits sequenced records at the configured rate.
func (r *Runner) produce(ctx context.Context) <-chan Record {
	out := make(chan Record)
	limiter := rate.NewLimiter(rate.Limit(r.settings.ProduceRate), 1)

	go func() {
		defer close(out)
		for seq := 0; ; seq++ {
			if err := limiter.Wait(ctx); err != nil {
				return
			}
			select {
			case <-ctx.Done():
				return
			case out <- Record{Seq: seq, CreatedAt: time.Now()}:
			}
		}
	}()
	return out
}

// work is the bracketed stage: it holds each record for WorkDelay.
func (r *Runner) work(ctx context.Context, in <-chan Record) <-chan Record {
	out := make(chan Record)

	go func() {
		defer close(out)
		for {
			var rec Record
			var ok bool
			select {
			case <-ctx.Done():
				return
			case rec, ok = <-in:
				if !ok {
					return
				}
			}
			if !sleep(ctx, r.settings.WorkDelay) {
				return
			}
			select {
			case <-ctx.Done():
				return
			case out <- rec:
			}
		}
	}()
	return out
}

// consume accepts each record after ConsumeDelay and counts it.
func (r *Runner) consume(ctx context.Context, in <-chan Record) {
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-in:
			if !ok {
				return
			}
			if !sleep(ctx, r.settings.ConsumeDelay) {
				return
			}
			if m := r.settings.Metrics; m != nil {
				m.RecordElements(1)
			}
		}
	}
}

// sleep waits for d or the context, reporting false on cancellation.
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
