package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/chainwatch/chainwatch/pkg/stream"
)

// Handler processes one stream entry. Return values drive acknowledgement:
// nil and ErrDuplicate ack; PermanentError acks and counts a failure; any
// other error leaves the entry pending for redelivery or claim.
type Handler func(ctx context.Context, entry stream.Entry) error

// StageConfig sizes one stage's worker pool and its consume behavior.
type StageConfig struct {
	Name            string
	Stream          string
	Group           string
	Workers         int
	BatchSize       int64
	Block           time.Duration
	ClaimMinIdle    time.Duration
	MessageDeadline time.Duration
}

// Stage is a worker pool bound to one consumer group on one stream.
type Stage struct {
	cfg     StageConfig
	bus     stream.Bus
	handler Handler
	metrics *Metrics

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewStage builds a stage. metrics may be shared across stages.
func NewStage(cfg StageConfig, bus stream.Bus, metrics *Metrics, handler Handler) *Stage {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	return &Stage{
		cfg:     cfg,
		bus:     bus,
		handler: handler,
		metrics: metrics,
		stopCh:  make(chan struct{}),
	}
}

// Start spawns the worker goroutines.
func (s *Stage) Start(ctx context.Context) {
	slog.Info("Starting stage", "stage", s.cfg.Name, "stream", s.cfg.Stream, "workers", s.cfg.Workers)
	for i := 0; i < s.cfg.Workers; i++ {
		consumer := fmt.Sprintf("%s-worker-%d", s.cfg.Name, i)
		s.wg.Add(1)
		go s.run(ctx, consumer)
	}
}

// Stop signals the workers to stop and waits for in-flight messages to
// finish. Unacked entries stay pending and are claimed after restart.
func (s *Stage) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
	s.wg.Wait()
	slog.Info("Stage stopped", "stage", s.cfg.Name)
}

// run is the main worker loop: consume new entries, fall back to claiming
// entries abandoned past ClaimMinIdle when nothing new arrives.
func (s *Stage) run(ctx context.Context, consumer string) {
	defer s.wg.Done()

	log := slog.With("stage", s.cfg.Name, "consumer", consumer)
	log.Info("Worker started")

	for {
		select {
		case <-s.stopCh:
			log.Info("Worker shutting down")
			return
		case <-ctx.Done():
			log.Info("Context cancelled, worker shutting down")
			return
		default:
		}

		entries, err := s.bus.Consume(ctx, s.cfg.Stream, s.cfg.Group, consumer, s.cfg.Block, s.cfg.BatchSize)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			log.Error("Consume failed", "error", err)
			s.sleep(time.Second)
			continue
		}

		if len(entries) == 0 {
			claimed, err := s.bus.Claim(ctx, s.cfg.Stream, s.cfg.Group, consumer, s.cfg.ClaimMinIdle, s.cfg.BatchSize)
			if err != nil {
				if ctx.Err() == nil {
					log.Error("Claim failed", "error", err)
				}
				continue
			}
			if len(claimed) > 0 {
				log.Info("Claimed abandoned entries", "count", len(claimed))
			}
			entries = claimed
		}

		for _, entry := range entries {
			s.process(ctx, consumer, entry)
		}
	}
}

// process runs the handler under the per-message deadline and acks
// according to the outcome.
func (s *Stage) process(ctx context.Context, consumer string, entry stream.Entry) {
	log := slog.With("stage", s.cfg.Name, "consumer", consumer, "entry_id", entry.ID)

	msgCtx, cancel := context.WithTimeout(ctx, s.cfg.MessageDeadline)
	defer cancel()

	start := time.Now()
	err := s.handler(msgCtx, entry)
	elapsed := time.Since(start)

	switch {
	case err == nil:
		s.ack(ctx, entry.ID, log)
		s.metrics.Observe(s.cfg.Name, OutcomeSuccess, elapsed.Seconds())

	case errors.Is(err, ErrDuplicate):
		s.ack(ctx, entry.ID, log)
		s.metrics.Observe(s.cfg.Name, OutcomeDuplicate, elapsed.Seconds())

	case IsPermanent(err):
		log.Error("Permanent failure, acking", "error", err)
		s.ack(ctx, entry.ID, log)
		s.metrics.Observe(s.cfg.Name, OutcomePermanent, elapsed.Seconds())

	default:
		// Transient (includes deadline and cancellation): leave the entry
		// pending so redelivery or claim retries it.
		if ctx.Err() == nil {
			log.Warn("Transient failure, leaving entry pending", "error", err)
		}
		s.metrics.Observe(s.cfg.Name, OutcomeTransient, elapsed.Seconds())
	}
}

func (s *Stage) ack(ctx context.Context, id string, log *slog.Logger) {
	// Ack with a fresh deadline so a message that used its whole budget
	// still gets acknowledged.
	ackCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := s.bus.Ack(ackCtx, s.cfg.Stream, s.cfg.Group, id); err != nil {
		log.Error("Ack failed, entry will be redelivered", "error", err)
	}
}

func (s *Stage) sleep(d time.Duration) {
	select {
	case <-s.stopCh:
	case <-time.After(d):
	}
}
