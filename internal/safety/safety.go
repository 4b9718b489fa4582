// Package safety implements the process-level safety shell (spec component
// C7): it listens for SIGINT/SIGTERM, runs the shutdown sequence exactly
// once in a fixed order, and gives every stage a context that is cancelled
// when the stage's time budget runs out. The shell waits for each stage to
// return before starting the next, so a stage that ignores its context
// holds up the stages after it.
package safety

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Stage is one step of an orderly shutdown. Stages run in the order they
// were registered; a stage's context is cancelled if it overruns its
// budget, and the next stage runs once it has returned, whether or not it
// reported an error.
type Stage struct {
	Name    string
	Timeout time.Duration
	Run     func(ctx context.Context) error
}

// Shell coordinates graceful shutdown across the engine, the scheduler, the
// routers, and the GPIO driver.
type Shell struct {
	logger *zap.Logger
	stages []Stage

	once     sync.Once
	done     chan struct{}
	triggers chan os.Signal
}

// New builds a shell that listens for SIGINT and SIGTERM.
func New(logger *zap.Logger) *Shell {
	s := &Shell{
		logger:   logger,
		done:     make(chan struct{}),
		triggers: make(chan os.Signal, 1),
	}
	signal.Notify(s.triggers, os.Interrupt, syscall.SIGTERM)
	return s
}

// Register appends a shutdown stage. Call before Wait.
func (s *Shell) Register(stage Stage) {
	s.stages = append(s.stages, stage)
}

// Trip runs the shutdown sequence immediately, as if a signal had arrived
// (used by tests).
func (s *Shell) Trip() {
	s.shutdown(context.Background())
}

// Wait blocks until a registered signal arrives or ctx is cancelled, then
// runs every stage in order and returns. Safe to call once per Shell.
func (s *Shell) Wait(ctx context.Context) {
	select {
	case sig := <-s.triggers:
		s.logger.Info("shutdown signal received", zap.String("signal", sig.String()))
	case <-ctx.Done():
	}
	s.shutdown(context.Background())
}

func (s *Shell) shutdown(parent context.Context) {
	s.once.Do(func() {
		defer close(s.done)
		for _, stage := range s.stages {
			s.runStage(parent, stage)
		}
	})
}

func (s *Shell) runStage(parent context.Context, stage Stage) {
	ctx := parent
	cancel := func() {}
	if stage.Timeout > 0 {
		ctx, cancel = context.WithTimeout(parent, stage.Timeout)
	}
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return stage.Run(gctx) })

	if err := g.Wait(); err != nil {
		s.logger.Warn("shutdown stage reported an error", zap.String("stage", stage.Name), zap.Error(err))
		return
	}
	s.logger.Info("shutdown stage complete", zap.String("stage", stage.Name))
}

// Done is closed once every stage has run.
func (s *Shell) Done() <-chan struct{} { return s.done }
