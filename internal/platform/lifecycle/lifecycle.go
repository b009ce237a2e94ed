// Package lifecycle starts and stops long-lived components in a fixed order.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// Hook is one component's startup and shutdown pair. Either func may be nil.
type Hook struct {
	Name    string
	OnStart func(ctx context.Context) error
	OnStop  func(ctx context.Context) error
}

// Supervisor runs OnStart hooks in registration order and OnStop hooks of the
// started ones in reverse.
type Supervisor struct {
	logger *slog.Logger

	mu      sync.Mutex
	hooks   []Hook
	started []Hook
	stopped bool
}

func NewSupervisor(logger *slog.Logger) *Supervisor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Supervisor{logger: logger}
}

// Append registers h. Hooks appended after Start are not started.
func (s *Supervisor) Append(h Hook) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hooks = append(s.hooks, h)
}

// Start runs every OnStart in order. On the first failure the hooks already
// started are stopped and the error is returned.
func (s *Supervisor) Start(ctx context.Context) error {
	s.mu.Lock()
	hooks := append([]Hook(nil), s.hooks...)
	s.mu.Unlock()

	for _, h := range hooks {
		if h.OnStart != nil {
			if err := h.OnStart(ctx); err != nil {
				startErr := fmt.Errorf("start %s: %w", h.Name, err)
				return errors.Join(startErr, s.Stop(context.WithoutCancel(ctx)))
			}
		}
		s.mu.Lock()
		s.started = append(s.started, h)
		s.mu.Unlock()
		s.logger.Info("component started", "component", h.Name)
	}
	return nil
}

// Stop runs OnStop for every started hook in reverse order. Failures are
// collected and do not prevent later hooks from stopping. Only the first call
// has effect.
func (s *Supervisor) Stop(ctx context.Context) error {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return nil
	}
	s.stopped = true
	started := s.started
	s.started = nil
	s.mu.Unlock()

	var errs []error
	for i := len(started) - 1; i >= 0; i-- {
		h := started[i]
		if h.OnStop == nil {
			continue
		}
		if err := h.OnStop(ctx); err != nil {
			s.logger.Error("component stop failed", "component", h.Name, "error", err)
			errs = append(errs, fmt.Errorf("stop %s: %w", h.Name, err))
			continue
		}
		s.logger.Info("component stopped", "component", h.Name)
	}
	return errors.Join(errs...)
}
