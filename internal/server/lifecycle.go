// Package server runs the long-lived parts of the engine binary and shuts
// them down on SIGINT or SIGTERM.
package server

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// Service is a long-running component.
type Service interface {
	// Start runs the service and blocks until it is stopped or fails.
	Start() error
	// Stop asks the service to return from Start and waits for it.
	Stop()
}

// FuncService adapts a start/stop function pair into a Service.
type FuncService struct {
	StartFn func() error
	StopFn  func()
}

// Start calls StartFn.
func (f *FuncService) Start() error { return f.StartFn() }

// Stop calls StopFn when set.
func (f *FuncService) Stop() {
	if f.StopFn != nil {
		f.StopFn()
	}
}

type namedService struct {
	name    string
	service Service
}

// Lifecycle starts services in registration order and stops them in reverse.
type Lifecycle struct {
	logger   *zap.Logger
	mu       sync.Mutex
	services []namedService
}

// NewLifecycle creates an empty Lifecycle.
//
// Precondition: logger must be non-nil.
func NewLifecycle(logger *zap.Logger) *Lifecycle {
	return &Lifecycle{logger: logger}
}

// Add registers svc under name.
//
// Precondition: name must be non-empty; svc must be non-nil.
func (l *Lifecycle) Add(name string, svc Service) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.services = append(l.services, namedService{name: name, service: svc})
}

// Run starts every service and blocks until a termination signal, the
// cancellation of ctx, or the first service failure. A service returning nil
// from Start counts as finished and also ends the run.
//
// Postcondition: Every service is stopped. Returns the first service failure, or nil.
func (l *Lifecycle) Run(ctx context.Context) error {
	start := time.Now()
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	l.mu.Lock()
	services := append([]namedService(nil), l.services...)
	l.mu.Unlock()

	done := make(chan error, len(services))
	for _, ns := range services {
		l.logger.Info("starting service", zap.String("service", ns.name))
		go func() {
			err := ns.service.Start()
			if err != nil {
				err = fmt.Errorf("service %s: %w", ns.name, err)
			}
			done <- err
		}()
	}
	l.logger.Info("all services started",
		zap.Int("count", len(services)),
		zap.Duration("startup", time.Since(start)),
	)

	var runErr error
	select {
	case <-ctx.Done():
		l.logger.Info("shutting down", zap.Error(context.Cause(ctx)))
	case runErr = <-done:
		if runErr != nil {
			l.logger.Error("service failed, shutting down", zap.Error(runErr))
		} else {
			l.logger.Info("service finished, shutting down")
		}
	}

	l.shutdown(services)
	l.logger.Info("shutdown complete", zap.Duration("total_uptime", time.Since(start)))
	if errors.Is(runErr, context.Canceled) {
		return nil
	}
	return runErr
}

func (l *Lifecycle) shutdown(services []namedService) {
	for i := len(services) - 1; i >= 0; i-- {
		ns := services[i]
		t := time.Now()
		ns.service.Stop()
		l.logger.Info("service stopped",
			zap.String("service", ns.name),
			zap.Duration("elapsed", time.Since(t)),
		)
	}
}
