// Package app wires configuration, storage and the lifecycle service together
// for the server and the operator CLI.
package app

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"recyclebin/internal/config"
	"recyclebin/internal/core/id"
	"recyclebin/internal/core/security"
	"recyclebin/internal/domain/lifecycle"
	"recyclebin/internal/infrastructure/http/v1/handlers"
	"recyclebin/internal/infrastructure/metrics"
	"recyclebin/internal/infrastructure/storage/postgres"
	"recyclebin/internal/metadata"
	"recyclebin/pkg/logger"
)

// HistoryReader returns the audit trail of one record.
type HistoryReader interface {
	History(ctx context.Context, entityType string, entityID id.ID, limit int) ([]postgres.AuditEntry, error)
}

// App holds the wired components. Close releases storage handles.
type App struct {
	Config   *config.Config
	Logger   *logger.Logger
	Catalog  *metadata.Registry
	Service  *lifecycle.Service
	Metrics  *metrics.Metrics
	Registry *prometheus.Registry

	// Checks feeds the readiness probe, keyed by dependency name
	Checks map[string]handlers.Checker

	// History is set when the Postgres audit log is enabled
	History HistoryReader

	closers []func()
}

// Build opens the configured storage driver and constructs the service.
func Build(ctx context.Context, cfg *config.Config, log *logger.Logger) (*App, error) {
	a := &App{
		Config:   cfg,
		Logger:   log,
		Catalog:  metadata.Default(),
		Registry: prometheus.NewRegistry(),
		Checks:   make(map[string]handlers.Checker),
	}
	a.Registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	a.Metrics = metrics.New(a.Registry)

	st, err := a.openStorage(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}

	reg, err := lifecycle.NewRegistry(a.Catalog, st.entries...)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("build entity registry: %w", err)
	}

	policy, err := restorePolicy(cfg.Trash.RestorePolicy)
	if err != nil {
		a.Close()
		return nil, err
	}

	recorder := st.recorder
	if recorder == nil {
		recorder = logRecorder{log: log.WithComponent("lifecycle")}
	}

	a.Service, err = lifecycle.NewService(lifecycle.ServiceConfig{
		Registry: reg,
		Paging: lifecycle.PagePolicy{
			DefaultSize: cfg.Trash.DefaultPageSize,
			MaxSize:     cfg.Trash.MaxPageSize,
		},
		ItemTimeout:   cfg.Trash.ItemTimeout,
		MaxBulkIDs:    cfg.Trash.MaxBulkIDs,
		RestorePolicy: policy,
		Recorder:      recorder,
		Observer:      a.Metrics,
	})
	if err != nil {
		a.Close()
		return nil, err
	}

	log.Infow("lifecycle service ready",
		"driver", cfg.Storage.Driver,
		"entities", reg.Names(),
		"restore_policy", policyName(policy),
	)
	return a, nil
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

func (a *App) onClose(fn func()) {
	a.closers = append(a.closers, fn)
}

func restorePolicy(expr string) (security.RestorePolicy, error) {
	if expr == "" {
		return security.OpenRestorePolicy{}, nil
	}
	p, err := security.NewCELRestorePolicy(expr)
	if err != nil {
		return nil, fmt.Errorf("trash.restore_policy: %w", err)
	}
	return p, nil
}

func policyName(p security.RestorePolicy) string {
	if s, ok := p.(fmt.Stringer); ok {
		return s.String()
	}
	return "open"
}

// logRecorder writes lifecycle events to the log when no audit table exists.
type logRecorder struct {
	log *logger.Logger
}

func (r logRecorder) Record(ctx context.Context, ev lifecycle.Event) error {
	kv := []any{
		"entity", ev.Entity,
		"id", ev.EntityID.String(),
		"action", string(ev.Action),
		"at", ev.At,
	}
	if ev.Actor != nil {
		kv = append(kv, "actor_id", ev.Actor.ID, "actor_email", ev.Actor.Email)
	}
	r.log.WithContext(ctx).Infow("lifecycle event", kv...)
	return nil
}
