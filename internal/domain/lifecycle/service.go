package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"recyclebin/internal/core/apperror"
	"recyclebin/internal/core/entity"
	"recyclebin/internal/core/id"
	"recyclebin/internal/core/security"
	"recyclebin/internal/domain/audit"
	"recyclebin/pkg/logger"
)

const (
	DefaultItemTimeout = 5 * time.Second
	DefaultMaxBulkIDs  = 1000

	outcomeOK    = "ok"
	outcomeError = "error"
)

var tracer = otel.Tracer("recyclebin/lifecycle")

// PageResult is one page of the deleted set.
type PageResult struct {
	Items    []entity.Record `json:"items"`
	Current  int             `json:"current"`
	PageSize int             `json:"pageSize"`
	Pages    int             `json:"pages"`
	Total    int64           `json:"total"`
}

type RestoreResult struct {
	Message string        `json:"message"`
	Item    entity.Record `json:"item"`
}

type PurgeResult struct {
	Message string `json:"message"`
}

type SoftDeleteResult struct {
	Message string        `json:"message"`
	Item    entity.Record `json:"item"`
}

type BulkRestoreResult struct {
	Message       string `json:"message"`
	RestoredCount int    `json:"restoredCount"`
}

type BulkPurgeResult struct {
	Message      string `json:"message"`
	DeletedCount int    `json:"deletedCount"`
}

// ServiceConfig configures the lifecycle service.
// Only Registry is required.
type ServiceConfig struct {
	Registry      *Registry
	Paging        PagePolicy
	ItemTimeout   time.Duration // per-id timeout in bulk operations; <0 disables
	MaxBulkIDs    int
	RestorePolicy security.RestorePolicy
	Recorder      Recorder
	Observer      Observer
	Clock         func() time.Time
}

// Service is the entity-agnostic trash lifecycle. It holds no per-request
// state and is safe for concurrent use.
type Service struct {
	registry    *Registry
	paging      PagePolicy
	itemTimeout time.Duration
	maxBulkIDs  int
	policy      security.RestorePolicy
	openPolicy  bool
	recorder    Recorder
	observer    Observer
	now         func() time.Time
}

// NewService creates a lifecycle service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Registry == nil {
		return nil, fmt.Errorf("lifecycle: registry is required")
	}

	s := &Service{
		registry:    cfg.Registry,
		paging:      cfg.Paging.defaults(),
		itemTimeout: cfg.ItemTimeout,
		maxBulkIDs:  cfg.MaxBulkIDs,
		policy:      cfg.RestorePolicy,
		recorder:    cfg.Recorder,
		observer:    cfg.Observer,
		now:         cfg.Clock,
	}
	if s.itemTimeout == 0 {
		s.itemTimeout = DefaultItemTimeout
	}
	if s.maxBulkIDs <= 0 {
		s.maxBulkIDs = DefaultMaxBulkIDs
	}
	if s.policy == nil {
		s.policy = security.OpenRestorePolicy{}
	}
	_, s.openPolicy = s.policy.(security.OpenRestorePolicy)
	if s.recorder == nil {
		s.recorder = noopRecorder{}
	}
	if s.observer == nil {
		s.observer = noopObserver{}
	}
	if s.now == nil {
		s.now = func() time.Time { return time.Now().UTC() }
	}
	return s, nil
}

// Entities returns the registered entity names and labels.
func (s *Service) Entities() []EntityInfo {
	return s.registry.Entries()
}

// CheckEntity reports UnknownEntity for a name that has no trash.
func (s *Service) CheckEntity(entityName string) error {
	_, err := s.registry.Resolve(entityName)
	return err
}

// Paging returns the effective page policy.
func (s *Service) Paging() PagePolicy {
	return s.paging
}

// ListDeleted returns one page of the entity's deleted set.
func (s *Service) ListDeleted(ctx context.Context, entityName string, page, size int) (result PageResult, err error) {
	started := time.Now()
	ctx, span := s.startSpan(ctx, "ListDeleted", entityName)
	defer func() { s.finish(span, entityName, ActionList, started, err) }()

	reg, err := s.registry.lookup(entityName)
	if err != nil {
		return PageResult{}, err
	}

	req, err := s.paging.Normalize(page, size)
	if err != nil {
		return PageResult{}, err
	}

	total, err := reg.accessor.CountDeleted(ctx)
	if err != nil {
		return PageResult{}, s.normalizeErr(err, reg.def.Label, nil)
	}

	items := []entity.Record{}
	if total > int64(req.Offset) {
		found, err := reg.accessor.FindDeleted(ctx, req.Offset, req.Limit)
		if err != nil {
			return PageResult{}, s.normalizeErr(err, reg.def.Label, nil)
		}
		if found != nil {
			items = found
		}
	}

	meta := s.paging.BuildMeta(req.Page, req.Size, total)
	return PageResult{
		Items:    items,
		Current:  meta.Current,
		PageSize: meta.PageSize,
		Pages:    meta.Pages,
		Total:    meta.Total,
	}, nil
}

// Restore moves a trashed record back to active.
func (s *Service) Restore(ctx context.Context, entityName string, recordID id.ID, principal *security.Principal) (result RestoreResult, err error) {
	started := time.Now()
	ctx, span := s.startSpan(ctx, "Restore", entityName, attribute.String("id", recordID.String()))
	defer func() { s.finish(span, entityName, ActionRestore, started, err) }()

	reg, err := s.registry.lookup(entityName)
	if err != nil {
		return RestoreResult{}, err
	}

	rec, err := s.restoreOne(ctx, entityName, reg, recordID, principal)
	if err != nil {
		return RestoreResult{}, err
	}

	logger.Info(ctx, "record restored", "entity", entityName, "id", recordID.String())
	return RestoreResult{
		Message: fmt.Sprintf("%s restored successfully", reg.def.Label),
		Item:    rec,
	}, nil
}

// Purge permanently deletes a trashed record.
func (s *Service) Purge(ctx context.Context, entityName string, recordID id.ID, principal *security.Principal) (result PurgeResult, err error) {
	started := time.Now()
	ctx, span := s.startSpan(ctx, "Purge", entityName, attribute.String("id", recordID.String()))
	defer func() { s.finish(span, entityName, ActionPurge, started, err) }()

	reg, err := s.registry.lookup(entityName)
	if err != nil {
		return PurgeResult{}, err
	}

	if err := s.purgeOne(ctx, entityName, reg, recordID, principal); err != nil {
		return PurgeResult{}, err
	}

	logger.Info(ctx, "record purged", "entity", entityName, "id", recordID.String())
	return PurgeResult{Message: fmt.Sprintf("%s permanently deleted", reg.def.Label)}, nil
}

// SoftDelete moves an active record to the trash attributed to principal.
// Deleting an already-trashed record is a no-op that keeps the original attribution.
func (s *Service) SoftDelete(ctx context.Context, entityName string, recordID id.ID, principal *security.Principal) (result SoftDeleteResult, err error) {
	started := time.Now()
	ctx, span := s.startSpan(ctx, "SoftDelete", entityName, attribute.String("id", recordID.String()))
	defer func() { s.finish(span, entityName, ActionSoftDelete, started, err) }()

	reg, err := s.registry.lookup(entityName)
	if err != nil {
		return SoftDeleteResult{}, err
	}

	actor := audit.Attribution(principal)
	rec, err := reg.accessor.SoftDelete(ctx, recordID, actor)
	if err != nil {
		return SoftDeleteResult{}, s.normalizeErr(err, reg.def.Label, recordID)
	}
	s.record(ctx, Event{Entity: entityName, EntityID: recordID, Action: ActionSoftDelete, Actor: actor, Snapshot: rec})

	logger.Info(ctx, "record moved to trash", "entity", entityName, "id", recordID.String())
	return SoftDeleteResult{
		Message: fmt.Sprintf("%s moved to trash", reg.def.Label),
		Item:    rec,
	}, nil
}

func (s *Service) restoreOne(ctx context.Context, entityName string, reg registered, recordID id.ID, principal *security.Principal) (entity.Record, error) {
	if !s.openPolicy {
		current, err := reg.accessor.GetDeleted(ctx, recordID)
		if err != nil {
			return nil, s.normalizeErr(err, reg.def.Label, recordID)
		}
		if err := s.policy.CanRestore(ctx, principal, current.SoftDeleteState().DeletedBy); err != nil {
			if apperror.IsAppError(err) {
				return nil, err
			}
			return nil, apperror.NewInternal(err)
		}
	}

	rec, err := reg.accessor.Restore(ctx, recordID)
	if err != nil {
		return nil, s.normalizeErr(err, reg.def.Label, recordID)
	}
	s.record(ctx, Event{Entity: entityName, EntityID: recordID, Action: ActionRestore, Actor: audit.Attribution(principal), Snapshot: rec})
	return rec, nil
}

func (s *Service) purgeOne(ctx context.Context, entityName string, reg registered, recordID id.ID, principal *security.Principal) error {
	last, err := reg.accessor.PermanentDelete(ctx, recordID)
	if err != nil {
		return s.normalizeErr(err, reg.def.Label, recordID)
	}
	s.record(ctx, Event{Entity: entityName, EntityID: recordID, Action: ActionPurge, Actor: audit.Attribution(principal), Snapshot: last})
	return nil
}

// record hands the event to the recorder; a failing audit log never fails
// the mutation that already committed.
func (s *Service) record(ctx context.Context, ev Event) {
	if ev.At.IsZero() {
		ev.At = s.now()
	}
	if err := s.recorder.Record(ctx, ev); err != nil {
		logger.Error(ctx, "failed to record lifecycle event",
			"entity", ev.Entity, "id", ev.EntityID.String(), "action", string(ev.Action), "error", err)
	}
}

// normalizeErr keeps AppErrors (re-labelling NotFound with the entity label)
// and hides everything else behind INTERNAL_ERROR.
func (s *Service) normalizeErr(err error, label string, recordID any) error {
	if err == nil {
		return nil
	}
	if apperror.IsNotFound(err) {
		if rid, ok := recordID.(id.ID); ok {
			return apperror.NewNotFound(label, rid.String())
		}
		return err
	}
	if apperror.IsAppError(err) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return apperror.NewTimeout(err)
	}
	return apperror.NewInternal(err)
}

func (s *Service) startSpan(ctx context.Context, op, entityName string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	attrs = append(attrs, attribute.String("entity", entityName))
	return tracer.Start(ctx, "lifecycle."+op, trace.WithAttributes(attrs...))
}

func (s *Service) finish(span trace.Span, entityName string, action Action, started time.Time, err error) {
	outcome := outcomeOK
	if apperror.IsUnknownEntity(err) {
		entityName = "unknown"
	}
	if err != nil {
		outcome = outcomeError
		span.RecordError(err)
		span.SetStatus(codes.Error, apperror.CodeOf(err))
	}
	span.End()
	s.observer.ObserveOperation(entityName, action, outcome, started)
}
