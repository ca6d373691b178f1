package lifecycle

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"recyclebin/internal/core/apperror"
	"recyclebin/internal/core/id"
	"recyclebin/internal/core/security"
	"recyclebin/pkg/logger"
)

// BulkRestore restores every id that is currently in the trash.
// Ids that are missing, active or fail individually are skipped and not counted.
// The nil id never names a record and is skipped without a storage call.
// If ctx is cancelled mid-batch the count of ids restored so far is returned
// without an error.
func (s *Service) BulkRestore(ctx context.Context, entityName string, ids []id.ID, principal *security.Principal) (result BulkRestoreResult, err error) {
	started := time.Now()
	ctx, span := s.startSpan(ctx, "BulkRestore", entityName, attribute.Int("requested", len(ids)))
	defer func() { s.finish(span, entityName, ActionRestore, started, err) }()

	reg, err := s.registry.lookup(entityName)
	if err != nil {
		return BulkRestoreResult{}, err
	}
	set, err := s.normalizeIDs(ids)
	if err != nil {
		return BulkRestoreResult{}, err
	}

	count := s.runBatch(ctx, entityName, ActionRestore, set, func(itemCtx context.Context, recordID id.ID) error {
		_, err := s.restoreOne(itemCtx, entityName, reg, recordID, principal)
		return err
	})
	span.SetAttributes(attribute.Int("applied", count))

	logger.Info(ctx, "bulk restore finished", "entity", entityName, "requested", len(set), "restored", count)
	return BulkRestoreResult{
		Message:       fmt.Sprintf("%d %s restored", count, entityName),
		RestoredCount: count,
	}, nil
}

// BulkPurge permanently deletes every id that is currently in the trash.
// Active records are never purged; like missing ids they are skipped.
func (s *Service) BulkPurge(ctx context.Context, entityName string, ids []id.ID, principal *security.Principal) (result BulkPurgeResult, err error) {
	started := time.Now()
	ctx, span := s.startSpan(ctx, "BulkPurge", entityName, attribute.Int("requested", len(ids)))
	defer func() { s.finish(span, entityName, ActionPurge, started, err) }()

	reg, err := s.registry.lookup(entityName)
	if err != nil {
		return BulkPurgeResult{}, err
	}
	set, err := s.normalizeIDs(ids)
	if err != nil {
		return BulkPurgeResult{}, err
	}

	count := s.runBatch(ctx, entityName, ActionPurge, set, func(itemCtx context.Context, recordID id.ID) error {
		return s.purgeOne(itemCtx, entityName, reg, recordID, principal)
	})
	span.SetAttributes(attribute.Int("applied", count))

	logger.Info(ctx, "bulk purge finished", "entity", entityName, "requested", len(set), "deleted", count)
	return BulkPurgeResult{
		Message:      fmt.Sprintf("%d %s permanently deleted", count, entityName),
		DeletedCount: count,
	}, nil
}

// normalizeIDs de-duplicates ids keeping first-seen order.
func (s *Service) normalizeIDs(ids []id.ID) ([]id.ID, error) {
	if len(ids) == 0 {
		return nil, apperror.NewFieldValidation("ids", "ids must not be empty")
	}

	seen := make(map[id.ID]struct{}, len(ids))
	out := make([]id.ID, 0, len(ids))
	for _, v := range ids {
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}

	if len(out) > s.maxBulkIDs {
		return nil, apperror.NewFieldValidation("ids", fmt.Sprintf("at most %d ids per request", s.maxBulkIDs)).
			WithDetail("count", len(out))
	}
	return out, nil
}

// runBatch applies fn to each id sequentially and returns how many succeeded.
// Every id gets its own timeout so one slow record cannot stall the batch.
func (s *Service) runBatch(ctx context.Context, entityName string, action Action, ids []id.ID, fn func(context.Context, id.ID) error) int {
	applied := 0
	for i, recordID := range ids {
		if err := ctx.Err(); err != nil {
			logger.Warn(ctx, "bulk operation interrupted",
				"entity", entityName, "action", string(action),
				"processed", i, "remaining", len(ids)-i, "error", err)
			break
		}

		if id.IsNil(recordID) {
			s.logSkipped(ctx, entityName, action, recordID, apperror.NewNotFound(entityName, recordID.String()))
			continue
		}

		itemCtx, cancel := s.itemContext(ctx)
		err := fn(itemCtx, recordID)
		cancel()

		if err == nil {
			applied++
			continue
		}
		s.logSkipped(ctx, entityName, action, recordID, err)
	}

	s.observer.ObserveBulk(entityName, action, len(ids), applied)
	return applied
}

func (s *Service) itemContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.itemTimeout > 0 {
		return context.WithTimeout(ctx, s.itemTimeout)
	}
	return context.WithCancel(ctx)
}

func (s *Service) logSkipped(ctx context.Context, entityName string, action Action, recordID id.ID, err error) {
	kv := []any{"entity", entityName, "action", string(action), "id", recordID.String(), "code", apperror.CodeOf(err)}
	switch {
	case apperror.IsNotFound(err), apperror.IsConflict(err), apperror.IsForbidden(err):
		logger.Debug(ctx, "bulk item skipped", kv...)
	default:
		logger.Warn(ctx, "bulk item failed", append(kv, "error", err)...)
	}
}
