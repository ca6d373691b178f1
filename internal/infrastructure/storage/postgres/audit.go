package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/klauspost/compress/zstd"

	"recyclebin/internal/core/id"
	"recyclebin/internal/domain/lifecycle"
)

// CompressionAlgo specifies how a snapshot is stored.
type CompressionAlgo string

const (
	CompressionNone CompressionAlgo = "none"
	CompressionZstd CompressionAlgo = "zstd"
)

// defaultCompressThreshold is the snapshot size above which zstd kicks in.
const defaultCompressThreshold = 4 * 1024

// AuditEntry is one row of sys_audit.
type AuditEntry struct {
	ID                id.ID            `db:"id" json:"id"`
	EntityType        string           `db:"entity_type" json:"entityType"`
	EntityID          id.ID            `db:"entity_id" json:"entityId"`
	Action            lifecycle.Action `db:"action" json:"action"`
	UserID            string           `db:"user_id" json:"userId"`
	UserEmail         string           `db:"user_email" json:"userEmail"`
	Changes           json.RawMessage  `db:"changes" json:"changes,omitempty"`
	ChangesCompressed []byte           `db:"changes_compressed" json:"-"`
	CompressionAlgo   CompressionAlgo  `db:"compression_algo" json:"compressionAlgo"`
	CreatedAt         time.Time        `db:"created_at" json:"createdAt"`
}

// AuditRecorder writes lifecycle events to sys_audit.
// It implements lifecycle.Recorder.
type AuditRecorder struct {
	txManager         *TxManager
	encoder           *zstd.Encoder
	decoder           *zstd.Decoder
	compressThreshold int
}

var _ lifecycle.Recorder = (*AuditRecorder)(nil)

// NewAuditRecorder creates a recorder. The zstd encoder and decoder are
// safe for concurrent EncodeAll/DecodeAll calls.
func NewAuditRecorder(txManager *TxManager) (*AuditRecorder, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}
	return &AuditRecorder{
		txManager:         txManager,
		encoder:           encoder,
		decoder:           decoder,
		compressThreshold: defaultCompressThreshold,
	}, nil
}

// Close releases the zstd decoder.
func (r *AuditRecorder) Close() {
	r.decoder.Close()
}

// Record implements lifecycle.Recorder.
func (r *AuditRecorder) Record(ctx context.Context, ev lifecycle.Event) error {
	entry := AuditEntry{
		ID:         id.New(),
		EntityType: ev.Entity,
		EntityID:   ev.EntityID,
		Action:     ev.Action,
		CreatedAt:  ev.At,
	}
	if ev.Actor != nil {
		entry.UserID = ev.Actor.ID
		entry.UserEmail = ev.Actor.Email
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	if ev.Snapshot != nil {
		snapshot, err := json.Marshal(ev.Snapshot)
		if err != nil {
			return fmt.Errorf("marshal snapshot: %w", err)
		}
		entry.Changes = snapshot
	}
	r.compress(&entry)

	const sql = `
		INSERT INTO sys_audit (
			id, entity_type, entity_id, action, user_id, user_email,
			changes, changes_compressed, compression_algo, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql,
		entry.ID.String(), entry.EntityType, entry.EntityID.String(), string(entry.Action),
		entry.UserID, entry.UserEmail,
		nullableJSON(entry.Changes), entry.ChangesCompressed, string(entry.CompressionAlgo),
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

// compress moves snapshots above the threshold into changes_compressed.
func (r *AuditRecorder) compress(entry *AuditEntry) {
	entry.CompressionAlgo = CompressionNone
	if len(entry.Changes) > r.compressThreshold {
		entry.ChangesCompressed = r.encoder.EncodeAll(entry.Changes, nil)
		entry.Changes = nil
		entry.CompressionAlgo = CompressionZstd
	}
}

func (r *AuditRecorder) decompress(entry *AuditEntry) error {
	if entry.CompressionAlgo != CompressionZstd || len(entry.ChangesCompressed) == 0 {
		return nil
	}
	raw, err := r.decoder.DecodeAll(entry.ChangesCompressed, nil)
	if err != nil {
		return fmt.Errorf("decompress changes: %w", err)
	}
	entry.Changes = raw
	entry.ChangesCompressed = nil
	return nil
}

// History returns the newest lifecycle events for one record.
func (r *AuditRecorder) History(ctx context.Context, entityType string, entityID id.ID, limit int) ([]AuditEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	sql, args, err := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar).
		Select("id", "entity_type", "entity_id", "action", "user_id", "user_email",
			"changes", "changes_compressed", "compression_algo", "created_at").
		From("sys_audit").
		Where(squirrel.Eq{"entity_type": entityType, "entity_id": entityID.String()}).
		OrderBy("created_at DESC", "id DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build history query: %w", err)
	}

	var entries []AuditEntry
	err = r.txManager.ReadOnly(ctx, func(ctx context.Context) error {
		return pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &entries, sql, args...)
	})
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	for i := range entries {
		if err := r.decompress(&entries[i]); err != nil {
			return nil, err
		}
	}
	return entries, nil
}

func nullableJSON(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}
