package postgres

import (
	"context"
	"fmt"

	"github.com/klauspost/compress/zstd"

	"gasworld/internal/core/id"
	"gasworld/internal/domain/audit"
	"gasworld/pkg/logger"
)

// CompressionAlgo specifies the compression algorithm used for payloads.
type CompressionAlgo string

const (
	CompressionNone CompressionAlgo = "none"
	CompressionZstd CompressionAlgo = "zstd"
)

// compressThreshold is the payload size above which zstd kicks in.
const compressThreshold = 10 * 1024

// Compile-time check that AuditSink implements audit.Sink.
var _ audit.Sink = (*AuditSink)(nil)

// AuditSink persists audit entries to sys_audit. Large payloads are stored
// zstd-compressed. Writes are best-effort: a failed audit insert is logged
// and never fails the business operation.
type AuditSink struct {
	txManager *TxManager
	encoder   *zstd.Encoder
	decoder   *zstd.Decoder
}

// NewAuditSink creates a database-backed audit sink.
func NewAuditSink(txManager *TxManager) (*AuditSink, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}
	return &AuditSink{txManager: txManager, encoder: encoder, decoder: decoder}, nil
}

// Record stores one audit entry.
func (s *AuditSink) Record(ctx context.Context, entry audit.Entry) {
	payload := entry.Changes
	var compressed []byte
	algo := CompressionNone
	if len(payload) > compressThreshold {
		compressed = s.encoder.EncodeAll(payload, nil)
		payload = nil
		algo = CompressionZstd
	}

	sql := `
		INSERT INTO sys_audit (
			id, action, entity_type, entity_id, actor_id,
			payload, payload_compressed, compression_algo, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	querier := s.txManager.GetQuerier(ctx)
	_, err := querier.Exec(ctx, sql,
		entry.ID, entry.Action, entry.EntityType, entry.EntityID, entry.ActorID,
		payload, compressed, algo, entry.CreatedAt,
	)
	if err != nil {
		logger.Error(ctx, "audit write failed", "action", entry.Action, "entity_id", entry.EntityID, "error", err)
	}
}

// History retrieves audit entries for an entity, newest first.
func (s *AuditSink) History(ctx context.Context, entityType string, entityID id.ID, limit int) ([]audit.Entry, error) {
	sql := `
		SELECT id, action, entity_type, entity_id, actor_id,
		       payload, payload_compressed, compression_algo, created_at
		FROM sys_audit
		WHERE entity_type = $1 AND entity_id = $2
		ORDER BY created_at DESC
		LIMIT $3
	`
	rows, err := s.txManager.GetQuerier(ctx).Query(ctx, sql, entityType, entityID, limit)
	if err != nil {
		return nil, fmt.Errorf("query audit history: %w", err)
	}
	defer rows.Close()

	var entries []audit.Entry
	for rows.Next() {
		var e audit.Entry
		var compressed []byte
		var algo CompressionAlgo
		err := rows.Scan(
			&e.ID, &e.Action, &e.EntityType, &e.EntityID, &e.ActorID,
			&e.Changes, &compressed, &algo, &e.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		if algo == CompressionZstd && len(compressed) > 0 {
			decompressed, err := s.decoder.DecodeAll(compressed, nil)
			if err != nil {
				return nil, fmt.Errorf("decompress audit payload: %w", err)
			}
			e.Changes = decompressed
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
