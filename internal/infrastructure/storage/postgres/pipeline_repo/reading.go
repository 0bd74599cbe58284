package pipeline_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"gasworld/internal/core/apperror"
	"gasworld/internal/core/id"
	"gasworld/internal/domain/reading"
	"gasworld/internal/infrastructure/storage/postgres"
)

const readingTable = "pump_readings"

var readingCols = []string{
	"id", "pump_id", "attendant_id", "opening_meter", "closing_meter",
	"rate", "status", "timestamp", "created_at", "updated_at",
}

// Compile-time check that ReadingRepo implements reading.Repository.
var _ reading.Repository = (*ReadingRepo)(nil)

// ReadingRepo implements reading.Repository.
type ReadingRepo struct {
	txManager *postgres.TxManager
}

// NewReadingRepo creates a reading repository.
func NewReadingRepo(txManager *postgres.TxManager) *ReadingRepo {
	return &ReadingRepo{txManager: txManager}
}

func (r *ReadingRepo) Create(ctx context.Context, pr *reading.PumpReading) error {
	sql, args, err := builder().
		Insert(readingTable).
		Columns(readingCols...).
		Values(pr.ID, pr.PumpID, pr.AttendantID, pr.OpeningMeter, pr.ClosingMeter,
			pr.Rate, pr.Status, pr.Timestamp, pr.CreatedAt, pr.UpdatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	_, err = r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	return postgres.MapError(err, "pump reading", pr.ID)
}

func (r *ReadingRepo) Update(ctx context.Context, pr *reading.PumpReading) error {
	sql, args, err := builder().
		Update(readingTable).
		SetMap(map[string]any{
			"closing_meter": pr.ClosingMeter,
			"rate":          pr.Rate,
			"status":        pr.Status,
			"updated_at":    pr.UpdatedAt,
		}).
		Where(squirrel.Eq{"id": pr.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}
	tag, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return postgres.MapError(err, "pump reading", pr.ID)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("pump reading", pr.ID)
	}
	return nil
}

func (r *ReadingRepo) GetByID(ctx context.Context, readingID id.ID) (*reading.PumpReading, error) {
	return r.get(ctx, readingID, false)
}

// GetForUpdate locks the reading row for the duration of the transaction.
func (r *ReadingRepo) GetForUpdate(ctx context.Context, readingID id.ID) (*reading.PumpReading, error) {
	return r.get(ctx, readingID, true)
}

func (r *ReadingRepo) get(ctx context.Context, readingID id.ID, forUpdate bool) (*reading.PumpReading, error) {
	q := builder().
		Select(readingCols...).
		From(readingTable).
		Where(squirrel.Eq{"id": readingID})
	if forUpdate {
		q = q.Suffix("FOR UPDATE")
	}
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}
	var pr reading.PumpReading
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &pr, sql, args...); err != nil {
		return nil, postgres.MapError(err, "pump reading", readingID)
	}
	return &pr, nil
}

// GetLastByPump returns the pump's most recent reading by timestamp, or nil
// when the pump has no history.
func (r *ReadingRepo) GetLastByPump(ctx context.Context, pumpID id.ID) (*reading.PumpReading, error) {
	sql, args, err := builder().
		Select(readingCols...).
		From(readingTable).
		Where(squirrel.Eq{"pump_id": pumpID}).
		OrderBy("timestamp DESC", "created_at DESC").
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}
	var pr reading.PumpReading
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &pr, sql, args...); err != nil {
		if apperror.IsNotFound(postgres.MapError(err, "pump reading", pumpID)) {
			return nil, nil
		}
		return nil, fmt.Errorf("last reading: %w", err)
	}
	return &pr, nil
}

func (r *ReadingRepo) SetStatus(ctx context.Context, readingID id.ID, status reading.Status) error {
	sql, args, err := builder().
		Update(readingTable).
		Set("status", status).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": readingID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}
	tag, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return postgres.MapError(err, "pump reading", readingID)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("pump reading", readingID)
	}
	return nil
}

func (r *ReadingRepo) ListByPump(ctx context.Context, pumpID id.ID) ([]*reading.PumpReading, error) {
	return r.list(ctx, squirrel.Eq{"pump_id": pumpID}, "timestamp ASC", 0)
}

func (r *ReadingRepo) ListByStation(ctx context.Context, stationID id.ID) ([]*reading.PumpReading, error) {
	sql, args, err := builder().
		Select(prefixed(readingCols, "r.")...).
		From(readingTable + " r").
		Join("pumps p ON p.id = r.pump_id").
		Where(squirrel.Eq{"p.station_id": stationID}).
		OrderBy("r.timestamp DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}
	var out []*reading.PumpReading
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &out, sql, args...); err != nil {
		return nil, fmt.Errorf("list readings: %w", err)
	}
	return out, nil
}

func (r *ReadingRepo) ListByAttendant(ctx context.Context, attendantID id.ID, limit int) ([]*reading.PumpReading, error) {
	return r.list(ctx, squirrel.Eq{"attendant_id": attendantID}, "timestamp DESC", limit)
}

func (r *ReadingRepo) ListIDsByAttendant(ctx context.Context, attendantID id.ID, limit int) ([]id.ID, error) {
	q := builder().
		Select("id").
		From(readingTable).
		Where(squirrel.Eq{"attendant_id": attendantID}).
		OrderBy("timestamp DESC")
	if limit > 0 {
		q = q.Limit(uint64(limit))
	}
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}
	var out []id.ID
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &out, sql, args...); err != nil {
		return nil, fmt.Errorf("list reading ids: %w", err)
	}
	return out, nil
}

func (r *ReadingRepo) list(ctx context.Context, where squirrel.Eq, order string, limit int) ([]*reading.PumpReading, error) {
	q := builder().
		Select(readingCols...).
		From(readingTable).
		Where(where).
		OrderBy(order)
	if limit > 0 {
		q = q.Limit(uint64(limit))
	}
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}
	var out []*reading.PumpReading
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &out, sql, args...); err != nil {
		return nil, fmt.Errorf("list readings: %w", err)
	}
	return out, nil
}

func prefixed(cols []string, prefix string) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = prefix + c
	}
	return out
}
