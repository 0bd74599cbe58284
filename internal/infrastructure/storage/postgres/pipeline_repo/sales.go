package pipeline_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"gasworld/internal/core/apperror"
	"gasworld/internal/core/id"
	"gasworld/internal/domain/sales"
	"gasworld/internal/infrastructure/storage/postgres"
)

const salesTable = "sales"

var salesCols = []string{
	"id", "number", "pump_reading_id", "station_id", "attendant_id",
	"expected_amount", "cash", "transfer", "pos", "expenses",
	"shortage_or_excess", "is_active", "created_at", "updated_at",
}

// Compile-time check that SalesRepo implements sales.Repository.
var _ sales.Repository = (*SalesRepo)(nil)

// SalesRepo implements sales.Repository.
type SalesRepo struct {
	txManager *postgres.TxManager
}

// NewSalesRepo creates a sales repository.
func NewSalesRepo(txManager *postgres.TxManager) *SalesRepo {
	return &SalesRepo{txManager: txManager}
}

func (r *SalesRepo) Create(ctx context.Context, s *sales.Sales) error {
	sql, args, err := builder().
		Insert(salesTable).
		Columns(salesCols...).
		Values(s.ID, s.Number, s.PumpReadingID, s.StationID, s.AttendantID,
			s.ExpectedAmount, s.Cash, s.Transfer, s.POS, s.Expenses,
			s.ShortageOrExcess, s.IsActive, s.CreatedAt, s.UpdatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	_, err = r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	return postgres.MapError(err, "sales", s.PumpReadingID)
}

func (r *SalesRepo) Update(ctx context.Context, s *sales.Sales) error {
	sql, args, err := builder().
		Update(salesTable).
		SetMap(map[string]any{
			"cash":               s.Cash,
			"transfer":           s.Transfer,
			"pos":                s.POS,
			"expenses":           s.Expenses,
			"shortage_or_excess": s.ShortageOrExcess,
			"is_active":          s.IsActive,
			"updated_at":         s.UpdatedAt,
		}).
		Where(squirrel.Eq{"id": s.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}
	tag, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return postgres.MapError(err, "sales", s.ID)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("sales", s.ID)
	}
	return nil
}

func (r *SalesRepo) GetByID(ctx context.Context, salesID id.ID) (*sales.Sales, error) {
	return r.get(ctx, squirrel.Eq{"id": salesID}, salesID, false)
}

// GetForUpdate locks the sales row for the duration of the transaction.
func (r *SalesRepo) GetForUpdate(ctx context.Context, salesID id.ID) (*sales.Sales, error) {
	return r.get(ctx, squirrel.Eq{"id": salesID}, salesID, true)
}

func (r *SalesRepo) GetByReading(ctx context.Context, readingID id.ID) (*sales.Sales, error) {
	return r.get(ctx, squirrel.Eq{"pump_reading_id": readingID}, readingID, false)
}

func (r *SalesRepo) get(ctx context.Context, where squirrel.Eq, key any, forUpdate bool) (*sales.Sales, error) {
	q := builder().
		Select(salesCols...).
		From(salesTable).
		Where(where)
	if forUpdate {
		q = q.Suffix("FOR UPDATE")
	}
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}
	var s sales.Sales
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &s, sql, args...); err != nil {
		return nil, postgres.MapError(err, "sales", key)
	}
	return &s, nil
}

func (r *SalesRepo) ExistsByReading(ctx context.Context, readingID id.ID) (bool, error) {
	sql, args, err := builder().
		Select("1").
		From(salesTable).
		Where(squirrel.Eq{"pump_reading_id": readingID}).
		Limit(1).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build select: %w", err)
	}
	var one int
	err = r.txManager.GetQuerier(ctx).QueryRow(ctx, sql, args...).Scan(&one)
	if err != nil {
		if apperror.IsNotFound(postgres.MapError(err, "sales", readingID)) {
			return false, nil
		}
		return false, fmt.Errorf("exists sales: %w", err)
	}
	return true, nil
}

func (r *SalesRepo) ListByStation(ctx context.Context, stationID id.ID) ([]*sales.Sales, error) {
	return r.list(ctx, squirrel.Eq{"station_id": stationID})
}

func (r *SalesRepo) ListByAttendant(ctx context.Context, attendantID id.ID) ([]*sales.Sales, error) {
	return r.list(ctx, squirrel.Eq{"attendant_id": attendantID})
}

func (r *SalesRepo) list(ctx context.Context, where squirrel.Eq) ([]*sales.Sales, error) {
	sql, args, err := builder().
		Select(salesCols...).
		From(salesTable).
		Where(where).
		OrderBy("created_at DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}
	var out []*sales.Sales
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &out, sql, args...); err != nil {
		return nil, fmt.Errorf("list sales: %w", err)
	}
	return out, nil
}
