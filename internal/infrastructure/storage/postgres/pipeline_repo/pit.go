package pipeline_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/shopspring/decimal"

	"gasworld/internal/core/apperror"
	"gasworld/internal/core/id"
	"gasworld/internal/domain/pit"
	"gasworld/internal/infrastructure/storage/postgres"
)

const (
	pitTable        = "pits"
	pitReadingTable = "pit_readings"
)

var pitCols = []string{
	"id", "station_id", "product_id", "name",
	"current_volume", "max_volume", "created_at", "updated_at",
}

var pitReadingCols = []string{
	"id", "pit_id", "reading_id", "opening_stock", "closing_stock",
	"actual_closing_stock", "supply", "timestamp", "created_at", "updated_at",
}

// Compile-time check that PitRepo implements pit.Repository.
var _ pit.Repository = (*PitRepo)(nil)

// PitRepo implements pit.Repository.
type PitRepo struct {
	txManager *postgres.TxManager
}

// NewPitRepo creates a pit repository.
func NewPitRepo(txManager *postgres.TxManager) *PitRepo {
	return &PitRepo{txManager: txManager}
}

func (r *PitRepo) Create(ctx context.Context, p *pit.Pit) error {
	sql, args, err := builder().
		Insert(pitTable).
		Columns(pitCols...).
		Values(p.ID, p.StationID, p.ProductID, p.Name,
			p.CurrentVolume, p.MaxVolume, p.CreatedAt, p.UpdatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	_, err = r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	return postgres.MapError(err, "pit", p.ID)
}

func (r *PitRepo) GetByID(ctx context.Context, pitID id.ID) (*pit.Pit, error) {
	return r.get(ctx, pitID, false)
}

// GetForUpdate locks the pit row for the duration of the transaction.
func (r *PitRepo) GetForUpdate(ctx context.Context, pitID id.ID) (*pit.Pit, error) {
	return r.get(ctx, pitID, true)
}

func (r *PitRepo) get(ctx context.Context, pitID id.ID, forUpdate bool) (*pit.Pit, error) {
	q := builder().
		Select(pitCols...).
		From(pitTable).
		Where(squirrel.Eq{"id": pitID})
	if forUpdate {
		q = q.Suffix("FOR UPDATE")
	}
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}
	var p pit.Pit
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &p, sql, args...); err != nil {
		return nil, postgres.MapError(err, "pit", pitID)
	}
	return &p, nil
}

func (r *PitRepo) ListByStation(ctx context.Context, stationID id.ID) ([]*pit.Pit, error) {
	sql, args, err := builder().
		Select(pitCols...).
		From(pitTable).
		Where(squirrel.Eq{"station_id": stationID}).
		OrderBy("name").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}
	var out []*pit.Pit
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &out, sql, args...); err != nil {
		return nil, fmt.Errorf("list pits: %w", err)
	}
	return out, nil
}

func (r *PitRepo) UpdateVolume(ctx context.Context, pitID id.ID, volume decimal.Decimal) error {
	sql, args, err := builder().
		Update(pitTable).
		Set("current_volume", volume).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": pitID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}
	tag, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return postgres.MapError(err, "pit", pitID)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("pit", pitID)
	}
	return nil
}

func (r *PitRepo) Delete(ctx context.Context, pitID id.ID) error {
	sql, args, err := builder().
		Delete(pitTable).
		Where(squirrel.Eq{"id": pitID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}
	tag, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return postgres.MapError(err, "pit", pitID)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("pit", pitID)
	}
	return nil
}

func (r *PitRepo) CreateReading(ctx context.Context, pr *pit.PitReading) error {
	sql, args, err := builder().
		Insert(pitReadingTable).
		Columns(pitReadingCols...).
		Values(pr.ID, pr.PitID, pr.ReadingID, pr.OpeningStock, pr.ClosingStock,
			pr.ActualClosingStock, pr.Supply, pr.Timestamp, pr.CreatedAt, pr.UpdatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	_, err = r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	return postgres.MapError(err, "pit reading", pr.ID)
}

func (r *PitRepo) ExistsByReading(ctx context.Context, readingID id.ID) (bool, error) {
	sql, args, err := builder().
		Select("1").
		From(pitReadingTable).
		Where(squirrel.Eq{"reading_id": readingID}).
		Limit(1).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build select: %w", err)
	}
	var one int
	err = r.txManager.GetQuerier(ctx).QueryRow(ctx, sql, args...).Scan(&one)
	if err != nil {
		if apperror.IsNotFound(postgres.MapError(err, "pit reading", readingID)) {
			return false, nil
		}
		return false, fmt.Errorf("exists pit reading: %w", err)
	}
	return true, nil
}

func (r *PitRepo) ListReadingsByPit(ctx context.Context, pitID id.ID) ([]*pit.PitReading, error) {
	sql, args, err := builder().
		Select(pitReadingCols...).
		From(pitReadingTable).
		Where(squirrel.Eq{"pit_id": pitID}).
		OrderBy("timestamp DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}
	var out []*pit.PitReading
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &out, sql, args...); err != nil {
		return nil, fmt.Errorf("list pit readings: %w", err)
	}
	return out, nil
}

// SumLitersSoldByPit aggregates closing minus opening meters across every
// closed reading on pumps drawing from the pit.
func (r *PitRepo) SumLitersSoldByPit(ctx context.Context, pitID id.ID) (decimal.Decimal, error) {
	sql := `
		SELECT COALESCE(SUM(r.closing_meter - r.opening_meter), 0)
		FROM pump_readings r
		JOIN pumps p ON p.id = r.pump_id
		WHERE p.pit_id = $1 AND r.closing_meter IS NOT NULL
	`
	var sum decimal.Decimal
	if err := r.txManager.GetQuerier(ctx).QueryRow(ctx, sql, pitID).Scan(&sum); err != nil {
		return decimal.Zero, fmt.Errorf("sum liters sold: %w", err)
	}
	return sum, nil
}
