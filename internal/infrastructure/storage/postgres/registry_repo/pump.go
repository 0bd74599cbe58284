package registry_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"gasworld/internal/core/apperror"
	"gasworld/internal/core/id"
	"gasworld/internal/domain/product"
	"gasworld/internal/infrastructure/storage/postgres"
)

const pumpTable = "pumps"

var pumpCols = []string{
	"id", "station_id", "product_id", "pit_id", "name",
	"initial_meter", "created_at", "updated_at",
}

// Compile-time check that PumpRepo implements product.PumpRepository.
var _ product.PumpRepository = (*PumpRepo)(nil)

// PumpRepo implements product.PumpRepository.
type PumpRepo struct {
	txManager *postgres.TxManager
}

// NewPumpRepo creates a pump repository.
func NewPumpRepo(txManager *postgres.TxManager) *PumpRepo {
	return &PumpRepo{txManager: txManager}
}

func (r *PumpRepo) Create(ctx context.Context, p *product.Pump) error {
	sql, args, err := builder().
		Insert(pumpTable).
		Columns(pumpCols...).
		Values(p.ID, p.StationID, p.ProductID, p.PitID, p.Name,
			p.InitialMeter, p.CreatedAt, p.UpdatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	_, err = r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	return postgres.MapError(err, "pump", p.ID)
}

func (r *PumpRepo) GetByID(ctx context.Context, pumpID id.ID) (*product.Pump, error) {
	return r.get(ctx, pumpID, false)
}

// GetForUpdate locks the pump row for the duration of the transaction.
func (r *PumpRepo) GetForUpdate(ctx context.Context, pumpID id.ID) (*product.Pump, error) {
	return r.get(ctx, pumpID, true)
}

func (r *PumpRepo) get(ctx context.Context, pumpID id.ID, forUpdate bool) (*product.Pump, error) {
	q := builder().
		Select(pumpCols...).
		From(pumpTable).
		Where(squirrel.Eq{"id": pumpID})
	if forUpdate {
		q = q.Suffix("FOR UPDATE")
	}
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}
	var p product.Pump
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &p, sql, args...); err != nil {
		return nil, postgres.MapError(err, "pump", pumpID)
	}
	return &p, nil
}

func (r *PumpRepo) ListByStation(ctx context.Context, stationID id.ID) ([]*product.Pump, error) {
	return r.list(ctx, squirrel.Eq{"station_id": stationID})
}

func (r *PumpRepo) ListByPit(ctx context.Context, pitID id.ID) ([]*product.Pump, error) {
	return r.list(ctx, squirrel.Eq{"pit_id": pitID})
}

func (r *PumpRepo) ListByProduct(ctx context.Context, productID id.ID) ([]*product.Pump, error) {
	return r.list(ctx, squirrel.Eq{"product_id": productID})
}

func (r *PumpRepo) list(ctx context.Context, where squirrel.Eq) ([]*product.Pump, error) {
	sql, args, err := builder().
		Select(pumpCols...).
		From(pumpTable).
		Where(where).
		OrderBy("name").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}
	var out []*product.Pump
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &out, sql, args...); err != nil {
		return nil, fmt.Errorf("list pumps: %w", err)
	}
	return out, nil
}

func (r *PumpRepo) Delete(ctx context.Context, pumpID id.ID) error {
	sql, args, err := builder().
		Delete(pumpTable).
		Where(squirrel.Eq{"id": pumpID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}
	tag, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return postgres.MapError(err, "pump", pumpID)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("pump", pumpID)
	}
	return nil
}
