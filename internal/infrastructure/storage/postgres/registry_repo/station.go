package registry_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"gasworld/internal/core/apperror"
	"gasworld/internal/core/id"
	"gasworld/internal/domain/station"
	"gasworld/internal/infrastructure/storage/postgres"
)

const stationTable = "stations"

var stationCols = []string{
	"id", "owner_id", "name", "address", "city", "state",
	"manager_id", "created_at", "updated_at",
}

// Compile-time check that StationRepo implements station.Repository.
var _ station.Repository = (*StationRepo)(nil)

// StationRepo implements station.Repository.
type StationRepo struct {
	txManager *postgres.TxManager
}

// NewStationRepo creates a station repository.
func NewStationRepo(txManager *postgres.TxManager) *StationRepo {
	return &StationRepo{txManager: txManager}
}

func (r *StationRepo) Create(ctx context.Context, s *station.Station) error {
	sql, args, err := builder().
		Insert(stationTable).
		Columns(stationCols...).
		Values(s.ID, s.OwnerID, s.Name, s.Address, s.City, s.State,
			s.ManagerID, s.CreatedAt, s.UpdatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	_, err = r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	return mapStationError(err, s.ID)
}

func (r *StationRepo) Update(ctx context.Context, s *station.Station) error {
	sql, args, err := builder().
		Update(stationTable).
		SetMap(map[string]any{
			"name":       s.Name,
			"address":    s.Address,
			"city":       s.City,
			"state":      s.State,
			"manager_id": s.ManagerID,
			"updated_at": s.UpdatedAt,
		}).
		Where(squirrel.Eq{"id": s.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}
	tag, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return mapStationError(err, s.ID)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("station", s.ID)
	}
	return nil
}

func (r *StationRepo) GetByID(ctx context.Context, stationID id.ID) (*station.Station, error) {
	sql, args, err := builder().
		Select(stationCols...).
		From(stationTable).
		Where(squirrel.Eq{"id": stationID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}
	var s station.Station
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &s, sql, args...); err != nil {
		return nil, mapStationError(err, stationID)
	}
	return &s, nil
}

func (r *StationRepo) ListByOwner(ctx context.Context, ownerID id.ID) ([]*station.Station, error) {
	sql, args, err := builder().
		Select(stationCols...).
		From(stationTable).
		Where(squirrel.Eq{"owner_id": ownerID}).
		OrderBy("created_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}
	var out []*station.Station
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &out, sql, args...); err != nil {
		return nil, fmt.Errorf("list stations: %w", err)
	}
	return out, nil
}

func (r *StationRepo) SetManager(ctx context.Context, stationID id.ID, managerID *id.ID) error {
	sql, args, err := builder().
		Update(stationTable).
		Set("manager_id", managerID).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": stationID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}
	tag, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return mapStationError(err, stationID)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("station", stationID)
	}
	return nil
}

func (r *StationRepo) Delete(ctx context.Context, stationID id.ID) error {
	sql, args, err := builder().
		Delete(stationTable).
		Where(squirrel.Eq{"id": stationID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}
	tag, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return mapStationError(err, stationID)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("station", stationID)
	}
	return nil
}

func mapStationError(err error, stationID any) error {
	return postgres.MapError(err, "station", stationID)
}
