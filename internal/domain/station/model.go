// Package station provides the Station catalog.
// A station is the root of the single-owner tree: pits, products, pumps,
// managers and attendants all hang off it and are cascade-deleted with it.
package station

import (
	"context"
	"time"

	"gasworld/internal/core/apperror"
	"gasworld/internal/core/id"
)

// Station represents one gas station operated by an owner.
type Station struct {
	ID        id.ID      `db:"id" json:"id"`
	OwnerID   id.ID      `db:"owner_id" json:"ownerId"`
	Name      string     `db:"name" json:"name"`
	Address   *string    `db:"address" json:"address,omitempty"`
	City      *string    `db:"city" json:"city,omitempty"`
	State     *string    `db:"state" json:"state,omitempty"`
	ManagerID *id.ID     `db:"manager_id" json:"managerId,omitempty"`
	CreatedAt time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time  `db:"updated_at" json:"updatedAt"`
}

// NewStation creates a station for the given owner.
func NewStation(ownerID id.ID, name string) *Station {
	now := time.Now()
	return &Station{
		ID:        id.New(),
		OwnerID:   ownerID,
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Validate checks required fields.
func (s *Station) Validate(ctx context.Context) error {
	if s.Name == "" {
		return apperror.NewValidation("station name is required").WithDetail("field", "name")
	}
	if id.IsNil(s.OwnerID) {
		return apperror.NewValidation("owner is required").WithDetail("field", "ownerId")
	}
	return nil
}
