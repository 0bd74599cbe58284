// Package authz provides the authorization cache guard.
//
// The guard memoizes identity-to-role and role-to-station bindings with a
// fixed freshness window, falling back to the authoritative store on miss.
// It gates every write of the derivation pipeline, so it is a capability
// cache with push-invalidation: logout and role reassignment must clear every
// identity-derived key explicitly rather than wait for the window to lapse.
package authz

import (
	"context"
	"encoding/json"
	"time"

	"gasworld/internal/core/id"
	"gasworld/internal/infrastructure/cache"
	"gasworld/pkg/logger"
)

// FreshnessWindow is the default TTL for guard entries.
const FreshnessWindow = time.Hour

// RecentReadingsLimit bounds the attendant_last_readings list.
const RecentReadingsLimit = 10

// BindingSource is the authoritative store the guard falls back to.
// Implemented over the user and reading repositories.
type BindingSource interface {
	// RoleOf returns the identity's role, or "" if the identity is unknown.
	RoleOf(ctx context.Context, userID id.ID) (string, error)

	// StationOf returns the identity's station binding, or nil for owners
	// and unknown identities.
	StationOf(ctx context.Context, userID id.ID) (*id.ID, error)

	// RecentReadingIDs returns the attendant's most recent reading IDs,
	// newest first, at most limit entries.
	RecentReadingIDs(ctx context.Context, attendantID id.ID, limit int) ([]id.ID, error)

	// AttendantIDsByStation lists attendants of a station. Used to
	// enumerate manager_attendant keys at invalidation.
	AttendantIDsByStation(ctx context.Context, stationID id.ID) ([]id.ID, error)

	// ManagerIDsByStation lists managers of a station. Used to enumerate
	// the manager side of oversight keys when an attendant's binding ends.
	ManagerIDsByStation(ctx context.Context, stationID id.ID) ([]id.ID, error)
}

// Binding names a role-to-station capability held by an identity. Callers of
// InvalidateSession pass the bindings as they stood before a mutation, so the
// guard can enumerate oversight keys the current user row no longer reveals.
type Binding struct {
	Role      string
	StationID *id.ID
}

// Guard is the cache-backed authorization check point.
type Guard struct {
	store  cache.Store
	source BindingSource
	ttl    time.Duration
}

// NewGuard creates a guard over the given cache store and binding source.
func NewGuard(store cache.Store, source BindingSource) *Guard {
	return &Guard{store: store, source: source, ttl: FreshnessWindow}
}

// WithTTL overrides the freshness window (tests).
func (g *Guard) WithTTL(ttl time.Duration) *Guard {
	g.ttl = ttl
	return g
}

// IsRole reports whether the identity holds the given role.
// Read-through: cache miss consults the authoritative store and repopulates.
func (g *Guard) IsRole(ctx context.Context, userID id.ID, role string) (bool, error) {
	key := roleFlagKey(role, userID)
	if val, ok := g.cacheGet(ctx, key); ok {
		return val == "1", nil
	}

	actual, err := g.source.RoleOf(ctx, userID)
	if err != nil {
		return false, err
	}

	flag := "0"
	if actual == role {
		flag = "1"
	}
	g.cacheSet(ctx, key, flag)
	return flag == "1", nil
}

// StationOf returns the station bound to the identity under the given role,
// or nil when the identity does not hold the role or has no binding.
func (g *Guard) StationOf(ctx context.Context, userID id.ID, role string) (*id.ID, error) {
	key := roleStationKey(role, userID)
	if val, ok := g.cacheGet(ctx, key); ok {
		if val == "" {
			return nil, nil
		}
		stationID, err := id.Parse(val)
		if err != nil {
			// Corrupt entry: drop it and fall through to the source.
			_ = g.store.Delete(ctx, key)
		} else {
			return &stationID, nil
		}
	}

	actual, err := g.source.RoleOf(ctx, userID)
	if err != nil {
		return nil, err
	}
	if actual != role {
		g.cacheSet(ctx, key, "")
		return nil, nil
	}

	stationID, err := g.source.StationOf(ctx, userID)
	if err != nil {
		return nil, err
	}
	if stationID == nil {
		g.cacheSet(ctx, key, "")
		return nil, nil
	}
	g.cacheSet(ctx, key, stationID.String())
	return stationID, nil
}

// ManagerOversees reports whether the attendant works at the manager's station.
func (g *Guard) ManagerOversees(ctx context.Context, managerID, attendantID id.ID) (bool, error) {
	key := managerAttendantKey(managerID, attendantID)
	if val, ok := g.cacheGet(ctx, key); ok {
		return val == "1", nil
	}

	managerStation, err := g.StationOf(ctx, managerID, RoleManager)
	if err != nil {
		return false, err
	}
	attendantStation, err := g.source.StationOf(ctx, attendantID)
	if err != nil {
		return false, err
	}

	flag := "0"
	if managerStation != nil && attendantStation != nil && *managerStation == *attendantStation {
		flag = "1"
	}
	g.cacheSet(ctx, key, flag)
	return flag == "1", nil
}

// MayRecordClosing reports whether the attendant is assigned to the reading.
// The check runs against the bounded recent-readings list; a cache failure
// degrades to the authoritative store, never to a stale grant.
func (g *Guard) MayRecordClosing(ctx context.Context, attendantID, readingID id.ID) (bool, error) {
	key := lastReadingsKey(attendantID)

	val, ok, err := g.store.Get(ctx, key)
	if err != nil {
		logger.Warn(ctx, "guard cache unavailable, falling back to store", "key", key, "error", err)
		return g.readingAssigned(ctx, attendantID, readingID)
	}

	var ids []string
	if ok {
		if err := json.Unmarshal([]byte(val), &ids); err != nil {
			_ = g.store.Delete(ctx, key)
			ok = false
		}
	}
	if !ok {
		recent, err := g.source.RecentReadingIDs(ctx, attendantID, RecentReadingsLimit)
		if err != nil {
			return false, err
		}
		ids = make([]string, 0, len(recent))
		for _, r := range recent {
			ids = append(ids, r.String())
		}
		g.setList(ctx, key, ids)
	}

	want := readingID.String()
	for _, v := range ids {
		if v == want {
			return true, nil
		}
	}
	return false, nil
}

// RememberReading records a newly opened reading in the attendant's
// recent-readings list, keeping the newest RecentReadingsLimit entries.
func (g *Guard) RememberReading(ctx context.Context, attendantID, readingID id.ID) {
	key := lastReadingsKey(attendantID)

	var ids []string
	if val, ok := g.cacheGet(ctx, key); ok {
		if err := json.Unmarshal([]byte(val), &ids); err != nil {
			ids = nil
		}
	}

	ids = append([]string{readingID.String()}, ids...)
	if len(ids) > RecentReadingsLimit {
		ids = ids[:RecentReadingsLimit]
	}
	g.setList(ctx, key, ids)
}

// InvalidateSession deletes every cache key derived from the identity.
// Called at logout, on role or station reassignment and on deactivation;
// required for correctness, since a revoked manager must not retain write
// capability for the remainder of the freshness window.
//
// Oversight keys embed both sides of a manager-attendant pair, so they are
// enumerated from the bindings the caller passes, never from the user row:
// by the time a reassignment invalidates, the row already carries the new
// binding and would hide the keys that must die.
func (g *Guard) InvalidateSession(ctx context.Context, userID id.ID, bindings ...Binding) error {
	keys := []string{
		lastReadingsKey(userID),
	}
	for _, role := range []string{RoleOwner, RoleManager, RoleAttendant} {
		keys = append(keys, roleFlagKey(role, userID), roleStationKey(role, userID))
	}

	for _, b := range bindings {
		if b.StationID == nil {
			continue
		}
		switch b.Role {
		case RoleManager:
			attendants, err := g.source.AttendantIDsByStation(ctx, *b.StationID)
			if err != nil {
				return err
			}
			for _, a := range attendants {
				keys = append(keys, managerAttendantKey(userID, a))
			}
		case RoleAttendant:
			managers, err := g.source.ManagerIDsByStation(ctx, *b.StationID)
			if err != nil {
				return err
			}
			for _, m := range managers {
				keys = append(keys, managerAttendantKey(m, userID))
			}
		}
	}

	if err := g.store.Delete(ctx, keys...); err != nil {
		return err
	}
	logger.Info(ctx, "authorization cache invalidated", "user_id", userID, "keys", len(keys))
	return nil
}

// readingAssigned is the authoritative fallback for MayRecordClosing.
func (g *Guard) readingAssigned(ctx context.Context, attendantID, readingID id.ID) (bool, error) {
	recent, err := g.source.RecentReadingIDs(ctx, attendantID, RecentReadingsLimit)
	if err != nil {
		return false, err
	}
	for _, r := range recent {
		if r == readingID {
			return true, nil
		}
	}
	return false, nil
}

func (g *Guard) cacheGet(ctx context.Context, key string) (string, bool) {
	val, ok, err := g.store.Get(ctx, key)
	if err != nil {
		logger.Warn(ctx, "guard cache read failed", "key", key, "error", err)
		return "", false
	}
	return val, ok
}

func (g *Guard) cacheSet(ctx context.Context, key, val string) {
	if err := g.store.Set(ctx, key, val, g.ttl); err != nil {
		logger.Warn(ctx, "guard cache write failed", "key", key, "error", err)
	}
}

func (g *Guard) setList(ctx context.Context, key string, ids []string) {
	payload, err := json.Marshal(ids)
	if err != nil {
		return
	}
	g.cacheSet(ctx, key, string(payload))
}
