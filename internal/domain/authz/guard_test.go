package authz

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gasworld/internal/core/id"
	"gasworld/internal/infrastructure/cache"
)

// fakeSource is an in-memory BindingSource with call counting.
type fakeSource struct {
	roles      map[id.ID]string
	stations   map[id.ID]id.ID
	recent     map[id.ID][]id.ID
	attendants map[id.ID][]id.ID
	managers   map[id.ID][]id.ID

	roleCalls   int
	recentCalls int
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		roles:      map[id.ID]string{},
		stations:   map[id.ID]id.ID{},
		recent:     map[id.ID][]id.ID{},
		attendants: map[id.ID][]id.ID{},
		managers:   map[id.ID][]id.ID{},
	}
}

func (s *fakeSource) RoleOf(ctx context.Context, userID id.ID) (string, error) {
	s.roleCalls++
	return s.roles[userID], nil
}

func (s *fakeSource) StationOf(ctx context.Context, userID id.ID) (*id.ID, error) {
	st, ok := s.stations[userID]
	if !ok {
		return nil, nil
	}
	return &st, nil
}

func (s *fakeSource) RecentReadingIDs(ctx context.Context, attendantID id.ID, limit int) ([]id.ID, error) {
	s.recentCalls++
	ids := s.recent[attendantID]
	if len(ids) > limit {
		ids = ids[:limit]
	}
	return ids, nil
}

func (s *fakeSource) AttendantIDsByStation(ctx context.Context, stationID id.ID) ([]id.ID, error) {
	return s.attendants[stationID], nil
}

func (s *fakeSource) ManagerIDsByStation(ctx context.Context, stationID id.ID) ([]id.ID, error) {
	return s.managers[stationID], nil
}

// failStore simulates an unavailable cache backend.
type failStore struct{}

func (failStore) Get(ctx context.Context, key string) (string, bool, error) {
	return "", false, errors.New("cache down")
}

func (failStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return errors.New("cache down")
}

func (failStore) Delete(ctx context.Context, keys ...string) error {
	return errors.New("cache down")
}

func TestIsRole_ReadThrough(t *testing.T) {
	ctx := context.Background()
	source := newFakeSource()
	guard := NewGuard(cache.NewMemoryStore(), source)

	managerID := id.New()
	source.roles[managerID] = RoleManager

	ok, err := guard.IsRole(ctx, managerID, RoleManager)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, source.roleCalls)

	// Second check is served from cache.
	ok, err = guard.IsRole(ctx, managerID, RoleManager)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, source.roleCalls)

	// Negative answers are cached too.
	ok, err = guard.IsRole(ctx, managerID, RoleOwner)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = guard.IsRole(ctx, managerID, RoleOwner)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 2, source.roleCalls)
}

func TestStationOf(t *testing.T) {
	ctx := context.Background()
	source := newFakeSource()
	guard := NewGuard(cache.NewMemoryStore(), source)

	stationID := id.New()
	managerID := id.New()
	ownerID := id.New()
	source.roles[managerID] = RoleManager
	source.roles[ownerID] = RoleOwner
	source.stations[managerID] = stationID

	got, err := guard.StationOf(ctx, managerID, RoleManager)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, stationID, *got)

	// Holding a different role yields no binding.
	got, err = guard.StationOf(ctx, managerID, RoleOwner)
	require.NoError(t, err)
	assert.Nil(t, got)

	// Owners carry no station binding.
	got, err = guard.StationOf(ctx, ownerID, RoleOwner)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestManagerOversees(t *testing.T) {
	ctx := context.Background()
	source := newFakeSource()
	guard := NewGuard(cache.NewMemoryStore(), source)

	stationID := id.New()
	otherStation := id.New()
	managerID := id.New()
	attendantID := id.New()
	strangerID := id.New()

	source.roles[managerID] = RoleManager
	source.roles[attendantID] = RoleAttendant
	source.roles[strangerID] = RoleAttendant
	source.stations[managerID] = stationID
	source.stations[attendantID] = stationID
	source.stations[strangerID] = otherStation

	ok, err := guard.ManagerOversees(ctx, managerID, attendantID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = guard.ManagerOversees(ctx, managerID, strangerID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMayRecordClosing_PopulatesFromSource(t *testing.T) {
	ctx := context.Background()
	source := newFakeSource()
	guard := NewGuard(cache.NewMemoryStore(), source)

	attendantID := id.New()
	readingID := id.New()
	source.recent[attendantID] = []id.ID{readingID}

	ok, err := guard.MayRecordClosing(ctx, attendantID, readingID)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, source.recentCalls)

	// List is now cached.
	ok, err = guard.MayRecordClosing(ctx, attendantID, readingID)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, source.recentCalls)

	ok, err = guard.MayRecordClosing(ctx, attendantID, id.New())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMayRecordClosing_FallsBackWhenCacheDown(t *testing.T) {
	ctx := context.Background()
	source := newFakeSource()
	guard := NewGuard(failStore{}, source)

	attendantID := id.New()
	readingID := id.New()
	source.recent[attendantID] = []id.ID{readingID}

	ok, err := guard.MayRecordClosing(ctx, attendantID, readingID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = guard.MayRecordClosing(ctx, attendantID, id.New())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRememberReading_KeepsNewestTen(t *testing.T) {
	ctx := context.Background()
	source := newFakeSource()
	guard := NewGuard(cache.NewMemoryStore(), source)

	attendantID := id.New()
	ids := make([]id.ID, 0, RecentReadingsLimit+1)
	for i := 0; i < RecentReadingsLimit+1; i++ {
		readingID := id.New()
		ids = append(ids, readingID)
		guard.RememberReading(ctx, attendantID, readingID)
	}

	// Newest entries are retained.
	ok, err := guard.MayRecordClosing(ctx, attendantID, ids[len(ids)-1])
	require.NoError(t, err)
	assert.True(t, ok)

	// The oldest entry fell off the list and the source knows nothing
	// about it either.
	ok, err = guard.MayRecordClosing(ctx, attendantID, ids[0])
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestInvalidateSession(t *testing.T) {
	ctx := context.Background()
	source := newFakeSource()
	guard := NewGuard(cache.NewMemoryStore(), source)

	stationID := id.New()
	managerID := id.New()
	attendantID := id.New()
	source.roles[managerID] = RoleManager
	source.roles[attendantID] = RoleAttendant
	source.stations[managerID] = stationID
	source.stations[attendantID] = stationID
	source.attendants[stationID] = []id.ID{attendantID}

	ok, err := guard.IsRole(ctx, managerID, RoleManager)
	require.NoError(t, err)
	require.True(t, ok)
	ok, err = guard.ManagerOversees(ctx, managerID, attendantID)
	require.NoError(t, err)
	require.True(t, ok)

	// Revoke the manager role at the source. The cache still grants.
	source.roles[managerID] = ""
	ok, err = guard.IsRole(ctx, managerID, RoleManager)
	require.NoError(t, err)
	assert.True(t, ok)

	// Invalidation carries the binding as it stood before the demotion;
	// the user row no longer reveals the station whose oversight keys
	// must die.
	require.NoError(t, guard.InvalidateSession(ctx, managerID,
		Binding{Role: RoleManager, StationID: &stationID}))

	ok, err = guard.IsRole(ctx, managerID, RoleManager)
	require.NoError(t, err)
	assert.False(t, ok)
	ok, err = guard.ManagerOversees(ctx, managerID, attendantID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestInvalidateSession_AttendantReassignment(t *testing.T) {
	ctx := context.Background()
	source := newFakeSource()
	guard := NewGuard(cache.NewMemoryStore(), source)

	stationID := id.New()
	managerID := id.New()
	attendantID := id.New()
	source.roles[managerID] = RoleManager
	source.roles[attendantID] = RoleAttendant
	source.stations[managerID] = stationID
	source.stations[attendantID] = stationID
	source.managers[stationID] = []id.ID{managerID}

	ok, err := guard.ManagerOversees(ctx, managerID, attendantID)
	require.NoError(t, err)
	require.True(t, ok)

	// Move the attendant to another station. The manager's cached grant
	// still stands until the attendant's session is invalidated.
	otherStation := id.New()
	source.stations[attendantID] = otherStation

	require.NoError(t, guard.InvalidateSession(ctx, attendantID,
		Binding{Role: RoleAttendant, StationID: &stationID}))

	ok, err = guard.ManagerOversees(ctx, managerID, attendantID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGuard_TTLExpiry(t *testing.T) {
	ctx := context.Background()
	source := newFakeSource()
	guard := NewGuard(cache.NewMemoryStore(), source).WithTTL(time.Millisecond)

	managerID := id.New()
	source.roles[managerID] = RoleManager

	ok, err := guard.IsRole(ctx, managerID, RoleManager)
	require.NoError(t, err)
	require.True(t, ok)

	time.Sleep(5 * time.Millisecond)

	// Entry lapsed; the source is consulted again.
	source.roles[managerID] = RoleAttendant
	ok, err = guard.IsRole(ctx, managerID, RoleManager)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 2, source.roleCalls)
}
