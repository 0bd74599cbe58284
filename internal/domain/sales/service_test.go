package sales

import (
	"context"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gasworld/internal/core/apperror"
	"gasworld/internal/core/id"
	"gasworld/internal/domain/authz"
	"gasworld/internal/domain/reading"
	"gasworld/internal/infrastructure/cache"
)

type passTx struct{}

func (passTx) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeRepo struct {
	byID map[id.ID]*Sales
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{byID: map[id.ID]*Sales{}}
}

func (r *fakeRepo) Create(ctx context.Context, s *Sales) error {
	cp := *s
	r.byID[s.ID] = &cp
	return nil
}

func (r *fakeRepo) Update(ctx context.Context, s *Sales) error {
	stored, ok := r.byID[s.ID]
	if !ok {
		return apperror.NewNotFound("sales", s.ID)
	}
	*stored = *s
	return nil
}

func (r *fakeRepo) GetByID(ctx context.Context, salesID id.ID) (*Sales, error) {
	s, ok := r.byID[salesID]
	if !ok {
		return nil, apperror.NewNotFound("sales", salesID)
	}
	cp := *s
	return &cp, nil
}

func (r *fakeRepo) GetForUpdate(ctx context.Context, salesID id.ID) (*Sales, error) {
	return r.GetByID(ctx, salesID)
}

func (r *fakeRepo) GetByReading(ctx context.Context, readingID id.ID) (*Sales, error) {
	for _, s := range r.byID {
		if s.PumpReadingID == readingID {
			cp := *s
			return &cp, nil
		}
	}
	return nil, apperror.NewNotFound("sales", readingID)
}

func (r *fakeRepo) ExistsByReading(ctx context.Context, readingID id.ID) (bool, error) {
	for _, s := range r.byID {
		if s.PumpReadingID == readingID {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeRepo) ListByStation(ctx context.Context, stationID id.ID) ([]*Sales, error) {
	return nil, nil
}

func (r *fakeRepo) ListByAttendant(ctx context.Context, attendantID id.ID) ([]*Sales, error) {
	return nil, nil
}

// fakeReadings records status transitions; the remaining repository surface
// is unused by the sales service.
type fakeReadings struct {
	statuses map[id.ID]reading.Status
}

func newFakeReadings() *fakeReadings {
	return &fakeReadings{statuses: map[id.ID]reading.Status{}}
}

func (r *fakeReadings) Create(ctx context.Context, rd *reading.PumpReading) error  { return nil }
func (r *fakeReadings) Update(ctx context.Context, rd *reading.PumpReading) error  { return nil }
func (r *fakeReadings) GetByID(ctx context.Context, readingID id.ID) (*reading.PumpReading, error) {
	return nil, apperror.NewNotFound("pump reading", readingID)
}
func (r *fakeReadings) GetForUpdate(ctx context.Context, readingID id.ID) (*reading.PumpReading, error) {
	return nil, apperror.NewNotFound("pump reading", readingID)
}
func (r *fakeReadings) GetLastByPump(ctx context.Context, pumpID id.ID) (*reading.PumpReading, error) {
	return nil, nil
}

func (r *fakeReadings) SetStatus(ctx context.Context, readingID id.ID, status reading.Status) error {
	r.statuses[readingID] = status
	return nil
}

func (r *fakeReadings) ListByPump(ctx context.Context, pumpID id.ID) ([]*reading.PumpReading, error) {
	return nil, nil
}
func (r *fakeReadings) ListByStation(ctx context.Context, stationID id.ID) ([]*reading.PumpReading, error) {
	return nil, nil
}
func (r *fakeReadings) ListByAttendant(ctx context.Context, attendantID id.ID, limit int) ([]*reading.PumpReading, error) {
	return nil, nil
}
func (r *fakeReadings) ListIDsByAttendant(ctx context.Context, attendantID id.ID, limit int) ([]id.ID, error) {
	return nil, nil
}

type seqNumbers struct {
	n int
}

func (s *seqNumbers) Next(ctx context.Context) (string, error) {
	s.n++
	return fmt.Sprintf("SLS-2026-%05d", s.n), nil
}

type bindingSource struct {
	roles    map[id.ID]string
	stations map[id.ID]id.ID
}

func (s *bindingSource) RoleOf(ctx context.Context, userID id.ID) (string, error) {
	return s.roles[userID], nil
}

func (s *bindingSource) StationOf(ctx context.Context, userID id.ID) (*id.ID, error) {
	st, ok := s.stations[userID]
	if !ok {
		return nil, nil
	}
	return &st, nil
}

func (s *bindingSource) RecentReadingIDs(ctx context.Context, attendantID id.ID, limit int) ([]id.ID, error) {
	return nil, nil
}

func (s *bindingSource) AttendantIDsByStation(ctx context.Context, stationID id.ID) ([]id.ID, error) {
	return nil, nil
}

func (s *bindingSource) ManagerIDsByStation(ctx context.Context, stationID id.ID) ([]id.ID, error) {
	return nil, nil
}

type fixture struct {
	service      *Service
	builder      *Builder
	repo         *fakeRepo
	readings     *fakeReadings
	stationID    id.ID
	managerID    id.ID
	otherManager id.ID
	attendantID  id.ID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	stationID := id.New()
	otherStation := id.New()
	managerID := id.New()
	otherManager := id.New()
	attendantID := id.New()

	source := &bindingSource{
		roles: map[id.ID]string{
			managerID:    authz.RoleManager,
			otherManager: authz.RoleManager,
			attendantID:  authz.RoleAttendant,
		},
		stations: map[id.ID]id.ID{
			managerID:    stationID,
			otherManager: otherStation,
			attendantID:  stationID,
		},
	}
	guard := authz.NewGuard(cache.NewMemoryStore(), source)

	repo := newFakeRepo()
	readings := newFakeReadings()

	return &fixture{
		service:      NewService(repo, readings, guard, passTx{}, nil),
		builder:      NewBuilder(repo, &seqNumbers{}),
		repo:         repo,
		readings:     readings,
		stationID:    stationID,
		managerID:    managerID,
		otherManager: otherManager,
		attendantID:  attendantID,
	}
}

// derive pushes a completion event through the builder and returns the
// resulting record.
func (f *fixture) derive(t *testing.T, amount string) *Sales {
	t.Helper()
	ctx := context.Background()

	ev := reading.CompletedEvent{
		ReadingID:   id.New(),
		PumpID:      id.New(),
		PitID:       id.New(),
		StationID:   f.stationID,
		AttendantID: f.attendantID,
		LitersSold:  decimal.NewFromInt(50),
		Amount:      decimal.RequireFromString(amount),
		Rate:        decimal.RequireFromString("230"),
	}
	require.NoError(t, f.builder.OnReadingCompleted(ctx, ev))

	rec, err := f.repo.GetByReading(ctx, ev.ReadingID)
	require.NoError(t, err)
	return rec
}

func TestBuilder_OpensRecord(t *testing.T) {
	f := newFixture(t)

	rec := f.derive(t, "11500")

	assert.Equal(t, "SLS-2026-00001", rec.Number)
	assert.True(t, rec.IsActive)
	assert.True(t, rec.ExpectedAmount.Equal(decimal.NewFromInt(11500)))
	assert.True(t, rec.Collected().IsZero())
	// Nothing collected yet: the whole expected amount reads as shortage.
	assert.True(t, rec.ShortageOrExcess.Equal(decimal.NewFromInt(11500)))
	assert.Equal(t, f.stationID, rec.StationID)
	assert.Equal(t, f.attendantID, rec.AttendantID)
}

func TestBuilder_RejectsDuplicate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	ev := reading.CompletedEvent{
		ReadingID:   id.New(),
		StationID:   f.stationID,
		AttendantID: f.attendantID,
		Amount:      decimal.NewFromInt(100),
	}
	require.NoError(t, f.builder.OnReadingCompleted(ctx, ev))

	err := f.builder.OnReadingCompleted(ctx, ev)
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeDuplicateDerived))
}

func TestUpdate_RecomputesShortage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	rec := f.derive(t, "11500")

	cash := decimal.NewFromInt(10000)
	pos := decimal.NewFromInt(1000)
	expenses := decimal.NewFromInt(300)
	updated, err := f.service.Update(ctx, rec.ID, UpdateParams{
		Cash:     &cash,
		POS:      &pos,
		Expenses: &expenses,
	}, f.managerID)
	require.NoError(t, err)

	assert.True(t, updated.Collected().Equal(decimal.NewFromInt(11300)))
	assert.True(t, updated.ShortageOrExcess.Equal(decimal.NewFromInt(200)))

	// Overcollection flips the projection negative.
	transfer := decimal.NewFromInt(500)
	updated, err = f.service.Update(ctx, rec.ID, UpdateParams{Transfer: &transfer}, f.managerID)
	require.NoError(t, err)
	assert.True(t, updated.ShortageOrExcess.Equal(decimal.NewFromInt(-300)))
}

func TestUpdate_ExactDecimalArithmetic(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	rec := f.derive(t, "11507.35")

	cash := decimal.RequireFromString("11507.25")
	updated, err := f.service.Update(ctx, rec.ID, UpdateParams{Cash: &cash}, f.managerID)
	require.NoError(t, err)

	assert.True(t, updated.ShortageOrExcess.Equal(decimal.RequireFromString("0.1")))
}

func TestUpdate_AttendantOwnRecord(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	rec := f.derive(t, "11500")

	cash := decimal.NewFromInt(11500)
	updated, err := f.service.Update(ctx, rec.ID, UpdateParams{Cash: &cash}, f.attendantID)
	require.NoError(t, err)
	assert.True(t, updated.ShortageOrExcess.IsZero())
}

func TestUpdate_ForeignManager(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	rec := f.derive(t, "11500")

	cash := decimal.NewFromInt(100)
	_, err := f.service.Update(ctx, rec.ID, UpdateParams{Cash: &cash}, f.otherManager)
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeForbidden))
}

func TestUpdate_ForeignAttendant(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	rec := f.derive(t, "11500")

	cash := decimal.NewFromInt(100)
	_, err := f.service.Update(ctx, rec.ID, UpdateParams{Cash: &cash}, id.New())
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeForbidden))
}

func TestUpdate_ClosedRecord(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	rec := f.derive(t, "11500")
	_, err := f.service.Close(ctx, rec.ID, f.managerID)
	require.NoError(t, err)

	cash := decimal.NewFromInt(100)
	_, err = f.service.Update(ctx, rec.ID, UpdateParams{Cash: &cash}, f.managerID)
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeAlreadyClosed))
}

func TestClose(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	rec := f.derive(t, "11500")

	closed, err := f.service.Close(ctx, rec.ID, f.managerID)
	require.NoError(t, err)
	assert.False(t, closed.IsActive)

	// The linked reading reached its terminal status.
	assert.Equal(t, reading.StatusCompleted, f.readings.statuses[rec.PumpReadingID])
}

func TestClose_Twice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	rec := f.derive(t, "11500")

	_, err := f.service.Close(ctx, rec.ID, f.managerID)
	require.NoError(t, err)

	_, err = f.service.Close(ctx, rec.ID, f.managerID)
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeAlreadyClosed))
}

func TestClose_ForeignManagerForbidden(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	rec := f.derive(t, "11500")

	_, err := f.service.Close(ctx, rec.ID, f.otherManager)
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeForbidden))

	// Attendants cannot close either.
	_, err = f.service.Close(ctx, rec.ID, f.attendantID)
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeForbidden))

	got, err := f.service.GetByID(ctx, rec.ID)
	require.NoError(t, err)
	assert.True(t, got.IsActive)
}
