package pit

import (
	"context"
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
	pits     map[id.ID]*Pit
	readings []*PitReading
	// sold is the aggregate SumLitersSoldByPit would return per pit.
	sold map[id.ID]decimal.Decimal
}

func newFakeRepo(pits ...*Pit) *fakeRepo {
	r := &fakeRepo{
		pits: map[id.ID]*Pit{},
		sold: map[id.ID]decimal.Decimal{},
	}
	for _, p := range pits {
		r.pits[p.ID] = p
	}
	return r
}

func (r *fakeRepo) Create(ctx context.Context, p *Pit) error {
	r.pits[p.ID] = p
	return nil
}

func (r *fakeRepo) GetByID(ctx context.Context, pitID id.ID) (*Pit, error) {
	p, ok := r.pits[pitID]
	if !ok {
		return nil, apperror.NewNotFound("pit", pitID)
	}
	cp := *p
	return &cp, nil
}

func (r *fakeRepo) GetForUpdate(ctx context.Context, pitID id.ID) (*Pit, error) {
	return r.GetByID(ctx, pitID)
}

func (r *fakeRepo) ListByStation(ctx context.Context, stationID id.ID) ([]*Pit, error) {
	return nil, nil
}

func (r *fakeRepo) UpdateVolume(ctx context.Context, pitID id.ID, volume decimal.Decimal) error {
	p, ok := r.pits[pitID]
	if !ok {
		return apperror.NewNotFound("pit", pitID)
	}
	p.CurrentVolume = volume
	return nil
}

func (r *fakeRepo) Delete(ctx context.Context, pitID id.ID) error {
	delete(r.pits, pitID)
	return nil
}

func (r *fakeRepo) CreateReading(ctx context.Context, rd *PitReading) error {
	r.readings = append(r.readings, rd)
	return nil
}

func (r *fakeRepo) ExistsByReading(ctx context.Context, readingID id.ID) (bool, error) {
	for _, rd := range r.readings {
		if rd.ReadingID != nil && *rd.ReadingID == readingID {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeRepo) ListReadingsByPit(ctx context.Context, pitID id.ID) ([]*PitReading, error) {
	var out []*PitReading
	for _, rd := range r.readings {
		if rd.PitID == pitID {
			out = append(out, rd)
		}
	}
	return out, nil
}

func (r *fakeRepo) SumLitersSoldByPit(ctx context.Context, pitID id.ID) (decimal.Decimal, error) {
	return r.sold[pitID], nil
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
	service     *Service
	repo        *fakeRepo
	pit         *Pit
	managerID   id.ID
	attendantID id.ID
}

func newFixture(t *testing.T, currentVolume int64) *fixture {
	t.Helper()

	stationID := id.New()
	managerID := id.New()
	attendantID := id.New()

	p := NewPit(stationID, id.New(), "Pit A",
		decimal.NewFromInt(currentVolume), decimal.NewFromInt(33000))
	repo := newFakeRepo(p)

	source := &bindingSource{
		roles: map[id.ID]string{
			managerID:   authz.RoleManager,
			attendantID: authz.RoleAttendant,
		},
		stations: map[id.ID]id.ID{
			managerID:   stationID,
			attendantID: stationID,
		},
	}
	guard := authz.NewGuard(cache.NewMemoryStore(), source)

	return &fixture{
		service:     NewService(repo, guard, passTx{}, nil),
		repo:        repo,
		pit:         p,
		managerID:   managerID,
		attendantID: attendantID,
	}
}

func TestAdjustVolume(t *testing.T) {
	f := newFixture(t, 5000)
	ctx := context.Background()

	adjusted, err := f.service.AdjustVolume(ctx, f.pit.ID, decimal.NewFromInt(2500), f.managerID)
	require.NoError(t, err)
	assert.True(t, adjusted.CurrentVolume.Equal(decimal.NewFromInt(7500)))

	adjusted, err = f.service.AdjustVolume(ctx, f.pit.ID, decimal.NewFromInt(-500), f.managerID)
	require.NoError(t, err)
	assert.True(t, adjusted.CurrentVolume.Equal(decimal.NewFromInt(7000)))
}

func TestAdjustVolume_RejectsNegativeResult(t *testing.T) {
	f := newFixture(t, 100)
	ctx := context.Background()

	_, err := f.service.AdjustVolume(ctx, f.pit.ID, decimal.NewFromInt(-101), f.managerID)
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))

	// Stock is untouched.
	p, err := f.service.GetByID(ctx, f.pit.ID)
	require.NoError(t, err)
	assert.True(t, p.CurrentVolume.Equal(decimal.NewFromInt(100)))
}

func TestAdjustVolume_ManagerOnly(t *testing.T) {
	f := newFixture(t, 100)
	ctx := context.Background()

	_, err := f.service.AdjustVolume(ctx, f.pit.ID, decimal.NewFromInt(10), f.attendantID)
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeForbidden))
}

func TestRecord_DerivesClosingStock(t *testing.T) {
	f := newFixture(t, 5000)
	ctx := context.Background()

	f.repo.sold[f.pit.ID] = decimal.RequireFromString("1200.5")

	snap, err := f.service.Record(ctx, RecordParams{PitID: f.pit.ID, ActorID: f.managerID})
	require.NoError(t, err)

	assert.True(t, snap.OpeningStock.Equal(decimal.NewFromInt(5000)))
	assert.True(t, snap.ClosingStock.Equal(decimal.RequireFromString("3799.5")))
	assert.True(t, snap.Supply.IsZero())
	assert.Nil(t, snap.ReadingID)
	assert.Nil(t, snap.ActualClosingStock)
	// Without a dip there is no variance to report at all.
	assert.Nil(t, snap.ExcessOrShortage())
}

func TestRecord_SupplyAttribution(t *testing.T) {
	f := newFixture(t, 5000)
	ctx := context.Background()

	// Measured stock above the opening baseline means fuel was delivered.
	opening := decimal.NewFromInt(2000)
	actual := decimal.NewFromInt(2100)
	snap, err := f.service.Record(ctx, RecordParams{
		PitID:              f.pit.ID,
		OpeningStock:       &opening,
		ActualClosingStock: &actual,
		ActorID:            f.managerID,
	})
	require.NoError(t, err)

	assert.True(t, snap.OpeningStock.Equal(opening))
	assert.True(t, snap.Supply.Equal(decimal.NewFromInt(100)))
	assert.True(t, snap.ClosingStock.Equal(actual))
	require.NotNil(t, snap.ExcessOrShortage())
	assert.True(t, snap.ExcessOrShortage().IsZero())
}

func TestRecord_MeasuredShortage(t *testing.T) {
	f := newFixture(t, 2000)
	ctx := context.Background()

	f.repo.sold[f.pit.ID] = decimal.NewFromInt(500)

	// Derived closing is 1500; the dip found 100 liters less.
	actual := decimal.NewFromInt(1400)
	snap, err := f.service.Record(ctx, RecordParams{
		PitID:              f.pit.ID,
		ActualClosingStock: &actual,
		ActorID:            f.managerID,
	})
	require.NoError(t, err)

	assert.True(t, snap.ClosingStock.Equal(decimal.NewFromInt(1500)))
	assert.True(t, snap.Supply.IsZero())
	require.NotNil(t, snap.ExcessOrShortage())
	assert.True(t, snap.ExcessOrShortage().Equal(decimal.NewFromInt(-100)))
}

func TestRecord_DoesNotTouchRunningVolume(t *testing.T) {
	f := newFixture(t, 5000)
	ctx := context.Background()

	f.repo.sold[f.pit.ID] = decimal.NewFromInt(1000)

	_, err := f.service.Record(ctx, RecordParams{PitID: f.pit.ID, ActorID: f.managerID})
	require.NoError(t, err)

	p, err := f.service.GetByID(ctx, f.pit.ID)
	require.NoError(t, err)
	assert.True(t, p.CurrentVolume.Equal(decimal.NewFromInt(5000)))
}

func TestBuilder_DerivesSnapshotFromReading(t *testing.T) {
	f := newFixture(t, 5000)
	ctx := context.Background()

	f.repo.sold[f.pit.ID] = decimal.NewFromInt(50)

	b := NewBuilder(f.service)
	assert.Equal(t, "pit_reading", b.Name())

	ev := reading.CompletedEvent{
		ReadingID:  id.New(),
		PitID:      f.pit.ID,
		LitersSold: decimal.NewFromInt(50),
	}
	require.NoError(t, b.OnReadingCompleted(ctx, ev))

	snaps, err := f.service.ListReadings(ctx, f.pit.ID)
	require.NoError(t, err)
	require.Len(t, snaps, 1)
	require.NotNil(t, snaps[0].ReadingID)
	assert.Equal(t, ev.ReadingID, *snaps[0].ReadingID)
	assert.True(t, snaps[0].ClosingStock.Equal(decimal.NewFromInt(4950)))
}

func TestBuilder_RejectsDuplicate(t *testing.T) {
	f := newFixture(t, 5000)
	ctx := context.Background()

	b := NewBuilder(f.service)
	ev := reading.CompletedEvent{ReadingID: id.New(), PitID: f.pit.ID}

	require.NoError(t, b.OnReadingCompleted(ctx, ev))

	err := b.OnReadingCompleted(ctx, ev)
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeDuplicateDerived))

	snaps, err := f.service.ListReadings(ctx, f.pit.ID)
	require.NoError(t, err)
	assert.Len(t, snaps, 1)
}
