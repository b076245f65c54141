package inventory

import (
	"context"
	"testing"
	"time"

	"github.com/commerce/backend/internal/domain/inventory"
	"github.com/commerce/backend/internal/domain/shared"
	"github.com/commerce/backend/internal/domain/shared/valueobject"
	"github.com/commerce/backend/internal/domain/stocklocation"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type memoryItems struct {
	rows map[uuid.UUID]*inventory.Item
}

func (m *memoryItems) Create(_ context.Context, item *inventory.Item) error {
	m.rows[item.ID] = item
	return nil
}

func (m *memoryItems) Update(context.Context, *inventory.Item) error { return nil }
func (m *memoryItems) Delete(context.Context, uuid.UUID) error       { return nil }

func (m *memoryItems) FindByID(_ context.Context, id uuid.UUID) (*inventory.Item, error) {
	if item, ok := m.rows[id]; ok {
		return item, nil
	}
	return nil, shared.NewNotFoundError("InventoryItem", id)
}

func (m *memoryItems) ExistsBySKU(_ context.Context, sku string, excludeID *uuid.UUID) (bool, error) {
	for _, item := range m.rows {
		if item.SKU == sku && (excludeID == nil || item.ID != *excludeID) {
			return true, nil
		}
	}
	return false, nil
}

func (m *memoryItems) List(context.Context, shared.ListQuery) ([]*inventory.Item, int64, error) {
	return nil, 0, nil
}

// memoryLevels mirrors the all-or-nothing behaviour of the database repository
type memoryLevels struct {
	levels       []*inventory.Level
	reservations []*inventory.Reservation
}

func (m *memoryLevels) CreateLevel(_ context.Context, l *inventory.Level) error {
	m.levels = append(m.levels, l)
	return nil
}

func (m *memoryLevels) UpdateLevel(context.Context, *inventory.Level) error { return nil }

func (m *memoryLevels) FindLevel(_ context.Context, itemID, locationID uuid.UUID) (*inventory.Level, error) {
	for _, l := range m.levels {
		if l.InventoryItemID == itemID && l.LocationID == locationID {
			return l, nil
		}
	}
	return nil, shared.NewNotFoundError("InventoryLevel", itemID)
}

func (m *memoryLevels) FindLevels(_ context.Context, itemID uuid.UUID) ([]*inventory.Level, error) {
	var out []*inventory.Level
	for _, l := range m.levels {
		if l.InventoryItemID == itemID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (m *memoryLevels) ListLevels(context.Context, shared.ListQuery) ([]*inventory.Level, int64, error) {
	return m.levels, int64(len(m.levels)), nil
}

func (m *memoryLevels) Reserve(ctx context.Context, requests []inventory.ReservationRequest) ([]*inventory.Reservation, error) {
	var done []*inventory.Reservation
	for _, req := range requests {
		var placed *inventory.Reservation
		for _, loc := range req.LocationIDs {
			l, err := m.FindLevel(ctx, req.InventoryItemID, loc)
			if err != nil || l.Reserve(req.Quantity) != nil {
				continue
			}
			placed, _ = inventory.NewReservation(req.InventoryItemID, loc, req.LineItemID, req.Quantity, req.ExpiresAt)
			break
		}
		if placed == nil {
			m.release(done)
			return nil, inventory.ErrInsufficientInventory(req.InventoryItemID, 0, req.Quantity)
		}
		done = append(done, placed)
	}
	m.reservations = append(m.reservations, done...)
	return done, nil
}

func (m *memoryLevels) release(rs []*inventory.Reservation) {
	for _, r := range rs {
		if l, err := m.FindLevel(context.Background(), r.InventoryItemID, r.LocationID); err == nil {
			l.Release(r.Quantity)
		}
	}
}

func (m *memoryLevels) drop(keep func(*inventory.Reservation) bool) int64 {
	var kept, gone []*inventory.Reservation
	for _, r := range m.reservations {
		if keep(r) {
			kept = append(kept, r)
		} else {
			gone = append(gone, r)
		}
	}
	m.release(gone)
	m.reservations = kept
	return int64(len(gone))
}

func (m *memoryLevels) ReleaseReservations(_ context.Context, ids []uuid.UUID) error {
	set := map[uuid.UUID]bool{}
	for _, id := range ids {
		set[id] = true
	}
	m.drop(func(r *inventory.Reservation) bool { return !set[r.ID] })
	return nil
}

func (m *memoryLevels) ReleaseByLineItems(_ context.Context, ids []uuid.UUID) error {
	set := map[uuid.UUID]bool{}
	for _, id := range ids {
		set[id] = true
	}
	m.drop(func(r *inventory.Reservation) bool { return r.LineItemID == nil || !set[*r.LineItemID] })
	return nil
}

func (m *memoryLevels) ConsumeByLineItem(context.Context, uuid.UUID, int) error { return nil }

func (m *memoryLevels) FindReservations(context.Context, shared.ListQuery) ([]*inventory.Reservation, int64, error) {
	return m.reservations, int64(len(m.reservations)), nil
}

func (m *memoryLevels) ReleaseExpired(_ context.Context, now time.Time) (int64, error) {
	return m.drop(func(r *inventory.Reservation) bool { return !r.IsExpired(now) }), nil
}

type memoryLocations map[uuid.UUID]*stocklocation.StockLocation

func (m memoryLocations) Create(_ context.Context, l *stocklocation.StockLocation) error {
	m[l.ID] = l
	return nil
}

func (m memoryLocations) Update(context.Context, *stocklocation.StockLocation) error { return nil }
func (m memoryLocations) Delete(context.Context, uuid.UUID) error                    { return nil }

func (m memoryLocations) FindByID(_ context.Context, id uuid.UUID) (*stocklocation.StockLocation, error) {
	if l, ok := m[id]; ok {
		return l, nil
	}
	return nil, shared.NewNotFoundError("StockLocation", id)
}

func (m memoryLocations) FindBySalesChannel(context.Context, uuid.UUID) ([]*stocklocation.StockLocation, error) {
	return nil, nil
}

func (m memoryLocations) List(context.Context, shared.ListQuery) ([]*stocklocation.StockLocation, int64, error) {
	out := make([]*stocklocation.StockLocation, 0, len(m))
	for _, l := range m {
		out = append(out, l)
	}
	return out, int64(len(out)), nil
}

type fixture struct {
	svc       *Service
	levels    *memoryLevels
	item      uuid.UUID
	warehouse uuid.UUID
	store     uuid.UUID
}

func newFixture(t *testing.T, logger *zap.Logger) fixture {
	t.Helper()
	locations := memoryLocations{}
	warehouse, err := stocklocation.New("Warehouse", valueobject.Address{})
	require.NoError(t, err)
	shop, err := stocklocation.New("Shop", valueobject.Address{})
	require.NoError(t, err)
	locations[warehouse.ID], locations[shop.ID] = warehouse, shop

	levels := &memoryLevels{}
	svc := NewService(&memoryItems{rows: map[uuid.UUID]*inventory.Item{}}, levels, locations, logger)
	ctx := context.Background()
	item, err := svc.CreateItem(ctx, ItemRequest{SKU: "TEE-S"})
	require.NoError(t, err)
	assert.True(t, item.RequiresShipping)
	_, err = svc.CreateLevel(ctx, item.ID, CreateLevelRequest{LocationID: warehouse.ID, StockedQuantity: 5})
	require.NoError(t, err)
	_, err = svc.CreateLevel(ctx, item.ID, CreateLevelRequest{LocationID: shop.ID, StockedQuantity: 2})
	require.NoError(t, err)
	return fixture{svc: svc, levels: levels, item: item.ID, warehouse: warehouse.ID, store: shop.ID}
}

func TestService_CreateItem_SKUUnique(t *testing.T) {
	f := newFixture(t, zap.NewNop())
	_, err := f.svc.CreateItem(context.Background(), ItemRequest{SKU: "TEE-S"})
	var verr *shared.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, shared.IssueNotUnique, verr.Kind())
}

func TestService_CreateLevel_Duplicate(t *testing.T) {
	f := newFixture(t, zap.NewNop())
	_, err := f.svc.CreateLevel(context.Background(), f.item, CreateLevelRequest{LocationID: f.warehouse})
	var verr *shared.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, shared.IssueNotUnique, verr.Kind())

	_, err = f.svc.CreateLevel(context.Background(), f.item, CreateLevelRequest{LocationID: uuid.New()})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "location_id", verr.Issues[0].Path)
}

func TestService_ConfirmAvailability(t *testing.T) {
	f := newFixture(t, zap.NewNop())
	ctx := context.Background()

	ok, err := f.svc.ConfirmAvailability(ctx, f.item, []uuid.UUID{f.warehouse, f.store}, 5)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = f.svc.ConfirmAvailability(ctx, f.item, []uuid.UUID{f.store}, 3)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = f.svc.ConfirmAvailability(ctx, f.item, []uuid.UUID{f.warehouse, f.store}, 6)
	require.NoError(t, err)
	assert.False(t, ok, "stock is not split across locations")
}

func TestService_CreateReservations_AllOrNothing(t *testing.T) {
	f := newFixture(t, zap.NewNop())
	ctx := context.Background()
	both := []uuid.UUID{f.warehouse, f.store}
	lineA, lineB := uuid.New(), uuid.New()

	_, err := f.svc.CreateReservations(ctx, []ReservationRequest{
		{InventoryItemID: f.item, LocationIDs: both, LineItemID: &lineA, Quantity: 4},
		{InventoryItemID: f.item, LocationIDs: both, LineItemID: &lineB, Quantity: 4},
	})
	var derr *shared.DomainError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, "INSUFFICIENT_INVENTORY", derr.Code)

	item, err := f.svc.GetItem(ctx, f.item)
	require.NoError(t, err)
	assert.Equal(t, 0, item.ReservedQuantity, "nothing stays reserved after a failed batch")

	created, err := f.svc.CreateReservations(ctx, []ReservationRequest{
		{InventoryItemID: f.item, LocationIDs: both, LineItemID: &lineA, Quantity: 4},
		{InventoryItemID: f.item, LocationIDs: both, LineItemID: &lineB, Quantity: 2},
	})
	require.NoError(t, err)
	require.Len(t, created, 2)
	assert.Equal(t, f.warehouse, created[0].LocationID)
	assert.Equal(t, f.store, created[1].LocationID)

	require.NoError(t, f.svc.DeleteReservationsByLineItem(ctx, lineA))
	item, err = f.svc.GetItem(ctx, f.item)
	require.NoError(t, err)
	assert.Equal(t, 2, item.ReservedQuantity)
	assert.Equal(t, 5, item.AvailableQuantity)
}

func TestService_AdjustInventory(t *testing.T) {
	f := newFixture(t, zap.NewNop())
	ctx := context.Background()
	line := uuid.New()
	_, err := f.svc.CreateReservations(ctx, []ReservationRequest{
		{InventoryItemID: f.item, LocationIDs: []uuid.UUID{f.warehouse}, LineItemID: &line, Quantity: 3},
	})
	require.NoError(t, err)

	_, err = f.svc.AdjustInventory(ctx, f.item, AdjustRequest{LocationID: f.warehouse, Delta: -3})
	require.Error(t, err, "cannot drop below reserved")

	level, err := f.svc.AdjustInventory(ctx, f.item, AdjustRequest{LocationID: f.warehouse, Delta: 10})
	require.NoError(t, err)
	assert.Equal(t, 15, level.StockedQuantity)
	assert.Equal(t, 12, level.AvailableQuantity)
}

func TestService_Restock_CreatesMissingLevel(t *testing.T) {
	f := newFixture(t, zap.NewNop())
	ctx := context.Background()
	other := uuid.New()
	require.NoError(t, f.svc.Restock(ctx, f.item, other, 2))
	require.NoError(t, f.svc.Restock(ctx, f.item, f.warehouse, 1))

	item, err := f.svc.GetItem(ctx, f.item)
	require.NoError(t, err)
	assert.Equal(t, 10, item.StockedQuantity)
}

func TestService_ReleaseExpired(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	f := newFixture(t, zap.New(core))
	ctx := context.Background()
	now := time.Now()
	f.svc.now = func() time.Time { return now }

	past, future := now.Add(-time.Minute), now.Add(time.Hour)
	_, err := f.svc.CreateReservations(ctx, []ReservationRequest{
		{InventoryItemID: f.item, LocationIDs: []uuid.UUID{f.warehouse}, Quantity: 2, ExpiresAt: &past},
		{InventoryItemID: f.item, LocationIDs: []uuid.UUID{f.warehouse}, Quantity: 1, ExpiresAt: &future},
		{InventoryItemID: f.item, LocationIDs: []uuid.UUID{f.warehouse}, Quantity: 1},
	})
	require.NoError(t, err)

	stats, err := f.svc.ReleaseExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.Released)
	assert.Len(t, f.levels.reservations, 2)
	assert.Equal(t, 1, logs.FilterMessage("Released expired reservations").Len())
}
