package checkout

import (
	"context"
	"sync"
	"testing"
	"time"

	"gerai-be/internal/order"
	"gerai-be/internal/shipping"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- Mocks ---

type MockOrderService struct {
	mock.Mock
}

func (m *MockOrderService) Create(ctx context.Context, input order.CreateOrderInput) (*order.Order, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderService) GetOrderDetail(ctx context.Context, userID, orderID uint, isAdmin bool) (*order.Order, error) {
	args := m.Called(ctx, userID, orderID, isAdmin)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderService) ListOrders(ctx context.Context, filter order.ListFilter, limit, offset int32) ([]*order.Order, error) {
	args := m.Called(ctx, filter, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*order.Order), args.Error(1)
}

func (m *MockOrderService) Transition(ctx context.Context, orderID uint, target order.Status) (*order.Order, error) {
	args := m.Called(ctx, orderID, target)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderService) MarkPaymentStatus(ctx context.Context, externalID string, status order.PaymentStatus) error {
	args := m.Called(ctx, externalID, status)
	return args.Error(0)
}

type stubProvider struct {
	name   string
	quotes []shipping.Quote
	err    error
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) GetRates(ctx context.Context, origin shipping.Origin, dest shipping.Destination, manifest shipping.Manifest) ([]shipping.Quote, error) {
	return s.quotes, s.err
}

var testItems = []Item{
	{VariantID: "v-1", VariantName: "Beras 5kg", ProductName: "Beras Premium", Price: 25000, Quantity: 2, WeightGrams: 5000},
	{VariantID: "v-2", VariantName: "Kopi 250g", ProductName: "Kopi Arabika", Price: 40000, Quantity: 1, WeightGrams: 250},
}

var testAddress = order.Address{
	Name: "Budi", Phone: "0812", Line1: "Jl. Sudirman 1",
	City: "Jakarta Selatan", Province: "DKI Jakarta",
	Postal: "12190", Country: "ID",
}

func newTestManager(orders order.Service) *Manager {
	domestic := &stubProvider{name: shipping.ProviderDomestic, quotes: []shipping.Quote{
		{
			CourierCode: "jne", ServiceCode: "REG", ServiceType: shipping.ServiceStandard,
			Price: 18000, Currency: "IDR", ETA: shipping.ETA{MinDays: 2, MaxDays: 4},
			Provider: shipping.ProviderDomestic,
		},
		{
			CourierCode: "jne", ServiceCode: "YES", ServiceType: shipping.ServiceOvernight,
			Price: 30000, Currency: "IDR", ETA: shipping.ETA{MinDays: 1, MaxDays: 1},
			Provider: shipping.ProviderDomestic,
		},
	}}
	international := &stubProvider{name: shipping.ProviderInternational}

	return NewManager(orders,
		shipping.Origin{PostalCode: "40115", CountryCode: "ID"},
		domestic, international,
		WithRateDebounce(time.Hour))
}

func TestManager_CreateSession(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		m := newTestManager(new(MockOrderService))
		userID := uint(3)

		session, err := m.CreateSession(context.Background(), CreateSessionInput{
			UserID: &userID,
			Items:  testItems,
		})

		require.NoError(t, err)
		assert.Equal(t, SessionPending, session.Status)
		assert.Equal(t, "IDR", session.Currency, "currency defaults when omitted")
		assert.Equal(t, 90000, session.Subtotal())
		assert.True(t, session.ExpiresAt.After(time.Now()))
	})

	t.Run("RejectsEmptyItems", func(t *testing.T) {
		m := newTestManager(new(MockOrderService))

		_, err := m.CreateSession(context.Background(), CreateSessionInput{})

		assert.ErrorIs(t, err, ErrNoItems)
	})

	t.Run("RejectsWeightlessItem", func(t *testing.T) {
		m := newTestManager(new(MockOrderService))

		_, err := m.CreateSession(context.Background(), CreateSessionInput{
			Items: []Item{{VariantID: "v-1", Price: 1000, Quantity: 1, WeightGrams: 0}},
		})

		assert.ErrorIs(t, err, ErrBadItem)
	})
}

func TestManager_Rates(t *testing.T) {
	ctx := context.Background()

	t.Run("RequiresAddress", func(t *testing.T) {
		m := newTestManager(new(MockOrderService))
		session, err := m.CreateSession(ctx, CreateSessionInput{Items: testItems})
		require.NoError(t, err)

		_, _, err = m.Rates(ctx, session.ID, nil)
		assert.ErrorIs(t, err, ErrNoAddress)
	})

	t.Run("ResolvesAfterDestination", func(t *testing.T) {
		m := newTestManager(new(MockOrderService))
		session, err := m.CreateSession(ctx, CreateSessionInput{Items: testItems})
		require.NoError(t, err)

		require.NoError(t, m.SetDestination(ctx, session.ID, nil, testAddress))

		quotes, selected, err := m.Rates(ctx, session.ID, nil)
		require.NoError(t, err)
		require.Len(t, quotes, 2)
		require.NotNil(t, selected)
		assert.Equal(t, "REG", selected.ServiceCode, "cheapest quote auto-selected")
	})

	t.Run("UnknownSession", func(t *testing.T) {
		m := newTestManager(new(MockOrderService))

		_, _, err := m.Rates(ctx, uuid.New(), nil)
		assert.ErrorIs(t, err, ErrSessionNotFound)
	})

	t.Run("ForbiddenForOtherUser", func(t *testing.T) {
		m := newTestManager(new(MockOrderService))
		owner := uint(3)
		session, err := m.CreateSession(ctx, CreateSessionInput{UserID: &owner, Items: testItems})
		require.NoError(t, err)

		stranger := uint(99)
		_, _, err = m.Rates(ctx, session.ID, &stranger)
		assert.ErrorIs(t, err, ErrForbidden)
	})
}

func TestManager_SelectRate(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(new(MockOrderService))
	session, err := m.CreateSession(ctx, CreateSessionInput{Items: testItems})
	require.NoError(t, err)
	require.NoError(t, m.SetDestination(ctx, session.ID, nil, testAddress))
	_, _, err = m.Rates(ctx, session.ID, nil)
	require.NoError(t, err)

	t.Run("Success", func(t *testing.T) {
		selected, err := m.SelectRate(ctx, session.ID, nil, "jne", "YES")
		require.NoError(t, err)
		assert.Equal(t, "YES", selected.ServiceCode)
	})

	t.Run("UnknownQuote", func(t *testing.T) {
		_, err := m.SelectRate(ctx, session.ID, nil, "sicepat", "BEST")
		assert.True(t, shipping.IsUnknownQuote(err))
	})
}

func TestManager_Complete(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		orders := new(MockOrderService)
		m := newTestManager(orders)
		userID := uint(3)

		session, err := m.CreateSession(ctx, CreateSessionInput{UserID: &userID, Items: testItems})
		require.NoError(t, err)
		require.NoError(t, m.SetDestination(ctx, session.ID, &userID, testAddress))
		_, _, err = m.Rates(ctx, session.ID, &userID)
		require.NoError(t, err)
		_, err = m.SelectRate(ctx, session.ID, &userID, "jne", "YES")
		require.NoError(t, err)

		var captured order.CreateOrderInput
		orders.On("Create", mock.Anything, mock.MatchedBy(func(input order.CreateOrderInput) bool {
			captured = input
			return true
		})).Return(&order.Order{ID: 7, Status: order.StatusUnpaid}, nil)

		o, err := m.Complete(ctx, session.ID, &userID)

		require.NoError(t, err)
		assert.Equal(t, uint(7), o.ID)
		assert.Equal(t, SessionCompleted, session.Status)

		// The order snapshots the session: subtotal 90000, 10% tax, and
		// the selected quote's price as shipping cost.
		assert.Equal(t, 90000, captured.Subtotal)
		assert.Equal(t, 9000, captured.Tax)
		assert.Equal(t, 30000, captured.ShippingCost)
		assert.Equal(t, "jne", captured.CourierCode)
		assert.Equal(t, "YES", captured.ServiceCode)
		assert.Equal(t, testAddress, captured.Address)
		assert.Len(t, captured.Items, 2)
		assert.Equal(t, 50000, captured.Items[0].Subtotal)
	})

	t.Run("RequiresAddress", func(t *testing.T) {
		m := newTestManager(new(MockOrderService))
		session, err := m.CreateSession(ctx, CreateSessionInput{Items: testItems})
		require.NoError(t, err)

		_, err = m.Complete(ctx, session.ID, nil)
		assert.ErrorIs(t, err, ErrNoAddress)
	})

	t.Run("RequiresSelection", func(t *testing.T) {
		m := newTestManager(new(MockOrderService))
		session, err := m.CreateSession(ctx, CreateSessionInput{Items: testItems})
		require.NoError(t, err)
		require.NoError(t, m.SetDestination(ctx, session.ID, nil, testAddress))

		// Rates were never resolved, so nothing is selected.
		_, err = m.Complete(ctx, session.ID, nil)
		assert.ErrorIs(t, err, shipping.ErrNoSelection)
	})

	t.Run("CompletedSessionNotEditable", func(t *testing.T) {
		orders := new(MockOrderService)
		orders.On("Create", mock.Anything, mock.Anything).
			Return(&order.Order{ID: 7, Status: order.StatusUnpaid}, nil)

		m := newTestManager(orders)
		session, err := m.CreateSession(ctx, CreateSessionInput{Items: testItems})
		require.NoError(t, err)
		require.NoError(t, m.SetDestination(ctx, session.ID, nil, testAddress))
		_, _, err = m.Rates(ctx, session.ID, nil)
		require.NoError(t, err)

		_, err = m.Complete(ctx, session.ID, nil)
		require.NoError(t, err)

		_, err = m.Complete(ctx, session.ID, nil)
		assert.ErrorIs(t, err, ErrSessionNotEditable)

		err = m.SetItems(ctx, session.ID, nil, testItems)
		assert.ErrorIs(t, err, ErrSessionNotEditable)
	})
}

// Exercised with -race: edits and reads on one session from many
// goroutines must serialize through the per-session lock.
func TestManager_ConcurrentSessionEdits(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(new(MockOrderService))

	session, err := m.CreateSession(ctx, CreateSessionInput{Items: testItems})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(3)
		go func() {
			defer wg.Done()
			_ = m.SetItems(ctx, session.ID, nil, testItems)
		}()
		go func() {
			defer wg.Done()
			_ = m.SetDestination(ctx, session.ID, nil, testAddress)
		}()
		go func() {
			defer wg.Done()
			if got, err := m.GetSession(ctx, session.ID, nil); err == nil {
				_ = got.Subtotal()
			}
		}()
	}
	wg.Wait()

	got, err := m.GetSession(ctx, session.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, SessionPending, got.Status)
	assert.Equal(t, 90000, got.Subtotal())
}

func TestManager_SessionExpiry(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(new(MockOrderService))

	session, err := m.CreateSession(ctx, CreateSessionInput{Items: testItems})
	require.NoError(t, err)
	session.ExpiresAt = time.Now().Add(-time.Minute)

	err = m.SetDestination(ctx, session.ID, nil, testAddress)
	assert.ErrorIs(t, err, ErrSessionExpired)

	got, err := m.GetSession(ctx, session.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, SessionExpired, got.Status, "expiry is applied lazily on read")
}

func TestManager_SetItems(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(new(MockOrderService))

	session, err := m.CreateSession(ctx, CreateSessionInput{Items: testItems})
	require.NoError(t, err)

	t.Run("ReplacesItems", func(t *testing.T) {
		err := m.SetItems(ctx, session.ID, nil, []Item{
			{VariantID: "v-9", Price: 10000, Quantity: 3, WeightGrams: 500},
		})
		require.NoError(t, err)

		got, err := m.GetSession(ctx, session.ID, nil)
		require.NoError(t, err)
		assert.Equal(t, 30000, got.Subtotal())
	})

	t.Run("RejectsEmpty", func(t *testing.T) {
		assert.ErrorIs(t, m.SetItems(ctx, session.ID, nil, nil), ErrNoItems)
	})

	t.Run("RejectsZeroQuantity", func(t *testing.T) {
		err := m.SetItems(ctx, session.ID, nil, []Item{
			{VariantID: "v-9", Price: 10000, Quantity: 0, WeightGrams: 500},
		})
		assert.ErrorIs(t, err, ErrBadItem)
	})
}
