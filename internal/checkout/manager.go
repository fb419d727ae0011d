package checkout

import (
	"context"
	"sync"
	"time"

	"gerai-be/internal/logger"
	"gerai-be/internal/order"
	"gerai-be/internal/shipping"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const taxRatePercent = 10

// Manager owns all checkout sessions and is their only mutation entry
// point. Sessions are held in memory for the duration of checkout; an
// abandoned session simply expires.
type Manager struct {
	orders        order.Service
	origin        shipping.Origin
	domestic      shipping.Provider
	international shipping.Provider
	debounce      time.Duration

	mu       sync.Mutex
	sessions map[uuid.UUID]*Session
	locks    map[uuid.UUID]*sync.Mutex
}

type ManagerOption func(*Manager)

func WithRateDebounce(d time.Duration) ManagerOption {
	return func(m *Manager) { m.debounce = d }
}

func NewManager(orders order.Service, origin shipping.Origin, domestic, international shipping.Provider, opts ...ManagerOption) *Manager {
	m := &Manager{
		orders:        orders,
		origin:        origin,
		domestic:      domestic,
		international: international,
		debounce:      shipping.DefaultDebounce,
		sessions:      make(map[uuid.UUID]*Session),
		locks:         make(map[uuid.UUID]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

type CreateSessionInput struct {
	UserID   *uint
	Currency string
	Items    []Item
}

func (m *Manager) CreateSession(ctx context.Context, input CreateSessionInput) (*Session, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "checkout"),
		zap.String("method", "CreateSession"),
		zap.Int("item_count", len(input.Items)),
	)

	if len(input.Items) == 0 {
		return nil, ErrNoItems
	}
	for _, item := range input.Items {
		if item.Quantity < 1 || item.WeightGrams < 1 {
			log.Warn("rejected item",
				zap.String("variant_id", item.VariantID),
				zap.Int("quantity", item.Quantity),
				zap.Int("weight_grams", item.WeightGrams),
			)
			return nil, ErrBadItem
		}
	}

	currency := input.Currency
	if currency == "" {
		currency = "IDR"
	}

	now := time.Now()
	session := &Session{
		ID:        uuid.New(),
		UserID:    input.UserID,
		Status:    SessionPending,
		Items:     input.Items,
		Currency:  currency,
		CreatedAt: now,
		ExpiresAt: now.Add(sessionTTL),
		resolver: shipping.NewResolver(m.origin, m.domestic, m.international,
			shipping.WithDebounce(m.debounce)),
	}
	session.resolver.SetManifest(context.WithoutCancel(ctx), session.manifest())

	m.mu.Lock()
	m.sessions[session.ID] = session
	m.locks[session.ID] = &sync.Mutex{}
	m.mu.Unlock()

	log.Info("checkout session created", zap.String("session_id", session.ID.String()))
	return session, nil
}

// lockSession serializes access per session id, the same way the order
// service serializes per order. The returned unlock must be called; the
// manager's own mutex only guards the maps.
func (m *Manager) lockSession(sessionID uuid.UUID) (*Session, func(), error) {
	m.mu.Lock()
	session, ok := m.sessions[sessionID]
	lock := m.locks[sessionID]
	m.mu.Unlock()
	if !ok {
		return nil, nil, ErrSessionNotFound
	}

	lock.Lock()
	return session, lock.Unlock, nil
}

func (m *Manager) getEditable(sessionID uuid.UUID, userID *uint) (*Session, func(), error) {
	session, unlock, err := m.lockSession(sessionID)
	if err != nil {
		return nil, nil, err
	}
	if session.UserID != nil && userID != nil && *session.UserID != *userID {
		unlock()
		return nil, nil, ErrForbidden
	}
	if session.expired() {
		session.Status = SessionExpired
		unlock()
		return nil, nil, ErrSessionExpired
	}
	if session.Status != SessionPending {
		unlock()
		return nil, nil, ErrSessionNotEditable
	}
	return session, unlock, nil
}

// SetDestination snapshots the shipping address onto the session and feeds
// the destination into the resolver's debounce window.
func (m *Manager) SetDestination(ctx context.Context, sessionID uuid.UUID, userID *uint, addr order.Address) error {
	session, unlock, err := m.getEditable(sessionID, userID)
	if err != nil {
		return err
	}
	defer unlock()

	copied := addr
	session.Address = &copied
	session.resolver.SetDestination(context.WithoutCancel(ctx), shipping.Destination{
		PostalCode:  addr.Postal,
		CountryCode: addr.Country,
		City:        addr.City,
	})
	return nil
}

// SetItems replaces the session's line items and feeds the new manifest
// into the resolver's debounce window.
func (m *Manager) SetItems(ctx context.Context, sessionID uuid.UUID, userID *uint, items []Item) error {
	session, unlock, err := m.getEditable(sessionID, userID)
	if err != nil {
		return err
	}
	defer unlock()

	if len(items) == 0 {
		return ErrNoItems
	}
	for _, item := range items {
		if item.Quantity < 1 || item.WeightGrams < 1 {
			return ErrBadItem
		}
	}

	session.Items = items
	session.resolver.SetManifest(context.WithoutCancel(ctx), session.manifest())
	return nil
}

// Rates resolves the ranked quote set for the session's current inputs,
// forcing any pending debounced resolution to run now.
func (m *Manager) Rates(ctx context.Context, sessionID uuid.UUID, userID *uint) ([]shipping.Quote, *shipping.Quote, error) {
	session, unlock, err := m.getEditable(sessionID, userID)
	if err != nil {
		return nil, nil, err
	}
	defer unlock()

	if session.Address == nil {
		return nil, nil, ErrNoAddress
	}
	return session.resolver.Resolve(ctx)
}

// SelectRate replaces the selected quote with one from the last-resolved
// set.
func (m *Manager) SelectRate(ctx context.Context, sessionID uuid.UUID, userID *uint, courierCode, serviceCode string) (*shipping.Quote, error) {
	session, unlock, err := m.getEditable(sessionID, userID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	return session.resolver.Select(courierCode, serviceCode)
}

// Complete turns the session into an order: item prices, the address, and
// the selected quote's cost are snapshotted, and the order starts its
// lifecycle at UNPAID.
func (m *Manager) Complete(ctx context.Context, sessionID uuid.UUID, userID *uint) (*order.Order, error) {
	session, unlock, err := m.getEditable(sessionID, userID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	log := logger.FromCtx(ctx).With(
		zap.String("layer", "checkout"),
		zap.String("method", "Complete"),
		zap.String("session_id", session.ID.String()),
	)

	if session.Address == nil {
		return nil, ErrNoAddress
	}

	selected, err := session.resolver.Selected()
	if err != nil {
		return nil, err
	}

	items := make([]order.OrderItem, 0, len(session.Items))
	for _, item := range session.Items {
		items = append(items, order.OrderItem{
			VariantID:   item.VariantID,
			VariantName: item.VariantName,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			Price:       item.Price,
			Subtotal:    item.Price * item.Quantity,
		})
	}

	subtotal := session.Subtotal()
	tax := subtotal * taxRatePercent / 100

	o, err := m.orders.Create(ctx, order.CreateOrderInput{
		UserID:       session.UserID,
		Currency:     session.Currency,
		Subtotal:     subtotal,
		Tax:          tax,
		ShippingCost: selected.Price,
		CourierCode:  selected.CourierCode,
		ServiceCode:  selected.ServiceCode,
		Items:        items,
		Address:      *session.Address,
		SessionID:    session.ID,
	})
	if err != nil {
		log.Error("failed to create order from session", zap.Error(err))
		return nil, err
	}

	session.Status = SessionCompleted
	log.Info("checkout completed",
		zap.Uint("order_id", o.ID),
		zap.Int("shipping_cost", selected.Price),
	)
	return o, nil
}

// GetSession returns a copy of the session for display; expiry is applied
// lazily. The copy keeps readers off fields a concurrent edit may touch.
func (m *Manager) GetSession(ctx context.Context, sessionID uuid.UUID, userID *uint) (*Session, error) {
	session, unlock, err := m.lockSession(sessionID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if session.UserID != nil && userID != nil && *session.UserID != *userID {
		return nil, ErrForbidden
	}
	if session.expired() && session.Status == SessionPending {
		session.Status = SessionExpired
	}

	copied := *session
	copied.Items = append([]Item(nil), session.Items...)
	if session.Address != nil {
		addr := *session.Address
		copied.Address = &addr
	}
	return &copied, nil
}
