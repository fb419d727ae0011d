package order

import (
	"context"
	"sync"
	"time"

	"gerai-be/internal/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Service interface {
	Create(ctx context.Context, input CreateOrderInput) (*Order, error)
	GetOrderDetail(ctx context.Context, userID, orderID uint, isAdmin bool) (*Order, error)
	ListOrders(ctx context.Context, filter ListFilter, limit, offset int32) ([]*Order, error)
	Transition(ctx context.Context, orderID uint, target Status) (*Order, error)
	MarkPaymentStatus(ctx context.Context, externalID string, status PaymentStatus) error
}

type service struct {
	repo    Repository
	machine *Machine

	// Per-order mutual exclusion for Transition. Two concurrent
	// transition requests on the same order must serialize here so at
	// most one can succeed from a given starting status.
	mu    sync.Mutex
	locks map[uint]*sync.Mutex
}

func NewService(repo Repository, machine *Machine) Service {
	return &service{
		repo:    repo,
		machine: machine,
		locks:   make(map[uint]*sync.Mutex),
	}
}

func (s *service) orderLock(orderID uint) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.locks[orderID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[orderID] = l
	}
	return l
}

func (s *service) Create(ctx context.Context, input CreateOrderInput) (*Order, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "Create"),
		zap.Int("item_count", len(input.Items)),
	)

	if len(input.Items) == 0 {
		log.Warn("rejected order with no items")
		return nil, ErrEmptyOrder
	}
	for _, item := range input.Items {
		if item.Quantity < 1 {
			log.Warn("rejected order item with invalid quantity",
				zap.String("variant_id", item.VariantID),
				zap.Int("quantity", item.Quantity),
			)
			return nil, ErrInvalidQuantity
		}
	}

	o := &Order{
		ExternalID:    uuid.New(),
		UserID:        input.UserID,
		Status:        StatusUnpaid,
		PaymentStatus: PaymentUnpaid,
		Currency:      input.Currency,
		Subtotal:      input.Subtotal,
		Tax:           input.Tax,
		ShippingCost:  input.ShippingCost,
		TotalAmount:   input.Subtotal + input.Tax + input.ShippingCost,
		CourierCode:   input.CourierCode,
		ServiceCode:   input.ServiceCode,
		Items:         input.Items,
		Address:       input.Address,
		CreatedAt:     time.Now(),
	}

	if err := s.repo.CreateOrderTx(ctx, o, input.SessionID); err != nil {
		log.Error("failed to persist order", zap.Error(err))
		return nil, err
	}

	log.Info("order created",
		zap.Uint("order_id", o.ID),
		zap.String("external_id", o.ExternalID.String()),
		zap.Int("total_amount", o.TotalAmount),
	)

	return o, nil
}

func (s *service) GetOrderDetail(ctx context.Context, userID, orderID uint, isAdmin bool) (*Order, error) {
	o, err := s.repo.GetOrderDetail(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if !isAdmin && (o.UserID == nil || *o.UserID != userID) {
		return nil, ErrUnauthorized
	}

	return o, nil
}

func (s *service) ListOrders(ctx context.Context, filter ListFilter, limit, offset int32) ([]*Order, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.repo.FetchOrders(ctx, filter, limit, offset)
}

// Transition applies the state machine under a per-order lock and commits
// the result with a compare-and-swap on the starting status. The waybill
// side effect runs before the commit, so a courier failure never leaves a
// half-shipped order behind.
func (s *service) Transition(ctx context.Context, orderID uint, target Status) (*Order, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "Transition"),
		zap.Uint("order_id", orderID),
		zap.String("target", string(target)),
	)

	l := s.orderLock(orderID)
	l.Lock()
	defer l.Unlock()

	o, err := s.repo.GetOrderDetail(ctx, orderID)
	if err != nil {
		return nil, err
	}

	from := o.Status
	if target == from {
		// Retried client call, nothing to do.
		return o, nil
	}

	if err := s.machine.Transition(ctx, o, target); err != nil {
		log.Warn("transition rejected", zap.String("from", string(from)), zap.Error(err))
		return nil, err
	}

	if err := s.repo.UpdateOrderStatus(ctx, o.ID, from, o.Status, o.Courier, o.TrackingNumber); err != nil {
		log.Error("failed to commit transition",
			zap.String("from", string(from)),
			zap.Error(err),
		)
		return nil, err
	}

	log.Info("order transitioned",
		zap.String("from", string(from)),
		zap.String("to", string(o.Status)),
	)

	return o, nil
}

// MarkPaymentStatus advances the payment axis only. Order status is never
// touched here; dispatch gating on payment is a policy concern.
func (s *service) MarkPaymentStatus(ctx context.Context, externalID string, status PaymentStatus) error {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "MarkPaymentStatus"),
		zap.String("external_id", externalID),
		zap.String("payment_status", string(status)),
	)

	o, err := s.repo.GetOrderByExternalID(ctx, externalID)
	if err != nil {
		return err
	}

	if o.PaymentStatus == status {
		log.Info("payment status already applied")
		return nil
	}

	if err := s.repo.UpdatePaymentStatus(ctx, o.ID, status); err != nil {
		log.Error("failed to update payment status", zap.Error(err))
		return err
	}

	log.Info("payment status updated")
	return nil
}
