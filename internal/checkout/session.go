package checkout

import (
	"time"

	"gerai-be/internal/order"
	"gerai-be/internal/shipping"

	"github.com/google/uuid"
)

type SessionStatus string

const (
	SessionPending   SessionStatus = "PENDING"
	SessionCompleted SessionStatus = "COMPLETED"
	SessionExpired   SessionStatus = "EXPIRED"
)

const sessionTTL = 30 * time.Minute

type Item struct {
	VariantID   string
	VariantName string
	ProductName string
	Price       int
	Quantity    int
	WeightGrams int
}

// Session is the in-progress checkout: items, destination, and the
// shipping resolver holding quote state. All mutation goes through the
// Manager so session state stays traceable.
type Session struct {
	ID        uuid.UUID
	UserID    *uint
	Status    SessionStatus
	Items     []Item
	Address   *order.Address
	Currency  string
	CreatedAt time.Time
	ExpiresAt time.Time

	resolver *shipping.Resolver
}

func (s *Session) Subtotal() int {
	subtotal := 0
	for _, item := range s.Items {
		subtotal += item.Price * item.Quantity
	}
	return subtotal
}

func (s *Session) manifest() shipping.Manifest {
	manifest := make(shipping.Manifest, 0, len(s.Items))
	for _, item := range s.Items {
		manifest = append(manifest, shipping.ParcelItem{
			WeightGrams: item.WeightGrams,
			Quantity:    item.Quantity,
		})
	}
	return manifest
}

func (s *Session) expired() bool {
	return time.Now().After(s.ExpiresAt)
}
