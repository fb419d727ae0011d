package order

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

type Repository interface {
	CreateOrderTx(ctx context.Context, o *Order, sessionID uuid.UUID) error
	GetOrderDetail(ctx context.Context, orderID uint) (*Order, error)
	GetOrderByExternalID(ctx context.Context, externalID string) (*Order, error)
	FetchOrders(ctx context.Context, filter ListFilter, limit, offset int32) ([]*Order, error)
	UpdateOrderStatus(ctx context.Context, orderID uint, from, to Status, courier, trackingNumber *string) error
	UpdatePaymentStatus(ctx context.Context, orderID uint, status PaymentStatus) error
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) CreateOrderTx(ctx context.Context, o *Order, sessionID uuid.UUID) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// 1. Insert order with the address snapshot inline
	err = tx.QueryRowContext(ctx, `
		INSERT INTO orders (
			external_id, checkout_session_id, user_id,
			status, payment_status, currency,
			subtotal, tax, shipping_cost, total_amount,
			courier_code, service_code,
			ship_name, ship_phone, ship_line1, ship_line2,
			ship_city, ship_province, ship_postal, ship_country,
			created_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21)
		RETURNING id
	`,
		o.ExternalID, sessionID, o.UserID,
		o.Status, o.PaymentStatus, o.Currency,
		o.Subtotal, o.Tax, o.ShippingCost, o.TotalAmount,
		o.CourierCode, o.ServiceCode,
		o.Address.Name, o.Address.Phone, o.Address.Line1, o.Address.Line2,
		o.Address.City, o.Address.Province, o.Address.Postal, o.Address.Country,
		o.CreatedAt,
	).Scan(&o.ID)
	if err != nil {
		return err
	}

	// 2. Insert line items
	for i := range o.Items {
		item := &o.Items[i]
		item.OrderID = o.ID
		err = tx.QueryRowContext(ctx, `
			INSERT INTO order_items (
				order_id, variant_id, variant_name, product_name,
				quantity, price, subtotal
			) VALUES ($1,$2,$3,$4,$5,$6,$7)
			RETURNING id
		`,
			item.OrderID, item.VariantID, item.VariantName, item.ProductName,
			item.Quantity, item.Price, item.Subtotal,
		).Scan(&item.ID)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

const orderColumns = `
	o.id, o.external_id, o.user_id,
	o.status, o.payment_status, o.currency,
	o.subtotal, o.tax, o.shipping_cost, o.total_amount,
	o.courier_code, o.service_code, o.courier, o.tracking_number,
	o.ship_name, o.ship_phone, o.ship_line1, o.ship_line2,
	o.ship_city, o.ship_province, o.ship_postal, o.ship_country,
	o.created_at, o.updated_at`

func scanOrder(row interface{ Scan(...any) error }) (*Order, error) {
	var o Order
	err := row.Scan(
		&o.ID, &o.ExternalID, &o.UserID,
		&o.Status, &o.PaymentStatus, &o.Currency,
		&o.Subtotal, &o.Tax, &o.ShippingCost, &o.TotalAmount,
		&o.CourierCode, &o.ServiceCode, &o.Courier, &o.TrackingNumber,
		&o.Address.Name, &o.Address.Phone, &o.Address.Line1, &o.Address.Line2,
		&o.Address.City, &o.Address.Province, &o.Address.Postal, &o.Address.Country,
		&o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *repository) GetOrderDetail(ctx context.Context, orderID uint) (*Order, error) {
	query := fmt.Sprintf(`SELECT %s FROM orders o WHERE o.id = $1`, orderColumns)

	o, err := scanOrder(r.db.QueryRowContext(ctx, query, orderID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}

	if err := r.loadItems(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

func (r *repository) GetOrderByExternalID(ctx context.Context, externalID string) (*Order, error) {
	query := fmt.Sprintf(`SELECT %s FROM orders o WHERE o.external_id = $1`, orderColumns)

	o, err := scanOrder(r.db.QueryRowContext(ctx, query, externalID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	return o, nil
}

func (r *repository) loadItems(ctx context.Context, o *Order) error {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, order_id, variant_id, variant_name, product_name, quantity, price, subtotal
		FROM order_items
		WHERE order_id = $1
		ORDER BY id
	`, o.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var item OrderItem
		if err := rows.Scan(
			&item.ID, &item.OrderID, &item.VariantID, &item.VariantName,
			&item.ProductName, &item.Quantity, &item.Price, &item.Subtotal,
		); err != nil {
			return err
		}
		o.Items = append(o.Items, item)
	}
	return rows.Err()
}

func (r *repository) FetchOrders(ctx context.Context, filter ListFilter, limit, offset int32) ([]*Order, error) {
	var (
		conditions []string
		args       []any
	)

	if filter.UserID != nil {
		args = append(args, *filter.UserID)
		conditions = append(conditions, fmt.Sprintf("o.user_id = $%d", len(args)))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		conditions = append(conditions, fmt.Sprintf("o.status = $%d", len(args)))
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	args = append(args, limit, offset)
	query := fmt.Sprintf(
		`SELECT %s FROM orders o%s ORDER BY o.created_at DESC LIMIT $%d OFFSET $%d`,
		orderColumns, where, len(args)-1, len(args),
	)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []*Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

// UpdateOrderStatus commits a transition with a compare-and-swap on the
// starting status. A concurrent transition that already moved the order
// makes the WHERE clause miss and surfaces as ErrStatusConflict.
func (r *repository) UpdateOrderStatus(ctx context.Context, orderID uint, from, to Status, courier, trackingNumber *string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE orders
		SET status = $1, courier = $2, tracking_number = $3, updated_at = NOW()
		WHERE id = $4 AND status = $5
	`, to, courier, trackingNumber, orderID, from)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrStatusConflict
	}
	return nil
}

func (r *repository) UpdatePaymentStatus(ctx context.Context, orderID uint, status PaymentStatus) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE orders SET payment_status = $1, updated_at = NOW() WHERE id = $2
	`, status, orderID)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrOrderNotFound
	}
	return nil
}
