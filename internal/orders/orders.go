// Package orders materializes carts into immutable orders and moves them
// through the fulfillment workflow.
package orders

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

var (
	ErrCartEmpty         = errors.New("cart is empty")
	ErrMixedRestaurants  = errors.New("all items must be from the same restaurant")
	ErrOrderNotFound     = errors.New("order not found")
	ErrNotOrderOwner     = errors.New("order belongs to a different restaurant")
	ErrInvalidTransition = errors.New("invalid order status transition")
)

type Conf struct {
	db *sql.DB
}

func NewConf(db *sql.DB) (*Conf, error) {
	if db == nil {
		return nil, fmt.Errorf("db is nil")
	}
	return &Conf{db: db}, nil
}

const (
	queryLockCartForCheckout = `
		SELECT id
		FROM carts
		WHERE user_id = $1
		FOR UPDATE
	`
	queryCheckoutLines = `
		SELECT ci.menu_item_id, m.name, ci.quantity, m.price, m.restaurant_id
		FROM cart_items ci
		JOIN menu_items m ON m.id = ci.menu_item_id
		WHERE ci.cart_id = $1
		ORDER BY ci.id
	`
	queryInsertOrder = `
		INSERT INTO orders
			(id, user_id, restaurant_id, subtotal, tax, delivery_fee, total_amount, delivery_address, status, payment_status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), NOW())
		RETURNING created_at, updated_at
	`
	queryInsertOrderItem = `
		INSERT INTO order_items (order_id, menu_item_id, quantity, line_total)
		VALUES ($1, $2, $3, $4)
	`
	queryOrderByID = `
		SELECT id, user_id, restaurant_id, subtotal, tax, delivery_fee, total_amount, delivery_address, status, payment_status, created_at, updated_at
		FROM orders
		WHERE id = $1
	`
	queryOrderItems = `
		SELECT oi.menu_item_id, COALESCE(m.name, ''), oi.quantity, oi.line_total
		FROM order_items oi
		LEFT JOIN menu_items m ON m.id = oi.menu_item_id
		WHERE oi.order_id = $1
		ORDER BY oi.id
	`
)

// CreateOrder converts the user's cart into an order inside one transaction:
// the cart row is locked, line totals are recomputed from live menu prices,
// the single-restaurant invariant is checked, the order rows are written and
// only then is the cart emptied. Any failure rolls the whole thing back and
// leaves the cart untouched.
func (c *Conf) CreateOrder(ctx context.Context, orderID, userID, deliveryAddress string) (Order, error) {
	var order Order
	err := c.withTx(ctx, func(tx *sql.Tx) error {
		var cartID int
		err := tx.QueryRowContext(ctx, queryLockCartForCheckout, userID).Scan(&cartID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrCartEmpty
			}
			return fmt.Errorf("failed to lock cart: %w", err)
		}

		rows, err := tx.QueryContext(ctx, queryCheckoutLines, cartID)
		if err != nil {
			return fmt.Errorf("failed to query cart lines: %w", err)
		}
		defer rows.Close()

		var lines []OrderLine
		var restaurantID string
		var subtotal float64
		for rows.Next() {
			var line OrderLine
			var price float64
			var lineRestaurant string
			if err := rows.Scan(&line.MenuItemID, &line.Name, &line.Quantity, &price, &lineRestaurant); err != nil {
				return fmt.Errorf("failed to scan cart line: %w", err)
			}
			if restaurantID == "" {
				restaurantID = lineRestaurant
			} else if lineRestaurant != restaurantID {
				return ErrMixedRestaurants
			}
			line.LineTotal = price * float64(line.Quantity)
			subtotal += line.LineTotal
			lines = append(lines, line)
		}
		if err := rows.Err(); err != nil {
			return fmt.Errorf("error iterating cart lines: %w", err)
		}
		if len(lines) == 0 {
			return ErrCartEmpty
		}

		charges := ComputeCharges(subtotal)
		order = Order{
			ID:              orderID,
			UserID:          userID,
			RestaurantID:    restaurantID,
			Items:           lines,
			Subtotal:        charges.Subtotal,
			Tax:             charges.Tax,
			DeliveryFee:     charges.DeliveryFee,
			TotalAmount:     charges.TotalAmount,
			DeliveryAddress: deliveryAddress,
			Status:          StatusPending,
			PaymentStatus:   PaymentPending,
		}

		err = tx.QueryRowContext(ctx, queryInsertOrder,
			order.ID, order.UserID, order.RestaurantID, order.Subtotal, order.Tax,
			order.DeliveryFee, order.TotalAmount, order.DeliveryAddress,
			string(order.Status), order.PaymentStatus,
		).Scan(&order.CreatedAt, &order.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert order: %w", err)
		}

		for _, line := range lines {
			if _, err := tx.ExecContext(ctx, queryInsertOrderItem, order.ID, line.MenuItemID, line.Quantity, line.LineTotal); err != nil {
				return fmt.Errorf("failed to insert order item: %w", err)
			}
		}

		// The order rows are in; now it is safe to empty the cart.
		if _, err := tx.ExecContext(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, cartID); err != nil {
			return fmt.Errorf("failed to clear cart lines: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `UPDATE carts SET total_price = 0, updated_at = NOW() WHERE id = $1`, cartID); err != nil {
			return fmt.Errorf("failed to reset cart total: %w", err)
		}

		return nil
	})
	if err != nil {
		return Order{}, err
	}

	return order, nil
}

// GetOrderByID fetches one order with its lines.
func (c *Conf) GetOrderByID(ctx context.Context, orderID string) (Order, error) {
	var order Order
	err := c.db.QueryRowContext(ctx, queryOrderByID, orderID).Scan(
		&order.ID, &order.UserID, &order.RestaurantID, &order.Subtotal, &order.Tax,
		&order.DeliveryFee, &order.TotalAmount, &order.DeliveryAddress,
		&order.Status, &order.PaymentStatus, &order.CreatedAt, &order.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Order{}, ErrOrderNotFound
		}
		return Order{}, fmt.Errorf("failed to query order: %w", err)
	}

	if order.Items, err = c.orderItems(ctx, order.ID); err != nil {
		return Order{}, err
	}
	return order, nil
}

// ListOrdersByUser returns the user's orders, newest first.
func (c *Conf) ListOrdersByUser(ctx context.Context, userID string) ([]Order, error) {
	query := `
		SELECT id, user_id, restaurant_id, subtotal, tax, delivery_fee, total_amount, delivery_address, status, payment_status, created_at, updated_at
		FROM orders
		WHERE user_id = $1
		ORDER BY created_at DESC
	`
	return c.listOrders(ctx, query, userID)
}

// ListOrdersByRestaurant returns a restaurant's orders, newest first.
func (c *Conf) ListOrdersByRestaurant(ctx context.Context, restaurantID string) ([]Order, error) {
	query := `
		SELECT id, user_id, restaurant_id, subtotal, tax, delivery_fee, total_amount, delivery_address, status, payment_status, created_at, updated_at
		FROM orders
		WHERE restaurant_id = $1
		ORDER BY created_at DESC
	`
	return c.listOrders(ctx, query, restaurantID)
}

// UpdateOrderStatus moves an order to newStatus if the caller owns the order
// and the transition is allowed by the workflow. Returns the updated order
// and the status it moved from.
func (c *Conf) UpdateOrderStatus(ctx context.Context, orderID, restaurantID string, newStatus Status) (Order, Status, error) {
	var oldStatus Status
	err := c.withTx(ctx, func(tx *sql.Tx) error {
		queryLockOrder := `
			SELECT restaurant_id, status
			FROM orders
			WHERE id = $1
			FOR UPDATE
		`
		var owner string
		err := tx.QueryRowContext(ctx, queryLockOrder, orderID).Scan(&owner, &oldStatus)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrOrderNotFound
			}
			return fmt.Errorf("failed to lock order: %w", err)
		}
		if owner != restaurantID {
			return ErrNotOrderOwner
		}
		if !CanTransition(oldStatus, newStatus) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, oldStatus, newStatus)
		}

		queryUpdateStatus := `
			UPDATE orders
			SET status = $1, updated_at = NOW()
			WHERE id = $2
		`
		if _, err := tx.ExecContext(ctx, queryUpdateStatus, string(newStatus), orderID); err != nil {
			return fmt.Errorf("failed to update order status: %w", err)
		}
		return nil
	})
	if err != nil {
		return Order{}, "", err
	}

	order, err := c.GetOrderByID(ctx, orderID)
	if err != nil {
		return Order{}, "", err
	}
	return order, oldStatus, nil
}

func (c *Conf) listOrders(ctx context.Context, query string, arg any) ([]Order, error) {
	rows, err := c.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	orders := []Order{}
	for rows.Next() {
		var order Order
		if err := rows.Scan(
			&order.ID, &order.UserID, &order.RestaurantID, &order.Subtotal, &order.Tax,
			&order.DeliveryFee, &order.TotalAmount, &order.DeliveryAddress,
			&order.Status, &order.PaymentStatus, &order.CreatedAt, &order.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating orders: %w", err)
	}

	for i := range orders {
		if orders[i].Items, err = c.orderItems(ctx, orders[i].ID); err != nil {
			return nil, err
		}
	}
	return orders, nil
}

func (c *Conf) orderItems(ctx context.Context, orderID string) ([]OrderLine, error) {
	rows, err := c.db.QueryContext(ctx, queryOrderItems, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to query order items: %w", err)
	}
	defer rows.Close()

	items := []OrderLine{}
	for rows.Next() {
		var line OrderLine
		if err := rows.Scan(&line.MenuItemID, &line.Name, &line.Quantity, &line.LineTotal); err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		items = append(items, line)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating order items: %w", err)
	}
	return items, nil
}

func (c *Conf) withTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}

	if err := fn(tx); err != nil {
		if er := tx.Rollback(); er != nil && !errors.Is(er, sql.ErrTxDone) {
			return fmt.Errorf("failed to rollback withTx: %w", er)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit withTx: %w", err)
	}
	return nil
}
