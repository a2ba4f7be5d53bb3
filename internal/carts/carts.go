// Package carts maintains the single active cart per user and keeps its
// total price in sync with live menu prices.
//
// The total is never adjusted incrementally: every mutation re-reads the
// current price of every line and re-sums the whole cart, so a price change
// by the restaurant is reflected the next time the cart is touched. All
// mutations run inside a transaction that locks the cart row, which
// serializes concurrent writes from the same user.
package carts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

var (
	ErrCartNotFound     = errors.New("cart not found")
	ErrItemNotInCart    = errors.New("item not found in cart")
	ErrMenuItemNotFound = errors.New("menu item not found")
	ErrInvalidQuantity  = errors.New("quantity must be a positive number")
	ErrInsufficientQty  = errors.New("requested quantity exceeds available quantity")
)

type Conf struct {
	db *sql.DB
}

func NewConf(db *sql.DB) (Conf, error) {
	if db == nil {
		return Conf{}, fmt.Errorf("db is nil")
	}
	return Conf{db: db}, nil
}

const (
	queryLockCart = `
		SELECT id
		FROM carts
		WHERE user_id = $1
		FOR UPDATE
	`
	queryCreateCart = `
		INSERT INTO carts (user_id, total_price, created_at, updated_at)
		VALUES ($1, 0, NOW(), NOW())
		RETURNING id
	`
	queryMenuItemInfo = `
		SELECT restaurant_id, price, available_qty
		FROM menu_items
		WHERE id = $1
	`
	queryCartLine = `
		SELECT id, quantity
		FROM cart_items
		WHERE cart_id = $1 AND menu_item_id = $2
	`
	queryCartLines = `
		SELECT ci.menu_item_id, m.name, ci.quantity, m.price
		FROM cart_items ci
		JOIN menu_items m ON m.id = ci.menu_item_id
		WHERE ci.cart_id = $1
		ORDER BY ci.id
	`
	queryUpdateCartTotal = `
		UPDATE carts
		SET total_price = $1, updated_at = NOW()
		WHERE id = $2
	`
)

// AddToCartDB adds quantity of a menu item to the user's cart, creating the
// cart if the user has none. A repeated add increments the existing line
// instead of duplicating it. Returns the updated cart with a freshly
// recomputed total.
func (c *Conf) AddToCartDB(ctx context.Context, userID, menuItemID string, quantity int) (Cart, error) {
	if quantity <= 0 {
		return Cart{}, ErrInvalidQuantity
	}

	var cart Cart
	err := c.withTx(ctx, func(tx *sql.Tx) error {
		cartID, err := c.lockOrCreateCart(ctx, tx, userID)
		if err != nil {
			return err
		}

		var restaurantID string
		var price float64
		var availableQty int
		err = tx.QueryRowContext(ctx, queryMenuItemInfo, menuItemID).Scan(&restaurantID, &price, &availableQty)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrMenuItemNotFound
			}
			return fmt.Errorf("failed to query menu item: %w", err)
		}

		var lineID, existingQty int
		err = tx.QueryRowContext(ctx, queryCartLine, cartID, menuItemID).Scan(&lineID, &existingQty)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			if quantity > availableQty {
				return ErrInsufficientQty
			}
			queryAddLine := `
				INSERT INTO cart_items (cart_id, menu_item_id, quantity, created_at, updated_at)
				VALUES ($1, $2, $3, NOW(), NOW())
			`
			if _, err := tx.ExecContext(ctx, queryAddLine, cartID, menuItemID, quantity); err != nil {
				return fmt.Errorf("failed to add cart line: %w", err)
			}
		case err != nil:
			return fmt.Errorf("failed to query cart line: %w", err)
		default:
			newQuantity := existingQty + quantity
			if newQuantity > availableQty {
				return ErrInsufficientQty
			}
			queryUpdateLine := `
				UPDATE cart_items
				SET quantity = $1, updated_at = NOW()
				WHERE id = $2
			`
			if _, err := tx.ExecContext(ctx, queryUpdateLine, newQuantity, lineID); err != nil {
				return fmt.Errorf("failed to update cart line: %w", err)
			}
		}

		cart, err = c.recomputeTotal(ctx, tx, cartID, userID)
		return err
	})
	if err != nil {
		return Cart{}, err
	}

	return cart, nil
}

// GetActiveCart returns the user's cart with the total computed from live
// menu prices. A user without a cart gets an empty representation.
func (c *Conf) GetActiveCart(ctx context.Context, userID string) (Cart, error) {
	var cartID int
	err := c.db.QueryRowContext(ctx, `SELECT id FROM carts WHERE user_id = $1`, userID).Scan(&cartID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Cart{UserID: userID, Items: []CartLine{}}, nil
		}
		return Cart{}, fmt.Errorf("failed to query cart: %w", err)
	}

	lines, total, err := c.readLines(ctx, c.db.QueryContext, cartID)
	if err != nil {
		return Cart{}, err
	}

	return Cart{UserID: userID, Items: lines, TotalPrice: total}, nil
}

// UpdateItemQuantityDB sets the quantity of an existing line and recomputes
// the cart total.
func (c *Conf) UpdateItemQuantityDB(ctx context.Context, userID, menuItemID string, quantity int) (Cart, error) {
	if quantity <= 0 {
		return Cart{}, ErrInvalidQuantity
	}

	var cart Cart
	err := c.withTx(ctx, func(tx *sql.Tx) error {
		cartID, err := c.lockCart(ctx, tx, userID)
		if err != nil {
			return err
		}

		var lineID, existingQty int
		err = tx.QueryRowContext(ctx, queryCartLine, cartID, menuItemID).Scan(&lineID, &existingQty)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrItemNotInCart
			}
			return fmt.Errorf("failed to query cart line: %w", err)
		}

		var restaurantID string
		var price float64
		var availableQty int
		err = tx.QueryRowContext(ctx, queryMenuItemInfo, menuItemID).Scan(&restaurantID, &price, &availableQty)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrMenuItemNotFound
			}
			return fmt.Errorf("failed to query menu item: %w", err)
		}
		if quantity > availableQty {
			return ErrInsufficientQty
		}

		queryUpdateLine := `
			UPDATE cart_items
			SET quantity = $1, updated_at = NOW()
			WHERE id = $2
		`
		if _, err := tx.ExecContext(ctx, queryUpdateLine, quantity, lineID); err != nil {
			return fmt.Errorf("failed to update cart line: %w", err)
		}

		cart, err = c.recomputeTotal(ctx, tx, cartID, userID)
		return err
	})
	if err != nil {
		return Cart{}, err
	}

	return cart, nil
}

// RemoveItemDB deletes a line and recomputes the total over the remaining
// lines.
func (c *Conf) RemoveItemDB(ctx context.Context, userID, menuItemID string) (Cart, error) {
	var cart Cart
	err := c.withTx(ctx, func(tx *sql.Tx) error {
		cartID, err := c.lockCart(ctx, tx, userID)
		if err != nil {
			return err
		}

		queryDeleteLine := `
			DELETE FROM cart_items
			WHERE cart_id = $1 AND menu_item_id = $2
		`
		res, err := tx.ExecContext(ctx, queryDeleteLine, cartID, menuItemID)
		if err != nil {
			return fmt.Errorf("failed to delete cart line: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to read affected rows: %w", err)
		}
		if affected == 0 {
			return ErrItemNotInCart
		}

		cart, err = c.recomputeTotal(ctx, tx, cartID, userID)
		return err
	})
	if err != nil {
		return Cart{}, err
	}

	return cart, nil
}

// ClearCartDB empties the cart and resets its total to zero. Clearing an
// already-empty cart succeeds; only a user who never had a cart gets
// ErrCartNotFound.
func (c *Conf) ClearCartDB(ctx context.Context, userID string) error {
	return c.withTx(ctx, func(tx *sql.Tx) error {
		cartID, err := c.lockCart(ctx, tx, userID)
		if err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, cartID); err != nil {
			return fmt.Errorf("failed to clear cart lines: %w", err)
		}
		if _, err := tx.ExecContext(ctx, queryUpdateCartTotal, 0, cartID); err != nil {
			return fmt.Errorf("failed to reset cart total: %w", err)
		}
		return nil
	})
}

func (c *Conf) lockCart(ctx context.Context, tx *sql.Tx, userID string) (int, error) {
	var cartID int
	err := tx.QueryRowContext(ctx, queryLockCart, userID).Scan(&cartID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrCartNotFound
		}
		return 0, fmt.Errorf("failed to lock cart: %w", err)
	}
	return cartID, nil
}

func (c *Conf) lockOrCreateCart(ctx context.Context, tx *sql.Tx, userID string) (int, error) {
	cartID, err := c.lockCart(ctx, tx, userID)
	if err == nil {
		return cartID, nil
	}
	if !errors.Is(err, ErrCartNotFound) {
		return 0, err
	}

	err = tx.QueryRowContext(ctx, queryCreateCart, userID).Scan(&cartID)
	if err != nil {
		return 0, fmt.Errorf("failed to create cart: %w", err)
	}
	return cartID, nil
}

type queryFunc func(ctx context.Context, query string, args ...any) (*sql.Rows, error)

func (c *Conf) readLines(ctx context.Context, query queryFunc, cartID int) ([]CartLine, float64, error) {
	rows, err := query(ctx, queryCartLines, cartID)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query cart lines: %w", err)
	}
	defer rows.Close()

	lines := []CartLine{}
	var total float64
	for rows.Next() {
		var line CartLine
		if err := rows.Scan(&line.MenuItemID, &line.Name, &line.Quantity, &line.UnitPrice); err != nil {
			return nil, 0, fmt.Errorf("failed to scan cart line: %w", err)
		}
		line.LineTotal = line.UnitPrice * float64(line.Quantity)
		total += line.LineTotal
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating cart lines: %w", err)
	}

	return lines, total, nil
}

// recomputeTotal re-sums the cart from current menu prices and writes the
// result back to the cart row.
func (c *Conf) recomputeTotal(ctx context.Context, tx *sql.Tx, cartID int, userID string) (Cart, error) {
	lines, total, err := c.readLines(ctx, tx.QueryContext, cartID)
	if err != nil {
		return Cart{}, err
	}

	if _, err := tx.ExecContext(ctx, queryUpdateCartTotal, total, cartID); err != nil {
		return Cart{}, fmt.Errorf("failed to update cart total: %w", err)
	}

	return Cart{UserID: userID, Items: lines, TotalPrice: total}, nil
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
