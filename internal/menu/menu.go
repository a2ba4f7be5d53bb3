// Package menu owns the restaurant menu catalog. Items are created and
// mutated only by the restaurant account they belong to.
package menu

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrNotFound = errors.New("menu item not found")
	ErrNotOwner = errors.New("menu item belongs to a different restaurant")
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

// InsertMenuItem saves a new item under the given restaurant.
func (c *Conf) InsertMenuItem(ctx context.Context, restaurantID string, nm NewMenuItem) (MenuItem, error) {
	item := MenuItem{
		ID:                 uuid.NewString(),
		RestaurantID:       restaurantID,
		Name:               nm.Name,
		Description:        nm.Description,
		Price:              *nm.Price,
		AvailableQty:       *nm.AvailableQty,
		DiscountPercentage: nm.DiscountPercentage,
		IsVeg:              nm.IsVeg,
		Category:           nm.Category,
	}

	query := `
		INSERT INTO menu_items
			(id, restaurant_id, name, description, price, available_qty, discount_percentage, is_veg, category, rating, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, 0, NOW(), NOW())
		RETURNING rating, created_at, updated_at
	`
	err := c.db.QueryRowContext(ctx, query,
		item.ID, item.RestaurantID, item.Name, item.Description, item.Price,
		item.AvailableQty, item.DiscountPercentage, item.IsVeg, item.Category,
	).Scan(&item.Rating, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return MenuItem{}, fmt.Errorf("failed to insert menu item: %w", err)
	}

	return item, nil
}

// GetMenuItemByID fetches a single item.
func (c *Conf) GetMenuItemByID(ctx context.Context, id string) (MenuItem, error) {
	query := `
		SELECT id, restaurant_id, name, description, price, available_qty, discount_percentage, is_veg, category, rating, created_at, updated_at
		FROM menu_items
		WHERE id = $1
	`
	var item MenuItem
	err := c.db.QueryRowContext(ctx, query, id).Scan(
		&item.ID, &item.RestaurantID, &item.Name, &item.Description, &item.Price,
		&item.AvailableQty, &item.DiscountPercentage, &item.IsVeg, &item.Category,
		&item.Rating, &item.CreatedAt, &item.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return MenuItem{}, ErrNotFound
		}
		return MenuItem{}, fmt.Errorf("failed to query menu item: %w", err)
	}
	return item, nil
}

// UpdateMenuItemInDB applies the non-nil fields of um to the item. The caller
// must be the owning restaurant.
func (c *Conf) UpdateMenuItemInDB(ctx context.Context, id, restaurantID string, um UpdateMenuItem) (MenuItem, error) {
	current, err := c.GetMenuItemByID(ctx, id)
	if err != nil {
		return MenuItem{}, err
	}
	if current.RestaurantID != restaurantID {
		return MenuItem{}, ErrNotOwner
	}

	if um.Name != nil {
		current.Name = *um.Name
	}
	if um.Description != nil {
		current.Description = *um.Description
	}
	if um.Price != nil {
		current.Price = *um.Price
	}
	if um.AvailableQty != nil {
		current.AvailableQty = *um.AvailableQty
	}
	if um.DiscountPercentage != nil {
		current.DiscountPercentage = *um.DiscountPercentage
	}
	if um.IsVeg != nil {
		current.IsVeg = *um.IsVeg
	}
	if um.Category != nil {
		current.Category = *um.Category
	}

	query := `
		UPDATE menu_items
		SET name = $1, description = $2, price = $3, available_qty = $4,
		    discount_percentage = $5, is_veg = $6, category = $7, updated_at = NOW()
		WHERE id = $8 AND restaurant_id = $9
		RETURNING updated_at
	`
	err = c.db.QueryRowContext(ctx, query,
		current.Name, current.Description, current.Price, current.AvailableQty,
		current.DiscountPercentage, current.IsVeg, current.Category,
		id, restaurantID,
	).Scan(&current.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return MenuItem{}, ErrNotFound
		}
		return MenuItem{}, fmt.Errorf("failed to update menu item: %w", err)
	}

	return current, nil
}

// DeleteMenuItemFromDB removes an item owned by the given restaurant.
func (c *Conf) DeleteMenuItemFromDB(ctx context.Context, id, restaurantID string) error {
	current, err := c.GetMenuItemByID(ctx, id)
	if err != nil {
		return err
	}
	if current.RestaurantID != restaurantID {
		return ErrNotOwner
	}

	_, err = c.db.ExecContext(ctx, `DELETE FROM menu_items WHERE id = $1 AND restaurant_id = $2`, id, restaurantID)
	if err != nil {
		return fmt.Errorf("failed to delete menu item: %w", err)
	}
	return nil
}

// ListMenuItems returns items with optional filters and paging.
func (c *Conf) ListMenuItems(ctx context.Context, restaurantID, category string, vegOnly bool, maxPrice float64, limit, offset int) ([]MenuItem, error) {
	var conditions []string
	var args []any

	addCondition := func(clause string, value any) {
		args = append(args, value)
		conditions = append(conditions, fmt.Sprintf(clause, len(args)))
	}

	if restaurantID != "" {
		addCondition("restaurant_id = $%d", restaurantID)
	}
	if category != "" {
		addCondition("category = $%d", category)
	}
	if vegOnly {
		conditions = append(conditions, "is_veg = TRUE")
	}
	if maxPrice > 0 {
		addCondition("price <= $%d", maxPrice)
	}

	query := `
		SELECT id, restaurant_id, name, description, price, available_qty, discount_percentage, is_veg, category, rating, created_at, updated_at
		FROM menu_items
	`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY name ASC LIMIT $%d", len(args))
	args = append(args, offset)
	query += fmt.Sprintf(" OFFSET $%d", len(args))

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query menu items: %w", err)
	}
	defer rows.Close()

	var items []MenuItem
	for rows.Next() {
		var item MenuItem
		if err := rows.Scan(
			&item.ID, &item.RestaurantID, &item.Name, &item.Description, &item.Price,
			&item.AvailableQty, &item.DiscountPercentage, &item.IsVeg, &item.Category,
			&item.Rating, &item.CreatedAt, &item.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan menu item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating menu items: %w", err)
	}

	return items, nil
}
