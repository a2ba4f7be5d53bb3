package orders

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newConfWithMock(t *testing.T) (*Conf, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	conf, err := NewConf(db)
	require.NoError(t, err)

	return conf, mock, func() { db.Close() }
}

func TestCreateOrder_MaterializesCart(t *testing.T) {
	conf, mock, cleanup := newConfWithMock(t)
	defer cleanup()

	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM carts")).
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(3))
	mock.ExpectQuery(regexp.QuoteMeta("FROM cart_items ci")).
		WithArgs(3).
		WillReturnRows(sqlmock.NewRows([]string{"menu_item_id", "name", "quantity", "price", "restaurant_id"}).
			AddRow("item-a", "Margherita", 2, 100.0, "rest-1").
			AddRow("item-b", "Garlic Bread", 1, 60.0, "rest-1"))
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO orders")).
		WithArgs("order-1", "user-1", "rest-1", 260.0, 13.0, 50.0, 323.0,
			"12 Baker Street", "pending", "pending").
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO order_items")).
		WithArgs("order-1", "item-a", 2, 200.0).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO order_items")).
		WithArgs("order-1", "item-b", 1, 60.0).
		WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM cart_items")).
		WithArgs(3).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE carts")).
		WithArgs(3).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	order, err := conf.CreateOrder(context.Background(), "order-1", "user-1", "12 Baker Street")
	require.NoError(t, err)

	assert.Equal(t, "rest-1", order.RestaurantID)
	assert.Equal(t, 260.0, order.Subtotal)
	assert.Equal(t, 13.0, order.Tax)
	assert.Equal(t, 50.0, order.DeliveryFee)
	assert.Equal(t, 323.0, order.TotalAmount)
	assert.Equal(t, StatusPending, order.Status)
	assert.Equal(t, PaymentPending, order.PaymentStatus)
	require.Len(t, order.Items, 2)
	assert.Equal(t, 200.0, order.Items[0].LineTotal)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateOrder_SingleLineCharges(t *testing.T) {
	conf, mock, cleanup := newConfWithMock(t)
	defer cleanup()

	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM carts")).
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(3))
	mock.ExpectQuery(regexp.QuoteMeta("FROM cart_items ci")).
		WithArgs(3).
		WillReturnRows(sqlmock.NewRows([]string{"menu_item_id", "name", "quantity", "price", "restaurant_id"}).
			AddRow("item-a", "Margherita", 1, 100.0, "rest-1"))
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO orders")).
		WithArgs("order-1", "user-1", "rest-1", 100.0, 5.0, 50.0, 155.0,
			"12 Baker Street", "pending", "pending").
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO order_items")).
		WithArgs("order-1", "item-a", 1, 100.0).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM cart_items")).
		WithArgs(3).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE carts")).
		WithArgs(3).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	order, err := conf.CreateOrder(context.Background(), "order-1", "user-1", "12 Baker Street")
	require.NoError(t, err)

	assert.Equal(t, 100.0, order.Subtotal)
	assert.Equal(t, 5.0, order.Tax)
	assert.Equal(t, 155.0, order.TotalAmount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateOrder_EmptyCart(t *testing.T) {
	conf, mock, cleanup := newConfWithMock(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM carts")).
		WithArgs("user-1").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	_, err := conf.CreateOrder(context.Background(), "order-1", "user-1", "12 Baker Street")
	assert.ErrorIs(t, err, ErrCartEmpty)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateOrder_CartWithNoLines(t *testing.T) {
	conf, mock, cleanup := newConfWithMock(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM carts")).
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(3))
	mock.ExpectQuery(regexp.QuoteMeta("FROM cart_items ci")).
		WithArgs(3).
		WillReturnRows(sqlmock.NewRows([]string{"menu_item_id", "name", "quantity", "price", "restaurant_id"}))
	mock.ExpectRollback()

	_, err := conf.CreateOrder(context.Background(), "order-1", "user-1", "12 Baker Street")
	assert.ErrorIs(t, err, ErrCartEmpty)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateOrder_MixedRestaurantsLeavesCartUntouched(t *testing.T) {
	conf, mock, cleanup := newConfWithMock(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM carts")).
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(3))
	mock.ExpectQuery(regexp.QuoteMeta("FROM cart_items ci")).
		WithArgs(3).
		WillReturnRows(sqlmock.NewRows([]string{"menu_item_id", "name", "quantity", "price", "restaurant_id"}).
			AddRow("item-a", "Margherita", 2, 100.0, "rest-1").
			AddRow("item-z", "Sushi Roll", 1, 250.0, "rest-2"))
	// No order insert, no cart clear: the transaction rolls back.
	mock.ExpectRollback()

	_, err := conf.CreateOrder(context.Background(), "order-1", "user-1", "12 Baker Street")
	assert.ErrorIs(t, err, ErrMixedRestaurants)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateOrderStatus_ValidTransition(t *testing.T) {
	conf, mock, cleanup := newConfWithMock(t)
	defer cleanup()

	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT restaurant_id, status")).
		WithArgs("order-1").
		WillReturnRows(sqlmock.NewRows([]string{"restaurant_id", "status"}).AddRow("rest-1", "pending"))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE orders")).
		WithArgs("confirmed", "order-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	mock.ExpectQuery(regexp.QuoteMeta("FROM orders")).
		WithArgs("order-1").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "user_id", "restaurant_id", "subtotal", "tax", "delivery_fee", "total_amount",
			"delivery_address", "status", "payment_status", "created_at", "updated_at",
		}).AddRow("order-1", "user-1", "rest-1", 100.0, 5.0, 50.0, 155.0,
			"12 Baker Street", "confirmed", "pending", now, now))
	mock.ExpectQuery(regexp.QuoteMeta("FROM order_items oi")).
		WithArgs("order-1").
		WillReturnRows(sqlmock.NewRows([]string{"menu_item_id", "name", "quantity", "line_total"}).
			AddRow("item-a", "Margherita", 1, 100.0))

	order, oldStatus, err := conf.UpdateOrderStatus(context.Background(), "order-1", "rest-1", StatusConfirmed)
	require.NoError(t, err)

	assert.Equal(t, StatusPending, oldStatus)
	assert.Equal(t, StatusConfirmed, order.Status)
	require.Len(t, order.Items, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateOrderStatus_InvalidTransition(t *testing.T) {
	conf, mock, cleanup := newConfWithMock(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT restaurant_id, status")).
		WithArgs("order-1").
		WillReturnRows(sqlmock.NewRows([]string{"restaurant_id", "status"}).AddRow("rest-1", "delivered"))
	mock.ExpectRollback()

	_, _, err := conf.UpdateOrderStatus(context.Background(), "order-1", "rest-1", StatusConfirmed)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateOrderStatus_WrongRestaurant(t *testing.T) {
	conf, mock, cleanup := newConfWithMock(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT restaurant_id, status")).
		WithArgs("order-1").
		WillReturnRows(sqlmock.NewRows([]string{"restaurant_id", "status"}).AddRow("rest-2", "pending"))
	mock.ExpectRollback()

	_, _, err := conf.UpdateOrderStatus(context.Background(), "order-1", "rest-1", StatusConfirmed)
	assert.ErrorIs(t, err, ErrNotOrderOwner)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateOrderStatus_NotFound(t *testing.T) {
	conf, mock, cleanup := newConfWithMock(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT restaurant_id, status")).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	_, _, err := conf.UpdateOrderStatus(context.Background(), "missing", "rest-1", StatusConfirmed)
	assert.ErrorIs(t, err, ErrOrderNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListOrdersByUser_NewestFirst(t *testing.T) {
	conf, mock, cleanup := newConfWithMock(t)
	defer cleanup()

	newer := time.Now()
	older := newer.Add(-time.Hour)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE user_id = $1")).
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "user_id", "restaurant_id", "subtotal", "tax", "delivery_fee", "total_amount",
			"delivery_address", "status", "payment_status", "created_at", "updated_at",
		}).
			AddRow("order-2", "user-1", "rest-1", 60.0, 3.0, 50.0, 113.0, "addr", "pending", "pending", newer, newer).
			AddRow("order-1", "user-1", "rest-1", 100.0, 5.0, 50.0, 155.0, "addr", "delivered", "paid", older, older))
	mock.ExpectQuery(regexp.QuoteMeta("FROM order_items oi")).
		WithArgs("order-2").
		WillReturnRows(sqlmock.NewRows([]string{"menu_item_id", "name", "quantity", "line_total"}).
			AddRow("item-b", "Garlic Bread", 1, 60.0))
	mock.ExpectQuery(regexp.QuoteMeta("FROM order_items oi")).
		WithArgs("order-1").
		WillReturnRows(sqlmock.NewRows([]string{"menu_item_id", "name", "quantity", "line_total"}).
			AddRow("item-a", "Margherita", 1, 100.0))

	userOrders, err := conf.ListOrdersByUser(context.Background(), "user-1")
	require.NoError(t, err)

	require.Len(t, userOrders, 2)
	assert.Equal(t, "order-2", userOrders[0].ID)
	assert.Equal(t, "order-1", userOrders[1].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
