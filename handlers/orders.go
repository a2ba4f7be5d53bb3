package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/harshshivam01/food-ordering-web/internal/auth"
	"github.com/harshshivam01/food-ordering-web/internal/orders"
	"github.com/harshshivam01/food-ordering-web/internal/stores/kafka"
	"github.com/harshshivam01/food-ordering-web/pkg/ctxmanage"
	"github.com/harshshivam01/food-ordering-web/pkg/logkey"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func (h *Handler) Checkout(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	claims, ok := c.Request.Context().Value(auth.ClaimsKey).(auth.Claims)
	if !ok {
		slog.Error("claims not found", slog.String(logkey.TraceID, traceId))
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var request struct {
		DeliveryAddress string `json:"delivery_address"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		slog.Error("invalid request body", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "Invalid request body"})
		return
	}
	if request.DeliveryAddress == "" {
		slog.Error("missing delivery address", slog.String(logkey.TraceID, traceId))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "Delivery address is required"})
		return
	}

	orderId := uuid.NewString()
	order, err := h.oConf.CreateOrder(c.Request.Context(), orderId, claims.Subject, request.DeliveryAddress)
	if err != nil {
		slog.Error("error creating order", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		switch {
		case errors.Is(err, orders.ErrCartEmpty):
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{"message": "Cart is empty"})
		case errors.Is(err, orders.ErrMixedRestaurants):
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "All items must be from the same restaurant"})
		default:
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Failed to create order"})
		}
		return
	}

	slog.Info("order placed", slog.String(logkey.TraceID, traceId),
		slog.String(logkey.OrderID, order.ID), slog.String(logkey.UserID, order.UserID))

	h.publishOrderPlaced(order)

	c.JSON(http.StatusCreated, gin.H{"message": "Order placed successfully", "order": order})
}

func (h *Handler) MyOrders(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	claims, ok := c.Request.Context().Value(auth.ClaimsKey).(auth.Claims)
	if !ok {
		slog.Error("claims not found", slog.String(logkey.TraceID, traceId))
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	userOrders, err := h.oConf.ListOrdersByUser(c.Request.Context(), claims.Subject)
	if err != nil {
		slog.Error("error fetching user orders", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Failed to fetch orders"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"orders": userOrders})
}

func (h *Handler) RestaurantOrders(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	claims, ok := c.Request.Context().Value(auth.ClaimsKey).(auth.Claims)
	if !ok {
		slog.Error("claims not found", slog.String(logkey.TraceID, traceId))
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	restaurantOrders, err := h.oConf.ListOrdersByRestaurant(c.Request.Context(), claims.Subject)
	if err != nil {
		slog.Error("error fetching restaurant orders", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Failed to fetch orders"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"orders": restaurantOrders})
}

func (h *Handler) UpdateOrderStatus(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	claims, ok := c.Request.Context().Value(auth.ClaimsKey).(auth.Claims)
	if !ok {
		slog.Error("claims not found", slog.String(logkey.TraceID, traceId))
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	orderID := c.Param("orderID")

	var request struct {
		Status string `json:"status"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		slog.Error("invalid request body", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "Invalid request body"})
		return
	}

	newStatus, err := orders.ParseStatus(request.Status)
	if err != nil {
		slog.Error("unknown order status", slog.String(logkey.TraceID, traceId), slog.String("status", request.Status))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	order, oldStatus, err := h.oConf.UpdateOrderStatus(c.Request.Context(), orderID, claims.Subject, newStatus)
	if err != nil {
		slog.Error("error updating order status", slog.String(logkey.TraceID, traceId),
			slog.String(logkey.OrderID, orderID), slog.String(logkey.ERROR, err.Error()))
		switch {
		case errors.Is(err, orders.ErrOrderNotFound):
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"message": "Order not found"})
		case errors.Is(err, orders.ErrNotOrderOwner):
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "Order belongs to a different restaurant"})
		case errors.Is(err, orders.ErrInvalidTransition):
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{"message": err.Error()})
		default:
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Failed to update order status"})
		}
		return
	}

	slog.Info("order status updated", slog.String(logkey.TraceID, traceId),
		slog.String(logkey.OrderID, orderID), slog.String("from", string(oldStatus)), slog.String("to", string(newStatus)))

	h.publishStatusChanged(order.ID, oldStatus, newStatus)

	c.JSON(http.StatusOK, order)
}

// publishOrderPlaced emits the order-placed event in the background; a broker
// failure never fails the request that created the order.
func (h *Handler) publishOrderPlaced(order orders.Order) {
	if h.k == nil {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		jsonData, err := json.Marshal(kafka.OrderPlacedEvent{
			OrderID:      order.ID,
			UserID:       order.UserID,
			RestaurantID: order.RestaurantID,
			TotalAmount:  order.TotalAmount,
			CreatedAt:    order.CreatedAt,
		})
		if err != nil {
			slog.Error("failed to marshal OrderPlacedEvent", slog.String(logkey.ERROR, err.Error()))
			return
		}

		if err := h.k.ProduceMessage(ctx, kafka.TopicOrderPlaced, []byte(order.ID), jsonData); err != nil {
			slog.Error("failed to produce order-placed event", slog.String(logkey.ERROR, err.Error()))
		}
	}()
}

func (h *Handler) publishStatusChanged(orderID string, from, to orders.Status) {
	if h.k == nil {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		jsonData, err := json.Marshal(kafka.OrderStatusChangedEvent{
			OrderID:   orderID,
			OldStatus: string(from),
			NewStatus: string(to),
			ChangedAt: time.Now().UTC(),
		})
		if err != nil {
			slog.Error("failed to marshal OrderStatusChangedEvent", slog.String(logkey.ERROR, err.Error()))
			return
		}

		if err := h.k.ProduceMessage(ctx, kafka.TopicOrderStatusChanged, []byte(orderID), jsonData); err != nil {
			slog.Error("failed to produce status-changed event", slog.String(logkey.ERROR, err.Error()))
		}
	}()
}
