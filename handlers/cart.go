package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/harshshivam01/food-ordering-web/internal/auth"
	"github.com/harshshivam01/food-ordering-web/internal/carts"
	"github.com/harshshivam01/food-ordering-web/pkg/ctxmanage"
	"github.com/harshshivam01/food-ordering-web/pkg/logkey"

	"github.com/gin-gonic/gin"
)

func (h *Handler) AddToCart(c *gin.Context) {
	// Get the traceId for logging
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	claims, ok := c.Request.Context().Value(auth.ClaimsKey).(auth.Claims)
	if !ok {
		slog.Error("claims not found", slog.String(logkey.TraceID, traceId))
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	userId := claims.Subject

	// Parse the request body
	var request struct {
		MenuItemID string `json:"menu_item_id"`
		Quantity   int    `json:"quantity"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		slog.Error("invalid request body", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "Invalid request body"})
		return
	}

	if request.MenuItemID == "" || request.Quantity <= 0 {
		slog.Error("invalid menu item ID or quantity", slog.String(logkey.TraceID, traceId))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "Menu item ID and a positive quantity are required"})
		return
	}

	cart, err := h.cConf.AddToCartDB(c.Request.Context(), userId, request.MenuItemID, request.Quantity)
	if err != nil {
		h.cartError(c, traceId, "error adding item to cart", err)
		return
	}

	slog.Info("item added to cart", slog.String(logkey.TraceID, traceId),
		slog.String(logkey.MenuItemID, request.MenuItemID), slog.Int("quantity", request.Quantity), slog.String(logkey.UserID, userId))

	c.JSON(http.StatusOK, cart)
}

func (h *Handler) GetCart(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	claims, ok := c.Request.Context().Value(auth.ClaimsKey).(auth.Claims)
	if !ok {
		slog.Error("claims not found", slog.String(logkey.TraceID, traceId))
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	cart, err := h.cConf.GetActiveCart(c.Request.Context(), claims.Subject)
	if err != nil {
		slog.Error("error fetching cart", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()), slog.String(logkey.UserID, claims.Subject))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Failed to fetch cart"})
		return
	}

	c.JSON(http.StatusOK, cart)
}

func (h *Handler) UpdateCartItem(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	claims, ok := c.Request.Context().Value(auth.ClaimsKey).(auth.Claims)
	if !ok {
		slog.Error("claims not found", slog.String(logkey.TraceID, traceId))
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	menuItemID := c.Param("itemID")

	var request struct {
		Quantity int `json:"quantity"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		slog.Error("invalid request body", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "Invalid request body"})
		return
	}

	cart, err := h.cConf.UpdateItemQuantityDB(c.Request.Context(), claims.Subject, menuItemID, request.Quantity)
	if err != nil {
		h.cartError(c, traceId, "error updating cart item", err)
		return
	}

	slog.Info("cart item updated", slog.String(logkey.TraceID, traceId),
		slog.String(logkey.MenuItemID, menuItemID), slog.Int("quantity", request.Quantity))

	c.JSON(http.StatusOK, cart)
}

func (h *Handler) RemoveCartItem(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	claims, ok := c.Request.Context().Value(auth.ClaimsKey).(auth.Claims)
	if !ok {
		slog.Error("claims not found", slog.String(logkey.TraceID, traceId))
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	menuItemID := c.Param("itemID")

	cart, err := h.cConf.RemoveItemDB(c.Request.Context(), claims.Subject, menuItemID)
	if err != nil {
		h.cartError(c, traceId, "error removing cart item", err)
		return
	}

	slog.Info("cart item removed", slog.String(logkey.TraceID, traceId), slog.String(logkey.MenuItemID, menuItemID))

	c.JSON(http.StatusOK, cart)
}

func (h *Handler) ClearCart(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	claims, ok := c.Request.Context().Value(auth.ClaimsKey).(auth.Claims)
	if !ok {
		slog.Error("claims not found", slog.String(logkey.TraceID, traceId))
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	if err := h.cConf.ClearCartDB(c.Request.Context(), claims.Subject); err != nil {
		h.cartError(c, traceId, "error clearing cart", err)
		return
	}

	slog.Info("cart cleared", slog.String(logkey.TraceID, traceId), slog.String(logkey.UserID, claims.Subject))

	c.JSON(http.StatusOK, gin.H{"message": "Cart cleared successfully"})
}

// cartError maps cart sentinel errors onto HTTP responses.
func (h *Handler) cartError(c *gin.Context, traceId, logMsg string, err error) {
	slog.Error(logMsg, slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))

	switch {
	case errors.Is(err, carts.ErrInvalidQuantity):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": err.Error()})
	case errors.Is(err, carts.ErrMenuItemNotFound),
		errors.Is(err, carts.ErrCartNotFound),
		errors.Is(err, carts.ErrItemNotInCart):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"message": err.Error()})
	case errors.Is(err, carts.ErrInsufficientQty):
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"message": err.Error()})
	default:
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Failed to process cart request"})
	}
}
