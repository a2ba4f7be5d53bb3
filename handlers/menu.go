package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/harshshivam01/food-ordering-web/internal/auth"
	"github.com/harshshivam01/food-ordering-web/internal/menu"
	"github.com/harshshivam01/food-ordering-web/pkg/ctxmanage"
	"github.com/harshshivam01/food-ordering-web/pkg/logkey"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

func (h *Handler) CreateMenuItem(c *gin.Context) {
	// Get the traceId from the request for tracking logs
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	claims, ok := c.Request.Context().Value(auth.ClaimsKey).(auth.Claims)
	if !ok {
		slog.Error("claims not found", slog.String(logkey.TraceID, traceId))
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	// Check if the size of the request body exceeds 5 KB
	if c.Request.ContentLength > 5*1024 {
		slog.Error("request body limit breached", slog.String(logkey.TraceID, traceId), slog.Int64("Size Received", c.Request.ContentLength))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Request body too large."})
		return
	}

	var newItem menu.NewMenuItem
	if err := c.ShouldBindJSON(&newItem); err != nil {
		slog.Error("json validation error", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": http.StatusText(http.StatusBadRequest)})
		return
	}

	if err := h.validate.Struct(newItem); err != nil {
		var vErrs validator.ValidationErrors
		if errors.As(err, &vErrs) {
			for _, vErr := range vErrs {
				switch vErr.Tag() {
				case "required":
					slog.Error("validation failed", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
					c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": vErr.Field() + " value missing"})
					return
				case "gte":
					slog.Error("validation failed", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
					c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": vErr.Field() + " must be at least " + vErr.Param()})
					return
				case "lte":
					slog.Error("validation failed", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
					c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": vErr.Field() + " must be at most " + vErr.Param()})
					return
				default:
					slog.Error("validation failed", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
					c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": http.StatusText(http.StatusBadRequest)})
					return
				}
			}
		}
		slog.Error("validation failed", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": http.StatusText(http.StatusBadRequest)})
		return
	}

	item, err := h.mConf.InsertMenuItem(c.Request.Context(), claims.Subject, newItem)
	if err != nil {
		slog.Error("error in inserting the menu item", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Menu item creation failed"})
		return
	}

	c.JSON(http.StatusOK, item)
}

func (h *Handler) GetMenuItem(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	itemID := c.Param("id")

	item, err := h.mConf.GetMenuItemByID(c.Request.Context(), itemID)
	if err != nil {
		if errors.Is(err, menu.ErrNotFound) {
			slog.Error("menu item not found", slog.String(logkey.TraceID, traceId), slog.String(logkey.MenuItemID, itemID))
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Menu item not found"})
		} else {
			slog.Error("error in retrieving menu item", slog.String(logkey.TraceID, traceId), slog.String(logkey.MenuItemID, itemID), slog.String(logkey.ERROR, err.Error()))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch menu item"})
		}
		return
	}

	c.JSON(http.StatusOK, item)
}

func (h *Handler) UpdateMenuItem(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	claims, ok := c.Request.Context().Value(auth.ClaimsKey).(auth.Claims)
	if !ok {
		slog.Error("claims not found", slog.String(logkey.TraceID, traceId))
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	itemID := c.Param("id")
	if itemID == "" {
		slog.Error("missing menu item ID in request", slog.String(logkey.TraceID, traceId))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Menu item ID is required"})
		return
	}

	var updateItem menu.UpdateMenuItem
	if err := c.ShouldBindJSON(&updateItem); err != nil {
		slog.Error("json validation error", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON payload"})
		return
	}

	if err := h.validate.Struct(updateItem); err != nil {
		slog.Error("validation failed", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Validation failed"})
		return
	}

	item, err := h.mConf.UpdateMenuItemInDB(c.Request.Context(), itemID, claims.Subject, updateItem)
	if err != nil {
		h.menuError(c, traceId, itemID, "error in updating the menu item", err)
		return
	}

	slog.Info("menu item updated successfully", slog.String(logkey.TraceID, traceId), slog.String(logkey.MenuItemID, itemID))

	c.JSON(http.StatusOK, gin.H{"message": "Menu item updated successfully", "item": item})
}

func (h *Handler) DeleteMenuItem(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	claims, ok := c.Request.Context().Value(auth.ClaimsKey).(auth.Claims)
	if !ok {
		slog.Error("claims not found", slog.String(logkey.TraceID, traceId))
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	itemID := c.Param("id")

	if err := h.mConf.DeleteMenuItemFromDB(c.Request.Context(), itemID, claims.Subject); err != nil {
		h.menuError(c, traceId, itemID, "error in deleting the menu item", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Menu item successfully deleted"})
}

func (h *Handler) ListMenuItems(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	// Optional query parameters for filtering and pagination
	restaurantID := c.Query("restaurant_id")
	category := c.Query("category")
	vegOnly := c.Query("veg_only") == "true"
	maxPriceStr := c.DefaultQuery("max_price", "0")
	limit := c.DefaultQuery("limit", "10")
	offset := c.DefaultQuery("offset", "0")

	limitInt, err := strconv.Atoi(limit)
	if err != nil || limitInt <= 0 {
		slog.Error("invalid limit parameter", slog.String(logkey.TraceID, traceId))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid limit parameter"})
		return
	}
	offsetInt, err := strconv.Atoi(offset)
	if err != nil || offsetInt < 0 {
		slog.Error("invalid offset parameter", slog.String(logkey.TraceID, traceId))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid offset parameter"})
		return
	}
	maxPrice, err := strconv.ParseFloat(maxPriceStr, 64)
	if err != nil || maxPrice < 0 {
		slog.Error("invalid max_price parameter", slog.String(logkey.TraceID, traceId))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid max_price parameter"})
		return
	}

	items, err := h.mConf.ListMenuItems(c.Request.Context(), restaurantID, category, vegOnly, maxPrice, limitInt, offsetInt)
	if err != nil {
		slog.Error("error in fetching menu items", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch menu items"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (h *Handler) menuError(c *gin.Context, traceId, itemID, logMsg string, err error) {
	slog.Error(logMsg, slog.String(logkey.TraceID, traceId), slog.String(logkey.MenuItemID, itemID), slog.String(logkey.ERROR, err.Error()))

	switch {
	case errors.Is(err, menu.ErrNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Menu item not found"})
	case errors.Is(err, menu.ErrNotOwner):
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Menu item belongs to a different restaurant"})
	default:
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to process menu request"})
	}
}
