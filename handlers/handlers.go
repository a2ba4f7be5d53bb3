package handlers

import (
	"fmt"
	"net/http"
	"os"

	"github.com/harshshivam01/food-ordering-web/internal/auth"
	"github.com/harshshivam01/food-ordering-web/internal/carts"
	"github.com/harshshivam01/food-ordering-web/internal/menu"
	"github.com/harshshivam01/food-ordering-web/internal/orders"
	"github.com/harshshivam01/food-ordering-web/internal/stores/kafka"
	"github.com/harshshivam01/food-ordering-web/internal/users"
	"github.com/harshshivam01/food-ordering-web/middleware"
	"github.com/harshshivam01/food-ordering-web/pkg/ctxmanage"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

type Handler struct {
	cConf    carts.Conf
	mConf    menu.Conf
	oConf    *orders.Conf
	uConf    *users.Conf
	a        *auth.Keys
	k        *kafka.Conf
	validate *validator.Validate
}

func NewHandler(cConf carts.Conf, mConf menu.Conf, oConf *orders.Conf, uConf *users.Conf, a *auth.Keys, k *kafka.Conf) *Handler {
	return &Handler{
		cConf:    cConf,
		mConf:    mConf,
		oConf:    oConf,
		uConf:    uConf,
		a:        a,
		k:        k,
		validate: validator.New(),
	}
}

func API(endpointPrefix string, a *auth.Keys, cConf carts.Conf, mConf menu.Conf, oConf *orders.Conf, uConf *users.Conf, k *kafka.Conf) *gin.Engine {

	r := gin.New()
	mode := os.Getenv("GIN_MODE")
	if mode == gin.ReleaseMode {
		gin.SetMode(mode)
	} else {
		gin.SetMode(gin.DebugMode)
	}
	m := middleware.NewMid(a)
	h := NewHandler(cConf, mConf, oConf, uConf, a, k)

	//apply middleware to all the endpoints using r.Use
	r.Use(middleware.Logger(), gin.Recovery())
	r.GET("/ping", healthCheck)

	v1 := r.Group(endpointPrefix)
	{
		usersGroup := v1.Group("/users")
		{
			usersGroup.POST("/signup", h.Signup)
			usersGroup.POST("/login", h.Login)
		}

		menuGroup := v1.Group("/menu")
		{
			menuGroup.GET("/list", h.ListMenuItems)
			menuGroup.GET("/view/:id", h.GetMenuItem)

			menuGroup.Use(m.Authentication())
			menuGroup.POST("/create", m.Authorize(h.CreateMenuItem, auth.RoleAdmin))
			menuGroup.PUT("/update/:id", m.Authorize(h.UpdateMenuItem, auth.RoleAdmin))
			menuGroup.DELETE("/delete/:id", m.Authorize(h.DeleteMenuItem, auth.RoleAdmin))
		}

		cartGroup := v1.Group("/cart")
		{
			cartGroup.Use(m.Authentication())
			cartGroup.POST("/add-item", m.Authorize(h.AddToCart, auth.RoleUser))
			cartGroup.GET("/items", m.Authorize(h.GetCart, auth.RoleUser))
			cartGroup.PATCH("/update/:itemID", m.Authorize(h.UpdateCartItem, auth.RoleUser))
			cartGroup.DELETE("/remove/:itemID", m.Authorize(h.RemoveCartItem, auth.RoleUser))
			cartGroup.DELETE("/clear", m.Authorize(h.ClearCart, auth.RoleUser))
		}

		ordersGroup := v1.Group("/orders")
		{
			ordersGroup.Use(m.Authentication())
			ordersGroup.POST("/checkout", m.Authorize(h.Checkout, auth.RoleUser))
			ordersGroup.GET("/mine", m.Authorize(h.MyOrders, auth.RoleUser))
			ordersGroup.GET("/restaurant", m.Authorize(h.RestaurantOrders, auth.RoleAdmin))
			ordersGroup.PATCH("/:orderID/status", m.Authorize(h.UpdateOrderStatus, auth.RoleAdmin))
		}
	}

	return r
}

func healthCheck(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	fmt.Println("healthCheck handler ", traceId)
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
