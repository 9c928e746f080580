package httpserver

import (
	"context"
	"log"

	"storefront-api/internal/domain"
	"storefront-api/internal/service/checkout"
	"storefront-api/internal/service/customer"
	"storefront-api/internal/service/payment"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CartService is the slice of the cart service the handlers need.
type CartService interface {
	Resolve(ctx context.Context, owner domain.Owner) (*domain.Cart, error)
	MergeGuestCart(ctx context.Context, userID, sessionID string) (*domain.Cart, error)
	AddItem(ctx context.Context, owner domain.Owner, productID string, quantity int, variant domain.Variant) (*domain.Cart, error)
	UpdateQuantity(ctx context.Context, owner domain.Owner, lineID string, quantity int) (*domain.Cart, error)
	RemoveItem(ctx context.Context, owner domain.Owner, lineID string) (*domain.Cart, error)
	Clear(ctx context.Context, owner domain.Owner) (*domain.Cart, error)
	ApplyCoupon(ctx context.Context, owner domain.Owner, code string) (*domain.Cart, error)
	Prune(ctx context.Context, owner domain.Owner) (*domain.Cart, error)
}

type CheckoutService interface {
	CreateIntent(ctx context.Context, userID, cartID string) (*payment.Intent, error)
	Confirm(ctx context.Context, in checkout.ConfirmInput) (*domain.Order, error)
	PlaceDirect(ctx context.Context, userID string, items []checkout.DirectItem, shipping, billing domain.Address, method string) (*domain.Order, error)
}

type OrderService interface {
	Get(ctx context.Context, userID, orderID string) (*domain.Order, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Order, error)
	UpdateStatus(ctx context.Context, orderID string, status domain.OrderStatus, note, trackingNumber string) (*domain.Order, error)
	Cancel(ctx context.Context, userID, orderID string) (*domain.Order, error)
}

type ProductRepo interface {
	List(ctx context.Context) ([]domain.Product, error)
	GetByID(ctx context.Context, id string) (*domain.Product, error)
}

type CustomerService interface {
	Signup(ctx context.Context, in customer.SignupInput) (*domain.Customer, error)
	Login(ctx context.Context, email, password string) (*domain.Customer, string, string, error)
	Verify(token string) (string, string, error)
	Refresh(ctx context.Context, refreshToken string) (string, error)
}

// Deps bundles everything the routes depend on.
type Deps struct {
	Carts     CartService
	Checkout  CheckoutService
	Orders    OrderService
	Products  ProductRepo
	Customers CustomerService
}

// buildRouter wires routes for the API.
func buildRouter(logger *log.Logger, db *pgxpool.Pool, deps Deps, corsOrigins []string) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.LoggerWithWriter(logger.Writer()), gin.Recovery())

	corsCfg := cors.DefaultConfig()
	if len(corsOrigins) > 0 {
		corsCfg.AllowOrigins = corsOrigins
	} else {
		corsCfg.AllowAllOrigins = true
	}
	corsCfg.AllowHeaders = append(corsCfg.AllowHeaders, "Authorization", sessionHeader)
	router.Use(cors.New(corsCfg))

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(db))

	router.POST("/auth/signup", signupHandler(deps.Customers))
	router.POST("/auth/login", loginHandler(deps.Customers))
	router.POST("/auth/refresh", refreshHandler(deps.Customers))

	router.GET("/products", listProductsHandler(deps.Products))
	router.GET("/products/:id", getProductHandler(deps.Products))

	shopper := router.Group("/", identityMiddleware(deps.Customers))

	cart := shopper.Group("/cart")
	cart.GET("", getCartHandler(deps.Carts))
	cart.POST("/add", addItemHandler(deps.Carts))
	cart.PUT("/update/:lineId", updateQuantityHandler(deps.Carts))
	cart.DELETE("/remove/:lineId", removeItemHandler(deps.Carts))
	cart.DELETE("/clear", clearCartHandler(deps.Carts))
	cart.POST("/apply-coupon", applyCouponHandler(deps.Carts))
	cart.POST("/prune", pruneCartHandler(deps.Carts))
	cart.POST("/merge", requireUser(), mergeCartHandler(deps.Carts))

	pay := shopper.Group("/payment", requireUser())
	pay.POST("/create-intent", createIntentHandler(deps.Checkout))
	pay.POST("/confirm", confirmHandler(deps.Checkout))

	orders := shopper.Group("/orders", requireUser())
	orders.POST("", placeOrderHandler(deps.Checkout))
	orders.GET("", listOrdersHandler(deps.Orders))
	orders.GET("/:id", getOrderHandler(deps.Orders))
	orders.PATCH("/:id/status", requireAdmin(), updateOrderStatusHandler(deps.Orders))
	orders.PATCH("/:id/cancel", cancelOrderHandler(deps.Orders))

	return router
}
