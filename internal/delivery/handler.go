package delivery

import (
	"errors"
	"net/http"

	"minihub/internal/auth"
	"minihub/internal/domain"
	"minihub/internal/state"
	"minihub/internal/usecase"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type Handler struct {
	market *usecase.Marketplace
	tokens *auth.TokenIssuer
	log    *logrus.Logger
}

func NewHandler(market *usecase.Marketplace, tokens *auth.TokenIssuer, logger *logrus.Logger) *Handler {
	return &Handler{
		market: market,
		tokens: tokens,
		log:    logger,
	}
}

// NewRouter mounts every endpoint under /api. Paths keep their trailing
// slash, so redirects are disabled.
func NewRouter(h *Handler, logger *logrus.Logger) *gin.Engine {
	router := gin.New()
	router.RedirectTrailingSlash = false
	router.Use(gin.Recovery(), RequestLogger(logger))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	h.RegisterRoutes(router.Group("/api"))
	return router
}

func (h *Handler) RegisterRoutes(api *gin.RouterGroup) {
	api.POST("/register/", h.Register)
	api.POST("/login/", h.Login)
	api.POST("/token/refresh/", h.RefreshToken)
	api.GET("/categories/", h.ListCategories)
	api.GET("/products/", h.ListProducts)
	api.GET("/products/:id/", h.GetProduct)
	api.GET("/products/:id/reviews/", h.ListReviews)

	protected := api.Group("/")
	protected.Use(AuthMiddleware(h.tokens, h.log))
	{
		protected.POST("/logout/", h.Logout)
		protected.GET("/users/me/", h.GetProfile)
		protected.PATCH("/users/me/", h.UpdateProfile)
		protected.POST("/users/me/password/", h.ChangePassword)

		protected.POST("/products/", h.CreateProduct)
		protected.POST("/products/:id/reviews/", h.AddReview)

		protected.POST("/orders/", h.CreateOrder)
		protected.GET("/orders/user/", h.ListUserOrders)

		protected.GET("/cart/", h.GetCart)
		protected.POST("/cart/", h.AddToCart)
		protected.PATCH("/cart/:id/", h.UpdateCartItem)
		protected.DELETE("/cart/:id/", h.RemoveCartItem)
		protected.POST("/checkout/", h.Checkout)

		protected.GET("/wishlist/", h.GetWishlist)
		protected.POST("/wishlist/:id/", h.ToggleWishlist)

		protected.GET("/analytics/", h.GetAnalytics)

		protected.GET("/notifications/", h.ListNotifications)
		protected.DELETE("/notifications/:id/", h.DismissNotification)
	}
}

// Feed streams one session's notification changes over an upgraded
// connection.
type Feed interface {
	Serve(w http.ResponseWriter, r *http.Request, key string)
}

// RegisterFeed mounts the live notification stream. Browsers cannot set
// headers on websocket requests, so the access token may also come as the
// access_token query parameter.
func (h *Handler) RegisterFeed(router gin.IRouter, feed Feed) {
	router.GET("/ws/notifications", FeedAuthMiddleware(h.tokens, h.log), func(c *gin.Context) {
		sess, ok := h.session(c)
		if !ok {
			return
		}
		feed.Serve(c.Writer, c.Request, sess.Key)
	})
}

// session resolves the authenticated caller's server-side session.
func (h *Handler) session(c *gin.Context) (*state.Session, bool) {
	userID := c.GetString(userIDKey)
	sess, err := h.market.UserSession(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			h.log.Warnf("Handler: token subject %s no longer exists", userID)
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "Unknown user"})
			return nil, false
		}
		respondError(c, err)
		return nil, false
	}
	return sess, true
}
