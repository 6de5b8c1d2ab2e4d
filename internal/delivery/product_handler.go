package delivery

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strings"

	"minihub/internal/domain"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// looseText accepts a JSON string, number or list of strings and keeps it as
// text, so form-style and typed clients can both submit products.
type looseText string

func (t *looseText) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*t = ""
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = looseText(s)
	case len(data) > 0 && data[0] == '[':
		var parts []string
		if err := json.Unmarshal(data, &parts); err != nil {
			return err
		}
		*t = looseText(strings.Join(parts, ","))
	default:
		*t = looseText(data)
	}
	return nil
}

type ProductRequest struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Price       looseText `json:"price"`
	Category    string    `json:"category"`
	Inventory   looseText `json:"inventory"`
	Image       string    `json:"image"`
	Tags        looseText `json:"tags"`
}

func (r ProductRequest) draft() domain.ProductDraft {
	return domain.ProductDraft{
		Title:       r.Title,
		Description: r.Description,
		Price:       string(r.Price),
		Category:    r.Category,
		Inventory:   string(r.Inventory),
		Image:       r.Image,
		Tags:        string(r.Tags),
	}
}

type ReviewRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

func (h *Handler) ListCategories(c *gin.Context) {
	c.JSON(http.StatusOK, h.market.Categories())
}

// ListProducts supports ?category=, ?search=, ?min_price=, ?max_price= and
// ?sort=newest|oldest|price-low|price-high|rating.
func (h *Handler) ListProducts(c *gin.Context) {
	filter := domain.ProductFilter{
		Category:   c.Query("category"),
		SearchTerm: c.Query("search"),
		SortBy:     domain.SortOrder(c.DefaultQuery("sort", string(domain.SortNewest))),
	}
	for param, dst := range map[string]*decimal.NullDecimal{"min_price": &filter.MinPrice, "max_price": &filter.MaxPrice} {
		raw := c.Query(param)
		if raw == "" {
			continue
		}
		d, err := decimal.NewFromString(raw)
		if err != nil {
			h.log.Warnf("Handler: Invalid %s parameter '%s'", param, raw)
			badRequest(c, "Invalid "+param+" parameter")
			return
		}
		*dst = decimal.NewNullDecimal(d)
	}
	c.JSON(http.StatusOK, h.market.Products(filter))
}

func (h *Handler) GetProduct(c *gin.Context) {
	product, err := h.market.Product(c.Param("id"))
	if err != nil {
		h.log.Warnf("Handler: Failed to get product %s: %v", c.Param("id"), err)
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func (h *Handler) CreateProduct(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Warnf("Handler: Failed to bind product request: %v", err)
		badRequest(c, "Invalid request body: "+err.Error())
		return
	}
	product, err := h.market.CreateProduct(c.Request.Context(), sess, req.draft())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, product)
}

func (h *Handler) ListReviews(c *gin.Context) {
	reviews, err := h.market.Reviews(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, reviews)
}

func (h *Handler) AddReview(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	var req ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body: "+err.Error())
		return
	}
	review, err := h.market.AddReview(c.Request.Context(), sess, c.Param("id"), req.Rating, req.Comment)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, review)
}
