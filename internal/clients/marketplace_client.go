package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"minihub/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// APIError is a non-2xx answer from the marketplace API.
type APIError struct {
	StatusCode int
	Message    string
	Fields     map[string]string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("marketplace API returned %d: %s", e.StatusCode, e.Message)
}

func (e *APIError) Is(target error) bool {
	switch e.StatusCode {
	case http.StatusBadRequest:
		return target == domain.ErrValidation && len(e.Fields) > 0
	case http.StatusUnauthorized:
		return target == domain.ErrNotAuthenticated
	case http.StatusForbidden:
		return target == domain.ErrForbidden
	case http.StatusNotFound:
		return target == domain.ErrNotFound
	}
	return false
}

type Session struct {
	Access  string            `json:"access"`
	Refresh string            `json:"refresh"`
	User    domain.PublicUser `json:"user"`
}

type Cart struct {
	Items []domain.CartItem `json:"items"`
	Total decimal.Decimal   `json:"total"`
}

// MarketplaceClient talks to the REST API. After Login or Register it sends
// the access token with every request.
type MarketplaceClient struct {
	baseURL string
	client  *http.Client
	log     *logrus.Logger

	mu    sync.RWMutex
	token string
}

func NewMarketplaceClient(baseURL string, timeout time.Duration, logger *logrus.Logger) *MarketplaceClient {
	return &MarketplaceClient{
		baseURL: strings.TrimRight(baseURL, "/") + "/api",
		client:  &http.Client{Timeout: timeout},
		log:     logger,
	}
}

func (c *MarketplaceClient) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

func (c *MarketplaceClient) Login(ctx context.Context, username, password string) (*Session, error) {
	var sess Session
	body := map[string]string{"username": username, "password": password}
	if err := c.do(ctx, http.MethodPost, "/login/", body, &sess); err != nil {
		return nil, err
	}
	c.SetToken(sess.Access)
	c.log.Infof("MarketplaceClient: Logged in as %s", sess.User.Username)
	return &sess, nil
}

func (c *MarketplaceClient) Register(ctx context.Context, reg domain.Registration) (*Session, error) {
	var sess Session
	if err := c.do(ctx, http.MethodPost, "/register/", reg, &sess); err != nil {
		return nil, err
	}
	c.SetToken(sess.Access)
	return &sess, nil
}

func (c *MarketplaceClient) Me(ctx context.Context) (*domain.PublicUser, error) {
	var user domain.PublicUser
	if err := c.do(ctx, http.MethodGet, "/users/me/", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *MarketplaceClient) Categories(ctx context.Context) ([]domain.Category, error) {
	var cats []domain.Category
	if err := c.do(ctx, http.MethodGet, "/categories/", nil, &cats); err != nil {
		return nil, err
	}
	return cats, nil
}

func (c *MarketplaceClient) Products(ctx context.Context, query url.Values) ([]domain.Product, error) {
	path := "/products/"
	if len(query) > 0 {
		path += "?" + query.Encode()
	}
	var products []domain.Product
	if err := c.do(ctx, http.MethodGet, path, nil, &products); err != nil {
		return nil, err
	}
	return products, nil
}

func (c *MarketplaceClient) Product(ctx context.Context, productID string) (*domain.Product, error) {
	var product domain.Product
	if err := c.do(ctx, http.MethodGet, "/products/"+url.PathEscape(productID)+"/", nil, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

func (c *MarketplaceClient) CreateProduct(ctx context.Context, draft domain.ProductDraft) (*domain.Product, error) {
	var product domain.Product
	if err := c.do(ctx, http.MethodPost, "/products/", draft, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

func (c *MarketplaceClient) BuyNow(ctx context.Context, productID string, quantity int) (*domain.Order, error) {
	var order domain.Order
	body := map[string]interface{}{"product_id": productID, "quantity": quantity}
	if err := c.do(ctx, http.MethodPost, "/orders/", body, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

func (c *MarketplaceClient) Orders(ctx context.Context) ([]domain.Order, error) {
	var orders []domain.Order
	if err := c.do(ctx, http.MethodGet, "/orders/user/", nil, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (c *MarketplaceClient) AddToCart(ctx context.Context, productID string) (*Cart, error) {
	var cart Cart
	if err := c.do(ctx, http.MethodPost, "/cart/", map[string]string{"product_id": productID}, &cart); err != nil {
		return nil, err
	}
	return &cart, nil
}

func (c *MarketplaceClient) Cart(ctx context.Context) (*Cart, error) {
	var cart Cart
	if err := c.do(ctx, http.MethodGet, "/cart/", nil, &cart); err != nil {
		return nil, err
	}
	return &cart, nil
}

func (c *MarketplaceClient) Checkout(ctx context.Context) ([]domain.Order, error) {
	var orders []domain.Order
	if err := c.do(ctx, http.MethodPost, "/checkout/", nil, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (c *MarketplaceClient) Notifications(ctx context.Context) ([]domain.Notification, error) {
	var notes []domain.Notification
	if err := c.do(ctx, http.MethodGet, "/notifications/", nil, &notes); err != nil {
		return nil, err
	}
	return notes, nil
}

// Logout ends the server-side session and forgets the token.
func (c *MarketplaceClient) Logout(ctx context.Context) error {
	if err := c.do(ctx, http.MethodPost, "/logout/", nil, nil); err != nil {
		return err
	}
	c.SetToken("")
	return nil
}

func (c *MarketplaceClient) do(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request for %s: %w", path, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		c.log.Errorf("MarketplaceClient: Failed to create %s request for %s: %v", method, path, err)
		return fmt.Errorf("failed to create marketplace request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.mu.RLock()
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	c.mu.RUnlock()

	resp, err := c.client.Do(req)
	if err != nil {
		c.log.Errorf("MarketplaceClient: Failed to execute %s %s: %v", method, path, err)
		return fmt.Errorf("failed to communicate with marketplace: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var payload struct {
			Error  string            `json:"error"`
			Fields map[string]string `json:"fields"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&payload); err == nil {
			apiErr.Message = payload.Error
			apiErr.Fields = payload.Fields
		}
		c.log.Warnf("MarketplaceClient: %s %s failed with status %d: %s", method, path, resp.StatusCode, apiErr.Message)
		return apiErr
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		c.log.Errorf("MarketplaceClient: Failed to decode response of %s %s: %v", method, path, err)
		return fmt.Errorf("failed to decode marketplace response: %w", err)
	}
	return nil
}
