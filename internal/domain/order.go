package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

// Orders are completed the moment they are placed; there is no other status.
const StatusCompleted OrderStatus = "completed"

// Order is immutable once created. ProductTitle and TotalPrice are snapshots
// taken at purchase time.
type Order struct {
	ID           string          `json:"id"`
	ProductID    string          `json:"productId"`
	ProductTitle string          `json:"productTitle"`
	Quantity     int             `json:"quantity"`
	TotalPrice   decimal.Decimal `json:"totalPrice"`
	Status       OrderStatus     `json:"status"`
	CreatedAt    time.Time       `json:"createdAt"`
	BuyerName    string          `json:"buyerName"`
	SellerID     string          `json:"sellerId,omitempty"`
}

type CartItem struct {
	Product  Product `json:"product"`
	Quantity int     `json:"quantity"`
}

func (c CartItem) Subtotal() decimal.Decimal {
	return c.Product.Price.Mul(decimal.NewFromInt(int64(c.Quantity)))
}

// ProductStats is one row of a seller's analytics.
type ProductStats struct {
	Product   Product         `json:"product"`
	Revenue   decimal.Decimal `json:"revenue"`
	UnitsSold int             `json:"unitsSold"`
	Orders    int             `json:"orders"`
}

type SellerAnalytics struct {
	TotalRevenue decimal.Decimal `json:"totalRevenue"`
	ProductCount int             `json:"productCount"`
	OrderCount   int             `json:"orderCount"`
	Products     []ProductStats  `json:"products"`
}
