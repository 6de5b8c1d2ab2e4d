package grpc

import (
	"context"
	"errors"
	"time"

	"minihub/internal/domain"
	"minihub/internal/usecase"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	gogrpc "google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type InventoryHandler struct {
	market *usecase.Marketplace
	log    *logrus.Logger
}

func NewInventoryHandler(market *usecase.Marketplace, logger *logrus.Logger) *InventoryHandler {
	return &InventoryHandler{
		market: market,
		log:    logger,
	}
}

// NewServer builds a grpc.Server with the inventory service and request
// logging installed.
func NewServer(h *InventoryHandler, logger *logrus.Logger) *gogrpc.Server {
	srv := gogrpc.NewServer(gogrpc.ChainUnaryInterceptor(UnaryLoggingInterceptor(logger)))
	RegisterInventoryServer(srv, h)
	return srv
}

func (h *InventoryHandler) GetProduct(ctx context.Context, req *GetProductRequest) (*domain.Product, error) {
	h.log.Infof("gRPC Handler: Received GetProduct request: ID=%s", req.ID)
	if req.ID == "" {
		return nil, status.Error(codes.InvalidArgument, "Product ID is required")
	}

	product, err := h.market.Product(req.ID)
	if err != nil {
		h.log.Warnf("gRPC Handler: GetProduct use case error for ID %s: %v", req.ID, err)
		return nil, mapDomainErrorToGrpcStatus(err)
	}
	return &product, nil
}

func (h *InventoryHandler) ListProducts(ctx context.Context, req *ListProductsRequest) (*ListProductsResponse, error) {
	h.log.Infof("gRPC Handler: Received ListProducts request: Category=%q, Search=%q", req.Category, req.Search)

	filter := domain.ProductFilter{
		Category:   req.Category,
		SearchTerm: req.Search,
		SortBy:     domain.SortOrder(req.Sort),
	}
	if filter.SortBy == "" {
		filter.SortBy = domain.SortNewest
	}
	for _, bound := range []struct {
		raw string
		dst *decimal.NullDecimal
	}{{req.MinPrice, &filter.MinPrice}, {req.MaxPrice, &filter.MaxPrice}} {
		if bound.raw == "" {
			continue
		}
		d, err := decimal.NewFromString(bound.raw)
		if err != nil {
			return nil, status.Errorf(codes.InvalidArgument, "Invalid price bound %q", bound.raw)
		}
		*bound.dst = decimal.NewNullDecimal(d)
	}

	products := h.market.Products(filter)
	h.log.Infof("gRPC Handler: Listed %d products successfully", len(products))
	return &ListProductsResponse{Products: products}, nil
}

func (h *InventoryHandler) DecrementInventory(ctx context.Context, req *DecrementInventoryRequest) (*domain.Product, error) {
	h.log.Infof("gRPC Handler: Received DecrementInventory request: ID=%s, Amount=%d", req.ProductID, req.Amount)
	if req.ProductID == "" {
		return nil, status.Error(codes.InvalidArgument, "Product ID is required")
	}
	if req.Amount <= 0 {
		return nil, status.Error(codes.InvalidArgument, "Amount must be positive")
	}

	product, err := h.market.DecrementInventory(ctx, req.ProductID, req.Amount)
	if err != nil {
		return nil, mapDomainErrorToGrpcStatus(err)
	}
	return &product, nil
}

func mapDomainErrorToGrpcStatus(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, domain.ErrInsufficientInventory),
		errors.Is(err, domain.ErrOutOfStock):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, domain.ErrValidation):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, domain.ErrNotAuthenticated),
		errors.Is(err, domain.ErrInvalidCredentials):
		return status.Error(codes.Unauthenticated, err.Error())
	case errors.Is(err, domain.ErrForbidden):
		return status.Error(codes.PermissionDenied, err.Error())
	case errors.Is(err, domain.ErrDuplicateUsername),
		errors.Is(err, domain.ErrDuplicateReview),
		errors.Is(err, domain.ErrAlreadyInCart):
		return status.Error(codes.AlreadyExists, err.Error())
	default:
		return status.Errorf(codes.Internal, "Internal server error: %v", err)
	}
}

func UnaryLoggingInterceptor(logger *logrus.Logger) gogrpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *gogrpc.UnaryServerInfo, handler gogrpc.UnaryHandler) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)

		entry := logger.WithFields(logrus.Fields{
			"method":     info.FullMethod,
			"code":       status.Code(err).String(),
			"latency_ms": time.Since(start).Milliseconds(),
		})
		if err != nil {
			entry.Warn("gRPC request failed")
		} else {
			entry.Info("gRPC request completed")
		}
		return resp, err
	}
}
