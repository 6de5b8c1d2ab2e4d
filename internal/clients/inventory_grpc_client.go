package clients

import (
	"context"
	"fmt"
	"time"

	inventoryrpc "minihub/internal/delivery/grpc"
	"minihub/internal/domain"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
)

const callTimeout = 3 * time.Second

type InventoryClient interface {
	GetProduct(ctx context.Context, productID string) (*domain.Product, error)
	ListProducts(ctx context.Context, req *inventoryrpc.ListProductsRequest) ([]domain.Product, error)
	DecrementInventory(ctx context.Context, productID string, amount int) (*domain.Product, error)
	Close() error
}

type inventoryGRPCClient struct {
	client inventoryrpc.InventoryClient
	log    *logrus.Logger
	conn   *grpc.ClientConn
}

// NewInventoryGRPCClient connects lazily to target over plaintext. Extra
// dial options are appended, which is how tests inject a bufconn dialer.
func NewInventoryGRPCClient(target string, logger *logrus.Logger, opts ...grpc.DialOption) (InventoryClient, error) {
	logger.Infof("InventoryClient: Creating gRPC client for target: %s", target)
	dialOpts := append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)

	conn, err := grpc.NewClient(target, dialOpts...)
	if err != nil {
		logger.Errorf("InventoryClient: Failed to create client for %s: %v", target, err)
		return nil, fmt.Errorf("failed to connect to inventory service at %s: %w", target, err)
	}

	return &inventoryGRPCClient{
		client: inventoryrpc.NewInventoryClient(conn),
		log:    logger,
		conn:   conn,
	}, nil
}

func (c *inventoryGRPCClient) Close() error {
	if c.conn != nil {
		c.log.Info("InventoryClient: Closing gRPC connection")
		return c.conn.Close()
	}
	return nil
}

func (c *inventoryGRPCClient) GetProduct(ctx context.Context, productID string) (*domain.Product, error) {
	c.log.Infof("InventoryClient(gRPC): Requesting product info for ID: %s", productID)
	callCtx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	product, err := c.client.GetProduct(callCtx, &inventoryrpc.GetProductRequest{ID: productID})
	if err != nil {
		return nil, c.translate("GetProduct", productID, err)
	}
	return product, nil
}

func (c *inventoryGRPCClient) ListProducts(ctx context.Context, req *inventoryrpc.ListProductsRequest) ([]domain.Product, error) {
	callCtx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	resp, err := c.client.ListProducts(callCtx, req)
	if err != nil {
		return nil, c.translate("ListProducts", "", err)
	}
	return resp.Products, nil
}

func (c *inventoryGRPCClient) DecrementInventory(ctx context.Context, productID string, amount int) (*domain.Product, error) {
	c.log.Infof("InventoryClient(gRPC): Requesting decrement of %d for ID %s", amount, productID)
	callCtx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	product, err := c.client.DecrementInventory(callCtx, &inventoryrpc.DecrementInventoryRequest{ProductID: productID, Amount: amount})
	if err != nil {
		return nil, c.translate("DecrementInventory", productID, err)
	}
	c.log.Infof("InventoryClient(gRPC): Product %s now has %d in stock", productID, product.Inventory)
	return product, nil
}

// translate turns a status error back into the matching domain sentinel so
// callers can use errors.Is on either side of the wire.
func (c *inventoryGRPCClient) translate(call, productID string, err error) error {
	st, ok := status.FromError(err)
	if !ok {
		c.log.Errorf("InventoryClient(gRPC): Failed to execute %s for ID %s: %v", call, productID, err)
		return fmt.Errorf("failed to communicate with inventory service: %w", err)
	}

	var sentinel error
	switch st.Code() {
	case codes.NotFound:
		sentinel = domain.ErrNotFound
	case codes.FailedPrecondition:
		sentinel = domain.ErrInsufficientInventory
	case codes.InvalidArgument:
		sentinel = domain.ErrValidation
	case codes.PermissionDenied:
		sentinel = domain.ErrForbidden
	case codes.Unauthenticated:
		sentinel = domain.ErrNotAuthenticated
	default:
		c.log.Errorf("InventoryClient(gRPC): %s failed for ID %s with code %s: %s", call, productID, st.Code(), st.Message())
		return fmt.Errorf("inventory service gRPC error (%s): %s", st.Code(), st.Message())
	}
	c.log.Warnf("InventoryClient(gRPC): %s for ID %s rejected: %s", call, productID, st.Message())
	return fmt.Errorf("%s: %w", st.Message(), sentinel)
}
