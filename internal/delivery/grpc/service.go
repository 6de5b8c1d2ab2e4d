package grpc

import (
	"context"

	"minihub/internal/domain"

	gogrpc "google.golang.org/grpc"
)

const (
	ServiceName = "minihub.inventory.v1.Inventory"

	getProductMethod         = "/" + ServiceName + "/GetProduct"
	listProductsMethod       = "/" + ServiceName + "/ListProducts"
	decrementInventoryMethod = "/" + ServiceName + "/DecrementInventory"
)

type GetProductRequest struct {
	ID string `json:"id"`
}

// ListProductsRequest mirrors the REST query parameters. Prices are decimal
// strings; empty means unbounded.
type ListProductsRequest struct {
	Category string `json:"category,omitempty"`
	Search   string `json:"search,omitempty"`
	MinPrice string `json:"min_price,omitempty"`
	MaxPrice string `json:"max_price,omitempty"`
	Sort     string `json:"sort,omitempty"`
}

type ListProductsResponse struct {
	Products []domain.Product `json:"products"`
}

type DecrementInventoryRequest struct {
	ProductID string `json:"product_id"`
	Amount    int    `json:"amount"`
}

type InventoryServer interface {
	GetProduct(context.Context, *GetProductRequest) (*domain.Product, error)
	ListProducts(context.Context, *ListProductsRequest) (*ListProductsResponse, error)
	DecrementInventory(context.Context, *DecrementInventoryRequest) (*domain.Product, error)
}

func RegisterInventoryServer(s gogrpc.ServiceRegistrar, srv InventoryServer) {
	s.RegisterService(&inventoryServiceDesc, srv)
}

var inventoryServiceDesc = gogrpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*InventoryServer)(nil),
	Methods: []gogrpc.MethodDesc{
		{MethodName: "GetProduct", Handler: getProductHandler},
		{MethodName: "ListProducts", Handler: listProductsHandler},
		{MethodName: "DecrementInventory", Handler: decrementInventoryHandler},
	},
	Streams:  []gogrpc.StreamDesc{},
	Metadata: "minihub/inventory.proto",
}

func getProductHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor gogrpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(GetProductRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(InventoryServer).GetProduct(ctx, in)
	}
	info := &gogrpc.UnaryServerInfo{Server: srv, FullMethod: getProductMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(InventoryServer).GetProduct(ctx, req.(*GetProductRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func listProductsHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor gogrpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(ListProductsRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(InventoryServer).ListProducts(ctx, in)
	}
	info := &gogrpc.UnaryServerInfo{Server: srv, FullMethod: listProductsMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(InventoryServer).ListProducts(ctx, req.(*ListProductsRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func decrementInventoryHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor gogrpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(DecrementInventoryRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(InventoryServer).DecrementInventory(ctx, in)
	}
	info := &gogrpc.UnaryServerInfo{Server: srv, FullMethod: decrementInventoryMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(InventoryServer).DecrementInventory(ctx, req.(*DecrementInventoryRequest))
	}
	return interceptor(ctx, in, info, handler)
}

// InventoryClient is the caller side of the service. Every call is sent
// with the JSON content-subtype.
type InventoryClient interface {
	GetProduct(ctx context.Context, in *GetProductRequest, opts ...gogrpc.CallOption) (*domain.Product, error)
	ListProducts(ctx context.Context, in *ListProductsRequest, opts ...gogrpc.CallOption) (*ListProductsResponse, error)
	DecrementInventory(ctx context.Context, in *DecrementInventoryRequest, opts ...gogrpc.CallOption) (*domain.Product, error)
}

type inventoryClient struct {
	cc gogrpc.ClientConnInterface
}

func NewInventoryClient(cc gogrpc.ClientConnInterface) InventoryClient {
	return &inventoryClient{cc: cc}
}

func (c *inventoryClient) invoke(ctx context.Context, method string, in, out interface{}, opts []gogrpc.CallOption) error {
	opts = append([]gogrpc.CallOption{gogrpc.CallContentSubtype(CodecName)}, opts...)
	return c.cc.Invoke(ctx, method, in, out, opts...)
}

func (c *inventoryClient) GetProduct(ctx context.Context, in *GetProductRequest, opts ...gogrpc.CallOption) (*domain.Product, error) {
	out := new(domain.Product)
	if err := c.invoke(ctx, getProductMethod, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *inventoryClient) ListProducts(ctx context.Context, in *ListProductsRequest, opts ...gogrpc.CallOption) (*ListProductsResponse, error) {
	out := new(ListProductsResponse)
	if err := c.invoke(ctx, listProductsMethod, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *inventoryClient) DecrementInventory(ctx context.Context, in *DecrementInventoryRequest, opts ...gogrpc.CallOption) (*domain.Product, error) {
	out := new(domain.Product)
	if err := c.invoke(ctx, decrementInventoryMethod, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}
