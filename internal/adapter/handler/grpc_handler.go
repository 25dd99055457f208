package handler

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/rl1809/bikeshop/internal/core/domain"
)

const OrderServiceName = "bikeshop.v1.OrderService"

type OrderRequest struct {
	OrderNumber string `json:"order_number"`
}

type SetStatusRequest struct {
	OrderNumber string `json:"order_number"`
	Status      string `json:"status"`
}

type Empty struct{}

// OrderServiceServer is the gRPC surface of the order ledger.
type OrderServiceServer interface {
	Checkout(ctx context.Context, req *CheckoutJSON) (*OrderJSON, error)
	GetOrder(ctx context.Context, req *OrderRequest) (*OrderJSON, error)
	CancelOrder(ctx context.Context, req *OrderRequest) (*Empty, error)
	SetStatus(ctx context.Context, req *SetStatusRequest) (*Empty, error)
}

type GRPCHandler struct {
	storefront Storefront
	ledger     Ledger
	logger     *zap.Logger
}

func NewGRPCHandler(storefront Storefront, ledger Ledger, logger *zap.Logger) *GRPCHandler {
	return &GRPCHandler{storefront: storefront, ledger: ledger, logger: logger}
}

func (h *GRPCHandler) Checkout(ctx context.Context, req *CheckoutJSON) (*OrderJSON, error) {
	if req.RequestID == "" {
		req.RequestID = uuid.New().String()
	}
	order, err := h.storefront.Checkout(ctx, req.request())
	if err != nil {
		return nil, h.rpcError("Checkout", err)
	}
	out := toOrderJSON(*order)
	return &out, nil
}

func (h *GRPCHandler) GetOrder(ctx context.Context, req *OrderRequest) (*OrderJSON, error) {
	order, err := h.ledger.FindByID(ctx, req.OrderNumber)
	if err != nil {
		return nil, h.rpcError("GetOrder", err)
	}
	out := toOrderJSON(*order)
	return &out, nil
}

func (h *GRPCHandler) CancelOrder(ctx context.Context, req *OrderRequest) (*Empty, error) {
	if err := h.ledger.CancelOrder(ctx, req.OrderNumber); err != nil {
		return nil, h.rpcError("CancelOrder", err)
	}
	return &Empty{}, nil
}

func (h *GRPCHandler) SetStatus(ctx context.Context, req *SetStatusRequest) (*Empty, error) {
	if err := h.ledger.SetStatus(ctx, req.OrderNumber, domain.OrderStatus(req.Status)); err != nil {
		return nil, h.rpcError("SetStatus", err)
	}
	return &Empty{}, nil
}

func (h *GRPCHandler) rpcError(method string, err error) error {
	code := grpcCode(err)
	if code == codes.Internal || code == codes.DataLoss {
		h.logger.Error("rpc failed", zap.String("method", method), zap.Error(err))
	}
	return status.Error(code, publicMessage(err))
}

// RegisterOrderService attaches srv to s. Requests and responses travel as
// google.protobuf.Struct, so any protobuf client holding
// api/proto/bikeshop/v1/order_service.proto can call it.
func RegisterOrderService(s grpc.ServiceRegistrar, srv OrderServiceServer) {
	s.RegisterService(&orderServiceDesc, srv)
}

func unaryHandler[Req any, Resp any](method string, call func(OrderServiceServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	invoke := func(srv any, ctx context.Context, wire *structpb.Struct) (any, error) {
		in := new(Req)
		if err := fromWire(wire, in); err != nil {
			return nil, status.Errorf(codes.InvalidArgument, "invalid %s request: %v", method, err)
		}
		resp, err := call(srv.(OrderServiceServer), ctx, in)
		if err != nil {
			return nil, err
		}
		out, err := toWire(resp)
		if err != nil {
			return nil, status.Errorf(codes.Internal, "encode %s response: %v", method, err)
		}
		return out, nil
	}

	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			wire := new(structpb.Struct)
			if err := dec(wire); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return invoke(srv, ctx, wire)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + OrderServiceName + "/" + method}
			return interceptor(ctx, wire, info, func(ctx context.Context, req any) (any, error) {
				return invoke(srv, ctx, req.(*structpb.Struct))
			})
		},
	}
}

var orderServiceDesc = grpc.ServiceDesc{
	ServiceName: OrderServiceName,
	HandlerType: (*OrderServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unaryHandler("Checkout", OrderServiceServer.Checkout),
		unaryHandler("GetOrder", OrderServiceServer.GetOrder),
		unaryHandler("CancelOrder", OrderServiceServer.CancelOrder),
		unaryHandler("SetStatus", OrderServiceServer.SetStatus),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: OrderServiceProto,
}

// OrderServiceClient calls the order service over conn.
type OrderServiceClient struct {
	conn grpc.ClientConnInterface
}

func NewOrderServiceClient(conn grpc.ClientConnInterface) *OrderServiceClient {
	return &OrderServiceClient{conn: conn}
}

func (c *OrderServiceClient) Checkout(ctx context.Context, req *CheckoutJSON, opts ...grpc.CallOption) (*OrderJSON, error) {
	return invoke[OrderJSON](ctx, c.conn, "Checkout", req, opts)
}

func (c *OrderServiceClient) GetOrder(ctx context.Context, req *OrderRequest, opts ...grpc.CallOption) (*OrderJSON, error) {
	return invoke[OrderJSON](ctx, c.conn, "GetOrder", req, opts)
}

func (c *OrderServiceClient) CancelOrder(ctx context.Context, req *OrderRequest, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[Empty](ctx, c.conn, "CancelOrder", req, opts)
}

func (c *OrderServiceClient) SetStatus(ctx context.Context, req *SetStatusRequest, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[Empty](ctx, c.conn, "SetStatus", req, opts)
}

func invoke[Resp any](ctx context.Context, conn grpc.ClientConnInterface, method string, req any, opts []grpc.CallOption) (*Resp, error) {
	in, err := toWire(req)
	if err != nil {
		return nil, fmt.Errorf("encode %s request: %w", method, err)
	}
	wire := wireOut[Resp]()
	if err := conn.Invoke(ctx, "/"+OrderServiceName+"/"+method, in, wire, opts...); err != nil {
		return nil, err
	}

	out := new(Resp)
	if s, ok := wire.(*structpb.Struct); ok {
		if err := fromWire(s, out); err != nil {
			return nil, fmt.Errorf("decode %s response: %w", method, err)
		}
	}
	return out, nil
}
