package grpctransport

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/corray333/backend-labs/checkout/internal/service/models/order"
	"github.com/corray333/backend-labs/checkout/internal/service/services/ordersvc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ServiceName is the full name of the admin service.
const ServiceName = "storefront.admin.v1.OrderAdminService"

const (
	MethodUpdateOrderStatus = "/" + ServiceName + "/UpdateOrderStatus"
	MethodGetOrder          = "/" + ServiceName + "/GetOrder"
)

// OrderAdminServiceServer is the server API of the admin service. Requests and
// responses are well-known protobuf types, so no generated code is needed.
type OrderAdminServiceServer interface {
	// UpdateOrderStatus takes {"orderId", "status"} and returns the updated order.
	UpdateOrderStatus(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	// GetOrder takes the order id and returns the order.
	GetOrder(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error)
}

var orderAdminServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*OrderAdminServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "UpdateOrderStatus", Handler: updateOrderStatusHandler},
		{MethodName: "GetOrder", Handler: getOrderHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "storefront/admin/v1/order_admin.proto",
}

// RegisterOrderAdminServer registers srv on s.
func RegisterOrderAdminServer(s grpc.ServiceRegistrar, srv OrderAdminServiceServer) {
	s.RegisterService(&orderAdminServiceDesc, srv)
}

func updateOrderStatusHandler(
	srv any,
	ctx context.Context,
	dec func(any) error,
	interceptor grpc.UnaryServerInterceptor,
) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(OrderAdminServiceServer).UpdateOrderStatus(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: MethodUpdateOrderStatus}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(OrderAdminServiceServer).UpdateOrderStatus(ctx, req.(*structpb.Struct))
	}

	return interceptor(ctx, in, info, handler)
}

func getOrderHandler(
	srv any,
	ctx context.Context,
	dec func(any) error,
	interceptor grpc.UnaryServerInterceptor,
) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(OrderAdminServiceServer).GetOrder(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: MethodGetOrder}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(OrderAdminServiceServer).GetOrder(ctx, req.(*wrapperspb.StringValue))
	}

	return interceptor(ctx, in, info, handler)
}

// OrderAdminServer implements OrderAdminServiceServer.
type OrderAdminServer struct {
	service service
}

// NewOrderAdminServer creates a new OrderAdminServer.
func NewOrderAdminServer(service service) *OrderAdminServer {
	return &OrderAdminServer{
		service: service,
	}
}

// UpdateOrderStatus handles the status update gRPC request.
func (s *OrderAdminServer) UpdateOrderStatus(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	fields := req.GetFields()
	orderID := fields["orderId"].GetStringValue()
	rawStatus := fields["status"].GetStringValue()
	slog.Info("Received UpdateOrderStatus gRPC request", "order_id", orderID, "status", rawStatus)

	if orderID == "" {
		return nil, status.Error(codes.InvalidArgument, "orderId is required")
	}
	st, err := order.ParseStatus(rawStatus)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "invalid status %q", rawStatus)
	}

	o, err := s.service.UpdateStatus(ctx, orderID, st)
	if err != nil {
		slog.Error("Error updating order status", "order_id", orderID, "error", err)

		return nil, toStatus(err)
	}

	return orderToStruct(o)
}

// GetOrder handles the get order gRPC request.
func (s *OrderAdminServer) GetOrder(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	orderID := req.GetValue()
	if orderID == "" {
		return nil, status.Error(codes.InvalidArgument, "order id is required")
	}

	o, err := s.service.GetOrder(ctx, orderID)
	if err != nil {
		slog.Error("Error getting order", "order_id", orderID, "error", err)

		return nil, toStatus(err)
	}

	return orderToStruct(o)
}

// toStatus maps service errors to gRPC codes.
func toStatus(err error) error {
	switch {
	case errors.Is(err, order.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, order.ErrInvalidStatus):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, order.ErrInvalidTransition):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, ordersvc.ErrStatusNotApplied):
		return status.Error(codes.Aborted, err.Error())
	default:
		return status.Errorf(codes.Internal, "failed to process order: %v", err)
	}
}

// orderToStruct renders o with its JSON field names.
func orderToStruct(o order.Order) (*structpb.Struct, error) {
	raw, err := json.Marshal(o)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to encode order: %v", err)
	}
	fields := map[string]any{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, status.Errorf(codes.Internal, "failed to encode order: %v", err)
	}

	s, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to encode order: %v", err)
	}

	return s, nil
}
