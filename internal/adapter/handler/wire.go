package handler

import (
	"encoding/json"
	"fmt"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoregistry"
	"google.golang.org/protobuf/types/descriptorpb"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// OrderServiceProto is the descriptor path of api/proto/bikeshop/v1/order_service.proto.
const OrderServiceProto = "bikeshop/v1/order_service.proto"

const (
	structType = ".google.protobuf.Struct"
	emptyType  = ".google.protobuf.Empty"
)

func rpcMethod(name, in, out string) *descriptorpb.MethodDescriptorProto {
	return &descriptorpb.MethodDescriptorProto{
		Name:       proto.String(name),
		InputType:  proto.String(in),
		OutputType: proto.String(out),
	}
}

// orderServiceFile mirrors the checked-in .proto so the service can be found
// through server reflection.
var orderServiceFile = &descriptorpb.FileDescriptorProto{
	Name:       proto.String(OrderServiceProto),
	Package:    proto.String("bikeshop.v1"),
	Dependency: []string{"google/protobuf/empty.proto", "google/protobuf/struct.proto"},
	Syntax:     proto.String("proto3"),
	Service: []*descriptorpb.ServiceDescriptorProto{{
		Name: proto.String("OrderService"),
		Method: []*descriptorpb.MethodDescriptorProto{
			rpcMethod("Checkout", structType, structType),
			rpcMethod("GetOrder", structType, structType),
			rpcMethod("CancelOrder", structType, emptyType),
			rpcMethod("SetStatus", structType, emptyType),
		},
	}},
}

func init() {
	fd, err := protodesc.NewFile(orderServiceFile, protoregistry.GlobalFiles)
	if err != nil {
		panic(fmt.Sprintf("build %s descriptor: %v", OrderServiceProto, err))
	}
	if err := protoregistry.GlobalFiles.RegisterFile(fd); err != nil {
		panic(fmt.Sprintf("register %s: %v", OrderServiceProto, err))
	}
}

// toWire encodes v for the wire: *Empty becomes google.protobuf.Empty and
// everything else its JSON object form as a google.protobuf.Struct.
func toWire(v any) (proto.Message, error) {
	if _, ok := v.(*Empty); ok {
		return &emptypb.Empty{}, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	s := &structpb.Struct{}
	if err := protojson.Unmarshal(b, s); err != nil {
		return nil, err
	}
	return s, nil
}

// fromWire decodes a google.protobuf.Struct into v through its JSON form.
func fromWire(s *structpb.Struct, v any) error {
	if _, ok := v.(*Empty); ok {
		return nil
	}
	b, err := protojson.Marshal(s)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, v)
}

// wireOut is the message a response of type Resp arrives in.
func wireOut[Resp any]() proto.Message {
	var zero Resp
	if _, ok := any(&zero).(*Empty); ok {
		return &emptypb.Empty{}
	}
	return &structpb.Struct{}
}
