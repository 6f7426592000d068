package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// Сервис описан вручную поверх well-known types, protoc не нужен:
//
//	service InitDataVerifier {
//	  rpc Validate(google.protobuf.StringValue) returns (google.protobuf.Empty);
//	}
const (
	ServiceName    = "initdata.v1.InitDataVerifier"
	validateMethod = "/" + ServiceName + "/Validate"
)

type InitDataVerifierServer interface {
	Validate(context.Context, *wrapperspb.StringValue) (*emptypb.Empty, error)
}

func RegisterInitDataVerifierServer(s grpc.ServiceRegistrar, srv InitDataVerifierServer) {
	s.RegisterService(&InitDataVerifierServiceDesc, srv)
}

var InitDataVerifierServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*InitDataVerifierServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Validate", Handler: validateHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "initdata/v1/verifier.proto",
}

func validateHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(InitDataVerifierServer).Validate(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: validateMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(InitDataVerifierServer).Validate(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

type InitDataVerifierClient interface {
	Validate(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*emptypb.Empty, error)
}

type initDataVerifierClient struct {
	cc grpc.ClientConnInterface
}

func NewInitDataVerifierClient(cc grpc.ClientConnInterface) InitDataVerifierClient {
	return &initDataVerifierClient{cc: cc}
}

func (c *initDataVerifierClient) Validate(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	out := new(emptypb.Empty)
	if err := c.cc.Invoke(ctx, validateMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
