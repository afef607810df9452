package service

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// stateServer 服务端接口，请求均为 Empty，响应均为 Struct
type stateServer interface {
	Scene(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	Enemies(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	Snapshot(context.Context, *emptypb.Empty) (*structpb.Struct, error)
}

type unaryMethod func(stateServer, context.Context, *emptypb.Empty) (*structpb.Struct, error)

func unaryHandler(name string, method unaryMethod) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
			in := new(emptypb.Empty)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return method(srv.(stateServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{
				Server:     srv,
				FullMethod: fullMethod(name),
			}
			handler := func(ctx context.Context, req interface{}) (interface{}, error) {
				return method(srv.(stateServer), ctx, req.(*emptypb.Empty))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

func fullMethod(name string) string {
	return "/" + ServiceName + "/" + name
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*stateServer)(nil),
	Methods: []grpc.MethodDesc{
		unaryHandler("Scene", stateServer.Scene),
		unaryHandler("Enemies", stateServer.Enemies),
		unaryHandler("Snapshot", stateServer.Snapshot),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "cardsight/state.proto",
}
