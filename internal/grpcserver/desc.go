package grpcserver

import (
	"context"

	"google.golang.org/grpc"

	"jobmate/posting-service/internal/posting"
)

// postingServer is the handler type checked by RegisterService.
type postingServer interface {
	GetPosting(context.Context, *GetPostingRequest) (*posting.Posting, error)
	ListPostings(context.Context, *ListPostingsRequest) (*ListPostingsResponse, error)
	ApplyAction(context.Context, *ApplyActionRequest) (*posting.Posting, error)
	GetEntitlement(context.Context, *EntitlementRequest) (*EntitlementResponse, error)
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*postingServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetPosting", Handler: unary("GetPosting", postingServer.GetPosting)},
		{MethodName: "ListPostings", Handler: unary("ListPostings", postingServer.ListPostings)},
		{MethodName: "ApplyAction", Handler: unary("ApplyAction", postingServer.ApplyAction)},
		{MethodName: "GetEntitlement", Handler: unary("GetEntitlement", postingServer.GetEntitlement)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "posting.json",
}

// unary adapts a typed method to the handler signature of grpc.MethodDesc.
func unary[Req, Resp any](method string, call func(postingServer, context.Context, *Req) (*Resp, error)) func(any, context.Context, func(any) error, grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		s := srv.(postingServer)
		if interceptor == nil {
			return call(s, ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/" + method}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(s, ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}
