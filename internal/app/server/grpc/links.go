package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const ServiceName = "linkshelf.v1.Links"

// Full method names, as seen by interceptors.
const (
	ShortenMethod = "/" + ServiceName + "/Shorten"
	ResolveMethod = "/" + ServiceName + "/Resolve"
	ListMethod    = "/" + ServiceName + "/List"
	DeleteMethod  = "/" + ServiceName + "/Delete"
)

// LinksServer is the gRPC face of the link service. Messages are protobuf
// well-known types so no generated code is needed:
//
//	Shorten(Struct{longUrl, title}) -> StringValue(shortUrl)
//	Resolve(StringValue(shortId))   -> StringValue(longUrl)
//	List(Empty)                     -> ListValue of Struct
//	Delete(StringValue(shortId))    -> Empty
type LinksServer interface {
	Shorten(context.Context, *structpb.Struct) (*wrapperspb.StringValue, error)
	Resolve(context.Context, *wrapperspb.StringValue) (*wrapperspb.StringValue, error)
	List(context.Context, *emptypb.Empty) (*structpb.ListValue, error)
	Delete(context.Context, *wrapperspb.StringValue) (*emptypb.Empty, error)
}

// LinksServiceDesc registers a LinksServer with grpc.Server.RegisterService.
var LinksServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*LinksServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Shorten", Handler: unaryHandler(ShortenMethod, LinksServer.Shorten)},
		{MethodName: "Resolve", Handler: unaryHandler(ResolveMethod, LinksServer.Resolve)},
		{MethodName: "List", Handler: unaryHandler(ListMethod, LinksServer.List)},
		{MethodName: "Delete", Handler: unaryHandler(DeleteMethod, LinksServer.Delete)},
	},
	Streams: []grpc.StreamDesc{},
}

func unaryHandler[Req, Resp any](fullMethod string, call func(LinksServer, context.Context, *Req) (*Resp, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		s, ok := srv.(LinksServer)
		if !ok {
			return nil, status.Errorf(codes.Internal, "%T does not implement LinksServer", srv)
		}

		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(s, ctx, in)
		}

		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
			r, ok := req.(*Req)
			if !ok {
				return nil, status.Errorf(codes.Internal, "unexpected request type %T", req)
			}
			return call(s, ctx, r)
		})
	}
}

// Client calls a remote LinksServer.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func (c *Client) Shorten(ctx context.Context, longURL, title string, opts ...grpc.CallOption) (string, error) {
	in, err := structpb.NewStruct(map[string]any{"longUrl": longURL, "title": title})
	if err != nil {
		return "", err
	}
	out := new(wrapperspb.StringValue)
	if err := c.cc.Invoke(ctx, ShortenMethod, in, out, opts...); err != nil {
		return "", err
	}
	return out.GetValue(), nil
}

func (c *Client) Resolve(ctx context.Context, shortID string, opts ...grpc.CallOption) (string, error) {
	out := new(wrapperspb.StringValue)
	if err := c.cc.Invoke(ctx, ResolveMethod, wrapperspb.String(shortID), out, opts...); err != nil {
		return "", err
	}
	return out.GetValue(), nil
}

func (c *Client) List(ctx context.Context, opts ...grpc.CallOption) ([]map[string]any, error) {
	out := new(structpb.ListValue)
	if err := c.cc.Invoke(ctx, ListMethod, &emptypb.Empty{}, out, opts...); err != nil {
		return nil, err
	}

	links := make([]map[string]any, 0, len(out.GetValues()))
	for _, v := range out.GetValues() {
		links = append(links, v.GetStructValue().AsMap())
	}
	return links, nil
}

func (c *Client) Delete(ctx context.Context, shortID string, opts ...grpc.CallOption) error {
	return c.cc.Invoke(ctx, DeleteMethod, wrapperspb.String(shortID), new(emptypb.Empty), opts...)
}
