// Package proto holds the gRPC contract of the document store service.
//
// The service is declared by hand on top of the protobuf well-known types
// so no generated code is needed: a document read takes a
// wrapperspb.StringValue holding the path and answers with a
// structpb.Struct, a write takes a structpb.Struct envelope and answers
// with emptypb.Empty. messages.go builds and parses the envelopes.
package proto

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const (
	ServiceName = "profilekeeper.DocumentStore"

	GetDocumentFullMethodName = "/profilekeeper.DocumentStore/GetDocument"
	SetDocumentFullMethodName = "/profilekeeper.DocumentStore/SetDocument"
)

// DocumentStoreClient is the client API for the DocumentStore service.
type DocumentStoreClient interface {
	GetDocument(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*structpb.Struct, error)
	SetDocument(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*emptypb.Empty, error)
}

type documentStoreClient struct {
	cc grpc.ClientConnInterface
}

func NewDocumentStoreClient(cc grpc.ClientConnInterface) DocumentStoreClient {
	return &documentStoreClient{cc: cc}
}

func (c *documentStoreClient) GetDocument(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, GetDocumentFullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *documentStoreClient) SetDocument(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	out := new(emptypb.Empty)
	if err := c.cc.Invoke(ctx, SetDocumentFullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// DocumentStoreServer is the server API for the DocumentStore service.
// Implementations must embed UnimplementedDocumentStoreServer.
type DocumentStoreServer interface {
	GetDocument(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
	SetDocument(context.Context, *structpb.Struct) (*emptypb.Empty, error)
	mustEmbedUnimplementedDocumentStoreServer()
}

// UnimplementedDocumentStoreServer answers every method with
// codes.Unimplemented.
type UnimplementedDocumentStoreServer struct{}

func (UnimplementedDocumentStoreServer) GetDocument(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method GetDocument not implemented")
}

func (UnimplementedDocumentStoreServer) SetDocument(context.Context, *structpb.Struct) (*emptypb.Empty, error) {
	return nil, status.Error(codes.Unimplemented, "method SetDocument not implemented")
}

func (UnimplementedDocumentStoreServer) mustEmbedUnimplementedDocumentStoreServer() {}

func RegisterDocumentStoreServer(s grpc.ServiceRegistrar, srv DocumentStoreServer) {
	s.RegisterService(&DocumentStoreServiceDesc, srv)
}

func getDocumentHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(DocumentStoreServer).GetDocument(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: GetDocumentFullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(DocumentStoreServer).GetDocument(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

func setDocumentHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(DocumentStoreServer).SetDocument(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: SetDocumentFullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(DocumentStoreServer).SetDocument(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// DocumentStoreServiceDesc is the grpc.ServiceDesc for the DocumentStore
// service.
var DocumentStoreServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*DocumentStoreServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetDocument", Handler: getDocumentHandler},
		{MethodName: "SetDocument", Handler: setDocumentHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "profilekeeper/documentstore",
}
