package proto

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

type echoServer struct {
	UnimplementedDocumentStoreServer
	last SetRequest
}

func (s *echoServer) GetDocument(_ context.Context, in *wrapperspb.StringValue) (*structpb.Struct, error) {
	return NewGetResponse(map[string]any{"path": in.GetValue()}, true)
}

func (s *echoServer) SetDocument(_ context.Context, in *structpb.Struct) (*emptypb.Empty, error) {
	r, err := ParseSetRequest(in)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	s.last = r
	return &emptypb.Empty{}, nil
}

func dial(t *testing.T, srv DocumentStoreServer, opts ...grpc.ServerOption) DocumentStoreClient {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	s := grpc.NewServer(opts...)
	RegisterDocumentStoreServer(s, srv)
	go func() { _ = s.Serve(lis) }()
	t.Cleanup(s.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return NewDocumentStoreClient(conn)
}

func TestDocumentStore_Calls(t *testing.T) {
	srv := &echoServer{}
	c := dial(t, srv)
	ctx := context.Background()

	resp, err := c.GetDocument(ctx, NewGetRequest("users/u1"))
	require.NoError(t, err)
	fields, found, err := ParseGetResponse(resp)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "users/u1", fields["path"])

	req, err := NewSetRequest(SetRequest{Path: "users/u1", Merge: true, Fields: map[string]any{"bio": "hi"}})
	require.NoError(t, err)
	_, err = c.SetDocument(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, "hi", srv.last.Fields["bio"])
	assert.True(t, srv.last.Merge)
}

func TestDocumentStore_Unimplemented(t *testing.T) {
	c := dial(t, &struct{ UnimplementedDocumentStoreServer }{})

	_, err := c.GetDocument(context.Background(), NewGetRequest("users/u1"))
	assert.Equal(t, codes.Unimplemented, status.Code(err))
}

func TestDocumentStore_InterceptorSeesMethod(t *testing.T) {
	var methods []string
	record := func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		methods = append(methods, info.FullMethod)
		return handler(ctx, req)
	}
	c := dial(t, &echoServer{}, grpc.UnaryInterceptor(record))
	ctx := context.Background()

	_, err := c.GetDocument(ctx, NewGetRequest("users/u1"))
	require.NoError(t, err)
	req, err := NewSetRequest(SetRequest{Path: "users/u1"})
	require.NoError(t, err)
	_, err = c.SetDocument(ctx, req)
	require.NoError(t, err)

	assert.Equal(t, []string{GetDocumentFullMethodName, SetDocumentFullMethodName}, methods)
}
