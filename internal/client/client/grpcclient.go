package client

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/profilekeeper/internal/common"
	"github.com/dmitrijs2005/profilekeeper/internal/docstore"
	pb "github.com/dmitrijs2005/profilekeeper/internal/proto"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// DefaultCallTimeout bounds a single document call.
const DefaultCallTimeout = 10 * time.Second

// GRPCClient is a docstore.Store talking to a remote document server.
type GRPCClient struct {
	endpointURL string
	conn        *grpc.ClientConn
	client      pb.DocumentStoreClient
	identity    func() string
	timeout     time.Duration
	dialOpts    []grpc.DialOption
}

var _ docstore.Store = (*GRPCClient)(nil)

type Option func(*GRPCClient)

// WithIdentity sets the source of the identity id sent with every call.
func WithIdentity(fn func() string) Option {
	return func(c *GRPCClient) { c.identity = fn }
}

// WithCallTimeout overrides DefaultCallTimeout. Zero disables the bound.
func WithCallTimeout(d time.Duration) Option {
	return func(c *GRPCClient) { c.timeout = d }
}

// WithDialOptions appends raw dial options, e.g. a bufconn dialer in tests.
func WithDialOptions(opts ...grpc.DialOption) Option {
	return func(c *GRPCClient) { c.dialOpts = append(c.dialOpts, opts...) }
}

func withIdentity(ctx context.Context, id string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Set(common.IdentityHeaderName, id)

	return metadata.NewOutgoingContext(ctx, md)
}

func (s *GRPCClient) identityInterceptor(
	ctx context.Context,
	method string,
	req, reply interface{},
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {
	if s.identity != nil {
		if id := s.identity(); id != "" {
			ctx = withIdentity(ctx, id)
		}
	}
	return invoker(ctx, method, req, reply, cc, opts...)
}

func NewGRPCClient(endpointURL string, opts ...Option) (*GRPCClient, error) {
	c := &GRPCClient{endpointURL: endpointURL, timeout: DefaultCallTimeout}
	for _, o := range opts {
		o(c)
	}
	if err := c.InitGRPCClient(); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *GRPCClient) InitGRPCClient() error {
	dialOpts := append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(s.identityInterceptor),
	}, s.dialOpts...)

	conn, err := grpc.NewClient(s.endpointURL, dialOpts...)
	if err != nil {
		return err
	}
	s.conn = conn
	s.client = pb.NewDocumentStoreClient(conn)
	return nil
}

func (s *GRPCClient) Close() error {
	return s.conn.Close()
}

func (s *GRPCClient) Get(ctx context.Context, path string) (docstore.Fields, bool, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	resp, err := s.client.GetDocument(ctx, pb.NewGetRequest(path))
	if err != nil {
		return nil, false, s.mapError(err)
	}

	fields, found, err := pb.ParseGetResponse(resp)
	if err != nil {
		return nil, false, fmt.Errorf("%w: %v", common.ErrInvalidDocument, err)
	}
	if !found {
		return nil, false, nil
	}
	return docstore.Fields(fields), true, nil
}

func (s *GRPCClient) Set(ctx context.Context, path string, fields docstore.Fields, opts docstore.SetOptions) error {
	in, err := docstore.Normalize(fields)
	if err != nil {
		return err
	}
	req, err := pb.NewSetRequest(pb.SetRequest{Path: path, Merge: opts.Merge, Fields: in})
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrInvalidDocument, err)
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if _, err := s.client.SetDocument(ctx, req); err != nil {
		return s.mapError(err)
	}
	return nil
}

func (s *GRPCClient) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

func (s *GRPCClient) mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	st, _ := status.FromError(err)
	switch st.Code() {
	case codes.Unauthenticated, codes.PermissionDenied:
		return fmt.Errorf("%w: %s", common.ErrorUnauthorized, st.Message())
	case codes.Unavailable, codes.DeadlineExceeded:
		return ErrUnavailable
	case codes.InvalidArgument:
		return fmt.Errorf("%w: %s", common.ErrInvalidPath, st.Message())
	case codes.Canceled:
		return context.Canceled
	default:
		return fmt.Errorf("rpc error: %w", err)
	}
}
