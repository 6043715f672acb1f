package grpc

import (
	"context"
	"strings"
	"time"

	"github.com/dmitrijs2005/profilekeeper/internal/common"
	"github.com/dmitrijs2005/profilekeeper/internal/docstore"
	pb "github.com/dmitrijs2005/profilekeeper/internal/proto"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

type ctxKey string

const identityKey ctxKey = "identityID"

// IdentityFromContext returns the caller identity stored by the identity
// interceptor.
func IdentityFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(identityKey).(string)
	return id, ok && id != ""
}

func requestPath(req interface{}) (string, bool) {
	switch r := req.(type) {
	case *wrapperspb.StringValue:
		return r.GetValue(), true
	case *structpb.Struct:
		v, ok := r.GetFields()["path"]
		if !ok {
			return "", false
		}
		path, ok := v.GetKind().(*structpb.Value_StringValue)
		if !ok {
			return "", false
		}
		return path.StringValue, true
	}
	return "", false
}

// identityInterceptor requires the identity header on document calls and
// only lets a caller touch documents under users/<own id>.
func (s *GRPCServer) identityInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {

	if !strings.HasPrefix(info.FullMethod, "/"+pb.ServiceName+"/") {
		return handler(ctx, req)
	}

	var id string
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		values := md.Get(common.IdentityHeaderName)
		if len(values) > 0 {
			id = values[0]
		}
	}
	if len(id) == 0 {
		return nil, status.Error(codes.Unauthenticated, "missing identity")
	}

	path, ok := requestPath(req)
	if !ok {
		return nil, status.Error(codes.InvalidArgument, "missing document path")
	}
	if docstore.OwnerOf(path) != id {
		return nil, status.Error(codes.PermissionDenied, "document belongs to another identity")
	}

	ctx = context.WithValue(ctx, identityKey, id)

	return handler(ctx, req)
}

func (s *GRPCServer) loggingInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
	start := time.Now()
	resp, err := handler(ctx, req)

	code := status.Code(err)
	args := []any{"method", info.FullMethod, "code", code.String(), "duration", time.Since(start)}
	if code == codes.Internal || code == codes.Unknown {
		s.logger.Error(ctx, "rpc failed", append(args, "error", err)...)
	} else {
		s.logger.Info(ctx, "rpc", args...)
	}
	return resp, err
}
