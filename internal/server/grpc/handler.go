package grpc

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/profilekeeper/internal/common"
	"github.com/dmitrijs2005/profilekeeper/internal/docstore"
	pb "github.com/dmitrijs2005/profilekeeper/internal/proto"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

func (s *GRPCServer) GetDocument(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {

	fields, found, err := s.documents.Get(ctx, req.GetValue())
	if err != nil {
		return nil, mapError(err)
	}

	resp, err := pb.NewGetResponse(fields, found)
	if err != nil {
		s.logger.Error(ctx, "document encode failed", "path", req.GetValue(), "error", err)
		return nil, status.Error(codes.Internal, "internal error")
	}
	return resp, nil
}

func (s *GRPCServer) SetDocument(ctx context.Context, req *structpb.Struct) (*emptypb.Empty, error) {

	r, err := pb.ParseSetRequest(req)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	if err := s.documents.Set(ctx, r.Path, docstore.Fields(r.Fields), r.Merge); err != nil {
		return nil, mapError(err)
	}
	return &emptypb.Empty{}, nil
}

func mapError(err error) error {
	switch {
	case errors.Is(err, common.ErrInvalidPath), errors.Is(err, common.ErrInvalidDocument):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	default:
		return status.Error(codes.Internal, "internal error")
	}
}
