package documents

import (
	"context"

	"github.com/dmitrijs2005/profilekeeper/internal/docstore"
	"github.com/dmitrijs2005/profilekeeper/internal/logging"
)

// Service validates document requests and hands them to a Repository.
type Service struct {
	repo Repository
	log  logging.Logger
}

func NewService(repo Repository, log logging.Logger) *Service {
	if log == nil {
		log = logging.NewNop()
	}
	return &Service{repo: repo, log: log.With("module", "documents")}
}

func (s *Service) Get(ctx context.Context, path string) (docstore.Fields, bool, error) {
	if err := docstore.ValidatePath(path); err != nil {
		return nil, false, err
	}
	fields, ok, err := s.repo.Get(ctx, path)
	if err != nil {
		s.log.Error(ctx, "document read failed", "path", path, "error", err)
		return nil, false, err
	}
	s.log.Debug(ctx, "document read", "path", path, "found", ok)
	return fields, ok, nil
}

func (s *Service) Set(ctx context.Context, path string, fields docstore.Fields, merge bool) error {
	if err := docstore.ValidatePath(path); err != nil {
		return err
	}
	if err := s.repo.Set(ctx, path, fields, docstore.SetOptions{Merge: merge}); err != nil {
		s.log.Error(ctx, "document write failed", "path", path, "error", err)
		return err
	}
	s.log.Debug(ctx, "document written", "path", path, "merge", merge, "keys", len(fields))
	return nil
}
