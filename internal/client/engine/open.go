package engine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"

	"github.com/dmitrijs2005/profilekeeper/internal/client/client"
	"github.com/dmitrijs2005/profilekeeper/internal/client/config"
	"github.com/dmitrijs2005/profilekeeper/internal/client/identity"
	"github.com/dmitrijs2005/profilekeeper/internal/client/repositories/kv"
	"github.com/dmitrijs2005/profilekeeper/internal/docstore"
	"github.com/dmitrijs2005/profilekeeper/internal/filex"
	"github.com/dmitrijs2005/profilekeeper/internal/logging"
)

// Runtime is an Engine opened from configuration together with the local
// database and remote connection it owns.
type Runtime struct {
	*Engine
	Logger logging.Logger

	db     *sql.DB
	remote *client.GRPCClient
}

// Open builds a started Engine from cfg. Log records go to out. Without a
// remote endpoint documents are kept in memory.
func Open(ctx context.Context, cfg *config.Config, out io.Writer) (*Runtime, error) {
	log, err := logging.New(cfg.LogBackend, cfg.LogLevel, out)
	if err != nil {
		return nil, fmt.Errorf("logger init error: %w", err)
	}

	if err := filex.EnsureDirFor(cfg.DatabaseDSN); err != nil {
		return nil, fmt.Errorf("data dir error: %w", err)
	}
	repo, db, err := client.NewKVRepository(ctx, cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("error initializing database: %w", err)
	}
	rt := &Runtime{Logger: log, db: db}

	sealed, err := kv.NewSealedRepository(ctx, repo, []byte(cfg.CredentialSecret))
	if err != nil {
		rt.closeResources()
		return nil, fmt.Errorf("local storage error: %w", err)
	}

	provider, err := identity.NewLocalProvider(ctx, sealed, []byte(cfg.CredentialSecret), log)
	if err != nil {
		rt.closeResources()
		return nil, err
	}

	var store docstore.Store
	if cfg.RemoteEndpointAddr == "" {
		log.Warn(ctx, "no remote endpoint configured, documents are kept in memory")
		store = docstore.NewMemoryStore()
	} else {
		remote, err := client.NewGRPCClient(cfg.RemoteEndpointAddr, client.WithIdentity(func() string {
			if id := provider.Current(); id != nil {
				return id.ID
			}
			return ""
		}))
		if err != nil {
			rt.closeResources()
			return nil, fmt.Errorf("remote init error: %w", err)
		}
		rt.remote = remote
		store = remote
	}

	e, err := New(ctx, Deps{
		Provider:    provider,
		Store:       store,
		Persistence: sealed,
		Logger:      log,
		Query:       cfg.QueryOptions(),
		Debounce:    cfg.DebounceInterval,
	})
	if err != nil {
		rt.closeResources()
		return nil, err
	}
	rt.Engine = e
	e.Start(ctx)
	return rt, nil
}

// Close stops the engine and releases the database and the connection.
func (r *Runtime) Close() error {
	r.Engine.Close()
	return r.closeResources()
}

func (r *Runtime) closeResources() error {
	var errs []error
	if r.remote != nil {
		errs = append(errs, r.remote.Close())
	}
	if r.db != nil {
		errs = append(errs, r.db.Close())
	}
	return errors.Join(errs...)
}
