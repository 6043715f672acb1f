// Package documents stores profile documents on the server side. The
// Repository contract is docstore.Store; implementations exist for
// memory (docstore.MemoryStore), PostgreSQL and S3-compatible storage.
package documents

import (
	"github.com/dmitrijs2005/profilekeeper/internal/docstore"
)

// Repository persists documents by path.
type Repository interface {
	docstore.Store
}

// NewMemoryRepository keeps documents in process memory. Contents are lost
// on restart.
func NewMemoryRepository() Repository {
	return docstore.NewMemoryStore()
}
