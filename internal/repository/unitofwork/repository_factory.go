package unitofwork

import "context"

// RepositoryFactory opens units of work. The realm is taken from ctx.
type RepositoryFactory interface {
	NewUnitOfWork(ctx context.Context) UnitOfWork
}
