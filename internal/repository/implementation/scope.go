package implementation

import (
	"errors"
	"fmt"

	"money-coach-be/internal/pkg/realm"
	"money-coach-be/internal/repository/contract"
	"money-coach-be/internal/repository/specification"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const pgUniqueViolation = "23505"

func applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

// realmScoped prefixes specs with the repository realm filter.
func realmScoped(r realm.Realm, specs ...specification.Specification) []specification.Specification {
	return append([]specification.Specification{specification.InRealm{Realm: r}}, specs...)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

func notFoundAsNil(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	return err
}

// translateCreate maps unique collisions onto contract.ErrDuplicate.
func translateCreate(err error) error {
	if err != nil && isUniqueViolation(err) {
		return fmt.Errorf("%w: %v", contract.ErrDuplicate, err)
	}
	return err
}
