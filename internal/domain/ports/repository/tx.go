package repository

import (
	"context"

	"github.com/jackc/pgx/v4"
)

// Tx is the storage-specific transaction handle passed through use cases.
// Repositories accept NoTX for the non-transactional path.
type Tx interface{}

var NoTX interface{}

// TransactionManager runs fn inside one database transaction. The handle given
// to fn must be passed to every repository call that belongs to the unit of
// work; the transaction commits only when fn returns nil.
type TransactionManager interface {
	WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx Tx) error) error
}
