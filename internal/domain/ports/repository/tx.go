package repository

import (
	"context"

	"github.com/jackc/pgx/v4"
)

type Tx interface{}

var NoTX interface{}

// TransactionManager runs fn inside a database transaction and passes the
// transaction handle as tx. Repositories accept that handle or NoTX.
//
//	tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx Tx) error {
//		p, err := promos.FindByIDForUpdate(ctx, tx, id)
//		...
//		return err
//	})
//
// fn's error rolls the transaction back and is returned unchanged.
type TransactionManager interface {
	WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx Tx) error) error
}
