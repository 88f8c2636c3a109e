package dbtest

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/vasiliy-maslov/bookstore/internal/db"
)

var errNoQueries = errors.New("dbtest: fake transactor does not run queries")

// FakeTx satisfies db.Transactor for service tests whose repositories are mocked.
// It records transaction outcomes and accepts Exec calls without doing anything.
type FakeTx struct {
	Begun      int
	Committed  int
	RolledBack int
	Statements []string
}

var _ db.Transactor = (*FakeTx)(nil)

func (f *FakeTx) Exec(_ context.Context, sql string, _ ...any) (pgconn.CommandTag, error) {
	f.Statements = append(f.Statements, sql)
	return pgconn.NewCommandTag(""), nil
}

func (f *FakeTx) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return nil, errNoQueries
}

func (f *FakeTx) QueryRow(context.Context, string, ...any) pgx.Row {
	return errRow{}
}

func (f *FakeTx) InTx(_ context.Context, fn func(q db.Querier) error) error {
	f.Begun++
	if err := fn(f); err != nil {
		f.RolledBack++
		return err
	}
	f.Committed++
	return nil
}

type errRow struct{}

func (errRow) Scan(...any) error { return errNoQueries }
