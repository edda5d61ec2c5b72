// Package sqlxrepos implements the core repositories on PostgreSQL with sqlx and squirrel.
package sqlxrepos

import (
	"context"
	"database/sql"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/shulehub/shule/core"
)

const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// likeEscaper escapes the LIKE wildcards, backslash being the default escape character.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern is the (I)LIKE pattern matching s literally anywhere in the value.
func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}

// prefixPattern is the (I)LIKE pattern matching values starting with s.
func prefixPattern(s string) string {
	return likeEscaper.Replace(s) + "%"
}

// repo holds the default executor; every method may be handed another one (e.g. a transaction).
type repo struct {
	db *sqlx.DB
}

func (r repo) getExec(svcExec []core.DBExecutor) core.DBExecutor {
	if len(svcExec) > 0 && svcExec[0] != nil {
		return svcExec[0]
	}
	return r.db
}

func (r repo) queryer(svcExec []core.DBExecutor) (sqlx.QueryerContext, error) {
	q, ok := r.getExec(svcExec).(sqlx.QueryerContext)
	if !ok {
		return nil, errors.Errorf("sqlxrepos: executor %T cannot scan structs", r.getExec(svcExec))
	}
	return q, nil
}

func (r repo) get(ctx context.Context, exec []core.DBExecutor, dest interface{}, b sq.Sqlizer) error {
	q, args, err := b.ToSql()
	if err != nil {
		return errors.Wrap(err, "building query")
	}
	queryer, err := r.queryer(exec)
	if err != nil {
		return err
	}
	return sqlx.GetContext(ctx, queryer, dest, q, args...)
}

func (r repo) selectAll(ctx context.Context, exec []core.DBExecutor, dest interface{}, b sq.Sqlizer) error {
	q, args, err := b.ToSql()
	if err != nil {
		return errors.Wrap(err, "building query")
	}
	queryer, err := r.queryer(exec)
	if err != nil {
		return err
	}
	return sqlx.SelectContext(ctx, queryer, dest, q, args...)
}

// insert runs an INSERT ... RETURNING id and returns the new id.
func (r repo) insert(ctx context.Context, exec []core.DBExecutor, b sq.InsertBuilder) (int, error) {
	q, args, err := b.Suffix("RETURNING id").ToSql()
	if err != nil {
		return 0, errors.Wrap(err, "building query")
	}
	var id int
	err = r.getExec(exec).QueryRowContext(ctx, q, args...).Scan(&id)
	return id, err
}

// execAffecting runs a write and returns notFound when it touched no row.
func (r repo) execAffecting(ctx context.Context, exec []core.DBExecutor, b sq.Sqlizer, notFound error) error {
	q, args, err := b.ToSql()
	if err != nil {
		return errors.Wrap(err, "building query")
	}
	res, err := r.getExec(exec).ExecContext(ctx, q, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}

// translateErr maps "no rows" to notFound and constraint violations to core.ErrDuplicate or core.ErrReference.
func translateErr(err error, notFound error, msg string) error {
	if err == nil {
		return nil
	}
	if errors.Cause(err) == sql.ErrNoRows && notFound != nil {
		return notFound
	}
	if core.IsNotFound(err) {
		return err
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case pqUniqueViolation:
			return core.NewConstraintError(core.ErrDuplicate, pqErr.Constraint)
		case pqForeignKeyViolation:
			return core.NewConstraintError(core.ErrReference, pqErr.Constraint)
		}
	}
	return errors.Wrap(err, msg)
}

func orderBy(ordering []core.DBOrdering, fallback ...string) []string {
	if len(ordering) == 0 {
		return fallback
	}
	clauses := make([]string, 0, len(ordering)+len(fallback))
	for _, ord := range ordering {
		clauses = append(clauses, ord.String())
	}
	return append(clauses, fallback...)
}
