package db

import (
	"fmt"
	"strings"
)

// Query builds parameterized SELECT statements from a base relation and a
// list of predicates. Predicates use ? placeholders which are numbered as
// $N in the order they are added, so callers never splice values into SQL.
type Query struct {
	from     string
	joins    []string
	cols     string
	distinct string
	where    []string
	args     []interface{}
	orderBy  string
}

// NewQuery creates a Query selecting cols from a table expression, which may
// include joins.
func NewQuery(from, cols string) *Query {
	return &Query{from: from, cols: cols}
}

// DistinctOn sets a DISTINCT ON expression for the data query.
func (q *Query) DistinctOn(expr string) *Query {
	q.distinct = expr
	return q
}

// Join appends a join clause to the table expression. Placeholders are
// numbered like Where's.
func (q *Query) Join(clause string, args ...interface{}) *Query {
	q.joins = append(q.joins, q.bind(clause, args))
	return q
}

// Where appends a predicate. Each ? in clause consumes one argument.
func (q *Query) Where(clause string, args ...interface{}) *Query {
	q.where = append(q.where, q.bind(clause, args))
	return q
}

func (q *Query) bind(clause string, args []interface{}) string {
	if n := strings.Count(clause, "?"); n != len(args) {
		panic(fmt.Sprintf("db.Query: clause %q has %d placeholders, got %d args", clause, n, len(args)))
	}
	var b strings.Builder
	i := 0
	for _, r := range clause {
		if r == '?' {
			q.args = append(q.args, args[i])
			i++
			fmt.Fprintf(&b, "$%d", len(q.args))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (q *Query) fromSQL() string {
	if len(q.joins) == 0 {
		return q.from
	}
	return q.from + " " + strings.Join(q.joins, " ")
}

// WhereIf appends the predicate only when cond holds.
func (q *Query) WhereIf(cond bool, clause string, args ...interface{}) *Query {
	if cond {
		q.Where(clause, args...)
	}
	return q
}

// OrderBy sets the ORDER BY clause (without the "ORDER BY" keyword).
func (q *Query) OrderBy(orderBy string) *Query {
	q.orderBy = orderBy
	return q
}

func (q *Query) whereSQL() string {
	if len(q.where) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(q.where, " AND ")
}

func (q *Query) selectSQL() string {
	var b strings.Builder
	b.WriteString("SELECT ")
	if q.distinct != "" {
		b.WriteString("DISTINCT ON (" + q.distinct + ") ")
	}
	b.WriteString(q.cols)
	b.WriteString(" FROM ")
	b.WriteString(q.fromSQL())
	b.WriteString(q.whereSQL())
	return b.String()
}

// SQL returns the unpaged data query.
func (q *Query) SQL() string {
	sql := q.selectSQL()
	if q.orderBy != "" {
		sql += " ORDER BY " + q.orderBy
	}
	return sql
}

// Args returns the predicate arguments.
func (q *Query) Args() []interface{} {
	return q.args
}

// CountSQL counts the rows the data query would return, ignoring paging.
func (q *Query) CountSQL() string {
	if q.distinct != "" {
		return "SELECT COUNT(*) FROM (" + q.selectSQL() + ") AS counted"
	}
	return "SELECT COUNT(*) FROM " + q.fromSQL() + q.whereSQL()
}

// DataSQL returns the data query with LIMIT/OFFSET. A limit of 0 disables paging.
func (q *Query) DataSQL(limit, offset int) string {
	sql := q.SQL()
	if limit <= 0 {
		return sql
	}
	return sql + fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(q.args)+1, len(q.args)+2)
}

// DataArgs returns the arguments matching DataSQL.
func (q *Query) DataArgs(limit, offset int) []interface{} {
	if limit <= 0 {
		return q.args
	}
	result := make([]interface{}, len(q.args)+2)
	copy(result, q.args)
	result[len(q.args)] = limit
	result[len(q.args)+1] = offset
	return result
}

// Wrap returns a new Query selecting cols from this query used as a
// subquery aliased as alias. Arguments carry over.
func (q *Query) Wrap(alias, cols string) *Query {
	outer := &Query{from: "(" + q.SQL() + ") AS " + alias, cols: cols}
	outer.args = append(outer.args, q.args...)
	return outer
}
