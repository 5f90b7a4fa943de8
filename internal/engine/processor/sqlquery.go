package processor

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/temporalio/sqlparser"

	engctx "github.com/blendle/automaat/internal/engine/context"
)

// SqlParameter is a single typed query parameter. Exactly one of Text, Int
// or Bool must be set.
type SqlParameter struct {
	Text *string `json:"text,omitempty"`
	Int  *int32  `json:"int,omitempty"`
	Bool *bool   `json:"bool,omitempty"`
}

func (t SqlParameter) value() (interface{}, error) {
	switch {
	case t.Text != nil:
		return *t.Text, nil
	case t.Int != nil:
		return *t.Int, nil
	case t.Bool != nil:
		return *t.Bool, nil
	default:
		return nil, fmt.Errorf("invalid parameter type provided")
	}
}

// SqlQuery runs a single SELECT statement against a Postgres database and
// returns the result set as a JSON array of row objects.
type SqlQuery struct {
	Statement  string         `json:"statement"`
	URL        string         `json:"url"`
	Parameters []SqlParameter `json:"parameters,omitempty"`
}

// Error kinds specific to SqlQuery.
const (
	KindParameterType = "ParameterType"
	KindReturnType    = "ReturnType"
	KindScheme        = "Scheme"
	KindStatementType = "StatementType"
)

func (p *SqlQuery) Name() string { return "SQL Query" }

// Validate checks that URL uses the postgres scheme and that Statement is a
// single, syntactically valid SELECT.
func (p *SqlQuery) Validate() error {
	return p.validate()
}

func (p *SqlQuery) validate() error {
	u, err := url.Parse(p.URL)
	if err != nil {
		return wrapError(KindURL, err, "url error: %s", err)
	}
	if u.Scheme != "postgres" && u.Scheme != "postgresql" {
		return newError(KindScheme, "unsupported url scheme: %s", u.Scheme)
	}

	stmt, err := sqlparser.Parse(p.Statement)
	if err != nil {
		return wrapError(KindSyntax, err, "syntax error: %s", err)
	}
	if _, ok := stmt.(*sqlparser.Select); !ok {
		return newError(KindStatementType, "non-SELECT statements are not supported")
	}
	return nil
}

// Run executes Statement with Parameters bound positionally as $1, $2, ....
// Rows are returned as a JSON array of objects keyed by column name; bool,
// int4, text, varchar, json and jsonb columns are supported. Run returns
// nil if no rows matched.
func (p *SqlQuery) Run(ctx context.Context, _ *engctx.Context) (*string, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}

	args := make([]interface{}, 0, len(p.Parameters))
	for _, param := range p.Parameters {
		v, err := param.value()
		if err != nil {
			return nil, newError(KindParameterType, "invalid parameter type provided")
		}
		args = append(args, v)
	}

	conn, err := pgx.Connect(ctx, p.URL)
	if err != nil {
		return nil, otherError(err)
	}
	defer conn.Close(ctx)

	rows, err := conn.Query(ctx, p.Statement, args...)
	if err != nil {
		return nil, otherError(err)
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	var results []map[string]interface{}

	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, otherError(err)
		}

		row := make(map[string]interface{}, len(fields))
		for i, fd := range fields {
			name := string(fd.Name)
			switch fd.DataTypeOID {
			case pgtype.BoolOID, pgtype.Int4OID, pgtype.JSONOID, pgtype.JSONBOID, pgtype.TextOID, pgtype.VarcharOID:
				row[name] = values[i]
			default:
				return nil, newError(KindReturnType, "unsupported return type for column %q", name)
			}
		}
		if len(row) > 0 {
			results = append(results, row)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, otherError(err)
	}

	if len(results) == 0 {
		return nil, nil
	}

	b, err := json.Marshal(results)
	if err != nil {
		return nil, otherError(err)
	}

	return textOrNil(string(b)), nil
}
