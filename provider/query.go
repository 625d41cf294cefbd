package provider

import (
	"context"

	"github.com/syssam/rdbms"
	"github.com/syssam/rdbms/command"
	"github.com/syssam/rdbms/convert"
)

// LoadDataContainersByQuery runs a collection query and reads its rows as
// data containers.
func (p *Provider) LoadDataContainersByQuery(ctx context.Context, q *rdbms.Query) ([]*rdbms.DataContainer, error) {
	if q == nil || q.Type != rdbms.CollectionQuery {
		return nil, rdbms.NewArgumentError("query", "a collection query is required")
	}
	return p.loadContainers(ctx, "query", &command.Raw{Query: q}, q.ID)
}

// ExecuteScalarQuery runs a scalar query and returns the first column of
// its first row, or nil if there is none.
func (p *Provider) ExecuteScalarQuery(ctx context.Context, q *rdbms.Query) (any, error) {
	if q == nil || q.Type != rdbms.ScalarQuery {
		return nil, rdbms.NewArgumentError("scalar query", "a scalar query is required")
	}
	st, err := p.builder.Build(&command.Raw{Query: q})
	if err != nil {
		return nil, err
	}
	rows, err := p.query(ctx, "scalar query", st)
	if err != nil {
		return nil, err
	}
	var (
		v     any
		first = true
	)
	err = scan(rows, q.ID, func(rec *convert.Record) error {
		if first && len(rec.Columns()) > 0 {
			v = rec.Value(0)
		}
		first = false
		return nil
	})
	return v, err
}
