package provider

import (
	"errors"
	"fmt"

	"github.com/syssam/rdbms"
	"github.com/syssam/rdbms/convert"
	dsql "github.com/syssam/rdbms/dialect/sql"
	"github.com/syssam/rdbms/mapping"
)

// scan calls fn for every row of rows and closes them. Driver failures,
// including the ones reported by Close, are returned as execution errors,
// errors of fn unchanged.
func scan(rows *dsql.Rows, entity string, fn func(*convert.Record) error) (err error) {
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			err = errors.Join(err, rdbms.NewExecutionError("close result", entity, cerr))
		}
	}()
	columns, err := rows.Columns()
	if err != nil {
		return rdbms.NewExecutionError("read result", entity, err)
	}
	rec := convert.NewRecord(entity, columns, nil)
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return rdbms.NewExecutionError("read result", entity, err)
		}
		rec.Reset(values)
		if err := fn(rec); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return rdbms.NewExecutionError("read result", entity, err)
	}
	return nil
}

// identity reads the ID and ClassID columns of a row.
func (p *Provider) identity(row convert.Row) (rdbms.ObjectID, *mapping.ClassDefinition, error) {
	idOrd, err := convert.MandatoryOrdinal(row, mapping.IDColumn)
	if err != nil {
		return rdbms.ObjectID{}, nil, err
	}
	classOrd, err := convert.MandatoryOrdinal(row, mapping.ClassIDColumn)
	if err != nil {
		return rdbms.ObjectID{}, nil, err
	}
	raw := row.Value(idOrd)
	if raw == nil {
		return rdbms.ObjectID{}, nil, &rdbms.SchemaError{Entity: row.Entity(), Column: mapping.IDColumn, Msg: "identity is null"}
	}
	class, err := p.conv.ResolveClass(row.Entity(), mapping.ClassIDColumn, row.Value(classOrd))
	if err != nil {
		return rdbms.ObjectID{}, nil, err
	}
	if class.ProviderID != p.id {
		return rdbms.ObjectID{}, nil, &rdbms.SchemaError{Entity: row.Entity(), Column: mapping.ClassIDColumn,
			Msg: fmt.Sprintf("class %q belongs to provider %q", class.ID, class.ProviderID)}
	}
	id, err := p.conv.ResolveIdentity(class, raw)
	if err != nil {
		return rdbms.ObjectID{}, nil, &rdbms.SchemaError{Entity: row.Entity(), Column: mapping.IDColumn, Msg: err.Error()}
	}
	return id, class, nil
}

// container reads one data container from a row.
func (p *Provider) container(row convert.Row) (*rdbms.DataContainer, error) {
	id, class, err := p.identity(row)
	if err != nil {
		return nil, err
	}
	tsOrd, err := convert.MandatoryOrdinal(row, mapping.TimestampColumn)
	if err != nil {
		return nil, err
	}
	values := make(map[string]any)
	for _, prop := range class.PersistentProperties() {
		if prop.IsObjectID() {
			ref, ok, err := p.conv.RelatedID(row, class, prop)
			if err != nil {
				return nil, err
			}
			if ok {
				values[prop.Name] = ref
			}
			continue
		}
		ord, ok := row.Ordinal(prop.Column)
		if !ok {
			if prop.Mandatory {
				return nil, rdbms.NewMissingColumnError(row.Entity(), prop.Column)
			}
			continue
		}
		v, err := p.conv.FromStorage(prop, row.Value(ord))
		if err != nil {
			return nil, &rdbms.SchemaError{Entity: row.Entity(), Column: prop.Column, Msg: err.Error()}
		}
		values[prop.Name] = v
	}
	return rdbms.LoadedDataContainer(id, class, row.Value(tsOrd), values), nil
}

// readContainers reads data containers. An identity occurring twice is a
// consistency error.
func (p *Provider) readContainers(rows *dsql.Rows, entity string) ([]*rdbms.DataContainer, error) {
	var (
		containers []*rdbms.DataContainer
		seen       = make(map[rdbms.ObjectID]struct{})
	)
	err := scan(rows, entity, func(rec *convert.Record) error {
		dc, err := p.container(rec)
		if err != nil {
			return err
		}
		if _, ok := seen[dc.ID()]; ok {
			return &rdbms.ConsistencyError{ID: dc.ID(), Err: rdbms.ErrDuplicateID}
		}
		seen[dc.ID()] = struct{}{}
		containers = append(containers, dc)
		return nil
	})
	return containers, err
}

// readObjectIDs reads the identities of a union select in result order.
func (p *Provider) readObjectIDs(rows *dsql.Rows, entity string) ([]rdbms.ObjectID, error) {
	var (
		ids  []rdbms.ObjectID
		seen = make(map[rdbms.ObjectID]struct{})
	)
	err := scan(rows, entity, func(rec *convert.Record) error {
		id, _, err := p.identity(rec)
		if err != nil {
			return err
		}
		if _, ok := seen[id]; ok {
			return &rdbms.ConsistencyError{ID: id, Err: rdbms.ErrDuplicateID}
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
		return nil
	})
	return ids, err
}

// readTimestamps reads the concurrency tokens of a result by identity.
func (p *Provider) readTimestamps(rows *dsql.Rows, entity string) (map[rdbms.ObjectID]any, error) {
	tokens := make(map[rdbms.ObjectID]any)
	err := scan(rows, entity, func(rec *convert.Record) error {
		id, _, err := p.identity(rec)
		if err != nil {
			return err
		}
		ord, err := convert.MandatoryOrdinal(rec, mapping.TimestampColumn)
		if err != nil {
			return err
		}
		tokens[id] = rec.Value(ord)
		return nil
	})
	return tokens, err
}
