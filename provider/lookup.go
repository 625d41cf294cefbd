package provider

import (
	"context"
	"fmt"

	"github.com/syssam/rdbms"
	"github.com/syssam/rdbms/command"
)

// LookupResult is the outcome of loading one requested identity.
type LookupResult struct {
	ID        rdbms.ObjectID
	Container *rdbms.DataContainer // nil if not found
}

// Found reports if the object exists.
func (r LookupResult) Found() bool { return r.Container != nil }

// batch is the set of identities stored in one table.
type batch struct {
	table string
	ids   []rdbms.ObjectID
}

// partition groups ids by the table their class is stored in, keeping the
// order in which tables are first seen. Repeated identities are requested
// once.
func (p *Provider) partition(op string, ids []rdbms.ObjectID) ([]*batch, error) {
	var (
		batches []*batch
		byTable = make(map[string]*batch)
		seen    = make(map[rdbms.ObjectID]struct{}, len(ids))
	)
	for _, id := range ids {
		if id.ProviderID != p.id {
			return nil, &rdbms.ArgumentError{Op: op, Msg: fmt.Sprintf("%s belongs to provider %q", id, id.ProviderID), Err: rdbms.ErrForeignProvider}
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		class, ok := p.schema.Class(id.ClassID)
		if !ok {
			return nil, rdbms.NewArgumentError(op, "unknown class %q", id.ClassID)
		}
		if err := checkKey(op, class, id); err != nil {
			return nil, err
		}
		table, err := command.TableOf(op, class)
		if err != nil {
			return nil, err
		}
		b, ok := byTable[table]
		if !ok {
			b = &batch{table: table}
			byTable[table] = b
			batches = append(batches, b)
		}
		b.ids = append(b.ids, id)
	}
	return batches, nil
}

// LoadDataContainers loads the objects with the given identities. The
// result has one slot per requested identity, in request order; missing
// objects have a nil container. One statement is issued per table.
func (p *Provider) LoadDataContainers(ctx context.Context, ids []rdbms.ObjectID) ([]LookupResult, error) {
	batches, err := p.partition("load", ids)
	if err != nil {
		return nil, err
	}
	found := make(map[rdbms.ObjectID]*rdbms.DataContainer, len(ids))
	for _, b := range batches {
		var spec command.Spec
		if len(b.ids) == 1 {
			spec = &command.SelectByID{Entity: b.table, ID: b.ids[0]}
		} else {
			spec = &command.SelectByIDs{Entity: b.table, IDs: b.ids}
		}
		containers, err := p.loadContainers(ctx, "load", spec, b.table)
		if err != nil {
			return nil, err
		}
		for _, dc := range containers {
			if _, ok := found[dc.ID()]; ok {
				return nil, &rdbms.ConsistencyError{ID: dc.ID(), Err: rdbms.ErrDuplicateID}
			}
			found[dc.ID()] = dc
		}
	}
	results := make([]LookupResult, len(ids))
	for i, id := range ids {
		results[i] = LookupResult{ID: id, Container: found[id]}
	}
	return results, nil
}

// LoadDataContainer loads one object. A missing object is a
// *rdbms.NotFoundError.
func (p *Provider) LoadDataContainer(ctx context.Context, id rdbms.ObjectID) (*rdbms.DataContainer, error) {
	results, err := p.LoadDataContainers(ctx, []rdbms.ObjectID{id})
	if err != nil {
		return nil, err
	}
	if !results[0].Found() {
		return nil, rdbms.NewNotFoundError(id)
	}
	return results[0].Container, nil
}

// loadContainers builds spec, runs it and reads the containers.
func (p *Provider) loadContainers(ctx context.Context, op string, spec command.Spec, entity string) ([]*rdbms.DataContainer, error) {
	st, err := p.builder.Build(spec)
	if err != nil || st == nil {
		return nil, err
	}
	rows, err := p.query(ctx, op, st)
	if err != nil {
		return nil, err
	}
	return p.readContainers(rows, entity)
}
