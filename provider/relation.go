package provider

import (
	"context"

	"github.com/syssam/rdbms"
	"github.com/syssam/rdbms/command"
	"github.com/syssam/rdbms/mapping"
)

// LoadDataContainersByRelatedID loads the objects whose reference property
// prop points to relatedID, ordered by sort.
//
// Objects stored in a table are selected directly. Objects of a union view
// are found in two steps: the union select yields their identities, which
// are then loaded from the concrete tables. Both steps run on the same
// connection, so an identity of the first step missing in the second is a
// consistency error. Unmapped classes yield no objects.
func (p *Provider) LoadDataContainersByRelatedID(ctx context.Context, prop *mapping.PropertyDefinition, relatedID rdbms.ObjectID, sort mapping.SortExpression) ([]*rdbms.DataContainer, error) {
	const op = "load by relation"
	if prop == nil || prop.Class == nil || !prop.IsObjectID() {
		return nil, rdbms.NewArgumentError(op, "property is not an object reference")
	}
	if prop.Class.ProviderID != p.id {
		return nil, &rdbms.ArgumentError{Op: op, Msg: "class " + prop.Class.ID + " belongs to another provider", Err: rdbms.ErrForeignProvider}
	}
	// Filter views narrow the rows of their base entity.
	var classIDs []string
	return mapping.Dispatch(prop.Class.Entity, mapping.Handlers[[]*rdbms.DataContainer]{
		Table: func(t *mapping.TableDefinition, _ mapping.Continuation[[]*rdbms.DataContainer]) ([]*rdbms.DataContainer, error) {
			return p.loadContainers(ctx, op, &command.SelectByRelation{
				Entity:    t.Name,
				Property:  prop,
				RelatedID: relatedID,
				ClassIDs:  classIDs,
				Sort:      sort,
			}, t.Name)
		},
		FilterView: func(f *mapping.FilterViewDefinition, cont mapping.Continuation[[]*rdbms.DataContainer]) ([]*rdbms.DataContainer, error) {
			classIDs = f.ClassIDs
			return cont(f.Base)
		},
		UnionView: func(u *mapping.UnionViewDefinition, _ mapping.Continuation[[]*rdbms.DataContainer]) ([]*rdbms.DataContainer, error) {
			return p.loadThroughUnion(ctx, op, u, &command.UnionSelect{
				Tables:    u.Tables,
				Property:  prop,
				RelatedID: relatedID,
				ClassIDs:  classIDs,
				Sort:      sort,
			})
		},
		Null: func(*mapping.NullEntityDefinition, mapping.Continuation[[]*rdbms.DataContainer]) ([]*rdbms.DataContainer, error) {
			return nil, nil
		},
	})
}

func (p *Provider) loadThroughUnion(ctx context.Context, op string, u *mapping.UnionViewDefinition, spec *command.UnionSelect) ([]*rdbms.DataContainer, error) {
	st, err := p.builder.Build(spec)
	if err != nil || st == nil {
		return nil, err
	}
	rows, err := p.query(ctx, op, st)
	if err != nil {
		return nil, err
	}
	ids, err := p.readObjectIDs(rows, u.Name)
	if err != nil || len(ids) == 0 {
		return nil, err
	}
	results, err := p.LoadDataContainers(ctx, ids)
	if err != nil {
		return nil, err
	}
	containers := make([]*rdbms.DataContainer, len(results))
	for i, r := range results {
		if !r.Found() {
			return nil, &rdbms.ConsistencyError{ID: r.ID, Err: rdbms.ErrPhaseTwoMiss}
		}
		containers[i] = r.Container
	}
	return containers, nil
}
