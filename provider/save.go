package provider

import (
	"context"

	"github.com/syssam/rdbms"
	"github.com/syssam/rdbms/command"
	"github.com/syssam/rdbms/mapping"
)

// Save writes the New, Changed and Deleted containers in the active
// transaction: first all inserts, then the updates, then the deletes.
// Unchanged and Discarded containers are skipped.
//
// Updates and deletes that do not affect exactly one row fail with a
// *rdbms.ConcurrencyError. Save does not roll back on failure; the caller
// decides what happens to the transaction. Tokens written by the
// statements are stored in the containers. Their states are left alone,
// call Commit on them once the transaction is committed.
func (p *Provider) Save(ctx context.Context, containers []*rdbms.DataContainer) error {
	if p.tx == nil {
		return &rdbms.ArgumentError{Op: "save", Err: rdbms.ErrNoTransaction}
	}
	var inserts, updates, deletes []*rdbms.DataContainer
	for _, dc := range containers {
		if err := p.checkKeys(dc); err != nil {
			return err
		}
		switch dc.State() {
		case rdbms.StateNew:
			inserts = append(inserts, dc)
			updates = append(updates, dc)
		case rdbms.StateChanged:
			updates = append(updates, dc)
		case rdbms.StateDeleted:
			updates = append(updates, dc)
			deletes = append(deletes, dc)
		}
	}
	for _, dc := range inserts {
		if err := p.write(ctx, "insert", &command.Insert{Container: dc}, dc, false); err != nil {
			return err
		}
	}
	for _, dc := range updates {
		if err := p.write(ctx, "update", &command.Update{Container: dc}, dc, true); err != nil {
			return err
		}
	}
	for _, dc := range deletes {
		if err := p.write(ctx, "delete", &command.Delete{Container: dc}, dc, true); err != nil {
			return err
		}
	}
	return nil
}

// checkKeys validates the identity of dc and the identities of this
// provider it references.
func (p *Provider) checkKeys(dc *rdbms.DataContainer) error {
	switch dc.State() {
	case rdbms.StateUnchanged, rdbms.StateDiscarded:
		return nil
	}
	if err := checkKey("save", dc.Class(), dc.ID()); err != nil {
		return err
	}
	for _, v := range dc.PropertyValues() {
		ref, ok := v.Value().(rdbms.ObjectID)
		if !ok || !v.IsPersistent() || ref.ProviderID != p.id {
			continue
		}
		class, ok := p.schema.Class(ref.ClassID)
		if !ok {
			return rdbms.NewArgumentError("save", "property %q references unknown class %q", v.Name(), ref.ClassID)
		}
		if err := checkKey("save", class, ref); err != nil {
			return err
		}
	}
	return nil
}

// write runs the statement built for dc. With checkRows set, a row count
// other than one means the row changed or vanished since it was read.
func (p *Provider) write(ctx context.Context, op string, spec command.Spec, dc *rdbms.DataContainer, checkRows bool) error {
	st, err := p.builder.Build(spec)
	if err != nil || st == nil {
		return err
	}
	id := dc.ID()
	n, err := p.exec(ctx, op, st, &id)
	if err != nil {
		return err
	}
	if checkRows && n != 1 {
		p.log.WarnContext(ctx, "concurrency violation", "op", op, "id", id.String(), "rows", n)
		return &rdbms.ConcurrencyError{ID: id}
	}
	if st.Token != nil {
		dc.SetToken(st.Token)
	}
	return nil
}

// UpdateTimestamps reloads the concurrency tokens of the New and Changed
// containers, typically after a save against a database that maintains row
// versions itself. A container whose row is gone yields a
// *rdbms.ConcurrencyError.
func (p *Provider) UpdateTimestamps(ctx context.Context, containers []*rdbms.DataContainer) error {
	const op = "update timestamps"
	var (
		ids  []rdbms.ObjectID
		byID = make(map[rdbms.ObjectID]*rdbms.DataContainer)
	)
	for _, dc := range containers {
		if s := dc.State(); s != rdbms.StateNew && s != rdbms.StateChanged {
			continue
		}
		ids = append(ids, dc.ID())
		byID[dc.ID()] = dc
	}
	batches, err := p.partition(op, ids)
	if err != nil {
		return err
	}
	for _, b := range batches {
		st, err := p.builder.Build(&command.SelectByIDs{
			Entity:  b.table,
			Columns: []string{mapping.IDColumn, mapping.ClassIDColumn, mapping.TimestampColumn},
			IDs:     b.ids,
		})
		if err != nil {
			return err
		}
		rows, err := p.query(ctx, op, st)
		if err != nil {
			return err
		}
		tokens, err := p.readTimestamps(rows, b.table)
		if err != nil {
			return err
		}
		for _, id := range b.ids {
			token, ok := tokens[id]
			if !ok {
				return &rdbms.ConcurrencyError{ID: id}
			}
			byID[id].SetToken(token)
		}
	}
	return nil
}
