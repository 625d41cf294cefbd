package provider

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"

	"github.com/google/uuid"

	"github.com/syssam/rdbms"
	"github.com/syssam/rdbms/command"
	"github.com/syssam/rdbms/convert"
	"github.com/syssam/rdbms/dialect"
	dsql "github.com/syssam/rdbms/dialect/sql"
	"github.com/syssam/rdbms/mapping"
)

// Provider is a transactional session against one relational storage
// provider. It owns at most one connection and one transaction.
//
// A Provider is not safe for concurrent use.
type Provider struct {
	id        string
	schema    *mapping.Schema
	connector dialect.Connector
	dialect   dialect.Dialect
	conv      *convert.ValueConverter
	builder   *command.Builder
	log       *slog.Logger
	isolation sql.IsolationLevel
	cache     *convert.ColumnCache
	newToken  func() any
	pool      io.Closer // closed with the provider when opened through Open
	stats     *dsql.StatsDriver

	conn dialect.Driver
	tx   dialect.Tx
}

// Option configures a Provider.
type Option func(*Provider)

// WithIsolation sets the isolation level of transactions. The default is
// sql.LevelSerializable.
func WithIsolation(level sql.IsolationLevel) Option {
	return func(p *Provider) {
		p.isolation = level
	}
}

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Provider) {
		if logger != nil {
			p.log = logger
		}
	}
}

// WithColumnCache shares a companion column cache between providers.
func WithColumnCache(cache *convert.ColumnCache) Option {
	return func(p *Provider) {
		p.cache = cache
	}
}

// WithTokenGenerator sets the generator of concurrency tokens written by
// dialects that do not maintain row versions.
func WithTokenGenerator(gen func() any) Option {
	return func(p *Provider) {
		p.newToken = gen
	}
}

// New returns a disconnected provider for the storage provider id of schema.
// Connections are taken from connector.
func New(id string, schema *mapping.Schema, connector dialect.Connector, opts ...Option) (*Provider, error) {
	if _, ok := schema.Provider(id); !ok {
		return nil, rdbms.NewArgumentError("new provider", "unknown storage provider %q", id)
	}
	d, err := dialect.Get(connector.Dialect())
	if err != nil {
		return nil, &rdbms.ArgumentError{Op: "new provider", Err: err}
	}
	p := &Provider{
		id:        id,
		schema:    schema,
		connector: connector,
		dialect:   d,
		log:       slog.Default(),
		isolation: sql.LevelSerializable,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.cache == nil {
		p.cache = convert.NewColumnCache()
	}
	p.conv = convert.NewValueConverter(id, schema, p.cache)
	p.builder = command.NewBuilder(d, p.conv)
	p.builder.NewToken = p.newToken
	p.log = p.log.With("provider", id)
	return p, nil
}

// ID returns the storage provider ID.
func (p *Provider) ID() string { return p.id }

// Dialect returns the SQL dialect.
func (p *Provider) Dialect() dialect.Dialect { return p.dialect }

// Converter returns the value converter.
func (p *Provider) Converter() *convert.ValueConverter { return p.conv }

// ColumnCache returns the companion column cache.
func (p *Provider) ColumnCache() *convert.ColumnCache { return p.cache }

// IsConnected reports if the provider holds a connection.
func (p *Provider) IsConnected() bool { return p.conn != nil }

// InTransaction reports if a transaction is active.
func (p *Provider) InTransaction() bool { return p.tx != nil }

// Connect takes a dedicated connection. It is a no-op when connected.
func (p *Provider) Connect(ctx context.Context) error {
	if p.conn != nil {
		return nil
	}
	conn, err := p.connector.Connect(ctx)
	if err != nil {
		return rdbms.NewExecutionError("connect", "", err)
	}
	p.conn = conn
	p.log.DebugContext(ctx, "connected")
	return nil
}

// Disconnect rolls back an active transaction and releases the connection.
// It is a no-op when not connected.
func (p *Provider) Disconnect(ctx context.Context) error {
	if p.conn == nil {
		return nil
	}
	var errs []error
	if p.tx != nil {
		if err := p.tx.Rollback(); err != nil {
			errs = append(errs, &rdbms.RollbackError{Err: err})
		}
		p.tx = nil
	}
	if err := p.conn.Close(); err != nil {
		errs = append(errs, rdbms.NewExecutionError("disconnect", "", err))
	}
	p.conn = nil
	p.log.DebugContext(ctx, "disconnected")
	return rdbms.NewAggregateError(errs...)
}

// Close disconnects and closes the connection pool if the provider was
// created by Open.
func (p *Provider) Close() error {
	err := p.Disconnect(context.Background())
	if p.pool != nil {
		if cerr := p.pool.Close(); cerr != nil {
			err = errors.Join(err, rdbms.NewExecutionError("close", "", cerr))
		}
		p.pool = nil
	}
	return err
}

// BeginTransaction starts a transaction with the configured isolation level.
func (p *Provider) BeginTransaction(ctx context.Context) error {
	if p.conn == nil {
		return &rdbms.ArgumentError{Op: "begin transaction", Err: rdbms.ErrNotConnected}
	}
	if p.tx != nil {
		return &rdbms.ArgumentError{Op: "begin transaction", Err: rdbms.ErrTxStarted}
	}
	tx, err := dsql.BeginTx(ctx, p.conn, &dsql.TxOptions{Isolation: p.isolation})
	if err != nil {
		return rdbms.NewExecutionError("begin transaction", "", err)
	}
	p.tx = tx
	p.log.DebugContext(ctx, "transaction started", "isolation", p.isolation)
	return nil
}

// Commit commits the active transaction. The transaction is gone afterwards,
// whether the commit succeeded or not.
func (p *Provider) Commit(ctx context.Context) error {
	if p.tx == nil {
		return &rdbms.ArgumentError{Op: "commit", Err: rdbms.ErrNoTransaction}
	}
	err := p.tx.Commit()
	p.tx = nil
	if err != nil {
		return rdbms.NewExecutionError("commit", "", err)
	}
	p.log.DebugContext(ctx, "transaction committed")
	return nil
}

// Rollback rolls back the active transaction. The transaction is gone
// afterwards, whether the rollback succeeded or not.
func (p *Provider) Rollback(ctx context.Context) error {
	if p.tx == nil {
		return &rdbms.ArgumentError{Op: "rollback", Err: rdbms.ErrNoTransaction}
	}
	err := p.tx.Rollback()
	p.tx = nil
	if err != nil {
		return rdbms.NewExecutionError("rollback", "", &rdbms.RollbackError{Err: err})
	}
	p.log.DebugContext(ctx, "transaction rolled back")
	return nil
}

// CreateNewObjectID returns a fresh identity for an object of class.
// Only classes with UUID keys get generated identities; int64 and string
// keys are assigned by the application.
func (p *Provider) CreateNewObjectID(class *mapping.ClassDefinition) (rdbms.ObjectID, error) {
	if class.ProviderID != p.id {
		return rdbms.ObjectID{}, &rdbms.ArgumentError{Op: "create object id", Msg: "class " + class.ID + " belongs to another provider", Err: rdbms.ErrForeignProvider}
	}
	if class.Abstract {
		return rdbms.ObjectID{}, rdbms.NewArgumentError("create object id", "class %q is abstract", class.ID)
	}
	if kind := class.KeyKind(); kind != mapping.KeyUUID {
		return rdbms.ObjectID{}, rdbms.NewArgumentError("create object id", "class %q has %s keys", class.ID, kind)
	}
	return rdbms.NewObjectID(p.id, class.ID, uuid.New())
}

// checkKey fails if the value of id is not of the key kind of class. Such
// an identity could be written but would read back as a different one.
func checkKey(op string, class *mapping.ClassDefinition, id rdbms.ObjectID) error {
	if kind := class.KeyKind(); !kind.Accepts(id.Value) {
		return rdbms.NewArgumentError(op, "%s does not hold a %s key", id, kind)
	}
	return nil
}

// execQuerier returns the active transaction or the connection.
func (p *Provider) execQuerier(op string) (dialect.ExecQuerier, error) {
	switch {
	case p.tx != nil:
		return p.tx, nil
	case p.conn != nil:
		return p.conn, nil
	default:
		return nil, &rdbms.ArgumentError{Op: op, Err: rdbms.ErrNotConnected}
	}
}

func (p *Provider) query(ctx context.Context, op string, st *command.Statement) (*dsql.Rows, error) {
	eq, err := p.execQuerier(op)
	if err != nil {
		return nil, err
	}
	p.log.DebugContext(ctx, "executing query", "intent", st.Intent, "sql", st.Query)
	rows := &dsql.Rows{}
	if err := eq.Query(ctx, st.Query, st.Args, rows); err != nil {
		return nil, p.wrap(op, st, nil, err)
	}
	return rows, nil
}

// exec runs st and returns the number of affected rows.
func (p *Provider) exec(ctx context.Context, op string, st *command.Statement, id *rdbms.ObjectID) (int64, error) {
	eq, err := p.execQuerier(op)
	if err != nil {
		return 0, err
	}
	p.log.DebugContext(ctx, "executing statement", "intent", st.Intent, "sql", st.Query)
	var res dsql.Result
	if err := eq.Exec(ctx, st.Query, st.Args, &res); err != nil {
		return 0, p.wrap(op, st, id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, p.wrap(op, st, id, err)
	}
	return n, nil
}

// wrap turns a driver error into an ExecutionError. Constraint violations
// are typed as rdbms.ConstraintError inside it.
func (p *Provider) wrap(op string, st *command.Statement, id *rdbms.ObjectID, err error) error {
	if dsql.IsConstraintError(err) {
		err = rdbms.NewConstraintError(err.Error(), err)
	}
	e := &rdbms.ExecutionError{Op: op, ID: id, Err: err}
	if st != nil {
		e.Intent = st.Intent
	}
	return e
}
