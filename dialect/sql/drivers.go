package sql

// Database drivers for the dialects Open understands. Each registers itself
// with database/sql under the dialect name.
import (
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)
