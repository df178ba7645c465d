package db

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Column is one provisioned column: name plus its Postgres type.
type Column struct {
	Name string
	Type string
}

// Table is a provisioned table with an ordered column list.
type Table struct {
	Name    string
	Columns []Column
}

// Tables describes every table the application provisions on startup.
// Provisioning is additive only: missing tables are created, missing
// columns are added, nothing is ever dropped or altered in place.
var Tables = []Table{
	{
		Name: "chat_ids",
		Columns: []Column{
			{"user_id", "bigint"},
			{"username", "text"},
			{"first_name", "text"},
			{"last_name", "text"},
			{"language", "text"},
			{"context_enabled", "boolean"},
			{"web_enabled", "boolean"},
			{"set_answer_temp", "double precision"},
			{"set_answer_top_p", "double precision"},
			{"model", "text"},
			{"tokens", "bigint"},
			{"requests", "bigint"},
			{"date_requests", "date"},
			{"role", "text"},
			{"in_limit_list", "text"},
			{"resolution", "text"},
			{"quality", "text"},
			{"last_prompt_message_id", "bigint"},
		},
	},
	{
		Name: "context",
		Columns: []Column{
			{"user_id", "bigint"},
			{"context", "jsonb"},
		},
	},
	{
		Name: "check_items",
		Columns: []Column{
			{"user_id", "bigint"},
			// Receipts print dates and times in arbitrary formats;
			// rows keep them as printed.
			{"date", "text"},
			{"time", "text"},
			{"store", "text"},
			{"check_id", "text"},
			{"category", "text"},
			{"product", "text"},
			{"quantity", "bigint"},
			{"price", "double precision"},
			{"total", "double precision"},
			{"currency", "text"},
		},
	},
}

// Pool is the subset of pgxpool.Pool the schema and stores rely on.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// ValidateIdentifier rejects table and column names containing anything
// but alphanumerics and underscores. Identifiers are interpolated into
// DDL, so they must never come from user input unchecked.
func ValidateIdentifier(name string) error {
	if name == "" {
		return fmt.Errorf("empty identifier")
	}
	for _, r := range name {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') && r != '_' {
			return fmt.Errorf("invalid identifier: %q", name)
		}
	}
	return nil
}

// CreateTableSQL builds the CREATE TABLE statement for a table.
func CreateTableSQL(t Table) (string, error) {
	if err := ValidateIdentifier(t.Name); err != nil {
		return "", err
	}
	defs := make([]string, 0, len(t.Columns))
	for _, c := range t.Columns {
		if err := ValidateIdentifier(c.Name); err != nil {
			return "", err
		}
		defs = append(defs, c.Name+" "+c.Type)
	}
	return fmt.Sprintf("CREATE TABLE %s (%s);", t.Name, strings.Join(defs, ", ")), nil
}

// AddColumnSQL builds the ALTER TABLE statement adding one column.
func AddColumnSQL(table string, c Column) (string, error) {
	if err := ValidateIdentifier(table); err != nil {
		return "", err
	}
	if err := ValidateIdentifier(c.Name); err != nil {
		return "", err
	}
	return fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s;", table, c.Name, c.Type), nil
}

// EnsureSchema checks every known table against information_schema and
// applies the additive provisioning described above.
func EnsureSchema(ctx context.Context, log *slog.Logger, pool Pool) error {
	if log == nil {
		log = slog.Default()
	}
	for _, table := range Tables {
		var exists bool
		err := pool.QueryRow(ctx,
			`SELECT EXISTS (
				SELECT FROM information_schema.tables
				WHERE table_schema = 'public' AND table_name = $1
			);`, table.Name).Scan(&exists)
		if err != nil {
			return fmt.Errorf("check table %s: %w", table.Name, err)
		}

		if !exists {
			stmt, err := CreateTableSQL(table)
			if err != nil {
				return err
			}
			if _, err := pool.Exec(ctx, stmt); err != nil {
				return fmt.Errorf("create table %s: %w", table.Name, err)
			}
			log.Info("table created", slog.String("table", table.Name))
			continue
		}

		rows, err := pool.Query(ctx,
			`SELECT column_name FROM information_schema.columns
			WHERE table_schema = 'public' AND table_name = $1;`, table.Name)
		if err != nil {
			return fmt.Errorf("list columns of %s: %w", table.Name, err)
		}
		existing := make(map[string]struct{})
		for rows.Next() {
			var name string
			if err := rows.Scan(&name); err != nil {
				rows.Close()
				return fmt.Errorf("scan column of %s: %w", table.Name, err)
			}
			existing[name] = struct{}{}
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return fmt.Errorf("read columns of %s: %w", table.Name, err)
		}

		for _, col := range table.Columns {
			if _, ok := existing[col.Name]; ok {
				continue
			}
			stmt, err := AddColumnSQL(table.Name, col)
			if err != nil {
				return err
			}
			if _, err := pool.Exec(ctx, stmt); err != nil {
				return fmt.Errorf("add column %s.%s: %w", table.Name, col.Name, err)
			}
			log.Info("column added",
				slog.String("table", table.Name),
				slog.String("column", col.Name))
		}
	}
	return nil
}
