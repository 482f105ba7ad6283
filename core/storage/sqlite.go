package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/artpar/socketgate/core/schema"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStore implements Store with SQLite.
type SQLiteStore struct {
	db *sql.DB
	mu sync.RWMutex

	// collections maps collection names to their definitions
	collections map[string]schema.Collection
}

// NewSQLiteStore creates a new SQLite storage.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Set pragmas for performance
	pragmas := []string{
		"PRAGMA synchronous = NORMAL",
		"PRAGMA cache_size = -64000",
		"PRAGMA temp_store = MEMORY",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("set pragma: %w", err)
		}
	}

	// An in-memory database exists per connection; keep the pool at one.
	if strings.Contains(path, ":memory:") {
		db.SetMaxOpenConns(1)
	}

	return &SQLiteStore{
		db:          db,
		collections: make(map[string]schema.Collection),
	}, nil
}

// NewSQLiteStoreFromDB creates a SQLite storage from an existing connection.
func NewSQLiteStoreFromDB(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{
		db:          db,
		collections: make(map[string]schema.Collection),
	}
}

// CreateTable creates the table backing a collection.
func (s *SQLiteStore) CreateTable(ctx context.Context, col schema.Collection) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Store collection definition
	s.collections[col.Name] = col

	createSQL := buildCreateTableSQL(col)
	if _, err := s.db.ExecContext(ctx, createSQL); err != nil {
		return fmt.Errorf("create table %s: %w", col.Table(), err)
	}

	for _, indexSQL := range buildIndexSQL(col) {
		if _, err := s.db.ExecContext(ctx, indexSQL); err != nil {
			return fmt.Errorf("create index: %w", err)
		}
	}

	return nil
}

// Insert inserts a new record and returns its server-assigned ID.
func (s *SQLiteStore) Insert(ctx context.Context, collection string, data map[string]any) (string, error) {
	s.mu.RLock()
	col, ok := s.collections[collection]
	s.mu.RUnlock()

	if !ok {
		return "", fmt.Errorf("collection %q not registered", collection)
	}

	// Server-assigned ID; client-supplied ids are ignored
	id := uuid.New().String()

	columns := []string{"id"}
	placeholders := []string{"?"}
	values := []any{id}

	for _, name := range fieldNames(col) {
		field := col.Fields[name]

		val, exists := data[name]
		if !exists {
			if field.Default != nil {
				val = field.Default
			} else if field.IsRequired() {
				return "", fmt.Errorf("required field %q not provided", name)
			} else {
				continue
			}
		}

		columns = append(columns, name)
		placeholders = append(placeholders, "?")
		values = append(values, convertValue(val, field))
	}

	insertSQL := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s)",
		col.Table(),
		strings.Join(columns, ", "),
		strings.Join(placeholders, ", "),
	)

	if _, err := s.db.ExecContext(ctx, insertSQL, values...); err != nil {
		return "", fmt.Errorf("insert: %w", err)
	}

	return id, nil
}

// Get retrieves a record by ID. Returns (nil, nil) when not found.
func (s *SQLiteStore) Get(ctx context.Context, collection string, id string) (map[string]any, error) {
	s.mu.RLock()
	col, ok := s.collections[collection]
	s.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("collection %q not registered", collection)
	}

	columns := columnNames(col)

	query := fmt.Sprintf(
		"SELECT %s FROM %s WHERE id = ?",
		strings.Join(columns, ", "),
		col.Table(),
	)

	row := s.db.QueryRowContext(ctx, query, id)

	values := make([]any, len(columns))
	scanDest := make([]any, len(columns))
	for i := range values {
		scanDest[i] = &values[i]
	}

	if err := row.Scan(scanDest...); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	return buildRecord(col, columns, values), nil
}

// List retrieves records matching the options.
func (s *SQLiteStore) List(ctx context.Context, collection string, opts ListOptions) ([]map[string]any, error) {
	s.mu.RLock()
	col, ok := s.collections[collection]
	s.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("collection %q not registered", collection)
	}

	columns := columnNames(col)

	whereClause, args := buildWhere(opts.Filters)

	querySQL := fmt.Sprintf(
		"SELECT %s FROM %s%s",
		strings.Join(columns, ", "),
		col.Table(),
		whereClause,
	)

	// Validate orderBy against actual field names to prevent SQL injection
	orderBy := opts.OrderBy
	if orderBy == "" || !isColumn(col, orderBy) {
		orderBy = "created_at"
	}
	if opts.OrderDesc {
		querySQL += fmt.Sprintf(" ORDER BY %s DESC", orderBy)
	} else {
		querySQL += fmt.Sprintf(" ORDER BY %s ASC", orderBy)
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = 100
	}
	querySQL += fmt.Sprintf(" LIMIT %d OFFSET %d", limit, opts.Offset)

	rows, err := s.db.QueryContext(ctx, querySQL, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []map[string]any
	for rows.Next() {
		values := make([]any, len(columns))
		scanDest := make([]any, len(columns))
		for i := range values {
			scanDest[i] = &values[i]
		}

		if err := rows.Scan(scanDest...); err != nil {
			continue
		}

		results = append(results, buildRecord(col, columns, values))
	}

	return results, rows.Err()
}

// Count returns the number of records matching the filters.
func (s *SQLiteStore) Count(ctx context.Context, collection string, filters map[string]any) (int64, error) {
	s.mu.RLock()
	col, ok := s.collections[collection]
	s.mu.RUnlock()

	if !ok {
		return 0, fmt.Errorf("collection %q not registered", collection)
	}

	whereClause, args := buildWhere(filters)

	countSQL := fmt.Sprintf("SELECT COUNT(*) FROM %s%s", col.Table(), whereClause)
	var count int64
	if err := s.db.QueryRowContext(ctx, countSQL, args...).Scan(&count); err != nil {
		return 0, err
	}

	return count, nil
}

// Update modifies an existing record.
func (s *SQLiteStore) Update(ctx context.Context, collection string, id string, data map[string]any) error {
	s.mu.RLock()
	col, ok := s.collections[collection]
	s.mu.RUnlock()

	if !ok {
		return fmt.Errorf("collection %q not registered", collection)
	}

	var sets []string
	var values []any

	for _, name := range fieldNames(col) {
		val, exists := data[name]
		if !exists {
			continue
		}
		sets = append(sets, name+" = ?")
		values = append(values, convertValue(val, col.Fields[name]))
	}

	if len(sets) == 0 {
		return fmt.Errorf("no updatable fields provided")
	}

	sets = append(sets, "updated_at = CURRENT_TIMESTAMP")

	updateSQL := fmt.Sprintf(
		"UPDATE %s SET %s WHERE id = ?",
		col.Table(),
		strings.Join(sets, ", "),
	)
	values = append(values, id)

	result, err := s.db.ExecContext(ctx, updateSQL, values...)
	if err != nil {
		return fmt.Errorf("update: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}

	return nil
}

// Delete removes a record by ID.
func (s *SQLiteStore) Delete(ctx context.Context, collection string, id string) error {
	s.mu.RLock()
	col, ok := s.collections[collection]
	s.mu.RUnlock()

	if !ok {
		return fmt.Errorf("collection %q not registered", collection)
	}

	deleteSQL := fmt.Sprintf("DELETE FROM %s WHERE id = ?", col.Table())
	if _, err := s.db.ExecContext(ctx, deleteSQL, id); err != nil {
		return fmt.Errorf("delete: %w", err)
	}

	return nil
}

// DeleteWhere removes all records matching the filters.
func (s *SQLiteStore) DeleteWhere(ctx context.Context, collection string, filters map[string]any) (int64, error) {
	s.mu.RLock()
	col, ok := s.collections[collection]
	s.mu.RUnlock()

	if !ok {
		return 0, fmt.Errorf("collection %q not registered", collection)
	}

	whereClause, args := buildWhere(filters)

	deleteSQL := fmt.Sprintf("DELETE FROM %s%s", col.Table(), whereClause)
	result, err := s.db.ExecContext(ctx, deleteSQL, args...)
	if err != nil {
		return 0, fmt.Errorf("delete: %w", err)
	}

	return result.RowsAffected()
}

// Close closes the storage connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// buildCreateTableSQL builds the CREATE TABLE statement for a collection.
func buildCreateTableSQL(col schema.Collection) string {
	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE IF NOT EXISTS %s (\n", col.Table())
	b.WriteString("  id TEXT PRIMARY KEY,\n")

	for _, name := range fieldNames(col) {
		field := col.Fields[name]
		fmt.Fprintf(&b, "  %s %s", name, field.SQLType())
		if field.Unique {
			b.WriteString(" UNIQUE")
		}
		b.WriteString(",\n")
	}

	b.WriteString("  created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,\n")
	b.WriteString("  updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP\n")
	b.WriteString(")")
	return b.String()
}

// buildIndexSQL builds CREATE INDEX statements for indexed fields.
func buildIndexSQL(col schema.Collection) []string {
	var stmts []string
	for _, name := range fieldNames(col) {
		if col.Fields[name].Index {
			stmts = append(stmts, fmt.Sprintf(
				"CREATE INDEX IF NOT EXISTS idx_%s_%s ON %s (%s)",
				col.Table(), name, col.Table(), name,
			))
		}
	}
	return stmts
}

// buildWhere builds a WHERE clause from equality filters.
// Slice values become IN clauses.
func buildWhere(filters map[string]any) (string, []any) {
	if len(filters) == 0 {
		return "", nil
	}

	keys := make([]string, 0, len(filters))
	for k := range filters {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var conditions []string
	var args []any
	for _, k := range keys {
		switch v := filters[k].(type) {
		case []any:
			if len(v) == 0 {
				conditions = append(conditions, "1 = 0")
				continue
			}
			placeholders := make([]string, len(v))
			for i, item := range v {
				placeholders[i] = "?"
				args = append(args, item)
			}
			conditions = append(conditions, fmt.Sprintf("%s IN (%s)", k, strings.Join(placeholders, ", ")))
		default:
			conditions = append(conditions, k+" = ?")
			args = append(args, v)
		}
	}

	return " WHERE " + strings.Join(conditions, " AND "), args
}

// fieldNames returns the collection's field names in stable order.
func fieldNames(col schema.Collection) []string {
	names := make([]string, 0, len(col.Fields))
	for name := range col.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// columnNames returns all column names including implicit columns.
func columnNames(col schema.Collection) []string {
	columns := []string{"id"}
	columns = append(columns, fieldNames(col)...)
	return append(columns, "created_at", "updated_at")
}

// isColumn reports whether name is a column of the collection.
func isColumn(col schema.Collection, name string) bool {
	if name == "id" || name == "created_at" || name == "updated_at" {
		return true
	}
	_, ok := col.Fields[name]
	return ok
}

// buildRecord maps scanned values into a record, converting DB
// representations back to field types.
func buildRecord(col schema.Collection, columns []string, values []any) map[string]any {
	record := make(map[string]any, len(columns))
	for i, name := range columns {
		field, ok := col.Fields[name]
		if !ok {
			record[name] = fromDB(values[i], schema.Field{Type: schema.FieldTypeString})
			continue
		}
		if field.Internal {
			continue
		}
		record[name] = fromDB(values[i], field)
	}
	return record
}

// convertValue converts a field value to its DB representation.
func convertValue(val any, field schema.Field) any {
	if val == nil {
		return nil
	}

	switch field.Type {
	case schema.FieldTypeBool:
		if b, ok := val.(bool); ok {
			if b {
				return 1
			}
			return 0
		}
	case schema.FieldTypeJSON:
		encoded, err := json.Marshal(val)
		if err != nil {
			return "null"
		}
		return string(encoded)
	}

	return val
}

// fromDB converts a DB value back to its field type.
func fromDB(val any, field schema.Field) any {
	if val == nil {
		return nil
	}

	switch field.Type {
	case schema.FieldTypeBool:
		if n, ok := val.(int64); ok {
			return n != 0
		}
	case schema.FieldTypeJSON:
		var decoded any
		switch s := val.(type) {
		case string:
			if err := json.Unmarshal([]byte(s), &decoded); err == nil {
				return decoded
			}
		case []byte:
			if err := json.Unmarshal(s, &decoded); err == nil {
				return decoded
			}
		}
	case schema.FieldTypeString, schema.FieldTypeText:
		if b, ok := val.([]byte); ok {
			return string(b)
		}
	}

	if b, ok := val.([]byte); ok {
		return string(b)
	}

	return val
}
