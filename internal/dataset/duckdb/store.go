package duckdb

import (
	"context"
	"database/sql"
	"fmt"
	"math/big"
	"regexp"
	"strings"
	"time"

	_ "github.com/marcboeker/go-duckdb/v2"

	"github.com/datachat/datachat/internal/dataset"
	"github.com/datachat/datachat/internal/query"
)

var tableNamePattern = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

type Config struct {
	Path         string
	Table        string
	SampleRows   int
	QueryTimeout time.Duration
}

// Store owns the embedded in-memory database holding the single loaded
// dataset table. It is created once at startup and serves every session;
// the table is never mutated after load.
type Store struct {
	db           *sql.DB
	schema       dataset.Schema
	samples      [][]any
	queryTimeout time.Duration
}

func Open(ctx context.Context, cfg Config) (*Store, error) {
	table := strings.TrimSpace(cfg.Table)
	if !tableNamePattern.MatchString(table) {
		return nil, fmt.Errorf("invalid dataset table name %q", cfg.Table)
	}

	format, err := dataset.FormatFromPath(cfg.Path)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping duckdb: %w", err)
	}

	store := &Store{db: db, queryTimeout: cfg.QueryTimeout}
	if err := store.load(ctx, cfg.Path, format, table); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := store.introspect(ctx, table); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := store.sample(ctx, table, cfg.SampleRows); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

// load stages the source file untouched, then rebuilds it as the serving
// table with sanitized column names and spreadsheet index columns dropped.
func (s *Store) load(ctx context.Context, path string, format dataset.Format, table string) error {
	staging := table + "_src"

	var readExpr string
	switch format {
	case dataset.FormatCSV:
		readExpr = fmt.Sprintf("read_csv_auto(%s, header=true)", quoteString(path))
	case dataset.FormatParquet:
		readExpr = fmt.Sprintf("read_parquet(%s)", quoteString(path))
	default:
		return fmt.Errorf("unsupported dataset format %q", format)
	}

	stageSQL := fmt.Sprintf("CREATE TABLE %s AS SELECT * FROM %s", quoteIdent(staging), readExpr)
	if _, err := s.db.ExecContext(ctx, stageSQL); err != nil {
		return fmt.Errorf("load dataset from %q: %w", path, err)
	}

	rawColumns, err := s.columnNames(ctx, staging)
	if err != nil {
		return err
	}

	kept := make([]string, 0, len(rawColumns))
	for _, raw := range rawColumns {
		if dataset.DropColumn(raw) {
			continue
		}
		kept = append(kept, raw)
	}
	if len(kept) == 0 {
		return fmt.Errorf("dataset %q has no usable columns", path)
	}

	sanitized := dataset.SanitizeColumns(kept)
	projections := make([]string, 0, len(kept))
	for i, raw := range kept {
		projections = append(projections, fmt.Sprintf("%s AS %s", quoteIdent(raw), quoteIdent(sanitized[i])))
	}

	rebuildSQL := fmt.Sprintf("CREATE TABLE %s AS SELECT %s FROM %s",
		quoteIdent(table), strings.Join(projections, ", "), quoteIdent(staging))
	if _, err := s.db.ExecContext(ctx, rebuildSQL); err != nil {
		return fmt.Errorf("rebuild dataset table %q: %w", table, err)
	}
	if _, err := s.db.ExecContext(ctx, fmt.Sprintf("DROP TABLE %s", quoteIdent(staging))); err != nil {
		return fmt.Errorf("drop staging table: %w", err)
	}

	return nil
}

func (s *Store) columnNames(ctx context.Context, table string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT column_name FROM information_schema.columns WHERE table_name = ? ORDER BY ordinal_position`,
		table)
	if err != nil {
		return nil, fmt.Errorf("list dataset columns: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	names := make([]string, 0)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan column name: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate column names: %w", err)
	}
	return names, nil
}

func (s *Store) introspect(ctx context.Context, table string) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT column_name, data_type FROM information_schema.columns WHERE table_name = ? ORDER BY ordinal_position`,
		table)
	if err != nil {
		return fmt.Errorf("introspect dataset table: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	columns := make([]dataset.Column, 0)
	for rows.Next() {
		var name, rawType string
		if err := rows.Scan(&name, &rawType); err != nil {
			return fmt.Errorf("scan column metadata: %w", err)
		}
		columns = append(columns, dataset.Column{Name: name, Type: dataset.TypeFromDuckDB(rawType)})
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate column metadata: %w", err)
	}
	if len(columns) == 0 {
		return fmt.Errorf("dataset table %q has no columns", table)
	}

	var rowCount int64
	countSQL := fmt.Sprintf("SELECT COUNT(*) FROM %s", quoteIdent(table))
	if err := s.db.QueryRowContext(ctx, countSQL).Scan(&rowCount); err != nil {
		return fmt.Errorf("count dataset rows: %w", err)
	}

	s.schema = dataset.Schema{Table: table, Columns: columns, RowCount: rowCount}
	return nil
}

func (s *Store) sample(ctx context.Context, table string, limit int) error {
	if limit <= 0 {
		s.samples = [][]any{}
		return nil
	}

	sampleSQL := fmt.Sprintf("SELECT * FROM %s LIMIT %d", quoteIdent(table), limit)
	rows, err := s.db.QueryContext(ctx, sampleSQL)
	if err != nil {
		return fmt.Errorf("sample dataset rows: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	_, sampled, err := collectRows(rows)
	if err != nil {
		return fmt.Errorf("collect sample rows: %w", err)
	}
	s.samples = sampled
	return nil
}

func (s *Store) Schema() dataset.Schema {
	return s.schema
}

func (s *Store) Samples() [][]any {
	return s.samples
}

func (s *Store) Ready(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("dataset store not ready: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Execute(ctx context.Context, request query.Request) (query.Result, error) {
	sqlText := stripTrailingSemicolons(request.SQL)
	if sqlText == "" {
		return query.Result{}, fmt.Errorf("sql is required")
	}
	if request.RowLimit > 0 {
		sqlText = fmt.Sprintf("SELECT * FROM (%s) AS q LIMIT %d", sqlText, request.RowLimit)
	}

	execCtx := ctx
	if s.queryTimeout > 0 {
		var cancel context.CancelFunc
		execCtx, cancel = context.WithTimeout(ctx, s.queryTimeout)
		defer cancel()
	}

	start := time.Now()
	rows, err := s.db.QueryContext(execCtx, sqlText)
	if err != nil {
		return query.Result{}, s.classifyExecError(execCtx, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	columns, resultRows, err := collectRows(rows)
	if err != nil {
		return query.Result{}, s.classifyExecError(execCtx, err)
	}

	return query.Result{
		Columns:  columns,
		Rows:     resultRows,
		Duration: time.Since(start),
	}, nil
}

func (s *Store) classifyExecError(ctx context.Context, err error) error {
	if ctx.Err() == context.DeadlineExceeded {
		return fmt.Errorf("query timed out after %s: %w", s.queryTimeout, context.DeadlineExceeded)
	}
	return fmt.Errorf("execute query: %w", err)
}

func collectRows(rows *sql.Rows) ([]string, [][]any, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, nil, fmt.Errorf("query columns: %w", err)
	}

	resultRows := make([][]any, 0)
	for rows.Next() {
		values := make([]any, len(columns))
		scanTargets := make([]any, len(columns))
		for i := range values {
			scanTargets[i] = &values[i]
		}
		if err := rows.Scan(scanTargets...); err != nil {
			return nil, nil, fmt.Errorf("scan row: %w", err)
		}
		resultRows = append(resultRows, normalizeValues(values))
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterate rows: %w", err)
	}

	return columns, resultRows, nil
}

// normalizeValues folds driver-specific scan types into plain Go values so
// rows marshal cleanly and downstream numeric checks see real numbers.
// Aggregates over BIGINT come back as HUGEINT, decimals as a driver struct.
func normalizeValues(values []any) []any {
	normalized := make([]any, len(values))
	for i, value := range values {
		switch typed := value.(type) {
		case []byte:
			normalized[i] = string(typed)
		case *big.Int:
			if typed.IsInt64() {
				normalized[i] = typed.Int64()
			} else {
				normalized[i] = typed.String()
			}
		case interface{ Float64() float64 }:
			normalized[i] = typed.Float64()
		default:
			normalized[i] = typed
		}
	}
	return normalized
}

func quoteIdent(value string) string {
	return `"` + strings.ReplaceAll(value, `"`, `""`) + `"`
}

func quoteString(value string) string {
	return `'` + strings.ReplaceAll(value, `'`, `''`) + `'`
}

func stripTrailingSemicolons(sqlText string) string {
	trimmed := strings.TrimSpace(sqlText)
	for strings.HasSuffix(trimmed, ";") {
		trimmed = strings.TrimSpace(strings.TrimSuffix(trimmed, ";"))
	}
	return trimmed
}
