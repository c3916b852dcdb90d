// Package triplestore persists the semantic graph in SQLite and executes
// read and write statements against it.
package triplestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/google/uuid"

	"catgraph/internal/db"
	"catgraph/internal/domain"
	"catgraph/internal/graph"
	"catgraph/internal/ontology"
)

var (
	selectStmt = regexp.MustCompile(`(?is)^\s*SELECT\s+`)
	insertStmt = regexp.MustCompile(`(?is)^\s*INSERT\s+`)
)

// Store is a triple store backed by a SQLite database. Writes go through a
// single-connection pool; reads may use a separate pool.
type Store struct {
	write  *sql.DB
	read   *sql.DB
	logger *slog.Logger
	owned  bool
}

// New wraps already migrated pools. readDB may be nil, in which case reads
// use writeDB. The caller keeps ownership of the pools.
func New(writeDB, readDB *sql.DB, logger *slog.Logger) *Store {
	if readDB == nil {
		readDB = writeDB
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{write: writeDB, read: readDB, logger: logger}
}

// Open opens (creating if needed) the store file at path and migrates it.
func Open(path string, logger *slog.Logger) (*Store, error) {
	writeDB, readDB, err := db.OpenSQLitePair(path, 0)
	if err != nil {
		return nil, err
	}
	if err := db.RunMigrations(writeDB); err != nil {
		_ = readDB.Close()
		_ = writeDB.Close()
		return nil, fmt.Errorf("migrate %s: %w", path, err)
	}
	s := New(writeDB, readDB, logger)
	s.owned = true
	return s, nil
}

// OpenMemory returns an empty store that lives only in memory.
func OpenMemory(logger *slog.Logger) (*Store, error) {
	mem, err := db.OpenMemory()
	if err != nil {
		return nil, err
	}
	if err := db.RunMigrations(mem); err != nil {
		_ = mem.Close()
		return nil, fmt.Errorf("migrate memory store: %w", err)
	}
	s := New(mem, nil, logger)
	s.owned = true
	return s, nil
}

// Close releases the pools opened by Open or OpenMemory.
func (s *Store) Close() error {
	if !s.owned {
		return nil
	}
	var errs []error
	if s.read != s.write {
		errs = append(errs, s.read.Close())
	}
	errs = append(errs, s.write.Close())
	return errors.Join(errs...)
}

// WithTx runs fn in a write transaction. The transaction is rolled back when
// fn returns an error.
func (s *Store) WithTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.write.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

const insertTriple = `INSERT OR IGNORE INTO triples
	(subject, subject_kind, predicate, object, object_kind, datatype, lang)
	VALUES (?, ?, ?, ?, ?, ?, ?)`

// Insert adds every triple of g that the store does not hold yet and returns
// the number added. Triples are appended in graph order.
func (s *Store) Insert(ctx context.Context, g *graph.Graph) (int, error) {
	added := 0
	err := s.WithTx(ctx, func(tx *sql.Tx) error {
		n, err := insertTx(ctx, tx, g)
		added = n
		return err
	})
	if err != nil {
		return 0, err
	}
	return added, nil
}

// Replace removes every triple and inserts graphs in order, in one
// transaction: on error the stored graph is unchanged. It returns the number
// of triples added per graph. Namespace bindings are kept.
func (s *Store) Replace(ctx context.Context, graphs ...*graph.Graph) ([]int, error) {
	added := make([]int, len(graphs))
	err := s.WithTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM triples`); err != nil {
			return fmt.Errorf("reset triples: %w", err)
		}
		for i, g := range graphs {
			n, err := insertTx(ctx, tx, g)
			if err != nil {
				return err
			}
			added[i] = n
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return added, nil
}

func insertTx(ctx context.Context, tx *sql.Tx, g *graph.Graph) (int, error) {
	stmt, err := tx.PrepareContext(ctx, insertTriple)
	if err != nil {
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	added := 0
	for _, t := range g.Triples() {
		if t.Subject.Kind == domain.TermLiteral {
			return 0, domain.ErrValidation("literal %q cannot be a subject", t.Subject.Value)
		}
		res, err := stmt.ExecContext(ctx,
			t.Subject.Value, string(t.Subject.Kind), t.Predicate,
			t.Object.Value, string(t.Object.Kind), t.Object.Datatype, t.Object.Lang)
		if err != nil {
			return 0, fmt.Errorf("insert triple %s %s: %w", t.Subject, t.Predicate, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("rows affected: %w", err)
		}
		added += int(n)
	}
	return added, nil
}

// Decode parses an RDF document for loading. Blank nodes get a fresh
// per-load prefix so separate loads never merge blank nodes.
func Decode(r io.Reader, format graph.Format) (*graph.Graph, error) {
	prefix := "b" + strings.ReplaceAll(uuid.NewString(), "-", "")
	return graph.Decode(r, format, prefix)
}

// Load decodes an RDF document and adds its triples.
func (s *Store) Load(ctx context.Context, r io.Reader, format graph.Format) (int, error) {
	g, err := Decode(r, format)
	if err != nil {
		return 0, err
	}
	n, err := s.Insert(ctx, g)
	if err != nil {
		return 0, err
	}
	s.logger.Debug("loaded triples", "format", format, "parsed", g.Len(), "added", n)
	return n, nil
}

// Len returns the number of stored triples.
func (s *Store) Len(ctx context.Context) (int, error) {
	var n int
	if err := s.read.QueryRowContext(ctx, `SELECT count(*) FROM triples`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count triples: %w", err)
	}
	return n, nil
}

// Graph reads the stored triples, in insertion order, into a new graph.
func (s *Store) Graph(ctx context.Context) (*graph.Graph, error) {
	rows, err := s.read.QueryContext(ctx, `SELECT subject, subject_kind, predicate, object, object_kind, datatype, lang
		FROM triples ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("read triples: %w", err)
	}
	defer rows.Close()

	g := graph.New()
	for rows.Next() {
		var t domain.Triple
		var subjKind, objKind string
		if err := rows.Scan(&t.Subject.Value, &subjKind, &t.Predicate,
			&t.Object.Value, &objKind, &t.Object.Datatype, &t.Object.Lang); err != nil {
			return nil, fmt.Errorf("scan triple: %w", err)
		}
		t.Subject.Kind = domain.TermKind(subjKind)
		t.Object.Kind = domain.TermKind(objKind)
		g.AddTriple(t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read triples: %w", err)
	}
	return g, nil
}

// IsRead reports whether stmt is a read (SELECT) statement.
func IsRead(stmt string) bool { return selectStmt.MatchString(stmt) }

// IsWrite reports whether stmt is a write (INSERT) statement.
func IsWrite(stmt string) bool { return insertStmt.MatchString(stmt) }

// Exec runs a user statement. SELECT statements return rows, INSERT
// statements return the affected row count; any other statement form, or
// more than one statement, is a *domain.ParseError. Namespace placeholders
// are expanded first.
func (s *Store) Exec(ctx context.Context, stmt string) (*domain.QueryResult, error) {
	switch {
	case IsRead(stmt):
		return s.Select(ctx, stmt)
	case IsWrite(stmt):
		body, err := singleStatement(stmt)
		if err != nil {
			return nil, err
		}
		res, err := s.write.ExecContext(ctx, ontology.ExpandNamespaces(body))
		if err != nil {
			return nil, domain.ErrParse(stmt, "%v", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return nil, fmt.Errorf("rows affected: %w", err)
		}
		return &domain.QueryResult{RowsAffected: n, Write: true}, nil
	}
	return nil, domain.ErrParse(stmt, "unsupported statement form: expected SELECT or INSERT")
}

// Select runs a read statement and returns its rows as strings. NULL
// becomes the empty string.
func (s *Store) Select(ctx context.Context, stmt string, args ...any) (*domain.QueryResult, error) {
	if !IsRead(stmt) {
		return nil, domain.ErrParse(stmt, "not a SELECT statement")
	}
	body, err := singleStatement(stmt)
	if err != nil {
		return nil, err
	}
	rows, err := s.read.QueryContext(ctx, ontology.ExpandNamespaces(body), args...)
	if err != nil {
		return nil, domain.ErrParse(stmt, "%v", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("columns: %w", err)
	}
	result := &domain.QueryResult{Columns: cols}
	values := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range values {
		ptrs[i] = &values[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		row := make([]string, len(cols))
		for i, v := range values {
			row[i] = stringValue(v)
		}
		result.Rows = append(result.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}
	return result, nil
}

// singleStatement returns stmt up to its terminating ";". Quoted literals
// and comments are skipped. Anything but whitespace, comments or further
// ";" after the terminator is a second statement and a *domain.ParseError.
func singleStatement(stmt string) (string, error) {
	end := -1
	for i := 0; i < len(stmt); i++ {
		c := stmt[i]
		switch {
		case c == '\'' || c == '"' || c == '`' || c == '[':
			if end >= 0 {
				return "", domain.ErrParse(stmt, "only one statement is allowed")
			}
			closer := c
			if c == '[' {
				closer = ']'
			}
			j := strings.IndexByte(stmt[i+1:], closer)
			if j < 0 {
				return "", domain.ErrParse(stmt, "unterminated quoted literal")
			}
			i += j + 1
		case c == '-' && strings.HasPrefix(stmt[i:], "--"):
			j := strings.IndexByte(stmt[i:], '\n')
			if j < 0 {
				i = len(stmt)
			} else {
				i += j
			}
		case c == '/' && strings.HasPrefix(stmt[i:], "/*"):
			j := strings.Index(stmt[i+2:], "*/")
			if j < 0 {
				i = len(stmt)
			} else {
				i += j + 3
			}
		case c == ';':
			if end < 0 {
				end = i
			}
		case end >= 0 && !unicode.IsSpace(rune(c)):
			return "", domain.ErrParse(stmt, "only one statement is allowed")
		}
	}
	if end < 0 {
		return stmt, nil
	}
	return stmt[:end], nil
}

func stringValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []byte:
		return string(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	default:
		return fmt.Sprint(x)
	}
}

// BindNamespace stores a prefix binding used when displaying results.
func (s *Store) BindNamespace(ctx context.Context, prefix, iri string) error {
	if prefix == "" || iri == "" {
		return domain.ErrValidation("namespace prefix and IRI are required")
	}
	_, err := s.write.ExecContext(ctx,
		`INSERT INTO namespaces (prefix, iri) VALUES (?, ?)
		 ON CONFLICT (prefix) DO UPDATE SET iri = excluded.iri`, prefix, iri)
	if err != nil {
		return fmt.Errorf("bind namespace %s: %w", prefix, err)
	}
	return nil
}

// Namespaces returns the fixed prefixes merged with the stored bindings.
func (s *Store) Namespaces(ctx context.Context) (ontology.Prefixes, error) {
	p := ontology.DefaultPrefixes()
	rows, err := s.read.QueryContext(ctx, `SELECT prefix, iri FROM namespaces ORDER BY prefix`)
	if err != nil {
		return nil, fmt.Errorf("read namespaces: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var prefix, iri string
		if err := rows.Scan(&prefix, &iri); err != nil {
			return nil, fmt.Errorf("scan namespace: %w", err)
		}
		p[prefix] = iri
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read namespaces: %w", err)
	}
	return p, nil
}
