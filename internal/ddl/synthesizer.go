// Package ddl renders entity graphs as SQL DDL.
//
// Output is a pure function of the graph: entities and associations are
// emitted in stored order, one CREATE TABLE per entity followed by one
// ALTER TABLE ... FOREIGN KEY per association.
package ddl

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/tordrt/ormsynth/internal/schema"
)

// Options configures DDL synthesis
type Options struct {
	Dialect Dialect

	// CreateDatabase prefixes CREATE DATABASE and USE statements for the
	// graph's database name. MySQL only.
	CreateDatabase bool
}

// Synthesizer renders graphs as DDL statements
type Synthesizer struct {
	dialect        Dialect
	createDatabase bool
}

// New creates a synthesizer
func New(opts Options) (*Synthesizer, error) {
	dialect, err := ParseDialect(string(opts.Dialect))
	if err != nil {
		return nil, err
	}
	if opts.CreateDatabase && dialect != MySQL {
		return nil, fmt.Errorf("CREATE DATABASE preamble requires the mysql dialect, got %s", dialect)
	}
	return &Synthesizer{dialect: dialect, createDatabase: opts.CreateDatabase}, nil
}

// Dialect returns the synthesizer's dialect
func (s *Synthesizer) Dialect() Dialect {
	return s.dialect
}

// Statements returns the ordered DDL statements for g. A graph that violates
// its invariants is rejected with *schema.GraphInvariantViolation.
func (s *Synthesizer) Statements(g *schema.Graph) ([]string, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}

	stmts := make([]string, 0, len(g.Entities)+len(g.Associations)+2)
	if s.createDatabase {
		db := s.dialect.quote(g.DatabaseName())
		stmts = append(stmts, "CREATE DATABASE "+db+";", "USE "+db+";")
	}

	for _, e := range g.Entities {
		stmts = append(stmts, s.createTable(e))
	}

	for _, a := range g.Associations {
		target, _ := g.Entity(a.Target)
		stmts = append(stmts, s.addForeignKey(a, target.PrimaryKey))
	}

	return stmts, nil
}

func (s *Synthesizer) createTable(e schema.Entity) string {
	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE %s (\n", s.dialect.quote(e.Name))
	for _, col := range e.Columns {
		fmt.Fprintf(&b, "  %s %s,\n", s.dialect.quote(col.Name), s.dialect.columnType(col.ResolvedType()))
	}
	fmt.Fprintf(&b, "  PRIMARY KEY (%s)\n);", s.dialect.quote(e.PrimaryKey))
	return b.String()
}

func (s *Synthesizer) addForeignKey(a schema.Association, targetKey string) string {
	return fmt.Sprintf("ALTER TABLE %s\n  ADD CONSTRAINT %s FOREIGN KEY (%s) REFERENCES %s (%s) ON DELETE CASCADE ON UPDATE CASCADE;",
		s.dialect.quote(a.Source),
		s.dialect.quote(a.ConstraintName),
		s.dialect.quote(a.Column),
		s.dialect.quote(a.Target),
		s.dialect.quote(targetKey))
}

// Format writes a header comment naming the schema followed by its statements
func (s *Synthesizer) Format(w io.Writer, g *schema.Graph) error {
	stmts, err := s.Statements(g)
	if err != nil {
		return err
	}

	if _, err := fmt.Fprintf(w, "-- Schema %d for %s\n", g.ID, g.ModelName); err != nil {
		return err
	}
	for _, stmt := range stmts {
		if _, err := fmt.Fprintf(w, "\n%s\n", stmt); err != nil {
			return err
		}
	}
	return nil
}

// Render returns the formatted artifact for g
func (s *Synthesizer) Render(g *schema.Graph) ([]byte, error) {
	var buf bytes.Buffer
	if err := s.Format(&buf, g); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
