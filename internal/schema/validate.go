package schema

import (
	"fmt"
	"strings"
)

// GraphInvariantViolation reports a graph that must not reach DDL synthesis.
// It always indicates a bug in the producer that built the graph.
type GraphInvariantViolation struct {
	Model  string
	ID     int
	Reason string
}

func (e *GraphInvariantViolation) Error() string {
	return fmt.Sprintf("graph invariant violated in %s/%d: %s", e.Model, e.ID, e.Reason)
}

// Validate checks referential integrity and naming uniqueness
func (g *Graph) Validate() error {
	violation := func(format string, args ...any) error {
		return &GraphInvariantViolation{
			Model:  g.ModelName,
			ID:     g.ID,
			Reason: fmt.Sprintf(format, args...),
		}
	}

	entities := make(map[string]*Entity, len(g.Entities))
	for i := range g.Entities {
		e := &g.Entities[i]
		if e.Name == "" {
			return violation("entity %d has no name", i)
		}
		if _, dup := entities[e.Name]; dup {
			return violation("duplicate entity %q", e.Name)
		}
		entities[e.Name] = e

		seen := make(map[string]bool, len(e.Columns))
		for _, c := range e.Columns {
			if c.Name == "" {
				return violation("entity %q has an unnamed column", e.Name)
			}
			if seen[c.Name] {
				return violation("duplicate column %q in entity %q", c.Name, e.Name)
			}
			seen[c.Name] = true
		}
		if e.PrimaryKey == "" || !seen[e.PrimaryKey] {
			return violation("entity %q has no primary key column %q", e.Name, e.PrimaryKey)
		}
	}

	constraints := make(map[string]bool, len(g.Associations))
	for _, a := range g.Associations {
		src, ok := entities[a.Source]
		if !ok {
			return violation("association %q references missing source %q", a.ConstraintName, a.Source)
		}
		dst, ok := entities[a.Target]
		if !ok {
			return violation("association %q references missing target %q", a.ConstraintName, a.Target)
		}
		if a.Source == a.Target {
			return violation("association %q is self-referential on %q", a.ConstraintName, a.Source)
		}
		if a.ConstraintName == "" {
			return violation("association %s -> %s has no constraint name", a.Source, a.Target)
		}
		if constraints[a.ConstraintName] {
			return violation("duplicate constraint name %q", a.ConstraintName)
		}
		constraints[a.ConstraintName] = true
		col, ok := src.Column(a.Column)
		if !ok {
			return violation("association %q uses column %q missing from %q", a.ConstraintName, a.Column, a.Source)
		}
		key, _ := dst.Column(dst.PrimaryKey)
		if col.ResolvedType() != key.ResolvedType() {
			return violation("association %q column %q is %s but %q.%q is %s",
				a.ConstraintName, a.Column, col.ResolvedType(), a.Target, dst.PrimaryKey, key.ResolvedType())
		}
	}

	return nil
}

// Identifier rewrites every rune outside [A-Za-z0-9_] to an underscore,
// e.g. "Library Mgmt." becomes "Library_Mgmt_".
func Identifier(name string) string {
	return strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_' {
			return r
		}
		return '_'
	}, name)
}

// UniqueName returns name, or name suffixed with _2, _3, ... until taken
// reports false. The chosen name is marked as taken.
func UniqueName(name string, taken map[string]bool) string {
	candidate := name
	for k := 2; taken[candidate]; k++ {
		candidate = fmt.Sprintf("%s_%d", name, k)
	}
	taken[candidate] = true
	return candidate
}
