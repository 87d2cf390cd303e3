package schema

import "strings"

// DefaultPrimaryKey is the column synthesized for entities without one
const DefaultPrimaryKey = "id"

// ColumnType is the semantic type tag of a column
type ColumnType int

const (
	// TypeInferred defers to InferType at synthesis time
	TypeInferred ColumnType = iota
	TypeInteger
	TypeString
)

func (t ColumnType) String() string {
	switch t {
	case TypeInteger:
		return "integer"
	case TypeString:
		return "string"
	default:
		return "inferred"
	}
}

// Graph represents a complete generated schema
type Graph struct {
	ModelName    string
	ID           int    // schema id or solution index
	Database     string // database name for DDL preambles; ModelName when empty
	Entities     []Entity
	Associations []Association
}

// Entity represents a table
type Entity struct {
	Name       string
	Columns    []Column
	PrimaryKey string
}

// Column represents a table column
type Column struct {
	Name string
	Type ColumnType
}

// Association represents a foreign key from Source to Target
type Association struct {
	Source         string
	Target         string
	ConstraintName string
	Column         string // column on Source holding Target's key
}

// InferType applies the naming heuristic: names containing "id" are
// integers, everything else is a string.
func InferType(name string) ColumnType {
	if strings.Contains(strings.ToLower(name), "id") {
		return TypeInteger
	}
	return TypeString
}

// ResolvedType returns the column's declared type, falling back to InferType
func (c Column) ResolvedType() ColumnType {
	if c.Type == TypeInferred {
		return InferType(c.Name)
	}
	return c.Type
}

// NewEntity builds an entity from ordered columns. An empty primaryKey
// selects DefaultPrimaryKey, which is prepended when no column carries it.
func NewEntity(name string, columns []Column, primaryKey string) Entity {
	if primaryKey == "" {
		primaryKey = DefaultPrimaryKey
	}

	cols := make([]Column, 0, len(columns)+1)
	if !hasColumn(columns, primaryKey) {
		cols = append(cols, Column{Name: primaryKey, Type: InferType(primaryKey)})
	}
	cols = append(cols, columns...)

	return Entity{Name: name, Columns: cols, PrimaryKey: primaryKey}
}

// Column looks up a column by name
func (e *Entity) Column(name string) (Column, bool) {
	for _, c := range e.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// DatabaseName returns Database, falling back to the sanitized model name
func (g *Graph) DatabaseName() string {
	if g.Database != "" {
		return g.Database
	}
	return Identifier(g.ModelName)
}

// Entity looks up an entity by name
func (g *Graph) Entity(name string) (*Entity, bool) {
	for i := range g.Entities {
		if g.Entities[i].Name == name {
			return &g.Entities[i], true
		}
	}
	return nil, false
}

func hasColumn(columns []Column, name string) bool {
	for _, c := range columns {
		if c.Name == name {
			return true
		}
	}
	return false
}
