package solution

import (
	"fmt"
	"strings"

	"github.com/tordrt/ormsynth/internal/schema"
)

const (
	scopePrefix       = "this/"
	internalSigil     = "$"
	associationMarker = "Association"
	labelDelimiter    = "_"
)

// builtinSigs covers documents that omit the builtin attribute
var builtinSigs = map[string]bool{
	"univ":    true,
	"Int":     true,
	"String":  true,
	"none":    true,
	"seq/Int": true,
}

// Discard records an element the adapter dropped and why
type Discard struct {
	Label  string
	Reason string
}

// Adapt translates a decoded solution into an entity graph. Elements that do
// not qualify are returned as discards rather than errors.
func Adapt(model string, index int, sol *Solution) (*schema.Graph, []Discard) {
	graph := &schema.Graph{
		ModelName: model,
		ID:        index,
		Database:  fmt.Sprintf("%s_Sol_%d", schema.Identifier(model), index),
	}
	var discards []Discard

	for _, cls := range sol.Classes {
		name := strings.TrimPrefix(cls.Name, scopePrefix)
		if cls.Builtin {
			discards = append(discards, Discard{Label: cls.Name, Reason: "builtin signature"})
			continue
		}
		if !isModelClass(name) {
			discards = append(discards, Discard{Label: cls.Name, Reason: "not a model class"})
			continue
		}
		if _, dup := graph.Entity(name); dup {
			discards = append(discards, Discard{Label: cls.Name, Reason: "duplicate class"})
			continue
		}
		graph.Entities = append(graph.Entities, entityFor(name, cls.Fields))
	}

	taken := make(map[string]bool)
	for _, fact := range sol.Facts {
		src, dst, reason := decompose(fact.Label)
		if reason == "" {
			reason = checkEndpoints(graph, src, dst)
		}
		if reason != "" {
			discards = append(discards, Discard{Label: fact.Label, Reason: reason})
			continue
		}

		source, _ := graph.Entity(src)
		target, _ := graph.Entity(dst)
		key, _ := target.Column(target.PrimaryKey)

		// the foreign key column carries the type of the referenced key
		column := dst + "ID"
		if existing, ok := source.Column(column); !ok {
			source.Columns = append(source.Columns, schema.Column{Name: column, Type: key.ResolvedType()})
		} else if existing.ResolvedType() != key.ResolvedType() {
			discards = append(discards, Discard{
				Label:  fact.Label,
				Reason: fmt.Sprintf("column %q is %s but key %q of %q is %s", column, existing.ResolvedType(), key.Name, dst, key.ResolvedType()),
			})
			continue
		}

		graph.Associations = append(graph.Associations, schema.Association{
			Source:         src,
			Target:         dst,
			ConstraintName: schema.UniqueName(fmt.Sprintf("FK_%s_%s_idx", src, dst), taken),
			Column:         column,
		})
	}

	return graph, discards
}

func isModelClass(name string) bool {
	if name == "" || builtinSigs[name] {
		return false
	}
	return !strings.Contains(name, internalSigil) && !strings.Contains(name, "/")
}

// entityFor keeps fields verbatim in order; the first is the primary key
func entityFor(name string, fields []string) schema.Entity {
	seen := make(map[string]bool, len(fields))
	cols := make([]schema.Column, 0, len(fields))
	for _, f := range fields {
		if f == "" || seen[f] {
			continue
		}
		seen[f] = true
		cols = append(cols, schema.Column{Name: f, Type: schema.InferType(f)})
	}

	pk := ""
	if len(cols) > 0 {
		pk = cols[0].Name
	}
	return schema.NewEntity(name, cols, pk)
}

// decompose splits an association label into source and target class names
func decompose(label string) (src, dst, reason string) {
	label = strings.TrimPrefix(label, scopePrefix)
	if !strings.Contains(label, associationMarker) {
		return "", "", "not an association"
	}

	var tokens []string
	for _, tok := range strings.Split(label, labelDelimiter) {
		if tok == "" || tok == associationMarker {
			continue
		}
		tokens = append(tokens, tok)
	}
	if len(tokens) < 2 {
		return "", "", "fewer than two class tokens"
	}
	return tokens[0], tokens[1], ""
}

func checkEndpoints(graph *schema.Graph, src, dst string) string {
	if _, ok := graph.Entity(src); !ok {
		return fmt.Sprintf("unknown source class %q", src)
	}
	if _, ok := graph.Entity(dst); !ok {
		return fmt.Sprintf("unknown target class %q", dst)
	}
	if src == dst {
		return "self-referential association"
	}
	return ""
}
