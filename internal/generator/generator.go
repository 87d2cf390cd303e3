// Package generator produces structurally random entity graphs for a named
// object model.
package generator

import (
	"fmt"
	"hash/fnv"
	"math/rand/v2"

	"github.com/tordrt/ormsynth/internal/schema"
)

// Range is an inclusive integer range
type Range struct {
	Min int
	Max int
}

func (r Range) pick(rng *rand.Rand) int {
	return r.Min + rng.IntN(r.Max-r.Min+1)
}

// Options configures the generator.
//
// Zero ranges select the defaults: 3–8 tables, 2–5 extra columns per table.
// Associations defaults to 1..tables-1 and may be set to force a count,
// including zero.
type Options struct {
	Tables       Range
	Columns      Range
	Associations *Range

	// Seed makes every (model, schema id) pair reproducible. Nil uses
	// process entropy.
	Seed *uint64
}

// GenerationError reports invalid generator parameters
type GenerationError struct {
	Reason string
}

func (e *GenerationError) Error() string {
	return "generation: " + e.Reason
}

// Generator produces random entity graphs. It holds no mutable state and is
// safe for concurrent use.
type Generator struct {
	opts Options
}

// New validates opts and creates a generator
func New(opts Options) (*Generator, error) {
	if opts.Tables == (Range{}) {
		opts.Tables = Range{Min: 3, Max: 8}
	}
	if opts.Columns == (Range{}) {
		opts.Columns = Range{Min: 2, Max: 5}
	}

	if err := checkRange("table", opts.Tables, 1); err != nil {
		return nil, err
	}
	if err := checkRange("column", opts.Columns, 0); err != nil {
		return nil, err
	}
	if opts.Associations != nil {
		if err := checkRange("association", *opts.Associations, 0); err != nil {
			return nil, err
		}
	}

	return &Generator{opts: opts}, nil
}

func checkRange(what string, r Range, floor int) error {
	if r.Min < floor {
		return &GenerationError{Reason: fmt.Sprintf("%s count minimum %d is below %d", what, r.Min, floor)}
	}
	if r.Max < r.Min {
		return &GenerationError{Reason: fmt.Sprintf("%s count range [%d,%d] is inverted", what, r.Min, r.Max)}
	}
	return nil
}

// Generate builds one graph for model and schemaID using a random source
// derived from the generator's seed.
func (g *Generator) Generate(model string, schemaID int) (*schema.Graph, error) {
	return g.GenerateWith(g.source(model, schemaID), model, schemaID)
}

// GenerateWith builds one graph drawing from rng
func (g *Generator) GenerateWith(rng *rand.Rand, model string, schemaID int) (*schema.Graph, error) {
	if model == "" {
		return nil, &GenerationError{Reason: "model name is required"}
	}
	if schemaID <= 0 {
		return nil, &GenerationError{Reason: fmt.Sprintf("schema id must be positive, got %d", schemaID)}
	}

	graph := &schema.Graph{ModelName: model, ID: schemaID}
	prefix := schema.Identifier(model)

	numTables := g.opts.Tables.pick(rng)
	graph.Entities = make([]schema.Entity, 0, numTables)
	for i := 0; i < numTables; i++ {
		numCols := g.opts.Columns.pick(rng)
		cols := make([]schema.Column, 0, numCols)
		for j := 0; j < numCols; j++ {
			cols = append(cols, schema.Column{Name: fmt.Sprintf("col_%d", j), Type: schema.TypeInteger})
		}

		name := fmt.Sprintf("%s_Table_%d_%d", prefix, schemaID, i)
		graph.Entities = append(graph.Entities, schema.NewEntity(name, cols, schema.DefaultPrimaryKey))
	}

	assocRange := Range{Min: 1, Max: numTables - 1}
	if g.opts.Associations != nil {
		assocRange = *g.opts.Associations
	} else if numTables < 2 {
		assocRange = Range{}
	}

	taken := make(map[string]bool)
	numAssoc := assocRange.pick(rng)
	for n := 0; n < numAssoc; n++ {
		src := &graph.Entities[rng.IntN(numTables)]
		dst := &graph.Entities[rng.IntN(numTables)]
		if src.Name == dst.Name {
			continue
		}

		fkName := fmt.Sprintf("fk_%d_%d", schemaID, 1+rng.IntN(100))
		graph.Associations = append(graph.Associations, schema.Association{
			Source:         src.Name,
			Target:         dst.Name,
			ConstraintName: schema.UniqueName(fkName, taken),
			Column:         dst.PrimaryKey,
		})
	}

	return graph, nil
}

func (g *Generator) source(model string, schemaID int) *rand.Rand {
	if g.opts.Seed == nil {
		return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	h := fnv.New64a()
	_, _ = h.Write([]byte(model))
	return rand.New(rand.NewPCG(*g.opts.Seed, h.Sum64()^uint64(schemaID)))
}
