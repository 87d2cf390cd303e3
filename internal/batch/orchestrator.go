// Package batch drives many independent schema units through generation,
// synthesis and storage, and records the outcome of each in a manifest.
package batch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/tordrt/ormsynth/internal/ddl"
	"github.com/tordrt/ormsynth/internal/formatter"
	"github.com/tordrt/ormsynth/internal/generator"
	"github.com/tordrt/ormsynth/internal/manifest"
	"github.com/tordrt/ormsynth/internal/schema"
	"github.com/tordrt/ormsynth/internal/solution"
)

// DefaultModels are the object models of the reference batch
var DefaultModels = []string{
	"Customer-Order", "Online Store", "Bank", "Camping",
	"Flagship", "Decider", "Library Mgmt.", "CSOS", "E-commerce",
}

// Solver writes solution index of source to outPath
type Solver interface {
	Solve(ctx context.Context, source string, index int, outPath string) error
}

// Options configures an Orchestrator
type Options struct {
	// Concurrency bounds the number of units in flight. Defaults to GOMAXPROCS.
	Concurrency int
	Logger      logrus.FieldLogger

	// RunID labels the manifest. A fresh ID is drawn per batch when nil.
	RunID uuid.UUID

	// ScratchDir holds solver output documents. A temporary directory is
	// created and removed per run when empty.
	ScratchDir string
}

// Orchestrator runs batches of units against a sink
type Orchestrator struct {
	sink        Sink
	synth       *ddl.Synthesizer
	concurrency int
	log         logrus.FieldLogger
	scratchDir  string
	runID       uuid.UUID
}

// New creates an orchestrator
func New(sink Sink, synth *ddl.Synthesizer, opts Options) *Orchestrator {
	if opts.Concurrency <= 0 {
		opts.Concurrency = runtime.GOMAXPROCS(0)
	}
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	return &Orchestrator{
		sink:        sink,
		synth:       synth,
		concurrency: opts.Concurrency,
		log:         opts.Logger,
		scratchDir:  opts.ScratchDir,
		runID:       opts.RunID,
	}
}

type unit struct {
	model    string
	id       int
	artifact string
	build    func(ctx context.Context) (*schema.Graph, error)
}

// GenerateRandom produces perModel random schemas for every model
func (o *Orchestrator) GenerateRandom(ctx context.Context, gen *generator.Generator, models []string, perModel int) (*manifest.Manifest, error) {
	if perModel <= 0 {
		return nil, &generator.GenerationError{Reason: fmt.Sprintf("schemas per model must be positive, got %d", perModel)}
	}

	models = dedupe(models)
	prefixes := artifactPrefixes(models)

	var units []unit
	for i, model := range models {
		prefix := prefixes[i]
		for id := 1; id <= perModel; id++ {
			units = append(units, unit{
				model:    model,
				id:       id,
				artifact: fmt.Sprintf("%s_schema_%d.sql", prefix, id),
				build: func(context.Context) (*schema.Graph, error) {
					return gen.Generate(model, id)
				},
			})
		}
	}

	return o.run(ctx, units)
}

// DeriveSolutions asks solver for count solutions of the formal model at
// source and derives one schema from each.
func (o *Orchestrator) DeriveSolutions(ctx context.Context, solver Solver, source string, count int) (*manifest.Manifest, error) {
	if count <= 0 {
		return nil, fmt.Errorf("solution count must be positive, got %d", count)
	}

	scratch := o.scratchDir
	if scratch == "" {
		dir, err := os.MkdirTemp("", "ormsynth-solutions-*")
		if err != nil {
			return nil, fmt.Errorf("failed to create scratch directory: %w", err)
		}
		defer func() { _ = os.RemoveAll(dir) }()
		scratch = dir
	} else if err := os.MkdirAll(scratch, 0755); err != nil {
		return nil, fmt.Errorf("failed to create scratch directory: %w", err)
	}

	model := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	units := make([]unit, 0, count)
	for i := 1; i <= count; i++ {
		units = append(units, unit{
			model:    model,
			id:       i,
			artifact: fmt.Sprintf("%s_Sol_%d.sql", schema.Identifier(model), i),
			build: func(ctx context.Context) (*schema.Graph, error) {
				out := filepath.Join(scratch, fmt.Sprintf("solution_%d.xml", i))
				if err := solver.Solve(ctx, source, i, out); err != nil {
					return nil, err
				}
				sol, err := solution.DecodeFile(out)
				if err != nil {
					return nil, err
				}

				graph, discards := solution.Adapt(model, i, sol)
				for _, d := range discards {
					o.log.WithFields(logrus.Fields{
						"model":  model,
						"unit":   i,
						"label":  d.Label,
						"reason": d.Reason,
					}).Debug("discarded solution element")
				}
				return graph, nil
			},
		})
	}

	return o.run(ctx, units)
}

// WriteManifest renders m in format and stores it through the sink
func (o *Orchestrator) WriteManifest(ctx context.Context, m *manifest.Manifest, format string) (string, error) {
	var buf bytes.Buffer
	f, err := formatter.New(format, &buf)
	if err != nil {
		return "", err
	}
	if err := f.Format(m); err != nil {
		return "", fmt.Errorf("failed to format manifest: %w", err)
	}
	return o.sink.Put(ctx, formatter.FileName(format), buf.Bytes())
}

func (o *Orchestrator) run(ctx context.Context, units []unit) (*manifest.Manifest, error) {
	m := manifest.New()
	if o.runID != uuid.Nil {
		m.RunID = o.runID
	}
	var mu sync.Mutex

	g := new(errgroup.Group)
	g.SetLimit(o.concurrency)
	for _, u := range units {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			entry, completed := o.runUnit(ctx, u)
			if completed {
				mu.Lock()
				m.Entries = append(m.Entries, entry)
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	m.Sort()
	o.log.WithFields(logrus.Fields{
		"run":       m.RunID,
		"succeeded": len(m.Succeeded()),
		"failed":    len(m.Failed()),
	}).Info("batch finished")

	return m, ctx.Err()
}

// runUnit reports completed=false when the unit was cut short by
// cancellation; such units are left out of the manifest.
func (o *Orchestrator) runUnit(ctx context.Context, u unit) (manifest.Entry, bool) {
	entry := manifest.Entry{Model: u.model, Unit: u.id, Artifact: u.artifact}
	if ctx.Err() != nil {
		return entry, false
	}
	logger := o.log.WithFields(logrus.Fields{"model": u.model, "unit": u.id, "artifact": u.artifact})

	fail := func(err error) (manifest.Entry, bool) {
		if ctx.Err() != nil {
			return entry, false
		}
		var violation *schema.GraphInvariantViolation
		if errors.As(err, &violation) {
			logger.WithError(err).Error("producer emitted an invalid graph")
		} else {
			logger.WithError(err).Warn("unit failed")
		}
		entry.Status = manifest.StatusFailed
		entry.Error = err.Error()
		return entry, true
	}

	graph, err := u.build(ctx)
	if err != nil {
		return fail(err)
	}
	data, err := o.synth.Render(graph)
	if err != nil {
		return fail(err)
	}
	location, err := o.sink.Put(ctx, u.artifact, data)
	if err != nil {
		return fail(fmt.Errorf("failed to store artifact: %w", err))
	}

	logger.WithField("location", location).Debug("artifact stored")
	entry.Status = manifest.StatusOK
	entry.Location = location
	return entry, true
}

func dedupe(models []string) []string {
	seen := make(map[string]bool, len(models))
	out := make([]string, 0, len(models))
	for _, m := range models {
		if seen[m] {
			continue
		}
		seen[m] = true
		out = append(out, m)
	}
	return out
}

// artifactPrefixes maps models to identifiers, disambiguating models whose
// sanitized names collide.
func artifactPrefixes(models []string) []string {
	taken := make(map[string]bool, len(models))
	out := make([]string, len(models))
	for i, m := range models {
		out[i] = schema.UniqueName(schema.Identifier(m), taken)
	}
	return out
}
