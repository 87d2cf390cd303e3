package ormsynth

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/tordrt/ormsynth/internal/batch"
	"github.com/tordrt/ormsynth/internal/manifest"
)

func quietLogger() logrus.FieldLogger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func TestGenerateSchemas(t *testing.T) {
	dir := t.TempDir()
	seed := uint64(42)

	m, err := GenerateSchemas(context.Background(), &GenerateOptions{
		Models:          []string{"Bank", "Online Store"},
		SchemasPerModel: 3,
		Seed:            &seed,
		Logger:          quietLogger(),
	}, &OutputOptions{OutputDir: dir})
	if err != nil {
		t.Fatalf("GenerateSchemas() error: %v", err)
	}

	if len(m.Entries) != 6 {
		t.Fatalf("Expected 6 entries, got %d", len(m.Entries))
	}
	if len(m.Failed()) != 0 {
		t.Errorf("Expected no failures, got %+v", m.Failed())
	}

	for _, name := range []string{
		"Bank_schema_1.sql", "Bank_schema_3.sql",
		"Online_Store_schema_1.sql", "Online_Store_schema_3.sql",
		"manifest.txt",
	} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("Expected %s to exist: %v", name, err)
		}
	}

	data, err := os.ReadFile(filepath.Join(dir, "Bank_schema_2.sql"))
	if err != nil {
		t.Fatalf("failed to read artifact: %v", err)
	}
	if !strings.Contains(string(data), "CREATE TABLE `Bank_Table_2_0`") {
		t.Errorf("Unexpected artifact content:\n%s", data)
	}

	manifestText, err := os.ReadFile(filepath.Join(dir, "manifest.txt"))
	if err != nil {
		t.Fatalf("failed to read manifest: %v", err)
	}
	if !strings.Contains(string(manifestText), m.RunID.String()) {
		t.Errorf("Manifest does not name run %s:\n%s", m.RunID, manifestText)
	}
}

func TestGenerateSchemasReproducible(t *testing.T) {
	seed := uint64(7)
	read := func(dir string) string {
		data, err := os.ReadFile(filepath.Join(dir, "Camping_schema_4.sql"))
		if err != nil {
			t.Fatalf("failed to read artifact: %v", err)
		}
		return string(data)
	}

	var outputs []string
	for _, concurrency := range []int{1, 8} {
		dir := t.TempDir()
		_, err := GenerateSchemas(context.Background(), &GenerateOptions{
			Models:          []string{"Camping"},
			SchemasPerModel: 5,
			Seed:            &seed,
			Dialect:         "postgres",
			Concurrency:     concurrency,
			Logger:          quietLogger(),
		}, &OutputOptions{OutputDir: dir, ManifestFormat: "none"})
		if err != nil {
			t.Fatalf("GenerateSchemas() error: %v", err)
		}
		outputs = append(outputs, read(dir))
	}

	if outputs[0] != outputs[1] {
		t.Errorf("Seeded output differs across concurrency levels:\n%s\n---\n%s", outputs[0], outputs[1])
	}
}

func TestGenerateSchemasOptions(t *testing.T) {
	tests := []struct {
		name    string
		opts    *GenerateOptions
		outOpts *OutputOptions
		wantErr bool
	}{
		{
			name:    "negative count",
			opts:    &GenerateOptions{Models: []string{"Bank"}, SchemasPerModel: -1},
			wantErr: true,
		},
		{
			name:    "unknown dialect",
			opts:    &GenerateOptions{Models: []string{"Bank"}, SchemasPerModel: 1, Dialect: "oracle"},
			wantErr: true,
		},
		{
			name:    "unknown manifest format",
			opts:    &GenerateOptions{Models: []string{"Bank"}, SchemasPerModel: 1},
			outOpts: &OutputOptions{ManifestFormat: "yaml"},
			wantErr: true,
		},
		{
			name:    "markdown manifest",
			opts:    &GenerateOptions{Models: []string{"Bank"}, SchemasPerModel: 1},
			outOpts: &OutputOptions{ManifestFormat: "markdown"},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			outOpts := tt.outOpts
			if outOpts == nil {
				outOpts = &OutputOptions{}
			}
			outOpts.OutputDir = t.TempDir()
			tt.opts.Logger = quietLogger()

			_, err := GenerateSchemas(context.Background(), tt.opts, outOpts)
			if tt.wantErr && err == nil {
				t.Error("Expected error but got none")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("Unexpected error: %v", err)
			}
		})
	}
}

func TestGenerateSchemasCancelled(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	m, err := GenerateSchemas(ctx, &GenerateOptions{
		Models:          []string{"Bank"},
		SchemasPerModel: 10,
		Logger:          quietLogger(),
	}, &OutputOptions{OutputDir: dir})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Expected context.Canceled, got %v", err)
	}
	if m == nil || len(m.Entries) != 0 {
		t.Fatalf("Expected an empty manifest, got %+v", m)
	}
	if _, err := os.Stat(filepath.Join(dir, "manifest.txt")); err != nil {
		t.Errorf("Expected manifest of cancelled batch to be stored: %v", err)
	}
}

type stubSolver struct {
	doc string
}

func (s *stubSolver) Solve(_ context.Context, _ string, index int, outPath string) error {
	if index == 2 {
		return errors.New("solver exited with status 1")
	}
	return os.WriteFile(outPath, []byte(s.doc), 0o644)
}

func TestDeriveSchemas(t *testing.T) {
	dir := t.TempDir()
	solver := &stubSolver{doc: `<alloy><instance>
<sig label="this/Account" ID="4"><field label="id"/><field label="balance"/></sig>
<sig label="this/Customer" ID="5"><field label="id"/><field label="name"/></sig>
<fact label="this/Association_Account_Customer"/>
</instance></alloy>`}

	m, err := DeriveSchemas(context.Background(), "models/Bank.als", &DeriveOptions{
		Solutions:      3,
		Solver:         solver,
		ScratchDir:     t.TempDir(),
		CreateDatabase: true,
		Logger:         quietLogger(),
	}, &OutputOptions{OutputDir: dir, ManifestFormat: "markdown"})
	if err != nil {
		t.Fatalf("DeriveSchemas() error: %v", err)
	}

	if len(m.Entries) != 3 {
		t.Fatalf("Expected 3 entries, got %d", len(m.Entries))
	}
	if m.Entries[1].Status != manifest.StatusFailed {
		t.Errorf("Expected unit 2 to fail, got %+v", m.Entries[1])
	}

	data, err := os.ReadFile(filepath.Join(dir, "Bank_Sol_3.sql"))
	if err != nil {
		t.Fatalf("failed to read artifact: %v", err)
	}
	for _, want := range []string{
		"CREATE DATABASE `Bank_Sol_3`;",
		"ADD CONSTRAINT `FK_Account_Customer_idx` FOREIGN KEY (`CustomerID`) REFERENCES `Customer` (`id`)",
	} {
		if !strings.Contains(string(data), want) {
			t.Errorf("Expected artifact to contain %q:\n%s", want, data)
		}
	}

	if _, err := os.Stat(filepath.Join(dir, "manifest.md")); err != nil {
		t.Errorf("Expected manifest.md: %v", err)
	}
}

func TestDeriveSchemasValidation(t *testing.T) {
	tests := []struct {
		name   string
		source string
		opts   *DeriveOptions
	}{
		{name: "missing source", source: "", opts: &DeriveOptions{Solver: &stubSolver{}}},
		{name: "missing jar", source: "Bank.als", opts: &DeriveOptions{}},
		{name: "create database on sqlite", source: "Bank.als", opts: &DeriveOptions{Solver: &stubSolver{}, Dialect: "sqlite", CreateDatabase: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DeriveSchemas(context.Background(), tt.source, tt.opts, &OutputOptions{OutputDir: t.TempDir()})
			if err == nil {
				t.Error("Expected error but got none")
			}
		})
	}
}

func TestOpenSink(t *testing.T) {
	ctx := context.Background()

	sink, closeSink, err := OpenSink(ctx, nil, uuid.New())
	if err != nil {
		t.Fatalf("OpenSink() error: %v", err)
	}
	defer func() { _ = closeSink() }()

	dirSink, ok := sink.(*batch.DirSink)
	if !ok {
		t.Fatalf("Expected *batch.DirSink, got %T", sink)
	}
	if dirSink.Dir != "generated_schemas" {
		t.Errorf("Expected default directory generated_schemas, got %s", dirSink.Dir)
	}

	if _, _, err := OpenSink(ctx, &OutputOptions{SinkURL: "redis://localhost"}, uuid.New()); err == nil {
		t.Error("Expected error for unsupported sink URL")
	}
}
