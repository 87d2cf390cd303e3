package batch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestDirSinkPut(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "generated_schemas")
	sink := NewDirSink(dir)

	loc, err := sink.Put(context.Background(), "Bank_schema_1.sql", []byte("-- Schema 1 for Bank\n"))
	if err != nil {
		t.Fatalf("Put() error: %v", err)
	}
	if loc != filepath.Join(dir, "Bank_schema_1.sql") {
		t.Errorf("Put() location = %s", loc)
	}

	// overwriting replaces the artifact atomically
	if _, err := sink.Put(context.Background(), "Bank_schema_1.sql", []byte("v2")); err != nil {
		t.Fatalf("Put() overwrite error: %v", err)
	}
	data, err := os.ReadFile(loc)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "v2" {
		t.Errorf("artifact = %q, want v2", data)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("directory holds %d entries, want 1 (temp files must not remain)", len(entries))
	}
}

func TestDirSinkRejectsPaths(t *testing.T) {
	sink := NewDirSink(t.TempDir())
	for _, name := range []string{"", "../escape.sql", "nested/schema.sql"} {
		if _, err := sink.Put(context.Background(), name, nil); err == nil {
			t.Errorf("Put(%q) expected error", name)
		}
	}
}

func TestMemorySink(t *testing.T) {
	sink := NewMemorySink()
	ctx := context.Background()

	buf := []byte("CREATE TABLE")
	loc, err := sink.Put(ctx, "a.sql", buf)
	if err != nil {
		t.Fatalf("Put() error: %v", err)
	}
	if loc != "mem://a.sql" {
		t.Errorf("location = %s", loc)
	}
	buf[0] = 'X'
	if got, _ := sink.Get("a.sql"); string(got) != "CREATE TABLE" {
		t.Errorf("sink kept a reference to the caller's buffer: %q", got)
	}

	if _, err := sink.Put(ctx, "a.sql", nil); err == nil {
		t.Error("duplicate Put expected error")
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if _, err := sink.Put(cancelled, "b.sql", nil); err == nil {
		t.Error("Put on cancelled context expected error")
	}
}
