package ioutils

import (
	"io"
	"os"
	"path/filepath"
	"testing"
)

func TestGzipRoundTrip(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"plain.txt", "packed.txt.gz"} {
		p := filepath.Join(dir, name)
		w, err := CreateMaybeCompressed(p)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := io.WriteString(w, "a,b\n1,2\n"); err != nil {
			t.Fatal(err)
		}
		if err := w.Close(); err != nil {
			t.Fatal(err)
		}
		r, err := OpenMaybeCompressed(p)
		if err != nil {
			t.Fatal(err)
		}
		b, err := io.ReadAll(r)
		_ = r.Close()
		if err != nil {
			t.Fatal(err)
		}
		if string(b) != "a,b\n1,2\n" {
			t.Fatalf("%s: got %q", name, b)
		}
	}
}

func TestGzipSniffedWithoutExtension(t *testing.T) {
	dir := t.TempDir()
	gz := filepath.Join(dir, "x.gz")
	w, err := CreateMaybeCompressed(gz)
	if err != nil {
		t.Fatal(err)
	}
	_, _ = io.WriteString(w, "hello")
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	renamed := filepath.Join(dir, "x.bin")
	if err := os.Rename(gz, renamed); err != nil {
		t.Fatal(err)
	}
	r, err := OpenMaybeCompressed(renamed)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = r.Close() }()
	b, _ := io.ReadAll(r)
	if string(b) != "hello" {
		t.Fatalf("got %q", b)
	}
}

func TestMissingSet(t *testing.T) {
	s := NewMissingSet(nil)
	for _, v := range []string{"", " ", "NA", " NaN ", "null"} {
		if !s.Has(v) {
			t.Errorf("%q should be missing", v)
		}
	}
	if s.Has("0") || s.Has("na") {
		t.Error("unexpected member")
	}
	custom := NewMissingSet([]string{"?"})
	if !custom.Has("?") || !custom.Has("") || custom.Has("NA") {
		t.Error("custom set wrong")
	}
	if TrimCompression("a.csv.gz") != "a.csv" {
		t.Error("TrimCompression")
	}
}
