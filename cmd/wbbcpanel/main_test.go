package main

import (
	"errors"
	"flag"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/carbocation/wbbcpanel/markers"
	"github.com/carbocation/wbbcpanel/pipeline"
)

func TestFileList(t *testing.T) {
	var files fileList

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.Var(&files, "tsv", "")
	if err := fs.Parse([]string{"-tsv", "a.tsv b.tsv", "-tsv", "c.tsv"}); err != nil {
		t.Fatalf("%+v", err)
	}

	if expected := (fileList{"a.tsv", "b.tsv", "c.tsv"}); !reflect.DeepEqual(files, expected) {
		t.Fatalf("expected %v, got %v", expected, files)
	}

	if files.String() != "a.tsv b.tsv c.tsv" {
		t.Fatalf("unexpected %q", files.String())
	}
}

func TestMarkerFiles(t *testing.T) {
	if _, err := markerFiles(nil, ""); !errors.Is(err, markers.ErrNoMarkerFiles) {
		t.Fatalf("expected ErrNoMarkerFiles, got %v", err)
	}

	dir := t.TempDir()
	if _, err := markerFiles(nil, dir); !errors.Is(err, markers.ErrNoMarkerFiles) {
		t.Fatalf("expected ErrNoMarkerFiles for an empty directory, got %v", err)
	}

	for _, name := range []string{"b.tsv", "a.tsv"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("rs1\t1\t100\n"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	files, err := markerFiles(nil, dir)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if expected := []string{filepath.Join(dir, "a.tsv"), filepath.Join(dir, "b.tsv")}; !reflect.DeepEqual(files, expected) {
		t.Fatalf("expected %v, got %v", expected, files)
	}

	// Explicit files and the directory listing are combined
	files, err = markerFiles(fileList{"x.tsv"}, dir)
	if expected := []string{"x.tsv", filepath.Join(dir, "a.tsv"), filepath.Join(dir, "b.tsv")}; err != nil || !reflect.DeepEqual(files, expected) {
		t.Fatalf("expected %v, got %v (%v)", expected, files, err)
	}

	files, err = markerFiles(fileList{"x.tsv"}, "")
	if err != nil || !reflect.DeepEqual(files, []string{"x.tsv"}) {
		t.Fatalf("unexpected %v, %v", files, err)
	}

	if _, err := markerFiles(nil, filepath.Join(dir, "absent")); err == nil {
		t.Fatal("expected an error for a missing directory")
	}
}

func TestNeedsStorage(t *testing.T) {
	for _, v := range []struct {
		Config   pipeline.Config
		Expected bool
	}{
		{pipeline.Config{MarkerFiles: []string{"a.tsv"}, PathTemplate: "wbbc_vcf/chr%s.vcf"}, false},
		{pipeline.Config{MarkerFiles: []string{"a.tsv", "gs://bucket/b.tsv"}}, true},
		{pipeline.Config{PathTemplate: "gs://bucket/chr%s.vcf.gz"}, true},
		{pipeline.Config{RegionFile: "gs://bucket/ld.tsv"}, true},
	} {
		if got := needsStorage(v.Config); got != v.Expected {
			t.Fatalf("%+v: expected %v, got %v", v.Config, v.Expected, got)
		}
	}
}
