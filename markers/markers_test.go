package markers

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/carbocation/wbbcpanel/ldregion"
)

func writeTSV(t *testing.T, dir, name, contents string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
		t.Fatal(err)
	}

	return path
}

func TestCollectFiltersRows(t *testing.T) {
	dir := t.TempDir()
	path := writeTSV(t, dir, "chip.txt", ""+
		"# rsid\tchromosome\tposition\tgenotype\n"+
		"\"rsid\",\"chromosome\"\n"+
		"\tindented\t1\t10\n"+
		"\n"+
		"rs1\t1\t100\tAA\n"+
		"rs2\tX\t200\tAG\n"+
		"rs3\t23\t300\tGG\n"+
		"rs4\t22\t400\tCT\n"+
		"rs1\t2\t500\tAA\n"+
		"rs5\n"+
		"rs6\tchr3\t600\tTT\n"+
		"rs7\t3\t700\r\n")

	c, err := Collect([]string{path}, nil, nil)
	if err != nil {
		t.Fatal(err)
	}

	if got, expected := c.Set.Sorted(), []string{"rs1", "rs4", "rs7"}; !reflect.DeepEqual(got, expected) {
		t.Fatalf("got %v, expected %v", got, expected)
	}
	if c.ExcludedHighLD != 0 {
		t.Fatalf("no region index was configured, but %d rows were excluded", c.ExcludedHighLD)
	}
}

func TestCollectExcludesHighLD(t *testing.T) {
	dir := t.TempDir()
	path := writeTSV(t, dir, "chip.txt", ""+
		"rs_in\t1\t5000000\n"+
		"rs_edge\t1\t5100000\n"+
		"rs_out\t1\t5100001\n"+
		"rs_other_chr\t2\t5000000\n"+
		"rs_nopos\t1\n"+
		"rs_badpos\t1\tNA\n")

	regions, err := ldregion.New([]ldregion.Region{{Chromosome: "1", Start: 4900000, End: 5100000}})
	if err != nil {
		t.Fatal(err)
	}

	c, err := Collect([]string{path}, regions, nil)
	if err != nil {
		t.Fatal(err)
	}

	if got, expected := c.Set.Sorted(), []string{"rs_other_chr", "rs_out"}; !reflect.DeepEqual(got, expected) {
		t.Fatalf("got %v, expected %v", got, expected)
	}
	if c.ExcludedHighLD != 2 {
		t.Fatalf("expected 2 rows excluded by LD, got %d", c.ExcludedHighLD)
	}
	if c.Skipped != 2 {
		t.Fatalf("expected 2 rows without a usable position, got %d", c.Skipped)
	}

	// No candidate may fall inside a region
	for _, id := range []string{"rs_in", "rs_edge"} {
		if c.Set.Has(id) {
			t.Fatalf("%s is inside a high LD region but was collected", id)
		}
	}
}

func TestCollectDeduplicatesAcrossFiles(t *testing.T) {
	dir := t.TempDir()
	a := writeTSV(t, dir, "a.txt", "rs1\t1\t100\nrs2\t2\t200\n")
	b := writeTSV(t, dir, "b.txt", "rs2\t2\t200\nrs3\t3\t300\n")

	c, err := Collect([]string{a, b}, nil, nil)
	if err != nil {
		t.Fatal(err)
	}

	if c.Set.Len() != 3 {
		t.Fatalf("expected 3 unique markers, got %v", c.Set.Sorted())
	}
}

func TestCollectErrors(t *testing.T) {
	if _, err := Collect(nil, nil, nil); !errors.Is(err, ErrNoMarkerFiles) {
		t.Fatalf("expected ErrNoMarkerFiles, got %v", err)
	}

	dir := t.TempDir()
	path := writeTSV(t, dir, "sex_only.txt", "rs1\tX\t100\nrs2\tY\t200\n")
	if _, err := Collect([]string{path}, nil, nil); !errors.Is(err, ErrNoCandidates) {
		t.Fatalf("expected ErrNoCandidates, got %v", err)
	}

	if _, err := Collect([]string{filepath.Join(dir, "absent.txt")}, nil, nil); err == nil {
		t.Fatal("expected an error for a missing marker file")
	}
}

func TestFilesInDir(t *testing.T) {
	dir := t.TempDir()
	writeTSV(t, dir, "b.txt", "rs1\t1\t100\n")
	writeTSV(t, dir, "a.txt", "rs2\t1\t100\n")
	if err := os.Mkdir(filepath.Join(dir, "nested"), 0755); err != nil {
		t.Fatal(err)
	}

	files, err := FilesInDir(dir)
	if err != nil {
		t.Fatal(err)
	}

	expected := []string{filepath.Join(dir, "a.txt"), filepath.Join(dir, "b.txt")}
	if !reflect.DeepEqual(files, expected) {
		t.Fatalf("got %v, expected %v", files, expected)
	}
}
