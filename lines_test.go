package wbbcpanel

import (
	"bytes"
	"compress/gzip"
	"os"
	"path/filepath"
	"testing"
)

func writeFixture(t *testing.T, name string, contents []byte) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, contents, 0644); err != nil {
		t.Fatal(err)
	}

	return path
}

func gzipBytes(t *testing.T, s string) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write([]byte(s)); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}

	return buf.Bytes()
}

func readAllLines(t *testing.T, path string) []string {
	t.Helper()

	lr, err := OpenLines(path, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer lr.Close()

	var out []string
	for lr.Scan() {
		out = append(out, lr.Text())
	}
	if err := lr.Err(); err != nil {
		t.Fatal(err)
	}

	return out
}

func TestOpenLinesPlainAndGzip(t *testing.T) {
	contents := "#header\nrs1\t1\t100\nrs2\t2\t200\n"

	for name, raw := range map[string][]byte{
		"plain.tsv":  []byte(contents),
		"packed.tsv": gzipBytes(t, contents),
	} {
		lines := readAllLines(t, writeFixture(t, name, raw))
		if len(lines) != 3 {
			t.Fatalf("%s: expected 3 lines, got %d: %q", name, len(lines), lines)
		}
		if lines[1] != "rs1\t1\t100" {
			t.Fatalf("%s: unexpected line %q", name, lines[1])
		}
	}
}

func TestOpenLinesTrimsCarriageReturn(t *testing.T) {
	lines := readAllLines(t, writeFixture(t, "crlf.tsv", []byte("rs1\t1\t100\r\nrs2\t2\t200\r\n")))
	if len(lines) != 2 || lines[0] != "rs1\t1\t100" || lines[1] != "rs2\t2\t200" {
		t.Fatalf("unexpected lines %q", lines)
	}
}

func TestOpenLinesShortAndEmptyFiles(t *testing.T) {
	if lines := readAllLines(t, writeFixture(t, "empty.tsv", nil)); len(lines) != 0 {
		t.Fatalf("expected no lines, got %q", lines)
	}

	if lines := readAllLines(t, writeFixture(t, "short.tsv", []byte("x\n"))); len(lines) != 1 || lines[0] != "x" {
		t.Fatalf("unexpected lines %q", lines)
	}
}

func TestOpenLinesMissingFile(t *testing.T) {
	if _, err := OpenLines(filepath.Join(t.TempDir(), "absent.vcf"), nil); !os.IsNotExist(err) {
		t.Fatalf("expected a not-exist error, got %v", err)
	}
}

func TestGoogleStoragePathWithoutClient(t *testing.T) {
	if _, err := OpenSeeker("gs://bucket/object.vcf.gz", nil); err == nil {
		t.Fatal("expected an error when no storage client is configured")
	}
}

func TestDetectDataType(t *testing.T) {
	for _, v := range []struct {
		Input    []byte
		Expected DataType
	}{
		{[]byte{0x1f, 0x8b, 0x08, 0x00, 0x00, 0x00}, DataTypeGzip},
		{[]byte{0x42, 0x5a, 0x68, 0x39}, DataTypeBZip2},
		{[]byte{0xfd, 0x37, 0x7a, 0x58, 0x5a, 0x00}, DataTypeXZ},
		{[]byte("rs1\t1\t100"), DataTypeNoCompression},
		{[]byte{0x1f}, DataTypeNoCompression},
	} {
		dt, err := DetectDataType(bytes.NewReader(v.Input))
		if err != nil {
			t.Fatal(err)
		}
		if dt != v.Expected {
			t.Fatalf("Input %v: got %s, expected %s", v.Input, dt, v.Expected)
		}
	}
}

func TestExpandHome(t *testing.T) {
	if got := ExpandHome("relative/path"); got != "relative/path" {
		t.Fatalf("unexpected expansion %q", got)
	}

	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory available")
	}
	if got, expected := ExpandHome("~/wbbc_vcf"), filepath.Join(home, "wbbc_vcf"); got != expected {
		t.Fatalf("got %q, expected %q", got, expected)
	}
}

func TestLineReaderPosition(t *testing.T) {
	path := writeFixture(t, "numbered.tsv", []byte("a\nb\nc\n"))

	lr, err := OpenLines(path, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer lr.Close()

	if lr.Path() != path {
		t.Fatalf("got path %q, expected %q", lr.Path(), path)
	}

	for expected := 1; lr.Scan(); expected++ {
		if lr.Line() != expected {
			t.Fatalf("%q: got line %d, expected %d", lr.Text(), lr.Line(), expected)
		}
	}
}
