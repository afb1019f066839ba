package scan

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/samcharles93/sigprobe/internal/digest"
	"github.com/samcharles93/sigprobe/internal/logger"
	"github.com/samcharles93/sigprobe/internal/signature"
)

var pngHeader = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}

func testMatcher(t *testing.T) *signature.Matcher {
	t.Helper()
	rs, err := signature.Load([]byte(`{"rules":[
		{"extension":"PNG","magic":["89504E470D0A1A0A"]},
		{"extension":"PDF","magic":["25504446"],"size_max":100},
		{"extension":"EXE","magic":["4D5A"]}
	]}`))
	if err != nil {
		t.Fatal(err)
	}
	return signature.NewMatcher(rs, signature.DefaultTolerance)
}

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestProbe(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	data := append(append([]byte{}, pngHeader...), bytes.Repeat([]byte{0x42}, 100)...)
	path := writeFile(t, dir, "image", data)

	r, err := Probe(path, testMatcher(t), 50, digest.MD5, digest.SHA1)
	if err != nil {
		t.Fatalf("probe: %v", err)
	}
	if r.Label != "PNG" || !r.Known() {
		t.Fatalf("label: %q", r.Label)
	}
	if len(r.Prefix) != 50 || !bytes.Equal(r.Prefix[:8], pngHeader) {
		t.Fatalf("prefix: % X", r.Prefix)
	}
	if r.Size != int64(len(data)) || r.Name != "image" || r.Dir != dir {
		t.Fatalf("unexpected metadata %+v", r)
	}
	wantMD5, _ := digest.Reader(bytes.NewReader(data), digest.MD5)
	wantSHA1, _ := digest.Reader(bytes.NewReader(data), digest.SHA1)
	if r.Digests[digest.MD5] != wantMD5 || r.Digests[digest.SHA1] != wantSHA1 {
		t.Fatalf("digests should cover the whole file: %v", r.Digests)
	}
}

func TestProbeShortFileAndSizeGate(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	m := testMatcher(t)

	short := writeFile(t, dir, "short", []byte("MZ"))
	r, err := Probe(short, m, 50)
	if err != nil {
		t.Fatal(err)
	}
	if r.Label != "EXE" || len(r.Prefix) != 2 {
		t.Fatalf("short file: %q % X", r.Label, r.Prefix)
	}

	big := writeFile(t, dir, "bigpdf", append([]byte("%PDF-1.7"), make([]byte, 500)...))
	r, err = Probe(big, m, 50)
	if err != nil {
		t.Fatal(err)
	}
	if r.Label != signature.Unknown {
		t.Fatalf("oversized pdf should be Unknown, got %q", r.Label)
	}

	empty := writeFile(t, dir, "empty", nil)
	r, err = Probe(empty, m, 50)
	if err != nil || r.Label != signature.Unknown {
		t.Fatalf("empty file: %q err=%v", r.Label, err)
	}
}

func TestProbeUnreadable(t *testing.T) {
	t.Parallel()

	_, err := Probe(filepath.Join(t.TempDir(), "missing"), testMatcher(t), 50)
	if !errors.Is(err, ErrUnreadable) {
		t.Fatalf("expected ErrUnreadable, got %v", err)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected underlying not-exist error, got %v", err)
	}
}

func TestScannerCountsAndOrders(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	paths := []string{
		writeFile(t, dir, "a", []byte("MZ\x90\x00")),
		writeFile(t, dir, "b", []byte("plain text")),
		writeFile(t, dir, "c", append([]byte{}, pngHeader...)),
		filepath.Join(dir, "missing"),
		writeFile(t, dir, "d", []byte("%PDF-1.4")),
		writeFile(t, dir, "e", append([]byte{}, pngHeader...)),
	}

	s := NewScanner(testMatcher(t), Options{Workers: 3, Logger: logger.Discard()})
	rep, err := s.Run(context.Background(), paths)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	sum := rep.Summary
	if sum.Total != 6 || sum.Matched != 4 || sum.Unknown != 1 || sum.Unreadable != 1 {
		t.Fatalf("unexpected summary %+v", sum)
	}
	if sum.Counts["PNG"] != 2 || sum.Counts["PDF"] != 1 || sum.Counts["EXE"] != 1 {
		t.Fatalf("unexpected counts %v", sum.Counts)
	}
	if sum.RunID == "" {
		t.Fatal("expected run id")
	}

	var names []string
	for _, r := range rep.Results {
		names = append(names, r.Name)
	}
	if got := strings.Join(names, ","); got != "d,c,e,a" {
		t.Fatalf("unexpected order %s", got)
	}
	if got := strings.Join(sum.Labels(DefaultOrder), ","); got != "PDF,PNG,EXE" {
		t.Fatalf("unexpected label order %s", got)
	}
}

func TestScannerIncludeUnknown(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	paths := []string{
		writeFile(t, dir, "x", []byte("???")),
		writeFile(t, dir, "y", []byte("MZ")),
	}
	s := NewScanner(testMatcher(t), Options{IncludeUnknown: true, Logger: logger.Discard()})
	rep, err := s.Run(context.Background(), paths)
	if err != nil {
		t.Fatal(err)
	}
	if len(rep.Results) != 2 || rep.Results[0].Label != "EXE" || rep.Results[1].Label != signature.Unknown {
		t.Fatalf("unknown rows should sort last: %+v", rep.Results)
	}
}

func TestScannerReadsLongestMagic(t *testing.T) {
	t.Parallel()

	magic := bytes.Repeat([]byte{0xAB}, 60)
	rs, err := signature.New([]signature.Rule{{Label: "LONG", Magic: magic}})
	if err != nil {
		t.Fatal(err)
	}
	dir := t.TempDir()
	path := writeFile(t, dir, "long", append(append([]byte{}, magic...), 0x01, 0x02))

	s := NewScanner(signature.NewMatcher(rs, signature.DefaultTolerance), Options{
		PrefixLen:      signature.DefaultPrefixLen,
		IncludeUnknown: true,
		Logger:         logger.Discard(),
	})
	if got := s.PrefixLen(); got != 60 {
		t.Fatalf("prefix length should grow to the longest magic, got %d", got)
	}
	rep, err := s.Run(context.Background(), []string{path})
	if err != nil {
		t.Fatal(err)
	}
	if len(rep.Results) != 1 || rep.Results[0].Label != "LONG" {
		t.Fatalf("expected LONG, got %+v", rep.Results)
	}
	if rep.Summary.Matched != 1 || rep.Summary.Unknown != 0 {
		t.Fatalf("unexpected summary %+v", rep.Summary)
	}
}

func TestScannerRejectsBadDigest(t *testing.T) {
	t.Parallel()

	s := NewScanner(testMatcher(t), Options{Digests: []digest.Algorithm{"nope"}})
	if _, err := s.Run(context.Background(), nil); err == nil {
		t.Fatal("expected error")
	}
}

func TestOrderRank(t *testing.T) {
	t.Parallel()

	o := Order{"PDF", "PNG"}
	tests := []struct {
		label string
		want  int
	}{
		{"PDF", 0},
		{"PNG", 1},
		{"ELF", 2},
		{signature.Unknown, 3},
	}
	for _, tc := range tests {
		if got := o.Rank(tc.label); got != tc.want {
			t.Errorf("Rank(%q): got %d want %d", tc.label, got, tc.want)
		}
	}
	if got := (Order{signature.Unknown, "PDF"}).Rank(signature.Unknown); got != 0 {
		t.Fatalf("explicit Unknown rank: %d", got)
	}
}

func TestFormatMagic(t *testing.T) {
	t.Parallel()

	if got := FormatMagic([]byte{0x89, 0x50, 0x4e, 0x47}); got != "89 50 4E 47" {
		t.Fatalf("got %q", got)
	}
	if got := FormatMagic(nil); got != "" {
		t.Fatalf("got %q", got)
	}
}

func TestWriteCSV(t *testing.T) {
	t.Parallel()

	results := []ProbeResult{{
		Name:    "blob",
		Dir:     "/data",
		Label:   "PNG",
		Prefix:  pngHeader[:4],
		Digests: map[digest.Algorithm]string{digest.MD5: "m", digest.SHA1: "s"},
	}}
	var buf bytes.Buffer
	if err := WriteCSV(&buf, results, 50); err != nil {
		t.Fatal(err)
	}
	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected header + 1 row, got %d", len(rows))
	}
	if rows[0][5] != "First 50-bytes of the Magic Numbers" {
		t.Fatalf("header: %v", rows[0])
	}
	want := []string{"blob", "m", "s", "/data", "PNG", "89 50 4E 47"}
	for i := range want {
		if rows[1][i] != want[i] {
			t.Fatalf("column %d: got %q want %q", i, rows[1][i], want[i])
		}
	}
}

func TestWriteJSONAndSummary(t *testing.T) {
	t.Parallel()

	rep := &Report{
		Results: []ProbeResult{{Name: "a", Path: "/a", Dir: "/", Label: "EXE", Size: 2, Prefix: []byte("MZ"),
			Digests: map[digest.Algorithm]string{digest.MD5: "abc"}}},
		Summary: Summary{RunID: "r", Total: 3, Matched: 1, Unknown: 1, Unreadable: 1, Counts: map[string]int{"EXE": 1}},
	}
	var buf bytes.Buffer
	if err := WriteJSON(&buf, rep); err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{`"type": "EXE"`, `"magic": "4D 5A"`, `"md5": "abc"`, `"unreadable": 1`} {
		if !strings.Contains(buf.String(), want) {
			t.Fatalf("expected %s in %s", want, buf.String())
		}
	}

	buf.Reset()
	if err := WriteSummary(&buf, rep.Summary, DefaultOrder); err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"EXE: 1", "Total matched files: 1", "Unknown files: 1", "Unreadable files: 1"} {
		if !strings.Contains(buf.String(), want) {
			t.Fatalf("expected %q in %s", want, buf.String())
		}
	}
}
