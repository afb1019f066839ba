package scan

import (
	"encoding/csv"
	"encoding/hex"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/goccy/go-json"

	"github.com/samcharles93/sigprobe/internal/digest"
	"github.com/samcharles93/sigprobe/internal/signature"
)

// Order ranks labels for report output.
type Order []string

// DefaultOrder is the display order of the built-in types.
var DefaultOrder = Order{"PDF", "PNG", "JPEG", "ZIP", "MP3", "EXE", "RIFF", "PS_UTF8", "BAT", "ISO"}

// Rank places listed labels by position, then unlisted labels, then Unknown
// unless it is listed explicitly.
func (o Order) Rank(label string) int {
	if i := slices.Index(o, label); i >= 0 {
		return i
	}
	if label == signature.Unknown {
		return len(o) + 1
	}
	return len(o)
}

// SortResults orders results by label rank, keeping probe order within a rank.
func SortResults(results []ProbeResult, order Order) {
	slices.SortStableFunc(results, func(a, b ProbeResult) int {
		return order.Rank(a.Label) - order.Rank(b.Label)
	})
}

// FormatMagic renders bytes as space separated uppercase hex pairs.
func FormatMagic(b []byte) string {
	h := strings.ToUpper(hex.EncodeToString(b))
	var sb strings.Builder
	sb.Grow(len(h) + len(h)/2)
	for i := 0; i < len(h); i += 2 {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(h[i : i+2])
	}
	return sb.String()
}

// WriteCSV writes one row per result. prefixLen only labels the last column.
func WriteCSV(w io.Writer, results []ProbeResult, prefixLen int) error {
	cw := csv.NewWriter(w)
	header := []string{
		"File Name",
		"Hash MD5",
		"Hash SHA1",
		"Directory Found",
		"File Type",
		fmt.Sprintf("First %d-bytes of the Magic Numbers", prefixLen),
	}
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, r := range results {
		row := []string{
			r.Name,
			r.Digests[digest.MD5],
			r.Digests[digest.SHA1],
			r.Dir,
			r.Label,
			FormatMagic(r.Prefix),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

type jsonRow struct {
	Name    string            `json:"name"`
	Path    string            `json:"path"`
	Dir     string            `json:"directory"`
	Type    string            `json:"type"`
	Size    int64             `json:"size"`
	Magic   string            `json:"magic"`
	Digests map[string]string `json:"digests,omitempty"`
}

type jsonReport struct {
	Summary Summary   `json:"summary"`
	Results []jsonRow `json:"results"`
}

// WriteJSON writes the summary and rows as one indented document.
func WriteJSON(w io.Writer, rep *Report) error {
	out := jsonReport{Summary: rep.Summary, Results: make([]jsonRow, 0, len(rep.Results))}
	for _, r := range rep.Results {
		row := jsonRow{
			Name:  r.Name,
			Path:  r.Path,
			Dir:   r.Dir,
			Type:  r.Label,
			Size:  r.Size,
			Magic: FormatMagic(r.Prefix),
		}
		if len(r.Digests) > 0 {
			row.Digests = make(map[string]string, len(r.Digests))
			for alg, sum := range r.Digests {
				row.Digests[string(alg)] = sum
			}
		}
		out.Results = append(out.Results, row)
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}

// WriteSummary prints the human readable detection summary.
func WriteSummary(w io.Writer, s Summary, order Order) error {
	if _, err := fmt.Fprintln(w, "===== Detection Summary ====="); err != nil {
		return err
	}
	for _, label := range s.Labels(order) {
		if _, err := fmt.Fprintf(w, "%s: %d\n", label, s.Counts[label]); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "\nTotal matched files: %d\nUnknown files: %d\nUnreadable files: %d\n",
		s.Matched, s.Unknown, s.Unreadable)
	return err
}
