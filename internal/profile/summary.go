package profile

import (
	"io"

	"github.com/goccy/go-json"
	"github.com/montanaflynn/stats"
)

// Summary describes the distribution of derived prefix lengths.
type Summary struct {
	Count  int     `json:"count"`
	Min    int     `json:"min"`
	Max    int     `json:"max"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
}

func (r *Result) Summary() Summary {
	if len(r.Signatures) == 0 {
		return Summary{}
	}
	lengths := make([]int, len(r.Signatures))
	for i, s := range r.Signatures {
		lengths[i] = s.PrefixLen
	}
	data := stats.LoadRawData(lengths)
	lo, _ := stats.Min(data)
	hi, _ := stats.Max(data)
	mean, _ := stats.Mean(data)
	median, _ := stats.Median(data)
	return Summary{
		Count:  len(lengths),
		Min:    int(lo),
		Max:    int(hi),
		Mean:   mean,
		Median: median,
	}
}

// WriteJSON writes signatures as an indented JSON array. A nil slice is
// written as an empty array.
func WriteJSON(w io.Writer, sigs []DerivedSignature) error {
	if sigs == nil {
		sigs = []DerivedSignature{}
	}
	data, err := json.MarshalIndent(sigs, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}

// ReadJSON decodes a file written by WriteJSON.
func ReadJSON(r io.Reader) ([]DerivedSignature, error) {
	var sigs []DerivedSignature
	if err := json.NewDecoder(r).Decode(&sigs); err != nil {
		return nil, err
	}
	return sigs, nil
}
