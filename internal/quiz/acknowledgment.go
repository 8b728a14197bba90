package quiz

import (
	"bytes"
	"encoding/json"

	"github.com/ZanzyTHEbar/elkquiz/internal/analysis"
	"github.com/ZanzyTHEbar/elkquiz/internal/catalog"
)

// CompactDimension is the per-dimension summary returned right after a submission.
type CompactDimension struct {
	Name       string `json:"name"`
	Score      int    `json:"score"`
	MaxScore   int    `json:"maxScore"`
	Percentage int    `json:"percentage"`
}

// Acknowledgment is the submit response payload. It marshals as one flat
// object: dimension keys first, in suite order, then the fixed fields. A
// dimension key that collides with a fixed field is dropped.
type Acknowledgment struct {
	DimensionKeys   []string
	Dimensions      map[string]CompactDimension
	ResultID        string
	TotalScore      int
	TopDimensions   []analysis.DimensionScore
	ScoringStandard analysis.ScoringStandard
	Suite           catalog.Summary
}

var reservedKeys = map[string]bool{
	"resultId":        true,
	"totalScore":      true,
	"topDimensions":   true,
	"scoringStandard": true,
	"suite":           true,
}

// NewAcknowledgment summarizes record.
func NewAcknowledgment(record *analysis.ResultRecord) *Acknowledgment {
	ack := &Acknowledgment{
		DimensionKeys:   make([]string, 0, len(record.Dimensions)),
		Dimensions:      make(map[string]CompactDimension, len(record.Dimensions)),
		ResultID:        record.ID,
		TotalScore:      record.TotalScore,
		TopDimensions:   record.TopDimensions,
		ScoringStandard: record.ScoringStandard,
		Suite:           record.Suite,
	}
	for _, dim := range record.Dimensions {
		if reservedKeys[dim.Key] {
			continue
		}
		if _, seen := ack.Dimensions[dim.Key]; !seen {
			ack.DimensionKeys = append(ack.DimensionKeys, dim.Key)
		}
		ack.Dimensions[dim.Key] = CompactDimension{
			Name:       dim.Name,
			Score:      dim.Score,
			MaxScore:   dim.MaxScore,
			Percentage: dim.Percentage,
		}
	}
	return ack
}

// MarshalJSON implements json.Marshaler.
func (a *Acknowledgment) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')

	write := func(key string, value any) error {
		if buf.Len() > 1 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(key)
		if err != nil {
			return err
		}
		v, err := json.Marshal(value)
		if err != nil {
			return err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
		return nil
	}

	for _, key := range a.DimensionKeys {
		if err := write(key, a.Dimensions[key]); err != nil {
			return nil, err
		}
	}
	fixed := []struct {
		key   string
		value any
	}{
		{"resultId", a.ResultID},
		{"totalScore", a.TotalScore},
		{"topDimensions", a.TopDimensions},
		{"scoringStandard", a.ScoringStandard},
		{"suite", a.Suite},
	}
	for _, f := range fixed {
		if err := write(f.key, f.value); err != nil {
			return nil, err
		}
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}
