// Package chart turns analytics output into Vega-Lite chart specifications
// that the browser dashboard renders as-is.
package chart

import (
	"math"
	"strconv"
	"time"
)

const schemaURL = "https://vega.github.io/schema/vega-lite/v5.json"

// Spec is the subset of a Vega-Lite view used by the dashboard.
type Spec struct {
	Schema   string    `json:"$schema,omitempty"`
	Title    string    `json:"title,omitempty"`
	Width    string    `json:"width,omitempty"`
	Height   int       `json:"height,omitempty"`
	Data     *Data     `json:"data,omitempty"`
	Mark     *Mark     `json:"mark,omitempty"`
	Encoding *Encoding `json:"encoding,omitempty"`
	Layer    []Spec    `json:"layer,omitempty"`
	VConcat  []Spec    `json:"vconcat,omitempty"`
}

// Data holds inline rows.
type Data struct {
	Values []Row `json:"values"`
}

// Row is one inline data record.
type Row map[string]interface{}

// Mark describes how rows are drawn.
type Mark struct {
	Type       string  `json:"type"`
	Color      string  `json:"color,omitempty"`
	Size       float64 `json:"size,omitempty"`
	Opacity    float64 `json:"opacity,omitempty"`
	StrokeDash []int   `json:"strokeDash,omitempty"`
}

// Encoding maps fields to visual channels.
type Encoding struct {
	X       *Channel  `json:"x,omitempty"`
	Y       *Channel  `json:"y,omitempty"`
	Y2      *Channel  `json:"y2,omitempty"`
	Color   *Channel  `json:"color,omitempty"`
	Tooltip []Channel `json:"tooltip,omitempty"`
}

// Channel is a field binding.
type Channel struct {
	Field     string     `json:"field,omitempty"`
	Type      string     `json:"type,omitempty"`
	Title     string     `json:"title,omitempty"`
	Scale     *Scale     `json:"scale,omitempty"`
	Legend    *Legend    `json:"legend,omitempty"`
	Condition *Condition `json:"condition,omitempty"`
	Value     string     `json:"value,omitempty"`
}

// Scale configures an axis or color scale.
type Scale struct {
	Zero   *bool    `json:"zero,omitempty"`
	Domain []string `json:"domain,omitempty"`
	Range  []string `json:"range,omitempty"`
}

// Legend positions the legend.
type Legend struct {
	Orient string `json:"orient,omitempty"`
}

// Condition switches a channel value on a test expression.
type Condition struct {
	Test  string `json:"test"`
	Value string `json:"value"`
}

// Number is a float that encodes NaN and infinities as JSON null.
type Number float64

// MarshalJSON implements json.Marshaler.
func (n Number) MarshalJSON() ([]byte, error) {
	f := float64(n)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return []byte("null"), nil
	}
	return strconv.AppendFloat(nil, f, 'f', -1, 64), nil
}

func dateValue(t time.Time) string { return t.Format(time.RFC3339) }

func temporal(field string) *Channel {
	return &Channel{Field: field, Type: "temporal", Title: field}
}

func quantitative(field string) *Channel {
	noZero := false
	return &Channel{Field: field, Type: "quantitative", Title: field, Scale: &Scale{Zero: &noZero}}
}

func nominal(field string) *Channel {
	return &Channel{Field: field, Type: "nominal", Legend: &Legend{Orient: "top-left"}}
}

func tooltip(fields ...string) []Channel {
	out := make([]Channel, len(fields))
	for i, f := range fields {
		out[i] = Channel{Field: f}
	}
	return out
}

func root(title string, s Spec) Spec {
	s.Schema = schemaURL
	s.Title = title
	s.Width = "container"
	return s
}
