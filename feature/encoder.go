package feature

import "sort"

// LabelEncoder maps string categories to stable integer codes. Codes are
// assigned in first-seen order by Fit; unknown categories transform to -1.
// The zero value is not usable, construct with NewLabelEncoder.
type LabelEncoder struct {
	// Vocab maps category to code. Exported so encoders round-trip
	// through the cache codecs.
	Vocab map[string]int
}

// NewLabelEncoder constructs an empty encoder.
func NewLabelEncoder() *LabelEncoder {
	return &LabelEncoder{Vocab: make(map[string]int)}
}

// Fit assigns codes to every unseen category in values, keeping codes of
// already known categories. Returns the encoder for chaining.
func (e *LabelEncoder) Fit(values []string) *LabelEncoder {
	for _, v := range values {
		if _, ok := e.Vocab[v]; !ok {
			e.Vocab[v] = len(e.Vocab)
		}
	}
	return e
}

// Transform maps values to their codes. Categories never seen by Fit map
// to -1.
func (e *LabelEncoder) Transform(values []string) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		code, ok := e.Vocab[v]
		if !ok {
			code = -1
		}
		out[i] = float64(code)
	}
	return out
}

// FitTransform fits on values and returns their codes.
func (e *LabelEncoder) FitTransform(values []string) []float64 {
	return e.Fit(values).Transform(values)
}

// Classes returns the known categories ordered by code.
func (e *LabelEncoder) Classes() []string {
	classes := make([]string, 0, len(e.Vocab))
	for v := range e.Vocab {
		classes = append(classes, v)
	}
	sort.Slice(classes, func(i, j int) bool { return e.Vocab[classes[i]] < e.Vocab[classes[j]] })
	return classes
}
