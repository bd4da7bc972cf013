package adaptor

import (
	"encoding/json"

	"github.com/songquanpeng/hamming-ci/model"
)

// Adaptor converts one wire shape of the results payload into the canonical model.
type Adaptor interface {
	GetSchemaName() string
	// Match reports whether the top level of a payload has this adaptor's shape.
	Match(probe Probe) bool
	ConvertResults(raw []byte) (*model.TestRunResults, error)
}

// Probe holds the top-level members of a payload, undecoded.
type Probe map[string]json.RawMessage

// NewProbe decodes the top level of raw. It fails for anything but a JSON object.
func NewProbe(raw []byte) (Probe, error) {
	var p Probe
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, err
	}
	return p, nil
}

// Has reports whether key is present and not null.
func (p Probe) Has(key string) bool {
	v, ok := p[key]
	return ok && string(v) != "null"
}

// HasNested reports whether p[key] is an object that has member sub.
func (p Probe) HasNested(key, sub string) bool {
	if !p.Has(key) {
		return false
	}
	inner, err := NewProbe(p[key])
	if err != nil {
		return false
	}
	return inner.Has(sub)
}
