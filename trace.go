package settings

import (
	"encoding/json"
)

// Source names the layer that supplied a resolved value.
type Source string

const (
	SourceNone   Source = ""
	SourceRecord Source = "record"
	SourceClass  Source = "class"
	SourceGlobal Source = "global"
)

// Trace captures the layers consulted while resolving a setting, in lookup
// order. Exactly one layer is marked Selected when a value was resolved.
type Trace struct {
	Owner   string       `json:"owner"`
	Setting string       `json:"setting"`
	Type    Type         `json:"type"`
	Layers  []Provenance `json:"layers"`
}

// Provenance details how a single layer contributed to a traced setting.
type Provenance struct {
	Source   Source `json:"source"`
	Raw      string `json:"raw,omitempty"`
	Value    any    `json:"value,omitempty"`
	Found    bool   `json:"found"`
	Selected bool   `json:"selected,omitempty"`
}

// Source reports the layer that supplied the value, or SourceNone.
func (t Trace) Source() Source {
	for _, layer := range t.Layers {
		if layer.Selected {
			return layer.Source
		}
	}
	return SourceNone
}

// ToJSON serialises the trace for logging or CLI output.
func (t Trace) ToJSON() ([]byte, error) {
	type alias Trace
	return json.Marshal(alias(t))
}

// TraceFromJSON deserialises a payload produced by ToJSON.
func TraceFromJSON(payload []byte) (Trace, error) {
	type alias Trace
	var trace alias
	if err := json.Unmarshal(payload, &trace); err != nil {
		return Trace{}, err
	}
	return Trace(trace), nil
}
