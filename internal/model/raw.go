package model

import (
	jsoniter "github.com/json-iterator/go"
	"github.com/maxbolgarin/errm"
)

// RawRecord is an undecoded-shape measurement as stored by the benchmark tooling.
// Numbers keep their literal text so they can be coerced explicitly.
type RawRecord map[string]any

var rawJSON = jsoniter.Config{
	UseNumber:              true,
	EscapeHTML:             false,
	ValidateJsonRawMessage: true,
}.Froze()

// DecodeRawRecord parses a raw measurement. A JSON null decodes to an empty record.
func DecodeRawRecord(data []byte) (RawRecord, error) {
	var raw RawRecord
	if err := rawJSON.Unmarshal(data, &raw); err != nil {
		return nil, errm.Wrap(err, "failed to decode raw record")
	}
	if raw == nil {
		raw = RawRecord{}
	}
	return raw, nil
}
