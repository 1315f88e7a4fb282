package normalize

import (
	"github.com/maxbolgarin/perftrend/internal/model"
)

const (
	keyElapsed     = "elapsed"
	keyMetrics     = "metrics"
	keyPhases      = "phases"
	keyPhaseName   = "phase"
	keyMemoryUsage = "memory_usage"
)

// Output size and memory usage were spelled differently over time
var (
	outputSizeKeys  = []string{"bytecode_size", "bytecodeSize", "output_size"}
	memoryUsageKeys = []string{keyMemoryUsage, "memoryUsage"}
	phaseNameKeys   = []string{keyPhaseName, "name"}
)

type detector struct {
	format model.Format
	match  func(model.RawRecord) bool
}

// Order matters: nested shapes must be recognized before the flat rule derives totals
var detectors = []detector{
	{model.FormatNestedPhasesWithSize, isNestedPhasesWithSize},
	{model.FormatNestedPhases, isNestedPhases},
	{model.FormatFlatPhases, isFlatPhases},
	{model.FormatCanonical, isCanonical},
}

// Classify returns the format of a single raw record
func Classify(raw model.RawRecord) (model.Format, bool) {
	if raw == nil {
		return model.FormatNone, false
	}
	for _, d := range detectors {
		if d.match(raw) {
			return d.format, true
		}
	}
	return model.FormatNone, false
}

// Detect picks the format of a whole set from its first present record.
// Missing records are nil entries and are skipped. It returns the index of the
// inspected record, or -1 when every record is missing.
func Detect(raws []model.RawRecord) (model.Format, int, error) {
	for i, raw := range raws {
		if raw == nil {
			continue
		}
		format, ok := Classify(raw)
		if !ok {
			return model.FormatNone, i, model.ErrUnrecognizedSchema
		}
		return format, i, nil
	}
	return model.FormatNone, -1, nil
}

func isNestedPhases(raw model.RawRecord) bool {
	if present(raw, keyMetrics) {
		return false
	}
	phases, ok := object(raw, keyPhases)
	if !ok {
		return false
	}
	_, ok = list(phases, keyMetrics)
	return ok
}

func isNestedPhasesWithSize(raw model.RawRecord) bool {
	if !isNestedPhases(raw) {
		return false
	}
	phases, _ := object(raw, keyPhases)
	_, ok := firstPresent(phases, outputSizeKeys)
	return ok
}

func isFlatPhases(raw model.RawRecord) bool {
	_, ok := list(raw, keyMetrics)
	return ok && !present(raw, keyElapsed)
}

func isCanonical(raw model.RawRecord) bool {
	return present(raw, keyElapsed)
}

func present(m map[string]any, key string) bool {
	v, ok := m[key]
	return ok && v != nil
}

func firstPresent(m map[string]any, keys []string) (any, bool) {
	for _, key := range keys {
		if v, ok := m[key]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

func object(m map[string]any, key string) (map[string]any, bool) {
	switch v := m[key].(type) {
	case map[string]any:
		return v, true
	case model.RawRecord:
		return v, true
	default:
		return nil, false
	}
}

func list(m map[string]any, key string) ([]any, bool) {
	v, ok := m[key].([]any)
	return v, ok
}
