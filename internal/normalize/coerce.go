package normalize

import (
	"math"
	"strconv"
	"strings"

	"github.com/maxbolgarin/perftrend/internal/model"
)

// toFloat converts a decoded JSON value to a number. Older tooling wrote some
// totals as strings, so numeric-looking text is accepted.
func toFloat(field string, v any) (float64, error) {
	var (
		f   float64
		err error
	)
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case string:
		f, err = strconv.ParseFloat(strings.TrimSpace(n), 64)
	case interface{ Float64() (float64, error) }:
		f, err = n.Float64()
	default:
		return 0, &model.MetricError{Field: field, Value: v}
	}
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, &model.MetricError{Field: field, Value: v}
	}
	return f, nil
}

// optionalFloat returns nil for an absent or null value
func optionalFloat(field string, m map[string]any, keys ...string) (*float64, error) {
	v, ok := firstPresent(m, keys)
	if !ok {
		return nil, nil
	}
	f, err := toFloat(field, v)
	if err != nil {
		return nil, err
	}
	return &f, nil
}
