package normalize

import (
	"strconv"

	"github.com/maxbolgarin/errm"
	"github.com/maxbolgarin/perftrend/internal/model"
)

// Normalize maps a raw record of the given format to a model.Record.
// Commit and date are left empty; the collector attaches them.
func Normalize(format model.Format, raw model.RawRecord) (model.Record, error) {
	if raw == nil {
		return model.Record{}, model.ErrRecordNotFound
	}
	switch format {
	case model.FormatNestedPhasesWithSize:
		return fromNestedPhases(raw, true)
	case model.FormatNestedPhases:
		return fromNestedPhases(raw, false)
	case model.FormatFlatPhases:
		return fromFlatPhases(raw)
	case model.FormatCanonical:
		return fromCanonical(raw)
	default:
		return model.Record{}, errm.Errorf("cannot normalize record of format %q", format)
	}
}

func fromNestedPhases(raw model.RawRecord, withSize bool) (model.Record, error) {
	out := model.Record{Format: model.FormatNestedPhases}
	nested, _ := object(raw, keyPhases)

	var err error
	out.Phases, err = parsePhases(nested)
	if err != nil {
		return model.Record{}, err
	}

	if withSize {
		out.Format = model.FormatNestedPhasesWithSize
		out.OutputSize, err = optionalFloat("phases.bytecode_size", nested, outputSizeKeys...)
		if err != nil {
			return model.Record{}, err
		}
	}

	out.TotalElapsed, err = totalElapsed(raw, out.Phases)
	if err != nil {
		return model.Record{}, err
	}

	return out, nil
}

func fromFlatPhases(raw model.RawRecord) (model.Record, error) {
	out := model.Record{Format: model.FormatFlatPhases}

	var err error
	out.Phases, err = parsePhases(raw)
	if err != nil {
		return model.Record{}, err
	}
	out.TotalElapsed, err = totalElapsed(raw, out.Phases)
	if err != nil {
		return model.Record{}, err
	}

	return out, nil
}

func fromCanonical(raw model.RawRecord) (model.Record, error) {
	out := model.Record{Format: model.FormatCanonical}

	var err error
	out.Phases, err = parsePhases(raw)
	if err != nil {
		return model.Record{}, err
	}
	out.OutputSize, err = optionalFloat("bytecode_size", raw, outputSizeKeys...)
	if err != nil {
		return model.Record{}, err
	}
	out.TotalElapsed, err = totalElapsed(raw, out.Phases)
	if err != nil {
		return model.Record{}, err
	}

	return out, nil
}

// totalElapsed prefers an explicit total and falls back to the sum of phases
func totalElapsed(raw model.RawRecord, phases []model.Phase) (*float64, error) {
	total, err := optionalFloat(keyElapsed, raw, keyElapsed)
	if err != nil || total != nil {
		return total, err
	}
	if len(phases) == 0 {
		return nil, nil
	}
	var sum float64
	for _, p := range phases {
		sum += p.Elapsed
	}
	return &sum, nil
}

// parsePhases reads the metrics list of m; a missing list yields no phases
func parsePhases(m map[string]any) ([]model.Phase, error) {
	items, ok := list(m, keyMetrics)
	if !ok {
		return nil, nil
	}

	phases := make([]model.Phase, 0, len(items))
	for i, item := range items {
		fields, ok := item.(map[string]any)
		if !ok {
			return nil, errm.Errorf("metrics[%d] is not an object", i)
		}

		var (
			p   model.Phase
			err error
		)
		if name, ok := firstPresent(fields, phaseNameKeys); ok {
			p.Name, _ = name.(string)
		}
		if p.Name == "" {
			p.Name = "phase_" + strconv.Itoa(i)
		}
		if v, ok := firstPresent(fields, []string{keyElapsed}); ok {
			if p.Elapsed, err = toFloat(p.Name+"."+keyElapsed, v); err != nil {
				return nil, err
			}
		}
		if v, ok := firstPresent(fields, memoryUsageKeys); ok {
			if p.MemoryUsage, err = toFloat(p.Name+"."+keyMemoryUsage, v); err != nil {
				return nil, err
			}
		}

		phases = append(phases, p)
	}

	return phases, nil
}
