// Package normalize turns raw benchmark records of every historical shape into
// model.Record values.
//
// The benchmark tooling changed its output several times and never wrote a
// version marker, so the shape is detected structurally. Detection is done once
// per benchmark set on its first present record; the resulting format's mapping
// is then applied to every record of that set.
//
// Known shapes, in detection order:
//
//	nested_phases_with_size  {"phases": {"metrics": [...], "bytecode_size": 1024}}
//	nested_phases            {"phases": {"metrics": [...]}}
//	flat_phases              {"metrics": [...]}
//	canonical                {"elapsed": 10, "bytecode_size": 1024}
package normalize
