package issues

import (
	"strings"

	"github.com/hugo-lorenzo-mato/jira-agent/internal/core"
)

// normalizers shape a raw edit value per field kind.
var normalizers = map[core.FieldKind]func(string) core.FieldValue{
	core.FieldGeneric: func(v string) core.FieldValue {
		return core.FieldValue{Kind: core.FieldGeneric, Text: strings.TrimSpace(v)}
	},
	core.FieldLabels: func(v string) core.FieldValue {
		return core.FieldValue{Kind: core.FieldLabels, Labels: splitTrim(v)}
	},
	core.FieldParent: func(v string) core.FieldValue {
		return core.FieldValue{Kind: core.FieldParent, ParentKey: strings.TrimSpace(v)}
	},
}

// FieldKindOf returns the kind of a tracker field name. Matching is exact.
func FieldKindOf(field string) core.FieldKind {
	switch field {
	case "labels":
		return core.FieldLabels
	case "parent":
		return core.FieldParent
	default:
		return core.FieldGeneric
	}
}

// NormalizeField coerces a raw value into the shape the field expects:
// labels become a list (split on ",", trimmed, order kept, nothing dropped),
// parent becomes {"key": value}, anything else a trimmed string.
func NormalizeField(field, value string) core.FieldValue {
	return normalizers[FieldKindOf(field)](value)
}
