package issues

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hugo-lorenzo-mato/jira-agent/internal/core"
)

func TestNormalizeField(t *testing.T) {
	tests := []struct {
		field, value string
		payload      any
		display      string
	}{
		{"labels", "a, b ,c", []string{"a", "b", "c"}, "['a', 'b', 'c']"},
		{"labels", "a,,b", []string{"a", "", "b"}, "['a', '', 'b']"},
		{"labels", "solo", []string{"solo"}, "['solo']"},
		{"parent", " SCRUM-525 ", map[string]string{"key": "SCRUM-525"}, "{'key': 'SCRUM-525'}"},
		{"summary", "  New title  ", "New title", "New title"},
		{"Labels", "a,b", "a,b", "a,b"},
	}
	for _, tt := range tests {
		t.Run(tt.field+"="+tt.value, func(t *testing.T) {
			v := NormalizeField(tt.field, tt.value)
			assert.Equal(t, tt.payload, v.Payload())
			assert.Equal(t, tt.display, v.String())
		})
	}
}

func TestFieldKindOf(t *testing.T) {
	assert.Equal(t, core.FieldLabels, FieldKindOf("labels"))
	assert.Equal(t, core.FieldParent, FieldKindOf("parent"))
	assert.Equal(t, core.FieldGeneric, FieldKindOf("description"))
}
