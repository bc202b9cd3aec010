package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hugo-lorenzo-mato/jira-agent/internal/core"
)

type item struct {
	Name string `json:"name"`
}

func TestExtractJSON_Array(t *testing.T) {
	tests := []struct {
		name    string
		output  string
		want    string
		errCode string
	}{
		{"strict", `[{"name":"a"}]`, `[{"name":"a"}]`, ""},
		{"strict with whitespace", "\n  [1, 2]\n", "[1, 2]", ""},
		{"inside prose", "Sure! Here it is:\n[{\"name\":\"a\"}]\nHope that helps.", `[{"name":"a"}]`, ""},
		{"inside fence", "```json\n[1]\n```", "[1]", ""},
		{"no brackets", "I cannot do that.", "", core.CodeJSONNotFound},
		{"open only", "here: [1, 2", "", core.CodeJSONNotFound},
		{"reversed", "] then [", "", core.CodeJSONNotFound},
		{"broken span", "x [1, 2,] y", "", core.CodeJSONParseFailed},
		{"two arrays in prose", "a [1] b [2] c", "", core.CodeJSONParseFailed},
		{"strict object", `{"name":"a"}`, "", core.CodeUnexpectedFormat},
		{"strict string", `"text"`, "", core.CodeUnexpectedFormat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, err := ExtractJSON(tt.output, '[', ']')
			if tt.errCode == "" {
				require.NoError(t, err)
				assert.JSONEq(t, tt.want, string(raw))
				return
			}
			require.Error(t, err)
			var de *core.DomainError
			require.ErrorAs(t, err, &de)
			assert.Equal(t, tt.errCode, de.Code)
			assert.Equal(t, core.ErrCatExtraction, de.Category)
			assert.Equal(t, tt.output, de.Details["raw"])
		})
	}
}

func TestExtractJSON_MessageCarriesRaw(t *testing.T) {
	_, err := ExtractJSON("no json here", '[', ']')
	assert.Equal(t, "❌ Failed to locate JSON in response:\nno json here", core.UserMessage(err))
}

func TestDecodeArray(t *testing.T) {
	items, err := DecodeArray[item]("Result: [{\"name\":\"a\"},{\"name\":\"b\"}]")
	require.NoError(t, err)
	assert.Equal(t, []item{{Name: "a"}, {Name: "b"}}, items)

	_, err = DecodeArray[item](`["a", "b"]`)
	var de *core.DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, core.CodeUnexpectedFormat, de.Code)
}

func TestDecodeObject(t *testing.T) {
	var got struct {
		Action string `json:"action"`
	}
	require.NoError(t, DecodeObject("ok {\"action\":\"answer\"} done", &got))
	assert.Equal(t, "answer", got.Action)

	err := DecodeObject("[1]", &got)
	assert.True(t, core.IsCategory(err, core.ErrCatExtraction))
}
