package planner

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnwrap(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "plain array", in: `[1,2]`, want: `[1,2]`},
		{name: "whitespace", in: "\n  [1]  \n", want: `[1]`},
		{name: "json fence", in: "```json\n[1]\n```", want: `[1]`},
		{name: "bare fence", in: "```\n[1]\n```", want: `[1]`},
		{name: "single line fence", in: "```json[1]```", want: `[1]`},
		{name: "fence without language on same line", in: "```[1]\n```", want: `[1]`},
		{name: "prose around fence", in: "Here is your plan:\n```json\n[{\"a\":1}]\n```\nGood luck!", want: `[{"a":1}]`},
		{name: "prose around array", in: "Sure! [1, 2] Hope it helps.", want: `[1, 2]`},
		{name: "object", in: "result: {\"a\": [1]} end", want: `{"a": [1]}`},
		{name: "no json", in: "nothing here", want: "nothing here"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Unwrap(tt.in))
		})
	}
}

func TestDecodeResponse(t *testing.T) {
	var out []int
	require.NoError(t, DecodeResponse("```json\n[3, 4]\n```", &out))
	assert.Equal(t, []int{3, 4}, out)

	err := DecodeResponse("", &out)
	assert.ErrorIs(t, err, errMalformedOutput)
	err = DecodeResponse("[1,", &out)
	assert.ErrorIs(t, err, errMalformedOutput)
}

func TestOracleRequestPrompt(t *testing.T) {
	req := OracleRequest{
		Role: "You are a planner.",
		Sections: []Section{
			{Title: "Profile", Lines: []string{"Hours: 3"}},
			{Title: "Notes", Verbatim: true, Lines: []string{"1. keep"}},
			{Title: "Empty"},
		},
		Requirements:   []string{"be brief", "be kind"},
		OutputContract: "Return JSON.",
	}
	prompt := req.Prompt()

	assert.True(t, strings.HasPrefix(prompt, "You are a planner.\n\nPROFILE:\n- Hours: 3\n"))
	assert.Contains(t, prompt, "NOTES:\n1. keep\n")
	assert.Contains(t, prompt, "EMPTY:\n- none\n")
	assert.Contains(t, prompt, "REQUIREMENTS:\n1. be brief\n2. be kind\n")
	assert.True(t, strings.HasSuffix(prompt, "Return JSON."))
}
