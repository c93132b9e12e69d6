package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeJSON(t *testing.T) {
	type payload struct {
		Headline string `json:"headline"`
	}

	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{name: "plain object", raw: `{"headline":"Rent talk"}`, want: "Rent talk"},
		{name: "fenced", raw: "```json\n{\"headline\":\"Fenced\"}\n```", want: "Fenced"},
		{name: "leading prose", raw: "Sure! Here it is: {\"headline\":\"Prose\"} hope that helps", want: "Prose"},
		{name: "no json", raw: "I cannot do that", wantErr: true},
		{name: "broken json", raw: `{"headline":`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p payload
			err := DecodeJSON(tt.raw, &p)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrParse)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, p.Headline)
		})
	}
}

func TestNewOptions_AppliesOverrides(t *testing.T) {
	o := NewOptions(Options{Temperature: 0.7, Model: "base"}, WithTemperature(0), WithModel(""), WithJSON())

	assert.Equal(t, 0.0, o.Temperature)
	assert.Equal(t, "base", o.Model)
	assert.True(t, o.JSON)
}
