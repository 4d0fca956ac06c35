package crag

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseQuality(t *testing.T) {
	tests := []struct {
		response string
		want     Quality
	}{
		{"correct", QualityCorrect},
		{"Correct", QualityCorrect},
		{"  CORRECT.\n", QualityCorrect},
		{"This is incorrect", QualityCorrect},
		{"incorrect", QualityCorrect},
		{"correct, though partly incorrect", QualityCorrect},
		{"ambiguous", QualityAmbiguous},
		{"not sure", QualityAmbiguous},
		{"", QualityAmbiguous},
		{"wrong", QualityAmbiguous},
	}

	for _, tt := range tests {
		t.Run(tt.response, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseQuality(tt.response))
		})
	}
}

func TestQuality_String(t *testing.T) {
	assert.Equal(t, "unknown", QualityUnknown.String())
	assert.Equal(t, "correct", QualityCorrect.String())
	assert.Equal(t, "ambiguous", QualityAmbiguous.String())
	assert.Equal(t, "incorrect", QualityIncorrect.String())
	assert.Equal(t, "quality(42)", Quality(42).String())

	text, err := QualityAmbiguous.MarshalText()
	assert.NoError(t, err)
	assert.Equal(t, "ambiguous", string(text))
}

func TestQuality_Valid(t *testing.T) {
	assert.True(t, QualityCorrect.Valid())
	assert.True(t, QualityAmbiguous.Valid())
	assert.True(t, QualityIncorrect.Valid())
	assert.False(t, QualityUnknown.Valid())
	assert.False(t, Quality(42).Valid())
}

func TestRoute(t *testing.T) {
	assert.Equal(t, NodeGenerate, Route(QualityCorrect))
	assert.Equal(t, NodeWebSearch, Route(QualityAmbiguous))
	assert.Equal(t, NodeWebSearch, Route(QualityIncorrect))
	assert.Equal(t, NodeWebSearch, Route(QualityUnknown))
}
