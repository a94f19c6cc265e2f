package rag

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInferChapterSubstringMatch(t *testing.T) {
	known := []string{"Installation", "Troubleshooting"}

	got, ok := InferChapter("How do I fix things in the Troubleshooting section?", known)

	require.True(t, ok)
	assert.Equal(t, "Troubleshooting", got)
}

func TestInferChapterCaseInsensitive(t *testing.T) {
	known := []string{"Power Supply"}

	got, ok := InferChapter("what does the power supply chapter say?", known)

	require.True(t, ok)
	assert.Equal(t, "Power Supply", got)
}

func TestInferChapterLongestMatchWins(t *testing.T) {
	known := []string{"Setup", "Advanced Setup"}

	got, ok := InferChapter("Where is advanced setup documented?", known)

	require.True(t, ok)
	assert.Equal(t, "Advanced Setup", got)
}

func TestInferChapterNoMatch(t *testing.T) {
	_, ok := InferChapter("How do I reboot the device?", []string{"Installation"})
	assert.False(t, ok)
}

func TestInferChapterIgnoresEmptyNames(t *testing.T) {
	_, ok := InferChapter("Anything at all", []string{""})
	assert.False(t, ok)
}

func TestChapterMention(t *testing.T) {
	tests := []struct {
		query string
		want  string
		ok    bool
	}{
		{"What is covered in the Power Supply chapter?", "Power Supply", true},
		{"Summarize the section on Calibration", "Calibration", true},
		{"See the chapter about Wiring Basics for details", "Wiring Basics for details", true},
		{"tell me everything", "", false},
	}
	for _, tt := range tests {
		got, ok := chapterMention(tt.query)
		assert.Equal(t, tt.ok, ok, tt.query)
		assert.Equal(t, tt.want, got, tt.query)
	}
}
