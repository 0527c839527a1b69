package strings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeTags(t *testing.T) {
	tests := []struct {
		name     string
		input    []string
		expected []string
	}{
		{name: "nil slice", input: nil, expected: nil},
		{name: "only blanks", input: []string{"", "  ", "\t"}, expected: nil},
		{name: "lowercases and trims", input: []string{"  Dog ", "CLIENT"}, expected: []string{"dog", "client"}},
		{name: "dedupes case-insensitively", input: []string{"dog", "Dog", " DOG "}, expected: []string{"dog"}},
		{name: "joins inner whitespace", input: []string{"nail  trim", "nail-trim"}, expected: []string{"nail-trim"}},
		{name: "keeps first-seen order", input: []string{"cat", "dog", "cat", "bird"}, expected: []string{"cat", "dog", "bird"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeTags(tt.input))
		})
	}
}

func TestSlugify(t *testing.T) {
	tests := map[string]string{
		"Bella's Bath & Brush": "bellas-bath-brush",
		"  Deluxe   Groom  ":   "deluxe-groom",
		"Nail trim (2x)":       "nail-trim-2x",
		"Müller Hundesalon":    "müller-hundesalon",
		"---":                  "",
		"":                     "",
		"Rex’s first visit!!!": "rexs-first-visit",
	}
	for input, expected := range tests {
		assert.Equal(t, expected, Slugify(input), "input %q", input)
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "grooming…", Truncate("grooming appointment", 9))
	assert.Equal(t, "…", Truncate("anything", 1))
	assert.Equal(t, "", Truncate("anything", 0))
	assert.Equal(t, "héllo", Truncate("héllo", 5))
}
