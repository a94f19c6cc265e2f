package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMetadataValidate(t *testing.T) {
	tests := []struct {
		name string
		meta Metadata
		ok   bool
	}{
		{"valid", Metadata{Source: "manual.pdf", Chapter: "Intro", Page: 1}, true},
		{"missing source", Metadata{Chapter: "Intro", Page: 1}, false},
		{"missing chapter", Metadata{Source: "manual.pdf", Page: 1}, false},
		{"zero page", Metadata{Source: "manual.pdf", Chapter: "Intro", Page: 0}, false},
		{"negative page", Metadata{Source: "manual.pdf", Chapter: "Intro", Page: -3}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.meta.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrIndex)
			}
		})
	}
}
