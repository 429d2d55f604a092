package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidatorRejectsMissingAPIURL(t *testing.T) {
	v := NewValidator()
	err := v.Validate(&Config{})
	assert.Error(t, err)

	verrs, ok := err.(ValidationErrors)
	assert.True(t, ok)
	assert.Equal(t, "apiUrl", verrs[0].Field)
}

func TestValidatorRejectsUnknownMigration(t *testing.T) {
	v := NewValidator()
	err := v.Validate(&Config{APIURL: "https://example.com", Migration: "bogus"})
	assert.Error(t, err)
}

func TestValidatorAcceptsValidConfig(t *testing.T) {
	v := NewValidator()
	err := v.Validate(&Config{
		APIURL:      "https://example.com",
		Parallelism: 4,
		Migration:   "kapitan-0.29-to-0.30",
	})
	assert.NoError(t, err)
}
