package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"catgraph/internal/config"
)

func TestMaskSecret(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"empty", "", ""},
		{"short", "abc", "****"},
		{"exactly_10", "1234567890", "****"},
		{"long_password", "correct-horse-battery", "corr****tery"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, maskSecret(tt.input))
		})
	}
}

func TestExportSinks(t *testing.T) {
	key, secret, region := "AKIA", "secret", "eu-central-1"

	assert.Equal(t, []string{"file", "gs"}, exportSinks(&config.Config{}))
	assert.Equal(t, []string{"file", "s3", "gs", "az"}, exportSinks(&config.Config{
		S3KeyID:      &key,
		S3Secret:     &secret,
		S3Region:     &region,
		AzureAccount: "acct",
		AzureKey:     "a2V5",
	}))
}
