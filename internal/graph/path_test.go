package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDatasetPath(t *testing.T) {
	tests := []struct {
		name string
		uri  string
		want string
	}{
		{"table", "/TABLES/SALES/CUSTOMER", "TABLES/SALES/CUSTOMER"},
		{"file extension", "/files/landing/orders.csv", "files/landing/orders"},
		{"trailing slash", "/TABLES/SALES/", "TABLES/SALES"},
		{"encoded", "%2FTABLES%2FSALES%2FORDERS", "TABLES/SALES/ORDERS"},
		{"dot in directory only", "/v1.2/CUSTOMER", "v1.2/CUSTOMER"},
		{"hidden file", "/conf/.env", "conf/.env"},
		{"double extension", "/files/a.tar.gz", "files/a.tar"},
		{"bad escape kept", "/files/100%", "files/100%"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DatasetPath(tt.uri))
		})
	}
}

func TestEscapeSegment(t *testing.T) {
	assert.Equal(t, "TABLES%2FSALES%2FCUSTOMER", EscapeSegment("TABLES/SALES/CUSTOMER"))
	assert.Equal(t, "a%20b%3Ac", EscapeSegment("a b:c"))
	assert.Equal(t, "keep-._~09AZaz", EscapeSegment("keep-._~09AZaz"))
	assert.Equal(t, "%C3%A4", EscapeSegment("ä"))
}

func TestEscapeSegment_RoundTrip(t *testing.T) {
	for _, s := range []string{"TABLES/X Y/Z", "/hierarchy/Domain/Sales/EMEA", "100%"} {
		assert.Equal(t, s, Unescape(EscapeSegment(s)))
	}
}

func TestInstanceNamespace(t *testing.T) {
	assert.Equal(t, "https://di.example.com/acme/", InstanceNamespace("https://di.example.com/", "acme"))
	assert.Equal(t, "https://di.example.com/acme/", InstanceNamespace("https://di.example.com", "/acme/"))
	assert.Equal(t, "https://di.example.com/", InstanceNamespace("https://di.example.com", ""))
}

func TestTagPath(t *testing.T) {
	assert.Equal(t, "/hierarchy/Domain/Sales/EMEA", TagPath("Domain", "Sales/EMEA"))
}
