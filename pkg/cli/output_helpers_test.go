package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateOutputFormat(t *testing.T) {
	tests := []struct {
		name    string
		output  string
		wantErr bool
	}{
		{name: "empty ok", output: "", wantErr: false},
		{name: "table ok", output: "table", wantErr: false},
		{name: "json ok", output: "json", wantErr: false},
		{name: "yaml rejected", output: "yaml", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateOutputFormat(tt.output)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestPrintTable(t *testing.T) {
	var buf bytes.Buffer
	printTable(&buf, []string{"subject", "label"}, [][]string{
		{"instance:TABLES%2FCUSTOMER", "CUSTOMER"},
		{"instance:TABLES%2FORDERS", "ORDERS"},
	})
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")

	require.Len(t, lines, 3, "expected header + 2 data rows")
	assert.Equal(t, "SUBJECT                     LABEL", lines[0])
	assert.Equal(t, "instance:TABLES%2FCUSTOMER  CUSTOMER", lines[1])
	assert.Equal(t, "instance:TABLES%2FORDERS    ORDERS", lines[2])
}

func TestPrintTable_Empty(t *testing.T) {
	var buf bytes.Buffer
	printTable(&buf, nil, [][]string{{"a"}})
	assert.Empty(t, buf.String(), "no columns produce no output")

	printTable(&buf, []string{"id"}, nil)
	assert.Equal(t, "ID\n", buf.String())
}

func TestPrintDetail(t *testing.T) {
	var buf bytes.Buffer
	printDetail(&buf, []field{{"import", "HANA,/TABLES"}, {"datasets", "2"}})
	assert.Equal(t, "import:   HANA,/TABLES\ndatasets: 2\n", buf.String())
}

func TestPrintJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printJSON(&buf, map[string]string{"statement": "SELECT a<b"}))

	var parsed map[string]string
	require.NoError(t, json.Unmarshal(buf.Bytes(), &parsed))
	assert.Equal(t, "SELECT a<b", parsed["statement"])
	assert.Contains(t, buf.String(), "\n  ", "indented")
	assert.Contains(t, buf.String(), "a<b", "HTML is not escaped")
}
