package export

import (
	"path/filepath"
	"strings"
)

var contentTypes = map[string]string{
	".ttl":  "text/turtle",
	".nt":   "application/n-triples",
	".json": "application/json",
	".zst":  "application/zstd",
}

func contentType(key string) string {
	if ct, ok := contentTypes[strings.ToLower(filepath.Ext(key))]; ok {
		return ct
	}
	return "application/octet-stream"
}
