package graph

import (
	"net/url"
	"strings"
)

const upperhex = "0123456789ABCDEF"

// EscapeSegment percent-encodes s so it can be used as one opaque IRI path
// segment. Only unreserved characters (ALPHA, DIGIT, "-", ".", "_", "~") are
// kept; "/" is encoded as well.
func EscapeSegment(s string) string {
	var b strings.Builder
	b.Grow(len(s) * 3)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isUnreserved(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(upperhex[c>>4])
		b.WriteByte(upperhex[c&15])
	}
	return b.String()
}

func isUnreserved(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	case c == '-', c == '.', c == '_', c == '~':
		return true
	}
	return false
}

// Unescape decodes percent-encoding; invalid escapes leave s unchanged.
func Unescape(s string) string {
	out, err := url.PathUnescape(s)
	if err != nil {
		return s
	}
	return out
}

// DatasetPath derives the logical dataset path from a catalog URI: the URI is
// percent-decoded, a file suffix on the final segment is removed, and a single
// leading and trailing "/" is stripped.
func DatasetPath(uri string) string {
	p := Unescape(uri)
	if strings.Contains(p, ".") {
		p = stripExt(p)
	}
	p = strings.TrimPrefix(p, "/")
	p = strings.TrimSuffix(p, "/")
	return p
}

// stripExt removes the extension of the final segment. Leading dots of the
// segment do not start an extension.
func stripExt(p string) string {
	base := p[strings.LastIndex(p, "/")+1:]
	trimmed := strings.TrimLeft(base, ".")
	i := strings.LastIndex(trimmed, ".")
	if i < 0 {
		return p
	}
	cut := len(base) - len(trimmed) + i
	return p[:len(p)-len(base)+cut]
}

// InstanceNamespace returns the namespace for instance IRIs of a catalog
// tenant: "<host>/<tenant>/".
func InstanceNamespace(host, tenant string) string {
	ns := strings.TrimRight(host, "/") + "/"
	if tenant != "" {
		ns += strings.Trim(tenant, "/") + "/"
	}
	return ns
}

// TagPath returns the hierarchy path of a tag: /hierarchy/<name>/<tag path>.
func TagPath(hierarchy, tagPath string) string {
	return "/hierarchy/" + hierarchy + "/" + tagPath
}
