package hooks

import "strings"

// ParseAuthHeaders decodes a webhook's stored auth_header field into the
// extra HTTP headers to send on delivery. The format is comma-separated
// "Key Value" pairs; the first space splits the key from the value and the
// remainder, spaces included, is kept as the value
// ("Authorization Bearer tok" -> Authorization: "Bearer tok").
// Segments missing either part are dropped, never an error: a malformed
// entry must not fail the delivery carrying it.
func ParseAuthHeaders(spec string) map[string]string {
	headers := map[string]string{}
	for _, seg := range strings.Split(spec, ",") {
		seg = strings.TrimSpace(seg)
		if seg == "" {
			continue
		}
		key, value, ok := strings.Cut(seg, " ")
		if !ok || key == "" || value == "" {
			continue
		}
		headers[key] = value
	}
	return headers
}
