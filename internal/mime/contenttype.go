package mime

import "strings"

// ParseContentType splits a Content-Type header value into its lower-cased
// "type/subtype" and a parameter map. Parameter values may be quoted.
func ParseContentType(value string) (typ, subtype string, params map[string]string) {
	fields := strings.Split(value, ";")
	primary := strings.ToLower(strings.TrimSpace(fields[0]))
	typ, subtype = primary, ""
	if idx := strings.IndexByte(primary, '/'); idx >= 0 {
		typ, subtype = primary[:idx], primary[idx+1:]
	}

	params = map[string]string{}
	for _, raw := range fields[1:] {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		idx := strings.IndexByte(raw, '=')
		if idx < 0 {
			continue
		}
		name := strings.ToLower(strings.TrimSpace(raw[:idx]))
		val := strings.TrimSpace(raw[idx+1:])
		val = strings.Trim(val, `"`)
		params[name] = val
	}
	return typ, subtype, params
}

// ExtractHeaderParam does a case-insensitive "name=value" lookup in a
// raw header value, tolerating optional quoting around the value.
func ExtractHeaderParam(value, name string) (string, bool) {
	for _, raw := range strings.Split(value, ";") {
		raw = strings.TrimSpace(raw)
		idx := strings.IndexByte(raw, '=')
		if idx < 0 {
			continue
		}
		key := strings.TrimSpace(raw[:idx])
		if !strings.EqualFold(key, name) {
			continue
		}
		val := strings.TrimSpace(raw[idx+1:])
		return strings.Trim(val, `"`), true
	}
	return "", false
}

// ExtractBoundary is ExtractHeaderParam specialized for "boundary".
func ExtractBoundary(contentType string) (string, bool) {
	return ExtractHeaderParam(contentType, "boundary")
}
