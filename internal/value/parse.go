package value

import "strings"

// Parse turns raw test-case text into a Value. Authors enter inputs in
// inconsistent formats, so three conventions are tried in order of
// preference: strict JSON, language literals, and a naive comma split.
// Parse never fails; when everything else falls through it returns the
// trimmed original text.
func Parse(raw string) Value {
	cleaned := strings.TrimSpace(raw)
	if cleaned == "" {
		return Text("")
	}

	if v, err := DecodeJSON([]byte(cleaned)); err == nil {
		return v
	}

	if v, err := parseLiteral(cleaned); err == nil {
		return v
	}

	if strings.Contains(cleaned, ",") {
		parts := strings.Split(cleaned, ",")
		items := make([]Value, len(parts))
		for i, part := range parts {
			items[i] = Text(strings.TrimSpace(part))
		}
		return Seq(items...)
	}

	return Text(cleaned)
}
