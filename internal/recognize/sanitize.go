package recognize

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"maps"
	"strconv"
	"strings"
)

// StripCodeFences removes a markdown code fence wrapped around a model reply.
func StripCodeFences(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// SanitizeRecognizedJSON
// - Drops nulls so "not found" fields stay absent
// - Coerces a numeric amount to its digit string
// - Removes unknown keys (strict additionalProperties = false friendliness)
func SanitizeRecognizedJSON(raw []byte, logger *slog.Logger) ([]byte, []string, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, nil, fmt.Errorf("sanitize: decode: %w", err)
	}

	dropped := make([]string, 0, 8)

	if v, ok := m["amount"]; ok {
		switch t := v.(type) {
		case float64:
			m["amount"] = strconv.FormatFloat(t, 'f', -1, 64)
		case string:
			m["amount"] = strings.TrimSpace(t)
		}
	}

	// drop nulls at the top level and inside vendor
	for k, v := range maps.Clone(m) {
		if v == nil {
			delete(m, k)
			dropped = append(dropped, k+"(null)")
		}
	}
	if vendor, ok := m["vendor"].(map[string]any); ok {
		for k, v := range maps.Clone(vendor) {
			if v == nil {
				delete(vendor, k)
				dropped = append(dropped, "vendor."+k+"(null)")
			}
		}
	}

	// remove unknown keys (everything not in the schema set below)
	allowed := map[string]struct{}{
		"addressee": {}, "tx_date": {}, "amount": {}, "vendor": {},
		"registration_number": {}, "line_items": {},
	}
	for k := range maps.Clone(m) {
		if _, ok := allowed[k]; !ok {
			delete(m, k)
			dropped = append(dropped, k+"(unknown)")
		}
	}

	if len(dropped) > 0 {
		logger.Debug("recognize.sanitize.dropped", "keys", dropped)
	}

	out, err := json.Marshal(m)
	if err != nil {
		return nil, dropped, fmt.Errorf("sanitize: encode: %w", err)
	}
	return out, dropped, nil
}
