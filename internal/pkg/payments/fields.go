package payments

import (
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// Fields is the flat key/value view of one form-encoded gateway notification.
type Fields map[string]string

// FieldsFromValues flattens parsed form data. Gateways send each field once;
// if a key repeats, the first value wins.
func FieldsFromValues(values url.Values) Fields {
	fields := make(Fields, len(values))
	for key, vals := range values {
		if len(vals) > 0 {
			fields[key] = vals[0]
		}
	}
	return fields
}

// String returns the trimmed value for key, or "" when absent.
func (f Fields) String(key string) string {
	return strings.TrimSpace(f[key])
}

// Float returns the numeric value for key. Absent or unparseable values
// default to 0 so a sparse payload never fails parsing.
func (f Fields) Float(key string) float64 {
	raw := f.String(key)
	if raw == "" {
		return 0
	}
	val, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0
	}
	return val
}

// Encode renders the fields as a canonical key-sorted query string, used as
// the stored payload for the webhook event audit log.
func (f Fields) Encode() string {
	keys := make([]string, 0, len(f))
	for key := range f {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	values := url.Values{}
	for _, key := range keys {
		values.Set(key, f[key])
	}
	return values.Encode()
}
