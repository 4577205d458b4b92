package transport

import (
	"net/url"
	"regexp"
)

// Payload is the tagged request body. The concrete type selects the encoding
// and, together with the path, which API generation the call belongs to.
type Payload interface {
	isPayload()
}

// Form is a legacy-surface payload: URL-form-encoded, sent as the query
// string on GET/DELETE and as the request body on POST. On the REST surface a
// Form payload always goes to the query string.
type Form url.Values

func (Form) isPayload() {}

// Values returns the underlying url.Values.
func (f Form) Values() url.Values {
	return url.Values(f)
}

// JSON is a REST-surface payload, marshalled as a JSON request body.
type JSON struct {
	V any
}

func (JSON) isPayload() {}

var indexedBracket = regexp.MustCompile(`\[\d+\]$`)

// encodeForm serializes form values. Array-valued fields must use the
// empty-bracket convention (key[]=a&key[]=b) — the service rejects indexed
// brackets — so any indexed-bracket key is normalized before encoding.
func encodeForm(values url.Values) string {
	normalized := make(url.Values, len(values))
	for key, vals := range values {
		k := indexedBracket.ReplaceAllString(key, "[]")
		normalized[k] = append(normalized[k], vals...)
	}
	return normalized.Encode()
}
