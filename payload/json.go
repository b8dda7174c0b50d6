package payload

import "encoding/json"

// JSON implements Codec using encoding/json.
type JSON struct{}

// Encode serializes v to JSON.
func (JSON) Encode(v any) ([]byte, error) {
	return json.Marshal(v)
}

// Decode deserializes JSON into v.
func (JSON) Decode(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

// ContentType returns "application/json".
func (JSON) ContentType() string {
	return "application/json"
}

var _ Codec = JSON{}
