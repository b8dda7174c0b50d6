// Package payload encodes reports for stores and sinks.
//
// Usage:
//
//	// JSON (default)
//	store := store.NewRedisStore(client)
//
//	// MessagePack
//	store := store.NewRedisStore(client, store.WithCodec(payload.MsgPack{}))
//
// Decoders look codecs up by content type, so a consumer can read reports
// written with any registered codec.
package payload

// Codec encodes/decodes report data.
// Implementations must be safe for concurrent use.
type Codec interface {
	// Encode serializes v to bytes.
	Encode(v any) ([]byte, error)

	// Decode deserializes bytes into v, which must be a pointer.
	Decode(data []byte, v any) error

	// ContentType returns the MIME type (e.g., "application/json").
	ContentType() string
}

// Default returns the default codec (JSON).
func Default() Codec {
	return JSON{}
}
