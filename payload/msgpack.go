package payload

import "github.com/vmihailenco/msgpack/v5"

// MsgPack implements Codec using MessagePack.
// Reports are noticeably smaller than with JSON when many objects leak.
type MsgPack struct{}

// Encode serializes v to MessagePack.
func (MsgPack) Encode(v any) ([]byte, error) {
	return msgpack.Marshal(v)
}

// Decode deserializes MessagePack into v.
func (MsgPack) Decode(data []byte, v any) error {
	return msgpack.Unmarshal(data, v)
}

// ContentType returns "application/msgpack".
func (MsgPack) ContentType() string {
	return "application/msgpack"
}

var _ Codec = MsgPack{}

func init() {
	Register(MsgPack{})
}
