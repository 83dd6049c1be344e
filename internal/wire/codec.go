// Package wire defines the SimpleShare gRPC service: request/response
// messages, a JSON codec registered with grpc, the service descriptor used by
// the server and a typed client stub.
//
// Messages are plain Go structs encoded as JSON (content-subtype "json")
// instead of generated protobuf types, so the package has no code generation
// step.
package wire

import (
	"encoding/json"

	"google.golang.org/grpc/encoding"
)

// CodecName is the grpc content-subtype of the JSON codec.
const CodecName = "json"

type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonCodec) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

func (jsonCodec) Name() string {
	return CodecName
}

func init() {
	encoding.RegisterCodec(jsonCodec{})
}
