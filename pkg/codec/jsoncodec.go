// pkg/codec/jsoncodec.go
package codec

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Codec turns envelope payloads into typed values and back.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
	ContentType() string
}

// ErrEmptyPayload is returned when a message carries no body. A literal
// null is a body and decodes to the zero value.
var ErrEmptyPayload = errors.New("codec: empty payload")

type jsonCodec struct{ strict bool }

// JSON tolerates unknown fields, so producers may add fields without breaking consumers.
var JSON Codec = jsonCodec{}

// JSONStrict rejects unknown fields and trailing content.
var JSONStrict Codec = jsonCodec{strict: true}

func (jsonCodec) Marshal(v any) ([]byte, error) {
	buf := &bytes.Buffer{}
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("json encode: %w", err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func (c jsonCodec) Unmarshal(data []byte, v any) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return ErrEmptyPayload
	}
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	if c.strict {
		dec.DisallowUnknownFields()
	}
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("json decode: %w", err)
	}
	// anything after the first value must be EOF
	var extra any
	if err := dec.Decode(&extra); err != io.EOF {
		return fmt.Errorf("json trailing content")
	}
	return nil
}

// IsNull reports whether data is empty or the JSON literal null.
func IsNull(data []byte) bool {
	trimmed := bytes.TrimSpace(data)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

func (jsonCodec) ContentType() string { return "application/json" }
