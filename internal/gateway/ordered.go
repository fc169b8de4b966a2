package gateway

import (
	"bytes"
	"encoding/json"
)

// field is one key/value pair of an ordered JSON object.
type field struct {
	key   string
	value any
}

// orderedFields marshals to a JSON object whose keys appear exactly in
// slice order. The processor translates the request into a strict XML
// schema internally, so generic map serialization (randomized key order)
// would be rejected.
type orderedFields []field

func (o orderedFields) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range o {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(f.key)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := json.Marshal(f.value)
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
