package reports

import "encoding/json"

// jsonBlob keeps a report in its serialized form between the cache and callers.
type jsonBlob []byte

func (b *jsonBlob) UnmarshalJSON(data []byte) error {
	*b = append((*b)[:0], data...)
	return nil
}

func (b jsonBlob) decode(dest any) error {
	return json.Unmarshal(b, dest)
}
