package platform

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// count decodes a number that the API may send as an integer, a float, a
// numeric string or null. Anything unparseable counts as zero.
type count int

func (n *count) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*n = 0
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		b = []byte(s)
	}
	if v, err := strconv.ParseInt(string(b), 10, 64); err == nil {
		*n = count(v)
		return nil
	}
	if f, err := strconv.ParseFloat(string(b), 64); err == nil {
		*n = count(int(f))
		return nil
	}
	*n = 0
	return nil
}
