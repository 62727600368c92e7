package cpd

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// Number decodes spreadsheet cells that may arrive as a JSON number, a
// numeric string, an empty string or null. Anything unparseable is zero.
type Number float64

func (n *Number) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*n = 0
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			*n = 0
			return nil
		}
		*n = Number(f)
		return nil
	}
	if data[0] == 't' || data[0] == 'f' {
		*n = 0
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*n = Number(f)
	return nil
}

func (n Number) Int() int {
	return int(n)
}

func (n Number) Float() float64 {
	return float64(n)
}

// Text decodes a cell that may be a string, number or boolean into its
// string form. null becomes the empty string.
type Text string

func (t *Text) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*t = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = Text(s)
		return nil
	}
	*t = Text(string(data))
	return nil
}

func (t Text) String() string {
	return string(t)
}
