package core

import (
	"bytes"
	"encoding/json"
	"errors"
	"strconv"
)

// ID identifies an expense. Older data stores numeric ids, so an id whose
// text is a JSON number literal is written back as a number and anything
// else as a string.
type ID string

var ErrInvalidID = errors.New("invalid id")

// NewNumericID builds an ID from an integer.
func NewNumericID(n int64) ID {
	return ID(strconv.FormatInt(n, 10))
}

// String implements fmt.Stringer
func (id ID) String() string {
	return string(id)
}

func (id ID) numeric() bool {
	if id == "" {
		return false
	}
	first, last := id[0], id[len(id)-1]
	if (first != '-' && (first < '0' || first > '9')) || last < '0' || last > '9' {
		return false
	}
	return json.Valid([]byte(id))
}

func (id ID) MarshalJSON() ([]byte, error) {
	if id.numeric() {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return ErrInvalidID
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return ErrInvalidID
	}
	*id = ID(n.String())
	return nil
}
