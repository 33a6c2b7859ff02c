package models

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// UserRef refers to a user the way the backend happens to serialize it:
// a username string on some endpoints, a numeric primary key on others.
type UserRef string

// UnmarshalJSON accepts a JSON string, number or null.
func (r *UserRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*r = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*r = UserRef(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	if _, err := strconv.ParseFloat(n.String(), 64); err != nil {
		return err
	}
	*r = UserRef(n.String())
	return nil
}

func (r UserRef) String() string {
	return string(r)
}
