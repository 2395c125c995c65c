package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// flexString decodes a JSON string or number into its textual form.
// Services disagree on whether ids and versions are numeric.
type flexString string

func (s *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}

	if data[0] == '"' {
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*s = flexString(v)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("expected string or number, got %s", data)
	}
	*s = flexString(n.String())
	return nil
}

// UnmarshalJSON accepts detailsId and version as strings or numbers
func (e *DocumentEntry) UnmarshalJSON(data []byte) error {
	type plain DocumentEntry
	aux := struct {
		*plain
		DetailsID flexString `json:"detailsId"`
		Version   flexString `json:"version"`
	}{
		plain:     (*plain)(e),
		DetailsID: flexString(e.DetailsID),
		Version:   flexString(e.Version),
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	e.DetailsID = string(aux.DetailsID)
	e.Version = string(aux.Version)
	return nil
}

// UnmarshalJSON accepts detailsId and version as strings or numbers
func (d *FileDescriptor) UnmarshalJSON(data []byte) error {
	type plain FileDescriptor
	aux := struct {
		*plain
		DetailsID flexString `json:"detailsId"`
		Version   flexString `json:"version"`
	}{
		plain:     (*plain)(d),
		DetailsID: flexString(d.DetailsID),
		Version:   flexString(d.Version),
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	d.DetailsID = string(aux.DetailsID)
	d.Version = string(aux.Version)
	return nil
}
