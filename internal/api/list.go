package api

import (
	"bytes"
	"encoding/json"
)

// listOf decodes a JSON array into *dst and anything else into an empty list.
type listOf[T any] struct {
	dst *[]T
}

func (l *listOf[T]) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || b[0] != '[' {
		*l.dst = []T{}
		return nil
	}
	var items []T
	if err := json.Unmarshal(b, &items); err != nil {
		return err
	}
	*l.dst = items
	return nil
}
