package ois

import (
	"encoding/json"
	"fmt"
	"io"
)

// decodeOrderedUsers reads the /users object while keeping key order, which the
// board uses to break ties between teams with equal totals.
func decodeOrderedUsers(r io.Reader) (ordered[userPayload], error) {
	return decodeOrdered[userPayload](r, "users")
}

// decodeOrderedTasks reads the /tasks object while keeping key order, which decides
// the column order of tasks sharing the same order value.
func decodeOrderedTasks(r io.Reader) (ordered[taskPayload], error) {
	return decodeOrdered[taskPayload](r, "tasks")
}

func decodeOrdered[T any](r io.Reader, what string) (ordered[T], error) {
	out := ordered[T]{items: map[string]T{}}
	dec := json.NewDecoder(r)

	tok, err := dec.Token()
	if err != nil {
		return out, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return out, fmt.Errorf("%s: expected object, got %v", what, tok)
	}

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return out, err
		}
		key, ok := keyTok.(string)
		if !ok {
			return out, fmt.Errorf("%s: expected key, got %v", what, keyTok)
		}
		var v T
		if err := dec.Decode(&v); err != nil {
			return out, fmt.Errorf("%s: decode %q: %w", what, key, err)
		}
		if _, dup := out.items[key]; !dup {
			out.keys = append(out.keys, key)
		}
		out.items[key] = v
	}

	if _, err := dec.Token(); err != nil {
		return out, err
	}
	return out, nil
}
