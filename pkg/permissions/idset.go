package permissions

import (
	"encoding/json"
	"fmt"
)

// ID is the element type of an IDSet
type ID interface {
	~int64 | ~string
}

// IDSet is either All ids or a Subset of them. The zero value is All.
type IDSet[T ID] struct {
	ids []T
}

// All is the unrestricted set
func All[T ID]() IDSet[T] {
	return IDSet[T]{}
}

// Subset restricts the set to ids. Duplicates are dropped. Subset with no ids
// is All, matching the stored representation.
func Subset[T ID](ids ...T) IDSet[T] {
	if len(ids) == 0 {
		return All[T]()
	}
	seen := make(map[T]struct{}, len(ids))
	out := make([]T, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return IDSet[T]{ids: out}
}

// IsAll reports whether the set is unrestricted
func (s IDSet[T]) IsAll() bool {
	return len(s.ids) == 0
}

// Contains reports membership. Every id is a member of All.
func (s IDSet[T]) Contains(id T) bool {
	if s.IsAll() {
		return true
	}
	for _, v := range s.ids {
		if v == id {
			return true
		}
	}
	return false
}

// IDs returns a copy of the subset's ids, or nil for All
func (s IDSet[T]) IDs() []T {
	if s.IsAll() {
		return nil
	}
	out := make([]T, len(s.ids))
	copy(out, s.ids)
	return out
}

func (s IDSet[T]) String() string {
	if s.IsAll() {
		return "all"
	}
	return fmt.Sprint(s.ids)
}

// MarshalJSON writes All as an empty array
func (s IDSet[T]) MarshalJSON() ([]byte, error) {
	if s.IsAll() {
		return []byte("[]"), nil
	}
	return json.Marshal(s.ids)
}

// UnmarshalJSON reads an array; an empty array is All
func (s *IDSet[T]) UnmarshalJSON(data []byte) error {
	var ids []T
	if err := json.Unmarshal(data, &ids); err != nil {
		return err
	}
	*s = Subset(ids...)
	return nil
}
