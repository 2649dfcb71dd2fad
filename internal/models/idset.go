package models

import "encoding/json"

// IDSet is an ordered set of user ids. Operations never mutate the receiver.
type IDSet []string

// NewIDSet collapses duplicates, keeping first-seen order.
func NewIDSet(ids ...string) IDSet {
	return IDSet(nil).Union(ids...)
}

func (s IDSet) Contains(id string) bool {
	for _, v := range s {
		if v == id {
			return true
		}
	}
	return false
}

// Union returns s plus every id not already present.
func (s IDSet) Union(ids ...string) IDSet {
	out := make(IDSet, 0, len(s)+len(ids))
	seen := make(map[string]struct{}, len(s)+len(ids))
	for _, group := range [][]string{s, ids} {
		for _, id := range group {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	return out
}

// Without returns s minus ids.
func (s IDSet) Without(ids ...string) IDSet {
	drop := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}
	out := make(IDSet, 0, len(s))
	for _, id := range s {
		if _, ok := drop[id]; !ok {
			out = append(out, id)
		}
	}
	return out
}

func (s IDSet) Clone() IDSet {
	out := make(IDSet, len(s))
	copy(out, s)
	return out
}

// MarshalJSON renders a nil set as [] rather than null.
func (s IDSet) MarshalJSON() ([]byte, error) {
	if s == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(s))
}
