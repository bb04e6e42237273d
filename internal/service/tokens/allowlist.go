package tokens

import "sort"

// AllowList is the fixed set of call IDs tokens may be issued for.
// It is built once at startup and never mutated, so it is safe for concurrent use.
type AllowList struct {
	ids map[string]struct{}
}

// NewAllowList builds an allow-list from ids. Empty IDs are ignored.
func NewAllowList(ids ...string) *AllowList {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		set[id] = struct{}{}
	}
	return &AllowList{ids: set}
}

// Contains reports whether callID is allowed.
func (a *AllowList) Contains(callID string) bool {
	if a == nil || callID == "" {
		return false
	}
	_, ok := a.ids[callID]
	return ok
}

// IDs returns the allowed call IDs in sorted order.
func (a *AllowList) IDs() []string {
	if a == nil {
		return nil
	}
	out := make([]string, 0, len(a.ids))
	for id := range a.ids {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of allowed call IDs.
func (a *AllowList) Len() int {
	if a == nil {
		return 0
	}
	return len(a.ids)
}
