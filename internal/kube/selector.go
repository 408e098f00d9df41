package kube

import (
	"sort"
	"strings"
)

type Label struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Selector is an ordered set of label equality requirements attached to a
// service. A nil *Selector means the service has no selector at all; a
// non-nil Selector without entries matches every pod in the namespace.
type Selector struct {
	entries []Label
}

// NewSelector keeps the entries in the given order.
func NewSelector(entries ...Label) *Selector {
	return &Selector{entries: append([]Label{}, entries...)}
}

// SelectorFromMap converts a spec.selector map. Keys are ordered ascending,
// which is also the order labels.SelectorFromSet prints them in.
func SelectorFromMap(m map[string]string) *Selector {
	if m == nil {
		return nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	entries := make([]Label, 0, len(keys))
	for _, k := range keys {
		entries = append(entries, Label{Key: k, Value: m[k]})
	}
	return &Selector{entries: entries}
}

func (s *Selector) Entries() []Label {
	if s == nil {
		return nil
	}
	return append([]Label{}, s.entries...)
}

func (s *Selector) Len() int {
	if s == nil {
		return 0
	}
	return len(s.entries)
}

// IsEmpty reports a present selector with no entries.
func (s *Selector) IsEmpty() bool {
	return s != nil && len(s.entries) == 0
}

func (s *Selector) Map() map[string]string {
	if s == nil {
		return nil
	}
	out := make(map[string]string, len(s.entries))
	for _, e := range s.entries {
		out[e.Key] = e.Value
	}
	return out
}

func (s *Selector) String() string {
	return SelectorToLabelSelector(s)
}

// SelectorToLabelSelector renders the selector as the labelSelector query
// parameter of the list API: "k1=v1,k2=v2". An empty or absent selector
// gives "", which the API reads as "all".
//
// Values are not escaped: a value holding '=' or ',' produces a query the
// API will parse differently.
func SelectorToLabelSelector(s *Selector) string {
	if s.Len() == 0 {
		return ""
	}
	parts := make([]string, 0, len(s.entries))
	for _, e := range s.entries {
		parts = append(parts, e.Key+"="+e.Value)
	}
	return strings.Join(parts, ",")
}
