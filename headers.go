// Copyright 2021 Intuitive Labs GmbH. All rights reserved.
//
// Use of this source code is governed by a BSD-style license
// that can be found in the LICENSE_BSD.txt file in the root of the source
// tree.

package httpmsg

import (
	"io"
	"sort"

	"github.com/intuitivelabs/bytescase"
)

// headerField is a single parsed or user-added (name, value) pair. Casing
// of Name is preserved exactly as inserted, for composition; comparisons
// against it are always case-insensitive.
type headerField struct {
	Name  string
	Value string
}

// Header is a case-insensitive-by-name, multi-valued header container.
// Duplicate names are permitted. Lookups (Has/Value/HasValue/At) and
// removeAll operate in insertion order, but composition (Each/WriteTo)
// iterates in case-insensitive name-sorted order: the original httpxx
// Headers container is a std::multimap<string,string,
// CaseInsensitiveComparator>, which always iterates sorted by key
// regardless of insertion order, and fields sharing a name keep their
// relative insertion order within that sort (multimap's stable-insert
// guarantee for equivalent keys).
type Header struct {
	fields []headerField
}

// NewHeader returns an empty Header ready for use.
func NewHeader() *Header {
	return &Header{}
}

// Reset empties the header container, keeping the underlying storage.
func (h *Header) Reset() {
	h.fields = h.fields[:0]
}

// Add appends a (name, value) pair, preserving any existing entries with
// the same (case-insensitively compared) name.
func (h *Header) Add(name, value string) {
	h.fields = append(h.fields, headerField{Name: name, Value: value})
}

// Has returns true if a header with the given name (case-insensitive) is
// present.
func (h *Header) Has(name string) bool {
	nameB := []byte(name)
	for i := range h.fields {
		if bytescase.CmpEq([]byte(h.fields[i].Name), nameB) {
			return true
		}
	}
	return false
}

// HasValue returns true if a header named name (case-insensitive) is
// present with exactly the given value (case-sensitive comparison, since
// header values are not generally case-insensitive).
func (h *Header) HasValue(name, value string) bool {
	nameB := []byte(name)
	for i := range h.fields {
		if bytescase.CmpEq([]byte(h.fields[i].Name), nameB) && h.fields[i].Value == value {
			return true
		}
	}
	return false
}

// Value returns the first value associated with name (case-insensitive),
// or "" if the header is absent.
func (h *Header) Value(name string) string {
	nameB := []byte(name)
	for i := range h.fields {
		if bytescase.CmpEq([]byte(h.fields[i].Name), nameB) {
			return h.fields[i].Value
		}
	}
	return ""
}

// Len returns the number of (name, value) pairs stored, including
// duplicates.
func (h *Header) Len() int {
	return len(h.fields)
}

// At returns the i-th (name, value) pair in insertion order.
func (h *Header) At(i int) (name, value string) {
	f := h.fields[i]
	return f.Name, f.Value
}

// Each calls fn for every (name, value) pair, in case-insensitive
// name-sorted (composition) order.
func (h *Header) Each(fn func(name, value string)) {
	for _, f := range h.sortedFields() {
		fn(f.Name, f.Value)
	}
}

// ByteLen returns the byte length of the composed form of the header
// block: the sum over all fields of len(name) + ": " + len(value) + CRLF.
func (h *Header) ByteLen() int {
	n := 0
	for i := range h.fields {
		n += len(h.fields[i].Name) + len(": ") + len(h.fields[i].Value) + len("\r\n")
	}
	return n
}

// Clone returns an independent copy of h.
func (h *Header) Clone() *Header {
	c := &Header{fields: make([]headerField, len(h.fields))}
	copy(c.fields, h.fields)
	return c
}

// removeAll drops every field whose name matches name (case-insensitive),
// keeping the relative order of the remaining fields.
func (h *Header) removeAll(name string) {
	nameB := []byte(name)
	out := h.fields[:0]
	for i := range h.fields {
		if bytescase.CmpEq([]byte(h.fields[i].Name), nameB) {
			continue
		}
		out = append(out, h.fields[i])
	}
	h.fields = out
}

// WriteTo writes the composed header block (each field as
// "Name: Value\r\n", in case-insensitive name-sorted order) to w. It
// implements io.WriterTo.
func (h *Header) WriteTo(w io.Writer) (int64, error) {
	var total int64
	for _, f := range h.sortedFields() {
		n, err := io.WriteString(w, f.Name)
		total += int64(n)
		if err != nil {
			return total, err
		}
		n, err = io.WriteString(w, ": ")
		total += int64(n)
		if err != nil {
			return total, err
		}
		n, err = io.WriteString(w, f.Value)
		total += int64(n)
		if err != nil {
			return total, err
		}
		n, err = io.WriteString(w, "\r\n")
		total += int64(n)
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// sortedFields returns a stable copy of h.fields ordered by case-
// insensitive name, mirroring the original httpxx Headers container's
// std::multimap<string,string,CaseInsensitiveComparator> iteration
// order. Fields sharing a name keep their relative insertion order.
func (h *Header) sortedFields() []headerField {
	sorted := make([]headerField, len(h.fields))
	copy(sorted, h.fields)
	sort.SliceStable(sorted, func(i, j int) bool {
		return headerNameLess(sorted[i].Name, sorted[j].Name)
	})
	return sorted
}

// headerNameLess reports whether a sorts strictly before b under ASCII
// case-insensitive comparison.
func headerNameLess(a, b string) bool {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		la, lb := bytescase.ByteToLower(a[i]), bytescase.ByteToLower(b[i])
		if la != lb {
			return la < lb
		}
	}
	return len(a) < len(b)
}
