package httpmsg

import "strings"

// paramField is a single parsed or user-added query parameter.
type paramField struct {
	Name  string
	Value string
}

// Params is an ordered multi-map of query parameter (name, value) pairs,
// as found in a URI's encoded query segment.
type Params struct {
	fields []paramField
}

// NewParams returns an empty Params ready for use.
func NewParams() *Params {
	return &Params{}
}

// ParseParams parses s, a query string of the form "k=v(&k=v)*". Each
// pair is split on the first '=' (a missing '=' yields an empty value);
// names and values are percent-decoded ('+' decodes to space).
func ParseParams(s string) *Params {
	p := &Params{}
	pos := 0
	for pos < len(s) {
		nameStart := pos
		for pos < len(s) && s[pos] != '=' && s[pos] != '&' {
			pos++
		}
		name := s[nameStart:pos]
		if pos < len(s) && s[pos] == '=' {
			pos++
		}
		valueStart := pos
		for pos < len(s) && s[pos] != '&' {
			pos++
		}
		value := s[valueStart:pos]
		if pos < len(s) && s[pos] == '&' {
			pos++
		}
		p.fields = append(p.fields, paramField{Name: DecodePercent(name), Value: DecodePercent(value)})
	}
	return p
}

// Add appends a (name, value) pair.
func (p *Params) Add(name, value string) {
	p.fields = append(p.fields, paramField{Name: name, Value: value})
}

// Has returns true if a parameter named name is present.
func (p *Params) Has(name string) bool {
	for i := range p.fields {
		if p.fields[i].Name == name {
			return true
		}
	}
	return false
}

// HasValue returns true if a parameter named name is present with exactly
// the given value.
func (p *Params) HasValue(name, value string) bool {
	for i := range p.fields {
		if p.fields[i].Name == name && p.fields[i].Value == value {
			return true
		}
	}
	return false
}

// Value returns the first value associated with name, or "" if absent.
func (p *Params) Value(name string) string {
	for i := range p.fields {
		if p.fields[i].Name == name {
			return p.fields[i].Value
		}
	}
	return ""
}

// Len returns the number of (name, value) pairs.
func (p *Params) Len() int {
	return len(p.fields)
}

// At returns the i-th (name, value) pair in insertion order.
func (p *Params) At(i int) (name, value string) {
	f := p.fields[i]
	return f.Name, f.Value
}

// Compose renders p as "encoded_name=encoded_value" pairs joined by '&',
// skipping any pair whose name is empty.
func (p *Params) Compose() string {
	var b strings.Builder
	first := true
	for i := range p.fields {
		if p.fields[i].Name == "" {
			continue
		}
		if !first {
			b.WriteByte('&')
		}
		first = false
		b.WriteString(EncodePercent(p.fields[i].Name))
		b.WriteByte('=')
		b.WriteString(EncodePercent(p.fields[i].Value))
	}
	return b.String()
}
