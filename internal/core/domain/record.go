package domain

import (
	"strings"
)

const (
	// FieldPackage names the package name field.
	FieldPackage = "Package"
	// FieldVersion names the package version field.
	FieldVersion = "Version"
	// FieldArchitecture names the architecture field.
	FieldArchitecture = "Architecture"
	// FieldFilename names the storage-relative path of the binary.
	FieldFilename = "Filename"
	// FieldSize names the binary length field.
	FieldSize = "Size"
)

// Identity is the (name, version) pair that decides whether two records describe the same package.
type Identity struct {
	Name    string
	Version string
}

// String renders the identity as name@version.
func (id Identity) String() string {
	return id.Name + "@" + id.Version
}

// Field is a single control field. Value holds everything after the colon with one
// leading space removed, including continuation lines joined by "\n".
type Field struct {
	Name  string
	Value string
}

// String renders the field in control file syntax.
func (f Field) String() string {
	if f.Value == "" || strings.HasPrefix(f.Value, "\n") {
		return f.Name + ":" + f.Value
	}
	return f.Name + ": " + f.Value
}

// Record is an ordered set of control fields describing one package in an index.
type Record struct {
	fields []Field
}

// NewRecord creates a record from the given fields, preserving their order.
func NewRecord(fields ...Field) Record {
	r := Record{fields: make([]Field, len(fields))}
	copy(r.fields, fields)
	return r
}

// ParseRecord parses one control paragraph. Blank lines are ignored and lines starting
// with a space or tab continue the previous field. Carriage returns are stripped, so
// String renders the canonical form: one space after each colon, none after an empty
// value, LF line endings.
func ParseRecord(text string) (Record, error) {
	var r Record
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSuffix(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		if line[0] == ' ' || line[0] == '\t' {
			if len(r.fields) == 0 {
				return Record{}, ErrMalformedRecord
			}
			last := &r.fields[len(r.fields)-1]
			last.Value += "\n" + line
			continue
		}
		name, value, ok := strings.Cut(line, ":")
		if !ok || name == "" {
			return Record{}, ErrMalformedRecord
		}
		r.fields = append(r.fields, Field{Name: name, Value: strings.TrimPrefix(value, " ")})
	}
	return r, nil
}

// Fields returns a copy of the record fields.
func (r Record) Fields() []Field {
	out := make([]Field, len(r.fields))
	copy(out, r.fields)
	return out
}

// Len returns the number of fields.
func (r Record) Len() int {
	return len(r.fields)
}

// Get returns the first line of the named field. Field names compare case-insensitively.
func (r Record) Get(name string) (string, bool) {
	for _, f := range r.fields {
		if strings.EqualFold(f.Name, name) {
			first, _, _ := strings.Cut(f.Value, "\n")
			return strings.TrimSpace(first), true
		}
	}
	return "", false
}

// Identity returns the package identity, or false when Package or Version is missing.
func (r Record) Identity() (Identity, bool) {
	name, okName := r.Get(FieldPackage)
	version, okVersion := r.Get(FieldVersion)
	if !okName || !okVersion || name == "" || version == "" {
		return Identity{}, false
	}
	return Identity{Name: name, Version: version}, true
}

// Append adds a field after the existing ones.
func (r Record) Append(name, value string) Record {
	fields := make([]Field, len(r.fields), len(r.fields)+1)
	copy(fields, r.fields)
	return Record{fields: append(fields, Field{Name: name, Value: value})}
}

// PackageFirst returns the record with the Package field moved to the first position.
// The relative order of all other fields is kept.
func (r Record) PackageFirst() Record {
	idx := -1
	for i, f := range r.fields {
		if strings.EqualFold(f.Name, FieldPackage) {
			idx = i
			break
		}
	}
	if idx <= 0 {
		return r
	}
	fields := make([]Field, 0, len(r.fields))
	fields = append(fields, r.fields[idx])
	fields = append(fields, r.fields[:idx]...)
	fields = append(fields, r.fields[idx+1:]...)
	return Record{fields: fields}
}

// String serializes the record as newline-joined fields without a trailing newline.
func (r Record) String() string {
	var b strings.Builder
	for i, f := range r.fields {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(f.String())
	}
	return b.String()
}
