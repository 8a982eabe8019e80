package db

import (
	"errors"
	"fmt"
	"strconv"
)

// Metric is the distance used by a vector field. Only cosine is indexed today.
type Metric string

// MetricCosine scores by 1 - cos(a, b).
const MetricCosine Metric = "COSINE"

// FieldKind selects how a hash field is indexed.
type FieldKind int

const (
	FieldTag FieldKind = iota
	FieldNumeric
	FieldVector
)

// Field is one SCHEMA entry of FT.CREATE.
type Field struct {
	Name  string
	Alias string
	Kind  FieldKind

	Separator string // TAG; empty keeps the server default ","

	Dim         int // VECTOR
	Metric      Metric
	M           int
	EFConstruct int
}

// TagField indexes a hash field as TAG. sep splits multi-valued fields.
func TagField(name, sep string) Field {
	return Field{Name: name, Kind: FieldTag, Separator: sep}
}

// NumericField indexes a hash field as NUMERIC.
func NumericField(name string) Field {
	return Field{Name: name, Kind: FieldNumeric}
}

// HNSWField indexes raw FLOAT32 bytes stored under name, queried as @alias.
// Zero m or efConstruct leave the server defaults.
func HNSWField(name, alias string, dim, m, efConstruct int) Field {
	return Field{
		Name: name, Alias: alias, Kind: FieldVector,
		Dim: dim, Metric: MetricCosine, M: m, EFConstruct: efConstruct,
	}
}

// Schema is a HASH-backed FT index over every key under Prefix.
type Schema struct {
	Index  string
	Prefix string
	Fields []Field
}

// Vector returns the vector field, if the schema has one.
func (s Schema) Vector() (Field, bool) {
	for _, f := range s.Fields {
		if f.Kind == FieldVector {
			return f, true
		}
	}
	return Field{}, false
}

// Validate rejects schemas the server would refuse.
func (s Schema) Validate() error {
	if !validIdentifier(s.Index) {
		return fmt.Errorf("invalid index name %q", s.Index)
	}
	if s.Prefix == "" {
		return errors.New("key prefix is required")
	}
	if len(s.Fields) == 0 {
		return errors.New("schema has no fields")
	}

	seen := make(map[string]struct{}, len(s.Fields))
	for i, f := range s.Fields {
		if f.Name == "" {
			return fmt.Errorf("field %d has no name", i)
		}
		ref := f.Name
		if f.Alias != "" {
			ref = f.Alias
		}
		if _, dup := seen[ref]; dup {
			return fmt.Errorf("duplicate field %q", ref)
		}
		seen[ref] = struct{}{}

		if f.Kind == FieldVector && f.Dim <= 0 {
			return fmt.Errorf("vector field %q needs a positive dimension", f.Name)
		}
	}
	return nil
}

// CreateArgs renders the FT.CREATE arguments that follow the command name.
func (s Schema) CreateArgs() ([]string, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}

	args := []string{s.Index, "ON", "HASH", "PREFIX", "1", s.Prefix, "SCHEMA"}
	for _, f := range s.Fields {
		args = append(args, f.Name)
		if f.Alias != "" {
			args = append(args, "AS", f.Alias)
		}
		switch f.Kind {
		case FieldTag:
			args = append(args, "TAG")
			if f.Separator != "" {
				args = append(args, "SEPARATOR", f.Separator)
			}
		case FieldNumeric:
			args = append(args, "NUMERIC")
		case FieldVector:
			args = append(args, hnswArgs(f)...)
		default:
			return nil, fmt.Errorf("field %q: unknown kind %d", f.Name, f.Kind)
		}
	}
	return args, nil
}

func hnswArgs(f Field) []string {
	metric := f.Metric
	if metric == "" {
		metric = MetricCosine
	}
	attrs := []string{
		"TYPE", "FLOAT32",
		"DIM", strconv.Itoa(f.Dim),
		"DISTANCE_METRIC", string(metric),
	}
	if f.M > 0 {
		attrs = append(attrs, "M", strconv.Itoa(f.M))
	}
	if f.EFConstruct > 0 {
		attrs = append(attrs, "EF_CONSTRUCTION", strconv.Itoa(f.EFConstruct))
	}
	return append([]string{"VECTOR", "HNSW", strconv.Itoa(len(attrs))}, attrs...)
}

// validIdentifier accepts [a-zA-Z0-9_:-]+.
func validIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '_', r == ':', r == '-':
		default:
			return false
		}
	}
	return true
}
