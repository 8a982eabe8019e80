// Package filter describes metadata predicates applied to similarity queries.
package filter

import "fmt"

// MaxConditions is the maximum number of predicates in one filter.
const MaxConditions = 32

// Kind is the predicate type of a Condition.
type Kind int

// Condition kinds.
const (
	KindBool Kind = iota + 1
	KindMatch
	KindRange
)

// Filter is a conjunction of named predicates. The zero value matches everything.
// Builder methods return a new Filter; a later predicate on the same field replaces the earlier one.
type Filter struct {
	conds []Condition
}

// Condition is a single predicate over one metadata field.
type Condition struct {
	key       string
	kind      Kind
	boolVal   bool
	match     string
	rangeExpr Range
}

// Key returns the field name.
func (c Condition) Key() string { return c.key }

// Kind returns the predicate type.
func (c Condition) Kind() Kind { return c.kind }

// Bool returns the equality value of a KindBool condition.
func (c Condition) Bool() bool { return c.boolVal }

// Match returns the exact match value of a KindMatch condition.
func (c Condition) Match() string { return c.match }

// Range returns the bounds of a KindRange condition.
func (c Condition) Range() Range { return c.rangeExpr }

// Eq adds a boolean equality predicate.
func (f Filter) Eq(key string, v bool) Filter {
	return f.with(Condition{key: key, kind: KindBool, boolVal: v})
}

// Match adds an exact string (tag) predicate.
func (f Filter) Match(key, value string) Filter {
	return f.with(Condition{key: key, kind: KindMatch, match: value})
}

// InRange adds a numeric range predicate.
func (f Filter) InRange(key string, r Range) Filter {
	return f.with(Condition{key: key, kind: KindRange, rangeExpr: r})
}

func (f Filter) with(c Condition) Filter {
	conds := make([]Condition, 0, len(f.conds)+1)
	replaced := false
	for _, existing := range f.conds {
		if existing.key == c.key {
			conds = append(conds, c)
			replaced = true
			continue
		}
		conds = append(conds, existing)
	}
	if !replaced {
		conds = append(conds, c)
	}
	return Filter{conds: conds}
}

// Conditions returns the predicates in insertion order.
func (f Filter) Conditions() []Condition { return f.conds }

// IsEmpty reports whether the filter has no predicates.
func (f Filter) IsEmpty() bool { return len(f.conds) == 0 }

// Validate checks keys, match values and the predicate count.
func (f Filter) Validate() error {
	if len(f.conds) > MaxConditions {
		return fmt.Errorf("too many filter conditions (max %d)", MaxConditions)
	}
	for _, c := range f.conds {
		if c.key == "" {
			return fmt.Errorf("filter key is required")
		}
		if c.kind == KindMatch && c.match == "" {
			return fmt.Errorf("match value is required for key %q", c.key)
		}
	}
	return nil
}

// Range is a numeric range with gt/gte/lt/lte boundaries.
type Range struct {
	gt  *float64
	gte *float64
	lt  *float64
	lte *float64
}

// NewRange validates and creates a Range.
// At least one boundary required. gt/gte and lt/lte are mutually exclusive.
func NewRange(gt, gte, lt, lte *float64) (Range, error) {
	if gt == nil && gte == nil && lt == nil && lte == nil {
		return Range{}, fmt.Errorf("at least one range boundary is required")
	}
	if gt != nil && gte != nil {
		return Range{}, fmt.Errorf("cannot specify both gt and gte")
	}
	if lt != nil && lte != nil {
		return Range{}, fmt.Errorf("cannot specify both lt and lte")
	}
	return Range{gt: gt, gte: gte, lt: lt, lte: lte}, nil
}

// GT returns the lower exclusive bound.
func (r Range) GT() *float64 { return r.gt }

// GTE returns the lower inclusive bound.
func (r Range) GTE() *float64 { return r.gte }

// LT returns the upper exclusive bound.
func (r Range) LT() *float64 { return r.lt }

// LTE returns the upper inclusive bound.
func (r Range) LTE() *float64 { return r.lte }

// Contains reports whether v satisfies every bound.
func (r Range) Contains(v float64) bool {
	if r.gt != nil && v <= *r.gt {
		return false
	}
	if r.gte != nil && v < *r.gte {
		return false
	}
	if r.lt != nil && v >= *r.lt {
		return false
	}
	if r.lte != nil && v > *r.lte {
		return false
	}
	return true
}
