// Package profile models collaborator metadata stored alongside index vectors.
package profile

import (
	"fmt"
	"strings"
)

// Field names as stored in the index.
const (
	FieldName         = "name"
	FieldRoles        = "roles"
	FieldRole         = "role" // legacy single-role field
	FieldStyles       = "styles"
	FieldAvailability = "availability"
	FieldPortfolioURL = "portfolio_url"
	FieldLocation     = "location"
	FieldBio          = "bio"
	FieldMediaURL     = "media_url"
)

// Metadata is the structured view of a collaborator record.
// Absent optional fields are nil; unknown fields are kept in Extra untouched.
type Metadata struct {
	Name         *string
	Roles        []string
	Styles       []string
	Availability bool
	PortfolioURL *string
	Location     *string
	Bio          *string
	MediaURL     *string
	Extra        map[string]any
}

// FromMap decodes a metadata bag. Missing fields take their zero defaults;
// values of the wrong type are treated as missing.
func FromMap(m map[string]any) Metadata {
	var md Metadata
	for k, v := range m {
		switch k {
		case FieldName:
			md.Name = optString(v)
		case FieldRoles:
			md.Roles = stringList(v)
		case FieldRole:
			// handled below, only when roles is absent
		case FieldStyles:
			md.Styles = stringList(v)
		case FieldAvailability:
			md.Availability = boolValue(v)
		case FieldPortfolioURL:
			md.PortfolioURL = optString(v)
		case FieldLocation:
			md.Location = optString(v)
		case FieldBio:
			md.Bio = optString(v)
		case FieldMediaURL:
			md.MediaURL = optString(v)
		default:
			if md.Extra == nil {
				md.Extra = make(map[string]any)
			}
			md.Extra[k] = v
		}
	}
	if _, ok := m[FieldRoles]; !ok {
		if role := optString(m[FieldRole]); role != nil && *role != "" {
			md.Roles = []string{*role}
		}
	}
	return md
}

// ToMap encodes the record back into a metadata bag, including extras.
func (md Metadata) ToMap() map[string]any {
	out := make(map[string]any, len(md.Extra)+8)
	for k, v := range md.Extra {
		out[k] = v
	}
	putString(out, FieldName, md.Name)
	if len(md.Roles) > 0 {
		out[FieldRoles] = append([]string(nil), md.Roles...)
	}
	if len(md.Styles) > 0 {
		out[FieldStyles] = append([]string(nil), md.Styles...)
	}
	out[FieldAvailability] = md.Availability
	putString(out, FieldPortfolioURL, md.PortfolioURL)
	putString(out, FieldLocation, md.Location)
	putString(out, FieldBio, md.Bio)
	putString(out, FieldMediaURL, md.MediaURL)
	return out
}

// DisplayName returns the name or "Untitled".
func (md Metadata) DisplayName() string {
	if md.Name == nil || *md.Name == "" {
		return "Untitled"
	}
	return *md.Name
}

// RoleLine returns roles joined by ", " or "Creator".
func (md Metadata) RoleLine() string {
	if len(md.Roles) == 0 {
		return "Creator"
	}
	return strings.Join(md.Roles, ", ")
}

// String returns a pointer to s, for building Metadata literals.
func String(s string) *string { return &s }

func putString(m map[string]any, key string, v *string) {
	if v != nil {
		m[key] = *v
	}
}

func optString(v any) *string {
	switch s := v.(type) {
	case string:
		return &s
	case fmt.Stringer:
		str := s.String()
		return &str
	default:
		return nil
	}
}

func stringList(v any) []string {
	switch vals := v.(type) {
	case []string:
		return append([]string(nil), vals...)
	case []any:
		out := make([]string, 0, len(vals))
		for _, x := range vals {
			if s, ok := x.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case string:
		if vals == "" {
			return nil
		}
		return []string{vals}
	default:
		return nil
	}
}

func boolValue(v any) bool {
	switch b := v.(type) {
	case bool:
		return b
	case string:
		return strings.EqualFold(b, "true")
	default:
		return false
	}
}
