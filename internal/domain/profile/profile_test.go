package profile

import (
	"reflect"
	"testing"
)

func TestFromMap_Empty(t *testing.T) {
	md := FromMap(map[string]any{})
	if md.DisplayName() != "Untitled" {
		t.Errorf("DisplayName() = %q", md.DisplayName())
	}
	if md.RoleLine() != "Creator" {
		t.Errorf("RoleLine() = %q", md.RoleLine())
	}
	if md.Availability {
		t.Error("availability should default to false")
	}
	if md.PortfolioURL != nil || md.MediaURL != nil {
		t.Error("optional fields should be nil")
	}
}

func TestFromMap_Full(t *testing.T) {
	md := FromMap(map[string]any{
		"name":          "Maya Tan",
		"roles":         []any{"Video Editor", "Colorist"},
		"styles":        []string{"lo-fi"},
		"availability":  true,
		"portfolio_url": "https://example.com/maya",
		"rate":          42.0,
	})
	if md.DisplayName() != "Maya Tan" {
		t.Errorf("DisplayName() = %q", md.DisplayName())
	}
	if md.RoleLine() != "Video Editor, Colorist" {
		t.Errorf("RoleLine() = %q", md.RoleLine())
	}
	if !md.Availability {
		t.Error("expected availability true")
	}
	if md.Extra["rate"] != 42.0 {
		t.Errorf("unknown field not preserved: %v", md.Extra)
	}
}

func TestFromMap_LegacyRole(t *testing.T) {
	md := FromMap(map[string]any{"role": "Composer"})
	if !reflect.DeepEqual(md.Roles, []string{"Composer"}) {
		t.Errorf("Roles = %v", md.Roles)
	}

	md = FromMap(map[string]any{"role": "Composer", "roles": []string{"Sound Designer"}})
	if !reflect.DeepEqual(md.Roles, []string{"Sound Designer"}) {
		t.Errorf("roles should win over legacy role, got %v", md.Roles)
	}
}

func TestFromMap_WrongTypes(t *testing.T) {
	md := FromMap(map[string]any{"name": 12, "availability": "yes", "styles": 3})
	if md.Name != nil {
		t.Error("non-string name should be treated as missing")
	}
	if md.Availability {
		t.Error("non-bool availability should default to false")
	}
	if md.Styles != nil {
		t.Error("non-list styles should be treated as missing")
	}
}

func TestToMap_RoundTrip(t *testing.T) {
	in := Metadata{
		Name:         String("Leo Park"),
		Roles:        []string{"Composer"},
		Availability: true,
		Extra:        map[string]any{"rate": 10},
	}
	out := FromMap(in.ToMap())
	if out.DisplayName() != "Leo Park" || out.RoleLine() != "Composer" || !out.Availability {
		t.Errorf("round trip lost fields: %+v", out)
	}
	if out.Extra["rate"] != 10 {
		t.Errorf("extra not preserved: %v", out.Extra)
	}
}
