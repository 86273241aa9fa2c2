package perm

import (
	"testing"

	"github.com/ValentinKolb/kvbase/lib/db"
)

func TestParse(t *testing.T) {
	for _, p := range []Perm{None, Read, Write, Create, Admin} {
		got, err := Parse(p.String())
		if err != nil || got != p {
			t.Errorf("Parse(%q) = %v, %v", p.String(), got, err)
		}
	}
	if got, err := Parse(" READ "); err != nil || got != Read {
		t.Errorf("Parse is expected to ignore case and spaces, got %v, %v", got, err)
	}
	if _, err := Parse("root"); err == nil {
		t.Errorf("expected an error for an unknown level")
	}
}

func TestAllowed(t *testing.T) {
	u := NewUser("jane", Read)
	u.Local["secret*"] = None
	u.Local["secret_public"] = Write

	tests := []struct {
		name string
		db   string
		need Perm
		want bool
	}{
		{"global read", "sales", Read, true},
		{"global write denied", "sales", Write, false},
		{"pattern denies", "secret_hr", Read, false},
		{"exact entry wins over pattern", "secret_public", Write, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := u.Allowed(tt.need, db.Metadata{Name: tt.db})
			if got != tt.want {
				t.Errorf("Allowed(%s, %s) = %v, want %v", tt.need, tt.db, got, tt.want)
			}
		})
	}
}

func TestAdminIgnoresLocal(t *testing.T) {
	u := NewUser("admin", Admin)
	u.Local["*"] = None
	if !u.Allowed(Admin, db.Metadata{Name: "anything"}) {
		t.Errorf("admin must keep all permissions")
	}
}
