package realm_test

import (
	"strings"
	"testing"

	"github.com/sagarc03/realm"
)

func TestIsValidName(t *testing.T) {
	// Create a name with invalid UTF-8 (without embedding raw invalid bytes in source)
	invalidUTF8 := string([]byte{'a', 0xff, 'b'})

	tt := []struct {
		Name     string
		RealmKey string
		Want     bool
	}{
		// Basics
		{Name: "empty name", RealmKey: "", Want: false},
		{Name: "single dot", RealmKey: ".", Want: false},
		{Name: "double dot", RealmKey: "..", Want: false},

		// Separators
		{Name: "slash", RealmKey: "a/b.realm", Want: false},
		{Name: "leading slash", RealmKey: "/a.realm", Want: false},
		{Name: "backslash", RealmKey: `a\b.realm`, Want: false},
		{Name: "traversal", RealmKey: "../a.realm", Want: false},

		// Forbidden characters
		{Name: "contains space", RealmKey: "my realm", Want: false},
		{Name: "contains tab", RealmKey: "my\trealm", Want: false},
		{Name: "contains newline", RealmKey: "my\nrealm", Want: false},
		{Name: "contains NUL", RealmKey: "my\x00realm", Want: false},
		{Name: "contains DEL", RealmKey: "my\x7frealm", Want: false},
		{Name: "contains control char", RealmKey: "my\x1frealm", Want: false},
		{Name: "contains no-break space", RealmKey: "my\u00a0realm", Want: false},

		// UTF-8 validity
		{Name: "invalid utf8", RealmKey: invalidUTF8, Want: false},

		// Length
		{Name: "max length", RealmKey: strings.Repeat("a", realm.MaxNameLength), Want: true},
		{Name: "too long", RealmKey: strings.Repeat("a", realm.MaxNameLength+1), Want: false},

		// Valid examples
		{Name: "default", RealmKey: "default.realm", Want: true},
		{Name: "no extension", RealmKey: "myrealm", Want: true},
		{Name: "hidden", RealmKey: ".hidden.realm", Want: true},
		{Name: "dots inside", RealmKey: "a..b", Want: true},
		{Name: "unicode", RealmKey: "grenouille-été.realm", Want: true},
		{Name: "punctuation", RealmKey: "frogs_v2-backup#1.realm", Want: true},
	}

	for _, tc := range tt {
		t.Run(tc.Name, func(t *testing.T) {
			if got := realm.IsValidName(tc.RealmKey); got != tc.Want {
				t.Errorf("IsValidName(%q) = %v, want %v", tc.RealmKey, got, tc.Want)
			}
		})
	}
}
