package utils

import "testing"

func TestParsePackageArg(t *testing.T) {
	cases := []struct {
		in, name, constraint string
	}{
		{"left-pad", "left-pad", ""},
		{"left-pad@^1.3.0", "left-pad", "^1.3.0"},
		{"@acme/ui", "@acme/ui", ""},
		{"@acme/ui@~0.2", "@acme/ui", "~0.2"},
		{"  spaced@1.0.0 ", "spaced", "1.0.0"},
		{"trailing@", "trailing", ""},
	}
	for _, c := range cases {
		name, constraint := ParsePackageArg(c.in)
		if name != c.name || constraint != c.constraint {
			t.Fatalf("ParsePackageArg(%q) = (%q, %q), want (%q, %q)", c.in, name, constraint, c.name, c.constraint)
		}
	}
}
