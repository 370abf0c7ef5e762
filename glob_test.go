package crucible

import "testing"

func TestIgnoreMatch_CanonicalPatterns(t *testing.T) {
	cases := []struct {
		path string
		want bool
	}{
		{".goutputstream-12345", true},
		{"sub/.DS_Store", true},
		{"a.swp", true},
		{"a.swpx", true},
		{"#emacs-lock#", true},
		{".#emacs-lock", true},
		{".foo.kate-swp", true},
		{".hg/store/data", true},
		{".git/HEAD", true},
		{".svn/entries", true},
		{"state.db", true},
		{"state.db-wal", true},
		{"tmp/state.db-journal/lock", true},
		{"target/debug/build", true},
		{"src/main.go", false},
		{"README.md", false},
	}
	for _, c := range cases {
		got := ignoreMatch(c.path, DefaultIgnoreGlobs)
		if got != c.want {
			t.Errorf("ignoreMatch(%q) = %v, want %v", c.path, got, c.want)
		}
	}
}
