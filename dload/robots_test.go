package dload

import "testing"

func TestParseRobotsTag(t *testing.T) {
	tests := []struct {
		in         string
		wantUA     string
		wantDirs   []string
		wantOK     bool
	}{
		{"noindex", "", []string{"noindex"}, true},
		{"googlebot: noindex, noimageindex", "googlebot", []string{"noindex", "noimageindex"}, true},
		{"  NoAI  ", "", []string{"noai"}, true},
		{"", "", nil, false},
		{"  ", "", nil, false},
		{"bot:", "", nil, false},
	}
	for _, tc := range tests {
		dirs, ua, ok := parseRobotsTag(tc.in)
		if ok != tc.wantOK {
			t.Fatalf("parseRobotsTag(%q) ok = %v, want %v", tc.in, ok, tc.wantOK)
		}
		if !ok {
			continue
		}
		if ua != tc.wantUA {
			t.Errorf("parseRobotsTag(%q) ua = %q, want %q", tc.in, ua, tc.wantUA)
		}
		if len(dirs) != len(tc.wantDirs) {
			t.Fatalf("parseRobotsTag(%q) dirs = %v, want %v", tc.in, dirs, tc.wantDirs)
		}
		for i := range dirs {
			if dirs[i] != tc.wantDirs[i] {
				t.Errorf("parseRobotsTag(%q) dirs[%d] = %q, want %q", tc.in, i, dirs[i], tc.wantDirs[i])
			}
		}
	}
}

func TestRobotsDisallowed(t *testing.T) {
	disallowed := NewDisallowedSet([]string{"noai", "noindex"})

	cases := []struct {
		name    string
		headers []string
		uaToken string
		want    bool
	}{
		{"no headers", nil, "mybot", false},
		{"global disallow", []string{"noindex"}, "mybot", true},
		{"different ua scoped directive", []string{"othercrawler: noindex"}, "mybot", false},
		{"matching ua scoped directive", []string{"mybot: noai"}, "mybot", true},
		{"allowed directive only", []string{"all"}, "mybot", false},
		{"malformed header skipped", []string{""}, "mybot", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := robotsDisallowed(tc.headers, tc.uaToken, disallowed)
			if got != tc.want {
				t.Errorf("robotsDisallowed(%v, %q) = %v, want %v", tc.headers, tc.uaToken, got, tc.want)
			}
		})
	}
}
