package regions

import "testing"

func TestResolveCBSA(t *testing.T) {
	tests := []struct {
		city  string
		state string
		want  string
		ok    bool
	}{
		{"Portland", "Oregon", "4138900", true},
		{"Seattle", "Washington", "5342660", true},
		{"San Francisco", "California", "0641860", true},
		{"Los Angeles", "California", "0631080", true},
		{"Phoenix", "Arizona", "0438060", true},
		{"Bend", "Oregon", "", false},
		{"portland", "Oregon", "", false}, // exact match, case included
		{"Portland", "OR", "", false},     // abbreviations are canonicalized by callers
	}

	for _, tt := range tests {
		got, ok := ResolveCBSA(tt.city, tt.state)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ResolveCBSA(%q, %q) = (%q, %v); want (%q, %v)",
				tt.city, tt.state, got, ok, tt.want, tt.ok)
		}
	}
}

func TestMetroByCode(t *testing.T) {
	m, ok := MetroByCode("4138900")
	if !ok {
		t.Fatal("expected Portland metro for 4138900")
	}
	if m.Name != "Portland-Vancouver-Hillsboro, OR-WA" {
		t.Errorf("unexpected metro name %q", m.Name)
	}
	if m.StateFIPS+m.AreaCode != m.FullCode {
		t.Errorf("full code %q is not state FIPS %q + area code %q", m.FullCode, m.StateFIPS, m.AreaCode)
	}

	if _, ok := MetroByCode("0000000"); ok {
		t.Error("expected no metro for 0000000")
	}
}

func TestMetroNames(t *testing.T) {
	names := MetroNames()
	if len(names) != len(MetroAreas) {
		t.Fatalf("expected %d metro names, got %d", len(MetroAreas), len(names))
	}
	for _, name := range names {
		if _, ok := MetroAreas[name]; !ok {
			t.Errorf("MetroNames returned unknown metro %q", name)
		}
	}
}

func TestCanonicalStateName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"OR", "Oregon"},
		{"or", "Oregon"},
		{"WA", "Washington"},
		{"DC", "District of Columbia"},
		{"Oregon", "Oregon"},
		{"XX", "XX"}, // unknown abbreviation passes through
		{"New Mexico", "New Mexico"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := CanonicalStateName(tt.in); got != tt.want {
			t.Errorf("CanonicalStateName(%q) = %q; want %q", tt.in, got, tt.want)
		}
	}
}
