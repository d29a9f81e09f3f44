package embed

import "testing"

func TestParseResourceKind(t *testing.T) {
	t.Helper()

	tests := []struct {
		token    string
		expected ResourceKind
		ok       bool
	}{
		{"album", KindAlbum, true},
		{"artist", KindArtist, true},
		{"episode", KindEpisode, true},
		{"playlist", KindPlaylist, true},
		{"show", KindShow, true},
		{"track", KindTrack, true},
		{"embed", 0, false},
		{"embed-podcast", 0, false},
		{"Track", 0, false},
		{"", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			kind, ok := ParseResourceKind(tt.token)
			if ok != tt.ok {
				t.Fatalf("ParseResourceKind(%q) ok = %v, want %v", tt.token, ok, tt.ok)
			}
			if ok && kind != tt.expected {
				t.Errorf("ParseResourceKind(%q) = %v, want %v", tt.token, kind, tt.expected)
			}
		})
	}
}

func TestResourceKind_String(t *testing.T) {
	kinds := Kinds()
	if len(kinds) != 6 {
		t.Fatalf("Kinds() returned %d kinds, want 6", len(kinds))
	}

	for _, kind := range kinds {
		parsed, ok := ParseResourceKind(kind.String())
		if !ok || parsed != kind {
			t.Errorf("ParseResourceKind(%q) = %v, %v; want %v", kind.String(), parsed, ok, kind)
		}
	}

	if got := ResourceKind(42).String(); got != "unknown" {
		t.Errorf("String() for out of range kind = %q, want %q", got, "unknown")
	}
}
