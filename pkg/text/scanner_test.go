package text

import (
	"reflect"
	"testing"
)

func TestScanner_ExtractURLs(t *testing.T) {
	t.Helper()

	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{
			"Single link in a sentence",
			"Check this out: https://open.spotify.com/track/4uLU6hMCjMI75M1A2tKUQC",
			[]string{"https://open.spotify.com/track/4uLU6hMCjMI75M1A2tKUQC"},
		},
		{
			"Trailing punctuation",
			"Listen to https://open.spotify.com/album/1DFixLWuPkv3KT3TnV35m3!",
			[]string{"https://open.spotify.com/album/1DFixLWuPkv3KT3TnV35m3"},
		},
		{
			"Tracking parameters removed",
			"https://open.spotify.com/track/4uLU6hMCjMI75M1A2tKUQC?si=abc123&utm_source=copy",
			[]string{"https://open.spotify.com/track/4uLU6hMCjMI75M1A2tKUQC"},
		},
		{
			"Other parameters kept",
			"https://example.com/watch?v=dQw4w9WgXcQ&si=x",
			[]string{"https://example.com/watch?v=dQw4w9WgXcQ"},
		},
		{
			"Multiple links keep order",
			"first http://a.example then (https://open.spotify.com/show/7GkO2poedjbltWT5lduL5w)",
			[]string{"http://a.example", "https://open.spotify.com/show/7GkO2poedjbltWT5lduL5w"},
		},
		{
			"Fullwidth colon normalized",
			"https：//open.spotify.com/track/4uLU6hMCjMI75M1A2tKUQC",
			[]string{"https://open.spotify.com/track/4uLU6hMCjMI75M1A2tKUQC"},
		},
		{
			"No host",
			"https:///nothing",
			nil,
		},
		{
			"Plain text",
			"just some words",
			nil,
		},
	}

	scanner := NewScanner()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := scanner.ExtractURLs(tt.input)
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("ExtractURLs(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}
