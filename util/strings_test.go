package util

import "testing"

func TestTruncateString(t *testing.T) {
	cases := []struct {
		in     string
		maxLen int
		want   string
	}{
		{"short", 40, "short"},
		{"exactly ten", 11, "exactly ten"},
		{"a long project name that keeps going", 10, "a long ..."},
		{"abc", 2, "ab"},
	}
	for _, tc := range cases {
		if got := TruncateString(tc.in, tc.maxLen); got != tc.want {
			t.Errorf("TruncateString(%q, %d) = %q, want %q", tc.in, tc.maxLen, got, tc.want)
		}
	}
}
