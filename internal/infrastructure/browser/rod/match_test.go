package rod

import "testing"

func TestSimilarity(t *testing.T) {
	cases := []struct {
		a, b string
		want float64
	}{
		{"california", "california", 1.0},
		{"", "", 1.0},
		{"abc", "", 0.0},
		{"abc", "xyz", 0.0},
	}
	for _, tc := range cases {
		if got := similarity(tc.a, tc.b); got != tc.want {
			t.Errorf("similarity(%q, %q) = %v, want %v", tc.a, tc.b, got, tc.want)
		}
	}

	// "california" inside "california (ca)" keeps a high ratio.
	if got := similarity("california", "california (ca)"); got < matchCutoff {
		t.Errorf("similarity(california, california (ca)) = %v, want >= %v", got, matchCutoff)
	}
}

func TestClosestMatch(t *testing.T) {
	options := []string{"Alabama", "California", "Colorado", "Connecticut"}

	got, ok := closestMatch("california", options, matchCutoff)
	if !ok || got != "California" {
		t.Errorf("closestMatch = %q, %v", got, ok)
	}

	// Case-insensitive and tolerant of decoration.
	got, ok = closestMatch("CALIFORNIA", []string{"California (CA)", "Colorado (CO)"}, matchCutoff)
	if !ok || got != "California (CA)" {
		t.Errorf("closestMatch = %q, %v", got, ok)
	}

	if _, ok := closestMatch("Texas", []string{"apple", "banana"}, matchCutoff); ok {
		t.Error("nothing above the cutoff should not match")
	}

	if _, ok := closestMatch("anything", nil, matchCutoff); ok {
		t.Error("empty candidate list should not match")
	}
}
