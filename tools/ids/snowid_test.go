package ids

import "testing"

func TestGenerateUniqueAndIncreasing(t *testing.T) {
	const n = 10000
	seen := make(map[int64]struct{}, n)
	prev := int64(-1)
	for i := 0; i < n; i++ {
		id := Generate()
		if _, dup := seen[id]; dup {
			t.Fatalf("duplicate id after %d generations: %d", i, id)
		}
		seen[id] = struct{}{}
		if id <= prev {
			t.Fatalf("id not increasing: %d <= %d", id, prev)
		}
		prev = id
	}
}

func TestGenerateStringIsDecimal(t *testing.T) {
	s := GenerateString()
	if s == "" {
		t.Fatal("empty id")
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			t.Fatalf("non-decimal rune %q in %s", r, s)
		}
	}
}
