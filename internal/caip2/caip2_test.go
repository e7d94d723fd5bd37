package caip2

import "testing"

func TestParseRoundTrip(t *testing.T) {
	cases := []string{
		"eip155:1",
		"eip155:137",
		"solana:5eykt4UsFv8P8NJdTREpY1vzqKqZKvdp",
		"bip122:000000000019d6689c085ae165831e93",
	}
	for _, raw := range cases {
		id, err := Parse(raw)
		if err != nil {
			t.Fatalf("Parse(%q) unexpected error: %v", raw, err)
		}
		if got := id.String(); got != raw {
			t.Fatalf("round trip mismatch: got %q want %q", got, raw)
		}
	}
}

func TestParseRejectsMalformed(t *testing.T) {
	cases := []string{
		"",
		"eip155",
		":1",
		"eip155:",
		"eip155:1:extra",
		":",
	}
	for _, raw := range cases {
		if _, err := Parse(raw); err == nil {
			t.Fatalf("Parse(%q) expected an error, got none", raw)
		}
	}
}

func FuzzParseRoundTrip(f *testing.F) {
	seeds := []string{"eip155:1", "solana:abc", "a:b", "ton:-1"}
	for _, s := range seeds {
		f.Add(s)
	}
	f.Fuzz(func(t *testing.T, raw string) {
		id, err := Parse(raw)
		if err != nil {
			return
		}
		if got := id.String(); got != raw {
			t.Fatalf("round trip mismatch: got %q want %q", got, raw)
		}
	})
}
