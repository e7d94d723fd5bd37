// Package caip2 parses and formats CAIP-2 chain identifiers of the form
// "<namespace>:<reference>", e.g. "eip155:1" or "solana:<genesis-hash>".
package caip2

import (
	"fmt"
	"strings"
)

// ID is a canonical CAIP-2 chain identifier. Both fields are guaranteed
// non-empty for any ID returned by Parse.
type ID struct {
	Namespace string
	Reference string
}

// String renders the canonical "<namespace>:<reference>" form.
func (id ID) String() string {
	return id.Namespace + ":" + id.Reference
}

// IsZero reports whether id is the zero value.
func (id ID) IsZero() bool {
	return id.Namespace == "" && id.Reference == ""
}

// Parse validates and decomposes a CAIP-2 string. It rejects any shape
// other than exactly one colon separating two non-empty components.
func Parse(raw string) (ID, error) {
	parts := strings.SplitN(raw, ":", 2)
	if len(parts) != 2 {
		return ID{}, fmt.Errorf("caip2: %q is not in <namespace>:<reference> form", raw)
	}
	ns, ref := parts[0], parts[1]
	if ns == "" || ref == "" {
		return ID{}, fmt.Errorf("caip2: %q has an empty namespace or reference", raw)
	}
	if strings.Contains(ref, ":") {
		return ID{}, fmt.Errorf("caip2: %q has more than one colon", raw)
	}
	return ID{Namespace: ns, Reference: ref}, nil
}

// MustParse is Parse but panics on error; intended for use with constants.
func MustParse(raw string) ID {
	id, err := Parse(raw)
	if err != nil {
		panic(err)
	}
	return id
}
