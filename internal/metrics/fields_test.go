package metrics

import "testing"

func TestAttributeKeysAndOutcomesAreDistinct(t *testing.T) {
	for _, group := range [][]string{
		{AttrMethod, AttrPath, AttrStatus, AttrSource, AttrKind, AttrOutcome, AttrPlatform},
		{OutcomeDelivered, OutcomeTransient, OutcomePermanent},
	} {
		seen := map[string]bool{}
		for _, k := range group {
			if k == "" || seen[k] {
				t.Fatalf("key %q is empty or duplicated", k)
			}
			seen[k] = true
		}
	}
}
