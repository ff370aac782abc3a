// Copyright 2026 mvirt authors.

package state

import (
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// deriveMAC returns a deterministic, locally-administered MAC address for
// a NIC id, used when a command doesn't supply one explicitly. A
// non-cryptographic hash is sufficient: collisions across ids are
// possible but unlikely, and no dedup-on-collision is attempted here.
func deriveMAC(nicID string) string {
	h := xxhash.Sum64String(nicID)
	return fmt.Sprintf("52:54:00:%02x:%02x:%02x",
		byte(h>>16), byte(h>>8), byte(h))
}
