package addressvalidator

import (
	"strings"

	"github.com/cryptonote-pool/payoutd/internal/core/ports"
)

type validator struct {
	prefixes []string
	lengths  map[int]struct{}
}

// NewValidator returns an integrated-address predicate matching on the
// configured address prefixes and lengths. With no prefixes configured no
// bare address qualifies.
func NewValidator(prefixes []string, lengths []int) ports.AddressValidator {
	lengthSet := make(map[int]struct{}, len(lengths))
	for _, length := range lengths {
		lengthSet[length] = struct{}{}
	}
	return &validator{prefixes: prefixes, lengths: lengthSet}
}

func (v *validator) IsIntegrated(address string) bool {
	if len(v.prefixes) == 0 {
		return false
	}

	matched := false
	for _, prefix := range v.prefixes {
		if strings.HasPrefix(address, prefix) {
			matched = true
			break
		}
	}
	if !matched {
		return false
	}

	if len(v.lengths) == 0 {
		return true
	}
	_, ok := v.lengths[len(address)]
	return ok
}
