package calculator

import (
	"fmt"
	"slices"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/money"
)

// BuildSplits computes the split map for the equal and payer-excluded split
// types. Shares differ by at most one minor unit; the remainder goes to
// participants in ascending ID order so the map always sums to total.
// Every member gets an entry, with zero for those not sharing the cost.
func BuildSplits(splitType models.SplitType, total money.Amount, members []string, payer string) (map[string]money.Amount, error) {
	if total < 0 {
		return nil, fmt.Errorf("total cannot be negative")
	}
	if len(members) == 0 {
		return nil, fmt.Errorf("must have at least one member")
	}

	sorted := slices.Clone(members)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)

	var sharing []string
	switch splitType {
	case models.SplitEqual:
		sharing = sorted
	case models.SplitPayerExcluded:
		for _, m := range sorted {
			if m != payer {
				sharing = append(sharing, m)
			}
		}
		if len(sharing) == 0 {
			return nil, fmt.Errorf("payer-excluded split needs a member other than the payer")
		}
	case models.SplitCustom:
		return nil, fmt.Errorf("custom splits must be supplied by the caller")
	default:
		return nil, fmt.Errorf("unknown split type %q", splitType)
	}

	splits := make(map[string]money.Amount, len(sorted))
	for _, m := range sorted {
		splits[m] = 0
	}
	shares := money.Allocate(total, len(sharing))
	for i, m := range sharing {
		splits[m] = shares[i]
	}
	return splits, nil
}
