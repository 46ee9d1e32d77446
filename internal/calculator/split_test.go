package calculator

import (
	"testing"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/money"
)

func TestBuildSplits(t *testing.T) {
	tests := []struct {
		name         string
		splitType    models.SplitType
		total        money.Amount
		members      []string
		payer        string
		wantErr      bool
		validateFunc func(t *testing.T, splits map[string]money.Amount)
	}{
		{
			name:      "equal split among three",
			splitType: models.SplitEqual,
			total:     9000,
			members:   []string{"C", "A", "B"},
			payer:     "A",
			validateFunc: func(t *testing.T, splits map[string]money.Amount) {
				for _, person := range []string{"A", "B", "C"} {
					if splits[person] != 3000 {
						t.Errorf("%s share = %v, want 30.00", person, splits[person])
					}
				}
			},
		},
		{
			name:      "equal split remainder goes to lowest ids",
			splitType: models.SplitEqual,
			total:     10000,
			members:   []string{"B", "C", "A"},
			payer:     "B",
			validateFunc: func(t *testing.T, splits map[string]money.Amount) {
				// 100.00 / 3 = 33.34 + 33.33 + 33.33
				if splits["A"] != 3334 {
					t.Errorf("A share = %v, want 33.34", splits["A"])
				}
				if splits["B"] != 3333 || splits["C"] != 3333 {
					t.Errorf("B, C shares = %v, %v, want 33.33 each", splits["B"], splits["C"])
				}
			},
		},
		{
			name:      "payer excluded",
			splitType: models.SplitPayerExcluded,
			total:     6000,
			members:   []string{"A", "B", "C"},
			payer:     "A",
			validateFunc: func(t *testing.T, splits map[string]money.Amount) {
				if splits["A"] != 0 {
					t.Errorf("payer share = %v, want 0", splits["A"])
				}
				if splits["B"] != 3000 || splits["C"] != 3000 {
					t.Errorf("B, C shares = %v, %v, want 30.00 each", splits["B"], splits["C"])
				}
			},
		},
		{
			name:      "duplicate members counted once",
			splitType: models.SplitEqual,
			total:     2000,
			members:   []string{"A", "B", "A"},
			payer:     "A",
			validateFunc: func(t *testing.T, splits map[string]money.Amount) {
				if len(splits) != 2 {
					t.Errorf("got %d entries, want 2", len(splits))
				}
			},
		},
		{
			name:      "payer excluded with payer alone should error",
			splitType: models.SplitPayerExcluded,
			total:     1000,
			members:   []string{"A"},
			payer:     "A",
			wantErr:   true,
		},
		{
			name:      "custom should error",
			splitType: models.SplitCustom,
			total:     1000,
			members:   []string{"A", "B"},
			payer:     "A",
			wantErr:   true,
		},
		{
			name:      "no members should error",
			splitType: models.SplitEqual,
			total:     1000,
			payer:     "A",
			wantErr:   true,
		},
		{
			name:      "negative total should error",
			splitType: models.SplitEqual,
			total:     -1,
			members:   []string{"A"},
			payer:     "A",
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			splits, err := BuildSplits(tt.splitType, tt.total, tt.members, tt.payer)
			if (err != nil) != tt.wantErr {
				t.Errorf("BuildSplits() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if tt.wantErr {
				return
			}
			var sum money.Amount
			for _, v := range splits {
				sum += v
			}
			if sum != tt.total {
				t.Errorf("splits sum to %v, want %v", sum, tt.total)
			}
			if tt.validateFunc != nil {
				tt.validateFunc(t, splits)
			}
		})
	}
}
