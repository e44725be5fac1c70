package models

import "testing"

func TestPurchasePrice(t *testing.T) {
	tests := []struct {
		asking int64
		want   int64
	}{
		{asking: 1000, want: 950},
		{asking: 1001, want: 950},
		{asking: 600_000, want: 570_000},
		{asking: 100, want: 95},
		{asking: 1, want: 0},
	}
	for _, tc := range tests {
		if got := PurchasePrice(tc.asking); got != tc.want {
			t.Errorf("PurchasePrice(%d) = %d, want %d", tc.asking, got, tc.want)
		}
	}
}

func TestPurchasePriceLargeAskingPrice(t *testing.T) {
	if got, want := PurchasePrice(MaxAskingPrice), int64(950_000_000_000); got != want {
		t.Errorf("PurchasePrice(MaxAskingPrice) = %d, want %d", got, want)
	}
	// The discounted amount never goes negative, even for asking prices
	// where a naive price*95 would wrap around.
	for _, asking := range []int64{MaxAskingPrice + 1, 97_088_126_703_734_483, 1 << 62} {
		if got := PurchasePrice(asking); got <= 0 || got >= asking {
			t.Errorf("PurchasePrice(%d) = %d, want a positive discounted amount", asking, got)
		}
	}
}

func TestCanSellFrom(t *testing.T) {
	if CanSellFrom(MinTeamSize) {
		t.Errorf("selling from exactly %d unlisted players must be refused", MinTeamSize)
	}
	if !CanSellFrom(MinTeamSize + 1) {
		t.Errorf("selling from %d unlisted players must be allowed", MinTeamSize+1)
	}
}

func TestCanBuyInto(t *testing.T) {
	if CanBuyInto(MaxTeamSize) {
		t.Errorf("buying into a team of %d players must be refused", MaxTeamSize)
	}
	if !CanBuyInto(MaxTeamSize - 1) {
		t.Errorf("buying into a team of %d players must be allowed", MaxTeamSize-1)
	}
}

func TestPositionValid(t *testing.T) {
	for _, p := range []Position{PositionGoalkeeper, PositionDefender, PositionMidfielder, PositionForward} {
		if !p.Valid() {
			t.Errorf("position %q should be valid", p)
		}
	}
	if Position("ST").Valid() {
		t.Error("unknown position should be invalid")
	}
}
