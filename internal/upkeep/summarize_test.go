package upkeep

import (
	"encoding/json"
	"testing"
	"time"
)

var testNow = time.Unix(1_700_000_000, 0)

func intPtr(v int) *int       { return &v }
func int64Ptr(v int64) *int64 { return &v }
func boolPtr(v bool) *bool    { return &v }

func TestSummarize_NoTrackedItems(t *testing.T) {
	snap := Snapshot{
		Items: []ItemStack{
			{ItemID: 12345, Quantity: 10},
			{ItemID: -9999, Quantity: 3},
		},
	}

	sum := Summarize(snap, testNow)

	if sum.Resources != (Totals{}) {
		t.Errorf("totals = %+v, want all zero", sum.Resources)
	}
	if len(sum.Items) != 2 {
		t.Errorf("items = %d, want 2 passed through", len(sum.Items))
	}
}

func TestSummarize_SumsStacksPerKind(t *testing.T) {
	snap := Snapshot{
		Items: []ItemStack{
			{ItemID: ItemIDWood, Quantity: 50},
			{ItemID: ItemIDStone, Quantity: 1000},
			{ItemID: ItemIDWood, Quantity: 25},
			{ItemID: ItemIDMetalFragments, Quantity: 200},
			{ItemID: ItemIDHQM, Quantity: 8},
		},
	}

	sum := Summarize(snap, testNow)

	if sum.Resources.Wood != 75 {
		t.Errorf("wood = %d, want 75", sum.Resources.Wood)
	}
	if sum.Resources.Stone != 1000 {
		t.Errorf("stone = %d, want 1000", sum.Resources.Stone)
	}
	if sum.Resources.MetalFragments != 200 {
		t.Errorf("metal_fragments = %d, want 200", sum.Resources.MetalFragments)
	}
	if sum.Resources.HQM != 8 {
		t.Errorf("hqm = %d, want 8", sum.Resources.HQM)
	}
}

func TestSummarize_PreservesOrderAndFields(t *testing.T) {
	snap := Snapshot{
		Items: []ItemStack{
			{Slot: intPtr(3), ItemID: 777, Quantity: 1},
			{Slot: intPtr(0), ItemID: ItemIDWood, Quantity: 50},
		},
	}

	sum := Summarize(snap, testNow)

	if len(sum.Items) != 2 {
		t.Fatalf("items = %d, want 2", len(sum.Items))
	}
	if sum.Items[0].ItemID != 777 || sum.Items[0].Slot == nil || *sum.Items[0].Slot != 3 {
		t.Errorf("items[0] = %+v, want untracked stack first with slot 3", sum.Items[0])
	}
	if sum.Items[1].ItemID != ItemIDWood {
		t.Errorf("items[1].ItemID = %d, want wood", sum.Items[1].ItemID)
	}
}

func TestSummarize_HoursRemaining(t *testing.T) {
	tests := []struct {
		name   string
		expiry int64
		want   float64
	}{
		{"two hours ahead", testNow.Unix() + 7200, 2.00},
		{"in the past clamps to zero", testNow.Unix() - 3600, 0.00},
		{"rounds to two decimals", testNow.Unix() + 5000, 1.39},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			snap := Snapshot{
				Items:            []ItemStack{},
				HasProtection:    boolPtr(true),
				ProtectionExpiry: int64Ptr(tc.expiry),
			}

			sum := Summarize(snap, testNow)

			if sum.Upkeep.HoursRemaining == nil {
				t.Fatal("HoursRemaining = nil, want value")
			}
			if *sum.Upkeep.HoursRemaining != tc.want {
				t.Errorf("HoursRemaining = %v, want %v", *sum.Upkeep.HoursRemaining, tc.want)
			}
			if !sum.Upkeep.HasProtection {
				t.Error("HasProtection = false, want true")
			}
		})
	}
}

func TestSummarize_NoExpiry(t *testing.T) {
	snap := Snapshot{Items: []ItemStack{{ItemID: ItemIDWood, Quantity: 1}}}

	sum := Summarize(snap, testNow)

	if sum.Upkeep.HoursRemaining != nil {
		t.Errorf("HoursRemaining = %v, want nil", *sum.Upkeep.HoursRemaining)
	}
	if sum.Upkeep.ProtectionExpiry != nil {
		t.Errorf("ProtectionExpiry = %v, want nil", *sum.Upkeep.ProtectionExpiry)
	}
}

func TestSummarize_MissingItemList(t *testing.T) {
	// Degradation path: the server sent no item list at all. Expiry passes
	// through but no hours are derived from it.
	snap := Snapshot{
		HasProtection:    boolPtr(true),
		ProtectionExpiry: int64Ptr(testNow.Unix() + 7200),
	}

	sum := Summarize(snap, testNow)

	if sum.Resources != (Totals{}) {
		t.Errorf("totals = %+v, want all zero", sum.Resources)
	}
	if sum.Items == nil || len(sum.Items) != 0 {
		t.Errorf("items = %v, want empty non-nil list", sum.Items)
	}
	if sum.Upkeep.HoursRemaining != nil {
		t.Errorf("HoursRemaining = %v, want nil", *sum.Upkeep.HoursRemaining)
	}
	if !sum.Upkeep.HasProtection {
		t.Error("HasProtection = false, want passed-through true")
	}
	if sum.Upkeep.ProtectionExpiry == nil {
		t.Error("ProtectionExpiry = nil, want passed through")
	}
}

func TestParseEntityInfo(t *testing.T) {
	raw := json.RawMessage(`{
		"type": "entityInfo",
		"payload": {
			"value": false,
			"items": [
				{"itemId": -151838493, "quantity": 50},
				{"itemId": 317398316, "quantity": 4}
			],
			"hasProtection": true,
			"protectionExpiry": 1700007200
		}
	}`)

	snap := ParseEntityInfo(raw)

	if len(snap.Items) != 2 {
		t.Fatalf("items = %d, want 2", len(snap.Items))
	}
	if snap.Items[0].ItemID != ItemIDWood || snap.Items[0].Quantity != 50 {
		t.Errorf("items[0] = %+v, want wood x50", snap.Items[0])
	}
	if snap.HasProtection == nil || !*snap.HasProtection {
		t.Error("HasProtection = nil/false, want true")
	}
	if snap.ProtectionExpiry == nil || *snap.ProtectionExpiry != 1700007200 {
		t.Error("ProtectionExpiry not decoded")
	}
}

func TestParseEntityInfo_Malformed(t *testing.T) {
	for _, raw := range []string{``, `not json`, `{"payload": "nope"}`, `[]`} {
		snap := ParseEntityInfo(json.RawMessage(raw))
		if snap.Items != nil {
			t.Errorf("ParseEntityInfo(%q).Items = %v, want nil", raw, snap.Items)
		}

		// And the degraded snapshot must survive summarization.
		sum := Summarize(snap, testNow)
		if sum.Upkeep.HoursRemaining != nil {
			t.Errorf("ParseEntityInfo(%q): HoursRemaining = %v, want nil", raw, *sum.Upkeep.HoursRemaining)
		}
	}
}
