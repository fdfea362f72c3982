// Package upkeep reduces a raw tool-cupboard inventory snapshot into
// aggregated resource totals and a decay-protection time estimate.
//
// Everything here is pure: the current time is injected by the caller and
// malformed input degrades to an empty summary instead of erroring, so the
// HTTP facade never has to special-case a half-filled payload from the
// game server.
package upkeep

import (
	"encoding/json"
	"math"
	"time"
)

// Item type identifiers as the game server reports them. These are stable
// across wipes; they are content hashes, hence the negative values.
const (
	ItemIDWood           = -151838493
	ItemIDStone          = -2099697608
	ItemIDMetalFragments = 69511070
	ItemIDHQM            = 317398316
)

// ItemStack is a single inventory slot as reported by the server. Slot is
// nil when the server omits slot positions.
type ItemStack struct {
	Slot     *int `json:"slot,omitempty"`
	ItemID   int  `json:"itemId"`
	Quantity int  `json:"quantity"`
}

// Snapshot is the decoded inventory portion of an entity info payload.
// Pointer fields distinguish "absent" from zero values; the summarizer
// passes absent fields through as null.
type Snapshot struct {
	Items            []ItemStack
	HasProtection    *bool
	ProtectionExpiry *int64
}

// Totals holds the summed quantities for the four tracked resource kinds.
type Totals struct {
	Wood           int `json:"wood"`
	Stone          int `json:"stone"`
	MetalFragments int `json:"metal_fragments"`
	HQM            int `json:"hqm"`
}

// Status reports the cupboard's decay protection. HoursRemaining is nil
// when the server did not report an expiry, and never negative.
//
// The hours_remaining wire name is load-bearing: the downstream Discord
// bot reads exactly that key.
type Status struct {
	HasProtection    bool     `json:"hasProtection"`
	ProtectionExpiry *int64   `json:"protectionExpiry"`
	HoursRemaining   *float64 `json:"hours_remaining"`
}

// Summary is the full derived view of one snapshot.
type Summary struct {
	Items     []ItemStack `json:"items"`
	Resources Totals      `json:"resources"`
	Upkeep    Status      `json:"upkeep"`
}

// Summarize reduces snap into per-kind totals and an upkeep estimate
// relative to now. All stacks pass through Items in their original order;
// only stacks matching one of the four tracked item ids contribute to
// Resources.
func Summarize(snap Snapshot, now time.Time) Summary {
	sum := Summary{
		Items: make([]ItemStack, 0, len(snap.Items)),
	}

	for _, stack := range snap.Items {
		sum.Items = append(sum.Items, stack)
		switch stack.ItemID {
		case ItemIDWood:
			sum.Resources.Wood += stack.Quantity
		case ItemIDStone:
			sum.Resources.Stone += stack.Quantity
		case ItemIDMetalFragments:
			sum.Resources.MetalFragments += stack.Quantity
		case ItemIDHQM:
			sum.Resources.HQM += stack.Quantity
		}
	}

	if snap.HasProtection != nil {
		sum.Upkeep.HasProtection = *snap.HasProtection
	}
	sum.Upkeep.ProtectionExpiry = snap.ProtectionExpiry

	// Hours are only derivable when the item list was well-formed and an
	// expiry is present; a degraded snapshot keeps HoursRemaining nil.
	if snap.Items != nil && snap.ProtectionExpiry != nil {
		hours := float64(*snap.ProtectionExpiry-now.Unix()) / 3600
		if hours < 0 {
			hours = 0
		}
		hours = math.Round(hours*100) / 100
		sum.Upkeep.HoursRemaining = &hours
	}

	return sum
}

// entityInfoPayload mirrors the inventory-bearing part of the game
// server's entity info response. Unknown fields are ignored.
type entityInfoPayload struct {
	Payload struct {
		Items            []ItemStack `json:"items"`
		HasProtection    *bool       `json:"hasProtection"`
		ProtectionExpiry *int64      `json:"protectionExpiry"`
	} `json:"payload"`
}

// ParseEntityInfo decodes the inventory snapshot out of a raw entity info
// payload. Malformed or truncated JSON yields a zero Snapshot (nil item
// list), which Summarize turns into the degraded empty summary.
func ParseEntityInfo(raw json.RawMessage) Snapshot {
	var info entityInfoPayload
	if err := json.Unmarshal(raw, &info); err != nil {
		return Snapshot{}
	}
	return Snapshot{
		Items:            info.Payload.Items,
		HasProtection:    info.Payload.HasProtection,
		ProtectionExpiry: info.Payload.ProtectionExpiry,
	}
}
