// Package normalize reconciles validated extraction results into the
// published pricing model. It applies the Bundle/Component policy rules,
// merges duplicate resorts, splits resorts at currency boundaries, and
// corrects misclassified locationType values. The classification follows the
// data: items are never dropped to force a declared policy to fit.
package normalize

import (
	"fmt"

	"github.com/mikael/pricebook/internal/types"
)

// Normalize reconciles a validated result into its canonical form. The
// operation is idempotent: feeding a normalized result back through yields an
// identical result.
func Normalize(result *types.ExtractionResult) (*types.ExtractionResult, error) {
	out := &types.ExtractionResult{}

	for _, loc := range mergeLocations(result.Locations) {
		resorts, err := normalizeLocation(loc)
		if err != nil {
			return nil, err
		}
		out.Locations = append(out.Locations, types.Location{Name: loc.Name, Resorts: resorts})
	}

	return out, nil
}

// mergeLocations folds duplicate location names together, preserving
// first-seen order and concatenating resort lists in source order.
func mergeLocations(locations []types.Location) []types.Location {
	merged := make([]types.Location, 0, len(locations))
	index := make(map[string]int)

	for _, loc := range locations {
		if i, ok := index[loc.Name]; ok {
			merged[i].Resorts = append(merged[i].Resorts, loc.Resorts...)
			continue
		}
		index[loc.Name] = len(merged)
		merged = append(merged, types.Location{
			Name:    loc.Name,
			Resorts: append([]types.Resort(nil), loc.Resorts...),
		})
	}

	return merged
}

// resortKey groups line items. A resort name appearing under two currencies
// stays split: the engine never merges mismatched currencies under one code.
type resortKey struct {
	name     string
	currency string
}

func normalizeLocation(loc types.Location) ([]types.Resort, error) {
	merged := make([]types.Resort, 0, len(loc.Resorts))
	index := make(map[resortKey]int)
	currencies := make(map[string]map[string]bool) // resort name -> currency set

	for _, resort := range loc.Resorts {
		key := resortKey{name: resort.ResortName, currency: resort.Currency}
		if set, ok := currencies[key.name]; ok {
			set[key.currency] = true
		} else {
			currencies[key.name] = map[string]bool{key.currency: true}
		}

		if i, ok := index[key]; ok {
			merged[i].Rooms = append(merged[i].Rooms, resort.Rooms...)
			merged[i].Activities = append(merged[i].Activities, resort.Activities...)
			continue
		}
		index[key] = len(merged)
		cp := resort
		cp.Rooms = append([]types.Room(nil), resort.Rooms...)
		cp.Activities = append([]types.Activity(nil), resort.Activities...)
		merged = append(merged, cp)
	}

	// A currency split reuses the resort name, so split entries get a
	// disambiguating currency suffix to preserve name uniqueness within the
	// location. The suffixed name can itself collide with a source resort
	// already carrying it: same currency folds into one resort, differing
	// currencies are a conflict.
	out := make([]types.Resort, 0, len(merged))
	byName := make(map[string]int) // final resort name -> index in out
	for _, resort := range merged {
		resort = classify(resort)
		if len(currencies[resort.ResortName]) > 1 {
			resort.ResortName = fmt.Sprintf("%s (%s)", resort.ResortName, resort.Currency)
		}
		if i, ok := byName[resort.ResortName]; ok {
			if out[i].Currency != resort.Currency {
				return nil, &ConflictError{
					Location: loc.Name,
					Resort:   resort.ResortName,
					Message:  fmt.Sprintf("resort name collides across currencies %s and %s after split", out[i].Currency, resort.Currency),
				}
			}
			out[i].Rooms = append(out[i].Rooms, resort.Rooms...)
			out[i].Activities = append(out[i].Activities, resort.Activities...)
			out[i] = classify(out[i])
			continue
		}
		byName[resort.ResortName] = len(out)
		out = append(out, resort)
	}

	for i := range out {
		out[i].Rooms = dedupeRooms(out[i].Rooms)
		out[i].Activities = dedupeActivities(out[i].Activities)
	}

	return out, nil
}

// classify re-derives locationType from the observed item-pricing pattern when
// the declared value disagrees with it.
func classify(resort types.Resort) types.Resort {
	if len(resort.Activities) == 0 {
		// Nothing observable to contradict the declared policy.
		return resort
	}

	anyPriced := false
	allIncludedFree := true
	for _, act := range resort.Activities {
		if act.Price > 0 {
			anyPriced = true
		}
		if !act.IsIncluded || act.Price > 0 {
			allIncludedFree = false
		}
	}

	switch {
	case anyPriced:
		// Independently priced services are Component-style pricing, whatever
		// the source claimed. An "included" flag on a priced service is
		// contradictory; the price wins and the flag is cleared.
		resort.LocationType = types.LocationTypeComponent
		for i := range resort.Activities {
			if resort.Activities[i].Price > 0 {
				resort.Activities[i].IsIncluded = false
			}
		}
	case allIncludedFree:
		// Every service is absorbed into the rate: Bundle-style pricing.
		resort.LocationType = types.LocationTypeBundle
	}

	return resort
}

func dedupeRooms(rooms []types.Room) []types.Room {
	out := make([]types.Room, 0, len(rooms))
	seen := make(map[types.Room]bool)
	for _, rm := range rooms {
		if seen[rm] {
			continue
		}
		seen[rm] = true
		out = append(out, rm)
	}
	return out
}

func dedupeActivities(activities []types.Activity) []types.Activity {
	out := make([]types.Activity, 0, len(activities))
	seen := make(map[types.Activity]bool)
	for _, act := range activities {
		if seen[act] {
			continue
		}
		seen[act] = true
		out = append(out, act)
	}
	return out
}
