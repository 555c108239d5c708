// Package types defines the shared data structures for the pricing extraction pipeline.
package types

// LocationType records which normalization policy produced a resort's pricing shape.
type LocationType string

// Permitted locationType values; any other value is a contract violation.
const (
	// LocationTypeBundle marks resorts whose source pricing presented one
	// inclusive rate covering lodging and amenities.
	LocationTypeBundle LocationType = "Bundle"
	// LocationTypeComponent marks resorts whose source pricing listed lodging
	// and ancillary services as independently priced items.
	LocationTypeComponent LocationType = "Component"
)

// Valid reports whether the value is one of the permitted locationType literals.
func (lt LocationType) Valid() bool {
	return lt == LocationTypeBundle || lt == LocationTypeComponent
}

// Activity represents one ancillary service line item within a resort.
// IsIncluded means the service's cost is absorbed into a room's stay price;
// under the Bundle policy an included activity carries a zero price.
type Activity struct {
	Name       string  `json:"name"`
	Price      float64 `json:"price"`
	IsIncluded bool    `json:"isIncluded"`
}

// Room represents one priced stay/package offering. Room prices are the only
// values eligible for downstream discount logic, so rooms and activities are
// never merged into one undifferentiated line-item list.
type Room struct {
	Type  string  `json:"type"`
	Price float64 `json:"price"`
}

// Resort is the unit of currency- and policy-consistent pricing data.
// All monetary values within one Resort are denominated in its single currency.
type Resort struct {
	ResortName   string       `json:"resortName"`
	Currency     string       `json:"currency"`
	LocationType LocationType `json:"locationType"`
	Rooms        []Room       `json:"rooms"`
	Activities   []Activity   `json:"activities"`
}

// Location is one country/region grouping. Resorts are unique by resortName
// within a location.
type Location struct {
	Name    string   `json:"name"`
	Resorts []Resort `json:"resorts"`
}

// ExtractionResult is the root artifact of one successful run. It is published
// all-or-nothing and replaced wholesale on each new run, never merged.
type ExtractionResult struct {
	Locations []Location `json:"locations"`
}

// Clone returns a deep copy of the result so the published artifact stays
// immutable regardless of what callers do with their copy.
func (r *ExtractionResult) Clone() *ExtractionResult {
	if r == nil {
		return nil
	}
	out := &ExtractionResult{Locations: make([]Location, len(r.Locations))}
	for i, loc := range r.Locations {
		cl := Location{Name: loc.Name, Resorts: make([]Resort, len(loc.Resorts))}
		for j, resort := range loc.Resorts {
			cr := resort
			cr.Rooms = append([]Room(nil), resort.Rooms...)
			cr.Activities = append([]Activity(nil), resort.Activities...)
			cl.Resorts[j] = cr
		}
		out.Locations[i] = cl
	}
	return out
}

// TotalResorts counts resorts across all locations.
func (r *ExtractionResult) TotalResorts() int {
	count := 0
	for _, loc := range r.Locations {
		count += len(loc.Resorts)
	}
	return count
}
