package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mikael/pricebook/internal/types"
)

func TestNormalize_MergeDuplicateResorts(t *testing.T) {
	input := &types.ExtractionResult{
		Locations: []types.Location{
			{
				Name: "Maldives",
				Resorts: []types.Resort{
					{
						ResortName:   "Coral Atoll",
						Currency:     "USD",
						LocationType: types.LocationTypeComponent,
						Rooms:        []types.Room{{Type: "Beach Villa", Price: 450}},
						Activities:   []types.Activity{{Name: "Snorkeling Trip", Price: 80}},
					},
					{
						ResortName:   "Coral Atoll",
						Currency:     "USD",
						LocationType: types.LocationTypeComponent,
						Rooms:        []types.Room{{Type: "Water Villa", Price: 700}},
						Activities:   []types.Activity{{Name: "Sunset Cruise", Price: 120}},
					},
				},
			},
		},
	}

	result, err := Normalize(input)
	require.NoError(t, err)
	require.Len(t, result.Locations, 1)
	require.Len(t, result.Locations[0].Resorts, 1)

	resort := result.Locations[0].Resorts[0]
	assert.Equal(t, "Coral Atoll", resort.ResortName)
	assert.Equal(t, []types.Room{
		{Type: "Beach Villa", Price: 450},
		{Type: "Water Villa", Price: 700},
	}, resort.Rooms)
	assert.Len(t, resort.Activities, 2)
}

func TestNormalize_MergeDuplicateLocations(t *testing.T) {
	input := &types.ExtractionResult{
		Locations: []types.Location{
			{Name: "Fiji", Resorts: []types.Resort{{
				ResortName: "Lagoon Lodge", Currency: "FJD",
				LocationType: types.LocationTypeBundle,
				Rooms:        []types.Room{{Type: "Bure", Price: 300}},
			}}},
			{Name: "Samoa", Resorts: []types.Resort{{
				ResortName: "Reef House", Currency: "WST",
				LocationType: types.LocationTypeBundle,
				Rooms:        []types.Room{{Type: "Fale", Price: 150}},
			}}},
			{Name: "Fiji", Resorts: []types.Resort{{
				ResortName: "Island Retreat", Currency: "FJD",
				LocationType: types.LocationTypeBundle,
				Rooms:        []types.Room{{Type: "Villa", Price: 520}},
			}}},
		},
	}

	result, err := Normalize(input)
	require.NoError(t, err)
	require.Len(t, result.Locations, 2)
	assert.Equal(t, "Fiji", result.Locations[0].Name)
	assert.Equal(t, "Samoa", result.Locations[1].Name)
	assert.Len(t, result.Locations[0].Resorts, 2)
}

func TestNormalize_DedupeLineItems(t *testing.T) {
	input := &types.ExtractionResult{
		Locations: []types.Location{
			{
				Name: "Bahamas",
				Resorts: []types.Resort{{
					ResortName:   "Cable Beach Resort",
					Currency:     "USD",
					LocationType: types.LocationTypeComponent,
					Rooms: []types.Room{
						{Type: "Standard", Price: 200},
						{Type: "Standard", Price: 200},
						{Type: "Standard", Price: 250}, // same name, different price: kept
					},
					Activities: []types.Activity{
						{Name: "Kayak Rental", Price: 40},
						{Name: "Kayak Rental", Price: 40},
					},
				}},
			},
		},
	}

	result, err := Normalize(input)
	require.NoError(t, err)
	resort := result.Locations[0].Resorts[0]
	assert.Equal(t, []types.Room{
		{Type: "Standard", Price: 200},
		{Type: "Standard", Price: 250},
	}, resort.Rooms)
	assert.Equal(t, []types.Activity{
		{Name: "Kayak Rental", Price: 40},
	}, resort.Activities)
}

func TestNormalize_ClassificationCorrection(t *testing.T) {
	tests := []struct {
		name         string
		resort       types.Resort
		expectedType types.LocationType
	}{
		{
			name: "Priced activities force Component",
			resort: types.Resort{
				ResortName:   "Alpine Chalet",
				Currency:     "EUR",
				LocationType: types.LocationTypeBundle,
				Rooms:        []types.Room{{Type: "Suite", Price: 400}},
				Activities:   []types.Activity{{Name: "Ski Pass", Price: 55}},
			},
			expectedType: types.LocationTypeComponent,
		},
		{
			name: "All included free activities force Bundle",
			resort: types.Resort{
				ResortName:   "Lagoon Villas",
				Currency:     "USD",
				LocationType: types.LocationTypeComponent,
				Rooms:        []types.Room{{Type: "Villa", Price: 600}},
				Activities: []types.Activity{
					{Name: "Breakfast", Price: 0, IsIncluded: true},
					{Name: "Airport Transfer", Price: 0, IsIncluded: true},
				},
			},
			expectedType: types.LocationTypeBundle,
		},
		{
			name: "No activities keeps declared type",
			resort: types.Resort{
				ResortName:   "City Hotel",
				Currency:     "GBP",
				LocationType: types.LocationTypeBundle,
				Rooms:        []types.Room{{Type: "Double", Price: 180}},
			},
			expectedType: types.LocationTypeBundle,
		},
		{
			name: "Free but not included keeps declared type",
			resort: types.Resort{
				ResortName:   "Harbour Inn",
				Currency:     "AUD",
				LocationType: types.LocationTypeComponent,
				Rooms:        []types.Room{{Type: "Queen", Price: 220}},
				Activities:   []types.Activity{{Name: "Walking Tour", Price: 0, IsIncluded: false}},
			},
			expectedType: types.LocationTypeComponent,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := &types.ExtractionResult{Locations: []types.Location{
				{Name: "Test", Resorts: []types.Resort{tt.resort}},
			}}
			result, err := Normalize(input)
			require.NoError(t, err)
			assert.Equal(t, tt.expectedType, result.Locations[0].Resorts[0].LocationType)
		})
	}
}

func TestNormalize_PricedActivityClearsIncludedFlag(t *testing.T) {
	input := &types.ExtractionResult{
		Locations: []types.Location{
			{
				Name: "Mexico",
				Resorts: []types.Resort{{
					ResortName:   "Playa Grande",
					Currency:     "MXN",
					LocationType: types.LocationTypeBundle,
					Rooms:        []types.Room{{Type: "Junior Suite", Price: 3200}},
					Activities: []types.Activity{
						// Contradictory: priced but flagged included. Price wins.
						{Name: "Spa Day", Price: 900, IsIncluded: true},
						{Name: "Welcome Drink", Price: 0, IsIncluded: true},
					},
				}},
			},
		},
	}

	result, err := Normalize(input)
	require.NoError(t, err)
	resort := result.Locations[0].Resorts[0]
	assert.Equal(t, types.LocationTypeComponent, resort.LocationType)
	assert.Equal(t, []types.Activity{
		{Name: "Spa Day", Price: 900, IsIncluded: false},
		{Name: "Welcome Drink", Price: 0, IsIncluded: true},
	}, resort.Activities)
}

func TestNormalize_CurrencySplit(t *testing.T) {
	input := &types.ExtractionResult{
		Locations: []types.Location{
			{
				Name: "Caribbean",
				Resorts: []types.Resort{
					{
						ResortName:   "Palm Cove",
						Currency:     "USD",
						LocationType: types.LocationTypeComponent,
						Rooms:        []types.Room{{Type: "Garden Room", Price: 210}},
					},
					{
						ResortName:   "Palm Cove",
						Currency:     "EUR",
						LocationType: types.LocationTypeComponent,
						Rooms:        []types.Room{{Type: "Garden Room", Price: 195}},
					},
				},
			},
		},
	}

	result, err := Normalize(input)
	require.NoError(t, err)
	require.Len(t, result.Locations[0].Resorts, 2)
	assert.Equal(t, "Palm Cove (USD)", result.Locations[0].Resorts[0].ResortName)
	assert.Equal(t, "Palm Cove (EUR)", result.Locations[0].Resorts[1].ResortName)
	assert.Equal(t, "USD", result.Locations[0].Resorts[0].Currency)
	assert.Equal(t, "EUR", result.Locations[0].Resorts[1].Currency)
}

func TestNormalize_CurrencySuffixCollision(t *testing.T) {
	input := &types.ExtractionResult{
		Locations: []types.Location{
			{
				Name: "Caribbean",
				Resorts: []types.Resort{
					{ResortName: "Palm Cove", Currency: "USD", LocationType: types.LocationTypeComponent,
						Rooms: []types.Room{{Type: "Room", Price: 100}}},
					{ResortName: "Palm Cove", Currency: "EUR", LocationType: types.LocationTypeComponent,
						Rooms: []types.Room{{Type: "Room", Price: 90}}},
					// Pre-suffixed name landing on the same final name with a
					// different currency cannot be reconciled.
					{ResortName: "Palm Cove (USD)", Currency: "GBP", LocationType: types.LocationTypeComponent,
						Rooms: []types.Room{{Type: "Room", Price: 80}}},
				},
			},
		},
	}

	_, err := Normalize(input)
	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "Caribbean", conflict.Location)
	assert.Equal(t, "Palm Cove (USD)", conflict.Resort)
}

func TestNormalize_CurrencySuffixCollisionSameCurrencyFolds(t *testing.T) {
	input := &types.ExtractionResult{
		Locations: []types.Location{
			{
				Name: "Caribbean",
				Resorts: []types.Resort{
					{ResortName: "Palm Cove", Currency: "USD", LocationType: types.LocationTypeComponent,
						Rooms: []types.Room{{Type: "Garden Room", Price: 210}}},
					{ResortName: "Palm Cove", Currency: "EUR", LocationType: types.LocationTypeComponent,
						Rooms: []types.Room{{Type: "Garden Room", Price: 195}}},
					// Pre-suffixed name landing on the same final name with the
					// same currency folds into the split entry.
					{ResortName: "Palm Cove (USD)", Currency: "USD", LocationType: types.LocationTypeComponent,
						Rooms: []types.Room{{Type: "Beach Villa", Price: 340}}},
				},
			},
		},
	}

	once, err := Normalize(input)
	require.NoError(t, err)
	require.Len(t, once.Locations, 1)

	names := make(map[string]int)
	for _, resort := range once.Locations[0].Resorts {
		names[resort.ResortName]++
	}
	for name, count := range names {
		assert.Equal(t, 1, count, "resort name %q must be unique within the location", name)
	}

	require.Len(t, once.Locations[0].Resorts, 2)
	assert.Equal(t, "Palm Cove (USD)", once.Locations[0].Resorts[0].ResortName)
	assert.Equal(t, "USD", once.Locations[0].Resorts[0].Currency)
	assert.Equal(t, []types.Room{{Type: "Garden Room", Price: 210}, {Type: "Beach Villa", Price: 340}},
		once.Locations[0].Resorts[0].Rooms)
	assert.Equal(t, "Palm Cove (EUR)", once.Locations[0].Resorts[1].ResortName)

	twice, err := Normalize(once)
	require.NoError(t, err)
	assert.Equal(t, once, twice)
}

func TestNormalize_Idempotent(t *testing.T) {
	input := &types.ExtractionResult{
		Locations: []types.Location{
			{
				Name: "Caribbean",
				Resorts: []types.Resort{
					{
						ResortName:   "Palm Cove",
						Currency:     "USD",
						LocationType: types.LocationTypeBundle, // misclassified
						Rooms:        []types.Room{{Type: "Garden Room", Price: 210}, {Type: "Garden Room", Price: 210}},
						Activities:   []types.Activity{{Name: "Dive Trip", Price: 75, IsIncluded: true}},
					},
					{
						ResortName:   "Palm Cove",
						Currency:     "EUR",
						LocationType: types.LocationTypeComponent,
						Rooms:        []types.Room{{Type: "Garden Room", Price: 195}},
						Activities:   []types.Activity{{Name: "Dive Trip", Price: 70}},
					},
				},
			},
			{
				Name: "Caribbean",
				Resorts: []types.Resort{{
					ResortName:   "Sunset Bay",
					Currency:     "USD",
					LocationType: types.LocationTypeBundle,
					Rooms:        []types.Room{{Type: "Suite", Price: 480}},
					Activities:   []types.Activity{{Name: "Breakfast", Price: 0, IsIncluded: true}},
				}},
			},
		},
	}

	once, err := Normalize(input)
	require.NoError(t, err)
	twice, err := Normalize(once)
	require.NoError(t, err)
	assert.Equal(t, once, twice)
}

func TestNormalize_DoesNotMutateInput(t *testing.T) {
	input := &types.ExtractionResult{
		Locations: []types.Location{
			{Name: "Greece", Resorts: []types.Resort{{
				ResortName:   "Santorini Suites",
				Currency:     "EUR",
				LocationType: types.LocationTypeBundle,
				Rooms:        []types.Room{{Type: "Cave Suite", Price: 350}},
				Activities:   []types.Activity{{Name: "Wine Tasting", Price: 45, IsIncluded: true}},
			}}},
		},
	}
	snapshot := input.Clone()

	_, err := Normalize(input)
	require.NoError(t, err)
	assert.Equal(t, snapshot, input)
}

func TestNormalize_EmptyResult(t *testing.T) {
	result, err := Normalize(&types.ExtractionResult{})
	require.NoError(t, err)
	assert.Empty(t, result.Locations)
}

func TestConflictError_Message(t *testing.T) {
	err := &ConflictError{Location: "Fiji", Resort: "Reef House", Message: "collision"}
	assert.Contains(t, err.Error(), "Fiji")
	assert.Contains(t, err.Error(), "Reef House")
}
