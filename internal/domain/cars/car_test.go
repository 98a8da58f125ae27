package cars

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2025, 9, 1, 8, 0, 0, 0, time.UTC)

func details() Details {
	return Details{
		Brand:    " Toyota ",
		Model:    "Aqua",
		Year:     2019,
		Category: CategoryHatchback,
		Seats:    5,
		Fuel:     "Hybrid",
		Rates:    Rates{Daily: 10000, Weekly: 63000, Monthly: 240000, DriverFeePerDay: 2500},
		Location: Location{District: "Colombo", City: "Colombo 03"},
	}
}

func TestNewCarValidates(t *testing.T) {
	c, err := NewCar("car-1", details(), now)
	require.NoError(t, err)
	assert.Equal(t, "Toyota", c.Brand)
	assert.Equal(t, "LKR", c.Currency)
	assert.Equal(t, TransmissionAuto, c.Transmission)
	assert.True(t, c.Available)
	assert.Equal(t, "Toyota Aqua 2019", c.Title())

	bad := details()
	bad.Rates.Weekly = 0
	_, err = NewCar("car-2", bad, now)
	assert.ErrorIs(t, err, ErrRates)

	bad = details()
	bad.Seats = 0
	_, err = NewCar("car-2", bad, now)
	assert.ErrorIs(t, err, ErrSeats)
}

func TestSetAvailabilityRecordsOnChange(t *testing.T) {
	c, err := NewCar("car-1", details(), now)
	require.NoError(t, err)
	c.ClearEvents()
	assert.False(t, c.SetAvailability(true, now))
	assert.True(t, c.SetAvailability(false, now))
	require.Len(t, c.PendingEvents(), 1)
	assert.Equal(t, "car.availability_changed", c.PendingEvents()[0].EventName())
}

func TestSearchNormalizationAndMatching(t *testing.T) {
	p := SearchParams{Query: " Toyota ", Category: "all", Sort: "weird", Limit: 500, PriceMax: 5, PriceMin: 10}.Normalized()
	assert.Equal(t, "toyota", p.Query)
	assert.Equal(t, Category(""), p.Category)
	assert.Equal(t, SortRecommended, p.Sort)
	assert.Equal(t, maxSearchLimit, p.Limit)
	assert.Zero(t, p.PriceMax)

	c, err := NewCar("car-1", details(), now)
	require.NoError(t, err)
	assert.True(t, SearchParams{Query: "aqua colombo"}.Normalized().Matches(c))
	assert.False(t, SearchParams{Query: "prius"}.Normalized().Matches(c))
	assert.False(t, SearchParams{Category: "suv"}.Normalized().Matches(c))
	assert.True(t, SearchParams{Category: "hatchback"}.Normalized().Matches(c))
	c.SetAvailability(false, now)
	assert.False(t, SearchParams{OnlyAvailable: true}.Normalized().Matches(c))
}

func TestSortCars(t *testing.T) {
	mk := func(brand string, daily int64, rating float64, available bool) *Car {
		return &Car{Brand: brand, Model: "X", Rates: Rates{Daily: daily}, Rating: rating, Available: available}
	}
	items := []*Car{mk("Cc", 300, 4.0, true), mk("Aa", 100, 3.0, true), mk("Bb", 200, 5.0, false)}

	SortCars(items, SortByPriceDesc)
	assert.Equal(t, "Cc", items[0].Brand)
	SortCars(items, SortByPriceAsc)
	assert.Equal(t, "Aa", items[0].Brand)
	SortCars(items, SortByName)
	assert.Equal(t, []string{"Aa", "Bb", "Cc"}, []string{items[0].Brand, items[1].Brand, items[2].Brand})
	SortCars(items, SortRecommended)
	assert.Equal(t, []string{"Cc", "Aa", "Bb"}, []string{items[0].Brand, items[1].Brand, items[2].Brand})

	assert.Len(t, Page(items, 1, 5), 2)
	assert.Empty(t, Page(items, 9, 5))
}

func TestCanonicalDistrict(t *testing.T) {
	d, ok := CanonicalDistrict(" nuwara eliya ")
	assert.True(t, ok)
	assert.Equal(t, "Nuwara Eliya", d)
	_, ok = CanonicalDistrict("Atlantis")
	assert.False(t, ok)
}
