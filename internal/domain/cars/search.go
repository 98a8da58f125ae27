package cars

import (
	"sort"
	"strings"
)

// CatalogSort defines a supported ordering.
type CatalogSort string

const (
	SortRecommended CatalogSort = "reco"
	SortByPriceAsc  CatalogSort = "price_asc"
	SortByPriceDesc CatalogSort = "price_desc"
	SortByName      CatalogSort = "name_asc"

	defaultSearchLimit = 24
	maxSearchLimit     = 60
)

// SearchParams describe catalog filters and paging options.
type SearchParams struct {
	Query         string
	Category      Category
	District      string
	Transmission  Transmission
	MinSeats      int
	PriceMin      int64
	PriceMax      int64
	OnlyAvailable bool
	Sort          CatalogSort
	Limit         int
	Offset        int
}

// Normalized returns a sanitized copy of params.
func (p SearchParams) Normalized() SearchParams {
	n := p
	n.Query = strings.TrimSpace(strings.ToLower(n.Query))
	n.District = strings.TrimSpace(strings.ToLower(n.District))
	if c, ok := ParseCategory(string(n.Category)); ok {
		n.Category = c
	} else {
		n.Category = ""
	}
	if n.MinSeats < 0 {
		n.MinSeats = 0
	}
	if n.PriceMin < 0 {
		n.PriceMin = 0
	}
	if n.PriceMax > 0 && n.PriceMax < n.PriceMin {
		n.PriceMax = 0
	}
	if n.Limit <= 0 {
		n.Limit = defaultSearchLimit
	}
	if n.Limit > maxSearchLimit {
		n.Limit = maxSearchLimit
	}
	if n.Offset < 0 {
		n.Offset = 0
	}
	switch n.Sort {
	case SortRecommended, SortByPriceAsc, SortByPriceDesc, SortByName:
	default:
		n.Sort = SortRecommended
	}
	return n
}

// Matches applies the filters of normalized params to one car.
func (p SearchParams) Matches(c *Car) bool {
	if c == nil {
		return false
	}
	if p.OnlyAvailable && !c.Available {
		return false
	}
	if p.Category != "" && c.Category != p.Category {
		return false
	}
	if p.Transmission != "" && !strings.EqualFold(string(c.Transmission), string(p.Transmission)) {
		return false
	}
	if p.District != "" && !strings.EqualFold(c.Location.District, p.District) {
		return false
	}
	if p.MinSeats > 0 && c.Seats < p.MinSeats {
		return false
	}
	if p.PriceMin > 0 && c.Rates.Daily < p.PriceMin {
		return false
	}
	if p.PriceMax > 0 && c.Rates.Daily > p.PriceMax {
		return false
	}
	if p.Query != "" {
		hay := strings.ToLower(strings.Join([]string{c.Brand, c.Model, string(c.Category), c.Location.City, c.Location.District}, " "))
		for _, tok := range strings.Fields(p.Query) {
			if !strings.Contains(hay, tok) {
				return false
			}
		}
	}
	return true
}

// SortCars orders cars in place. Ties fall back to the car title so the
// order is stable across stores.
func SortCars(items []*Car, by CatalogSort) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		switch by {
		case SortByPriceAsc:
			if a.Rates.Daily != b.Rates.Daily {
				return a.Rates.Daily < b.Rates.Daily
			}
		case SortByPriceDesc:
			if a.Rates.Daily != b.Rates.Daily {
				return a.Rates.Daily > b.Rates.Daily
			}
		case SortByName:
		default:
			if a.Available != b.Available {
				return a.Available
			}
			if a.Rating != b.Rating {
				return a.Rating > b.Rating
			}
			if a.RatingCount != b.RatingCount {
				return a.RatingCount > b.RatingCount
			}
		}
		return strings.ToLower(a.Title()) < strings.ToLower(b.Title())
	})
}

// Page slices a sorted result set.
func Page(items []*Car, offset, limit int) []*Car {
	if offset > len(items) {
		offset = len(items)
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}

// SearchResult wraps search hits with meta.
type SearchResult struct {
	Items []*Car
	Total int
}
