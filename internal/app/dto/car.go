package dto

import (
	"time"

	domaincars "rentacar/internal/domain/cars"
)

type Rates struct {
	Daily           int64 `json:"daily"`
	Weekly          int64 `json:"weekly"`
	Monthly         int64 `json:"monthly"`
	DriverFeePerDay int64 `json:"driver_fee_per_day"`
}

type Car struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Brand        string    `json:"brand"`
	Model        string    `json:"model"`
	Year         int       `json:"year"`
	Category     string    `json:"category"`
	Seats        int       `json:"seats"`
	Transmission string    `json:"transmission"`
	Fuel         string    `json:"fuel,omitempty"`
	Rates        Rates     `json:"rates"`
	Currency     string    `json:"currency"`
	District     string    `json:"district"`
	City         string    `json:"city,omitempty"`
	ImageURL     string    `json:"image_url,omitempty"`
	Rating       float64   `json:"rating"`
	RatingCount  int       `json:"rating_count"`
	Available    bool      `json:"available"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type CarCatalog struct {
	Items  []Car `json:"items"`
	Total  int   `json:"total"`
	Limit  int   `json:"limit"`
	Offset int   `json:"offset"`
}

func MapCar(c *domaincars.Car) Car {
	if c == nil {
		return Car{}
	}
	return Car{
		ID:           string(c.ID),
		Title:        c.Title(),
		Brand:        c.Brand,
		Model:        c.Model,
		Year:         c.Year,
		Category:     string(c.Category),
		Seats:        c.Seats,
		Transmission: string(c.Transmission),
		Fuel:         c.Fuel,
		Rates: Rates{
			Daily:           c.Rates.Daily,
			Weekly:          c.Rates.Weekly,
			Monthly:         c.Rates.Monthly,
			DriverFeePerDay: c.Rates.DriverFeePerDay,
		},
		Currency:    c.Currency,
		District:    c.Location.District,
		City:        c.Location.City,
		ImageURL:    c.ImageURL,
		Rating:      c.Rating,
		RatingCount: c.RatingCount,
		Available:   c.Available,
		UpdatedAt:   c.UpdatedAt,
	}
}

func MapCatalog(res domaincars.SearchResult, params domaincars.SearchParams) CarCatalog {
	items := make([]Car, 0, len(res.Items))
	for _, c := range res.Items {
		items = append(items, MapCar(c))
	}
	return CarCatalog{Items: items, Total: res.Total, Limit: params.Limit, Offset: params.Offset}
}
