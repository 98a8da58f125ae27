package cars

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"rentacar/internal/domain/shared/events"
	"rentacar/internal/domain/shared/money"
)

var (
	ErrCarNotFound      = errors.New("cars: car not found")
	ErrBrandRequired    = errors.New("cars: brand is required")
	ErrModelRequired    = errors.New("cars: model is required")
	ErrSeats            = errors.New("cars: seats must be at least 1")
	ErrRates            = errors.New("cars: daily, weekly and monthly rates must be positive")
	ErrDriverFee        = errors.New("cars: driver fee must be non-negative")
	ErrInvalidYear      = errors.New("cars: year out of range")
	ErrLocationRequired = errors.New("cars: district is required")
)

type CarID string

type Category string

const (
	CategorySedan     Category = "Sedan"
	CategorySUV       Category = "SUV"
	CategoryHatchback Category = "Hatchback"
	CategoryEV        Category = "EV"
	CategoryLuxury    Category = "Luxury"
	CategoryEconomy   Category = "Economy"
)

// Categories lists the catalog filters in display order.
var Categories = []Category{CategorySedan, CategorySUV, CategoryHatchback, CategoryEV, CategoryLuxury, CategoryEconomy}

// ParseCategory matches case-insensitively; "" and "all" mean no filter.
func ParseCategory(v string) (Category, bool) {
	v = strings.TrimSpace(v)
	if v == "" || strings.EqualFold(v, "all") {
		return "", true
	}
	for _, c := range Categories {
		if strings.EqualFold(string(c), v) {
			return c, true
		}
	}
	return "", false
}

type Transmission string

const (
	TransmissionAuto   Transmission = "Auto"
	TransmissionManual Transmission = "Manual"
)

type Location struct {
	District string `json:"district"`
	City     string `json:"city"`
}

// Rates are the three posted prices: per day, per 7-day block and per
// 30-day block, plus the optional chauffeur fee per day.
type Rates struct {
	Daily           int64 `json:"daily"`
	Weekly          int64 `json:"weekly"`
	Monthly         int64 `json:"monthly"`
	DriverFeePerDay int64 `json:"driver_fee_per_day"`
}

func (r Rates) Validate() error {
	if r.Daily <= 0 || r.Weekly <= 0 || r.Monthly <= 0 {
		return ErrRates
	}
	if r.DriverFeePerDay < 0 {
		return ErrDriverFee
	}
	return nil
}

type Car struct {
	ID           CarID
	Brand        string
	Model        string
	Year         int
	Category     Category
	Seats        int
	Transmission Transmission
	Fuel         string
	Rates        Rates
	Currency     string
	Location     Location
	ImageURL     string
	Rating       float64
	RatingCount  int
	Available    bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
	Version      int64
	events.EventRecorder
}

type Repository interface {
	ByID(ctx context.Context, id CarID) (*Car, error)
	Save(ctx context.Context, car *Car) error
	Delete(ctx context.Context, id CarID) error
	Search(ctx context.Context, params SearchParams) (SearchResult, error)
}

// Details groups the editable attributes of a car.
type Details struct {
	Brand        string
	Model        string
	Year         int
	Category     Category
	Seats        int
	Transmission Transmission
	Fuel         string
	Rates        Rates
	Currency     string
	Location     Location
	ImageURL     string
}

func (d Details) normalized() Details {
	d.Brand = strings.TrimSpace(d.Brand)
	d.Model = strings.TrimSpace(d.Model)
	d.Fuel = strings.TrimSpace(d.Fuel)
	d.Location.District = strings.TrimSpace(d.Location.District)
	d.Location.City = strings.TrimSpace(d.Location.City)
	d.Currency = strings.ToUpper(strings.TrimSpace(d.Currency))
	if d.Currency == "" {
		d.Currency = money.DefaultCurrency
	}
	if d.Transmission == "" {
		d.Transmission = TransmissionAuto
	}
	return d
}

func (d Details) validate() error {
	if d.Brand == "" {
		return ErrBrandRequired
	}
	if d.Model == "" {
		return ErrModelRequired
	}
	if d.Year != 0 && (d.Year < 1950 || d.Year > 2100) {
		return ErrInvalidYear
	}
	if d.Seats < 1 {
		return ErrSeats
	}
	if d.Location.District == "" {
		return ErrLocationRequired
	}
	if len(d.Currency) != 3 {
		return money.ErrInvalidCurrency
	}
	return d.Rates.Validate()
}

func NewCar(id CarID, details Details, now time.Time) (*Car, error) {
	details = details.normalized()
	if err := details.validate(); err != nil {
		return nil, err
	}
	now = now.UTC()
	c := &Car{ID: id, Available: true, CreatedAt: now, UpdatedAt: now}
	c.apply(details)
	c.Record(CarListed{CarID: c.ID, Brand: c.Brand, Model: c.Model, At: now})
	return c, nil
}

// Update replaces the editable attributes after validation.
func (c *Car) Update(details Details, now time.Time) error {
	details = details.normalized()
	if err := details.validate(); err != nil {
		return err
	}
	c.apply(details)
	c.UpdatedAt = now.UTC()
	c.Record(CarUpdated{CarID: c.ID, Rates: c.Rates, At: c.UpdatedAt})
	return nil
}

// SetAvailability is the catalog on/off toggle. It does not touch the
// reservation calendar.
func (c *Car) SetAvailability(available bool, now time.Time) bool {
	if c.Available == available {
		return false
	}
	c.Available = available
	c.UpdatedAt = now.UTC()
	c.Record(CarAvailabilityChanged{CarID: c.ID, Available: available, At: c.UpdatedAt})
	return true
}

// Remove records that the car left the fleet. The repository delete follows.
func (c *Car) Remove(now time.Time) {
	c.Available = false
	c.UpdatedAt = now.UTC()
	c.Record(CarRemoved{CarID: c.ID, At: c.UpdatedAt})
}

func (c *Car) SetImage(url string, now time.Time) {
	c.ImageURL = strings.TrimSpace(url)
	c.UpdatedAt = now.UTC()
}

// ApplyRating stores an aggregate rating computed from approved reviews.
func (c *Car) ApplyRating(avg float64, count int) {
	c.Rating = avg
	c.RatingCount = count
}

// Title is "Brand Model Year".
func (c *Car) Title() string {
	parts := []string{c.Brand, c.Model}
	if c.Year > 0 {
		parts = append(parts, strconv.Itoa(c.Year))
	}
	return strings.TrimSpace(strings.Join(parts, " "))
}

func (c *Car) apply(d Details) {
	c.Brand = d.Brand
	c.Model = d.Model
	c.Year = d.Year
	c.Category = d.Category
	c.Seats = d.Seats
	c.Transmission = d.Transmission
	c.Fuel = d.Fuel
	c.Rates = d.Rates
	c.Currency = d.Currency
	c.Location = d.Location
	if d.ImageURL != "" {
		c.ImageURL = d.ImageURL
	}
}
