package main

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"rentacar/internal/app/uow"
	domaincars "rentacar/internal/domain/cars"
)

//go:embed fixtures/cars.json
var carFixtures []byte

type carFixture struct {
	ID           string           `json:"id"`
	Brand        string           `json:"brand"`
	Model        string           `json:"model"`
	Year         int              `json:"year"`
	Category     string           `json:"category"`
	Seats        int              `json:"seats"`
	Transmission string           `json:"transmission"`
	Fuel         string           `json:"fuel"`
	Rates        domaincars.Rates `json:"rates"`
	District     string           `json:"district"`
	City         string           `json:"city"`
	ImageURL     string           `json:"image_url"`
}

// seedFixtures lists the demo fleet. Cars already present are left alone.
func seedFixtures(ctx context.Context, factory uow.UoWFactory) (int, error) {
	var fleet []carFixture
	if err := json.Unmarshal(carFixtures, &fleet); err != nil {
		return 0, fmt.Errorf("decode fixtures: %w", err)
	}

	unit, ctx, err := uow.Bind(ctx, factory, uow.TxOptions{})
	if err != nil {
		return 0, err
	}
	defer func() { _ = unit.Rollback(ctx) }()

	now := time.Now().UTC()
	seeded := 0
	for _, f := range fleet {
		id := domaincars.CarID(f.ID)
		if _, err := unit.Cars().ByID(ctx, id); err == nil {
			continue
		} else if !errors.Is(err, domaincars.ErrCarNotFound) {
			return 0, err
		}
		category, ok := domaincars.ParseCategory(f.Category)
		if !ok {
			return 0, fmt.Errorf("fixture %s: unknown category %q", f.ID, f.Category)
		}
		car, err := domaincars.NewCar(id, domaincars.Details{
			Brand:        f.Brand,
			Model:        f.Model,
			Year:         f.Year,
			Category:     category,
			Seats:        f.Seats,
			Transmission: domaincars.Transmission(f.Transmission),
			Fuel:         f.Fuel,
			Rates:        f.Rates,
			Location:     domaincars.Location{District: f.District, City: f.City},
			ImageURL:     f.ImageURL,
		}, now)
		if err != nil {
			return 0, fmt.Errorf("fixture %s: %w", f.ID, err)
		}
		if err := unit.Cars().Save(ctx, car); err != nil {
			return 0, err
		}
		seeded++
	}
	if seeded == 0 {
		return 0, nil
	}
	if err := unit.Commit(ctx); err != nil {
		return 0, err
	}
	return seeded, nil
}
