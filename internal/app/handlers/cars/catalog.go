package cars

import (
	"context"

	"rentacar/internal/app/dto"
	"rentacar/internal/app/handlers/support"
	"rentacar/internal/app/queries"
	"rentacar/internal/app/uow"
	domaincars "rentacar/internal/domain/cars"
)

const (
	searchCarsKey = "cars.search"
	getCarKey     = "cars.get"
)

type SearchCarsQuery struct {
	Params domaincars.SearchParams
}

func (SearchCarsQuery) Key() string { return searchCarsKey }

type SearchCarsHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *SearchCarsHandler) Handle(ctx context.Context, q SearchCarsQuery) (dto.CarCatalog, error) {
	unit, ctx, cleanup, err := support.ReadUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.CarCatalog{}, err
	}
	defer cleanup()

	params := q.Params.Normalized()
	res, err := unit.Cars().Search(ctx, params)
	if err != nil {
		return dto.CarCatalog{}, err
	}
	return dto.MapCatalog(res, params), nil
}

type GetCarQuery struct {
	CarID string `validate:"required"`
}

func (GetCarQuery) Key() string { return getCarKey }

type GetCarHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *GetCarHandler) Handle(ctx context.Context, q GetCarQuery) (dto.Car, error) {
	unit, ctx, cleanup, err := support.ReadUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.Car{}, err
	}
	defer cleanup()

	car, err := unit.Cars().ByID(ctx, domaincars.CarID(q.CarID))
	if err != nil {
		return dto.Car{}, err
	}
	return dto.MapCar(car), nil
}

var (
	_ queries.Handler[SearchCarsQuery, dto.CarCatalog] = (*SearchCarsHandler)(nil)
	_ queries.Handler[GetCarQuery, dto.Car]            = (*GetCarHandler)(nil)
)
