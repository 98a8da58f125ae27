package reviews

import (
	"context"

	"rentacar/internal/app/access"
	"rentacar/internal/app/dto"
	"rentacar/internal/app/handlers/support"
	"rentacar/internal/app/uow"
	domaincars "rentacar/internal/domain/cars"
	domainreviews "rentacar/internal/domain/reviews"
)

const (
	carReviewsKey = "reviews.list_car"
	allReviewsKey = "reviews.list_all"
)

// CarReviewsQuery lists the approved reviews of a car.
type CarReviewsQuery struct {
	CarID  string
	Limit  int
	Offset int
}

func (CarReviewsQuery) Key() string { return carReviewsKey }

// AllReviewsQuery is the moderation queue; an empty Status lists every review.
type AllReviewsQuery struct {
	Status domainreviews.Status
	Limit  int
	Offset int
}

func (AllReviewsQuery) Key() string               { return allReviewsKey }
func (AllReviewsQuery) AccessLevel() access.Level { return access.AdminOnly }

type ListHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *ListHandler) ForCar(ctx context.Context, q CarReviewsQuery) (dto.ReviewCollection, error) {
	return h.list(ctx, domainreviews.ListFilter{
		CarID:  domaincars.CarID(q.CarID),
		Status: domainreviews.StatusApproved,
		Limit:  q.Limit,
		Offset: q.Offset,
	})
}

func (h *ListHandler) All(ctx context.Context, q AllReviewsQuery) (dto.ReviewCollection, error) {
	return h.list(ctx, domainreviews.ListFilter{Status: q.Status, Limit: q.Limit, Offset: q.Offset})
}

func (h *ListHandler) list(ctx context.Context, filter domainreviews.ListFilter) (dto.ReviewCollection, error) {
	unit, ctx, cleanup, err := support.ReadUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.ReviewCollection{}, err
	}
	defer cleanup()
	items, err := unit.Reviews().List(ctx, filter)
	if err != nil {
		return dto.ReviewCollection{}, err
	}
	return dto.MapReviews(items), nil
}
