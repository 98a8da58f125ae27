package reviews

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"rentacar/internal/app/access"
	"rentacar/internal/app/dto"
	"rentacar/internal/app/handlers/support"
	"rentacar/internal/app/outbox"
	"rentacar/internal/app/uow"
	domainbooking "rentacar/internal/domain/booking"
	domaincars "rentacar/internal/domain/cars"
	domainreviews "rentacar/internal/domain/reviews"
)

const (
	submitKey   = "reviews.submit"
	moderateKey = "reviews.moderate"
	replyKey    = "reviews.reply"
	deleteKey   = "reviews.delete"
)

type SubmitCommand struct {
	BookingID string `validate:"required"`
	Rating    int    `validate:"min=1,max=5"`
	Text      string `validate:"max=2000"`
}

func (SubmitCommand) Key() string               { return submitKey }
func (SubmitCommand) AccessLevel() access.Level { return access.SignedIn }

// ModerateCommand approves or rejects a review.
type ModerateCommand struct {
	ReviewID string               `validate:"required"`
	Status   domainreviews.Status `validate:"oneof=approved rejected"`
}

func (ModerateCommand) Key() string               { return moderateKey }
func (ModerateCommand) AccessLevel() access.Level { return access.AdminOnly }

type ReplyCommand struct {
	ReviewID string `validate:"required"`
	Text     string `validate:"required,max=2000"`
}

func (ReplyCommand) Key() string               { return replyKey }
func (ReplyCommand) AccessLevel() access.Level { return access.AdminOnly }

type DeleteCommand struct {
	ReviewID string `validate:"required"`
}

func (DeleteCommand) Key() string               { return deleteKey }
func (DeleteCommand) AccessLevel() access.Level { return access.AdminOnly }

// Handler serves review writes. Car ratings are recomputed from approved
// reviews whenever the approved set may have changed.
type Handler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Feed       *domainreviews.Feed
	Clock      support.Clock
	Logger     *slog.Logger
}

func (h *Handler) Submit(ctx context.Context, cmd SubmitCommand) (dto.Review, error) {
	authorID := access.Actor(ctx)
	if authorID == "" {
		return dto.Review{}, access.ErrUnauthenticated
	}
	unit, ctx, commit, cleanup, err := support.WriteUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.Review{}, err
	}
	defer cleanup()

	b, err := unit.Bookings().ByID(ctx, domainbooking.BookingID(cmd.BookingID))
	if err != nil {
		return dto.Review{}, err
	}
	if existing, err := unit.Reviews().ByBooking(ctx, b.ID); err == nil && existing != nil {
		return dto.Review{}, domainreviews.ErrDuplicateReview
	} else if err != nil && !errors.Is(err, domainreviews.ErrNotFound) {
		return dto.Review{}, err
	}
	review, err := domainreviews.Submit(domainreviews.SubmitParams{
		ID:        domainreviews.ReviewID(uuid.NewString()),
		Booking:   b,
		AuthorID:  authorID,
		Rating:    cmd.Rating,
		Text:      cmd.Text,
		CreatedAt: h.Clock.Now(),
	})
	if err != nil {
		return dto.Review{}, err
	}
	if err := unit.Reviews().Save(ctx, review); err != nil {
		return dto.Review{}, err
	}
	if err := support.Record(ctx, h.Outbox, h.Encoder, review); err != nil {
		return dto.Review{}, err
	}
	if err := commit(); err != nil {
		return dto.Review{}, err
	}
	h.publish(domainreviews.Change{Kind: domainreviews.ChangeSubmitted, ReviewID: review.ID, Status: review.Status})
	h.logger().InfoContext(ctx, "review submitted", "review_id", review.ID, "booking_id", b.ID, "rating", review.Rating)
	return dto.MapReview(review), nil
}

func (h *Handler) Moderate(ctx context.Context, cmd ModerateCommand) (dto.Review, error) {
	return h.mutate(ctx, cmd.ReviewID, true, func(r *domainreviews.Review) (domainreviews.ChangeKind, error) {
		switch cmd.Status {
		case domainreviews.StatusApproved:
			return domainreviews.ChangeApproved, r.Approve(h.Clock.Now())
		case domainreviews.StatusRejected:
			return domainreviews.ChangeRejected, r.Reject(h.Clock.Now())
		}
		return "", domainreviews.ErrInvalidStatus
	})
}

func (h *Handler) Reply(ctx context.Context, cmd ReplyCommand) (dto.Review, error) {
	return h.mutate(ctx, cmd.ReviewID, false, func(r *domainreviews.Review) (domainreviews.ChangeKind, error) {
		return domainreviews.ChangeReplied, r.ReplyTo(cmd.Text, access.Actor(ctx), h.Clock.Now())
	})
}

func (h *Handler) Delete(ctx context.Context, cmd DeleteCommand) (struct{}, error) {
	unit, ctx, commit, cleanup, err := support.WriteUnit(ctx, h.UoWFactory)
	if err != nil {
		return struct{}{}, err
	}
	defer cleanup()

	review, err := unit.Reviews().ByID(ctx, domainreviews.ReviewID(strings.TrimSpace(cmd.ReviewID)))
	if err != nil {
		return struct{}{}, err
	}
	if err := unit.Reviews().Delete(ctx, review.ID); err != nil {
		return struct{}{}, err
	}
	review.MarkDeleted(h.Clock.Now())
	if err := RecalculateRating(ctx, unit, review.CarID, h.Outbox, h.Encoder); err != nil {
		return struct{}{}, err
	}
	if err := support.Record(ctx, h.Outbox, h.Encoder, review); err != nil {
		return struct{}{}, err
	}
	if err := commit(); err != nil {
		return struct{}{}, err
	}
	h.publish(domainreviews.Change{Kind: domainreviews.ChangeDeleted, ReviewID: review.ID})
	return struct{}{}, nil
}

func (h *Handler) mutate(ctx context.Context, id string, rerate bool, fn func(*domainreviews.Review) (domainreviews.ChangeKind, error)) (dto.Review, error) {
	unit, ctx, commit, cleanup, err := support.WriteUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.Review{}, err
	}
	defer cleanup()

	review, err := unit.Reviews().ByID(ctx, domainreviews.ReviewID(strings.TrimSpace(id)))
	if err != nil {
		return dto.Review{}, err
	}
	kind, err := fn(review)
	if err != nil {
		return dto.Review{}, err
	}
	if err := unit.Reviews().Save(ctx, review); err != nil {
		return dto.Review{}, err
	}
	if rerate {
		if err := RecalculateRating(ctx, unit, review.CarID, h.Outbox, h.Encoder); err != nil {
			return dto.Review{}, err
		}
	}
	if err := support.Record(ctx, h.Outbox, h.Encoder, review); err != nil {
		return dto.Review{}, err
	}
	if err := commit(); err != nil {
		return dto.Review{}, err
	}
	h.publish(domainreviews.Change{Kind: kind, ReviewID: review.ID, Status: review.Status})
	return dto.MapReview(review), nil
}

// RecalculateRating stores the approved-review average on the car. A car
// removed from the fleet is skipped.
func RecalculateRating(ctx context.Context, unit uow.UnitOfWork, carID domaincars.CarID, box outbox.Outbox, encoder outbox.EventEncoder) error {
	items, err := unit.Reviews().List(ctx, domainreviews.ListFilter{CarID: carID, Status: domainreviews.StatusApproved})
	if err != nil {
		return err
	}
	avg, count := domainreviews.Average(items)
	car, err := unit.Cars().ByID(ctx, carID)
	if err != nil {
		if errors.Is(err, domaincars.ErrCarNotFound) {
			return nil
		}
		return err
	}
	car.ApplyRating(avg, count)
	if err := unit.Cars().Save(ctx, car); err != nil {
		return err
	}
	return support.Record(ctx, box, encoder, car)
}

func (h *Handler) publish(c domainreviews.Change) {
	if h.Feed != nil {
		h.Feed.Publish(c)
	}
}

func (h *Handler) logger() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}
