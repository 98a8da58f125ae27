// Package app assembles the command and query buses from the use-case
// handlers.
package app

import (
	"log/slog"

	"rentacar/internal/app/access"
	"rentacar/internal/app/commands"
	"rentacar/internal/app/dto"
	availabilityapp "rentacar/internal/app/handlers/availability"
	bookingapp "rentacar/internal/app/handlers/booking"
	carsapp "rentacar/internal/app/handlers/cars"
	quotesapp "rentacar/internal/app/handlers/quotes"
	reviewsapp "rentacar/internal/app/handlers/reviews"
	"rentacar/internal/app/handlers/support"
	"rentacar/internal/app/middleware"
	"rentacar/internal/app/outbox"
	"rentacar/internal/app/queries"
	"rentacar/internal/app/uow"
	"rentacar/internal/domain/pricing"
	domainreviews "rentacar/internal/domain/reviews"
)

// Deps are the ports the handlers run against.
type Deps struct {
	UoWFactory    uow.UoWFactory
	Outbox        outbox.Outbox
	Encoder       outbox.EventEncoder
	Pricing       pricing.Calculator
	Uploader      carsapp.PhotoUploader
	Feed          *domainreviews.Feed
	Idempotency   middleware.IdempotencyStore
	Validator     middleware.Validator
	Clock         support.Clock
	CommitRetries int
	Logger        *slog.Logger

	// QueryMiddleware runs innermost on the query bus, after authorization.
	QueryMiddleware []middleware.QueryMiddleware
}

type Buses struct {
	Commands commands.Bus
	Queries  queries.Bus
}

// NewBuses registers every handler and wraps both buses. Commands pass
// logging, validation, authorization and idempotency, then the outbox flush
// which wraps the transaction. CommitRetries bounds how often a command that
// lost a version race is replayed.
func NewBuses(d Deps) Buses {
	if d.Encoder == nil {
		d.Encoder = outbox.JSONEventEncoder{}
	}
	if d.Logger == nil {
		d.Logger = slog.Default()
	}

	commandBus := commands.NewInMemoryBus()
	queryBus := queries.NewInMemoryBus()

	fleet := &carsapp.AdminHandler{UoWFactory: d.UoWFactory, Outbox: d.Outbox, Encoder: d.Encoder, Uploader: d.Uploader, Clock: d.Clock, Logger: d.Logger}
	commands.RegisterHandler(commandBus, carsapp.CreateCarCommand{}.Key(), commands.HandlerFunc[carsapp.CreateCarCommand, dto.Car](fleet.Create))
	commands.RegisterHandler(commandBus, carsapp.UpdateCarCommand{}.Key(), commands.HandlerFunc[carsapp.UpdateCarCommand, dto.Car](fleet.Update))
	commands.RegisterHandler(commandBus, carsapp.SetAvailabilityCommand{}.Key(), commands.HandlerFunc[carsapp.SetAvailabilityCommand, dto.Car](fleet.SetAvailability))
	commands.RegisterHandler(commandBus, carsapp.DeleteCarCommand{}.Key(), commands.HandlerFunc[carsapp.DeleteCarCommand, struct{}](fleet.Delete))
	commands.RegisterHandler(commandBus, carsapp.UploadPhotoCommand{}.Key(), commands.HandlerFunc[carsapp.UploadPhotoCommand, dto.Car](fleet.UploadPhoto))
	queries.RegisterHandler(queryBus, carsapp.SearchCarsQuery{}.Key(), &carsapp.SearchCarsHandler{UoWFactory: d.UoWFactory})
	queries.RegisterHandler(queryBus, carsapp.GetCarQuery{}.Key(), &carsapp.GetCarHandler{UoWFactory: d.UoWFactory})

	calendar := &availabilityapp.Handler{UoWFactory: d.UoWFactory, Outbox: d.Outbox, Encoder: d.Encoder, Clock: d.Clock}
	queries.RegisterHandler(queryBus, availabilityapp.MonthQuery{}.Key(), queries.HandlerFunc[availabilityapp.MonthQuery, dto.MonthCalendar](calendar.Month))
	queries.RegisterHandler(queryBus, availabilityapp.CheckDateQuery{}.Key(), queries.HandlerFunc[availabilityapp.CheckDateQuery, dto.DayAvailability](calendar.Check))
	commands.RegisterHandler(commandBus, availabilityapp.PaintDayCommand{}.Key(), commands.HandlerFunc[availabilityapp.PaintDayCommand, dto.DayAvailability](calendar.Paint))

	queries.RegisterHandler(queryBus, quotesapp.QuoteQuery{}.Key(), &quotesapp.Handler{UoWFactory: d.UoWFactory, Pricing: d.Pricing})

	queries.RegisterHandler(queryBus, bookingapp.ValidateQuery{}.Key(), &bookingapp.ValidateHandler{UoWFactory: d.UoWFactory, Pricing: d.Pricing})
	commands.RegisterHandler(commandBus, bookingapp.SubmitCommand{}.Key(), &bookingapp.SubmitHandler{
		UoWFactory: d.UoWFactory,
		Pricing:    d.Pricing,
		Outbox:     d.Outbox,
		Encoder:    d.Encoder,
		Clock:      d.Clock,
		Logger:     d.Logger,
	})
	lifecycle := &bookingapp.LifecycleHandler{UoWFactory: d.UoWFactory, Outbox: d.Outbox, Encoder: d.Encoder, Clock: d.Clock, Logger: d.Logger}
	commands.RegisterHandler(commandBus, bookingapp.ConfirmCommand{}.Key(), commands.HandlerFunc[bookingapp.ConfirmCommand, dto.Booking](lifecycle.Confirm))
	commands.RegisterHandler(commandBus, bookingapp.CancelCommand{}.Key(), commands.HandlerFunc[bookingapp.CancelCommand, dto.Booking](lifecycle.Cancel))
	commands.RegisterHandler(commandBus, bookingapp.CompleteFinishedCommand{}.Key(), commands.HandlerFunc[bookingapp.CompleteFinishedCommand, bookingapp.CompleteResult](lifecycle.CompleteFinished))
	bookings := &bookingapp.ListHandler{UoWFactory: d.UoWFactory}
	queries.RegisterHandler(queryBus, bookingapp.MyBookingsQuery{}.Key(), queries.HandlerFunc[bookingapp.MyBookingsQuery, dto.BookingList](bookings.Mine))
	queries.RegisterHandler(queryBus, bookingapp.AllBookingsQuery{}.Key(), queries.HandlerFunc[bookingapp.AllBookingsQuery, dto.BookingList](bookings.All))
	queries.RegisterHandler(queryBus, bookingapp.GetBookingQuery{}.Key(), queries.HandlerFunc[bookingapp.GetBookingQuery, dto.Booking](bookings.Get))

	reviews := &reviewsapp.Handler{UoWFactory: d.UoWFactory, Outbox: d.Outbox, Encoder: d.Encoder, Feed: d.Feed, Clock: d.Clock, Logger: d.Logger}
	commands.RegisterHandler(commandBus, reviewsapp.SubmitCommand{}.Key(), commands.HandlerFunc[reviewsapp.SubmitCommand, dto.Review](reviews.Submit))
	commands.RegisterHandler(commandBus, reviewsapp.ModerateCommand{}.Key(), commands.HandlerFunc[reviewsapp.ModerateCommand, dto.Review](reviews.Moderate))
	commands.RegisterHandler(commandBus, reviewsapp.ReplyCommand{}.Key(), commands.HandlerFunc[reviewsapp.ReplyCommand, dto.Review](reviews.Reply))
	commands.RegisterHandler(commandBus, reviewsapp.DeleteCommand{}.Key(), commands.HandlerFunc[reviewsapp.DeleteCommand, struct{}](reviews.Delete))
	reviewLists := &reviewsapp.ListHandler{UoWFactory: d.UoWFactory}
	queries.RegisterHandler(queryBus, reviewsapp.CarReviewsQuery{}.Key(), queries.HandlerFunc[reviewsapp.CarReviewsQuery, dto.ReviewCollection](reviewLists.ForCar))
	queries.RegisterHandler(queryBus, reviewsapp.AllReviewsQuery{}.Key(), queries.HandlerFunc[reviewsapp.AllReviewsQuery, dto.ReviewCollection](reviewLists.All))

	commandMW := []middleware.CommandMiddleware{middleware.Logging(d.Logger)}
	queryMW := []middleware.QueryMiddleware{middleware.QueryLogging(d.Logger)}
	if d.Validator != nil {
		commandMW = append(commandMW, middleware.Validation(d.Validator))
		queryMW = append(queryMW, middleware.QueryValidation(d.Validator))
	}
	commandMW = append(commandMW, middleware.Authorization(access.Authorizer{}))
	queryMW = append(queryMW, middleware.QueryAuthorization(access.Authorizer{}))
	if d.Idempotency != nil {
		commandMW = append(commandMW, middleware.Idempotency(d.Idempotency, nil))
	}
	if d.Outbox != nil {
		commandMW = append(commandMW, middleware.OutboxFlush(d.Outbox, d.Logger))
	}
	commandMW = append(commandMW, middleware.Transaction(d.UoWFactory, d.CommitRetries))
	queryMW = append(queryMW, d.QueryMiddleware...)

	return Buses{
		Commands: middleware.ChainCommands(commandBus, commandMW...),
		Queries:  middleware.ChainQueries(queryBus, queryMW...),
	}
}
