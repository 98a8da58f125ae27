package ginserver

import (
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"rentacar/internal/app/commands"
	"rentacar/internal/app/dto"
	bookingapp "rentacar/internal/app/handlers/booking"
	"rentacar/internal/app/queries"
)

type BookingHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
	Logger   *slog.Logger
}

type cancelRequest struct {
	Reason string `json:"reason"`
}

// Validate runs the checkout checks without side effects. A failing
// request is still a 200; the verdict is in the body.
func (h BookingHandler) Validate(c *gin.Context) {
	var body bookingRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, h.Logger, "booking validation", badRequest(err))
		return
	}
	req, err := body.toDomain("")
	if err != nil {
		respondError(c, h.Logger, "booking validation", err)
		return
	}
	result, err := queries.Ask[bookingapp.ValidateQuery, dto.Validation](c.Request.Context(), h.Queries, bookingapp.ValidateQuery{Request: req})
	if err != nil {
		respondError(c, h.Logger, "booking validation", err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h BookingHandler) Submit(c *gin.Context) {
	var body bookingRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, h.Logger, "booking submit", badRequest(err))
		return
	}
	req, err := body.toDomain("")
	if err != nil {
		respondError(c, h.Logger, "booking submit", err)
		return
	}
	cmd := bookingapp.SubmitCommand{
		BookingID:       uuid.NewString(),
		Request:         req,
		IdempotencyKeyV: c.GetHeader("Idempotency-Key"),
	}
	result, err := commands.Dispatch[bookingapp.SubmitCommand, *dto.Booking](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, "booking submit", err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h BookingHandler) Mine(c *gin.Context) {
	result, err := queries.Ask[bookingapp.MyBookingsQuery, dto.BookingList](c.Request.Context(), h.Queries, bookingapp.MyBookingsQuery{})
	if err != nil {
		respondError(c, h.Logger, "my bookings", err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h BookingHandler) Get(c *gin.Context) {
	result, err := queries.Ask[bookingapp.GetBookingQuery, dto.Booking](c.Request.Context(), h.Queries, bookingapp.GetBookingQuery{BookingID: c.Param("id")})
	if err != nil {
		respondError(c, h.Logger, "booking lookup", err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Cancel lets renters withdraw their own bookings.
func (h BookingHandler) Cancel(c *gin.Context) {
	var body cancelRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			respondError(c, h.Logger, "booking cancel", badRequest(err))
			return
		}
	}
	cmd := bookingapp.CancelCommand{BookingID: c.Param("id"), Reason: body.Reason}
	result, err := commands.Dispatch[bookingapp.CancelCommand, dto.Booking](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, "booking cancel", err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ BookingsHTTP = BookingHandler{}
