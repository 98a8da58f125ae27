package ginserver

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	gin "github.com/gin-gonic/gin"

	"rentacar/internal/app/access"
	"rentacar/internal/app/commands"
	"rentacar/internal/app/dto"
	availabilityapp "rentacar/internal/app/handlers/availability"
	bookingapp "rentacar/internal/app/handlers/booking"
	carsapp "rentacar/internal/app/handlers/cars"
	reviewsapp "rentacar/internal/app/handlers/reviews"
	"rentacar/internal/app/queries"
	domainavailability "rentacar/internal/domain/availability"
	domainbooking "rentacar/internal/domain/booking"
	domaincars "rentacar/internal/domain/cars"
	domainreviews "rentacar/internal/domain/reviews"
	"rentacar/internal/domain/shared/daterange"
)

const maxPhotoBytes = 10 << 20

type AdminHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
	Feed     *domainreviews.Feed
	Logger   *slog.Logger
}

type carRequest struct {
	ID           string              `json:"id"`
	Brand        string              `json:"brand"`
	Model        string              `json:"model"`
	Year         int                 `json:"year"`
	Category     string              `json:"category"`
	Seats        int                 `json:"seats"`
	Transmission string              `json:"transmission"`
	Fuel         string              `json:"fuel"`
	Rates        domaincars.Rates    `json:"rates"`
	Currency     string              `json:"currency"`
	Location     domaincars.Location `json:"location"`
	ImageURL     string              `json:"image_url"`
}

func (r carRequest) details() (domaincars.Details, error) {
	category := domaincars.Category("")
	if strings.TrimSpace(r.Category) != "" {
		parsed, ok := domaincars.ParseCategory(r.Category)
		if !ok {
			return domaincars.Details{}, badRequest(fmt.Errorf("unknown category %q", r.Category))
		}
		category = parsed
	}
	return domaincars.Details{
		Brand:        r.Brand,
		Model:        r.Model,
		Year:         r.Year,
		Category:     category,
		Seats:        r.Seats,
		Transmission: domaincars.Transmission(r.Transmission),
		Fuel:         r.Fuel,
		Rates:        r.Rates,
		Currency:     r.Currency,
		Location:     r.Location,
		ImageURL:     r.ImageURL,
	}, nil
}

type availabilityRequest struct {
	Available *bool `json:"available"`
}

type paintRequest struct {
	Status string `json:"status"`
}

type replyRequest struct {
	Text string `json:"text"`
}

func (h AdminHandler) Bookings(c *gin.Context) {
	query := bookingapp.AllBookingsQuery{CarID: c.Query("car_id")}
	for _, raw := range strings.Split(c.Query("state"), ",") {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		state, ok := domainbooking.ParseState(raw)
		if !ok {
			respondError(c, h.Logger, "admin bookings", badRequest(fmt.Errorf("unknown state %q", raw)))
			return
		}
		query.States = append(query.States, state)
	}
	result, err := queries.Ask[bookingapp.AllBookingsQuery, dto.BookingList](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, h.Logger, "admin bookings", err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h AdminHandler) ConfirmBooking(c *gin.Context) {
	result, err := commands.Dispatch[bookingapp.ConfirmCommand, dto.Booking](c.Request.Context(), h.Commands, bookingapp.ConfirmCommand{BookingID: c.Param("id")})
	if err != nil {
		respondError(c, h.Logger, "booking confirm", err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// CancelBooking goes through the same command as the renter's cancel; the
// handler lets admins cancel any booking.
func (h AdminHandler) CancelBooking(c *gin.Context) {
	if err := access.Require(c.Request.Context(), access.AdminOnly); err != nil {
		respondError(c, h.Logger, "booking cancel", err)
		return
	}
	BookingHandler{Commands: h.Commands, Queries: h.Queries, Logger: h.Logger}.Cancel(c)
}

func (h AdminHandler) CreateCar(c *gin.Context) {
	var req carRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.Logger, "car create", badRequest(err))
		return
	}
	details, err := req.details()
	if err != nil {
		respondError(c, h.Logger, "car create", err)
		return
	}
	car, err := commands.Dispatch[carsapp.CreateCarCommand, dto.Car](c.Request.Context(), h.Commands, carsapp.CreateCarCommand{ID: req.ID, Details: details})
	if err != nil {
		respondError(c, h.Logger, "car create", err)
		return
	}
	c.JSON(http.StatusCreated, car)
}

func (h AdminHandler) UpdateCar(c *gin.Context) {
	var req carRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.Logger, "car update", badRequest(err))
		return
	}
	details, err := req.details()
	if err != nil {
		respondError(c, h.Logger, "car update", err)
		return
	}
	car, err := commands.Dispatch[carsapp.UpdateCarCommand, dto.Car](c.Request.Context(), h.Commands, carsapp.UpdateCarCommand{CarID: c.Param("id"), Details: details})
	if err != nil {
		respondError(c, h.Logger, "car update", err)
		return
	}
	c.JSON(http.StatusOK, car)
}

func (h AdminHandler) DeleteCar(c *gin.Context) {
	if _, err := commands.Dispatch[carsapp.DeleteCarCommand, struct{}](c.Request.Context(), h.Commands, carsapp.DeleteCarCommand{CarID: c.Param("id")}); err != nil {
		respondError(c, h.Logger, "car delete", err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h AdminHandler) SetCarAvailability(c *gin.Context) {
	var req availabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Available == nil {
		respondError(c, h.Logger, "car availability", badRequest(fmt.Errorf("available flag is required")))
		return
	}
	cmd := carsapp.SetAvailabilityCommand{CarID: c.Param("id"), Available: *req.Available}
	car, err := commands.Dispatch[carsapp.SetAvailabilityCommand, dto.Car](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, "car availability", err)
		return
	}
	c.JSON(http.StatusOK, car)
}

// UploadCarPhoto accepts a multipart "photo" field.
func (h AdminHandler) UploadCarPhoto(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxPhotoBytes+1<<20)
	header, err := c.FormFile("photo")
	if err != nil {
		respondError(c, h.Logger, "car photo", badRequest(err))
		return
	}
	file, err := header.Open()
	if err != nil {
		respondError(c, h.Logger, "car photo", badRequest(err))
		return
	}
	defer file.Close()

	cmd := carsapp.UploadPhotoCommand{
		CarID:       c.Param("id"),
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Reader:      io.Reader(file),
	}
	car, err := commands.Dispatch[carsapp.UploadPhotoCommand, dto.Car](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, "car photo", err)
		return
	}
	c.JSON(http.StatusOK, car)
}

func (h AdminHandler) PaintDay(c *gin.Context) {
	date, err := daterange.Parse(c.Param("date"))
	if err != nil {
		respondError(c, h.Logger, "calendar paint", err)
		return
	}
	var req paintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.Logger, "calendar paint", badRequest(err))
		return
	}
	cmd := availabilityapp.PaintDayCommand{
		CarID:  c.Param("id"),
		Date:   date,
		Status: domainavailability.DayStatus(strings.ToLower(strings.TrimSpace(req.Status))),
	}
	result, err := commands.Dispatch[availabilityapp.PaintDayCommand, dto.DayAvailability](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, "calendar paint", err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h AdminHandler) Reviews(c *gin.Context) {
	query := reviewsapp.AllReviewsQuery{
		Limit:  parseNonNegativeInt(c.Query("limit"), 50),
		Offset: parseNonNegativeInt(c.Query("offset"), 0),
	}
	if raw := c.Query("status"); raw != "" {
		status, ok := domainreviews.ParseStatus(raw)
		if !ok {
			respondError(c, h.Logger, "admin reviews", badRequest(fmt.Errorf("unknown status %q", raw)))
			return
		}
		query.Status = status
	}
	result, err := queries.Ask[reviewsapp.AllReviewsQuery, dto.ReviewCollection](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, h.Logger, "admin reviews", err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h AdminHandler) ApproveReview(c *gin.Context) {
	h.moderate(c, domainreviews.StatusApproved)
}

func (h AdminHandler) RejectReview(c *gin.Context) {
	h.moderate(c, domainreviews.StatusRejected)
}

func (h AdminHandler) moderate(c *gin.Context, status domainreviews.Status) {
	cmd := reviewsapp.ModerateCommand{ReviewID: c.Param("id"), Status: status}
	review, err := commands.Dispatch[reviewsapp.ModerateCommand, dto.Review](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, "review moderation", err)
		return
	}
	c.JSON(http.StatusOK, review)
}

func (h AdminHandler) ReplyReview(c *gin.Context) {
	var req replyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.Logger, "review reply", badRequest(err))
		return
	}
	cmd := reviewsapp.ReplyCommand{ReviewID: c.Param("id"), Text: req.Text}
	review, err := commands.Dispatch[reviewsapp.ReplyCommand, dto.Review](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, "review reply", err)
		return
	}
	c.JSON(http.StatusOK, review)
}

func (h AdminHandler) DeleteReview(c *gin.Context) {
	if _, err := commands.Dispatch[reviewsapp.DeleteCommand, struct{}](c.Request.Context(), h.Commands, reviewsapp.DeleteCommand{ReviewID: c.Param("id")}); err != nil {
		respondError(c, h.Logger, "review delete", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ReviewStream pushes review changes to the moderation screen as
// server-sent events until the client goes away.
func (h AdminHandler) ReviewStream(c *gin.Context) {
	if err := access.Require(c.Request.Context(), access.AdminOnly); err != nil {
		respondError(c, h.Logger, "review stream", err)
		return
	}
	if h.Feed == nil {
		c.Status(http.StatusNoContent)
		return
	}
	changes := make(chan domainreviews.Change, 16)
	stop := h.Feed.Subscribe(func(ch domainreviews.Change) {
		select {
		case changes <- ch:
		default:
		}
	})
	defer stop()

	c.Stream(func(w io.Writer) bool {
		select {
		case <-c.Request.Context().Done():
			return false
		case ch := <-changes:
			c.SSEvent("review", gin.H{"kind": ch.Kind, "review_id": ch.ReviewID, "status": ch.Status})
			return true
		}
	})
}

var _ AdminHTTP = AdminHandler{}
