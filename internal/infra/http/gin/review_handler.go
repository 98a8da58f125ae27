package ginserver

import (
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"rentacar/internal/app/commands"
	"rentacar/internal/app/dto"
	reviewsapp "rentacar/internal/app/handlers/reviews"
	"rentacar/internal/app/queries"
)

type ReviewsHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
	Logger   *slog.Logger
}

type submitReviewRequest struct {
	Rating int    `json:"rating"`
	Text   string `json:"text"`
}

func (h ReviewsHandler) Submit(c *gin.Context) {
	var req submitReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.Logger, "review submit", badRequest(err))
		return
	}
	cmd := reviewsapp.SubmitCommand{
		BookingID: c.Param("id"),
		Rating:    req.Rating,
		Text:      req.Text,
	}
	review, err := commands.Dispatch[reviewsapp.SubmitCommand, dto.Review](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, "review submit", err)
		return
	}
	c.JSON(http.StatusCreated, review)
}

func (h ReviewsHandler) ListByCar(c *gin.Context) {
	query := reviewsapp.CarReviewsQuery{
		CarID:  c.Param("id"),
		Limit:  parseNonNegativeInt(c.Query("limit"), 20),
		Offset: parseNonNegativeInt(c.Query("offset"), 0),
	}
	result, err := queries.Ask[reviewsapp.CarReviewsQuery, dto.ReviewCollection](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, h.Logger, "car reviews", err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ ReviewsHTTP = ReviewsHandler{}
