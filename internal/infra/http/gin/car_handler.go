package ginserver

import (
	"log/slog"
	"net/http"
	"strings"

	gin "github.com/gin-gonic/gin"

	"rentacar/internal/app/dto"
	availabilityapp "rentacar/internal/app/handlers/availability"
	carsapp "rentacar/internal/app/handlers/cars"
	quotesapp "rentacar/internal/app/handlers/quotes"
	"rentacar/internal/app/queries"
	domaincars "rentacar/internal/domain/cars"
	"rentacar/internal/domain/shared/daterange"
)

type CarsHandler struct {
	Queries queries.Bus
	Logger  *slog.Logger
}

func (h CarsHandler) Catalog(c *gin.Context) {
	params := domaincars.SearchParams{
		Query:         c.Query("q"),
		Category:      domaincars.Category(c.Query("category")),
		District:      c.Query("district"),
		Transmission:  domaincars.Transmission(c.Query("transmission")),
		MinSeats:      parseNonNegativeInt(c.Query("seats"), 0),
		PriceMin:      parseInt64(c.Query("price_min")),
		PriceMax:      parseInt64(c.Query("price_max")),
		OnlyAvailable: parseFlag(c.Query("available")),
		Sort:          domaincars.CatalogSort(strings.ToLower(c.Query("sort"))),
		Limit:         parseNonNegativeInt(c.Query("limit"), 0),
		Offset:        parseNonNegativeInt(c.Query("offset"), 0),
	}
	result, err := queries.Ask[carsapp.SearchCarsQuery, dto.CarCatalog](c.Request.Context(), h.Queries, carsapp.SearchCarsQuery{Params: params})
	if err != nil {
		respondError(c, h.Logger, "car search", err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h CarsHandler) Get(c *gin.Context) {
	car, err := queries.Ask[carsapp.GetCarQuery, dto.Car](c.Request.Context(), h.Queries, carsapp.GetCarQuery{CarID: c.Param("id")})
	if err != nil {
		respondError(c, h.Logger, "car lookup", err)
		return
	}
	c.JSON(http.StatusOK, car)
}

// Calendar serves the month grid; ?monday=true starts weeks on Monday.
func (h CarsHandler) Calendar(c *gin.Context) {
	query := availabilityapp.MonthQuery{
		CarID:            c.Param("id"),
		Year:             parseNonNegativeInt(c.Query("year"), 0),
		Month:            parseNonNegativeInt(c.Query("month"), 0),
		WeekStartsMonday: parseFlag(c.Query("monday")),
	}
	result, err := queries.Ask[availabilityapp.MonthQuery, dto.MonthCalendar](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, h.Logger, "calendar", err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h CarsHandler) Availability(c *gin.Context) {
	date, err := daterange.Parse(c.Query("date"))
	if err != nil {
		respondError(c, h.Logger, "availability", err)
		return
	}
	query := availabilityapp.CheckDateQuery{CarID: c.Param("id"), Date: date}
	result, err := queries.Ask[availabilityapp.CheckDateQuery, dto.DayAvailability](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, h.Logger, "availability", err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h CarsHandler) Quote(c *gin.Context) {
	var body bookingRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, h.Logger, "quote", badRequest(err))
		return
	}
	req, err := body.toDomain(c.Param("id"))
	if err != nil {
		respondError(c, h.Logger, "quote", err)
		return
	}
	quote, err := queries.Ask[quotesapp.QuoteQuery, dto.Quote](c.Request.Context(), h.Queries, quotesapp.QuoteQuery{Request: req})
	if err != nil {
		respondError(c, h.Logger, "quote", err)
		return
	}
	c.JSON(http.StatusOK, quote)
}

var _ CarsHTTP = CarsHandler{}
