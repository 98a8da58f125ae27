package ginserver

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"rentacar/internal/app/access"
	availabilityapp "rentacar/internal/app/handlers/availability"
	bookingapp "rentacar/internal/app/handlers/booking"
	carsapp "rentacar/internal/app/handlers/cars"
	"rentacar/internal/app/middleware"
	authsvc "rentacar/internal/app/services/auth"
	"rentacar/internal/app/uow"
	domainauth "rentacar/internal/domain/auth"
	domainavailability "rentacar/internal/domain/availability"
	domainbooking "rentacar/internal/domain/booking"
	domaincars "rentacar/internal/domain/cars"
	domainpricing "rentacar/internal/domain/pricing"
	domainreviews "rentacar/internal/domain/reviews"
	"rentacar/internal/domain/shared/daterange"
	domainuser "rentacar/internal/domain/user"
	"rentacar/internal/infra/security"
	"rentacar/internal/infra/validation"
)

var errBadRequest = errors.New("invalid request body")

type errorBody struct {
	Error  string                  `json:"error"`
	Field  string                  `json:"field,omitempty"`
	Fields []validation.FieldError `json:"fields,omitempty"`
}

// statusFor maps application errors to HTTP statuses.
func statusFor(err error) int {
	var replayed *middleware.ReplayedError
	switch {
	case errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, access.ErrUnauthenticated),
		errors.Is(err, authsvc.ErrInvalidCredentials),
		errors.Is(err, domainauth.ErrSessionNotFound):
		return http.StatusUnauthorized
	case errors.Is(err, access.ErrForbidden),
		errors.Is(err, bookingapp.ErrNotOwner),
		errors.Is(err, domainreviews.ErrNotAuthor):
		return http.StatusForbidden
	case errors.Is(err, domaincars.ErrCarNotFound),
		errors.Is(err, domainbooking.ErrBookingNotFound),
		errors.Is(err, domainreviews.ErrNotFound),
		errors.Is(err, domainuser.ErrNotFound),
		errors.Is(err, domainavailability.ErrRangeNotFound):
		return http.StatusNotFound
	case errors.Is(err, domainbooking.ErrDateUnavailable),
		errors.Is(err, domainavailability.ErrConfirmedOverlap),
		errors.Is(err, domainavailability.ErrReferenceTaken),
		errors.Is(err, domainbooking.ErrInvalidState),
		errors.Is(err, domainbooking.ErrNotFinished),
		errors.Is(err, bookingapp.ErrCarUnavailable),
		errors.Is(err, domainreviews.ErrDuplicateReview),
		errors.Is(err, domainreviews.ErrAlreadyModerated),
		errors.Is(err, domainuser.ErrEmailAlreadyUsed),
		errors.Is(err, uow.ErrConcurrentUpdate),
		errors.As(err, &replayed):
		return http.StatusConflict
	case errors.Is(err, validation.ErrInvalidInput),
		errors.Is(err, daterange.ErrInvalidRange),
		errors.Is(err, daterange.ErrInvalidDate),
		errors.Is(err, domainbooking.ErrIncompleteRenterInfo),
		errors.Is(err, domainbooking.ErrInvalidEmail),
		errors.Is(err, domainbooking.ErrTermsNotAccepted),
		errors.Is(err, domainbooking.ErrTotalNotPositive),
		errors.Is(err, domainpricing.ErrInvalidRates),
		errors.Is(err, domaincars.ErrBrandRequired),
		errors.Is(err, domaincars.ErrModelRequired),
		errors.Is(err, domaincars.ErrSeats),
		errors.Is(err, domaincars.ErrRates),
		errors.Is(err, domaincars.ErrDriverFee),
		errors.Is(err, domaincars.ErrInvalidYear),
		errors.Is(err, domaincars.ErrLocationRequired),
		errors.Is(err, domainreviews.ErrInvalidRating),
		errors.Is(err, domainreviews.ErrNotReviewable),
		errors.Is(err, domainreviews.ErrEmptyReply),
		errors.Is(err, domainreviews.ErrInvalidStatus),
		errors.Is(err, domainavailability.ErrInvalidStatus),
		errors.Is(err, availabilityapp.ErrInvalidMonth),
		errors.Is(err, carsapp.ErrPhotoRequired),
		errors.Is(err, authsvc.ErrPasswordTooShort),
		errors.Is(err, security.ErrPasswordTooLong),
		errors.Is(err, domainuser.ErrEmailRequired),
		errors.Is(err, domainuser.ErrNameRequired):
		return http.StatusUnprocessableEntity
	case errors.Is(err, carsapp.ErrUploaderUnavailable),
		errors.Is(err, authsvc.ErrNotConfigured),
		errors.Is(err, uow.ErrUnitOfWorkMissing):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// respondError writes the error body. Internal failures are logged with
// detail and reported generically.
func respondError(c *gin.Context, logger *slog.Logger, op string, err error) {
	if logger == nil {
		logger = slog.Default()
	}
	status := statusFor(err)
	body := errorBody{Error: err.Error(), Field: domainbooking.FieldOf(err)}
	var verr *validation.Error
	if errors.As(err, &verr) {
		body.Fields = verr.Fields
	}
	ctx := c.Request.Context()
	if status >= http.StatusInternalServerError {
		logger.ErrorContext(ctx, op+" failed", "status", status, "error", err)
		if status == http.StatusInternalServerError {
			body = errorBody{Error: "internal error"}
		}
	} else {
		logger.WarnContext(ctx, op+" rejected", "status", status, "error", err)
	}
	c.AbortWithStatusJSON(status, body)
}

func badRequest(err error) error {
	return fmt.Errorf("%w: %v", errBadRequest, err)
}
