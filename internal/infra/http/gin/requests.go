package ginserver

import (
	"fmt"
	"strconv"
	"strings"

	domainbooking "rentacar/internal/domain/booking"
	domaincars "rentacar/internal/domain/cars"
	domainpricing "rentacar/internal/domain/pricing"
	"rentacar/internal/domain/shared/daterange"
)

type renterRequest struct {
	FullName      string `json:"full_name"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	NICOrPassport string `json:"nic_or_passport"`
}

// bookingRequest is the checkout form. Omitting addons keeps the default
// selection (full insurance); an empty list clears it.
type bookingRequest struct {
	CarID          string        `json:"car_id"`
	PickupDate     string        `json:"pickup_date"`
	ReturnDate     string        `json:"return_date"`
	PickupTime     string        `json:"pickup_time"`
	ReturnTime     string        `json:"return_time"`
	PickupDistrict string        `json:"pickup_district"`
	ReturnDistrict string        `json:"return_district"`
	WithDriver     bool          `json:"with_driver"`
	Addons         *[]string     `json:"addons"`
	PromoCode      string        `json:"promo_code"`
	Renter         renterRequest `json:"renter"`
	TermsAccepted  bool          `json:"terms_accepted"`
}

func (r bookingRequest) toDomain(carID string) (domainbooking.Request, error) {
	if carID == "" {
		carID = strings.TrimSpace(r.CarID)
	}
	if carID == "" {
		return domainbooking.Request{}, badRequest(fmt.Errorf("car_id is required"))
	}
	pickup, err := daterange.Parse(r.PickupDate)
	if err != nil {
		return domainbooking.Request{}, fmt.Errorf("pickup_date: %w", err)
	}
	ret, err := daterange.Parse(r.ReturnDate)
	if err != nil {
		return domainbooking.Request{}, fmt.Errorf("return_date: %w", err)
	}
	req := domainbooking.NewRequest(domaincars.CarID(carID), pickup, ret)
	if v := strings.TrimSpace(r.PickupTime); v != "" {
		req.PickupTime = v
	}
	if v := strings.TrimSpace(r.ReturnTime); v != "" {
		req.ReturnTime = v
	}
	req.SetDistricts(r.PickupDistrict, r.ReturnDistrict)
	req.WithDriver = r.WithDriver
	if r.Addons != nil {
		req.Addons = domainpricing.NewAddonSet()
		for _, raw := range *r.Addons {
			kind, ok := domainpricing.ParseAddon(raw)
			if !ok {
				return domainbooking.Request{}, badRequest(fmt.Errorf("unknown add-on %q", raw))
			}
			req.Addons[kind] = true
		}
	}
	req.ApplyPromo(r.PromoCode)
	req.Renter = domainbooking.Renter{
		FullName:      r.Renter.FullName,
		Email:         r.Renter.Email,
		Phone:         r.Renter.Phone,
		NICOrPassport: r.Renter.NICOrPassport,
	}
	req.TermsAccepted = r.TermsAccepted
	return req, nil
}

func parseNonNegativeInt(raw string, fallback int) int {
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || value < 0 {
		return fallback
	}
	return value
}

func parseInt64(raw string) int64 {
	value, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || value < 0 {
		return 0
	}
	return value
}

func parseFlag(raw string) bool {
	v, err := strconv.ParseBool(strings.TrimSpace(raw))
	return err == nil && v
}
