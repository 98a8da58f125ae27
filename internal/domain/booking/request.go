package booking

import (
	"context"
	"strings"
	"time"

	"rentacar/internal/domain/availability"
	"rentacar/internal/domain/cars"
	"rentacar/internal/domain/pricing"
	"rentacar/internal/domain/shared/daterange"
)

const DefaultHandoverTime = "10:00"

type Renter struct {
	FullName      string `json:"full_name"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	NICOrPassport string `json:"nic_or_passport"`
}

func (r Renter) normalized() Renter {
	return Renter{
		FullName:      strings.TrimSpace(r.FullName),
		Email:         strings.TrimSpace(r.Email),
		Phone:         strings.TrimSpace(r.Phone),
		NICOrPassport: strings.TrimSpace(r.NICOrPassport),
	}
}

// Request is the renter's in-progress configuration of a rental. Every
// setter keeps ReturnDate on or after PickupDate.
type Request struct {
	CarID          cars.CarID
	PickupDate     time.Time
	ReturnDate     time.Time
	PickupTime     string
	ReturnTime     string
	PickupDistrict string
	ReturnDistrict string
	WithDriver     bool
	Addons         pricing.AddonSet
	PromoCode      string
	Renter         Renter
	TermsAccepted  bool
}

// NewRequest starts a request on the given dates with full insurance
// preselected. An inverted pair is clamped, not rejected.
func NewRequest(carID cars.CarID, pickup, ret time.Time) Request {
	r := Request{
		CarID:      carID,
		PickupTime: DefaultHandoverTime,
		ReturnTime: DefaultHandoverTime,
		Addons:     pricing.NewAddonSet(pricing.AddonFullInsurance),
	}
	r.PickupDate = daterange.Day(pickup)
	r.SetReturnDate(ret)
	return r
}

// SetPickupDate moves the pickup and drags the return forward if needed.
func (r *Request) SetPickupDate(d time.Time) {
	r.PickupDate = daterange.Day(d)
	if !r.ReturnDate.IsZero() && r.ReturnDate.Before(r.PickupDate) {
		r.ReturnDate = r.PickupDate
	}
	if r.ReturnDate.IsZero() {
		r.ReturnDate = r.PickupDate
	}
}

// SetReturnDate clamps a return before pickup to the pickup date.
func (r *Request) SetReturnDate(d time.Time) {
	d = daterange.Day(d)
	if !r.PickupDate.IsZero() && d.Before(r.PickupDate) {
		d = r.PickupDate
	}
	r.ReturnDate = d
}

// SelectPickupDate applies a calendar pick. A confirmed date is refused and
// the request keeps its previous dates.
func (r *Request) SelectPickupDate(s availability.Schedule, d time.Time) error {
	if availability.StatusOf(s, d) == availability.StatusConfirmed {
		return &DateUnavailableError{Field: FieldPickupDate, Date: daterange.Day(d)}
	}
	r.SetPickupDate(d)
	return nil
}

func (r *Request) SelectReturnDate(s availability.Schedule, d time.Time) error {
	if availability.StatusOf(s, d) == availability.StatusConfirmed {
		return &DateUnavailableError{Field: FieldReturnDate, Date: daterange.Day(d)}
	}
	r.SetReturnDate(d)
	return nil
}

func (r *Request) SetDistricts(pickup, ret string) {
	r.PickupDistrict = canonical(pickup)
	r.ReturnDistrict = canonical(ret)
}

func (r *Request) ToggleAddon(kind pricing.AddonKind) bool {
	if r.Addons == nil {
		r.Addons = pricing.AddonSet{}
	}
	return r.Addons.Toggle(kind)
}

func (r *Request) ApplyPromo(code string) {
	r.PromoCode = pricing.NormalizePromoCode(code)
}

// Range is the inclusive rental period.
func (r Request) Range() (daterange.DateRange, error) {
	return daterange.New(r.PickupDate, r.ReturnDate)
}

// Clone copies the request including its add-on set.
func (r Request) Clone() Request {
	out := r
	out.Addons = r.Addons.Clone()
	return out
}

// QuoteInput turns the request into pricing input for the given car.
func (r Request) QuoteInput(car *cars.Car) pricing.QuoteInput {
	in := pricing.InputForCar(car)
	in.Pickup = r.PickupDate
	in.Return = r.ReturnDate
	in.WithDriver = r.WithDriver
	in.Addons = r.Addons
	in.PickupDistrict = r.PickupDistrict
	in.ReturnDistrict = r.ReturnDistrict
	in.PromoCode = r.PromoCode
	return in
}

// ComputeQuote prices r against car's rates. The quote, validate and submit
// handlers all price through it.
func ComputeQuote(ctx context.Context, calc pricing.Calculator, car *cars.Car, r Request) (pricing.PriceQuote, error) {
	return calc.Quote(ctx, r.QuoteInput(car))
}

func canonical(district string) string {
	d, _ := cars.CanonicalDistrict(district)
	return d
}
