package booking

import (
	"regexp"
	"strings"

	"rentacar/internal/domain/availability"
	"rentacar/internal/domain/shared/daterange"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// RequestState is the checkout state of a Request.
type RequestState string

const (
	StateEditing   RequestState = "editing"
	StateValidated RequestState = "validated"
	StateRejected  RequestState = "rejected"
	StateSubmitted RequestState = "submitted"
)

// Decision is the outcome of validating a request. Reason is nil when
// validated.
type Decision struct {
	State  RequestState
	Reason error
}

func (d Decision) OK() bool { return d.State == StateValidated }

func (d Decision) Field() string { return FieldOf(d.Reason) }

// Validate runs the checkout checks in order and reports the first failure.
func Validate(r Request, s availability.Schedule) Decision {
	if err := check(r, s); err != nil {
		return Decision{State: StateRejected, Reason: err}
	}
	return Decision{State: StateValidated}
}

func check(r Request, s availability.Schedule) error {
	if r.PickupDate.IsZero() || r.ReturnDate.IsZero() {
		return ErrInvalidRange
	}
	if daterange.Day(r.ReturnDate).Before(daterange.Day(r.PickupDate)) {
		return ErrInvalidRange
	}
	if availability.StatusOf(s, r.PickupDate) == availability.StatusConfirmed {
		return &DateUnavailableError{Field: FieldPickupDate, Date: daterange.Day(r.PickupDate)}
	}
	if availability.StatusOf(s, r.ReturnDate) == availability.StatusConfirmed {
		return &DateUnavailableError{Field: FieldReturnDate, Date: daterange.Day(r.ReturnDate)}
	}
	renter := r.Renter.normalized()
	required := []struct {
		field string
		value string
	}{
		{FieldFullName, renter.FullName},
		{FieldEmail, renter.Email},
		{FieldPhone, renter.Phone},
		{FieldNICOrPassport, renter.NICOrPassport},
	}
	for _, f := range required {
		if f.value == "" {
			return &FieldError{Field: f.field, Err: ErrIncompleteRenterInfo}
		}
	}
	if !emailPattern.MatchString(renter.Email) {
		return &FieldError{Field: FieldEmail, Err: ErrInvalidEmail}
	}
	if !r.TermsAccepted {
		return &FieldError{Field: FieldTerms, Err: ErrTermsNotAccepted}
	}
	return nil
}

// Flow tracks one request through Editing, Validated/Rejected and Submitted.
// It is owned by a single session and is not safe for concurrent use.
type Flow struct {
	req    Request
	state  RequestState
	reason error
}

func NewFlow(r Request) *Flow {
	return &Flow{req: r.Clone(), state: StateEditing}
}

func (f *Flow) State() RequestState { return f.state }

func (f *Flow) Reason() error { return f.reason }

// Request returns a copy of the current request.
func (f *Flow) Request() Request { return f.req.Clone() }

// Edit mutates the request. Any edit drops a previous verdict and returns
// the flow to Editing. If fn fails the request is left unchanged.
func (f *Flow) Edit(fn func(r *Request) error) error {
	if f.state == StateSubmitted {
		return ErrInvalidTransition
	}
	draft := f.req.Clone()
	if err := fn(&draft); err != nil {
		return err
	}
	f.req = draft
	f.state = StateEditing
	f.reason = nil
	return nil
}

// Validate moves Editing to Validated or Rejected. A flow that already has a
// verdict keeps it until the next edit.
func (f *Flow) Validate(s availability.Schedule) (Decision, error) {
	switch f.state {
	case StateSubmitted:
		return Decision{}, ErrInvalidTransition
	case StateValidated, StateRejected:
		return Decision{State: f.state, Reason: f.reason}, nil
	}
	d := Validate(f.req, s)
	f.state = d.State
	f.reason = d.Reason
	return d, nil
}

// Submit is allowed only from Validated.
func (f *Flow) Submit() (Request, error) {
	if f.state != StateValidated {
		return Request{}, ErrInvalidTransition
	}
	f.state = StateSubmitted
	return f.req.Clone(), nil
}

// NormalizeEmail lower-cases the domain part only.
func NormalizeEmail(email string) string {
	email = strings.TrimSpace(email)
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return email
	}
	return email[:at+1] + strings.ToLower(email[at+1:])
}
