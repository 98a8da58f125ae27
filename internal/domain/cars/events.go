package cars

import "time"

type CarListed struct {
	CarID CarID
	Brand string
	Model string
	At    time.Time
}

func (e CarListed) EventName() string     { return "car.listed" }
func (e CarListed) AggregateID() string   { return string(e.CarID) }
func (e CarListed) OccurredAt() time.Time { return e.At }

type CarUpdated struct {
	CarID CarID
	Rates Rates
	At    time.Time
}

func (e CarUpdated) EventName() string     { return "car.updated" }
func (e CarUpdated) AggregateID() string   { return string(e.CarID) }
func (e CarUpdated) OccurredAt() time.Time { return e.At }

type CarAvailabilityChanged struct {
	CarID     CarID
	Available bool
	At        time.Time
}

func (e CarAvailabilityChanged) EventName() string     { return "car.availability_changed" }
func (e CarAvailabilityChanged) AggregateID() string   { return string(e.CarID) }
func (e CarAvailabilityChanged) OccurredAt() time.Time { return e.At }

type CarRemoved struct {
	CarID CarID
	At    time.Time
}

func (e CarRemoved) EventName() string     { return "car.removed" }
func (e CarRemoved) AggregateID() string   { return string(e.CarID) }
func (e CarRemoved) OccurredAt() time.Time { return e.At }
