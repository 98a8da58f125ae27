package pricing

import (
	"sort"
	"strings"
)

type AddonKind string

const (
	AddonGPS           AddonKind = "gps"
	AddonChildSeat     AddonKind = "child_seat"
	AddonExtraDriver   AddonKind = "extra_driver"
	AddonFullInsurance AddonKind = "full_insurance"
	AddonDelivery      AddonKind = "delivery"
)

// AddonOrder is the itemization order of add-on lines.
var AddonOrder = []AddonKind{AddonGPS, AddonChildSeat, AddonExtraDriver, AddonFullInsurance, AddonDelivery}

var addonAliases = map[string]AddonKind{
	"gps":            AddonGPS,
	"childseat":      AddonChildSeat,
	"child_seat":     AddonChildSeat,
	"extradriver":    AddonExtraDriver,
	"extra_driver":   AddonExtraDriver,
	"fullinsurance":  AddonFullInsurance,
	"full_insurance": AddonFullInsurance,
	"insurance":      AddonFullInsurance,
	"delivery":       AddonDelivery,
}

// ParseAddon accepts snake_case and camelCase spellings.
func ParseAddon(v string) (AddonKind, bool) {
	k, ok := addonAliases[strings.ToLower(strings.TrimSpace(v))]
	return k, ok
}

func (k AddonKind) Label() string {
	switch k {
	case AddonGPS:
		return "GPS navigation"
	case AddonChildSeat:
		return "Child seat"
	case AddonExtraDriver:
		return "Additional driver"
	case AddonFullInsurance:
		return "Full insurance"
	case AddonDelivery:
		return "Delivery / collection"
	}
	return string(k)
}

// ChargeMode says whether an add-on is metered per day or flat.
type ChargeMode string

const (
	ChargePerDay ChargeMode = "per_day"
	ChargeFlat   ChargeMode = "flat"
)

type AddonPrice struct {
	Mode   ChargeMode `yaml:"mode" json:"mode"`
	Amount int64      `yaml:"amount" json:"amount"`
}

// Charge prices the add-on for a rental of the given length.
func (p AddonPrice) Charge(days int) int64 {
	if p.Mode == ChargePerDay {
		return p.Amount * int64(days)
	}
	return p.Amount
}

// AddonSet is the user's explicit selection.
type AddonSet map[AddonKind]bool

func NewAddonSet(kinds ...AddonKind) AddonSet {
	s := make(AddonSet, len(kinds))
	for _, k := range kinds {
		s[k] = true
	}
	return s
}

func (s AddonSet) Has(k AddonKind) bool { return s != nil && s[k] }

// Toggle flips a selection and returns the new state.
func (s AddonSet) Toggle(k AddonKind) bool {
	s[k] = !s[k]
	return s[k]
}

// Kinds lists the selected add-ons in itemization order.
func (s AddonSet) Kinds() []AddonKind {
	out := make([]AddonKind, 0, len(s))
	for _, k := range AddonOrder {
		if s.Has(k) {
			out = append(out, k)
		}
	}
	return out
}

func (s AddonSet) Clone() AddonSet {
	out := make(AddonSet, len(s))
	for k, v := range s {
		if v {
			out[k] = true
		}
	}
	return out
}

// Strings is the sorted wire form.
func (s AddonSet) Strings() []string {
	out := make([]string, 0, len(s))
	for k, v := range s {
		if v {
			out = append(out, string(k))
		}
	}
	sort.Strings(out)
	return out
}

// DistrictsDiffer reports a one-way rental, which forces delivery.
func DistrictsDiffer(pickup, ret string) bool {
	p := strings.TrimSpace(pickup)
	r := strings.TrimSpace(ret)
	if p == "" || r == "" {
		return false
	}
	return !strings.EqualFold(p, r)
}
