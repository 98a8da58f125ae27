package cars

import "strings"

// Districts are the pickup/return districts offered at checkout.
var Districts = []string{
	"Colombo", "Gampaha", "Kalutara", "Kandy", "Matale", "Nuwara Eliya",
	"Galle", "Matara", "Hambantota", "Jaffna", "Kilinochchi", "Mannar",
	"Vavuniya", "Mullaitivu", "Batticaloa", "Ampara", "Trincomalee",
	"Kurunegala", "Puttalam", "Anuradhapura", "Polonnaruwa", "Badulla",
	"Monaragala", "Ratnapura", "Kegalle",
}

// CanonicalDistrict returns the listed spelling of a district.
func CanonicalDistrict(v string) (string, bool) {
	v = strings.TrimSpace(v)
	for _, d := range Districts {
		if strings.EqualFold(d, v) {
			return d, true
		}
	}
	return v, false
}
