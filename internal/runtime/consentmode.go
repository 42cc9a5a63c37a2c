package runtime

import "libreconsent/internal/category"

// Signal is one grant/deny entry in the consent-mode vector.
type Signal string

const (
	Granted Signal = "granted"
	Denied  Signal = "denied"
)

// Vector is the standardized grant/deny signal broadcast to external
// tag-management systems on every consent transition. The field vocabulary
// is fixed; this module does not negotiate semantics beyond it.
type Vector struct {
	AdStorage         Signal `json:"ad_storage"`
	AnalyticsStorage  Signal `json:"analytics_storage"`
	AdUserData        Signal `json:"ad_user_data"`
	AdPersonalization Signal `json:"ad_personalization"`
	SecurityStorage   Signal `json:"security_storage"`
}

// DefaultVector is the all-denied vector emitted before any decision exists.
// Security storage is always granted: it backs the necessary category.
func DefaultVector() Vector {
	return Vector{
		AdStorage:         Denied,
		AnalyticsStorage:  Denied,
		AdUserData:        Denied,
		AdPersonalization: Denied,
		SecurityStorage:   Granted,
	}
}

// VectorFor maps a granted category set onto the broadcast vocabulary:
// marketing drives the ad signals, analytics drives analytics storage.
func VectorFor(granted category.Set) Vector {
	v := DefaultVector()
	if granted.Granted(category.Marketing) {
		v.AdStorage = Granted
		v.AdUserData = Granted
		v.AdPersonalization = Granted
	}
	if granted.Granted(category.Analytics) {
		v.AnalyticsStorage = Granted
	}
	return v
}

// Broadcaster receives consent-mode vectors. In the browser this pushes to
// the tag manager's data layer; tests capture the pushes directly.
type Broadcaster interface {
	Push(Vector)
}
