package sightings

// SightingNotification is the payload broadcast when a sighting goes live.
// Coordinates come from the first attached image and stay nil when the
// sighting carries no geolocated image.
type SightingNotification struct {
	PostID    string   `json:"postId"`
	UserName  string   `json:"userName"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

// Notifier delivers approval notifications. Delivery is best effort: a
// failing notifier never fails the transition that triggered it.
type Notifier interface {
	NotifySightingApproved(notification SightingNotification) error
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(notification SightingNotification) error

// NotifySightingApproved implements Notifier.
func (f NotifierFunc) NotifySightingApproved(notification SightingNotification) error {
	if f == nil {
		return nil
	}
	return f(notification)
}

type noopNotifier struct{}

func (noopNotifier) NotifySightingApproved(SightingNotification) error {
	return nil
}

func normalizeNotifier(n Notifier) Notifier {
	if n == nil {
		return noopNotifier{}
	}
	return n
}

// NotificationFor builds the broadcast payload for a post. The post should
// have its owner and images loaded.
func NotificationFor(post *Post) SightingNotification {
	n := SightingNotification{}
	if post == nil {
		return n
	}

	n.PostID = post.ID.String()
	if post.User != nil {
		n.UserName = post.User.Name
	}

	if img := post.FirstImage(); img != nil {
		n.Latitude = img.Latitude
		n.Longitude = img.Longitude
	}

	return n
}
