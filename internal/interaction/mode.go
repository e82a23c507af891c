package interaction

import "regexp"

// Mode selects the interaction variant.
type Mode int

const (
	// Pointer shows previews on hover and pins them on click.
	Pointer Mode = iota
	// Touch opens a modal overlay on tap.
	Touch
)

func (m Mode) String() string {
	if m == Touch {
		return "touch"
	}
	return "pointer"
}

var mobileUserAgent = regexp.MustCompile(`(?i)Mobi|Android|iPhone|iPad|iPod|BlackBerry|IEMobile|Opera Mini`)

// DetectMode picks Touch for mobile user agents or when touch input is available.
func DetectMode(userAgent string, touch bool) Mode {
	if touch || mobileUserAgent.MatchString(userAgent) {
		return Touch
	}
	return Pointer
}
