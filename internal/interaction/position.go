package interaction

// Layout holds the spacing used when placing previews.
type Layout struct {
	Inset float64 // minimum distance from the viewport's left and right edges
	Gap   float64 // distance between anchor and preview
}

// DefaultLayout uses a 10px inset and a 10px gap.
func DefaultLayout() Layout {
	return Layout{Inset: 10, Gap: 10}
}

// Placement says on which side of the anchor a preview went.
type Placement int

const (
	Below Placement = iota
	Above
)

func (p Placement) String() string {
	if p == Above {
		return "above"
	}
	return "below"
}

// Place centres a preview of the given size under the anchor, clamps it
// horizontally to the inset, and flips it above the anchor when it would
// overflow the bottom of the viewport. The result is in document coordinates.
func Place(anchor Rect, size Size, vp Viewport, layout Layout) (Point, Placement) {
	left := anchor.Left + anchor.Width()/2 - size.W/2
	if right := vp.Width - size.W - layout.Inset; left > right {
		left = right
	}
	if left < layout.Inset {
		left = layout.Inset
	}

	if anchor.Bottom+size.H+layout.Gap > vp.Height {
		return Point{X: left + vp.ScrollX, Y: anchor.Top + vp.ScrollY - size.H - layout.Gap}, Above
	}
	return Point{X: left + vp.ScrollX, Y: anchor.Bottom + vp.ScrollY + layout.Gap}, Below
}
