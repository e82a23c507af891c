// Package interaction drives card previews from UI events: hover previews
// with pinning on pointer devices and a modal overlay on touch devices.
//
// The Controller is headless. A Surface renders previews and overlays, a
// Scheduler provides timers and a Loader fetches markup. All Controller
// methods and every callback must run on the same event loop.
package interaction

import (
	"time"

	"git.home.luguber.info/inful/cardlink/internal/eventloop"
)

// Rect is an anchor's bounding box in viewport coordinates.
type Rect struct {
	Left, Top, Right, Bottom float64
}

func (r Rect) Width() float64  { return r.Right - r.Left }
func (r Rect) Height() float64 { return r.Bottom - r.Top }

// Size is the rendered size of a mounted preview.
type Size struct {
	W, H float64
}

// Point is a position in document coordinates.
type Point struct {
	X, Y float64
}

// Viewport describes the visible window and its scroll offset.
type Viewport struct {
	Width, Height    float64
	ScrollX, ScrollY float64
}

// Anchor is a customized card link on the page.
type Anchor interface {
	Handle() string // stable identity for as long as the anchor is attached
	Href() string
	Rect() Rect
}

// Preview is a mounted but possibly hidden preview element.
type Preview interface {
	Size() Size
	MoveTo(Point)
	Show()
	Remove()
}

// Overlay is the touch variant's modal.
type Overlay interface {
	ShowLoading()
	ShowContent(markup string)
	ShowError(message string)
	Remove()
}

// Surface mounts previews and overlays. A pinned preview carries a close control.
type Surface interface {
	Viewport() Viewport
	MountPreview(markup string, pinned bool) Preview
	OpenOverlay() Overlay
}

// Scheduler runs fn on the event loop after d. *eventloop.Loop implements it.
type Scheduler interface {
	AfterFunc(d time.Duration, fn func()) eventloop.Timer
}

// Loader fetches preview markup for url and calls done on the event loop,
// either synchronously or later.
type Loader interface {
	Load(url string, done func(markup string, err error))
}
