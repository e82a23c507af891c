package interaction

import (
	"log/slog"
	"time"

	"git.home.luguber.info/inful/cardlink/internal/config"
	"git.home.luguber.info/inful/cardlink/internal/eventloop"
	"git.home.luguber.info/inful/cardlink/internal/logfields"
	"git.home.luguber.info/inful/cardlink/internal/presentation"
)

// ErrorMessage is shown in the overlay when no preview could be loaded.
const ErrorMessage = "Error loading card preview"

// Options tunes a Controller.
type Options struct {
	Mode       Mode
	HoverDelay time.Duration
	LeaveDelay time.Duration
	Layout     Layout
	Logger     *slog.Logger
}

// DefaultOptions returns pointer mode with a 300ms hover delay and a 200ms leave delay.
func DefaultOptions() Options {
	return Options{
		Mode:       Pointer,
		HoverDelay: 300 * time.Millisecond,
		LeaveDelay: 200 * time.Millisecond,
		Layout:     DefaultLayout(),
	}
}

// OptionsFromConfig builds Options for mode from the preview section of the
// configuration. Unset delays keep their defaults.
func OptionsFromConfig(cfg config.PreviewConfig, mode Mode) Options {
	return Options{
		Mode:       mode,
		HoverDelay: cfg.HoverDelayDuration(),
		LeaveDelay: cfg.LeaveDelayDuration(),
		Layout:     Layout{Inset: float64(cfg.ViewportInset), Gap: float64(cfg.Gap)},
	}
}

// StateKind names an anchor's state.
type StateKind int

const (
	Idle StateKind = iota
	Pending
	Loading
	Shown
	Pinned
)

func (k StateKind) String() string {
	return [...]string{"idle", "pending", "loading", "shown", "pinned"}[k]
}

// Anchor states. Idle anchors have no entry at all.
type (
	state interface{ kind() StateKind }

	pendingState struct {
		timer eventloop.Timer
	}
	loadingState struct {
		gen uint64
		pin bool // clicked while loading: mount pinned
	}
	shownState struct {
		preview     Preview
		markup      string
		leave       eventloop.Timer // nil unless the pointer left the anchor
		overPreview bool
	}
	pinnedState struct {
		preview Preview
		markup  string
	}
)

func (*pendingState) kind() StateKind { return Pending }
func (*loadingState) kind() StateKind { return Loading }
func (*shownState) kind() StateKind   { return Shown }
func (*pinnedState) kind() StateKind  { return Pinned }

type entry struct {
	anchor Anchor
	state  state
}

// Controller owns the preview state of every anchor on one page. Pins are
// per anchor; at most one unpinned preview exists at a time.
type Controller struct {
	surface Surface
	sched   Scheduler
	loader  Loader
	opts    Options
	logger  *slog.Logger

	entries   map[string]*entry
	gen       uint64
	transient string // anchor holding the unpinned preview slot, "" when free

	overlay    Overlay
	overlayGen uint64
}

// NewController creates a Controller. Zero delays fall back to the defaults.
func NewController(surface Surface, sched Scheduler, loader Loader, opts Options) *Controller {
	def := DefaultOptions()
	if opts.HoverDelay <= 0 {
		opts.HoverDelay = def.HoverDelay
	}
	if opts.LeaveDelay <= 0 {
		opts.LeaveDelay = def.LeaveDelay
	}
	if opts.Layout == (Layout{}) {
		opts.Layout = def.Layout
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		surface: surface,
		sched:   sched,
		loader:  loader,
		opts:    opts,
		logger:  logger,
		entries: make(map[string]*entry),
	}
}

// Mode returns the configured interaction variant.
func (c *Controller) Mode() Mode { return c.opts.Mode }

// State reports the state of the anchor with handle h.
func (c *Controller) State(h string) StateKind {
	if e, ok := c.entries[h]; ok {
		return e.state.kind()
	}
	return Idle
}

// Tracked returns the number of anchors with a non-idle state.
func (c *Controller) Tracked() int { return len(c.entries) }

// MouseEnter starts the hover delay, or keeps a shown preview open.
func (c *Controller) MouseEnter(a Anchor) {
	h := a.Handle()
	e, ok := c.entries[h]
	if !ok {
		c.entries[h] = &entry{anchor: a, state: &pendingState{
			timer: c.sched.AfterFunc(c.opts.HoverDelay, func() { c.hoverElapsed(h) }),
		}}
		return
	}
	if s, ok := e.state.(*shownState); ok {
		stopTimer(&s.leave)
	}
}

// MouseLeave cancels a pending hover or a transient load, and starts the
// leave delay of a shown preview. Pinned previews are unaffected.
func (c *Controller) MouseLeave(a Anchor) {
	h := a.Handle()
	e, ok := c.entries[h]
	if !ok {
		return
	}
	switch s := e.state.(type) {
	case *pendingState:
		c.dismiss(h)
	case *loadingState:
		if !s.pin {
			c.dismiss(h)
		}
	case *shownState:
		c.startLeave(h, s)
	}
}

// Click pins the anchor's preview, or closes it when already pinned or when a
// pinned load is still in flight.
func (c *Controller) Click(a Anchor) {
	h := a.Handle()
	e, ok := c.entries[h]
	if !ok {
		c.entries[h] = &entry{anchor: a}
		c.load(h, true)
		return
	}
	switch s := e.state.(type) {
	case *pendingState:
		s.timer.Stop()
		c.load(h, true)
	case *loadingState:
		if s.pin {
			c.dismiss(h)
			return
		}
		s.pin = true
		c.release(h)
	case *shownState:
		stopTimer(&s.leave)
		s.preview.Remove()
		c.release(h)
		c.mount(h, s.markup, true)
	case *pinnedState:
		c.dismiss(h)
	}
}

// PreviewEnter keeps a shown preview open while the pointer is over it.
func (c *Controller) PreviewEnter(h string) {
	if s, ok := c.shown(h); ok {
		s.overPreview = true
		stopTimer(&s.leave)
	}
}

// PreviewLeave starts the leave delay of a shown preview.
func (c *Controller) PreviewLeave(h string) {
	if s, ok := c.shown(h); ok {
		s.overPreview = false
		c.startLeave(h, s)
	}
}

// Close removes the anchor's preview, pinned or not.
func (c *Controller) Close(h string) {
	c.dismiss(h)
}

// Scroll removes every unpinned preview, pending hover and transient load at once.
func (c *Controller) Scroll() {
	for h, e := range c.entries {
		if l, ok := e.state.(*loadingState); ok && l.pin {
			continue
		}
		if _, ok := e.state.(*pinnedState); ok {
			continue
		}
		c.dismiss(h)
	}
}

// Detach forgets an anchor that left the document, removing any preview it owns.
func (c *Controller) Detach(h string) {
	c.dismiss(h)
}

// Tap opens the overlay for the anchor, replacing any open overlay.
func (c *Controller) Tap(a Anchor) {
	c.CloseOverlay()

	o := c.surface.OpenOverlay()
	o.ShowLoading()
	c.overlay = o
	gen := c.overlayGen

	href := a.Href()
	c.loader.Load(href, func(markup string, err error) {
		if c.overlay != o || c.overlayGen != gen {
			return
		}
		if err != nil || markup == "" {
			c.logger.Debug("Card preview unavailable", logfields.URL(href), logfields.Error(err))
			o.ShowError(ErrorMessage)
			return
		}
		o.ShowContent(presentation.DecoratePreview(markup))
	})
}

// OverlayTap closes the overlay when the tap landed outside its content.
func (c *Controller) OverlayTap(outside bool) {
	if outside {
		c.CloseOverlay()
	}
}

// CloseOverlay removes the overlay if one is open.
func (c *Controller) CloseOverlay() {
	if c.overlay == nil {
		return
	}
	c.overlay.Remove()
	c.overlay = nil
	c.overlayGen++
}

// OverlayOpen reports whether an overlay is open.
func (c *Controller) OverlayOpen() bool { return c.overlay != nil }

// Activate handles a click or tap on an anchor according to the mode.
func (c *Controller) Activate(a Anchor) {
	if c.opts.Mode == Touch {
		c.Tap(a)
		return
	}
	c.Click(a)
}

func (c *Controller) hoverElapsed(h string) {
	if e, ok := c.entries[h]; ok {
		if _, ok := e.state.(*pendingState); ok {
			c.load(h, false)
		}
	}
}

// load moves h to loading under a fresh generation. Results for older
// generations are dropped. An unpinned load takes the transient slot.
func (c *Controller) load(h string, pin bool) {
	e := c.entries[h]
	if !pin {
		c.claim(h)
	}
	c.gen++
	gen := c.gen
	e.state = &loadingState{gen: gen, pin: pin}

	href := e.anchor.Href()
	c.loader.Load(href, func(markup string, err error) {
		c.loaded(h, gen, href, markup, err)
	})
}

func (c *Controller) loaded(h string, gen uint64, href, markup string, err error) {
	e, ok := c.entries[h]
	if !ok {
		return
	}
	l, ok := e.state.(*loadingState)
	if !ok || l.gen != gen {
		c.logger.Debug("Discarding stale card preview", logfields.URL(href))
		return
	}
	if err != nil || markup == "" {
		c.logger.Debug("Card preview unavailable", logfields.URL(href), logfields.Error(err))
		c.dismiss(h)
		return
	}
	c.mount(h, markup, l.pin)
}

// mount attaches the preview, measures and places it, then shows it.
func (c *Controller) mount(h, markup string, pin bool) {
	e := c.entries[h]
	if !pin {
		c.claim(h)
	}
	p := c.surface.MountPreview(presentation.DecoratePreview(markup), pin)
	pt, _ := Place(e.anchor.Rect(), p.Size(), c.surface.Viewport(), c.opts.Layout)
	p.MoveTo(pt)
	p.Show()

	if pin {
		e.state = &pinnedState{preview: p, markup: markup}
		return
	}
	e.state = &shownState{preview: p, markup: markup}
}

func (c *Controller) startLeave(h string, s *shownState) {
	if s.leave != nil || s.overPreview {
		return
	}
	s.leave = c.sched.AfterFunc(c.opts.LeaveDelay, func() {
		if cur, ok := c.shown(h); ok && cur == s && !s.overPreview {
			c.dismiss(h)
		}
	})
}

func (c *Controller) shown(h string) (*shownState, bool) {
	e, ok := c.entries[h]
	if !ok {
		return nil, false
	}
	s, ok := e.state.(*shownState)
	return s, ok
}

// claim gives h the transient slot, dismissing the previous holder.
func (c *Controller) claim(h string) {
	if c.transient != "" && c.transient != h {
		c.dismiss(c.transient)
	}
	c.transient = h
}

func (c *Controller) release(h string) {
	if c.transient == h {
		c.transient = ""
	}
}

// dismiss returns h to idle, stopping its timers and removing its preview.
func (c *Controller) dismiss(h string) {
	e, ok := c.entries[h]
	if !ok {
		return
	}
	switch s := e.state.(type) {
	case *pendingState:
		s.timer.Stop()
	case *shownState:
		stopTimer(&s.leave)
		s.preview.Remove()
	case *pinnedState:
		s.preview.Remove()
	}
	delete(c.entries, h)
	c.release(h)
}

func stopTimer(t *eventloop.Timer) {
	if *t != nil {
		(*t).Stop()
		*t = nil
	}
}
