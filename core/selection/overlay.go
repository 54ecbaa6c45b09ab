// ABOUTME: Region-selection state machine producing screen-space rectangles
// ABOUTME: An explicit tagged-state FSM driven by pointer and key events

package selection

import (
	"context"
	"errors"
	"math"
	"sync"

	"pageintel/core/domain"
	"pageintel/core/interfaces"
)

// MinDimension is the smallest selection accepted on pointer-up, in CSS
// pixels. Anything smaller is discarded and the drag can restart.
const MinDimension = 10

// StateKind tags the overlay states.
type StateKind int

const (
	StateIdle StateKind = iota
	StateOverlaying
	StateDragging
	StateLocked
	StateResolved
	StateCancelled
)

// Box is the in-progress selection rectangle, always normalized so
// Width and Height are non-negative.
type Box struct {
	X, Y, Width, Height float64
}

// State is the tagged overlay state. Anchor fields are meaningful while
// Dragging; Box is meaningful while Dragging, Locked, and Resolved.
type State struct {
	Kind             StateKind
	AnchorX, AnchorY float64
	Box              Box
}

// EventKind tags the inputs the overlay reacts to.
type EventKind int

const (
	// EventPointerDown is a pointer press at X, Y.
	EventPointerDown EventKind = iota
	// EventPointerMove is a pointer move at X, Y.
	EventPointerMove
	// EventPointerUp is a pointer release.
	EventPointerUp
	// EventConfirm is a click on the toolbar's confirm control.
	EventConfirm
	// EventCancel is the cancel key or the toolbar's cancel control.
	EventCancel
)

// Event is one pointer or keyboard input.
type Event struct {
	Kind EventKind
	X, Y float64
}

// Transition is the single state-transition function of the overlay.
// Unhandled event/state pairs leave the state unchanged.
func Transition(s State, e Event) State {
	// Cancel resolves from any state.
	if e.Kind == EventCancel {
		return State{Kind: StateCancelled}
	}

	switch s.Kind {
	case StateOverlaying:
		if e.Kind == EventPointerDown {
			return State{
				Kind:    StateDragging,
				AnchorX: e.X,
				AnchorY: e.Y,
				Box:     Box{X: e.X, Y: e.Y},
			}
		}

	case StateDragging:
		switch e.Kind {
		case EventPointerMove:
			s.Box = normalizeBox(s.AnchorX, s.AnchorY, e.X, e.Y)
			return s
		case EventPointerUp:
			if s.Box.Width < MinDimension || s.Box.Height < MinDimension {
				// Too small: discard and stay ready for a new drag.
				return State{Kind: StateOverlaying}
			}
			return State{Kind: StateLocked, Box: s.Box}
		}

	case StateLocked:
		switch e.Kind {
		case EventConfirm:
			return State{Kind: StateResolved, Box: s.Box}
		case EventPointerDown:
			// Click outside the toolbar discards the frozen box and
			// re-enters Dragging from the click point.
			return State{
				Kind:    StateDragging,
				AnchorX: e.X,
				AnchorY: e.Y,
				Box:     Box{X: e.X, Y: e.Y},
			}
		}
	}

	return s
}

// normalizeBox computes the rectangle spanned by the anchor and the
// current pointer position with non-negative dimensions, regardless of
// drag direction.
func normalizeBox(anchorX, anchorY, x, y float64) Box {
	return Box{
		X:      math.Min(anchorX, x),
		Y:      math.Min(anchorY, y),
		Width:  math.Abs(x - anchorX),
		Height: math.Abs(y - anchorY),
	}
}

// Surface is the rendering and input binding the overlay drives. A
// browser binding injects real DOM nodes; tests script it directly.
type Surface interface {
	// Show injects the capture layer and instruction badge and binds
	// document-level pointer and key listeners.
	Show()

	// UpdateBox renders the selection box at the given geometry.
	UpdateBox(b Box)

	// HideBox hides the selection box without tearing down the overlay.
	HideBox()

	// ShowToolbar renders the confirm/cancel toolbar anchored below the
	// frozen box.
	ShowToolbar(b Box)

	// HideToolbar removes the toolbar.
	HideToolbar()

	// Teardown removes every injected node and unbinds every listener.
	Teardown()

	// Metrics reports viewport width, height, and device pixel ratio.
	Metrics() (width, height, dpr float64)

	// Events delivers pointer and key inputs. The channel closes when
	// the surface is torn down externally.
	Events() <-chan Event
}

// ErrOverlayActive is returned when Start is called while a selection
// is already in progress. Exactly one overlay may be active.
var ErrOverlayActive = errors.New("selection overlay already active")

// Overlay runs the selection state machine over a Surface. It is a
// single shared instance exposed as one suspending operation.
type Overlay struct {
	surface Surface
	logger  interfaces.Logger

	mu     sync.Mutex
	active bool
}

// NewOverlay creates the overlay for the given surface.
func NewOverlay(surface Surface, logger interfaces.Logger) *Overlay {
	return &Overlay{surface: surface, logger: logger}
}

// Start shows the overlay and blocks until the user confirms a
// rectangle, cancels, or ctx is done. A nil rectangle with a nil error
// means the selection was cancelled. Every exit path tears the surface
// down, so repeated invocations never leak state.
func (o *Overlay) Start(ctx context.Context) (*domain.SelectionRect, error) {
	o.mu.Lock()
	if o.active {
		o.mu.Unlock()
		return nil, ErrOverlayActive
	}
	o.active = true
	o.mu.Unlock()

	defer func() {
		o.mu.Lock()
		o.active = false
		o.mu.Unlock()
	}()

	o.surface.Show()
	defer o.surface.Teardown()

	state := State{Kind: StateOverlaying}
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case event, ok := <-o.surface.Events():
			if !ok {
				return nil, nil
			}
			prev := state
			state = Transition(state, event)
			o.render(prev, state)

			switch state.Kind {
			case StateResolved:
				width, height, dpr := o.surface.Metrics()
				rect := &domain.SelectionRect{
					X:                state.Box.X,
					Y:                state.Box.Y,
					Width:            state.Box.Width,
					Height:           state.Box.Height,
					WindowWidth:      width,
					WindowHeight:     height,
					DevicePixelRatio: dpr,
				}
				if o.logger != nil {
					o.logger.Debug("selection resolved", map[string]interface{}{
						"width":  rect.Width,
						"height": rect.Height,
					})
				}
				return rect, nil
			case StateCancelled:
				return nil, nil
			}
		}
	}
}

// render reconciles the surface with a state change.
func (o *Overlay) render(prev, next State) {
	if prev.Kind == StateLocked && next.Kind != StateLocked {
		o.surface.HideToolbar()
	}

	switch next.Kind {
	case StateDragging:
		o.surface.UpdateBox(next.Box)
	case StateLocked:
		o.surface.UpdateBox(next.Box)
		o.surface.ShowToolbar(next.Box)
	case StateOverlaying:
		if prev.Kind == StateDragging {
			o.surface.HideBox()
		}
	}
}
