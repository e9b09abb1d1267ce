package domain

// transitions lists, per status, the statuses it may move to. The current
// status is always first so it can be offered as "no change".
var transitions = map[BookingStatus][]BookingStatus{
	BookingStatusPending:   {BookingStatusPending, BookingStatusConfirmed, BookingStatusCancelled},
	BookingStatusConfirmed: {BookingStatusConfirmed, BookingStatusCompleted, BookingStatusCancelled},
	BookingStatusCancelled: {BookingStatusCancelled},
	BookingStatusCompleted: {BookingStatusCompleted},
}

// UnknownStatusObserver is told about every status the engine does not
// recognize.
type UnknownStatusObserver func(status BookingStatus)

type LifecycleOption func(*Lifecycle)

func WithUnknownStatusObserver(observer UnknownStatusObserver) LifecycleOption {
	return func(l *Lifecycle) {
		l.onUnknown = observer
	}
}

// Lifecycle decides which booking status changes are legal. It never talks to
// the remote service; the status returned by the service after a mutation is
// authoritative.
type Lifecycle struct {
	onUnknown UnknownStatusObserver
}

func NewLifecycle(opts ...LifecycleOption) *Lifecycle {
	l := &Lifecycle{}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// AllowedTargets returns the statuses reachable from current. An unrecognized
// status is treated as terminal and reported to the observer.
func (l *Lifecycle) AllowedTargets(current BookingStatus) []BookingStatus {
	current = NormalizeStatus(string(current))
	targets, ok := transitions[current]
	if !ok {
		if l != nil && l.onUnknown != nil {
			l.onUnknown(current)
		}
		return []BookingStatus{current}
	}
	out := make([]BookingStatus, len(targets))
	copy(out, targets)
	return out
}

func (l *Lifecycle) Allows(current, requested BookingStatus) bool {
	requested = NormalizeStatus(string(requested))
	for _, target := range l.AllowedTargets(current) {
		if target == requested {
			return true
		}
	}
	return false
}

// ValidateTransition returns the canonical requested status, or an
// *InvalidTransitionError when the table forbids it.
func (l *Lifecycle) ValidateTransition(current, requested BookingStatus) (BookingStatus, error) {
	from := NormalizeStatus(string(current))
	to := NormalizeStatus(string(requested))
	if !l.Allows(from, to) {
		return "", &InvalidTransitionError{From: from, To: to}
	}
	return to, nil
}

// Authorize applies the caller-role policy on top of the transition table.
// Administrators get the full table. Everyone else may only cancel, and only a
// pending booking.
func (l *Lifecycle) Authorize(role UserType, current, requested BookingStatus) (BookingStatus, error) {
	from := NormalizeStatus(string(current))
	to := NormalizeStatus(string(requested))
	if role != UserTypeAdmin {
		if to != BookingStatusCancelled {
			return "", &InvalidTransitionError{From: from, To: to, Reason: "only cancellation is available to users"}
		}
		if from != BookingStatusPending {
			// still consult the table so unknown statuses reach the observer
			l.AllowedTargets(from)
			return "", &InvalidTransitionError{From: from, To: to, Reason: "only pending bookings can be cancelled"}
		}
	}
	return l.ValidateTransition(from, to)
}
