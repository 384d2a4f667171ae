package visibility

// Phase is where a chapter stands relative to the reader
type Phase int

const (
	// Inactive chapters are outside every observer
	Inactive Phase = iota
	// Approaching chapters are within a prefetch margin
	Approaching
	// Active chapters cover the activation band
	Active
	// Completed chapters had their completion sentinel seen. Terminal.
	Completed
)

// String returns the phase name
func (p Phase) String() string {
	switch p {
	case Inactive:
		return "inactive"
	case Approaching:
		return "approaching"
	case Active:
		return "active"
	case Completed:
		return "completed"
	default:
		return "unknown"
	}
}

// Next returns the phase after an observer event. observed tells whether any
// observer of the block still intersects.
func (p Phase) Next(kind EventKind, observed bool) Phase {
	if p == Completed {
		return Completed
	}
	switch kind {
	case EventComplete:
		return Completed
	case EventActivate:
		return Active
	case EventDeactivate:
		if observed {
			return Approaching
		}
		return Inactive
	case EventNearTop, EventNearBottom:
		if p == Inactive {
			return Approaching
		}
	}
	return p
}

// Settle drops a block back to Inactive once no observer intersects it
func (p Phase) Settle(observed bool) Phase {
	if p == Completed || observed {
		return p
	}
	return Inactive
}
