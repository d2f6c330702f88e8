package gate

// State describes where an anonymous visitor is in the free-tier funnel
type State string

const (
	StateFresh         State = "fresh"          // free generation still available
	StateFreeUsed      State = "free_used"      // free teaser consumed
	StateWantsContinue State = "wants_continue" // asked to continue the teaser
	StatePaywallShown  State = "paywall_shown"  // paywall overlay is up
	StateUnlocked      State = "unlocked"       // authenticated, no gating
)

// Flags are the raw gate markers persisted in the visitor's cookie session.
// They live client-side and are user-editable, so they are advisory only;
// the profile usage counters are the authoritative record.
type Flags struct {
	FreeStoryUsed bool
	TestMode      bool
	WantsContinue bool
	PaywallShown  bool
}

// Machine derives the gate state from the flags and applies transitions.
// Pure logic, no I/O.
type Machine struct {
	flags         Flags
	authenticated bool
}

func NewMachine(flags Flags, authenticated bool) *Machine {
	return &Machine{flags: flags, authenticated: authenticated}
}

// State reports the current gate state. Authentication wins over every flag.
func (m *Machine) State() State {
	if m.authenticated {
		return StateUnlocked
	}
	if m.flags.PaywallShown {
		return StatePaywallShown
	}
	if m.flags.WantsContinue {
		return StateWantsContinue
	}
	if m.flags.FreeStoryUsed {
		return StateFreeUsed
	}
	return StateFresh
}

// CanSubmit reports whether a story submit may proceed.
// Anonymous visitors get exactly one free generation.
func (m *Machine) CanSubmit() bool {
	state := m.State()
	return state == StateUnlocked || state == StateFresh
}

// MarkFreeUsed records a successful anonymous generation. The teaser ends
// on a cliffhanger, so the visitor lands in WantsContinue immediately.
func (m *Machine) MarkFreeUsed() {
	if m.authenticated {
		return
	}
	m.flags.FreeStoryUsed = true
	m.flags.WantsContinue = true
}

// Continue handles the "continue reading" action on a teaser. In test mode
// it resets the free flag instead of raising the paywall, so the funnel can
// be exercised repeatedly.
func (m *Machine) Continue() {
	if m.authenticated {
		return
	}
	if m.flags.TestMode {
		m.flags.FreeStoryUsed = false
		m.flags.WantsContinue = false
		m.flags.PaywallShown = false
		return
	}
	m.flags.PaywallShown = true
}

// Dismiss closes the paywall and returns the visitor to FreeUsed
func (m *Machine) Dismiss() {
	m.flags.WantsContinue = false
	m.flags.PaywallShown = false
}

// Flags returns the flags after any transitions, for persisting
func (m *Machine) Flags() Flags {
	return m.flags
}
