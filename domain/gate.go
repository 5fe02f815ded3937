package domain

// AccountGate decides whether an otherwise-identified account may complete
// authentication. Implementations are selected at startup so deployments can
// add rules (account locks, ban lists) without touching the token issuer.
type AccountGate interface {
	Passes(user *User) bool
}

// GateFunc adapts a plain function to the AccountGate interface.
type GateFunc func(user *User) bool

func (f GateFunc) Passes(user *User) bool { return f(user) }

// ActiveAccountGate admits accounts whose status is ACTIVE.
type ActiveAccountGate struct{}

func (ActiveAccountGate) Passes(user *User) bool {
	return user != nil && user.Status == UserStatusActive
}

// ChainGate admits an account only when every member gate admits it.
// An empty chain admits any non-nil account.
type ChainGate []AccountGate

func (c ChainGate) Passes(user *User) bool {
	if user == nil {
		return false
	}
	for _, g := range c {
		if !g.Passes(user) {
			return false
		}
	}
	return true
}
