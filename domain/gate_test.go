package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestActiveAccountGate(t *testing.T) {
	gate := ActiveAccountGate{}

	assert.True(t, gate.Passes(&User{Status: UserStatusActive}))
	assert.False(t, gate.Passes(&User{Status: UserStatusLocked}))
	assert.False(t, gate.Passes(nil))
}

func TestChainGate(t *testing.T) {
	notBanned := GateFunc(func(u *User) bool { return u.Username != "banned" })
	gate := ChainGate{ActiveAccountGate{}, notBanned}

	assert.True(t, gate.Passes(&User{Username: "alice", Status: UserStatusActive}))
	assert.False(t, gate.Passes(&User{Username: "banned", Status: UserStatusActive}))
	assert.False(t, gate.Passes(&User{Username: "alice", Status: UserStatusLocked}))
	assert.False(t, gate.Passes(nil))

	// An empty chain admits any existing account.
	assert.True(t, ChainGate{}.Passes(&User{}))
	assert.False(t, ChainGate{}.Passes(nil))
}

func TestValidPhoneNumber(t *testing.T) {
	valid := []string{"+79161234567", "79161234567", "+999999999", "123456789012345"}
	for _, number := range valid {
		assert.True(t, ValidPhoneNumber(number), number)
	}

	invalid := []string{"", "12345678", "+7 916 123-45-67", "phone", "1234567890123456789"}
	for _, number := range invalid {
		assert.False(t, ValidPhoneNumber(number), number)
	}
}
