package oauth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestStateRoundTrip(t *testing.T) {
	s := newStateSigner([]byte("secret"), time.Minute)

	state, err := s.issue("https://app.example.com/cb")
	require.NoError(t, err)
	require.NoError(t, s.verify(state, "https://app.example.com/cb"))
}

func TestStateRejectsWrongCallback(t *testing.T) {
	s := newStateSigner([]byte("secret"), time.Minute)

	state, err := s.issue("https://app.example.com/cb")
	require.NoError(t, err)
	require.ErrorIs(t, s.verify(state, "https://evil.example.com/cb"), ErrBadState)
}

func TestStateRejectsExpired(t *testing.T) {
	s := newStateSigner([]byte("secret"), -time.Second)

	state, err := s.issue("https://app.example.com/cb")
	require.NoError(t, err)
	require.ErrorIs(t, s.verify(state, "https://app.example.com/cb"), ErrBadState)
}

func TestStateRejectsTamperedAndForeign(t *testing.T) {
	s := newStateSigner([]byte("secret"), time.Minute)
	other := newStateSigner([]byte("different"), time.Minute)

	state, err := other.issue("https://app.example.com/cb")
	require.NoError(t, err)
	require.ErrorIs(t, s.verify(state, "https://app.example.com/cb"), ErrBadState)

	require.ErrorIs(t, s.verify("not-a-state", "https://app.example.com/cb"), ErrBadState)
}
