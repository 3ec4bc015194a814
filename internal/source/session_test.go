package source

import "testing"

func TestSessionLifecycle(t *testing.T) {
	s := NewSession()
	if s.State() != StateInitializing {
		t.Fatalf("fresh session state: %v", s.State())
	}

	s.SetPairing("qr-1")
	if s.State() != StateAwaitingPairing {
		t.Fatalf("after SetPairing: %v", s.State())
	}
	if st := s.Status(); st.QR != "qr-1" || st.Ready {
		t.Fatalf("pairing status: %+v", st)
	}

	// a new QR replaces the old one
	s.SetPairing("qr-2")
	if st := s.Status(); st.QR != "qr-2" {
		t.Fatalf("refreshed QR: %+v", st)
	}

	s.SetReady()
	if st := s.Status(); !st.Ready || st.QR != "" {
		t.Fatalf("ready status: %+v", st)
	}

	s.SetDisconnected()
	if s.State() != StateInitializing {
		t.Fatalf("after disconnect: %v", s.State())
	}
	if st := s.Status(); st.Ready || st.QR != "" {
		t.Fatalf("disconnected status: %+v", st)
	}
}

func TestStateString(t *testing.T) {
	for state, want := range map[State]string{
		StateInitializing:    "initializing",
		StateAwaitingPairing: "awaiting_pairing",
		StateReady:           "ready",
	} {
		if got := state.String(); got != want {
			t.Fatalf("State(%d).String() = %q, want %q", state, got, want)
		}
	}
}
