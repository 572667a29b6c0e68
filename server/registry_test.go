package server

import "testing"

func TestRegistryCancelInvokesMatchingSession(t *testing.T) {
	r := newRegistry()
	var canceled bool
	r.Register(1, 42, func() { canceled = true }, func() {})

	if ok := r.Cancel(1, 42); !ok {
		t.Fatal("Cancel reported no match for a registered session")
	}
	if !canceled {
		t.Error("cancel func was not invoked")
	}
}

func TestRegistryCancelWrongSecretIsNoop(t *testing.T) {
	r := newRegistry()
	var canceled bool
	r.Register(1, 42, func() { canceled = true }, func() {})

	if ok := r.Cancel(1, 99); ok {
		t.Fatal("Cancel matched with the wrong secret")
	}
	if canceled {
		t.Error("cancel func ran for a non-matching secret")
	}
}

func TestRegistryUnregisterMakesCancelNoop(t *testing.T) {
	r := newRegistry()
	var canceled bool
	r.Register(1, 42, func() { canceled = true }, func() {})
	r.Unregister(1, 42)

	if ok := r.Cancel(1, 42); ok {
		t.Fatal("Cancel matched an unregistered session")
	}
	if canceled {
		t.Error("cancel func ran after Unregister")
	}
}

func TestRegistryShutdownAllInvokesEveryHook(t *testing.T) {
	r := newRegistry()
	shutdowns := 0
	r.Register(1, 1, func() {}, func() { shutdowns++ })
	r.Register(2, 2, func() {}, func() { shutdowns++ })
	r.Register(3, 3, func() {}, func() { shutdowns++ })

	r.ShutdownAll()

	if shutdowns != 3 {
		t.Errorf("shutdown hooks invoked = %d, want 3", shutdowns)
	}
}
