package providers

import "testing"

func TestRegistryRegisterAndGet(t *testing.T) {
	r := NewRegistry()
	r.SetLogger(testLogger())

	mock := NewMockClient()
	r.Register("mock", mock)

	got, err := r.Get("mock")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != mock {
		t.Error("wrong client returned")
	}
	if !r.Has("mock") {
		t.Error("Has should report registered client")
	}
	if _, err := r.Get("missing"); err == nil {
		t.Error("expected error for unknown client")
	}
}

func TestRegistryFirstRegisteredIsActive(t *testing.T) {
	r := NewRegistry()
	r.SetLogger(testLogger())

	first := NewMockClient()
	r.Register("first", first)
	r.Register("second", NewMockClient())

	active, err := r.Active()
	if err != nil {
		t.Fatal(err)
	}
	if active != first {
		t.Error("first registered client should be active")
	}

	if err := r.SetActive("second"); err != nil {
		t.Fatal(err)
	}
	active, _ = r.Active()
	if active == first {
		t.Error("SetActive did not switch")
	}

	if err := r.SetActive("missing"); err == nil {
		t.Error("SetActive on unknown client should fail")
	}
}

func TestRegistryUnregisterPromotesRemaining(t *testing.T) {
	r := NewRegistry()
	r.SetLogger(testLogger())

	r.Register("a", NewMockClient())
	r.Register("b", NewMockClient())
	r.Unregister("a")

	if _, err := r.Active(); err != nil {
		t.Errorf("remaining client should become active: %v", err)
	}
	if len(r.List()) != 1 {
		t.Errorf("List = %v", r.List())
	}
}

func TestBuildClient(t *testing.T) {
	cases := []struct {
		provider string
		wantName string
		wantErr  bool
	}{
		{"openrouter", OpenRouterName, false},
		{"", OpenRouterName, false},
		{"openai", OpenAIName, false},
		{"mock", MockClientName, false},
		{"wat", "", true},
	}
	for _, tc := range cases {
		client, err := BuildClient(LLMSettings{Provider: tc.provider, APIKey: "k"})
		if tc.wantErr {
			if err == nil {
				t.Errorf("BuildClient(%q): expected error", tc.provider)
			}
			continue
		}
		if err != nil {
			t.Errorf("BuildClient(%q): %v", tc.provider, err)
			continue
		}
		if client.Name() != tc.wantName {
			t.Errorf("BuildClient(%q).Name() = %q, want %q", tc.provider, client.Name(), tc.wantName)
		}
	}
}
