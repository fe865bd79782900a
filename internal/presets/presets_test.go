package presets

import "testing"

func TestListLoadsBundledPresets(t *testing.T) {
	presets, err := List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(presets) == 0 {
		t.Fatal("expected at least one bundled preset")
	}

	for _, p := range presets {
		if p.Name == "" || p.WelcomeMsg == "" || p.ButtonText == "" {
			t.Errorf("preset %q has empty required fields", p.Name)
		}
	}
}

func TestGet(t *testing.T) {
	p, err := Get("default")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if p.Title == "" {
		t.Error("expected a title on the default preset")
	}

	if _, err := Get("no-such-preset"); err == nil {
		t.Error("expected error for unknown preset")
	}
}
