package category

import (
	"errors"
	"testing"
)

func TestNewRegistry_ValidatesNames(t *testing.T) {
	if _, err := NewRegistry(nil); err == nil {
		t.Error("empty category list should fail")
	}
	for _, bad := range []string{"FAQ", "1bad", "with space", "-leading", ""} {
		if _, err := NewRegistry([]string{bad}); err == nil {
			t.Errorf("name %q should be rejected", bad)
		}
	}
	if _, err := NewRegistry([]string{"faq", "prior_learning", "apel-2024"}); err != nil {
		t.Errorf("valid slugs rejected: %v", err)
	}
}

func TestNewRegistry_CollapsesDuplicates(t *testing.T) {
	r, err := NewRegistry([]string{"faq", "faq", "framework"})
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	if got := r.All(); len(got) != 2 {
		t.Errorf("got %d categories, want 2", len(got))
	}
}

func TestResolve_NormalizesInput(t *testing.T) {
	r, err := NewRegistry([]string{"faq", "accreditation"})
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}

	for _, input := range []string{"faq", "FAQ", "  Faq  "} {
		cat, err := r.Resolve(input)
		if err != nil {
			t.Errorf("Resolve(%q): %v", input, err)
		}
		if cat != "faq" {
			t.Errorf("Resolve(%q) = %q", input, cat)
		}
	}
}

func TestResolve_UnknownCategory(t *testing.T) {
	r, err := NewRegistry([]string{"faq"})
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}

	_, err = r.Resolve("equivalency")
	var invalid *ErrInvalid
	if !errors.As(err, &invalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
	if invalid.Name != "equivalency" {
		t.Errorf("ErrInvalid.Name = %q", invalid.Name)
	}
}

func TestAll_PreservesConfigurationOrder(t *testing.T) {
	names := []string{"recognition", "apel", "faq"}
	r, err := NewRegistry(names)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	for i, cat := range r.All() {
		if string(cat) != names[i] {
			t.Errorf("position %d = %q, want %q", i, cat, names[i])
		}
	}
}

func TestTitle(t *testing.T) {
	cases := map[Category]string{
		"faq":            "Faq",
		"prior_learning": "Prior Learning",
		"apel-2024":      "Apel 2024",
	}
	for cat, want := range cases {
		if got := cat.Title(); got != want {
			t.Errorf("%q.Title() = %q, want %q", cat, got, want)
		}
	}
}
