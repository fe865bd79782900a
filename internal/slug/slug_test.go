package slug

import (
	"strings"
	"testing"
)

func TestDerive(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"cyrillic", "Мой бот", "moi-bot"},
		{"latin passthrough", "My Cool Bot", "my-cool-bot"},
		{"digraphs", "Жёлтый ящик", "zhyoltyi-yaschik"},
		{"soft sign dropped", "Тень", "ten"},
		{"punctuation stripped", "Bot: the (best)!", "bot-the-best"},
		{"underscores dropped, spaces hyphenate", "my_bot  name", "mybot-name"},
		{"repeated hyphens", "a --- b", "a-b"},
		{"all punctuation", "!!! ??? ...", ""},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Derive(tt.in); got != tt.want {
				t.Errorf("Derive(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestDeriveIdempotent(t *testing.T) {
	inputs := []string{
		"Мой бот",
		"Образовательный канал №1",
		"  mixed Кейс 42  ",
		"____",
		strings.Repeat("длинное имя ", 20),
	}

	for _, in := range inputs {
		once := Derive(in)
		twice := Derive(once)
		if once != twice {
			t.Errorf("Derive not idempotent for %q: %q != %q", in, once, twice)
		}
		if len(once) > MaxLength {
			t.Errorf("Derive(%q) length %d exceeds %d", in, len(once), MaxLength)
		}
	}
}

func TestDeriveTruncates(t *testing.T) {
	long := strings.Repeat("abc ", 100)
	if got := Derive(long); len(got) > MaxLength {
		t.Errorf("expected truncation to %d chars, got %d", MaxLength, len(got))
	}
}

func TestSanitizeManual(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Custom-1", "custom-1"},
		{"has spaces", "hasspaces"},
		{"Кириллица", ""}, // no transliteration for manual edits
		{"UPPER-case", "upper-case"},
		{"a.b/c", "abc"},
	}

	for _, tt := range tests {
		if got := SanitizeManual(tt.in); got != tt.want {
			t.Errorf("SanitizeManual(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestValid(t *testing.T) {
	valid := []string{"a", "my-bot", "bot-42"}
	for _, id := range valid {
		if !Valid(id) {
			t.Errorf("Valid(%q) = false, want true", id)
		}
	}

	invalid := []string{"", "My-Bot", "бот", "a b", strings.Repeat("a", MaxLength+1)}
	for _, id := range invalid {
		if Valid(id) {
			t.Errorf("Valid(%q) = true, want false", id)
		}
	}
}
