package dictionary

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultTables(t *testing.T) {
	d := Default()

	if got := d.Translate("Hello"); got != "Helo" {
		t.Fatalf("expected Helo, got %q", got)
	}
	if got := d.Translate("Good Morning"); got != "Selamat Pagi" {
		t.Fatalf("expected combined word translation, got %q", got)
	}
	if got := d.Translate("Unknown sign"); got != "Unknown sign" {
		t.Fatalf("expected identity fallback, got %q", got)
	}
	if !d.IsHidden("How are you?") {
		t.Fatal("expected How are you? to be hidden")
	}
	if base, ok := d.ModifierBase("J"); !ok || base != "I" {
		t.Fatalf("expected J to be conditioned on I, got %q %v", base, ok)
	}
	if res, ok := d.Activator("Hello", "Waalaikumussalam"); !ok || res != "Assalamualaikum" {
		t.Fatalf("unexpected activator result %q %v", res, ok)
	}
	if _, ok := d.Activator("Waalaikumussalam", "Hello"); ok {
		t.Fatal("activators must be ordered")
	}
	if l, ok := d.LabelAt(25); !ok || l != "Z_0" {
		t.Fatalf("expected class 25 to be Z_0, got %q", l)
	}
	if _, ok := d.LabelAt(45); ok {
		t.Fatal("expected out of range class index to miss")
	}
	if st := d.Stats(); st.Labels != 45 || st.Activators != 6 || st.Modifiers != 2 || st.Hidden != 1 {
		t.Fatalf("unexpected stats %+v", st)
	}
}

func TestActivatorPairsDoNotCollideOnSeparator(t *testing.T) {
	d, err := New(Spec{
		Activators: []Activator{
			{Previous: "a|b", Current: "c", Result: "first"},
			{Previous: "a", Current: "b|c", Result: "second"},
		},
	})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if res, _ := d.Activator("a|b", "c"); res != "first" {
		t.Fatalf("expected first, got %q", res)
	}
	if res, _ := d.Activator("a", "b|c"); res != "second" {
		t.Fatalf("expected second, got %q", res)
	}
}

func TestNewValidation(t *testing.T) {
	cases := []struct {
		name string
		spec Spec
	}{
		{"empty label", Spec{Labels: []Label{"A", ""}}},
		{"duplicate label", Spec{Labels: []Label{"A", "A"}}},
		{"self modifier", Spec{Modifiers: map[Label]Label{"J": "J"}}},
		{"incomplete activator", Spec{Activators: []Activator{{Previous: "Well", Current: "Night"}}}},
		{"duplicate activator", Spec{Activators: []Activator{
			{Previous: "Well", Current: "Night", Result: "Good Night"},
			{Previous: "Well", Current: "Night", Result: "Other"},
		}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := New(tc.spec); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}

const yamlDictionary = `source_language: en
target_language: ms
labels: [A, B, Hello, Waalaikumussalam]
translations:
  Hello: Helo
  Assalamualaikum: Assalamualaikum
hidden: []
modifiers:
  B: A
activators:
  - previous: Hello
    current: Waalaikumussalam
    result: Assalamualaikum
`

const tomlDictionary = `source_language = "en"
target_language = "ms"
labels = ["A", "B", "Hello"]
hidden = ["Hello"]

[translations]
Hello = "Helo"

[modifiers]
B = "A"

[[activators]]
previous = "Hello"
current = "B"
result = "Hi B"
`

func TestLoadYAMLAndTOML(t *testing.T) {
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "signs.yaml")
	if err := os.WriteFile(yamlPath, []byte(yamlDictionary), 0o644); err != nil {
		t.Fatal(err)
	}
	d, err := Load(yamlPath)
	if err != nil {
		t.Fatalf("load yaml: %v", err)
	}
	if d.Translate("Hello") != "Helo" || d.TargetLanguage() != "ms" {
		t.Fatalf("unexpected yaml dictionary contents")
	}
	if res, ok := d.Activator("Hello", "Waalaikumussalam"); !ok || res != "Assalamualaikum" {
		t.Fatalf("expected yaml activator, got %q", res)
	}

	tomlPath := filepath.Join(dir, "signs.toml")
	if err := os.WriteFile(tomlPath, []byte(tomlDictionary), 0o644); err != nil {
		t.Fatal(err)
	}
	d, err = Load(tomlPath)
	if err != nil {
		t.Fatalf("load toml: %v", err)
	}
	if !d.IsHidden("Hello") {
		t.Fatal("expected toml hidden label")
	}
	if base, ok := d.ModifierBase("B"); !ok || base != "A" {
		t.Fatalf("expected toml modifier, got %q", base)
	}
	if l, _ := d.LabelAt(2); l != "Hello" {
		t.Fatalf("expected label order preserved, got %q", l)
	}
}

func TestLoadRejectsUnknownExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "signs.json")
	if err := os.WriteFile(path, []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestLoadOrDefault(t *testing.T) {
	d, err := LoadOrDefault("  ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.SourceLanguage() != "en" {
		t.Fatalf("expected default dictionary")
	}
}

func TestLoadExampleTable(t *testing.T) {
	d, err := Load(filepath.Join("..", "..", "examples", "en-ms.toml"))
	if err != nil {
		t.Fatalf("load example: %v", err)
	}
	if result, ok := d.Activator("Well", "Morning"); !ok || d.Translate(string(result)) != "Selamat Pagi" {
		t.Fatalf("unexpected activator %q %v", result, ok)
	}
}
