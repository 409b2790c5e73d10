// Package dictionary holds the symbol tables that drive composition: label
// translations, hidden signs, modifier rules and activator combinations.
package dictionary

import (
	"errors"
	"fmt"
	"strings"
)

// Label identifies a classifier output such as "A", "Z_0" or "Thank you".
type Label string

// Pair is an ordered (previous, current) symbol pair used to look up activators.
type Pair struct {
	Previous Label
	Current  Label
}

// Activator combines two consecutive symbols into a new one.
type Activator struct {
	Previous Label `yaml:"previous" toml:"previous"`
	Current  Label `yaml:"current" toml:"current"`
	Result   Label `yaml:"result" toml:"result"`
}

// Spec is the serialisable form of a dictionary.
type Spec struct {
	SourceLanguage string           `yaml:"source_language" toml:"source_language"`
	TargetLanguage string           `yaml:"target_language" toml:"target_language"`
	Labels         []Label          `yaml:"labels" toml:"labels"`
	Translations   map[Label]string `yaml:"translations" toml:"translations"`
	Hidden         []Label          `yaml:"hidden" toml:"hidden"`
	Modifiers      map[Label]Label  `yaml:"modifiers" toml:"modifiers"`
	Activators     []Activator      `yaml:"activators" toml:"activators"`
}

// Dictionary is immutable after construction and safe for concurrent reads.
type Dictionary struct {
	sourceLang   string
	targetLang   string
	labels       []Label
	translations map[Label]string
	hidden       map[Label]struct{}
	modifiers    map[Label]Label
	activators   map[Pair]Label
}

// New validates spec and builds a Dictionary from it.
func New(spec Spec) (*Dictionary, error) {
	if err := validate(spec); err != nil {
		return nil, err
	}
	d := &Dictionary{
		sourceLang:   spec.SourceLanguage,
		targetLang:   spec.TargetLanguage,
		labels:       append([]Label(nil), spec.Labels...),
		translations: make(map[Label]string, len(spec.Translations)),
		hidden:       make(map[Label]struct{}, len(spec.Hidden)),
		modifiers:    make(map[Label]Label, len(spec.Modifiers)),
		activators:   make(map[Pair]Label, len(spec.Activators)),
	}
	for k, v := range spec.Translations {
		d.translations[k] = v
	}
	for _, l := range spec.Hidden {
		d.hidden[l] = struct{}{}
	}
	for k, v := range spec.Modifiers {
		d.modifiers[k] = v
	}
	for _, a := range spec.Activators {
		d.activators[Pair{Previous: a.Previous, Current: a.Current}] = a.Result
	}
	return d, nil
}

func validate(spec Spec) error {
	seen := make(map[Label]struct{}, len(spec.Labels))
	for i, l := range spec.Labels {
		if strings.TrimSpace(string(l)) == "" {
			return fmt.Errorf("labels[%d] must not be empty", i)
		}
		if _, dup := seen[l]; dup {
			return fmt.Errorf("label %q listed more than once", l)
		}
		seen[l] = struct{}{}
	}
	for _, l := range spec.Hidden {
		if l == "" {
			return errors.New("hidden labels must not be empty")
		}
	}
	for k, v := range spec.Modifiers {
		if k == "" || v == "" {
			return errors.New("modifier rules must name both label and base")
		}
		if k == v {
			return fmt.Errorf("modifier %q cannot be its own base", k)
		}
	}
	pairs := make(map[Pair]struct{}, len(spec.Activators))
	for _, a := range spec.Activators {
		if a.Previous == "" || a.Current == "" || a.Result == "" {
			return errors.New("activators require previous, current and result")
		}
		p := Pair{Previous: a.Previous, Current: a.Current}
		if _, dup := pairs[p]; dup {
			return fmt.Errorf("activator %q -> %q defined more than once", a.Previous, a.Current)
		}
		pairs[p] = struct{}{}
	}
	return nil
}

// Translate returns the target-language text for text, or text itself when
// no translation is known.
func (d *Dictionary) Translate(text string) string {
	if t, ok := d.translations[Label(text)]; ok && t != "" {
		return t
	}
	return text
}

func (d *Dictionary) IsHidden(l Label) bool {
	_, ok := d.hidden[l]
	return ok
}

// ModifierBase reports the base label that must immediately precede l for l
// to be accepted.
func (d *Dictionary) ModifierBase(l Label) (Label, bool) {
	base, ok := d.modifiers[l]
	return base, ok
}

// Activator looks up the combined symbol for previous followed by current.
func (d *Dictionary) Activator(previous, current Label) (Label, bool) {
	result, ok := d.activators[Pair{Previous: previous, Current: current}]
	return result, ok
}

// LabelAt maps a classifier class index to its label.
func (d *Dictionary) LabelAt(index int) (Label, bool) {
	if index < 0 || index >= len(d.labels) {
		return "", false
	}
	return d.labels[index], true
}

func (d *Dictionary) Labels() []Label {
	return append([]Label(nil), d.labels...)
}

func (d *Dictionary) SourceLanguage() string { return d.sourceLang }

func (d *Dictionary) TargetLanguage() string { return d.targetLang }

// Stats summarises the table sizes.
type Stats struct {
	Labels       int
	Translations int
	Hidden       int
	Modifiers    int
	Activators   int
}

func (d *Dictionary) Stats() Stats {
	return Stats{
		Labels:       len(d.labels),
		Translations: len(d.translations),
		Hidden:       len(d.hidden),
		Modifiers:    len(d.modifiers),
		Activators:   len(d.activators),
	}
}
