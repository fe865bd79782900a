// Package presets ships ready-made message sets for the wizard's second
// step so a new bot starts from sensible texts instead of blanks.
package presets

import (
	"embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed presets.yaml
var presetsFS embed.FS

// Preset is one named set of step-2 message texts.
type Preset struct {
	Name       string `yaml:"name" json:"name"`
	Title      string `yaml:"title" json:"title"`
	WelcomeMsg string `yaml:"welcome_msg" json:"welcome_msg"`
	ButtonText string `yaml:"button_text" json:"button_text"`
	NotSubMsg  string `yaml:"not_sub_msg" json:"not_sub_msg"`
	SuccessMsg string `yaml:"success_msg" json:"success_msg"`
}

var (
	loadOnce sync.Once
	loaded   []Preset
	loadErr  error
)

// List returns all bundled presets.
func List() ([]Preset, error) {
	loadOnce.Do(func() {
		data, err := presetsFS.ReadFile("presets.yaml")
		if err != nil {
			loadErr = fmt.Errorf("failed to read presets: %w", err)
			return
		}
		var doc struct {
			Presets []Preset `yaml:"presets"`
		}
		if err := yaml.Unmarshal(data, &doc); err != nil {
			loadErr = fmt.Errorf("failed to parse presets: %w", err)
			return
		}
		loaded = doc.Presets
	})
	return loaded, loadErr
}

// Get returns the preset with the given name.
func Get(name string) (*Preset, error) {
	presets, err := List()
	if err != nil {
		return nil, err
	}
	for i := range presets {
		if presets[i].Name == name {
			return &presets[i], nil
		}
	}
	return nil, fmt.Errorf("preset %q not found", name)
}
