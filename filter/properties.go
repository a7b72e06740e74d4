package filter

import (
	"github.com/kbukum/greenscreen/provider"
)

// PropertyKind is the kind of user control a Property describes.
type PropertyKind string

const (
	PropertyList   PropertyKind = "list"
	PropertyGroup  PropertyKind = "group"
	PropertyButton PropertyKind = "button"
)

// Property keys.
const (
	KeyProvider = "Provider"
	KeyMode     = "Options.Mode"
	KeyManual   = "Manual"
)

// Choice is one entry of a list property.
type Choice struct {
	Label string
	Value any
}

// Property describes one user control. It carries data only; building the
// actual panel is left to the host.
type Property struct {
	Key      string
	Label    string
	Kind     PropertyKind
	Choices  []Choice
	Children []Property
	// Visible is false for option groups of providers other than the
	// selected one.
	Visible bool
	// URL is the target of a button that opens a page.
	URL string
}

// Properties describes the instance's controls: the provider selector
// listing Automatic and every available provider, one options group per
// available provider, and the manual button.
func (i *Instance) Properties() []Property {
	i.mu.Lock()
	ui := i.ui
	i.mu.Unlock()
	selected := i.registry.Resolve(ui)

	available := i.registry.Available()
	selector := Property{
		Key:     KeyProvider,
		Label:   "Provider",
		Kind:    PropertyList,
		Visible: true,
		Choices: []Choice{{Label: provider.Automatic.String(), Value: provider.Automatic}},
	}
	props := []Property{selector}
	for _, kind := range available {
		name := i.registry.DisplayName(kind)
		props[0].Choices = append(props[0].Choices, Choice{Label: name, Value: kind})
		props = append(props, Property{
			Key:     "Provider." + string(kind),
			Label:   name,
			Kind:    PropertyGroup,
			Visible: kind == selected,
			Children: []Property{{
				Key:     KeyMode,
				Label:   "Mode",
				Kind:    PropertyList,
				Visible: true,
				Choices: []Choice{
					{Label: "Performance", Value: provider.ModePerformance},
					{Label: "Quality", Value: provider.ModeQuality},
				},
			}},
		})
	}

	return append(props, Property{
		Key:     KeyManual,
		Label:   "Open Manual",
		Kind:    PropertyButton,
		Visible: true,
		URL:     HelpURL,
	})
}
