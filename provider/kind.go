package provider

// Kind identifies a provider implementation.
type Kind string

const (
	// Invalid is the zero Kind. An instance with no provider loaded reports it.
	Invalid Kind = ""
	// Automatic asks the registry to pick the best available provider.
	Automatic Kind = "automatic"
)

// IsConcrete reports whether k names a real provider rather than a sentinel.
func (k Kind) IsConcrete() bool {
	return k != Invalid && k != Automatic
}

// String returns the display form of k.
func (k Kind) String() string {
	switch k {
	case Invalid:
		return "N/A"
	case Automatic:
		return "Automatic"
	default:
		return string(k)
	}
}
