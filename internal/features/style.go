package features

// DefaultColor is the accent used when a descriptor has no color.
const DefaultColor = "#2E8555"

// StyleSet is every color binding of one card. All fields derive from a single accent.
type StyleSet struct {
	Accent       string
	IconFill     string
	IconColor    string
	HeadingColor string
	Background   string // empty unless background tinting is enabled
}

// StyleOptions controls style derivation.
type StyleOptions struct {
	Fallback       string // accent for descriptors without color; DefaultColor when empty
	TintBackground bool
}

// StyleFor derives the card styling from the descriptor color.
func StyleFor(d ContentDescriptor, opts StyleOptions) StyleSet {
	accent := d.Color
	if accent == "" {
		accent = opts.Fallback
	}
	if accent == "" {
		accent = DefaultColor
	}
	s := StyleSet{
		Accent:       accent,
		IconFill:     accent,
		IconColor:    accent,
		HeadingColor: accent,
	}
	if opts.TintBackground {
		s.Background = accent
	}
	return s
}
