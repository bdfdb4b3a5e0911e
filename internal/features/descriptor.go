package features

// ContentDescriptor describes one homepage feature card.
type ContentDescriptor struct {
	ID          string `yaml:"id" json:"id"`
	Title       string `yaml:"title" json:"title"`
	Icon        string `yaml:"icon,omitempty" json:"icon,omitempty"` // vector graphic reference, passed through
	URL         string `yaml:"url" json:"url"`
	Color       string `yaml:"color,omitempty" json:"color,omitempty"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"` // Markdown fragment
}

// Registry is an ordered, read-only sequence of descriptors. Order is display order.
type Registry struct {
	items []ContentDescriptor
}

// NewRegistry copies items into a new Registry, preserving their order.
func NewRegistry(items ...ContentDescriptor) Registry {
	cp := make([]ContentDescriptor, len(items))
	copy(cp, items)
	return Registry{items: cp}
}

// Len returns the number of descriptors.
func (r Registry) Len() int { return len(r.items) }

// Descriptors returns a copy of the descriptors in display order.
func (r Registry) Descriptors() []ContentDescriptor {
	cp := make([]ContentDescriptor, len(r.items))
	copy(cp, r.items)
	return cp
}

// IDs returns descriptor ids in display order.
func (r Registry) IDs() []string {
	ids := make([]string, len(r.items))
	for i, d := range r.items {
		ids[i] = d.ID
	}
	return ids
}
