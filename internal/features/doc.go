// Package features renders the homepage feature registry.
//
// A Registry is an ordered list of ContentDescriptor values authored in the site
// configuration. Render maps each descriptor to a VisualCard in registry order;
// RenderSection writes the cards as the homepage feature grid. Rendering never
// validates or reorders: Registry.Validate is meant to be called by whoever builds
// the registry, before rendering.
package features
