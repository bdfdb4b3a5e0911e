package linkcheck

import (
	"fmt"
	"log/slog"
	"strings"

	"git.home.luguber.info/inful/docportal/internal/foundation/errors"
	"git.home.luguber.info/inful/docportal/internal/foundation/normalization"
	"git.home.luguber.info/inful/docportal/internal/logfields"
)

// Policy decides what a broken link does to the build.
type Policy string

const (
	PolicyThrow  Policy = "throw"
	PolicyWarn   Policy = "warn"
	PolicyIgnore Policy = "ignore"
)

var policyNormalizer = normalization.NewNormalizer("on_broken_links", map[string]Policy{
	"throw":  PolicyThrow,
	"error":  PolicyThrow,
	"warn":   PolicyWarn,
	"log":    PolicyWarn,
	"ignore": PolicyIgnore,
}, PolicyThrow)

// ParsePolicy normalizes a configured policy; empty means throw.
func ParsePolicy(raw string) (Policy, error) {
	return policyNormalizer.NormalizeStrict(raw)
}

// Broken is an internal link that resolves to nothing.
type Broken struct {
	Page string // page the link was found on
	Link Link
}

func (b Broken) String() string {
	return fmt.Sprintf("%s -> %s", b.Page, b.Link.URL)
}

// Checker resolves internal link paths.
type Checker struct {
	// Routes holds the known route paths.
	Routes map[string]bool
	// AssetExists reports whether a static asset exists at a site path. Optional.
	AssetExists func(path string) bool
}

// Check returns the internal links of page that resolve neither to a route nor an asset.
func (c Checker) Check(page string, links []Link) []Broken {
	var broken []Broken
	for _, l := range links {
		if !l.IsInternal || c.resolves(l.Path) {
			continue
		}
		broken = append(broken, Broken{Page: page, Link: l})
	}
	return broken
}

func (c Checker) resolves(p string) bool {
	if c.Routes[p] {
		return true
	}
	if p != "/" && (c.Routes[strings.TrimSuffix(p, "/")] || c.Routes[strings.TrimSuffix(p, "/")+"/"]) {
		return true
	}
	if strings.HasSuffix(p, "/index.html") && c.resolves(strings.TrimSuffix(p, "index.html")) {
		return true
	}
	return c.AssetExists != nil && c.AssetExists(p)
}

// Apply enforces policy on broken links. Throw returns a links error, warn logs
// each link, ignore does nothing.
func Apply(policy Policy, broken []Broken) error {
	if len(broken) == 0 || policy == PolicyIgnore {
		return nil
	}
	if policy == PolicyWarn {
		for _, b := range broken {
			slog.Warn("Broken link", slog.String("page", b.Page), logfields.URL(b.Link.URL))
		}
		return nil
	}
	list := make([]string, len(broken))
	for i, b := range broken {
		list[i] = b.String()
	}
	return errors.NewError(errors.CategoryLinks, fmt.Sprintf("found %d broken link(s)", len(broken))).
		WithContext("links", strings.Join(list, ", ")).
		UserAction().
		Build()
}
