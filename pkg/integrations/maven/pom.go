package maven

import (
	"context"
	"encoding/xml"
	"fmt"
	"maps"
	"regexp"
	"strings"
)

// maxParentDepth bounds parent chains and BOM imports.
const maxParentDepth = 16

// POM is the subset of a Maven project model needed to compute dependencies.
type POM struct {
	GroupID     string     `xml:"groupId" json:"group_id,omitempty"`
	ArtifactID  string     `xml:"artifactId" json:"artifact_id"`
	Version     string     `xml:"version" json:"version,omitempty"`
	Packaging   string     `xml:"packaging" json:"packaging,omitempty"`
	Name        string     `xml:"name" json:"name,omitempty"`
	Description string     `xml:"description" json:"description,omitempty"`
	URL         string     `xml:"url" json:"url,omitempty"`
	Parent      *Parent    `xml:"parent" json:"parent,omitempty"`
	Properties  Properties `xml:"properties" json:"properties,omitempty"`

	DependencyManagement []Dependency `xml:"dependencyManagement>dependencies>dependency" json:"dependency_management,omitempty"`
	Dependencies         []Dependency `xml:"dependencies>dependency" json:"dependencies,omitempty"`
}

// Parent references the parent POM.
type Parent struct {
	GroupID    string `xml:"groupId" json:"group_id"`
	ArtifactID string `xml:"artifactId" json:"artifact_id"`
	Version    string `xml:"version" json:"version"`
}

func (p Parent) String() string { return p.GroupID + ":" + p.ArtifactID + ":" + p.Version }

// Dependency is one <dependency> element.
type Dependency struct {
	GroupID    string      `xml:"groupId" json:"group_id"`
	ArtifactID string      `xml:"artifactId" json:"artifact_id"`
	Version    string      `xml:"version" json:"version,omitempty"`
	Type       string      `xml:"type" json:"type,omitempty"`
	Classifier string      `xml:"classifier" json:"classifier,omitempty"`
	Scope      string      `xml:"scope" json:"scope,omitempty"`
	Optional   string      `xml:"optional" json:"optional,omitempty"`
	Exclusions []Exclusion `xml:"exclusions>exclusion" json:"exclusions,omitempty"`
}

// Key returns "groupId:artifactId".
func (d Dependency) Key() string { return d.GroupID + ":" + d.ArtifactID }

// IsOptional reports whether the dependency is marked <optional>true</optional>.
func (d Dependency) IsOptional() bool { return strings.TrimSpace(d.Optional) == "true" }

// Exclusion is one <exclusion> element. Either field may be "*".
type Exclusion struct {
	GroupID    string `xml:"groupId" json:"group_id"`
	ArtifactID string `xml:"artifactId" json:"artifact_id"`
}

// Key returns "groupId:artifactId".
func (e Exclusion) Key() string { return e.GroupID + ":" + e.ArtifactID }

// Properties holds the free-form <properties> block.
type Properties map[string]string

// UnmarshalXML reads every child element of <properties> as name -> text.
func (p *Properties) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	m := Properties{}
	for {
		tok, err := d.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			var v string
			if err := d.DecodeElement(&v, &t); err != nil {
				return err
			}
			m[t.Name.Local] = strings.TrimSpace(v)
		case xml.EndElement:
			*p = m
			return nil
		}
	}
}

// ParsePOM decodes a POM document.
func ParsePOM(data []byte) (*POM, error) {
	var p POM
	if err := xml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse pom: %w", err)
	}
	if p.ArtifactID == "" {
		return nil, fmt.Errorf("parse pom: missing artifactId")
	}
	return &p, nil
}

// Coordinate returns "groupId:artifactId:version" with inherited values
// filled from the parent declaration.
func (p *POM) Coordinate() string {
	g, v := p.GroupID, p.Version
	if p.Parent != nil {
		if g == "" {
			g = p.Parent.GroupID
		}
		if v == "" {
			v = p.Parent.Version
		}
	}
	return g + ":" + p.ArtifactID + ":" + v
}

// Fetcher loads the raw POM of a coordinate.
type Fetcher func(ctx context.Context, group, artifact, version string) (*POM, error)

// Effective computes the effective model of p: the parent chain is merged
// (child values win), ${...} references are interpolated, BOMs imported in
// <dependencyManagement> are expanded, and dependency versions, scopes and
// exclusions missing from <dependencies> are filled from dependency
// management. A nil fetch skips parents and imports.
func Effective(ctx context.Context, p *POM, fetch Fetcher) (*POM, error) {
	return effective(ctx, p, fetch, 0)
}

func effective(ctx context.Context, p *POM, fetch Fetcher, depth int) (*POM, error) {
	if depth > maxParentDepth {
		return nil, fmt.Errorf("bom imports of %s nest deeper than %d", p.Coordinate(), maxParentDepth)
	}

	chain := []*POM{p}
	for cur := p; cur.Parent != nil && fetch != nil; {
		if len(chain) > maxParentDepth {
			return nil, fmt.Errorf("parent chain of %s exceeds %d levels", p.Coordinate(), maxParentDepth)
		}
		par, err := fetch(ctx, cur.Parent.GroupID, cur.Parent.ArtifactID, cur.Parent.Version)
		if err != nil {
			return nil, fmt.Errorf("parent %s: %w", cur.Parent, err)
		}
		chain = append(chain, par)
		cur = par
	}

	out := &POM{
		GroupID:     p.GroupID,
		ArtifactID:  p.ArtifactID,
		Version:     p.Version,
		Packaging:   p.Packaging,
		Name:        p.Name,
		Description: p.Description,
		URL:         p.URL,
	}
	if p.Parent != nil {
		parent := *p.Parent
		out.Parent = &parent
		if out.GroupID == "" {
			out.GroupID = parent.GroupID
		}
		if out.Version == "" {
			out.Version = parent.Version
		}
	}

	props := Properties{}
	for i := len(chain) - 1; i >= 0; i-- {
		maps.Copy(props, chain[i].Properties)
	}
	for _, prefix := range []string{"project.", "pom."} {
		props[prefix+"groupId"] = out.GroupID
		props[prefix+"artifactId"] = out.ArtifactID
		props[prefix+"version"] = out.Version
	}
	if out.Parent != nil {
		for _, prefix := range []string{"project.parent.", "parent."} {
			props[prefix+"groupId"] = out.Parent.GroupID
			props[prefix+"artifactId"] = out.Parent.ArtifactID
			props[prefix+"version"] = out.Parent.Version
		}
	}
	out.Properties = props

	var managed []Dependency
	for _, pp := range chain {
		managed = append(managed, pp.DependencyManagement...)
	}
	mgmt, err := expandImports(ctx, mergeDeps(managed, props), fetch, depth)
	if err != nil {
		return nil, err
	}
	out.DependencyManagement = mgmt

	byKey := make(map[string]Dependency, len(mgmt))
	for _, d := range mgmt {
		byKey[d.Key()] = d
	}

	var declared []Dependency
	for _, pp := range chain {
		declared = append(declared, pp.Dependencies...)
	}
	for _, d := range mergeDeps(declared, props) {
		if m, ok := byKey[d.Key()]; ok {
			if d.Version == "" {
				d.Version = m.Version
			}
			if d.Scope == "" {
				d.Scope = m.Scope
			}
			if len(d.Exclusions) == 0 {
				d.Exclusions = m.Exclusions
			}
		}
		out.Dependencies = append(out.Dependencies, d)
	}
	return out, nil
}

// mergeDeps interpolates deps and keeps the first entry per key, so entries
// listed earlier (closer to the child) win.
func mergeDeps(deps []Dependency, props Properties) []Dependency {
	seen := make(map[string]bool, len(deps))
	var out []Dependency
	for _, d := range deps {
		d = interpolateDep(d, props)
		if seen[d.Key()] {
			continue
		}
		seen[d.Key()] = true
		out = append(out, d)
	}
	return out
}

// expandImports replaces import-scoped BOM entries with the BOM's own
// dependency management. Entries declared locally win over imported ones.
func expandImports(ctx context.Context, mgmt []Dependency, fetch Fetcher, depth int) ([]Dependency, error) {
	var (
		out     []Dependency
		imports []Dependency
		seen    = make(map[string]bool)
	)
	for _, d := range mgmt {
		if d.Scope == "import" {
			imports = append(imports, d)
			continue
		}
		seen[d.Key()] = true
		out = append(out, d)
	}
	if fetch == nil {
		return out, nil
	}
	for _, imp := range imports {
		raw, err := fetch(ctx, imp.GroupID, imp.ArtifactID, imp.Version)
		if err != nil {
			return nil, fmt.Errorf("import %s:%s: %w", imp.Key(), imp.Version, err)
		}
		bom, err := effective(ctx, raw, fetch, depth+1)
		if err != nil {
			return nil, err
		}
		for _, d := range bom.DependencyManagement {
			if !seen[d.Key()] {
				seen[d.Key()] = true
				out = append(out, d)
			}
		}
	}
	return out, nil
}

var propertyRef = regexp.MustCompile(`\$\{([^}]+)\}`)

// Interpolate replaces ${name} references with values from props. Nested
// references are expanded up to a fixed number of passes; unknown
// references are left in place.
func Interpolate(s string, props Properties) string {
	for range 8 {
		if !strings.Contains(s, "${") {
			return s
		}
		next := propertyRef.ReplaceAllStringFunc(s, func(m string) string {
			if v, ok := props[m[2:len(m)-1]]; ok {
				return v
			}
			return m
		})
		if next == s {
			return s
		}
		s = next
	}
	return s
}

func interpolateDep(d Dependency, props Properties) Dependency {
	d.GroupID = strings.TrimSpace(Interpolate(d.GroupID, props))
	d.ArtifactID = strings.TrimSpace(Interpolate(d.ArtifactID, props))
	d.Version = strings.TrimSpace(Interpolate(d.Version, props))
	d.Scope = strings.TrimSpace(Interpolate(d.Scope, props))
	d.Type = strings.TrimSpace(Interpolate(d.Type, props))
	d.Optional = strings.TrimSpace(Interpolate(d.Optional, props))
	if len(d.Exclusions) > 0 {
		excl := make([]Exclusion, len(d.Exclusions))
		for i, e := range d.Exclusions {
			excl[i] = Exclusion{
				GroupID:    strings.TrimSpace(Interpolate(e.GroupID, props)),
				ArtifactID: strings.TrimSpace(Interpolate(e.ArtifactID, props)),
			}
		}
		d.Exclusions = excl
	}
	return d
}
