package router

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadYAML reads a route tree declaration.
//
//	index: home
//	routes:
//	  - path: blog
//	    nested:
//	      index: blog-list
//	      variable:
//	        key: post
//	        name: post
//	        content: blog-post
//	  - path: old-blog
//	    content:
//	      redirect: /blog
//	  - path: docs
//	    content:
//	      main: docs
//	      slots:
//	        sidebar: docs-nav
//	fallback: not-found
//
// Content is a content id, a {main, slots} mapping, or a {redirect: target}
// mapping. A redirect target is a path, a "@name" shorthand, a URL, or a
// {name, params, query} / {external} mapping. Missing content means none.
func LoadYAML(r io.Reader) (*Segment, error) {
	var decl segmentDecl
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&decl); err != nil {
		if errors.Is(err, io.EOF) {
			return NewSegment(), nil
		}
		return nil, fmt.Errorf("decode routes: %w", err)
	}
	return decl.build()
}

// LoadYAMLFile reads a route tree declaration from a file.
func LoadYAMLFile(path string) (*Segment, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	tree, err := LoadYAML(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return tree, nil
}

type segmentDecl struct {
	Index    contentDecl   `yaml:"index"`
	Routes   []routeDecl   `yaml:"routes"`
	Variable *variableDecl `yaml:"variable"`
	Fallback *contentDecl  `yaml:"fallback"`
}

type routeDecl struct {
	Path    string       `yaml:"path"`
	Name    string       `yaml:"name"`
	Content contentDecl  `yaml:"content"`
	Nested  *segmentDecl `yaml:"nested"`
}

type variableDecl struct {
	Key     string       `yaml:"key"`
	Name    string       `yaml:"name"`
	Content contentDecl  `yaml:"content"`
	Nested  *segmentDecl `yaml:"nested"`
}

func (d *segmentDecl) build() (*Segment, error) {
	seg := NewSegment().WithIndex(d.Index.get())

	for _, rd := range d.Routes {
		if rd.Path == "" {
			return nil, errors.New("route without path")
		}
		if seg.findFixed(rd.Path) != nil {
			return nil, fmt.Errorf("duplicate route path %q", rd.Path)
		}
		r, err := buildRoute(rd.Name, rd.Content, rd.Nested)
		if err != nil {
			return nil, fmt.Errorf("route %q: %w", rd.Path, err)
		}
		seg.Fixed(rd.Path, r)
	}

	if d.Variable != nil && d.Fallback != nil {
		return nil, errors.New("a segment cannot have both a variable and a fallback")
	}
	if d.Variable != nil {
		if d.Variable.Key == "" {
			return nil, errors.New("variable route without key")
		}
		r, err := buildRoute(d.Variable.Name, d.Variable.Content, d.Variable.Nested)
		if err != nil {
			return nil, fmt.Errorf("variable %q: %w", d.Variable.Key, err)
		}
		seg.Variable(d.Variable.Key, r)
	}
	if d.Fallback != nil {
		seg.Fallback(d.Fallback.get())
	}
	return seg, nil
}

func buildRoute(name string, c contentDecl, nested *segmentDecl) (*Route, error) {
	r := NewRoute(c.get()).Named(name)
	if nested != nil {
		seg, err := nested.build()
		if err != nil {
			return nil, err
		}
		r.Nest(seg)
	}
	return r, nil
}

// contentDecl decodes any content form.
type contentDecl struct {
	content Content
}

func (c contentDecl) get() Content {
	if c.content == nil {
		return NoContent
	}
	return c.content
}

func (c *contentDecl) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		if value.Tag == "!!null" || value.Value == "" {
			c.content = NoContent
			return nil
		}
		c.content = Single{ID: ContentID(value.Value)}
		return nil

	case yaml.MappingNode:
		if redirect := mappingValue(value, "redirect"); redirect != nil {
			t, err := decodeTarget(redirect)
			if err != nil {
				return fmt.Errorf("line %d: %w", redirect.Line, err)
			}
			c.content = Redirect{Target: t}
			return nil
		}

		var m struct {
			Main  string    `yaml:"main"`
			Slots yaml.Node `yaml:"slots"`
		}
		if err := value.Decode(&m); err != nil {
			return err
		}
		if m.Main == "" {
			return fmt.Errorf("line %d: content mapping needs main or redirect", value.Line)
		}
		multi := Multi{Main: ContentID(m.Main)}
		if m.Slots.Kind == yaml.MappingNode {
			seen := make(map[string]bool)
			for i := 0; i+1 < len(m.Slots.Content); i += 2 {
				name := m.Slots.Content[i].Value
				if seen[name] {
					return fmt.Errorf("line %d: duplicate slot %q", m.Slots.Content[i].Line, name)
				}
				seen[name] = true
				multi.Slots = append(multi.Slots, Slot{Name: name, ID: ContentID(m.Slots.Content[i+1].Value)})
			}
		}
		c.content = multi
		return nil

	default:
		return fmt.Errorf("line %d: unsupported content", value.Line)
	}
}

func decodeTarget(value *yaml.Node) (Target, error) {
	if value.Kind == yaml.ScalarNode {
		return ParseTarget(value.Value), nil
	}
	if value.Kind != yaml.MappingNode {
		return nil, errors.New("unsupported redirect target")
	}

	if ext := mappingValue(value, "external"); ext != nil {
		return ExternalTarget(ext.Value), nil
	}

	var t struct {
		Name   string    `yaml:"name"`
		Params yaml.Node `yaml:"params"`
		Query  string    `yaml:"query"`
	}
	if err := value.Decode(&t); err != nil {
		return nil, err
	}
	if t.Name == "" {
		return nil, errors.New("redirect target needs name or external")
	}
	named := NamedTarget{Name: t.Name, Query: t.Query}
	if t.Params.Kind == yaml.MappingNode {
		for i := 0; i+1 < len(t.Params.Content); i += 2 {
			named.Params = named.Params.With(t.Params.Content[i].Value, t.Params.Content[i+1].Value)
		}
	}
	return named, nil
}

// mappingValue returns the value node for key in a mapping node.
func mappingValue(m *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			return m.Content[i+1]
		}
	}
	return nil
}
