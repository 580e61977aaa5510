package config

import (
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/hookflow/hookflow/domain/hook"
)

// ParseYAML is the top level entry point: it walks the dot separated key
// path into the document root and loads every directive found there into
// the per hook root lists. The hook argument selects the loader variant;
// hook.Remap attaches directives directly to the remap hook, anything else
// requires top level when directives.
func (c *Config) ParseYAML(root *yaml.Node, path string, h hook.Hook) error {
	base := deref(root)
	if base == nil {
		return errors.New("configuration document is empty")
	}

	if path != RootPath {
		var walked []string
		for _, key := range strings.Split(path, ".") {
			walked = append(walked, key)
			child := mapChild(base, key)
			if child == nil {
				return fmt.Errorf("key %q not found - no such key %q", path, strings.Join(walked, "."))
			}
			base = deref(child)
		}
	}

	c.hook = h
	loader := c.loadTopLevelDirective
	if h == hook.Remap {
		loader = c.loadRemapDirective
	}

	switch base.Kind {
	case yaml.SequenceNode:
		// Load every child, collecting all failures so one pass surfaces
		// every defect in the configuration.
		var errs []error
		for _, child := range base.Content {
			if err := loader(child); err != nil {
				errs = append(errs, err)
			}
		}
		if len(errs) > 0 {
			return fmt.Errorf("while loading list of top level directives for %q at line %d: %w",
				path, base.Line, errors.Join(errs...))
		}
	case yaml.MappingNode:
		return loader(base)
	}
	return nil
}

// loadTopLevelDirective handles the generic variant: every top level node
// must be a when directive; its body is stolen into the target hook's root
// list.
func (c *Config) loadTopLevelDirective(node *yaml.Node) error {
	node = deref(node)
	if node == nil || node.Kind != yaml.MappingNode {
		return fmt.Errorf("top level directive at line %d is not an object as required", nodeLine(node))
	}
	keyValue := mapChild(node, WhenKey)
	if keyValue == nil {
		return fmt.Errorf("top level directive at line %d is not a %q directive as required", node.Line, WhenKey)
	}

	drtv, err := c.invokeLoader(c.factory.find(WhenKey), node, WhenKey, "", keyValue)
	if err != nil {
		return err
	}
	when := drtv.(*When)
	c.roots[when.hook] = append(c.roots[when.hook], when.directive)
	if when.hook != hook.PostLoad { // post load directives don't count
		c.hasTopLevel = true
	}
	return nil
}

// loadRemapDirective handles the remap variant: the node is an ordinary
// directive attached directly to the remap hook. A when wrapper is not
// unpacked here; conditional dispatch for remap rules is deferred to
// evaluation so rule configuration need not be carried through every
// helper.
func (c *Config) loadRemapDirective(node *yaml.Node) error {
	node = deref(node)
	if node == nil || node.Kind != yaml.MappingNode {
		return fmt.Errorf("configuration at line %d is not a directive object as required", nodeLine(node))
	}
	drtv, err := c.ParseDirective(node)
	if err != nil {
		return err
	}
	c.roots[hook.Remap] = append(c.roots[hook.Remap], drtv)
	c.hasTopLevel = true
	return nil
}
