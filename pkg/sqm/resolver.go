package sqm

import (
	"strings"

	"github.com/leapstack-labs/leapql/pkg/core"
	"github.com/leapstack-labs/leapql/pkg/domain"
)

// ResolvePath resolves a dotted identifier sequence against the current
// scope with the active strategy. The branches are tried in a fixed order
// and the first match wins:
//
//  1. alias.attr.path   qualified attribute path
//  2. alias             bare alias
//  3. attr.path         attribute of exactly one from-element in the nearest
//     scope that has it
//  4. Entity            entity type name
//  5. Some.CONSTANT     named constant
func (c *Context) ResolvePath(parts []string) (Expression, error) {
	scope, err := c.currentScope()
	if err != nil {
		return nil, err
	}
	strategy := c.currentStrategy()
	text := strings.Join(parts, ".")

	// 1. qualified attribute path
	if len(parts) > 1 {
		if fe, ok := scope.Lookup(parts[0]); ok {
			if err := strategy.ValidateRoot(c, fe, text); err != nil {
				return nil, err
			}
			return c.resolveFrom(strategy, fe, parts[1:], text)
		}
	}

	// 2. bare alias
	if len(parts) == 1 {
		if fe, ok := scope.Lookup(parts[0]); ok {
			if err := strategy.ValidateRoot(c, fe, text); err != nil {
				return nil, err
			}
			return strategy.ResolveFromElement(c, fe, text)
		}
	}

	// 3. unqualified attribute path
	fe, err := c.findUnqualified(scope, parts[0], text)
	if err != nil {
		return nil, err
	}
	if fe != nil {
		if err := strategy.ValidateRoot(c, fe, text); err != nil {
			return nil, err
		}
		return c.resolveFrom(strategy, fe, parts, text)
	}

	// 4. entity name
	if et, ok := c.resolver.ResolveEntity(text); ok {
		return strategy.ResolveEntityName(c, et, text)
	}

	// 5. constant
	if k, ok := c.resolver.ResolveConstant(text); ok {
		return &ConstantReference{Constant: k}, nil
	}

	return nil, core.Semanticf(text, "could not interpret path expression %q", text)
}

// findUnqualified returns the single from-element of the nearest scope that
// exposes attribute name. Scopes are searched innermost first; finding the
// attribute on more than one from-element of a scope is ambiguous.
func (c *Context) findUnqualified(scope *Scope, name, text string) (*FromElement, error) {
	for s := scope; s != nil; s = s.parent {
		var found []*FromElement
		for _, fe := range s.FromElements() {
			if _, ok := c.resolver.AttributeOf(fe.EffectiveType(), name); ok {
				found = append(found, fe)
			}
		}
		switch len(found) {
		case 0:
			continue
		case 1:
			return found[0], nil
		default:
			aliases := make([]string, len(found))
			for i, fe := range found {
				aliases[i] = fe.Alias
			}
			return nil, core.Semanticf(text, "ambiguous path %q: attribute %s exists on %s", text, name, strings.Join(aliases, ", "))
		}
	}
	return nil, nil
}

// resolveFrom walks segments starting at root. Embedded segments stay on the
// same from-element; entity and collection valued segments other than the
// last produce intermediate joins through the strategy.
func (c *Context) resolveFrom(strategy Strategy, root *FromElement, segments []string, text string) (Expression, error) {
	lhs, attr, path, err := c.walkPath(strategy, root, segments, text)
	if err != nil {
		return nil, err
	}
	return strategy.ResolveTerminal(c, lhs, attr, path, text)
}

// walkPath resolves all but the last segment and returns the from-element
// and attribute of the terminal segment with its path relative to that
// from-element.
func (c *Context) walkPath(strategy Strategy, root *FromElement, segments []string, text string) (*FromElement, *domain.Attribute, string, error) {
	current := root
	var embedded *domain.Attribute
	var prefix []string

	for i, seg := range segments {
		attr, err := c.attributeOf(current, embedded, seg, text)
		if err != nil {
			return nil, nil, "", err
		}
		path := strings.Join(append(prefix, seg), ".")
		if i == len(segments)-1 {
			return current, attr, path, nil
		}

		switch attr.Classification {
		case domain.Basic:
			return nil, nil, "", core.Semanticf(text, "cannot dereference basic attribute %s in %q", attr, text)
		case domain.Embedded:
			embedded = attr
			prefix = append(prefix, seg)
		default:
			next, err := strategy.IntermediateJoin(c, current, attr, path)
			if err != nil {
				return nil, nil, "", err
			}
			current = next
			embedded = nil
			prefix = nil
		}
	}
	return nil, nil, "", core.Internalf("empty attribute path %q", text)
}

func (c *Context) attributeOf(fe *FromElement, embedded *domain.Attribute, name, text string) (*domain.Attribute, error) {
	if embedded != nil {
		if a, ok := embedded.Component(name); ok {
			return a, nil
		}
		return nil, core.Semanticf(text, "could not resolve attribute %q of embeddable %s", name, embedded)
	}
	et := fe.EffectiveType()
	if a, ok := c.resolver.AttributeOf(et, name); ok {
		return a, nil
	}
	return nil, core.Semanticf(text, "could not resolve attribute %q of %s", name, et.Name)
}
