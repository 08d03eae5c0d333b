package browsersdk

import "strings"

// DefaultContentAttributes are the candidate attributes consulted, in order,
// when deriving a content label for a trigger element.
var DefaultContentAttributes = []string{"data-name", "aria-label", "alt", "title", "name"}

// Element is a minimal view of a host DOM node, enough to derive report
// context. The SDK never inspects which nodes mutated; elements appear only as
// trigger targets.
type Element struct {
	Tag        string
	Attributes map[string]string
	Text       string
	Parent     *Element
}

// Label returns the element's tag name, or "" for a nil element.
func (e *Element) Label() string {
	if e == nil {
		return ""
	}
	return e.Tag
}

// ElementContent returns the first non-blank candidate among attrs and the
// node text, walking from el up through its ancestors. Each candidate is
// trimmed before the empty check. A nil attrs selects
// DefaultContentAttributes.
func ElementContent(el *Element, attrs []string) string {
	if attrs == nil {
		attrs = DefaultContentAttributes
	}
	for node := el; node != nil; node = node.Parent {
		for _, name := range attrs {
			if v := strings.TrimSpace(node.Attributes[name]); v != "" {
				return v
			}
		}
		if v := strings.TrimSpace(node.Text); v != "" {
			return v
		}
	}
	return ""
}
