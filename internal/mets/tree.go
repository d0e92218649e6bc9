package mets

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// XML namespaces recognized by the parser.
const (
	nsMETS   = "http://www.loc.gov/METS/"
	nsDC     = "http://purl.org/dc/elements/1.1/"
	nsPREMIS = "http://www.loc.gov/premis/v3"
	nsXLink  = "http://www.w3.org/1999/xlink"
)

// element is a node in the decoded document tree. The parser works on this
// generic tree rather than struct-tag unmarshalling because it needs
// document-order traversal and ID-based cross-referencing across sections.
type element struct {
	space    string
	local    string
	attrs    []xml.Attr
	children []*element
	text     string
}

// decodeTree reads an XML document into an element tree. Any decoder error
// means the document is not well-formed.
func decodeTree(r io.Reader) (*element, error) {
	dec := xml.NewDecoder(r)

	var root *element
	var stack []*element

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			el := &element{
				space: t.Name.Space,
				local: t.Name.Local,
				attrs: append([]xml.Attr(nil), t.Attr...),
			}
			if len(stack) == 0 {
				if root != nil {
					return nil, fmt.Errorf("multiple root elements")
				}
				root = el
			} else {
				parent := stack[len(stack)-1]
				parent.children = append(parent.children, el)
			}
			stack = append(stack, el)

		case xml.EndElement:
			if len(stack) == 0 {
				return nil, fmt.Errorf("unbalanced end element </%s>", t.Name.Local)
			}
			stack = stack[:len(stack)-1]

		case xml.CharData:
			if len(stack) > 0 {
				stack[len(stack)-1].text += string(t)
			}
		}
	}

	if len(stack) != 0 {
		return nil, fmt.Errorf("unclosed element <%s>", stack[len(stack)-1].local)
	}
	if root == nil {
		return nil, fmt.Errorf("empty document")
	}
	return root, nil
}

// is reports whether the element has the given namespace and local name.
func (e *element) is(space, local string) bool {
	return e.space == space && e.local == local
}

// attr returns the value of the named (un-namespaced) attribute, or "".
func (e *element) attr(name string) string {
	for _, a := range e.attrs {
		if a.Name.Local == name && a.Name.Space == "" {
			return a.Value
		}
	}
	return ""
}

// attrNS returns the value of a namespaced attribute, or "".
func (e *element) attrNS(space, name string) string {
	for _, a := range e.attrs {
		if a.Name.Local == name && a.Name.Space == space {
			return a.Value
		}
	}
	return ""
}

// trimmedText returns the element's character data with surrounding
// whitespace removed.
func (e *element) trimmedText() string {
	return strings.TrimSpace(e.text)
}

// childrenNS returns the direct children matching namespace and local name,
// in document order.
func (e *element) childrenNS(space, local string) []*element {
	var out []*element
	for _, c := range e.children {
		if c.is(space, local) {
			out = append(out, c)
		}
	}
	return out
}

// firstChild returns the first direct child matching namespace and local
// name, or nil.
func (e *element) firstChild(space, local string) *element {
	for _, c := range e.children {
		if c.is(space, local) {
			return c
		}
	}
	return nil
}

// firstDescendant returns the first descendant matching namespace and local
// name in depth-first document order, or nil.
func (e *element) firstDescendant(space, local string) *element {
	for _, c := range e.children {
		if c.is(space, local) {
			return c
		}
		if d := c.firstDescendant(space, local); d != nil {
			return d
		}
	}
	return nil
}

// walk visits every descendant in depth-first document order.
func (e *element) walk(visit func(*element)) {
	for _, c := range e.children {
		visit(c)
		c.walk(visit)
	}
}
