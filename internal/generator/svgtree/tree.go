// Package svgtree implements a DOM-like, namespace-aware SVG tree used to
// compose layered coloring sheets, select variants, localize text and
// attributes, and expand QR-pixel placeholders. oksvg parses straight to a
// render tree, not something you can walk and mutate, so the mutable tree
// here is built on encoding/xml's token stream.
package svgtree

import (
	"bytes"
	"encoding/xml"
	"io"
)

// Node is a generic XML element preserving unknown attributes and child
// order verbatim, so the filter pass can mutate
// specific attributes without lowering the tree to strings prematurely.
type Node struct {
	XMLName  xml.Name
	Attrs    []xml.Attr
	Children []*Node
	Text     string // character data immediately inside this element
	Tail     string // character data immediately following this element, inside the parent
}

// Parse reads an SVG document into a Node tree.
func Parse(r io.Reader) (*Node, error) {
	dec := xml.NewDecoder(r)
	var root *Node
	var stack []*Node

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
			n := &Node{XMLName: t.Name, Attrs: append([]xml.Attr{}, t.Attr...)}
			if len(stack) > 0 {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, n)
			} else {
				root = n
			}
			stack = append(stack, n)
		case xml.EndElement:
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		case xml.CharData:
			if len(stack) == 0 {
				continue
			}
			cur := stack[len(stack)-1]
			text := string(t)
			if len(cur.Children) == 0 {
				cur.Text += text
			} else {
				last := cur.Children[len(cur.Children)-1]
				last.Tail += text
			}
		}
	}
	return root, nil
}

// Get returns the value of the named attribute and whether it is present.
func (n *Node) Get(name string) (string, bool) {
	for _, a := range n.Attrs {
		if a.Name.Local == name {
			return a.Value, true
		}
	}
	return "", false
}

// Set assigns an attribute's value, appending it if not already present.
func (n *Node) Set(name, value string) {
	for i, a := range n.Attrs {
		if a.Name.Local == name {
			n.Attrs[i].Value = value
			return
		}
	}
	n.Attrs = append(n.Attrs, xml.Attr{Name: xml.Name{Local: name}, Value: value})
}

// Walk visits n and every descendant in document order, depth-first.
func (n *Node) Walk(visit func(*Node)) {
	visit(n)
	for _, c := range n.Children {
		c.Walk(visit)
	}
}

// Clone deep-copies a node and its subtree.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	clone := &Node{
		XMLName: n.XMLName,
		Attrs:   append([]xml.Attr{}, n.Attrs...),
		Text:    n.Text,
		Tail:    n.Tail,
	}
	for _, c := range n.Children {
		clone.Children = append(clone.Children, c.Clone())
	}
	return clone
}

// Serialize writes n back out as XML, preserving attribute order.
func (n *Node) Serialize(w io.Writer) error {
	enc := xml.NewEncoder(w)
	if err := writeNode(enc, n); err != nil {
		return err
	}
	return enc.Flush()
}

func writeNode(enc *xml.Encoder, n *Node) error {
	start := xml.StartElement{Name: n.XMLName, Attr: n.Attrs}
	if err := enc.EncodeToken(start); err != nil {
		return err
	}
	if n.Text != "" {
		if err := enc.EncodeToken(xml.CharData(n.Text)); err != nil {
			return err
		}
	}
	for _, c := range n.Children {
		if err := writeNode(enc, c); err != nil {
			return err
		}
		if c.Tail != "" {
			if err := enc.EncodeToken(xml.CharData(c.Tail)); err != nil {
				return err
			}
		}
	}
	return enc.EncodeToken(xml.EndElement{Name: n.XMLName})
}

// SerializeToString is a convenience wrapper around Serialize.
func (n *Node) SerializeToString() (string, error) {
	var buf bytes.Buffer
	if err := n.Serialize(&buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}
