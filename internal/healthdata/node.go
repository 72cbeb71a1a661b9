package healthdata

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Attr is a single XML attribute in document order.
type Attr struct {
	Name  string
	Value string
}

// Node is a top-level child element of the export document.
type Node struct {
	Tag   string
	Attrs []Attr
}

// Get returns the attribute value and whether it was present.
func (n Node) Get(name string) (string, bool) {
	for _, a := range n.Attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

func (n *Node) set(name, value string) {
	for i := range n.Attrs {
		if n.Attrs[i].Name == name {
			n.Attrs[i].Value = value
			return
		}
	}
	n.Attrs = append(n.Attrs, Attr{Name: name, Value: value})
}

// ParseDocument decodes the whole document and returns the direct children of
// the root element in document order. Nested elements (MetadataEntry, route
// data and so on) are skipped.
func ParseDocument(data []byte) ([]Node, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("%w: document is empty", ErrMalformedXML)
	}

	dec := xml.NewDecoder(bytes.NewReader(data))
	var (
		nodes    []Node
		depth    int
		rootSeen bool
	)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedXML, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			if depth == 1 {
				if rootSeen {
					return nil, fmt.Errorf("%w: multiple root elements", ErrMalformedXML)
				}
				rootSeen = true
				continue
			}
			if depth == 2 {
				nodes = append(nodes, newNode(t))
			}
		case xml.EndElement:
			depth--
		case xml.CharData:
			if depth == 0 && len(bytes.TrimSpace(t)) > 0 {
				return nil, fmt.Errorf("%w: text outside root element", ErrMalformedXML)
			}
		}
	}

	if !rootSeen {
		return nil, fmt.Errorf("%w: no root element", ErrMalformedXML)
	}
	return nodes, nil
}

func newNode(el xml.StartElement) Node {
	n := Node{Tag: el.Name.Local, Attrs: make([]Attr, 0, len(el.Attr))}
	for _, a := range el.Attr {
		n.Attrs = append(n.Attrs, Attr{Name: a.Name.Local, Value: normalizeAttrValue(a.Value)})
	}
	return n
}

// attrWhitespace maps literal tab, newline and carriage return to a space
// (XML 1.0 section 3.3.3). A CRLF pair is one line end and becomes a single
// space.
var attrWhitespace = strings.NewReplacer("\r\n", " ", "\r", " ", "\n", " ", "\t", " ")

func normalizeAttrValue(v string) string {
	if !strings.ContainsAny(v, "\t\n\r") {
		return v
	}
	return attrWhitespace.Replace(v)
}
