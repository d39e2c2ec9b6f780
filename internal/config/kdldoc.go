package config

import (
	"strings"

	kdl "github.com/sblinch/kdl-go"
	"github.com/sblinch/kdl-go/document"
)

// parseDocument parses raw KDL bytes into the library's document tree.
func parseDocument(content []byte) (*document.Document, error) {
	return kdl.Parse(strings.NewReader(string(content)))
}

// nodeName returns a node's name, or "" for a nil node/name.
func nodeName(n *document.Node) string {
	if n == nil || n.Name == nil {
		return ""
	}
	return n.Name.NodeNameString()
}

// firstStringArg returns a node's first positional argument as a string.
func firstStringArg(n *document.Node) (string, bool) {
	if n == nil || len(n.Arguments) == 0 {
		return "", false
	}
	if s, ok := n.Arguments[0].Value.(string); ok {
		return s, true
	}
	return "", false
}

// firstBoolArg returns a node's first positional argument as a bool.
func firstBoolArg(n *document.Node) (bool, bool) {
	if n == nil || len(n.Arguments) == 0 {
		return false, false
	}
	if b, ok := n.Arguments[0].Value.(bool); ok {
		return b, true
	}
	return false, false
}

// firstIntArg returns a node's first positional argument as an int.
func firstIntArg(n *document.Node) (int, bool) {
	if n == nil || len(n.Arguments) == 0 {
		return 0, false
	}
	switch v := n.Arguments[0].Value.(type) {
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	}
	return 0, false
}

// stringArgs collects every positional string argument on a node.
func stringArgs(n *document.Node) []string {
	if n == nil {
		return nil
	}
	out := make([]string, 0, len(n.Arguments))
	for _, a := range n.Arguments {
		if s, ok := a.Value.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// childByName returns the first direct child of n with the given name.
func childByName(n *document.Node, name string) *document.Node {
	if n == nil {
		return nil
	}
	for _, c := range n.Children {
		if nodeName(c) == name {
			return c
		}
	}
	return nil
}

// childStringsByName returns the first string argument of every direct
// child of n named name (used for repeatable keys like "binary").
func childStringsByName(n *document.Node, name string) []string {
	if n == nil {
		return nil
	}
	var out []string
	for _, c := range n.Children {
		if nodeName(c) != name {
			continue
		}
		if s, ok := firstStringArg(c); ok {
			out = append(out, s)
		}
	}
	return out
}

// childPairs reads a block's direct children as key/value pairs where the
// child's node name is the key and its first string argument is the value
// (the idiom this document language uses for simple scalar fields, e.g. an
// "if" condition block or a hook's flag set).
func childPairs(n *document.Node) map[string]string {
	out := map[string]string{}
	if n == nil {
		return out
	}
	for _, c := range n.Children {
		key := nodeName(c)
		if key == "" {
			continue
		}
		if v, ok := firstStringArg(c); ok {
			out[key] = v
		} else if b, ok := firstBoolArg(c); ok {
			if b {
				out[key] = "true"
			} else {
				out[key] = "false"
			}
		}
	}
	return out
}

// hasChild reports whether n has a direct child with the given name,
// treating its bare presence as a boolean flag (e.g. a "sudo" marker node
// with no arguments).
func hasChild(n *document.Node, name string) bool {
	return childByName(n, name) != nil
}
