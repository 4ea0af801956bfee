// Copyright 2017 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// Package topology exports the shape of execution trees for
// diagnostics. Trees are rendered either as DOT graphs or as Newick
// trees; in both, primitive nodes are labeled by their primitive
// names, which can be decoded with names.Parse, and constant operands
// by their values.
package topology

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/grailbio/phylanx/errors"
	"github.com/grailbio/phylanx/names"
	"github.com/grailbio/phylanx/primitive"
	"github.com/grailbio/phylanx/values"
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/encoding"
	"gonum.org/v1/gonum/graph/encoding/dot"
	"gonum.org/v1/gonum/graph/simple"
)

// Node is a node of an execution tree: a primitive instance, or a
// constant operand of one.
type Node struct {
	// Label is the primitive name, or the printed constant.
	Label string
	// Primitive is the node's primitive; nil for constants.
	Primitive primitive.Primitive
	// Children are the node's operands, in order.
	Children []*Node

	key string
}

// ID implements graph.Node. IDs are derived from the digest of the
// node's key, so they are stable across exports.
func (n *Node) ID() int64 {
	id, err := strconv.ParseInt(values.Digester.FromString(n.key).Short(), 16, 64)
	if err != nil {
		panic(err)
	}
	return id
}

// DOTID implements dot.Node.
func (n *Node) DOTID() string {
	return n.Label
}

// Attributes implements encoding.Attributer.
func (n *Node) Attributes() []encoding.Attribute {
	if n.Primitive == nil {
		return []encoding.Attribute{{Key: "shape", Value: "box"}}
	}
	return []encoding.Attribute{{Key: "shape", Value: "ellipse"}}
}

// Type returns the primitive type of a primitive node, or "" for
// constants.
func (n *Node) Type() string {
	if n.Primitive == nil {
		return ""
	}
	return names.PrimitiveType(n.Label)
}

// Tree returns the execution tree rooted at root. Shared subtrees
// are expanded at each use.
func Tree(root values.T) *Node {
	return tree(root, "")
}

func tree(v values.T, parent string) *Node {
	p, ok := v.(primitive.Primitive)
	if !ok {
		label := values.Sprint(v)
		return &Node{Label: label, key: parent + "\x00" + label}
	}
	n := &Node{Label: p.Name(), Primitive: p, key: p.Name()}
	if ops, ok := p.(primitive.Operands); ok {
		for i, op := range ops.Operands() {
			n.Children = append(n.Children, tree(op, fmt.Sprintf("%s\x00%d", n.key, i)))
		}
	}
	return n
}

// Walk calls fn for each node of the tree, in preorder.
func (n *Node) Walk(fn func(*Node)) {
	fn(n)
	for _, c := range n.Children {
		c.Walk(fn)
	}
}

// Graph returns the execution tree as a directed graph in which edges
// run from primitives to their operands.
func Graph(root values.T) graph.Directed {
	g := simple.NewDirectedGraph()
	var add func(n *Node)
	add = func(n *Node) {
		if g.Node(n.ID()) == nil {
			g.AddNode(n)
		}
		for _, c := range n.Children {
			add(c)
			if !g.HasEdgeFromTo(n.ID(), c.ID()) {
				g.SetEdge(g.NewEdge(n, c))
			}
		}
	}
	add(Tree(root))
	return g
}

// DOT renders the execution tree rooted at root as a DOT graph with
// the given name.
func DOT(name string, root values.T) ([]byte, error) {
	b, err := dot.Marshal(Graph(root), name, "", "  ")
	if err != nil {
		return nil, errors.E("topology", name, err)
	}
	return b, nil
}

// Newick renders the execution tree rooted at root in the Newick
// format, e.g. "(1,2)/phylanx/__add$0/0$0$0;".
func Newick(root values.T) string {
	var b strings.Builder
	newick(&b, Tree(root))
	b.WriteByte(';')
	return b.String()
}

func newick(b *strings.Builder, n *Node) {
	if len(n.Children) > 0 {
		b.WriteByte('(')
		for i, c := range n.Children {
			if i > 0 {
				b.WriteByte(',')
			}
			newick(b, c)
		}
		b.WriteByte(')')
	}
	b.WriteString(newickLabel(n.Label))
}

// newickLabel quotes labels that contain characters reserved by the
// Newick format.
func newickLabel(s string) string {
	if s != "" && !strings.ContainsAny(s, "()[]':;, \t\n") {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
