// Copyright 2017 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package topology_test

import (
	"context"
	"strings"
	"testing"

	"github.com/grailbio/phylanx"
	"github.com/grailbio/phylanx/compiler"
	"github.com/grailbio/phylanx/names"
	"github.com/grailbio/phylanx/topology"
	"github.com/grailbio/testutil/expect"
	"github.com/stretchr/testify/require"
)

func compile(t *testing.T, src string) *compiler.EntryPoint {
	t.Helper()
	e, err := phylanx.NewCompiler(nil, nil).Compile(context.Background(), "test", src)
	require.NoError(t, err)
	return e
}

func TestNewick(t *testing.T) {
	e := compile(t, `block(1 + 2, "a b")`)
	require.Len(t, e.Primitives, 2)
	add, block := e.Primitives[0], e.Primitives[1]
	expect.EQ(t, topology.Newick(e.Root), "((1,2)"+add+`,'"a b"')`+block+";")
	expect.EQ(t, topology.Newick(int64(3)), "3;")
}

func TestTree(t *testing.T) {
	e := compile(t, "define(f, x, x * 2)\nf(3)")
	root := topology.Tree(e.Root)
	var types []string
	root.Walk(func(n *topology.Node) {
		if n.Primitive != nil {
			_, ok := names.Parse(n.Label)
			expect.True(t, ok)
		}
		types = append(types, n.Type())
	})
	expect.EQ(t, types, []string{"call-function", "access-variable", ""})
}

func TestDOT(t *testing.T) {
	e := compile(t, "block(1 + 2, 3)")
	b, err := topology.DOT("test", e.Root)
	require.NoError(t, err)
	s := string(b)
	expect.True(t, strings.HasPrefix(s, "strict digraph test {") || strings.HasPrefix(s, "digraph test {"))
	for _, name := range e.Primitives {
		expect.True(t, strings.Contains(s, name))
	}
	g := topology.Graph(e.Root)
	// The block, the addition, and three constants.
	expect.EQ(t, g.Nodes().Len(), 5)
	root := topology.Tree(e.Root)
	expect.True(t, g.HasEdgeFromTo(root.ID(), root.Children[0].ID()))
	expect.False(t, g.HasEdgeFromTo(root.Children[0].ID(), root.ID()))
}
