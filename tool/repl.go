// Copyright 2017 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package tool

import (
	"context"
	"flag"
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/grailbio/phylanx"
	"github.com/grailbio/phylanx/compiler"
	"github.com/grailbio/phylanx/values"
	"github.com/lmorg/readline"
)

func (c *Cmd) repl(ctx context.Context, args ...string) {
	var (
		flags = flag.NewFlagSet("repl", flag.ExitOnError)
		help  = `Repl reads PhySL expressions line by line, compiling and running
each on the configured locality and printing its value. Definitions
made on one line are visible on the following ones. Tab completes
primitive and variable names. The session ends at end of input.`
	)
	c.Parse(flags, args, help, "repl")
	if flags.NArg() != 0 {
		flags.Usage()
	}
	r := newSession(c.compiler(c.locality()))
	rl := readline.NewInstance()
	rl.SetPrompt("physl> ")
	rl.TabCompleter = r.complete
	for ctx.Err() == nil {
		line, err := rl.Readline()
		if err != nil {
			return
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		v, err := r.eval(ctx, line)
		if err != nil {
			c.Errorln(err)
			continue
		}
		c.Println(values.Sprint(v))
	}
}

// session is a sequence of snippets compiled by one compiler, each
// under its own name.
type session struct {
	c *compiler.Compiler
	n int
}

func newSession(c *compiler.Compiler) *session {
	return &session{c: c}
}

func (s *session) eval(ctx context.Context, line string) (values.T, error) {
	s.n++
	e, err := s.c.Compile(ctx, fmt.Sprintf("repl$%d", s.n), line)
	if err != nil {
		return nil, err
	}
	return e.Eval(ctx)
}

// completions returns the primitive and variable names that extend
// prefix, sorted.
func (s *session) completions(prefix string) []string {
	seen := make(map[string]bool)
	var names []string
	add := func(name string) {
		if !seen[name] && strings.HasPrefix(name, prefix) && isIdent(name) {
			seen[name] = true
			names = append(names, name)
		}
	}
	for _, h := range phylanx.DefaultCatalogue().Heads() {
		add(h)
	}
	for _, n := range s.c.Env().Names() {
		add(n)
	}
	sort.Strings(names)
	return names
}

func (s *session) complete(line []rune, pos int, dtx readline.DelayedTabContext) (string, []string, map[string]string, readline.TabDisplayType) {
	if pos > len(line) {
		pos = len(line)
	}
	start := pos
	for start > 0 && isIdentRune(line[start-1]) {
		start--
	}
	prefix := string(line[start:pos])
	var suggestions []string
	for _, name := range s.completions(prefix) {
		suggestions = append(suggestions, name[len(prefix):])
	}
	return prefix, suggestions, nil, readline.TabDisplayGrid
}

func isIdentRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func isIdent(s string) bool {
	for _, r := range s {
		if !isIdentRune(r) {
			return false
		}
	}
	return s != ""
}
