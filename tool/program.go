// Copyright 2017 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package tool

import (
	"context"
	"fmt"
	"io"
	"io/ioutil"
	"os"

	"github.com/grailbio/base/traverse"
	"github.com/grailbio/phylanx"
	"github.com/grailbio/phylanx/errors"
	"github.com/grailbio/phylanx/locality"
	"github.com/grailbio/phylanx/log"
	"github.com/grailbio/phylanx/values"
)

// readProgram reads the program at path; "-" is standard input.
func readProgram(path string, stdin io.Reader) (string, error) {
	var (
		b   []byte
		err error
	)
	if path == "-" {
		b, err = ioutil.ReadAll(stdin)
	} else {
		b, err = ioutil.ReadFile(path)
	}
	if err != nil {
		return "", errors.E("read", path, errors.NotExist, err)
	}
	return string(b), nil
}

// evalArgs evaluates command line arguments as PhySL expressions.
// Arguments are evaluated standalone, so they may not refer to the
// program's definitions or to distributed state.
func evalArgs(ctx context.Context, path string, args []string) ([]values.T, error) {
	if len(args) == 0 {
		return nil, nil
	}
	c := phylanx.NewCompiler(nil, nil)
	vals := make([]values.T, len(args))
	for i, arg := range args {
		e, err := c.Compile(ctx, fmt.Sprintf("%s$arg%d", path, i), arg)
		if err != nil {
			return nil, err
		}
		if vals[i], err = e.Run(ctx); err != nil {
			return nil, err
		}
	}
	return vals, nil
}

// runGroup compiles and runs src on each locality of ls concurrently,
// returning the results indexed by locality. Every locality runs the
// same program under the same snippet name, so that the names of
// distributed arrays agree across localities.
func runGroup(ctx context.Context, ls []*locality.Locality, name, src string, args []values.T, logger *log.Logger) ([]values.T, error) {
	results := make([]values.T, len(ls))
	err := traverse.Each(len(ls), func(i int) error {
		e, err := phylanx.NewCompiler(ls[i], logger).Compile(ctx, name, src)
		if err != nil {
			return err
		}
		logger.Debugf("%v: compiled %v", ls[i], e)
		results[i], err = e.Run(ctx, args...)
		if err != nil {
			return errors.E("run", name, fmt.Sprint(ls[i]), err)
		}
		return nil
	})
	return results, err
}

func stdin() io.Reader { return os.Stdin }
