// Copyright 2021 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package metrics

import (
	"context"
	"testing"
)

type countingClient struct {
	nopClient
	counters map[string]int
}

type countingCounter struct {
	c    *countingClient
	name string
}

func (c countingCounter) Inc() { c.c.counters[c.name]++ }
func (c countingCounter) Add(float64) {}

func (c *countingClient) GetCounter(name string, labels map[string]string) Counter {
	return countingCounter{c, name + labels["primitive"]}
}

func TestOff(t *testing.T) {
	ctx := context.Background()
	if On(ctx) {
		t.Fatal("metrics are on")
	}
	// Undeclared names are only checked when metrics are on.
	GetPrimitiveEvalsCountCounter(ctx, "block").Inc()
	if got, want := WithClient(ctx, nil), ctx; got != want {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestClient(t *testing.T) {
	c := &countingClient{counters: make(map[string]int)}
	ctx := WithClient(context.Background(), c)
	GetPrimitiveEvalsCountCounter(ctx, "if").Inc()
	GetPrimitiveEvalsCountCounter(ctx, "if").Inc()
	GetCompilesCountCounter(ctx).Inc()
	if got, want := c.counters["primitive_evals_countif"], 2; got != want {
		t.Errorf("got %v, want %v", got, want)
	}
	if got, want := c.counters["compiles_count"], 1; got != want {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestInvalidLabels(t *testing.T) {
	ctx := WithClient(context.Background(), NopClient)
	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	getCounter(ctx, "primitive_evals_count", nil)
}
