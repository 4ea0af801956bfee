// Copyright 2017 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package rest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/grailbio/phylanx/errors"
)

func TestEndToEnd(t *testing.T) {
	mux := Mux{
		"tiles": WalkFunc(func(name string) Node {
			return DoFunc(func(ctx context.Context, call *Call) {
				if !call.Allow("GET") {
					return
				}
				call.Reply(http.StatusOK, name)
			})
		}),
		"echo": DoFunc(func(ctx context.Context, call *Call) {
			if !call.Allow("POST") {
				return
			}
			var m []int
			if call.Unmarshal(&m) != nil {
				return
			}
			call.Reply(http.StatusOK, m)
		}),
	}

	srv := httptest.NewServer(Handler(mux, nil))
	defer srv.Close()
	u, err := url.Parse(srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	client := NewClient(nil, u, nil)
	ctx := context.Background()

	call := client.Call("GET", "tiles/A")
	code, err := call.Do(ctx, nil)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := code, http.StatusOK; got != want {
		t.Fatalf("got %v, want %v", got, want)
	}
	var name string
	if err := call.Unmarshal(&name); err != nil {
		t.Fatal(err)
	}
	if got, want := name, "A"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
	call.Close()

	call = client.Call("GET", "tile/A")
	code, err = call.Do(ctx, nil)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := code, http.StatusNotFound; got != want {
		t.Fatalf("got %v, want %v", got, want)
	}
	if err := call.Error(); !errors.Is(errors.NotExist, err) {
		t.Errorf("expected not exist, got %v", err)
	}
	call.Close()

	call = client.Call("GET", "echo")
	code, err = call.Do(ctx, nil)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := code, http.StatusMethodNotAllowed; got != want {
		t.Fatalf("got %v, want %v", got, want)
	}
	call.Close()

	call = client.Call("POST", "echo")
	code, err = call.DoJSON(ctx, []int{1, 2, 3})
	if err != nil {
		t.Fatal(err)
	}
	if got, want := code, http.StatusOK; got != want {
		t.Fatalf("got %v, want %v", got, want)
	}
	var m []int
	if err := call.Unmarshal(&m); err != nil {
		t.Fatal(err)
	}
	if got, want := len(m), 3; got != want {
		t.Fatalf("got %v, want %v", got, want)
	}
	call.Close()
}

func TestNetError(t *testing.T) {
	srv := httptest.NewServer(Handler(Mux{}, nil))
	u, err := url.Parse(srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	srv.Close()
	call := NewClient(nil, u, nil).Call("GET", "tiles")
	defer call.Close()
	if _, err := call.Do(context.Background(), nil); !errors.Is(errors.Net, err) {
		t.Errorf("expected network error, got %v", err)
	}
}
