// Copyright 2017 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// Package phylanx ties together the PhySL compiler and its execution
// engine.
//
// PhySL programs are compiled into execution trees: trees of
// primitive instances whose operands are either constant values or
// other primitives. The compiler (package compiler) resolves every
// expression of a program against a catalogue of primitive
// signatures (package primitive), instantiating the first primitive
// whose signature matches. Evaluating the root of the tree evaluates
// the program; independent operands are evaluated concurrently.
//
// A program may run on several localities at once. Distributed arrays
// are split into tiles, one per locality (package tiling); a locality
// publishes its tiles and fetches those of its peers on demand
// (package locality).
//
// This package provides the default catalogue, which includes every
// primitive of the standard plugins, and the version of the system.
package phylanx
