// Copyright 2017 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package values

import (
	"fmt"
	"sort"
	"strings"

	"github.com/grailbio/base/digest"
)

type dictEntry struct {
	Key   T
	Value T
	Next  *dictEntry
}

// Dict is the type of dictionary values. Keys must be scalars
// (booleans, numbers, or strings). It uses a Go map as a hash table
// based on the key's digest, which in turn stores a list of entries
// that share the same hash bucket, ordered by key.
type Dict struct {
	n   int
	tab map[digest.Digest]**dictEntry
}

// Lookup looks up the provided key in dictionary d.
func (d *Dict) Lookup(key T) (T, bool) {
	entryp, ok := d.tab[Digest(key)]
	if !ok {
		return nil, false
	}
	entry := *entryp
	for entry != nil && Less(entry.Key, key) {
		entry = entry.Next
	}
	if entry == nil || !Equal(entry.Key, key) {
		return nil, false
	}
	return entry.Value, true
}

// Insert inserts the provided key-value pair into the dictionary,
// overriding any previous definition of the key.
func (d *Dict) Insert(key, value T) {
	h := Digest(key)
	if d.tab[h] == nil {
		entry := &dictEntry{Key: key, Value: value}
		if d.tab == nil {
			d.tab = make(map[digest.Digest]**dictEntry)
		}
		d.n++
		d.tab[h] = &entry
		return
	}
	entryp := d.tab[h]
	for *entryp != nil && Less((*entryp).Key, key) {
		entryp = &(*entryp).Next
	}
	if *entryp == nil || !Equal((*entryp).Key, key) {
		*entryp = &dictEntry{Key: key, Value: value, Next: *entryp}
		d.n++
	} else {
		(*entryp).Value = value
	}
}

// Len returns the total number of entries in the dictionary.
func (d *Dict) Len() int {
	if d == nil {
		return 0
	}
	return d.n
}

// Each enumerates all key-value pairs in dictionary d in
// deterministic order.
func (d *Dict) Each(fn func(k, v T)) {
	if d == nil {
		return
	}
	digests := make([]digest.Digest, 0, len(d.tab))
	for h := range d.tab {
		digests = append(digests, h)
	}
	sort.Slice(digests, func(i, j int) bool { return digests[i].Less(digests[j]) })
	for _, h := range digests {
		for entry := *d.tab[h]; entry != nil; entry = entry.Next {
			fn(entry.Key, entry.Value)
		}
	}
}

// Equal tells whether dictionaries d and e hold the same entries.
func (d *Dict) Equal(e *Dict) bool {
	if d.Len() != e.Len() {
		return false
	}
	equal := true
	d.Each(func(k, v T) {
		if !equal {
			return
		}
		w, ok := e.Lookup(k)
		equal = ok && Equal(v, w)
	})
	return equal
}

// String renders the dictionary.
func (d *Dict) String() string {
	var elems []string
	d.Each(func(k, v T) {
		elems = append(elems, fmt.Sprintf("%s: %s", Sprint(k), Sprint(v)))
	})
	return fmt.Sprintf("dict(%s)", strings.Join(elems, ", "))
}

// MakeDict is a convenient way to construct a dictionary from a set
// of key-value pairs.
func MakeDict(kvs ...T) *Dict {
	if len(kvs)%2 != 0 {
		panic("uneven makedict")
	}
	d := new(Dict)
	for i := 0; i < len(kvs); i += 2 {
		d.Insert(kvs[i], kvs[i+1])
	}
	return d
}
