// Copyright 2020 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package phylanx

import (
	"fmt"
	"strings"

	"golang.org/x/mod/semver"
)

// Version is the version of this build. Localities of a distributed
// run exchange versions and refuse peers that are incompatible.
const Version = "physl0.3.0"

// CompareResult is the result of comparing two versions.
type CompareResult int

const (
	// Lesser means the first version is older.
	Lesser CompareResult = -1
	// Equal means the versions are the same.
	Equal CompareResult = 0
	// Greater means the first version is newer.
	Greater CompareResult = 1
)

// IsSemVer returns whether the given string is a version in the
// semantic versioning format described in https://semver.org/,
// optionally prefixed with "physl", and with the leading "v"
// optional.
func IsSemVer(v string) bool {
	return semver.IsValid(toSemver(v))
}

// CompareVersions compares two versions. It panics if either is not
// a valid version (so callers should check IsSemVer first).
func CompareVersions(v1, v2 string) CompareResult {
	for _, v := range []string{v1, v2} {
		if !IsSemVer(v) {
			panic(fmt.Errorf("not a valid version: %s", v))
		}
	}
	return CompareResult(semver.Compare(toSemver(v1), toSemver(v2)))
}

// Compatible tells whether localities running versions v1 and v2 may
// take part in the same run: both must be valid and share a major
// version (and, before 1.0, a minor version).
func Compatible(v1, v2 string) bool {
	if !IsSemVer(v1) || !IsSemVer(v2) {
		return false
	}
	s1, s2 := toSemver(v1), toSemver(v2)
	if semver.Major(s1) != semver.Major(s2) {
		return false
	}
	if semver.Major(s1) == "v0" {
		return semver.MajorMinor(s1) == semver.MajorMinor(s2)
	}
	return true
}

func toSemver(v string) string {
	v = strings.TrimPrefix(v, "physl")
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	return v
}
