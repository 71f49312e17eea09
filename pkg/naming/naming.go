// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package naming assigns archive entry names to compressed artifacts.
package naming

import (
	"fmt"
	"path"

	"github.com/walteh/huftar/pkg/walk"
	"gitlab.com/tozd/go/errors"
)

// 🏷️ Strategy decides how artifact names are derived from source paths
type Strategy string

const (
	// Flat names artifacts by base name and rejects duplicates
	Flat Strategy = "flat"
	// Relative names artifacts by their path relative to the walk root
	Relative Strategy = "relative"
)

// ParseStrategy validates a strategy name
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case Flat, Relative:
		return Strategy(s), nil
	case "":
		return Flat, nil
	default:
		return "", errors.Errorf("unknown naming strategy %q (want %q or %q)", s, Flat, Relative)
	}
}

// ⚠️ CollisionError reports two source files that map to the same artifact name
type CollisionError struct {
	Name   string // Artifact name both files map to
	First  string // Relative path of the file that claimed the name first
	Second string // Relative path of the conflicting file
}

func (e *CollisionError) Error() string {
	return fmt.Sprintf("artifact name %q is produced by both %s and %s (use relative naming to keep both)", e.Name, e.First, e.Second)
}

// 📦 Artifact pairs a source file with its archive entry name
type Artifact struct {
	File walk.File
	Name string
}

// 🏷️ Namer hands out artifact names and remembers which file owns each
type Namer struct {
	strategy Strategy
	suffix   string
	owners   map[string]string
}

// 🏭 NewNamer creates a namer that appends suffix to every name
func NewNamer(strategy Strategy, suffix string) *Namer {
	return &Namer{
		strategy: strategy,
		suffix:   suffix,
		owners:   make(map[string]string),
	}
}

// Name returns the artifact for f, or a *CollisionError if its name is taken
func (n *Namer) Name(f walk.File) (Artifact, error) {
	var name string
	switch n.strategy {
	case Relative:
		name = f.RelPath + n.suffix
	default:
		name = path.Base(f.RelPath) + n.suffix
	}

	if owner, ok := n.owners[name]; ok {
		return Artifact{}, &CollisionError{Name: name, First: owner, Second: f.RelPath}
	}
	n.owners[name] = f.RelPath

	return Artifact{File: f, Name: name}, nil
}
