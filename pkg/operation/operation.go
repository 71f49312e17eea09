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

package operation

import (
	"context"

	"github.com/walteh/huftar/pkg/compress"
	"github.com/walteh/huftar/pkg/config"
	"github.com/walteh/huftar/pkg/status"
	"gitlab.com/tozd/go/errors"
)

// 🎯 Operation is one runnable step of a huftar invocation
type Operation interface {
	// Name identifies the operation in logs and errors
	Name() string
	// Execute runs the operation to completion
	Execute(ctx context.Context) error
}

// 🔧 Options contains the collaborators shared by all operations
type Options struct {
	// Config is the validated huftar configuration
	Config *config.Config
	// Compressor produces artifacts; only archiving needs it
	Compressor compress.Compressor
	// Reporter receives progress events, defaults to status.Nop
	Reporter status.Reporter
}

// BaseOperation carries the options embedded by every operation
type BaseOperation struct {
	Options
}

// NewBaseOperation validates opts and fills in defaults
func NewBaseOperation(opts Options) (BaseOperation, error) {
	if opts.Config == nil {
		return BaseOperation{}, errors.Errorf("config is required")
	}
	if opts.Reporter == nil {
		opts.Reporter = status.Nop{}
	}
	return BaseOperation{Options: opts}, nil
}
