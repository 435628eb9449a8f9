// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"github.com/born-ml/mlp/internal/serialization"
)

// Header is the decoded JSON header of a .born file.
type Header = serialization.Header

// LoadOptions configures how a .born file is read.
type LoadOptions = serialization.ReaderOptions

// Errors returned when reading .born files.
var (
	ErrChecksumMismatch   = serialization.ErrChecksumMismatch
	ErrInvalidMagic       = serialization.ErrInvalidMagic
	ErrUnsupportedVersion = serialization.ErrUnsupportedVersion
	ErrMissingTensor      = serialization.ErrMissingTensor
)

// Save writes a network to a .born file.
//
// The file records each layer's weights, bias and activation, plus the
// optional metadata. Intermediate cache contents are not saved.
//
// Example:
//
//	err := nn.Save(net, "model.born", map[string]string{"dataset": "mnist"})
func Save(net *Network, path string, metadata map[string]string) error {
	return serialization.Save(path, net, metadata)
}

// Load reads a network from a .born file written by Save.
//
// The checksum and header are validated unless opts says otherwise. opts
// configure the returned network.
//
// Example:
//
//	net, header, err := nn.Load("model.born", nn.LoadOptions{}, nn.WithLogger(logger))
func Load(path string, opts LoadOptions, netOpts ...Option) (*Network, Header, error) {
	return serialization.Load(path, opts, netOpts...)
}

// ExportSafeTensors writes the network's parameters to a SafeTensors file
// for use with other tooling. Activations are stored in the file metadata.
func ExportSafeTensors(net *Network, path string, metadata map[string]string) error {
	return serialization.SaveSafeTensors(path, net, metadata)
}
