// Package serialization saves and loads networks in the native .born format
// and exports their parameters as SafeTensors.
//
// The .born format is a small binary container:
//
//	Format Structure:
//	  [64 bytes: fixed header]
//	    0x00  Magic "BORN"
//	    0x04  Version (uint32 LE)
//	    0x08  Flags (uint32 LE)
//	    0x10  Header size (uint64 LE)
//	    0x18  Data size (uint64 LE)
//	    0x20  SHA-256 of the tensor data (32 bytes)
//	  [Header: JSON metadata, layer activations and tensor table]
//	  [Tensor data: float64 LE, 64-byte aligned]
//
// Each layer i contributes two tensors, "layer.<i>.weights" and
// "layer.<i>.bias".
//
// Example usage:
//
//	if err := serialization.Save("xor.born", net, map[string]string{"task": "xor"}); err != nil {
//	    log.Fatal(err)
//	}
//
//	net, header, err := serialization.Load("xor.born", serialization.ReaderOptions{})
//	if err != nil {
//	    log.Fatal(err)
//	}
package serialization
