// Copyright 2026 The Gantry Authors
// SPDX-License-Identifier: Apache-2.0

package coordinator

import (
	"encoding/hex"

	"github.com/zeebo/blake3"

	"github.com/gantry-dev/gantry/wire"
)

// deviceDomainKey is the BLAKE3 keyed-hash domain for device IDs. The
// byte values are the ASCII encoding of the domain name, zero-padded
// to 32 bytes, so the key is inspectable in hex dumps. Changing it
// invalidates every previously issued device ID.
var deviceDomainKey = [32]byte{
	'g', 'a', 'n', 't', 'r', 'y', '.', 'd', 'e', 'v', 'i', 'c', 'e', '.', 'i', 'd',
	0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
}

// DeviceID derives the stable device ID for a handshake. The ID is a
// function of platform, app name, and app version only, so the same
// application build gets the same ID across reconnects and across
// coordinator restarts. Controllers can therefore keep addressing a
// device through app relaunches.
func DeviceID(handshake wire.Handshake) string {
	hasher, err := blake3.NewKeyed(deviceDomainKey[:])
	if err != nil {
		panic("coordinator: BLAKE3 keyed hash initialization failed: " + err.Error())
	}
	// NUL separators keep field boundaries unambiguous.
	hasher.Write([]byte(handshake.Platform))
	hasher.Write([]byte{0})
	hasher.Write([]byte(handshake.AppName))
	hasher.Write([]byte{0})
	hasher.Write([]byte(handshake.AppVersion))
	digest := hasher.Sum(nil)
	return hex.EncodeToString(digest[:8])
}
