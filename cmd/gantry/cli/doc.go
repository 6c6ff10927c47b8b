// Copyright 2026 The Gantry Authors
// SPDX-License-Identifier: Apache-2.0

// Package cli provides the command tree for the gantry CLI: nested
// subcommand dispatch, pflag parsing, help output, and typo
// suggestions for unknown commands and flags.
package cli
