// Copyright 2026 The Gantry Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides configuration loading for the gantry
// coordinator.
//
// Configuration is loaded from a single YAML file specified by the
// GANTRY_CONFIG environment variable or a --config flag. There are no
// fallbacks or automatic discovery; every setting has a working
// default, so running without a config file is also fine.
package config
