// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0

/*
Package cmd contains the triplemap command definitions (1 per file).

The root command runs the export itself; check and generate-config are
subcommands. Each command file has a new*Command function which returns a
cobra.Command wrapping the matching ctl command, and a package level
instance of that ctl command so that it can be tested.

Every flag may also be set with a TRIPLEMAP_ prefixed environment variable
or a key in the TOML file given with --config; see setAllConfig.
*/
package cmd
