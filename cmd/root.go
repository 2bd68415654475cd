// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/molecula/triplemap"
	"github.com/molecula/triplemap/ctl"
	"github.com/molecula/triplemap/errors"
	"github.com/molecula/triplemap/storage"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// envPrefix prefixes the environment variable for each flag.
const envPrefix = "TRIPLEMAP"

// Exporter is the command run by the root command. It is exported so
// tests can inspect the result of a run.
var Exporter *ctl.ExportCommand

func NewRootCommand(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	Exporter = ctl.NewExportCommand(stdin, stdout, stderr)
	rc := &cobra.Command{
		Use:   "triplemap [flags] INPUT ENTITIES RELATIONS TRIPLES",
		Short: "Map a knowledge graph onto dense integer identifiers.",
		Long: `Reads the statements of a knowledge graph from INPUT and writes three
delimited files:

	ENTITIES   key, id  for every subject and object, in first-seen order
	RELATIONS  key, id  for every predicate, in first-seen order
	TRIPLES    subject id, predicate id, object id  for every statement

Identifiers start at 0 and are dense. The input format is taken from the
file extension (.rdf, .owl, .ttl, .nt, .nq, .jsonld, .tsv, .csv) unless
--format is given, and .gz, .zst or .lz4 inputs and outputs are
(de)compressed transparently. Paths may be local files, s3://bucket/key
URLs, or (for INPUT only) http(s) URLs.

` + triplemap.VersionInfo() + "\n",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 4 {
				return fmt.Errorf("%w: expected 4 arguments (INPUT ENTITIES RELATIONS TRIPLES), got %d", ctl.UsageError, len(args))
			}
			Exporter.InputPath, Exporter.EntityPath, Exporter.RelationPath, Exporter.TriplePath = args[0], args[1], args[2], args[3]
			return nil
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			v := viper.New()
			return setAllConfig(v, cmd.Flags())
		},
		RunE:          UsageErrorWrapper(Exporter),
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       triplemap.Version,
	}
	rc.PersistentFlags().StringP("config", "c", "", "Configuration file to read from.")

	exportFlags(rc, Exporter)

	rc.AddCommand(newBoltCommand(stdin, stdout, stderr))
	rc.AddCommand(newCheckCommand(stdin, stdout, stderr))
	rc.AddCommand(newConfigCommand(stdin, stdout, stderr))
	rc.AddCommand(newGenerateConfigCommand(stdin, stdout, stderr))

	rc.SetOutput(stderr)
	return rc
}

// exportFlags binds the export configuration to the flags of c.
func exportFlags(c *cobra.Command, e *ctl.ExportCommand) {
	flags := c.Flags()
	flags.StringVar(&e.Format, "format", "", "Input format: rdfxml, turtle, ntriples, nquads, jsonld, tsv or csv (default: by extension)")
	flags.StringVar(&e.Delimiter, "delimiter", e.Delimiter, "Output field delimiter: tab, comma, semicolon, pipe, space or a single character")
	flags.BoolVar(&e.CRLF, "crlf", false, "End output records with \\r\\n")
	flags.Var(&e.ProgressInterval, "progress-interval", "Minimum time between progress log lines (0 disables them)")
	flags.StringVar(&e.MetricsTextfile, "metrics-textfile", "", "Write run metrics in the Prometheus text format to this file")
	storageFlags(flags, &e.Storage)
	logFlags(flags, &e.Log)
}

func storageFlags(flags *pflag.FlagSet, c *storage.Config) {
	flags.StringVar(&c.Backend, "storage.backend", c.Backend, "Identifier table backend: memory or bolt")
	flags.StringVar(&c.Dir, "storage.dir", c.Dir, "Directory for bolt table files (default: under the system temp dir)")
	flags.BoolVar(&c.KeepTables, "storage.keep-tables", c.KeepTables, "Keep the bolt tables in storage.dir as entities.db and relations.db")
	flags.StringVar(&c.S3Region, "storage.s3-region", c.S3Region, "AWS region for s3:// paths")
	flags.StringVar(&c.S3Endpoint, "storage.s3-endpoint", c.S3Endpoint, "Endpoint of an S3 compatible service for s3:// paths")
}

func logFlags(flags *pflag.FlagSet, c *ctl.LogConfig) {
	flags.BoolVarP(&c.Verbose, "log.verbose", "v", false, "Enable debug logging")
	flags.StringVar(&c.LogPath, "log.path", "", "Log to this file instead of stderr")
}

type runner interface {
	Run(context.Context) error
}

// UsageErrorWrapper returns a RunE which runs c, printing the command's
// usage if c fails with a usage error.
func UsageErrorWrapper(c runner) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		return considerUsageError(cmd, c.Run(cmd.Context()))
	}
}

func considerUsageError(cmd *cobra.Command, err error) error {
	if err != nil && errors.Is(err, errors.ErrUsage) {
		cmd.PrintErrln(err)
		cmd.PrintErrln()
		_ = cmd.Usage()
	}
	return err
}

// setAllConfig takes a FlagSet to be the definition of all configuration
// options, as well as their defaults. It then reads from the command line, the
// environment, and a config file (if specified), and applies the configuration
// in that priority order. Since each flag in the set contains a pointer to
// where its value should be stored, setAllConfig can directly modify the value
// of each config variable.
//
// setAllConfig looks for environment variables which are capitalized versions
// of the flag names with dashes and dots replaced by underscores, and prefixed
// with envPrefix plus an underscore.
func setAllConfig(v *viper.Viper, flags *pflag.FlagSet) error {
	// add cmd line flag def to viper
	err := v.BindPFlags(flags)
	if err != nil {
		return err
	}

	// add env to viper
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	c := v.GetString("config")
	var flagErr error
	validTags := make(map[string]bool)
	flags.VisitAll(func(f *pflag.Flag) {
		validTags[f.Name] = true
	})

	// add config file to viper
	if c != "" {
		v.SetConfigFile(c)
		v.SetConfigType("toml")
		err := v.ReadInConfig()
		if err != nil {
			return fmt.Errorf("%w: reading configuration file '%s': %v", ctl.UsageError, c, err)
		}

		for _, key := range v.AllKeys() {
			if _, ok := validTags[key]; !ok {
				return fmt.Errorf("%w: invalid option in configuration file: %v", ctl.UsageError, key)
			}
		}
	}

	// set all values from viper
	flags.VisitAll(func(f *pflag.Flag) {
		if flagErr != nil {
			return
		}
		if f.Changed {
			// The flag was given on the command line, which takes priority.
			return
		}
		if err := f.Value.Set(v.GetString(f.Name)); err != nil {
			flagErr = fmt.Errorf("%w: invalid value for %s: %v", ctl.UsageError, f.Name, err)
		}
	})
	return flagErr
}
