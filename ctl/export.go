// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
package ctl

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/molecula/triplemap"
	"github.com/molecula/triplemap/errors"
	"github.com/molecula/triplemap/logger"
	"github.com/molecula/triplemap/rdf"
	"github.com/molecula/triplemap/storage"
	"github.com/molecula/triplemap/tabular"
	"github.com/molecula/triplemap/toml"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"
)

// ExportCommand reads a knowledge graph and writes the entity mapping, the
// relation mapping and the identifier triples.
type ExportCommand struct {
	// Input graph and the three output files.
	InputPath    string `toml:"-"`
	EntityPath   string `toml:"-"`
	RelationPath string `toml:"-"`
	TriplePath   string `toml:"-"`

	// Format of the input; inferred from the input extension when empty.
	Format string `toml:"format"`

	// Delimiter between output fields.
	Delimiter string `toml:"delimiter"`

	// CRLF ends output records with \r\n.
	CRLF bool `toml:"crlf"`

	// ProgressInterval is the minimum time between progress log lines.
	ProgressInterval toml.Duration `toml:"progress-interval"`

	// MetricsTextfile, if set, receives the run's metrics in the
	// Prometheus text format once the export is done.
	MetricsTextfile string `toml:"metrics-textfile"`

	Log     LogConfig      `toml:"log"`
	Storage storage.Config `toml:"storage"`

	// Summary is set after a successful Run.
	Summary *triplemap.Summary `toml:"-"`

	// Standard input/output
	*triplemap.CmdIO `toml:"-"`
}

// NewExportCommand returns a new instance of ExportCommand.
func NewExportCommand(stdin io.Reader, stdout, stderr io.Writer) *ExportCommand {
	return &ExportCommand{
		Delimiter:        "tab",
		ProgressInterval: toml.Duration(10 * time.Second),
		Storage:          *storage.NewDefaultConfig(),
		CmdIO:            triplemap.NewCmdIO(stdin, stdout, stderr),
	}
}

// Run executes the export.
func (cmd *ExportCommand) Run(ctx context.Context) error {
	log, logCloser, err := cmd.Log.open(cmd.Stderr)
	if err != nil {
		return err
	}
	defer logCloser.Close()
	cmd.SetLogger(log)

	// Validate arguments.
	if cmd.InputPath == "" || cmd.EntityPath == "" || cmd.RelationPath == "" || cmd.TriplePath == "" {
		return fmt.Errorf("%w: input, entity, relation and triple paths are all required", UsageError)
	}
	delim, err := tabular.ParseDelimiter(cmd.Delimiter)
	if err != nil {
		return fmt.Errorf("%w: %v", UsageError, err)
	}
	format, err := cmd.format()
	if err != nil {
		return fmt.Errorf("%w: %v", UsageError, err)
	}
	openTable, err := cmd.Storage.OpenTableFunc()
	if err != nil {
		return fmt.Errorf("%w: %v", UsageError, err)
	}

	log.Infof("exporting %s (%s) to %s, %s, %s", cmd.InputPath, format, cmd.EntityPath, cmd.RelationPath, cmd.TriplePath)
	p := &triplemap.Pipeline{
		OpenTable:        openTable,
		ProgressInterval: time.Duration(cmd.ProgressInterval),
		Logger:           log,
	}
	sum, err := cmd.export(ctx, p, format, delim, log)
	if err != nil {
		log.Errorf("export failed, outputs may be incomplete: %v", err)
		return err
	}
	cmd.Summary = sum
	log.Infof("exported %s", sum)

	if cmd.MetricsTextfile != "" {
		if err := prometheus.WriteToTextfile(cmd.MetricsTextfile, prometheus.DefaultGatherer); err != nil {
			return errors.Wrap(err, "writing metrics textfile")
		}
	}
	return nil
}

func (cmd *ExportCommand) format() (rdf.Format, error) {
	if cmd.Format != "" {
		return rdf.ParseFormat(cmd.Format)
	}
	return rdf.FormatFor(storage.TrimCompression(cmd.InputPath))
}

// export runs the pipeline between the opened source and sinks. The source
// and every opened sink are closed on all paths; close failures are errors
// of the run.
func (cmd *ExportCommand) export(ctx context.Context, p *triplemap.Pipeline, format rdf.Format, delim rune, log logger.Logger) (sum *triplemap.Summary, err error) {
	store := storage.NewStore(cmd.Storage, log)

	rc, err := store.Open(ctx, cmd.InputPath)
	if err != nil {
		return nil, errors.Mark(err, errors.ErrSourceRead, "opening "+cmd.InputPath)
	}
	src, err := rdf.NewSource(rc, format)
	if err != nil {
		rc.Close()
		return nil, err
	}
	defer func() {
		if cerr := src.Close(); cerr != nil {
			err = multierr.Append(err, errors.Mark(cerr, errors.ErrSourceRead, "closing "+cmd.InputPath))
		}
	}()

	type namedSink struct {
		path string
		w    *tabular.Writer
	}
	var sinks []namedSink
	defer func() {
		for _, s := range sinks {
			if cerr := s.w.Close(); cerr != nil {
				err = multierr.Append(err, errors.Mark(cerr, errors.ErrSinkWrite, "closing "+s.path))
			}
		}
		if err != nil {
			sum = nil
		}
	}()
	for _, path := range []string{cmd.EntityPath, cmd.RelationPath, cmd.TriplePath} {
		wc, err := store.Create(ctx, path)
		if err != nil {
			return nil, errors.Mark(err, errors.ErrSinkWrite, "creating "+path)
		}
		w := tabular.NewWriter(wc, delim)
		w.UseCRLF(cmd.CRLF)
		sinks = append(sinks, namedSink{path: path, w: w})
	}

	return p.Process(ctx, src, sinks[0].w, sinks[1].w, sinks[2].w)
}
