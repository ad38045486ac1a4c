/*
 * run.go, part of gomsd.
 *
 * Copyright 2026 Raul Mera A. (raulpuntomeraatusachpuntocl)
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 */

package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	msd "github.com/rmera/gomsd"
	"github.com/rmera/gomsd/config"
	"github.com/rmera/gomsd/metrics"
	"github.com/rmera/gomsd/pipeline"
	"github.com/rmera/gomsd/report"
	"github.com/rmera/gomsd/store"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

//outPath makes name relative to the base directory of c, unless it is absolute.
func outPath(c *config.Config, name string) string {
	if name == "" || filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.BaseDir, name)
}

//progress returns a function that draws an in-place progress line on stderr, or nil if
//stderr is not a terminal.
func progress() func(done, total int) {
	if !term.IsTerminal(int(os.Stderr.Fd())) {
		return nil
	}
	return func(done, total int) {
		fmt.Fprintf(os.Stderr, "\r> Segment %d/%d", done, total)
		if done == total {
			fmt.Fprintln(os.Stderr)
		}
	}
}

func runCmd() *cobra.Command {
	var workers int
	cmd := &cobra.Command{
		Use:   "run <config>",
		Short: "Process all the segments described in a YAML or TOML configuration file",
		Long: `Process all the segments described in a YAML or TOML configuration file.
If the configuration names a checkpoint database, segments finished by a previous
run with the same parameters are reused, and only the missing or failed ones are processed.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(args[0])
			if err != nil {
				return err
			}
			if workers > 0 {
				cfg.MaxWorkers = workers
			}
			logger := log.New(os.Stderr, "", log.LstdFlags)
			opts := []pipeline.Option{pipeline.WithLogger(logger), pipeline.WithProgress(progress())}
			var db *store.DB
			if cfg.Checkpoint != "" {
				if db, err = store.Open(outPath(cfg, cfg.Checkpoint)); err != nil {
					return fmt.Errorf("checkpoint: %w", err)
				}
				defer db.Close()
				opts = append(opts, pipeline.WithStore(db))
				failed, err := db.Failed(cfg.Fingerprint())
				if err != nil {
					return fmt.Errorf("checkpoint: %w", err)
				}
				if len(failed) > 0 {
					logger.Printf("Segments %v failed in a previous run, they will be processed again", failed)
				}
			}
			var m *metrics.Metrics
			if cfg.Metrics != "" {
				m = metrics.New()
				opts = append(opts, pipeline.WithMetrics(m))
			}
			C, err := pipeline.New(cfg, opts...)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			rep, runErr := C.Run(ctx)
			if rep != nil {
				if err := writeOutputs(cfg, rep, logger); err != nil {
					return err
				}
			}
			if m != nil {
				if err := m.WriteTextfile(outPath(cfg, cfg.Metrics)); err != nil {
					logger.Printf("Can't write metrics: %v", err)
				}
			}
			if runErr != nil {
				if errors.Is(runErr, msd.ErrNoChunks) {
					for _, f := range rep.Failures {
						logger.Print(f.Error())
					}
				}
				return runErr
			}
			logger.Printf("Run %s: %d of %d segments (%d reused, %d skipped), %d frames, %d failures, in %v",
				rep.RunID, len(rep.Succeeded), rep.Segments, len(rep.Cached), len(rep.Skipped), rep.Frames, len(rep.Failures), rep.Elapsed())
			if len(rep.Guards) > 0 {
				logger.Printf("%d values set to 0 by numerical guards, see the quality report", len(rep.Guards))
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "override max_workers")
	return cmd
}

//writeOutputs writes the tables, plots and quality report requested in cfg.
func writeOutputs(cfg *config.Config, rep *pipeline.Report, logger *log.Logger) error {
	if cfg.Report != "" {
		if err := report.WriteQualityFile(outPath(cfg, cfg.Report), rep); err != nil {
			return err
		}
	}
	if rep.Table == nil {
		return nil
	}
	if cfg.Stats.Output != "" {
		if err := report.WriteTableFile(outPath(cfg, cfg.Stats.Output), rep.Table); err != nil {
			return err
		}
	}
	if cfg.Stats.PairOutput != "" {
		if err := report.WritePairTableFile(outPath(cfg, cfg.Stats.PairOutput), rep.Table); err != nil {
			return err
		}
	}
	if cfg.Stats.Plot != "" {
		if _, err := report.Plot(outPath(cfg, cfg.Stats.Plot), rep.Table); err != nil {
			//a failed plot does not fail the run.
			logger.Printf("Can't plot: %v", err)
		}
	}
	if cfg.Stats.Output == "" && cfg.Stats.PairOutput == "" {
		return report.WriteTable(os.Stdout, rep.Table)
	}
	return nil
}
