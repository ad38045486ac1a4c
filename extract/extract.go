/*
 * extract.go, part of gomsd.
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

//Package extract runs the external program that turns a native trajectory
//segment into the plain-text coordinates gomsd reads.
package extract

import (
	"bytes"
	"context"
	"errors"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	msd "github.com/rmera/gomsd"
	"github.com/rmera/gomsd/config"
	"golang.org/x/time/rate"
)

//Runner launches the extraction tool, at most at a given rate, and kills it if it takes too long.
type Runner struct {
	argv    []string
	common  string
	timeout time.Duration
	limiter *rate.Limiter
	force   bool
	logger  *log.Logger
}

//New returns a Runner for the command argv. Arguments can contain the path placeholders
//(* and {i} expressions) and {out}, which is replaced by the file the tool must write.
//At most perSecond launches per second are allowed, with bursts of up to burst launches.
func New(argv []string, common string, timeout time.Duration, perSecond float64, burst int) (*Runner, error) {
	if len(argv) == 0 {
		return nil, msd.Errorf(msd.KindConfig, "extract.New", "empty command")
	}
	if timeout <= 0 {
		return nil, msd.Errorf(msd.KindConfig, "extract.New", "timeout must be positive")
	}
	if burst < 1 {
		burst = 1
	}
	return &Runner{
		argv:    append([]string(nil), argv...),
		common:  common,
		timeout: timeout,
		limiter: rate.NewLimiter(rate.Limit(perSecond), burst),
		logger:  log.Default(),
	}, nil
}

//FromConfig returns the Runner described by c, or nil if c has no extraction command.
func FromConfig(c *config.Config) (*Runner, error) {
	if len(c.Extract.Command) == 0 {
		return nil, nil
	}
	R, err := New(c.Extract.Command, c.CommonTerm, c.Timeout(), c.Extract.Rate, c.MaxWorkers)
	if err != nil {
		return nil, msd.ErrDecorate(err, "FromConfig")
	}
	R.force = c.Extract.Force
	return R, nil
}

//SetLogger sets the logger used to report skipped and failed calls.
func (R *Runner) SetLogger(l *log.Logger) {
	R.logger = l
}

//Force sets whether the tool is run even when the output already exists.
func (R *Runner) Force(f bool) {
	R.force = f
}

//Args returns the command line for segment i, writing to out.
func (R *Runner) Args(i int, out string) []string {
	ret := make([]string, len(R.argv))
	for k, a := range R.argv {
		a = strings.ReplaceAll(a, "{out}", out)
		ret[k] = config.Expand(a, R.common, i)
	}
	return ret
}

//tail returns the last n bytes of b, as a string.
func tail(b []byte, n int) string {
	if len(b) > n {
		b = b[len(b)-n:]
	}
	return strings.TrimSpace(string(b))
}

//Run produces the file out for segment i. If out exists and the Runner is not forced, nothing is done.
//The tool writes to a temporary file that is renamed to out only if it succeeds, so a killed
//run never leaves a partial output behind.
//A timeout gives an error matching msd.ErrTransient; a failure of the tool, or a missing output, gives
//an error matching msd.ErrInput. Cancelling ctx stops the wait for a launch slot, but not a tool
//that is already running, which is only stopped by the timeout.
func (R *Runner) Run(ctx context.Context, i int, out string) error {
	if !R.force {
		if _, err := os.Stat(out); err == nil {
			R.logger.Printf("extract: %s exists, skipping segment %d", out, i)
			return nil
		}
	}
	if err := R.limiter.Wait(ctx); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return msd.NewError(msd.KindInput, "extract.Run", err, "segment %d", i)
	}
	part := out + ".part"
	args := R.Args(i, part)
	tctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), R.timeout)
	defer cancel()
	cmd := exec.CommandContext(tctx, args[0], args[1:]...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	cmd.Stdout = &stderr
	err := cmd.Run()
	if errors.Is(tctx.Err(), context.DeadlineExceeded) {
		os.Remove(part)
		return msd.NewError(msd.KindTransient, "extract.Run", tctx.Err(), "segment %d: %s killed after %v", i, args[0], R.timeout)
	}
	if err != nil {
		os.Remove(part)
		return msd.NewError(msd.KindInput, "extract.Run", err, "segment %d: %s failed (%s)", i, args[0], tail(stderr.Bytes(), 512))
	}
	if _, err := os.Stat(part); err != nil {
		return msd.NewError(msd.KindInput, "extract.Run", err, "segment %d: %s produced no output", i, args[0])
	}
	if err := os.Rename(part, out); err != nil {
		return msd.NewError(msd.KindInput, "extract.Run", err, "segment %d", i)
	}
	return nil
}
