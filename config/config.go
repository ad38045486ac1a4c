/*
 * config.go, part of gomsd.
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

//Package config reads and checks the parameters of a gomsd run.
//Files can be written in YAML or TOML, the format is chosen by the extension.
package config

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	msd "github.com/rmera/gomsd"
	"github.com/rmera/gomsd/com"
	"github.com/rmera/gomsd/dispstat"
	"github.com/rmera/gomsd/traj/xyzt"
	"gopkg.in/yaml.v3"
)

//BoxConfig tells where the periodic box comes from.
type BoxConfig struct {
	//Kind is "constant", "xsc" (one box per segment, from a NAMD .xsc file)
	//or "xst" (one box per frame, from a NAMD .xst file)
	Kind string `yaml:"kind" toml:"kind" json:"kind"`

	//Lengths are the x, y, z box lengths for the constant kind
	Lengths []float64 `yaml:"lengths" toml:"lengths" json:"lengths"`

	//File is the path pattern of the xsc/xst files
	File string `yaml:"file" toml:"file" json:"file"`
}

//UnwrapConfig controls the removal of periodic jumps.
type UnwrapConfig struct {
	//Disabled means the input is already unwrapped
	Disabled bool `yaml:"disabled" toml:"disabled" json:"disabled"`

	//Carry continues the unwrapping from the end of the previous segment instead
	//of starting each segment from scratch. Segments are then processed as a chain.
	Carry bool `yaml:"carry" toml:"carry" json:"carry"`

	//Output is the path pattern for the unwrapped coordinates. Empty means they are not written.
	Output string `yaml:"output" toml:"output" json:"-"`

	//Threads is the number of goroutines used for each frame
	Threads int `yaml:"threads" toml:"threads" json:"-"`
}

//FramesConfig selects the frames of each segment that are used, like a slice
//start:stop:step of the frame indexes. All frames are still unwrapped, so jumps
//between selected frames are not missed.
type FramesConfig struct {
	//Start is the first frame used. Earlier ones (e.g. equilibration) are dropped.
	Start int `yaml:"start" toml:"start" json:"start"`

	//Stop is the first frame not used. 0 means the end of the segment.
	Stop int `yaml:"stop" toml:"stop" json:"stop"`

	//Step keeps one of every Step frames from Start on
	Step int `yaml:"step" toml:"step" json:"step"`
}

//Selected returns true if frame f of a segment is used.
func (F FramesConfig) Selected(f int) bool {
	if f < F.Start || F.Past(f) {
		return false
	}
	return F.Step <= 1 || (f-F.Start)%F.Step == 0
}

//Past returns true if no frame from f on is used.
func (F FramesConfig) Past(f int) bool {
	return F.Stop > 0 && f >= F.Stop
}

//COMConfig controls the center of mass output.
type COMConfig struct {
	//Output is the path pattern for the COM coordinates. Empty means they are not written.
	Output string `yaml:"output" toml:"output" json:"-"`
}

//StatsConfig controls the displacement statistics.
type StatsConfig struct {
	Disabled bool `yaml:"disabled" toml:"disabled" json:"disabled"`

	//MaxLag is the largest lag, in frames. 0 means as many as the segments allow.
	MaxLag int `yaml:"max_lag" toml:"max_lag" json:"max_lag"`

	//Origins is "sliding" (default) or "first"
	Origins string `yaml:"origins" toml:"origins" json:"origins"`

	//MinFrames is the least number of frames a segment needs to be included. Shorter ones are skipped.
	MinFrames int `yaml:"min_frames" toml:"min_frames" json:"min_frames"`

	//Dt is the time between frames, in whatever unit you want
	Dt float64 `yaml:"dt" toml:"dt" json:"dt"`

	//Output is the file for the MSD/alpha2 table
	Output string `yaml:"output" toml:"output" json:"-"`

	//PairOutput is the file for the cross-axis table
	PairOutput string `yaml:"pair_output" toml:"pair_output" json:"-"`

	//Plot is the prefix for PNG plots. Empty means no plots.
	Plot string `yaml:"plot" toml:"plot" json:"-"`
}

//DipoleConfig controls the dipole time series.
type DipoleConfig struct {
	Enabled bool `yaml:"enabled" toml:"enabled" json:"enabled"`

	//Output is the path pattern for the dipole series of each segment
	Output string `yaml:"output" toml:"output" json:"-"`

	//NoRecenter uses absolute positions instead of positions relative to the COM
	NoRecenter bool `yaml:"no_recenter" toml:"no_recenter" json:"no_recenter"`

	//Collective writes the sum of the molecular dipoles instead of each of them
	Collective bool `yaml:"collective" toml:"collective" json:"collective"`

	//Subset are the molecules included in the collective dipole. Empty means all.
	Subset []int `yaml:"subset" toml:"subset" json:"subset"`

	//Molecules limits the calculation to the first n molecules. 0 means all.
	Molecules int `yaml:"molecules" toml:"molecules" json:"molecules"`

	//Conversion divides Σqr (e·Å). The default gives Debye.
	Conversion float64 `yaml:"conversion" toml:"conversion" json:"conversion"`

	//FrameStride writes only every n-th frame
	FrameStride int `yaml:"frame_stride" toml:"frame_stride" json:"frame_stride"`
}

//ExtractConfig describes the external tool that produces the coordinate files.
type ExtractConfig struct {
	//Command is the program and its arguments. They can use the path placeholders, plus {out}
	//for the file the tool must produce. Empty means the coordinate files already exist.
	Command []string `yaml:"command" toml:"command" json:"-"`

	//Timeout for each call, as a Go duration ("90m", "3600s")
	Timeout string `yaml:"timeout" toml:"timeout" json:"-"`

	//Rate is the largest number of launches per second
	Rate float64 `yaml:"launches_per_second" toml:"launches_per_second" json:"-"`

	//Force runs the tool even if the output file exists
	Force bool `yaml:"force" toml:"force" json:"-"`
}

//Config contains all the parameters of a run. Use Default to obtain one
//and Validate after changing it by hand.
type Config struct {
	//BaseDir is prepended to all the relative paths
	BaseDir string `yaml:"base_dir" toml:"base_dir" json:"-"`

	//CommonTerm replaces the '*' in the path patterns
	CommonTerm string `yaml:"common_term" toml:"common_term" json:"common_term"`

	//Segments is the number of segments, with indexes FirstSegment ... FirstSegment+Segments-1
	Segments     int `yaml:"segments" toml:"segments" json:"segments"`
	FirstSegment int `yaml:"first_segment" toml:"first_segment" json:"first_segment"`

	//SegmentIndices, if not empty, are the only segments processed
	SegmentIndices []int `yaml:"segment_indices" toml:"segment_indices" json:"segment_indices"`

	//Input is the path pattern of the coordinate files
	Input string `yaml:"input" toml:"input" json:"input"`

	//Layout is "records" (index x y z lines) or "flat" (one frame per line)
	Layout string `yaml:"layout" toml:"layout" json:"layout"`

	//Atoms is the number of atoms in each frame
	Atoms int `yaml:"atoms" toml:"atoms" json:"atoms"`

	//AtomsPerMolecule is the number of atoms in each molecule
	AtomsPerMolecule int `yaml:"atoms_per_molecule" toml:"atoms_per_molecule" json:"atoms_per_molecule"`

	//Grouping is "contiguous", "strided" or "explicit"
	Grouping   string  `yaml:"grouping" toml:"grouping" json:"grouping"`
	GroupTable [][]int `yaml:"group_table" toml:"group_table" json:"group_table"`

	//Masses and Charges are given for the atoms of one molecule
	Masses  []float64 `yaml:"masses" toml:"masses" json:"masses"`
	Charges []float64 `yaml:"charges" toml:"charges" json:"charges"`

	Frames  FramesConfig  `yaml:"frames" toml:"frames" json:"frames"`
	Box     BoxConfig     `yaml:"box" toml:"box" json:"box"`
	Unwrap  UnwrapConfig  `yaml:"unwrap" toml:"unwrap" json:"unwrap"`
	COM     COMConfig     `yaml:"com" toml:"com" json:"com"`
	Stats   StatsConfig   `yaml:"stats" toml:"stats" json:"stats"`
	Dipole  DipoleConfig  `yaml:"dipole" toml:"dipole" json:"dipole"`
	Extract ExtractConfig `yaml:"extract" toml:"extract" json:"-"`

	//MaxWorkers is the largest number of segments processed at the same time
	MaxWorkers int `yaml:"max_workers" toml:"max_workers" json:"-"`

	//ChunkSize is the number of frames in flight between the reader and the processing of a segment
	ChunkSize int `yaml:"chunk_size" toml:"chunk_size" json:"-"`

	//Stride is the spacing, in frames, between time origins
	Stride int `yaml:"stride" toml:"stride" json:"stride"`

	UseMmap bool `yaml:"use_memory_mapped_io" toml:"use_memory_mapped_io" json:"-"`

	//ValidateInput enables the data-quality report (failed segments, numerical guards
	//and effective sample counts), written to Report
	ValidateInput bool `yaml:"validate" toml:"validate" json:"-"`

	//AxisPair is the cross-axis parameter reported in the main table: "xy", "xz" or "yz"
	AxisPair string `yaml:"axis_pair" toml:"axis_pair" json:"-"`

	//MemoryBudgetMB bounds the estimated memory used by all the workers together
	MemoryBudgetMB int `yaml:"memory_budget_mb" toml:"memory_budget_mb" json:"-"`

	//Checkpoint is a SQLite file where finished segments are stored, so a new run with the same
	//parameters only processes the missing ones. Empty means no checkpoints.
	Checkpoint string `yaml:"checkpoint" toml:"checkpoint" json:"-"`

	//Metrics is a file where run metrics are written in the Prometheus text format
	Metrics string `yaml:"metrics" toml:"metrics" json:"-"`

	//Report is the file for the JSON quality report
	Report string `yaml:"report" toml:"report" json:"-"`

	timeout time.Duration
}

//Default returns a Config with the default values. It is not valid until
//the input and the system are described.
func Default() *Config {
	return &Config{
		Layout:         "records",
		Frames:         FramesConfig{Step: 1},
		Grouping:       "contiguous",
		Box:            BoxConfig{Kind: "constant"},
		Stats:          StatsConfig{Origins: "sliding", Dt: 1},
		Dipole:         DipoleConfig{FrameStride: 1},
		Extract:        ExtractConfig{Timeout: "3600s", Rate: 2},
		MaxWorkers:     runtime.NumCPU(),
		ChunkSize:      64,
		Stride:         1,
		AxisPair:       "xz",
		MemoryBudgetMB: 2048,
		timeout:        time.Hour,
	}
}

//Load reads the configuration in the file path, over the defaults, and validates it.
//Files ending in .toml are read as TOML, anything else as YAML.
func Load(path string) (*Config, error) {
	c := Default()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.DecodeFile(path, c); err != nil {
			return nil, msd.NewError(msd.KindConfig, "Load", err, "parse config %s", path)
		}
	default:
		f, err := os.Open(path)
		if err != nil {
			return nil, msd.NewError(msd.KindConfig, "Load", err, "open config %s", path)
		}
		defer f.Close()
		dec := yaml.NewDecoder(f)
		dec.KnownFields(true)
		if err := dec.Decode(c); err != nil {
			return nil, msd.NewError(msd.KindConfig, "Load", err, "parse config %s", path)
		}
	}
	if c.BaseDir == "" {
		c.BaseDir = filepath.Dir(path)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

//Validate checks every parameter and returns all the problems found, joined in a single
//configuration error. It has to be called before the configuration is used.
func (c *Config) Validate() error {
	var errs []error
	bad := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}
	if c.Input == "" {
		bad("input: no input pattern given")
	}
	for name, p := range map[string]string{"input": c.Input, "box.file": c.Box.File, "unwrap.output": c.Unwrap.Output,
		"com.output": c.COM.Output, "dipole.output": c.Dipole.Output} {
		if err := ValidatePattern(p); err != nil {
			bad("%s: %v", name, err)
		}
	}
	for _, a := range c.Extract.Command {
		if err := ValidatePattern(strings.ReplaceAll(a, "{out}", "")); err != nil {
			bad("extract.command: %v", err)
		}
	}
	if len(c.Indices()) == 0 {
		bad("segments: no segments to process")
	}
	if c.Segments > 1 && len(c.SegmentIndices) == 0 && !HasIndex(c.Input) {
		bad("input: %d segments but the pattern %q has no {i}", c.Segments, c.Input)
	}
	if _, err := xyzt.ParseLayout(c.Layout); err != nil {
		bad("layout: %v", err)
	}
	scheme, err := com.ParseScheme(c.Grouping)
	if err != nil {
		bad("grouping: %v", err)
	}
	if f := c.Frames; f.Start < 0 || f.Step < 0 || f.Stop < 0 || (f.Stop > 0 && f.Stop <= f.Start) {
		bad("frames: invalid selection start %d, stop %d, step %d", f.Start, f.Stop, f.Step)
	}
	if c.Atoms <= 0 {
		bad("atoms: the number of atoms per frame must be positive")
	}
	k := c.AtomsPerMolecule
	if scheme == com.Explicit {
		if len(c.GroupTable) == 0 {
			bad("group_table: needed for explicit grouping")
		} else if k == 0 {
			k = len(c.GroupTable[0])
		} else if k != len(c.GroupTable[0]) {
			bad("group_table: rows of %d atoms, but atoms_per_molecule is %d", len(c.GroupTable[0]), k)
		}
	} else if k <= 0 {
		bad("atoms_per_molecule: must be positive")
	}
	if c.Atoms > 0 && k > 0 {
		if _, err := c.MakeGrouping(); err != nil {
			bad("grouping: %v", err)
		}
	}
	if len(c.Masses) != 0 && len(c.Masses) != k {
		bad("masses: %d given for molecules of %d atoms", len(c.Masses), k)
	}
	if c.Dipole.Enabled {
		if len(c.Charges) != k {
			bad("charges: %d given for molecules of %d atoms", len(c.Charges), k)
		}
		if c.Dipole.Output == "" {
			bad("dipole.output: needed when dipoles are enabled")
		}
		if c.Dipole.FrameStride < 1 {
			bad("dipole.frame_stride: must be at least 1")
		}
	}
	if !c.Unwrap.Disabled {
		switch strings.ToLower(c.Box.Kind) {
		case "constant", "":
			if len(c.Box.Lengths) != 3 {
				bad("box.lengths: 3 values needed, %d given", len(c.Box.Lengths))
			}
			for i, l := range c.Box.Lengths {
				if !(l > 0) {
					bad("box.lengths: length %d is not positive", i)
				}
			}
		case "xsc", "xst":
			if c.Box.File == "" {
				bad("box.file: needed for %s boxes", c.Box.Kind)
			}
		default:
			bad("box.kind: unknown kind %q", c.Box.Kind)
		}
	}
	if c.Unwrap.Carry && c.Unwrap.Disabled {
		bad("unwrap.carry: makes no sense with unwrapping disabled")
	}
	if c.Unwrap.Threads < 0 {
		bad("unwrap.threads: can't be negative")
	}
	if _, err := dispstat.ParseAxisPair(c.AxisPair); err != nil {
		bad("axis_pair: %v", err)
	}
	if _, err := dispstat.ParseOriginMode(c.Stats.Origins); err != nil {
		bad("stats.origins: %v", err)
	}
	if c.Stats.MaxLag < 0 {
		bad("stats.max_lag: can't be negative")
	}
	if c.Stats.MinFrames < 0 {
		bad("stats.min_frames: can't be negative")
	}
	if !(c.Stats.Dt > 0) {
		bad("stats.dt: must be positive")
	}
	if c.Stride < 1 {
		bad("stride: must be at least 1")
	}
	if c.MaxWorkers < 1 {
		bad("max_workers: must be at least 1")
	}
	if c.ChunkSize < 1 {
		bad("chunk_size: must be at least 1")
	}
	if c.MemoryBudgetMB < 0 {
		bad("memory_budget_mb: can't be negative")
	}
	if len(c.Extract.Command) > 0 {
		t, err := time.ParseDuration(c.Extract.Timeout)
		if err != nil || t <= 0 {
			bad("extract.timeout: invalid duration %q", c.Extract.Timeout)
		}
		c.timeout = t
		if !(c.Extract.Rate > 0) {
			bad("extract.launches_per_second: must be positive")
		}
	}
	if c.ValidateInput && c.Report == "" {
		c.Report = "quality.json"
	}
	if len(errs) > 0 {
		return msd.NewError(msd.KindConfig, "Validate", errors.Join(errs...), "invalid configuration")
	}
	return nil
}

//Indices returns the indexes of the segments to process, in order.
func (c *Config) Indices() []int {
	if len(c.SegmentIndices) > 0 {
		return append([]int(nil), c.SegmentIndices...)
	}
	ret := make([]int, 0, c.Segments)
	for i := 0; i < c.Segments; i++ {
		ret = append(ret, c.FirstSegment+i)
	}
	return ret
}

//Path expands pattern for segment i and makes it relative to BaseDir, unless it is absolute.
//An empty pattern gives an empty string.
func (c *Config) Path(pattern string, i int) string {
	if pattern == "" {
		return ""
	}
	p := Expand(pattern, c.CommonTerm, i)
	if filepath.IsAbs(p) || c.BaseDir == "" {
		return p
	}
	return filepath.Join(c.BaseDir, p)
}

//K returns the number of atoms per molecule.
func (c *Config) K() int {
	if c.AtomsPerMolecule == 0 && len(c.GroupTable) > 0 {
		return len(c.GroupTable[0])
	}
	return c.AtomsPerMolecule
}

//MakeGrouping returns the molecule grouping described by the configuration.
func (c *Config) MakeGrouping() (*com.Grouping, error) {
	scheme, err := com.ParseScheme(c.Grouping)
	if err != nil {
		return nil, msd.NewError(msd.KindConfig, "MakeGrouping", err, "grouping")
	}
	if scheme == com.Explicit {
		return com.NewExplicit(c.Atoms, c.GroupTable)
	}
	return com.NewGrouping(scheme, c.Atoms, c.AtomsPerMolecule)
}

//MassTable returns the masses of the atoms of a molecule, or unit masses if none were given.
func (c *Config) MassTable() []float64 {
	if len(c.Masses) == 0 {
		return com.Ones(c.K())
	}
	return c.Masses
}

//Timeout returns the timeout for each call to the extraction tool.
func (c *Config) Timeout() time.Duration {
	return c.timeout
}

//Fingerprint returns a hash of the parameters that affect the results. Two configurations
//with the same fingerprint give the same partial results for the same segment, regardless of
//the number of workers, output paths or similar.
func (c *Config) Fingerprint() string {
	b, err := json.Marshal(c)
	if err != nil {
		//can't really happen with the types in Config
		panic("goMSD/config: can't encode configuration: " + err.Error())
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
