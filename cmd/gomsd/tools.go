/*
 * tools.go, part of gomsd.
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
	"fmt"
	"os"

	msd "github.com/rmera/gomsd"
	"github.com/rmera/gomsd/com"
	"github.com/rmera/gomsd/dipole"
	"github.com/rmera/gomsd/dispstat"
	"github.com/rmera/gomsd/pbc"
	"github.com/rmera/gomsd/report"
	"github.com/rmera/gomsd/traj/xyzt"
	v3 "github.com/rmera/gomsd/v3"
	"github.com/spf13/cobra"
)

//The commands in this file work on single segment files, without a configuration.

//segmentFlags are the flags shared by all the single-segment commands.
type segmentFlags struct {
	layout string
	atoms  int
	mmap   bool
}

func (s *segmentFlags) add(cmd *cobra.Command) {
	cmd.Flags().StringVar(&s.layout, "layout", "records", "segment layout: records or flat")
	cmd.Flags().IntVar(&s.atoms, "atoms", 0, "atoms per frame (0 reads it from the first frame)")
	cmd.Flags().BoolVar(&s.mmap, "mmap", false, "read the input through a memory map")
}

func (s *segmentFlags) options() (*xyzt.Options, error) {
	l, err := xyzt.ParseLayout(s.layout)
	if err != nil {
		return nil, err
	}
	o := xyzt.DefaultOptions()
	o.Layout(l)
	o.Mmap(s.mmap)
	return o, nil
}

//grouping returns the grouping for the frames read by R.
func grouping(R msd.Traj, scheme string, k int) (*com.Grouping, error) {
	s, err := com.ParseScheme(scheme)
	if err != nil {
		return nil, err
	}
	return com.NewGrouping(s, R.Len(), k)
}

//frames reads every frame from R and calls f with each of them. The matrix is reused.
func frames(R msd.Traj, f func(i int, coords *v3.Matrix) error) error {
	coords := v3.Zeros(R.Len())
	for i := 0; ; i++ {
		if err := R.Next(coords); err != nil {
			if msd.IsLastFrame(err) {
				return nil
			}
			return err
		}
		if err := f(i, coords); err != nil {
			return err
		}
	}
}

func unwrapCmd() *cobra.Command {
	var sf segmentFlags
	var lengths []float64
	var xsc, xst string
	cmd := &cobra.Command{
		Use:   "unwrap <input> <output>",
		Short: "Remove the periodic jumps from a segment",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			o, err := sf.options()
			if err != nil {
				return err
			}
			var box pbc.BoxSource
			switch {
			case xst != "":
				box, err = pbc.ReadXST(xst)
			case xsc != "":
				box, err = pbc.ReadXSC(xsc)
			case len(lengths) == 3:
				box = pbc.ConstBox{lengths[0], lengths[1], lengths[2]}
			default:
				err = fmt.Errorf("give the box with --box x,y,z, --xsc or --xst")
			}
			if err != nil {
				return err
			}
			R, err := xyzt.New(args[0], sf.atoms, o)
			if err != nil {
				return err
			}
			defer R.Close()
			W, err := xyzt.NewWriter(args[1], R.Len(), o)
			if err != nil {
				return err
			}
			st, err := pbc.UnwrapTraj(R, W, box, nil, nil, nil)
			if err != nil {
				W.Close()
				return err
			}
			fmt.Fprintf(os.Stderr, "%d frames of %d particles unwrapped\n", st.Frames, st.Len())
			return W.Close()
		},
	}
	sf.add(cmd)
	cmd.Flags().Float64SliceVar(&lengths, "box", nil, "constant box lengths x,y,z")
	cmd.Flags().StringVar(&xsc, "xsc", "", "NAMD .xsc file with the box")
	cmd.Flags().StringVar(&xst, "xst", "", "NAMD .xst file with one box per frame")
	return cmd
}

func comCmd() *cobra.Command {
	var sf segmentFlags
	var k int
	var scheme string
	var masses []float64
	cmd := &cobra.Command{
		Use:   "com <input> <output>",
		Short: "Reduce a segment to the centers of mass of its molecules",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			o, err := sf.options()
			if err != nil {
				return err
			}
			R, err := xyzt.New(args[0], sf.atoms, o)
			if err != nil {
				return err
			}
			defer R.Close()
			g, err := grouping(R, scheme, k)
			if err != nil {
				return err
			}
			if len(masses) == 0 {
				masses = com.Ones(k)
			}
			red, err := com.NewReducer(g, masses)
			if err != nil {
				return err
			}
			W, err := xyzt.NewWriter(args[1], g.Molecules(), o)
			if err != nil {
				return err
			}
			centers := v3.Zeros(g.Molecules())
			err = frames(R, func(i int, coords *v3.Matrix) error {
				if err := red.Reduce(coords, centers); err != nil {
					return err
				}
				return W.WNext(centers)
			})
			if err != nil {
				W.Close()
				return err
			}
			return W.Close()
		},
	}
	sf.add(cmd)
	cmd.Flags().IntVarP(&k, "atoms-per-molecule", "k", 1, "atoms in each molecule")
	cmd.Flags().StringVar(&scheme, "grouping", "contiguous", "contiguous or strided")
	cmd.Flags().Float64SliceVar(&masses, "masses", nil, "masses of the atoms of one molecule (default: all 1)")
	return cmd
}

func statsCmd() *cobra.Command {
	var sf segmentFlags
	var dt float64
	var stride, maxlag int
	var origins, pair, pairOut, plot string
	cmd := &cobra.Command{
		Use:   "stats <com-segment>...",
		Short: "MSD and non-Gaussian parameters from center-of-mass segments",
		Long: `MSD and non-Gaussian parameters from center-of-mass segments.
Each file is a separate segment: no lag spans two files. The table is written to stdout.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			o, err := sf.options()
			if err != nil {
				return err
			}
			so := dispstat.DefaultOptions()
			so.Stride(stride)
			so.MaxLag(maxlag)
			om, err := dispstat.ParseOriginMode(origins)
			if err != nil {
				return err
			}
			so.Origins(om)
			ap, err := dispstat.ParseAxisPair(pair)
			if err != nil {
				return err
			}
			merged := dispstat.NewState(so)
			var acc *dispstat.Accumulator
			for _, name := range args {
				//COM segments are small, and the accumulator keeps all their frames anyway.
				coms, err := xyzt.ReadAll(name, sf.atoms, o)
				if err != nil {
					return err
				}
				if len(coms) == 0 {
					return fmt.Errorf("no frames in %s", name)
				}
				if acc == nil {
					acc = dispstat.NewAccumulator(coms[0].NVecs(), so)
				} else {
					acc.Reset()
				}
				for _, c := range coms {
					if err := acc.Add(c); err != nil {
						return err
					}
				}
				if err := merged.Merge(acc.State()); err != nil {
					return err
				}
			}
			T, guards := merged.Finalize(ap, dt, so)
			for _, g := range guards {
				fmt.Fprintln(os.Stderr, g)
			}
			if pairOut != "" {
				if err := report.WritePairTableFile(pairOut, T); err != nil {
					return err
				}
			}
			if plot != "" {
				if _, err := report.Plot(plot, T); err != nil {
					return err
				}
			}
			return report.WriteTable(os.Stdout, T)
		},
	}
	sf.add(cmd)
	cmd.Flags().Float64Var(&dt, "dt", 1, "time between frames")
	cmd.Flags().IntVar(&stride, "stride", 1, "spacing between time origins")
	cmd.Flags().IntVar(&maxlag, "max-lag", 0, "largest lag, in frames (0: all)")
	cmd.Flags().StringVar(&origins, "origins", "sliding", "sliding or first")
	cmd.Flags().StringVar(&pair, "axis-pair", "xz", "axis pair for the cross-axis parameter")
	cmd.Flags().StringVar(&pairOut, "pairs", "", "file for the cross-axis table")
	cmd.Flags().StringVar(&plot, "plot", "", "prefix for PNG plots")
	return cmd
}

func dipoleCmd() *cobra.Command {
	var sf segmentFlags
	var k, every int
	var charges, masses []float64
	var collective, norecenter bool
	var subset []int
	cmd := &cobra.Command{
		Use:   "dipole <unwrapped-input> <output>",
		Short: "Dipole time series of the molecules in a segment, in Debye",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			o, err := sf.options()
			if err != nil {
				return err
			}
			R, err := xyzt.New(args[0], sf.atoms, o)
			if err != nil {
				return err
			}
			defer R.Close()
			g, err := grouping(R, "contiguous", k)
			if err != nil {
				return err
			}
			do := dipole.DefaultOptions()
			do.Collective(collective)
			do.Recenter(!norecenter)
			if len(subset) > 0 {
				do.Subset(subset)
			}
			C, err := dipole.NewCalculator(g, charges, masses, do)
			if err != nil {
				return err
			}
			W, err := dipole.NewWriter(args[1], C)
			if err != nil {
				return err
			}
			var F *dipole.Frame
			var st dipole.Stats
			err = frames(R, func(i int, coords *v3.Matrix) error {
				if every > 1 && i%every != 0 {
					return nil
				}
				var ferr error
				if F, ferr = C.Frame(coords, F); ferr != nil {
					return ferr
				}
				st.Add(F, do.Subset())
				return W.Write(i, F)
			})
			if err != nil {
				W.Close()
				return err
			}
			s := st.Summary()
			fmt.Fprintf(os.Stderr, "%d frames: mean |mu| %.3f (sd %.3f), collective %.3f (sd %.3f) Debye\n",
				s.Frames, s.MeanMagnitude, s.StdMagnitude, s.MeanCollective, s.StdCollective)
			return W.Close()
		},
	}
	sf.add(cmd)
	cmd.Flags().IntVarP(&k, "atoms-per-molecule", "k", 1, "atoms in each molecule")
	cmd.Flags().Float64SliceVar(&charges, "charges", nil, "partial charges of the atoms of one molecule")
	cmd.Flags().Float64SliceVar(&masses, "masses", nil, "masses for the re-centering (default: geometric center)")
	cmd.Flags().BoolVar(&collective, "collective", false, "write the summed dipole instead of one per molecule")
	cmd.Flags().BoolVar(&norecenter, "no-recenter", false, "use absolute positions")
	cmd.Flags().IntSliceVar(&subset, "subset", nil, "molecules included in the collective dipole")
	cmd.Flags().IntVar(&every, "every", 1, "write only every n-th frame")
	cmd.MarkFlagRequired("charges")
	return cmd
}
