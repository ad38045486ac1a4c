/*
 * main.go, part of gomsd.
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

//gomsd obtains mean square displacements, non-Gaussian parameters and dipole
//time series from molecular dynamics trajectories split in segments.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:     "gomsd",
		Short:   "Displacement statistics for segmented MD trajectories",
		Version: version,
		//errors are printed here, once.
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(unwrapCmd())
	rootCmd.AddCommand(comCmd())
	rootCmd.AddCommand(statsCmd())
	rootCmd.AddCommand(dipoleCmd())
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "gomsd:", err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("gomsd", version)
		},
	}
}
