/*
Copyright © 2013 the InMAP authors.
This file is part of InMAP.

InMAP is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

InMAP is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with InMAP.  If not, see <http://www.gnu.org/licenses/>.
*/

// Package forestutil holds the cobra command tree for the forest CLI,
// mirroring the teacher's inmaputil package: a persistent --config flag that
// each subcommand resolves itself through loadConfig, and subcommands that
// each build on the engine's exported constructors rather than reaching into
// its internals.
package forestutil

import (
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/dendrolab/forest"
	"github.com/dendrolab/forest/config"
	"github.com/dendrolab/forest/output"
)

// Version is the forest engine's release string, set at build time via
// -ldflags the way the teacher sets inmap.Version.
var Version = "dev"

var (
	configPath string
	years      int
	sqlitePath string
	torus      bool
	previewOut string
)

// Root is the forest command-line root, analogous to the teacher's
// inmaputil.Root.
var Root = &cobra.Command{
	Use:   "forest",
	Short: "An individual-based forest landscape and disturbance simulator.",
	Long: `forest simulates light competition, growth, soil carbon/nitrogen
cycling and regeneration across a landscape of resource units, loading its
project configuration from a TOML file (see --config).`,
	DisableAutoGenTag: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, err := log.ParseLevel("info")
		if err != nil {
			return err
		}
		log.SetLevel(level)
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:               "version",
	Short:             "Print the version number",
	DisableAutoGenTag: true,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("forest v%s\n", Version)
	},
}

var runCmd = &cobra.Command{
	Use:               "run",
	Short:             "Run a simulation for the number of years given by --years.",
	Long:              `run loads the project configuration and advances the simulation year by year, logging per-year progress and, if --sqlite is set, writing per-resource-unit summaries to a SQLite database.`,
	DisableAutoGenTag: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		log.SetLevel(logLevel(cfg))

		m, err := forest.NewModel(cfg)
		if err != nil {
			return fmt.Errorf("forest: NewModel: %w", err)
		}
		m.SetTorus(torus)

		if sqlitePath != "" {
			sink := output.NewSQLiteSink(sqlitePath)
			m.Outputs.Register(sink)
			if err := m.Outputs.OpenAll(); err != nil {
				return fmt.Errorf("forest: opening output sinks: %w", err)
			}
			defer m.Outputs.CloseAll()
		}

		for i := 0; i < years; i++ {
			if err := m.RunYear(); err != nil {
				return fmt.Errorf("forest: year %d: %w", m.Year()-1, err)
			}
			log.WithFields(log.Fields{
				"year":          m.Year() - 1,
				"resourceUnits": m.ResourceUnitCount(),
			}).Info("completed simulation year")
		}
		return nil
	},
}

var gridCmd = &cobra.Command{
	Use:               "grid",
	Short:             "Lay out the resource-unit grid from the project configuration and report its dimensions.",
	Long:              `grid builds the LIF/height/resource-unit grids from the project configuration without running any years, and prints their dimensions — useful for validating model.world.* before a full run.`,
	DisableAutoGenTag: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		m, err := forest.NewModel(cfg)
		if err != nil {
			return fmt.Errorf("forest: NewModel: %w", err)
		}
		fmt.Printf("LIF grid:    %d x %d cells @ %g m\n", m.LIF.SizeX(), m.LIF.SizeY(), m.LIF.CellSize())
		fmt.Printf("Height grid: %d x %d cells @ %g m\n", m.Height.SizeX(), m.Height.SizeY(), m.Height.CellSize())
		fmt.Printf("RU grid:     %d x %d cells @ %g m, %d stockable resource units\n",
			m.RUGrid.SizeX(), m.RUGrid.SizeY(), m.RUGrid.CellSize(), m.ResourceUnitCount())

		if previewOut != "" {
			if err := writeGridPreview(m, previewOut); err != nil {
				return err
			}
			fmt.Printf("wrote dominant-height preview to %s\n", previewOut)
		}
		return nil
	},
}

func loadConfig() (*config.Config, error) {
	if configPath == "" {
		return config.Default(), nil
	}
	return config.Load(configPath)
}

func logLevel(cfg *config.Config) log.Level {
	lvl, err := log.ParseLevel(cfg.System.Settings.LogLevel)
	if err != nil {
		return log.InfoLevel
	}
	return lvl
}

func init() {
	Root.PersistentFlags().StringVar(&configPath, "config", "", "path to a TOML project configuration file (defaults built in if omitted)")

	runCmd.Flags().IntVar(&years, "years", 1, "number of simulation years to run")
	runCmd.Flags().StringVar(&sqlitePath, "sqlite", "", "path to a SQLite database for per-year resource-unit output (disabled if empty)")
	runCmd.Flags().BoolVar(&torus, "torus", false, "enable periodic-boundary (torus) light stamping, for small single-resource-unit projects")
	gridCmd.Flags().StringVar(&previewOut, "preview", "", "write a PNG preview of the dominant-height grid to this path")

	Root.AddCommand(versionCmd, runCmd, gridCmd)
}
