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

// Package forest's model.go wires every leaf component into the annual
// driver of §4.10/§2 component 14: it owns the three aligned grids, the
// resource units, the species sets and climates, and drives one year at a
// time through the phase sequence the pseudocode lays out. This plays the
// same role the teacher's run.go InMAP.Run does for its CTM time loop:
// build the static graph once in a constructor, then repeatedly fan a
// per-cell/per-RU calculation out across sched.Runner.
package forest

import (
	"fmt"
	"math"

	"github.com/ctessum/geom"
	"github.com/dendrolab/forest/climate"
	"github.com/dendrolab/forest/config"
	"github.com/dendrolab/forest/environment"
	"github.com/dendrolab/forest/modules"
	"github.com/dendrolab/forest/output"
	"github.com/dendrolab/forest/permafrost"
	"github.com/dendrolab/forest/regen"
	"github.com/dendrolab/forest/sched"
	"github.com/dendrolab/forest/soil"
	"github.com/dendrolab/forest/species"
)

// TimeEvents is the minimal year-scheduled parameter-override table of
// SPEC_FULL §3.1: the annual driver calls timeEvents.run() every year
// (§4.10), so a model without a time-events schedule just has an empty one
// rather than a dangling call. Each entry patches a dotted Config key via
// config.Config.Set before the year's phases run.
type TimeEvents struct {
	byYear map[int]map[string]float64
}

// NewTimeEvents returns an empty schedule.
func NewTimeEvents() *TimeEvents { return &TimeEvents{byYear: make(map[int]map[string]float64)} }

// Schedule registers that key should be set to value at the start of year.
func (te *TimeEvents) Schedule(year int, key string, value float64) {
	m, ok := te.byYear[year]
	if !ok {
		m = make(map[string]float64)
		te.byYear[year] = m
	}
	m[key] = value
}

// Run applies every override scheduled for year to cfg, per §4.10's
// "if timeEvents: timeEvents.run()".
func (te *TimeEvents) Run(year int, cfg *config.Config) {
	for key, val := range te.byYear[year] {
		cfg.Set(key, val)
	}
}

// Model owns every grid, resource unit, species set, climate series and
// ancillary subsystem for the lifetime of a simulation run, and drives the
// annual loop (§3 "Ownership and lifecycle": "Model owns ResourceUnits,
// SpeciesSets, and Climates; all back-references are non-owning handles").
type Model struct {
	Config *config.Config

	LIF    *Grid[float64]
	Height *Grid[HeightCell]
	RUGrid *Grid[*ResourceUnit]

	resourceUnits []*ResourceUnit // in RUGrid row-major order, excluding nil cells

	SpeciesSets map[string]*species.SpeciesSet[*Stamp]
	Climates    map[string]*climate.Climate

	TimeEvents *TimeEvents
	Modules    *modules.Registry
	Outputs    *output.Manager

	seedMaps map[string]map[string]*regen.SeedMap // speciesSetKey -> speciesID -> seed map at 20m
	saplings map[string]*regen.Grid               // RU key ("x,y") -> 2m sapling grid
	grass    *regen.GrassCover

	runner sched.Runner
	rnd    *Rand

	torus bool // periodic boundary conditions, §4.2 "Torus variant"

	year int

	nextTreeID int
}

// bufferCells is the LIF-grid buffer width in cells, computed on each call
// as config.Model.World.Buffer / the LIF grid's cell size.
func (m *Model) bufferCells() int {
	if m.Config == nil || m.LIF == nil {
		return 0
	}
	return int(m.Config.Model.World.Buffer / m.LIF.CellSize())
}

// NewModel constructs a Model from a validated Config: it allocates the
// three aligned grids (§3 "Spatial scaffolding") sized from
// model.world.{width,height,cellSize,buffer} and lays out a ResourceUnit in
// every 100 m cell of the project rectangle, leaving buffer cells outside
// the project unaddressed by a resource unit.
func NewModel(cfg *config.Config) (*Model, error) {
	w := cfg.Model.World
	if w.CellSize <= 0 || w.Width <= 0 || w.Height <= 0 {
		return nil, newError(ConfigError, "NewModel", "model.world.cellSize/width/height must be positive")
	}
	if err := cfg.Model.Site.ValidateSettings(cfg.Model.Settings); err != nil {
		return nil, wrapError(InvalidSite, "NewModel", err)
	}
	if cfg.Model.Settings.Permafrost.Enabled {
		pfParams := permafrostParamsFrom(cfg.Model.Settings.Permafrost)
		if err := pfParams.Validate(); err != nil {
			return nil, wrapError(PermafrostInvalidParameter, "NewModel", err)
		}
	}

	bufferCells := int(w.Buffer / w.CellSize)
	lifSizeX := int(w.Width/w.CellSize) + 2*bufferCells
	lifSizeY := int(w.Height/w.CellSize) + 2*bufferCells
	origin := geom.Point{X: -w.Buffer, Y: -w.Buffer}

	lif := NewGrid[float64](origin, w.CellSize, lifSizeX, lifSizeY)
	lif.Initialize(1)

	heightCellSize := w.CellSize * cPxPerHeight
	hg := NewGrid[HeightCell](origin, heightCellSize, lifSizeX/cPxPerHeight, lifSizeY/cPxPerHeight)

	ruCellSize := w.CellSize * cPxPerRU
	ruSizeX := lifSizeX / cPxPerRU
	ruSizeY := lifSizeY / cPxPerRU
	ruGrid := NewGrid[*ResourceUnit](origin, ruCellSize, ruSizeX, ruSizeY)

	m := &Model{
		Config:      cfg,
		LIF:         lif,
		Height:      hg,
		RUGrid:      ruGrid,
		SpeciesSets: make(map[string]*species.SpeciesSet[*Stamp]),
		Climates:    make(map[string]*climate.Climate),
		TimeEvents:  NewTimeEvents(),
		Modules:     modules.NewRegistry(),
		Outputs:     output.NewManager(),
		seedMaps:    make(map[string]map[string]*regen.SeedMap),
		saplings:    make(map[string]*regen.Grid),
		runner:      sched.Runner{Deterministic: !cfg.System.Settings.Multithreading},
		rnd:         NewRand(cfg.System.Settings.RandomSeed, 0),
		year:        1,
	}

	bufferRU := bufferCells / cPxPerRU
	id := 0
	for y := 0; y < ruSizeY; y++ {
		for x := 0; x < ruSizeX; x++ {
			idx := Index{X: x, Y: y}
			inProject := x >= bufferRU && x < ruSizeX-bufferRU && y >= bufferRU && y < ruSizeY-bufferRU
			if !inProject {
				continue
			}
			ru := NewResourceUnit(idx, id, ruCellSize*ruCellSize, ruCellSize*ruCellSize, NewRand(cfg.System.Settings.RandomSeed, id))
			if cfg.Model.Settings.CarbonCycleEnabled {
				pool, err := soil.NewPool(soilParamsFrom(cfg), initialYL, initialYR, initialSOM)
				if err != nil {
					return nil, wrapError(SoilInvalid, "NewModel", err)
				}
				ru.Soil = pool
			}
			ruGrid.Set(idx, ru)
			m.resourceUnits = append(m.resourceUnits, ru)
			id++
		}
	}

	return m, nil
}

// initialYL/initialYR/initialSOM are representative initial ICBM/2N pool
// states (t C,N /ha) for a stand with an established litter layer, standing
// in for the per-project initial-stock inventory the specification leaves
// unparameterized (§4.6 names only the rate parameters).
var (
	initialYL  = soil.Flux{C: 3, N: 0.1}
	initialYR  = soil.Flux{C: 3, N: 0.03}
	initialSOM = soil.Flux{C: 120, N: 4}
)

// soilParamsFrom builds a soil.Params from the project's soil/site config
// keys (§6 model.settings.soil.*, model.site.somDecompRate/
// soilHumificationRate).
func soilParamsFrom(cfg *config.Config) soil.Params {
	s := cfg.Model.Settings.Soil
	return soil.Params{
		KYL:      s.KYL,
		KYR:      s.KYR,
		KO:       cfg.Model.Site.SomDecompRate,
		H:        cfg.Model.Site.SoilHumificationRate,
		QB:       s.QB,
		QH:       s.QH,
		EL:       s.EL,
		ER:       s.ER,
		Leaching: s.Leaching,
	}
}

// permafrostFusionHeat is the latent heat of fusion of water, MJ/litre,
// a physical constant rather than a project-tunable key.
const permafrostFusionHeat = 0.334

// permafrostParamsFrom builds a permafrost.Params from the project's
// permafrost config block (§6 model.settings.permafrost.*).
func permafrostParamsFrom(p config.Permafrost) permafrost.Params {
	return permafrost.Params{
		DeepSoilDepth:            p.DeepSoilDepth,
		LambdaSnow:               p.LambdaSnow,
		LambdaOrganicLayer:       p.LambdaOrganicLayer,
		OrganicLayerDensity:      p.OrganicLayerDensity,
		MaxFreezeThawPerDay:      p.MaxFreezeThawPerDay,
		OnlySimulate:             p.OnlySimulate,
		EFusion:                  permafrostFusionHeat,
		InitialDepthFrozen:       p.InitialDepthFrozen,
		OrganicLayerDefaultDepth: p.OrganicLayerDefaultDepth,
	}
}

// SetTorus enables or disables periodic-boundary stamping/readout (§4.2
// "Torus variant"), normally selected from a small-domain project's
// configuration rather than §6's key tree (the spec leaves the triggering
// key unnamed, calling it only "a configuration flag").
func (m *Model) SetTorus(on bool) { m.torus = on }

// Year returns the current simulation year, satisfying modules.Context.
func (m *Model) Year() int { return m.year }

// ResourceUnitCount satisfies modules.Context.
func (m *Model) ResourceUnitCount() int { return len(m.resourceUnits) }

// KillFraction satisfies modules.Context: kills a uniform-random fraction of
// every resource unit's living trees, the coarse mechanism the fire/wind
// stub modules use.
func (m *Model) KillFraction(frac float64) int {
	killed := 0
	for _, ru := range m.resourceUnits {
		for _, t := range ru.Trees {
			if t.IsDead() {
				continue
			}
			if m.rnd.Float64() < frac {
				t.SetDead()
				killed++
			}
		}
	}
	return killed
}

// HarvestAboveDbh satisfies modules.Context: removes every living tree at or
// above minDbh, the mechanism the management stub module uses.
func (m *Model) HarvestAboveDbh(minDbh float64) int {
	harvested := 0
	for _, ru := range m.resourceUnits {
		for _, t := range ru.Trees {
			if t.IsDead() {
				continue
			}
			if t.Dbh >= minDbh {
				t.SetDead()
				harvested++
			}
		}
	}
	return harvested
}

// AddSpeciesSet registers a named SpeciesSet, selectable per resource unit
// via the Environment CSV's model.species.source column (§6). Any species in
// the set that has no light-response curve of its own picks up the
// project's model.settings.lightResponse default expression, so a species
// table that only supplies allometry/dispersal numbers still gets a usable
// LightResponse (§4.4).
func (m *Model) AddSpeciesSet(key string, ss *species.SpeciesSet[*Stamp]) error {
	if m.Config.Model.Settings.LightResponse != "" {
		for _, sp := range ss.All() {
			if sp.HasLightResponse() {
				continue
			}
			if err := sp.SetLightResponse(m.Config.Model.Settings.LightResponse); err != nil {
				return wrapError(ExpressionError, "AddSpeciesSet", err)
			}
		}
	}
	m.SpeciesSets[key] = ss
	perSpecies := make(map[string]*regen.SeedMap)
	seedSizeX := m.RUGrid.SizeX() * 5 // 20m seed cells, 5 per 100m RU side
	seedSizeY := m.RUGrid.SizeY() * 5
	for _, sp := range ss.All() {
		perSpecies[sp.ID] = regen.NewSeedMap(seedSizeX, seedSizeY)
	}
	m.seedMaps[key] = perSpecies
	return nil
}

// AddClimate registers a named Climate series, selectable per resource unit
// via the Environment CSV's model.climate.tableName column (§6).
func (m *Model) AddClimate(key string, c *climate.Climate) { m.Climates[key] = c }

// ApplyEnvironment assigns each resource unit's Species/Climate from a
// parsed Environment CSV (§6), matching rows to resource units by the RU
// grid's own Index — exactly the "1-ha (x, y) index" env.Matrix mode keys
// rows on. Grid mode (row lookup via a stand-id raster) is not wired here:
// nothing in Model currently carries the id raster gridio.ReadStandShapefile
// produces, so Grid-mode rows are skipped rather than guessed at. Returns
// every row whose SpeciesSource/ClimateTable name was never registered via
// AddSpeciesSet/AddClimate, for the caller to report or fail on.
func (m *Model) ApplyEnvironment(env *environment.Environment) (unresolved []string) {
	if env == nil || env.Mode != environment.Matrix {
		return nil
	}
	for _, ru := range m.resourceUnits {
		row, ok := env.AtMatrix(ru.Index.X, ru.Index.Y)
		if !ok {
			continue
		}
		if row.SpeciesSource != "" {
			ss, ok := m.SpeciesSets[row.SpeciesSource]
			if !ok {
				unresolved = append(unresolved, fmt.Sprintf("species source %q", row.SpeciesSource))
			} else {
				ru.Species = ss
			}
		}
		if row.ClimateTable != "" {
			c, ok := m.Climates[row.ClimateTable]
			if !ok {
				unresolved = append(unresolved, fmt.Sprintf("climate table %q", row.ClimateTable))
			} else {
				ru.Climate = c
			}
		}
	}
	return unresolved
}

// NewTreeID returns a fresh, model-unique tree identifier, used by
// establishment/sapling-promotion when a new Tree is created mid-run.
func (m *Model) NewTreeID() int {
	m.nextTreeID++
	return m.nextTreeID
}

// RunYear executes one simulation year following the §4.10 pseudocode
// exactly: module year-begin, time events, climate advance, per-RU newYear,
// species-set newYear, tree-list compaction, the light/growth phases,
// regeneration, carbon cycle, disturbance modules, end-of-year compaction
// and output.
func (m *Model) RunYear() error {
	if err := m.Modules.YearBegin(m, m.rnd); err != nil {
		return err
	}
	m.TimeEvents.Run(m.year, m.Config)

	if m.year > 1 {
		for _, c := range m.Climates {
			c.NextYear()
		}
	}

	for _, ru := range m.resourceUnits {
		ru.NewYear()
	}
	for _, ss := range m.SpeciesSets {
		_ = ss // newYear is a no-op placeholder hook for a SpeciesSet without
		// per-year state of its own today; seed-map reset happens explicitly
		// below in the regeneration phase instead, per §4.10's ordering.
	}

	m.cleanTreeLists(true)

	if err := m.Modules.CalculateWater(m, m.rnd); err != nil {
		return err
	}

	if m.Config.Model.Settings.GrowthEnabled {
		if err := m.applyPattern(); err != nil {
			return err
		}
		if err := m.readPattern(); err != nil {
			return err
		}
		if err := m.grow(); err != nil {
			return err
		}
	}

	if m.grass != nil {
		var gdd float64
		for _, c := range m.Climates {
			gdd += c.AnnualTemperatureSum()
		}
		m.grass.Execute(gdd)
	}

	if m.Config.Model.Settings.RegenerationEnabled {
		m.stampSeedMaps()
		m.disperseSeedMaps()
		if err := m.executePerResourceUnit(m.establishmentOne); err != nil {
			return err
		}
		if err := m.executePerResourceUnit(m.saplingGrowthOne); err != nil {
			return err
		}
	}

	if m.Config.Model.Settings.CarbonCycleEnabled {
		if err := m.executePerResourceUnit(m.carbonCycleOne); err != nil {
			return err
		}
	}

	if err := m.Modules.Run(m, m.rnd); err != nil {
		return err
	}

	m.cleanTreeLists(false)
	for _, ru := range m.resourceUnits {
		ru.YearEnd()
	}

	if err := m.writeOutputs(); err != nil {
		return err
	}

	m.year++
	return nil
}

// writeOutputs implements §4.10's "outputs.execute(...)" call: one row per
// resource unit summarizing this year's stand state, via the "ru" table. The
// core prescribes only the invocation contract (§6); the columns here are a
// representative minimum a sink needs to reconstruct a stand trajectory.
func (m *Model) writeOutputs() error {
	if len(m.Outputs.Sinks()) == 0 {
		return nil
	}
	rows := make([]output.Row, 0, len(m.resourceUnits))
	for _, ru := range m.resourceUnits {
		live := 0
		for _, t := range ru.Trees {
			if !t.IsDead() {
				live++
			}
		}
		rows = append(rows, output.Row{
			"year":        int64(m.year),
			"ru":          int64(ru.ID),
			"liveTrees":   int64(live),
			"lriModifier": ru.LRImodifier,
		})
	}
	return m.Outputs.Execute("ru", rows)
}

// executePerResourceUnit fans f out across every resource unit using the
// model's Runner, per §4.10's "executePerResourceUnit(...)" calls.
func (m *Model) executePerResourceUnit(f func(ru *ResourceUnit) error) error {
	rus := m.resourceUnits
	return m.runner.Each(len(rus), func(i int) error { return f(rus[i]) })
}

// cleanTreeLists compacts every resource unit's tree list, per §4.10's two
// cleanTreeLists calls (with and without stat recomputation).
func (m *Model) cleanTreeLists(recomputeStats bool) {
	for _, ru := range m.resourceUnits {
		ru.CleanTreeList(recomputeStats)
	}
}

// applyPattern runs §4.5's applyPattern(ru) for every stockable resource
// unit: heightGrid for every tree (pass 1) then applyLIP for every tree
// (pass 2), so no tree's stamp reads a still-updating dominant-height cell
// from another tree in the same pass.
func (m *Model) applyPattern() error {
	return m.executePerResourceUnit(func(ru *ResourceUnit) error {
		if !ru.IsStockable() {
			return nil
		}
		for _, t := range ru.Trees {
			if t.IsDead() {
				continue
			}
			if m.torus {
				m.heightGridTorus(t, ru)
			} else {
				t.HeightGrid(m.Height)
			}
		}
		for _, t := range ru.Trees {
			if t.IsDead() {
				continue
			}
			if m.torus {
				m.applyLIPTorus(t, ru)
			} else {
				t.ApplyLIP(m.LIF, m.Height)
			}
		}
		return nil
	})
}

// readPattern runs §4.5's readPattern(ru): readLIF for every tree, then
// accumulates the unit's (WLA, LRIsum) inputs for LRImodifier (§4.4).
func (m *Model) readPattern() error {
	return m.executePerResourceUnit(func(ru *ResourceUnit) error {
		if !ru.IsStockable() {
			return nil
		}
		for _, t := range ru.Trees {
			if t.IsDead() {
				continue
			}
			dom := dominantHeightAt(m.Height, t.Pos)
			if m.torus {
				m.readLIFTorus(t, ru, dom)
			} else {
				t.ReadLIF(m.LIF, m.Height, dom)
			}
			ru.AccumulateLRI(t)
		}
		ru.UpdateLRImodifier()
		return nil
	})
}

// grow runs §4.5's grow(ru): calcLightResponse + the interception
// accumulation pass runs for every tree (ResourceUnit.NewYear reset the
// accumulators at the start of the year), production(ru) evaluates stand-level 3PG, then grow()
// updates every tree's dimensions and mortality status.
func (m *Model) grow() error {
	return m.executePerResourceUnit(func(ru *ResourceUnit) error {
		if !ru.IsStockable() {
			return nil
		}
		for _, t := range ru.Trees {
			if t.IsDead() {
				continue
			}
			t.CalcLightResponse()
			ru.AddLeafAreaResponse(t.Species, t.LeafArea, t.LightResponse)
		}
		ru.Production(nil)
		for _, t := range ru.Trees {
			if t.IsDead() {
				continue
			}
			if err := t.Grow(); err != nil {
				return err
			}
			if m.Config.Model.Settings.MortalityEnabled {
				t.Mortality(ru.rnd)
			}
		}
		return nil
	})
}

// carbonCycleOne advances one resource unit's snag/soil pools, using the
// climate decomposition factor re derived from its assigned Climate's mean
// annual temperature (a simple Q10-free stand-in consistent with the
// specification's "climate factor re scales rates" without prescribing the
// function itself).
func (m *Model) carbonCycleOne(ru *ResourceUnit) error {
	re := 1.0
	if ru.Climate != nil {
		re = climateDecompositionFactor(ru.Climate)
	}
	return ru.CarbonCycle(re)
}

func climateDecompositionFactor(c *climate.Climate) float64 {
	t := c.AnnualMeanTemperature()
	if t < 0 {
		return 0.1
	}
	return 0.1 + 0.09*t // linear ramp, needs no clamp since re>0 always holds for t>=0
}

// speciesSetKeyFor returns the key of the registered SpeciesSet that holds
// one species, which is also the key of that set's seed maps. A tree's RU carries
// the *species.SpeciesSet indirectly via its Species pointer, so this scans
// the registered sets once per call; sets are few and this only runs during
// the (already O(trees)) seed-stamping pass.
func (m *Model) speciesSetKeyFor(sp *species.Species) string {
	for key, ss := range m.SpeciesSets {
		if _, ok := ss.Get(sp.ID); ok {
			return key
		}
	}
	return ""
}

// stampSeedMaps implements the mature-tree side of §4.7: every tree above a
// species-specific maturity threshold stamps 1.0 at its 20 m seed cell. The
// specification leaves "mature" undefined beyond "mature trees"; this takes
// a tree at or above half its species' MaxHeight as mature (relh >= 0.5,
// with relh = height / MaxHeight as in Species.Aging).
func (m *Model) stampSeedMaps() {
	for _, perSpecies := range m.seedMaps {
		for _, sm := range perSpecies {
			sm.Wipe()
		}
	}
	for _, ru := range m.resourceUnits {
		for _, t := range ru.Trees {
			if t.IsDead() {
				continue
			}
			if t.Species.Allometry.MaxHeight > 0 && t.Height < 0.5*t.Species.Allometry.MaxHeight {
				continue
			}
			key := m.speciesSetKeyFor(t.Species)
			perSpecies, ok := m.seedMaps[key]
			if !ok {
				continue
			}
			sm, ok := perSpecies[t.Species.ID]
			if !ok {
				continue
			}
			p := regen.Pos{X: t.Pos.X / 10, Y: t.Pos.Y / 10} // 2m LIF cell -> 20m seed cell
			sm.Stamp(p)
		}
	}
}

// seedCellSize is the 20 m resolution every SeedMap is allocated at (§4.7,
// "5 cells per 100 m resource-unit side").
const seedCellSize = 20.0

// disperseSeedMaps implements the dispersal-kernel side of §4.7: convolves
// each species' just-stamped seed map with its configured TreeMig-style
// DispersalKernel, replacing every map with the dispersed result that
// establishmentOne then reads from.
func (m *Model) disperseSeedMaps() {
	for key, perSpecies := range m.seedMaps {
		ss, ok := m.SpeciesSets[key]
		if !ok {
			continue
		}
		for spID, sm := range perSpecies {
			sp, ok := ss.Get(spID)
			if !ok {
				continue
			}
			k := regen.DispersalKernel{AS1: sp.Dispersal.AS1, AS2: sp.Dispersal.AS2, KS: sp.Dispersal.KS}
			radius := dispersalRadiusCells(sp.Dispersal)
			perSpecies[spID] = sm.Disperse(k, seedCellSize, radius)
		}
	}
}

// dispersalRadiusCells bounds the convolution window to 3x the longer of the
// species' two mean dispersal distances, in 20 m seed cells: beyond that
// radius the lognormal kernel's density is negligible, and the specification
// does not prescribe a convolution radius itself.
func dispersalRadiusCells(d species.DispersalParams) int {
	longest := math.Max(d.AS1, d.AS2)
	radius := int(3*longest/seedCellSize) + 1
	if radius < 1 {
		radius = 1
	}
	return radius
}

// saplingGridFor returns (creating if necessary) the 2 m sapling grid
// covering ru's footprint.
func (m *Model) saplingGridFor(ru *ResourceUnit) *regen.Grid {
	key := fmt.Sprintf("%d,%d", ru.Index.X, ru.Index.Y)
	g, ok := m.saplings[key]
	if !ok {
		g = regen.NewGrid(cPxPerRU, cPxPerRU)
		m.saplings[key] = g
	}
	return g
}

// establishmentOne runs §4.7's establishment(ru) for one resource unit: for
// every species in the unit's SpeciesSet and every 2 m cell of its local
// sapling grid, evaluate the establishment screen.
func (m *Model) establishmentOne(ru *ResourceUnit) error {
	if !ru.IsStockable() || ru.Species == nil {
		return nil
	}
	key := m.speciesSetKeyForSet(ru.Species)
	perSpecies := m.seedMaps[key]
	sapGrid := m.saplingGridFor(ru)

	var tempSum, moisture float64
	var frostDays int
	var nitrogen float64
	if ru.Climate != nil {
		tempSum = ru.Climate.AnnualTemperatureSum()
		frostDays = ru.Climate.AnnualFrostDays()
		moisture = ru.Climate.AnnualPrecipitation()
	}
	if ru.Soil != nil {
		nitrogen = ru.Soil.AvailableNitrogen
	}

	for _, sp := range ru.Species.All() {
		sm := perSpecies[sp.ID]
		if sm == nil {
			continue
		}
		abiotic := regen.AbioticParams{
			MinTempSum:   sp.Abiotic.MinTempSum,
			MaxFrostDays: sp.Abiotic.MaxFrostDays,
			KMoisture:    sp.Abiotic.KMoisture,
			KNitrogen:    sp.Abiotic.KNitrogen,
		}
		pAbiotic := regen.PAbiotic(abiotic, tempSum, frostDays, moisture, nitrogen)
		sapGrid.ForEach(func(p regen.Pos, cell *regen.Cell) {
			lifIdx := Index{X: ru.Index.X*cPxPerRU + p.X, Y: ru.Index.Y*cPxPerRU + p.Y}
			if !m.LIF.IsIndexValid(lifIdx) {
				return
			}
			lif := m.LIF.Get(lifIdx)
			dom := dominantHeightAt(m.Height, lifIdx)
			seedPos := regen.Pos{X: lifIdx.X / 10, Y: lifIdx.Y / 10}
			seedValue := sm.Get(seedPos)
			if seedValue <= 0 {
				return
			}
			grassEffect := 1.0
			if m.grass != nil {
				grassEffect = m.grass.EstablishmentMultiplier(p)
			}
			regen.Establishment(cell, sp, lif, dom, seedValue, pAbiotic, grassEffect, ru.rnd)
		})
	}
	return nil
}

// speciesSetKeyForSet finds the registration key for a *species.SpeciesSet
// pointer, mirroring speciesSetKeyFor but keyed by the set itself (used when
// a ResourceUnit already carries its SpeciesSet, not just one Species).
func (m *Model) speciesSetKeyForSet(ss *species.SpeciesSet[*Stamp]) string {
	for key, s := range m.SpeciesSets {
		if s == ss {
			return key
		}
	}
	return ""
}

// saplingGrowthOne runs §4.7's saplingGrowth(ru): advance every cohort's
// height/age, promoting any cohort that crosses 1.3 m into a new Tree with
// initial dbh estimated from its species' h/d allometry at that height.
func (m *Model) saplingGrowthOne(ru *ResourceUnit) error {
	if !ru.IsStockable() || ru.Species == nil {
		return nil
	}
	sapGrid := m.saplingGridFor(ru)
	var promoteErr error
	sapGrid.ForEach(func(p regen.Pos, cell *regen.Cell) {
		for spID, s := range cell.Saplings() {
			sp, ok := ru.Species.Get(spID)
			if !ok {
				continue
			}
			promote := regen.GrowSapling(s, regen.GrowthInput{AnnualHeightIncrement: 0.2, LightResponse: 1})
			if !promote {
				continue
			}
			height := s.Height
			hd := sp.RelativeHeightGrowth(1)
			dbh := 100 * height / math.Max(hd, 1e-6)
			if dbh < 5 {
				dbh = 5
			}
			lifIdx := Index{X: ru.Index.X*cPxPerRU + p.X, Y: ru.Index.Y*cPxPerRU + p.Y}
			t, err := NewTree(m.NewTreeID(), sp, ru, lifIdx, dbh, height)
			if err != nil {
				promoteErr = err
				continue
			}
			t.Stamp = m.stampFor(sp, t.Dbh, t.Height)
			ru.Trees = append(ru.Trees, t)
			cell.Remove(spID)
		}
	})
	return promoteErr
}

// stampFor looks up the shared stamp for (species, size class) from the
// species set's StampContainer, keyed by the tree's exact dbh bin (5 cm
// classes, truncated) and height bin (1 m classes, truncated) (§3
// "Stamps... chosen by (species, dbh bin, h bin)"). It returns nil when no
// stamp is registered for that exact bin; no nearby bin is searched.
func (m *Model) stampFor(sp *species.Species, dbh, height float64) *Stamp {
	for _, ss := range m.SpeciesSets {
		if _, ok := ss.Get(sp.ID); !ok {
			continue
		}
		key := species.StampKey{SpeciesID: sp.ID, DbhClass: dbhBin(dbh), HClass: heightBin(height)}
		if st, ok := ss.Stamps.Get(key); ok {
			return st
		}
	}
	return nil
}

func dbhBin(dbh float64) int       { return int(dbh / 5) }
func heightBin(height float64) int { return int(height) }

// SetGrassCover installs the optional ground-vegetation layer (SPEC_FULL
// §3.1's supplemented GrassCover), sized to the full LIF grid.
func (m *Model) SetGrassCover(g *regen.GrassCover) { m.grass = g }
