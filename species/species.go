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

// Package species holds the per-species allometric and response functions
// and the SpeciesSet container that owns them plus the shared Stamp
// container, mirroring how the teacher's Mechanism implementations (see
// mechanism.go) own the chemical parameterization that the core science
// code (science.go) is blind to: the core growth/light pipeline calls
// through this package's small interface and never hard-codes a species'
// numbers.
package species

import (
	"fmt"
	"math"

	"github.com/dendrolab/forest/expr"
)

// DispersalParams are the two-lognormal TreeMig-style seed kernel
// coefficients for one species (§4.7).
type DispersalParams struct {
	AS1 float64 // mean dispersal distance of the short-distance kernel, m
	AS2 float64 // mean dispersal distance of the long-distance kernel, m
	KS  float64 // mixing weight of the short-distance kernel, in [0,1]
}

// AbioticParams are the per-species establishment screen cutoffs/responses
// of §4.7 (temperature-sum and frost-day hard cutoffs, moisture/nitrogen
// saturating responses). Declared independently here rather than reused
// from regen.AbioticParams since regen already imports species — a reverse
// import would cycle.
type AbioticParams struct {
	MinTempSum  float64 // degree-days; below this, PAbiotic is 0
	MaxFrostDays int     // days; at or above this, PAbiotic is 0
	KMoisture   float64 // half-saturation constant for the moisture response
	KNitrogen   float64 // half-saturation constant for the nitrogen response
}

// Allometry holds the coefficients of a species' power-law and polynomial
// size relationships. Parameter names follow the iLand species parameter
// table (original_source/src/core/species.cpp).
type Allometry struct {
	HDLow, HDHigh float64 // h/d ratio bounds used by relativeHeightGrowth

	WoodDensity     float64 // rho, kg/m3
	FormFactor      float64 // vf, stem volume form factor
	BarkThickness   float64 // fraction of dbh, used by allometricFractionStem

	SpecificLeafArea float64 // m2 leaf area per kg foliage

	TurnoverFoliage  float64 // to_fol, annual fraction
	TurnoverRoot     float64 // to_root, annual fraction
	FinerootFoliageRatio float64

	RatioWF float64 // b = allometricRatio_wf(), wood:foliage allocation ratio

	MaxDbh    float64 // cm, used to bound allometricFractionStem
	MaxHeight float64 // m
}

// Species is one tree species' complete parameterization: allometries,
// phenology and response functions (expressed where the original used a
// free-form formula as an *expr.Expression so parameter files can tune them
// without a recompile), and its seed dispersal kernel.
type Species struct {
	ID   string
	Name string

	Allometry       Allometry
	Dispersal       DispersalParams
	Abiotic         AbioticParams
	DeathProbIntrinsic float64 // baseline annual mortality probability

	lightResponse  *expr.Expression // f(LRI*modifier) -> relative growth effect, x in [0,1]
	deathStress    *expr.Expression // f(stressIndex) -> incremental death probability
	agingFn        *expr.Expression // f(relHeight, relAge) -> aging factor in [0,1]
	lriCorrection  *expr.Expression // f(LRI, relHeight) -> corrected LRI

	lriCorrectionLin func(lri, relHeight float64) float64
}

// NewSpecies builds a Species with no response functions set. Each Set*
// method parses one of them and documents the variable names its source
// may reference.
func NewSpecies(id, name string, allo Allometry, disp DispersalParams, deathIntrinsic float64) *Species {
	return &Species{
		ID:                 id,
		Name:               name,
		Allometry:          allo,
		Dispersal:          disp,
		DeathProbIntrinsic: deathIntrinsic,
	}
}

// HasLightResponse reports whether a tuned light-response curve has already
// been set, so a config-level default expression never overwrites a
// species' own parameterization.
func (s *Species) HasLightResponse() bool { return s.lightResponse != nil }

// SetLightResponse parses src as a function of variable "lri".
func (s *Species) SetLightResponse(src string) error {
	e, err := expr.New(src)
	if err != nil {
		return fmt.Errorf("species %s: lightResponse: %w", s.ID, err)
	}
	s.lightResponse = e
	return nil
}

// SetDeathProbStress parses src as a function of variable "stress".
func (s *Species) SetDeathProbStress(src string) error {
	e, err := expr.New(src)
	if err != nil {
		return fmt.Errorf("species %s: deathProbStress: %w", s.ID, err)
	}
	s.deathStress = e
	return nil
}

// SetAging parses src as a function of variables "relh" (height / max height)
// and "relage" (age divided by max(1, MaxHeight/HDHigh); the species has no
// parameter for the age at which max height is reached).
func (s *Species) SetAging(src string) error {
	e, err := expr.New(src)
	if err != nil {
		return fmt.Errorf("species %s: aging: %w", s.ID, err)
	}
	s.agingFn = e
	return nil
}

// SetLRICorrection parses src as a 2-D function of "lri" and "relh" (relative
// height, tree.height/dominant_height) and immediately builds its 1-D*1-D
// linearization over [0,1]x[0,1] at the given resolution, per §4.8's
// guidance that the LRI correction table is linearized for hot-path use in
// readLIF.
func (s *Species) SetLRICorrection(src string, steps int) error {
	e, err := expr.New(src)
	if err != nil {
		return fmt.Errorf("species %s: lriCorrection: %w", s.ID, err)
	}
	s.lriCorrection = e
	lin, err := e.Linearize2D("lri", "relh", 0, 1, steps, 0, 1, steps)
	if err != nil {
		return fmt.Errorf("species %s: lriCorrection linearize: %w", s.ID, err)
	}
	s.lriCorrectionLin = lin
	return nil
}

// LightResponse evaluates the species' light response curve at x = LRI *
// LRImodifier, clamped to [0,1] by the caller (§4.4).
func (s *Species) LightResponse(x float64) float64 {
	if s.lightResponse == nil {
		return x // identity fallback for a species with no tuned curve
	}
	v, err := s.lightResponse.Eval1("lri", x)
	if err != nil {
		return x
	}
	return v
}

// Aging returns the age/size dampening factor in [0,1] applied to GPP
// (§4.3 step 3).
func (s *Species) Aging(h, age float64) float64 {
	if s.agingFn == nil || s.Allometry.MaxHeight <= 0 {
		return 1
	}
	relh := h / s.Allometry.MaxHeight
	relage := age / math.Max(1, s.Allometry.MaxHeight/ (s.Allometry.HDHigh+1e-9))
	v, err := s.agingFn.Eval(expr.NewMapBinder(map[string]float64{"relh": relh, "relage": relage}))
	if err != nil {
		return 1
	}
	return clamp01(v)
}

// LRICorrection evaluates the 2-D LRI correction table at (lri, relHeight),
// using the precomputed linearization when available.
func (s *Species) LRICorrection(lri, relHeight float64) float64 {
	if s.lriCorrectionLin != nil {
		return clamp01(s.lriCorrectionLin(clamp01(lri), clamp01(relHeight)))
	}
	if s.lriCorrection == nil {
		return clamp01(lri)
	}
	v, err := s.lriCorrection.Eval(expr.NewMapBinder(map[string]float64{"lri": lri, "relh": relHeight}))
	if err != nil {
		return clamp01(lri)
	}
	return clamp01(v)
}

// DeathProbStress evaluates the stress-driven incremental mortality
// probability for the given stress index (§4.3 Mortality).
func (s *Species) DeathProbStress(stress float64) float64 {
	if s.deathStress == nil {
		return 0
	}
	v, err := s.deathStress.Eval1("stress", stress)
	if err != nil {
		return 0
	}
	return math.Max(0, v)
}

// AllometricRatioWF returns b, the wood:foliage allocation ratio used in the
// Duursma 2007 allocation solve (§4.3 step 4).
func (s *Species) AllometricRatioWF() float64 { return s.Allometry.RatioWF }

// AllometricFractionStem returns the fraction of woody increment allocated
// to the stem (as opposed to branches/coarse roots) as a function of dbh:
// 0.65 at dbh 0, rising linearly to 0.95 at MaxDbh and constant above it;
// 0.65 for every dbh when MaxDbh is not set.
func (s *Species) AllometricFractionStem(dbh float64) float64 {
	if s.Allometry.MaxDbh <= 0 {
		return 0.65
	}
	rel := dbh / s.Allometry.MaxDbh
	return 0.65 + 0.3*clamp01(rel)
}

// RelativeHeightGrowth linearly interpolates between HDLow and HDHigh by the
// combined light index x = LRI * LRImodifier (§4.3 step 10).
func (s *Species) RelativeHeightGrowth(x float64) float64 {
	x = clamp01(x)
	return s.Allometry.HDLow + x*(s.Allometry.HDHigh-s.Allometry.HDLow)
}

// StemVolumeFactor and WoodDensity expose the constants used in the stem
// mass formula mass = vf * rho * d^2 * h (§4.3 step 10).
func (s *Species) StemVolumeFactor() float64 { return s.Allometry.FormFactor }
func (s *Species) WoodDensity() float64      { return s.Allometry.WoodDensity }

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
