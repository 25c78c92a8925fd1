package environment

import (
	"strings"
	"testing"

	"github.com/dendrolab/forest/config"
)

const matrixCSV = `x,y,model.species.source,model.climate.tableName,model.settings.lightExtinctionCoefficient
1,1,montane,valleyfloor,0.6
2,1,montane,valleyfloor,0.55
`

func TestLoadMatrixMode(t *testing.T) {
	env, err := Load(strings.NewReader(matrixCSV), Matrix)
	if err != nil {
		t.Fatal(err)
	}
	row, ok := env.AtMatrix(1, 1)
	if !ok {
		t.Fatal("expected a row at (1,1)")
	}
	if row.SpeciesSource != "montane" || row.ClimateTable != "valleyfloor" {
		t.Errorf("unexpected selectors: %+v", row)
	}
	if row.Overrides["model.settings.lightExtinctionCoefficient"] != 0.6 {
		t.Errorf("override = %v, want 0.6", row.Overrides["model.settings.lightExtinctionCoefficient"])
	}
}

func TestRowApplyPatchesConfig(t *testing.T) {
	env, err := Load(strings.NewReader(matrixCSV), Matrix)
	if err != nil {
		t.Fatal(err)
	}
	row, _ := env.AtMatrix(2, 1)
	cfg := config.Default()
	if unrec := row.Apply(cfg); len(unrec) != 0 {
		t.Errorf("unexpected unrecognized keys: %v", unrec)
	}
	if cfg.Model.Settings.LightExtinctionCoefficient != 0.55 {
		t.Errorf("cfg not patched: got %v", cfg.Model.Settings.LightExtinctionCoefficient)
	}
}

func TestLoadGridModeRequiresIDColumn(t *testing.T) {
	if _, err := Load(strings.NewReader("x,y\n1,1\n"), Grid); err == nil {
		t.Fatal("expected an error when grid mode input lacks an id column")
	}
}
