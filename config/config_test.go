package config

import "testing"

func TestDefaultPassesValidation(t *testing.T) {
	c := Default()
	c.Model.Settings.Soil.EL = 0.6
	c.Model.Settings.Soil.ER = 0.6
	c.Model.Settings.Soil.Leaching = 0.15
	c.Model.Settings.Soil.QB = 5
	c.Model.Settings.Soil.QH = 20
	if err := c.Model.Site.ValidateSettings(c.Model.Settings); err != nil {
		t.Fatalf("unexpected validation error: %v", err)
	}
}

func TestValidateSettingsRejectsNonPositiveExtinction(t *testing.T) {
	c := Default()
	c.Model.Settings.LightExtinctionCoefficient = 0
	if err := c.Model.Site.ValidateSettings(c.Model.Settings); err == nil {
		t.Fatal("expected InvalidSite error for zero lightExtinctionCoefficient")
	}
}

func TestSetAppliesKnownKey(t *testing.T) {
	c := Default()
	if !c.Set("model.settings.growthEnabled", 0) {
		t.Fatal("expected Set to recognize growthEnabled")
	}
	if c.Model.Settings.GrowthEnabled {
		t.Error("growthEnabled should be false after Set(..., 0)")
	}
}

func TestSetIgnoresUnknownKey(t *testing.T) {
	c := Default()
	if c.Set("model.settings.doesNotExist", 1) {
		t.Fatal("expected Set to report false for an unknown key")
	}
}
