package config

import (
	"reflect"
	"strings"
	"testing"
)

const validINI = `
[global]
wait-for-players = true
playtime = 50000
seed = 42
fps = 60
speed = 1
players = 2
seekers = 5
goals = 5
color-threshold = 200

[map]
width = 768
height = 768

[camp]
width = 175
height = 100

[seeker]
thrust = 0.1
magnet-slowdown = 0.2
disabled-time = 250
radius = 10
mass = 1
friction = 0.02

[goal]
scoring-time = 150
radius = 6
mass = 0.5
thrust = 0.1
friction = 0.02

[flags]
debug = false
dont-kill = false
`

func TestParseMatchesDefaults(t *testing.T) {
	cfg, err := Parse([]byte(validINI))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !reflect.DeepEqual(cfg, Default()) {
		t.Errorf("parsed config differs from defaults:\n%+v\nvs\n%+v", cfg, Default())
	}
}

func TestParseRejectsMissingKey(t *testing.T) {
	broken := strings.Replace(validINI, "seed = 42\n", "", 1)
	_, err := Parse([]byte(broken))
	if err == nil || !strings.Contains(err.Error(), "missing key global.seed") {
		t.Errorf("error = %v, want missing key global.seed", err)
	}
}

func TestParseRejectsUnknownKey(t *testing.T) {
	broken := validINI + "\n[global]\ngravity = 9.81\n"
	_, err := Parse([]byte(broken))
	if err == nil || !strings.Contains(err.Error(), "unknown key global.gravity") {
		t.Errorf("error = %v, want unknown key global.gravity", err)
	}
}

func TestParseRejectsUnknownSection(t *testing.T) {
	broken := validINI + "\n[rendering]\nvsync = true\n"
	if _, err := Parse([]byte(broken)); err == nil {
		t.Error("unknown section accepted")
	}
}

func TestParseRejectsBadTypes(t *testing.T) {
	broken := strings.Replace(validINI, "fps = 60", "fps = sixty", 1)
	if _, err := Parse([]byte(broken)); err == nil {
		t.Error("non-integer fps accepted")
	}
}

func TestValidateCampGeometry(t *testing.T) {
	cfg := Default()
	cfg.Camp.Height = cfg.Map.Height // two players cannot both fit
	if err := cfg.Validate(); err == nil {
		t.Error("oversized camp accepted")
	}

	cfg = Default()
	cfg.Camp.Width = cfg.Map.Width + 1
	if err := cfg.Validate(); err == nil {
		t.Error("camp wider than map accepted")
	}
}

func TestValidateFrictionRange(t *testing.T) {
	cfg := Default()
	cfg.Seeker.Friction = 1
	if err := cfg.Validate(); err == nil {
		t.Error("friction = 1 accepted")
	}

	cfg = Default()
	cfg.Goal.Friction = -0.1
	if err := cfg.Validate(); err == nil {
		t.Error("negative friction accepted")
	}
}

func TestPropertiesRoundTrip(t *testing.T) {
	cfg := Default()
	// Values that lose precision under fixed-point formatting.
	cfg.Seeker.Thrust = 1.0 / 3.0
	cfg.Goal.Mass = 0.30000000000000004
	cfg.Global.ColorThreshold = 123.456789012345

	got, err := FromProperties(cfg.Properties())
	if err != nil {
		t.Fatalf("FromProperties: %v", err)
	}
	if !reflect.DeepEqual(got, cfg) {
		t.Errorf("round trip drifted:\n%+v\nvs\n%+v", got, cfg)
	}
}

func TestFromPropertiesRejectsIncompleteMap(t *testing.T) {
	props := Default().Properties()
	delete(props, "map.width")
	if _, err := FromProperties(props); err == nil {
		t.Error("missing property accepted")
	}

	props = Default().Properties()
	props["map.depth"] = "3"
	if _, err := FromProperties(props); err == nil {
		t.Error("extra property accepted")
	}
}
