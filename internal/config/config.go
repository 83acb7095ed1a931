// Package config provides centralized configuration management.
// The game half is loaded from a sectioned INI file and is the SINGLE
// SOURCE OF TRUTH for every physics constant; the server half comes from
// environment variables.
//
// Every key in the INI schema is required. A missing or unknown key is a
// fatal load error, never a silent default: two processes that disagree on
// a physics constant cannot produce the same simulation.
package config

import (
	"fmt"
	"os"
	"sort"
	"strconv"

	"gopkg.in/ini.v1"
)

// GlobalSection holds game-wide parameters ([global] in the INI file).
type GlobalSection struct {
	WaitForPlayers bool
	Playtime       int64
	Seed           int64
	FPS            int
	Speed          int
	Players        int
	Seekers        int
	Goals          int
	ColorThreshold float64
}

// MapSection holds the world dimensions ([map]).
type MapSection struct {
	Width  float64
	Height float64
}

// CampSection holds the per-player home zone dimensions ([camp]).
type CampSection struct {
	Width  float64
	Height float64
}

// SeekerSection holds the seeker physics constants ([seeker]).
type SeekerSection struct {
	Thrust         float64
	MagnetSlowdown float64
	DisabledTime   int
	Radius         float64
	Mass           float64
	Friction       float64
}

// GoalSection holds the goal physics constants ([goal]).
type GoalSection struct {
	ScoringTime int
	Radius      float64
	Mass        float64
	Thrust      float64
	Friction    float64
}

// FlagsSection holds debug toggles ([flags]).
type FlagsSection struct {
	Debug    bool
	DontKill bool
}

// Config is the fully-typed, immutable-after-load game configuration.
type Config struct {
	Global GlobalSection
	Map    MapSection
	Camp   CampSection
	Seeker SeekerSection
	Goal   GoalSection
	Flags  FlagsSection
}

type fieldKind int

const (
	kindBool fieldKind = iota
	kindInt
	kindInt64
	kindFloat
)

// entry binds one "section.key-with-dashes" INI key to a struct field.
type entry struct {
	section string
	key     string
	kind    fieldKind
	ptr     any
}

func (c *Config) schema() []entry {
	return []entry{
		{"global", "wait-for-players", kindBool, &c.Global.WaitForPlayers},
		{"global", "playtime", kindInt64, &c.Global.Playtime},
		{"global", "seed", kindInt64, &c.Global.Seed},
		{"global", "fps", kindInt, &c.Global.FPS},
		{"global", "speed", kindInt, &c.Global.Speed},
		{"global", "players", kindInt, &c.Global.Players},
		{"global", "seekers", kindInt, &c.Global.Seekers},
		{"global", "goals", kindInt, &c.Global.Goals},
		{"global", "color-threshold", kindFloat, &c.Global.ColorThreshold},

		{"map", "width", kindFloat, &c.Map.Width},
		{"map", "height", kindFloat, &c.Map.Height},

		{"camp", "width", kindFloat, &c.Camp.Width},
		{"camp", "height", kindFloat, &c.Camp.Height},

		{"seeker", "thrust", kindFloat, &c.Seeker.Thrust},
		{"seeker", "magnet-slowdown", kindFloat, &c.Seeker.MagnetSlowdown},
		{"seeker", "disabled-time", kindInt, &c.Seeker.DisabledTime},
		{"seeker", "radius", kindFloat, &c.Seeker.Radius},
		{"seeker", "mass", kindFloat, &c.Seeker.Mass},
		{"seeker", "friction", kindFloat, &c.Seeker.Friction},

		{"goal", "scoring-time", kindInt, &c.Goal.ScoringTime},
		{"goal", "radius", kindFloat, &c.Goal.Radius},
		{"goal", "mass", kindFloat, &c.Goal.Mass},
		{"goal", "thrust", kindFloat, &c.Goal.Thrust},
		{"goal", "friction", kindFloat, &c.Goal.Friction},

		{"flags", "debug", kindBool, &c.Flags.Debug},
		{"flags", "dont-kill", kindBool, &c.Flags.DontKill},
	}
}

func setField(e entry, raw string) error {
	switch e.kind {
	case kindBool:
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return fmt.Errorf("%s.%s: %q is not a bool", e.section, e.key, raw)
		}
		*e.ptr.(*bool) = v
	case kindInt:
		v, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("%s.%s: %q is not an int", e.section, e.key, raw)
		}
		*e.ptr.(*int) = v
	case kindInt64:
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return fmt.Errorf("%s.%s: %q is not an int", e.section, e.key, raw)
		}
		*e.ptr.(*int64) = v
	case kindFloat:
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return fmt.Errorf("%s.%s: %q is not a float", e.section, e.key, raw)
		}
		*e.ptr.(*float64) = v
	}
	return nil
}

func formatField(e entry) string {
	switch e.kind {
	case kindBool:
		return strconv.FormatBool(*e.ptr.(*bool))
	case kindInt:
		return strconv.Itoa(*e.ptr.(*int))
	case kindInt64:
		return strconv.FormatInt(*e.ptr.(*int64), 10)
	default:
		// Full round-trip precision. Physics constants crossing the wire
		// must survive exactly or the client simulation diverges.
		return strconv.FormatFloat(*e.ptr.(*float64), 'g', -1, 64)
	}
}

// Parse loads a Config from INI-formatted bytes, enforcing the strict
// schema: every key required, unknown sections and keys rejected.
func Parse(data []byte) (*Config, error) {
	f, err := ini.Load(data)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	cfg := &Config{}
	schema := cfg.schema()

	known := make(map[string]entry, len(schema))
	for _, e := range schema {
		known[e.section+"."+e.key] = e
	}

	// Reject anything the schema does not name.
	for _, sec := range f.Sections() {
		if sec.Name() == ini.DefaultSection {
			if len(sec.Keys()) > 0 {
				return nil, fmt.Errorf("config: key %q outside of any section", sec.Keys()[0].Name())
			}
			continue
		}
		for _, key := range sec.Keys() {
			if _, ok := known[sec.Name()+"."+key.Name()]; !ok {
				return nil, fmt.Errorf("config: unknown key %s.%s", sec.Name(), key.Name())
			}
		}
	}

	// Every schema key must be present.
	for _, e := range schema {
		sec, err := f.GetSection(e.section)
		if err != nil {
			return nil, fmt.Errorf("config: missing section [%s]", e.section)
		}
		if !sec.HasKey(e.key) {
			return nil, fmt.Errorf("config: missing key %s.%s", e.section, e.key)
		}
		if err := setField(e, sec.Key(e.key).String()); err != nil {
			return nil, fmt.Errorf("config: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load reads and parses the INI config file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return Parse(data)
}

// Validate checks the cross-field invariants that make a game startable.
func (c *Config) Validate() error {
	switch {
	case c.Map.Width <= 0 || c.Map.Height <= 0:
		return fmt.Errorf("config: map dimensions must be positive (%gx%g)", c.Map.Width, c.Map.Height)
	case c.Global.Players <= 0:
		return fmt.Errorf("config: global.players must be positive (%d)", c.Global.Players)
	case c.Global.Seekers <= 0 || c.Global.Goals <= 0:
		return fmt.Errorf("config: global.seekers and global.goals must be positive")
	case c.Global.Speed <= 0 || c.Global.FPS <= 0:
		return fmt.Errorf("config: global.speed and global.fps must be positive")
	case c.Seeker.Mass <= 0 || c.Goal.Mass <= 0:
		return fmt.Errorf("config: entity masses must be positive")
	case c.Seeker.Radius < 0 || c.Goal.Radius < 0:
		return fmt.Errorf("config: entity radii must be non-negative")
	case c.Seeker.Friction < 0 || c.Seeker.Friction >= 1:
		return fmt.Errorf("config: seeker.friction must be in [0,1) (%g)", c.Seeker.Friction)
	case c.Goal.Friction < 0 || c.Goal.Friction >= 1:
		return fmt.Errorf("config: goal.friction must be in [0,1) (%g)", c.Goal.Friction)
	case c.Seeker.DisabledTime < 0 || c.Goal.ScoringTime <= 0:
		return fmt.Errorf("config: seeker.disabled-time must be non-negative and goal.scoring-time positive")
	}

	// Camps are laid out in a vertical column, one world-height slice per
	// player. A camp taller than its slice would overlap its neighbour and
	// containment would become ambiguous.
	slice := c.Map.Height / float64(c.Global.Players)
	if c.Camp.Height > slice {
		return fmt.Errorf(
			"config: camp.height (%g) is too large for %d players; it must be smaller than map.height/players (%g)",
			c.Camp.Height, c.Global.Players, slice)
	}
	if c.Camp.Width > c.Map.Width {
		return fmt.Errorf("config: camp.width (%g) exceeds map.width (%g)", c.Camp.Width, c.Map.Width)
	}
	return nil
}

// Properties serializes the config as a flat "section.key" map, the wire
// form served by the properties endpoint.
func (c *Config) Properties() map[string]string {
	out := make(map[string]string)
	for _, e := range c.schema() {
		out[e.section+"."+e.key] = formatField(e)
	}
	return out
}

// FromProperties reconstructs a Config from the wire map produced by
// Properties. Missing or extra keys are errors, same as for files.
func FromProperties(props map[string]string) (*Config, error) {
	cfg := &Config{}
	schema := cfg.schema()

	known := make(map[string]bool, len(schema))
	for _, e := range schema {
		known[e.section+"."+e.key] = true
	}
	var extra []string
	for k := range props {
		if !known[k] {
			extra = append(extra, k)
		}
	}
	if len(extra) > 0 {
		sort.Strings(extra)
		return nil, fmt.Errorf("config: unknown properties %v", extra)
	}

	for _, e := range schema {
		raw, ok := props[e.section+"."+e.key]
		if !ok {
			return nil, fmt.Errorf("config: missing property %s.%s", e.section, e.key)
		}
		if err := setField(e, raw); err != nil {
			return nil, fmt.Errorf("config: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
