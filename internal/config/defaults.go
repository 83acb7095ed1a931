package config

// Default returns the stock tournament configuration. Drivers normally load
// an INI file; this is the reference parameter set used by tests and by the
// shipped config.ini.
func Default() *Config {
	return &Config{
		Global: GlobalSection{
			WaitForPlayers: true,
			Playtime:       50000,
			Seed:           42,
			FPS:            60,
			Speed:          1,
			Players:        2,
			Seekers:        5,
			Goals:          5,
			ColorThreshold: 200,
		},
		Map:  MapSection{Width: 768, Height: 768},
		Camp: CampSection{Width: 175, Height: 100},
		Seeker: SeekerSection{
			Thrust:         0.1,
			MagnetSlowdown: 0.2,
			DisabledTime:   250,
			Radius:         10,
			Mass:           1,
			Friction:       0.02,
		},
		Goal: GoalSection{
			ScoringTime: 150,
			Radius:      6,
			Mass:        0.5,
			Thrust:      0.1,
			Friction:    0.02,
		},
		Flags: FlagsSection{Debug: false, DontKill: false},
	}
}
