package tuning

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Simulation modes.
const (
	ModeTank   = "tank"
	ModeEaters = "eaters"
	ModeTaxi   = "taxi"
)

// SimConfig is the immutable engine configuration. It is built once per run
// and handed to every component by pointer; nothing mutates it after Validate.
type SimConfig struct {
	Mode         string `yaml:"mode" json:"mode"`
	Seed         int64  `yaml:"seed" json:"seed"`
	TickRateHz   int    `yaml:"tick_rate_hz" json:"tick_rate_hz"`
	MaxTicks     int    `yaml:"max_ticks" json:"max_ticks"`
	WinningScore int    `yaml:"winning_score" json:"winning_score"`

	Tank   TankConfig   `yaml:"tank" json:"tank"`
	Eaters EatersConfig `yaml:"eaters" json:"eaters"`
	Taxi   TaxiConfig   `yaml:"taxi" json:"taxi"`

	Terminate TerminateConfig `yaml:"terminate" json:"terminate"`
}

type TankConfig struct {
	MaxHealth       int `yaml:"max_health" json:"max_health"`
	MaxEnergy       int `yaml:"max_energy" json:"max_energy"`
	InitialMissiles int `yaml:"initial_missiles" json:"initial_missiles"`
	// MaxMissiles caps pickups; 0 means uncapped.
	MaxMissiles int `yaml:"max_missiles" json:"max_missiles"`
	MaxRadar    int `yaml:"max_radar" json:"max_radar"`

	CollisionPenalty  int `yaml:"collision_penalty" json:"collision_penalty"`
	MissileDamage     int `yaml:"missile_damage" json:"missile_damage"`
	MissileHitAward   int `yaml:"missile_hit_award" json:"missile_hit_award"`
	MissileHitPenalty int `yaml:"missile_hit_penalty" json:"missile_hit_penalty"`
	KillAward         int `yaml:"kill_award" json:"kill_award"`
	KillPenalty       int `yaml:"kill_penalty" json:"kill_penalty"`

	ShieldEnergyUsage int `yaml:"shield_energy_usage" json:"shield_energy_usage"`

	HealthChargerRequiresShieldsDown bool `yaml:"health_charger_requires_shields_down" json:"health_charger_requires_shields_down"`

	MaxSmellDistance int `yaml:"max_smell_distance" json:"max_smell_distance"`
	MaxSoundDistance int `yaml:"max_sound_distance" json:"max_sound_distance"`

	// Percent chance per tick that a missing missile pack respawns.
	MissilePackRespawnChance int `yaml:"missile_pack_respawn_chance" json:"missile_pack_respawn_chance"`
	MaxMissilePacks          int `yaml:"max_missile_packs" json:"max_missile_packs"`
}

type EatersConfig struct {
	VisionRadius int `yaml:"vision_radius" json:"vision_radius"`
	JumpPenalty  int `yaml:"jump_penalty" json:"jump_penalty"`
	WallPenalty  int `yaml:"wall_penalty" json:"wall_penalty"`
}

type TaxiConfig struct {
	FuelMax      int  `yaml:"fuel_max" json:"fuel_max"`
	FuelStartMin int  `yaml:"fuel_start_min" json:"fuel_start_min"`
	FuelStartMax int  `yaml:"fuel_start_max" json:"fuel_start_max"`
	DisableFuel  bool `yaml:"disable_fuel" json:"disable_fuel"`

	MoveReward           int `yaml:"move_reward" json:"move_reward"`
	DeliveryAward        int `yaml:"delivery_award" json:"delivery_award"`
	IllegalActionPenalty int `yaml:"illegal_action_penalty" json:"illegal_action_penalty"`
	FuelExhaustedPenalty int `yaml:"fuel_exhausted_penalty" json:"fuel_exhausted_penalty"`
}

type TerminateConfig struct {
	// Expressions are extra stop conditions evaluated after every tick.
	Expressions []string `yaml:"expressions" json:"expressions,omitempty"`
}

// Defaults mirror the classic tank arena constants.
func Defaults() SimConfig {
	return SimConfig{
		Mode:         ModeTank,
		Seed:         1337,
		TickRateHz:   5,
		MaxTicks:     0,
		WinningScore: 50,
		Tank: TankConfig{
			MaxHealth:                1000,
			MaxEnergy:                1000,
			InitialMissiles:          15,
			MaxMissiles:              0,
			MaxRadar:                 14,
			CollisionPenalty:         100,
			MissileDamage:            400,
			MissileHitAward:          2,
			MissileHitPenalty:        -1,
			KillAward:                3,
			KillPenalty:              -2,
			ShieldEnergyUsage:        20,
			MaxSmellDistance:         0,
			MaxSoundDistance:         7,
			MissilePackRespawnChance: 5,
			MaxMissilePacks:          3,
		},
		Eaters: EatersConfig{
			VisionRadius: 2,
			JumpPenalty:  5,
			WallPenalty:  0,
		},
		Taxi: TaxiConfig{
			FuelMax:              14,
			FuelStartMin:         5,
			FuelStartMax:         12,
			MoveReward:           -1,
			DeliveryAward:        20,
			IllegalActionPenalty: -10,
			FuelExhaustedPenalty: -20,
		},
	}
}

func Load(path string) (SimConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Defaults(), err
	}
	c, err := Parse(raw)
	if err != nil {
		return c, fmt.Errorf("tuning.yaml: %w", err)
	}
	return c, nil
}

// Parse overlays raw YAML on Defaults and validates the result.
func Parse(raw []byte) (SimConfig, error) {
	c := Defaults()
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return c, err
	}
	c.Mode = strings.ToLower(strings.TrimSpace(c.Mode))
	if err := c.Validate(); err != nil {
		return c, err
	}
	return c, nil
}

func (c SimConfig) Validate() error {
	switch c.Mode {
	case ModeTank, ModeEaters, ModeTaxi:
	default:
		return fmt.Errorf("unknown mode %q", c.Mode)
	}
	if c.TickRateHz <= 0 {
		return fmt.Errorf("tick_rate_hz must be > 0")
	}
	if c.MaxTicks < 0 {
		return fmt.Errorf("max_ticks must be >= 0")
	}
	t := c.Tank
	if t.MaxHealth <= 0 || t.MaxEnergy < 0 {
		return fmt.Errorf("tank.max_health must be > 0 and tank.max_energy >= 0")
	}
	if t.InitialMissiles < 0 || t.MaxMissiles < 0 {
		return fmt.Errorf("tank missile counts must be >= 0")
	}
	if t.MaxMissiles > 0 && t.InitialMissiles > t.MaxMissiles {
		return fmt.Errorf("tank.initial_missiles exceeds tank.max_missiles")
	}
	if t.MaxRadar < 1 {
		return fmt.Errorf("tank.max_radar must be >= 1")
	}
	if t.CollisionPenalty < 0 || t.MissileDamage < 0 || t.ShieldEnergyUsage < 0 {
		return fmt.Errorf("tank penalties and costs must be >= 0")
	}
	if t.MissilePackRespawnChance < 0 || t.MissilePackRespawnChance > 100 {
		return fmt.Errorf("tank.missile_pack_respawn_chance must be in [0,100]")
	}
	if t.MaxSoundDistance < 0 || t.MaxSmellDistance < 0 {
		return fmt.Errorf("smell/sound distances must be >= 0")
	}
	if c.Eaters.VisionRadius < 0 {
		return fmt.Errorf("eaters.vision_radius must be >= 0")
	}
	x := c.Taxi
	if !x.DisableFuel {
		if x.FuelMax <= 0 || x.FuelStartMin < 0 || x.FuelStartMin > x.FuelStartMax || x.FuelStartMax > x.FuelMax {
			return fmt.Errorf("taxi fuel bounds must satisfy 0 <= fuel_start_min <= fuel_start_max <= fuel_max")
		}
	}
	for i, e := range c.Terminate.Expressions {
		if strings.TrimSpace(e) == "" {
			return fmt.Errorf("terminate.expressions[%d] is empty", i)
		}
	}
	return nil
}
