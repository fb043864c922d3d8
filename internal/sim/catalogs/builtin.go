package catalogs

// Template names referenced by the engine when it places objects on its own.
const (
	Wall          = "wall"
	HealthCharger = "health"
	EnergyCharger = "energy"
	MissilePack   = "missiles"
	Missile       = "missile"
	Explosion     = "explosion"
	Food          = "normalfood"
	BonusFood     = "bonusfood"
	FuelStation   = "fuel"
	Passenger     = "passenger"
)

func builtinTemplates() []Template {
	return []Template{
		{Name: Wall, Kind: KindWall, Symbol: "#", Props: Props{Blocking: true}},
		{Name: HealthCharger, Kind: KindHealthCharger, Symbol: "H", Props: Props{HealthDelta: 150}},
		{Name: EnergyCharger, Kind: KindEnergyCharger, Symbol: "E", Props: Props{EnergyDelta: 250}},
		{Name: MissilePack, Kind: KindMissilePack, Symbol: "M", Props: Props{MissilesDelta: 7, Consumable: true}},
		{Name: Missile, Kind: KindMissile, Props: Props{Update: UpdateFlight}},
		{Name: Explosion, Kind: KindExplosion, Props: Props{Update: UpdateLifetime, Lifetime: 1}},
		{Name: Food, Kind: KindFood, Symbol: ".", Props: Props{Points: 5, Consumable: true}},
		{Name: BonusFood, Kind: KindBonusFood, Symbol: "*", Props: Props{Points: 10, Consumable: true}},
		{Name: FuelStation, Kind: KindFuelStation, Symbol: "F"},
		{Name: "red", Kind: KindDestination, Symbol: "R", Props: Props{Color: "red"}},
		{Name: "green", Kind: KindDestination, Symbol: "G", Props: Props{Color: "green"}},
		{Name: "blue", Kind: KindDestination, Symbol: "B", Props: Props{Color: "blue"}},
		{Name: "yellow", Kind: KindDestination, Symbol: "Y", Props: Props{Color: "yellow"}},
		{Name: Passenger, Kind: KindPassenger},
	}
}

// Builtin returns the default template library used when no templates.yaml is supplied.
func Builtin() *Catalog {
	c, err := FromTemplates(builtinTemplates())
	if err != nil {
		panic(err)
	}
	return c
}
