package main

import "fmt"

// Flavor templates keyed by situation. %s slots are filled in order.
var flavorPhrases = map[string][]string{
	"kill": {
		"%s deleted %s",
		"%s sent %s back to the lobby",
		"%s turned %s into loot",
		"%s outdrew %s",
		"%s made an example of %s",
	},
	"storm_kill": {
		"%s wandered too deep into %s",
		"%s was swallowed by %s",
	},
	"join": {
		"%s dropped into the arena",
		"%s is on the grid",
		"%s joined the fray",
	},
	"depart": {
		"%s vanished from the arena",
		"%s logged off",
	},
	"final_two": {
		"Two remain. No more hiding.",
		"Final duel! Last one standing takes it all.",
		"It comes down to this: two left.",
	},
	"win": {
		"%s is the last one standing!",
		"%s takes the crown!",
		"%s survives the storm!",
	},
	"storm_warn": {
		"The storm surges in %.0f seconds. Move!",
		"Zone collapse in %.0f seconds.",
	},
}

func pickPhrase(key string) string {
	pool := flavorPhrases[key]
	return pool[int(randFloat()*float64(len(pool)))%len(pool)]
}

func killFlavor(killer, victim string) string {
	if killer == "The Storm" {
		return fmt.Sprintf(pickPhrase("storm_kill"), victim, killer)
	}
	return fmt.Sprintf(pickPhrase("kill"), killer, victim)
}

func joinFlavor(name string) string {
	return fmt.Sprintf(pickPhrase("join"), name)
}

func departFlavor(name string) string {
	return fmt.Sprintf(pickPhrase("depart"), name)
}

func finalTwoFlavor() string {
	return pickPhrase("final_two")
}

func winFlavor(name string) string {
	return fmt.Sprintf(pickPhrase("win"), name)
}

func stormFlavor(grace float64) string {
	return fmt.Sprintf(pickPhrase("storm_warn"), grace)
}
