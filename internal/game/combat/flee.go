package combat

import (
	"github.com/cory-johannsen/textworld/internal/game/world"
)

// Flee attempts to end attackerID's combat by escaping through a random
// exit of their current room, per spec.md §4.4: succeeds with probability
// fleeSuccessProbability, failing gracefully (preserving the combat entry)
// when the attacker isn't fighting or the room has no exits.
//
// Postcondition: on success, returns the chosen direction, fled=true, and
// the combat entry is removed. On a failed roll, fled=false, err=nil, and
// the combat entry is left untouched so the fight continues.
func (e *Engine) Flee(attackerID string, exits map[world.Direction]string) (direction world.Direction, fled bool, err error) {
	if !e.InCombat(attackerID) {
		return "", false, errNotInCombat
	}
	if len(exits) == 0 {
		return "", false, errNoExits
	}

	dirs := make([]world.Direction, 0, len(exits))
	for d := range exits {
		dirs = append(dirs, d)
	}

	if e.rng.Float64() >= e.fleeSuccessProbability {
		return "", false, nil
	}

	chosen := dirs[e.rng.Intn(len(dirs))]
	e.Stop(attackerID)
	return chosen, true, nil
}

var (
	errNotInCombat = combatError("not currently in combat")
	errNoExits     = combatError("There is nowhere to run!")
)
