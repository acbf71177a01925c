package services

import "battlequiz-game/internal/models"

// Rand is the random source used to pick attack targets. Injecting it keeps
// combat resolution reproducible under a fixed seed.
type Rand interface {
	Intn(n int) int
}

// ResolveCombat scores one completed question. It walks the players in join
// order and mutates their health/shield in place; nothing is persisted here,
// so a caller can safely re-run it over the same snapshot after a storage
// failure.
//
// Per player, skipping the dead and the teamless:
//   - correct, red team: one random living opponent takes AttackDamage
//   - correct, blue team: the player banks ShieldGain
//   - wrong or unanswered: the player takes WrongDamage
//
// Kills happening mid-pass are visible to later players: a freshly dead
// opponent is no longer a valid attack target, matching the sequential
// scoring order.
func ResolveCombat(room *models.Room, players []*models.Player, correctIndex int, rng Rand) {
	for _, p := range players {
		if !p.Scoreable() {
			continue
		}

		answer, ok := room.Answers[p.ID]
		if !ok {
			answer = models.NoAnswer
		}

		if answer != correctIndex {
			p.TakeDamage(models.WrongDamage)
			continue
		}

		switch p.Team {
		case models.TeamRed:
			if target := pickOpponent(players, p, rng); target != nil {
				target.TakeDamage(models.AttackDamage)
			}
		case models.TeamBlue:
			p.Shield += models.ShieldGain
		}
	}
}

// pickOpponent chooses uniformly at random among living, team-assigned players
// other than the attacker. Nil when nobody is left to hit.
func pickOpponent(players []*models.Player, attacker *models.Player, rng Rand) *models.Player {
	pool := make([]*models.Player, 0, len(players))
	for _, p := range players {
		if p.ID == attacker.ID {
			continue
		}
		if p.Alive && p.Team != models.TeamUnassigned {
			pool = append(pool, p)
		}
	}
	if len(pool) == 0 {
		return nil
	}
	return pool[rng.Intn(len(pool))]
}

func AliveCount(players []*models.Player) int {
	count := 0
	for _, p := range players {
		if p.Alive {
			count++
		}
	}
	return count
}

// Winner determines the presentation-only winner of an ended game. Exactly one
// survivor wins outright. Nobody alive means mutual elimination and no winner.
// If the question bank ran out with several players standing, the healthiest
// wins, ties going to the earliest joiner.
func Winner(players []*models.Player) *models.Player {
	var winner *models.Player
	for _, p := range players {
		if !p.Alive {
			continue
		}
		if winner == nil || p.Health > winner.Health {
			winner = p
		}
	}
	return winner
}
