/*
Package game
File: player.go
Description:
    A player inside one game session and the rules around their gold. Gold is
    individually owned, never shared, and can never go negative: every spend
    is checked and committed inside a single handler invocation under the
    session's mutation gate.
*/

package game

// Player is one participant in a session.
type Player struct {
	ID   string
	Nick string
	Gold int
}

// NewPlayer creates a player with the map's starting gold.
func NewPlayer(id, nick string, gold int) *Player {
	return &Player{ID: id, Nick: nick, Gold: gold}
}

// AddGold credits a positive amount. Zero or negative amounts are ignored.
func (p *Player) AddGold(amount int) {
	if amount > 0 {
		p.Gold += amount
	}
}

// CanAfford reports whether the player has at least cost gold.
func (p *Player) CanAfford(cost int) bool {
	return p.Gold >= cost
}

// SpendGold debits the amount when affordable and reports whether the debit
// happened.
func (p *Player) SpendGold(amount int) bool {
	if amount > 0 && p.CanAfford(amount) {
		p.Gold -= amount
		return true
	}
	return false
}
