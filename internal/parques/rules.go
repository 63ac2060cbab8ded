package parques

import (
	"slices"
)

const (
	// ExitRoll is the die value that releases a token from jail.
	ExitRoll = 6
	// ExitAmount is the step count of a jail exit, from JAIL onto the entry cell.
	ExitAmount = int(PositionStart - PositionJail)

	// BonusRoll on a single die earns a two-dice roll. Doubles on two dice
	// earn another one.
	BonusRoll = 6
	// MaxConsecutiveBonus bonus rolls in one turn send the player's ring
	// tokens back to jail and end the turn.
	MaxConsecutiveBonus = 3
	// MaxJailAttempts is how many rolls a player with nothing on the board
	// gets per turn.
	MaxJailAttempts = 3

	// BlockadeSize same-colored tokens on a ring cell close it to opponents.
	BlockadeSize = 2
)

type TokenRef struct {
	PlayerID int
	Color    Color
	TokenID  int
}

// Occupancy lists the tokens on each cell in seating order, then token id.
type Occupancy map[Cell][]TokenRef

func BuildOccupancy(players []*Player) Occupancy {
	occ := make(Occupancy)
	for _, p := range players {
		for _, tok := range p.Tokens {
			cell := CellOf(p.Color, tok.Position)
			occ[cell] = append(occ[cell], TokenRef{PlayerID: p.ID, Color: p.Color, TokenID: tok.ID})
		}
	}
	return occ
}

// Blockade reports the owner of the blockade on cell, if there is one.
func (o Occupancy) Blockade(cell Cell) (Color, bool) {
	if cell.Kind != CellRing {
		return All, false
	}
	refs := o[cell]
	if len(refs) < BlockadeSize {
		return All, false
	}
	owner := refs[0].Color
	for _, ref := range refs[1:] {
		if ref.Color != owner {
			return All, false
		}
	}
	return owner, true
}

func (o Occupancy) blocks(cell Cell, mover Color) bool {
	owner, ok := o.Blockade(cell)
	return ok && owner != mover
}

// LegalMoves maps a token id (1-4) to the ascending, distinct amounts it may
// move this turn. Tokens that cannot move are absent.
type LegalMoves map[int][]int

func (m LegalMoves) Allows(tokenID, amount int) bool {
	return slices.Contains(m[tokenID], amount)
}

func (m LegalMoves) Empty() bool {
	for _, amounts := range m {
		if len(amounts) > 0 {
			return false
		}
	}
	return true
}

func (m LegalMoves) Clone() LegalMoves {
	out := make(LegalMoves, len(m))
	for id, amounts := range m {
		out[id] = slices.Clone(amounts)
	}
	return out
}

// ComputeLegalMoves returns what player may do with dice. It never mutates
// its inputs.
func ComputeLegalMoves(dice []int, player *Player, occ Occupancy) LegalMoves {
	moves := LegalMoves{}
	if len(dice) == 0 {
		return moves
	}

	candidates := candidateAmounts(dice)
	for _, tok := range player.Tokens {
		var amounts []int
		switch {
		case tok.Position.InJail():
			if slices.Contains(dice, ExitRoll) && !occ.blocks(CellOf(player.Color, PositionStart), player.Color) {
				amounts = []int{ExitAmount}
			}
		case tok.Position.AtEnd():
		default:
			for _, amount := range candidates {
				if canAdvance(player.Color, tok.Position, amount, occ) {
					amounts = append(amounts, amount)
				}
			}
		}
		if len(amounts) > 0 {
			moves[tok.ID] = amounts
		}
	}
	return moves
}

// candidateAmounts is each die on its own plus, with two dice, their sum.
func candidateAmounts(dice []int) []int {
	out := make([]int, 0, 3)
	for _, d := range dice {
		if d > 0 {
			out = append(out, d)
		}
	}
	if len(dice) == 2 && dice[0] > 0 && dice[1] > 0 {
		out = append(out, dice[0]+dice[1])
	}
	slices.Sort(out)
	return slices.Compact(out)
}

func canAdvance(c Color, from Position, amount int, occ Occupancy) bool {
	to := from + Position(amount)
	if amount <= 0 || to > PositionEnd {
		return false
	}
	for p := from + 1; p <= to; p++ {
		if p.OnRing() && occ.blocks(CellOf(c, p), c) {
			return false
		}
	}
	return true
}

// ConsumeDice removes the dice spent on a move and returns the rest. A jail
// exit spends one ExitRoll die. Any other amount spends a matching die, or
// both dice when it is their sum.
func ConsumeDice(dice []int, amount int, fromJail bool) ([]int, bool) {
	spend := amount
	if fromJail {
		spend = ExitRoll
	}
	if i := slices.Index(dice, spend); i >= 0 {
		return slices.Delete(slices.Clone(dice), i, i+1), true
	}
	if !fromJail && len(dice) == 2 && dice[0]+dice[1] == amount {
		return []int{}, true
	}
	return dice, false
}

func IsBonus(dice []int) bool {
	switch len(dice) {
	case 1:
		return dice[0] == BonusRoll
	case 2:
		return dice[0] == dice[1]
	}
	return false
}
