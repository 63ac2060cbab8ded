package parques

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"parques-server/internal/game"
)

const (
	MinPlayers      = 2
	MaxPlayers      = 4
	TokensPerPlayer = 4

	MinNameLength = 4
	MaxNameLength = 16

	DiceFaces = game.Faces

	// QuadrantCells is the number of shared ring cells per color side.
	QuadrantCells = 11
	RingCells     = QuadrantCells * 4

	// TrackSteps is how many ring cells a token walks, counting its entry cell,
	// before turning into its home stretch.
	TrackSteps = 40
	HomeSteps  = 7
)

// Position is a token's logical place on its own color's route.
//
//	0                       JAIL
//	1 .. TrackSteps         ring, track step 0 .. TrackSteps-1
//	TrackSteps+1 .. +7      home stretch
//	PositionEnd             END
type Position int

const (
	PositionJail  Position = 0
	PositionStart Position = 1
	PositionHome  Position = PositionStart + TrackSteps
	PositionEnd   Position = PositionHome + HomeSteps
)

func (p Position) InJail() bool { return p == PositionJail }

func (p Position) OnRing() bool { return p >= PositionStart && p < PositionHome }

func (p Position) InHome() bool { return p >= PositionHome && p < PositionEnd }

func (p Position) AtEnd() bool { return p == PositionEnd }

func (p Position) Valid() bool { return p >= PositionJail && p <= PositionEnd }

// TrackStep is the number of steps from the color's entry cell. Only
// meaningful on the ring.
func (p Position) TrackStep() int { return int(p - PositionStart) }

func (p Position) String() string {
	switch {
	case p.InJail():
		return "JAIL"
	case p.OnRing():
		return fmt.Sprintf("TRACK(%d)", p.TrackStep())
	case p.InHome():
		return fmt.Sprintf("HOME(%d)", int(p-PositionHome))
	case p.AtEnd():
		return "END"
	}
	return fmt.Sprintf("Position(%d)", int(p))
}

// EntryCell is the ring index a color's tokens enter on when leaving jail.
func EntryCell(c Color) int {
	return c.Quadrant() * QuadrantCells
}

// RingCell maps a ring position of color c to the shared ring index.
func RingCell(c Color, p Position) int {
	return (EntryCell(c) + p.TrackStep()) % RingCells
}

type CellKind int

const (
	CellJail CellKind = iota
	CellRing
	CellHome
	CellEnd
)

// Cell identifies a physical board spot. Ring cells are shared, so their
// Color is All; every other kind belongs to one color.
type Cell struct {
	Kind  CellKind
	Color Color
	Index int
}

func CellOf(c Color, p Position) Cell {
	switch {
	case p.OnRing():
		return Cell{Kind: CellRing, Color: All, Index: RingCell(c, p)}
	case p.InHome():
		return Cell{Kind: CellHome, Color: c, Index: int(p - PositionHome)}
	case p.AtEnd():
		return Cell{Kind: CellEnd, Color: c}
	}
	return Cell{Kind: CellJail, Color: c}
}

type Token struct {
	ID       int      `json:"id"`
	Position Position `json:"position"`
}

type Player struct {
	ID        int
	Name      string
	Color     Color
	Tokens    [TokensPerPlayer]Token
	Connected bool
	// Left is set when the player walks away from a started game. The seat is
	// kept but no longer counts as occupied.
	Left bool
}

func NewPlayer(id int, name string, color Color) *Player {
	p := &Player{
		ID:        id,
		Name:      name,
		Color:     color,
		Connected: true,
	}
	for i := range p.Tokens {
		p.Tokens[i] = Token{ID: i + 1, Position: PositionJail}
	}
	return p
}

// Token returns the token with the given 1-based id.
func (p *Player) Token(id int) (*Token, error) {
	if id < 1 || id > TokensPerPlayer {
		return nil, fmt.Errorf("token %d: %w", id, ErrIllegalMove)
	}
	return &p.Tokens[id-1], nil
}

func (p *Player) Finished() bool {
	for _, t := range p.Tokens {
		if !t.Position.AtEnd() {
			return false
		}
	}
	return true
}

// Stuck reports whether no token is out on the board.
func (p *Player) Stuck() bool {
	for _, t := range p.Tokens {
		if t.Position.OnRing() || t.Position.InHome() {
			return false
		}
	}
	return true
}

// ValidateName checks the 4-16 character rule on the trimmed name.
func ValidateName(name string) (string, error) {
	name = strings.TrimSpace(name)
	n := utf8.RuneCountInString(name)
	if n < MinNameLength || n > MaxNameLength {
		return name, ErrInvalidNameLength
	}
	return name, nil
}
