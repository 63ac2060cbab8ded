package parques

import (
	"math"
)

const (
	DefaultBoardWidth  = 600
	DefaultBoardHeight = 600

	ringRadiusRatio = 0.42
	jailRadiusRatio = 0.62
	// homeDepthRatio is how far toward the center the home lane reaches,
	// as a fraction of the ring radius.
	homeDepthRatio = 0.8

	soloRadiusRatio    = 0.45
	stackedRadiusRatio = 0.3
	stackSpreadRatio   = 0.25
)

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type PathPoint struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Angle float64 `json:"angle"`
}

// Board holds the pixel metrics of a room's board. Rotation is the baseline
// angle, in radians, of the first color's entry cell relative to straight down.
// It comes from server configuration; resizing a room changes only the size.
type Board struct {
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
	Rotation float64 `json:"rotation"`
}

func NewBoard(width, height float64) Board {
	if width <= 0 {
		width = DefaultBoardWidth
	}
	if height <= 0 {
		height = DefaultBoardHeight
	}
	return Board{Width: width, Height: height}
}

// WithRotation returns b turned to angle, normalized into [0, 2π). A NaN or
// infinite angle leaves b unchanged.
func (b Board) WithRotation(angle float64) Board {
	if math.IsNaN(angle) || math.IsInf(angle, 0) {
		return b
	}
	b.Rotation = normalizeAngle(angle)
	return b
}

func (b Board) Center() Point {
	return Point{X: b.Width / 2, Y: b.Height / 2}
}

func (b Board) ringRadius() float64 {
	return ringRadiusRatio * math.Min(b.Width, b.Height)
}

// CellSize is the arc length between two neighbouring ring cells.
func (b Board) CellSize() float64 {
	return 2 * math.Pi * b.ringRadius() / RingCells
}

// PathTable maps each color to its path points, indexed by Position.
type PathTable map[Color][]PathPoint

// PathPoints computes the path table for a board. The first color's route is
// laid out once and every other color gets the same shape rotated a quarter
// turn per quadrant about the board center.
func PathPoints(b Board) PathTable {
	base := canonicalPath(b)
	center := b.Center()

	table := make(PathTable, len(Colors))
	for _, color := range Colors {
		turn := float64(color.Quadrant()) * math.Pi / 2
		points := make([]PathPoint, len(base))
		for i, pt := range base {
			points[i] = rotate(pt, center, turn)
		}
		table[color] = points
	}
	return table
}

func canonicalPath(b Board) []PathPoint {
	c := b.Center()
	r := b.ringRadius()
	entry := b.Rotation + math.Pi/2

	ringAngle := func(step int) float64 {
		return entry + 2*math.Pi*float64(step)/RingCells
	}

	points := make([]PathPoint, PositionEnd+1)

	jail := entry - math.Pi/4
	points[PositionJail] = PathPoint{
		X:     c.X + jailRadiusRatio*r*math.Cos(jail),
		Y:     c.Y + jailRadiusRatio*r*math.Sin(jail),
		Angle: normalizeAngle(entry),
	}

	for p := PositionStart; p < PositionHome; p++ {
		a := ringAngle(p.TrackStep())
		points[p] = PathPoint{
			X:     c.X + r*math.Cos(a),
			Y:     c.Y + r*math.Sin(a),
			Angle: normalizeAngle(a + math.Pi/2),
		}
	}

	// The home lane runs straight toward the center from the ring cell right
	// after the last track step. END is the innermost point.
	lane := ringAngle(TrackSteps)
	spacing := homeDepthRatio * r / (HomeSteps + 1)
	for h := 0; h <= HomeSteps; h++ {
		radius := r - float64(h+1)*spacing
		points[PositionHome+Position(h)] = PathPoint{
			X:     c.X + radius*math.Cos(lane),
			Y:     c.Y + radius*math.Sin(lane),
			Angle: normalizeAngle(lane + math.Pi),
		}
	}

	return points
}

func rotate(pt PathPoint, center Point, turn float64) PathPoint {
	if turn == 0 {
		return pt
	}
	dx, dy := pt.X-center.X, pt.Y-center.Y
	sin, cos := math.Sincos(turn)
	return PathPoint{
		X:     center.X + dx*cos - dy*sin,
		Y:     center.Y + dx*sin + dy*cos,
		Angle: normalizeAngle(pt.Angle + turn),
	}
}

func normalizeAngle(a float64) float64 {
	a = math.Mod(a, 2*math.Pi)
	if a < 0 {
		a += 2 * math.Pi
	}
	return a
}

// Placement is a token's derived pixel location.
type Placement struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Angle  float64 `json:"angle"`
	Radius float64 `json:"radius"`
}

func (p Placement) finite() bool {
	for _, v := range []float64{p.X, p.Y, p.Angle, p.Radius} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Sub-grid used when several tokens share a cell.
var stackOffsets = [TokensPerPlayer]Point{
	{X: -1, Y: -1},
	{X: 1, Y: -1},
	{X: -1, Y: 1},
	{X: 1, Y: 1},
}

// TokenPoint places the occupant-th of occupancy tokens sharing the cell at
// position p of color c. The bool is false when no finite point exists.
func (t PathTable) TokenPoint(b Board, c Color, p Position, occupant, occupancy int) (Placement, bool) {
	points, ok := t[c]
	if !ok || !p.Valid() || int(p) >= len(points) {
		return Placement{}, false
	}

	pt := points[p]
	size := b.CellSize()
	place := Placement{X: pt.X, Y: pt.Y, Angle: pt.Angle, Radius: size * soloRadiusRatio}

	if occupancy > 1 {
		off := stackOffsets[occupant%len(stackOffsets)]
		spread := size * stackSpreadRatio
		place.X += off.X * spread
		place.Y += off.Y * spread
		place.Radius = size * stackedRadiusRatio
	}

	return place, place.finite()
}

type PathKey struct {
	Color    Color    `json:"color"`
	Position Position `json:"position"`
}

type TokenKey struct {
	PlayerID int `json:"playerId"`
	TokenID  int `json:"tokenId"`
}

// ValidatePathPoints returns every reachable position that lacks a usable
// path point. A freshly computed table yields nothing.
func ValidatePathPoints(t PathTable) []PathKey {
	var bad []PathKey
	for _, color := range Colors {
		points := t[color]
		for p := PositionJail; p <= PositionEnd; p++ {
			if int(p) >= len(points) {
				bad = append(bad, PathKey{Color: color, Position: p})
				continue
			}
			pt := points[p]
			if !(Placement{X: pt.X, Y: pt.Y, Angle: pt.Angle}).finite() {
				bad = append(bad, PathKey{Color: color, Position: p})
			}
		}
	}
	return bad
}

// PlaceTokens derives every token's placement. Tokens sharing a cell are
// stacked in seating order, then token id.
func PlaceTokens(b Board, t PathTable, players []*Player) (map[TokenKey]Placement, []TokenKey) {
	occ := BuildOccupancy(players)
	placed := make(map[TokenKey]Placement, len(players)*TokensPerPlayer)
	var bad []TokenKey

	for _, p := range players {
		for _, tok := range p.Tokens {
			key := TokenKey{PlayerID: p.ID, TokenID: tok.ID}
			cell := CellOf(p.Color, tok.Position)
			refs := occ[cell]
			index := 0
			for i, ref := range refs {
				if ref.PlayerID == p.ID && ref.TokenID == tok.ID {
					index = i
					break
				}
			}
			place, ok := t.TokenPoint(b, p.Color, tok.Position, index, len(refs))
			if !ok {
				bad = append(bad, key)
				continue
			}
			placed[key] = place
		}
	}
	return placed, bad
}

// ValidatePiecePositions returns the tokens whose placement is undefined.
func ValidatePiecePositions(b Board, t PathTable, players []*Player) []TokenKey {
	_, bad := PlaceTokens(b, t, players)
	return bad
}
