package parques

import (
	"fmt"
	"math"
	"slices"
	"time"

	"parques-server/internal/game"
)

type Status string

const (
	StatusCreated  Status = "CREATED"
	StatusOngoing  Status = "ONGOING"
	StatusFinished Status = "FINISHED"
)

type Phase string

const (
	PhaseIdle            Phase = "idle"
	PhaseAwaitingRoll    Phase = "awaiting-roll"
	PhaseAwaitingDiceAck Phase = "awaiting-dice-ack"
	PhaseAwaitingMove    Phase = "awaiting-move-selection"
	PhaseAwaitingMoveAck Phase = "awaiting-move-ack"
)

// Room is one match. It is not safe for concurrent use; callers serialize
// every call through a single goroutine.
type Room struct {
	ID        int
	Name      string
	CreatorID int
	Players   []*Player
	Status    Status
	Phase     Phase
	// Current indexes Players while the game is ongoing.
	Current     int
	Dice        []int
	EnabledDice int
	Moves       LegalMoves
	WinnerID    int

	Board          Board
	Paths          PathTable
	GeometryErrors int

	CreatedAt  time.Time
	StartedAt  time.Time
	FinishedAt time.Time

	remaining    []int
	bonus        bool
	bonusStreak  int
	jailAttempts int
	penalized    bool

	roller game.Roller
	now    func() time.Time
}

type Option func(*Room)

func WithRoller(roller game.Roller) Option {
	return func(r *Room) { r.roller = roller }
}

func WithBoard(b Board) Option {
	return func(r *Room) { r.Board = b }
}

func WithClock(now func() time.Time) Option {
	return func(r *Room) { r.now = now }
}

// NewRoom opens a room with its creator seated as the first color.
func NewRoom(id int, name string, creatorID int, creatorName string, opts ...Option) *Room {
	r := &Room{
		ID:          id,
		Name:        name,
		CreatorID:   creatorID,
		Status:      StatusCreated,
		Phase:       PhaseIdle,
		Dice:        []int{1},
		EnabledDice: 1,
		Moves:       LegalMoves{},
		Board:       NewBoard(DefaultBoardWidth, DefaultBoardHeight),
		roller:      game.NewRandomRoller(),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}

	r.Players = []*Player{NewPlayer(creatorID, creatorName, Colors[0])}
	r.Paths = PathPoints(r.Board)
	r.CreatedAt = r.now()
	return r
}

/*
 * Seating
 */

func (r *Room) seat(playerID int) (int, *Player) {
	for i, p := range r.Players {
		if p.ID == playerID {
			return i, p
		}
	}
	return -1, nil
}

func (r *Room) Seated(playerID int) bool {
	_, p := r.seat(playerID)
	return p != nil && !p.Left
}

func (r *Room) Player(playerID int) (*Player, bool) {
	_, p := r.seat(playerID)
	return p, p != nil
}

func (r *Room) CurrentPlayer() *Player {
	if r.Status != StatusOngoing || len(r.Players) == 0 {
		return nil
	}
	return r.Players[r.Current]
}

func (r *Room) Winner() *Player {
	if r.Status != StatusFinished {
		return nil
	}
	_, p := r.seat(r.WinnerID)
	return p
}

// LobbyVisible reports whether the room is still open for joining.
func (r *Room) LobbyVisible() bool {
	return r.Status == StatusCreated
}

// Vacated reports whether no seat is occupied anymore.
func (r *Room) Vacated() bool {
	for _, p := range r.Players {
		if !p.Left {
			return false
		}
	}
	return true
}

// Join seats a player under the next free color after the last one handed
// out. Joining a room the player already sits in returns their color.
func (r *Room) Join(playerID int, name string) (Color, error) {
	if _, p := r.seat(playerID); p != nil {
		p.Left = false
		p.Connected = true
		return p.Color, nil
	}
	if r.Status != StatusCreated {
		return All, fmt.Errorf("join room %d: %w", r.ID, ErrInvalidRoomState)
	}
	if len(r.Players) >= MaxPlayers {
		return All, fmt.Errorf("join room %d: %w", r.ID, ErrRoomFull)
	}

	color := r.nextColor()
	r.Players = append(r.Players, NewPlayer(playerID, name, color))
	return color, nil
}

func (r *Room) nextColor() Color {
	if len(r.Players) == 0 {
		return Colors[0]
	}
	used := make(map[Color]bool, len(r.Players))
	for _, p := range r.Players {
		used[p.Color] = true
	}
	c := r.Players[len(r.Players)-1].Color.Next()
	for used[c] {
		c = c.Next()
	}
	return c
}

type LeaveResult struct {
	Vacated    bool
	TurnPassed bool
}

// Leave frees the seat of a room that has not started. In a started room the
// seat is kept and marked left; if it had the floor the turn moves on.
func (r *Room) Leave(playerID int) (LeaveResult, error) {
	i, p := r.seat(playerID)
	if p == nil || p.Left {
		return LeaveResult{}, fmt.Errorf("leave room %d: %w", r.ID, ErrNotInRoom)
	}

	var res LeaveResult
	switch r.Status {
	case StatusCreated:
		r.Players = slices.Delete(r.Players, i, i+1)
		if playerID == r.CreatorID && len(r.Players) > 0 {
			r.CreatorID = r.Players[0].ID
		}
	default:
		p.Left = true
		p.Connected = false
		if r.Status == StatusOngoing && r.Current == i && !r.Vacated() {
			r.resetRoll()
			r.advance()
			res.TurnPassed = true
		}
	}

	res.Vacated = r.Vacated()
	return res, nil
}

func (r *Room) SetConnected(playerID int, connected bool) error {
	_, p := r.seat(playerID)
	if p == nil {
		return fmt.Errorf("room %d: %w", r.ID, ErrNotInRoom)
	}
	p.Connected = connected
	return nil
}

func (r *Room) Rename(playerID int, name string) error {
	if err := r.creatorOnly(playerID); err != nil {
		return err
	}
	if r.Status != StatusCreated {
		return fmt.Errorf("rename room %d: %w", r.ID, ErrInvalidRoomState)
	}
	name, err := ValidateName(name)
	if err != nil {
		return err
	}
	r.Name = name
	return nil
}

// Resize changes the board metrics and recomputes the path table.
func (r *Room) Resize(playerID int, width, height float64) error {
	if err := r.creatorOnly(playerID); err != nil {
		return err
	}
	if !(width > 0 && height > 0) || math.IsInf(width, 0) || math.IsInf(height, 0) {
		return ErrInvalidBoard
	}
	r.Board.Width = width
	r.Board.Height = height
	r.Paths = PathPoints(r.Board)
	return nil
}

func (r *Room) creatorOnly(playerID int) error {
	if !r.Seated(playerID) {
		return fmt.Errorf("room %d: %w", r.ID, ErrNotInRoom)
	}
	if playerID != r.CreatorID {
		return fmt.Errorf("room %d: %w", r.ID, ErrNotCreator)
	}
	return nil
}

/*
 * Turn loop
 */

func (r *Room) Start(playerID int) error {
	if err := r.creatorOnly(playerID); err != nil {
		return err
	}
	if r.Status != StatusCreated {
		return fmt.Errorf("start room %d: %w", r.ID, ErrInvalidRoomState)
	}
	if len(r.Players) < MinPlayers {
		return fmt.Errorf("start room %d with %d players: %w", r.ID, len(r.Players), ErrInvalidRoomState)
	}

	r.Status = StatusOngoing
	r.StartedAt = r.now()
	r.Current = 0
	r.resetRoll()
	r.bonusStreak = 0
	r.jailAttempts = 0
	r.setEnabledDice(1)
	r.Phase = PhaseAwaitingRoll
	return nil
}

func (r *Room) turnPlayer(playerID int) (*Player, error) {
	if r.Status != StatusOngoing {
		return nil, fmt.Errorf("room %d is %s: %w", r.ID, r.Status, ErrInvalidRoomState)
	}
	i, p := r.seat(playerID)
	if p == nil || p.Left {
		return nil, fmt.Errorf("room %d: %w", r.ID, ErrNotInRoom)
	}
	if i != r.Current {
		return nil, fmt.Errorf("room %d: %w", r.ID, ErrNotYourTurn)
	}
	return p, nil
}

type RollResult struct {
	Dice  []int `json:"dice"`
	Bonus bool  `json:"bonus"`
	// Penalty lists the tokens sent back to jail by a streak of bonus rolls.
	Penalty []PieceMovement `json:"penalty,omitempty"`
}

func (r *Room) Roll(playerID int) (RollResult, error) {
	p, err := r.turnPlayer(playerID)
	if err != nil {
		return RollResult{}, err
	}
	if r.Phase != PhaseAwaitingRoll {
		return RollResult{}, fmt.Errorf("roll in phase %s: %w", r.Phase, ErrInvalidRoomState)
	}

	dice := r.roller.Roll(r.EnabledDice)
	r.Dice = slices.Clone(dice)
	r.remaining = slices.Clone(dice)
	r.bonus = IsBonus(dice)
	if r.bonus {
		r.bonusStreak++
	}

	res := RollResult{Dice: slices.Clone(dice), Bonus: r.bonus}
	if r.bonus && r.bonusStreak >= MaxConsecutiveBonus {
		res.Penalty = r.jailRingTokens(p)
		r.penalized = true
		r.remaining = nil
		r.Moves = LegalMoves{}
	} else {
		r.Moves = ComputeLegalMoves(r.remaining, p, BuildOccupancy(r.Players))
	}

	r.Phase = PhaseAwaitingDiceAck
	return res, nil
}

func (r *Room) jailRingTokens(p *Player) []PieceMovement {
	var moved []PieceMovement
	for i := range p.Tokens {
		tok := &p.Tokens[i]
		if !tok.Position.OnRing() {
			continue
		}
		moved = append(moved, PieceMovement{
			PlayerID: p.ID,
			TokenID:  tok.ID,
			Mov:      int(PositionJail - tok.Position),
			From:     tok.Position,
			To:       PositionJail,
		})
		tok.Position = PositionJail
	}
	return moved
}

// TurnUpdate is what clients need once an animation gate opens: who has the
// floor, how many dice they roll, and which tokens they may move.
type TurnUpdate struct {
	Player      PlayerView `json:"player"`
	EnabledDice int        `json:"enabledDice"`
	Pieces      LegalMoves `json:"pieces"`
	Phase       Phase      `json:"phase"`
}

// AckDice opens the gate after the dice animation. Only the first ack for a
// roll counts; the bool reports whether this call opened it.
func (r *Room) AckDice(playerID int) (TurnUpdate, bool, error) {
	if !r.Seated(playerID) {
		return TurnUpdate{}, false, fmt.Errorf("room %d: %w", r.ID, ErrNotInRoom)
	}
	if r.Status != StatusOngoing || r.Phase != PhaseAwaitingDiceAck {
		return TurnUpdate{}, false, nil
	}

	if r.Moves.Empty() {
		r.closeRoll(false)
	} else {
		r.Phase = PhaseAwaitingMove
	}
	return r.TurnUpdate(), true, nil
}

type PieceMovement struct {
	PlayerID int             `json:"player"`
	TokenID  int             `json:"piece"`
	Mov      int             `json:"mov"`
	From     Position        `json:"from"`
	To       Position        `json:"to"`
	Captures []PieceMovement `json:"captures,omitempty"`
}

func (r *Room) Move(playerID, tokenID, amount int) (PieceMovement, error) {
	p, err := r.turnPlayer(playerID)
	if err != nil {
		return PieceMovement{}, err
	}
	if r.Phase != PhaseAwaitingMove {
		return PieceMovement{}, fmt.Errorf("move in phase %s: %w", r.Phase, ErrInvalidRoomState)
	}
	if !r.Moves.Allows(tokenID, amount) {
		return PieceMovement{}, fmt.Errorf("token %d by %d: %w", tokenID, amount, ErrIllegalMove)
	}

	tok, err := p.Token(tokenID)
	if err != nil {
		return PieceMovement{}, err
	}
	remaining, ok := ConsumeDice(r.remaining, amount, tok.Position.InJail())
	if !ok {
		return PieceMovement{}, fmt.Errorf("no die covers %d: %w", amount, ErrIllegalMove)
	}

	occ := BuildOccupancy(r.Players)
	from := tok.Position
	tok.Position = from + Position(amount)
	r.remaining = remaining

	mv := PieceMovement{
		PlayerID: p.ID,
		TokenID:  tok.ID,
		Mov:      amount,
		From:     from,
		To:       tok.Position,
		Captures: r.capture(p, tok.Position, occ),
	}

	if p.Finished() {
		r.finish(p)
		return mv, nil
	}

	r.Moves = ComputeLegalMoves(r.remaining, p, BuildOccupancy(r.Players))
	r.Phase = PhaseAwaitingMoveAck
	return mv, nil
}

// capture sends a lone opposing token on the landing cell back to jail. occ
// is the occupancy from before the move.
func (r *Room) capture(mover *Player, landed Position, occ Occupancy) []PieceMovement {
	cell := CellOf(mover.Color, landed)
	if cell.Kind != CellRing {
		return nil
	}
	refs := occ[cell]
	if len(refs) != 1 || refs[0].Color == mover.Color {
		return nil
	}

	_, victim := r.seat(refs[0].PlayerID)
	if victim == nil {
		return nil
	}
	tok, err := victim.Token(refs[0].TokenID)
	if err != nil {
		return nil
	}

	captured := PieceMovement{
		PlayerID: victim.ID,
		TokenID:  tok.ID,
		Mov:      int(PositionJail - tok.Position),
		From:     tok.Position,
		To:       PositionJail,
	}
	tok.Position = PositionJail
	return []PieceMovement{captured}
}

// AckMove opens the gate after a move animation. The same player keeps
// moving while legal moves remain; otherwise the roll is closed.
func (r *Room) AckMove(playerID int) (TurnUpdate, bool, error) {
	if !r.Seated(playerID) {
		return TurnUpdate{}, false, fmt.Errorf("room %d: %w", r.ID, ErrNotInRoom)
	}
	if r.Status != StatusOngoing || r.Phase != PhaseAwaitingMoveAck {
		return TurnUpdate{}, false, nil
	}

	if r.Moves.Empty() {
		r.closeRoll(true)
	} else {
		r.Phase = PhaseAwaitingMove
	}
	return r.TurnUpdate(), true, nil
}

func (r *Room) closeRoll(moved bool) {
	p := r.Players[r.Current]
	switch {
	case r.penalized:
		r.advance()
	case r.bonus:
		r.setEnabledDice(2)
		r.jailAttempts = 0
		r.Phase = PhaseAwaitingRoll
	case !moved && p.Stuck() && r.jailAttempts+1 < MaxJailAttempts:
		r.jailAttempts++
		r.Phase = PhaseAwaitingRoll
	default:
		r.advance()
	}
	r.resetRoll()
}

func (r *Room) resetRoll() {
	r.remaining = nil
	r.Moves = LegalMoves{}
	r.bonus = false
	r.penalized = false
}

// advance hands the floor to the next seat in join order, skipping seats
// whose players have left.
func (r *Room) advance() {
	n := len(r.Players)
	for step := 1; step <= n; step++ {
		next := (r.Current + step) % n
		if !r.Players[next].Left {
			r.Current = next
			break
		}
	}
	r.bonusStreak = 0
	r.jailAttempts = 0
	r.setEnabledDice(1)
	r.Phase = PhaseAwaitingRoll
}

// setEnabledDice keeps len(Dice) equal to EnabledDice.
func (r *Room) setEnabledDice(n int) {
	r.EnabledDice = n
	dice := make([]int, n)
	for i := range dice {
		dice[i] = 1
		if i < len(r.Dice) {
			dice[i] = r.Dice[i]
		}
	}
	r.Dice = dice
}

func (r *Room) finish(winner *Player) {
	r.Status = StatusFinished
	r.Phase = PhaseIdle
	r.WinnerID = winner.ID
	r.FinishedAt = r.now()
	r.resetRoll()
}

/*
 * Geometry
 */

// GeometryError lists path points and tokens that failed validation.
type GeometryError struct {
	Paths  []PathKey
	Tokens []TokenKey
}

func (e *GeometryError) Error() string {
	return fmt.Sprintf("%v (%d path points, %d tokens)", ErrGeometryInconsistency, len(e.Paths), len(e.Tokens))
}

func (e *GeometryError) Unwrap() error {
	return ErrGeometryInconsistency
}

// CheckGeometry validates the path table and every token placement. Failures
// are counted on the room and returned, but never block play.
func (r *Room) CheckGeometry() error {
	paths := ValidatePathPoints(r.Paths)
	tokens := ValidatePiecePositions(r.Board, r.Paths, r.Players)
	if len(paths) == 0 && len(tokens) == 0 {
		return nil
	}
	r.GeometryErrors += len(paths) + len(tokens)
	return &GeometryError{Paths: paths, Tokens: tokens}
}
