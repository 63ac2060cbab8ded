package parques_test

import (
	"math"
	"parques-server/internal/game"
	"parques-server/internal/parques"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNames = []string{"alice", "bobby", "carla", "david", "ernie"}

func testClock() time.Time {
	return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
}

// newRoom seats players with ids 1..n; player 1 is the creator.
func newRoom(t *testing.T, players int, rolls ...[]int) *parques.Room {
	t.Helper()
	r := parques.NewRoom(100, "Test Room", 1, testNames[0],
		parques.WithRoller(game.NewFixedRoller(rolls...)),
		parques.WithClock(testClock),
	)
	for id := 2; id <= players; id++ {
		_, err := r.Join(id, testNames[id-1])
		require.NoError(t, err)
	}
	return r
}

func startedRoom(t *testing.T, players int, rolls ...[]int) *parques.Room {
	t.Helper()
	r := newRoom(t, players, rolls...)
	require.NoError(t, r.Start(1))
	return r
}

func place(t *testing.T, r *parques.Room, playerID, tokenID int, pos parques.Position) {
	t.Helper()
	p, ok := r.Player(playerID)
	require.True(t, ok)
	p.Tokens[tokenID-1].Position = pos
}

func position(t *testing.T, r *parques.Room, playerID, tokenID int) parques.Position {
	t.Helper()
	p, ok := r.Player(playerID)
	require.True(t, ok)
	return p.Tokens[tokenID-1].Position
}

func checkInvariants(t *testing.T, r *parques.Room) {
	t.Helper()
	assert.Equal(t, r.EnabledDice, len(r.Dice), "enabledDice must match dice length")
	assert.LessOrEqual(t, len(r.Players), parques.MaxPlayers)
	if r.Status != parques.StatusCreated {
		assert.GreaterOrEqual(t, len(r.Players), parques.MinPlayers)
	}
	seen := map[parques.Color]bool{}
	for _, p := range r.Players {
		assert.True(t, p.Color.Valid())
		assert.False(t, seen[p.Color], "color %s assigned twice", p.Color)
		seen[p.Color] = true
	}
}

func rollAndAck(t *testing.T, r *parques.Room, playerID int) parques.TurnUpdate {
	t.Helper()
	_, err := r.Roll(playerID)
	require.NoError(t, err)
	update, opened, err := r.AckDice(playerID)
	require.NoError(t, err)
	require.True(t, opened)
	return update
}

func TestNewRoom_CreatorSeatedAsRed(t *testing.T) {
	assert := assert.New(t)
	r := newRoom(t, 1)

	assert.Equal(parques.StatusCreated, r.Status)
	assert.Equal(1, r.CreatorID)
	assert.Len(r.Players, 1)
	assert.Equal(parques.Red, r.Players[0].Color)
	assert.Equal(testClock(), r.CreatedAt)
	for _, tok := range r.Players[0].Tokens {
		assert.Equal(parques.PositionJail, tok.Position)
	}
	assert.True(r.LobbyVisible())
	assert.Empty(parques.ValidatePathPoints(r.Paths))
	checkInvariants(t, r)
}

func TestJoin_AssignsColorsInCyclicOrder(t *testing.T) {
	assert := assert.New(t)
	r := newRoom(t, 4)

	want := []parques.Color{parques.Red, parques.Green, parques.Blue, parques.Yellow}
	for i, p := range r.Players {
		assert.Equal(want[i], p.Color)
	}
	checkInvariants(t, r)
}

func TestJoin_ReusesFreedColorAfterCycle(t *testing.T) {
	assert := assert.New(t)
	r := newRoom(t, 3)

	// Green leaves; the next joiner continues the cycle after Blue
	_, err := r.Leave(2)
	assert.NoError(err)

	color, err := r.Join(4, "david")
	assert.NoError(err)
	assert.Equal(parques.Yellow, color)

	color, err = r.Join(5, "ernie")
	assert.NoError(err)
	assert.Equal(parques.Green, color)
	checkInvariants(t, r)
}

func TestJoin_RoomFull(t *testing.T) {
	assert := assert.New(t)
	r := newRoom(t, 4)
	before := r.View()

	_, err := r.Join(5, "ernie")

	assert.ErrorIs(err, parques.ErrRoomFull)
	assert.Equal(before, r.View(), "a failed join must not change the room")
}

func TestJoin_TwiceReturnsSameSeat(t *testing.T) {
	assert := assert.New(t)
	r := newRoom(t, 2)

	color, err := r.Join(2, "bobby")

	assert.NoError(err)
	assert.Equal(parques.Green, color)
	assert.Len(r.Players, 2)
}

func TestJoin_AfterStart(t *testing.T) {
	r := startedRoom(t, 2)

	_, err := r.Join(3, "carla")

	assert.ErrorIs(t, err, parques.ErrInvalidRoomState)
	assert.Len(t, r.Players, 2)
}

func TestLeave_CreatedRoomFreesSeatAndPromotesCreator(t *testing.T) {
	assert := assert.New(t)
	r := newRoom(t, 3)

	res, err := r.Leave(1)

	assert.NoError(err)
	assert.False(res.Vacated)
	assert.Len(r.Players, 2)
	assert.Equal(2, r.CreatorID, "earliest remaining joiner becomes creator")
	assert.False(r.Seated(1))

	_, err = r.Leave(1)
	assert.ErrorIs(err, parques.ErrNotInRoom)
}

func TestLeave_LastPlayerVacatesRoom(t *testing.T) {
	r := newRoom(t, 1)

	res, err := r.Leave(1)

	assert.NoError(t, err)
	assert.True(t, res.Vacated)
	assert.Empty(t, r.Players)
}

func TestLeave_OngoingKeepsSeatAndTokens(t *testing.T) {
	assert := assert.New(t)
	r := startedRoom(t, 3)
	place(t, r, 2, 1, parques.PositionStart+4)

	res, err := r.Leave(2)

	assert.NoError(err)
	assert.False(res.Vacated)
	assert.False(res.TurnPassed)
	assert.Len(r.Players, 3)
	p, _ := r.Player(2)
	assert.True(p.Left)
	assert.False(p.Connected)
	assert.Equal(parques.PositionStart+4, p.Tokens[0].Position, "token stays on the board")
	checkInvariants(t, r)
}

func TestLeave_CurrentPlayerPassesTurn(t *testing.T) {
	assert := assert.New(t)
	r := startedRoom(t, 3)

	res, err := r.Leave(1)

	assert.NoError(err)
	assert.True(res.TurnPassed)
	assert.Equal(2, r.CurrentPlayer().ID)
	assert.Equal(parques.PhaseAwaitingRoll, r.Phase)
}

func TestLeave_AllSeatsLeftVacatesStartedRoom(t *testing.T) {
	r := startedRoom(t, 2)

	_, err := r.Leave(2)
	require.NoError(t, err)
	res, err := r.Leave(1)

	assert.NoError(t, err)
	assert.True(t, res.Vacated)
}

func TestStart_Rules(t *testing.T) {
	assert := assert.New(t)

	solo := newRoom(t, 1)
	assert.ErrorIs(solo.Start(1), parques.ErrInvalidRoomState, "needs at least two players")
	assert.Equal(parques.StatusCreated, solo.Status)

	r := newRoom(t, 2)
	assert.ErrorIs(r.Start(2), parques.ErrNotCreator)
	assert.ErrorIs(r.Start(9), parques.ErrNotInRoom)

	assert.NoError(r.Start(1))
	assert.Equal(parques.StatusOngoing, r.Status)
	assert.Equal(parques.PhaseAwaitingRoll, r.Phase)
	assert.Equal(1, r.CurrentPlayer().ID)
	assert.Equal(testClock(), r.StartedAt)
	assert.False(r.LobbyVisible())

	// No way back to CREATED
	assert.ErrorIs(r.Start(1), parques.ErrInvalidRoomState)
	assert.Equal(parques.StatusOngoing, r.Status)
	checkInvariants(t, r)
}

func TestScenario_ExitRollLeavesJail(t *testing.T) {
	assert := assert.New(t)
	r := startedRoom(t, 2, []int{parques.ExitRoll})

	res, err := r.Roll(1)
	require.NoError(t, err)
	assert.Equal([]int{parques.ExitRoll}, res.Dice)
	assert.Equal(parques.PhaseAwaitingDiceAck, r.Phase)

	// Any seated player may open the gate
	update, opened, err := r.AckDice(2)
	require.NoError(t, err)
	assert.True(opened)
	assert.Equal(1, update.Player.ID)
	assert.Equal(1, update.EnabledDice)
	for id := 1; id <= parques.TokensPerPlayer; id++ {
		assert.Equal([]int{parques.ExitAmount}, update.Pieces[id])
	}

	mv, err := r.Move(1, 1, parques.ExitAmount)
	require.NoError(t, err)
	assert.Equal(parques.PositionJail, mv.From)
	assert.Equal(parques.PositionStart, mv.To)

	pos := position(t, r, 1, 1)
	assert.Equal(parques.PositionStart, pos)
	assert.Equal(0, pos.TrackStep())
	assert.Equal(parques.EntryCell(parques.Red), parques.RingCell(parques.Red, pos))
	checkInvariants(t, r)
}

func TestRoll_NotYourTurn(t *testing.T) {
	assert := assert.New(t)
	r := startedRoom(t, 2, []int{3})

	_, err := r.Roll(2)

	assert.ErrorIs(err, parques.ErrNotYourTurn)
	assert.Equal(parques.PhaseAwaitingRoll, r.Phase)
}

func TestRoll_BeforeStart(t *testing.T) {
	r := newRoom(t, 2)

	_, err := r.Roll(1)

	assert.ErrorIs(t, err, parques.ErrInvalidRoomState)
}

func TestRoll_TwiceWithoutMoving(t *testing.T) {
	r := startedRoom(t, 2, []int{6}, []int{6})
	_, err := r.Roll(1)
	require.NoError(t, err)

	_, err = r.Roll(1)

	assert.ErrorIs(t, err, parques.ErrInvalidRoomState)
}

func TestMove_WaitsForDiceAnimation(t *testing.T) {
	assert := assert.New(t)
	r := startedRoom(t, 2, []int{parques.ExitRoll})
	_, err := r.Roll(1)
	require.NoError(t, err)

	_, err = r.Move(1, 1, parques.ExitAmount)
	assert.ErrorIs(err, parques.ErrInvalidRoomState)

	_, opened, err := r.AckDice(1)
	assert.NoError(err)
	assert.True(opened)

	// A second ack for the same roll is a no-op
	_, opened, err = r.AckDice(2)
	assert.NoError(err)
	assert.False(opened)

	_, err = r.Move(1, 1, parques.ExitAmount)
	assert.NoError(err)
}

func TestAck_RequiresSeat(t *testing.T) {
	r := startedRoom(t, 2, []int{6})
	_, err := r.Roll(1)
	require.NoError(t, err)

	_, _, err = r.AckDice(7)

	assert.ErrorIs(t, err, parques.ErrNotInRoom)
	assert.Equal(t, parques.PhaseAwaitingDiceAck, r.Phase)
}

func TestMove_IllegalAmountChangesNothing(t *testing.T) {
	assert := assert.New(t)
	r := startedRoom(t, 2, []int{4})
	place(t, r, 1, 1, parques.PositionStart+2)
	rollAndAck(t, r, 1)
	before := r.View()

	_, err := r.Move(1, 1, 5)
	assert.ErrorIs(err, parques.ErrIllegalMove)

	_, err = r.Move(1, 2, 4)
	assert.ErrorIs(err, parques.ErrIllegalMove, "jailed token cannot move without the exit roll")

	_, err = r.Move(1, 9, 4)
	assert.ErrorIs(err, parques.ErrIllegalMove)

	assert.Equal(before, r.View())
}

func TestMove_NotYourTurn(t *testing.T) {
	r := startedRoom(t, 2, []int{4})
	place(t, r, 1, 1, parques.PositionStart)
	place(t, r, 2, 1, parques.PositionStart)
	rollAndAck(t, r, 1)

	_, err := r.Move(2, 1, 4)

	assert.ErrorIs(t, err, parques.ErrNotYourTurn)
	assert.Equal(t, parques.PositionStart, position(t, r, 2, 1))
}

func TestTurnOrder_StrictRotation(t *testing.T) {
	assert := assert.New(t)
	r := startedRoom(t, 3, []int{2}, []int{3}, []int{4}, []int{5})
	for id := 1; id <= 3; id++ {
		place(t, r, id, 1, parques.PositionStart+1)
	}

	for _, want := range []int{1, 2, 3, 1} {
		assert.Equal(want, r.CurrentPlayer().ID)
		for other := 1; other <= 3; other++ {
			if other != want {
				_, err := r.Roll(other)
				assert.ErrorIs(err, parques.ErrNotYourTurn)
			}
		}

		update := rollAndAck(t, r, want)
		amounts := update.Pieces[1]
		require.NotEmpty(t, amounts)

		_, err := r.Move(want, 1, amounts[0])
		require.NoError(t, err)
		_, opened, err := r.AckMove(want)
		require.NoError(t, err)
		assert.True(opened)
		checkInvariants(t, r)
	}
	assert.Equal(2, r.CurrentPlayer().ID)
}

func TestTurnOrder_SkipsPlayersWhoLeft(t *testing.T) {
	r := startedRoom(t, 3, []int{2})
	place(t, r, 1, 1, parques.PositionStart)
	_, err := r.Leave(2)
	require.NoError(t, err)

	rollAndAck(t, r, 1)
	_, err = r.Move(1, 1, 2)
	require.NoError(t, err)
	_, _, err = r.AckMove(1)
	require.NoError(t, err)

	assert.Equal(t, 3, r.CurrentPlayer().ID)
}

func TestJailAttempts(t *testing.T) {
	assert := assert.New(t)
	r := startedRoom(t, 2, []int{2}, []int{3}, []int{4})

	for attempt := 1; attempt <= parques.MaxJailAttempts; attempt++ {
		assert.Equal(1, r.CurrentPlayer().ID, "attempt %d", attempt)
		update := rollAndAck(t, r, 1)
		assert.Empty(update.Pieces)
	}

	assert.Equal(2, r.CurrentPlayer().ID)
	assert.Equal(parques.PhaseAwaitingRoll, r.Phase)
}

func TestBonusRoll_EnablesSecondDie(t *testing.T) {
	assert := assert.New(t)
	r := startedRoom(t, 2, []int{parques.BonusRoll})
	place(t, r, 1, 1, parques.PositionStart)

	update := rollAndAck(t, r, 1)
	assert.Equal([]int{parques.BonusRoll}, update.Pieces[1])

	_, err := r.Move(1, 1, parques.BonusRoll)
	require.NoError(t, err)
	update, opened, err := r.AckMove(1)
	require.NoError(t, err)
	assert.True(opened)

	assert.Equal(1, update.Player.ID, "bonus keeps the floor")
	assert.Equal(2, update.EnabledDice)
	assert.Len(r.Dice, 2)
	assert.Equal(parques.PhaseAwaitingRoll, r.Phase)
	checkInvariants(t, r)
}

func TestBonusRoll_ThirdConsecutiveSendsRingTokensToJail(t *testing.T) {
	assert := assert.New(t)
	r := startedRoom(t, 2, []int{6}, []int{3, 3}, []int{4, 4})
	place(t, r, 1, 1, parques.PositionStart+5)
	place(t, r, 1, 2, parques.PositionHome+1)

	// First bonus: a single six
	rollAndAck(t, r, 1)
	_, err := r.Move(1, 1, 6)
	require.NoError(t, err)
	_, _, err = r.AckMove(1)
	require.NoError(t, err)

	// Second bonus: doubles. The sum is a candidate of its own.
	update := rollAndAck(t, r, 1)
	assert.Equal([]int{3, 6}, update.Pieces[1])
	_, err = r.Move(1, 1, 6)
	require.NoError(t, err)
	_, _, err = r.AckMove(1)
	require.NoError(t, err)

	// Third bonus triggers the penalty
	res, err := r.Roll(1)
	require.NoError(t, err)
	assert.True(res.Bonus)
	require.Len(t, res.Penalty, 1)
	assert.Equal(1, res.Penalty[0].TokenID)
	assert.Equal(parques.PositionStart+17, res.Penalty[0].From)
	assert.Equal(parques.PositionJail, res.Penalty[0].To)
	assert.Equal(-int(parques.PositionStart+17), res.Penalty[0].Mov)

	assert.Equal(parques.PositionJail, position(t, r, 1, 1))
	assert.Equal(parques.PositionHome+1, position(t, r, 1, 2), "home stretch tokens are safe")

	update, opened, err := r.AckDice(1)
	require.NoError(t, err)
	assert.True(opened)
	assert.Equal(2, update.Player.ID)
	assert.Equal(1, update.EnabledDice)
	checkInvariants(t, r)
}

func TestCapture_SendsLoneOpponentToJail(t *testing.T) {
	assert := assert.New(t)
	r := startedRoom(t, 2, []int{4})
	place(t, r, 1, 1, parques.PositionStart)
	// Green step 37 is ring cell 4
	greenPos := parques.PositionStart + 37
	require.Equal(t, 4, parques.RingCell(parques.Green, greenPos))
	place(t, r, 2, 1, greenPos)

	rollAndAck(t, r, 1)
	mv, err := r.Move(1, 1, 4)
	require.NoError(t, err)

	require.Len(t, mv.Captures, 1)
	assert.Equal(2, mv.Captures[0].PlayerID)
	assert.Equal(1, mv.Captures[0].TokenID)
	assert.Equal(parques.PositionJail, mv.Captures[0].To)
	assert.Equal(parques.PositionJail, position(t, r, 2, 1))
}

func TestCapture_ExitOntoOccupiedEntry(t *testing.T) {
	r := startedRoom(t, 2, []int{parques.ExitRoll})
	// Green step 33 is Red's entry cell
	greenPos := parques.PositionStart + 33
	require.Equal(t, parques.EntryCell(parques.Red), parques.RingCell(parques.Green, greenPos))
	place(t, r, 2, 3, greenPos)

	rollAndAck(t, r, 1)
	mv, err := r.Move(1, 2, parques.ExitAmount)
	require.NoError(t, err)

	require.Len(t, mv.Captures, 1)
	assert.Equal(t, parques.PositionJail, position(t, r, 2, 3))
}

func TestBlockade_StopsOpponent(t *testing.T) {
	assert := assert.New(t)
	r := startedRoom(t, 2, []int{5})
	place(t, r, 1, 1, parques.PositionStart)
	greenPos := parques.PositionStart + 37
	place(t, r, 2, 1, greenPos)
	place(t, r, 2, 2, greenPos)

	update := rollAndAck(t, r, 1)

	assert.Empty(update.Pieces, "cannot pass the blockade on ring cell 4")
}

func TestHomeStretch_NoOvershoot(t *testing.T) {
	assert := assert.New(t)
	r := startedRoom(t, 2, []int{5})
	place(t, r, 1, 1, parques.PositionEnd-3)

	update := rollAndAck(t, r, 1)

	assert.Empty(update.Pieces)
	assert.Equal(2, r.CurrentPlayer().ID, "nothing to move passes the turn")
}

func TestScenario_AllTokensHomeFinishesGame(t *testing.T) {
	assert := assert.New(t)
	r := startedRoom(t, 2, []int{2}, []int{2})
	for id := 1; id <= 3; id++ {
		place(t, r, 1, id, parques.PositionEnd)
	}
	place(t, r, 1, 4, parques.PositionEnd-2)

	update := rollAndAck(t, r, 1)
	assert.Equal([]int{2}, update.Pieces[4])

	_, err := r.Move(1, 4, 2)
	require.NoError(t, err)

	assert.Equal(parques.StatusFinished, r.Status)
	assert.Equal(1, r.WinnerID)
	assert.Equal(1, r.Winner().ID)
	assert.Equal(testClock(), r.FinishedAt)
	assert.Nil(r.CurrentPlayer())

	_, err = r.Move(1, 4, 2)
	assert.ErrorIs(err, parques.ErrInvalidRoomState)
	_, err = r.Roll(2)
	assert.ErrorIs(err, parques.ErrInvalidRoomState)
	assert.ErrorIs(r.Start(1), parques.ErrInvalidRoomState)
	assert.Equal(parques.StatusFinished, r.Status)

	view := r.View()
	require.NotNil(t, view.Winner)
	assert.Equal(1, *view.Winner)
}

// Every amount the engine offers must execute, and every other amount must
// be rejected.
func TestLegalMovesMatchExecution(t *testing.T) {
	type layout struct {
		name  string
		die   int
		red   [4]parques.Position
		green [4]parques.Position
	}
	jail := parques.PositionJail
	layouts := []layout{
		{"all jailed exit", 6, [4]parques.Position{jail, jail, jail, jail}, [4]parques.Position{jail, jail, jail, jail}},
		{"mixed", 6, [4]parques.Position{parques.PositionStart + 3, jail, parques.PositionEnd - 4, parques.PositionEnd}, [4]parques.Position{jail, jail, jail, jail}},
		{"blocked", 5, [4]parques.Position{parques.PositionStart, parques.PositionStart + 10, jail, jail}, [4]parques.Position{parques.PositionStart + 37, parques.PositionStart + 37, jail, jail}},
		{"near end", 3, [4]parques.Position{parques.PositionEnd - 1, parques.PositionEnd - 3, parques.PositionHome, jail}, [4]parques.Position{jail, jail, jail, jail}},
	}

	build := func(t *testing.T, l layout) *parques.Room {
		r := startedRoom(t, 2, []int{l.die})
		for i := range 4 {
			place(t, r, 1, i+1, l.red[i])
			place(t, r, 2, i+1, l.green[i])
		}
		rollAndAck(t, r, 1)
		return r
	}

	for _, l := range layouts {
		t.Run(l.name, func(t *testing.T) {
			legal := build(t, l).Moves
			for tokenID := 1; tokenID <= parques.TokensPerPlayer; tokenID++ {
				for amount := 0; amount <= 12; amount++ {
					r := build(t, l)
					_, err := r.Move(1, tokenID, amount)
					if legal.Allows(tokenID, amount) {
						assert.NoError(t, err, "token %d amount %d", tokenID, amount)
					} else {
						assert.ErrorIs(t, err, parques.ErrIllegalMove, "token %d amount %d", tokenID, amount)
					}
				}
			}
		})
	}
}

func TestRename(t *testing.T) {
	assert := assert.New(t)
	r := newRoom(t, 2)

	assert.ErrorIs(r.Rename(2, "Takeover"), parques.ErrNotCreator)
	assert.ErrorIs(r.Rename(1, "abc"), parques.ErrInvalidNameLength)
	assert.ErrorIs(r.Rename(1, "a name far too long"), parques.ErrInvalidNameLength)

	assert.NoError(r.Rename(1, "  Friday Game  "))
	assert.Equal("Friday Game", r.Name)

	require.NoError(t, r.Start(1))
	assert.ErrorIs(r.Rename(1, "Too Late"), parques.ErrInvalidRoomState)
	assert.Equal("Friday Game", r.Name)
}

func TestResize_RecomputesPaths(t *testing.T) {
	assert := assert.New(t)
	r := newRoom(t, 2)
	before := r.Paths[parques.Red][parques.PositionStart]

	assert.ErrorIs(r.Resize(1, 0, 400), parques.ErrInvalidBoard)
	assert.ErrorIs(r.Resize(2, 800, 800), parques.ErrNotCreator)

	assert.NoError(r.Resize(1, 1200, 1200))
	after := r.Paths[parques.Red][parques.PositionStart]
	assert.InDelta(before.X*2, after.X, 1e-9)
	assert.InDelta(before.Y*2, after.Y, 1e-9)
	assert.NoError(r.CheckGeometry())
}

func TestResize_KeepsRotation(t *testing.T) {
	assert := assert.New(t)
	board := parques.NewBoard(600, 600).WithRotation(math.Pi / 3)
	r := parques.NewRoom(1, "Turned", 1, "alice", parques.WithBoard(board))

	assert.NoError(r.Resize(1, 900, 700))
	assert.Equal(parques.Board{Width: 900, Height: 700, Rotation: board.Rotation}, r.Board)
	assert.Equal(parques.PathPoints(r.Board), r.Paths)
	assert.NoError(r.CheckGeometry())
}

func TestCheckGeometry_CountsFailures(t *testing.T) {
	assert := assert.New(t)
	r := newRoom(t, 2)
	place(t, r, 2, 1, parques.Position(99))

	err := r.CheckGeometry()

	assert.ErrorIs(err, parques.ErrGeometryInconsistency)
	var geomErr *parques.GeometryError
	require.ErrorAs(t, err, &geomErr)
	assert.Equal([]parques.TokenKey{{PlayerID: 2, TokenID: 1}}, geomErr.Tokens)
	assert.Equal(1, r.GeometryErrors)
	assert.Equal(1, r.View().GeometryErrors)
}

func TestSetConnected(t *testing.T) {
	r := newRoom(t, 2)

	assert.NoError(t, r.SetConnected(2, false))
	p, _ := r.Player(2)
	assert.False(t, p.Connected)
	assert.ErrorIs(t, r.SetConnected(5, true), parques.ErrNotInRoom)
}
