package parques

import (
	"slices"
	"time"
)

type TokenView struct {
	ID       int      `json:"id"`
	Position Position `json:"position"`
	Placement
}

type PlayerView struct {
	ID        int         `json:"id"`
	Name      string      `json:"name"`
	Color     Color       `json:"color"`
	Pieces    []TokenView `json:"pieces"`
	Connected bool        `json:"connected"`
	Left      bool        `json:"left"`
}

type BoardView struct {
	Board
	Center Point `json:"center"`
}

// RoomView is a detached copy of a room. Nothing in it aliases room state.
type RoomView struct {
	ID             int          `json:"id"`
	Name           string       `json:"name"`
	CreatorID      int          `json:"creatorId"`
	Players        []PlayerView `json:"players"`
	Status         Status       `json:"status"`
	Phase          Phase        `json:"phase"`
	CurrentPlayer  *int         `json:"currentPlayer"`
	Dice           []int        `json:"dice"`
	EnabledDice    int          `json:"enabledDice"`
	PiecesToMove   LegalMoves   `json:"piecesToMove"`
	Winner         *int         `json:"winner"`
	Board          BoardView    `json:"board"`
	GeometryErrors int          `json:"geometryErrors"`
	CreatedAt      time.Time    `json:"createdAt"`
}

// LobbyRoom is the summary shown in the room list.
type LobbyRoom struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	Creator   string    `json:"creator"`
	Players   int       `json:"players"`
	Colors    []Color   `json:"colors"`
	CreatedAt time.Time `json:"createdAt"`
}

func (r *Room) View() RoomView {
	placed, _ := PlaceTokens(r.Board, r.Paths, r.Players)

	players := make([]PlayerView, 0, len(r.Players))
	for _, p := range r.Players {
		players = append(players, playerView(p, placed))
	}

	view := RoomView{
		ID:             r.ID,
		Name:           r.Name,
		CreatorID:      r.CreatorID,
		Players:        players,
		Status:         r.Status,
		Phase:          r.Phase,
		Dice:           slices.Clone(r.Dice),
		EnabledDice:    r.EnabledDice,
		PiecesToMove:   r.Moves.Clone(),
		Board:          BoardView{Board: r.Board, Center: r.Board.Center()},
		GeometryErrors: r.GeometryErrors,
		CreatedAt:      r.CreatedAt,
	}
	if current := r.CurrentPlayer(); current != nil {
		id := current.ID
		view.CurrentPlayer = &id
	}
	if r.Status == StatusFinished {
		id := r.WinnerID
		view.Winner = &id
	}
	return view
}

func (r *Room) PlayerView(playerID int) (PlayerView, bool) {
	_, p := r.seat(playerID)
	if p == nil {
		return PlayerView{}, false
	}
	placed, _ := PlaceTokens(r.Board, r.Paths, r.Players)
	return playerView(p, placed), true
}

func playerView(p *Player, placed map[TokenKey]Placement) PlayerView {
	pieces := make([]TokenView, 0, len(p.Tokens))
	for _, tok := range p.Tokens {
		pieces = append(pieces, TokenView{
			ID:        tok.ID,
			Position:  tok.Position,
			Placement: placed[TokenKey{PlayerID: p.ID, TokenID: tok.ID}],
		})
	}
	return PlayerView{
		ID:        p.ID,
		Name:      p.Name,
		Color:     p.Color,
		Pieces:    pieces,
		Connected: p.Connected,
		Left:      p.Left,
	}
}

// TurnUpdate reports the current floor. Outside an ongoing game the player
// is empty.
func (r *Room) TurnUpdate() TurnUpdate {
	update := TurnUpdate{
		EnabledDice: r.EnabledDice,
		Pieces:      r.Moves.Clone(),
		Phase:       r.Phase,
	}
	if current := r.CurrentPlayer(); current != nil {
		update.Player, _ = r.PlayerView(current.ID)
	}
	return update
}

func (r *Room) Summary() LobbyRoom {
	summary := LobbyRoom{
		ID:        r.ID,
		Name:      r.Name,
		Players:   len(r.Players),
		Colors:    make([]Color, 0, len(r.Players)),
		CreatedAt: r.CreatedAt,
	}
	for _, p := range r.Players {
		summary.Colors = append(summary.Colors, p.Color)
		if p.ID == r.CreatorID {
			summary.Creator = p.Name
		}
	}
	return summary
}
