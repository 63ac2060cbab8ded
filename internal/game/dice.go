package game

import (
	"fmt"
	"math/rand"
	"sync"
)

const Faces = 6

// Roller produces dice values in [1, Faces].
type Roller interface {
	Roll(n int) []int
}

type RandomRoller struct{}

func NewRandomRoller() RandomRoller {
	return RandomRoller{}
}

func (RandomRoller) Roll(n int) []int {
	dice := make([]int, n)
	for i := range dice {
		dice[i] = rand.Intn(Faces) + 1
	}
	return dice
}

// FixedRoller replays scripted rolls in order. Once the script runs out
// every die shows 1.
type FixedRoller struct {
	mu    sync.Mutex
	rolls [][]int
}

func NewFixedRoller(rolls ...[]int) *FixedRoller {
	return &FixedRoller{rolls: rolls}
}

// Push appends more scripted rolls.
func (f *FixedRoller) Push(rolls ...[]int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rolls = append(f.rolls, rolls...)
}

func (f *FixedRoller) Remaining() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.rolls)
}

func (f *FixedRoller) Roll(n int) []int {
	f.mu.Lock()
	defer f.mu.Unlock()

	dice := make([]int, n)
	for i := range dice {
		dice[i] = 1
	}
	if len(f.rolls) == 0 {
		return dice
	}

	next := f.rolls[0]
	f.rolls = f.rolls[1:]
	copy(dice, next)
	return dice
}

func Describe(dice []int) string {
	switch len(dice) {
	case 0:
		return "no dice"
	case 1:
		return fmt.Sprintf("%d", dice[0])
	default:
		return fmt.Sprintf("%d+%d", dice[0], dice[1])
	}
}
