package resolution

import (
	"fmt"
	"sync"

	"github.com/jwebster45206/d20"
)

// Basket is the fixed set of dice rolled before every resolution so the
// resolver can cite concrete numbers in one round trip.
type Basket struct {
	PercentileTens  int    `json:"percentile_tens"`  // 0, 10, ... 90
	PercentileUnits int    `json:"percentile_units"` // 0..9
	D20             int    `json:"d20"`
	D10             int    `json:"d10"`
	D8              int    `json:"d8"`
	D6              [2]int `json:"d6"`
	D4              int    `json:"d4"`
	D3              int    `json:"d3"`
}

// Percentile combines the tens and units dice; 00 and 0 read as 100.
func (b Basket) Percentile() int {
	if v := b.PercentileTens + b.PercentileUnits; v > 0 {
		return v
	}
	return 100
}

// Lines renders the basket for a prompt.
func (b Basket) Lines() []string {
	return []string{
		fmt.Sprintf("1d100: %d (tens %02d, units %d)", b.Percentile(), b.PercentileTens, b.PercentileUnits),
		fmt.Sprintf("1d20: %d", b.D20),
		fmt.Sprintf("1d10: %d", b.D10),
		fmt.Sprintf("1d8: %d", b.D8),
		fmt.Sprintf("2d6: %d + %d = %d", b.D6[0], b.D6[1], b.D6[0]+b.D6[1]),
		fmt.Sprintf("1d4: %d", b.D4),
		fmt.Sprintf("1d3: %d", b.D3),
	}
}

// Success levels of a percentile check, best first.
const (
	LevelExtreme = "extreme success"
	LevelHard    = "hard success"
	LevelRegular = "regular success"
	LevelFailure = "failure"
	LevelFumble  = "fumble"
)

// SkillCheck is a percentile check rolled against a character's skill or
// characteristic before the resolver is asked.
type SkillCheck struct {
	Skill  string `json:"skill"`
	Target int    `json:"target"`
	Rolled int    `json:"rolled"`
	Level  string `json:"level"`
}

// Success reports whether the check passed at any level.
func (c SkillCheck) Success() bool {
	return c.Level != LevelFailure && c.Level != LevelFumble
}

// Line renders the check for a prompt.
func (c SkillCheck) Line() string {
	return fmt.Sprintf("%s (%d): rolled %d, %s", c.Skill, c.Target, c.Rolled, c.Level)
}

// checkLevel grades a percentile roll against target. A roll of 01 is
// always an extreme success; 100 always fumbles, as does 96+ when the
// target is under 50.
func checkLevel(rolled, target int) string {
	switch {
	case rolled == 1 || rolled <= target/5:
		return LevelExtreme
	case rolled == 100 || (target < 50 && rolled >= 96):
		return LevelFumble
	case rolled <= target/2:
		return LevelHard
	case rolled <= target:
		return LevelRegular
	default:
		return LevelFailure
	}
}

// Roller wraps a seeded d20 roller. The underlying generator is not safe
// for concurrent use, so every roll holds the mutex.
type Roller struct {
	mu   sync.Mutex
	dice *d20.Roller
}

// NewRoller returns a Roller seeded with seed.
func NewRoller(seed int64) *Roller {
	return &Roller{dice: d20.NewRoller(seed)}
}

// Roll returns a result in 1..sides. Sides below 1 are treated as 1.
func (r *Roller) Roll(sides int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.roll(1, sides)[0]
}

func (r *Roller) roll(count uint, sides int) []int {
	faces := uint(max(sides, 1))
	out, err := r.dice.Dice(count, faces).Roll()
	if err != nil || uint(len(out.DiceRolls)) < count {
		// Unreachable with positive count and faces; read as all ones.
		ones := make([]int, count)
		for i := range ones {
			ones[i] = 1
		}
		return ones
	}
	return out.DiceRolls
}

// Basket rolls a full basket.
func (r *Roller) Basket() Basket {
	r.mu.Lock()
	defer r.mu.Unlock()
	d6 := r.roll(2, 6)
	return Basket{
		PercentileTens:  (r.roll(1, 10)[0] - 1) * 10,
		PercentileUnits: r.roll(1, 10)[0] - 1,
		D20:             r.roll(1, 20)[0],
		D10:             r.roll(1, 10)[0],
		D8:              r.roll(1, 8)[0],
		D6:              [2]int{d6[0], d6[1]},
		D4:              r.roll(1, 4)[0],
		D3:              r.roll(1, 3)[0],
	}
}

// Check rolls a percentile check for skill against sheet. Bonus dice are
// positive, penalty dice negative.
func (r *Roller) Check(sheet *d20.Actor, skill string, bonus int) (SkillCheck, error) {
	target, ok := sheet.Attribute(skill)
	if !ok {
		return SkillCheck{}, fmt.Errorf("no %q on sheet %s", skill, sheet.ID())
	}
	r.mu.Lock()
	_, out, err := sheet.D100SkillCheck(skill, r.dice, bonus)
	r.mu.Unlock()
	if err != nil {
		return SkillCheck{}, err
	}
	return SkillCheck{
		Skill:  skill,
		Target: target,
		Rolled: out.Value,
		Level:  checkLevel(out.Value, target),
	}, nil
}
