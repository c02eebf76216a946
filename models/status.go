package models

import (
	"fmt"
	"strings"

	"github.com/mgutz/ansi"
)

var chSame = ansi.ColorCode("default:default")
var chNew = ansi.ColorCode("default+bu:default")

// Change is one register's value between two snapshots.
type Change struct {
	Old, New uint64
	Enum     int
	Name     string
}

func (c *Change) Changed() bool {
	return c.Old != c.New
}

// hex digit runs of New, split where they start or stop matching Old
func (c *Change) mask(digits int) (runs []string, changed []bool) {
	hexFmt := fmt.Sprintf("%%0%dx", digits)
	s1, s2 := fmt.Sprintf(hexFmt, c.New), fmt.Sprintf(hexFmt, c.Old)
	if len(s1) != len(s2) {
		return []string{s1}, []bool{true}
	}
	pos := 0
	for i := 1; i <= len(s1); i++ {
		if i == len(s1) || (s1[i] == s2[i]) != (s1[pos] == s2[pos]) {
			runs = append(runs, s1[pos:i])
			changed = append(changed, s1[pos] != s2[pos])
			pos = i
		}
	}
	return runs, changed
}

func (c *Change) String(digits int, color bool) string {
	hexFmt := fmt.Sprintf("%%0%dx", digits)
	name := fmt.Sprintf("%4s", c.Name)
	if !c.Changed() {
		return fmt.Sprintf(" %s 0x"+hexFmt, name, c.New)
	}
	if !color {
		return fmt.Sprintf("+%s 0x"+hexFmt, name, c.New)
	}
	out := []string{" ", chNew, name, ansi.Reset, " 0x"}
	runs, changed := c.mask(digits)
	for i, run := range runs {
		col := chSame
		if changed[i] {
			col = chNew
		}
		out = append(out, col+run)
	}
	out = append(out, ansi.Reset)
	return strings.Join(out, "")
}

type Changes struct {
	Digits  int
	Changes []*Change
}

func (cs *Changes) Count() int {
	n := 0
	for _, c := range cs.Changes {
		if c.Changed() {
			n++
		}
	}
	return n
}

// String lays registers out in four columns, filled top to bottom.
func (cs *Changes) String(color bool) string {
	const cols = 4
	rows := (len(cs.Changes) + cols - 1) / cols
	var lines []string
	for i := 0; i < rows; i++ {
		var row []string
		for j := 0; j < cols; j++ {
			if n := j*rows + i; n < len(cs.Changes) {
				row = append(row, cs.Changes[n].String(cs.Digits, color))
			}
		}
		lines = append(lines, strings.Join(row, " "))
	}
	return strings.Join(lines, "\n")
}

// StatusDiff tracks register values between calls to Changes.
type StatusDiff struct {
	Arch    *Arch
	oldRegs map[int]uint64
}

func (s *StatusDiff) Changes(u RegReader, onlyChanged bool) (*Changes, error) {
	regs, err := s.Arch.RegDump(u)
	if err != nil {
		return nil, err
	}
	cs := make([]*Change, 0, len(regs))
	for _, reg := range regs {
		change := &Change{Old: s.oldRegs[reg.Enum], New: reg.Val, Enum: reg.Enum, Name: reg.Name}
		if !onlyChanged || change.Changed() {
			cs = append(cs, change)
		}
	}
	s.oldRegs = make(map[int]uint64, len(regs))
	for _, r := range regs {
		s.oldRegs[r.Enum] = r.Val
	}
	return &Changes{Digits: s.Arch.Bits / 4, Changes: cs}, nil
}
