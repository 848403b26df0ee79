package join

import (
	"fmt"

	"stats19/internal/frame"
)

// Rule actions. Rules name columns that may or may not exist after the two
// joins; a rule whose column is absent is a no-op, which is what makes the
// rule list declarative rather than a sequence of conditionals.
const (
	ActionDrop   = "drop"
	ActionRename = "rename"
	ActionKeep   = "keep"
)

// Rule describes one column transformation applied after the joins.
type Rule struct {
	// Name is the (possibly suffixed) column the rule applies to.
	Name string
	// Action is ActionDrop, ActionRename, or ActionKeep.
	Action string
	// To is the canonical name for ActionRename.
	To string
}

// ApplyRules applies the ordered rule list to f and returns a new frame.
//
// Drop removes the column and its cells. Rename changes the column name and
// fails if the target name already exists (that would silently shadow data).
// Keep is a documented no-op. Unknown actions are an error.
func ApplyRules(f *frame.Frame, rules []Rule) (*frame.Frame, error) {
	cols := make([]string, len(f.Columns))
	copy(cols, f.Columns)
	keep := make([]bool, len(cols))
	for i := range keep {
		keep[i] = true
	}

	for _, r := range rules {
		ci := -1
		for i, c := range cols {
			if keep[i] && c == r.Name {
				ci = i
				break
			}
		}
		if ci < 0 {
			continue // column not present; rule is a no-op
		}
		switch r.Action {
		case ActionDrop:
			keep[ci] = false
		case ActionRename:
			if r.To == "" {
				return nil, fmt.Errorf("columns: rename %q: empty target", r.Name)
			}
			for i, c := range cols {
				if keep[i] && i != ci && c == r.To {
					return nil, fmt.Errorf("columns: rename %q to %q: target already exists", r.Name, r.To)
				}
			}
			cols[ci] = r.To
		case ActionKeep:
		default:
			return nil, fmt.Errorf("columns: %q: unknown action %q", r.Name, r.Action)
		}
	}

	pick := make([]int, 0, len(cols))
	outCols := make([]string, 0, len(cols))
	for i, c := range cols {
		if keep[i] {
			pick = append(pick, i)
			outCols = append(outCols, c)
		}
	}
	return project(f, outCols, pick), nil
}

// Reorder moves the named identifier columns (those actually present) to the
// front in the given fixed order; every other column keeps its pre-existing
// relative order.
func Reorder(f *frame.Frame, first []string) *frame.Frame {
	pick := make([]int, 0, len(f.Columns))
	used := make(map[int]struct{}, len(first))

	for _, c := range first {
		if ci := f.ColIndex(c); ci >= 0 {
			pick = append(pick, ci)
			used[ci] = struct{}{}
		}
	}
	for i := range f.Columns {
		if _, ok := used[i]; !ok {
			pick = append(pick, i)
		}
	}

	outCols := make([]string, len(pick))
	for i, ci := range pick {
		outCols[i] = f.Columns[ci]
	}
	return project(f, outCols, pick)
}

// project builds a new frame with the chosen columns, copying rows.
func project(f *frame.Frame, outCols []string, pick []int) *frame.Frame {
	out := frame.New(outCols)
	out.Rows = make([][]any, len(f.Rows))
	for ri, row := range f.Rows {
		nr := make([]any, len(pick))
		for i, ci := range pick {
			nr[i] = row[ci]
		}
		out.Rows[ri] = nr
	}
	return out
}
