package sheet

import (
	"github.com/pixelmill/spritepack/pkg/errors"
)

// GridLayout maps every cell of the grid to a frame or to nothing.
// It is produced by Pack and consumed once by Composite.
type GridLayout struct {
	Config *LayoutConfig

	// cells[row][col] is nil for an empty cell. Row exclusivity is
	// guaranteed by config validation, so no cell is ever assigned twice.
	cells [][]*Frame
}

// Frame returns the frame at (row, col), or ok=false for an empty cell.
func (g *GridLayout) Frame(row, col int) (*Frame, bool) {
	if row < 0 || row >= len(g.cells) || col < 0 || col >= len(g.cells[row]) {
		return nil, false
	}
	f := g.cells[row][col]
	if f == nil {
		return nil, false
	}
	return f, true
}

// Occupied counts the cells holding a frame.
func (g *GridLayout) Occupied() int {
	n := 0
	for _, row := range g.cells {
		for _, f := range row {
			if f != nil {
				n++
			}
		}
	}
	return n
}

// Pack assigns every resolved frame to its grid cell: frame i of an
// animation goes to (animation.row, i). Placement iterates cfg.Animations
// in declaration order, so identical inputs yield an identical grid on
// every platform.
//
// Pack trusts its inputs: capacity and row exclusivity were enforced at
// config load, frame counts at resolution. A violation here means a bug
// upstream and surfaces as an INTERNAL_ERROR.
func Pack(cfg *LayoutConfig, frameSets map[string]*FrameSet) (*GridLayout, error) {
	cells := make([][]*Frame, cfg.Rows)
	for row := range cells {
		cells[row] = make([]*Frame, cfg.Cols)
	}

	for _, anim := range cfg.Animations {
		fs, ok := frameSets[anim.Name]
		if !ok {
			return nil, errors.New(errors.ErrCodeInternal, "no frame set for animation %q", anim.Name)
		}
		if len(fs.Frames) != anim.Frames {
			return nil, errors.New(errors.ErrCodeInternal,
				"animation %q: frame set holds %d frames, config declares %d",
				anim.Name, len(fs.Frames), anim.Frames)
		}
		for i := range fs.Frames {
			if cells[anim.Row][i] != nil {
				return nil, errors.New(errors.ErrCodeInternal,
					"cell (%d,%d) assigned twice", anim.Row, i)
			}
			cells[anim.Row][i] = &fs.Frames[i]
		}
	}

	return &GridLayout{Config: cfg, cells: cells}, nil
}
