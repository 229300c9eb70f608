package tui

import (
	"math"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
)

// canvas is a character grid onto which the XY plane is projected. The
// world origin sits at the top third of the grid, x to the right and y up.
type canvas struct {
	w, h  int
	scale float64
	cells [][]rune
}

func newCanvas(w, h int, scale float64) *canvas {
	c := &canvas{w: w, h: h, scale: scale, cells: make([][]rune, h)}
	for i := range c.cells {
		c.cells[i] = make([]rune, w)
	}
	c.clear()
	return c
}

func (c *canvas) clear() {
	for y := range c.cells {
		for x := range c.cells[y] {
			c.cells[y][x] = ' '
		}
	}
}

// project maps world coordinates to a cell. Cells are twice as tall as they
// are wide.
func (c *canvas) project(p mgl64.Vec3) (int, int) {
	x := c.w/2 + int(math.Round(p[0]*c.scale))
	y := c.h/3 - int(math.Round(p[1]*c.scale/2))
	return x, y
}

func (c *canvas) set(x, y int, r rune) {
	if x >= 0 && x < c.w && y >= 0 && y < c.h {
		c.cells[y][x] = r
	}
}

func (c *canvas) plot(p mgl64.Vec3, r rune) {
	x, y := c.project(p)
	c.set(x, y, r)
}

func (c *canvas) line(a, b mgl64.Vec3, r rune) {
	x1, y1 := c.project(a)
	x2, y2 := c.project(b)
	dx := abs(x2 - x1)
	dy := abs(y2 - y1)
	sx, sy := 1, 1
	if x1 > x2 {
		sx = -1
	}
	if y1 > y2 {
		sy = -1
	}
	err := dx - dy
	for i := 0; i <= dx+dy; i++ {
		c.set(x1, y1, r)
		if x1 == x2 && y1 == y2 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x1 += sx
		}
		if e2 < dx {
			err += dx
			y1 += sy
		}
	}
}

func (c *canvas) String() string {
	var b strings.Builder
	for i, row := range c.cells {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(string(row))
	}
	return b.String()
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
