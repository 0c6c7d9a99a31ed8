package simulator

// Position is an immutable 2D grid coordinate.
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Distance returns the Manhattan distance to other.
func (p Position) Distance(other Position) float64 {
	dx := p.X - other.X
	if dx < 0 {
		dx = -dx
	}
	dy := p.Y - other.Y
	if dy < 0 {
		dy = -dy
	}
	return float64(dx + dy)
}

// Neighbors returns the 4-connected neighbors clipped to the grid.
func (p Position) Neighbors(gridWidth, gridHeight int) []Position {
	candidates := []Position{
		{p.X + 1, p.Y},
		{p.X - 1, p.Y},
		{p.X, p.Y + 1},
		{p.X, p.Y - 1},
	}
	neighbors := make([]Position, 0, 4)
	for _, c := range candidates {
		if c.X >= 0 && c.X < gridWidth && c.Y >= 0 && c.Y < gridHeight {
			neighbors = append(neighbors, c)
		}
	}
	return neighbors
}
