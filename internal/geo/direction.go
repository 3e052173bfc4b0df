package geo

// Direction indexes one of the eight ordinal moves.
type Direction uint8

const (
	West Direction = iota
	East
	South
	North
	SouthWest
	SouthEast
	NorthWest
	NorthEast
)

// Directions lists all moves in expansion order.
var Directions = [8]Direction{West, East, South, North, SouthWest, SouthEast, NorthWest, NorthEast}

// North is +y.
var deltas = [8]struct{ dx, dy int }{
	West:      {-1, 0},
	East:      {1, 0},
	South:     {0, -1},
	North:     {0, 1},
	SouthWest: {-1, -1},
	SouthEast: {1, -1},
	NorthWest: {-1, 1},
	NorthEast: {1, 1},
}

var directionNames = [8]string{"west", "east", "south", "north", "south-west", "south-east", "north-west", "north-east"}

// Delta returns the (dx, dy) step for the direction.
func (d Direction) Delta() (dx, dy int) {
	v := deltas[d]
	return v.dx, v.dy
}

// IsCardinal reports whether d is one of north, east, south, west.
func (d Direction) IsCardinal() bool {
	return d <= North
}

func (d Direction) String() string {
	if int(d) < len(directionNames) {
		return directionNames[d]
	}
	return "unknown"
}
