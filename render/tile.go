package render

import "fmt"

// TileID identifies one tile of the canvas for occlusion queries and worker
// jobs. The renderer derives it from the tile's grid position, so the same
// tile keeps the same ID across frames.
type TileID string

// TileIDAt returns the canonical TileID for a tile grid position.
func TileIDAt(col, row int) TileID {
	return TileID(fmt.Sprintf("tile-%d-%d", col, row))
}
