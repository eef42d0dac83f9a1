package services

import (
	"math"
	"math/rand"

	"github.com/aquilax/go-perlin"

	"tilecraft/server/models"
)

// GeneratorConfig controls procedural terrain
type GeneratorConfig struct {
	Width      int
	Height     int
	SandLevel  float64
	TreeChance float64

	Alpha     float64
	Beta      float64
	Octaves   int32
	Scale     float64
	Amplitude float64
}

// Generate builds a fresh authoritative world. Heights are sampled once per
// grid vertex so tiles sharing a corner always agree on its height.
func Generate(cfg GeneratorConfig, rng *rand.Rand) *models.World {
	noise := perlin.NewPerlinRandSource(cfg.Alpha, cfg.Beta, cfg.Octaves, rand.NewSource(rng.Int63()))

	vertices := make([][]int, cfg.Width+1)
	for x := range vertices {
		vertices[x] = make([]int, cfg.Height+1)
		for z := range vertices[x] {
			v := noise.Noise2D(float64(x)*cfg.Scale, float64(z)*cfg.Scale)
			vertices[x][z] = int(math.Round(v * cfg.Amplitude))
		}
	}

	w := models.NewWorld(cfg.Width, cfg.Height)
	w.Authoritative = true
	for x := 0; x < cfg.Width; x++ {
		for z := 0; z < cfg.Height; z++ {
			var heights [4]int
			heights[models.TopLeft] = vertices[x][z]
			heights[models.TopRight] = vertices[x+1][z]
			heights[models.BottomLeft] = vertices[x][z+1]
			heights[models.BottomRight] = vertices[x+1][z+1]

			kind := models.TileGrass
			probe := models.Tile{Heights: heights}
			if probe.AverageHeight() < cfg.SandLevel {
				kind = models.TileSand
			} else if rng.Float64() < cfg.TreeChance {
				kind = models.TileTree
			}

			t := models.NewTile(kind, rng)
			t.Heights = heights
			w.SetTile(x, z, t)
		}
	}

	// Stand the player on the generated surface
	p := w.Player
	p.Position.Y = w.HeightAt(p.Position.X, p.Position.Z)
	p.UpdateLookTarget()
	return w
}
