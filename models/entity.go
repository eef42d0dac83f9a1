package models

import "math"

const (
	// PlayerEyeHeight is the camera height above the terrain.
	PlayerEyeHeight = 1.73
	// PlayerSpeed is the velocity added per tick of full movement intent.
	PlayerSpeed = 0.015
	// LookSensitivity converts pointer deltas into degrees.
	LookSensitivity = 0.25
	// MaxPitch bounds looking up and down, in degrees.
	MaxPitch = 89.0
)

// Vec3 is a point or direction in world space.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Input is one tick of movement and look intent. MoveZ < 0 walks towards the
// look direction, MoveX > 0 strafes right.
type Input struct {
	MoveX  float64
	MoveZ  float64
	LookDX float64
	LookDY float64
}

// Player is the avatar living in a World.
type Player struct {
	Position   Vec3    `json:"position"`
	Velocity   Vec3    `json:"velocity"`
	LookTarget Vec3    `json:"look_target"`
	Yaw        float64 `json:"yaw"`
	Pitch      float64 `json:"pitch"`
	EyeHeight  float64 `json:"eye_height"`

	Skills    SkillSet   `json:"skills"`
	Inventory *Container `json:"inventory"`
	// Held is the tool in hand. It decides which actions menus offer.
	Held *Item `json:"-"`
}

// NewPlayer creates a player at (x, z) carrying a rock shovel and a rock hatchet.
func NewPlayer(x, z float64) *Player {
	p := &Player{
		Position:  Vec3{X: x, Z: z},
		EyeHeight: PlayerEyeHeight,
		Skills:    NewSkillSet(0),
		Inventory: NewContainer(200, 100),
	}
	shovel := NewItem(ItemShovel, MaterialRock, 10, 0)
	p.Inventory.Store(shovel)
	p.Inventory.Store(NewItem(ItemHatchet, MaterialRock, 10, 0))
	p.Held = shovel
	p.UpdateLookTarget()
	return p
}

// Hold puts the first inventory item of kind in hand. It reports whether one was found.
func (p *Player) Hold(kind ItemKind) bool {
	item := p.Inventory.First(kind)
	if item == nil {
		return false
	}
	p.Held = item
	return true
}

// Steer turns movement and look intent into velocity and orientation.
func (p *Player) Steer(in Input) {
	dx, dz := in.MoveX, in.MoveZ
	if dx != 0 && dz != 0 {
		l := math.Hypot(dx, dz)
		dx, dz = dx/l, dz/l
	}
	dx *= PlayerSpeed
	dz *= PlayerSpeed

	yaw := radians(p.Yaw)
	p.Velocity.X -= dz * math.Sin(yaw)
	p.Velocity.Z += dz * math.Cos(yaw)
	p.Velocity.Z += dx * math.Sin(yaw)
	p.Velocity.X += dx * math.Cos(yaw)

	p.Pitch -= in.LookDY * LookSensitivity
	p.Yaw += in.LookDX * LookSensitivity
	p.Pitch = math.Max(-MaxPitch, math.Min(MaxPitch, p.Pitch))
	p.Yaw = math.Mod(p.Yaw, 360)
	if p.Yaw < 0 {
		p.Yaw += 360
	}
}

// Update advances the player one tick: steering, integration, terrain snap,
// friction from the tile underfoot, then the look target.
func (p *Player) Update(w *World, in Input) {
	p.Steer(in)

	p.Position.X += p.Velocity.X
	p.Position.Z += p.Velocity.Z
	p.Position.Y = w.HeightAt(p.Position.X, p.Position.Z)

	slip := w.TileUnder(p.Position.X, p.Position.Z).Slipperiness()
	p.Velocity.X *= slip
	p.Velocity.Z *= slip

	p.UpdateLookTarget()
}

// Eye is the camera position.
func (p *Player) Eye() Vec3 {
	return Vec3{X: p.Position.X, Y: p.Position.Y + p.EyeHeight, Z: p.Position.Z}
}

// UpdateLookTarget recomputes the point one unit along the view direction.
func (p *Player) UpdateLookTarget() {
	yaw, pitch := radians(p.Yaw), radians(p.Pitch)
	t := p.Eye()
	t.Y += math.Sin(pitch)
	t.Z -= math.Cos(yaw) * math.Cos(pitch)
	t.X += math.Sin(yaw) * math.Cos(pitch)
	p.LookTarget = t
}

// Ray is the view ray from the eye through the look target.
func (p *Player) Ray() Ray {
	return Ray{Position: p.Eye(), Target: p.LookTarget}
}

// Ray is a half line given by its origin and a second point along it.
type Ray struct {
	Position Vec3
	Target   Vec3
}

// MoveForward advances both points of the ray by step along its direction.
func (r *Ray) MoveForward(step float64) {
	dx := r.Target.X - r.Position.X
	dy := r.Target.Y - r.Position.Y
	dz := r.Target.Z - r.Position.Z
	l := math.Sqrt(dx*dx + dy*dy + dz*dz)
	if l == 0 {
		return
	}
	dx, dy, dz = dx/l*step, dy/l*step, dz/l*step
	r.Position = Vec3{X: r.Position.X + dx, Y: r.Position.Y + dy, Z: r.Position.Z + dz}
	r.Target = Vec3{X: r.Target.X + dx, Y: r.Target.Y + dy, Z: r.Target.Z + dz}
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
