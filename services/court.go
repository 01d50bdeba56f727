package services

import (
	"math"
	"math/rand"

	"pongo_server/models"
	"pongo_server/utils"
)

// Court is the simulated state of one match in normalized [0,1]² space.
// The scoring axis is x; paddles slide along y at the defense lines.
type Court struct {
	Paddles    models.SlotPair[float64]
	Ball       models.Ball
	Scores     models.SlotPair[int]
	RoundState string
	RoundTimer float64
}

// StepEvents reports what happened during one Step.
type StepEvents struct {
	Served  bool
	Hit     models.Slot
	Rescued models.Slot
	Scored  models.Slot
}

// NewCourt returns a centred, frozen court in the waiting state.
func NewCourt() Court {
	c := Court{
		Paddles:    models.SlotPair[float64]{Left: 0.5, Right: 0.5},
		RoundState: models.RoundWaiting,
	}
	c.ResetBall()
	return c
}

// ClampPaddle bounds a paddle centre so the paddle stays on the court.
func ClampPaddle(pos float64) float64 {
	return utils.Clamp(pos, models.PaddleHalfExtent, 1-models.PaddleHalfExtent)
}

func (c *Court) SetPaddle(slot models.Slot, pos float64) {
	if !utils.IsFinite(pos) {
		return
	}
	c.Paddles.Set(slot, ClampPaddle(pos))
}

func (c *Court) MovePaddle(slot models.Slot, delta float64) {
	c.SetPaddle(slot, c.Paddles.Get(slot)+delta)
}

// ResetBall centres the ball with zero velocity.
func (c *Court) ResetBall() {
	c.Ball = models.Ball{X: 0.5, Y: 0.5}
}

func (c *Court) StartCountdown() {
	c.ResetBall()
	c.RoundState = models.RoundCountdown
	c.RoundTimer = models.CountdownSeconds
}

// Freeze parks the match in waiting. Scores are kept.
func (c *Court) Freeze() {
	c.ResetBall()
	c.RoundState = models.RoundWaiting
	c.RoundTimer = 0
}

// Serve launches the ball from the centre toward a random side.
func (c *Court) Serve(rng *rand.Rand) {
	dir := 1.0
	if rng.Intn(2) == 0 {
		dir = -1
	}
	c.Ball = models.Ball{
		X:  0.5,
		Y:  0.5,
		VX: dir * models.BallInitialSpeed,
		VY: (rng.Float64()*2 - 1) * models.ServeSpread,
	}
}

// Step advances the round clock and, while playing, the ball by dt seconds.
// Paddle input is applied by the caller before Step.
func (c *Court) Step(dt float64, rng *rand.Rand, assist AssistPolicy) StepEvents {
	var ev StepEvents
	switch c.RoundState {
	case models.RoundWaiting:
		return ev
	case models.RoundCountdown:
		c.RoundTimer -= dt
		if c.RoundTimer <= 0 {
			c.RoundTimer = 0
			c.RoundState = models.RoundPlaying
			c.Serve(rng)
			ev.Served = true
		}
		return ev
	}

	b := &c.Ball
	b.X += b.VX * dt
	b.Y += b.VY * dt

	r := models.BallRadius
	if b.Y-r < 0 {
		b.Y = r
		b.VY = math.Abs(b.VY)
	} else if b.Y+r > 1 {
		b.Y = 1 - r
		b.VY = -math.Abs(b.VY)
	}

	if b.VX < 0 && b.X-r <= models.LeftDefenseLine {
		c.defend(models.SlotLeft, &ev, rng, assist)
	} else if b.VX > 0 && b.X+r >= models.RightDefenseLine {
		c.defend(models.SlotRight, &ev, rng, assist)
	}
	return ev
}

// defend resolves a ball inside slot's defense zone: a paddle hit while the
// ball is still on the court, a miss once it has passed the edge.
func (c *Court) defend(slot models.Slot, ev *StepEvents, rng *rand.Rand, assist AssistPolicy) {
	b := &c.Ball
	var overshoot float64
	if slot == models.SlotLeft {
		overshoot = -b.X
	} else {
		overshoot = b.X - 1
	}

	if overshoot <= 0 {
		if math.Abs(b.Y-c.Paddles.Get(slot)) <= models.PaddleHalfExtent {
			c.bounce(slot)
			ev.Hit = slot
		}
		return
	}

	if assist.Rescue(overshoot, rng) {
		c.reflect(slot)
		ev.Rescued = slot
		return
	}

	scorer := slot.Opponent()
	c.Scores.Set(scorer, c.Scores.Get(scorer)+1)
	c.StartCountdown()
	ev.Scored = scorer
}

// bounce returns the ball off slot's paddle with speed growth and spin from
// the contact offset.
func (c *Court) bounce(slot models.Slot) {
	b := &c.Ball
	spin := (b.Y - c.Paddles.Get(slot)) / models.PaddleHalfExtent

	b.VX = math.Abs(b.VX) * models.BallSpeedGrowth
	if slot == models.SlotRight {
		b.VX = -b.VX
	}
	b.VY = b.VY*models.BallSpeedGrowth + spin*models.SpinFactor

	if speed := math.Hypot(b.VX, b.VY); speed > models.BallMaxSpeed {
		scale := models.BallMaxSpeed / speed
		b.VX *= scale
		b.VY *= scale
	}

	if slot == models.SlotLeft {
		b.X = models.LeftDefenseLine + models.BallRadius
	} else {
		b.X = models.RightDefenseLine - models.BallRadius
	}
}

// reflect sends a rescued ball back into play from just inside the edge.
func (c *Court) reflect(slot models.Slot) {
	b := &c.Ball
	if slot == models.SlotLeft {
		b.X = models.BallRadius
		b.VX = math.Abs(b.VX)
	} else {
		b.X = 1 - models.BallRadius
		b.VX = -math.Abs(b.VX)
	}
}
