package steering

import (
	"log/slog"
)

// Wanderer is the agent state a WanderScheduler perturbs.
type Wanderer interface {
	// SetWanderDirection records a new idle pitch/yaw command.
	SetWanderDirection(pitch, yaw float64)
	AccelerationValue() float64
	SetAcceleration(a float64)
}

// WanderScheduler drives two independent self-rescheduling one-shot events:
// direction wander (pitch/yaw) and acceleration wander.
type WanderScheduler struct {
	clock  Clock
	rng    RandomSource
	target Wanderer
	params Params
	log    *slog.Logger

	directionTimer    TimerHandle
	accelerationTimer TimerHandle
	directionOn       bool
	accelerationOn    bool

	directionEvents    int
	accelerationEvents int
}

// NewWanderScheduler creates a stopped scheduler. log may be nil.
func NewWanderScheduler(clock Clock, rng RandomSource, target Wanderer, params Params, log *slog.Logger) *WanderScheduler {
	if log == nil {
		log = slog.Default()
	}
	return &WanderScheduler{
		clock:  clock,
		rng:    rng,
		target: target,
		params: params,
		log:    log,
	}
}

// SetParams replaces the step sizes and delays used by future events.
func (w *WanderScheduler) SetParams(p Params) {
	w.params = p
}

// StartDirection arms the direction event.
func (w *WanderScheduler) StartDirection() {
	w.directionOn = true
	w.scheduleDirection()
}

// StartAcceleration arms the acceleration event. It is off unless explicitly
// enabled.
func (w *WanderScheduler) StartAcceleration() {
	w.accelerationOn = true
	w.scheduleAcceleration()
}

// ResetDirectionTimer cancels the pending direction event and draws a new
// countdown.
func (w *WanderScheduler) ResetDirectionTimer() {
	w.scheduleDirection()
}

// ResetAccelerationTimer cancels the pending acceleration event and draws a new
// countdown.
func (w *WanderScheduler) ResetAccelerationTimer() {
	w.scheduleAcceleration()
}

// Stop cancels both events.
func (w *WanderScheduler) Stop() {
	w.StopDirection()
	w.StopAcceleration()
}

// StopDirection cancels the pending direction event.
func (w *WanderScheduler) StopDirection() {
	w.clock.Cancel(w.directionTimer)
	w.directionTimer = 0
	w.directionOn = false
}

// StopAcceleration cancels the pending acceleration event.
func (w *WanderScheduler) StopAcceleration() {
	w.clock.Cancel(w.accelerationTimer)
	w.accelerationTimer = 0
	w.accelerationOn = false
}

// Running reports which events are armed.
func (w *WanderScheduler) Running() (direction, acceleration bool) {
	return w.directionOn, w.accelerationOn
}

func (w *WanderScheduler) scheduleDirection() {
	w.clock.Cancel(w.directionTimer)
	delay := w.rng.FloatRange(w.params.DirectionDelayMin, w.params.DirectionDelayMax)
	w.directionTimer = w.clock.ScheduleOnce(delay, w.RandomDirection)
	w.log.Debug("direction wander scheduled", "delay", delay)
}

func (w *WanderScheduler) scheduleAcceleration() {
	w.clock.Cancel(w.accelerationTimer)
	delay := w.rng.FloatRange(w.params.AccelerationDelayMin, w.params.AccelerationDelayMax)
	w.accelerationTimer = w.clock.ScheduleOnce(delay, w.RandomAcceleration)
	w.log.Debug("acceleration wander scheduled", "delay", delay)
}

// RandomDirection is the direction event: each of pitch and yaw independently
// resets to zero with chance 1/ZeroChanceOutOf, otherwise takes a uniform
// value within its step. The event then reschedules itself.
func (w *WanderScheduler) RandomDirection() {
	pitch := 0.0
	if !Chance(w.rng, w.params.ZeroChanceOutOf) {
		pitch = w.rng.FloatRange(-w.params.PitchStep, w.params.PitchStep)
	}

	yaw := 0.0
	if !Chance(w.rng, w.params.ZeroChanceOutOf) {
		yaw = w.rng.FloatRange(-w.params.YawStep, w.params.YawStep)
	}

	w.target.SetWanderDirection(pitch, yaw)
	w.directionEvents++
	w.log.Debug("direction wander", "pitch", pitch, "yaw", yaw)

	w.directionOn = true
	w.scheduleDirection()
}

// RandomAcceleration is the acceleration event: a non-zero acceleration flips
// sign on a coin toss, otherwise it takes a random step clamped to
// [0, MaxAcceleration]. The event then reschedules itself.
func (w *WanderScheduler) RandomAcceleration() {
	accel := w.target.AccelerationValue()
	if accel != 0 && w.rng.IntRange(0, 2) >= 1 {
		accel = -accel
	} else {
		step := w.rng.FloatRange(-w.params.AccelerationStep, w.params.AccelerationStep)
		accel = clampFloat(accel+step, 0, w.params.MaxAcceleration)
	}

	w.target.SetAcceleration(accel)
	w.accelerationEvents++
	w.log.Debug("acceleration wander", "acceleration", accel)

	w.accelerationOn = true
	w.scheduleAcceleration()
}

// Events returns how many direction and acceleration events have fired.
func (w *WanderScheduler) Events() (direction, acceleration int) {
	return w.directionEvents, w.accelerationEvents
}
