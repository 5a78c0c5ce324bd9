// Package engine provides the world state, the tick loop that advances it,
// and the lockstep hand-off to a knowledge simulation.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// TickSchedule defines when periodic hooks run relative to the tick counter.
const (
	TicksPerSimHour = 60   // 60 ticks = 1 sim-hour
	TicksPerSimDay  = 1440 // 24 hours × 60
)

// Engine drives a Simulation forward in real time.
type Engine struct {
	Sim      *Simulation
	Speed    float64       // Multiplier: 1.0 = real-time, 0 = paused
	Interval time.Duration // Base tick interval
	MaxTicks uint64        // Stop after this many ticks; 0 = unbounded

	// Callbacks, populated during setup.
	OnTick func(tick uint64) // After every tick
	OnHour func(tick uint64) // Every 60 ticks
	OnDay  func(tick uint64) // Every 1440 ticks
	OnStop func(tick uint64) // Once, when the loop exits
}

// NewEngine creates an engine with default pacing.
func NewEngine(sim *Simulation) *Engine {
	return &Engine{
		Sim:      sim,
		Speed:    1.0,
		Interval: time.Second,
	}
}

// Run advances the simulation until ctx is cancelled, the simulation
// reports it should not continue, or MaxTicks is reached. A zero Interval
// runs ticks back to back.
func (e *Engine) Run(ctx context.Context) error {
	slog.Info("simulation engine started", "tick", e.Sim.CurrentTick(), "speed", e.Speed, "interval", e.Interval)
	defer func() {
		tick := e.Sim.CurrentTick()
		if e.OnStop != nil {
			e.OnStop(tick)
		}
		slog.Info("simulation engine stopped", "tick", tick)
	}()

	var run uint64
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		if e.MaxTicks > 0 && run >= e.MaxTicks {
			return nil
		}
		if e.Speed <= 0 {
			// Paused; check again shortly.
			if !sleep(ctx, 100*time.Millisecond) {
				return nil
			}
			continue
		}
		if !e.Sim.ShouldContinue() {
			if e.Sim.Paused() {
				if !sleep(ctx, 100*time.Millisecond) {
					return nil
				}
				continue
			}
			slog.Info("all agents content", "tick", e.Sim.CurrentTick())
			return nil
		}

		start := time.Now()
		if err := e.step(ctx); err != nil {
			return err
		}
		run++

		if e.Interval > 0 {
			target := time.Duration(float64(e.Interval) / e.Speed)
			if elapsed := time.Since(start); elapsed < target {
				if !sleep(ctx, target-elapsed) {
					return nil
				}
			}
		}
	}
}

func (e *Engine) step(ctx context.Context) error {
	if err := e.Sim.Tick(ctx); err != nil {
		return fmt.Errorf("engine: %w", err)
	}
	tick := e.Sim.CurrentTick()

	if e.OnTick != nil {
		e.OnTick(tick)
	}
	if tick%TicksPerSimHour == 0 && e.OnHour != nil {
		e.OnHour(tick)
	}
	if tick%TicksPerSimDay == 0 && e.OnDay != nil {
		e.OnDay(tick)
	}
	return nil
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// SimTime returns a human-readable simulation time string from a tick number.
// One tick is one sim-minute.
func SimTime(tick uint64) string {
	minutes := tick % 60
	totalHours := tick / 60
	hours := totalHours % 24
	days := totalHours/24 + 1
	return fmt.Sprintf("Day %d, %d:%02d", days, hours, minutes)
}
