package game

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/race/roadrush/internal/game"

func meter() metric.Meter {
	return otel.Meter(instrumentationName)
}

// Metrics holds the simulation counters. A nil *Metrics records nothing.
type Metrics struct {
	ticks         metric.Int64Counter
	collisions    metric.Int64Counter
	droppedSpawns metric.Int64Counter
	avoided       metric.Int64Counter
}

// NewMetrics registers counters on the global meter (no-op without an SDK)
func NewMetrics() (*Metrics, error) {
	m := meter()
	var (
		out Metrics
		err error
	)

	out.ticks, err = m.Int64Counter(
		"roadrush.ticks",
		metric.WithDescription("Simulation ticks executed while playing"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating ticks counter: %w", err)
	}

	out.collisions, err = m.Int64Counter(
		"roadrush.collisions",
		metric.WithDescription("Car/obstacle collisions"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating collisions counter: %w", err)
	}

	out.droppedSpawns, err = m.Int64Counter(
		"roadrush.spawns.dropped",
		metric.WithDescription("Obstacle placements skipped because the pool was empty"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating dropped spawns counter: %w", err)
	}

	out.avoided, err = m.Int64Counter(
		"roadrush.obstacles.avoided",
		metric.WithDescription("Obstacle patterns cleared without a hit"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating avoided counter: %w", err)
	}

	return &out, nil
}

func (m *Metrics) tick() {
	if m == nil {
		return
	}
	m.ticks.Add(context.Background(), 1)
}

func (m *Metrics) collision(kind ObstacleKind) {
	if m == nil {
		return
	}
	m.collisions.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String("kind", kind.String())))
}

func (m *Metrics) droppedSpawn(kind ObstacleKind) {
	if m == nil {
		return
	}
	m.droppedSpawns.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String("kind", kind.String())))
}

func (m *Metrics) avoidedObstacle(class ScoreClass) {
	if m == nil {
		return
	}
	m.avoided.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String("class", class.String())))
}
