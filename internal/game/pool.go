package game

// obstaclePool is a fixed arena of slots for one kind. It never grows; an
// empty free list means the spawn is dropped.
type obstaclePool struct {
	kind  ObstacleKind
	slots []Obstacle
	free  []int // stack of available slot indexes
}

func newObstaclePool(kind ObstacleKind, size int) *obstaclePool {
	p := &obstaclePool{
		kind:  kind,
		slots: make([]Obstacle, size),
		free:  make([]int, 0, size),
	}
	for i := range p.slots {
		p.slots[i] = Obstacle{
			ID:   int(kind)*size + i,
			Kind: kind,
			Size: defaultSize(kind),
			slot: i,
		}
	}
	p.refill()
	return p
}

// refill marks every slot available, lowest index on top
func (p *obstaclePool) refill() {
	p.free = p.free[:0]
	for i := len(p.slots) - 1; i >= 0; i-- {
		p.free = append(p.free, i)
	}
}

// acquire returns a free slot or nil when exhausted
func (p *obstaclePool) acquire() *Obstacle {
	n := len(p.free)
	if n == 0 {
		return nil
	}
	idx := p.free[n-1]
	p.free = p.free[:n-1]
	return &p.slots[idx]
}

// release returns o to the pool
func (p *obstaclePool) release(o *Obstacle) {
	if !o.Active {
		return
	}
	o.Active = false
	o.Moving = false
	o.Movement = Movement{}
	o.Scoring = false
	o.Forfeit = false
	o.Passed = false
	o.PatternID = 0
	p.free = append(p.free, o.slot)
}

func (p *obstaclePool) capacity() int  { return len(p.slots) }
func (p *obstaclePool) available() int { return len(p.free) }
