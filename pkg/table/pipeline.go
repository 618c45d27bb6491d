package table

import (
	"context"
	"fmt"
)

// Transform is a mutation applied to a Table. Implementations may modify the
// input in place or return a new table.
type Transform interface {
	Name() string
	Apply(ctx context.Context, t *Table) (*Table, error)
}

// Pipeline composes a sequence of Transforms.
type Pipeline struct {
	steps []Transform
}

func NewPipeline() *Pipeline { return &Pipeline{} }

func (p *Pipeline) Add(t Transform) *Pipeline {
	p.steps = append(p.steps, t)
	return p
}

// Len returns the number of steps.
func (p *Pipeline) Len() int { return len(p.steps) }

func (p *Pipeline) Run(ctx context.Context, t *Table) (*Table, error) {
	var err error
	cur := t
	for _, s := range p.steps {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		cur, err = s.Apply(ctx, cur)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", s.Name(), err)
		}
	}
	return cur, nil
}
