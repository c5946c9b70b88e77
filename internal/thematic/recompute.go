package thematic

import (
	"context"
	"sync"

	"github.com/paulmach/orb/geojson"
)

// Recomputer owns the current classification of one layer and replaces it in full
// whenever inputs change. When runs overlap, the most recently requested run wins
// and older runs are discarded on completion.
type Recomputer struct {
	// OnApply is called with every classification that becomes current.
	OnApply func(*Classification)
	// OnDiscard is called with every finished run that was superseded or canceled.
	OnDiscard func(*Classification)

	mu      sync.Mutex
	gen     uint64
	current *Classification

	classify func(*geojson.FeatureCollection, Params) *Classification
}

// NewRecomputer returns a Recomputer with an empty current classification.
func NewRecomputer() *Recomputer {
	return &Recomputer{
		current:  Classify(nil, Params{}),
		classify: Classify,
	}
}

// Current returns the latest applied classification. It is never nil.
func (r *Recomputer) Current() *Classification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// Recompute classifies synchronously and returns the result. The result is applied
// unless a newer request was made while it ran.
func (r *Recomputer) Recompute(fc *geojson.FeatureCollection, p Params) *Classification {
	gen := r.next()
	c := r.classify(fc, p)
	r.finish(context.Background(), gen, c)
	return c
}

// Submit runs the classification in the background. The returned channel receives
// true if the run became current and false if it was discarded, then closes.
func (r *Recomputer) Submit(ctx context.Context, fc *geojson.FeatureCollection, p Params) <-chan bool {
	gen := r.next()
	done := make(chan bool, 1)

	go func() {
		defer close(done)
		c := r.classify(fc, p)
		done <- r.finish(ctx, gen, c)
	}()

	return done
}

func (r *Recomputer) next() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gen++
	return r.gen
}

func (r *Recomputer) finish(ctx context.Context, gen uint64, c *Classification) bool {
	r.mu.Lock()
	applied := gen == r.gen && ctx.Err() == nil
	if applied {
		r.current = c
	}
	r.mu.Unlock()

	if applied {
		if r.OnApply != nil {
			r.OnApply(c)
		}
	} else if r.OnDiscard != nil {
		r.OnDiscard(c)
	}

	return applied
}
