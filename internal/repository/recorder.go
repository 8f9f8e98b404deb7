package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmehdipour/group-load/internal/model"
)

// DeliveryWriter is any store that accepts delivery rows.
type DeliveryWriter interface {
	Insert(ctx context.Context, d model.Delivery) error
}

// Recorder fans a delivery row out to every configured store.
type Recorder struct {
	writers []DeliveryWriter
}

func NewRecorder(writers ...DeliveryWriter) *Recorder {
	return &Recorder{writers: writers}
}

// Enabled reports whether any store is configured.
func (r *Recorder) Enabled() bool { return len(r.writers) > 0 }

// Record writes d to all stores; one store failing does not skip the others.
func (r *Recorder) Record(ctx context.Context, d model.Delivery) error {
	var errs []error
	for i, w := range r.writers {
		if err := w.Insert(ctx, d); err != nil {
			errs = append(errs, fmt.Errorf("delivery store %d: %w", i, err))
		}
	}
	return errors.Join(errs...)
}
