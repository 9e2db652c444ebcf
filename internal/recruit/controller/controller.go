// Package controller implements the business logic (service layer) of the
// recruiting service: candidate and job post management, match scoring,
// the hiring workflow and third-party integrations. Every operation is
// scoped to the organization of the calling session.
package controller

import (
	"fmt"
	"time"

	e "github.com/gartstein/recruit/internal/recruit/errors"
	"github.com/gartstein/recruit/internal/recruit/events"
	"github.com/go-playground/validator/v10"
)

// EventProducer publishes domain events without blocking.
type EventProducer interface {
	Produce(event events.Event)
}

type noopProducer struct{}

func (noopProducer) Produce(events.Event) {}

var validate = validator.New(validator.WithRequiredStructEnabled())

func validateInput(v interface{}) error {
	if err := validate.Struct(v); err != nil {
		return fmt.Errorf("%w: %v", e.ErrInvalidInput, err)
	}
	return nil
}

// Clock returns the current time. Tests replace it.
type Clock func() time.Time
