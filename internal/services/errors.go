package services

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// ErrInvalidInput marks caller mistakes (bad action names, missing IDs) so
// handlers can map them to 400 instead of 500.
var ErrInvalidInput = errors.New("invalid input")

func errInvalidAction(action string) error {
	return fmt.Errorf("%w: unknown interaction action %q", ErrInvalidInput, action)
}

func errInvalidInteraction() error {
	return fmt.Errorf("%w: interaction requires a user id and a beat id", ErrInvalidInput)
}

func interactionPayload(beatID uuid.UUID, duration *int) datatypes.JSON {
	payload := map[string]any{"beat_id": beatID}
	if duration != nil {
		payload["duration"] = *duration
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return datatypes.JSON("{}")
	}
	return datatypes.JSON(raw)
}
