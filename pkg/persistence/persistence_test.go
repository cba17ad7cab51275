package persistence

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/stack360co/automatisch/pkg/models"
)

func TestValidateInsertAt(t *testing.T) {
	tests := []struct {
		name     string
		stepType models.StepType
		position int
		count    int
		expected error
	}{
		{"trigger opens empty flow", models.StepTypeTrigger, 1, 0, nil},
		{"action appends", models.StepTypeAction, 4, 3, nil},
		{"action inserts mid-flow", models.StepTypeAction, 2, 3, nil},
		{"position zero", models.StepTypeTrigger, 0, 0, models.ErrInvalidPosition},
		{"position beyond count+1", models.StepTypeAction, 4, 2, models.ErrInvalidPosition},
		{"action into emptied flow", models.StepTypeAction, 2, 0, models.ErrInvalidPosition},
		{"action at trigger slot", models.StepTypeAction, 1, 0, models.ErrTriggerPosition},
		{"trigger beyond slot one", models.StepTypeTrigger, 2, 1, models.ErrTriggerPosition},
		{"second trigger displaces first", models.StepTypeTrigger, 1, 3, models.ErrTriggerPosition},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			step := &models.Step{Type: tt.stepType, Position: tt.position}

			err := ValidateInsertAt(step, tt.count)
			if tt.expected == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.expected)
			}
		})
	}
}
