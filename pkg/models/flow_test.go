package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func step(stepType StepType, position int) *Step {
	return &Step{Type: stepType, Position: position}
}

func TestFlow_ValidateSteps_EmptyIsValid(t *testing.T) {
	flow := &Flow{Name: "Empty flow"}

	require.NoError(t, flow.ValidateSteps())
}

func TestFlow_ValidateSteps_ContiguousPipeline(t *testing.T) {
	flow := &Flow{
		Steps: []*Step{
			step(StepTypeTrigger, 1),
			step(StepTypeAction, 2),
			step(StepTypeAction, 3),
		},
	}

	require.NoError(t, flow.ValidateSteps())
}

func TestFlow_ValidateSteps_GapDetected(t *testing.T) {
	flow := &Flow{
		Steps: []*Step{
			step(StepTypeTrigger, 1),
			step(StepTypeAction, 3),
		},
	}

	assert.ErrorIs(t, flow.ValidateSteps(), ErrPositionGap)
}

func TestFlow_ValidateSteps_DuplicatePosition(t *testing.T) {
	flow := &Flow{
		Steps: []*Step{
			step(StepTypeTrigger, 1),
			step(StepTypeAction, 2),
			step(StepTypeAction, 2),
		},
	}

	assert.ErrorIs(t, flow.ValidateSteps(), ErrPositionGap)
}

func TestFlow_ValidateSteps_ActionAtPositionOne(t *testing.T) {
	flow := &Flow{
		Steps: []*Step{
			step(StepTypeAction, 1),
			step(StepTypeAction, 2),
		},
	}

	assert.ErrorIs(t, flow.ValidateSteps(), ErrTriggerPosition)
}

func TestFlow_ValidateSteps_TriggerBeyondPositionOne(t *testing.T) {
	flow := &Flow{
		Steps: []*Step{
			step(StepTypeTrigger, 1),
			step(StepTypeTrigger, 2),
		},
	}

	assert.ErrorIs(t, flow.ValidateSteps(), ErrTriggerPosition)
}

func TestFlow_TriggerStep(t *testing.T) {
	trigger := step(StepTypeTrigger, 1)
	flow := &Flow{Steps: []*Step{trigger, step(StepTypeAction, 2)}}

	assert.Same(t, trigger, flow.TriggerStep())
	assert.Nil(t, (&Flow{}).TriggerStep())
}

func TestFlow_StepAt(t *testing.T) {
	second := step(StepTypeAction, 2)
	flow := &Flow{Steps: []*Step{step(StepTypeTrigger, 1), second}}

	assert.Same(t, second, flow.StepAt(2))
	assert.Nil(t, flow.StepAt(5))
}

func TestStep_KeyHelpers(t *testing.T) {
	unbound := &Step{}
	assert.Empty(t, unbound.AppKeyValue())
	assert.Empty(t, unbound.KeyValue())

	appKey := "webhook"
	key := "catchRawWebhook"
	bound := &Step{AppKey: &appKey, Key: &key}
	assert.Equal(t, "webhook", bound.AppKeyValue())
	assert.Equal(t, "catchRawWebhook", bound.KeyValue())
}
