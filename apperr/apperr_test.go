package apperr_test

import (
	"context"
	"errors"
	"testing"

	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"

	"github.com/biosecret/go-tasks/apperr"
)

func TestConstructorsClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"unauthorized", apperr.Unauthorized("X", "no"), apperr.ErrUnauthorized},
		{"not found", apperr.NotFound("X", "no"), apperr.ErrNotFound},
		{"conflict", apperr.Conflict("X", "no"), apperr.ErrConflict},
		{"validation", apperr.Validation("X", "no"), apperr.ErrValidation},
		{"timeout", apperr.Storage(oops.Code("X"), context.DeadlineExceeded), apperr.ErrTimeout},
		{"canceled", apperr.Storage(oops.Code("X"), context.Canceled), apperr.ErrTimeout},
		{"internal", apperr.Storage(oops.Code("X"), errors.New("boom")), apperr.ErrInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.err, tt.want)
		})
	}
}

func TestStorage_KeepsCauseButHidesIt(t *testing.T) {
	cause := errors.New("relation \"tasks\" does not exist")
	err := apperr.Storage(oops.Code("TASK_LIST_FAILED"), cause)

	assert.ErrorIs(t, err, apperr.ErrInternal)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "internal server error", apperr.Message(err))
}

func TestMessage(t *testing.T) {
	assert.Equal(t, "task not found", apperr.Message(apperr.NotFound("TASK_NOT_FOUND", "task not found")))
	assert.Equal(t, "internal server error", apperr.Message(errors.New("secret detail")))
}
