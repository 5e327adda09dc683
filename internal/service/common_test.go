package service

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/eduattend-api/internal/repository"
	appErrors "github.com/noah-isme/eduattend-api/pkg/errors"
)

func TestStoreErrorMapping(t *testing.T) {
	assert.Nil(t, storeError(nil, "x", "y"))

	err := appErrors.FromError(storeError(repository.ErrNotFound, "child not found", "load"))
	assert.Equal(t, appErrors.ErrNotFound.Code, err.Code)
	assert.Equal(t, "child not found", err.Message)

	err = appErrors.FromError(storeError(fmt.Errorf("%w: subject s1", repository.ErrInvalidReference), "", "save"))
	assert.Equal(t, appErrors.ErrInvalidReference.Code, err.Code)
	assert.Contains(t, err.Message, "subject s1")

	err = appErrors.FromError(storeError(errors.New("boom"), "", "save grade"))
	assert.Equal(t, appErrors.ErrInternal.Code, err.Code)
	assert.Equal(t, "failed to save grade", err.Message)
}

func TestClockTodayUsesSchoolTimezone(t *testing.T) {
	loc := time.FixedZone("UTC+7", 7*3600)
	c := Clock{Now: func() time.Time { return time.Date(2024, 3, 14, 20, 0, 0, 0, time.UTC) }, Location: loc}
	assert.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), c.Today())
}
