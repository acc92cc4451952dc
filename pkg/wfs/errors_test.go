package wfs

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_Message(t *testing.T) {
	err := NoData("fnp_ak", "No land use plan data found at this location")
	assert.Equal(t, "NO_DATA_AT_LOCATION: No land use plan data found at this location (layer fnp_ak)", err.Error())

	err = NewError(CodeAddressNotFound, "Address not found: Foo 1")
	assert.Equal(t, "ADDRESS_NOT_FOUND: Address not found: Foo 1", err.Error())
}

func TestAsError(t *testing.T) {
	assert.Nil(t, AsError(nil))

	wrapped := fmt.Errorf("lookup: %w", NoData("bplan", "none"))
	assert.Equal(t, CodeNoData, AsError(wrapped).Code)
	assert.Equal(t, "bplan", AsError(wrapped).Layer)

	deadline := fmt.Errorf("get: %w", context.DeadlineExceeded)
	assert.Equal(t, CodeTimeout, AsError(deadline).Code)

	plain := errors.New("connection refused")
	got := AsError(plain)
	assert.Equal(t, CodeServiceError, got.Code)
	assert.Equal(t, "connection refused", got.Message)
	assert.ErrorIs(t, got, plain)
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, Code(""), CodeOf(nil))
	assert.Equal(t, CodeInvalidCoordinates, CodeOf(NewError(CodeInvalidCoordinates, "bad")))
}
