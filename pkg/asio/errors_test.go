// ABOUTME: Tests for structured errors and driver status codes
// ABOUTME: Verifies errors.Is matching by kind and message formatting
package asio

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorIsByKind(t *testing.T) {
	err := fmt.Errorf("loading driver: %w", &Error{
		Kind:    KindEntryPointMissing,
		Op:      "load",
		Subject: `C:\drivers\asio.dll`,
	})

	assert.ErrorIs(t, err, ErrEntryPointMissing)
	assert.NotErrorIs(t, err, ErrModuleLoad)

	var e *Error
	assert.True(t, errors.As(err, &e))
	assert.Equal(t, "load", e.Op)
}

func TestErrorMessage(t *testing.T) {
	err := &Error{
		Kind:    KindInstantiation,
		Op:      "load",
		Subject: "{835F8B5B-F7A5-4A0F-A37B-4BC3B1C71E57}",
		Detail:  "CreateInstance failed",
		Code:    -2147221231,
		Cause:   errors.New("class not available"),
	}
	assert.Equal(t,
		"load: instantiation ({835F8B5B-F7A5-4A0F-A37B-4BC3B1C71E57}): CreateInstance failed [code 0x80040111]: class not available",
		err.Error())
	assert.Equal(t, "unsupported_format", ErrUnsupportedFormat.Error())
}

func TestStatusErr(t *testing.T) {
	assert.NoError(t, StatusOK.Err())
	assert.NoError(t, StatusSuccess.Err())

	err := StatusNoClock.Err()
	assert.ErrorIs(t, err, StatusNoClock)
	assert.Equal(t, "asio: no clock", err.Error())
	assert.Equal(t, "status -1", Status(-1).String())
}
