package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCodeClass(t *testing.T) {
	tests := []struct {
		code     Code
		expected Class
	}{
		{CodeUnsupportedExtension, ClassIgnorable},
		{CodeElementalConvert, ClassReportable},
		{CodeUnknownStatus, ClassFatal},
		{CodeFFProbe, ClassFatal},
		{CodeInputFormat, ClassFatal},
		{CodeUnsupportedFile, ClassFatal},
		{CodeTemplate, ClassFatal},
		{CodeSubmission, ClassFatal},
		{CodeNotification, ClassFatal},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.code.Class())
			assert.Equal(t, tt.expected, Classify(New(tt.code, "boom")))
		})
	}
}

func TestClassify_ForeignErrorIsFatal(t *testing.T) {
	assert.Equal(t, ClassFatal, Classify(fmt.Errorf("plain")))
	assert.Equal(t, CodeInternal, CodeOf(fmt.Errorf("plain")))
}

func TestClassify_ThroughWrapping(t *testing.T) {
	err := fmt.Errorf("outer: %w", UnsupportedExtensionf("invalid file extension: %s", "a.txt"))

	assert.Equal(t, ClassIgnorable, Classify(err))
	assert.True(t, Is(err, ErrUnsupportedExtension))
	assert.False(t, Is(err, ErrUnsupportedFile))
}

func TestWrap_KeepsCause(t *testing.T) {
	cause := fmt.Errorf("access denied")
	err := Wrap(cause, CodeTemplate, "failed to download job template")

	assert.Equal(t, "failed to download job template: access denied", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, err, ErrTemplate)
}

func TestClassString(t *testing.T) {
	assert.Equal(t, "ignorable", ClassIgnorable.String())
	assert.Equal(t, "reportable", ClassReportable.String())
	assert.Equal(t, "fatal", ClassFatal.String())
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		code     Code
		expected int
	}{
		{CodeValidation, http.StatusBadRequest},
		{CodeUnsupportedPayload, http.StatusBadRequest},
		{CodeUnsupportedExtension, http.StatusBadRequest},
		{CodeInputFormat, http.StatusUnprocessableEntity},
		{CodeStorage, http.StatusBadGateway},
		{CodeMediaInfo, http.StatusInternalServerError},
		{CodeInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.expected, New(tt.code, "boom").HTTPStatus())
		})
	}
}
