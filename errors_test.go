package centrifuge

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIsTemporaryReflectsWireErrorFlag(t *testing.T) {
	require.True(t, IsTemporary(errorFromWire(&wireError{Message: "busy", Temporary: true})))
	require.False(t, IsTemporary(errorFromWire(&wireError{Message: "nope", Temporary: false})))
}

func TestIsTemporaryFalseForNonCentrifugeError(t *testing.T) {
	require.False(t, IsTemporary(errors.New("plain error")))
	require.False(t, IsTemporary(ErrTimeout))
}

func TestErrorFromWireNilIsNil(t *testing.T) {
	require.Nil(t, errorFromWire(nil))
}
