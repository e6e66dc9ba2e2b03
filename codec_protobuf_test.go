package centrifuge

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestProtobufCodecRoundTripsCommand(t *testing.T) {
	enc, dec := newCodec(ProtocolTypeProtobuf)

	cmd := &Command{ID: 42, Method: MethodPing}
	data, err := enc.EncodeCommand(cmd)
	require.NoError(t, err)
	require.NotEmpty(t, data)

	replies, err := dec.DecodeReplies(data)
	require.NoError(t, err)
	require.Len(t, replies, 1)
	require.Equal(t, uint32(42), replies[0].ID)
}

func TestProtobufCodecFramesMultipleCommandsBackToBack(t *testing.T) {
	enc, dec := newCodec(ProtocolTypeProtobuf)

	first, err := enc.EncodeCommand(&Command{ID: 1, Method: MethodPing})
	require.NoError(t, err)
	second, err := enc.EncodeCommand(&Command{ID: 2, Method: MethodPing})
	require.NoError(t, err)

	replies, err := dec.DecodeReplies(append(first, second...))
	require.NoError(t, err)
	require.Len(t, replies, 2)
	require.Equal(t, uint32(1), replies[0].ID)
	require.Equal(t, uint32(2), replies[1].ID)
}

func TestProtobufCodecRejectsTruncatedFrame(t *testing.T) {
	_, dec := newCodec(ProtocolTypeProtobuf)
	_, err := dec.DecodeReplies([]byte{0xFF})
	require.Error(t, err)
}
