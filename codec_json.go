package centrifuge

import (
	"bytes"
	"fmt"

	"github.com/segmentio/encoding/json"

	"github.com/centrifugal/centrifuge-go-client/internal/bpool"
)

// jsonCodec implements Encoder and Decoder over newline-delimited JSON
// objects, the same framing the teacher's websocket transport uses for its
// JSON protocol (centrifugal-centrifuge).
type jsonCodec struct{}

func newJSONCodec() *jsonCodec {
	return &jsonCodec{}
}

func (c *jsonCodec) EncodeCommand(cmd *Command) ([]byte, error) {
	buf := bpool.GetByteBuffer(256)
	defer bpool.PutByteBuffer(buf)

	obj := map[string]any{}
	if cmd.ID != 0 {
		obj["id"] = cmd.ID
	}
	switch cmd.Method {
	case MethodConnect:
		obj["connect"] = cmd.Connect
	case MethodSubscribe:
		obj["subscribe"] = cmd.Subscribe
	case MethodUnsubscribe:
		obj["unsubscribe"] = cmd.Unsubscribe
	case MethodPublish:
		obj["publish"] = cmd.Publish
	case MethodPresence:
		obj["presence"] = cmd.Presence
	case MethodPresenceStats:
		obj["presence_stats"] = cmd.PresenceStats
	case MethodHistory:
		obj["history"] = cmd.History
	case MethodPing:
		// empty object: a bare ping/pong frame.
	case MethodSend:
		obj["send"] = cmd.Send
	case MethodRPC:
		obj["rpc"] = cmd.RPC
	case MethodRefresh:
		obj["refresh"] = cmd.Refresh
	case MethodSubRefresh:
		obj["sub_refresh"] = cmd.SubRefresh
	default:
		return nil, fmt.Errorf("centrifuge: unknown command method %d", cmd.Method)
	}

	encoded, err := json.Marshal(obj)
	if err != nil {
		return nil, err
	}
	buf.Write(encoded)
	out := make([]byte, len(buf.B))
	copy(out, buf.B)
	return out, nil
}

func (c *jsonCodec) DecodeReplies(data []byte) ([]*Reply, error) {
	var replies []*Reply
	for _, line := range bytes.Split(data, []byte("\n")) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		reply, err := decodeJSONReply(line)
		if err != nil {
			return nil, err
		}
		replies = append(replies, reply)
	}
	return replies, nil
}

func decodeJSONReply(line []byte) (*Reply, error) {
	var raw struct {
		ID    uint32           `json:"id"`
		Error *wireError       `json:"error"`
		Push  *jsonPushEnvelope `json:"push"`

		Connect       *ConnectResult       `json:"connect"`
		Subscribe     *SubscribeResult     `json:"subscribe"`
		Unsubscribe   *UnsubscribeResult   `json:"unsubscribe"`
		Publish       *PublishResult       `json:"publish"`
		Presence      *PresenceResult      `json:"presence"`
		PresenceStats *PresenceStatsResult `json:"presence_stats"`
		History       *HistoryResult       `json:"history"`
		Send          *SendResult          `json:"send"`
		RPC           *RPCResult           `json:"rpc"`
		Refresh       *RefreshResult       `json:"refresh"`
		SubRefresh    *SubRefreshResult    `json:"sub_refresh"`
	}
	if err := json.Unmarshal(line, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProtocol, err)
	}
	reply := &Reply{
		ID:            raw.ID,
		Error:         raw.Error,
		Connect:       raw.Connect,
		Subscribe:     raw.Subscribe,
		Unsubscribe:   raw.Unsubscribe,
		Publish:       raw.Publish,
		Presence:      raw.Presence,
		PresenceStats: raw.PresenceStats,
		History:       raw.History,
		Send:          raw.Send,
		RPC:           raw.RPC,
		Refresh:       raw.Refresh,
		SubRefresh:    raw.SubRefresh,
	}
	if raw.Push != nil {
		push, err := raw.Push.toPush()
		if err != nil {
			return nil, err
		}
		reply.Push = push
	}
	return reply, nil
}

// jsonPushEnvelope mirrors the wire layout of a push frame: a channel plus
// exactly one of the typed payload fields.
type jsonPushEnvelope struct {
	Channel string `json:"channel"`

	Pub         *wirePublication `json:"pub"`
	Join        *wireClientInfo  `json:"join"`
	Leave       *wireClientInfo  `json:"leave"`
	Unsubscribe *PushUnsubscribe `json:"unsubscribe"`
	Message     *PushMessage     `json:"message"`
	Subscribe   *PushSubscribe   `json:"subscribe"`
	Connect     *ConnectResult   `json:"connect"`
	Disconnect  *Disconnect      `json:"disconnect"`
	Refresh     *PushRefresh     `json:"refresh"`
}

func (e *jsonPushEnvelope) toPush() (*Push, error) {
	p := &Push{Channel: e.Channel}
	switch {
	case e.Pub != nil:
		p.Type, p.Publication = PushTypePublication, e.Pub
	case e.Join != nil:
		p.Type, p.Join = PushTypeJoin, e.Join
	case e.Leave != nil:
		p.Type, p.Leave = PushTypeLeave, e.Leave
	case e.Unsubscribe != nil:
		p.Type, p.Unsubscribe = PushTypeUnsubscribe, e.Unsubscribe
	case e.Message != nil:
		p.Type, p.Message = PushTypeMessage, e.Message
	case e.Subscribe != nil:
		p.Type, p.Subscribe = PushTypeSubscribe, e.Subscribe
	case e.Connect != nil:
		p.Type, p.Connect = PushTypeConnect, e.Connect
	case e.Disconnect != nil:
		p.Type, p.Disconnect = PushTypeDisconnect, e.Disconnect
	case e.Refresh != nil:
		p.Type, p.Refresh = PushTypeRefresh, e.Refresh
	default:
		return nil, fmt.Errorf("%w: empty push envelope", ErrProtocol)
	}
	return p, nil
}
