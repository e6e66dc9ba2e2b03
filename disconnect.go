package centrifuge

// Disconnect describes why a transport was closed and whether the session
// should attempt to reconnect afterward (spec.md §6, "Disconnect codes").
type Disconnect struct {
	Code      uint32
	Reason    string
	Reconnect bool
}

// codeNoPing is raised locally when neither a server ping nor any other
// inbound frame arrives before the keepalive watchdog fires (spec.md §4.9).
const codeNoPing uint32 = 11

// Predefined Disconnect values, mirroring the teacher's table-of-constants
// idiom (disconnect.go). Any other {code, reason, reconnect} combination can
// still be constructed ad hoc - these just name the common cases.
var (
	DisconnectNormal   = &Disconnect{Code: 0, Reason: "normal closure", Reconnect: true}
	DisconnectShutdown = &Disconnect{Code: 1, Reason: "shutdown", Reconnect: true}
	DisconnectNoPing   = &Disconnect{Code: codeNoPing, Reason: "no ping", Reconnect: true}

	DisconnectForceReconnect = &Disconnect{Code: 3000, Reason: "force reconnect", Reconnect: true}
	DisconnectForceClose     = &Disconnect{Code: 3500, Reason: "force close", Reconnect: false}

	DisconnectConnectFailed         = &Disconnect{Code: 3501, Reason: "connect failed", Reconnect: false}
	DisconnectUnauthorized          = &Disconnect{Code: 3502, Reason: "unauthorized", Reconnect: false}
	DisconnectUnrecoverablePosition = &Disconnect{Code: 3503, Reason: "unrecoverable position", Reconnect: false}
	DisconnectRefreshFailed         = &Disconnect{Code: 3504, Reason: "refresh failed", Reconnect: false}
)

// codeIsReconnectable classifies a server-initiated close code per spec.md
// §6: codes below 3000 are transport-level and always safe to retry; the
// 3000-3499 and 4000-4499 bands are server-initiated but reconnectable; the
// 3500-3999 and 4500-4999 bands are server-initiated and terminal.
func codeIsReconnectable(code uint32) bool {
	switch {
	case code < 3000:
		return true
	case code >= 3000 && code <= 3499, code >= 4000 && code <= 4499:
		return true
	case code >= 3500 && code <= 3999, code >= 4500 && code <= 4999:
		return false
	default:
		return true
	}
}

// CloseReason names why the session moved to CLOSED, carried on the
// ClosedEvent delivered to OnClosed handlers (spec.md §7).
type CloseReason string

const (
	CloseReasonClient                CloseReason = "client"
	CloseReasonServer                CloseReason = "server"
	CloseReasonConnectFailed         CloseReason = "connect failed"
	CloseReasonRefreshFailed         CloseReason = "refresh failed"
	CloseReasonUnauthorized          CloseReason = "unauthorized"
	CloseReasonUnrecoverablePosition CloseReason = "unrecoverable position"
)

// preservesServerSubs reports whether closing for reason should keep
// recorded server-subscription stream positions around (spec.md §7:
// "Closing preserves server-subscription positions only for the
// non-CLIENT, non-UNRECOVERABLE_POSITION reasons").
func preservesServerSubs(reason CloseReason) bool {
	return reason != CloseReasonClient && reason != CloseReasonUnrecoverablePosition
}
