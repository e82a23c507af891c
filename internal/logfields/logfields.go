package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyCardName   = "card_name"
	KeyURL        = "url"
	KeyResolved   = "resolved"
	KeyHops       = "hops"
	KeyDurationMS = "duration_ms"
	KeyMethod     = "method"
	KeyPath       = "path"
	KeyStatus     = "status"
	KeyRemoteAddr = "remote_addr"
	KeyUserAgent  = "user_agent"
	KeyRequestID  = "request_id"
	KeyCount      = "count"
	KeyComponent  = "component"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func CardName(n string) slog.Attr      { return slog.String(KeyCardName, n) }
func URL(u string) slog.Attr           { return slog.String(KeyURL, u) }
func Resolved(ok bool) slog.Attr       { return slog.Bool(KeyResolved, ok) }
func Hops(n int) slog.Attr             { return slog.Int(KeyHops, n) }
func DurationMS(ms float64) slog.Attr  { return slog.Float64(KeyDurationMS, ms) }
func Method(m string) slog.Attr        { return slog.String(KeyMethod, m) }
func Path(p string) slog.Attr          { return slog.String(KeyPath, p) }
func Status(code int) slog.Attr        { return slog.Int(KeyStatus, code) }
func RemoteAddr(a string) slog.Attr    { return slog.String(KeyRemoteAddr, a) }
func UserAgent(ua string) slog.Attr    { return slog.String(KeyUserAgent, ua) }
func RequestID(id string) slog.Attr    { return slog.String(KeyRequestID, id) }
func Count(n int) slog.Attr            { return slog.Int(KeyCount, n) }
func Component(name string) slog.Attr  { return slog.String(KeyComponent, name) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
