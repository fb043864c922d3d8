package protocol

const (
	// Protocol/transport validation.
	ErrProtoBadRequest = "E_PROTO_BAD_REQUEST"
	ErrBadCodec        = "E_BAD_CODEC"

	// Seats.
	ErrUnknownAgent = "E_UNKNOWN_AGENT"
	ErrSeatTaken    = "E_SEAT_TAKEN"

	// Command layer.
	ErrBadRequest = "E_BAD_REQUEST"
	ErrRateLimit  = "E_RATE_LIMIT"
	ErrStale      = "E_STALE"
	ErrConflict   = "E_CONFLICT"
	ErrInternal   = "E_INTERNAL"
)

var knownCodes = map[string]struct{}{
	ErrProtoBadRequest: {},
	ErrBadCodec:        {},
	ErrUnknownAgent:    {},
	ErrSeatTaken:       {},
	ErrBadRequest:      {},
	ErrRateLimit:       {},
	ErrStale:           {},
	ErrConflict:        {},
	ErrInternal:        {},
}

func IsKnownCode(code string) bool {
	if code == "" {
		return true
	}
	_, ok := knownCodes[code]
	return ok
}
