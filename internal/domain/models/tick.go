package models

// Tick is one price quote for an instrument as delivered by the venue stream.
type Tick struct {
	Symbol string
	Quote  float64
	Epoch  int64 // seconds
}

// VenueMessageKind classifies an inbound venue frame by the key it carries.
type VenueMessageKind int

const (
	VenueOther VenueMessageKind = iota
	VenueHistory
	VenueTick
	VenueError
)

// VenueMessage is a decoded inbound frame. Only the fields matching Kind are set.
type VenueMessage struct {
	Kind    VenueMessageKind
	MsgType string
	History []float64
	Tick    Tick
	ErrCode string
	ErrText string
}
