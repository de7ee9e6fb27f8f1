package deriv

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"TickPulse/internal/domain/models"
)

// flexFloat accepts a JSON number or a numeric string.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return err
		}
		*f = flexFloat(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*f = flexFloat(v)
	return nil
}

type inbound struct {
	MsgType string `json:"msg_type"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	History *struct {
		Prices []flexFloat `json:"prices"`
	} `json:"history"`
	Tick *struct {
		Symbol string     `json:"symbol"`
		Quote  *flexFloat `json:"quote"`
		Epoch  int64      `json:"epoch"`
	} `json:"tick"`
}

// Decode classifies a raw venue frame. A history frame wins over a tick frame; frames
// carrying neither are VenueError when they hold an error object and VenueOther otherwise.
// Invalid JSON, a history without prices or a tick without a quote wrap models.ErrProtocol.
func Decode(b []byte) (*models.VenueMessage, error) {
	var in inbound
	if err := json.Unmarshal(b, &in); err != nil {
		return nil, fmt.Errorf("%w: decode venue frame: %v", models.ErrProtocol, err)
	}

	msg := &models.VenueMessage{MsgType: in.MsgType}
	switch {
	case in.History != nil:
		if in.History.Prices == nil {
			return nil, fmt.Errorf("%w: history without prices", models.ErrProtocol)
		}
		msg.Kind = models.VenueHistory
		msg.History = make([]float64, len(in.History.Prices))
		for i, p := range in.History.Prices {
			msg.History[i] = float64(p)
		}
	case in.Tick != nil:
		if in.Tick.Quote == nil {
			return nil, fmt.Errorf("%w: tick without quote", models.ErrProtocol)
		}
		msg.Kind = models.VenueTick
		msg.Tick = models.Tick{
			Symbol: in.Tick.Symbol,
			Quote:  float64(*in.Tick.Quote),
			Epoch:  in.Tick.Epoch,
		}
	case in.Error != nil:
		msg.Kind = models.VenueError
		msg.ErrCode = in.Error.Code
		msg.ErrText = in.Error.Message
	default:
		msg.Kind = models.VenueOther
	}
	return msg, nil
}
