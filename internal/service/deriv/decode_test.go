package deriv

import (
	"testing"

	"TickPulse/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name    string
		frame   string
		kind    models.VenueMessageKind
		wantErr bool
	}{
		{name: "history", frame: `{"history":{"prices":[1,2,3]}}`, kind: models.VenueHistory},
		{name: "empty history", frame: `{"history":{"prices":[]}}`, kind: models.VenueHistory},
		{name: "tick", frame: `{"tick":{"quote":"5.5"}}`, kind: models.VenueTick},
		{name: "venue error", frame: `{"msg_type":"buy","error":{"code":"InvalidToken","message":"bad token"}}`, kind: models.VenueError},
		{name: "other", frame: `{"msg_type":"ping","ping":"pong"}`, kind: models.VenueOther},
		{name: "null tick is ignored", frame: `{"tick":null}`, kind: models.VenueOther},
		{name: "invalid json", frame: `{"tick":`, wantErr: true},
		{name: "tick without quote", frame: `{"tick":{"epoch":1}}`, wantErr: true},
		{name: "history without prices", frame: `{"history":{"times":[1]}}`, wantErr: true},
		{name: "non numeric price", frame: `{"history":{"prices":["abc"]}}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := Decode([]byte(tt.frame))
			if tt.wantErr {
				assert.ErrorIs(t, err, models.ErrProtocol)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.kind, msg.Kind)
		})
	}
}

func TestDecodeVenueErrorFields(t *testing.T) {
	msg, err := Decode([]byte(`{"msg_type":"authorize","error":{"code":"InvalidToken","message":"The token is invalid."}}`))
	require.NoError(t, err)
	assert.Equal(t, "authorize", msg.MsgType)
	assert.Equal(t, "InvalidToken", msg.ErrCode)
	assert.Equal(t, "The token is invalid.", msg.ErrText)
}
