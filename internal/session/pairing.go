package session

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/ZEGOCLOUD/zego_server_assistant/token/go/src/token04"
	"github.com/google/uuid"

	"github.com/believe-consult/backend/config"
)

// DefaultTokenTTL is the credential lifetime when none is configured.
const DefaultTokenTTL = 3600

// ChannelName derives the deterministic channel for a booking. Callers
// can never pick a channel themselves.
func ChannelName(bookingID uuid.UUID) string {
	return "session-" + bookingID.String()
}

// JoinCredential is the ephemeral, channel-scoped join grant. It is
// never persisted and is worthless after ExpiresAt.
type JoinCredential struct {
	AppID         uint32    `json:"app_id"`
	Channel       string    `json:"channel"`
	Credential    string    `json:"credential"`
	SubjectHandle string    `json:"subject_handle"`
	ExpiresAt     time.Time `json:"expires_at"`
}

// rtcPayload is the room payload for token04. See ZEGOCLOUD token04 docs.
type rtcPayload struct {
	RoomID    string      `json:"RoomId"`
	Privilege map[int]int `json:"Privilege"`
}

// Pairing mints join credentials bound to a booking's channel.
type Pairing struct {
	cfg config.RTCConfig
	now func() time.Time
}

// NewPairing creates the session pairing service.
func NewPairing(cfg config.RTCConfig) *Pairing {
	if cfg.TokenTTLSec <= 0 {
		cfg.TokenTTLSec = DefaultTokenTTL
	}
	return &Pairing{cfg: cfg, now: time.Now}
}

// Issue mints a publisher credential for the booking's channel.
// subjectHandle "" defaults to "0" (provider assigns automatically).
// Re-issuing before expiry just produces a fresh credential; the old one
// lives until its own expiry.
func (p *Pairing) Issue(bookingID uuid.UUID, subjectHandle string) (*JoinCredential, error) {
	if p.cfg.AppID == 0 || p.cfg.ServerSecret == "" {
		return nil, fmt.Errorf("rtc: app_id and server_secret required")
	}
	if len(p.cfg.ServerSecret) != 32 {
		return nil, fmt.Errorf("rtc: server_secret must be 32 characters")
	}
	if subjectHandle == "" {
		subjectHandle = "0"
	}

	channel := ChannelName(bookingID)
	payload := rtcPayload{
		RoomID: channel,
		Privilege: map[int]int{
			token04.PrivilegeKeyLogin:   token04.PrivilegeEnable,
			token04.PrivilegeKeyPublish: token04.PrivilegeEnable, // publisher-only model
		},
	}
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("rtc: marshal payload: %w", err)
	}

	credential, err := token04.GenerateToken04(p.cfg.AppID, subjectHandle, p.cfg.ServerSecret, p.cfg.TokenTTLSec, string(payloadJSON))
	if err != nil {
		return nil, fmt.Errorf("rtc: generate token: %w", err)
	}

	return &JoinCredential{
		AppID:         p.cfg.AppID,
		Channel:       channel,
		Credential:    credential,
		SubjectHandle: subjectHandle,
		ExpiresAt:     p.now().Add(time.Duration(p.cfg.TokenTTLSec) * time.Second),
	}, nil
}
