package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	pubnub "github.com/pubnub/go/v7"
	"go.uber.org/zap"
)

// Activity kinds published after a successful mutation.
const (
	ActivityTicketCheckedIn  = "ticket_checked_in"
	ActivityPaymentConfirmed = "payment_confirmed"
	ActivityPaymentRejected  = "payment_rejected"
	ActivityPromoCreated     = "promo_created"
)

// Activity is one completed admin action.
type Activity struct {
	Kind   string    `json:"kind"`
	Key    string    `json:"key"`
	Actor  string    `json:"actor,omitempty"`
	Detail string    `json:"detail,omitempty"`
	At     time.Time `json:"at"`
}

// Notifier tells other dashboard sessions what an admin just did.
// Receivers do not reconcile their rows from it.
type Notifier interface {
	Notify(ctx context.Context, a Activity) error
}

type NopNotifier struct{}

func (NopNotifier) Notify(context.Context, Activity) error { return nil }

type PubNubConfig struct {
	PublishKey   string
	SubscribeKey string
	SecretKey    string
	UserID       string
	Channel      string
}

// PubNubNotifier publishes activities to a PubNub channel.
type PubNubNotifier struct {
	pn      *pubnub.PubNub
	channel string
	log     *zap.Logger
}

func NewPubNubNotifier(cfg PubNubConfig, log *zap.Logger) (*PubNubNotifier, error) {
	if cfg.PublishKey == "" || cfg.SubscribeKey == "" {
		return nil, errors.New("pubnub: publish and subscribe keys are required")
	}
	if cfg.Channel == "" {
		return nil, errors.New("pubnub: channel is required")
	}
	if cfg.UserID == "" {
		cfg.UserID = "event-admin"
	}
	if log == nil {
		log = zap.NewNop()
	}

	pnCfg := pubnub.NewConfigWithUserId(pubnub.UserId(cfg.UserID))
	pnCfg.PublishKey = cfg.PublishKey
	pnCfg.SubscribeKey = cfg.SubscribeKey
	pnCfg.SecretKey = cfg.SecretKey

	return &PubNubNotifier{
		pn:      pubnub.NewPubNub(pnCfg),
		channel: cfg.Channel,
		log:     log,
	}, nil
}

func (n *PubNubNotifier) Notify(ctx context.Context, a Activity) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	resp, _, err := n.pn.Publish().
		Channel(n.channel).
		Message(a).
		Execute()
	if err != nil {
		return fmt.Errorf("pubnub publish %s: %w", a.Kind, err)
	}
	if resp != nil {
		n.log.Debug("activity published",
			zap.String("channel", n.channel),
			zap.String("kind", a.Kind),
			zap.Int64("timetoken", resp.Timestamp),
		)
	}
	return nil
}
