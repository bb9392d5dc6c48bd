// Package notify delivers auto-generation events to users: always as an
// in-app notification, and by email or Telegram when the profile opts in.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"tradeidea/internal/autogen"
	"tradeidea/internal/models"
)

// NotificationStore persists in-app notifications.
type NotificationStore interface {
	Create(ctx context.Context, n *models.Notification) error
}

// ProfileFinder looks up contact details.
type ProfileFinder interface {
	FindByID(ctx context.Context, id string) (*models.Profile, error)
}

// Channel is an external delivery route.
type Channel interface {
	Name() string
	// Enabled reports whether the profile wants and can receive this channel.
	Enabled(p *models.Profile) bool
	Send(ctx context.Context, p *models.Profile, event autogen.Event) error
}

// Dispatcher implements autogen.Notifier.
type Dispatcher struct {
	store     NotificationStore
	profiles  ProfileFinder
	channels  []Channel
	publisher Publisher
	logger    *zap.Logger
}

func NewDispatcher(store NotificationStore, profiles ProfileFinder, logger *zap.Logger, channels ...Channel) *Dispatcher {
	return &Dispatcher{
		store:    store,
		profiles: profiles,
		channels: channels,
		logger:   logger.Named("notify"),
	}
}

// WithPublisher also broadcasts every event on the message bus.
func (d *Dispatcher) WithPublisher(p Publisher) *Dispatcher {
	d.publisher = p
	return d
}

// Notify stores the event in-app, then fans out to every enabled channel.
// A failing channel does not stop the others; all failures are joined.
func (d *Dispatcher) Notify(ctx context.Context, userID string, event autogen.Event) error {
	var errs []error

	n := &models.Notification{
		UserID:  userID,
		Type:    string(event.Kind),
		Title:   event.Title,
		Message: event.Message,
	}
	if len(event.Metadata) > 0 {
		raw, err := json.Marshal(event.Metadata)
		if err == nil {
			n.Metadata = datatypes.JSON(raw)
		}
	}
	if err := d.store.Create(ctx, n); err != nil {
		errs = append(errs, fmt.Errorf("store notification: %w", err))
	}
	if d.publisher != nil {
		if err := d.publisher.Publish(ctx, userID, event); err != nil {
			errs = append(errs, fmt.Errorf("publish: %w", err))
		}
	}

	if len(d.channels) == 0 || d.profiles == nil {
		return errors.Join(errs...)
	}

	profile, err := d.profiles.FindByID(ctx, userID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			errs = append(errs, fmt.Errorf("load profile: %w", err))
		}
		return errors.Join(errs...)
	}

	for _, ch := range d.channels {
		if !ch.Enabled(profile) {
			continue
		}
		if err := ch.Send(ctx, profile, event); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", ch.Name(), err))
			continue
		}
		d.logger.Debug("notification sent",
			zap.String("user_id", userID),
			zap.String("channel", ch.Name()),
			zap.String("event", string(event.Kind)),
		)
	}
	return errors.Join(errs...)
}
