package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"carpool/internal/domain"
	"carpool/internal/events"
	"carpool/internal/logger"
)

// NotificationType represents the type of notification.
type NotificationType string

const (
	NotificationRideOffered  NotificationType = "RIDE_OFFERED"
	NotificationRideBooked   NotificationType = "RIDE_BOOKED"
	NotificationRideReviewed NotificationType = "RIDE_REVIEWED"
)

var routingKeys = map[NotificationType]string{
	NotificationRideOffered:  events.KeyRideOffered,
	NotificationRideBooked:   events.KeyRideBooked,
	NotificationRideReviewed: events.KeyRideReviewed,
}

// Notification represents a ride event to be delivered.
type Notification struct {
	ID          string           `json:"id"`
	Type        NotificationType `json:"type"`
	RecipientID string           `json:"recipient_id,omitempty"`
	Title       string           `json:"title"`
	Message     string           `json:"message"`
	Data        map[string]any   `json:"data"`
	CreatedAt   time.Time        `json:"created_at"`
}

// Publisher delivers encoded events to a broker.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, body []byte) error
}

// NotificationService logs ride events and, when a publisher is configured,
// forwards them to the broker.
type NotificationService struct {
	log       *logger.Logger
	publisher Publisher
}

// NewNotificationService creates a new NotificationService. publisher may be nil.
func NewNotificationService(log *logger.Logger, publisher Publisher) *NotificationService {
	if log == nil {
		log = logger.Nop()
	}
	return &NotificationService{log: log, publisher: publisher}
}

// NotifyRideOffered announces a newly posted ride.
func (s *NotificationService) NotifyRideOffered(ctx context.Context, ride domain.Ride) error {
	return s.send(ctx, Notification{
		Type:        NotificationRideOffered,
		RecipientID: ride.UserID,
		Title:       "Ride Offered",
		Message:     "Your ride " + ride.Origin + " to " + ride.Destination + " has been posted",
		Data: map[string]any{
			"ride_id":         ride.ID,
			"origin":          ride.Origin,
			"destination":     ride.Destination,
			"date":            ride.Date,
			"time":            ride.Time,
			"seats_available": ride.SeatsAvailable,
			"price":           ride.Price,
		},
	})
}

// NotifyRideBooked tells the offering user that their ride was booked.
func (s *NotificationService) NotifyRideBooked(ctx context.Context, ride domain.Ride, booking domain.Booking) error {
	return s.send(ctx, Notification{
		Type:        NotificationRideBooked,
		RecipientID: ride.UserID,
		Title:       "Ride Booked",
		Message:     "Your ride " + ride.Origin + " to " + ride.Destination + " has been booked",
		Data: map[string]any{
			"ride_id":    ride.ID,
			"booking_id": booking.ID,
			"booked_by":  booking.UserID,
		},
	})
}

// NotifyRideReviewed tells the offering user about a new review.
func (s *NotificationService) NotifyRideReviewed(ctx context.Context, ride domain.Ride) error {
	return s.send(ctx, Notification{
		Type:        NotificationRideReviewed,
		RecipientID: ride.UserID,
		Title:       "New Review",
		Message:     ride.Review,
		Data: map[string]any{
			"ride_id": ride.ID,
			"review":  ride.Review,
		},
	})
}

func (s *NotificationService) send(ctx context.Context, n Notification) error {
	n.ID = uuid.NewString()
	n.CreatedAt = time.Now().UTC()

	s.log.Info("notification", map[string]any{
		"type":      string(n.Type),
		"recipient": n.RecipientID,
		"title":     n.Title,
	})

	if s.publisher == nil {
		return nil
	}
	body, err := json.Marshal(n)
	if err != nil {
		return err
	}
	if err := s.publisher.Publish(ctx, routingKeys[n.Type], body); err != nil {
		s.log.Warn("publish notification failed", map[string]any{"type": string(n.Type), "error": err})
		return err
	}
	return nil
}
