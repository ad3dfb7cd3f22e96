package services

import (
	"context"
	"encoding/json"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/nagarsevak/civicseva/models"
)

// Notifier delivers citizen-facing notifications fired by lifecycle
// side effects. Delivery failures never fail the mutation that
// triggered them.
type Notifier interface {
	ComplaintResolved(c *models.Complaint) error
	RepairImagesAdded(c *models.Complaint) error
}

// CitizenNotification is the event payload published to the queue.
type CitizenNotification struct {
	ComplaintID string    `json:"complaintId"`
	UserID      string    `json:"userId"`
	Title       string    `json:"title"`
	Message     string    `json:"message"`
	SentAt      time.Time `json:"sentAt"`
}

// logNotifier is the reference behavior: a log line per notification.
type logNotifier struct{}

func NewLogNotifier() Notifier {
	return &logNotifier{}
}

func (n *logNotifier) ComplaintResolved(c *models.Complaint) error {
	log.Printf("Notification sent to citizen: Your complaint #%s has been resolved", c.ID)
	return nil
}

func (n *logNotifier) RepairImagesAdded(c *models.Complaint) error {
	log.Printf("Notification sent to citizen: Repair images added to your complaint #%s", c.ID)
	return nil
}

// amqpNotifier publishes notification events to a durable queue.
type amqpNotifier struct {
	ch        *amqp.Channel
	queueName string
}

// ConnectAMQP dials the broker and opens a channel.
func ConnectAMQP(uri string) (*amqp.Connection, *amqp.Channel, error) {
	conn, err := amqp.Dial(uri)
	if err != nil {
		return nil, nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, nil, err
	}
	return conn, ch, nil
}

func NewAMQPNotifier(ch *amqp.Channel, queueName string) Notifier {
	return &amqpNotifier{ch: ch, queueName: queueName}
}

func (n *amqpNotifier) ComplaintResolved(c *models.Complaint) error {
	return n.publish(CitizenNotification{
		ComplaintID: c.ID,
		UserID:      c.UserID,
		Title:       c.Title,
		Message:     "Your complaint #" + c.ID + " has been resolved",
		SentAt:      time.Now(),
	})
}

func (n *amqpNotifier) RepairImagesAdded(c *models.Complaint) error {
	return n.publish(CitizenNotification{
		ComplaintID: c.ID,
		UserID:      c.UserID,
		Title:       c.Title,
		Message:     "Repair images added to your complaint #" + c.ID,
		SentAt:      time.Now(),
	})
}

func (n *amqpNotifier) publish(event CitizenNotification) error {
	if _, err := n.ch.QueueDeclare(n.queueName, true, false, false, false, nil); err != nil {
		return err
	}

	body, err := json.Marshal(event)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return n.ch.PublishWithContext(ctx,
		"",
		n.queueName,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
			Timestamp:    time.Now(),
		})
}
