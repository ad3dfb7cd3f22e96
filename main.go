package main

import (
	"log"
	"math/rand"
	"time"

	"github.com/nagarsevak/civicseva/config"
	"github.com/nagarsevak/civicseva/db"
	"github.com/nagarsevak/civicseva/server"
	"github.com/nagarsevak/civicseva/services"
)

func main() {
	conf, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	complaintSlot, userSlot, err := buildSlots(conf)
	if err != nil {
		log.Fatal(err)
	}

	complaintRepo := db.NewComplaintRepo(complaintSlot)
	authRepo := db.NewAuthRepo(userSlot)

	notifier := buildNotifier(conf)
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	authService := services.NewAuthService(authRepo, conf)
	complaintService := services.NewComplaintService(complaintRepo, notifier, rng, conf)

	s := &server.Server{
		Config:              conf,
		AuthRepository:      authRepo,
		AuthService:         authService,
		ComplaintRepository: complaintRepo,
		ComplaintService:    complaintService,
	}
	s.Start()
}

// buildSlots picks Redis-backed snapshot slots when an address is
// configured, file slots under the data dir otherwise.
func buildSlots(conf *config.Config) (db.Slot, db.Slot, error) {
	if conf.RedisAddr != "" {
		client, err := db.NewRedisClient(conf.RedisAddr, conf.RedisPassword)
		if err != nil {
			return nil, nil, err
		}
		log.Printf("using redis snapshot store at %s", conf.RedisAddr)
		return db.NewRedisSlot(client, "civic_complaints"), db.NewRedisSlot(client, "civic_users"), nil
	}

	complaintSlot, err := db.NewFileSlot(conf.DataDir, "complaints")
	if err != nil {
		return nil, nil, err
	}
	userSlot, err := db.NewFileSlot(conf.DataDir, "users")
	if err != nil {
		return nil, nil, err
	}
	return complaintSlot, userSlot, nil
}

// buildNotifier publishes citizen notifications to the queue when a
// broker is configured, otherwise logs them.
func buildNotifier(conf *config.Config) services.Notifier {
	if conf.AmqpURL == "" {
		return services.NewLogNotifier()
	}
	_, ch, err := services.ConnectAMQP(conf.AmqpURL)
	if err != nil {
		log.Printf("amqp unavailable, falling back to log notifier: %v", err)
		return services.NewLogNotifier()
	}
	return services.NewAMQPNotifier(ch, conf.NotificationQueue)
}
