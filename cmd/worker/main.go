// cmd/worker/main.go
package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/leadloop/drip-backend/internal/db"
	"github.com/leadloop/drip-backend/internal/distlock"
	"github.com/leadloop/drip-backend/internal/queue"
	"github.com/leadloop/drip-backend/internal/repository"
	"github.com/leadloop/drip-backend/internal/scheduler"
	"github.com/leadloop/drip-backend/internal/sms"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️ No .env file found, relying on OS environment variables")
	}

	db.Init()
	redisClient := db.InitRedis()

	// Repositories
	campaignRepo := &repository.CampaignRepository{DB: db.DB}
	stepRepo := &repository.StepRepository{DB: db.DB}
	contactRepo := &repository.ContactRepository{DB: db.DB}
	enrollRepo := &repository.EnrollmentRepository{DB: db.DB}
	sendRepo := &repository.StepSendRepository{DB: db.DB}

	// Queue: RabbitMQ when configured, in-process otherwise (scheduler
	// and dispatcher run in this binary either way).
	var q queue.Queue
	if url := os.Getenv("AMQP_URL"); url != "" {
		amqpQueue, err := queue.NewAMQPQueue(url)
		if err != nil {
			log.Fatal("Failed to connect to RabbitMQ:", err)
		}
		q = amqpQueue
		log.Println("✅ Connected to RabbitMQ")
	} else {
		log.Println("⚠️ AMQP_URL not set, using in-memory queue")
		q = queue.NewInMemoryQueue()
	}
	defer q.Close()

	dispatcher := scheduler.NewDispatcher(
		campaignRepo, contactRepo, stepRepo, enrollRepo, sendRepo,
		&sms.MockSender{FailRate: 0.1}, // TODO swap for the real provider client once its credentials land
		q,
	)
	if err := dispatcher.Start(); err != nil {
		log.Fatal("Failed to start dispatcher:", err)
	}

	sched := scheduler.NewScheduler(enrollRepo, stepRepo, sendRepo, q)
	sched.Lock = distlock.NewLock(redisClient, db.DB, "campaign-scheduler", 30*time.Second)
	sched.Start()

	log.Println("Worker running, waiting for due steps...")

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Println("Shutting down...")
	sched.Stop()
}
