package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"placement-service/internal/db"
	"placement-service/internal/event"
	"placement-service/internal/handlers"
	"placement-service/internal/questions"
	"placement-service/internal/repository"
	"placement-service/internal/service"
)

func main() {
	// Load env
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system env")
	}

	store := buildSessionStore()

	// RabbitMQ event publisher
	rabbitURL := os.Getenv("RABBITMQ_URI")
	eventExchange := os.Getenv("RABBITMQ_EXCHANGE")
	var publisher event.Publisher
	if rabbitURL != "" && eventExchange != "" {
		amqpPublisher, err := event.NewAMQPPublisher(rabbitURL, eventExchange)
		if err != nil {
			log.Fatalf("Failed to connect to RabbitMQ: %v", err)
		}
		defer amqpPublisher.Close()
		publisher = amqpPublisher
	} else {
		log.Println("RabbitMQ not configured, placement events will not be published")
	}

	registry := questions.DefaultRegistry()
	diagnosticService := service.NewDiagnosticService(store, registry, nil)
	diagnosticHandler := handlers.NewDiagnosticHandler(diagnosticService, publisher)

	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Content-Length", "Accept-Encoding", "X-CSRF-Token", "Authorization", "accept", "origin", "Cache-Control", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	diagnostic := r.Group("/placement/diagnostic")
	{
		diagnostic.POST("/", diagnosticHandler.StartDiagnostic)
		diagnostic.GET("/:id", diagnosticHandler.GetSession)
		diagnostic.GET("/:id/next", diagnosticHandler.NextQuestion)
		diagnostic.POST("/:id/answer", diagnosticHandler.SubmitAnswer)
		diagnostic.POST("/:id/complete", diagnosticHandler.CompleteDiagnostic)
		diagnostic.GET("/:id/result", diagnosticHandler.GetPlacementResult)
		diagnostic.POST("/:id/abandon", diagnosticHandler.AbandonDiagnostic)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "6670"
	}
	r.Run(":" + port)
}

// buildSessionStore selects the session backend from SESSION_STORE:
// "mongo", "redis" or "memory" (default).
func buildSessionStore() repository.SessionStore {
	switch os.Getenv("SESSION_STORE") {
	case "mongo":
		mongoURI := os.Getenv("MONGO_URI")
		if mongoURI == "" {
			log.Fatal("MONGO_URI is required when SESSION_STORE=mongo")
		}
		client, err := db.ConnectMongo(mongoURI)
		if err != nil {
			log.Fatalf("Failed to connect to MongoDB: %v", err)
		}
		return repository.NewMongoSessionStore(client.Database("placement_service"))
	case "redis":
		addr := os.Getenv("REDIS_ADDR")
		if addr == "" {
			log.Fatal("REDIS_ADDR is required when SESSION_STORE=redis")
		}
		client := redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: os.Getenv("REDIS_PASSWORD"),
		})
		if err := client.Ping(context.Background()).Err(); err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		return repository.NewRedisSessionStore(client)
	default:
		log.Println("Using in-memory session store")
		return repository.NewMemorySessionStore()
	}
}
