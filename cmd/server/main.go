// cmd/server/main.go
package main

import (
	"log"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"

	"github.com/leadloop/drip-backend/internal/controller"
	"github.com/leadloop/drip-backend/internal/db"
	"github.com/leadloop/drip-backend/internal/repository"
	"github.com/leadloop/drip-backend/internal/service"
)

func main() {
	// Load .env
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️ No .env file found, relying on OS environment variables")
	}

	// Init DB
	db.Init()

	campaignRepo := &repository.CampaignRepository{DB: db.DB}
	stepRepo := &repository.StepRepository{DB: db.DB}
	contactRepo := &repository.ContactRepository{DB: db.DB}
	enrollRepo := &repository.EnrollmentRepository{DB: db.DB}
	sendRepo := &repository.StepSendRepository{DB: db.DB}

	campaignService := &service.CampaignService{
		CampaignRepo: campaignRepo,
		StepRepo:     stepRepo,
		ContactRepo:  contactRepo,
		EnrollRepo:   enrollRepo,
		SendRepo:     sendRepo,
	}

	campaignController := &controller.CampaignController{
		CampaignService: campaignService,
	}
	contactController := &controller.ContactController{
		ContactRepo: contactRepo,
	}

	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
	}))

	// Campaign routes
	r.Post("/campaigns", campaignController.CreateCampaign)
	r.Get("/campaigns", campaignController.ListCampaigns)
	r.Get("/campaigns/{id}", campaignController.GetCampaign)
	r.Patch("/campaigns/{id}", campaignController.UpdateCampaign)
	r.Delete("/campaigns/{id}", campaignController.DeleteCampaign)
	r.Post("/campaigns/{id}/clone", campaignController.CloneCampaign)

	// Step routes
	r.Get("/campaigns/{id}/steps", campaignController.ListSteps)
	r.Post("/campaigns/{id}/steps", campaignController.AddStep)
	r.Patch("/steps/{stepID}", campaignController.UpdateStep)
	r.Delete("/steps/{stepID}", campaignController.DeleteStep)

	// Presets, preview, enrollment
	r.Get("/presets", campaignController.ListPresets)
	r.Post("/campaigns/{id}/preview", campaignController.PersonalizedPreview)
	r.Post("/campaigns/{id}/enroll", campaignController.EnrollContacts)
	r.Post("/campaigns/{id}/unenroll", campaignController.UnenrollContact)

	// Contacts
	r.Post("/contacts", contactController.CreateContact)
	r.Get("/contacts", contactController.ListContacts)

	addr := os.Getenv("HTTP_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	log.Println("🚀 Server running on", addr)
	log.Fatal(http.ListenAndServe(addr, r))
}
