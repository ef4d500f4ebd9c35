// cmd/seeder/main.go
package main

import (
	"log"

	"github.com/joho/godotenv"

	"github.com/leadloop/drip-backend/internal/db"
	"github.com/leadloop/drip-backend/internal/model"
	"github.com/leadloop/drip-backend/internal/repository"
	"github.com/leadloop/drip-backend/internal/service"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️ No .env file found, relying on OS environment variables")
	}

	db.Init()

	contactRepo := &repository.ContactRepository{DB: db.DB}
	svc := &service.CampaignService{
		CampaignRepo: &repository.CampaignRepository{DB: db.DB},
		StepRepo:     &repository.StepRepository{DB: db.DB},
		ContactRepo:  contactRepo,
		EnrollRepo:   &repository.EnrollmentRepository{DB: db.DB},
		SendRepo:     &repository.StepSendRepository{DB: db.DB},
	}

	contacts := []*model.Contact{
		{UserID: 1, Phone: "+15550100001", FirstName: "Alice", LastName: "Smith", BusinessName: "Smith Plumbing", ServiceCategory: "plumbing"},
		{UserID: 1, Phone: "+15550100002", FirstName: "Bob", LastName: "Jones", BusinessName: "Jones HVAC", ServiceCategory: "hvac"},
		{UserID: 1, Phone: "+15550100003", FirstName: "Carla", LastName: "Nguyen", BusinessName: "Nguyen Roofing", ServiceCategory: "roofing"},
	}
	for _, c := range contacts {
		if err := contactRepo.Create(c); err != nil {
			log.Fatal("failed to seed contact:", err)
		}
		log.Println("seeded contact", c.ID, c.FirstName)
	}

	campaign, err := svc.CreateCampaign(1, "New Lead Follow-Up", "Demo campaign seeded from the Speed to Lead preset", nil, "speed_to_lead")
	if err != nil {
		log.Fatal("failed to seed campaign:", err)
	}
	log.Println("✅ Seeded campaign", campaign.ID, "with preset steps")
}
