package seed

import (
	"context"
	"testlab/config"
	"testlab/internal/database"
	"testlab/internal/logger"
	. "testlab/internal/models"
	"testlab/internal/repositories"
	"testlab/internal/services"
	"time"
)

// Seed inserts sample submissions when both collections are empty.
func Seed(db database.DB, config config.Config, log logger.Logger) error {
	log = log.Function("seed")
	log.Info("Seeding development data")

	ctx := context.Background()
	testRequestRepo := repositories.NewTestRequest(db)
	contactSubmissionRepo := repositories.NewContactSubmission(db)
	versionRepo := repositories.NewCollectionVersion(db)
	transactionService := services.NewTransactionService(db)
	clock := services.NewMonotonicClock()

	existingRequests, err := testRequestRepo.Count(ctx)
	if err != nil {
		return log.Err("failed to count test requests", err)
	}
	existingContacts, err := contactSubmissionRepo.Count(ctx)
	if err != nil {
		return log.Err("failed to count contact submissions", err)
	}
	if existingRequests > 0 || existingContacts > 0 {
		log.Info("Data already present, skipping seed", "testRequests", existingRequests, "contactSubmissions", existingContacts)
		return nil
	}

	preferred := time.Now().AddDate(0, 0, 7).Truncate(24 * time.Hour).UnixNano()
	testRequests := []TestRequest{
		{
			CustomerName:  "Acme Co",
			Company:       Some("Acme Cables Pvt Ltd"),
			Phone:         "9998887777",
			Email:         Some("quality@acme.example"),
			TestItemType:  "cable",
			Standards:     Some("IS 694:2010"),
			Message:       Some("Type test for 1.5 sq mm PVC insulated cable"),
			PreferredDate: Some(preferred),
		},
		{
			CustomerName: "Ravi Sharma",
			Phone:        "9876543210",
			TestItemType: "conductor",
			Standards:    Some("IS 8130"),
		},
		{
			CustomerName: "Meera Textiles",
			Phone:        "9123456780",
			TestItemType: "wire",
		},
	}
	contactSubmissions := []ContactSubmission{
		{Name: "Jane", Phone: "123", Message: "hi"},
		{Name: "Anil Gupta", Phone: "9000000001", Email: Some("anil@example.com"), Message: "Do you test flexible cords?"},
	}

	return transactionService.Execute(ctx, func(txCtx context.Context) error {
		for _, testRequest := range testRequests {
			testRequest.SubmittedAt = clock.Now()
			if err := testRequestRepo.Create(txCtx, &testRequest); err != nil {
				return log.Err("failed to seed test request", err, "customerName", testRequest.CustomerName)
			}
			if _, err := versionRepo.Bump(txCtx, CollectionTestRequests); err != nil {
				return err
			}
			log.Info("Seeded test request", "testRequestID", testRequest.ID)
		}

		for _, submission := range contactSubmissions {
			submission.SubmittedAt = clock.Now()
			if err := contactSubmissionRepo.Create(txCtx, &submission); err != nil {
				return log.Err("failed to seed contact submission", err, "name", submission.Name)
			}
			if _, err := versionRepo.Bump(txCtx, CollectionContactSubmissions); err != nil {
				return err
			}
			log.Info("Seeded contact submission", "contactSubmissionID", submission.ID)
		}

		return nil
	})
}
