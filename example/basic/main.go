package main

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"
	stumpsearch "github.com/wicketmedia/stumpsearch"
	"github.com/wicketmedia/stumpsearch/helper"
	"github.com/wicketmedia/stumpsearch/model"
)

func main() {
	// Start a test PostgreSQL container
	teardown, dbPort, err := helper.MustStartPostgresContainer()
	if err != nil {
		log.Fatalf("Failed to start PostgreSQL container: %v", err)
	}
	defer teardown(context.Background())

	// Create database configuration using the container port
	dbConfig := &helper.DatabaseConfiguration{
		Host:     "localhost",
		Port:     dbPort,
		Database: "database",
		Username: "user",
		Password: "password",
		Schema:   "public",
		SSLMode:  "disable",
	}

	s, err := stumpsearch.NewStumpsearch(dbConfig, 384)
	if err != nil {
		log.Fatalf("Failed to create stumpsearch: %v", err)
	}
	defer s.Close()

	// Set up the default pipeline (normalization + embeddings + query preprocessing)
	if err := s.UseDefaultPipeline(); err != nil {
		log.Fatalf("Failed to set up pipeline: %v", err)
	}

	// Build a small tag vocabulary for filter extraction
	refs := model.NewReferenceTables()
	refs.Add(model.VocabKindPlayer, "1", "David Smith")
	refs.Add(model.VocabKindPlayer, "2", "Ravi Patel")
	refs.Add(model.VocabKindAction, "1", "batting")
	refs.Add(model.VocabKindAction, "2", "bowling")
	refs.Add(model.VocabKindEvent, "1", "practice session")
	refs.Add(model.VocabKindMood, "1", "celebration")

	numTerms, err := s.IngestVocabulary(refs)
	if err != nil {
		log.Fatalf("Failed to ingest vocabulary: %v", err)
	}
	fmt.Printf("Ingested %d vocabulary terms\n", numTerms)

	// Ingest a few tagged images
	records := []*model.ImageRecord{
		{
			ImageID:  "img-001",
			ImageURL: "https://images.example.com/img-001.jpg",
			Tags:     model.Tags{Action: "batting", Player: "David Smith", SubLocation: "main pitch"},
		},
		{
			ImageID:  "img-002",
			ImageURL: "https://images.example.com/img-002.jpg",
			Tags:     model.Tags{Action: "bowling", Player: "Ravi Patel", Event: "practice session"},
		},
		{
			ImageID:  "img-003",
			ImageURL: "https://images.example.com/img-003.jpg",
			Tags:     model.Tags{Mood: "celebration", Event: "final match"},
		},
	}

	fmt.Println("Ingesting image records...")
	numRecords, err := s.IngestRecords(context.Background(), records)
	if err != nil {
		log.Fatalf("Failed to ingest records: %v", err)
	}
	fmt.Printf("Ingested %d records\n", numRecords)

	// Retrieve without answer generation
	queryText := "Show me Ravi Patel bowling"
	fmt.Printf("\nQuerying: %s\n", queryText)

	config := model.DefaultQueryConfig()
	config.SimilarityThreshold = 0.0

	result, err := s.Retrieve(context.Background(), uuid.New(), queryText, &config)
	if err != nil {
		log.Fatalf("Failed to retrieve: %v", err)
	}

	// Display results
	fmt.Printf("\nFound %d matches (filters: %+v, relaxed: %v):\n", len(result.Matches), result.Filters, result.Relaxed)
	for i, match := range result.Matches {
		fmt.Printf("\n--- Match %d ---\n", i+1)
		fmt.Printf("Score: %.4f\n", match.Score)
		fmt.Printf("Image: %s\n", match.ImageID)
		fmt.Printf("Description: %s\n", match.Description)
	}

	fmt.Println("\nBasic example completed successfully!")
}
