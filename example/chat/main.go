package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/google/uuid"
	stumpsearch "github.com/wicketmedia/stumpsearch"
	"github.com/wicketmedia/stumpsearch/helper"
	"github.com/wicketmedia/stumpsearch/model"
)

// Interactive chat over a small image library. Requires GROQ_API_KEY
// to be set (a .env file works too).
func main() {
	// Start a test PostgreSQL container
	teardown, dbPort, err := helper.MustStartPostgresContainer()
	if err != nil {
		log.Fatalf("Failed to start PostgreSQL container: %v", err)
	}
	defer teardown(context.Background())

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

	if err := s.UseDefaultPipeline(); err != nil {
		log.Fatalf("Failed to set up pipeline: %v", err)
	}
	if err := s.UseGroqGenerator(); err != nil {
		log.Fatalf("Failed to set up generator: %v", err)
	}

	refs := model.NewReferenceTables()
	refs.Add(model.VocabKindPlayer, "1", "David Smith")
	refs.Add(model.VocabKindPlayer, "2", "Ravi Patel")
	refs.Add(model.VocabKindAction, "1", "batting")
	refs.Add(model.VocabKindAction, "2", "bowling")
	refs.Add(model.VocabKindMood, "1", "celebration")

	if _, err := s.IngestVocabulary(refs); err != nil {
		log.Fatalf("Failed to ingest vocabulary: %v", err)
	}

	records := []*model.ImageRecord{
		{
			ImageID:  "img-001",
			ImageURL: "https://images.example.com/img-001.jpg",
			Tags:     model.Tags{Action: "batting", Player: "David Smith"},
		},
		{
			ImageID:  "img-002",
			ImageURL: "https://images.example.com/img-002.jpg",
			Tags:     model.Tags{Action: "bowling", Player: "Ravi Patel"},
		},
		{
			ImageID:  "img-003",
			ImageURL: "https://images.example.com/img-003.jpg",
			Tags:     model.Tags{Mood: "celebration", Player: "David Smith"},
		},
	}
	if _, err := s.IngestRecords(context.Background(), records); err != nil {
		log.Fatalf("Failed to ingest records: %v", err)
	}

	sessionID := uuid.New()
	config := model.DefaultQueryConfig()
	config.SimilarityThreshold = 0.0

	fmt.Println("Ask about the image library (type 'quit' to exit):")
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}

		question := strings.TrimSpace(scanner.Text())
		if question == "" {
			continue
		}
		if question == "quit" || question == "exit" {
			break
		}

		turn, err := s.Ask(context.Background(), sessionID, question, &config)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			continue
		}

		fmt.Printf("\n%s\n\n", turn.Answer)
		if len(turn.Grounding) > 0 {
			fmt.Print("Based on:")
			for _, ref := range turn.Grounding {
				fmt.Printf(" %s (%.2f)", ref.ImageID, ref.Score)
			}
			fmt.Println()
		}
	}

	fmt.Println("Goodbye!")
}
