package stumpsearch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/wicketmedia/stumpsearch/core/answer"
	"github.com/wicketmedia/stumpsearch/core/pipeline"
	"github.com/wicketmedia/stumpsearch/core/retrieval"
	"github.com/wicketmedia/stumpsearch/database"
	"github.com/wicketmedia/stumpsearch/helper"
	"github.com/wicketmedia/stumpsearch/model"
	loadSql "github.com/wicketmedia/stumpsearch/sql"
)

// Stumpsearch provides a unified interface to ingestion, retrieval and
// grounded question answering over a tagged cricket image library
type Stumpsearch struct {
	DB         *helper.Database
	Images     *database.ImagesDBHandler
	Vocabulary *database.VocabularyDBHandler
	Chats      *database.ChatsDBHandler
	Pipeline   *pipeline.Pipeline  // Optional processing pipeline
	Engine     *retrieval.Engine   // Similarity search engine
	Retriever  *retrieval.Retriever
	Composer   *answer.Composer
	// Filter vocabulary, reloaded after vocabulary ingestion
	filters *retrieval.FilterExtractor
	// Logging
	log *slog.Logger
}

// NewStumpsearch creates a new Stumpsearch instance with all handlers initialized
func NewStumpsearch(config *helper.DatabaseConfiguration, embeddingDim int) (*Stumpsearch, error) {
	// Logger
	opts := helper.PrettyHandlerOptions{
		SlogOpts: slog.HandlerOptions{
			Level: slog.LevelInfo,
		},
	}
	logger := slog.New(helper.NewPrettyHandler(os.Stdout, opts))

	// Initialize database
	db := helper.NewDatabase("stumpsearch", config, logger)
	err := loadSql.Init(db.Instance)
	if err != nil {
		return nil, helper.NewError("initialize database extensions", err)
	}

	// Create all handlers
	// force=false to not reload if functions already exist
	images, err := database.NewImagesDBHandler(db, embeddingDim, false)
	if err != nil {
		return nil, helper.NewError("create images handler", err)
	}

	vocabulary, err := database.NewVocabularyDBHandler(db, false)
	if err != nil {
		return nil, helper.NewError("create vocabulary handler", err)
	}

	chats, err := database.NewChatsDBHandler(db, false)
	if err != nil {
		return nil, helper.NewError("create chats handler", err)
	}

	// Create retrieval engine with the image index handler
	engine := retrieval.NewEngine(images)

	return &Stumpsearch{
		DB:         db,
		Images:     images,
		Vocabulary: vocabulary,
		Chats:      chats,
		Engine:     engine,
		log:        logger,
	}, nil
}

// Close closes the database connection
func (s *Stumpsearch) Close() error {
	if s.DB != nil && s.DB.Instance != nil {
		return s.DB.Instance.Close()
	}
	return nil
}

// SetPipeline sets the processing pipeline and wires up the retriever.
// If the index was built with a different embedding model, retrieval
// is blocked until the records are reingested; setup itself succeeds.
func (s *Stumpsearch) SetPipeline(pipe *pipeline.Pipeline) error {
	filters, err := retrieval.NewFilterExtractor(s.Vocabulary)
	if err != nil {
		return helper.NewError("load filter vocabulary", err)
	}

	s.Pipeline = pipe
	s.filters = filters
	s.Retriever = retrieval.NewRetriever(s.Engine, pipe, filters, s.log)

	err = s.Images.VerifyIndexModel(pipe.Embedder.ModelID(), pipe.Embedder.Dimension())
	if errors.Is(err, model.ErrModelMismatch) {
		s.log.Warn("Index was built with a different embedding model, retrieval blocked until reingestion",
			slog.String("embedder", pipe.Embedder.ModelID()))
		s.Retriever.Block(err)
		return nil
	}
	if err != nil {
		return helper.NewError("verify index model", err)
	}

	return nil
}

// UseDefaultPipeline sets up the default normalization, embedding and
// query preprocessing pipeline with the all-MiniLM-L6-v2 model
// (384 dimensions)
func (s *Stumpsearch) UseDefaultPipeline() error {
	embedder, err := pipeline.DefaultEmbedder()
	if err != nil {
		return helper.NewError("create default embedder", err)
	}

	preprocessor, err := pipeline.NewPreprocessor()
	if err != nil {
		return helper.NewError("create preprocessor", err)
	}

	return s.SetPipeline(pipeline.NewPipeline(pipeline.DefaultNormalizer(), embedder, preprocessor))
}

// SetGenerator sets the answer generator used by Ask
func (s *Stumpsearch) SetGenerator(generator answer.Generator) {
	s.Composer = answer.NewComposer(generator, s.log)
}

// UseGroqGenerator sets up the Groq chat client from environment
// variables (GROQ_API_KEY, optionally GROQ_MODEL and GROQ_API_URL)
func (s *Stumpsearch) UseGroqGenerator() error {
	config, err := answer.NewGroqConfigFromEnv()
	if err != nil {
		return helper.NewError("read groq configuration", err)
	}

	generator, err := answer.NewGroqGenerator(config)
	if err != nil {
		return helper.NewError("create groq generator", err)
	}

	s.SetGenerator(generator)
	return nil
}

// IngestVocabulary stores the tag vocabulary derived from the
// reference tables and reloads the filter extractor.
// Returns the number of terms stored.
func (s *Stumpsearch) IngestVocabulary(refs *model.ReferenceTables) (int, error) {
	terms := refs.VocabTerms()
	for i, term := range terms {
		if err := s.Vocabulary.InsertTerm(term); err != nil {
			return i, helper.NewError(fmt.Sprintf("insert vocabulary term %s", term.Term), err)
		}
	}

	s.log.Info("Ingested tag vocabulary", slog.Int("num_terms", len(terms)))

	if s.filters != nil {
		if err := s.filters.Reload(s.Vocabulary); err != nil {
			return len(terms), helper.NewError("reload filter vocabulary", err)
		}
	}

	return len(terms), nil
}

// IngestRecords processes image records by:
// 1. Normalizing each record's tags into a description
// 2. Embedding all descriptions in one batch
// 3. Upserting the records into the index
// Records failing validation are skipped and logged, never aborting
// the batch. After a successful batch the index model is recorded and
// a retrieval block from an earlier model mismatch is lifted.
// Returns the number of records ingested.
func (s *Stumpsearch) IngestRecords(ctx context.Context, records []*model.ImageRecord) (int, error) {
	if s.Pipeline == nil {
		return 0, helper.NewError("ingest records", fmt.Errorf("pipeline not set, use SetPipeline() first"))
	}

	var valid []*model.ImageRecord
	var descriptions []string
	for _, record := range records {
		description, err := s.Pipeline.Normalizer(record)
		if errors.Is(err, model.ErrValidation) {
			s.log.Warn("Skipping invalid record", slog.String("image_id", record.ImageID), slog.String("error", err.Error()))
			continue
		}
		if err != nil {
			return 0, helper.NewError("normalize record", err)
		}

		record.Description = description
		valid = append(valid, record)
		descriptions = append(descriptions, description)
	}

	if len(valid) == 0 {
		return 0, nil
	}

	embeddings, err := s.Pipeline.Embedder.EmbedBatch(descriptions)
	if err != nil {
		return 0, helper.NewError("embed descriptions", err)
	}

	for i, record := range valid {
		record.Embedding = embeddings[i]
		if err := s.Images.UpsertImage(record); err != nil {
			return i, helper.NewError(fmt.Sprintf("upsert image %s", record.ImageID), err)
		}
	}

	err = s.Images.StoreIndexModel(s.Pipeline.Embedder.ModelID(), s.Pipeline.Embedder.Dimension())
	if err != nil {
		return len(valid), helper.NewError("store index model", err)
	}

	if s.Retriever != nil {
		s.Retriever.Unblock()
	}

	s.log.Info("Ingested image records", slog.Int("num_records", len(valid)), slog.Int("num_skipped", len(records)-len(valid)))

	return len(valid), nil
}

// Retrieve runs the retrieval pipeline for a question without
// generating an answer or touching the chat history
func (s *Stumpsearch) Retrieve(ctx context.Context, sessionID uuid.UUID, question string, config *model.QueryConfig) (*model.RetrievalResult, error) {
	if s.Retriever == nil {
		return nil, helper.NewError("retrieve", fmt.Errorf("pipeline not set, use SetPipeline() first"))
	}

	query := &model.Query{
		SessionID: sessionID,
		Raw:       question,
		CreatedAt: time.Now(),
	}

	return s.Retriever.Retrieve(ctx, query, config)
}

// Fixed answer when the index could not be searched for a turn
const retrievalFailedAnswer = "I could not search the cricket image library right now. " +
	"Please try again in a moment."

// Ask answers a question about the image library and appends the turn
// to the session history. The turn is appended exactly once, and only
// after a complete answer exists. Transient retrieval failures degrade
// to a fixed answer; model-mismatch and invalid questions stay errors.
func (s *Stumpsearch) Ask(ctx context.Context, sessionID uuid.UUID, question string, config *model.QueryConfig) (*model.ChatTurn, error) {
	if s.Retriever == nil {
		return nil, helper.NewError("ask", fmt.Errorf("pipeline not set, use SetPipeline() first"))
	}
	if s.Composer == nil {
		return nil, helper.NewError("ask", fmt.Errorf("generator not set, use SetGenerator() first"))
	}
	if config == nil {
		defaultConfig := model.DefaultQueryConfig()
		config = &defaultConfig
	}

	query := &model.Query{
		SessionID: sessionID,
		Raw:       question,
		CreatedAt: time.Now(),
	}

	var answerText string
	result, err := s.Retriever.Retrieve(ctx, query, config)
	if err != nil {
		if errors.Is(err, model.ErrModelMismatch) || errors.Is(err, model.ErrValidation) || ctx.Err() != nil {
			return nil, err
		}

		s.log.Error("Retrieval failed, returning degraded answer", slog.String("error", err.Error()))
		result = &model.RetrievalResult{}
		answerText = retrievalFailedAnswer
	} else {
		history, err := s.Chats.SelectRecentTurns(sessionID, config.HistoryTurns)
		if err != nil {
			// History is advisory context, a read failure never fails the turn
			s.log.Warn("Failed to load session history", slog.String("error", err.Error()))
			history = nil
		}

		answerText, err = s.Composer.Compose(ctx, query, result, history, config)
		if err != nil {
			return nil, err
		}
	}

	turn := &model.ChatTurn{
		SessionID:          sessionID,
		Question:           question,
		NormalizedQuestion: query.Normalized,
		Grounding:          result.Grounding(),
		Answer:             answerText,
	}
	if err := s.Chats.AppendTurn(turn); err != nil {
		return nil, helper.NewError("append chat turn", err)
	}

	return turn, nil
}

// ChangeIndexType changes the vector index type between HNSW and IVFFlat
func (s *Stumpsearch) ChangeIndexType(ctx context.Context, indexType string, params map[string]interface{}) error {
	return s.Images.ChangeIndexType(ctx, indexType, params)
}
