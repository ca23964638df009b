package pipeline

import "github.com/wicketmedia/stumpsearch/model"

// NormalizeFunc renders an image record into its canonical description
// text. Identical tag sets must yield identical text.
type NormalizeFunc func(record *model.ImageRecord) (string, error)

// Pipeline combines record normalization, embedding and query
// preprocessing
type Pipeline struct {
	Normalizer   NormalizeFunc
	Embedder     *Embedder
	Preprocessor *Preprocessor
}

// NewPipeline creates a new processing pipeline
func NewPipeline(normalizer NormalizeFunc, embedder *Embedder, preprocessor *Preprocessor) *Pipeline {
	return &Pipeline{
		Normalizer:   normalizer,
		Embedder:     embedder,
		Preprocessor: preprocessor,
	}
}

// Process normalizes a record and fills in its description and
// embedding. The record is modified in place.
func (p *Pipeline) Process(record *model.ImageRecord) error {
	description, err := p.Normalizer(record)
	if err != nil {
		return err
	}

	embedding, err := p.Embedder.Embed(description)
	if err != nil {
		return err
	}

	record.Description = description
	record.Embedding = embedding
	return nil
}
