package vecstore

import (
	"context"
	"fmt"

	"eduagent/app/config"
	"eduagent/app/data"

	"github.com/google/uuid"
	"github.com/pinecone-io/go-pinecone/v3/pinecone"
	"github.com/samber/do"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"
	"google.golang.org/protobuf/types/known/structpb"
)

// Document is a single indexed text with its metadata. Known metadata keys:
// grade, subject, topic, type ("content"|"question"), difficulty, answer,
// source.
type Document struct {
	Text     string
	Metadata map[string]string
}

type Stats struct {
	DocumentCount uint32
}

// Store is the semantic-search collaborator used by the retrievers.
type Store interface {
	SimilaritySearch(ctx context.Context, query string, k int, filter map[string]string) ([]Document, error)
	AddDocuments(ctx context.Context, docs []Document) error
	CollectionStats(ctx context.Context) (Stats, error)
}

type Client struct {
	cfg      *config.Config
	embedder embeddings.Embedder
	idxConn  *pinecone.IndexConnection
}

var _ Store = (*Client)(nil)

func NewClient(di *do.Injector) (*Client, error) {
	cfg := do.MustInvoke[*config.Config](di)
	ctx := do.MustInvoke[context.Context](di)

	pc, err := pinecone.NewClient(pinecone.NewClientParams{
		ApiKey: cfg.Vector.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create pinecone client: %w", err)
	}

	llm, err := openai.New(
		openai.WithToken(cfg.OpenAI.Chat.Token),
		openai.WithBaseURL(cfg.OpenAI.Chat.BaseURL),
		openai.WithEmbeddingModel(cfg.OpenAI.EmbeddingModel),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding client: %w", err)
	}

	embedder, err := embeddings.NewEmbedder(llm)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}

	idxDesc, err := pc.DescribeIndex(ctx, cfg.Vector.Index)
	if err != nil {
		return nil, fmt.Errorf("failed to describe index: %w", err)
	}

	idxConn, err := pc.Index(pinecone.NewIndexConnParams{
		Host:      idxDesc.Host,
		Namespace: cfg.Vector.Namespace,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create index connection: %w", err)
	}

	return &Client{
		cfg:      cfg,
		embedder: embedder,
		idxConn:  idxConn,
	}, nil
}

func (c *Client) SimilaritySearch(ctx context.Context, query string, k int, filter map[string]string) ([]Document, error) {
	vectors, err := c.embedder.EmbedDocuments(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	request := &pinecone.QueryByVectorValuesRequest{
		Vector:          vectors[0],
		TopK:            uint32(k),
		IncludeMetadata: true,
	}

	if len(filter) > 0 {
		conditions := make(map[string]any, len(filter))
		for key, value := range filter {
			conditions[key] = map[string]any{"$eq": value}
		}

		filterStruct, err := structpb.NewStruct(conditions)
		if err != nil {
			return nil, fmt.Errorf("failed to build metadata filter: %w", err)
		}
		request.MetadataFilter = filterStruct
	}

	result, err := c.idxConn.QueryByVectorValues(ctx, request)
	if err != nil {
		return nil, fmt.Errorf("failed to query vectors: %w", err)
	}

	docs := make([]Document, 0, len(result.Matches))
	for _, match := range result.Matches {
		if match.Vector.Metadata == nil {
			continue
		}

		fields := match.Vector.Metadata.AsMap()

		metadata := make(map[string]string, len(fields))
		for key, value := range fields {
			metadata[key] = fmt.Sprint(value)
		}

		docs = append(docs, Document{
			Text:     metadata["text"],
			Metadata: metadata,
		})
	}

	return docs, nil
}

func (c *Client) AddDocuments(ctx context.Context, docs []Document) error {
	texts := make([]string, 0, len(docs))
	for _, doc := range docs {
		texts = append(texts, doc.Text)
	}

	vectors, err := c.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return fmt.Errorf("failed to embed documents: %w", err)
	}

	upserts := make([]*pinecone.Vector, 0, len(docs))
	for i, doc := range docs {
		fields := make(map[string]any, len(doc.Metadata)+1)
		for key, value := range doc.Metadata {
			fields[key] = value
		}
		fields["text"] = doc.Text

		metadataStruct, err := structpb.NewStruct(fields)
		if err != nil {
			return fmt.Errorf("failed to build metadata struct: %w", err)
		}

		upserts = append(upserts, &pinecone.Vector{
			Id:       uuid.NewString(),
			Values:   &vectors[i],
			Metadata: metadataStruct,
		})
	}

	if _, err := c.idxConn.UpsertVectors(ctx, upserts); err != nil {
		return fmt.Errorf("failed to upsert vectors: %w", err)
	}

	return nil
}

func (c *Client) CollectionStats(ctx context.Context) (Stats, error) {
	stats, err := c.idxConn.DescribeIndexStats(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to describe index stats: %w", err)
	}

	return Stats{DocumentCount: stats.TotalVectorCount}, nil
}

// Seed indexes the built-in knowledge base and question bank so the vector
// tiers have something to serve on a fresh index.
func (c *Client) Seed(ctx context.Context) error {
	var docs []Document

	for _, entry := range data.ContentEntries {
		docs = append(docs, Document{
			Text: entry.Text,
			Metadata: map[string]string{
				"grade":   entry.Grade,
				"subject": entry.Subject,
				"topic":   entry.Topic,
				"type":    "content",
				"source":  "builtin",
			},
		})
	}

	for topicKey, byDifficulty := range data.QuestionDB {
		for difficulty, pool := range byDifficulty {
			for _, qa := range pool {
				docs = append(docs, Document{
					Text: qa.Question,
					Metadata: map[string]string{
						"topic":      topicKey,
						"type":       "question",
						"difficulty": difficulty,
						"answer":     qa.Answer,
						"source":     "builtin",
					},
				})
			}
		}
	}

	return c.AddDocuments(ctx, docs)
}
