package content

import (
	"context"
	"log/slog"
	"strings"

	"eduagent/app/client/vecstore"
	"eduagent/app/config"
	"eduagent/app/data"

	"github.com/samber/do"
)

const searchLimit = 2

const defaultContent = "No relevant content found. Here are some general learning tips."

// Service retrieves reference content for a grade/subject/topic triple.
// It never fails the caller: the vector store is tried first, then the
// built-in knowledge base, then a fixed default message.
type Service struct {
	cfg   *config.Config
	store vecstore.Store
}

func New(di *do.Injector) (*Service, error) {
	cfg := do.MustInvoke[*config.Config](di)

	var store vecstore.Store
	if cfg.Vector.Enabled {
		store = do.MustInvoke[*vecstore.Client](di)
	}

	return &Service{
		cfg:   cfg,
		store: store,
	}, nil
}

func (s *Service) Retrieve(ctx context.Context, grade, subject, topic string) string {
	if s.store != nil {
		if text, ok := s.retrieveFromStore(ctx, grade, subject, topic); ok {
			return text
		}
	}

	key := data.Key(grade, subject, topic)

	text, ok := data.KnowledgeBase[key]
	if !ok {
		slog.Warn("No content found, using default", "key", key)
		return defaultContent
	}

	slog.Info("Content found in knowledge base", "key", key)

	return text
}

func (s *Service) retrieveFromStore(ctx context.Context, grade, subject, topic string) (string, bool) {
	filter := map[string]string{
		"grade":   strings.ToLower(grade),
		"subject": strings.ToLower(subject),
		"topic":   strings.ToLower(topic),
		"type":    "content",
	}

	docs, err := s.store.SimilaritySearch(ctx, "", searchLimit, filter)
	if err != nil {
		slog.Error("Metadata search failed", "error", err)
		return "", false
	}

	if len(docs) == 0 {
		query := strings.TrimSpace(grade + " " + subject + " " + topic)

		docs, err = s.store.SimilaritySearch(ctx, query, searchLimit, nil)
		if err != nil {
			slog.Error("Semantic search failed", "query", query, "error", err)
			return "", false
		}
	}

	if len(docs) == 0 {
		return "", false
	}

	texts := make([]string, 0, len(docs))
	for _, doc := range docs {
		texts = append(texts, doc.Text)
	}

	return strings.Join(texts, "\n"), true
}
