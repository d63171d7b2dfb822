package question

import (
	"context"
	"log/slog"
	"math/rand"
	"strings"

	"eduagent/app/client/llm"
	"eduagent/app/client/vecstore"
	"eduagent/app/config"
	"eduagent/app/data"
	"eduagent/app/util/jsonx"

	_ "embed"

	"github.com/samber/do"
)

//go:embed generate_questions_prompt.txt
var generateQuestionsPrompt string

type Record struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Service retrieves practice questions through an ordered chain of
// strategies: vector search, LLM generation, the built-in question bank,
// and finally a synthetic placeholder. It always returns between 1 and
// MaxQuestions records.
//
// Unlike the vector and generative tiers, the built-in bank is consulted
// even when the vector store is enabled but came up empty, so a flaky
// index never starves the agent of questions.
type Service struct {
	cfg          *config.Config
	store        vecstore.Store
	llm          llm.Completer
	maxQuestions int
}

func New(di *do.Injector) (*Service, error) {
	cfg := do.MustInvoke[*config.Config](di)

	var store vecstore.Store
	if cfg.Vector.Enabled {
		store = do.MustInvoke[*vecstore.Client](di)
	}

	return &Service{
		cfg:          cfg,
		store:        store,
		llm:          do.MustInvoke[*llm.Client](di),
		maxQuestions: cfg.Agent.MaxQuestions,
	}, nil
}

type strategy struct {
	name string
	run  func(ctx context.Context, topic, difficulty string) []Record
}

func (s *Service) strategies() []strategy {
	chain := make([]strategy, 0, 4)

	if s.store != nil {
		chain = append(chain, strategy{"vector", s.fromStore})
	}

	chain = append(chain,
		strategy{"generated", s.fromModel},
		strategy{"builtin", s.fromBank},
		strategy{"placeholder", s.placeholder},
	)

	return chain
}

// Retrieve returns up to maxQuestions question/answer pairs for the topic
// at the given difficulty. Each strategy is engaged only when the previous
// one yielded nothing; the placeholder guarantees a non-empty result.
func (s *Service) Retrieve(ctx context.Context, topic, difficulty string) []Record {
	for _, strat := range s.strategies() {
		records := strat.run(ctx, topic, difficulty)
		if len(records) == 0 {
			continue
		}

		if len(records) > s.maxQuestions {
			records = records[:s.maxQuestions]
		}

		slog.Info("Questions retrieved",
			"strategy", strat.name,
			"topic", topic,
			"difficulty", difficulty,
			"count", len(records))

		return records
	}

	// placeholder never yields an empty list
	return nil
}

func (s *Service) fromStore(ctx context.Context, topic, difficulty string) []Record {
	filter := map[string]string{
		"type":       "question",
		"difficulty": strings.ToLower(difficulty),
	}

	docs, err := s.store.SimilaritySearch(ctx, topic, s.maxQuestions, filter)
	if err != nil {
		slog.Error("Vector question search failed", "topic", topic, "error", err)
		return nil
	}

	records := make([]Record, 0, len(docs))
	for _, doc := range docs {
		records = append(records, Record{
			Question: doc.Text,
			Answer:   doc.Metadata["answer"],
		})
	}

	return records
}

func (s *Service) fromModel(ctx context.Context, topic, difficulty string) []Record {
	prompt := llm.Render(generateQuestionsPrompt, map[string]any{
		"topic":      topic,
		"difficulty": difficulty,
	})

	reply, err := s.llm.Complete(ctx, prompt)
	if err != nil {
		slog.Error("Question generation failed", "topic", topic, "error", err)
		return nil
	}

	var parsed struct {
		Questions []Record `json:"questions"`
	}
	if err := jsonx.Parse(reply, &parsed); err != nil {
		slog.Error("Failed to parse generated questions", "error", err)
		return nil
	}

	return parsed.Questions
}

func (s *Service) fromBank(_ context.Context, topic, difficulty string) []Record {
	pool := data.QuestionDB[data.Key(topic)][strings.ToLower(difficulty)]
	if len(pool) == 0 {
		return nil
	}

	count := min(s.maxQuestions, len(pool))

	records := make([]Record, 0, count)
	for _, i := range rand.Perm(len(pool))[:count] {
		records = append(records, Record{
			Question: pool[i].Question,
			Answer:   pool[i].Answer,
		})
	}

	return records
}

func (s *Service) placeholder(_ context.Context, topic, difficulty string) []Record {
	slog.Warn("No questions found anywhere, using placeholder",
		"topic", topic,
		"difficulty", difficulty)

	return []Record{{
		Question: "I could not find or generate a question about \"" + topic + "\" at " + difficulty + " difficulty. Can you suggest another topic?",
		Answer:   "N/A",
	}}
}
