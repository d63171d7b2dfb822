package question

import (
	"context"
	"errors"
	"testing"

	"eduagent/app/client/vecstore"
	"eduagent/app/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	docs []vecstore.Document
	err  error
}

func (f *fakeStore) SimilaritySearch(_ context.Context, _ string, _ int, _ map[string]string) ([]vecstore.Document, error) {
	return f.docs, f.err
}

func (f *fakeStore) AddDocuments(context.Context, []vecstore.Document) error {
	return nil
}

func (f *fakeStore) CollectionStats(context.Context) (vecstore.Stats, error) {
	return vecstore.Stats{}, nil
}

type fakeCompleter struct {
	reply string
	err   error
}

func (f *fakeCompleter) Complete(context.Context, string) (string, error) {
	return f.reply, f.err
}

func newTestService(store vecstore.Store, completer *fakeCompleter) *Service {
	return &Service{
		cfg:          &config.Config{},
		store:        store,
		llm:          completer,
		maxQuestions: 3,
	}
}

func TestRetrieveVectorTier(t *testing.T) {
	store := &fakeStore{
		docs: []vecstore.Document{
			{Text: "What is a rhombus?", Metadata: map[string]string{"answer": "A quadrilateral with four equal sides"}},
		},
	}
	svc := newTestService(store, &fakeCompleter{err: errors.New("should not be called")})

	records := svc.Retrieve(context.Background(), "geometry", "easy")

	require.Len(t, records, 1)
	assert.Equal(t, "What is a rhombus?", records[0].Question)
	assert.Equal(t, "A quadrilateral with four equal sides", records[0].Answer)
}

func TestRetrieveGenerativeTier(t *testing.T) {
	completer := &fakeCompleter{
		reply: "```json\n{\"questions\": [" +
			"{\"question\": \"q1\", \"answer\": \"a1\"}," +
			"{\"question\": \"q2\", \"answer\": \"a2\"}," +
			"{\"question\": \"q3\", \"answer\": \"a3\"}," +
			"{\"question\": \"q4\", \"answer\": \"a4\"}]}\n```",
	}
	svc := newTestService(nil, completer)

	records := svc.Retrieve(context.Background(), "calculus", "hard")

	require.Len(t, records, 3, "must truncate to max questions")
	assert.Equal(t, "q1", records[0].Question)
}

func TestRetrieveBankAfterEmptyVectorAndFailedGeneration(t *testing.T) {
	svc := newTestService(&fakeStore{}, &fakeCompleter{reply: "not json"})

	records := svc.Retrieve(context.Background(), "Middle School Math Geometry", "easy")

	require.Len(t, records, 2, "easy pool holds two questions")
	for _, record := range records {
		assert.NotEmpty(t, record.Question)
		assert.NotEmpty(t, record.Answer)
	}
	assert.NotEqual(t, records[0].Question, records[1].Question)
}

func TestRetrieveBankSampleBounds(t *testing.T) {
	svc := newTestService(nil, &fakeCompleter{err: errors.New("model down")})

	// run repeatedly: the sample is random, the bounds are not
	for range 20 {
		records := svc.Retrieve(context.Background(), "middle school math geometry", "medium")
		require.NotEmpty(t, records)
		require.LessOrEqual(t, len(records), 3)
	}
}

func TestRetrievePlaceholderAsLastResort(t *testing.T) {
	svc := newTestService(&fakeStore{err: errors.New("index down")}, &fakeCompleter{err: errors.New("model down")})

	records := svc.Retrieve(context.Background(), "underwater basket weaving", "hard")

	require.Len(t, records, 1)
	assert.Contains(t, records[0].Question, "underwater basket weaving")
	assert.Equal(t, "N/A", records[0].Answer)
}

func TestRetrieveNeverExceedsMax(t *testing.T) {
	store := &fakeStore{
		docs: []vecstore.Document{
			{Text: "q1"}, {Text: "q2"}, {Text: "q3"}, {Text: "q4"}, {Text: "q5"},
		},
	}
	svc := newTestService(store, &fakeCompleter{})

	records := svc.Retrieve(context.Background(), "geometry", "easy")
	assert.Len(t, records, 3)
}
