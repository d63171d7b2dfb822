package tutor

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"eduagent/app/client/llm"
	"eduagent/app/config"
	"eduagent/app/service/content"
	"eduagent/app/service/question"
	"eduagent/app/util/jsonx"

	_ "embed"

	"github.com/elliotchance/pie/v2"
	"github.com/samber/do"
)

//go:embed greeting_prompt.txt
var greetingPrompt string

//go:embed extraction_prompt.txt
var extractionPrompt string

//go:embed learning_path_prompt.txt
var learningPathPrompt string

//go:embed knowledge_analysis_prompt.txt
var knowledgeAnalysisPrompt string

//go:embed select_question_prompt.txt
var selectQuestionPrompt string

//go:embed evaluate_answer_prompt.txt
var evaluateAnswerPrompt string

const (
	msgClarify         = "I didn't fully understand what you want to learn. Please clearly tell me the grade level, subject, and specific topic, for example 'I want to learn middle school math geometry'."
	msgExtractTrouble  = "I'm sorry, I had trouble understanding your request. Please clearly specify the grade level, subject, and topic you'd like to learn."
	msgPathTrouble     = "I'm sorry, I encountered an issue while processing the learning path. Could you please tell me again what you'd like to learn?"
	msgNoQuestions     = "I'm sorry, I couldn't find or generate any questions for that topic. Let's start over — what would you like to learn?"
	msgContinueInvite  = "Would you like to continue learning? Please tell me what you'd like to learn."
	msgRestart         = "I'm sorry, I got a bit lost. Let's start over. What grade level, subject, and topic would you like to learn?"
	msgUpstreamTrouble = "I'm sorry, I'm having trouble reaching the tutoring service right now. Please try again in a moment."

	questionPrefix = "Please answer the following question:\n\n"
)

type contentRetriever interface {
	Retrieve(ctx context.Context, grade, subject, topic string) string
}

type questionRetriever interface {
	Retrieve(ctx context.Context, topic, difficulty string) []question.Record
}

// Service orchestrates the tutoring flow: it elicits a learning goal,
// plans a path, and loops question/answer/evaluation rounds per session.
type Service struct {
	cfg         *config.Config
	llm         llm.Completer
	contentSvc  contentRetriever
	questionSvc questionRetriever
	sessions    *sessionStore
}

func New(di *do.Injector) (*Service, error) {
	return &Service{
		cfg:         do.MustInvoke[*config.Config](di),
		llm:         do.MustInvoke[*llm.Client](di),
		contentSvc:  do.MustInvoke[*content.Service](di),
		questionSvc: do.MustInvoke[*question.Service](di),
		sessions:    newSessionStore(),
	}, nil
}

// Process runs one turn of the conversation for a session and returns the
// reply text. Conversational errors never escape: every failure mode maps
// to an apologetic reply with the session held or reset.
func (s *Service) Process(ctx context.Context, sessionID, input string) (string, error) {
	sl := s.sessions.get(sessionID)

	sl.mu.Lock()
	defer sl.mu.Unlock()

	slog.Debug("Processing turn",
		"session", sessionID,
		"state", sl.sess.State.String(),
		"input", input)

	next, reply := s.step(ctx, sl.sess, input)

	if strings.TrimSpace(input) != "" {
		next.Log = append(next.Log, Message{Role: "user", Text: input})
	}
	next.Log = append(next.Log, Message{Role: "assistant", Text: reply})

	if next.State != sl.sess.State {
		slog.Info("State transition",
			"session", sessionID,
			"from", sl.sess.State.String(),
			"to", next.State.String())
	}

	sl.sess = next

	return reply, nil
}

func (s *Service) step(ctx context.Context, sess Session, input string) (Session, string) {
	switch sess.State {
	case StateGreeting:
		if strings.TrimSpace(input) == "" {
			return s.greet(ctx, sess)
		}

		return s.extractAndPlan(ctx, sess, input)

	case StateExtractInfo:
		return s.extractAndPlan(ctx, sess, input)

	case StateAwaitAnswer:
		return s.evaluateAnswer(ctx, sess, input)

	case StateDetermineNext:
		sess.State = StateGreeting
		return s.step(ctx, sess, input)

	default:
		slog.Warn("Unknown state encountered", "state", int(sess.State))
		sess.State = StateGreeting

		return sess, msgRestart
	}
}

func (s *Service) greet(ctx context.Context, sess Session) (Session, string) {
	reply, err := s.llm.Complete(ctx, llm.Render(greetingPrompt, map[string]any{
		"chat_history": formatLog(sess.Log),
	}))
	if err != nil {
		slog.Error("Greeting call failed", "error", err)
		return sess, msgUpstreamTrouble
	}

	sess.State = StateExtractInfo

	return sess, reply
}

// extractAndPlan is the shared handler behind the non-empty branch of
// StateGreeting and all of StateExtractInfo: extract the learning goal,
// fetch content, plan a path, analyze knowledge and pose the first question.
func (s *Service) extractAndPlan(ctx context.Context, sess Session, input string) (Session, string) {
	reply, err := s.llm.Complete(ctx, llm.Render(extractionPrompt, map[string]any{
		"user_input": input,
	}))
	if err != nil {
		slog.Error("Extraction call failed", "error", err)
		return sess, msgUpstreamTrouble
	}

	var extracted struct {
		Grade   *string `json:"grade"`
		Subject *string `json:"subject"`
		Topic   *string `json:"topic"`
	}
	if err := jsonx.Parse(reply, &extracted); err != nil {
		slog.Error("Failed to parse extraction reply", "error", err)
		return sess, msgExtractTrouble
	}

	sess.Grade = deref(extracted.Grade)
	sess.Subject = deref(extracted.Subject)
	sess.Topic = deref(extracted.Topic)
	sess.resetAsked()

	slog.Debug("Extracted learning goal",
		"grade", sess.Grade,
		"subject", sess.Subject,
		"topic", sess.Topic)

	if sess.Grade == "" || sess.Subject == "" || sess.Topic == "" {
		return sess, msgClarify
	}

	sess.Content = s.contentSvc.Retrieve(ctx, sess.Grade, sess.Subject, sess.Topic)

	pathReply, err := s.llm.Complete(ctx, llm.Render(learningPathPrompt, map[string]any{
		"content": sess.Content,
	}))
	if err != nil {
		slog.Error("Learning path call failed", "error", err)
		return sess, msgUpstreamTrouble
	}

	var path struct {
		LearningPath []PathStep `json:"learning_path"`
	}
	if err := jsonx.Parse(pathReply, &path); err != nil {
		slog.Error("Failed to parse learning path reply", "error", err)
		return sess, msgPathTrouble
	}
	sess.LearningPath = path.LearningPath

	next, questionText, outcome := s.planNextQuestion(ctx, sess)
	switch outcome {
	case planFailed:
		return sess, msgPathTrouble
	case planNoQuestions:
		next.State = StateGreeting
		return next, msgNoQuestions
	}

	return next, questionText
}

func (s *Service) evaluateAnswer(ctx context.Context, sess Session, input string) (Session, string) {
	reply, err := s.llm.Complete(ctx, llm.Render(evaluateAnswerPrompt, map[string]any{
		"question":       sess.CurrentQuestion,
		"correct_answer": sess.CurrentAnswer,
		"user_answer":    input,
	}))
	if err != nil {
		slog.Error("Evaluation call failed", "error", err)
		return sess, msgUpstreamTrouble
	}

	var evaluation struct {
		IsCorrect          bool   `json:"is_correct"`
		Feedback           string `json:"feedback"`
		Explanation        string `json:"explanation"`
		TipsForImprovement string `json:"tips_for_improvement"`
	}
	if err := jsonx.Parse(reply, &evaluation); err != nil {
		slog.Error("Failed to parse evaluation reply", "error", err)

		sess.State = StateDetermineNext

		feedback := "Thank you for your answer. The correct answer is: " + sess.CurrentAnswer
		return sess, feedback + "\n\n" + msgContinueInvite
	}

	marker := "✗ Incorrect."
	if evaluation.IsCorrect {
		marker = "✓ Correct!"
	}

	feedback := "Evaluation result:\n\n" + marker +
		"\n\nFeedback: " + evaluation.Feedback +
		"\n\nExplanation: " + evaluation.Explanation +
		"\n\nImprovement tips: " + evaluation.TipsForImprovement

	sess.State = StateDetermineNext

	next, questionText, outcome := s.planNextQuestion(ctx, sess)
	if outcome != planOK {
		sess.State = StateGreeting
		return sess, feedback + "\n\n" + msgNoQuestions
	}

	return next, feedback + "\n\n" + questionText
}

type planOutcome int

const (
	planOK planOutcome = iota
	planFailed
	planNoQuestions
)

// planNextQuestion re-analyzes the learner's knowledge against the path and
// conversation log, retrieves candidate questions for the analyzed topic,
// and selects the next one to pose. On success the session is left in
// StateAwaitAnswer with CurrentQuestion/CurrentAnswer set.
func (s *Service) planNextQuestion(ctx context.Context, sess Session) (Session, string, planOutcome) {
	pathJSON, err := json.Marshal(sess.LearningPath)
	if err != nil {
		return sess, "", planFailed
	}

	analysisReply, err := s.llm.Complete(ctx, llm.Render(knowledgeAnalysisPrompt, map[string]any{
		"learning_path": string(pathJSON),
		"chat_history":  formatLog(sess.Log),
	}))
	if err != nil {
		slog.Error("Knowledge analysis call failed", "error", err)
		return sess, "", planFailed
	}

	var analysis struct {
		KnowledgeLevel string `json:"knowledge_level"`
		NextTopic      string `json:"next_topic"`
		Difficulty     string `json:"difficulty"`
		Reasoning      string `json:"reasoning"`
	}
	if err := jsonx.Parse(analysisReply, &analysis); err != nil {
		slog.Error("Failed to parse knowledge analysis reply", "error", err)
		return sess, "", planFailed
	}

	sess.KnowledgeLevel = analysis.KnowledgeLevel
	sess.NextTopic = analysis.NextTopic
	sess.Difficulty = analysis.Difficulty

	if !strings.EqualFold(analysis.NextTopic, sess.Topic) {
		slog.Info("Topic changed, clearing asked questions",
			"from", sess.Topic,
			"to", analysis.NextTopic)

		sess.resetAsked()
		sess.Topic = analysis.NextTopic
	}

	records := s.questionSvc.Retrieve(ctx, sess.NextTopic, sess.Difficulty)
	if len(records) == 0 {
		return sess, "", planNoQuestions
	}

	chosen := s.selectQuestion(ctx, sess, records)

	sess.recordAsked(chosen.Question)
	sess.CurrentQuestion = chosen.Question
	sess.CurrentAnswer = chosen.Answer
	sess.State = StateAwaitAnswer

	return sess, questionPrefix + chosen.Question, planOK
}

// selectQuestion asks the model to pick a question the user has not seen
// yet. If the model declines or the reply is malformed, it falls back to
// the first retrieved question not already asked, and to the first question
// outright when every candidate has been used up.
func (s *Service) selectQuestion(ctx context.Context, sess Session, records []question.Record) question.Record {
	questionsJSON, _ := json.Marshal(records)

	asked := pie.Keys(sess.AskedQuestions)

	selectReply, err := s.llm.Complete(ctx, llm.Render(selectQuestionPrompt, map[string]any{
		"questions":       string(questionsJSON),
		"user_level":      sess.KnowledgeLevel,
		"topic":           sess.NextTopic,
		"asked_questions": strings.Join(asked, "\n"),
	}))

	var selected struct {
		SelectedQuestion string `json:"selected_question"`
		Answer           string `json:"answer"`
		Reasoning        string `json:"reasoning"`
	}

	if err == nil {
		err = jsonx.Parse(selectReply, &selected)
	}

	if err == nil && selected.SelectedQuestion != "" {
		return question.Record{
			Question: selected.SelectedQuestion,
			Answer:   selected.Answer,
		}
	}

	if err != nil {
		slog.Error("Question selection failed, picking deterministically", "error", err)
	}

	idx := pie.FindFirstUsing(records, func(r question.Record) bool {
		_, alreadyAsked := sess.AskedQuestions[r.Question]
		return !alreadyAsked
	})
	if idx < 0 {
		slog.Warn("All retrieved questions already asked, repeating the first one")
		idx = 0
	}

	return records[idx]
}

func deref(s *string) string {
	if s == nil {
		return ""
	}

	return *s
}
