// Package assistant provides a retrieval-augmented resume coach. Resume
// bullets are embedded and indexed per user; each question retrieves the
// closest bullets and feeds them to the chat prompt together with the target
// job and the running conversation.
package assistant

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"resumeforge/internal/ai"
	"resumeforge/internal/config"
	"resumeforge/internal/errors"
	"resumeforge/internal/types"
	"resumeforge/internal/vector"
)

const (
	contextTopK        = 3
	targetKeywordLimit = 5

	// maxHistoryMessages bounds per-session history; older turns fall off
	maxHistoryMessages = 20
)

const (
	roleUser      = "user"
	roleAssistant = "assistant"
)

// Gateway is the slice of the AI gateway the assistant needs
type Gateway interface {
	GenerateText(ctx context.Context, req ai.GenerateRequest) (string, *ai.TokenUsage, error)
	EmbedText(ctx context.Context, text string) ([]float32, error)
}

// Message is one chat turn
type Message struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

type session struct {
	id         string
	userID     string
	messages   []Message
	lastActive time.Time
}

// Assistant answers resume questions grounded in the user's indexed bullets.
// Sessions live in memory and are scoped to the user who opened them.
type Assistant struct {
	gateway Gateway
	vectors *vector.Store
	cfg     *config.Config
	logger  *errors.Logger

	mu       sync.Mutex
	sessions map[string]*session
}

// New creates an assistant over the given gateway and vector store
func New(gateway Gateway, vectors *vector.Store, cfg *config.Config, logger *errors.Logger) *Assistant {
	return &Assistant{
		gateway:  gateway,
		vectors:  vectors,
		cfg:      cfg,
		logger:   logger,
		sessions: make(map[string]*session),
	}
}

// IndexResume embeds every bullet of the resume and indexes it for retrieval,
// replacing any previous index for the user. Returns the number of indexed
// bullets.
func (a *Assistant) IndexResume(ctx context.Context, userID string, resume *types.MasterResume) (int, error) {
	if userID == "" {
		return 0, errors.NewValidationError(errors.ErrCodeInvalidRequest, "User id is required", nil)
	}
	if resume == nil {
		return 0, errors.NewValidationError(errors.ErrCodeInvalidRequest, "Resume is required", nil)
	}

	entries := []vector.Entry{}
	for expIdx, exp := range resume.Experiences {
		for bulletIdx, bullet := range exp.BulletPoints {
			embedding, err := a.gateway.EmbedText(ctx, fmt.Sprintf("%s - %s: %s", exp.Company, exp.Title, bullet.Text))
			if err != nil {
				return 0, err
			}
			entries = append(entries, vector.Entry{
				ID:     fmt.Sprintf("%s_exp_%d_%d", userID, expIdx, bulletIdx),
				Vector: embedding,
				Payload: map[string]string{
					"user_id": userID,
					"type":    "experience",
					"content": bullet.Text,
					"company": exp.Company,
					"title":   exp.Title,
				},
			})
		}
	}

	// Drop the previous index only after every embedding succeeded, so a
	// failed re-index never leaves the user without one
	a.vectors.DeleteByFilter(map[string]string{"user_id": userID})
	if len(entries) > 0 {
		a.vectors.AddBatch(entries)
	}

	if a.logger != nil {
		a.logger.Debug("Resume indexed for retrieval",
			"user_id", userID,
			"indexed_bullets", len(entries))
	}
	return len(entries), nil
}

// AskRequest carries one user turn. An empty SessionID starts a new session;
// JD optionally supplies the target role for the context block.
type AskRequest struct {
	UserID    string
	SessionID string
	Message   string
	JD        *types.JobDescription
}

// RelevantExperience is one retrieved bullet backing the reply
type RelevantExperience struct {
	Content string  `json:"content"`
	Company string  `json:"company"`
	Score   float64 `json:"score"`
}

// AskResult is the assistant's reply plus the retrieval behind it
type AskResult struct {
	SessionID string               `json:"sessionId"`
	Reply     string               `json:"reply"`
	Context   []RelevantExperience `json:"relevantContext"`
}

// Ask answers one question: retrieve the user's closest bullets, build the
// context block, and generate a coaching reply. The exchange is recorded in
// the session only after generation succeeds.
func (a *Assistant) Ask(ctx context.Context, req AskRequest) (*AskResult, error) {
	if req.UserID == "" {
		return nil, errors.NewValidationError(errors.ErrCodeInvalidRequest, "User id is required", nil)
	}
	if strings.TrimSpace(req.Message) == "" {
		return nil, errors.NewValidationError(errors.ErrCodeInvalidRequest, "Message must not be empty", nil)
	}

	sess, err := a.getOrCreateSession(req.SessionID, req.UserID)
	if err != nil {
		return nil, err
	}

	relevant, err := a.searchRelevantContext(ctx, req.UserID, req.Message)
	if err != nil {
		return nil, err
	}

	contextBlock := buildContextBlock(req.JD, relevant, a.sessionHistory(sess.id))

	reply, err := a.generateReply(ctx, contextBlock, req.Message)
	if err != nil {
		return nil, err
	}

	a.appendExchange(sess.id, req.Message, reply)

	return &AskResult{SessionID: sess.id, Reply: reply, Context: relevant}, nil
}

func (a *Assistant) getOrCreateSession(sessionID, userID string) (*session, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if sessionID == "" {
		sess := &session{
			id:         uuid.New().String(),
			userID:     userID,
			lastActive: time.Now().UTC(),
		}
		a.sessions[sess.id] = sess
		return sess, nil
	}

	sess, ok := a.sessions[sessionID]
	// A session belongs to the user who opened it; another user's id looks
	// like a missing session rather than revealing it exists
	if !ok || sess.userID != userID {
		return nil, errors.NewNotFoundError(errors.ErrCodeSessionNotFound,
			fmt.Sprintf("Chat session not found: %s", sessionID), nil)
	}
	return sess, nil
}

func (a *Assistant) searchRelevantContext(ctx context.Context, userID, query string) ([]RelevantExperience, error) {
	queryVec, err := a.gateway.EmbedText(ctx, query)
	if err != nil {
		return nil, err
	}

	results := a.vectors.Search(queryVec, contextTopK, map[string]string{"user_id": userID})
	relevant := make([]RelevantExperience, 0, len(results))
	for _, r := range results {
		relevant = append(relevant, RelevantExperience{
			Content: r.Payload["content"],
			Company: r.Payload["company"],
			Score:   r.Score,
		})
	}
	return relevant, nil
}

// buildContextBlock assembles the first prompt slot: target role, retrieved
// bullets, and the conversation so far.
func buildContextBlock(jd *types.JobDescription, relevant []RelevantExperience, history []Message) string {
	targetJob := "N/A"
	targetCompany := "N/A"
	var targetKeywords []string
	if jd != nil {
		if jd.Title != "" {
			targetJob = jd.Title
		} else if jd.Position != "" {
			targetJob = jd.Position
		}
		if jd.Company != "" {
			targetCompany = jd.Company
		}
		for _, kw := range jd.Keywords {
			if len(targetKeywords) == targetKeywordLimit {
				break
			}
			targetKeywords = append(targetKeywords, kw.Text)
		}
	}

	parts := []string{
		"RESUME CONTEXT:",
		"- Target Job: " + targetJob,
		"- Target Company: " + targetCompany,
		"- Target Keywords: " + strings.Join(targetKeywords, ", "),
	}

	if len(relevant) > 0 {
		parts = append(parts, "\nRELEVANT EXPERIENCES:")
		for _, exp := range relevant {
			parts = append(parts, fmt.Sprintf("- [%s] %s", exp.Company, exp.Content))
		}
	}

	if len(history) > 0 {
		parts = append(parts, "\nCONVERSATION SO FAR:")
		for _, msg := range history {
			parts = append(parts, fmt.Sprintf("%s: %s", msg.Role, msg.Content))
		}
	}

	return strings.Join(parts, "\n")
}

func (a *Assistant) generateReply(ctx context.Context, contextBlock, question string) (string, error) {
	opCfg := a.cfg.GetChatConfig()
	systemPrompt, userPrompt := ai.ResolvePrompts(ai.OpChat, &opCfg)

	if opCfg.Timeout != nil && *opCfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, *opCfg.Timeout)
		defer cancel()
	}

	req := ai.GenerateRequest{
		Operation:    ai.OpChat,
		Prompt:       fmt.Sprintf(userPrompt, contextBlock, question),
		SystemPrompt: systemPrompt,
	}
	if opCfg.Temperature != nil {
		req.Temperature = *opCfg.Temperature
	}
	if opCfg.MaxTokens != nil {
		req.MaxTokens = *opCfg.MaxTokens
	}

	reply, usage, err := a.gateway.GenerateText(ctx, req)
	if err != nil {
		return "", err
	}
	if a.logger != nil && usage != nil {
		a.logger.Debug("Chat reply generated", "total_tokens", usage.TotalTokens)
	}
	return strings.TrimSpace(reply), nil
}

func (a *Assistant) sessionHistory(sessionID string) []Message {
	a.mu.Lock()
	defer a.mu.Unlock()

	sess, ok := a.sessions[sessionID]
	if !ok {
		return nil
	}
	return append([]Message(nil), sess.messages...)
}

func (a *Assistant) appendExchange(sessionID, userMessage, reply string) {
	now := time.Now().UTC()

	a.mu.Lock()
	defer a.mu.Unlock()

	sess, ok := a.sessions[sessionID]
	if !ok {
		return
	}
	sess.messages = append(sess.messages,
		Message{Role: roleUser, Content: userMessage, Timestamp: now},
		Message{Role: roleAssistant, Content: reply, Timestamp: now},
	)
	if len(sess.messages) > maxHistoryMessages {
		sess.messages = sess.messages[len(sess.messages)-maxHistoryMessages:]
	}
	sess.lastActive = now
}
