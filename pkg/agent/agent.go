// Package agent wires every service into the per-turn chat pipeline.
package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/airsift/airsift/pkg/cache"
	"github.com/airsift/airsift/pkg/classify"
	"github.com/airsift/airsift/pkg/config"
	"github.com/airsift/airsift/pkg/cost"
	"github.com/airsift/airsift/pkg/health"
	"github.com/airsift/airsift/pkg/history"
	"github.com/airsift/airsift/pkg/llm"
	"github.com/airsift/airsift/pkg/orchestrator"
	"github.com/airsift/airsift/pkg/safety"
	"github.com/airsift/airsift/pkg/session"
	"github.com/airsift/airsift/pkg/tokens"
	"github.com/airsift/airsift/pkg/tools"
)

// cloudCostPerToken is the rough blended price used for the cost
// estimate. Local and mock backends cost nothing.
const cloudCostPerToken = 0.000002

// Agent runs the end-to-end chat pipeline.
type Agent struct {
	cfg      *config.Config
	filter   *safety.Filter
	cache    *cache.Cache
	sessions *session.Manager
	counter  *tokens.Counter
	provider llm.Provider
	orch     *orchestrator.Orchestrator
	executor *tools.Executor
	costs    *cost.Tracker
	monitor  *health.Monitor
	archive  *history.Store // nil when the archive is disabled
}

// Deps bundles the agent's collaborators.
type Deps struct {
	Config   *config.Config
	Filter   *safety.Filter
	Cache    *cache.Cache
	Sessions *session.Manager
	Counter  *tokens.Counter
	Provider llm.Provider
	Orch     *orchestrator.Orchestrator
	Executor *tools.Executor
	Costs    *cost.Tracker
	Monitor  *health.Monitor
	Archive  *history.Store
}

// New creates the agent.
func New(d Deps) *Agent {
	return &Agent{
		cfg:      d.Config,
		filter:   d.Filter,
		cache:    d.Cache,
		sessions: d.Sessions,
		counter:  d.Counter,
		provider: d.Provider,
		orch:     d.Orch,
		executor: d.Executor,
		costs:    d.Costs,
		monitor:  d.Monitor,
		archive:  d.Archive,
	}
}

// Sessions exposes the session manager for the HTTP layer.
func (a *Agent) Sessions() *session.Manager {
	return a.sessions
}

// Monitor exposes the health monitor for the HTTP layer.
func (a *Agent) Monitor() *health.Monitor {
	return a.monitor
}

// Costs exposes the cost tracker for the HTTP layer.
func (a *Agent) Costs() *cost.Tracker {
	return a.costs
}

func (a *Agent) emit(req *Request, typ, title, details string) {
	if req.OnThought == nil {
		return
	}
	req.OnThought(Thought{Type: typ, Title: title, Details: details, Timestamp: time.Now()})
}

// Chat runs one full turn. Errors returned are always *Error with a
// user-safe message.
func (a *Agent) Chat(ctx context.Context, req *Request) (*Response, error) {
	start := time.Now()
	if deadline := a.cfg.Limits.TurnDeadline; deadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, deadline)
		defer cancel()
	}

	// One turn at a time per session.
	unlock := a.sessions.LockTurn(req.SessionID)
	defer unlock()

	resp, err := a.runPipeline(ctx, req)
	a.monitor.RecordResponseTime("chat", time.Since(start))
	if err != nil {
		var pipeErr *Error
		if !errors.As(err, &pipeErr) {
			pipeErr = newError(KindInternal, err.Error(), err)
		}
		pipeErr.withContext("session_id", req.SessionID)
		slog.Error("Turn failed",
			"session_id", req.SessionID,
			"kind", pipeErr.Kind,
			"code", pipeErr.Code,
			"severity", pipeErr.Severity,
			"error", pipeErr.Internal)
		a.monitor.RecordError("agent", pipeErr)
		return nil, pipeErr
	}
	return resp, nil
}

func (a *Agent) runPipeline(ctx context.Context, req *Request) (*Response, error) {
	if strings.TrimSpace(req.Message) == "" {
		return nil, newError(KindInputInvalid, "empty message", nil)
	}

	// 1. Sanitize. Critical threats refuse outright; injections are
	// rewritten to the extracted legitimate query.
	sanitized, err := a.filter.Sanitize(req.Message)
	if err != nil {
		if errors.Is(err, safety.ErrSecurityCritical) {
			return nil, newError(KindSecurityCritical, "critical input pattern", err)
		}
		return nil, newError(KindInputInvalid, err.Error(), err)
	}
	message := sanitized.Text
	if inj := a.filter.DetectInjection(message); inj.Detected {
		a.emit(req, "safety", "Rewrote suspicious input", inj.Family)
		message = inj.CleanQuery
	}

	// 2. Token validation.
	if err := tokens.ValidateInputSize(message, a.cfg.Limits.MaxInputBytes); err != nil {
		return nil, newError(KindTokenBudgetExceeded, err.Error(), err)
	}

	// 3. GPS short-circuit.
	if resp, ok := a.gpsShortCircuit(ctx, req, message); ok {
		return resp, nil
	}

	sess := a.sessions.GetOrCreate(req.SessionID)

	// 4. Consent synthesis.
	if rewritten, ok := synthesizeConsent(sess, message); ok {
		a.emit(req, "routing", "Interpreted location consent", "")
		message = rewritten
	}

	// 5. Cost gate.
	if ok, reason := a.costs.CheckLimits(); !ok {
		return nil, newError(KindCostExceeded, reason, nil)
	}

	// 6. Personal-info sub-protocol: sharing gets a deterministic
	// acknowledgment, recall a deterministic answer. Neither needs the
	// model or any tools.
	res := classify.Classify(message)
	if pi := res.PersonalInfo; pi != nil {
		if pi.Sharing {
			a.capturePersonalInfo(req.SessionID, res)
			resp := acknowledgeSharing(pi)
			a.persistTurn(req, sess, message, resp)
			return resp, nil
		}
		return a.answerRecall(sess), nil
	}

	// 7. Loop check.
	if check := session.DetectLoop(sess, message, a.sessions.LoopWindow()); check.Looping {
		slog.Info("Conversation loop detected", "session_id", req.SessionID, "reason", check.Reason)
		return a.loopResponse(), nil
	}

	// 8. Cache lookup.
	qt := queryTypeOf(res)
	cacheKey := a.cacheKey(message, req.Style)
	if cached, ok := a.cache.GetFresh(ctx, cache.NamespaceResponses, cacheKey, qt); ok {
		var payload cachedPayload
		if err := json.Unmarshal([]byte(cached), &payload); err == nil {
			a.emit(req, "cache", "Served from cache", "")
			resp := &Response{
				Text:         payload.Text,
				ToolsUsed:    payload.ToolsUsed,
				TokensUsed:   payload.TokensUsed,
				FinishReason: payload.FinishReason,
				Cached:       true,
			}
			a.persistTurn(req, sess, message, resp)
			return resp, nil
		}
	}

	// 9-10. Classification drove the plan; run the tools.
	a.emit(req, "analysis", "Classified query",
		fmt.Sprintf("intent=%s complexity=%s", res.Intent, res.Complexity))
	orchRes := a.orch.Run(ctx, res, message)
	if len(orchRes.ToolsUsed) > 0 {
		a.emit(req, "tools", "Retrieved external data", strings.Join(orchRes.ToolsUsed, ", "))
	}
	var chart map[string]any
	if r, ok := orchRes.Results[tools.ToolGenerateChart]; ok && r.Success {
		chart = r.Data
	}

	// 11. Document context.
	userContent := buildDocumentContext(a.sessions.GetDocuments(req.SessionID), message)

	// 12. History optimization.
	historyMsgs := historyMessages(sess)
	optimized, meta := a.counter.Optimize(historyMsgs, tokens.ModelLimit(a.cfg.LLM.Model))
	if meta.Truncated {
		slog.Debug("History truncated",
			"session_id", req.SessionID,
			"from", meta.OriginalTokens, "to", meta.FinalTokens)
	}

	// 13. LLM call.
	system := buildSystemPrompt(req.Style, sess.Summary, sess.PersonalInfo, orchRes.ContextInjection)
	out, err := a.callProvider(ctx, req, userContent, system, optimized)
	if err != nil {
		return nil, err
	}

	// 14. Post-process: redaction and leak checks, merge tools_used.
	filtered := a.filter.FilterResponse(out.Text)
	text := filtered.Text
	toolsUsed := mergeToolsUsed(orchRes.ToolsUsed, out.ToolsUsed)

	// 15. Continuation marker.
	resp := &Response{
		Text:         text,
		ToolsUsed:    toolsUsed,
		TokensUsed:   out.TokensUsed,
		CostEstimate: a.estimateCost(out.TokensUsed),
		FinishReason: out.FinishReason,
		Chart:        chart,
		MemoryTokens: meta.FinalTokens,
	}
	a.applyContinuation(resp)

	// 16. Cache write. Web search results are time-sensitive; never
	// cache responses built on them.
	if !contains(toolsUsed, tools.ToolSearchWeb) && !filtered.ReasoningLeak {
		if payload, err := json.Marshal(cachedPayload{
			Text:         resp.Text,
			ToolsUsed:    resp.ToolsUsed,
			TokensUsed:   resp.TokensUsed,
			FinishReason: resp.FinishReason,
		}); err == nil {
			a.cache.SetForQueryType(ctx, cache.NamespaceResponses, cacheKey, string(payload), qt)
		}
	}

	// 17. Persist.
	a.costs.Track(out.TokensUsed, resp.CostEstimate)
	a.persistTurn(req, sess, message, resp)

	// 18. Return.
	return resp, nil
}

func (a *Agent) callProvider(ctx context.Context, req *Request, message, system string, hist []llm.Message) (*llm.Output, error) {
	in := &llm.Input{
		Message:     message,
		History:     hist,
		System:      system,
		Temperature: a.cfg.LLM.Temperature,
		TopP:        a.cfg.LLM.TopP,
		MaxTokens:   a.cfg.LLM.MaxTokens,
	}
	if req.Temperature != nil {
		in.Temperature = *req.Temperature
	}
	if req.TopP != nil {
		in.TopP = *req.TopP
	}
	if req.MaxTokens > 0 && req.MaxTokens < in.MaxTokens {
		in.MaxTokens = req.MaxTokens
	}

	a.emit(req, "llm", "Generating response", a.cfg.LLM.Model)
	out, err := a.provider.ProcessMessage(ctx, in)
	if err != nil {
		a.monitor.RecordError("llm", err)
		switch {
		case errors.Is(err, llm.ErrRateLimited):
			return nil, newError(KindProviderRateLimited, err.Error(), err)
		case errors.Is(err, context.DeadlineExceeded):
			return nil, newError(KindProviderUnavailable, "turn deadline exceeded", err)
		default:
			return nil, newError(KindProviderUnavailable, err.Error(), err)
		}
	}
	a.monitor.RecordResponseTime("llm", 0) // status only; chat timing covers latency
	return out, nil
}

// applyContinuation truncates overlong responses and marks length-capped
// ones as continuable.
func (a *Agent) applyContinuation(resp *Response) {
	maxChars := a.cfg.System.MaxResponseChars
	if maxChars <= 0 {
		maxChars = 6000
	}
	if len(resp.Text) > maxChars {
		resp.Text = resp.Text[:maxChars]
		resp.Truncated = true
	}
	if resp.FinishReason == llm.FinishLength {
		resp.Truncated = true
	}
	if resp.Truncated {
		resp.RequiresContinuation = true
		resp.Text += "\n\n_Response incomplete — say \"continue\" for the rest._"
	}
}

func (a *Agent) persistTurn(req *Request, sess *session.Session, message string, resp *Response) {
	a.sessions.AppendTurn(req.SessionID, message, resp.Text, resp.TokensUsed)

	if updated, err := a.sessions.Get(req.SessionID); err == nil && session.NeedsSummaryRefresh(updated) {
		a.sessions.UpdateSummary(req.SessionID, session.HeuristicSummary(updated))
	}

	if a.archive != nil {
		a.archive.ArchiveAsync(&history.Turn{
			SessionID: req.SessionID,
			User:      message,
			Assistant: resp.Text,
			Tokens:    resp.TokensUsed,
			ToolsUsed: resp.ToolsUsed,
			Cached:    resp.Cached,
		})
	}
	_ = sess
}

// capturePersonalInfo stores explicitly volunteered fields.
func (a *Agent) capturePersonalInfo(sessionID string, res *classify.Result) {
	if res.PersonalInfo == nil || !res.PersonalInfo.Sharing {
		return
	}
	if res.PersonalInfo.Name != "" {
		a.sessions.SetPersonalInfo(sessionID, "name", res.PersonalInfo.Name)
	}
	if res.PersonalInfo.Location != "" {
		a.sessions.SetPersonalInfo(sessionID, "location", res.PersonalInfo.Location)
	}
}

func (a *Agent) estimateCost(tokensUsed int) float64 {
	switch a.cfg.LLM.Backend {
	case "local", "mock":
		return 0
	}
	return float64(tokensUsed) * cloudCostPerToken
}

func (a *Agent) cacheKey(message, style string) string {
	return cache.HashParams(map[string]string{
		"message": strings.ToLower(strings.TrimSpace(message)),
		"style":   style,
	})
}

// queryTypeOf maps a classification onto the cache freshness buckets.
func queryTypeOf(res *classify.Result) cache.QueryType {
	switch {
	case res.TimeRange == classify.TimeForecast || res.Intent == classify.IntentForecast:
		return cache.QueryForecast
	case res.TimeRange == classify.TimeCurrent && res.NeedsExternal:
		return cache.QueryCurrent
	case res.Intent == classify.IntentAirQualityData || res.Intent == classify.IntentComparison ||
		res.Intent == classify.IntentTrendAnalysis || res.Intent == classify.IntentHealthAdvice:
		return cache.QueryAirQuality
	default:
		return cache.QueryConversational
	}
}

func historyMessages(sess *session.Session) []llm.Message {
	msgs := make([]llm.Message, 0, len(sess.Turns)*2)
	for _, t := range sess.Turns {
		msgs = append(msgs,
			llm.Message{Role: llm.RoleUser, Content: t.User},
			llm.Message{Role: llm.RoleAssistant, Content: t.Assistant},
		)
	}
	return msgs
}

func mergeToolsUsed(a, b []string) []string {
	seen := make(map[string]bool, len(a)+len(b))
	var out []string
	for _, name := range append(append([]string(nil), a...), b...) {
		if !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}
	return out
}

func contains(list []string, name string) bool {
	for _, s := range list {
		if s == name {
			return true
		}
	}
	return false
}
