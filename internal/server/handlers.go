package server

import (
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/url"
	"strconv"

	"go.uber.org/zap"

	"github.com/runrelay/runrelay/internal/errors"
	"github.com/runrelay/runrelay/internal/gh"
	"github.com/runrelay/runrelay/internal/relay"
	"github.com/runrelay/runrelay/internal/target"
)

type triggerRequest struct {
	TargetRepoURL string `json:"targetRepoUrl"`
	CallbackURL   string `json:"callbackUrl,omitempty"`
}

type triggerResponse struct {
	RunID       string `json:"runId"`
	GitHubRunID int64  `json:"githubRunId,omitempty"`
	RunURL      string `json:"runUrl,omitempty"`
	Attempts    int    `json:"attempts,omitempty"`
	Message     string `json:"message"`
}

type cancelRequest struct {
	RunID        string `json:"runId,omitempty"`
	GitHubRunID  int64  `json:"githubRunId,omitempty"`
	GitHubRunURL string `json:"githubRunUrl,omitempty"`
}

type cancelResponse struct {
	Message     string `json:"message"`
	GitHubRunID int64  `json:"githubRunId"`
	RunURL      string `json:"runUrl"`
}

type errorResponse struct {
	Error string `json:"error"`
	Type  string `json:"type"`
	Hint  string `json:"hint,omitempty"`
	RunID string `json:"runId,omitempty"`
}

func (s *Server) handleTrigger(w http.ResponseWriter, r *http.Request) {
	var req triggerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, opTrigger, errors.Wrap(err, errors.CodeInput, "invalid JSON body"), "")
		return
	}
	if req.TargetRepoURL == "" {
		s.writeError(w, opTrigger, errors.New(errors.CodeInput, "targetRepoUrl is required"), "")
		return
	}
	if u, err := url.Parse(req.TargetRepoURL); err != nil || u.Scheme == "" || u.Host == "" {
		s.writeError(w, opTrigger, errors.Newf(errors.CodeInput, "targetRepoUrl %q is not a valid URL", req.TargetRepoURL), "")
		return
	}
	if s.cfg.GitHub.Token == "" {
		s.writeError(w, opTrigger, missingCredential(), "")
		return
	}

	token := s.newToken()
	inputs := map[string]interface{}{
		"target_repo_url": req.TargetRepoURL,
		"correlation_id":  token,
	}
	if req.CallbackURL != "" {
		inputs["callback_url"] = req.CallbackURL
	}

	outcome, err := s.orch.Trigger(r.Context(), s.resolveTarget(r), inputs, token)
	if err != nil {
		// Dispatch was accepted but the run never became visible: the
		// caller should poll status with this token, so hand it back.
		s.writeError(w, opTrigger, err, token)
		return
	}

	writeJSON(w, http.StatusOK, triggerResponse{
		RunID:       outcome.Token,
		GitHubRunID: outcome.RunID,
		RunURL:      outcome.RunURL,
		Attempts:    outcome.Attempts,
		Message:     "workflow dispatched",
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	token := q.Get("runId")
	if token == "" {
		s.writeError(w, opStatus, errors.New(errors.CodeInput, "runId is required"), "")
		return
	}

	var knownID int64
	if v := q.Get("githubRunId"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			s.writeError(w, opStatus, errors.Newf(errors.CodeInput, "githubRunId %q is not numeric", v), token)
			return
		}
		knownID = id
	}
	if knownID == 0 {
		if v := q.Get("githubRunUrl"); v != "" {
			id, err := gh.ParseRunURL(v)
			if err != nil {
				s.writeError(w, opStatus, err, token)
				return
			}
			knownID = id
		}
	}

	if s.cfg.GitHub.Token == "" {
		s.writeError(w, opStatus, missingCredential(), token)
		return
	}

	opts := relay.StatusOptions{
		IncludeLogsArchive: boolParam(q, "includeLogsUrl"),
		IncludeJobLogs:     boolParam(q, "includeJobLogs"),
	}
	snap, err := s.orch.Status(r.Context(), s.resolveTarget(r), token, knownID, opts)
	if err != nil {
		s.writeError(w, opStatus, err, token)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	var req cancelRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.writeError(w, opCancel, errors.Wrap(err, errors.CodeInput, "invalid JSON body"), "")
			return
		}
	}
	// Query parameters win over the body so curl-style calls stay simple.
	q := r.URL.Query()
	if v := q.Get("runId"); v != "" {
		req.RunID = v
	}
	if v := q.Get("githubRunId"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			s.writeError(w, opCancel, errors.Newf(errors.CodeInput, "githubRunId %q is not numeric", v), req.RunID)
			return
		}
		req.GitHubRunID = id
	}
	if v := q.Get("githubRunUrl"); v != "" {
		req.GitHubRunURL = v
	}

	if req.RunID == "" && req.GitHubRunID == 0 && req.GitHubRunURL == "" {
		s.writeError(w, opCancel, errors.New(errors.CodeInput,
			"one of runId, githubRunId or githubRunUrl is required"), "")
		return
	}
	if s.cfg.GitHub.Token == "" {
		s.writeError(w, opCancel, missingCredential(), req.RunID)
		return
	}

	outcome, err := s.orch.Cancel(r.Context(), s.resolveTarget(r), req.RunID, req.GitHubRunID, req.GitHubRunURL)
	if err != nil {
		s.writeError(w, opCancel, err, req.RunID)
		return
	}
	writeJSON(w, http.StatusOK, cancelResponse{
		Message:     "cancellation requested",
		GitHubRunID: outcome.RunID,
		RunURL:      outcome.RunURL,
	})
}

// resolveTarget builds the per-request repository target. Caller overrides
// are only honored when the override gate is open; a closed gate ignores
// them silently.
func (s *Server) resolveTarget(r *http.Request) target.Target {
	q := r.URL.Query()
	t := target.Resolve(
		target.Defaults{
			Owner:        s.cfg.Target.Owner,
			Repo:         s.cfg.Target.Repo,
			Slug:         s.cfg.Target.Slug,
			Branch:       s.cfg.Target.Branch,
			WorkflowFile: s.cfg.Target.WorkflowFile,
		},
		target.Overrides{
			Owner:        q.Get("owner"),
			Repo:         q.Get("repo"),
			Branch:       q.Get("branch"),
			WorkflowFile: q.Get("workflow"),
		},
		s.cfg.OverridesAllowed(),
	)
	s.log.Debug("target resolved",
		zap.String("repo", t.Slug()),
		zap.String("source", t.Source),
	)
	return t
}

func missingCredential() error {
	return errors.New(errors.CodeConfig, "GitHub token is not configured").
		WithHint("set RUNRELAY_GITHUB_TOKEN or github.token in the config file")
}

// Operations have their own HTTP mappings for the same error codes; the
// codes themselves travel unchanged in the "type" field.
const (
	opTrigger = "trigger"
	opStatus  = "status"
	opCancel  = "cancel"
)

func httpStatus(op, code string) int {
	switch code {
	case errors.CodeInput:
		return http.StatusBadRequest
	case errors.CodeConfig:
		if op == opCancel {
			return http.StatusUnauthorized
		}
		return http.StatusInternalServerError
	case errors.CodeUpstreamAuth:
		if op == opCancel {
			return http.StatusUnauthorized
		}
		return http.StatusBadGateway
	case errors.CodeNotFound:
		// Cancel treats an unresolvable run as caller error, not absence.
		if op == opCancel {
			return http.StatusBadRequest
		}
		return http.StatusNotFound
	case errors.CodeUpstream:
		if op == opCancel {
			return http.StatusInternalServerError
		}
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func (s *Server) writeError(w http.ResponseWriter, op string, err error, token string) {
	code := errors.CodeOf(err)
	resp := errorResponse{
		Error: err.Error(),
		Type:  code,
		Hint:  errors.HintOf(err),
		RunID: token,
	}
	var re *errors.RelayError
	if stderrors.As(err, &re) {
		resp.Error = re.Message
	}
	writeJSON(w, httpStatus(op, code), resp)
}

func boolParam(q url.Values, key string) bool {
	b, err := strconv.ParseBool(q.Get(key))
	return err == nil && b
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
