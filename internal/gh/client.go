package gh

import (
	"context"
	stderrors "errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/go-github/v63/github"

	"github.com/runrelay/runrelay/internal/errors"
	"github.com/runrelay/runrelay/internal/target"
)

const listPageSize = 100

// Client implements API against the real GitHub Actions API via go-github.
type Client struct {
	gh *github.Client
}

// New builds a Client authenticated with the given bearer token. apiURL is
// an optional GitHub Enterprise base URL; empty means github.com. Credential
// absence is not an error here; the request boundary checks for it before
// any orchestrator runs.
func New(token, apiURL string) (*Client, error) {
	tr := &http.Transport{
		DialContext:         (&net.Dialer{Timeout: 5 * time.Second}).DialContext,
		TLSHandshakeTimeout: 5 * time.Second,
		MaxIdleConns:        100,
		IdleConnTimeout:     90 * time.Second,
	}
	hc := &http.Client{Transport: tr, Timeout: 30 * time.Second}

	c := github.NewClient(hc)
	if token != "" {
		c = c.WithAuthToken(token)
	}
	if apiURL != "" {
		var err error
		c, err = c.WithEnterpriseURLs(apiURL, apiURL)
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeConfig, "invalid GitHub API base URL")
		}
	}
	return &Client{gh: c}, nil
}

// NewFromGitHub wraps an existing go-github client. Used by tests to point
// the client at a fake server.
func NewFromGitHub(c *github.Client) *Client {
	return &Client{gh: c}
}

func (c *Client) Dispatch(ctx context.Context, t target.Target, inputs map[string]interface{}) error {
	req := github.CreateWorkflowDispatchEventRequest{
		Ref:    t.Branch,
		Inputs: inputs,
	}
	_, err := c.gh.Actions.CreateWorkflowDispatchEventByFileName(ctx, t.Owner, t.Repo, t.WorkflowFile, req)
	return classify(err, "workflow dispatch failed")
}

func (c *Client) ListRecentRuns(ctx context.Context, t target.Target, since time.Time) ([]Run, error) {
	opts := &github.ListWorkflowRunsOptions{
		Branch:      t.Branch,
		Event:       "workflow_dispatch",
		Created:     ">=" + since.UTC().Format(time.RFC3339),
		ListOptions: github.ListOptions{PerPage: listPageSize},
	}
	runs, _, err := c.gh.Actions.ListWorkflowRunsByFileName(ctx, t.Owner, t.Repo, t.WorkflowFile, opts)
	if err != nil {
		return nil, classify(err, "listing workflow runs failed")
	}

	// Preserve GitHub's newest-first ordering; discovery depends on it.
	out := make([]Run, 0, len(runs.WorkflowRuns))
	for _, wr := range runs.WorkflowRuns {
		out = append(out, convertRun(wr))
	}
	return out, nil
}

func (c *Client) GetRun(ctx context.Context, t target.Target, runID int64) (Run, error) {
	wr, _, err := c.gh.Actions.GetWorkflowRunByID(ctx, t.Owner, t.Repo, runID)
	if err != nil {
		return Run{}, classify(err, fmt.Sprintf("fetching run %d failed", runID))
	}
	return convertRun(wr), nil
}

func (c *Client) ListJobs(ctx context.Context, t target.Target, runID int64) ([]Job, error) {
	jobs, _, err := c.gh.Actions.ListWorkflowJobs(ctx, t.Owner, t.Repo, runID, &github.ListWorkflowJobsOptions{
		ListOptions: github.ListOptions{PerPage: listPageSize},
	})
	if err != nil {
		return nil, classify(err, fmt.Sprintf("listing jobs for run %d failed", runID))
	}

	out := make([]Job, 0, len(jobs.Jobs))
	for _, j := range jobs.Jobs {
		out = append(out, Job{
			ID:          j.GetID(),
			Name:        j.GetName(),
			Status:      j.GetStatus(),
			Conclusion:  j.GetConclusion(),
			StartedAt:   j.GetStartedAt().Time,
			CompletedAt: j.GetCompletedAt().Time,
		})
	}
	return out, nil
}

func (c *Client) CancelRun(ctx context.Context, t target.Target, runID int64) error {
	_, err := c.gh.Actions.CancelWorkflowRunByID(ctx, t.Owner, t.Repo, runID)
	// go-github reports GitHub's 202 "cancellation scheduled" as an
	// AcceptedError; that is the success case here.
	var accepted *github.AcceptedError
	if stderrors.As(err, &accepted) {
		return nil
	}
	return classify(err, fmt.Sprintf("cancelling run %d failed", runID))
}

func (c *Client) RunLogsURL(ctx context.Context, t target.Target, runID int64) (string, error) {
	u, _, err := c.gh.Actions.GetWorkflowRunLogs(ctx, t.Owner, t.Repo, runID, 0)
	if err != nil {
		return "", classify(err, fmt.Sprintf("resolving log archive for run %d failed", runID))
	}
	return u.String(), nil
}

func (c *Client) JobLogsURL(ctx context.Context, t target.Target, jobID int64) (string, error) {
	u, _, err := c.gh.Actions.GetWorkflowJobLogs(ctx, t.Owner, t.Repo, jobID, 0)
	if err != nil {
		return "", classify(err, fmt.Sprintf("resolving logs for job %d failed", jobID))
	}
	return u.String(), nil
}

func convertRun(wr *github.WorkflowRun) Run {
	return Run{
		ID:            wr.GetID(),
		HTMLURL:       wr.GetHTMLURL(),
		Status:        wr.GetStatus(),
		Conclusion:    wr.GetConclusion(),
		Title:         wr.GetDisplayTitle(),
		CommitMessage: wr.GetHeadCommit().GetMessage(),
		StartedAt:     wr.GetRunStartedAt().Time,
		UpdatedAt:     wr.GetUpdatedAt().Time,
	}
}

// classify maps a go-github error to the relay error taxonomy. 401/403 are
// credential failures (including SSO), 404 is not-found, anything else is a
// transport-level upstream failure with a truncated body for diagnostics.
func classify(err error, msg string) error {
	if err == nil {
		return nil
	}

	var er *github.ErrorResponse
	if stderrors.As(err, &er) && er.Response != nil {
		switch er.Response.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return errors.Wrap(err, errors.CodeUpstreamAuth, msg).
				WithHint(authHint(er.Message))
		case http.StatusNotFound:
			return errors.Wrap(err, errors.CodeNotFound, msg)
		default:
			return errors.Wrap(err, errors.CodeUpstream,
				fmt.Sprintf("%s: GitHub returned %d: %s", msg, er.Response.StatusCode, truncate(er.Message, 200)))
		}
	}

	var rl *github.RateLimitError
	if stderrors.As(err, &rl) {
		return errors.Wrap(err, errors.CodeUpstream, msg+": GitHub rate limit exceeded")
	}

	return errors.Wrap(err, errors.CodeUpstream, msg)
}

func authHint(apiMessage string) string {
	lower := strings.ToLower(apiMessage)
	if strings.Contains(lower, "saml") || strings.Contains(lower, "sso") {
		return "authorize the token for SSO on the target organization"
	}
	return "check that the GitHub token is valid and has the repo and workflow scopes"
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
