// Package target resolves which repository, branch and workflow file the
// relay operates against for a single request.
package target

import (
	"fmt"
	"strings"
)

// Provenance tags recorded in Target.Source.
const (
	SourceExplicit = "explicit-config"
	SourceSlug     = "inferred-from-slug"
	SourceDefault  = "default"

	// OverrideSuffix is appended to the source tag when caller-supplied
	// overrides were applied.
	OverrideSuffix = "+override"
)

// Fallback target used when neither an explicit pair nor a slug is
// configured, so a bare deployment still resolves deterministically.
const (
	fallbackOwner = "runrelay"
	fallbackRepo  = "workflows"

	defaultBranch       = "main"
	defaultWorkflowFile = "compliance-scan.yml"
)

// Target is the resolved {owner, repo, branch, workflow file} tuple for one
// request. Immutable once resolved.
type Target struct {
	Owner        string
	Repo         string
	Branch       string
	WorkflowFile string
	Source       string
}

// Slug returns the "owner/repo" form.
func (t Target) Slug() string {
	return t.Owner + "/" + t.Repo
}

// RunURL returns the GitHub web URL for a run in this repository.
func (t Target) RunURL(runID int64) string {
	return fmt.Sprintf("https://github.com/%s/%s/actions/runs/%d", t.Owner, t.Repo, runID)
}

// SplitSlug parses an "owner/repo" slug. Both parts must be non-empty and
// repo must not contain further slashes; anything else reports ok=false.
func SplitSlug(slug string) (owner, repo string, ok bool) {
	owner, repo, ok = strings.Cut(slug, "/")
	if !ok || owner == "" || repo == "" || strings.Contains(repo, "/") {
		return "", "", false
	}
	return owner, repo, true
}

// Defaults holds the server-configured repository target values, assembled
// from configuration at the request boundary.
type Defaults struct {
	Owner        string
	Repo         string
	Slug         string
	Branch       string
	WorkflowFile string
}

// Overrides holds the caller-supplied target values. Empty fields mean "no
// override". Values are used as-is, never validated here; a nonexistent or
// unauthorized repository surfaces later as a 404/401 from GitHub.
type Overrides struct {
	Owner        string
	Repo         string
	Branch       string
	WorkflowFile string
}

func (o Overrides) empty() bool {
	return o.Owner == "" && o.Repo == "" && o.Branch == "" && o.WorkflowFile == ""
}

// Resolve produces the target for a request. Precedence for owner/repo,
// highest first: explicit pair, "owner/repo" slug, hard-coded fallback.
// Branch and workflow file have independent defaults. Caller overrides are
// honored only when allowOverrides is true; a closed gate ignores them
// silently so a caller can never redirect status or cancel calls at a
// foreign repository.
func Resolve(d Defaults, o Overrides, allowOverrides bool) Target {
	t := Target{
		Branch:       d.Branch,
		WorkflowFile: d.WorkflowFile,
	}
	if t.Branch == "" {
		t.Branch = defaultBranch
	}
	if t.WorkflowFile == "" {
		t.WorkflowFile = defaultWorkflowFile
	}

	slugOwner, slugRepo, slugOK := SplitSlug(d.Slug)
	switch {
	case d.Owner != "" && d.Repo != "":
		t.Owner, t.Repo = d.Owner, d.Repo
		t.Source = SourceExplicit
	case slugOK:
		t.Owner, t.Repo = slugOwner, slugRepo
		t.Source = SourceSlug
	default:
		t.Owner, t.Repo = fallbackOwner, fallbackRepo
		t.Source = SourceDefault
	}

	if !allowOverrides || o.empty() {
		return t
	}

	if o.Owner != "" {
		t.Owner = o.Owner
	}
	if o.Repo != "" {
		t.Repo = o.Repo
	}
	if o.Branch != "" {
		t.Branch = o.Branch
	}
	if o.WorkflowFile != "" {
		t.WorkflowFile = o.WorkflowFile
	}
	t.Source += OverrideSuffix

	return t
}
