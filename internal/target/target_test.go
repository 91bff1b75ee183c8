package target

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolvePrecedence(t *testing.T) {
	testCases := []struct {
		name         string
		defaults     Defaults
		wantOwner    string
		wantRepo     string
		wantSource   string
		wantBranch   string
		wantWorkflow string
	}{
		{
			name:         "explicit pair wins over slug",
			defaults:     Defaults{Owner: "acme", Repo: "widgets", Slug: "other/repo"},
			wantOwner:    "acme",
			wantRepo:     "widgets",
			wantSource:   SourceExplicit,
			wantBranch:   "main",
			wantWorkflow: "compliance-scan.yml",
		},
		{
			name:       "slug used when pair incomplete",
			defaults:   Defaults{Owner: "acme", Slug: "acme/widgets"},
			wantOwner:  "acme",
			wantRepo:   "widgets",
			wantSource: SourceSlug,
		},
		{
			name:       "fallback when nothing configured",
			defaults:   Defaults{},
			wantOwner:  fallbackOwner,
			wantRepo:   fallbackRepo,
			wantSource: SourceDefault,
		},
		{
			name:       "malformed slug falls back",
			defaults:   Defaults{Slug: "not-a-slug"},
			wantOwner:  fallbackOwner,
			wantRepo:   fallbackRepo,
			wantSource: SourceDefault,
		},
		{
			name:       "slug with empty repo falls back",
			defaults:   Defaults{Slug: "acme/"},
			wantOwner:  fallbackOwner,
			wantRepo:   fallbackRepo,
			wantSource: SourceDefault,
		},
		{
			name:       "slug with empty owner falls back",
			defaults:   Defaults{Slug: "/widgets"},
			wantOwner:  fallbackOwner,
			wantRepo:   fallbackRepo,
			wantSource: SourceDefault,
		},
		{
			name:       "slug with extra slash falls back",
			defaults:   Defaults{Slug: "acme/widgets/extra"},
			wantOwner:  fallbackOwner,
			wantRepo:   fallbackRepo,
			wantSource: SourceDefault,
		},
		{
			name:         "branch and workflow defaults are independent",
			defaults:     Defaults{Slug: "acme/widgets", Branch: "develop"},
			wantOwner:    "acme",
			wantRepo:     "widgets",
			wantSource:   SourceSlug,
			wantBranch:   "develop",
			wantWorkflow: "compliance-scan.yml",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := Resolve(tc.defaults, Overrides{}, false)
			assert.Equal(t, tc.wantOwner, got.Owner)
			assert.Equal(t, tc.wantRepo, got.Repo)
			assert.Equal(t, tc.wantSource, got.Source)
			if tc.wantBranch != "" {
				assert.Equal(t, tc.wantBranch, got.Branch)
			}
			if tc.wantWorkflow != "" {
				assert.Equal(t, tc.wantWorkflow, got.WorkflowFile)
			}
		})
	}
}

func TestResolveOverridesClosedGate(t *testing.T) {
	defaults := Defaults{Owner: "acme", Repo: "widgets"}

	plain := Resolve(defaults, Overrides{}, false)
	attacked := Resolve(defaults, Overrides{Owner: "attacker", Repo: "evil"}, false)

	// A closed gate must make overrides completely inert.
	assert.Equal(t, plain, attacked)
	assert.Equal(t, SourceExplicit, attacked.Source)
}

func TestResolveOverridesOpenGate(t *testing.T) {
	defaults := Defaults{Owner: "acme", Repo: "widgets", Branch: "main"}

	got := Resolve(defaults, Overrides{Repo: "gadgets", Branch: "feature"}, true)

	assert.Equal(t, "acme", got.Owner)
	assert.Equal(t, "gadgets", got.Repo)
	assert.Equal(t, "feature", got.Branch)
	assert.Equal(t, SourceExplicit+OverrideSuffix, got.Source)
}

func TestResolveOpenGateWithoutOverrides(t *testing.T) {
	got := Resolve(Defaults{Slug: "acme/widgets"}, Overrides{}, true)

	// No override supplied, so no suffix either.
	assert.Equal(t, SourceSlug, got.Source)
}

func TestRunURL(t *testing.T) {
	tgt := Resolve(Defaults{Owner: "acme", Repo: "widgets"}, Overrides{}, false)
	assert.Equal(t, "https://github.com/acme/widgets/actions/runs/42", tgt.RunURL(42))
	assert.Equal(t, "acme/widgets", tgt.Slug())
}
