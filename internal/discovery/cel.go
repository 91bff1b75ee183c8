package discovery

import (
	"fmt"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"

	"github.com/runrelay/runrelay/internal/gh"
)

// CELMatcher evaluates an operator-configured CEL expression against each
// candidate run. The expression sees three string variables: token, title
// and commit_message, and must produce a boolean.
//
// Example: title.contains(token) && title.startsWith("Compliance scan")
type CELMatcher struct {
	program cel.Program
}

func NewCELMatcher(expr string) (*CELMatcher, error) {
	env, err := cel.NewEnv(
		cel.Variable("token", cel.StringType),
		cel.Variable("title", cel.StringType),
		cel.Variable("commit_message", cel.StringType),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %v", err)
	}

	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("CEL compilation error: %v", issues.Err())
	}
	if !ast.OutputType().IsExactType(cel.BoolType) {
		return nil, fmt.Errorf("matcher expression must return boolean, got %v", ast.OutputType())
	}

	program, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("CEL program creation error: %v", err)
	}
	return &CELMatcher{program: program}, nil
}

func (m *CELMatcher) Matches(run gh.Run, token string) bool {
	result, _, err := m.program.Eval(map[string]interface{}{
		"token":          token,
		"title":          run.Title,
		"commit_message": run.CommitMessage,
	})
	if err != nil || result.Type() != types.BoolType {
		return false
	}
	return result.Value().(bool)
}
