package harness

import (
	"context"
	"sort"
	"time"
)

const (
	LangJavaScript = "javascript"
	LangPython     = "python"
	LangJava       = "java"
	LangCPP        = "cpp"
)

// Executor runs a named function from source against one argument literal
// and returns the serialized result.
type Executor interface {
	Execute(ctx context.Context, source, argsLiteral string) (string, error)
}

// Result is the outcome of a single Execute call: exactly one of Output or
// Err is meaningful.
type Result struct {
	Output string
	Err    error
}

func (r Result) OK() bool {
	return r.Err == nil
}

type LanguageConfig struct {
	Name       string
	Executable bool
	Executor   Executor
}

// Registry maps language ids to executors. It is read-only after
// construction and safe for concurrent use.
type Registry struct {
	languages map[string]LanguageConfig
}

// NewRegistry declares the reference JavaScript executor and unsupported
// stubs for the remaining editor languages.
func NewRegistry(timeout time.Duration) *Registry {
	return &Registry{
		languages: map[string]LanguageConfig{
			LangJavaScript: {Name: "JavaScript", Executable: true, Executor: NewJavaScriptExecutor(timeout)},
			LangPython:     {Name: "Python", Executor: Unsupported(LangPython)},
			LangJava:       {Name: "Java", Executor: Unsupported(LangJava)},
			LangCPP:        {Name: "C++", Executor: Unsupported(LangCPP)},
		},
	}
}

func (r *Registry) Execute(ctx context.Context, source, argsLiteral, language string) Result {
	cfg, ok := r.languages[language]
	if !ok {
		return Result{Err: &UnsupportedLanguageError{Language: language}}
	}
	out, err := cfg.Executor.Execute(ctx, source, argsLiteral)
	if err != nil {
		return Result{Err: err}
	}
	return Result{Output: out}
}

func (r *Registry) Lookup(language string) (LanguageConfig, bool) {
	cfg, ok := r.languages[language]
	return cfg, ok
}

// Languages returns the declared language ids in a stable order.
func (r *Registry) Languages() []string {
	ids := make([]string, 0, len(r.languages))
	for id := range r.languages {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

type unsupportedExecutor struct {
	language string
}

// Unsupported returns an executor that always fails with
// UnsupportedLanguageError without inspecting its input.
func Unsupported(language string) Executor {
	return unsupportedExecutor{language: language}
}

func (u unsupportedExecutor) Execute(context.Context, string, string) (string, error) {
	return "", &UnsupportedLanguageError{Language: u.language}
}
