package harness

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/dop251/goja"
)

var (
	declPattern  = regexp.MustCompile(`function\s+([A-Za-z_$][\w$]*)\s*\(([^)]*)\)\s*\{`)
	paramPattern = regexp.MustCompile(`^(\.\.\.)?[A-Za-z_$][\w$]*$`)
)

type JavaScriptExecutor struct {
	timeout time.Duration
}

func NewJavaScriptExecutor(timeout time.Duration) *JavaScriptExecutor {
	return &JavaScriptExecutor{timeout: timeout}
}

// declaration is the function pulled out of free-form source text.
type declaration struct {
	name    string
	formals string   // parameter list as written
	args    []string // invocation arguments derived from formals
	prelude string   // anything before the declaration header
	body    string   // between the header and the last closing brace
}

func parseDeclaration(source string) (*declaration, error) {
	loc := declPattern.FindStringSubmatchIndex(source)
	if loc == nil {
		return nil, &ParseError{Msg: "no function declaration found"}
	}
	name := source[loc[2]:loc[3]]
	formals := strings.TrimSpace(source[loc[4]:loc[5]])

	rest := source[loc[1]:]
	end := strings.LastIndex(rest, "}")
	if end < 0 {
		return nil, &ParseError{Msg: fmt.Sprintf("function %s has no closing brace", name)}
	}

	var args []string
	if formals != "" {
		for _, p := range strings.Split(formals, ",") {
			p = strings.TrimSpace(p)
			if i := strings.Index(p, "="); i >= 0 {
				p = strings.TrimSpace(p[:i])
			}
			if !paramPattern.MatchString(p) {
				return nil, &ParseError{Msg: fmt.Sprintf("unsupported parameter %q in function %s", p, name)}
			}
			args = append(args, p)
		}
	}

	return &declaration{
		name:    name,
		formals: formals,
		args:    args,
		prelude: source[:loc[0]],
		body:    rest[:end],
	}, nil
}

// wrapper builds the callable: its formals are the declaration's formals, and
// its body re-declares the named function from the extracted body and then
// returns an invocation of it with those same formals.
func (d *declaration) wrapper() string {
	var b strings.Builder
	fmt.Fprintf(&b, "(function (%s) {\n", d.formals)
	b.WriteString(d.prelude)
	fmt.Fprintf(&b, "function %s(%s) {%s}\n", d.name, d.formals, d.body)
	fmt.Fprintf(&b, "return %s(%s);\n})", d.name, strings.Join(d.args, ", "))
	return b.String()
}

// Execute runs source's named function with the arguments in argsLiteral,
// a comma separated list of JSON literals. Each call uses a fresh runtime.
func (e *JavaScriptExecutor) Execute(ctx context.Context, source, argsLiteral string) (string, error) {
	decl, err := parseDeclaration(source)
	if err != nil {
		return "", err
	}

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	vm := goja.New()
	installConsole(vm)
	// captured before user code can rebind JSON
	parse, serialize := jsonFunc(vm, "parse"), jsonFunc(vm, "stringify")
	stop := context.AfterFunc(ctx, func() {
		vm.Interrupt(ctx.Err())
	})
	defer stop()

	args, err := parseArguments(vm, parse, argsLiteral)
	if err != nil {
		return "", err
	}

	fnValue, err := vm.RunString(decl.wrapper())
	if err != nil {
		return "", runtimeError(err, e.timeout)
	}
	fn, ok := goja.AssertFunction(fnValue)
	if !ok {
		return "", &RuntimeError{Msg: fmt.Sprintf("%s is not callable", decl.name)}
	}

	ret, err := fn(goja.Undefined(), args...)
	if err != nil {
		return "", runtimeError(err, e.timeout)
	}

	out, err := stringify(serialize, ret)
	if err != nil {
		return "", runtimeError(err, e.timeout)
	}
	return out, nil
}

func jsonFunc(vm *goja.Runtime, name string) goja.Callable {
	fn, _ := goja.AssertFunction(vm.Get("JSON").ToObject(vm).Get(name))
	return fn
}

func parseArguments(vm *goja.Runtime, parse goja.Callable, argsLiteral string) ([]goja.Value, error) {
	parsed, err := parse(goja.Undefined(), vm.ToValue("["+argsLiteral+"]"))
	if err != nil {
		return nil, &ParseError{Msg: fmt.Sprintf("invalid test case arguments %q: %s", argsLiteral, thrownMessage(err))}
	}

	arr := parsed.ToObject(vm)
	n := int(arr.Get("length").ToInteger())
	args := make([]goja.Value, n)
	for i := 0; i < n; i++ {
		args[i] = arr.Get(fmt.Sprint(i))
	}
	return args, nil
}

// stringify renders v the way JSON.stringify does; values it cannot
// represent (undefined, functions) render as "undefined".
func stringify(serialize goja.Callable, v goja.Value) (string, error) {
	out, err := serialize(goja.Undefined(), v)
	if err != nil {
		return "", err
	}
	if goja.IsUndefined(out) {
		return "undefined", nil
	}
	return out.String(), nil
}

func runtimeError(err error, timeout time.Duration) error {
	var interrupted *goja.InterruptedError
	if errors.As(err, &interrupted) {
		if cause, ok := interrupted.Value().(error); ok && errors.Is(cause, context.DeadlineExceeded) {
			if timeout <= 0 {
				return &RuntimeError{Msg: "execution timed out", Interrupted: true}
			}
			return &RuntimeError{Msg: fmt.Sprintf("execution timed out after %s", timeout), Interrupted: true}
		}
		return &RuntimeError{Msg: "execution cancelled", Interrupted: true}
	}
	return &RuntimeError{Msg: thrownMessage(err)}
}

// thrownMessage mirrors what `catch (e) { e.message }` would show.
func thrownMessage(err error) string {
	var ex *goja.Exception
	if !errors.As(err, &ex) {
		return err.Error()
	}
	val := ex.Value()
	if val == nil || goja.IsUndefined(val) || goja.IsNull(val) {
		return ex.Error()
	}
	if obj, ok := val.(*goja.Object); ok {
		if msg := obj.Get("message"); msg != nil && !goja.IsUndefined(msg) {
			return msg.String()
		}
	}
	return val.String()
}

func installConsole(vm *goja.Runtime) {
	discard := func(goja.FunctionCall) goja.Value { return goja.Undefined() }
	console := vm.NewObject()
	for _, name := range []string{"log", "info", "warn", "error", "debug"} {
		_ = console.Set(name, discard)
	}
	_ = vm.Set("console", console)
}
