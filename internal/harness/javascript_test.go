package harness

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

const twoSumSolution = `function twoSum(nums, target) {
    const map = new Map();

    for (let i = 0; i < nums.length; i++) {
      const complement = target - nums[i];

      if (map.has(complement)) {
        return [map.get(complement), i];
      }

      map.set(nums[i], i);
    }

    return [];
  };`

const palindromeSolution = `function isPalindrome(x) {
    if (x < 0) return false;

    // Convert to string and check if it's equal to its reverse
    const str = x.toString();
    const reversed = str.split('').reverse().join('');

    return str === reversed;
  };`

func TestJavaScriptTwoSum(t *testing.T) {
	exec := NewJavaScriptExecutor(time.Second)
	out, err := exec.Execute(context.Background(), twoSumSolution, "[2,7,11,15], 9")
	if err != nil {
		t.Fatalf("execute failed: %v", err)
	}
	if out != "[0,1]" {
		t.Fatalf("expected [0,1], got %s", out)
	}
}

func TestJavaScriptPalindromeNegative(t *testing.T) {
	exec := NewJavaScriptExecutor(time.Second)
	out, err := exec.Execute(context.Background(), palindromeSolution, "-121")
	if err != nil {
		t.Fatalf("execute failed: %v", err)
	}
	if out != "false" {
		t.Fatalf("expected false, got %s", out)
	}
}

func TestJavaScriptMatchesDirectCall(t *testing.T) {
	exec := NewJavaScriptExecutor(time.Second)
	cases := []struct {
		source string
		args   string
		want   string
	}{
		{"function add(a, b) { return a + b; }", "1, 2", "3"},
		{"function concat(a,b){return a.concat(b)}", `[1], [2,3]`, "[1,2,3]"},
		{"function greet(name) { return 'hi ' + name; }", `"bob"`, `"hi bob"`},
		{"function obj(k, v) { const o = {}; o[k] = v; return o; }", `"a", 1`, `{"a":1}`},
		{"function none() { }", "", "undefined"},
		{"function nil(x) { return null; }", "1", "null"},
	}
	for _, tc := range cases {
		out, err := exec.Execute(context.Background(), tc.source, tc.args)
		if err != nil {
			t.Fatalf("%q: execute failed: %v", tc.source, err)
		}
		if out != tc.want {
			t.Fatalf("%q: expected %s, got %s", tc.source, tc.want, out)
		}
	}
}

func TestJavaScriptRecursionAndHelpers(t *testing.T) {
	exec := NewJavaScriptExecutor(time.Second)
	source := `const memo = {};
function fib(n) {
  if (n < 2) return n;
  if (memo[n]) return memo[n];
  return memo[n] = fib(n - 1) + fib(n - 2);
}`
	out, err := exec.Execute(context.Background(), source, "30")
	if err != nil {
		t.Fatalf("execute failed: %v", err)
	}
	if out != "832040" {
		t.Fatalf("expected 832040, got %s", out)
	}
}

func TestJavaScriptMissingDeclaration(t *testing.T) {
	exec := NewJavaScriptExecutor(time.Second)
	for _, source := range []string{"", "const f = (a) => a;", "return 1;", "function (a) { return a; }"} {
		_, err := exec.Execute(context.Background(), source, "1")
		var perr *ParseError
		if !errors.As(err, &perr) {
			t.Fatalf("%q: expected ParseError, got %v", source, err)
		}
	}
}

func TestJavaScriptMalformedArguments(t *testing.T) {
	exec := NewJavaScriptExecutor(time.Second)
	_, err := exec.Execute(context.Background(), "function f(a) { return a; }", "[1,2")
	var perr *ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("expected ParseError, got %v", err)
	}
}

func TestJavaScriptRuntimeThrow(t *testing.T) {
	exec := NewJavaScriptExecutor(time.Second)
	_, err := exec.Execute(context.Background(), "function f(a) { throw new Error('boom'); }", "1")
	var rerr *RuntimeError
	if !errors.As(err, &rerr) {
		t.Fatalf("expected RuntimeError, got %v", err)
	}
	if rerr.Msg != "boom" {
		t.Fatalf("expected thrown message, got %q", rerr.Msg)
	}

	_, err = exec.Execute(context.Background(), "function f(a) { return a.b.c; }", "1")
	if !errors.As(err, &rerr) {
		t.Fatalf("expected RuntimeError for TypeError, got %v", err)
	}

	_, err = exec.Execute(context.Background(), "function f(a) { return a +* ; }", "1")
	if !errors.As(err, &rerr) {
		t.Fatalf("expected RuntimeError for syntax error, got %v", err)
	}
}

func TestJavaScriptTimeout(t *testing.T) {
	exec := NewJavaScriptExecutor(50 * time.Millisecond)
	start := time.Now()
	_, err := exec.Execute(context.Background(), "function spin(a) { while (true) {} }", "1")
	var rerr *RuntimeError
	if !errors.As(err, &rerr) {
		t.Fatalf("expected RuntimeError, got %v", err)
	}
	if !strings.Contains(rerr.Msg, "timed out") {
		t.Fatalf("expected timeout message, got %q", rerr.Msg)
	}
	if !rerr.Interrupted || !IsInterrupted(err) {
		t.Fatalf("expected timeout to be marked interrupted")
	}
	if time.Since(start) > 2*time.Second {
		t.Fatalf("interrupt took too long")
	}
}

func TestJavaScriptCancelledContext(t *testing.T) {
	exec := NewJavaScriptExecutor(0)
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	_, err := exec.Execute(ctx, "function spin(a) { for (;;) {} }", "1")
	var rerr *RuntimeError
	if !errors.As(err, &rerr) {
		t.Fatalf("expected RuntimeError, got %v", err)
	}
	if !rerr.Interrupted {
		t.Fatalf("expected cancellation to be marked interrupted")
	}
}

func TestJavaScriptConsoleIsAvailable(t *testing.T) {
	exec := NewJavaScriptExecutor(time.Second)
	out, err := exec.Execute(context.Background(), "function f(a) { console.log(a); return a * 2; }", "21")
	if err != nil {
		t.Fatalf("execute failed: %v", err)
	}
	if out != "42" {
		t.Fatalf("expected 42, got %s", out)
	}
}

func TestParseDeclaration(t *testing.T) {
	decl, err := parseDeclaration("function twoSum(nums, target = 0) {\n  return nums;\n};")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if decl.name != "twoSum" {
		t.Fatalf("unexpected name %q", decl.name)
	}
	if len(decl.args) != 2 || decl.args[0] != "nums" || decl.args[1] != "target" {
		t.Fatalf("unexpected args %v", decl.args)
	}
	if strings.TrimSpace(decl.body) != "return nums;" {
		t.Fatalf("unexpected body %q", decl.body)
	}

	if _, err := parseDeclaration("function f(a) "); err == nil {
		t.Fatalf("expected error for declaration without body")
	}
	if _, err := parseDeclaration("function f({a, b}) { return a; }"); err == nil {
		t.Fatalf("expected error for destructured parameter")
	}
}
