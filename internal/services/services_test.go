package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"codepad/internal/catalog"
	"codepad/internal/harness"
	"codepad/internal/models"
	"codepad/internal/session"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func loadCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	c, err := catalog.LoadDefault()
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	return c
}

func TestCodeRunnerTwoSumSolution(t *testing.T) {
	cat := loadCatalog(t)
	solution, err := cat.Solution("1", "javascript")
	if err != nil {
		t.Fatalf("solution: %v", err)
	}

	runner := NewCodeRunnerService(harness.NewRegistry(time.Second), cat, NewNoopCache(), 10*time.Millisecond, time.Minute)
	sess := session.New("s1", "1")
	defer sess.Close()

	resp, err := runner.Run(context.Background(), sess, "1", models.RunRequest{SourceCode: solution})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if resp.Language != "javascript" {
		t.Fatalf("expected default language, got %s", resp.Language)
	}
	if resp.Passed != resp.Total || resp.Total != 4 {
		t.Fatalf("expected 4/4 passed, got %d/%d", resp.Passed, resp.Total)
	}
	if resp.Results[0].Actual != "[0,1]" {
		t.Fatalf("expected [0,1], got %s", resp.Results[0].Actual)
	}

	last, err := runner.LastRun(sess, "two-sum")
	if err != nil {
		t.Fatalf("expected last run by slug: %v", err)
	}
	if last.Language != "javascript" || last.Total != 4 {
		t.Fatalf("unexpected last run %+v", last)
	}
	if _, err := runner.LastRun(sess, "2"); !errors.Is(err, ErrNoRun) {
		t.Fatalf("expected ErrNoRun, got %v", err)
	}
}

func TestCodeRunnerPalindromeBySlug(t *testing.T) {
	cat := loadCatalog(t)
	solution, _ := cat.Solution("2", "javascript")
	runner := NewCodeRunnerService(harness.NewRegistry(time.Second), cat, NewNoopCache(), 0, time.Minute)
	sess := session.New("s1", "2")
	defer sess.Close()

	resp, err := runner.Run(context.Background(), sess, "palindrome-number", models.RunRequest{Language: "javascript", SourceCode: solution})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	r := resp.Results[1]
	if r.Input != "-121" || !r.Passed || r.Actual != "false" {
		t.Fatalf("unexpected result for -121: %+v", r)
	}
}

func TestCodeRunnerUnsupportedLanguage(t *testing.T) {
	cat := loadCatalog(t)
	runner := NewCodeRunnerService(harness.NewRegistry(time.Second), cat, NewNoopCache(), 0, time.Minute)
	sess := session.New("s1", "1")
	defer sess.Close()

	solution, _ := cat.Solution("1", "python")
	resp, err := runner.Run(context.Background(), sess, "1", models.RunRequest{Language: "python", SourceCode: solution})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	for _, r := range resp.Results {
		if r.Passed || !r.Error {
			t.Fatalf("expected unsupported error per case, got %+v", r)
		}
	}
}

func TestCodeRunnerClosedSession(t *testing.T) {
	cat := loadCatalog(t)
	runner := NewCodeRunnerService(harness.NewRegistry(time.Second), cat, NewNoopCache(), time.Hour, time.Minute)
	sess := session.New("s1", "1")

	go func() {
		time.Sleep(20 * time.Millisecond)
		sess.Close()
	}()
	_, err := runner.Run(context.Background(), sess, "1", models.RunRequest{SourceCode: "function twoSum(a, b) {}"})
	if !errors.Is(err, session.ErrSessionClosed) {
		t.Fatalf("expected ErrSessionClosed, got %v", err)
	}
}

func TestCodeRunnerContextCancelled(t *testing.T) {
	cat := loadCatalog(t)
	runner := NewCodeRunnerService(harness.NewRegistry(time.Second), cat, NewNoopCache(), time.Hour, time.Minute)
	sess := session.New("s1", "1")
	defer sess.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := runner.Run(ctx, sess, "1", models.RunRequest{SourceCode: "function twoSum(a, b) {}"}); err == nil {
		t.Fatalf("expected cancelled run to fail")
	}
	if sess.PendingTasks() != 0 {
		t.Fatalf("expected abandoned run task to be cancelled")
	}
}

func TestCodeRunnerUsesRedisCache(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	cat := loadCatalog(t)
	cache := NewRedisCache(rdb)
	runner := NewCodeRunnerService(harness.NewRegistry(time.Second), cat, cache, 0, time.Minute)
	sess := session.New("s1", "1")
	defer sess.Close()

	solution, _ := cat.Solution("1", "javascript")
	if _, err := runner.Run(context.Background(), sess, "1", models.RunRequest{SourceCode: solution}); err != nil {
		t.Fatalf("run: %v", err)
	}

	var cached []models.TestResult
	if err := cache.Get(context.Background(), RunCacheKey("1", "javascript", solution), &cached); err != nil {
		t.Fatalf("expected results cached: %v", err)
	}
	if len(cached) != 4 || !cached[0].Passed {
		t.Fatalf("unexpected cached results %+v", cached)
	}

	if err := cache.Get(context.Background(), RunCacheKey("1", "javascript", solution+" "), &cached); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected miss for different source, got %v", err)
	}
}

func TestCodeRunnerSkipsCacheOnTimeout(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	cat := loadCatalog(t)
	cache := NewRedisCache(rdb)
	sess := session.New("s1", "1")
	defer sess.Close()

	slow := "function twoSum(nums, target) { var end = Date.now() + 200; while (Date.now() < end) {} return [0, 1]; }"
	hasty := NewCodeRunnerService(harness.NewRegistry(5*time.Millisecond), cat, cache, 0, time.Minute)
	resp, err := hasty.Run(context.Background(), sess, "1", models.RunRequest{SourceCode: slow})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !resp.Results[0].Error || !strings.Contains(resp.Results[0].Actual, "timed out") {
		t.Fatalf("expected timeout, got %+v", resp.Results[0])
	}

	var cached []models.TestResult
	if err := cache.Get(context.Background(), RunCacheKey("1", "javascript", slow), &cached); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("timed out run must not be cached, got %v", err)
	}

	patient := NewCodeRunnerService(harness.NewRegistry(5*time.Second), cat, cache, 0, time.Minute)
	resp, err = patient.Run(context.Background(), sess, "1", models.RunRequest{SourceCode: slow})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if resp.Results[0].Error || resp.Results[0].Actual != "[0,1]" {
		t.Fatalf("expected fresh execution, got %+v", resp.Results[0])
	}
}

func TestTokenService(t *testing.T) {
	tokens := NewTokenService("secret", time.Hour)
	token, err := tokens.GenerateToken("abc")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	claims, err := tokens.ValidateToken(token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if claims.SessionID != "abc" {
		t.Fatalf("expected session abc, got %s", claims.SessionID)
	}

	other := NewTokenService("other", time.Hour)
	if _, err := other.ValidateToken(token); err == nil {
		t.Fatalf("expected signature mismatch to fail")
	}

	expired := NewTokenService("secret", -time.Minute)
	stale, _ := expired.GenerateToken("abc")
	if _, err := tokens.ValidateToken(stale); err == nil {
		t.Fatalf("expected expired token to fail")
	}
}

func TestRandomGrader(t *testing.T) {
	g := &RandomGrader{AcceptRate: 0.7, Float64: func() float64 { return 0.5 }}
	status, err := g.Grade(context.Background(), models.Submission{}, "")
	if err != nil || status != models.StatusAccepted {
		t.Fatalf("expected accepted, got %s, %v", status, err)
	}
	g.Float64 = func() float64 { return 0.9 }
	status, _ = g.Grade(context.Background(), models.Submission{}, "")
	if status != models.StatusWrong {
		t.Fatalf("expected wrong, got %s", status)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := g.Grade(ctx, models.Submission{}, ""); err == nil {
		t.Fatalf("expected cancelled grade to fail")
	}
}

type recordingPublisher struct {
	mu   sync.Mutex
	jobs []models.GradeJob
	err  error
}

func (p *recordingPublisher) Publish(_ context.Context, job models.GradeJob) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.jobs = append(p.jobs, job)
	return p.err
}

type failingGrader struct{}

func (failingGrader) Grade(context.Context, models.Submission, string) (models.SubmissionStatus, error) {
	return "", errors.New("grader offline")
}

func waitResolved(t *testing.T, sess *session.Session, id int) models.Submission {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		sub, err := sess.Submission(id)
		if err != nil {
			t.Fatalf("submission %d: %v", id, err)
		}
		if sub.Status.Terminal() {
			return sub
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("submission %d still pending", id)
	return models.Submission{}
}

func TestSubmitTwiceResolvesBoth(t *testing.T) {
	cat := loadCatalog(t)
	store := session.NewStore(time.Hour)
	sess := store.Create("1")
	defer store.CloseAll()

	pub := &recordingPublisher{}
	svc := NewSubmissionService(cat, store, NewRandomGrader(0.7), pub, 20*time.Millisecond)

	req := models.SubmissionRequest{SourceCode: "function twoSum(nums, target) {}"}
	first, err := svc.Submit(context.Background(), sess, "1", req)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	second, err := svc.Submit(context.Background(), sess, "1", req)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if second.ID <= first.ID {
		t.Fatalf("expected increasing ids, got %d then %d", first.ID, second.ID)
	}
	if first.Status != models.StatusPending || second.Status != models.StatusPending {
		t.Fatalf("expected pending submissions")
	}

	// act as the worker pool
	for _, job := range pub.jobs {
		if err := svc.ScheduleGrading(job); err != nil {
			t.Fatalf("schedule grading: %v", err)
		}
	}

	for _, id := range []int{first.ID, second.ID} {
		sub := waitResolved(t, sess, id)
		if sub.Status != models.StatusAccepted && sub.Status != models.StatusWrong {
			t.Fatalf("unexpected status %s", sub.Status)
		}
	}
}

func TestSubmitFallsBackWhenQueueFails(t *testing.T) {
	cat := loadCatalog(t)
	store := session.NewStore(time.Hour)
	sess := store.Create("1")
	defer store.CloseAll()

	pub := &recordingPublisher{err: errors.New("redis down")}
	svc := NewSubmissionService(cat, store, failingGrader{}, pub, time.Millisecond)

	sub, err := svc.Submit(context.Background(), sess, "2", models.SubmissionRequest{SourceCode: "x"})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	resolved := waitResolved(t, sess, sub.ID)
	if resolved.Status != models.StatusWrong {
		t.Fatalf("expected grader failure to resolve wrong, got %s", resolved.Status)
	}
}

func TestScheduleGradingUnknownSession(t *testing.T) {
	cat := loadCatalog(t)
	store := session.NewStore(time.Hour)
	svc := NewSubmissionService(cat, store, NewRandomGrader(1), &recordingPublisher{}, 0)

	err := svc.ScheduleGrading(models.GradeJob{SessionID: "missing", SubmissionID: 1})
	if !errors.Is(err, session.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestSubmitUnknownProblem(t *testing.T) {
	cat := loadCatalog(t)
	store := session.NewStore(time.Hour)
	sess := store.Create("1")
	defer store.CloseAll()
	svc := NewSubmissionService(cat, store, NewRandomGrader(1), &recordingPublisher{}, 0)

	if _, err := svc.Submit(context.Background(), sess, "404", models.SubmissionRequest{SourceCode: "x"}); !errors.Is(err, catalog.ErrProblemNotFound) {
		t.Fatalf("expected ErrProblemNotFound, got %v", err)
	}
	if len(sess.Submissions("")) != 0 {
		t.Fatalf("no submission should be recorded for unknown problem")
	}
}
