package infra

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"streaming-dispatch/dispatch/domain"
)

// inlineWorker roda a tarefa na própria chamada de Submit, o que deixa os
// testes da operação totalmente síncronos.
type inlineWorker struct {
	stopped bool
}

func (w *inlineWorker) Name() string { return "inline" }

func (w *inlineWorker) Stop() { w.stopped = true }

func (w *inlineWorker) Submit(task func()) bool {
	if w.stopped {
		return false
	}
	task()
	return true
}

type captureDelegate struct {
	calls int
	resp  *http.Response
	body  []byte
	err   error
}

func (d *captureDelegate) OperationCompleted(_ *Operation, resp *http.Response, body []byte, err error) {
	d.calls++
	d.resp = resp
	d.body = body
	d.err = err
}

func acquireWorker(w domain.Worker) func(context.Context, domain.Endpoint) (domain.Worker, error) {
	return func(context.Context, domain.Endpoint) (domain.Worker, error) {
		return w, nil
	}
}

func TestOperation_DeliversBufferedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "pong")
	}))
	defer srv.Close()

	req, err := http.NewRequest(http.MethodGet, srv.URL, nil)
	if err != nil {
		t.Fatalf("request error: %v", err)
	}

	del := &captureDelegate{}
	finished := 0
	op := NewOperation(OperationConfig{
		Request:    req,
		Endpoint:   domain.Endpoint("a:80"),
		Delegate:   del,
		BufferBody: true,
		Client:     srv.Client(),
		Acquire:    acquireWorker(&inlineWorker{}),
		Finished:   func(*Operation) { finished++ },
	})

	if err := op.Start(context.Background()); err != nil {
		t.Fatalf("unexpected start error: %v", err)
	}
	if err := op.Wait(context.Background()); err != nil {
		t.Fatalf("unexpected operation error: %v", err)
	}

	if string(op.Body()) != "pong" {
		t.Fatalf("expected buffered body %q, got %q", "pong", op.Body())
	}
	if op.Response() == nil || op.Response().StatusCode != http.StatusOK {
		t.Fatalf("expected 200 response")
	}
	if del.calls != 1 || string(del.body) != "pong" || del.err != nil {
		t.Fatalf("expected delegate to get the outcome once, got calls=%d body=%q err=%v", del.calls, del.body, del.err)
	}
	if finished != 1 {
		t.Fatalf("expected finished callback once, got %d", finished)
	}
	if op.Worker() == nil {
		t.Fatalf("expected worker to be recorded on the operation")
	}
}

func TestOperation_BufferOffLeavesBodyWithCaller(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "cru")
	}))
	defer srv.Close()

	req, err := http.NewRequest(http.MethodGet, srv.URL, nil)
	if err != nil {
		t.Fatalf("request error: %v", err)
	}

	op := NewOperation(OperationConfig{
		Request:  req,
		Endpoint: domain.Endpoint("a:80"),
		Client:   srv.Client(),
		Acquire:  acquireWorker(&inlineWorker{}),
	})

	if err := op.Start(context.Background()); err != nil {
		t.Fatalf("unexpected start error: %v", err)
	}
	if err := op.Wait(context.Background()); err != nil {
		t.Fatalf("unexpected operation error: %v", err)
	}

	if op.Body() != nil {
		t.Fatalf("expected no buffered body, got %q", op.Body())
	}
	resp := op.Response()
	if resp == nil {
		t.Fatalf("expected open response")
	}
	raw, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if err != nil || string(raw) != "cru" {
		t.Fatalf("expected caller to read the body, got %q err=%v", raw, err)
	}
}

func TestOperation_AcquireFailureStillFinishes(t *testing.T) {
	wantErr := errors.New("sem vaga")
	req, err := http.NewRequest(http.MethodGet, "http://a/x", nil)
	if err != nil {
		t.Fatalf("request error: %v", err)
	}

	del := &captureDelegate{}
	finished := 0
	op := NewOperation(OperationConfig{
		Request:  req,
		Endpoint: domain.Endpoint("a:80"),
		Delegate: del,
		Acquire: func(context.Context, domain.Endpoint) (domain.Worker, error) {
			return nil, wantErr
		},
		Finished: func(*Operation) { finished++ },
	})

	if err := op.Start(context.Background()); !errors.Is(err, wantErr) {
		t.Fatalf("expected acquire error from Start, got %v", err)
	}
	if err := op.Wait(context.Background()); !errors.Is(err, wantErr) {
		t.Fatalf("expected acquire error from Wait, got %v", err)
	}
	if del.calls != 1 || !errors.Is(del.err, wantErr) {
		t.Fatalf("expected delegate to see the failure, got calls=%d err=%v", del.calls, del.err)
	}
	if finished != 1 {
		t.Fatalf("expected finished callback even on acquire failure, got %d", finished)
	}
	if op.Worker() != nil {
		t.Fatalf("expected no worker on acquire failure")
	}
}

func TestOperation_StoppedWorkerFailsWithClosedError(t *testing.T) {
	w := &inlineWorker{}
	w.Stop()

	req, err := http.NewRequest(http.MethodGet, "http://a/x", nil)
	if err != nil {
		t.Fatalf("request error: %v", err)
	}

	finished := 0
	op := NewOperation(OperationConfig{
		Request:  req,
		Endpoint: domain.Endpoint("a:80"),
		Acquire:  acquireWorker(w),
		Finished: func(*Operation) { finished++ },
	})

	if err := op.Start(context.Background()); !errors.Is(err, domain.ErrDispatcherClosed) {
		t.Fatalf("expected ErrDispatcherClosed, got %v", err)
	}
	if finished != 1 {
		t.Fatalf("expected finished callback on refused submit, got %d", finished)
	}
}

func TestOperation_HTTPErrorReachesDelegate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // derruba o servidor antes da requisição

	req, err := http.NewRequest(http.MethodGet, srv.URL, nil)
	if err != nil {
		t.Fatalf("request error: %v", err)
	}

	del := &captureDelegate{}
	op := NewOperation(OperationConfig{
		Request:    req,
		Endpoint:   domain.Endpoint("a:80"),
		Delegate:   del,
		BufferBody: true,
		Acquire:    acquireWorker(&inlineWorker{}),
	})

	if err := op.Start(context.Background()); err != nil {
		t.Fatalf("unexpected start error: %v", err)
	}
	if err := op.Wait(context.Background()); err == nil {
		t.Fatalf("expected transport error")
	}
	if del.calls != 1 || del.err == nil {
		t.Fatalf("expected delegate to see the transport error, got calls=%d err=%v", del.calls, del.err)
	}
	if del.resp != nil {
		t.Fatalf("expected no response on transport error")
	}
}

func TestOperation_FinishIsIdempotent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	req, err := http.NewRequest(http.MethodGet, srv.URL, nil)
	if err != nil {
		t.Fatalf("request error: %v", err)
	}

	finished := 0
	op := NewOperation(OperationConfig{
		Request:    req,
		Endpoint:   domain.Endpoint("a:80"),
		BufferBody: true,
		Client:     srv.Client(),
		Acquire:    acquireWorker(&inlineWorker{}),
		Finished:   func(*Operation) { finished++ },
	})

	if err := op.Start(context.Background()); err != nil {
		t.Fatalf("unexpected start error: %v", err)
	}
	if err := op.Wait(context.Background()); err != nil {
		t.Fatalf("unexpected operation error: %v", err)
	}

	// término manual redundante, depois do término natural
	op.Finish()
	op.Finish()
	if finished != 1 {
		t.Fatalf("expected finished callback exactly once, got %d", finished)
	}
}

func TestOperation_SecondStartFailsWithoutSideEffects(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = io.WriteString(w, "uma vez")
	}))
	defer srv.Close()

	req, err := http.NewRequest(http.MethodGet, srv.URL, nil)
	if err != nil {
		t.Fatalf("request error: %v", err)
	}

	del := &captureDelegate{}
	finished := 0
	acquires := 0
	op := NewOperation(OperationConfig{
		Request:    req,
		Endpoint:   domain.Endpoint("a:80"),
		Delegate:   del,
		BufferBody: true,
		Client:     srv.Client(),
		Acquire: func(context.Context, domain.Endpoint) (domain.Worker, error) {
			acquires++
			return &inlineWorker{}, nil
		},
		Finished: func(*Operation) { finished++ },
	})

	if err := op.Start(context.Background()); err != nil {
		t.Fatalf("unexpected start error: %v", err)
	}
	if err := op.Wait(context.Background()); err != nil {
		t.Fatalf("unexpected operation error: %v", err)
	}

	if err := op.Start(context.Background()); !errors.Is(err, domain.ErrOperationStarted) {
		t.Fatalf("expected ErrOperationStarted on second Start, got %v", err)
	}

	if acquires != 1 {
		t.Fatalf("expected a single worker acquisition, got %d", acquires)
	}
	if got := hits.Load(); got != 1 {
		t.Fatalf("expected the request to run once, got %d hits", got)
	}
	if del.calls != 1 {
		t.Fatalf("expected delegate outcome once, got %d", del.calls)
	}
	if finished != 1 {
		t.Fatalf("expected finished callback exactly once, got %d", finished)
	}
}
