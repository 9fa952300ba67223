package scripting

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestGojaEngine_ContextCancellation(t *testing.T) {
	engine := NewEngine()

	ctx, cancel := context.WithTimeout(context.Background(), 25*time.Millisecond)
	defer cancel()

	if _, err := engine.Execute(ctx, "while (true) {}"); err == nil || !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected context deadline error, got %v", err)
	}

	if _, err := engine.Execute(context.Background(), "1 + 1"); err != nil {
		t.Fatalf("engine should recover after cancellation, got %v", err)
	}
}

func TestGojaEngine_ImmediateCancel(t *testing.T) {
	engine := NewEngine()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := engine.Execute(ctx, "42"); err == nil || !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context canceled error, got %v", err)
	}
}

func TestGojaEngine_EvalNumber(t *testing.T) {
	engine := NewEngine()
	got, err := engine.EvalNumber(context.Background(), "(100 + 50) * 0.1")
	if err != nil {
		t.Fatalf("eval: %v", err)
	}
	if got != 15 {
		t.Fatalf("got %v, want 15", got)
	}
	if _, err := engine.EvalNumber(context.Background(), "1 / 0"); err == nil {
		t.Fatalf("expected error for infinite result")
	}
	if _, err := engine.EvalNumber(context.Background(), "1 +"); err == nil {
		t.Fatalf("expected syntax error")
	}
}

func TestGojaEngine_RegisterFields(t *testing.T) {
	engine := NewEngine()
	values := Values{"price": "120", "qty": "3"}
	if err := engine.RegisterFields(values); err != nil {
		t.Fatalf("register: %v", err)
	}
	got, err := engine.EvalNumber(context.Background(), `Number(getField("price").value) * Number(getField("qty").value)`)
	if err != nil {
		t.Fatalf("eval: %v", err)
	}
	if got != 360 {
		t.Fatalf("got %v, want 360", got)
	}
	if _, err := engine.Execute(context.Background(), `getField("total") === null`); err != nil {
		t.Fatalf("missing field lookup: %v", err)
	}
	if _, err := engine.Execute(context.Background(), `getField("qty").value = "4"`); err != nil {
		t.Fatalf("set: %v", err)
	}
	if values["qty"] != "4" {
		t.Fatalf("qty = %q", values["qty"])
	}
}
