package scripting

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/dop251/goja"
)

// GojaEngine is an Engine backed by goja. Calls are serialized; the
// runtime is not safe for concurrent use.
type GojaEngine struct {
	mu sync.Mutex
	vm *goja.Runtime
}

func NewEngine() *GojaEngine {
	return &GojaEngine{vm: goja.New()}
}

func (e *GojaEngine) Execute(ctx context.Context, script string) (interface{}, error) {
	val, err := e.run(ctx, script)
	if err != nil {
		return nil, err
	}
	return val.Export(), nil
}

func (e *GojaEngine) EvalNumber(ctx context.Context, expr string) (float64, error) {
	val, err := e.run(ctx, expr)
	if err != nil {
		return 0, err
	}
	f := val.ToFloat()
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("expression %q is not a finite number", expr)
	}
	return f, nil
}

func (e *GojaEngine) run(ctx context.Context, script string) (goja.Value, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	done := make(chan struct{})
	defer close(done)
	defer e.vm.ClearInterrupt()

	go func() {
		select {
		case <-ctx.Done():
			e.vm.Interrupt(ctx.Err())
		case <-done:
		}
	}()

	val, err := e.vm.RunString(script)
	if err != nil {
		var interrupted *goja.InterruptedError
		if errors.As(err, &interrupted) {
			if cause := interrupted.Unwrap(); cause != nil {
				return nil, cause
			}
			return nil, context.Canceled
		}
		return nil, err
	}
	return val, nil
}

func (e *GojaEngine) RegisterFields(fields FieldStore) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.vm.Set("getField", func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) < 1 {
			return goja.Undefined()
		}
		name := call.Arguments[0].String()
		if _, ok := fields.Value(name); !ok {
			return goja.Null()
		}
		obj := e.vm.NewObject()
		_ = obj.DefineAccessorProperty("value",
			e.vm.ToValue(func(goja.FunctionCall) goja.Value {
				v, _ := fields.Value(name)
				return e.vm.ToValue(v)
			}),
			e.vm.ToValue(func(call goja.FunctionCall) goja.Value {
				if len(call.Arguments) > 0 {
					fields.SetValue(name, call.Arguments[0].String())
				}
				return goja.Undefined()
			}),
			goja.FLAG_TRUE,
			goja.FLAG_TRUE,
		)
		return obj
	})
}
