// Package eligibility selects the offers of a corridor that may be compared.
//
// Rows must match the corridor and be supported. Callers can narrow further
// with CEL constraints evaluated against each offer, for example
// "settlement_time_days <= 2 && fx_markup_percent < 3.0".
//
// Fees, markups and amount are doubles. Ordering comparisons accept integer
// literals ("amount > 1000"), but equality and arithmetic do not: write
// "fixed_fee == 5.0" and "fixed_fee * 2.0".
package eligibility

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/opensource-finance/kestrel/internal/domain"
)

// ErrInvalidConstraint is returned when a constraint does not compile or does
// not produce a bool.
var ErrInvalidConstraint = errors.New("invalid constraint")

// maxPrograms bounds the compiled-program cache.
const maxPrograms = 512

// Engine compiles and evaluates CEL constraints over offers.
type Engine struct {
	mu       sync.RWMutex
	env      *cel.Env
	programs map[string]cel.Program
}

// Request selects the eligible offers of one corridor.
type Request struct {
	SenderCountry   string
	ReceiverCountry string
	Amount          float64
	Constraints     []string
}

// NewEngine creates a new eligibility engine.
func NewEngine() (*Engine, error) {
	env, err := cel.NewEnv(
		cel.Variable("platform", cel.StringType),
		cel.Variable("fixed_fee", cel.DoubleType),
		cel.Variable("percentage_fee", cel.DoubleType),
		cel.Variable("fx_markup_percent", cel.DoubleType),
		cel.Variable("settlement_time_days", cel.IntType),
		cel.Variable("currency_sent", cel.StringType),
		cel.Variable("currency_received", cel.StringType),
		cel.Variable("sender_country", cel.StringType),
		cel.Variable("receiver_country", cel.StringType),
		cel.Variable("amount", cel.DoubleType),
		cel.CrossTypeNumericComparisons(true),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}

	return &Engine{
		env:      env,
		programs: make(map[string]cel.Program),
	}, nil
}

// Validate compiles a constraint without evaluating it.
func (e *Engine) Validate(expression string) error {
	_, err := e.program(expression)
	return err
}

// Filter returns the offers of the corridor that are supported and satisfy
// every constraint, in input order.
func (e *Engine) Filter(offers []domain.CorridorOffer, req Request) ([]domain.PlatformOffer, error) {
	sender := strings.TrimSpace(req.SenderCountry)
	receiver := strings.TrimSpace(req.ReceiverCountry)

	programs := make([]cel.Program, 0, len(req.Constraints))
	for _, c := range req.Constraints {
		prg, err := e.program(c)
		if err != nil {
			return nil, err
		}
		programs = append(programs, prg)
	}

	eligible := make([]domain.PlatformOffer, 0, len(offers))
	for _, o := range offers {
		if o.SenderCountry != sender || o.ReceiverCountry != receiver || !o.Supported {
			continue
		}

		ok, err := e.satisfies(programs, req.Constraints, o, req.Amount)
		if err != nil {
			return nil, err
		}
		if ok {
			eligible = append(eligible, o.PlatformOffer)
		}
	}

	return eligible, nil
}

func (e *Engine) satisfies(programs []cel.Program, sources []string, o domain.CorridorOffer, amount float64) (bool, error) {
	if len(programs) == 0 {
		return true, nil
	}

	activation := map[string]any{
		"platform":             o.Platform,
		"fixed_fee":            o.FixedFee,
		"percentage_fee":       o.PercentageFee,
		"fx_markup_percent":    o.FXMarkupPercent,
		"settlement_time_days": int64(o.SettlementTimeDays),
		"currency_sent":        o.CurrencySent,
		"currency_received":    o.CurrencyReceived,
		"sender_country":       o.SenderCountry,
		"receiver_country":     o.ReceiverCountry,
		"amount":               amount,
	}

	for i, prg := range programs {
		out, _, err := prg.Eval(activation)
		if err != nil {
			return false, fmt.Errorf("%w: %q on %s: %v", ErrInvalidConstraint, sources[i], o.Platform, err)
		}
		if b, ok := out.(types.Bool); !ok || !bool(b) {
			return false, nil
		}
	}
	return true, nil
}

// ProgramCount returns the number of cached compiled constraints.
func (e *Engine) ProgramCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.programs)
}

func (e *Engine) program(expression string) (cel.Program, error) {
	expression = strings.TrimSpace(expression)
	if expression == "" {
		return nil, fmt.Errorf("%w: empty expression", ErrInvalidConstraint)
	}

	e.mu.RLock()
	prg, ok := e.programs[expression]
	e.mu.RUnlock()
	if ok {
		return prg, nil
	}

	prg, err := e.compile(expression)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	if len(e.programs) >= maxPrograms {
		e.programs = make(map[string]cel.Program)
	}
	e.programs[expression] = prg
	e.mu.Unlock()

	return prg, nil
}

func (e *Engine) compile(expression string) (cel.Program, error) {
	ast, issues := e.env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		msg := issues.Err().Error()
		if strings.Contains(msg, "no matching overload") {
			msg += " (fees, markups and amount are doubles: use 5.0 rather than 5)"
		}
		return nil, fmt.Errorf("%w: %q: %s", ErrInvalidConstraint, expression, msg)
	}

	if ast.OutputType() != cel.BoolType {
		return nil, fmt.Errorf("%w: %q must return bool, got %s", ErrInvalidConstraint, expression, ast.OutputType())
	}

	program, err := e.env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("failed to create program for %q: %w", expression, err)
	}
	return program, nil
}
