// Package checkout simulates the checkout flow: per-field validation, a fixed
// processing delay standing in for a payment gateway, then clearing the cart.
package checkout

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/utafrali/storefront/internal/timer"
	apperrors "github.com/utafrali/storefront/pkg/errors"
)

// State is the checkout state machine position.
type State string

// Checkout states.
const (
	StateIdle       State = "idle"
	StateValidating State = "validating"
	StateRejected   State = "rejected"
	StateProcessing State = "processing"
	StateCompleted  State = "completed"
)

// DefaultDelay is the simulated order processing time.
const DefaultDelay = 2 * time.Second

// Sentinel errors returned by Submit.
var (
	ErrProcessing = apperrors.Conflict("checkout is already processing")
	ErrEmptyCart  = apperrors.InvalidInput("cart is empty")
)

// ValidationError lists the fields that failed on submit.
type ValidationError struct {
	Fields map[Field]string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("checkout validation failed on %d field(s)", len(e.Fields))
}

// AppError converts the failure into the API error shape.
func (e *ValidationError) AppError() *apperrors.AppError {
	fields := make(map[string]string, len(e.Fields))
	for f, msg := range e.Fields {
		fields[string(f)] = msg
	}
	return apperrors.Validation("Please correct the errors in the form", fields)
}

// Cart is what checkout needs from the cart store.
type Cart interface {
	IsEmpty() bool
	ItemCount() int
	Total() decimal.Decimal
	Clear() bool
}

// Order is the confirmation recorded when processing completes.
type Order struct {
	ID       string          `json:"id"`
	Items    int             `json:"items"`
	Total    decimal.Decimal `json:"total"`
	PlacedAt time.Time       `json:"placedAt"`
}

// Option configures a Simulator.
type Option func(*Simulator)

// WithDelay sets the simulated processing time.
func WithDelay(d time.Duration) Option {
	return func(s *Simulator) { s.delay = d }
}

// WithLocker sets the lock taken by the delayed completion callback. It must
// be the lock that serializes every other call on the Simulator.
func WithLocker(l sync.Locker) Option {
	return func(s *Simulator) { s.lock = l }
}

// WithOnComplete registers a hook run, under the lock, after an order is
// placed and the cart cleared.
func WithOnComplete(fn func(Order)) Option {
	return func(s *Simulator) { s.onComplete = fn }
}

// WithIDGenerator overrides order id generation.
func WithIDGenerator(fn func() string) Option {
	return func(s *Simulator) { s.newID = fn }
}

// Simulator is the checkout state machine. It is not safe for concurrent use;
// callers serialize access with the lock given to WithLocker.
type Simulator struct {
	cart  Cart
	sched timer.Scheduler
	delay time.Duration
	lock  sync.Locker
	newID func() string

	onComplete func(Order)

	state   State
	values  Form
	errors  map[Field]string
	pending timer.Token
	attempt uint64
	order   *Order
}

// New creates an idle simulator over cart.
func New(cart Cart, sched timer.Scheduler, opts ...Option) *Simulator {
	s := &Simulator{
		cart:   cart,
		sched:  sched,
		delay:  DefaultDelay,
		lock:   &sync.Mutex{},
		newID:  uuid.NewString,
		state:  StateIdle,
		errors: make(map[Field]string),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns the current state.
func (s *Simulator) State() State { return s.state }

// Values returns the current form values.
func (s *Simulator) Values() Form { return s.values }

// Errors returns a copy of the visible field errors.
func (s *Simulator) Errors() map[Field]string {
	out := make(map[Field]string, len(s.errors))
	for f, msg := range s.errors {
		out[f] = msg
	}
	return out
}

// LastOrder returns the most recently placed order, if any.
func (s *Simulator) LastOrder() (Order, bool) {
	if s.order == nil {
		return Order{}, false
	}
	return *s.order, true
}

// settle moves a finished or rejected machine back to idle.
func (s *Simulator) settle() {
	if s.state == StateRejected || s.state == StateCompleted {
		s.state = StateIdle
	}
}

// Open prepares the form for display.
func (s *Simulator) Open() {
	s.settle()
}

// Blur validates one field on loss of focus and returns its message, or ""
// when valid. Input is ignored while processing.
func (s *Simulator) Blur(field Field, value string) (string, error) {
	if !IsField(field) {
		return "", apperrors.InvalidInput(fmt.Sprintf("unknown checkout field %q", field))
	}
	if s.state == StateProcessing {
		return s.errors[field], nil
	}
	s.settle()
	s.values.Set(field, value)

	msg := ValidateField(field, value)
	if msg == "" {
		delete(s.errors, field)
	} else {
		s.errors[field] = msg
	}
	return msg, nil
}

// Edit records a new value and clears the field's error.
func (s *Simulator) Edit(field Field, value string) error {
	if !IsField(field) {
		return apperrors.InvalidInput(fmt.Sprintf("unknown checkout field %q", field))
	}
	if s.state == StateProcessing {
		return nil
	}
	s.settle()
	s.values.Set(field, value)
	delete(s.errors, field)
	return nil
}

// Submit validates the whole form. On failure it returns a *ValidationError,
// leaves the cart alone and parks the machine in Rejected. On success it
// enters Processing and schedules completion after the delay.
func (s *Simulator) Submit(form Form) error {
	if s.state == StateProcessing {
		return ErrProcessing
	}
	if s.cart.IsEmpty() {
		return ErrEmptyCart
	}

	s.state = StateValidating
	s.values = form
	errs := ValidateForm(form)
	if len(errs) > 0 {
		s.errors = errs
		s.state = StateRejected
		return &ValidationError{Fields: s.Errors()}
	}

	s.errors = make(map[Field]string)
	s.state = StateProcessing
	s.attempt++
	attempt := s.attempt
	s.pending = s.sched.AfterFunc(s.delay, func() { s.complete(attempt) })
	return nil
}

// complete runs when the simulated processing delay has passed. A timer
// that belongs to an aborted attempt does nothing.
func (s *Simulator) complete(attempt uint64) {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.state != StateProcessing || s.attempt != attempt {
		return
	}

	order := Order{
		ID:       s.newID(),
		Items:    s.cart.ItemCount(),
		Total:    s.cart.Total(),
		PlacedAt: s.sched.Now(),
	}
	s.cart.Clear()

	s.state = StateCompleted
	s.values = Form{}
	s.errors = make(map[Field]string)
	s.pending = nil
	s.order = &order

	if s.onComplete != nil {
		s.onComplete(order)
	}
}

// Abort cancels an order that is still processing and returns to idle. The
// cart is left untouched, even when the delay timer has already fired and its
// completion is waiting for the lock. It reports whether an order was
// processing.
func (s *Simulator) Abort() bool {
	if s.state != StateProcessing {
		return false
	}
	if s.pending != nil {
		s.pending.Cancel()
		s.pending = nil
	}
	s.attempt++
	s.state = StateIdle
	return true
}
