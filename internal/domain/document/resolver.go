package document

import (
	"context"
	"fmt"
	"slices"
	"sync"
)

// SelectionState tracks one transaction offered for import
type SelectionState int

const (
	Unselected SelectionState = iota
	PendingImport
	Imported
)

func (s SelectionState) String() string {
	switch s {
	case PendingImport:
		return "pending"
	case Imported:
		return "imported"
	}
	return "unselected"
}

func (s SelectionState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Resolver imports line items from a customer's earlier transactions into a
// Form. Fetches started before a customer switch or a deselect are
// discarded when they complete.
type Resolver struct {
	mu         sync.Mutex
	form       *Form
	lookup     TransactionLookup
	generation uint64
	states     map[string]SelectionState
	// order keeps pending and imported ids in the order they were selected
	order []string
}

func NewResolver(form *Form, lookup TransactionLookup) (*Resolver, error) {
	if !form.Kind().ImportsReferences() {
		return nil, ErrReferencesDisabled
	}
	return &Resolver{
		form:   form,
		lookup: lookup,
		states: make(map[string]SelectionState),
	}, nil
}

// Transactions lists the current customer's transactions available for import
func (r *Resolver) Transactions(ctx context.Context) ([]Transaction, error) {
	customer := r.form.Document().Customer
	if customer.ID == "" && customer.Name == "" {
		return []Transaction{}, nil
	}
	return r.lookup.ListTransactions(ctx, customer)
}

func (r *Resolver) State(id string) SelectionState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.states[id]
}

// States returns a copy of every non unselected state
func (r *Resolver) States() map[string]SelectionState {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]SelectionState, len(r.states))
	for id, s := range r.states {
		if s != Unselected {
			out[id] = s
		}
	}
	return out
}

// Select fetches the items of a transaction and appends them to the form.
// Selecting a transaction that is already pending or imported is a no-op.
func (r *Resolver) Select(ctx context.Context, id string) error {
	r.mu.Lock()
	if r.states[id] != Unselected {
		r.mu.Unlock()
		return nil
	}
	r.states[id] = PendingImport
	r.order = append(r.order, id)
	gen := r.generation
	r.mu.Unlock()

	items, err := r.lookup.ListItems(ctx, id)

	r.mu.Lock()
	defer r.mu.Unlock()
	if gen != r.generation || r.states[id] != PendingImport {
		return nil
	}
	if err != nil {
		r.forget(id)
		return fmt.Errorf("%w: %w", ErrPersistenceFailure, err)
	}

	r.form.AddItems(items)
	r.states[id] = Imported
	r.form.setReferences(r.references())
	return nil
}

// references lists the imported ids in selection order, so the result does
// not depend on which fetch finished first
func (r *Resolver) references() []string {
	refs := make([]string, 0, len(r.order))
	for _, id := range r.order {
		if r.states[id] == Imported {
			refs = append(refs, id)
		}
	}
	return refs
}

func (r *Resolver) forget(id string) {
	delete(r.states, id)
	if idx := slices.Index(r.order, id); idx >= 0 {
		r.order = slices.Delete(r.order, idx, idx+1)
	}
}

// Deselect drops the transaction from the referenced set. Items already
// imported stay on the form; a fetch still in flight is discarded.
func (r *Resolver) Deselect(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.states[id] == Unselected {
		return
	}
	wasImported := r.states[id] == Imported
	r.forget(id)
	if wasImported {
		r.form.setReferences(r.references())
	}
}

// SwitchCustomer replaces the customer, clears items and references and
// invalidates every fetch still in flight.
func (r *Resolver) SwitchCustomer(c Customer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.generation++
	r.states = make(map[string]SelectionState)
	r.order = nil
	r.form.resetForCustomer(c)
}

// Reset forgets every selection and the form's references. Items and the
// customer stay as they are.
func (r *Resolver) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.generation++
	r.states = make(map[string]SelectionState)
	r.order = nil
	r.form.setReferences(nil)
}
