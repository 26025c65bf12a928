// internal/booking/removal.go
//
// Removal confirmation and back navigation.
//
// Removing the product abandons the draft on the client side only.  Nothing
// was created on the backend yet, so there is nothing to delete there.  Once
// abandoned, every further operation on the draft returns ErrClosed.

package booking

import (
	"context"
	"encoding/json"
	"fmt"
)

// RemovalResult is the user's answer to the removal prompt.
type RemovalResult int

const (
	RemovalCancelled RemovalResult = iota
	RemovalConfirmed
)

func (r RemovalResult) String() string {
	if r == RemovalConfirmed {
		return "confirmed"
	}
	return "cancelled"
}

// MarshalJSON renders the result name.
func (r RemovalResult) MarshalJSON() ([]byte, error) { return json.Marshal(r.String()) }

// BeginRemoval opens the removal prompt.  It is rejected while a submission
// or another prompt is open.
func (c *Controller) BeginRemoval() (Prompt, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.triggerableLocked(); err != nil {
		return Prompt{}, err
	}
	p := removePrompt
	c.prompt = &p
	return p, nil
}

// ResolveRemoval answers the removal prompt.  On "yes" the draft is closed
// and the presenter navigates back.
func (c *Controller) ResolveRemoval(yes bool) (RemovalResult, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return RemovalCancelled, ErrClosed
	}
	if c.prompt == nil || c.prompt.Kind != PromptRemoveProduct {
		c.mu.Unlock()
		return RemovalCancelled, ErrNoPendingPrompt
	}
	c.prompt = nil
	if !yes {
		c.mu.Unlock()
		return RemovalCancelled, nil
	}
	c.closed = true
	c.mu.Unlock()

	c.log.Debugw("draft removed by user")
	c.presenter.NavigateBack()
	return RemovalConfirmed, nil
}

// RequestRemoval asks the Prompter and resolves the answer.  A prompt error
// counts as "no" and is returned.
func (c *Controller) RequestRemoval(ctx context.Context) (RemovalResult, error) {
	if c.prompter == nil {
		return RemovalCancelled, ErrNoPrompter
	}
	p, err := c.BeginRemoval()
	if err != nil {
		return RemovalCancelled, err
	}

	yes, err := c.prompter.Confirm(ctx, p)
	if err != nil {
		c.cancelPrompt(PromptRemoveProduct)
		return RemovalCancelled, fmt.Errorf("removal prompt: %w", err)
	}
	return c.ResolveRemoval(yes)
}

// Back is the header back action.  It abandons the draft without a prompt
// but is refused while a submission is in flight.
func (c *Controller) Back() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.state.inFlight() {
		c.mu.Unlock()
		return ErrBusy
	}
	c.closed = true
	c.prompt = nil
	if c.state == StateConfirmPending {
		c.transitionLocked(StateIdle, FailureNone)
	}
	c.mu.Unlock()

	c.presenter.NavigateBack()
	return nil
}
