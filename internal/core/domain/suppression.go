package domain

import "sync/atomic"

// Suppression is a one-shot token telling the next clean step to keep the
// output tree. It is handed from the static watcher to the run it triggers
// and is spent by the first Consume.
type Suppression struct {
	armed atomic.Bool
}

// NewSuppression returns an armed token.
func NewSuppression() *Suppression {
	s := &Suppression{}
	s.armed.Store(true)
	return s
}

// Consume reports whether deletion should be skipped and disarms the token.
// Only the first call on an armed token returns true. A nil token never suppresses.
func (s *Suppression) Consume() bool {
	if s == nil {
		return false
	}
	return s.armed.Swap(false)
}

// Armed reports whether the token has not been consumed yet.
func (s *Suppression) Armed() bool {
	if s == nil {
		return false
	}
	return s.armed.Load()
}
