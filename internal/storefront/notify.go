package storefront

import (
	"github.com/utafrali/storefront/internal/timer"
)

// ToastKind selects the toast icon.
type ToastKind string

// Toast kinds.
const (
	ToastSuccess ToastKind = "success"
	ToastError   ToastKind = "error"
	ToastWarning ToastKind = "warning"
)

// Toast is a transient notification.
type Toast struct {
	ID      string    `json:"id"`
	Title   string    `json:"title"`
	Message string    `json:"message"`
	Kind    ToastKind `json:"kind"`
}

type toast struct {
	Toast
	token timer.Token
}

// notify shows a toast and schedules its auto-dismiss. Callers hold the lock.
func (s *State) notify(title, message string, kind ToastKind) {
	t := &toast{Toast: Toast{ID: s.newID(), Title: title, Message: message, Kind: kind}}
	id := t.ID
	t.token = s.sched.AfterFunc(s.timings.ToastTTL, func() {
		s.lock()
		defer s.unlock()
		s.removeToast(id)
	})
	s.toasts = append(s.toasts, t)
	s.emit(Change{Kind: ChangeNotifications})
}

func (s *State) removeToast(id string) bool {
	for i, t := range s.toasts {
		if t.ID == id {
			t.token.Cancel()
			s.toasts = append(s.toasts[:i], s.toasts[i+1:]...)
			s.emit(Change{Kind: ChangeNotifications})
			return true
		}
	}
	return false
}

// DismissToast closes a toast before it expires.
func (s *State) DismissToast(id string) bool {
	s.lock()
	defer s.unlock()
	return s.removeToast(id)
}

// flashCardLabel shows the "added" label on a product card for a moment.
// A repeat add restarts the timer. Callers hold the lock.
func (s *State) flashCardLabel(productID string) {
	if tok, ok := s.cardLabels[productID]; ok {
		tok.Cancel()
	}
	var tok timer.Token
	tok = s.sched.AfterFunc(s.timings.CardLabelTTL, func() {
		s.lock()
		defer s.unlock()
		if s.cardLabels[productID] == tok {
			delete(s.cardLabels, productID)
			s.emit(Change{Kind: ChangeSurfaces, ProductID: productID})
		}
	})
	s.cardLabels[productID] = tok
}

// flashModalLabel shows the "added to cart" label on the modal button.
// Callers hold the lock.
func (s *State) flashModalLabel() {
	if s.modalLabel != nil {
		s.modalLabel.Cancel()
	}
	var tok timer.Token
	tok = s.sched.AfterFunc(s.timings.ModalLabelTTL, func() {
		s.lock()
		defer s.unlock()
		if s.modalLabel == tok {
			s.modalLabel = nil
			s.emit(Change{Kind: ChangeSurfaces})
		}
	})
	s.modalLabel = tok
}
