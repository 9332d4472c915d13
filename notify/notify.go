package notify

// Event describes one committed loan-request transition. PreviousStatus is
// empty for the creation event.
type Event struct {
	LoanID         string `json:"loanId"`
	EquipmentID    string `json:"equipmentId"`
	PreviousStatus string `json:"previousStatus,omitempty"`
	NewStatus      string `json:"newStatus"`
	Recipient      string `json:"recipient"`
	Comment        string `json:"comment,omitempty"`
}

// Dispatcher receives transition events after they are committed. Dispatch is
// fire-and-forget: it must not block the caller and its failures never undo a
// transition.
type Dispatcher interface {
	Dispatch(ev Event)
}

// DispatcherFunc adapts a function to the Dispatcher interface.
type DispatcherFunc func(ev Event)

func (f DispatcherFunc) Dispatch(ev Event) { f(ev) }
