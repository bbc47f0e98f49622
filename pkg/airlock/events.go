package airlock

// Journal record types emitted by the engine. Event data is observational;
// the journal is not consulted for any queue decision.
const (
	EventModuleSetup          = "module.setup"
	EventProposerRegistered   = "proposer.registered"
	EventProposerDeregistered = "proposer.deregistered"
	EventCooldownSet          = "cooldown.set"
	EventExpirationSet        = "expiration.set"
	EventAdminTransferred     = "admin.transferred"
	EventTransactionAdded     = "transaction.added"
	EventTransactionsApproved = "transactions.approved"
	EventTransactionsVetoed   = "transactions.vetoed"
	EventTransactionExecuted  = "transaction.executed"
	EventExpiredSkipped       = "expired.skipped"
)

// emit appends a journal record and forwards it to the observer. Journal
// append failures are logged, never surfaced: event emission is
// observability, not queue state.
func (a *Airlock) emit(eventType, actor string, data map[string]any) {
	rec, err := a.journal.Append(eventType, actor, data)
	if err != nil {
		a.logger.Error("journal append failed", "event", eventType, "error", err)
		return
	}
	if a.observer != nil {
		a.observer(rec)
	}
}
