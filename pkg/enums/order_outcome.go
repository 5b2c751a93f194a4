package enums

// OrderOutcome labels the terminal state of a submission for metrics and logs.
type OrderOutcome string

const (
	OrderOutcomeSucceeded       OrderOutcome = "succeeded"
	OrderOutcomeRejected        OrderOutcome = "rejected"
	OrderOutcomeOrderFailed     OrderOutcome = "order_failed"
	OrderOutcomePaymentFailed   OrderOutcome = "payment_failed"
	OrderOutcomeDuplicateSubmit OrderOutcome = "duplicate_submit"
)

// String implements fmt.Stringer.
func (o OrderOutcome) String() string {
	return string(o)
}
