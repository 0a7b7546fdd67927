package event

// AccountActivatedDestination is the topic downstream services (trip booking,
// rewards) subscribe to for newly activated accounts.
const AccountActivatedDestination string = "account_activated"

type AccountActivatedMessage struct {
	AccountID   int64  `json:"account_id"`
	Phone       string `json:"phone"`
	ActivatedAt int64  `json:"activated_at"`
}
