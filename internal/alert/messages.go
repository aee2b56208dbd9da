// Package alert publishes budget alerts over AMQP and consumes them for
// delivery. The publisher carries a circuit breaker so a dead broker
// degrades alerting instead of wedging the daemon.
package alert

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"tally/internal/budget"
	"tally/internal/core"
)

// BudgetAlertMessage is the wire format for one budget crossing its near or
// exceeded threshold.
type BudgetAlertMessage struct {
	ID          string    `json:"id"`
	UserID      int64     `json:"user_id"`
	BudgetID    int64     `json:"budget_id"`
	Name        string    `json:"name"`
	CategoryID  int64     `json:"category_id"`
	Period      string    `json:"period"`
	State       string    `json:"state"`
	ActualCents int64     `json:"actual_cents"`
	LimitCents  int64     `json:"limit_cents"`
	Ratio       float64   `json:"ratio"`
	Timestamp   time.Time `json:"timestamp"`
}

// NewBudgetAlertMessage builds a message from a graded status. Every message
// gets a fresh id so consumers can dedupe redeliveries.
func NewBudgetAlertMessage(userID core.UserID, st budget.Status) *BudgetAlertMessage {
	return &BudgetAlertMessage{
		ID:          uuid.NewString(),
		UserID:      int64(userID),
		BudgetID:    st.BudgetID,
		Name:        st.Name,
		CategoryID:  int64(st.Category),
		Period:      st.Bucket.Label(),
		State:       string(st.State),
		ActualCents: st.ActualCents,
		LimitCents:  st.LimitCents,
		Ratio:       st.Ratio,
		Timestamp:   time.Now().UTC(),
	}
}

func (m *BudgetAlertMessage) ToJSON() ([]byte, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("marshal budget alert: %w", err)
	}
	return data, nil
}

func BudgetAlertMessageFromJSON(data []byte) (*BudgetAlertMessage, error) {
	var msg BudgetAlertMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("unmarshal budget alert: %w", err)
	}
	return &msg, nil
}
