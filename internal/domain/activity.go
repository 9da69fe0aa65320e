package domain

import (
	"fmt"
	"sort"
	"time"

	"github.com/yigit/ebdashboard/internal/app/models"
)

// ActivityLimit caps the merged admin activity feed
const ActivityLimit = 20

// ActivityEvent is one line of the admin activity feed
type ActivityEvent struct {
	Type      string    `json:"type"`
	Action    string    `json:"action"`
	User      string    `json:"user"`
	Details   string    `json:"details"`
	Timestamp time.Time `json:"timestamp"`
}

// PurchaseActivity describes a purchase request for the feed
func PurchaseActivity(pr models.PurchaseRequest, studentName string) ActivityEvent {
	return ActivityEvent{
		Type:      "purchase",
		Action:    fmt.Sprintf("Purchase request %s", pr.Status),
		User:      displayName(studentName),
		Details:   fmt.Sprintf("%d item(s) - $%s", len(pr.Items), pr.TotalAmount.StringFixed(2)),
		Timestamp: pr.RequestedAt,
	}
}

// TransactionActivity describes a ledger entry for the feed
func TransactionActivity(t models.Transaction, studentName string) ActivityEvent {
	return ActivityEvent{
		Type:      "transaction",
		Action:    fmt.Sprintf("Transaction %s", t.Status),
		User:      displayName(studentName),
		Details:   fmt.Sprintf("%s - $%s", t.Type, t.Amount.StringFixed(2)),
		Timestamp: t.CreatedAt,
	}
}

// MergeActivity sorts events newest first and keeps at most limit of them
func MergeActivity(events []ActivityEvent, limit int) []ActivityEvent {
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Timestamp.After(events[j].Timestamp)
	})
	if limit > 0 && len(events) > limit {
		events = events[:limit]
	}
	return events
}

func displayName(name string) string {
	if name == "" {
		return "Unknown"
	}
	return name
}
