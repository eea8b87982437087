package session

import "strings"

// Outcome is the terminal classification of a hosted checkout attempt.
type Outcome string

const (
	// OutcomeNone means keep watching: the URL carried no verdict.
	OutcomeNone    Outcome = ""
	OutcomeSettled Outcome = "settled"
	OutcomePending Outcome = "pending"
	OutcomeFailed  Outcome = "failed"
)

// Redirect patterns observed on the Midtrans Snap hosted page. Groups are
// evaluated success, then pending, then failure; the first match wins.
var (
	settledMarkers = []string{
		"/finish",
		"transaction_status=settlement",
		"transaction_status=capture",
		"status_code=200",
	}
	pendingMarkers = []string{
		"/pending",
		"transaction_status=pending",
	}
	failedMarkers = []string{
		"/error",
		"transaction_status=deny",
		"transaction_status=cancel",
		"transaction_status=expire",
		"status_code=400",
		"status_code=401",
		"status_code=402",
		"status_code=403",
	}
)

// Classify inspects a single navigation URL from the embedded checkout page
// and returns the verdict it carries, or OutcomeNone to keep watching. It is
// pure and never panics on malformed input; the one-shot latch belongs to the
// caller.
func Classify(rawURL string) Outcome {
	url := strings.ToLower(strings.TrimSpace(rawURL))
	if url == "" {
		return OutcomeNone
	}

	if containsAny(url, settledMarkers) {
		return OutcomeSettled
	}
	if strings.Contains(url, "status_code=201") {
		// 201 with settlement evidence is settled, otherwise still pending.
		if strings.Contains(url, "settlement") {
			return OutcomeSettled
		}
		return OutcomePending
	}
	if containsAny(url, pendingMarkers) {
		return OutcomePending
	}
	if containsAny(url, failedMarkers) {
		return OutcomeFailed
	}

	return OutcomeNone
}

func containsAny(url string, markers []string) bool {
	for _, marker := range markers {
		if strings.Contains(url, marker) {
			return true
		}
	}
	return false
}
