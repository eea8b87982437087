package session

import "testing"

func TestClassify(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		url  string
		want Outcome
	}{
		{"finish path", "https://app.sandbox.midtrans.com/snap/v4/finish?order_id=TRX1", OutcomeSettled},
		{"settlement status", "https://pay.example.com/cb?transaction_status=settlement", OutcomeSettled},
		{"capture status", "https://pay.example.com/cb?transaction_status=capture", OutcomeSettled},
		{"status code 200", "https://pay.example.com/cb?status_code=200", OutcomeSettled},
		{"201 with settlement", "https://pay.example.com/cb?status_code=201&transaction_status=settlement", OutcomeSettled},
		{"201 without settlement", "https://pay.example.com/cb?status_code=201", OutcomePending},
		{"pending path", "https://app.sandbox.midtrans.com/snap/v4/pending", OutcomePending},
		{"pending status", "https://pay.example.com/cb?transaction_status=pending", OutcomePending},
		{"error path", "https://app.sandbox.midtrans.com/snap/v4/error", OutcomeFailed},
		{"deny status", "https://pay.example.com/cb?transaction_status=deny", OutcomeFailed},
		{"cancel status", "https://pay.example.com/cb?transaction_status=cancel", OutcomeFailed},
		{"expire status", "https://pay.example.com/cb?transaction_status=expire", OutcomeFailed},
		{"status code 400", "https://pay.example.com/cb?status_code=400", OutcomeFailed},
		{"status code 403", "https://pay.example.com/cb?status_code=403", OutcomeFailed},
		{"payment page load", "https://app.sandbox.midtrans.com/snap/v4/redirection/abc", OutcomeNone},
		{"empty url", "", OutcomeNone},
		{"whitespace url", "   ", OutcomeNone},
		{"garbage", "not a url at all", OutcomeNone},
		{"uppercase markers", "HTTPS://PAY.EXAMPLE.COM/CB?TRANSACTION_STATUS=SETTLEMENT", OutcomeSettled},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := Classify(tc.url); got != tc.want {
				t.Fatalf("Classify(%q) = %q, want %q", tc.url, got, tc.want)
			}
		})
	}
}

func TestClassifySuccessWinsOverFailure(t *testing.T) {
	t.Parallel()

	// A URL carrying both success and failure markers resolves in favor of
	// the stronger claim about money movement.
	url := "https://pay.example.com/finish?previous=/error"
	if got := Classify(url); got != OutcomeSettled {
		t.Fatalf("Classify(%q) = %q, want %q", url, got, OutcomeSettled)
	}
}
