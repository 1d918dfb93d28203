package payos

import "testing"

func TestParseWebhookEvent(t *testing.T) {
	raw := []byte(`{
		"code": "00",
		"desc": "success",
		"data": {
			"orderCode": 482913,
			"amount": 250000,
			"code": "00",
			"desc": "Thành công",
			"reference": "FT230905",
			"transactionDateTime": "2026-01-10 12:00:00"
		}
	}`)

	event, err := ParseWebhookEvent(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if event.Data.OrderCode != 482913 || event.Data.Amount != 250000 {
		t.Fatalf("unexpected data: %+v", event.Data)
	}
	if !event.Succeeded() {
		t.Fatal("expected event to report success")
	}
}

func TestParseWebhookEventRejectsMissingFields(t *testing.T) {
	cases := map[string]string{
		"not json":           `{`,
		"missing order code": `{"code":"00","data":{"amount":1000,"code":"00"}}`,
		"missing amount":     `{"code":"00","data":{"orderCode":1,"code":"00"}}`,
		"missing result":     `{"code":"00","data":{"orderCode":1,"amount":1000}}`,
	}
	for name, raw := range cases {
		if _, err := ParseWebhookEvent([]byte(raw)); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestSucceededOnlyForCode00(t *testing.T) {
	event := &WebhookEvent{Data: WebhookData{Code: "01"}}
	if event.Succeeded() {
		t.Fatal("non-00 result code must not report success")
	}
}
