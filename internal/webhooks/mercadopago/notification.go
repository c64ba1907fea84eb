package mpwebhook

import (
	"net/url"
	"strings"

	"github.com/goccy/go-json"
)

// Notification is what the gateway told us, merged from query and body.
type Notification struct {
	Topic     string
	PaymentID string
	RequestID string
	Signature string
}

type notificationBody struct {
	Type   string `json:"type"`
	Topic  string `json:"topic"`
	Action string `json:"action"`
	Data   struct {
		ID resourceID `json:"id"`
	} `json:"data"`
}

// resourceID accepts data.id as either a JSON string or number.
type resourceID string

func (r *resourceID) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*r = resourceID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*r = resourceID(n.String())
	return nil
}

// ParseNotification reads the resource id from data.id or id in the query,
// falling back to data.id in the JSON body. The topic comes from type or
// topic, and finally from the body's action prefix ("payment.updated").
func ParseNotification(query url.Values, body []byte) Notification {
	var n Notification
	n.PaymentID = firstNonEmpty(query.Get("data.id"), query.Get("id"))
	n.Topic = firstNonEmpty(query.Get("type"), query.Get("topic"))

	if len(body) > 0 {
		var payload notificationBody
		if err := json.Unmarshal(body, &payload); err == nil {
			if n.PaymentID == "" {
				n.PaymentID = strings.TrimSpace(string(payload.Data.ID))
			}
			if n.Topic == "" {
				action, _, _ := strings.Cut(payload.Action, ".")
				n.Topic = firstNonEmpty(payload.Type, payload.Topic, action)
			}
		}
	}
	n.Topic = strings.ToLower(n.Topic)
	return n
}

// IsPayment reports whether the notification concerns a payment. A missing
// topic with an id present is treated as a payment.
func (n Notification) IsPayment() bool {
	return n.Topic == "payment" || (n.Topic == "" && n.PaymentID != "")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
