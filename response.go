package nmi_direct_post

import (
	"net/url"
	"strings"

	"github.com/hugochinchilla79/nmi_direct_post_sdk/models"
)

// ExtractResponseValues parses a Direct Post reply of the form
// "key=value&key=value". Entries that do not split into exactly one
// non-empty key and one non-empty value are dropped, matching the gateway's
// loose format. Keys and values are percent-decoded. When a key repeats,
// the first value wins.
func ExtractResponseValues(body string) map[string]string {
	values := make(map[string]string)
	for _, entry := range strings.Split(body, "&") {
		if entry == "" {
			continue
		}
		parts := nonEmpty(strings.Split(entry, "="))
		if len(parts) != 2 {
			continue
		}
		key, value := unescape(parts[0]), unescape(parts[1])
		if _, seen := values[key]; !seen {
			values[key] = value
		}
	}
	return values
}

func nonEmpty(parts []string) []string {
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// unescape decodes %XX sequences only; a literal '+' in gateway text is kept.
func unescape(s string) string {
	if u, err := url.PathUnescape(s); err == nil {
		return u
	}
	return s
}

// classify maps parsed reply values to an Outcome. Only response=1 is an
// approval; 2 is a decline and anything else, including a missing code, is
// an error.
func classify(values map[string]string) models.Outcome {
	code := values["response"]
	switch code {
	case models.ResponseApproved:
		return models.Outcome{
			Kind:          models.OutcomeApproved,
			ResponseCode:  code,
			AuthCode:      values["authcode"],
			TransactionID: values["transactionid"],
			AVSResult:     values["avsresponse"],
			CVVResult:     values["cvvresponse"],
			Message:       values["responsetext"],
		}
	case models.ResponseDeclined:
		return models.Outcome{Kind: models.OutcomeDeclined, ResponseCode: code, Message: values["responsetext"]}
	case models.ResponseError:
		return models.Outcome{Kind: models.OutcomeError, ResponseCode: code, Message: values["responsetext"]}
	default:
		return models.Outcome{Kind: models.OutcomeError, ResponseCode: code, Message: values["responsetext"]}
	}
}

// transportErrorMessage is what the end user sees when the gateway could not be reached.
func transportErrorMessage(err error) string {
	return "Exception Occurred: " + err.Error()
}
