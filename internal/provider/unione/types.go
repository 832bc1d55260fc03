// Package unione implements a Provider that delivers email through the
// UniOne transactional API.
package unione

import (
	"encoding/json"
	"fmt"
)

// API method paths, appended to the locale-prefixed base URL.
const (
	sendPath              = "transactional/api/v1/email/send.json"
	suppressionGetPath    = "transactional/api/v1/suppression/get.json"
	suppressionDeletePath = "transactional/api/v1/suppression/delete.json"
)

// sendMessage is the "message" object of an email/send.json request.
type sendMessage struct {
	Body              messageBody      `json:"body"`
	Subject           string           `json:"subject"`
	FromEmail         string           `json:"from_email"`
	FromName          string           `json:"from_name,omitempty"`
	ReplyTo           string           `json:"reply_to,omitempty"`
	SkipUnsubscribe   int              `json:"skip_unsubscribe"`
	Recipients        []recipient      `json:"recipients"`
	Attachments       []wireAttachment `json:"attachments,omitempty"`
	InlineAttachments []wireAttachment `json:"inline_attachments,omitempty"`
	Headers           []string         `json:"headers,omitempty"`
}

// messageBody holds the html and plaintext variants of the message body.
type messageBody struct {
	HTML string `json:"html,omitempty"`
	Text string `json:"text,omitempty"`
}

// recipient is a single entry of the recipients array. Only the address is
// sent; display names are not part of the wire contract.
type recipient struct {
	Email string `json:"email"`
}

// wireAttachment is a single entry of the attachments or inline_attachments
// array. Name is a pointer so that an underivable filename is serialized as
// null, which the API accepts.
type wireAttachment struct {
	Content string  `json:"content"`
	Type    string  `json:"type"`
	Name    *string `json:"name"`
}

// sendResponse is the success body of email/send.json.
type sendResponse struct {
	JobID string `json:"job_id"`
}

// suppressionGetResponse is the success body of suppression/get.json.
type suppressionGetResponse struct {
	Suppressions []Suppression `json:"suppressions"`
}

// Suppression is one provider-side record that an address must not receive
// mail (bounce/complaint history).
type Suppression struct {
	Email       string `json:"email"`
	Cause       string `json:"cause"`
	IsDeletable bool   `json:"is_deletable"`
}

// apiErrorBody is the error envelope the API returns with non-200 statuses.
type apiErrorBody struct {
	Status  string   `json:"status"`
	Message string   `json:"message"`
	Code    flexCode `json:"code"`
}

// flexCode decodes an error code that the API delivers either as a JSON
// string or as a number.
type flexCode string

func (c *flexCode) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*c = flexCode(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*c = flexCode(n.String())
	return nil
}

// APIError is a non-200 response from the UniOne API. Message is empty when
// the response body carried no recognized error envelope; Code then holds the
// HTTP status.
type APIError struct {
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("unione: API error (code %s)", e.Code)
	}
	return fmt.Sprintf("unione: API error (code %s): %s", e.Code, e.Message)
}

// DeliveryError indicates the API accepted the send at the HTTP level but the
// response is missing a field required to confirm delivery.
type DeliveryError struct {
	Reason string
}

func (e *DeliveryError) Error() string {
	return "unione: " + e.Reason
}
