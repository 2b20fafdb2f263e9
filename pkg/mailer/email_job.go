package mailer

// EmailJob is the JSON payload placed on the RabbitMQ queue for the email
// worker. For OTP mail only To and Code are set; Subject/Text/HTML allow
// ad-hoc messages through the same pipe.
type EmailJob struct {
	To      string `json:"to"`
	Code    string `json:"code,omitempty"`
	Subject string `json:"subject,omitempty"`
	Text    string `json:"text,omitempty"`
	HTML    string `json:"html,omitempty"`
}
