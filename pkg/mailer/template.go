package mailer

import "fmt"

// RenderOTP builds the subject, text and HTML bodies for an OTP email.
func RenderOTP(code string) (subject, text, html string) {
	subject = "Your login code"
	text = fmt.Sprintf("Your one-time login code is %s. It expires in a few minutes. If you did not request it, ignore this email.", code)
	html = fmt.Sprintf(`
		<h2>Your login code</h2>
		<p>Use the following code to sign in:</p>
		<p style="font-size:28px;letter-spacing:6px;font-weight:bold">%s</p>
		<p>The code expires in a few minutes. If you did not request it, you can ignore this email.</p>
	`, code)
	return subject, text, html
}
