package notify

import (
	"fmt"
	"html"
	"strings"
	"time"

	"lectern/pkg/email"
)

// CodeEmail renders the email carrying a one-time verification code.
func CodeEmail(to, firstName, code string, ttl time.Duration) Email {
	name := html.EscapeString(email.GreetingName(firstName, to))
	body := fmt.Sprintf(`<p>Hello %s,</p>
<p>Your instructor verification code is <strong>%s</strong>.</p>
<p>It expires in %d minutes. If you did not request it, ignore this message.</p>`,
		name, html.EscapeString(code), int(ttl.Minutes()))
	return Email{To: to, Subject: "Your verification code", HTML: body}
}

// CodeSMS renders the SMS carrying a one-time verification code.
func CodeSMS(code string, ttl time.Duration) string {
	return fmt.Sprintf("Lectern verification code: %s (valid %d min)", code, int(ttl.Minutes()))
}

type Decision string

const (
	DecisionApproved  Decision = "approved"
	DecisionRejected  Decision = "rejected"
	DecisionMoreInfo  Decision = "needs_more_info"
	DecisionSuspended Decision = "suspended"
)

var decisionSubjects = map[Decision]string{
	DecisionApproved:  "Your instructor application was approved",
	DecisionRejected:  "Your instructor application was not approved",
	DecisionMoreInfo:  "We need more information for your instructor application",
	DecisionSuspended: "Your instructor account was suspended",
}

// DecisionEmail renders the instructor-facing message for an admin decision.
// Details are rendered as a list, one line each.
func DecisionEmail(to, firstName string, decision Decision, message string, details []string) Email {
	var b strings.Builder
	fmt.Fprintf(&b, "<p>Hello %s,</p>\n", html.EscapeString(email.GreetingName(firstName, to)))
	switch decision {
	case DecisionApproved:
		b.WriteString("<p>Your verification is complete. You can now publish paid courses.</p>\n")
	case DecisionRejected:
		b.WriteString("<p>After review we could not verify your application.</p>\n")
	case DecisionMoreInfo:
		b.WriteString("<p>Our reviewers need a few more details before they can decide.</p>\n")
	case DecisionSuspended:
		b.WriteString("<p>Your instructor privileges have been suspended.</p>\n")
	}
	if message != "" {
		fmt.Fprintf(&b, "<p>%s</p>\n", html.EscapeString(message))
	}
	if len(details) > 0 {
		b.WriteString("<ul>\n")
		for _, d := range details {
			fmt.Fprintf(&b, "<li>%s</li>\n", html.EscapeString(d))
		}
		b.WriteString("</ul>\n")
	}
	return Email{To: to, Subject: decisionSubjects[decision], HTML: b.String()}
}

func adminHTML(subject, body string) string {
	lines := strings.Split(body, "\n")
	for i, l := range lines {
		lines[i] = html.EscapeString(l)
	}
	return fmt.Sprintf("<h3>%s</h3>\n<p>%s</p>", html.EscapeString(subject), strings.Join(lines, "<br>"))
}
