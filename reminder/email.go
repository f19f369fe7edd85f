package reminder

import (
	"fmt"
	"html"
	"strings"
	"time"
)

const emailDateFormat = "02-Jan-2006"

// RenderEmail builds the reminder subject and HTML body for the selected
// rows.
func RenderEmail(rows []ReminderRow) (subject, body string) {
	subject = fmt.Sprintf("Cheque Payment Due Reminder - %d payment(s) due in 3 days", len(rows))

	var b strings.Builder
	fmt.Fprintf(&b, `<html>
<body>
<h2>Cheque Payment Due Reminder</h2>
<p>The following cheque payments are <strong>due in %d days</strong>:</p>
<table border="1" style="border-collapse: collapse; width: 100%%; margin: 20px 0;">
<thead>
<tr style="background-color: #f2f2f2;">
<th style="padding: 12px; text-align: left; font-weight: bold;">%s</th>
<th style="padding: 12px; text-align: left; font-weight: bold;">%s</th>
</tr>
</thead>
<tbody>
`, reminderLeadDays, html.EscapeString(ColPaymentMode), html.EscapeString(ColPaymentDueDate))

	for i, row := range rows {
		style := ""
		if i%2 == 0 {
			style = "background-color: #f9f9f9;"
		}
		fmt.Fprintf(&b,
			"<tr style=\"%s\"><td style=\"padding: 10px; border-bottom: 1px solid #ddd;\">%s</td><td style=\"padding: 10px; border-bottom: 1px solid #ddd;\">%s</td></tr>\n",
			style, html.EscapeString(row.Mode), row.Due.Format(emailDateFormat))
	}

	now := time.Now()
	fmt.Fprintf(&b, `</tbody>
</table>
<div style="margin-top: 20px; padding: 15px; background-color: #e8f4fd; border-left: 4px solid #2196F3;">
<p><strong>Reminder Date:</strong> %s</p>
<p><strong>Payment Due Date:</strong> %s</p>
</div>
<br>
<p style="color: #666; font-size: 14px;">
<em>This is an automated reminder generated from the shared payment schedule.</em><br>
<em>Please ensure these cheque payments are processed on time to avoid any delays.</em>
</p>
</body>
</html>
`, now.Format(emailDateFormat), now.AddDate(0, 0, reminderLeadDays).Format(emailDateFormat))

	return subject, b.String()
}
