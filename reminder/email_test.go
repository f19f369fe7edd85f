package reminder

import (
	"testing"
	"time"

	"bou.ke/monkey"
	"github.com/stretchr/testify/assert"
)

func TestRenderEmail(t *testing.T) {
	monkey.Patch(time.Now, func() time.Time {
		return time.Date(2025, time.February, 19, 8, 30, 0, 0, time.Local)
	})
	defer monkey.UnpatchAll()

	rows := []ReminderRow{
		{Mode: "Cheque", Due: day(2025, 2, 22)},
		{Mode: "Cheque <R&D>", Due: day(2025, 2, 22)},
	}
	subject, body := RenderEmail(rows)

	assert.Equal(t, "Cheque Payment Due Reminder - 2 payment(s) due in 3 days", subject)
	assert.Contains(t, body, "<h2>Cheque Payment Due Reminder</h2>")
	assert.Contains(t, body, "due in 3 days")
	assert.Contains(t, body, "Mode of Payment")
	assert.Contains(t, body, "Payment Due [Date]")
	assert.Contains(t, body, "22-Feb-2025")
	assert.Contains(t, body, "Cheque &lt;R&amp;D&gt;")
	assert.NotContains(t, body, "<R&D>")
	assert.Contains(t, body, "<strong>Reminder Date:</strong> 19-Feb-2025")
	assert.Contains(t, body, "<strong>Payment Due Date:</strong> 22-Feb-2025")
}

func TestRenderEmailSingleRow(t *testing.T) {
	subject, body := RenderEmail([]ReminderRow{{Mode: "Cheque", Due: day(2025, 2, 22)}})
	assert.Equal(t, "Cheque Payment Due Reminder - 1 payment(s) due in 3 days", subject)
	assert.Equal(t, 1, countRows(body))
}

func countRows(body string) int {
	n := 0
	for i := 0; i+4 <= len(body); i++ {
		if body[i:i+4] == "</tr" {
			n++
		}
	}
	return n - 1 // header row
}
