package reminder

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"bou.ke/monkey"
	"github.com/jarcoal/httpmock"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestDueReminders(t *testing.T) {
	monkey.Patch(time.Now, func() time.Time {
		return time.Date(2025, time.February, 19, 8, 30, 0, 0, time.Local)
	})
	defer monkey.UnpatchAll()

	target := day(2025, 2, 22)

	type F struct {
		modes []string
		dates []time.Time
	}
	tests := []struct {
		name    string
		fixture F
		expect  []ReminderRow
	}{
		{
			"OnlyTargetDay",
			F{
				modes: []string{"Cheque", "Cheque", "Cheque", "Cheque"},
				dates: []time.Time{day(2025, 2, 19), day(2025, 2, 21), target, day(2025, 2, 23)},
			},
			[]ReminderRow{{Mode: "Cheque", Due: target}},
		},
		{
			"ChequeSpellings",
			F{
				modes: []string{"Cheque", "CHECK", "post-dated cheque", "NEFT"},
				dates: []time.Time{target, target, target, target},
			},
			[]ReminderRow{
				{Mode: "Cheque", Due: target},
				{Mode: "CHECK", Due: target},
				{Mode: "post-dated cheque", Due: target},
			},
		},
		{
			"NoMatches",
			F{
				modes: []string{"NEFT", "UPI"},
				dates: []time.Time{target, target},
			},
			nil,
		},
		{
			"Empty",
			F{},
			nil,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(st *testing.T) {
			rows := make([][]string, len(test.fixture.modes))
			for i, m := range test.fixture.modes {
				rows[i] = []string{m}
			}
			table := &Table{Columns: []string{ColPaymentMode}, Rows: rows}
			assert.Equal(st, test.expect, DueReminders(table, test.fixture.dates))
		})
	}
}

func reminderConfig(t *testing.T) {
	t.Helper()
	viper.Reset()
	viper.SetConfigType("yaml")
	assert.NoError(t, viper.ReadConfig(bytes.NewBufferString(`
sharepoint:
  shared_url: "https://contoso.sharepoint.com/:x:/g/payments?e=abc"
smtp:
  username: sender@test.local
  password: secret
  recipients:
    - one@test.local
    - two@test.local
`)))
}

func registerWorkbook(t *testing.T, book []byte) {
	t.Helper()
	httpmock.RegisterResponder("GET", `=~^https://contoso\.sharepoint\.com/`,
		func(req *http.Request) (*http.Response, error) {
			resp := httpmock.NewBytesResponse(200, book)
			resp.Header.Set("Content-Type", "application/octet-stream")
			return resp, nil
		})
}

func TestRunCheck(t *testing.T) {
	monkey.Patch(time.Now, func() time.Time {
		return time.Date(2025, time.February, 19, 8, 30, 0, 0, time.Local)
	})
	defer monkey.UnpatchAll()

	reminderConfig(t)

	book := buildWorkbook(t, [][]interface{}{
		{"Payment Schedule"},
		{"S.No", "Mode of Payment", "Amount", "Payment Due [Date]"},
		{1, "Cheque", 1000, "22-Feb-25"},
		{2, "NEFT", 500, "22-Feb-25"},
		{3, "Cheque", 200, "24-Feb-25"},
	})

	fetcher := &Fetcher{Client: &http.Client{}}
	httpmock.ActivateNonDefault(fetcher.Client)
	defer httpmock.DeactivateAndReset()
	registerWorkbook(t, book)

	calls := 0
	checker := &Checker{Fetcher: fetcher, Send: func(subject, html string, ctx context.Context) (int, error) {
		calls++
		assert.Contains(t, subject, "1 payment(s) due in 3 days")
		assert.Contains(t, html, "Cheque")
		assert.Contains(t, html, "22-Feb-2025")
		return 2, nil
	}}

	result := checker.RunCheck(context.Background())
	assert.True(t, result.Success)
	assert.Equal(t, 1, result.RemindersFound)
	assert.Equal(t, 2, result.EmailsSent)
	assert.Equal(t, 1, calls)
	assert.NotEmpty(t, result.Timestamp)
}

func TestRunCheckNothingDue(t *testing.T) {
	monkey.Patch(time.Now, func() time.Time {
		return time.Date(2025, time.February, 19, 8, 30, 0, 0, time.Local)
	})
	defer monkey.UnpatchAll()

	reminderConfig(t)

	book := buildWorkbook(t, [][]interface{}{
		{"S.No", "Mode of Payment", "Amount", "Payment Due [Date]"},
		{1, "Cheque", 1000, "25-Feb-25"},
		{2, "NEFT", 500, "22-Feb-25"},
	})

	fetcher := &Fetcher{Client: &http.Client{}}
	httpmock.ActivateNonDefault(fetcher.Client)
	defer httpmock.DeactivateAndReset()
	registerWorkbook(t, book)

	checker := &Checker{Fetcher: fetcher, Send: func(subject, html string, ctx context.Context) (int, error) {
		t.Fatal("send should not be called")
		return 0, nil
	}}

	result := checker.RunCheck(context.Background())
	assert.True(t, result.Success)
	assert.Equal(t, "No cheque payment reminders needed today", result.Message)
	assert.Equal(t, 0, result.RemindersFound)
	assert.Equal(t, 0, result.EmailsSent)
}

func TestRunCheckHeaderOnlySheet(t *testing.T) {
	reminderConfig(t)

	book := buildWorkbook(t, [][]interface{}{
		{"S.No", "Mode of Payment", "Amount", "Payment Due [Date]"},
	})

	fetcher := &Fetcher{Client: &http.Client{}}
	httpmock.ActivateNonDefault(fetcher.Client)
	defer httpmock.DeactivateAndReset()
	registerWorkbook(t, book)

	checker := &Checker{Fetcher: fetcher, Send: func(subject, html string, ctx context.Context) (int, error) {
		t.Fatal("send should not be called")
		return 0, nil
	}}

	result := checker.RunCheck(context.Background())
	assert.True(t, result.Success)
	assert.Equal(t, "No cheque payment reminders needed today", result.Message)
	assert.Equal(t, 0, result.RemindersFound)
	assert.Equal(t, 0, result.EmailsSent)
}

func TestRunCheckAmbiguousColumnsFailGracefully(t *testing.T) {
	reminderConfig(t)

	book := buildWorkbook(t, [][]interface{}{
		{"Payment Date", "Amount"},
		{"Cheque", 1000},
	})

	fetcher := &Fetcher{Client: &http.Client{}}
	httpmock.ActivateNonDefault(fetcher.Client)
	defer httpmock.DeactivateAndReset()
	registerWorkbook(t, book)

	checker := &Checker{Fetcher: fetcher, Send: func(subject, html string, ctx context.Context) (int, error) {
		t.Fatal("send should not be called")
		return 0, nil
	}}

	result := checker.RunCheck(context.Background())
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "required column")
	assert.Equal(t, 0, result.RemindersFound)
}

func TestRunCheckFetchFailure(t *testing.T) {
	reminderConfig(t)

	fetcher := &Fetcher{Client: &http.Client{}}
	httpmock.ActivateNonDefault(fetcher.Client)
	defer httpmock.DeactivateAndReset()
	httpmock.RegisterResponder("GET", `=~.*`, httpmock.NewStringResponder(404, "not found"))

	checker := &Checker{Fetcher: fetcher, Send: func(subject, html string, ctx context.Context) (int, error) {
		t.Fatal("send should not be called")
		return 0, nil
	}}

	result := checker.RunCheck(context.Background())
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "no candidate URL")
	assert.Equal(t, 0, result.RemindersFound)
	assert.Equal(t, 0, result.EmailsSent)
}

func TestRunCheckAllMailFails(t *testing.T) {
	monkey.Patch(time.Now, func() time.Time {
		return time.Date(2025, time.February, 19, 8, 30, 0, 0, time.Local)
	})
	defer monkey.UnpatchAll()

	reminderConfig(t)

	book := buildWorkbook(t, [][]interface{}{
		{"S.No", "Mode of Payment", "Amount", "Payment Due [Date]"},
		{1, "Cheque", 1000, "22-Feb-25"},
	})

	fetcher := &Fetcher{Client: &http.Client{}}
	httpmock.ActivateNonDefault(fetcher.Client)
	defer httpmock.DeactivateAndReset()
	registerWorkbook(t, book)

	checker := &Checker{Fetcher: fetcher, Send: func(subject, html string, ctx context.Context) (int, error) {
		return 0, errors.New("smtp down")
	}}

	result := checker.RunCheck(context.Background())
	assert.False(t, result.Success)
	assert.Equal(t, ErrMailDelivery.Error(), result.Error)
	assert.Equal(t, 1, result.RemindersFound)
	assert.Equal(t, 0, result.EmailsSent)
}

func TestRunCheckPartialMailFailureSucceeds(t *testing.T) {
	monkey.Patch(time.Now, func() time.Time {
		return time.Date(2025, time.February, 19, 8, 30, 0, 0, time.Local)
	})
	defer monkey.UnpatchAll()

	reminderConfig(t)

	book := buildWorkbook(t, [][]interface{}{
		{"S.No", "Mode of Payment", "Amount", "Payment Due [Date]"},
		{1, "Cheque", 1000, "22-Feb-25"},
	})

	fetcher := &Fetcher{Client: &http.Client{}}
	httpmock.ActivateNonDefault(fetcher.Client)
	defer httpmock.DeactivateAndReset()
	registerWorkbook(t, book)

	checker := &Checker{Fetcher: fetcher, Send: func(subject, html string, ctx context.Context) (int, error) {
		return 1, errors.New("one recipient bounced")
	}}

	result := checker.RunCheck(context.Background())
	assert.True(t, result.Success)
	assert.Equal(t, 1, result.RemindersFound)
	assert.Equal(t, 1, result.EmailsSent)
}

func TestRunCheckMissingConfig(t *testing.T) {
	viper.Reset()

	checker := &Checker{Fetcher: &Fetcher{Client: &http.Client{}}, Send: nil}
	result := checker.RunCheck(context.Background())
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "missing configuration")
	assert.Contains(t, result.Error, "sharepoint.shared_url")
	assert.Contains(t, result.Error, "smtp.recipients")
}
