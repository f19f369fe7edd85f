package reminder

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveColumns(t *testing.T) {
	type E struct {
		mapping map[string]string
		columns []string
		missing string
	}
	tests := []struct {
		name    string
		columns []string
		expect  E
	}{
		{
			"ExactLabels",
			[]string{"S.No", "Mode of Payment", "Amount", "Payment Due [Date]"},
			E{
				mapping: map[string]string{ColPaymentMode: "Mode of Payment", ColPaymentDueDate: "Payment Due [Date]"},
				columns: []string{"S.No", "Mode of Payment", "Amount", "Payment Due [Date]"},
			},
		},
		{
			"AllWordsMatch",
			[]string{"Payment Mode of Record", "Due Date of Payment"},
			E{
				mapping: map[string]string{ColPaymentMode: "Payment Mode of Record", ColPaymentDueDate: "Due Date of Payment"},
				columns: []string{"Mode of Payment", "Payment Due [Date]"},
			},
		},
		{
			"KeywordMatch",
			[]string{"Pay Mode", "Due Date"},
			E{
				mapping: map[string]string{ColPaymentMode: "Pay Mode", ColPaymentDueDate: "Due Date"},
				columns: []string{"Mode of Payment", "Payment Due [Date]"},
			},
		},
		{
			"AmountColumnNotMistakenForMode",
			[]string{"Amount Paid", "Due Date"},
			E{missing: ColPaymentMode},
		},
		{
			"TransferDateNotMistakenForDueDate",
			[]string{"Mode of Payment", "Transfer Created Date"},
			E{missing: ColPaymentDueDate},
		},
		{
			"NoColumnsAtAll",
			[]string{"Name", "Qty"},
			E{missing: ColPaymentMode},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(st *testing.T) {
			table := &Table{
				Columns: append([]string(nil), test.columns...),
				Rows:    [][]string{make([]string, len(test.columns))},
			}
			mapping, err := ResolveColumns(table)
			if test.expect.missing != "" {
				var mce *MissingColumnError
				assert.ErrorAs(st, err, &mce)
				assert.Equal(st, test.expect.missing, mce.Field)
				assert.Equal(st, test.columns, mce.Available)
				return
			}
			assert.NoError(st, err)
			assert.Equal(st, test.expect.mapping, mapping)
			assert.Equal(st, test.expect.columns, table.Columns)
		})
	}
}

func TestResolveColumnsRefusesSharedColumn(t *testing.T) {
	// "Payment Date" passes both the mode keyword tier and the due-date
	// keyword tier, so both fields resolve to the one column. That must
	// fail like a missing column, not succeed with a half-renamed table.
	table := &Table{
		Columns: []string{"Payment Date", "Amount"},
		Rows:    [][]string{{"Cheque", "1000"}},
	}
	mapping, err := ResolveColumns(table)
	assert.Nil(t, mapping)
	var mce *MissingColumnError
	assert.ErrorAs(t, err, &mce)
	assert.Equal(t, ColPaymentDueDate, mce.Field)
}
