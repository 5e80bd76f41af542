package ingest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Veraticus/spice-lens/internal/common"
	"github.com/Veraticus/spice-lens/internal/model"
	"github.com/aclindsa/ofxgo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCSV = `date,description,amount,type,category
2024-01-05,Swiggy order,450.00,debit,
2024-01-06,Salary credit,"85,000",credit,Income
2024-01-07,Uber trip,₹ 320,debit,
2024-01-08,Mystery row,abc,debit,
bad-date,Amazon purchase,1200,debit,
2024-01-09,Refund,-99.50,,
,,,,
`

func TestCSVReader_Read(t *testing.T) {
	txns, err := NewCSVReader(nil).Read(context.Background(), strings.NewReader(sampleCSV))
	require.NoError(t, err)
	require.Len(t, txns, 6, "blank rows are skipped, malformed rows are kept")

	assert.Equal(t, "Swiggy order", txns[0].Description)
	assert.True(t, decimal.RequireFromString("450").Equal(txns[0].Amount))
	assert.Equal(t, "2024-01-05", txns[0].Date)
	assert.Equal(t, model.DirectionDebit, txns[0].Direction)

	assert.True(t, decimal.NewFromInt(85000).Equal(txns[1].Amount))
	assert.Equal(t, model.DirectionCredit, txns[1].Direction)
	assert.Equal(t, "Income", txns[1].Category)

	assert.True(t, decimal.NewFromInt(320).Equal(txns[2].Amount))

	assert.True(t, txns[3].Amount.IsZero(), "unparseable amount defaults to 0")
	assert.Empty(t, txns[4].Date, "unparseable date defaults to empty")
	assert.Equal(t, model.UnknownMonth, txns[4].Month())

	assert.True(t, decimal.RequireFromString("99.5").Equal(txns[5].Amount), "amounts are stored as magnitudes")
	assert.Equal(t, model.DirectionDebit, txns[5].Direction, "negative amount without a type is a debit")
}

func TestCSVReader_SignedLedger(t *testing.T) {
	data := `date,description,amount
2024-03-01,Salary,60000
2024-03-03,Myntra,-15000
2024-03-05,Dominos,-800
`

	txns, err := NewCSVReader(nil).Read(context.Background(), strings.NewReader(data))
	require.NoError(t, err)
	require.Len(t, txns, 3)

	assert.Equal(t, model.DirectionCredit, txns[0].Direction, "positive rows in a signed ledger are credits")
	assert.True(t, decimal.NewFromInt(60000).Equal(txns[0].Amount))
	assert.Equal(t, model.DirectionDebit, txns[1].Direction)
	assert.True(t, decimal.NewFromInt(15000).Equal(txns[1].Amount))
	assert.Equal(t, model.DirectionDebit, txns[2].Direction)
	assert.True(t, decimal.NewFromInt(800).Equal(txns[2].Amount))
}

func TestSettleDirections(t *testing.T) {
	t.Run("unsigned batch keeps unspecified rows", func(t *testing.T) {
		txns := []model.Transaction{
			{Amount: decimal.NewFromInt(450)},
			{Amount: decimal.NewFromInt(-20), Direction: model.DirectionCredit},
		}
		settleDirections(txns)

		assert.Equal(t, model.DirectionUnspecified, txns[0].Direction)
		assert.Equal(t, model.DirectionCredit, txns[1].Direction, "explicit directions win over the sign")
		assert.True(t, decimal.NewFromInt(20).Equal(txns[1].Amount))
	})

	t.Run("zero amounts stay unspecified", func(t *testing.T) {
		txns := []model.Transaction{
			{Amount: decimal.NewFromInt(-5)},
			{Amount: decimal.Zero},
		}
		settleDirections(txns)

		assert.Equal(t, model.DirectionDebit, txns[0].Direction)
		assert.Equal(t, model.DirectionUnspecified, txns[1].Direction)
	})
}

func TestJSONReader_SignedLedger(t *testing.T) {
	data := `[{"description":"Salary","amount":60000},{"description":"Myntra","amount":-15000}]`

	txns, err := NewJSONReader(nil).Read(context.Background(), strings.NewReader(data))
	require.NoError(t, err)
	require.Len(t, txns, 2)
	assert.Equal(t, model.DirectionCredit, txns[0].Direction)
	assert.Equal(t, model.DirectionDebit, txns[1].Direction)
	assert.True(t, decimal.NewFromInt(15000).Equal(txns[1].Amount))
}

func TestCSVReader_HeaderAliases(t *testing.T) {
	data := "Transaction_Date,Narration,Amt,Dr_Cr\n15/02/2024,Zomato,250,DR\n"

	txns, err := NewCSVReader(nil).Read(context.Background(), strings.NewReader(data))
	require.NoError(t, err)
	require.Len(t, txns, 1)
	assert.Equal(t, "Zomato", txns[0].Description)
	assert.Equal(t, "2024-02-15", txns[0].Date)
	assert.Equal(t, model.DirectionDebit, txns[0].Direction)
}

func TestCSVReader_MissingColumns(t *testing.T) {
	_, err := NewCSVReader(nil).Read(context.Background(), strings.NewReader("date,amount\n2024-01-01,10\n"))
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrMalformedInput)
	var userErr *common.UserError
	assert.True(t, errors.As(err, &userErr))

	txns, err := NewCSVReader(nil).Read(context.Background(), strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, txns)
}

func TestJSONReader_Read(t *testing.T) {
	tests := []struct {
		name string
		data string
		want int
	}{
		{
			name: "array",
			data: `[{"description":"Netflix","amount":649,"date":"2024-03-01","type":"debit"},
			        {"merchant_name":"Employer","amount":"50,000","date":"2024-03-01","direction":"credit"}]`,
			want: 2,
		},
		{
			name: "wrapped",
			data: `{"transactions":[{"description":"Ola","amount":180.5}]}`,
			want: 1,
		},
		{
			name: "empty",
			data: "  ",
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			txns, err := NewJSONReader(nil).Read(context.Background(), strings.NewReader(tt.data))
			require.NoError(t, err)
			assert.Len(t, txns, tt.want)
		})
	}
}

func TestJSONReader_Fields(t *testing.T) {
	data := `[{"id":"t1","merchant_name":"Employer","amount":"50,000","date":"01/03/2024","type":"credit","currency":"inr"},
	          {"description":"Bad","amount":true,"date":"soon"}]`

	txns, err := NewJSONReader(nil).Read(context.Background(), strings.NewReader(data))
	require.NoError(t, err)
	require.Len(t, txns, 2)

	assert.Equal(t, "t1", txns[0].ID)
	assert.Equal(t, "Employer", txns[0].Description)
	assert.True(t, decimal.NewFromInt(50000).Equal(txns[0].Amount))
	assert.Equal(t, "2024-03-01", txns[0].Date)
	assert.Equal(t, model.DirectionCredit, txns[0].Direction)
	assert.Equal(t, "INR", txns[0].Currency)

	assert.True(t, txns[1].Amount.IsZero())
	assert.Empty(t, txns[1].Date)
}

func TestJSONReader_Malformed(t *testing.T) {
	_, err := NewJSONReader(nil).Read(context.Background(), strings.NewReader(`[{"amount":`))
	assert.ErrorIs(t, err, common.ErrMalformedInput)
}

const sampleBankOFX = `OFXHEADER:100
DATA:OFXSGML
VERSION:102
SECURITY:NONE
ENCODING:USASCII
CHARSET:1252
COMPRESSION:NONE
OLDFILEUID:NONE
NEWFILEUID:NONE

<OFX>
<SIGNONMSGSRSV1>
<SONRS>
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<DTSERVER>20240315120000[0:GMT]
<LANGUAGE>ENG
</SONRS>
</SIGNONMSGSRSV1>
<BANKMSGSRSV1>
<STMTTRNRS>
<TRNUID>1
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<STMTRS>
<CURDEF>INR
<BANKACCTFROM>
<BANKID>HDFC0001234
<ACCTID>50100012345678
<ACCTTYPE>SAVINGS
</BANKACCTFROM>
<BANKTRANLIST>
<DTSTART>20240101120000[0:GMT]
<DTEND>20240131120000[0:GMT]
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20240115120000[0:GMT]
<TRNAMT>-425.50
<FITID>2024011501
<NAME>POS PURCHASE SWIGGY BANGALORE
</STMTTRN>
<STMTTRN>
<TRNTYPE>CREDIT
<DTPOSTED>20240120120000[0:GMT]
<TRNAMT>85000.00
<FITID>2024012001
<NAME>SALARY ACME CORP
</STMTTRN>
<STMTTRN>
<TRNTYPE>ATM
<DTPOSTED>20240125120000[0:GMT]
<TRNAMT>-2000.00
<FITID>2024012501
<NAME>DEBIT
<MEMO>ATM WDL MG ROAD
</STMTTRN>
</BANKTRANLIST>
<LEDGERBAL>
<BALAMT>100000.00
<DTASOF>20240131120000[0:GMT]
</LEDGERBAL>
</STMTRS>
</STMTTRNRS>
</BANKMSGSRSV1>
</OFX>`

const sampleCreditCardOFX = `OFXHEADER:100
DATA:OFXSGML
VERSION:102
SECURITY:NONE
ENCODING:USASCII
CHARSET:1252
COMPRESSION:NONE
OLDFILEUID:NONE
NEWFILEUID:NONE

<OFX>
<SIGNONMSGSRSV1>
<SONRS>
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<DTSERVER>20240315120000[0:GMT]
<LANGUAGE>ENG
</SONRS>
</SIGNONMSGSRSV1>
<CREDITCARDMSGSRSV1>
<CCSTMTTRNRS>
<TRNUID>1
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<CCSTMTRS>
<CURDEF>INR
<CCACCTFROM>
<ACCTID>4111111111111111
</CCACCTFROM>
<BANKTRANLIST>
<DTSTART>20240101120000[0:GMT]
<DTEND>20240131120000[0:GMT]
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20240110120000[0:GMT]
<TRNAMT>-1299.00
<FITID>CC2024011001
<NAME>AMAZON.IN*RT4Y7HG2
</STMTTRN>
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20240115120000[0:GMT]
<TRNAMT>-649.00
<FITID>CC2024011501
<NAME>NETFLIX.COM
</STMTTRN>
</BANKTRANLIST>
<LEDGERBAL>
<BALAMT>-1948.00
<DTASOF>20240131120000[0:GMT]
</LEDGERBAL>
</CCSTMTRS>
</CCSTMTTRNRS>
</CREDITCARDMSGSRSV1>
</OFX>`

func TestOFXReader_Read(t *testing.T) {
	tests := []struct {
		name          string
		ofxData       string
		expectedCount int
		expectedError bool
	}{
		{name: "bank statement", ofxData: sampleBankOFX, expectedCount: 3},
		{name: "credit card statement", ofxData: sampleCreditCardOFX, expectedCount: 2},
		{name: "invalid OFX data", ofxData: "not valid OFX", expectedError: true},
		{name: "empty OFX", ofxData: "", expectedError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			txns, err := NewOFXReader(nil).Read(context.Background(), strings.NewReader(tt.ofxData))
			if tt.expectedError {
				assert.ErrorIs(t, err, common.ErrMalformedInput)
				return
			}
			require.NoError(t, err)
			assert.Len(t, txns, tt.expectedCount)
		})
	}
}

func TestOFXReader_BankTransactions(t *testing.T) {
	txns, err := NewOFXReader(nil).Read(context.Background(), strings.NewReader(sampleBankOFX))
	require.NoError(t, err)
	require.Len(t, txns, 3)

	swiggy := txns[0]
	assert.Equal(t, "2024011501", swiggy.ID)
	assert.Equal(t, "SWIGGY BANGALORE", swiggy.Description)
	assert.True(t, decimal.RequireFromString("425.5").Equal(swiggy.Amount), "got %s", swiggy.Amount)
	assert.Equal(t, model.DirectionDebit, swiggy.Direction)
	assert.Equal(t, "2024-01-15", swiggy.Date)
	assert.Equal(t, "INR", swiggy.Currency)

	salary := txns[1]
	assert.Equal(t, model.DirectionCredit, salary.Direction)
	assert.True(t, decimal.NewFromInt(85000).Equal(salary.Amount))

	atm := txns[2]
	assert.Equal(t, "ATM WDL MG ROAD", atm.Description, "generic NAME falls back to MEMO")
	assert.Equal(t, "Cash & ATM", atm.Category)
	assert.Equal(t, model.DirectionDebit, atm.Direction)
}

func TestMerchantName(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "remove POS prefix", input: "POS PURCHASE STARBUCKS", expected: "STARBUCKS"},
		{name: "remove DEBIT CARD prefix", input: "DEBIT CARD PURCHASE BIG BAZAAR", expected: "BIG BAZAAR"},
		{name: "remove UPI prefix", input: "UPI/PHONEPE", expected: "PHONEPE"},
		{name: "strip posting date", input: "01/15 ZOMATO", expected: "ZOMATO"},
		{name: "keep clean name", input: "NETFLIX.COM", expected: "NETFLIX.COM"},
		{name: "trim whitespace", input: "  AMAZON.IN  ", expected: "AMAZON.IN"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, merchantName(ofxgo.Transaction{Name: ofxgo.String(tt.input)}))
		})
	}
}

func TestDetectFormat(t *testing.T) {
	for path, want := range map[string]Format{
		"a.csv":  FormatCSV,
		"a.JSON": FormatJSON,
		"a.ofx":  FormatOFX,
		"a.qfx":  FormatOFX,
	} {
		got, err := DetectFormat(path)
		require.NoError(t, err)
		assert.Equal(t, want, got, path)
	}

	_, err := DetectFormat("statement.pdf")
	assert.ErrorIs(t, err, common.ErrMalformedInput)
}

func TestReadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "txns.csv")
	require.NoError(t, os.WriteFile(path, []byte(sampleCSV), 0o600))

	txns, err := ReadFile(context.Background(), path, nil)
	require.NoError(t, err)
	assert.Len(t, txns, 6)

	_, err = ReadFile(context.Background(), filepath.Join(dir, "missing.csv"), nil)
	assert.Error(t, err)
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{in: "1,23,456.78", want: "123456.78", ok: true},
		{in: "Rs. 500", want: "500", ok: true},
		{in: "(250.00)", want: "-250", ok: true},
		{in: "INR 99", want: "99", ok: true},
		{in: "", want: "0", ok: false},
		{in: "ten", want: "0", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := parseAmount(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.True(t, decimal.RequireFromString(tt.want).Equal(got), "got %s", got)
		})
	}
}
