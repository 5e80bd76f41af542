package ingest

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"

	"github.com/Veraticus/spice-lens/internal/common"
	"github.com/Veraticus/spice-lens/internal/model"
	"github.com/aclindsa/ofxgo"
	"github.com/shopspring/decimal"
)

var (
	severityFix = regexp.MustCompile(`(?i)<SEVERITY>(Info|Warn|Error)</SEVERITY>`)
	// Opening tags on their own line that lost their closing bracket.
	tagFix = regexp.MustCompile(`(?m)^(\s*<[A-Z][A-Z0-9._]*[A-Z0-9])$`)
)

var merchantPrefixes = []string{
	"POS PURCHASE ",
	"PURCHASE AUTHORIZED ON ",
	"DEBIT CARD PURCHASE ",
	"ACH DEBIT ",
	"CHECK CARD ",
	"VISA PURCHASE ",
	"MC PURCHASE ",
	"DEBIT PURCHASE ",
	"UPI/",
	"IMPS/",
	"NEFT/",
}

// OFXReader reads bank and credit card statements from OFX/QFX files.
type OFXReader struct {
	logger *slog.Logger
}

// NewOFXReader creates an OFX reader.
func NewOFXReader(logger *slog.Logger) *OFXReader {
	return &OFXReader{logger: common.OrDefault(logger)}
}

// preprocess fixes common formatting issues in OFX files.
func (r *OFXReader) preprocess(content string) string {
	content = strings.TrimLeft(content, " \t\r\n")
	content = severityFix.ReplaceAllStringFunc(content, strings.ToUpper)
	return tagFix.ReplaceAllString(content, "$1>")
}

// Read parses every statement in the file. Amounts are stored as magnitudes
// with the sign carried by Direction.
func (r *OFXReader) Read(ctx context.Context, in io.Reader) ([]model.Transaction, error) {
	content, err := io.ReadAll(in)
	if err != nil {
		return nil, fmt.Errorf("failed to read OFX file: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	resp, err := ofxgo.ParseResponse(strings.NewReader(r.preprocess(string(content))))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse OFX file: %v", common.ErrMalformedInput, err)
	}

	transactions := make([]model.Transaction, 0)
	var bankStmts, ccStmts int

	for _, msg := range resp.Bank {
		stmt, ok := msg.(*ofxgo.StatementResponse)
		if !ok || stmt.BankTranList == nil {
			continue
		}
		bankStmts++
		currency := stmt.CurDef.String()
		for _, ofxTx := range stmt.BankTranList.Transactions {
			transactions = append(transactions, r.convert(ofxTx, currency))
		}
	}

	for _, msg := range resp.CreditCard {
		stmt, ok := msg.(*ofxgo.CCStatementResponse)
		if !ok || stmt.BankTranList == nil {
			continue
		}
		ccStmts++
		currency := stmt.CurDef.String()
		for _, ofxTx := range stmt.BankTranList.Transactions {
			transactions = append(transactions, r.convert(ofxTx, currency))
		}
	}

	r.logger.Info("Parsed OFX file",
		"total_transactions", len(transactions),
		"bank_statements", bankStmts,
		"cc_statements", ccStmts)

	return transactions, nil
}

func (r *OFXReader) convert(ofxTx ofxgo.Transaction, currency string) model.Transaction {
	amount, err := decimal.NewFromString(ofxTx.TrnAmt.Rat.FloatString(4))
	if err != nil {
		r.logger.Warn("Unparseable OFX amount, using 0",
			"fitid", string(ofxTx.FiTID),
			"error", err)
		amount = decimal.Zero
	}

	direction := model.DirectionDebit
	switch ofxTx.TrnType {
	case ofxgo.TrnTypeCredit, ofxgo.TrnTypeInt, ofxgo.TrnTypeDiv, ofxgo.TrnTypeDep, ofxgo.TrnTypeDirectDep:
		direction = model.DirectionCredit
	default:
		if amount.IsPositive() {
			direction = model.DirectionCredit
		}
	}

	txn := model.Transaction{
		ID:          string(ofxTx.FiTID),
		Description: merchantName(ofxTx),
		Amount:      amount.Abs(),
		Direction:   direction,
		Currency:    currency,
	}
	if !ofxTx.DtPosted.IsZero() {
		txn.Date = ofxTx.DtPosted.Format("2006-01-02")
	}

	switch ofxTx.TrnType {
	case ofxgo.TrnTypeInt:
		txn.Category = "Income"
	case ofxgo.TrnTypeFee, ofxgo.TrnTypeSrvChg:
		txn.Category = "Bank Fees"
	case ofxgo.TrnTypeATM:
		txn.Category = "Cash & ATM"
	}

	return txn
}

// merchantName pulls the cleanest available merchant description.
func merchantName(tx ofxgo.Transaction) string {
	if tx.Payee != nil && tx.Payee.Name != "" {
		return strings.TrimSpace(string(tx.Payee.Name))
	}

	name := string(tx.Name)
	if tx.Memo != "" && isGenericDescription(name) {
		name = string(tx.Memo)
	}
	name = strings.TrimSpace(name)

	upper := strings.ToUpper(name)
	for _, prefix := range merchantPrefixes {
		if strings.HasPrefix(upper, prefix) {
			name = name[len(prefix):]
			break
		}
	}

	// Leading "MM/DD " posting dates.
	if len(name) > 5 && name[2] == '/' && name[5] == ' ' {
		name = strings.TrimSpace(name[6:])
	}

	return name
}

func isGenericDescription(name string) bool {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "DEBIT", "CREDIT", "PURCHASE", "PAYMENT", "POS TRANSACTION", "CARD PURCHASE", "":
		return true
	}
	return false
}
