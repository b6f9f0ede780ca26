// Package ofx parses OFX/QFX bank files into ledger import rows.
package ofx

import (
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"

	"github.com/aclindsa/ofxgo"
	"github.com/shopspring/decimal"
	"github.com/thetombrider/Personal-Finance-Hub-sub001/internal/model"
)

// Parser reads OFX/QFX statements and produces ledger entries ready for the
// bulk importer. The caller decides which ledger account the statement's
// rows belong to.
type Parser struct{}

// NewParser creates a new OFX parser.
func NewParser() *Parser {
	return &Parser{}
}

// preprocess fixes common formatting issues seen in bank-exported OFX files.
func (p *Parser) preprocess(content string) string {
	content = strings.TrimLeft(content, " \t\r\n")

	// Mixed-case SEVERITY values (should be INFO, WARN, or ERROR)
	severityRegex := regexp.MustCompile(`(?i)<SEVERITY>(Info|Warn|Error)</SEVERITY>`)
	content = severityRegex.ReplaceAllStringFunc(content, strings.ToUpper)

	// SGML-style files sometimes drop the closing angle bracket on a tag
	// that ends the line.
	tagFixRegex := regexp.MustCompile(`(?m)^(\s*<[A-Z][A-Z0-9._]*[A-Z0-9])$`)
	content = tagFixRegex.ReplaceAllString(content, "$1>")

	return content
}

// Parse reads an OFX document and returns import rows for the given account.
func (p *Parser) Parse(reader io.Reader, accountID string) ([]model.LedgerEntry, error) {
	content, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read OFX file: %w", err)
	}

	resp, err := ofxgo.ParseResponse(strings.NewReader(p.preprocess(string(content))))
	if err != nil {
		return nil, fmt.Errorf("failed to parse OFX file: %w", err)
	}

	var entries []model.LedgerEntry
	var bankStmts, ccStmts int

	for _, msg := range resp.Bank {
		if stmt, ok := msg.(*ofxgo.StatementResponse); ok && stmt.BankTranList != nil {
			bankStmts++
			for _, ofxTx := range stmt.BankTranList.Transactions {
				entries = append(entries, p.convert(ofxTx, accountID))
			}
		}
	}
	for _, msg := range resp.CreditCard {
		if stmt, ok := msg.(*ofxgo.CCStatementResponse); ok && stmt.BankTranList != nil {
			ccStmts++
			for _, ofxTx := range stmt.BankTranList.Transactions {
				entries = append(entries, p.convert(ofxTx, accountID))
			}
		}
	}

	slog.Info("Parsed OFX file",
		"entries", len(entries),
		"bank_statements", bankStmts,
		"cc_statements", ccStmts)
	return entries, nil
}

// convert maps one OFX transaction to a ledger entry. OFX uses negative
// amounts for debits; ledger entries keep a positive amount plus a
// direction. Amounts go through decimal so cent values survive exactly.
func (p *Parser) convert(ofxTx ofxgo.Transaction, accountID string) model.LedgerEntry {
	amount := decimal.NewFromBigInt(ofxTx.TrnAmt.Num(), 0).
		Div(decimal.NewFromBigInt(ofxTx.TrnAmt.Denom(), 0)).
		Round(2)

	direction := model.DirectionIncome
	if amount.IsNegative() {
		direction = model.DirectionExpense
		amount = amount.Neg()
	}

	description := strings.TrimSpace(string(ofxTx.Name))
	if memo := strings.TrimSpace(string(ofxTx.Memo)); memo != "" && description == "" {
		description = memo
	}

	value, _ := amount.Float64()
	return model.LedgerEntry{
		ID:          string(ofxTx.FiTID),
		AccountID:   accountID,
		Date:        ofxTx.DtPosted.Time,
		Amount:      value,
		Description: description,
		Direction:   direction,
	}
}
