// =============================================================================
// Sales Journal Converter - Shared Types
// =============================================================================
//
// This package contains the journal line contract shared by every source
// transformer, the validation module and the journal writer. Keeping it here
// avoids import cycles between those packages.
//
// POSITIONAL LAYOUT (21 fields):
//   0  journal code          8  credit amount
//   1  entry date            9-14 reserved (empty)
//   2  info                  15 reference
//   3  account number        16-20 reserved (empty)
//   4  analytic code
//   5  label
//   6  due date
//   7  debit amount
//
// =============================================================================

package types

import (
	"github.com/shopspring/decimal"
)

// FieldCount is the number of positional fields in an exported journal line.
const FieldCount = 21

// ReferenceIndex is the position of the external reference field.
const ReferenceIndex = 15

// UnknownDate is written in place of an entry date when the file date cannot
// be recovered and the source allows processing to continue.
const UnknownDate = "date_inconnue"

// DefaultHeader is the column header row of the ledger import format.
var DefaultHeader = []string{
	"# Explications Code journal",
	"Date avec ou sans les /",
	"Informations",
	"Numéro de compte",
	"Code section analytique",
	"Libellé de la ligne",
	"Date d'échéance",
	"Montant débit",
	"Montant crédit",
	"", "", "", "", "", "",
	"Référence",
	"Informations",
	"", "", "",
	" lien",
}

// =============================================================================
// JOURNAL LINE
// =============================================================================

// JournalLine is one debit or credit entry targeting a single account.
// Exactly one of Debit and Credit is valid.
type JournalLine struct {
	JournalCode   string
	EntryDate     string
	Info          string
	AccountNumber string
	AnalyticCode  string
	Label         string
	DueDate       string
	Debit         decimal.NullDecimal
	Credit        decimal.NullDecimal
	Reference     string
}

// NewDebit creates a debit line whose due date equals its entry date.
func NewDebit(journal, date, account, label string, amount decimal.Decimal) JournalLine {
	return JournalLine{
		JournalCode:   journal,
		EntryDate:     date,
		AccountNumber: account,
		Label:         label,
		DueDate:       date,
		Debit:         decimal.NewNullDecimal(amount.Round(2)),
	}
}

// NewCredit creates a credit line whose due date equals its entry date.
func NewCredit(journal, date, account, label string, amount decimal.Decimal) JournalLine {
	return JournalLine{
		JournalCode:   journal,
		EntryDate:     date,
		AccountNumber: account,
		Label:         label,
		DueDate:       date,
		Credit:        decimal.NewNullDecimal(amount.Round(2)),
	}
}

// WithAnalytic returns a copy of the line tagged with an analytic code.
func (l JournalLine) WithAnalytic(code string) JournalLine {
	l.AnalyticCode = code
	return l
}

// WithReference returns a copy of the line carrying an external reference.
func (l JournalLine) WithReference(ref string) JournalLine {
	l.Reference = ref
	return l
}

// IsDebit reports whether the line is on the debit side.
func (l JournalLine) IsDebit() bool {
	return l.Debit.Valid
}

// Amount returns the populated side of the line.
func (l JournalLine) Amount() decimal.Decimal {
	if l.Debit.Valid {
		return l.Debit.Decimal
	}
	return l.Credit.Decimal
}

// Record renders the line as its 21 positional string fields. Amounts are
// written with two decimals and an empty string stands for a null value.
func (l JournalLine) Record() []string {
	record := make([]string, FieldCount)
	record[0] = l.JournalCode
	record[1] = l.EntryDate
	record[2] = l.Info
	record[3] = l.AccountNumber
	record[4] = l.AnalyticCode
	record[5] = l.Label
	record[6] = l.DueDate
	record[7] = formatAmount(l.Debit)
	record[8] = formatAmount(l.Credit)
	record[ReferenceIndex] = l.Reference
	return record
}

func formatAmount(amount decimal.NullDecimal) string {
	if !amount.Valid {
		return ""
	}
	return amount.Decimal.StringFixed(2)
}

// Totals sums the debit and credit sides of a sequence of lines.
func Totals(lines []JournalLine) (debit, credit decimal.Decimal) {
	for _, line := range lines {
		if line.Debit.Valid {
			debit = debit.Add(line.Debit.Decimal)
		}
		if line.Credit.Valid {
			credit = credit.Add(line.Credit.Decimal)
		}
	}
	return debit, credit
}
