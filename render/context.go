// Package render turns collected answers into the key/value set consumed by
// the contract template and executes that template.
package render

import (
	"fmt"
	"strings"
	"time"

	"github.com/creastat/contractbot/form"
)

// Keys recognized by the contract template.
const (
	KeyNumber              = "number_dogovor"
	KeyDate                = "data_dogovor"
	KeyCustomerFullName    = "customer_full_name"
	KeyPassportSeries      = "passport_series"
	KeyPassportNumber      = "passport_number"
	KeyPassportIssue       = "passport_issue"
	KeyPassportIssueDate   = "passport_issue_date"
	KeyPassportDeptCode    = "passport_dept_code"
	KeyRegistrationAddress = "registration_address"
	KeyTelegram            = "telegram"
	KeyEmail               = "email"
	KeyTarget              = "target"
	KeyStudentName         = "student_name"
)

const dateLayout = "02.01.2006"

// Context is the fully resolved substitution set for one generation
// attempt. It is never mutated after Build returns.
type Context map[string]string

// Build derives the render context from raw answers, the reserved contract
// number and the generation date. Missing answers render as empty strings.
func Build(answers map[string]string, number int, now time.Time) Context {
	series, passportNumber := SplitPassport(answers[form.PassportSeriesAndNumber])

	return Context{
		KeyNumber:              ContractID(number, now),
		KeyDate:                now.Format(dateLayout),
		KeyCustomerFullName:    answers[form.CustomerFullName],
		KeyPassportSeries:      series,
		KeyPassportNumber:      passportNumber,
		KeyPassportIssue:       answers[form.PassportIssue],
		KeyPassportIssueDate:   answers[form.PassportIssueDate],
		KeyPassportDeptCode:    answers[form.PassportDeptCode],
		KeyRegistrationAddress: answers[form.RegistrationAddress],
		KeyTelegram:            EscapeUnderscores(answers[form.Telegram]),
		KeyEmail:               answers[form.EmailAddress],
		KeyTarget:              answers[form.Target],
		KeyStudentName:         answers[form.StudentName],
	}
}

// ContractID composes "{number}/{MM}-{YYYY}".
func ContractID(number int, now time.Time) string {
	return fmt.Sprintf("%d/%02d-%04d", number, int(now.Month()), now.Year())
}

// SplitPassport splits "1234 567890" into series and number. With fewer
// than two tokens the whole value is the series and the number is empty.
func SplitPassport(value string) (series, number string) {
	parts := strings.Fields(value)
	if len(parts) < 2 {
		return value, ""
	}
	return parts[0], parts[1]
}

// EscapeUnderscores makes a handle render literally in LaTeX.
func EscapeUnderscores(handle string) string {
	return strings.ReplaceAll(handle, "_", `\_`)
}
