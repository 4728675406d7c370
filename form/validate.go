package form

import (
	"regexp"
	"strings"
	"time"
)

var (
	fullNamePattern = regexp.MustCompile(`^[А-Яа-яЁё]+ [А-Яа-яЁё]+ [А-Яа-яЁё]+$`)
	emailPattern    = regexp.MustCompile(`^[\p{L}\p{N}_.-]+@[\p{L}\p{N}_.-]+\.[\p{L}\p{N}_]+$`)
	handlePattern   = regexp.MustCompile(`^@[A-Za-z0-9_]{3,32}$`)
	passportPattern = regexp.MustCompile(`^\d{4} \d{6}$`)
	deptCodePattern = regexp.MustCompile(`^\d{3}-\d{3}$`)
)

const issueDateLayout = "02.01.2006"

// FullName accepts exactly three Cyrillic words. Runs of whitespace between
// the words are collapsed before matching.
func FullName(value string) bool {
	return fullNamePattern.MatchString(strings.Join(strings.Fields(value), " "))
}

// NonEmpty accepts any text with at least one non-space character.
func NonEmpty(value string) bool {
	return strings.TrimSpace(value) != ""
}

// Email accepts local@domain.tld made of letters, digits, underscores, dots
// and dashes in any script, so Cyrillic domains such as почта.рф pass.
func Email(value string) bool {
	return emailPattern.MatchString(strings.TrimSpace(value))
}

// TelegramHandle accepts @ followed by 3 to 32 Latin letters, digits or
// underscores, the character set Telegram allows in usernames.
func TelegramHandle(value string) bool {
	return handlePattern.MatchString(strings.TrimSpace(value))
}

// PassportSeriesNumber accepts four digits, a space and six digits.
func PassportSeriesNumber(value string) bool {
	return passportPattern.MatchString(strings.TrimSpace(value))
}

// IssueDate accepts DD.MM.YYYY denoting a real calendar date.
func IssueDate(value string) bool {
	_, err := time.Parse(issueDateLayout, strings.TrimSpace(value))
	return err == nil
}

// DeptCode accepts three digits, a dash and three digits.
func DeptCode(value string) bool {
	return deptCodePattern.MatchString(strings.TrimSpace(value))
}
