package payslip

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/pakornb/moto-loan-intake/internal/core/domain"
)

var (
	incomeLineRE = regexp.MustCompile(`(?i)(?:monthly income|net pay|net salary|salary|income|เงินเดือนสุทธิ|เงินเดือน|รายได้ต่อเดือน|รายได้สุทธิ|รายได้)\s*[:：]?\s*([0-9๐-๙][0-9,๐-๙.]*)`)
	amountRE     = regexp.MustCompile(`([0-9๐-๙][0-9,๐-๙.]*)\s*(?:THB|บาท|฿)`)
	holderRE     = regexp.MustCompile(`(?i)(?:employee name|full name|name|ชื่อ-สกุล|ชื่อพนักงาน|ชื่อ)\s*[:：]\s*(.+)`)
	employerRE   = regexp.MustCompile(`(?i)(?:employer|company|บริษัท|นายจ้าง)\s*[:：]?\s*(.+)`)
	periodRE     = regexp.MustCompile(`\b(20\d{2})[-/](0[1-9]|1[0-2])\b`)

	thaiDigits = strings.NewReplacer(
		"๐", "0", "๑", "1", "๒", "2", "๓", "3", "๔", "4",
		"๕", "5", "๖", "6", "๗", "7", "๘", "8", "๙", "9",
	)
)

// ParseIncomeText normalizes extracted payslip text into income fields.
// A labeled monthly amount wins; otherwise the first currency-marked
// amount is taken.
func ParseIncomeText(text string) domain.IncomeFields {
	fields := domain.IncomeFields{Raw: map[string]string{}}

	if m := holderRE.FindStringSubmatch(text); m != nil {
		fields.HolderName = strings.TrimSpace(m[1])
		fields.Raw["holder_name"] = fields.HolderName
	}
	if m := employerRE.FindStringSubmatch(text); m != nil {
		fields.Employer = strings.TrimSpace(m[1])
		fields.Raw["employer"] = fields.Employer
	}
	if m := periodRE.FindStringSubmatch(text); m != nil {
		fields.Period = m[1] + "-" + m[2]
		fields.Raw["period"] = fields.Period
	}

	if m := incomeLineRE.FindStringSubmatch(text); m != nil {
		if n, ok := parseAmount(m[1]); ok && n > 0 {
			fields.MonthlyIncomeTHB = &n
		}
	}
	if fields.MonthlyIncomeTHB == nil {
		for _, m := range amountRE.FindAllStringSubmatch(text, -1) {
			if n, ok := parseAmount(m[1]); ok && n > 0 {
				fields.MonthlyIncomeTHB = &n
				break
			}
		}
	}
	if fields.MonthlyIncomeTHB != nil {
		fields.Raw["monthly_income_thb"] = strconv.Itoa(*fields.MonthlyIncomeTHB)
	}
	return fields
}

func parseAmount(s string) (int, bool) {
	s = thaiDigits.Replace(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return int(f), true
}
