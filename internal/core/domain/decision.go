package domain

import "strconv"

type LimitingFactor string

const (
	LimitedByIncome LimitingFactor = "income"
	LimitedByBike   LimitingFactor = "bike"
)

// Decision is the credit decision record. SamePerson and NameMatchScore are
// written by the identity cross-check; the remaining fields only after a
// successful appraisal.
type Decision struct {
	SamePerson        bool           `json:"same_person"`
	NameMatchScore    float64        `json:"name_match_score"`
	ApprovedAmountTHB int            `json:"approved_amount_thb,omitempty"`
	IncomeCapTHB      int            `json:"income_cap_thb,omitempty"`
	BikeCapTHB        int            `json:"bike_cap_thb,omitempty"`
	LimitingFactor    LimitingFactor `json:"limiting_factor,omitempty"`
	Reason            string         `json:"reason,omitempty"`
}

// ComputeDecision applies the bounded approval formula:
// approved = min(floor(0.5 * monthly income), appraised bike value).
func ComputeDecision(monthlyIncomeTHB, appraisedValueTHB int) Decision {
	if monthlyIncomeTHB < 0 {
		monthlyIncomeTHB = 0
	}
	if appraisedValueTHB < 0 {
		appraisedValueTHB = 0
	}

	incomeCap := monthlyIncomeTHB / 2
	bikeCap := appraisedValueTHB

	approved := incomeCap
	limiting := LimitedByIncome
	if bikeCap < incomeCap {
		approved = bikeCap
		limiting = LimitedByBike
	}

	return Decision{
		ApprovedAmountTHB: approved,
		IncomeCapTHB:      incomeCap,
		BikeCapTHB:        bikeCap,
		LimitingFactor:    limiting,
		Reason: "min(0.5×รายได้ต่อเดือน=" + FormatTHB(incomeCap) +
			", มูลค่ารถ=" + FormatTHB(bikeCap) + ") → " + FormatTHB(approved) + " THB",
	}
}

// FormatTHB renders an amount with thousands separators, e.g. 1234567 → "1,234,567".
func FormatTHB(amount int) string {
	negative := amount < 0
	if negative {
		amount = -amount
	}
	digits := strconv.Itoa(amount)
	n := len(digits)
	if n <= 3 {
		if negative {
			return "-" + digits
		}
		return digits
	}

	grouped := make([]byte, 0, n+(n-1)/3)
	lead := n % 3
	if lead > 0 {
		grouped = append(grouped, digits[:lead]...)
	}
	for i := lead; i < n; i += 3 {
		if len(grouped) > 0 {
			grouped = append(grouped, ',')
		}
		grouped = append(grouped, digits[i:i+3]...)
	}
	if negative {
		return "-" + string(grouped)
	}
	return string(grouped)
}
