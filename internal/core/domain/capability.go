package domain

// MotorcycleCheck is the vision verdict on a bike photo.
type MotorcycleCheck struct {
	IsMotorcycle bool    `json:"is_motorcycle"`
	Confidence   float64 `json:"confidence"`
	Rationale    string  `json:"rationale"`
}

// Appraisal is the vision-estimated market value of the bike photo.
type Appraisal struct {
	ValueTHB   int     `json:"value_thb"`
	Confidence float64 `json:"confidence"`
	Notes      string  `json:"notes"`
}

// IDCardFields is the OCR extraction from an ID-card photo.
type IDCardFields struct {
	NationalID string
	PersonName string
	Raw        map[string]string
}

// IncomeFields is the normalized OCR extraction from an income document.
// MonthlyIncomeTHB is nil when no monthly income could be parsed.
type IncomeFields struct {
	HolderName       string
	MonthlyIncomeTHB *int
	Employer         string
	Period           string
	Raw              map[string]string
}
