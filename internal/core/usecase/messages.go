package usecase

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Messages holds the canned user-facing assistant texts. Entries with a
// `%` verb are format templates. A YAML message-pack file can override any
// subset at startup.
type Messages struct {
	Onboarding      string `yaml:"onboarding"`
	ResetNotice     string `yaml:"reset_notice"`
	DocsComplete    string `yaml:"docs_complete"`
	DocsIncomplete  string `yaml:"docs_incomplete"`
	BikeRejected    string `yaml:"bike_rejected"`
	IDRejected      string `yaml:"id_rejected"`
	IncomeRejected  string `yaml:"income_rejected"`
	NameMismatch    string `yaml:"name_mismatch"`
	DecisionSummary string `yaml:"decision_summary"`
	RetryGeneric    string `yaml:"retry_generic"`
	FeedbackThanks  string `yaml:"feedback_thanks"`
}

func DefaultMessages() Messages {
	return Messages{
		Onboarding: "นี่คือบริการ “เมื่อคุณขอ คุณพร้อมจ่าย เราพร้อมให้”\n" +
			"โปรดอัปโหลดเอกสาร 3 รายการ:\n ① รูปมอเตอร์ไซค์\n ② รูปเอกสารรายได้ (สลิปเงินเดือน)\n ③ รูปบัตรประจำตัวประชาชน (ถ่ายรูปจากหน้าบัตร)\n" +
			"ทางเราจะประเมินวงเงินให้ครับ/ค่ะ",
		ResetNotice: "เริ่มคำขอใหม่ได้เลยครับ/ค่ะ\n" +
			"โปรดอัปโหลดเอกสาร 3 รายการ: ① รูปมอเตอร์ไซค์ ② สลิปเงินเดือน ③ บัตรประจำตัวประชาชน",
		DocsComplete:    "✅ เอกสารครบถ้วน กำลังประเมินวงเงิน...",
		DocsIncomplete:  "เอกสารยังไม่ครบถ้วน โปรดอัปโหลดให้ครบก่อนนะครับ/ค่ะ",
		BikeRejected:    "รูปภาพไม่ใช่มอเตอร์ไซค์ (conf %.2f). โปรดอัปโหลดใหม่",
		IDRejected:      "ข้อมูลบัตรประชาชนไม่ครบหรือเลขไม่ถูกต้อง (เลข: %s). โปรดอัปโหลดใหม่",
		IncomeRejected:  "ไม่พบรายได้ต่อเดือนจากเอกสาร โปรดอัปโหลดใหม่",
		NameMismatch:    "ชื่อในเอกสารรายได้และบัตรประชาชนดูเหมือนไม่ตรงกัน (สาธิต: ใช้เกณฑ์ง่าย) โปรดตรวจสอบหรืออัปโหลดใหม่",
		DecisionSummary: "วงเงินที่อนุมัติ: **%s THB**\n\n_เหตุผล:_ %s\n(ความมั่นใจในการประเมินรูป: %.2f)",
		RetryGeneric:    "ขออภัยครับ/ค่ะ ระบบขัดข้องชั่วคราว โปรดลองอีกครั้ง",
		FeedbackThanks:  "ขอบคุณสำหรับความคิดเห็นครับ/ค่ะ",
	}
}

// LoadMessagesFile merges non-empty entries from a YAML file over the
// defaults.
func LoadMessagesFile(path string) (Messages, error) {
	msgs := DefaultMessages()
	raw, err := os.ReadFile(path)
	if err != nil {
		return msgs, fmt.Errorf("read messages file: %w", err)
	}
	var override Messages
	if err := yaml.Unmarshal(raw, &override); err != nil {
		return msgs, fmt.Errorf("parse messages file: %w", err)
	}
	msgs.merge(override)
	return msgs, nil
}

func (m *Messages) merge(override Messages) {
	apply := func(dst *string, src string) {
		if src != "" {
			*dst = src
		}
	}
	apply(&m.Onboarding, override.Onboarding)
	apply(&m.ResetNotice, override.ResetNotice)
	apply(&m.DocsComplete, override.DocsComplete)
	apply(&m.DocsIncomplete, override.DocsIncomplete)
	apply(&m.BikeRejected, override.BikeRejected)
	apply(&m.IDRejected, override.IDRejected)
	apply(&m.IncomeRejected, override.IncomeRejected)
	apply(&m.NameMismatch, override.NameMismatch)
	apply(&m.DecisionSummary, override.DecisionSummary)
	apply(&m.RetryGeneric, override.RetryGeneric)
	apply(&m.FeedbackThanks, override.FeedbackThanks)
}
