// Package memo generates structured credit memos with Gemini.
package memo

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
)

// Request is the input bundle for one memo.
type Request struct {
	IssuerName          string  `json:"issuer_name"`
	Sector              string  `json:"sector"`
	Maturity            string  `json:"maturity"`
	Coupon              float64 `json:"coupon"`
	Seniority           string  `json:"seniority"`
	LeverageDescription string  `json:"leverage_description,omitempty"`
	MacroContext        string  `json:"macro_context,omitempty"`
}

// Validate checks the required request fields.
func (r Request) Validate() error {
	if strings.TrimSpace(r.IssuerName) == "" {
		return fmt.Errorf("issuer_name is required")
	}
	if strings.TrimSpace(r.Sector) == "" {
		return fmt.Errorf("sector is required")
	}
	if strings.TrimSpace(r.Maturity) == "" {
		return fmt.Errorf("maturity is required")
	}
	if strings.TrimSpace(r.Seniority) == "" {
		return fmt.Errorf("seniority is required")
	}
	return nil
}

// InputHash returns a stable key for caching memos per input bundle.
func (r Request) InputHash() string {
	canonical, _ := json.Marshal(r)
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:])
}

// MacroSensitivity is the memo's macro environment section.
type MacroSensitivity struct {
	Rates     string `json:"rates"`
	Spreads   string `json:"spreads"`
	Liquidity string `json:"liquidity"`
}

// ConfidenceScores are the model's self-reported confidence metrics,
// each in [0, 1].
type ConfidenceScores struct {
	Overall       float64 `json:"overall"`
	DataQuality   float64 `json:"data_quality"`
	ModelJudgment float64 `json:"model_judgment"`
}

// CreditMemo is the full structured memo.
type CreditMemo struct {
	IssuerSummary         string           `json:"issuer_summary"`
	BondSummary           string           `json:"bond_summary"`
	BusinessRisk          []string         `json:"business_risk"`
	FinancialRisk         []string         `json:"financial_risk"`
	StructureAndCovenants []string         `json:"structure_and_covenants"`
	MacroSensitivity      MacroSensitivity `json:"macro_sensitivity"`
	BullCase              []string         `json:"bull_case"`
	BearCase              []string         `json:"bear_case"`
	KeyQuestions          []string         `json:"key_questions"`
	Uncertainties         []string         `json:"uncertainties"`
	Confidence            ConfidenceScores `json:"confidence"`
	Disclaimer            string           `json:"disclaimer"`
}

// Validate enforces the memo schema: required strings, non-empty lists and
// confidence scores within range.
func (m CreditMemo) Validate() error {
	if m.IssuerSummary == "" {
		return fmt.Errorf("issuer_summary is empty")
	}
	if m.BondSummary == "" {
		return fmt.Errorf("bond_summary is empty")
	}
	lists := map[string][]string{
		"business_risk":           m.BusinessRisk,
		"financial_risk":          m.FinancialRisk,
		"structure_and_covenants": m.StructureAndCovenants,
		"bull_case":               m.BullCase,
		"bear_case":               m.BearCase,
		"key_questions":           m.KeyQuestions,
		"uncertainties":           m.Uncertainties,
	}
	for name, list := range lists {
		if len(list) == 0 {
			return fmt.Errorf("%s is empty", name)
		}
	}
	if m.MacroSensitivity.Rates == "" || m.MacroSensitivity.Spreads == "" || m.MacroSensitivity.Liquidity == "" {
		return fmt.Errorf("macro_sensitivity is incomplete")
	}
	for name, score := range map[string]float64{
		"overall":        m.Confidence.Overall,
		"data_quality":   m.Confidence.DataQuality,
		"model_judgment": m.Confidence.ModelJudgment,
	} {
		if score < 0 || score > 1 {
			return fmt.Errorf("confidence.%s %.2f out of range [0, 1]", name, score)
		}
	}
	if m.Disclaimer == "" {
		return fmt.Errorf("disclaimer is empty")
	}
	return nil
}
