package memo

import (
	"fmt"
	"strings"
)

const systemPrompt = `You are a senior buy-side credit analyst preparing investment memos for institutional fixed-income portfolios.

Your role:
- Synthesize provided information into structured credit analysis
- Flag uncertainties and data gaps explicitly
- Never hallucinate specific numbers, dates, or facts not provided
- Provide qualitative analysis only (no price targets, default probabilities, or return forecasts)
- Use professional buy-side language

Output requirements:
- Return ONLY valid JSON matching the exact schema provided
- No markdown, no code blocks, no explanatory text
- Ensure all required fields are populated
- Lists must contain at least 2-3 items each
- Confidence scores must be between 0 and 1
`

const userPromptTemplate = `Generate a credit memo based on the following information:

ISSUER INFORMATION:
- Name: %s
- Sector: %s

BOND INFORMATION:
- Maturity: %s
- Coupon: %g%%
- Seniority: %s

LEVERAGE CONTEXT:
%s

MACRO ENVIRONMENT:
%s

Return a JSON object with the following structure:
{
  "issuer_summary": "string - executive summary of issuer",
  "bond_summary": "string - summary of bond instrument",
  "business_risk": ["list of business risks"],
  "financial_risk": ["list of financial risks"],
  "structure_and_covenants": ["list of structure/covenant points"],
  "macro_sensitivity": {
    "rates": "string - interest rate sensitivity",
    "spreads": "string - credit spread sensitivity",
    "liquidity": "string - liquidity considerations"
  },
  "bull_case": ["list of positive scenarios"],
  "bear_case": ["list of negative scenarios"],
  "key_questions": ["list of critical questions"],
  "uncertainties": ["list of data gaps and uncertainties"],
  "confidence": {
    "overall": 0.0-1.0,
    "data_quality": 0.0-1.0,
    "model_judgment": 0.0-1.0
  },
  "disclaimer": "standard disclaimer text"
}

IMPORTANT:
- Only synthesize the information provided above
- Flag any missing data in the 'uncertainties' field
- Do not invent specific financial metrics or dates
- Return ONLY the JSON object, no other text
`

// formatUserPrompt renders the user prompt, substituting placeholders for
// missing optional context.
func formatUserPrompt(req Request) string {
	leverage := strings.TrimSpace(req.LeverageDescription)
	if leverage == "" {
		leverage = "No specific leverage information provided."
	}
	macro := strings.TrimSpace(req.MacroContext)
	if macro == "" {
		macro = "No specific macro context provided."
	}
	return fmt.Sprintf(userPromptTemplate,
		req.IssuerName, req.Sector, req.Maturity, req.Coupon, req.Seniority,
		leverage, macro,
	)
}
