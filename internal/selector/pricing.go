package selector

// Token estimation and the static price table for cost reporting. Prices are
// configuration, not computed; they mirror the synthesis model the selected
// sources are handed to.

const (
	// charsPerToken is the rough character-to-token ratio used for budget
	// accounting.
	charsPerToken = 4

	// ResponseTokenAllowance is the fixed allowance reserved for the
	// synthesized answer when estimating total tokens.
	ResponseTokenAllowance = 500

	// DefaultPricingModel keys the price table when the caller does not name
	// a model.
	DefaultPricingModel = "gpt-4o-mini"
)

// pricePer1KTokens is USD per 1000 input tokens by synthesis model.
// Read-only after initialization.
var pricePer1KTokens = map[string]float64{
	"gpt-4o-mini":     0.00015,
	"gpt-4o":          0.0025,
	"claude-3-haiku":  0.00025,
	"claude-3-sonnet": 0.003,
	"llama3.2":        0, // local inference
}

// EstimateTokens approximates the language-model token count of text,
// rounding up.
func EstimateTokens(text string) int {
	if len(text) == 0 {
		return 0
	}
	return (len(text) + charsPerToken - 1) / charsPerToken
}

// EstimateCost converts a token count into USD for the given model. Unknown
// models fall back to the default model's price.
func EstimateCost(tokens int, model string) float64 {
	price, ok := pricePer1KTokens[model]
	if !ok {
		price = pricePer1KTokens[DefaultPricingModel]
	}
	return float64(tokens) / 1000.0 * price
}
