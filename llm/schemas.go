package llm

// SystemPrompt frames the assistant for the escalation path. It is sent as
// the first message of every LLM request.
const SystemPrompt = `You are a helpful currency conversion assistant. You can:

1. Convert currencies using real-time exchange rates
2. Handle multiple currency conversions in a single request
3. Provide information about supported currencies
4. Get historical exchange rates for specific dates

Always provide clear, accurate information about currency conversions. When multiple conversions are requested, process all of them and present the results clearly.

If a user asks about something unrelated to currency conversion, politely redirect them to currency-related topics.

Format your responses in a clear, user-friendly manner with:
- The original amount and currency
- The converted amount and target currency
- The exchange rate used
- The date of the exchange rate

For multiple conversions, present each conversion in a separate, clearly marked section.`

// Tool is a function declaration in the provider wire format.
type Tool struct {
	Type     string         `json:"type"`
	Function FunctionSchema `json:"function"`
}

// FunctionSchema describes one callable function with JSON-schema parameters.
type FunctionSchema struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Parameters  Parameters `json:"parameters"`
}

// Parameters is the JSON-schema object describing a function's arguments.
type Parameters struct {
	Type       string              `json:"type"`
	Properties map[string]Property `json:"properties"`
	Required   []string            `json:"required"`
}

// Property is a single JSON-schema property.
type Property struct {
	Type        string `json:"type"`
	Description string `json:"description"`
	Pattern     string `json:"pattern,omitempty"`
}

// Tools returns the three function declarations sent with every escalation
// request. The set is fixed; DecodeToolCall understands exactly these names.
func Tools() []Tool {
	codeProperty := func(desc string) Property {
		return Property{
			Type:        "string",
			Description: desc,
			Pattern:     "^[A-Z]{3}$",
		}
	}

	return []Tool{
		{
			Type: "function",
			Function: FunctionSchema{
				Name:        FuncConvertCurrency,
				Description: "Convert amount from one currency to another using real-time exchange rates",
				Parameters: Parameters{
					Type: "object",
					Properties: map[string]Property{
						"amount": {
							Type:        "number",
							Description: "Amount to convert (must be positive)",
						},
						"from_currency": codeProperty("Source currency code (3-letter ISO code, e.g., USD, EUR, GBP)"),
						"to_currency":   codeProperty("Target currency code (3-letter ISO code, e.g., USD, EUR, GBP)"),
					},
					Required: []string{"amount", "from_currency", "to_currency"},
				},
			},
		},
		{
			Type: "function",
			Function: FunctionSchema{
				Name:        FuncGetSupportedCurrencies,
				Description: "Get list of all supported currencies",
				Parameters: Parameters{
					Type:       "object",
					Properties: map[string]Property{},
					Required:   []string{},
				},
			},
		},
		{
			Type: "function",
			Function: FunctionSchema{
				Name:        FuncGetHistoricalRate,
				Description: "Get historical exchange rate for a specific date",
				Parameters: Parameters{
					Type: "object",
					Properties: map[string]Property{
						"date": {
							Type:        "string",
							Description: "Date in YYYY-MM-DD format",
							Pattern:     `^\d{4}-\d{2}-\d{2}$`,
						},
						"from_currency": codeProperty("Source currency code"),
						"to_currency":   codeProperty("Target currency code"),
					},
					Required: []string{"date", "from_currency", "to_currency"},
				},
			},
		},
	}
}
