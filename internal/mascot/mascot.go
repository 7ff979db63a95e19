// Package mascot carries the deterministic "MonT" companion features:
// a financial-literacy tips catalogue, savings-amount extraction from
// free-form chat messages, and threshold-based feedback copy. Nothing
// here touches the network.
package mascot

import (
	"fmt"
	"regexp"
	"strings"
)

// Name is the mascot's display name.
const Name = "MonT"

// Tip is one entry of the literacy catalogue.
type Tip struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// Tips is the fixed financial-literacy catalogue.
var Tips = []Tip{
	{
		Title:   "Emergency Fund",
		Content: "Aim to save 3-6 months of expenses for emergencies. Start small - even ₱500 is better than nothing!",
	},
	{
		Title:   "50/30/20 Rule",
		Content: "Allocate 50% for needs, 30% for wants, and 20% for savings and debt repayment.",
	},
	{
		Title:   "Start Early",
		Content: "The power of compound interest means that starting to save even small amounts early can make a huge difference over time.",
	},
	{
		Title:   "Track Your Spending",
		Content: "Knowledge is power! Understanding where your money goes is the first step to better financial health.",
	},
	{
		Title:   "Pay Yourself First",
		Content: "Set aside savings before spending on anything else. Automate transfers to make it easier.",
	},
	{
		Title:   "Avoid Lifestyle Inflation",
		Content: "As your income grows, resist the urge to spend it all. Increase your savings rate instead.",
	},
	{
		Title:   "Multiple Income Streams",
		Content: "Consider developing additional income sources to increase your financial security.",
	},
	{
		Title:   "Invest in Yourself",
		Content: "Education and skill development are investments that can pay dividends throughout your career.",
	},
}

// TipAt returns a catalogue entry deterministically derived from seed.
func TipAt(seed int) Tip {
	if seed < 0 {
		seed = -seed
	}
	return Tips[seed%len(Tips)]
}

var motivationalPhrases = []string{
	"Awesome job! Every peso saved is a step towards your goals!",
	"You're building great financial habits! Keep it up!",
	"Fantastic! Your future self will thank you for this!",
	"Great progress! Small steps lead to big achievements!",
	"Well done! You're taking control of your financial future!",
	"Amazing! You're on the right track to financial success!",
}

var savingsPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?:saved|save|put aside|set aside|deposited)\s*(?:php|₱|pesos?|p)?\s*(\d+(?:\.\d{2})?)`),
	regexp.MustCompile(`(?:php|₱|pesos?|p)\s*(\d+(?:\.\d{2})?)\s*(?:saved|save|put aside|set aside)`),
	regexp.MustCompile(`(\d+(?:\.\d{2})?)\s*(?:php|₱|pesos?|p)\s*(?:saved|save|today|yesterday)`),
	regexp.MustCompile(`managed to save\s*(?:php|₱|pesos?|p)?\s*(\d+(?:\.\d{2})?)`),
}

// ExtractSavings pulls a saved amount out of a natural-language message.
func ExtractSavings(message string) (float64, bool) {
	lower := strings.ToLower(message)
	for _, pattern := range savingsPatterns {
		match := pattern.FindStringSubmatch(lower)
		if match == nil {
			continue
		}
		var amount float64
		if _, err := fmt.Sscanf(match[1], "%f", &amount); err == nil && amount > 0 {
			return amount, true
		}
	}
	return 0, false
}

// Currency reports the currency for a chat message. The app targets a
// Philippine audience, so PHP is the only currency recognized today.
func Currency(message string) string {
	return "PHP"
}

func currencySymbol(currency string) string {
	if strings.EqualFold(currency, "PHP") {
		return "₱"
	}
	return currency
}

// Reply is the mascot's answer to one chat message.
type Reply struct {
	Response string       `json:"response"`
	Type     string       `json:"type"`
	Mascot   string       `json:"mascot"`
	Tip      *Tip         `json:"tip_data,omitempty"`
	Savings  *SavingsData `json:"savings_data,omitempty"`
}

// SavingsData echoes back the parsed savings update.
type SavingsData struct {
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
}

var friendlyResponses = []string{
	"I'm here to help you with your financial journey! Try telling me about your savings or ask for a financial tip!",
	"Great to chat with you! I can help track your savings, provide financial tips, or just motivate you!",
	"Hello! I'm MonT, your financial buddy! Tell me about your savings goals or ask for some financial wisdom!",
	"Hi there! Ready to build some great financial habits together? Share your savings or ask me for tips!",
}

var motivationalMessages = []string{
	"Remember, financial freedom is a journey, not a destination!",
	"Every small step counts towards your big financial goals!",
	"Building wealth is like building muscles - consistency is key!",
	"Your future self is cheering you on! Keep going!",
	"Smart money habits today = financial peace tomorrow!",
}

func containsAny(lower string, words ...string) bool {
	for _, word := range words {
		if strings.Contains(lower, word) {
			return true
		}
	}
	return false
}

// Respond produces the mascot's reply. All choices are derived from the
// message itself, so the same input always yields the same reply.
func Respond(message string) Reply {
	trimmed := strings.TrimSpace(message)
	lower := strings.ToLower(trimmed)

	if amount, ok := ExtractSavings(trimmed); ok {
		currency := Currency(trimmed)
		seed := int(amount * 100)
		if seed < 0 {
			seed = 0
		}
		phrase := motivationalPhrases[seed%len(motivationalPhrases)]
		response := fmt.Sprintf("%s\n\nYou saved %s%.2f today!", phrase, currencySymbol(currency), amount)
		return Reply{
			Response: response,
			Type:     "savings_update",
			Mascot:   Name,
			Savings:  &SavingsData{Amount: amount, Currency: currency},
		}
	}

	if containsAny(lower, "tip", "advice", "help", "learn") {
		tip := TipAt(len(trimmed))
		return Reply{
			Response: fmt.Sprintf("Here's a financial tip for you:\n\n%s\n%s", tip.Title, tip.Content),
			Type:     "tip",
			Mascot:   Name,
			Tip:      &tip,
		}
	}

	if containsAny(lower, "motivation", "encourage", "support") {
		return Reply{
			Response: motivationalMessages[len(trimmed)%len(motivationalMessages)],
			Type:     "motivational",
			Mascot:   Name,
		}
	}

	return Reply{
		Response: friendlyResponses[len(trimmed)%len(friendlyResponses)],
		Type:     "general",
		Mascot:   Name,
	}
}
