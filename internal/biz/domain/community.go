package domain

// Community represents per-community bot settings
type Community struct {
	ID             string
	AdminChannelID string // Receives low-queue alerts
}

// Embed colors for the success/error reply vocabulary
const (
	ColorSuccess = 0x2ecc71
	ColorError   = 0xe74c3c
	ColorInfo    = 0x3498db
	ColorPrompt  = 0x9b59b6
)

// Embed is structured message content
type Embed struct {
	Title       string
	Description string
	Footer      string
	Color       int
}

// SuccessEmbed frames a success reply
func SuccessEmbed(text string) Embed {
	return Embed{Title: "Success!", Description: text, Color: ColorSuccess}
}

// ErrorEmbed frames an error reply
func ErrorEmbed(text string) Embed {
	return Embed{Title: "Error!", Description: text, Color: ColorError}
}

// InfoEmbed frames a neutral reply
func InfoEmbed(title, text string) Embed {
	return Embed{Title: title, Description: text, Color: ColorInfo}
}
