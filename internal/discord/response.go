package discord

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/fadedpez/tucoroulette/internal/types"
)

// ResponseEmoji maps error codes to appropriate emojis
var ResponseEmoji = map[types.ErrorCode]string{
	types.ErrValidation:            "🚫",
	types.ErrLimitExceeded:         "📏",
	types.ErrDescriptorNotFound:    "🔍",
	types.ErrInsufficientFunds:     "💸",
	types.ErrInsufficientAllowance: "🔐",
	types.ErrUserRejected:          "✋",
	types.ErrNetworkCongestion:     "🚦",
	types.ErrPriceTooLow:           "⛽",
	types.ErrContractReverted:      "↩️",
	types.ErrStaleOrMissingData:    "📭",
	types.ErrTimeout:               "⏳",
	types.ErrUnsupported:           "🧱",
	types.ErrInvalidState:          "⚠️",
	types.ErrInvalidCommand:        "⛔",
	types.ErrInvalidArgument:       "❗",
	types.ErrPermissionDenied:      "🚫",
	types.ErrInternalError:         "💥",
	types.ErrNetworkError:          "🌐",
	types.ErrDatabaseError:         "💾",
	types.ErrRateLimited:           "⏱️",
}

// Response represents a Discord interaction response
type Response struct {
	Content    string
	Embeds     []*discordgo.MessageEmbed
	Components []discordgo.MessageComponent
	Ephemeral  bool
}

// NewResponse creates a new Response
func NewResponse(content string, components []discordgo.MessageComponent) *Response {
	return &Response{
		Content:    content,
		Components: components,
		Ephemeral:  false,
	}
}

// NewEphemeralResponse creates a new ephemeral Response (only visible to the user)
func NewEphemeralResponse(content string, components []discordgo.MessageComponent) *Response {
	return &Response{
		Content:    content,
		Components: components,
		Ephemeral:  true,
	}
}

// WithEmbeds attaches embeds to the response
func (r *Response) WithEmbeds(embeds ...*discordgo.MessageEmbed) *Response {
	r.Embeds = append(r.Embeds, embeds...)
	return r
}

// ErrorText renders an error the way every surface shows it
func ErrorText(err error) string {
	var gameErr *types.GameError
	if types.As(err, &gameErr) {
		emoji := ResponseEmoji[gameErr.Code]
		if emoji == "" {
			emoji = "❌"
		}
		return fmt.Sprintf("%s %s", emoji, gameErr.Message)
	}
	return fmt.Sprintf("❌ An error occurred: %v", err)
}

// NewErrorResponse creates a new error Response
func NewErrorResponse(err error) *Response {
	return NewEphemeralResponse(ErrorText(err), nil)
}

// SendResponse sends a response to a Discord interaction
func SendResponse(s SessionHandler, i *discordgo.InteractionCreate, r *Response) error {
	return s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: responseData(r),
	})
}

// UpdateResponse updates the message a component belongs to
func UpdateResponse(s SessionHandler, i *discordgo.InteractionCreate, r *Response) error {
	return s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseUpdateMessage,
		Data: responseData(r),
	})
}

// Defer acknowledges an interaction whose answer needs a chain round trip
func Defer(s SessionHandler, i *discordgo.InteractionCreate, ephemeral bool) error {
	return s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Flags: getFlags(ephemeral)},
	})
}

// DeferUpdate acknowledges a component click whose message is edited later
func DeferUpdate(s SessionHandler, i *discordgo.InteractionCreate) error {
	return s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredMessageUpdate,
	})
}

// EditResponse replaces the content of a deferred or earlier response
func EditResponse(s SessionHandler, i *discordgo.InteractionCreate, r *Response) error {
	content := r.Content
	embeds := r.Embeds
	components := r.Components
	if embeds == nil {
		embeds = []*discordgo.MessageEmbed{}
	}
	if components == nil {
		components = []discordgo.MessageComponent{}
	}
	_, err := s.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{
		Content:    &content,
		Embeds:     &embeds,
		Components: &components,
	})
	return err
}

// SendFollowup posts an extra message after the interaction was answered
func SendFollowup(s SessionHandler, i *discordgo.Interaction, r *Response) error {
	_, err := s.FollowupMessageCreate(i, true, &discordgo.WebhookParams{
		Content:    r.Content,
		Embeds:     r.Embeds,
		Components: r.Components,
		Flags:      getFlags(r.Ephemeral),
	})
	return err
}

// SendGameResponse sends a table response
func SendGameResponse(s SessionHandler, i *discordgo.InteractionCreate, content string, components []discordgo.MessageComponent) error {
	return SendResponse(s, i, NewResponse(content, components))
}

// SendErrorResponse sends an error response
func SendErrorResponse(s SessionHandler, i *discordgo.InteractionCreate, err error) error {
	return SendResponse(s, i, NewErrorResponse(err))
}

// Helper functions

func responseData(r *Response) *discordgo.InteractionResponseData {
	return &discordgo.InteractionResponseData{
		Content:    r.Content,
		Embeds:     r.Embeds,
		Components: r.Components,
		Flags:      getFlags(r.Ephemeral),
	}
}

func getFlags(ephemeral bool) discordgo.MessageFlags {
	if ephemeral {
		return discordgo.MessageFlagsEphemeral
	}
	return 0
}
