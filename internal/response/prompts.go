package response

import (
	"fmt"

	"github.com/nuxero/voice-ai-loan-preapproval-demo/internal/dialog"
)

func systemPrompt(company string) string {
	return fmt.Sprintf(`You are a professional and friendly loan pre-approval assistant for %s.
You help callers get a quick pre-approval estimate over the phone.
Be warm, concise, and conversational; speak at a moderate pace.
Confirm information as you collect it.
Never mention the secure application link before being instructed to.`, company)
}

// instruction tells the model what the next turn must accomplish. The dialog
// machine has already decided the intent; the model only words it.
func instruction(p dialog.Prompt) string {
	switch p {
	case dialog.PromptConsentExplain:
		return "Explain that you'll run a soft credit inquiry that does not impact the caller's credit score, and ask for explicit consent to proceed."
	case dialog.PromptConsentRetry:
		return "The caller's answer was unclear. Briefly re-ask whether you may proceed with the soft credit check. Ask for a yes or no."
	case dialog.PromptAskName:
		return "Thank the caller and ask for their full legal name."
	case dialog.PromptNameRetry:
		return "You could not catch the caller's name. Apologize briefly and ask them to repeat their full legal name."
	case dialog.PromptAskPhone:
		return "Confirm the name you heard and ask for the best phone number to reach them, digit by digit."
	case dialog.PromptPhoneRetry:
		return "The phone number was incomplete. Ask the caller to repeat their ten-digit phone number slowly."
	case dialog.PromptAskZip:
		return "Confirm the phone number and ask for the caller's five-digit zip code."
	case dialog.PromptZipRetry:
		return "The zip code was not five digits. Ask the caller to repeat their five-digit zip code."
	case dialog.PromptLinkConfirm:
		return "Tell the caller you've sent a secure application link to finish their pre-approval, and offer to stay on the line if they need help."
	case dialog.PromptFarewell:
		return "Thank the caller for their time and say goodbye warmly."
	case dialog.PromptDeclined:
		return "The caller declined the credit check. Respect that, thank them, and end the call politely."
	case dialog.PromptTransfer:
		return "You could not collect the needed details. Apologize and say you'll transfer them to a specialist who can help."
	default:
		return "Continue the conversation naturally."
	}
}

// Fallback is the canned utterance spoken when generation fails or times out.
// Callers must never hear silence or a raw error.
func Fallback(p dialog.Prompt) string {
	switch p {
	case dialog.PromptConsentExplain:
		return "To estimate your eligible amount I'll run a soft credit inquiry. It will not impact your credit score. May I proceed?"
	case dialog.PromptConsentRetry:
		return "Sorry, I didn't catch that. Is it okay if I run a soft credit check? It won't affect your score."
	case dialog.PromptAskName:
		return "Great, thank you. Could I have your full legal name, please?"
	case dialog.PromptNameRetry:
		return "I'm sorry, I didn't get your name. Could you repeat your full legal name?"
	case dialog.PromptAskPhone:
		return "Thanks. What's the best phone number to reach you?"
	case dialog.PromptPhoneRetry:
		return "I didn't quite get that number. Could you repeat your ten-digit phone number?"
	case dialog.PromptAskZip:
		return "Got it. And what's your five-digit zip code?"
	case dialog.PromptZipRetry:
		return "Sorry, I need the five-digit zip code. Could you repeat it?"
	case dialog.PromptLinkConfirm:
		return "Perfect, I've sent a secure link to finish your application. I can stay on the line if you need any help."
	case dialog.PromptFarewell:
		return "Thanks so much for your time. Goodbye!"
	case dialog.PromptDeclined:
		return "No problem at all, I understand. Thanks for calling, and have a great day."
	case dialog.PromptTransfer:
		return "I'm having trouble getting those details. Let me transfer you to one of our specialists."
	default:
		return "Thanks for calling the quick pre-approval line."
	}
}

// Opening is the greeting spoken as soon as the stream starts.
func Opening(company string) string {
	return fmt.Sprintf("Hi, you've reached the %s quick pre-approval line. We can estimate your eligible amount in under three minutes. May I proceed?", company)
}
