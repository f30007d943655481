package dialog

// Phase is the current stage of a pre-approval call. Transitions are strictly
// forward except re-prompt loops within a collection phase.
type Phase string

const (
	PhaseGreeting     Phase = "greeting"
	PhaseConsentCheck Phase = "consent_check"
	PhaseCollectName  Phase = "collect_name"
	PhaseCollectPhone Phase = "collect_phone"
	PhaseCollectZip   Phase = "collect_zip"
	PhaseLinkHandoff  Phase = "link_handoff"
	PhaseClosing      Phase = "closing"
	PhaseTerminated   Phase = "terminated"
)

// Prompt identifies what the agent should say next. The response generator owns
// the wording; the machine only picks the intent.
type Prompt string

const (
	PromptNone           Prompt = ""
	PromptConsentExplain Prompt = "consent_explain"
	PromptConsentRetry   Prompt = "consent_retry"
	PromptAskName        Prompt = "ask_name"
	PromptNameRetry      Prompt = "name_retry"
	PromptAskPhone       Prompt = "ask_phone"
	PromptPhoneRetry     Prompt = "phone_retry"
	PromptAskZip         Prompt = "ask_zip"
	PromptZipRetry       Prompt = "zip_retry"
	PromptLinkConfirm    Prompt = "link_confirm"
	PromptFarewell       Prompt = "farewell"
	PromptDeclined       Prompt = "declined"
	PromptTransfer       Prompt = "transfer"
)
