package dialog

import "log"

// Slots holds the fields collected over the voice channel. A slot is valid once
// set; the machine never overwrites a validated slot.
type Slots struct {
	Name  string
	Phone string
	Zip   string
}

func (s Slots) Complete() bool { return s.Name != "" && s.Phone != "" && s.Zip != "" }

// Result describes what the session should do after feeding the machine one
// final transcript fragment.
type Result struct {
	Phase    Phase
	Prompt   Prompt
	SendLink bool // construct and deliver the secure application link
	EndCall  bool // hang up after the prompt has been spoken
	Discard  bool // fragment arrived after termination; ignore it
}

// Machine is the turn-taking core of a call. It is not safe for concurrent use;
// the owning session is the single writer.
type Machine struct {
	id         string
	phase      Phase
	slots      Slots
	retries    int
	maxRetries int
}

func NewMachine(callID string, maxRetries int) *Machine {
	if maxRetries <= 0 {
		maxRetries = 3
	}
	return &Machine{id: callID, phase: PhaseGreeting, maxRetries: maxRetries}
}

func (m *Machine) Phase() Phase { return m.phase }
func (m *Machine) Slots() Slots { return m.slots }

// Advance feeds one final transcript fragment through the transition function.
// Transitions depend only on structured extraction results, never on generated
// text.
func (m *Machine) Advance(text string) Result {
	switch m.phase {
	case PhaseGreeting:
		return m.moveTo(PhaseConsentCheck, PromptConsentExplain)

	case PhaseConsentCheck:
		switch ClassifyConsent(text) {
		case ConsentYes:
			return m.moveTo(PhaseCollectName, PromptAskName)
		case ConsentNo:
			r := m.moveTo(PhaseClosing, PromptDeclined)
			r.EndCall = true
			return r
		default:
			return m.reprompt(PromptConsentRetry)
		}

	case PhaseCollectName:
		if name, ok := ExtractName(text); ok {
			m.slots.Name = name
			return m.moveTo(PhaseCollectPhone, PromptAskPhone)
		}
		return m.reprompt(PromptNameRetry)

	case PhaseCollectPhone:
		if phone, ok := ExtractPhone(text); ok {
			m.slots.Phone = phone
			return m.moveTo(PhaseCollectZip, PromptAskZip)
		}
		return m.reprompt(PromptPhoneRetry)

	case PhaseCollectZip:
		if zip, ok := ExtractZip(text); ok {
			m.slots.Zip = zip
			r := m.moveTo(PhaseLinkHandoff, PromptLinkConfirm)
			r.SendLink = true
			return r
		}
		return m.reprompt(PromptZipRetry)

	case PhaseLinkHandoff:
		r := m.moveTo(PhaseClosing, PromptFarewell)
		r.EndCall = true
		return r

	case PhaseClosing:
		r := m.moveTo(PhaseTerminated, PromptNone)
		r.Discard = true
		return r

	default: // PhaseTerminated
		return Result{Phase: PhaseTerminated, Discard: true}
	}
}

// Terminate forces the machine into its terminal phase (disconnect, hangup).
func (m *Machine) Terminate() {
	if m.phase != PhaseTerminated {
		log.Printf("[dialog] terminate call=%s phase=%s", m.id, m.phase)
		m.phase = PhaseTerminated
	}
}

// moveTo transitions forward and resets the per-phase retry counter.
func (m *Machine) moveTo(to Phase, p Prompt) Result {
	log.Printf("[dialog] transition call=%s %s -> %s", m.id, m.phase, to)
	metricPhaseTransitions.WithLabelValues(string(m.phase), string(to)).Inc()
	m.phase = to
	m.retries = 0
	return Result{Phase: to, Prompt: p}
}

// reprompt self-transitions with a clarifying prompt, escalating to a transfer
// after maxRetries consecutive failures in the same phase.
func (m *Machine) reprompt(p Prompt) Result {
	m.retries++
	if m.retries >= m.maxRetries {
		metricRetryTransfers.Inc()
		r := m.moveTo(PhaseClosing, PromptTransfer)
		r.EndCall = true
		return r
	}
	metricReprompts.Inc()
	return Result{Phase: m.phase, Prompt: p}
}
