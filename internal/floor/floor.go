package floor

// Decision is what the floor manager wants the session to do with the
// in-flight agent utterance.
type Decision struct {
	Interrupt   bool
	UtteranceID string
	Reason      string // e.g. "barge_in"
}

// Manager tracks who holds the speaking floor for one call. A caller final
// arriving while the agent is speaking is a barge-in: the active utterance
// must be cancelled before the new input is processed.
type Manager struct {
	speaking          bool
	activeUtteranceID string
}

func New() *Manager { return &Manager{} }

func (m *Manager) OnSynthStarted(utteranceID string) {
	m.speaking = true
	m.activeUtteranceID = utteranceID
}

// OnSynthStopped clears the floor when the stopping utterance is still the
// active one. A stale stop, arriving after barge-in already handed the floor
// to a newer utterance, is ignored. Reports whether the floor was cleared.
func (m *Manager) OnSynthStopped(utteranceID string) bool {
	if !m.speaking || m.activeUtteranceID != utteranceID {
		return false
	}
	m.speaking = false
	m.activeUtteranceID = ""
	return true
}

func (m *Manager) OnCallerFinal() Decision {
	if m.speaking {
		return Decision{Interrupt: true, UtteranceID: m.activeUtteranceID, Reason: "barge_in"}
	}
	return Decision{}
}

func (m *Manager) Speaking() bool { return m.speaking }
