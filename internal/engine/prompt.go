package engine

import "fmt"

const systemInstructions = `Sei NUNC, un sistema esperto di aggiornamento normativo.
Il tuo compito è armonizzare un TESTO VIGENTE con una NOVITÀ NORMATIVA.

DIRETTIVE:
1. Precisione assoluta: modifica date, importi e requisiti di ammissibilità esattamente come indicato nella novità, e nient'altro.
2. Conservazione: le parti del testo vigente non impattate dalla novità devono restare identiche, carattere per carattere.
3. Stile: mantieni il registro professionale, asettico e giuridico del testo originale.
4. Output: restituisci solo il testo finale completo, senza commenti, premesse o spiegazioni.`

const userTemplate = `--- TESTO DA AGGIORNARE ---
%s

--- NUOVA DISPOSIZIONE ---
%s`

// Roles of the messages sent to the generation service.
const (
	RoleSystem = "system"
	RoleUser   = "user"
)

// Message is a role-tagged chat message.
type Message struct {
	Role    string
	Content string
}

// SystemInstructions returns the fixed instruction sent with every request.
func SystemInstructions() string {
	return systemInstructions
}

// BuildMessages returns the ordered system and user messages for a request.
func BuildMessages(source, change string) []Message {
	return []Message{
		{Role: RoleSystem, Content: systemInstructions},
		{Role: RoleUser, Content: fmt.Sprintf(userTemplate, source, change)},
	}
}
