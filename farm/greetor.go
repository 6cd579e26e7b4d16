package farm

import (
	"github.com/KrishimitraAgent/KrishimitraBackend/agent"
	"github.com/KrishimitraAgent/KrishimitraBackend/model"
)

// NewGreetorAgent builds the greeting delegate. It handles salutations and
// introduces what the assistant can do; no tools.
func NewGreetorAgent(llm model.Model) *agent.ModelAgent {
	a := agent.NewModelAgent("greetor_agent", llm, func(o *agent.ModelAgentOptions) {
		o.Instruction = agent.NewInstructionFromText(
			"You warmly greet Indian farmers on behalf of the Krishimitra assistant.\n" +
				"Reply in 1-2 friendly sentences. Mention that you can help with mandi prices, " +
				"crop disease diagnosis and a general chat about how their season is going. " +
				"Match the farmer's language when they do not write in English.")
	})
	a.SetDescription("Greets the farmer and explains what the assistant can help with.")
	return a
}
