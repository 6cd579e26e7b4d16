package farm

import (
	"fmt"

	"github.com/KrishimitraAgent/KrishimitraBackend/agent"
	"github.com/KrishimitraAgent/KrishimitraBackend/core"
	"github.com/KrishimitraAgent/KrishimitraBackend/docstore"
	"github.com/KrishimitraAgent/KrishimitraBackend/farm/pricedata"
	"github.com/KrishimitraAgent/KrishimitraBackend/model"
)

// Deps carries everything needed to assemble the assistant hierarchy.
// All clients are injected so tests can substitute mocks.
type Deps struct {
	// RouterModel backs the coordinator and greetor (fast, cheap routing).
	RouterModel model.Model
	// WorkerModel backs the price and disease delegates (stronger reasoning,
	// vision for photos).
	WorkerModel model.Model
	// PriceSource serves market price records.
	PriceSource pricedata.Source
	// DocStore persists crop analyses.
	DocStore docstore.Store
	// MoodClassifier drives the mood delegate; nil selects the keyword rules.
	MoodClassifier MoodClassifier
}

// NewAssistant assembles the farming coordinator with its four delegates.
// The coordinator is the single root; delegates are leaves, so delegation is
// exactly one level deep.
func NewAssistant(deps Deps) (core.Agent, error) {
	if deps.RouterModel == nil || deps.WorkerModel == nil {
		return nil, fmt.Errorf("router and worker models are required")
	}
	if deps.PriceSource == nil {
		return nil, fmt.Errorf("price source is required")
	}
	if deps.DocStore == nil {
		return nil, fmt.Errorf("document store is required")
	}

	greetor := NewGreetorAgent(deps.RouterModel)
	price := NewCropPriceAgent(deps.WorkerModel, deps.PriceSource)
	doctor := NewCropDoctorAgent(deps.WorkerModel, deps.DocStore)
	mood := NewFarmerMoodAgent(deps.MoodClassifier)

	coordinator := agent.NewModelAgent("farming_coordinator", deps.RouterModel, func(o *agent.ModelAgentOptions) {
		o.AllowTransfer = true
		o.Instruction = agent.NewInstructionFromText(
			"You are the Krishimitra farming coordinator. Route each message to the one " +
				"delegate best suited for it by calling transfer_to_agent.\n" +
				"Routing rules:\n" +
				"- greetor_agent: greetings, introductions, questions about what you can do\n" +
				"- crop_price_agent: anything about mandi or market prices, selling, rates\n" +
				"- crop_disease_agent: sick crops, pests, spots or damage, attached photos\n" +
				"- farmer_mood_agent: how the farmer is feeling, stress, wellbeing check-ins\n" +
				"When a message fits several delegates, pick the most specific one. When you " +
				"delegate, call transfer_to_agent exactly once and do not write any other text. " +
				"If no delegate fits, answer briefly yourself.")
	})
	coordinator.SetDescription("Routes farmer queries to the right specialist delegate.")

	if err := coordinator.SetSubAgents(greetor, price, doctor, mood); err != nil {
		return nil, fmt.Errorf("wire delegates: %w", err)
	}

	return coordinator, nil
}
