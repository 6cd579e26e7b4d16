package farm

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/KrishimitraAgent/KrishimitraBackend/agent"
	"github.com/KrishimitraAgent/KrishimitraBackend/core"
	"github.com/KrishimitraAgent/KrishimitraBackend/docstore"
	"github.com/KrishimitraAgent/KrishimitraBackend/model"
	"github.com/KrishimitraAgent/KrishimitraBackend/tool"
)

// StoreAnalysisToolName identifies the effectful-once analysis store tool.
const StoreAnalysisToolName = "store_crop_analysis"

// AnalysisCollection is the document collection for crop disease analyses.
const AnalysisCollection = "crop_analysis"

// dedupKeyLen is the hex prefix length of the content hash used as document
// key.
const dedupKeyLen = 20

type storeAnalysisArgs struct {
	Analysis string `json:"analysis" description:"The complete crop disease analysis to persist, including diagnosis and treatment advice"`
}

// AnalysisKey derives the deterministic document key for an analysis text.
func AnalysisKey(analysis string) string {
	sum := sha256.Sum256([]byte(analysis))
	return hex.EncodeToString(sum[:])[:dedupKeyLen]
}

// NewStoreAnalysisTool builds the store-then-halt tool. The key is derived
// from the analysis content, so retries and capability replays write at most
// one document. Both the "stored" and "already existed" paths succeed and
// end the turn immediately with the document id as turn metadata; only a
// store failure is fatal.
func NewStoreAnalysisTool(store docstore.Store) tool.Tool {
	return tool.NewFunctionToolFromStruct(
		StoreAnalysisToolName,
		"Persist the final crop disease analysis. Call exactly once with the complete analysis text after the diagnosis is done. The conversation turn ends after this call.",
		storeAnalysisArgs{},
		func(toolCtx *core.ToolContext, args map[string]interface{}) (interface{}, error) {
			analysis, _ := args["analysis"].(string)
			if strings.TrimSpace(analysis) == "" {
				return nil, tool.NewToolError(StoreAnalysisToolName,
					"analysis must not be empty", "VALIDATION_ERROR")
			}

			key := AnalysisKey(analysis)
			ctx := toolCtx.Context()

			exists, err := store.Exists(ctx, AnalysisCollection, key)
			if err != nil {
				return nil, tool.NewToolError(StoreAnalysisToolName,
					fmt.Sprintf("existence check failed: %v", err), "PERSISTENCE_ERROR")
			}

			status := "exists"
			if !exists {
				fields := map[string]any{
					"analysis":  analysis,
					"timestamp": time.Now().UTC(),
				}
				if err := store.Set(ctx, AnalysisCollection, key, fields); err != nil {
					return nil, tool.NewToolError(StoreAnalysisToolName,
						fmt.Sprintf("store failed: %v", err), "PERSISTENCE_ERROR")
				}
				status = "stored"
			} else {
				toolCtx.Logger().Info("crop_analysis.dedup_hit", "doc_id", key)
			}

			// The turn halts here on both paths; the capability gets no
			// further say.
			toolCtx.EndTurn(map[string]string{
				"doc_id": key,
				"status": status,
			})

			return map[string]interface{}{
				"doc_id": key,
				"status": status,
			}, nil
		},
	)
}

// NewCropDoctorAgent builds the crop disease delegate. It diagnoses from the
// farmer's description (and photo when attached) and persists the analysis
// through the store-then-halt tool, which terminates the turn.
func NewCropDoctorAgent(llm model.Model, store docstore.Store) *agent.ModelAgent {
	a := agent.NewModelAgent("crop_disease_agent", llm, func(o *agent.ModelAgentOptions) {
		o.Instruction = agent.NewInstructionFromText(
			"You are an experienced agronomist helping Indian farmers with crop health problems.\n" +
				"Study the farmer's description, and the attached photo when there is one. Identify " +
				"the most likely disease or pest, explain the evidence briefly, and give practical " +
				"treatment steps a smallholder can follow, preferring affordable and locally " +
				"available remedies.\n" +
				"When your analysis is complete, call store_crop_analysis exactly once with the full " +
				"analysis text. Do not write anything after the call; it ends the conversation turn.")
	})
	a.SetDescription("Diagnoses crop diseases and pests from descriptions and photos, and records the analysis.")
	a.RegisterTool(NewStoreAnalysisTool(store))
	return a
}
