// Package farm assembles the farmer-assistant agent hierarchy: the routing
// coordinator and its four delegates (greeting, crop prices, crop disease,
// farmer mood), plus the tools they carry.
package farm

import (
	"github.com/KrishimitraAgent/KrishimitraBackend/agent"
	"github.com/KrishimitraAgent/KrishimitraBackend/core"
	"github.com/KrishimitraAgent/KrishimitraBackend/farm/pricedata"
	"github.com/KrishimitraAgent/KrishimitraBackend/model"
	"github.com/KrishimitraAgent/KrishimitraBackend/tool"
)

// PriceLookupToolName identifies the pure-fetch market price tool.
const PriceLookupToolName = "get_commodity_prices"

type priceQueryArgs struct {
	Commodity string `json:"commodity,omitempty" description:"Canonical crop name, e.g. Onion, Wheat, Tomato"`
	State     string `json:"state,omitempty" description:"Indian state to filter by"`
	District  string `json:"district,omitempty" description:"District to filter by"`
	Market    string `json:"market,omitempty" description:"Specific mandi (market) name"`
	Variety   string `json:"variety,omitempty" description:"Crop variety when the farmer named one"`
	Grade     string `json:"grade,omitempty" description:"Quality grade to filter by"`
	Offset    int    `json:"offset,omitempty" description:"Records to skip for paging"`
	Limit     int    `json:"limit,omitempty" description:"Maximum records to return (default 10)"`
}

// NewPriceLookupTool wraps a price data source as a schema-validated tool.
// Fetch failures surface as NETWORK_ERROR results the capability can narrate;
// they never abort the turn.
func NewPriceLookupTool(source pricedata.Source) tool.Tool {
	return tool.NewFunctionToolFromStruct(
		PriceLookupToolName,
		"Look up current mandi (market) prices for a commodity. Returns raw price records; summarize them for the farmer, never show them verbatim.",
		priceQueryArgs{},
		func(toolCtx *core.ToolContext, args map[string]interface{}) (interface{}, error) {
			filters := pricedata.Filters{
				Commodity: strArg(args, "commodity"),
				State:     strArg(args, "state"),
				District:  strArg(args, "district"),
				Market:    strArg(args, "market"),
				Variety:   strArg(args, "variety"),
				Grade:     strArg(args, "grade"),
				Offset:    intArg(args, "offset"),
				Limit:     intArg(args, "limit"),
			}

			records, err := source.Fetch(toolCtx.Context(), filters)
			if err != nil {
				return nil, tool.NewToolError(PriceLookupToolName, err.Error(), "NETWORK_ERROR")
			}

			return map[string]interface{}{
				"count":   len(records),
				"records": records,
			}, nil
		},
	)
}

// NewCropPriceAgent builds the market price delegate. It must call the price
// tool exactly once per query and answer with a plain-language summary; the
// raw-output guard suppresses leaked record dumps.
func NewCropPriceAgent(llm model.Model, source pricedata.Source) *agent.ModelAgent {
	a := agent.NewModelAgent("crop_price_agent", llm, func(o *agent.ModelAgentOptions) {
		o.Instruction = agent.NewInstructionFromText(
			"You help Indian farmers understand current mandi prices for their crops.\n" +
				"For every price question, call get_commodity_prices exactly once with the commodity " +
				"and any location the farmer mentioned, then answer in 2-4 short sentences: the price " +
				"range, the best market if several appear, and whether prices look favourable.\n" +
				"Quote prices in rupees per quintal. If no records come back, say so and suggest the " +
				"farmer name a nearby district or market. If the lookup fails, apologise and suggest " +
				"trying again shortly.\n" +
				"Never show raw records, JSON or tables. Always finish with a readable summary.")
		o.OutputKey = "last_price_summary"
		o.GuardRawOutput = true
	})
	a.SetDescription("Answers crop and commodity market price questions using live mandi price data.")
	a.RegisterTool(NewPriceLookupTool(source))
	return a
}

func strArg(args map[string]interface{}, key string) string {
	if v, ok := args[key].(string); ok {
		return v
	}
	return ""
}

func intArg(args map[string]interface{}, key string) int {
	switch v := args[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	}
	return 0
}
