package anthropic

// modelInfo holds the static cost metadata used to turn a Messages API
// response's token counts into a billed Usage record. Unlike the wider
// multi-provider registry this is adapted from, this table only needs to
// cover the one model family this binding targets.
type modelInfo struct {
	DisplayName         string
	InputCostPer1M      float64
	OutputCostPer1M     float64
	CacheReadCostPer1M  float64
	CacheWriteCostPer1M float64
}

var modelTable = map[string]modelInfo{
	"claude-opus-4-5": {
		DisplayName: "Claude Opus 4.5", InputCostPer1M: 15, OutputCostPer1M: 75,
		CacheReadCostPer1M: 1.5, CacheWriteCostPer1M: 18.75,
	},
	"claude-sonnet-4-5": {
		DisplayName: "Claude Sonnet 4.5", InputCostPer1M: 3, OutputCostPer1M: 15,
		CacheReadCostPer1M: 0.3, CacheWriteCostPer1M: 3.75,
	},
	"claude-3-5-haiku-20241022": {
		DisplayName: "Claude 3.5 Haiku", InputCostPer1M: 0.8, OutputCostPer1M: 4,
		CacheReadCostPer1M: 0.08, CacheWriteCostPer1M: 1,
	},
}

// costOf returns the USD cost of one call given its token counts. Falls back
// to the Sonnet-tier rate for an unrecognised model rather than reporting a
// zero cost, since a zero would silently understate real spend.
func costOf(model string, promptTokens, completionTokens int) float64 {
	info, ok := modelTable[model]
	if !ok {
		info = modelTable["claude-sonnet-4-5"]
	}
	return float64(promptTokens)/1_000_000*info.InputCostPer1M +
		float64(completionTokens)/1_000_000*info.OutputCostPer1M
}
