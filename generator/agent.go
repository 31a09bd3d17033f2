package generator

import (
	"context"

	"go.uber.org/zap"
)

// Agent 把学习成果抽取和 AILO 生成绑定到同一个模型客户端。
type Agent struct {
	extractor *Extractor
	ailos     *AILOGenerator
}

func NewAgent(llm LLMClient, logger *zap.Logger) (*Agent, error) {
	ex, err := NewExtractor(llm, logger)
	if err != nil {
		return nil, err
	}
	gen, err := NewAILOGenerator(llm, logger)
	if err != nil {
		return nil, err
	}
	return &Agent{extractor: ex, ailos: gen}, nil
}

// Extract 从规范化后的大纲文本中抽取学习成果和考核方式。
func (a *Agent) Extract(ctx context.Context, text string) ExtractionResult {
	return a.extractor.Extract(ctx, text)
}

// Generate 基于已确认的清单生成 AILO。
func (a *Agent) Generate(ctx context.Context, inv ValidatedInventory, dimensions []string, influencePercent int) (GenerationResult, error) {
	return a.ailos.Generate(ctx, inv.Request(dimensions, influencePercent))
}
