package analyze

import (
	"strings"

	"github.com/Wayne-Yuw/toolscout-ai/internal/llm"
)

const systemPrompt = "You are an expert product analyst for SaaS/tools. Follow the product design spec of ToolScout AI. Output structured Markdown sections with clear headings in Chinese."

var taskLines = []string{
	"Task: 依据以上网页内容，生成“工具深度拆解”报告，遵循以下结构：",
	"1) 产品概览（定位/价值主张/关键信息）",
	"2) 受众画像（标签+痛点+使用场景）",
	"3) 核心功能与JTBD（功能—收益/限制/典型流程）",
	"4) 定价与变现（若无则标注假设）",
	"5) Onboarding与激活路径（首次体验/关键触点/阻塞点）",
	"6) 竞品与差异化（列3-5个常见竞品对比要点）",
	"7) 潜在用户异议与风险（技术、合规、依赖、性能等）",
	"8) 增长渠道与GTM线索（SEO/社区/联盟/内容/渠道合作等）",
	"9) 评估检查清单（可执行的打分项）",
	"说明：如信息缺失，请谨慎推断并明确标注“假设”。",
}

// Sampling options for the report.
const (
	Temperature = 0.2
	MaxTokens   = 1200
)

// BuildMessages returns the system and user turns for one page. The title line
// is omitted when the page has none.
func BuildMessages(url, title, snippet string) []llm.Message {
	lines := []string{"URL: " + url}
	if title != "" {
		lines = append(lines, "Title: "+title)
	}
	lines = append(lines,
		"Website content snippet (partial and may be noisy):",
		"---",
		snippet,
		"---",
	)
	lines = append(lines, taskLines...)

	return []llm.Message{
		{Role: llm.RoleSystem, Content: systemPrompt},
		{Role: llm.RoleUser, Content: strings.Join(lines, "\n")},
	}
}

// Options returns the sampling options used for every analysis.
func Options() llm.Options {
	return llm.Options{Temperature: llm.Float(Temperature), MaxTokens: MaxTokens}
}
