package analyzer

import (
	"strings"

	"AlphaScanner/internal/model"
)

// categoryRule 关键词 -> 分类 规则，按优先级排列（L2 在 L1 前，DeFi 在通用 Infra 前）
type categoryRule struct {
	keywords []string
	category model.ProjectCategory
}

var categoryRules = []categoryRule{
	{[]string{"layer2", "l2", "rollup", "zk-rollup", "optimistic"}, model.CategoryL2},
	{[]string{"layer1", "l1", "blockchain", "consensus"}, model.CategoryL1},
	{[]string{"defi", "dex", "swap", "lending", "yield", "amm", "liquidity"}, model.CategoryDefi},
	{[]string{"bridge", "cross-chain", "interoperability", "oracle"}, model.CategoryInfrastructure},
	{[]string{"sdk", "tool", "library", "framework", "cli", "api"}, model.CategoryTooling},
	{[]string{"game", "gaming", "play-to-earn", "metaverse"}, model.CategoryGaming},
	{[]string{"nft", "collectible", "marketplace"}, model.CategoryNFT},
	{[]string{"social", "dao", "governance", "community"}, model.CategorySocial},
	{[]string{" ai ", "machine learning", "llm", "gpt", "neural"}, model.CategoryAI},
}

// DetectCategory 基于名称+描述+topic文本的关键词规则分类，首个命中即返回，
// 无命中兜底 Other。纯函数，无副作用。
func DetectCategory(raw *model.RawProject) model.ProjectCategory {
	blob := strings.ToLower(raw.Description) + " " +
		strings.ToLower(raw.Name) + " " +
		strings.ToLower(strings.Join(raw.GithubTopics, " "))

	for _, rule := range categoryRules {
		for _, kw := range rule.keywords {
			if strings.Contains(blob, kw) {
				return rule.category
			}
		}
	}
	return model.CategoryOther
}
