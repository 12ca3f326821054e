package analyzer

import (
	"math"

	"AlphaScanner/internal/model"
)

// CalculateScore 基于活跃度与社交信号的加权启发式评分，范围[0,10]。
// 基准5.0，各维度独立加分，最终截断到10并保留一位小数。
// 幂等：同一输入重复计算结果一致。
func CalculateScore(raw *model.RawProject) float64 {
	score := 5.0

	// star 档位加分（0-2分）
	switch stars := raw.GithubStars; {
	case stars > 100:
		score += 2.0
	case stars > 50:
		score += 1.5
	case stars > 20:
		score += 1.0
	case stars > 10:
		score += 0.5
	}

	// 近30天 commit 档位加分（0-1.5分）
	switch commits := raw.GithubCommits30d; {
	case commits > 50:
		score += 1.5
	case commits > 20:
		score += 1.0
	case commits > 10:
		score += 0.5
	}

	// 贡献者档位加分（0-1分）
	switch contributors := raw.GithubContributors; {
	case contributors > 5:
		score += 1.0
	case contributors > 2:
		score += 0.5
	}

	// 早期信号加分：testnet/devnet 关键词（0.5分）
	if raw.HasSignal("testnet") || raw.HasSignal("devnet") {
		score += 0.5
	}

	// 社交链接存在性加分
	if raw.TwitterURL != "" {
		score += 0.3
	}
	if raw.DiscordURL != "" {
		score += 0.2
	}

	return math.Min(10.0, math.Round(score*10)/10)
}
