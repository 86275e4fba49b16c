// Package phone 手机号归一化
//
// 历史数据中同一个号码存在多种写法：带/不带国家码、带空格或连字符、
// 全角数字、阿拉伯-印度数字等。Normalize 统一折叠为本地格式（如 01555555555），
// Variants 给出查询时需要同时匹配的全部写法。
package phone

import (
	"strings"

	"golang.org/x/text/width"
)

// Normalizer 手机号归一化器
type Normalizer struct {
	countryPrefix string // 国家码（不含 +），例如埃及为 "2"
}

// NewNormalizer 创建归一化器
func NewNormalizer(countryPrefix string) *Normalizer {
	return &Normalizer{countryPrefix: strings.TrimPrefix(strings.TrimSpace(countryPrefix), "+")}
}

// Normalize 去除空白与分隔符、折叠数字、去掉前导国家码
// 返回空串表示输入中没有任何数字
func (n *Normalizer) Normalize(raw string) string {
	folded := width.Narrow.String(raw)

	var b strings.Builder
	for _, r := range folded {
		if d, ok := digitValue(r); ok {
			b.WriteByte(byte('0' + d))
		}
		// 空白、+、-、括号等一律丢弃
	}
	digits := b.String()

	// 00 国际前缀
	digits = strings.TrimPrefix(digits, "00")

	// 前导国家码：仅当去掉后仍是本地格式（以 0 开头）时才去掉
	if n.countryPrefix != "" && strings.HasPrefix(digits, n.countryPrefix+"0") {
		digits = strings.TrimPrefix(digits, n.countryPrefix)
	}
	return digits
}

// Variants 归一化后的号码在库中可能的存储写法
// 顺序固定：本地格式、带国家码、带 + 国家码
func (n *Normalizer) Variants(normalized string) []string {
	if normalized == "" {
		return nil
	}
	out := []string{normalized}
	if n.countryPrefix != "" {
		out = append(out, n.countryPrefix+normalized, "+"+n.countryPrefix+normalized)
	}
	return out
}

// digitValue 返回 r 对应的十进制数字
// 支持 ASCII、阿拉伯-印度数字（U+0660）与扩展阿拉伯-印度数字（U+06F0）
func digitValue(r rune) (int, bool) {
	switch {
	case r >= '0' && r <= '9':
		return int(r - '0'), true
	case r >= '٠' && r <= '٩':
		return int(r - '٠'), true
	case r >= '۰' && r <= '۹':
		return int(r - '۰'), true
	}
	return 0, false
}
