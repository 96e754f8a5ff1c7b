// Package barcode 解析线束产品/批次条码的编码规则。
//
// 编码形式为 {前缀?}{成品编码}{-回路号?}，例如：
//
//	P001Q100          成品
//	P001Q100-001      压接半成品（回路001）
//	MSP001Q100-001    中剥半成品
//	MCP001Q100        手动压接半成品
//
// 批次条码在产品编码后追加 -{工序简码}{YYMMDD}-{序号}，
// 例如 MSP001Q100-S241223-0001。
package barcode

import (
	"strconv"
	"strings"
)

// ProductType 产品类型
type ProductType string

const (
	TypeFinished ProductType = "FINISHED"
	TypeSemiCA   ProductType = "SEMI_CA"
	TypeSemiMS   ProductType = "SEMI_MS"
	TypeSemiMC   ProductType = "SEMI_MC"
	TypeSemiSB   ProductType = "SEMI_SB"
	TypeSemiHS   ProductType = "SEMI_HS"
)

// 半成品前缀，匹配顺序固定
var semiPrefixes = []struct {
	prefix string
	typ    ProductType
}{
	{"MS", TypeSemiMS},
	{"MC", TypeSemiMC},
	{"SB", TypeSemiSB},
	{"HS", TypeSemiHS},
}

// InferProductType 判定产品类型。全函数：任何输入都有结果，
// 无法识别的编码按成品处理，与现场既有行为保持一致。
func InferProductType(code string) ProductType {
	code = strings.TrimSpace(code)
	for _, p := range semiPrefixes {
		if strings.HasPrefix(code, p.prefix) {
			return p.typ
		}
	}
	if hasCircuitSuffix(code) {
		return TypeSemiCA
	}
	return TypeFinished
}

// ExtractFinishedCode 去掉半成品前缀和回路号后缀，还原成品编码。
// 幂等：对自身输出再调用结果不变。
func ExtractFinishedCode(code string) string {
	code = strings.TrimSpace(code)
	for _, p := range semiPrefixes {
		if strings.HasPrefix(code, p.prefix) {
			code = code[len(p.prefix):]
			break
		}
	}
	if hasCircuitSuffix(code) {
		code = code[:len(code)-4]
	}
	return code
}

// ExtractCircuitNo 解析末尾 -NNN 回路号；不存在或非数字返回 false。
func ExtractCircuitNo(code string) (int, bool) {
	code = strings.TrimSpace(code)
	if !hasCircuitSuffix(code) {
		return 0, false
	}
	n, err := strconv.Atoi(code[len(code)-3:])
	if err != nil {
		return 0, false
	}
	return n, true
}

// IsValidProductCode 产品编码非空即有效
func IsValidProductCode(code string) bool {
	return strings.TrimSpace(code) != ""
}

// IsValidCircuitRange 回路号合法范围 1~999
func IsValidCircuitRange(n int) bool {
	return n >= 1 && n <= 999
}

// hasCircuitSuffix 末尾是否为 -NNN（恰好3位数字）
func hasCircuitSuffix(code string) bool {
	if len(code) < 4 || code[len(code)-4] != '-' {
		return false
	}
	for i := len(code) - 3; i < len(code); i++ {
		if code[i] < '0' || code[i] > '9' {
			return false
		}
	}
	return true
}

// 批次条码可携带的工序前缀。两位码在前，避免 MS 被当作成品编码字头。
var processPrefixes = []string{"MS", "MC", "SB", "HS", "SP", "PA", "CQ", "CI", "VI", "CA"}

// DeriveProcessCode 从条码推导所属工序。
// 规则：先匹配已知工序前缀；否则编码中含 -NNN 回路段视为 CA；
// 都不满足返回空串（无法推导）。
func DeriveProcessCode(code string) string {
	code = strings.TrimSpace(code)
	if code == "" {
		return ""
	}
	for _, p := range processPrefixes {
		if strings.HasPrefix(code, p) {
			return p
		}
	}
	// 批次条码中间的回路段也算：P001Q100-001-C241223-0001
	for _, seg := range strings.Split(code, "-")[1:] {
		if len(seg) == 3 && isDigits(seg) {
			return "CA"
		}
	}
	return ""
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return len(s) > 0
}
