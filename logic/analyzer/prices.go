package analyzer

import (
	"regexp"
	"strconv"
	"strings"

	"contractscan/logic/currency"
	"contractscan/types"
)

// 低于该值 (卢比) 的基础价格视为噪声
const minPlausibleBaseINR = 10_000

// 金额候选: 带币种前缀或后缀, 或带 lakh/crore 单位的数字
var candidateRe = regexp.MustCompile(`(?i)(\$|₹|\bRs\.?|\bINR|\bUSD)?\s*(\d+(?:,\d{2,3})*(?:\.\d{1,2})?)(?:\s*(lakhs?|lacs?|crores?|INR|USD)\b)?`)

// priceEstimate 金额以 pool 币种计.
type priceEstimate struct {
	pool  currency.Code
	base  float64
	total float64
	ok    bool
}

type candidate struct {
	value float64
	code  currency.Code
}

func scanCandidates(text string) []candidate {
	var out []candidate
	for _, m := range candidateRe.FindAllStringSubmatch(text, -1) {
		prefix, num, suffix := strings.ToLower(m[1]), m[2], strings.ToLower(m[3])
		if prefix == "" && suffix == "" {
			continue
		}
		v, err := strconv.ParseFloat(strings.ReplaceAll(num, ",", ""), 64)
		if err != nil {
			continue
		}
		code := currency.INR
		switch {
		case strings.HasPrefix(suffix, "crore"):
			v *= currency.Crore
		case strings.HasPrefix(suffix, "la"):
			v *= currency.Lakh
		case prefix == "$" || prefix == "usd" || suffix == "usd":
			code = currency.USD
		}
		out = append(out, candidate{value: v, code: code})
	}
	return out
}

func (a *Analyzer) extractPrices(text string) priceEstimate {
	cands := scanCandidates(text)
	if len(cands) == 0 {
		return priceEstimate{}
	}

	// 文本中出现任何本地币种标记时以卢比计价, 否则以美元计价
	pool := currency.USD
	if currency.DetectCode(text) == currency.INR {
		pool = currency.INR
	}

	var total float64
	values := make([]float64, 0, len(cands))
	for _, c := range cands {
		v := a.inPool(c.value, c.code, pool)
		values = append(values, v)
		total = max(total, v)
	}
	base := 0.0
	for _, v := range values {
		if v < total && v > base {
			base = v
		}
	}
	if base == 0 {
		base = total
	}

	if a.conv.WholeINR(base, pool) < minPlausibleBaseINR {
		return priceEstimate{pool: pool}
	}
	return priceEstimate{pool: pool, base: base, total: total, ok: true}
}

func (a *Analyzer) inPool(v float64, code, pool currency.Code) float64 {
	switch {
	case code == currency.USD && pool == currency.INR:
		return v * a.conv.Rate()
	case code == currency.INR && pool == currency.USD:
		return v / a.conv.Rate()
	}
	return v
}

func (p priceEstimate) basePrice(conv currency.Converter) string {
	if !p.ok {
		return types.PriceNotSpecified
	}
	return currency.FormatINR(conv.WholeINR(p.base, p.pool))
}

// rollUp 在总价上叠加费用: 百分比费用按总价折算, 固定金额换算为计价币种后累加.
func (a *Analyzer) rollUp(p priceEstimate, fees []types.Fee) string {
	if !p.ok || p.total <= 0 {
		return types.TotalNotCalculated
	}
	ref := p.total
	var extra float64
	for _, f := range fees {
		amt, ok := currency.ParseAmount(f.Amount)
		if !ok {
			continue
		}
		if amt.Percent {
			extra += ref * amt.Value / 100
			continue
		}
		code := amt.Code
		if code == currency.Unknown {
			code = p.pool
		}
		extra += a.inPool(amt.Value, code, p.pool)
	}
	return currency.FormatINR(a.conv.WholeINR(p.total+extra, p.pool))
}
