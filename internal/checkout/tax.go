package checkout

import "math"

// PriceFromTTC 从含税价反推不含税价与税额（价内税）。
// 入参与出参单位为主币种（欧元），各自保留两位小数。
func PriceFromTTC(ttcPrice, taxRate float64) (originalPrice, taxAmount float64) {
	divisor := 1 + taxRate
	originalPrice = round2(ttcPrice / divisor)
	taxAmount = round2(ttcPrice - originalPrice)
	return originalPrice, taxAmount
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
