package money

import (
	"math"
)

// Epsilon 抵消浮点边界误差，保证 x.xx5 不会因二进制表示落到下一档
const Epsilon = 1e-9

// Round2 金额四舍五入保留两位小数
// 计算方式：(value + Epsilon) * 100 四舍五入后整除 100
func Round2(v float64) float64 {
	return math.Floor((v+Epsilon)*100+0.5) / 100
}

// Floor2 金额向下取整保留两位小数
// 用于分摊单价，保证按单价累计的总额不会超过被分摊的池子
func Floor2(v float64) float64 {
	return math.Floor((v+Epsilon)*100) / 100
}
