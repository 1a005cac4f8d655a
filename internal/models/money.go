package models

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

const moneyScale = 2

// Money 金额（两位小数，四舍五入）
type Money struct {
	decimal.Decimal
}

func cents(d decimal.Decimal) Money {
	return Money{Decimal: d.Round(moneyScale)}
}

// NewMoney 从浮点数创建金额
func NewMoney(amount float64) Money {
	return cents(decimal.NewFromFloat(amount))
}

// ZeroMoney 零金额
func ZeroMoney() Money {
	return Money{Decimal: decimal.Zero}
}

// NewMoneyFromDecimal 从 decimal 创建金额
func NewMoneyFromDecimal(amount decimal.Decimal) Money {
	return cents(amount)
}

// ParseMoney 解析 "12.5"、"12,50" 之类的文本金额
func ParseMoney(text string) (Money, error) {
	d, err := decimal.NewFromString(strings.ReplaceAll(strings.TrimSpace(text), ",", "."))
	if err != nil {
		return ZeroMoney(), fmt.Errorf("invalid money %q: %w", text, err)
	}
	return cents(d), nil
}

// MarshalJSON 输出固定两位小数的字符串
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

// UnmarshalJSON 接受字符串、数字或 null
func (m *Money) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}
	if b[0] == '"' {
		var text string
		if err := json.Unmarshal(b, &text); err != nil {
			return err
		}
		parsed, err := ParseMoney(text)
		if err != nil {
			return err
		}
		*m = parsed
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(b, &num); err != nil {
		return err
	}
	parsed, err := ParseMoney(num.String())
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Value 以两位定点字符串写库
func (m Money) Value() (driver.Value, error) {
	return m.String(), nil
}

// Scan 读库后统一保留两位
func (m *Money) Scan(value interface{}) error {
	var d decimal.Decimal
	if err := d.Scan(value); err != nil {
		return err
	}
	*m = cents(d)
	return nil
}

func (m Money) String() string {
	return m.Decimal.Round(moneyScale).StringFixed(moneyScale)
}

// Float 承运商报文使用
func (m Money) Float() float64 {
	f, _ := m.Decimal.Round(moneyScale).Float64()
	return f
}

// Add 金额相加
func (m Money) Add(other Money) Money {
	return cents(m.Decimal.Add(other.Decimal))
}

// Sub 金额相减
func (m Money) Sub(other Money) Money {
	return cents(m.Decimal.Sub(other.Decimal))
}

// MulInt 金额乘以数量
func (m Money) MulInt(n int) Money {
	return cents(m.Decimal.Mul(decimal.NewFromInt(int64(n))))
}

// ClampZero 负数归零
func (m Money) ClampZero() Money {
	if m.Decimal.IsNegative() {
		return ZeroMoney()
	}
	return m
}
