// Package core provides money parsing and handling utilities.
//
// This file contains functions for parsing monetary amounts from strings
// and converting between paise and rupee representations.
package core

import (
	"strconv"
	"strings"
	"unicode"
)

// Money is an amount in paise (1/100 rupee).
type Money struct {
	Paise int64
}

// MinAmount is the smallest donation the form accepts: one whole rupee.
var MinAmount = Money{Paise: 100}

// Rupees builds a Money from a whole rupee amount.
func Rupees(r int64) Money {
	return Money{Paise: r * 100}
}

// Add returns the sum of m and o.
func (m Money) Add(o Money) Money {
	return Money{Paise: m.Paise + o.Paise}
}

// ParseAmount converts a decimal string to paise with proper rounding.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and performs
// half-up rounding on the third decimal place. The result is always positive.
// Returns ErrInvalidAmount for invalid formats, negative values, or zero amounts.
//
// Examples:
//
//	ParseAmount("150")    -> 15000
//	ParseAmount("12,34")  -> 1234
//	ParseAmount("12.345") -> 1235 (rounds up)
func ParseAmount(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Money{}, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return Money{}, ErrInvalidAmount
	}
	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return Money{}, ErrInvalidAmount
	}
	intPart := parts[0]
	fracPart := ""
	if len(parts) == 2 {
		fracPart = parts[1]
	}
	if intPart == "" {
		intPart = "0"
	}
	for _, r := range intPart + fracPart {
		if !unicode.IsDigit(r) || r > unicode.MaxASCII {
			return Money{}, ErrInvalidAmount
		}
	}
	iv, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	const maxSafeInt64 = (1<<63 - 1) / 100
	if iv >= maxSafeInt64 {
		return Money{}, ErrInvalidAmount
	}
	var frac int64
	if len(fracPart) > 0 {
		frac = int64(fracPart[0]-'0') * 10
		if len(fracPart) > 1 {
			frac += int64(fracPart[1] - '0')
			if len(fracPart) > 2 && fracPart[2] >= '5' {
				frac++
			}
		}
	}
	paise := iv*100 + frac
	if paise <= 0 {
		return Money{}, ErrInvalidAmount
	}
	return Money{Paise: paise}, nil
}

// String renders the amount the way the backing file stores it:
// whole rupees without decimals, otherwise two decimal places.
func (m Money) String() string {
	neg := m.Paise < 0
	p := m.Paise
	if neg {
		p = -p
	}
	s := strconv.FormatInt(p/100, 10)
	if rem := p % 100; rem != 0 {
		s += "." + twoDigits(rem)
	}
	if neg {
		return "-" + s
	}
	return s
}

// Display formats the amount for people, e.g. "₹1,234.50".
func (m Money) Display() string {
	neg := m.Paise < 0
	p := m.Paise
	if neg {
		p = -p
	}
	whole := strconv.FormatInt(p/100, 10)
	var b strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	s := "₹" + b.String() + "." + twoDigits(p%100)
	if neg {
		return "-" + s
	}
	return s
}

// Float returns the rupee value for charting.
// Use paise for calculations to avoid floating-point drift.
func (m Money) Float() float64 {
	return float64(m.Paise) / 100.0
}

func twoDigits(v int64) string {
	if v < 10 {
		return "0" + strconv.FormatInt(v, 10)
	}
	return strconv.FormatInt(v, 10)
}
