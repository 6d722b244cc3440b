package firs

import "github.com/shopspring/decimal"

var oneHundredRate = decimal.NewFromInt(100)
