package models

import (
	"fmt"
	"strconv"
)

// Price in whole currency units. IsStartingPrice marks a range whose lower
// bound is Amount.
type Price struct {
	Amount          int  `json:"amount" yaml:"amount"`
	IsStartingPrice bool `json:"isStartingPrice" yaml:"isStartingPrice"`
}

func NewPrice(amount int, startingPrice bool) (Price, error) {
	p := Price{Amount: amount, IsStartingPrice: startingPrice}
	if err := p.Validate(); err != nil {
		return Price{}, err
	}
	return p, nil
}

func (p Price) Validate() error {
	if p.Amount < 0 {
		return fmt.Errorf("negative price: %d", p.Amount)
	}
	return nil
}

func (p Price) String() string {
	s := strconv.Itoa(p.Amount) + "€"
	if p.IsStartingPrice {
		return "à partir de " + s
	}
	return s
}
