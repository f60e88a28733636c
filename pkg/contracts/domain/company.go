package domain

// Company is a listed company as published in an exchange directory
type Company struct {
	Name   string `json:"name"`
	Symbol string `json:"symbol"`
}
