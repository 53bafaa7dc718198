package models

// ImportTemplateColumn defines a column in the import template
type ImportTemplateColumn struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Required    bool   `json:"required"`
	Type        string `json:"type"` // string, number, integer
	Example     string `json:"example"`
}

// ImportRowError represents an error for a specific row
type ImportRowError struct {
	Row     int    `json:"row"`
	Column  string `json:"column,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ImportResult represents the result of an import operation
type ImportResult struct {
	Success      bool             `json:"success"`
	TotalRows    int              `json:"totalRows"`
	CreatedCount int              `json:"createdCount"`
	UpdatedCount int              `json:"updatedCount"`
	FailedCount  int              `json:"failedCount"`
	Errors       []ImportRowError `json:"errors,omitempty"`
	ValidateOnly bool             `json:"validateOnly,omitempty"`
}

// StockImportColumns is the layout of the stock spreadsheet
var StockImportColumns = []ImportTemplateColumn{
	{Name: "vendor_code", Description: "Product vendor code", Required: true, Type: "string", Example: "SKU-001"},
	{Name: "warehouse", Description: "Warehouse name or external ID", Required: true, Type: "string", Example: "Almaty Central"},
	{Name: "quantity", Description: "Units in stock", Required: true, Type: "integer", Example: "12"},
	{Name: "price", Description: "Unit price", Required: true, Type: "number", Example: "19990.00"},
}
