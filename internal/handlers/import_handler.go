package handlers

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"catalog-service/internal/models"
	"catalog-service/internal/repository"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"
)

const (
	stockSheet    = "Stocks"
	productSheet  = "Products"
	xlsxMIME      = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	exportBatch   = 500
	maxImportRows = 20000
)

// ImportHandler moves stock and product data in and out of spreadsheets
type ImportHandler struct {
	stocks   *repository.StockRepository
	products *repository.ProductsRepository
	logger   *logrus.Entry
}

func NewImportHandler(stocks *repository.StockRepository, products *repository.ProductsRepository, logger *logrus.Logger) *ImportHandler {
	return &ImportHandler{
		stocks:   stocks,
		products: products,
		logger:   logger.WithField("component", "import_handler"),
	}
}

// GetStockTemplate returns the stock import layout as JSON, CSV or XLSX
// GET /api/v1/admin/stocks/import/template?format=
func (h *ImportHandler) GetStockTemplate(c *gin.Context) {
	switch c.DefaultQuery("format", "json") {
	case "csv":
		c.Header("Content-Type", "text/csv")
		c.Header("Content-Disposition", "attachment; filename=stocks_import_template.csv")
		writer := csv.NewWriter(c.Writer)
		headers := make([]string, len(models.StockImportColumns))
		for i, col := range models.StockImportColumns {
			headers[i] = col.Name
		}
		writer.Write(headers)
		writer.Flush()
	case "xlsx":
		h.writeStockTemplate(c)
	default:
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"columns": models.StockImportColumns,
		})
	}
}

func headerStyles(f *excelize.File) (int, int) {
	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	requiredStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"C65911"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	return headerStyle, requiredStyle
}

func (h *ImportHandler) writeStockTemplate(c *gin.Context) {
	f := excelize.NewFile()
	defer f.Close()
	f.SetSheetName("Sheet1", stockSheet)
	headerStyle, requiredStyle := headerStyles(f)

	for i, col := range models.StockImportColumns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		text := col.Name
		style := headerStyle
		if col.Required {
			text += " *"
			style = requiredStyle
		}
		f.SetCellValue(stockSheet, cell, text)
		f.SetCellStyle(stockSheet, cell, cell, style)
		colName, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(stockSheet, colName, colName, 22)
	}

	f.NewSheet("Instructions")
	f.SetCellValue("Instructions", "A1", "Stock Import Instructions")
	f.SetCellValue("Instructions", "A3", "Each row sets the quantity and price of one product in one warehouse.")
	f.SetCellValue("Instructions", "A4", "Rows for an existing (warehouse, product) pair replace its quantity and price.")
	f.SetCellValue("Instructions", "A5", "warehouse accepts the warehouse name or its external ID.")
	f.SetCellValue("Instructions", "A7", "Column")
	f.SetCellValue("Instructions", "B7", "Description")
	f.SetCellValue("Instructions", "C7", "Required")
	f.SetCellValue("Instructions", "D7", "Type")
	f.SetCellValue("Instructions", "E7", "Example")
	for i, col := range models.StockImportColumns {
		row := i + 8
		required := "Optional"
		if col.Required {
			required = "Required"
		}
		f.SetCellValue("Instructions", fmt.Sprintf("A%d", row), col.Name)
		f.SetCellValue("Instructions", fmt.Sprintf("B%d", row), col.Description)
		f.SetCellValue("Instructions", fmt.Sprintf("C%d", row), required)
		f.SetCellValue("Instructions", fmt.Sprintf("D%d", row), col.Type)
		f.SetCellValue("Instructions", fmt.Sprintf("E%d", row), col.Example)
	}
	f.SetColWidth("Instructions", "A", "A", 20)
	f.SetColWidth("Instructions", "B", "B", 60)

	sheetIdx, _ := f.GetSheetIndex(stockSheet)
	f.SetActiveSheet(sheetIdx)

	c.Header("Content-Type", xlsxMIME)
	c.Header("Content-Disposition", "attachment; filename=stocks_import_template.xlsx")
	if err := f.Write(c.Writer); err != nil {
		h.logger.WithError(err).Error("Failed to write stock template")
	}
}

// ImportStocks upserts stock rows from a CSV or XLSX upload. Each row is
// applied on its own; failures are reported per row.
// POST /api/v1/admin/stocks/import
func (h *ImportHandler) ImportStocks(c *gin.Context) {
	startTime := time.Now()
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		errorResponse(c, http.StatusBadRequest, "FILE_REQUIRED", "Please upload a CSV or Excel file")
		return
	}
	defer file.Close()

	validateOnly := c.DefaultPostForm("validateOnly", "false") == "true"

	var rows []map[string]string
	switch name := strings.ToLower(header.Filename); {
	case strings.HasSuffix(name, ".csv"):
		rows, err = parseCSV(file)
	case strings.HasSuffix(name, ".xlsx"):
		rows, err = parseXLSX(file, stockSheet)
	default:
		errorResponse(c, http.StatusBadRequest, "INVALID_FORMAT", "Only CSV and XLSX files are supported")
		return
	}
	if err != nil {
		errorResponse(c, http.StatusBadRequest, "PARSE_ERROR", err.Error())
		return
	}
	if len(rows) == 0 {
		errorResponse(c, http.StatusBadRequest, "EMPTY_FILE", "The file contains no data rows")
		return
	}
	if len(rows) > maxImportRows {
		errorResponse(c, http.StatusBadRequest, "FILE_TOO_LARGE", fmt.Sprintf("At most %d rows can be imported at once", maxImportRows))
		return
	}

	result := h.importStockRows(c.Request.Context(), rows, validateOnly)
	h.logger.WithFields(logrus.Fields{
		"file":          header.Filename,
		"rows":          result.TotalRows,
		"created":       result.CreatedCount,
		"updated":       result.UpdatedCount,
		"failed":        result.FailedCount,
		"validate_only": validateOnly,
		"duration_ms":   time.Since(startTime).Milliseconds(),
	}).Info("Stock import finished")
	c.JSON(http.StatusOK, result)
}

func (h *ImportHandler) importStockRows(ctx context.Context, rows []map[string]string, validateOnly bool) *models.ImportResult {
	result := &models.ImportResult{
		TotalRows:    len(rows),
		Errors:       make([]models.ImportRowError, 0),
		ValidateOnly: validateOnly,
	}
	warehouses := make(map[string]*models.Warehouse)
	changed := false

	for _, row := range rows {
		rowNum, _ := strconv.Atoi(row["_row"])
		stock, rowErr := h.resolveStockRow(ctx, row, rowNum, warehouses)
		if rowErr != nil {
			result.Errors = append(result.Errors, *rowErr)
			result.FailedCount++
			continue
		}
		if validateOnly {
			continue
		}
		created, err := h.stocks.Upsert(ctx, stock)
		if err != nil {
			result.Errors = append(result.Errors, models.ImportRowError{Row: rowNum, Code: "SAVE_FAILED", Message: err.Error()})
			result.FailedCount++
			continue
		}
		changed = true
		if created {
			result.CreatedCount++
		} else {
			result.UpdatedCount++
		}
	}

	if changed {
		h.stocks.AfterBulkUpsert(ctx)
	}
	if validateOnly {
		result.Success = result.FailedCount < result.TotalRows
	} else {
		result.Success = result.CreatedCount+result.UpdatedCount > 0
	}
	return result
}

func rowError(row int, column, code, message string) *models.ImportRowError {
	return &models.ImportRowError{Row: row, Column: column, Code: code, Message: message}
}

// resolveStockRow validates one row and maps it to a stock record.
func (h *ImportHandler) resolveStockRow(ctx context.Context, row map[string]string, rowNum int, warehouses map[string]*models.Warehouse) (*models.Stock, *models.ImportRowError) {
	for _, col := range models.StockImportColumns {
		if col.Required && row[col.Name] == "" {
			return nil, rowError(rowNum, col.Name, "REQUIRED", col.Name+" is required")
		}
	}

	quantity, err := strconv.Atoi(row["quantity"])
	if err != nil || quantity < 0 {
		return nil, rowError(rowNum, "quantity", "INVALID_VALUE", "quantity must be a non-negative integer")
	}
	price, err := decimal.NewFromString(strings.ReplaceAll(row["price"], ",", "."))
	if err != nil || price.IsNegative() {
		return nil, rowError(rowNum, "price", "INVALID_VALUE", "price must be a non-negative number")
	}

	key := row["warehouse"]
	warehouse, ok := warehouses[key]
	if !ok {
		warehouse, err = h.stocks.WarehouseByKey(ctx, key)
		if errors.Is(err, repository.ErrWarehouseNotFound) {
			return nil, rowError(rowNum, "warehouse", "NOT_FOUND", "Unknown warehouse "+key)
		}
		if err != nil {
			return nil, rowError(rowNum, "warehouse", "LOOKUP_FAILED", err.Error())
		}
		warehouses[key] = warehouse
	}

	product, err := h.products.GetByVendorCode(ctx, row["vendor_code"])
	if errors.Is(err, repository.ErrProductNotFound) {
		return nil, rowError(rowNum, "vendor_code", "NOT_FOUND", "Unknown vendor code "+row["vendor_code"])
	}
	if err != nil {
		return nil, rowError(rowNum, "vendor_code", "LOOKUP_FAILED", err.Error())
	}

	return &models.Stock{
		WarehouseID: warehouse.ID,
		ProductID:   product.ID,
		Quantity:    quantity,
		Price:       price,
	}, nil
}

// ExportStocks writes every stock row in the import layout plus city and product name
// GET /api/v1/admin/stocks/export
func (h *ImportHandler) ExportStocks(c *gin.Context) {
	stocks, err := h.stocks.ExportRows(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	f := excelize.NewFile()
	defer f.Close()
	f.SetSheetName("Sheet1", stockSheet)
	headerStyle, _ := headerStyles(f)

	headers := []string{"vendor_code", "warehouse", "quantity", "price", "product_name"}
	for i, name := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(stockSheet, cell, name)
		f.SetCellStyle(stockSheet, cell, cell, headerStyle)
	}
	for i, s := range stocks {
		row := i + 2
		var code, productName, warehouse string
		if s.Product != nil {
			code, productName = s.Product.VendorCode, s.Product.Name
		}
		if s.Warehouse != nil {
			warehouse = s.Warehouse.Name
		}
		f.SetSheetRow(stockSheet, fmt.Sprintf("A%d", row), &[]interface{}{
			code, warehouse, s.Quantity, s.Price.StringFixed(2), productName,
		})
	}
	f.SetColWidth(stockSheet, "A", "B", 22)
	f.SetColWidth(stockSheet, "E", "E", 40)

	c.Header("Content-Type", xlsxMIME)
	c.Header("Content-Disposition", "attachment; filename=stocks.xlsx")
	if err := f.Write(c.Writer); err != nil {
		h.logger.WithError(err).Error("Failed to write stock export")
	}
}

// ExportProducts writes the catalog with stock totals, streaming it in batches
// GET /api/v1/admin/products/export
func (h *ImportHandler) ExportProducts(c *gin.Context) {
	ctx := c.Request.Context()
	f := excelize.NewFile()
	defer f.Close()
	f.SetSheetName("Sheet1", productSheet)

	sw, err := f.NewStreamWriter(productSheet)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	headers := []interface{}{"id", "vendor_code", "name", "slug", "category", "brand", "images", "total_quantity", "min_price"}
	if err := sw.SetRow("A1", headers); err != nil {
		respondError(c, h.logger, err)
		return
	}

	row := 2
	for offset := 0; ; offset += exportBatch {
		batch, err := h.products.Batch(ctx, offset, exportBatch)
		if err != nil {
			respondError(c, h.logger, err)
			return
		}
		if len(batch) == 0 {
			break
		}
		ids := make([]uuid.UUID, len(batch))
		for i := range batch {
			ids[i] = batch[i].ID
		}
		stocks, err := h.stocks.ForProducts(ctx, ids)
		if err != nil {
			respondError(c, h.logger, err)
			return
		}
		for _, p := range batch {
			var category, brand string
			if p.Category != nil {
				category = p.Category.Name
			}
			if p.Brand != nil {
				brand = p.Brand.Name
			}
			cell, _ := excelize.CoordinatesToCellName(1, row)
			quantity, minPrice := stockTotals(stocks[p.ID])
			values := []interface{}{p.ID.String(), p.VendorCode, p.Name, p.Slug, category, brand, strings.Join(p.Images, ","), quantity, minPrice}
			if err := sw.SetRow(cell, values); err != nil {
				respondError(c, h.logger, err)
				return
			}
			row++
		}
	}
	if err := sw.Flush(); err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.Header("Content-Type", xlsxMIME)
	c.Header("Content-Disposition", "attachment; filename=products.xlsx")
	if err := f.Write(c.Writer); err != nil {
		h.logger.WithError(err).Error("Failed to write product export")
	}
}

// stockTotals sums quantities and finds the lowest non-zero price; "" when unpriced.
func stockTotals(stocks []models.Stock) (int, string) {
	total := 0
	var lowest *decimal.Decimal
	for i := range stocks {
		total += stocks[i].Quantity
		price := stocks[i].Price
		if price.IsPositive() && (lowest == nil || price.LessThan(*lowest)) {
			lowest = &price
		}
	}
	if lowest == nil {
		return total, ""
	}
	return total, lowest.StringFixed(2)
}

// parseCSV reads a CSV upload into header-keyed rows; _row holds the line number.
func parseCSV(file io.Reader) ([]map[string]string, error) {
	reader := csv.NewReader(file)
	headers, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	normalizeHeaders(headers)

	var rows []map[string]string
	for lineNum := 2; ; lineNum++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading line %d: %w", lineNum, err)
		}
		if row := toRow(headers, record, lineNum); row != nil {
			rows = append(rows, row)
		}
	}
	return rows, nil
}

// parseXLSX reads the preferred sheet, or the first one, into header-keyed rows.
func parseXLSX(file io.Reader, preferred string) ([]map[string]string, error) {
	f, err := excelize.OpenReader(file)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("no sheets found in Excel file")
	}
	sheetName := sheets[0]
	for _, name := range sheets {
		if strings.EqualFold(name, preferred) {
			sheetName = name
			break
		}
	}

	excelRows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet: %w", err)
	}
	if len(excelRows) < 2 {
		return nil, fmt.Errorf("file must have a header row and at least one data row")
	}
	headers := excelRows[0]
	normalizeHeaders(headers)

	var rows []map[string]string
	for i, record := range excelRows[1:] {
		if row := toRow(headers, record, i+2); row != nil {
			rows = append(rows, row)
		}
	}
	return rows, nil
}

func normalizeHeaders(headers []string) {
	for i := range headers {
		headers[i] = strings.TrimSuffix(strings.TrimSpace(strings.ToLower(headers[i])), " *")
	}
}

// toRow returns nil for blank lines.
func toRow(headers, record []string, lineNum int) map[string]string {
	row := make(map[string]string, len(headers)+1)
	blank := true
	for i, value := range record {
		if i >= len(headers) {
			break
		}
		value = strings.TrimSpace(value)
		if value != "" {
			blank = false
		}
		row[headers[i]] = value
	}
	if blank {
		return nil
	}
	row["_row"] = strconv.Itoa(lineNum)
	return row
}
