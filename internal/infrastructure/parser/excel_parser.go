package parser

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/suvtekin/auto-bot/internal/domain/entity"
	"github.com/suvtekin/auto-bot/internal/domain/repository"
	"github.com/suvtekin/auto-bot/internal/log"
)

type excelParser struct{}

// NewExcelParser yangi Excel parser yaratish
func NewExcelParser() repository.ExcelParser {
	return &excelParser{}
}

// ParseCars Excel fayldan e'lonlarni o'qish
func (e *excelParser) ParseCars(ctx context.Context, filePath string) ([]entity.Car, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open excel file: %w", err)
	}
	defer f.Close()

	return e.parseExcelFile(f)
}

// ParseCarsFromBytes byte array dan parse qilish
func (e *excelParser) ParseCarsFromBytes(ctx context.Context, data []byte, filename string) ([]entity.Car, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open excel %q: %w", filename, err)
	}
	defer f.Close()

	return e.parseExcelFile(f)
}

// columnMap header ustunlari indekslari, -1 - ustun yo'q
type columnMap struct {
	title, brand, model, year, price, mileage int
	fuel, transmission, color, engine          int
	description                                int
	photos                                     []int
}

func (e *excelParser) parseExcelFile(f *excelize.File) ([]entity.Car, error) {
	logger := log.GetLogger()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("excel file has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to get rows: %w", err)
	}
	if len(rows) < 2 {
		return nil, errors.New("excel file has no data rows")
	}

	cols := e.mapColumns(rows[0])
	if cols.price < 0 {
		if guessed := e.detectPriceColumn(rows, 1); guessed >= 0 {
			cols.price = guessed
			logger.WithField("column", guessed).Debug("guessed price column")
		} else {
			return nil, errors.New("price column not found")
		}
	}
	if cols.title < 0 && (cols.brand < 0 || cols.model < 0) {
		return nil, errors.New("title or brand/model columns not found")
	}

	var cars []entity.Car
	for i := 1; i < len(rows); i++ {
		row := rows[i]
		if isEmptyRow(row) {
			continue
		}

		price, err := e.parsePrice(cell(row, cols.price))
		if err != nil || price <= 0 {
			logger.WithField("row", i+1).WithField("value", cell(row, cols.price)).Warn("invalid price, skipping row")
			continue
		}

		car := entity.Car{
			Title:        cell(row, cols.title),
			BrandName:    cell(row, cols.brand),
			ModelName:    cell(row, cols.model),
			Price:        price,
			FuelType:     cell(row, cols.fuel),
			Transmission: cell(row, cols.transmission),
			Color:        cell(row, cols.color),
			Description:  cell(row, cols.description),
			IsActive:     true,
		}
		if year, err := strconv.Atoi(cell(row, cols.year)); err == nil {
			car.Year = year
		}
		if mileage, err := e.parseNumber(cell(row, cols.mileage)); err == nil {
			car.Mileage = int(mileage)
		}
		if engine, err := strconv.ParseFloat(strings.ReplaceAll(cell(row, cols.engine), ",", "."), 64); err == nil {
			car.EngineCapacity = engine
		}
		for slot, idx := range cols.photos {
			if slot >= entity.PhotoSlots {
				break
			}
			car.Photos[slot] = cell(row, idx)
		}

		if car.Title == "" {
			car.Title = strings.TrimSpace(strings.Join([]string{car.BrandName, car.ModelName, yearLabel(car.Year)}, " "))
		}
		if car.Title == "" {
			logger.WithField("row", i+1).Warn("row without title, skipping")
			continue
		}

		cars = append(cars, car)
	}

	logger.WithField("cars", len(cars)).WithField("rows", len(rows)-1).Info("excel parsed")

	if len(cars) == 0 {
		return nil, fmt.Errorf("no valid cars found in excel file (parsed %d rows, but all were invalid)", len(rows)-1)
	}
	return cars, nil
}

func yearLabel(year int) string {
	if year == 0 {
		return ""
	}
	return strconv.Itoa(year)
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// isEmptyRow qator bo'sh yoki yo'qligini tekshirish
func isEmptyRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// mapColumns header qatoridan column mapping yaratish
func (e *excelParser) mapColumns(header []string) columnMap {
	cols := columnMap{
		title: -1, brand: -1, model: -1, year: -1, price: -1, mileage: -1,
		fuel: -1, transmission: -1, color: -1, engine: -1, description: -1,
	}

	for i, raw := range header {
		name := strings.ToLower(strings.TrimSpace(raw))
		if name == "" {
			continue
		}

		// rasm ustunlari birinchi: "photo url" ichida boshqa kalit so'zlar ham bo'lishi mumkin
		switch {
		case contains(name, "photo", "фото", "rasm", "image", "img"):
			cols.photos = append(cols.photos, i)
		case contains(name, "description", "описание", "tavsif", "info"):
			cols.description = i
		case contains(name, "brand", "марка", "marka"):
			cols.brand = i
		case contains(name, "model", "модель"):
			cols.model = i
		case contains(name, "year", "год", "yil"):
			cols.year = i
		case contains(name, "mileage", "пробег", "probeg", "km", "км"):
			cols.mileage = i
		case contains(name, "price", "цена", "narx", "usd", "$"):
			cols.price = i
		case contains(name, "fuel", "топливо", "yoqilg"):
			cols.fuel = i
		case contains(name, "transmission", "gearbox", "кпп", "коробка", "kpp"):
			cols.transmission = i
		case contains(name, "color", "colour", "цвет", "rang"):
			cols.color = i
		case contains(name, "engine", "двигатель", "объем", "dvigatel"):
			cols.engine = i
		case contains(name, "title", "name", "название", "nomi"):
			cols.title = i
		}
	}
	return cols
}

// detectPriceColumn narx ustunini topish (agar headerda topilmasa)
func (e *excelParser) detectPriceColumn(rows [][]string, startRow int) int {
	limitRows := startRow + 15
	if limitRows > len(rows) {
		limitRows = len(rows)
	}

	maxCols := 0
	for i := startRow; i < limitRows; i++ {
		if len(rows[i]) > maxCols {
			maxCols = len(rows[i])
		}
	}

	bestCol, bestCount := -1, 0
	for col := 0; col < maxCols; col++ {
		count := 0
		for i := startRow; i < limitRows; i++ {
			price, err := e.parsePrice(cell(rows[i], col))
			// yil ustuni narx deb olinmasin
			if err == nil && price > 3000 {
				count++
			}
		}
		if count > bestCount {
			bestCol, bestCount = col, count
		}
	}

	if bestCount >= 2 {
		return bestCol
	}
	return -1
}

// contains tekshirish uchun helper
func contains(str string, keywords ...string) bool {
	for _, keyword := range keywords {
		if strings.Contains(str, keyword) {
			return true
		}
	}
	return false
}

var priceNoise = strings.NewReplacer(
	",", "", " ", "", "\u00a0", "", "$", "", "usd", "", "сом", "", "som", "", "kgs", "",
)

// parsePrice narxni parse qilish ("12 500$", "12,500 USD")
func (e *excelParser) parsePrice(raw string) (float64, error) {
	cleaned := priceNoise.Replace(strings.ToLower(strings.TrimSpace(raw)))
	if cleaned == "" {
		return 0, errors.New("empty price")
	}

	price, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid price format: %s", raw)
	}
	return price, nil
}

var numberNoise = strings.NewReplacer(",", "", " ", "", "\u00a0", "", "km", "", "км", "")

// parseNumber probeg kabi butun sonlar ("120 000 km")
func (e *excelParser) parseNumber(raw string) (float64, error) {
	cleaned := numberNoise.Replace(strings.ToLower(strings.TrimSpace(raw)))
	if cleaned == "" {
		return 0, errors.New("empty number")
	}
	return strconv.ParseFloat(cleaned, 64)
}
