package importer

import (
	"context"
	"errors"
	"strings"
	"testing"

	"lojavirtual/internal/domain"
)

type stubProductWriter struct {
	items []domain.Product
	err   error
}

func (s *stubProductWriter) Upsert(_ context.Context, p domain.Product) (*domain.Product, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.items = append(s.items, p)
	return &p, nil
}

func TestCSVImporter_Run(t *testing.T) {
	csvData := "\ufeffSKU,name,description,price,promotional_price,active\n" +
		"CAM-01,Camiseta,Algodão,100.00,75.00,\n" +
		",,,,,\n" +
		"CAN-02,Caneca,,29.90,,false\n"

	repo := &stubProductWriter{}
	count, err := NewCSVImporter(strings.NewReader(csvData), repo).Run(context.Background())
	if err != nil {
		t.Fatalf("import run: %v", err)
	}
	if count != 2 || len(repo.items) != 2 {
		t.Fatalf("expected 2 products imported, got %d (%d saved)", count, len(repo.items))
	}

	first := repo.items[0]
	if first.SKU != "CAM-01" || first.Name != "Camiseta" || first.Description != "Algodão" || !first.Active {
		t.Fatalf("unexpected product data: %+v", first)
	}
	if first.Price.String() != "100" || first.PromotionalPrice == nil || first.PromotionalPrice.String() != "75" {
		t.Fatalf("unexpected prices: %s %v", first.Price, first.PromotionalPrice)
	}

	second := repo.items[1]
	if second.Active || second.PromotionalPrice != nil || second.Price.StringFixed(2) != "29.90" {
		t.Fatalf("unexpected second product: %+v", second)
	}
}

func TestCSVImporter_MissingColumn(t *testing.T) {
	_, err := NewCSVImporter(strings.NewReader("sku,name\nA,B\n"), &stubProductWriter{}).Run(context.Background())
	if err == nil || !strings.Contains(err.Error(), `"price"`) {
		t.Fatalf("expected missing price column error, got %v", err)
	}
}

func TestCSVImporter_InvalidRowStops(t *testing.T) {
	csvData := "sku,name,price\nA,Alpha,10\nB,Beta,dez\nC,Gama,3\n"
	repo := &stubProductWriter{}

	count, err := NewCSVImporter(strings.NewReader(csvData), repo).Run(context.Background())
	if err == nil || !strings.Contains(err.Error(), "line 3") {
		t.Fatalf("expected error on line 3, got %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 product before the failure, got %d", count)
	}
}

func TestCSVImporter_WriterError(t *testing.T) {
	boom := errors.New("boom")
	_, err := NewCSVImporter(strings.NewReader("sku,name,price\nA,Alpha,10\n"), &stubProductWriter{err: boom}).Run(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped writer error, got %v", err)
	}
}
